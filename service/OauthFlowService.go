// Copyright 2024-2025 NetCracker Technology Corporation
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/client"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/crypto"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/entity"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/exception"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/metrics"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/repository"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/utils"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/view"
)

// OauthFlowService drives the authorization code flow against external
// services. StartAuthorization builds the consent page url, HandleCallback
// turns the returned code into a stored encrypted token pair and reports where
// to send the browser next.
type OauthFlowService interface {
	StartAuthorization(userId string, service string, redirectUri string) (*view.OauthStartResponse, error)
	HandleCallback(ctx context.Context, service string, callbackQuery url.Values) (string, error)
}

func NewOauthFlowService(registry ProviderRegistry, stateStore AuthorizationStateStore,
	providerClient client.OauthProviderClient, tokenCipher crypto.TokenCipher,
	intRepo repository.IntegrationRepository, refreshCoordinator TokenRefreshCoordinator,
	atService ActivityTrackingService, systemInfoService SystemInfoService) OauthFlowService {
	return &oauthFlowServiceImpl{
		registry:           registry,
		stateStore:         stateStore,
		providerClient:     providerClient,
		tokenCipher:        tokenCipher,
		intRepo:            intRepo,
		refreshCoordinator: refreshCoordinator,
		atService:          atService,
		systemInfoService:  systemInfoService,
	}
}

type oauthFlowServiceImpl struct {
	registry           ProviderRegistry
	stateStore         AuthorizationStateStore
	providerClient     client.OauthProviderClient
	tokenCipher        crypto.TokenCipher
	intRepo            repository.IntegrationRepository
	refreshCoordinator TokenRefreshCoordinator
	atService          ActivityTrackingService
	systemInfoService  SystemInfoService
}

const offlineAccessScope = "offline_access"

func (o oauthFlowServiceImpl) StartAuthorization(userId string, service string, redirectUri string) (*view.OauthStartResponse, error) {
	provider, err := o.registry.GetProvider(service)
	if err != nil {
		return nil, err
	}
	redirectUri, err = o.validateRedirectUri(redirectUri)
	if err != nil {
		return nil, err
	}

	codeVerifier := ""
	if provider.UsePkce {
		codeVerifier = oauth2.GenerateVerifier()
	}
	state, err := o.stateStore.CreateState(userId, service, codeVerifier, redirectUri)
	if err != nil {
		return nil, err
	}

	authorizationUrl, err := o.buildAuthorizationUrl(provider, state, codeVerifier)
	if err != nil {
		return nil, err
	}
	return &view.OauthStartResponse{
		AuthorizationUrl: authorizationUrl,
		Service:          service,
	}, nil
}

func (o oauthFlowServiceImpl) HandleCallback(ctx context.Context, service string, callbackQuery url.Values) (string, error) {
	provider, err := o.registry.GetProvider(service)
	if err != nil {
		return "", err
	}

	// the state is burned before anything else, a replayed callback cannot take a different branch
	stateEntity, err := o.stateStore.ConsumeState(callbackQuery.Get("state"))
	if err != nil {
		return "", err
	}
	if stateEntity == nil || stateEntity.Service != service {
		return "", &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.InvalidOrExpiredState,
			Message: exception.InvalidOrExpiredStateMsg,
		}
	}
	userId := stateEntity.UserId
	redirectUri := stateEntity.RedirectUri
	if redirectUri == "" {
		redirectUri = "/"
	}

	if oauthError := callbackQuery.Get("error"); oauthError != "" {
		log.Warnf("Authorization for user %s and service %s declined by provider: %s %s",
			userId, service, oauthError, callbackQuery.Get("error_description"))
		metrics.TokenExchangeTotal.WithLabelValues(service, "declined").Inc()
		return appendQueryParam(redirectUri, "integrationError", oauthError), nil
	}

	code := callbackQuery.Get("code")
	if code == "" {
		log.Errorf("Access code from service %s is empty", service)
		return "", &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.EmptyParameter,
			Message: exception.EmptyParameterMsg,
			Params:  map[string]interface{}{"param": "code"},
		}
	}

	oauthTokenResponse, statusCode, err := o.providerClient.ExchangeCode(ctx, provider, code, o.makeCallbackUrl(service), stateEntity.CodeVerifier)
	if err != nil {
		metrics.TokenExchangeTotal.WithLabelValues(service, "failed").Inc()
		return "", &exception.CustomError{
			Status:  http.StatusFailedDependency,
			Code:    exception.TokenExchangeFailed,
			Message: exception.TokenExchangeFailedMsg,
			Params:  map[string]interface{}{"service": service},
			Debug:   err.Error(),
		}
	}
	if oauthTokenResponse.Error != "" || statusCode != http.StatusOK {
		metrics.TokenExchangeTotal.WithLabelValues(service, "failed").Inc()
		return "", &exception.CustomError{
			Status:  http.StatusFailedDependency,
			Code:    exception.TokenExchangeFailed,
			Message: exception.TokenExchangeFailedMsg,
			Params:  map[string]interface{}{"service": service},
			Debug:   fmt.Sprintf("status code = %d, error = %s %s", statusCode, oauthTokenResponse.Error, oauthTokenResponse.ErrorDescription),
		}
	}

	// the token is checked against the userinfo endpoint before it is persisted
	if err := o.providerClient.ProbeToken(ctx, provider, oauthTokenResponse.AccessToken); err != nil {
		metrics.TokenExchangeTotal.WithLabelValues(service, "failed").Inc()
		return "", &exception.CustomError{
			Status:  http.StatusFailedDependency,
			Code:    exception.TokenExchangeFailed,
			Message: exception.TokenExchangeFailedMsg,
			Params:  map[string]interface{}{"service": service},
			Debug:   err.Error(),
		}
	}

	existingIntegration, err := o.intRepo.GetIntegration(service, userId)
	if err != nil {
		return "", err
	}
	integration, err := o.makeIntegrationEntity(provider, userId, oauthTokenResponse)
	if err != nil {
		return "", err
	}
	if _, err := o.intRepo.SaveIntegration(*integration); err != nil {
		return "", err
	}
	o.refreshCoordinator.InvalidateIntegration(userId, service)
	metrics.TokenExchangeTotal.WithLabelValues(service, "success").Inc()

	eventType := view.ATETConnectIntegration
	if existingIntegration != nil {
		eventType = view.ATETReconnectIntegration
	}
	o.atService.TrackEvent(view.ActivityTrackingEvent{
		Type:    eventType,
		Data:    map[string]interface{}{"scopes": integration.Scopes},
		Service: service,
		UserId:  userId,
		Date:    time.Now(),
	})
	return redirectUri, nil
}

func (o oauthFlowServiceImpl) makeIntegrationEntity(provider *view.ProviderConfig, userId string, oauthTokenResponse *view.OAuthAccessResponse) (*entity.IntegrationEntity, error) {
	encryptedAccessToken, err := o.tokenCipher.Encrypt(oauthTokenResponse.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt access token for user %s and service %s: %v", userId, provider.Service, err)
	}
	// some providers issue no refresh token, the integration then lives until the access token expires
	encryptedRefreshToken := ""
	if oauthTokenResponse.RefreshToken != "" {
		encryptedRefreshToken, err = o.tokenCipher.Encrypt(oauthTokenResponse.RefreshToken)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt refresh token for user %s and service %s: %v", userId, provider.Service, err)
		}
	}
	grantedScopes := strings.Fields(oauthTokenResponse.Scope)
	if len(grantedScopes) == 0 {
		grantedScopes = provider.Scopes
	}
	return &entity.IntegrationEntity{
		Service:               provider.Service,
		UserId:                userId,
		AccessToken:           encryptedAccessToken,
		RefreshToken:          encryptedRefreshToken,
		Scopes:                grantedScopes,
		FailedRefreshAttempts: 0,
		ExpiresAt:             view.GetTokenExpirationDate(oauthTokenResponse.ExpiresIn),
		IsRevoked:             false,
	}, nil
}

func (o oauthFlowServiceImpl) buildAuthorizationUrl(provider *view.ProviderConfig, state string, codeVerifier string) (string, error) {
	authorizationUrl, err := url.Parse(provider.AuthorizationUrl)
	if err != nil {
		return "", fmt.Errorf("failed to parse authorization url for service %s: %v", provider.Service, err)
	}
	params := authorizationUrl.Query()
	params.Set("client_id", provider.ClientId)
	params.Set("response_type", "code")
	params.Set("redirect_uri", o.makeCallbackUrl(provider.Service))
	params.Set("state", state)

	scopes := provider.Scopes
	if provider.OfflineAccess && !utils.SliceContains(scopes, offlineAccessScope) {
		// providers with google style offline params carry them in authParams instead
		scopes = append(append([]string{}, scopes...), offlineAccessScope)
	}
	if len(scopes) > 0 {
		params.Set("scope", strings.Join(scopes, " "))
	}
	if provider.UsePkce {
		params.Set("code_challenge", oauth2.S256ChallengeFromVerifier(codeVerifier))
		params.Set("code_challenge_method", "S256")
	}
	for param, value := range provider.AuthParams {
		params.Set(param, value)
	}
	authorizationUrl.RawQuery = params.Encode()
	return authorizationUrl.String(), nil
}

func (o oauthFlowServiceImpl) makeCallbackUrl(service string) string {
	return fmt.Sprintf("%s/api/v1/integrations/oauth/callback/%s", o.systemInfoService.GetFlowhubUrl(), service)
}

func (o oauthFlowServiceImpl) validateRedirectUri(redirectUri string) (string, error) {
	if redirectUri == "" {
		return "/", nil
	}
	parsedUri, _ := url.Parse(redirectUri)
	var validHost bool
	for _, host := range o.systemInfoService.GetAllowedHosts() {
		if parsedUri != nil && strings.Contains(parsedUri.Host, host) {
			validHost = true
			break
		}
	}
	if !validHost {
		return "", &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.HostNotAllowed,
			Message: exception.HostNotAllowedMsg,
			Params:  map[string]interface{}{"host": redirectUri},
		}
	}
	return redirectUri, nil
}

func appendQueryParam(target string, param string, value string) string {
	parsedTarget, err := url.Parse(target)
	if err != nil {
		return target
	}
	params := parsedTarget.Query()
	params.Set(param, value)
	parsedTarget.RawQuery = params.Encode()
	return parsedTarget.String()
}
