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
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/oauth2"

	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/crypto"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/entity"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/exception"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/view"
)

func TestStartAuthorization_BuildsConsentUrl(t *testing.T) {
	env := newOauthFlowTestEnv(t)

	response, err := env.service.StartAuthorization("user-1", "github", "https://flowhub.example.com/settings")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assert.Equal(t, "github", response.Service)

	authorizationUrl, err := url.Parse(response.AuthorizationUrl)
	if err != nil {
		t.Fatalf("failed to parse authorization url: %v", err)
	}
	assert.Equal(t, "github.example.com", authorizationUrl.Host)
	assert.Equal(t, "/oauth/authorize", authorizationUrl.Path)

	params := authorizationUrl.Query()
	assert.Equal(t, "github-client", params.Get("client_id"))
	assert.Equal(t, "code", params.Get("response_type"))
	assert.Equal(t, "https://flowhub.example.com/api/v1/integrations/oauth/callback/github", params.Get("redirect_uri"))
	assert.Equal(t, "repo user", params.Get("scope"))

	state := params.Get("state")
	if state == "" {
		t.Fatal("expected state parameter in authorization url")
	}
	stateEntity := env.stateRepo.peek(state)
	if stateEntity == nil {
		t.Fatal("expected pending state to be stored")
	}
	assert.Equal(t, "user-1", stateEntity.UserId)
	assert.Equal(t, "github", stateEntity.Service)
	assert.Equal(t, "https://flowhub.example.com/settings", stateEntity.RedirectUri)

	// pkce challenge must be derived from the stored verifier
	if stateEntity.CodeVerifier == "" {
		t.Fatal("expected a pkce verifier to be stored")
	}
	assert.Equal(t, oauth2.S256ChallengeFromVerifier(stateEntity.CodeVerifier), params.Get("code_challenge"))
	assert.Equal(t, "S256", params.Get("code_challenge_method"))
}

func TestStartAuthorization_OfflineAccessScopeAppended(t *testing.T) {
	env := newOauthFlowTestEnv(t)

	response, err := env.service.StartAuthorization("user-1", "gitlab", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	params := queryParams(t, response.AuthorizationUrl)
	assert.Equal(t, "read offline_access", params.Get("scope"))
	// providers without pkce must not get challenge parameters
	assert.Equal(t, "", params.Get("code_challenge"))

	state := params.Get("state")
	stateEntity := env.stateRepo.peek(state)
	if stateEntity == nil {
		t.Fatal("expected pending state to be stored")
	}
	assert.Equal(t, "/", stateEntity.RedirectUri)
	assert.Equal(t, "", stateEntity.CodeVerifier)
}

func TestStartAuthorization_ProviderAuthParamsApplied(t *testing.T) {
	env := newOauthFlowTestEnv(t)

	response, err := env.service.StartAuthorization("user-1", "google", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	params := queryParams(t, response.AuthorizationUrl)
	assert.Equal(t, "offline", params.Get("access_type"))
	assert.Equal(t, "consent", params.Get("prompt"))
	assert.Equal(t, "email", params.Get("scope"))
}

func TestStartAuthorization_RedirectUriOutsideAllowedHosts(t *testing.T) {
	env := newOauthFlowTestEnv(t)

	_, err := env.service.StartAuthorization("user-1", "github", "https://attacker.example.org/settings")
	assertCustomError(t, err, http.StatusBadRequest, exception.HostNotAllowed)
}

func TestStartAuthorization_UnsupportedService(t *testing.T) {
	env := newOauthFlowTestEnv(t)

	_, err := env.service.StartAuthorization("user-1", "bitbucket", "")
	assertCustomError(t, err, http.StatusBadRequest, exception.UnsupportedService)
}

func TestHandleCallback_ConnectsIntegration(t *testing.T) {
	env := newOauthFlowTestEnv(t)
	state := startAuthorization(t, env, "user-1", "github", "https://flowhub.example.com/settings/integrations")
	verifier := env.stateRepo.peek(state).CodeVerifier

	var savedIntegration *entity.IntegrationEntity
	env.intRepo.SaveIntegrationFunc = func(integrationEntity entity.IntegrationEntity) (*entity.IntegrationEntity, error) {
		savedIntegration = &integrationEntity
		return &integrationEntity, nil
	}
	probedTokens := make([]string, 0)
	env.providerClient.ExchangeCodeFunc = func(ctx context.Context, provider *view.ProviderConfig, code string, redirectUri string, codeVerifier string) (*view.OAuthAccessResponse, int, error) {
		assert.Equal(t, "code-1", code)
		assert.Equal(t, "https://flowhub.example.com/api/v1/integrations/oauth/callback/github", redirectUri)
		assert.Equal(t, verifier, codeVerifier)
		return &view.OAuthAccessResponse{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			ExpiresIn:    3600,
			Scope:        "repo",
		}, http.StatusOK, nil
	}
	env.providerClient.ProbeTokenFunc = func(ctx context.Context, provider *view.ProviderConfig, accessToken string) error {
		probedTokens = append(probedTokens, accessToken)
		return nil
	}

	location, err := env.service.HandleCallback(context.Background(), "github", url.Values{"state": {state}, "code": {"code-1"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assert.Equal(t, "https://flowhub.example.com/settings/integrations", location)
	assert.Equal(t, []string{"access-1"}, probedTokens)

	if savedIntegration == nil {
		t.Fatal("expected the integration to be saved")
	}
	assert.Equal(t, "github", savedIntegration.Service)
	assert.Equal(t, "user-1", savedIntegration.UserId)
	assert.Equal(t, []string{"repo"}, savedIntegration.Scopes)
	assert.False(t, savedIntegration.IsRevoked)
	assert.WithinDuration(t, time.Now().Add(time.Hour), savedIntegration.ExpiresAt, 5*time.Second)

	// tokens are stored encrypted only
	assert.NotEqual(t, "access-1", savedIntegration.AccessToken)
	assert.NotEqual(t, "refresh-1", savedIntegration.RefreshToken)
	decryptedAccess, err := env.cipher.Decrypt(savedIntegration.AccessToken)
	assert.NoError(t, err)
	assert.Equal(t, "access-1", decryptedAccess)
	decryptedRefresh, err := env.cipher.Decrypt(savedIntegration.RefreshToken)
	assert.NoError(t, err)
	assert.Equal(t, "refresh-1", decryptedRefresh)

	assert.Equal(t, []string{"user-1/github"}, env.invalidations)
	if assert.Len(t, env.tracked, 1) {
		assert.Equal(t, view.ATETConnectIntegration, env.tracked[0].Type)
		assert.Equal(t, "github", env.tracked[0].Service)
	}
}

func TestHandleCallback_ReconnectTracked(t *testing.T) {
	env := newOauthFlowTestEnv(t)
	state := startAuthorization(t, env, "user-1", "github", "")
	existing := testIntegration(t, env.cipher, "user-1", "github", "stale-access", "stale-refresh", time.Now().Add(-time.Hour))
	env.intRepo.GetIntegrationFunc = func(service string, userId string) (*entity.IntegrationEntity, error) {
		return existing, nil
	}
	env.providerClient.ExchangeCodeFunc = func(ctx context.Context, provider *view.ProviderConfig, code string, redirectUri string, codeVerifier string) (*view.OAuthAccessResponse, int, error) {
		return &view.OAuthAccessResponse{AccessToken: "access-2", ExpiresIn: 3600}, http.StatusOK, nil
	}

	_, err := env.service.HandleCallback(context.Background(), "github", url.Values{"state": {state}, "code": {"code-2"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if assert.Len(t, env.tracked, 1) {
		assert.Equal(t, view.ATETReconnectIntegration, env.tracked[0].Type)
	}
}

func TestHandleCallback_StateReplayRejected(t *testing.T) {
	env := newOauthFlowTestEnv(t)
	state := startAuthorization(t, env, "user-1", "github", "")
	exchangeCalls := 0
	env.providerClient.ExchangeCodeFunc = func(ctx context.Context, provider *view.ProviderConfig, code string, redirectUri string, codeVerifier string) (*view.OAuthAccessResponse, int, error) {
		exchangeCalls++
		return &view.OAuthAccessResponse{AccessToken: "access-1", ExpiresIn: 3600}, http.StatusOK, nil
	}
	callbackQuery := url.Values{"state": {state}, "code": {"code-1"}}

	_, err := env.service.HandleCallback(context.Background(), "github", callbackQuery)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = env.service.HandleCallback(context.Background(), "github", callbackQuery)
	assertCustomError(t, err, http.StatusBadRequest, exception.InvalidOrExpiredState)
	assert.Equal(t, 1, exchangeCalls)
}

func TestHandleCallback_UnknownStateRejected(t *testing.T) {
	env := newOauthFlowTestEnv(t)

	_, err := env.service.HandleCallback(context.Background(), "github", url.Values{"state": {"never-issued"}, "code": {"code-1"}})
	assertCustomError(t, err, http.StatusBadRequest, exception.InvalidOrExpiredState)
}

// A state issued for one service must not be redeemable through the callback
// of another one.
func TestHandleCallback_ServiceMismatchRejected(t *testing.T) {
	env := newOauthFlowTestEnv(t)
	state := startAuthorization(t, env, "user-1", "github", "")

	_, err := env.service.HandleCallback(context.Background(), "gitlab", url.Values{"state": {state}, "code": {"code-1"}})
	assertCustomError(t, err, http.StatusBadRequest, exception.InvalidOrExpiredState)
}

func TestHandleCallback_ProviderDeclinedRedirectsWithError(t *testing.T) {
	env := newOauthFlowTestEnv(t)
	state := startAuthorization(t, env, "user-1", "github", "https://flowhub.example.com/settings")
	exchangeCalls := 0
	env.providerClient.ExchangeCodeFunc = func(ctx context.Context, provider *view.ProviderConfig, code string, redirectUri string, codeVerifier string) (*view.OAuthAccessResponse, int, error) {
		exchangeCalls++
		return nil, 0, nil
	}

	location, err := env.service.HandleCallback(context.Background(), "github",
		url.Values{"state": {state}, "error": {"access_denied"}, "error_description": {"The user denied the request"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assert.Equal(t, "https://flowhub.example.com/settings?integrationError=access_denied", location)
	assert.Equal(t, 0, exchangeCalls)
	assert.Empty(t, env.invalidations)
}

func TestHandleCallback_MissingCodeRejected(t *testing.T) {
	env := newOauthFlowTestEnv(t)
	state := startAuthorization(t, env, "user-1", "github", "")

	_, err := env.service.HandleCallback(context.Background(), "github", url.Values{"state": {state}})
	assertCustomError(t, err, http.StatusBadRequest, exception.EmptyParameter)
}

func TestHandleCallback_ExchangeErrorResponse(t *testing.T) {
	env := newOauthFlowTestEnv(t)
	state := startAuthorization(t, env, "user-1", "github", "")
	var savedIntegration *entity.IntegrationEntity
	env.intRepo.SaveIntegrationFunc = func(integrationEntity entity.IntegrationEntity) (*entity.IntegrationEntity, error) {
		savedIntegration = &integrationEntity
		return &integrationEntity, nil
	}
	env.providerClient.ExchangeCodeFunc = func(ctx context.Context, provider *view.ProviderConfig, code string, redirectUri string, codeVerifier string) (*view.OAuthAccessResponse, int, error) {
		return &view.OAuthAccessResponse{Error: "invalid_request"}, http.StatusBadRequest, nil
	}

	_, err := env.service.HandleCallback(context.Background(), "github", url.Values{"state": {state}, "code": {"bad-code"}})
	assertCustomError(t, err, http.StatusFailedDependency, exception.TokenExchangeFailed)
	assert.Nil(t, savedIntegration)
	assert.Empty(t, env.invalidations)
}

func TestHandleCallback_ProbeFailureRejectsToken(t *testing.T) {
	env := newOauthFlowTestEnv(t)
	state := startAuthorization(t, env, "user-1", "github", "")
	var savedIntegration *entity.IntegrationEntity
	env.intRepo.SaveIntegrationFunc = func(integrationEntity entity.IntegrationEntity) (*entity.IntegrationEntity, error) {
		savedIntegration = &integrationEntity
		return &integrationEntity, nil
	}
	env.providerClient.ExchangeCodeFunc = func(ctx context.Context, provider *view.ProviderConfig, code string, redirectUri string, codeVerifier string) (*view.OAuthAccessResponse, int, error) {
		return &view.OAuthAccessResponse{AccessToken: "access-1", ExpiresIn: 3600}, http.StatusOK, nil
	}
	env.providerClient.ProbeTokenFunc = func(ctx context.Context, provider *view.ProviderConfig, accessToken string) error {
		return assert.AnError
	}

	_, err := env.service.HandleCallback(context.Background(), "github", url.Values{"state": {state}, "code": {"code-1"}})
	assertCustomError(t, err, http.StatusFailedDependency, exception.TokenExchangeFailed)
	assert.Nil(t, savedIntegration)
}

func TestHandleCallback_ScopeFallbackToConfigured(t *testing.T) {
	env := newOauthFlowTestEnv(t)
	state := startAuthorization(t, env, "user-1", "github", "")
	var savedIntegration *entity.IntegrationEntity
	env.intRepo.SaveIntegrationFunc = func(integrationEntity entity.IntegrationEntity) (*entity.IntegrationEntity, error) {
		savedIntegration = &integrationEntity
		return &integrationEntity, nil
	}
	env.providerClient.ExchangeCodeFunc = func(ctx context.Context, provider *view.ProviderConfig, code string, redirectUri string, codeVerifier string) (*view.OAuthAccessResponse, int, error) {
		return &view.OAuthAccessResponse{AccessToken: "access-1", ExpiresIn: 3600}, http.StatusOK, nil
	}

	_, err := env.service.HandleCallback(context.Background(), "github", url.Values{"state": {state}, "code": {"code-1"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if savedIntegration == nil {
		t.Fatal("expected the integration to be saved")
	}
	assert.Equal(t, []string{"repo", "user"}, savedIntegration.Scopes)
}

type oauthFlowTestEnv struct {
	service        OauthFlowService
	stateRepo      *inMemoryStateRepository
	intRepo        *mockIntegrationRepository
	providerClient *mockOauthProviderClient
	cipher         crypto.TokenCipher
	invalidations  []string
	tracked        []view.ActivityTrackingEvent
}

func newOauthFlowTestEnv(t *testing.T) *oauthFlowTestEnv {
	t.Helper()
	env := &oauthFlowTestEnv{
		stateRepo:      newInMemoryStateRepository(),
		intRepo:        &mockIntegrationRepository{},
		providerClient: &mockOauthProviderClient{},
		cipher:         testTokenCipher(t),
	}
	registry := &providerRegistryImpl{providers: map[string]*view.ProviderConfig{
		"github": {
			Service:          "github",
			DisplayName:      "GitHub",
			AuthorizationUrl: "https://github.example.com/oauth/authorize",
			TokenUrl:         "https://github.example.com/oauth/token",
			UserinfoUrl:      "https://github.example.com/api/user",
			ClientId:         "github-client",
			ClientSecret:     "github-secret",
			Scopes:           []string{"repo", "user"},
			UsePkce:          true,
		},
		"gitlab": {
			Service:          "gitlab",
			DisplayName:      "GitLab",
			AuthorizationUrl: "https://gitlab.example.com/oauth/authorize",
			TokenUrl:         "https://gitlab.example.com/oauth/token",
			ClientId:         "gitlab-client",
			ClientSecret:     "gitlab-secret",
			Scopes:           []string{"read"},
			OfflineAccess:    true,
		},
		"google": {
			Service:          "google",
			DisplayName:      "Google",
			AuthorizationUrl: "https://accounts.google.example.com/o/oauth2/auth",
			TokenUrl:         "https://accounts.google.example.com/o/oauth2/token",
			ClientId:         "google-client",
			Scopes:           []string{"email"},
			AuthParams:       map[string]string{"access_type": "offline", "prompt": "consent"},
		},
	}}
	systemInfoService := systemInfoServiceStub{
		flowhubUrl:   "https://flowhub.example.com",
		allowedHosts: []string{"flowhub.example.com"},
	}
	refreshCoordinator := &mockRefreshCoordinator{
		InvalidateIntegrationFunc: func(userId string, service string) {
			env.invalidations = append(env.invalidations, userId+"/"+service)
		},
	}
	atService := &mockActivityTrackingService{
		TrackEventFunc: func(event view.ActivityTrackingEvent) {
			env.tracked = append(env.tracked, event)
		},
	}
	env.service = NewOauthFlowService(registry, NewAuthorizationStateStore(env.stateRepo),
		env.providerClient, env.cipher, env.intRepo, refreshCoordinator, atService, systemInfoService)
	return env
}

func startAuthorization(t *testing.T, env *oauthFlowTestEnv, userId string, service string, redirectUri string) string {
	t.Helper()
	response, err := env.service.StartAuthorization(userId, service, redirectUri)
	if err != nil {
		t.Fatalf("failed to start authorization: %v", err)
	}
	state := queryParams(t, response.AuthorizationUrl).Get("state")
	if state == "" {
		t.Fatal("expected state parameter in authorization url")
	}
	return state
}

func queryParams(t *testing.T, rawUrl string) url.Values {
	t.Helper()
	parsed, err := url.Parse(rawUrl)
	if err != nil {
		t.Fatalf("failed to parse url %q: %v", rawUrl, err)
	}
	return parsed.Query()
}

// systemInfoServiceStub overrides the few accessors the flow needs, calling
// anything else panics via the embedded nil interface.
type systemInfoServiceStub struct {
	SystemInfoService
	flowhubUrl   string
	allowedHosts []string
	providers    string
}

func (s systemInfoServiceStub) GetFlowhubUrl() string { return s.flowhubUrl }

func (s systemInfoServiceStub) GetAllowedHosts() []string { return s.allowedHosts }

func (s systemInfoServiceStub) GetIntegrationProviders() string { return s.providers }
