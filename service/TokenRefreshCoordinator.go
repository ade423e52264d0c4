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
	"sync"
	"time"

	"github.com/buraksezer/olric"
	"github.com/shaj13/libcache"
	_ "github.com/shaj13/libcache/lru"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/cache"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/client"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/crypto"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/entity"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/exception"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/metrics"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/repository"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/utils"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/view"
)

// TokenRefreshCoordinator hands out decrypted access tokens that are valid for
// at least refreshMargin more. A token closer to expiry than that is refreshed
// first, with all concurrent requests for the same (user, service) pair
// collapsed into a single provider call.
type TokenRefreshCoordinator interface {
	GetValidToken(ctx context.Context, userId string, service string) (string, error)
	InvalidateIntegration(userId string, service string)
}

const refreshMargin = 5 * time.Minute
const failedRefreshThreshold = 5
const tokenCacheKeySeparator = "|@@|"

const IntegrationCacheInvalidationsTopicName = "integration-cache-invalidations"

func NewTokenRefreshCoordinator(intRepo repository.IntegrationRepository, registry ProviderRegistry,
	providerClient client.OauthProviderClient, tokenCipher crypto.TokenCipher,
	atService ActivityTrackingService, op cache.OlricProvider) TokenRefreshCoordinator {

	tokenCache := libcache.LRU.New(1000)
	tokenCache.SetTTL(time.Minute * 60)
	tokenCache.RegisterOnExpired(func(key, _ interface{}) {
		tokenCache.Delete(key)
	})

	coordinator := tokenRefreshCoordinatorImpl{
		intRepo:        intRepo,
		registry:       registry,
		providerClient: providerClient,
		tokenCipher:    tokenCipher,
		atService:      atService,
		op:             op,
		tokenCache:     tokenCache,
		isReadyWg:      sync.WaitGroup{},
	}
	coordinator.isReadyWg.Add(1)
	utils.SafeAsync(func() {
		coordinator.initInvalidationsDTopic()
	})
	return &coordinator
}

type tokenRefreshCoordinatorImpl struct {
	intRepo        repository.IntegrationRepository
	registry       ProviderRegistry
	providerClient client.OauthProviderClient
	tokenCipher    crypto.TokenCipher
	atService      ActivityTrackingService

	op                 cache.OlricProvider
	olricC             *olric.Olric
	invalidationsTopic *olric.DTopic
	isReadyWg          sync.WaitGroup

	tokenCache   libcache.Cache
	cacheMutex   sync.RWMutex
	refreshGroup singleflight.Group
}

func (c *tokenRefreshCoordinatorImpl) GetValidToken(ctx context.Context, userId string, service string) (string, error) {
	provider, err := c.registry.GetProvider(service)
	if err != nil {
		return "", err
	}
	cacheKey := makeTokenCacheKey(userId, service)

	c.cacheMutex.RLock()
	element, exists := c.tokenCache.Peek(cacheKey)
	c.cacheMutex.RUnlock()
	if exists {
		return element.(string), nil
	}

	integration, err := c.intRepo.GetIntegration(service, userId)
	if err != nil {
		return "", err
	}
	if integration == nil {
		return "", &exception.CustomError{
			Status:  http.StatusNotFound,
			Code:    exception.NotConnected,
			Message: exception.NotConnectedMsg,
			Params:  map[string]interface{}{"service": service, "user": userId},
		}
	}
	if integration.IsRevoked {
		return "", reconnectRequiredError(service)
	}
	if tokenIsFresh(integration) {
		accessToken, err := c.tokenCipher.Decrypt(integration.AccessToken)
		if err != nil {
			return "", fmt.Errorf("failed to decrypt access token for user %s and service %s: %v", userId, service, err)
		}
		c.storeToken(cacheKey, accessToken, integration.ExpiresAt)
		return accessToken, nil
	}

	// all concurrent callers for this pair wait for one refresh and share its
	// result, so the flight is detached from the starting caller's cancellation
	result, err, _ := c.refreshGroup.Do(cacheKey, func() (interface{}, error) {
		return c.refreshToken(context.WithoutCancel(ctx), provider, userId, service)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (c *tokenRefreshCoordinatorImpl) refreshToken(ctx context.Context, provider *view.ProviderConfig, userId string, service string) (string, error) {
	// re-read under the flight, a parallel request or another replica may have refreshed the row already
	integration, err := c.intRepo.GetIntegration(service, userId)
	if err != nil {
		return "", err
	}
	if integration == nil {
		return "", &exception.CustomError{
			Status:  http.StatusNotFound,
			Code:    exception.NotConnected,
			Message: exception.NotConnectedMsg,
			Params:  map[string]interface{}{"service": service, "user": userId},
		}
	}
	if integration.IsRevoked {
		return "", reconnectRequiredError(service)
	}
	cacheKey := makeTokenCacheKey(userId, service)
	if tokenIsFresh(integration) {
		accessToken, err := c.tokenCipher.Decrypt(integration.AccessToken)
		if err != nil {
			return "", fmt.Errorf("failed to decrypt access token for user %s and service %s: %v", userId, service, err)
		}
		c.storeToken(cacheKey, accessToken, integration.ExpiresAt)
		return accessToken, nil
	}
	if integration.RefreshToken == "" {
		// the provider issued no refresh token, the expired grant cannot be renewed silently
		if err := c.revokeIntegration(userId, service); err != nil {
			return "", err
		}
		return "", reconnectRequiredError(service)
	}

	refreshToken, err := c.tokenCipher.Decrypt(integration.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt refresh token for user %s and service %s: %v", userId, service, err)
	}
	oauthTokenResponse, statusCode, err := c.providerClient.RefreshToken(ctx, provider, refreshToken)
	if err != nil {
		metrics.TokenRefreshTotal.WithLabelValues(service, "failed").Inc()
		return "", c.countFailedRefresh(integration,
			fmt.Errorf("%s returned error to refresh request: %v", service, err))
	}

	if oauthTokenResponse.Error != "" || statusCode != http.StatusOK {
		if refreshDeniedByProvider(oauthTokenResponse.Error) {
			// the grant is gone on the provider side, retrying cannot help
			log.Warnf("Refresh for user %s and service %s rejected with %s, revoking the integration", userId, service, oauthTokenResponse.Error)
			metrics.TokenRefreshTotal.WithLabelValues(service, "revoked").Inc()
			if err := c.revokeIntegration(userId, service); err != nil {
				return "", err
			}
			return "", reconnectRequiredError(service)
		}
		actualIntegration, err := c.intRepo.GetIntegration(service, userId)
		if err != nil {
			return "", err
		}
		if actualIntegration == nil {
			return "", &exception.CustomError{
				Status:  http.StatusNotFound,
				Code:    exception.NotConnected,
				Message: exception.NotConnectedMsg,
				Params:  map[string]interface{}{"service": service, "user": userId},
			}
		}
		//check if refresh token has already been refreshed by other request
		if actualIntegration.RefreshToken != integration.RefreshToken {
			accessToken, err := c.tokenCipher.Decrypt(actualIntegration.AccessToken)
			if err != nil {
				return "", fmt.Errorf("failed to decrypt access token for user %s and service %s: %v", userId, service, err)
			}
			c.storeToken(cacheKey, accessToken, actualIntegration.ExpiresAt)
			return accessToken, nil
		}
		metrics.TokenRefreshTotal.WithLabelValues(service, "failed").Inc()
		if actualIntegration.FailedRefreshAttempts >= failedRefreshThreshold {
			if err := c.revokeIntegration(userId, service); err != nil {
				return "", err
			}
			return "", reconnectRequiredError(service)
		}
		return "", c.countFailedRefresh(integration,
			fmt.Errorf("%s returned error to refresh request: status code = %d, error = %s", service, statusCode, oauthTokenResponse.Error))
	}

	encryptedAccessToken, err := c.tokenCipher.Encrypt(oauthTokenResponse.AccessToken)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt refreshed access token for user %s and service %s: %v", userId, service, err)
	}
	integration.AccessToken = encryptedAccessToken
	if oauthTokenResponse.RefreshToken != "" {
		// keep the stored refresh token when the provider rotates only on demand
		encryptedRefreshToken, err := c.tokenCipher.Encrypt(oauthTokenResponse.RefreshToken)
		if err != nil {
			return "", fmt.Errorf("failed to encrypt rotated refresh token for user %s and service %s: %v", userId, service, err)
		}
		integration.RefreshToken = encryptedRefreshToken
	}
	integration.ExpiresAt = view.GetTokenExpirationDate(oauthTokenResponse.ExpiresIn)
	integration.FailedRefreshAttempts = 0
	if _, err := c.intRepo.SaveIntegration(*integration); err != nil {
		return "", err
	}
	metrics.TokenRefreshTotal.WithLabelValues(service, "success").Inc()

	//remove the pair from remote caches to update the refreshed token
	c.publishInvalidation(userId, service)
	c.storeToken(cacheKey, oauthTokenResponse.AccessToken, integration.ExpiresAt)
	return oauthTokenResponse.AccessToken, nil
}

func (c *tokenRefreshCoordinatorImpl) InvalidateIntegration(userId string, service string) {
	cacheKey := makeTokenCacheKey(userId, service)
	c.cacheMutex.Lock()
	c.tokenCache.Delete(cacheKey)
	c.cacheMutex.Unlock()
	c.publishInvalidation(userId, service)
}

func (c *tokenRefreshCoordinatorImpl) countFailedRefresh(integration *entity.IntegrationEntity, refreshErr error) error {
	if err := c.intRepo.AddFailedRefreshAttempt(integration.Service, integration.UserId); err != nil {
		return err
	}
	return refreshErr
}

func (c *tokenRefreshCoordinatorImpl) revokeIntegration(userId string, service string) error {
	if err := c.intRepo.MarkRevoked(service, userId); err != nil {
		return err
	}
	c.publishInvalidation(userId, service)
	c.atService.TrackEvent(view.ActivityTrackingEvent{
		Type:    view.ATETRefreshRevoked,
		Service: service,
		UserId:  userId,
		Date:    time.Now(),
	})
	return nil
}

func (c *tokenRefreshCoordinatorImpl) storeToken(cacheKey string, accessToken string, expiresAt time.Time) {
	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()
	if expiresAt.IsZero() {
		c.tokenCache.Store(cacheKey, accessToken)
		return
	}
	ttl := time.Until(expiresAt) - refreshMargin
	if ttl <= 0 {
		return
	}
	c.tokenCache.StoreWithTTL(cacheKey, accessToken, ttl)
}

func (c *tokenRefreshCoordinatorImpl) publishInvalidation(userId string, service string) {
	c.isReadyWg.Wait()
	if c.invalidationsTopic == nil {
		// distributed cache never came up, local expiry keeps the token fresh enough
		log.Warnf("Invalidations topic is not available, skipping invalidation for user %s and service %s", userId, service)
		return
	}
	if err := c.invalidationsTopic.Publish(makeTokenCacheKey(userId, service)); err != nil {
		log.Errorf("Error while publishing integration invalidation for user %s and service %s: %s", userId, service, err)
	}
}

func (c *tokenRefreshCoordinatorImpl) initInvalidationsDTopic() {
	defer c.isReadyWg.Done()
	var err error
	c.olricC = c.op.Get()
	if c.olricC == nil {
		log.Warnf("Olric is not available, token cache invalidations will not be distributed")
		return
	}
	topicName := IntegrationCacheInvalidationsTopicName
	c.invalidationsTopic, err = c.olricC.NewDTopic(topicName, 10000, 1)
	if err != nil {
		log.Errorf("Failed to create DTopic: %s", err.Error())
		return
	}
	_, err = c.invalidationsTopic.AddListener(func(topic olric.DTopicMessage) {
		c.cacheMutex.Lock()
		defer c.cacheMutex.Unlock()

		cacheKey := fmt.Sprintf("%v", topic.Message)
		c.tokenCache.Delete(cacheKey)
	})
	if err != nil {
		log.Errorf("Failed to add invalidations topic listener: %s", err.Error())
	}
}

func makeTokenCacheKey(userId string, service string) string {
	return userId + tokenCacheKeySeparator + service
}

func tokenIsFresh(integration *entity.IntegrationEntity) bool {
	if integration.ExpiresAt.IsZero() {
		return true
	}
	return time.Until(integration.ExpiresAt) >= refreshMargin
}

// refreshDeniedByProvider reports whether the token endpoint answer is final.
// invalid_grant covers expired, revoked and already rotated refresh tokens per
// RFC 6749 section 5.2, retrying such a refresh can never succeed.
func refreshDeniedByProvider(oauthError string) bool {
	return oauthError == "invalid_grant"
}

func reconnectRequiredError(service string) error {
	return &exception.CustomError{
		Status:  http.StatusFailedDependency,
		Code:    exception.ReconnectRequired,
		Message: exception.ReconnectRequiredMsg,
		Params:  map[string]interface{}{"service": service},
	}
}
