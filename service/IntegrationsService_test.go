
package service

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/entity"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/exception"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/view"
)

func TestGetIntegrationStatuses(t *testing.T) {
	connectedAt := time.Now().Add(-24 * time.Hour)
	expiresAt := time.Now().Add(time.Hour)
	repo := &mockIntegrationRepository{
		GetIntegrationsForUserFunc: func(userId string) ([]entity.IntegrationEntity, error) {
			assert.Equal(t, "user-1", userId)
			return []entity.IntegrationEntity{
				{
					Service:      "github",
					UserId:       "user-1",
					AccessToken:  "ciphertext",
					RefreshToken: "ciphertext",
					Scopes:       []string{"repo"},
					ExpiresAt:    expiresAt,
					CreatedAt:    connectedAt,
				},
				{
					Service:   "jira",
					UserId:    "user-1",
					IsRevoked: true,
					CreatedAt: connectedAt,
				},
			}, nil
		},
	}
	integrationsService := NewIntegrationsService(testProviderRegistry("github", "gitlab", "jira"),
		repo, &mockRefreshCoordinator{}, &mockActivityTrackingService{})

	statuses, err := integrationsService.GetIntegrationStatuses("user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(statuses.Integrations) != 3 {
		t.Fatalf("expected a status per registered provider, got %d", len(statuses.Integrations))
	}

	github := statuses.Integrations[0]
	assert.Equal(t, "github", github.Service)
	assert.Equal(t, IntegrationStatusConnected, github.Status)
	assert.Equal(t, []string{"repo"}, github.Scopes)
	if assert.NotNil(t, github.ConnectedAt) {
		assert.WithinDuration(t, connectedAt, *github.ConnectedAt, time.Second)
	}
	if assert.NotNil(t, github.ExpiresAt) {
		assert.WithinDuration(t, expiresAt, *github.ExpiresAt, time.Second)
	}

	gitlab := statuses.Integrations[1]
	assert.Equal(t, "gitlab", gitlab.Service)
	assert.Equal(t, IntegrationStatusNotConnected, gitlab.Status)
	assert.Nil(t, gitlab.ConnectedAt)
	assert.Nil(t, gitlab.ExpiresAt)

	jira := statuses.Integrations[2]
	assert.Equal(t, "jira", jira.Service)
	assert.Equal(t, IntegrationStatusReconnectRequired, jira.Status)
}

func TestCalculateIntegrationStatus(t *testing.T) {
	testCases := []struct {
		name        string
		integration entity.IntegrationEntity
		expected    string
	}{
		{
			name:        "Revoked",
			integration: entity.IntegrationEntity{IsRevoked: true},
			expected:    IntegrationStatusReconnectRequired,
		},
		{
			name:        "ExpiredWithoutRefreshToken",
			integration: entity.IntegrationEntity{ExpiresAt: time.Now().Add(-time.Minute)},
			expected:    IntegrationStatusReconnectRequired,
		},
		{
			name:        "ExpiredWithRefreshToken",
			integration: entity.IntegrationEntity{RefreshToken: "ciphertext", ExpiresAt: time.Now().Add(-time.Minute)},
			expected:    IntegrationStatusConnected,
		},
		{
			name:        "Fresh",
			integration: entity.IntegrationEntity{ExpiresAt: time.Now().Add(time.Hour)},
			expected:    IntegrationStatusConnected,
		},
		{
			name:        "NoExpiryWithoutRefreshToken",
			integration: entity.IntegrationEntity{},
			expected:    IntegrationStatusConnected,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, calculateIntegrationStatus(tc.integration))
		})
	}
}

func TestDisconnectIntegration_RemovesAndTracks(t *testing.T) {
	deleteCalls := 0
	repo := &mockIntegrationRepository{
		DeleteIntegrationFunc: func(service string, userId string) (bool, error) {
			deleteCalls++
			assert.Equal(t, "github", service)
			assert.Equal(t, "user-1", userId)
			return true, nil
		},
	}
	invalidations := 0
	coordinator := &mockRefreshCoordinator{
		InvalidateIntegrationFunc: func(userId string, service string) {
			invalidations++
		},
	}
	var trackedEvents []view.ActivityTrackingEvent
	integrationsService := NewIntegrationsService(testProviderRegistry("github"), repo, coordinator,
		&mockActivityTrackingService{TrackEventFunc: func(event view.ActivityTrackingEvent) {
			trackedEvents = append(trackedEvents, event)
		}})

	err := integrationsService.DisconnectIntegration("user-1", "github")
	assert.NoError(t, err)
	assert.Equal(t, 1, deleteCalls)
	assert.Equal(t, 1, invalidations)
	if assert.Len(t, trackedEvents, 1) {
		assert.Equal(t, view.ATETDisconnectIntegration, trackedEvents[0].Type)
	}
}

func TestDisconnectIntegration_NotConnectedIsNoOp(t *testing.T) {
	repo := &mockIntegrationRepository{
		DeleteIntegrationFunc: func(service string, userId string) (bool, error) {
			return false, nil
		},
	}
	invalidations := 0
	coordinator := &mockRefreshCoordinator{
		InvalidateIntegrationFunc: func(userId string, service string) {
			invalidations++
		},
	}
	var trackedEvents []view.ActivityTrackingEvent
	integrationsService := NewIntegrationsService(testProviderRegistry("github"), repo, coordinator,
		&mockActivityTrackingService{TrackEventFunc: func(event view.ActivityTrackingEvent) {
			trackedEvents = append(trackedEvents, event)
		}})

	err := integrationsService.DisconnectIntegration("user-1", "github")
	assert.NoError(t, err)
	assert.Equal(t, 0, invalidations)
	assert.Empty(t, trackedEvents)
}

func TestDisconnectIntegration_UnsupportedService(t *testing.T) {
	integrationsService := NewIntegrationsService(testProviderRegistry("github"),
		&mockIntegrationRepository{}, &mockRefreshCoordinator{}, &mockActivityTrackingService{})

	err := integrationsService.DisconnectIntegration("user-1", "bitbucket")
	assertCustomError(t, err, http.StatusBadRequest, exception.UnsupportedService)
}

func TestGetProviders(t *testing.T) {
	integrationsService := NewIntegrationsService(testProviderRegistry("jira", "github"),
		&mockIntegrationRepository{}, &mockRefreshCoordinator{}, &mockActivityTrackingService{})

	providers := integrationsService.GetProviders()
	if assert.Len(t, providers.Providers, 2) {
		assert.Equal(t, "github", providers.Providers[0].Service)
		assert.Equal(t, "jira", providers.Providers[1].Service)
	}
}
