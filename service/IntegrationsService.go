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
	"time"

	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/entity"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/repository"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/view"
)

type IntegrationsService interface {
	GetProviders() *view.Providers
	GetIntegrationStatuses(userId string) (*view.IntegrationStatuses, error)
	DisconnectIntegration(userId string, service string) error
}

const IntegrationStatusConnected = "CONNECTED"
const IntegrationStatusReconnectRequired = "RECONNECT_REQUIRED"
const IntegrationStatusNotConnected = "NOT_CONNECTED"

func NewIntegrationsService(registry ProviderRegistry, repo repository.IntegrationRepository,
	refreshCoordinator TokenRefreshCoordinator, atService ActivityTrackingService) IntegrationsService {
	return &integrationsServiceImpl{
		registry:           registry,
		repo:               repo,
		refreshCoordinator: refreshCoordinator,
		atService:          atService,
	}
}

type integrationsServiceImpl struct {
	registry           ProviderRegistry
	repo               repository.IntegrationRepository
	refreshCoordinator TokenRefreshCoordinator
	atService          ActivityTrackingService
}

func (s integrationsServiceImpl) GetProviders() *view.Providers {
	return &view.Providers{Providers: s.registry.ListProviders()}
}

// GetIntegrationStatuses reports every registered provider from stored state
// only, no provider endpoints are called here.
func (s integrationsServiceImpl) GetIntegrationStatuses(userId string) (*view.IntegrationStatuses, error) {
	integrations, err := s.repo.GetIntegrationsForUser(userId)
	if err != nil {
		return nil, err
	}
	integrationsByService := make(map[string]entity.IntegrationEntity, len(integrations))
	for _, integration := range integrations {
		integrationsByService[integration.Service] = integration
	}

	statuses := make([]view.IntegrationStatus, 0)
	for _, provider := range s.registry.ListProviders() {
		status := view.IntegrationStatus{
			Service:     provider.Service,
			DisplayName: provider.DisplayName,
			Status:      IntegrationStatusNotConnected,
		}
		if integration, exists := integrationsByService[provider.Service]; exists {
			status.Status = calculateIntegrationStatus(integration)
			status.Scopes = integration.Scopes
			connectedAt := integration.CreatedAt
			status.ConnectedAt = &connectedAt
			if !integration.ExpiresAt.IsZero() {
				expiresAt := integration.ExpiresAt
				status.ExpiresAt = &expiresAt
			}
		}
		statuses = append(statuses, status)
	}
	return &view.IntegrationStatuses{Integrations: statuses}, nil
}

func (s integrationsServiceImpl) DisconnectIntegration(userId string, service string) error {
	if _, err := s.registry.GetProvider(service); err != nil {
		return err
	}
	deleted, err := s.repo.DeleteIntegration(service, userId)
	if err != nil {
		return err
	}
	// disconnect of a not connected service is a no-op, not an error
	if !deleted {
		return nil
	}
	s.refreshCoordinator.InvalidateIntegration(userId, service)
	s.atService.TrackEvent(view.ActivityTrackingEvent{
		Type:    view.ATETDisconnectIntegration,
		Service: service,
		UserId:  userId,
		Date:    time.Now(),
	})
	return nil
}

func calculateIntegrationStatus(integration entity.IntegrationEntity) string {
	if integration.IsRevoked {
		return IntegrationStatusReconnectRequired
	}
	// an expired token without a refresh token cannot be renewed silently
	if integration.RefreshToken == "" && !integration.ExpiresAt.IsZero() && time.Now().After(integration.ExpiresAt) {
		return IntegrationStatusReconnectRequired
	}
	return IntegrationStatusConnected
}
