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
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/exception"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/utils"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/view"
)

// ProviderRegistry resolves service keys to their OAuth configuration.
// The set of providers is fixed at startup.
type ProviderRegistry interface {
	GetProvider(service string) (*view.ProviderConfig, error)
	ListProviders() []view.Provider
}

func NewProviderRegistry(systemInfoService SystemInfoService) (ProviderRegistry, error) {
	var configs []view.ProviderConfig
	if err := json.Unmarshal([]byte(systemInfoService.GetIntegrationProviders()), &configs); err != nil {
		return nil, fmt.Errorf("failed to parse %s env value: %v", INTEGRATION_PROVIDERS, err.Error())
	}
	if len(configs) == 0 {
		return nil, &exception.CustomError{
			Status:  http.StatusInternalServerError,
			Code:    exception.IntegrationProvidersInvalid,
			Message: exception.IntegrationProvidersInvalidMsg,
			Debug:   "provider list is empty",
		}
	}

	providers := make(map[string]*view.ProviderConfig, len(configs))
	for i := range configs {
		config := configs[i]
		if err := utils.ValidateObject(config); err != nil {
			return nil, err
		}
		if _, exists := providers[config.Service]; exists {
			return nil, &exception.CustomError{
				Status:  http.StatusInternalServerError,
				Code:    exception.IntegrationProvidersInvalid,
				Message: exception.IntegrationProvidersInvalidMsg,
				Debug:   fmt.Sprintf("duplicate provider entry for service %s", config.Service),
			}
		}
		providers[config.Service] = &config
		log.Infof("Registered OAuth provider for service %s (pkce=%t, offline=%t)", config.Service, config.UsePkce, config.OfflineAccess)
	}

	return &providerRegistryImpl{providers: providers}, nil
}

type providerRegistryImpl struct {
	providers map[string]*view.ProviderConfig
}

func (p providerRegistryImpl) GetProvider(service string) (*view.ProviderConfig, error) {
	provider, exists := p.providers[service]
	if !exists {
		return nil, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.UnsupportedService,
			Message: exception.UnsupportedServiceMsg,
			Params:  map[string]interface{}{"service": service},
		}
	}
	return provider, nil
}

func (p providerRegistryImpl) ListProviders() []view.Provider {
	result := make([]view.Provider, 0, len(p.providers))
	for _, provider := range p.providers {
		result = append(result, view.Provider{
			Service:     provider.Service,
			DisplayName: provider.DisplayName,
			Scopes:      provider.Scopes,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Service < result[j].Service
	})
	return result
}
