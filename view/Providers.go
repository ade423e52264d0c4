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

package view

// ProviderConfig describes one external OAuth service the platform can link
// user accounts to. Loaded from the INTEGRATION_PROVIDERS env var as a JSON
// array, adding a provider is a configuration change only.
type ProviderConfig struct {
	Service          string            `json:"service" validate:"required"`
	DisplayName      string            `json:"displayName" validate:"required"`
	AuthorizationUrl string            `json:"authorizationUrl" validate:"required,url"`
	TokenUrl         string            `json:"tokenUrl" validate:"required,url"`
	UserinfoUrl      string            `json:"userinfoUrl,omitempty" validate:"omitempty,url"`
	ClientId         string            `json:"clientId" validate:"required"`
	ClientSecret     string            `json:"clientSecret,omitempty"`
	Scopes           []string          `json:"scopes,omitempty"`
	UsePkce          bool              `json:"usePkce,omitempty"`
	OfflineAccess    bool              `json:"offlineAccess,omitempty"`
	AuthParams       map[string]string `json:"authParams,omitempty"`
}

// Provider is the public projection of ProviderConfig, client credentials and
// endpoint internals excluded.
type Provider struct {
	Service     string   `json:"service"`
	DisplayName string   `json:"displayName"`
	Scopes      []string `json:"scopes,omitempty"`
}

type Providers struct {
	Providers []Provider `json:"providers"`
}
