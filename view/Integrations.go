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

import "time"

type IntegrationStatus struct {
	Service     string     `json:"service"`
	DisplayName string     `json:"displayName"`
	Status      string     `json:"status"`
	Scopes      []string   `json:"scopes,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	ConnectedAt *time.Time `json:"connectedAt,omitempty"`
}

type IntegrationStatuses struct {
	Integrations []IntegrationStatus `json:"integrations"`
}
