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

package repository

import (
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/entity"
)

type IntegrationRepository interface {
	SaveIntegration(integrationEntity entity.IntegrationEntity) (*entity.IntegrationEntity, error)
	GetIntegration(service string, userId string) (*entity.IntegrationEntity, error)
	GetIntegrationsForUser(userId string) ([]entity.IntegrationEntity, error)
	DeleteIntegration(service string, userId string) (bool, error)
	AddFailedRefreshAttempt(service string, userId string) error
	MarkRevoked(service string, userId string) error
}
