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
	"time"

	"github.com/go-pg/pg/v10"

	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/db"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/entity"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/utils"
)

func NewIntegrationRepositoryPG(cp db.ConnectionProvider) (IntegrationRepository, error) {
	return &integrationRepositoryImpl{cp: cp}, nil
}

type integrationRepositoryImpl struct {
	cp db.ConnectionProvider
}

func (i integrationRepositoryImpl) SaveIntegration(integrationEntity entity.IntegrationEntity) (*entity.IntegrationEntity, error) {
	start := time.Now()
	integrationEntity.UpdatedAt = time.Now()
	if integrationEntity.CreatedAt.IsZero() {
		integrationEntity.CreatedAt = integrationEntity.UpdatedAt
	}
	_, err := i.cp.GetConnection().Model(&integrationEntity).
		OnConflict("(\"user_id\", \"service\") DO UPDATE").
		Insert()
	// this upsert sits on the oauth callback and token refresh paths
	utils.PerfLog(time.Since(start).Milliseconds(), 200, "SaveIntegration: integration upsert")
	return &integrationEntity, err
}

func (i integrationRepositoryImpl) GetIntegration(service string, userId string) (*entity.IntegrationEntity, error) {
	result := new(entity.IntegrationEntity)
	err := i.cp.GetConnection().Model(result).
		Where("user_id = ?", userId).
		Where("service = ?", service).
		First()
	if err != nil {
		if err == pg.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return result, nil
}

func (i integrationRepositoryImpl) GetIntegrationsForUser(userId string) ([]entity.IntegrationEntity, error) {
	var result []entity.IntegrationEntity
	err := i.cp.GetConnection().Model(&result).
		Where("user_id = ?", userId).
		Order("service ASC").
		Select()
	if err != nil {
		if err == pg.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return result, nil
}

func (i integrationRepositoryImpl) DeleteIntegration(service string, userId string) (bool, error) {
	result, err := i.cp.GetConnection().Model(&entity.IntegrationEntity{}).
		Where("service = ?", service).
		Where("user_id = ?", userId).
		Delete()
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (i integrationRepositoryImpl) AddFailedRefreshAttempt(service string, userId string) error {
	result := new(entity.IntegrationEntity)
	_, err := i.cp.GetConnection().Model(result).
		Where("user_id = ?", userId).
		Where("service = ?", service).
		Set("failed_refresh_attempts = failed_refresh_attempts + 1").
		Set("updated_at = now()").
		Update()
	if err != nil {
		return err
	}
	return nil
}

func (i integrationRepositoryImpl) MarkRevoked(service string, userId string) error {
	result := new(entity.IntegrationEntity)
	_, err := i.cp.GetConnection().Model(result).
		Where("user_id = ?", userId).
		Where("service = ?", service).
		Set("is_revoked = true").
		Set("updated_at = now()").
		Update()
	if err != nil {
		return err
	}
	return nil
}
