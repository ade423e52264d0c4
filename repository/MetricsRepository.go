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
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/db"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/entity"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/metrics"
)

type MetricsRepository interface {
	StartGetMetricsProcess() error
}

func NewMetricsRepository(cp db.ConnectionProvider) MetricsRepository {
	return &metricsRepositoryImpl{
		cp: cp,
	}
}

type metricsRepositoryImpl struct {
	cp db.ConnectionProvider
}

func (m metricsRepositoryImpl) StartGetMetricsProcess() error {
	connectedCount, err := m.getIntegrationCountByRevoked(false)
	if err != nil {
		return err
	}
	metrics.ConnectedIntegrationsCount.WithLabelValues().Set(float64(connectedCount.IntegrationCount))

	revokedCount, err := m.getIntegrationCountByRevoked(true)
	if err != nil {
		return err
	}
	metrics.RevokedIntegrationsCount.WithLabelValues().Set(float64(revokedCount.IntegrationCount))

	pendingStatesCount, err := m.getPendingOauthStateCount()
	if err != nil {
		return err
	}
	metrics.PendingOauthStatesCount.WithLabelValues().Set(float64(pendingStatesCount.StateCount))
	return nil
}

func (m metricsRepositoryImpl) getIntegrationCountByRevoked(isRevoked bool) (*entity.IntegrationCountEntity, error) {
	result := new(entity.IntegrationCountEntity)
	query := `select count(*) as integration_count from user_integration where is_revoked = ?`
	_, err := m.cp.GetConnection().QueryOne(result, query, isRevoked)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (m metricsRepositoryImpl) getPendingOauthStateCount() (*entity.OauthStateCountEntity, error) {
	result := new(entity.OauthStateCountEntity)
	query := `select count(*) as state_count from oauth_state where expires_at >= now()`
	_, err := m.cp.GetConnection().QueryOne(result, query)
	if err != nil {
		return nil, err
	}
	return result, nil
}
