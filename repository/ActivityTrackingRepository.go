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
	"github.com/go-pg/pg/v10"

	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/db"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/entity"
)

type ActivityTrackingRepository interface {
	CreateEvent(ent *entity.ActivityTrackingEntity) error
	GetEventsForUser(userId string, services []string, types []string, limit int, page int) ([]entity.ActivityTrackingEntity, error)
}

func NewActivityTrackingRepository(cp db.ConnectionProvider) ActivityTrackingRepository {
	return &activityTrackingRepositoryImpl{
		cp: cp,
	}
}

type activityTrackingRepositoryImpl struct {
	cp db.ConnectionProvider
}

func (a activityTrackingRepositoryImpl) CreateEvent(ent *entity.ActivityTrackingEntity) error {
	_, err := a.cp.GetConnection().Model(ent).Insert()
	if err != nil {
		return err
	}
	return nil
}

func (a activityTrackingRepositoryImpl) GetEventsForUser(userId string, services []string, types []string, limit int, page int) ([]entity.ActivityTrackingEntity, error) {
	var result []entity.ActivityTrackingEntity

	query := a.cp.GetConnection().Model(&result).
		Where("user_id = ?", userId)

	if len(services) > 0 {
		query.Where("service in (?)", pg.In(services))
	}
	if len(types) > 0 {
		query.Where("e_type in (?)", pg.In(types))
	}
	query.Order("date DESC").Limit(limit).Offset(limit * page)

	err := query.Select()
	if err != nil {
		if err != pg.ErrNoRows {
			return nil, err
		}
	}
	return result, nil
}
