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
	"github.com/pkg/errors"

	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/db"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/entity"
)

func NewOauthStateRepositoryPG(cp db.ConnectionProvider) (OauthStateRepository, error) {
	return &oauthStateRepositoryImpl{cp: cp}, nil
}

type oauthStateRepositoryImpl struct {
	cp db.ConnectionProvider
}

func (o oauthStateRepositoryImpl) CreateState(stateEntity entity.OauthStateEntity) error {
	_, err := o.cp.GetConnection().Model(&stateEntity).Insert()
	return err
}

func (o oauthStateRepositoryImpl) ConsumeState(state string) (*entity.OauthStateEntity, error) {
	result := new(entity.OauthStateEntity)
	res, err := o.cp.GetConnection().Model(result).
		Where("state = ?", state).
		Returning("*").
		Delete()
	if err != nil {
		if err == pg.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if res.RowsAffected() == 0 {
		return nil, nil
	}
	return result, nil
}

func (o oauthStateRepositoryImpl) DeleteExpiredStates() (int, error) {
	res, err := o.cp.GetConnection().Model(&entity.OauthStateEntity{}).
		Where("expires_at < now()").
		Delete()
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete expired oauth states")
	}
	return res.RowsAffected(), nil
}
