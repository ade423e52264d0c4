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

	log "github.com/sirupsen/logrus"

	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/crypto"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/entity"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/repository"
)

const stateTtl = time.Minute * 10

// AuthorizationStateStore issues and redeems single-use authorization states.
// A state survives at most one ConsumeState call, valid or not.
type AuthorizationStateStore interface {
	CreateState(userId string, service string, codeVerifier string, redirectUri string) (string, error)
	ConsumeState(state string) (*entity.OauthStateEntity, error)
}

func NewAuthorizationStateStore(repo repository.OauthStateRepository) AuthorizationStateStore {
	return &authorizationStateStoreImpl{repo: repo}
}

type authorizationStateStoreImpl struct {
	repo repository.OauthStateRepository
}

func (a authorizationStateStoreImpl) CreateState(userId string, service string, codeVerifier string, redirectUri string) (string, error) {
	state := crypto.CreateRandomHash()
	now := time.Now()
	err := a.repo.CreateState(entity.OauthStateEntity{
		State:        state,
		UserId:       userId,
		Service:      service,
		CodeVerifier: codeVerifier,
		RedirectUri:  redirectUri,
		CreatedAt:    now,
		ExpiresAt:    now.Add(stateTtl),
	})
	if err != nil {
		return "", err
	}
	return state, nil
}

func (a authorizationStateStoreImpl) ConsumeState(state string) (*entity.OauthStateEntity, error) {
	if state == "" {
		return nil, nil
	}
	stateEntity, err := a.repo.ConsumeState(state)
	if err != nil {
		return nil, err
	}
	if stateEntity == nil {
		return nil, nil
	}
	if time.Now().After(stateEntity.ExpiresAt) {
		log.Debugf("Authorization state for user %s and service %s expired at %v", stateEntity.UserId, stateEntity.Service, stateEntity.ExpiresAt)
		return nil, nil
	}
	return stateEntity, nil
}
