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
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/entity"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/repository"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/utils"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/view"
	log "github.com/sirupsen/logrus"
)

type ActivityTrackingService interface {
	TrackEvent(event view.ActivityTrackingEvent) // return no error due to async processing

	GetActivityHistory(userId string, req view.ActivityHistoryReq) (*view.ActivityResponse, error)
}

func NewActivityTrackingService(repo repository.ActivityTrackingRepository) ActivityTrackingService {
	return &activityTrackingServiceImpl{repo: repo}
}

type activityTrackingServiceImpl struct {
	repo repository.ActivityTrackingRepository
}

func (a activityTrackingServiceImpl) TrackEvent(event view.ActivityTrackingEvent) {
	utils.SafeAsync(func() {
		a.trackEventInternal(event)
	})
}

func (a activityTrackingServiceImpl) GetActivityHistory(userId string, req view.ActivityHistoryReq) (*view.ActivityResponse, error) {
	ents, err := a.repo.GetEventsForUser(userId, req.Services, req.Types, req.Limit, req.Page)
	if err != nil {
		return nil, err
	}
	events := make([]view.ActivityTrackingEvent, 0, len(ents))
	for _, ent := range ents {
		events = append(events, entity.MakeActivityTrackingEventView(ent))
	}
	return &view.ActivityResponse{Events: events}, nil
}

func (a activityTrackingServiceImpl) trackEventInternal(event view.ActivityTrackingEvent) {
	ent := entity.MakeActivityTrackingEventEntity(event)
	err := a.repo.CreateEvent(&ent)
	if err != nil {
		log.Errorf("Failed to save tracked event %+v to DB with err: %s", ent, err)
	}
}
