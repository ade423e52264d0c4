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

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/metrics"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/repository"
)

// CleanupService sweeps authorization states that expired without ever being
// presented back. Pending states stay valid, consumed ones are already gone.
type CleanupService interface {
	CreateCleanupJob(schedule string) error
}

func NewCleanupService(stateRepo repository.OauthStateRepository) CleanupService {
	return &cleanupServiceImpl{
		stateRepo: stateRepo,
		cron:      cron.New(),
	}
}

type cleanupServiceImpl struct {
	stateRepo repository.OauthStateRepository
	cron      *cron.Cron
}

func (c *cleanupServiceImpl) CreateCleanupJob(schedule string) error {
	job := StateCleanupJob{
		schedule:  schedule,
		stateRepo: c.stateRepo,
	}

	if len(c.cron.Entries()) == 0 {
		location, err := time.LoadLocation("")
		if err != nil {
			return err
		}
		c.cron = cron.New(cron.WithLocation(location))
		c.cron.Start()
	}

	_, err := c.cron.AddJob(schedule, &job)
	if err != nil {
		log.Warnf("[Cleanup service] Job wasn't added for schedule - %s. With error - %s", schedule, err)
		return err
	}
	log.Infof("[Cleanup service] Job was created with schedule - %s", schedule)

	return nil
}

type StateCleanupJob struct {
	schedule  string
	stateRepo repository.OauthStateRepository
}

func (j StateCleanupJob) Run() {
	deleted, err := j.stateRepo.DeleteExpiredStates()
	if err != nil {
		log.Errorf("[StateCleanupJob-Run] err - %s", err.Error())
		return
	}
	if deleted > 0 {
		metrics.ExpiredStatesCleanedTotal.WithLabelValues().Add(float64(deleted))
		log.Infof("Removed %d expired authorization states", deleted)
	}
}
