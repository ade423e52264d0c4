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

package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/view"
)

type ActivityTrackingEntity struct {
	tableName struct{} `pg:"integration_activity"`

	Id      string                 `pg:"id, pk, type:varchar"`
	Type    string                 `pg:"e_type, type:varchar"`
	Data    map[string]interface{} `pg:"data, type:jsonb"`
	Service string                 `pg:"service, type:varchar"`
	UserId  string                 `pg:"user_id, type:varchar"`
	Date    time.Time              `pg:"date, type:timestamp without time zone"`
}

func MakeActivityTrackingEventEntity(event view.ActivityTrackingEvent) ActivityTrackingEntity {
	return ActivityTrackingEntity{
		Id:      uuid.New().String(),
		Type:    string(event.Type),
		Data:    event.Data,
		Service: event.Service,
		UserId:  event.UserId,
		Date:    event.Date,
	}
}

func MakeActivityTrackingEventView(ent ActivityTrackingEntity) view.ActivityTrackingEvent {
	return view.ActivityTrackingEvent{
		Type:    view.ATEventType(ent.Type),
		Data:    ent.Data,
		Service: ent.Service,
		UserId:  ent.UserId,
		Date:    ent.Date,
	}
}
