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

type ActivityTrackingEvent struct {
	Type    ATEventType            `json:"eventType,omitempty"`
	Data    map[string]interface{} `json:"params,omitempty"`
	Service string                 `json:"service,omitempty"`
	Date    time.Time              `json:"date"`
	UserId  string                 `json:"userId,omitempty"`
}

type ActivityResponse struct {
	Events []ActivityTrackingEvent `json:"events"`
}

type ActivityHistoryReq struct {
	Services []string
	Types    []string
	Limit    int
	Page     int
}

type ATEventType string

// integration lifecycle

const ATETConnectIntegration ATEventType = "connect_integration"
const ATETReconnectIntegration ATEventType = "reconnect_integration"
const ATETDisconnectIntegration ATEventType = "disconnect_integration"

// token lifecycle

const ATETRefreshRevoked ATEventType = "refresh_revoked"
