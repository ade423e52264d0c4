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
)

// IntegrationEntity is one linked external account per (user, service).
// AccessToken and RefreshToken columns hold ciphertext, never plaintext.
// RefreshToken is empty when the provider issued no refresh token.
type IntegrationEntity struct {
	tableName struct{} `pg:"user_integration"`

	Service               string    `pg:"service, pk, type:varchar"`
	UserId                string    `pg:"user_id, pk, type:varchar"`
	AccessToken           string    `pg:"access_token, type:varchar"`
	RefreshToken          string    `pg:"refresh_token, type:varchar"`
	Scopes                []string  `pg:"scopes, type:varchar array, array"`
	FailedRefreshAttempts int       `pg:"failed_refresh_attempts, type:integer, use_zero"`
	ExpiresAt             time.Time `pg:"expires_at, type:timestamp without time zone"`
	IsRevoked             bool      `pg:"is_revoked, type:boolean, use_zero"`
	CreatedAt             time.Time `pg:"created_at, type:timestamp without time zone"`
	UpdatedAt             time.Time `pg:"updated_at, type:timestamp without time zone"`
}
