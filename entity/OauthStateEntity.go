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

// OauthStateEntity is a pending authorization attempt. A row is deleted the
// first time its state is presented, so a state can never be accepted twice.
type OauthStateEntity struct {
	tableName struct{} `pg:"oauth_state"`

	State        string    `pg:"state, pk, type:varchar"`
	UserId       string    `pg:"user_id, type:varchar"`
	Service      string    `pg:"service, type:varchar"`
	CodeVerifier string    `pg:"code_verifier, type:varchar"`
	RedirectUri  string    `pg:"redirect_uri, type:varchar"`
	CreatedAt    time.Time `pg:"created_at, type:timestamp without time zone"`
	ExpiresAt    time.Time `pg:"expires_at, type:timestamp without time zone"`
}
