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

// OAuthAccessResponse is the token endpoint response body shared by all
// supported providers. Providers that omit optional fields leave them zero.
type OAuthAccessResponse struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int    `json:"expires_in"`
	RefreshToken     string `json:"refresh_token"`
	Scope            string `json:"scope"`
	CreatedAt        int    `json:"created_at"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

type OauthStartResponse struct {
	AuthorizationUrl string `json:"authorizationUrl"`
	Service          string `json:"service"`
}

func GetTokenExpirationDate(expiresIn int) time.Time {
	var duration time.Duration
	if expiresIn == 0 {
		duration = time.Hour * 2 //default expiration time for providers that omit expires_in
	} else {
		duration = time.Duration(expiresIn) * time.Second
	}
	return time.Now().Add(duration)
}
