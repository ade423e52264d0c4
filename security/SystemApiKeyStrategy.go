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

package security

import (
	"context"
	"fmt"
	"net/http"

	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/crypto"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/exception"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/service"
	"github.com/shaj13/go-guardian/v2/auth"
)

const ApiKeyHeader = "api-key"

const systemPrincipal = "system"

// NewSystemApiKeyStrategy authenticates internal collaborators such as the
// workflow engine by the shared system api key. Keys are compared by hash so
// the plaintext never ends up in logs via the comparison path.
func NewSystemApiKeyStrategy(systemInfoService service.SystemInfoService) auth.Strategy {
	return &systemApiKeyStrategyImpl{systemInfoService: systemInfoService}
}

type systemApiKeyStrategyImpl struct {
	systemInfoService service.SystemInfoService
}

func (s systemApiKeyStrategyImpl) Authenticate(ctx context.Context, r *http.Request) (auth.Info, error) {
	apiKey := r.Header.Get(ApiKeyHeader)
	if apiKey == "" {
		return nil, fmt.Errorf("authentication failed: header '%v' is empty", ApiKeyHeader)
	}
	configuredApiKey, err := s.systemInfoService.GetSystemApiKey()
	if err != nil {
		return nil, &exception.CustomError{
			Status:  http.StatusInternalServerError,
			Code:    exception.SystemApiKeyNotConfigured,
			Message: exception.SystemApiKeyNotConfiguredMsg,
			Debug:   err.Error(),
		}
	}
	if crypto.CreateSHA256Hash([]byte(apiKey)) != crypto.CreateSHA256Hash([]byte(configuredApiKey)) {
		return nil, fmt.Errorf("authentication failed: '%v' doesn't exist or invalid", ApiKeyHeader)
	}
	return auth.NewDefaultUser(systemPrincipal, systemPrincipal, []string{}, auth.Extensions{}), nil
}
