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
	goctx "context"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/context"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/exception"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/view"
	log "github.com/sirupsen/logrus"
)

// FlowTokenService resolves the tokens a workflow invocation needs. The result
// is all or nothing, a flow never starts with a partial set of credentials.
type FlowTokenService interface {
	GetTokensForFlow(ctx goctx.Context, req view.FlowTokensRequest) (*view.FlowTokensResponse, error)
}

func NewFlowTokenService(refreshCoordinator TokenRefreshCoordinator) FlowTokenService {
	return &flowTokenServiceImpl{refreshCoordinator: refreshCoordinator}
}

type flowTokenServiceImpl struct {
	refreshCoordinator TokenRefreshCoordinator
}

func (f flowTokenServiceImpl) GetTokensForFlow(ctx goctx.Context, req view.FlowTokensRequest) (*view.FlowTokensResponse, error) {
	callerId := "unknown"
	if secCtx := context.GetSecurityContext(ctx); secCtx != nil {
		callerId = (*secCtx).GetUserId()
	}
	log.Debugf("Resolving %d flow token(s) for user %s on behalf of %s", len(req.Requirements), req.UserId, callerId)

	group, groupCtx := errgroup.WithContext(ctx)
	tokens := make(map[string]string, len(req.Requirements))
	tokensMutex := sync.Mutex{}

	for field, service := range req.Requirements {
		field, service := field, service // per-iteration copies; required while go.mod targets go < 1.22
		group.Go(func() error {
			accessToken, err := f.refreshCoordinator.GetValidToken(groupCtx, req.UserId, service)
			if err != nil {
				return makeMissingTokenError(service, err)
			}
			tokensMutex.Lock()
			tokens[field] = accessToken
			tokensMutex.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return &view.FlowTokensResponse{Tokens: tokens}, nil
}

func makeMissingTokenError(service string, cause error) error {
	if customError, ok := cause.(*exception.CustomError); ok && customError.Code == exception.UnsupportedService {
		return customError
	}
	return &exception.CustomError{
		Status:  http.StatusFailedDependency,
		Code:    exception.MissingToken,
		Message: exception.MissingTokenMsg,
		Params:  map[string]interface{}{"service": service},
		Debug:   cause.Error(),
	}
}
