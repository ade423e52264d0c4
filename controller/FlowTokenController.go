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

package controller

import (
	"encoding/json"
	"io/ioutil"
	"net/http"

	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/context"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/exception"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/service"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/utils"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/view"
	log "github.com/sirupsen/logrus"
)

type FlowTokenController interface {
	GetTokensForFlow(w http.ResponseWriter, r *http.Request)
}

func NewFlowTokenController(flowTokenService service.FlowTokenService) FlowTokenController {
	return &flowTokenControllerImpl{flowTokenService: flowTokenService}
}

type flowTokenControllerImpl struct {
	flowTokenService service.FlowTokenService
}

func (c flowTokenControllerImpl) GetTokensForFlow(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	body, err := ioutil.ReadAll(r.Body)
	if err != nil {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.BadRequestBody,
			Message: exception.BadRequestBodyMsg,
			Debug:   err.Error(),
		})
		return
	}
	var request view.FlowTokensRequest
	err = json.Unmarshal(body, &request)
	if err != nil {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.BadRequestBody,
			Message: exception.BadRequestBodyMsg,
			Debug:   err.Error(),
		})
		return
	}
	validationErr := utils.ValidateObject(request)
	if validationErr != nil {
		if customError, ok := validationErr.(*exception.CustomError); ok {
			RespondWithCustomError(w, customError)
			return
		}
	}

	ctx := context.CreateContextWithSecurity(r.Context(), context.Create(r))
	tokens, err := c.flowTokenService.GetTokensForFlow(ctx, request)
	if err != nil {
		log.Error("Failed to resolve tokens for flow: ", err.Error())
		if customError, ok := err.(*exception.CustomError); ok {
			RespondWithCustomError(w, customError)
		} else {
			RespondWithCustomError(w, &exception.CustomError{
				Status:  http.StatusInternalServerError,
				Message: "Failed to resolve tokens for flow",
				Debug:   err.Error()})
		}
		return
	}

	RespondWithJson(w, http.StatusOK, tokens)
}
