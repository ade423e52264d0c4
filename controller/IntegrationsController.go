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
	"net/http"

	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/exception"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/service"
	"github.com/shaj13/go-guardian/v2/auth"
	log "github.com/sirupsen/logrus"
)

type IntegrationsController interface {
	GetProviders(w http.ResponseWriter, r *http.Request)
	GetIntegrationStatuses(w http.ResponseWriter, r *http.Request)
	DisconnectIntegration(w http.ResponseWriter, r *http.Request)
}

func NewIntegrationsController(integrationsService service.IntegrationsService) IntegrationsController {
	return &integrationsControllerImpl{integrationsService: integrationsService}
}

type integrationsControllerImpl struct {
	integrationsService service.IntegrationsService
}

func (c integrationsControllerImpl) GetProviders(w http.ResponseWriter, r *http.Request) {
	RespondWithJson(w, http.StatusOK, c.integrationsService.GetProviders())
}

func (c integrationsControllerImpl) GetIntegrationStatuses(w http.ResponseWriter, r *http.Request) {
	user := auth.User(r)
	userId := user.GetID()
	if userId == "" {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.UserIdNotFound,
			Message: exception.UserIdNotFoundMsg,
		})
		return
	}

	statuses, err := c.integrationsService.GetIntegrationStatuses(userId)
	if err != nil {
		log.Error("Failed to get integration statuses: ", err.Error())
		if customError, ok := err.(*exception.CustomError); ok {
			RespondWithCustomError(w, customError)
		} else {
			RespondWithCustomError(w, &exception.CustomError{
				Status:  http.StatusInternalServerError,
				Message: "Failed to get integration statuses",
				Debug:   err.Error()})
		}
		return
	}

	RespondWithJson(w, http.StatusOK, statuses)
}

func (c integrationsControllerImpl) DisconnectIntegration(w http.ResponseWriter, r *http.Request) {
	user := auth.User(r)
	userId := user.GetID()
	if userId == "" {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.UserIdNotFound,
			Message: exception.UserIdNotFoundMsg,
		})
		return
	}

	integrationId := getStringParam(r, "integrationId")
	err := c.integrationsService.DisconnectIntegration(userId, integrationId)
	if err != nil {
		log.Error("Failed to disconnect integration: ", err.Error())
		if customError, ok := err.(*exception.CustomError); ok {
			RespondWithCustomError(w, customError)
		} else {
			RespondWithCustomError(w, &exception.CustomError{
				Status:  http.StatusInternalServerError,
				Message: "Failed to disconnect integration",
				Debug:   err.Error()})
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
