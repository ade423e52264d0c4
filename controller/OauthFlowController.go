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
	"fmt"
	"net/http"
	"net/url"

	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/exception"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/service"
	"github.com/shaj13/go-guardian/v2/auth"
	log "github.com/sirupsen/logrus"
)

type OauthFlowController interface {
	StartAuthorization(w http.ResponseWriter, r *http.Request)
	HandleCallback(w http.ResponseWriter, r *http.Request)
}

func NewOauthFlowController(flowService service.OauthFlowService, systemInfoService service.SystemInfoService) OauthFlowController {
	return &oauthFlowControllerImpl{
		flowService:       flowService,
		systemInfoService: systemInfoService,
	}
}

type oauthFlowControllerImpl struct {
	flowService       service.OauthFlowService
	systemInfoService service.SystemInfoService
}

func (o oauthFlowControllerImpl) StartAuthorization(w http.ResponseWriter, r *http.Request) {
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
	redirectUri := r.URL.Query().Get("redirectUri")

	response, err := o.flowService.StartAuthorization(userId, integrationId, redirectUri)
	if err != nil {
		log.Error("Failed to start authorization: ", err.Error())
		if customError, ok := err.(*exception.CustomError); ok {
			RespondWithCustomError(w, customError)
		} else {
			RespondWithCustomError(w, &exception.CustomError{
				Status:  http.StatusInternalServerError,
				Message: "Failed to start authorization",
				Debug:   err.Error()})
		}
		return
	}

	RespondWithJson(w, http.StatusOK, response)
}

// HandleCallback terminates the browser leg of the flow, so failures that the
// user can act on are sent back to the settings page as a redirect rather
// than a json body.
func (o oauthFlowControllerImpl) HandleCallback(w http.ResponseWriter, r *http.Request) {
	integrationId := getStringParam(r, "integrationId")

	location, err := o.flowService.HandleCallback(r.Context(), integrationId, r.URL.Query())
	if err != nil {
		log.Error("Failed to complete authorization callback: ", err.Error())
		if customError, ok := err.(*exception.CustomError); ok {
			if isUserFlowError(customError) {
				http.Redirect(w, r, o.makeErrorRedirectUri(customError), http.StatusFound)
				return
			}
			RespondWithCustomError(w, customError)
		} else {
			RespondWithCustomError(w, &exception.CustomError{
				Status:  http.StatusInternalServerError,
				Message: "Failed to complete authorization callback",
				Debug:   err.Error()})
		}
		return
	}

	http.Redirect(w, r, location, http.StatusFound)
}

func isUserFlowError(customError *exception.CustomError) bool {
	switch customError.Code {
	case exception.InvalidOrExpiredState, exception.TokenExchangeFailed, exception.EmptyParameter:
		return true
	}
	return false
}

func (o oauthFlowControllerImpl) makeErrorRedirectUri(customError *exception.CustomError) string {
	return fmt.Sprintf("%s/settings/integrations?integrationError=%s",
		o.systemInfoService.GetFlowhubUrl(), url.QueryEscape(customError.Code))
}
