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
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/view"
	"github.com/shaj13/go-guardian/v2/auth"
	log "github.com/sirupsen/logrus"
)

type ActivityTrackingController interface {
	GetActivityHistory(w http.ResponseWriter, r *http.Request)
}

func NewActivityTrackingController(activityTrackingService service.ActivityTrackingService) ActivityTrackingController {
	return &activityTrackingControllerImpl{activityTrackingService: activityTrackingService}
}

type activityTrackingControllerImpl struct {
	activityTrackingService service.ActivityTrackingService
}

func (a activityTrackingControllerImpl) GetActivityHistory(w http.ResponseWriter, r *http.Request) {
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

	services, customError := getListFromParam(r, "services")
	if customError != nil {
		RespondWithCustomError(w, customError)
		return
	}
	types, customError := getListFromParam(r, "types")
	if customError != nil {
		RespondWithCustomError(w, customError)
		return
	}
	limit, customError := getLimitQueryParam(r)
	if customError != nil {
		RespondWithCustomError(w, customError)
		return
	}
	page, customError := getPageQueryParam(r)
	if customError != nil {
		RespondWithCustomError(w, customError)
		return
	}

	history, err := a.activityTrackingService.GetActivityHistory(userId, view.ActivityHistoryReq{
		Services: services,
		Types:    types,
		Limit:    limit,
		Page:     page,
	})
	if err != nil {
		log.Error("Failed to get activity history: ", err.Error())
		if customError, ok := err.(*exception.CustomError); ok {
			RespondWithCustomError(w, customError)
		} else {
			RespondWithCustomError(w, &exception.CustomError{
				Status:  http.StatusInternalServerError,
				Message: "Failed to get activity history",
				Debug:   err.Error()})
		}
		return
	}

	RespondWithJson(w, http.StatusOK, history)
}
