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

package utils

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/exception"
)

var validate *validator.Validate

func getValidator() *validator.Validate {
	if validate == nil {
		validate = validator.New()
	}
	return validate
}

// ValidateObject reports absent required fields by their json names. Other
// validation tags are advisory and do not fail the request here.
func ValidateObject(object interface{}) error {
	err := getValidator().Struct(object)
	if err == nil {
		return nil
	}
	missingParams := make([]string, 0)
	for _, fieldError := range err.(validator.ValidationErrors) {
		if fieldError.Tag() == "required" {
			missingParams = append(missingParams, jsonFieldPath(object, fieldError.StructNamespace()))
		}
	}
	if len(missingParams) == 0 {
		return nil
	}
	return &exception.CustomError{
		Status:  http.StatusBadRequest,
		Code:    exception.RequiredParamsMissing,
		Message: exception.RequiredParamsMissingMsg,
		Params:  map[string]interface{}{"params": strings.Join(missingParams, ", ")},
	}
}

// jsonFieldPath turns a validator namespace like "FlowTokensRequest.UserId"
// into the json path clients actually send.
func jsonFieldPath(object interface{}, structNamespace string) string {
	currentType := reflect.TypeOf(object)
	if currentType.Kind() == reflect.Pointer {
		currentType = currentType.Elem()
	}
	segments := strings.Split(structNamespace, ".")[1:]
	parts := make([]string, 0, len(segments))
	for _, segment := range segments {
		field, found := currentType.FieldByName(segment)
		if !found {
			parts = append(parts, segment)
			break
		}
		parts = append(parts, jsonFieldName(field))
		fieldType := field.Type
		for fieldType.Kind() == reflect.Pointer || fieldType.Kind() == reflect.Slice {
			fieldType = fieldType.Elem()
		}
		if fieldType.Kind() != reflect.Struct {
			break
		}
		currentType = fieldType
	}
	return strings.Join(parts, ".")
}

func jsonFieldName(field reflect.StructField) string {
	jsonTag := field.Tag.Get("json")
	if jsonTag == "" || jsonTag == "-" {
		return field.Name
	}
	name := strings.Split(jsonTag, ",")[0]
	if name == "" {
		return field.Name
	}
	return name
}
