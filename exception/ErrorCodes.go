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

package exception

// Request validation
const BadRequestBody = "10"
const BadRequestBodyMsg = "Failed to decode body"

const EmptyParameter = "11"
const EmptyParameterMsg = "Parameter $param should not be empty"

const IncorrectParamType = "12"
const IncorrectParamTypeMsg = "$param parameter should be $type"

const RequiredParamsMissing = "13"
const RequiredParamsMissingMsg = "Required parameters are missing: $params"

const InvalidURLEscape = "14"
const InvalidURLEscapeMsg = "Invalid URL escape for parameter $param"

const InvalidParameterValue = "15"
const InvalidParameterValueMsg = "Value '$value' is not allowed for parameter $param"

const InvalidParameterValueLength = "16"
const InvalidParameterValueLengthMsg = "Value length for parameter $param should not exceed $maxLen characters"

const InvalidItemsNumber = "17"
const InvalidItemsNumberMsg = "Number of items for parameter $param should not exceed $maxItems"

const InvalidLimit = "18"
const InvalidLimitMsg = "Value '$value' is not allowed for limit. Allowed values are integers from 1 to $maxLimit"

// Security
const UserIdNotFound = "20"
const UserIdNotFoundMsg = "User id is not found in the request context"

const SystemApiKeyNotConfigured = "21"
const SystemApiKeyNotConfiguredMsg = "System api key is not configured on the server"

const HostNotAllowed = "22"
const HostNotAllowedMsg = "Host $host is not allowed"

// OAuth integrations
const UnsupportedService = "30"
const UnsupportedServiceMsg = "Service $service is not supported for OAuth integration"

const InvalidOrExpiredState = "31"
const InvalidOrExpiredStateMsg = "Authorization state is invalid, already used or expired"

const TokenExchangeFailed = "32"
const TokenExchangeFailedMsg = "Failed to exchange authorization code with service $service"

const NotConnected = "33"
const NotConnectedMsg = "Service $service is not connected for the user"

const ReconnectRequired = "34"
const ReconnectRequiredMsg = "Connection to service $service is no longer valid and requires reconnection"

const MissingToken = "35"
const MissingTokenMsg = "No valid token available for service $service"

const IntegrationProvidersInvalid = "36"
const IntegrationProvidersInvalidMsg = "Integration providers configuration is invalid"
