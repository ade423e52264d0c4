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

// FlowTokensRequest is sent by the workflow engine before it invokes a flow.
// Requirements maps a flow input field to the service whose token it needs.
type FlowTokensRequest struct {
	UserId       string            `json:"userId" validate:"required"`
	Requirements map[string]string `json:"requirements" validate:"required"`
}

type FlowTokensResponse struct {
	Tokens map[string]string `json:"tokens"`
}
