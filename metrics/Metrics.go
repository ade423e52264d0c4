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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var TotalRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "flowhub_http_requests_total",
		Help: "Number of get requests.",
	},
	[]string{"path", "code", "method"},
)

var HttpDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name: "flowhub_http_request_duration_seconds_historgram",
		Buckets: []float64{
			0.1, // 100 ms
			0.2,
			0.25,
			0.5,
			1,
			1.5,
			3,
			5,
			10,
		},
	},
	[]string{"path", "code", "method"},
)

var TokenExchangeTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "flowhub_oauth_token_exchange_total",
		Help: "Authorization code exchanges by service and outcome.",
	},
	[]string{"service", "outcome"},
)

var TokenRefreshTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "flowhub_oauth_token_refresh_total",
		Help: "Access token refreshes by service and outcome.",
	},
	[]string{"service", "outcome"},
)

var ConnectedIntegrationsCount = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "flowhub_connected_integrations_count",
		Help: "Stored integrations with is_revoked = false",
	},
	[]string{},
)

var RevokedIntegrationsCount = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "flowhub_revoked_integrations_count",
		Help: "Stored integrations with is_revoked = true",
	},
	[]string{},
)

var PendingOauthStatesCount = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "flowhub_pending_oauth_states_count",
		Help: "Authorization flows started but not completed yet",
	},
	[]string{},
)

var ExpiredStatesCleanedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "flowhub_expired_oauth_states_cleaned_total",
		Help: "Expired authorization states removed by the cleanup job",
	},
	[]string{},
)

func RegisterAllPrometheusApplicationMetrics() {
	prometheus.Register(TotalRequests)
	prometheus.Register(HttpDuration)
	prometheus.Register(TokenExchangeTotal)
	prometheus.Register(TokenRefreshTotal)
	prometheus.Register(ConnectedIntegrationsCount)
	prometheus.Register(RevokedIntegrationsCount)
	prometheus.Register(PendingOauthStatesCount)
	prometheus.Register(ExpiredStatesCleanedTotal)
}
