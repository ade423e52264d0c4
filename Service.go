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

package main

import (
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/cache"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/client"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/controller"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/crypto"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/db"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/metrics"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/middleware"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/migration"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/repository"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/security"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/service"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	log.SetFormatter(&prefixed.TextFormatter{
		DisableColors:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
		ForceFormatting: true,
	})
	log.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   "logs/flowhub.log",
		MaxSize:    10,
		MaxBackups: 10,
		MaxAge:     30,
		Compress:   true,
	}))

	systemInfoService, err := service.NewSystemInfoService()
	if err != nil {
		log.Fatalf("Failed to read system info: %s", err.Error())
	}
	logLevel, err := log.ParseLevel(systemInfoService.GetLogLevel())
	if err != nil {
		log.Errorf("Failed to parse log level: %s", err.Error())
		logLevel = log.InfoLevel
	}
	log.SetLevel(logLevel)

	basePath := systemInfoService.GetBasePath()
	creds := systemInfoService.GetCredsFromEnv()
	cp := db.NewConnectionProvider(creds)

	migrationService, err := migration.NewDBMigrationService(cp, basePath)
	if err != nil {
		log.Fatalf("Failed to create db migration service: %s", err.Error())
	}
	currentVersion, newVersion, migrationApplied, err := migrationService.Migrate()
	if err != nil {
		log.Fatalf("Failed to migrate db: %s", err.Error())
	}
	if migrationApplied {
		log.Infof("Db schema was migrated from %v to %v", currentVersion, newVersion)
	}

	olricProvider, err := cache.NewOlricProvider()
	if err != nil {
		log.Fatalf("Failed to create olric provider: %s", err.Error())
	}

	tokenCipher, err := crypto.NewTokenCipher(systemInfoService.GetTokenEncryptionKey())
	if err != nil {
		log.Fatalf("Failed to create token cipher: %s", err.Error())
	}

	integrationRepository, err := repository.NewIntegrationRepositoryPG(cp)
	if err != nil {
		log.Fatalf("Failed to create integration repository: %s", err.Error())
	}
	oauthStateRepository, err := repository.NewOauthStateRepositoryPG(cp)
	if err != nil {
		log.Fatalf("Failed to create oauth state repository: %s", err.Error())
	}
	activityTrackingRepository := repository.NewActivityTrackingRepository(cp)
	metricsRepository := repository.NewMetricsRepository(cp)

	providerRegistry, err := service.NewProviderRegistry(systemInfoService)
	if err != nil {
		log.Fatalf("Failed to create provider registry: %s", err.Error())
	}
	providerClient := client.NewOauthProviderClient()

	activityTrackingService := service.NewActivityTrackingService(activityTrackingRepository)
	refreshCoordinator := service.NewTokenRefreshCoordinator(integrationRepository, providerRegistry,
		providerClient, tokenCipher, activityTrackingService, olricProvider)
	stateStore := service.NewAuthorizationStateStore(oauthStateRepository)
	oauthFlowService := service.NewOauthFlowService(providerRegistry, stateStore,
		providerClient, tokenCipher, integrationRepository, refreshCoordinator,
		activityTrackingService, systemInfoService)
	integrationsService := service.NewIntegrationsService(providerRegistry, integrationRepository,
		refreshCoordinator, activityTrackingService)
	flowTokenService := service.NewFlowTokenService(refreshCoordinator)
	cleanupService := service.NewCleanupService(oauthStateRepository)
	metricsService := service.NewMetricsService(metricsRepository)

	err = security.SetupGoGuardian(systemInfoService)
	if err != nil {
		log.Fatalf("Failed to setup security: %s", err.Error())
	}

	oauthFlowController := controller.NewOauthFlowController(oauthFlowService, systemInfoService)
	integrationsController := controller.NewIntegrationsController(integrationsService)
	activityTrackingController := controller.NewActivityTrackingController(activityTrackingService)
	flowTokenController := controller.NewFlowTokenController(flowTokenService)
	systemInfoController := controller.NewSystemInfoController(systemInfoService)

	readyChan := make(chan bool)
	healthController := controller.NewHealthController(readyChan)

	metrics.RegisterAllPrometheusApplicationMetrics()

	err = cleanupService.CreateCleanupJob(systemInfoService.GetStateCleanupSchedule())
	if err != nil {
		log.Errorf("Failed to create state cleanup job: %s", err.Error())
	}
	err = metricsService.CreateJob("*/5 * * * *")
	if err != nil {
		log.Errorf("Failed to create metrics job: %s", err.Error())
	}

	r := mux.NewRouter()
	r.Use(midldleware.PrometheusMiddleware)

	r.HandleFunc("/api/v1/integrations/oauth/start/{integrationId}", security.SecureJWT(oauthFlowController.StartAuthorization)).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/integrations/oauth/callback/{integrationId}", security.NoSecure(oauthFlowController.HandleCallback)).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/integrations/providers", security.Secure(integrationsController.GetProviders)).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/integrations/status", security.SecureJWT(integrationsController.GetIntegrationStatuses)).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/integrations/activity", security.SecureJWT(activityTrackingController.GetActivityHistory)).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/integrations/{integrationId}", security.SecureJWT(integrationsController.DisconnectIntegration)).Methods(http.MethodDelete)
	r.HandleFunc("/api/internal/v1/flows/tokens", security.SecureSystem(flowTokenController.GetTokensForFlow)).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/system/info", security.Secure(systemInfoController.GetSystemInfo)).Methods(http.MethodGet)

	r.HandleFunc("/live", healthController.HandleLiveRequest).Methods(http.MethodGet)
	r.HandleFunc("/ready", healthController.HandleReadyRequest).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	var corsOptions []handlers.CORSOption
	corsOptions = append(corsOptions, handlers.AllowedHeaders([]string{"Connection", "Accept-Encoding", "Content-Encoding", "X-Requested-With", "Content-Type", "Authorization", "api-key"}))
	if systemInfoService.GetOriginAllowed() != "" {
		corsOptions = append(corsOptions, handlers.AllowedOrigins([]string{systemInfoService.GetOriginAllowed()}))
	}
	corsOptions = append(corsOptions, handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}))

	srv := &http.Server{
		Handler:      handlers.CompressHandler(handlers.CORS(corsOptions...)(r)),
		Addr:         systemInfoService.GetListenAddress(),
		WriteTimeout: 300 * time.Second,
		ReadTimeout:  30 * time.Second,
	}

	utils.SafeAsync(func() {
		readyChan <- true
	})

	log.Infof("Flowhub backend is listening on %s", systemInfoService.GetListenAddress())
	log.Fatalf("Http server returned error: %v", srv.ListenAndServe())
}
