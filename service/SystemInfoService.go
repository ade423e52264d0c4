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
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/view"
)

const (
	JWT_PRIVATE_KEY             = "JWT_PRIVATE_KEY"
	ARTIFACT_DESCRIPTOR_VERSION = "ARTIFACT_DESCRIPTOR_VERSION"
	BASE_PATH                   = "BASE_PATH"
	PRODUCTION_MODE             = "PRODUCTION_MODE"
	LOG_LEVEL                   = "LOG_LEVEL"
	LISTEN_ADDRESS              = "LISTEN_ADDRESS"
	ORIGIN_ALLOWED              = "ORIGIN_ALLOWED"
	FLOWHUB_POSTGRESQL_HOST     = "FLOWHUB_POSTGRESQL_HOST"
	FLOWHUB_POSTGRESQL_PORT     = "FLOWHUB_POSTGRESQL_PORT"
	FLOWHUB_POSTGRESQL_DB_NAME  = "FLOWHUB_POSTGRESQL_DB_NAME"
	FLOWHUB_POSTGRESQL_USERNAME = "FLOWHUB_POSTGRESQL_USERNAME"
	FLOWHUB_POSTGRESQL_PASSWORD = "FLOWHUB_POSTGRESQL_PASSWORD"
	PG_SSL_MODE                 = "PG_SSL_MODE"
	FLOWHUB_URL                 = "FLOWHUB_URL"
	ALLOWED_HOSTS               = "ALLOWED_HOSTS"
	TOKEN_ENCRYPTION_KEY        = "TOKEN_ENCRYPTION_KEY"
	INTEGRATION_PROVIDERS       = "INTEGRATION_PROVIDERS"
	STATE_CLEANUP_SCHEDULE      = "STATE_CLEANUP_SCHEDULE"
	FLOWHUB_SYSTEM_API_KEY      = "FLOWHUB_ACCESS_TOKEN"
)

type SystemInfoService interface {
	Init() error
	GetSystemInfo() *view.SystemInfo
	GetBasePath() string
	GetJwtPrivateKey() []byte
	IsProductionMode() bool
	GetBackendVersion() string
	GetLogLevel() string
	GetListenAddress() string
	GetOriginAllowed() string
	GetPGHost() string
	GetPGPort() int
	GetPGDB() string
	GetPGUser() string
	GetPGPassword() string
	GetPGSSLMode() string
	GetCredsFromEnv() *view.DbCredentials
	GetFlowhubUrl() string
	GetAllowedHosts() []string
	GetTokenEncryptionKey() string
	GetIntegrationProviders() string
	GetStateCleanupSchedule() string
	GetSystemApiKey() (string, error)
}

func NewSystemInfoService() (SystemInfoService, error) {
	s := &systemInfoServiceImpl{
		systemInfoMap: make(map[string]interface{})}
	if err := s.Init(); err != nil {
		log.Error("Failed to read system info: " + err.Error())
		return nil, err
	}
	return s, nil
}

type systemInfoServiceImpl struct {
	systemInfoMap map[string]interface{}
}

func (g systemInfoServiceImpl) GetSystemInfo() *view.SystemInfo {
	return &view.SystemInfo{
		BackendVersion: g.GetBackendVersion(),
		ProductionMode: g.IsProductionMode(),
	}
}

func (g systemInfoServiceImpl) Init() error {
	err := g.setJwtPrivateKey()
	if err != nil {
		return err
	}
	g.setBasePath()
	if err = g.setProductionMode(); err != nil {
		return err
	}
	g.setBackendVersion()
	g.setLogLevel()
	g.setListenAddress()
	g.setOriginAllowed()
	g.setPGHost()
	if err = g.setPGPort(); err != nil {
		return err
	}
	g.setPGDB()
	g.setPGUser()
	g.setPGPassword()
	g.setPGSSLMode()
	g.setFlowhubUrl()
	g.setAllowedHosts()
	if err = g.setTokenEncryptionKey(); err != nil {
		return err
	}
	if err = g.setIntegrationProviders(); err != nil {
		return err
	}
	g.setStateCleanupSchedule()

	return nil
}

func (g systemInfoServiceImpl) setBasePath() {
	g.systemInfoMap[BASE_PATH] = os.Getenv(BASE_PATH)
	if g.systemInfoMap[BASE_PATH] == "" {
		g.systemInfoMap[BASE_PATH] = "."
	}
}

func (g systemInfoServiceImpl) setJwtPrivateKey() error {
	decodePrivateKey, err := base64.StdEncoding.DecodeString(os.Getenv(JWT_PRIVATE_KEY))
	if err != nil {
		return fmt.Errorf("can't decode env JWT_PRIVATE_KEY. Error - %s", err.Error())
	}
	if len(decodePrivateKey) == 0 {
		return fmt.Errorf("env JWT_PRIVATE_KEY is not set or empty")
	}
	g.systemInfoMap[JWT_PRIVATE_KEY] = decodePrivateKey
	return nil
}

func (g systemInfoServiceImpl) setProductionMode() error {
	envVal := os.Getenv(PRODUCTION_MODE)
	if envVal == "" {
		envVal = "false"
	}
	productionMode, err := strconv.ParseBool(envVal)
	if err != nil {
		return fmt.Errorf("failed to parse %v env value: %v", PRODUCTION_MODE, err.Error())
	}
	g.systemInfoMap[PRODUCTION_MODE] = productionMode
	return nil
}

func (g systemInfoServiceImpl) setBackendVersion() {
	version := os.Getenv(ARTIFACT_DESCRIPTOR_VERSION)
	if version == "" {
		version = "unknown"
	}
	g.systemInfoMap[ARTIFACT_DESCRIPTOR_VERSION] = version
}

func (g systemInfoServiceImpl) GetBasePath() string {
	return g.systemInfoMap[BASE_PATH].(string)
}

func (g systemInfoServiceImpl) GetJwtPrivateKey() []byte {
	return g.systemInfoMap[JWT_PRIVATE_KEY].([]byte)
}

func (g systemInfoServiceImpl) IsProductionMode() bool {
	return g.systemInfoMap[PRODUCTION_MODE].(bool)
}

func (g systemInfoServiceImpl) GetBackendVersion() string {
	return g.systemInfoMap[ARTIFACT_DESCRIPTOR_VERSION].(string)
}

func (g systemInfoServiceImpl) setLogLevel() {
	g.systemInfoMap[LOG_LEVEL] = os.Getenv(LOG_LEVEL)
}

func (g systemInfoServiceImpl) GetLogLevel() string {
	return g.systemInfoMap[LOG_LEVEL].(string)
}

func (g systemInfoServiceImpl) setListenAddress() {
	listenAddr := os.Getenv(LISTEN_ADDRESS)
	if listenAddr == "" {
		listenAddr = ":8080"
	}
	g.systemInfoMap[LISTEN_ADDRESS] = listenAddr
}

func (g systemInfoServiceImpl) GetListenAddress() string {
	return g.systemInfoMap[LISTEN_ADDRESS].(string)
}

func (g systemInfoServiceImpl) setOriginAllowed() {
	g.systemInfoMap[ORIGIN_ALLOWED] = os.Getenv(ORIGIN_ALLOWED)
}

func (g systemInfoServiceImpl) GetOriginAllowed() string {
	return g.systemInfoMap[ORIGIN_ALLOWED].(string)
}

func (g systemInfoServiceImpl) setPGHost() {
	host := os.Getenv(FLOWHUB_POSTGRESQL_HOST)
	if host == "" {
		host = "localhost"
	}
	g.systemInfoMap[FLOWHUB_POSTGRESQL_HOST] = host
}

func (g systemInfoServiceImpl) GetPGHost() string {
	return g.systemInfoMap[FLOWHUB_POSTGRESQL_HOST].(string)
}

func (g systemInfoServiceImpl) setPGPort() error {
	portStr := os.Getenv(FLOWHUB_POSTGRESQL_PORT)
	var port int
	var err error
	if portStr == "" {
		port = 5432
	} else {
		port, err = strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("failed to parse %v env value: %v", FLOWHUB_POSTGRESQL_PORT, err.Error())
		}
	}
	g.systemInfoMap[FLOWHUB_POSTGRESQL_PORT] = port
	return nil
}

func (g systemInfoServiceImpl) GetPGPort() int {
	return g.systemInfoMap[FLOWHUB_POSTGRESQL_PORT].(int)
}

func (g systemInfoServiceImpl) setPGDB() {
	database := os.Getenv(FLOWHUB_POSTGRESQL_DB_NAME)
	if database == "" {
		database = "flowhub"
	}
	g.systemInfoMap[FLOWHUB_POSTGRESQL_DB_NAME] = database
}

func (g systemInfoServiceImpl) GetPGDB() string {
	return g.systemInfoMap[FLOWHUB_POSTGRESQL_DB_NAME].(string)
}

func (g systemInfoServiceImpl) setPGUser() {
	user := os.Getenv(FLOWHUB_POSTGRESQL_USERNAME)
	if user == "" {
		user = "flowhub"
	}
	g.systemInfoMap[FLOWHUB_POSTGRESQL_USERNAME] = user
}

func (g systemInfoServiceImpl) GetPGUser() string {
	return g.systemInfoMap[FLOWHUB_POSTGRESQL_USERNAME].(string)
}

func (g systemInfoServiceImpl) setPGPassword() {
	password := os.Getenv(FLOWHUB_POSTGRESQL_PASSWORD)
	if password == "" {
		password = "flowhub"
	}
	g.systemInfoMap[FLOWHUB_POSTGRESQL_PASSWORD] = password
}

func (g systemInfoServiceImpl) GetPGPassword() string {
	return g.systemInfoMap[FLOWHUB_POSTGRESQL_PASSWORD].(string)
}

func (g systemInfoServiceImpl) setPGSSLMode() {
	sslMode := os.Getenv(PG_SSL_MODE)
	if sslMode == "" {
		sslMode = "disable"
	}
	g.systemInfoMap[PG_SSL_MODE] = sslMode
}

func (g systemInfoServiceImpl) GetPGSSLMode() string {
	return g.systemInfoMap[PG_SSL_MODE].(string)
}

func (g systemInfoServiceImpl) GetCredsFromEnv() *view.DbCredentials {
	return &view.DbCredentials{
		Host:     g.GetPGHost(),
		Port:     g.GetPGPort(),
		Database: g.GetPGDB(),
		Username: g.GetPGUser(),
		Password: g.GetPGPassword(),
		SSLMode:  g.GetPGSSLMode(),
	}
}

func (g systemInfoServiceImpl) setFlowhubUrl() {
	g.systemInfoMap[FLOWHUB_URL] = os.Getenv(FLOWHUB_URL)
}

func (g systemInfoServiceImpl) GetFlowhubUrl() string {
	return g.systemInfoMap[FLOWHUB_URL].(string)
}

func (g systemInfoServiceImpl) setAllowedHosts() {
	hosts := make([]string, 0)
	hostsStr := os.Getenv(ALLOWED_HOSTS)
	if hostsStr != "" {
		hosts = strings.Split(hostsStr, ",")
	}
	g.systemInfoMap[ALLOWED_HOSTS] = hosts
}

func (g systemInfoServiceImpl) GetAllowedHosts() []string {
	return g.systemInfoMap[ALLOWED_HOSTS].([]string)
}

func (g systemInfoServiceImpl) setTokenEncryptionKey() error {
	key := os.Getenv(TOKEN_ENCRYPTION_KEY)
	if key == "" {
		return fmt.Errorf("env TOKEN_ENCRYPTION_KEY is not set or empty")
	}
	g.systemInfoMap[TOKEN_ENCRYPTION_KEY] = key
	return nil
}

func (g systemInfoServiceImpl) GetTokenEncryptionKey() string {
	return g.systemInfoMap[TOKEN_ENCRYPTION_KEY].(string)
}

func (g systemInfoServiceImpl) setIntegrationProviders() error {
	providers := os.Getenv(INTEGRATION_PROVIDERS)
	if providers == "" {
		return fmt.Errorf("env INTEGRATION_PROVIDERS is not set or empty")
	}
	g.systemInfoMap[INTEGRATION_PROVIDERS] = providers
	return nil
}

func (g systemInfoServiceImpl) GetIntegrationProviders() string {
	return g.systemInfoMap[INTEGRATION_PROVIDERS].(string)
}

func (g systemInfoServiceImpl) setStateCleanupSchedule() {
	schedule := os.Getenv(STATE_CLEANUP_SCHEDULE)
	if schedule == "" {
		schedule = "*/10 * * * *" // every 10 minutes
	}
	g.systemInfoMap[STATE_CLEANUP_SCHEDULE] = schedule
}

func (g systemInfoServiceImpl) GetStateCleanupSchedule() string {
	return g.systemInfoMap[STATE_CLEANUP_SCHEDULE].(string)
}

func (g systemInfoServiceImpl) GetSystemApiKey() (string, error) {
	apiKey := os.Getenv(FLOWHUB_SYSTEM_API_KEY)
	if apiKey == "" {
		return "", fmt.Errorf("system api key env '%s' is empty or not set", FLOWHUB_SYSTEM_API_KEY)
	}
	return apiKey, nil
}
