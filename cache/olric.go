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

package cache

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/buraksezer/olric"
	discovery "github.com/buraksezer/olric-cloud-plugin/lib"
	"github.com/buraksezer/olric/config"
	log "github.com/sirupsen/logrus"
)

// OlricProvider owns the embedded olric node that carries token cache
// invalidations between replicas. Get blocks until the node finished
// bootstrapping.
type OlricProvider interface {
	Get() *olric.Olric
}

func NewOlricProvider() (OlricProvider, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, err
	}

	prov := &olricProviderImpl{}
	prov.startedWg.Add(1)
	cfg.Started = func() {
		prov.startedWg.Done()
	}

	prov.node, err = olric.New(cfg)
	if err != nil {
		return nil, err
	}
	go func() {
		if err := prov.node.Start(); err != nil {
			log.Panicf("Olric cache node cannot be started: %s", err.Error())
		}
	}()

	return prov, nil
}

type olricProviderImpl struct {
	startedWg sync.WaitGroup
	node      *olric.Olric
}

func (op *olricProviderImpl) Get() *olric.Olric {
	op.startedWg.Wait()
	return op.node
}

func buildConfig() (*config.Config, error) {
	mode := os.Getenv("OLRIC_DISCOVERY_MODE")
	switch mode {
	case "lan":
		return cloudConfig()
	case "local", "":
		return localConfig()
	default:
		log.Warnf("Unknown olric discovery mode %s, falling back to local mode", mode)
		return localConfig()
	}
}

// cloudConfig joins every flowhub backend pod in the namespace into one
// cluster, member discovery goes through the k8s api.
func cloudConfig() (*config.Config, error) {
	namespace, exists := os.LookupEnv("NAMESPACE")
	if !exists {
		return nil, fmt.Errorf("NAMESPACE env is not set")
	}
	log.Info("Olric runs in cloud mode")

	cfg := config.New("lan")
	cfg.LogLevel = "WARN"
	cfg.LogVerbosity = 2
	cfg.ServiceDiscovery = map[string]interface{}{
		"plugin":   &discovery.CloudDiscovery{},
		"provider": "k8s",
		"args":     fmt.Sprintf("namespace=%s label_selector=\"name=flowhub-backend\"", namespace),
	}

	// TODO: read the replica count from the deployment via the kube api
	replicaCount := replicaCountFromEnv()
	log.Infof("Olric replica count is set to %d", replicaCount)

	cfg.PartitionCount = uint64(replicaCount * 4)
	cfg.ReplicaCount = replicaCount
	cfg.MemberCountQuorum = int32(replicaCount)
	cfg.BootstrapTimeout = 60 * time.Second
	cfg.MaxJoinAttempts = 60

	return cfg, nil
}

func localConfig() (*config.Config, error) {
	log.Info("Olric runs in local mode")

	cfg := config.New("local")
	cfg.LogLevel = "WARN"
	cfg.LogVerbosity = 2
	cfg.BindAddr = "localhost"
	cfg.PartitionCount = 5

	var err error
	if cfg.BindPort, err = freeLocalPort(); err != nil {
		return nil, err
	}
	if cfg.MemberlistConfig.BindPort, err = freeLocalPort(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// freeLocalPort asks the kernel for an unused port. The port is released
// before olric binds it again, a collision is possible but unlikely.
func freeLocalPort() (int, error) {
	ln, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port, nil
}

func replicaCountFromEnv() int {
	replicaCountStr, exists := os.LookupEnv("OLRIC_REPLICA_COUNT")
	if !exists {
		return 1
	}
	replicaCount, err := strconv.Atoi(replicaCountStr)
	if err != nil {
		log.Error("Invalid OLRIC_REPLICA_COUNT env value, expecting int. Replica count set to 1.")
		return 1
	}
	return replicaCount
}
