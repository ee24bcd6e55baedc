// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt
package config

import (
	"flag"
)

var (
	configFile      string
	agentxNetwork   string
	agentxAddress   string
	hostSysPath     string
	metricsBindAddr string
)

func init() {
	flag.StringVar(&configFile, "config-file", "",
		"Path to the YAML configuration file. Defaults are used when empty.")
	flag.StringVar(&agentxNetwork, "agentx-network", "",
		"Network of the AgentX master agent socket: 'unix' or 'tcp'. Inferred from --agentx-address when empty.")
	flag.StringVar(&agentxAddress, "agentx-address", "",
		"Address of the AgentX master agent socket, e.g. /var/agentx/master or localhost:705. Overrides the config file.")
	flag.StringVar(&hostSysPath, "host-sys-path", "",
		"Path to the host's /sys. Overrides the config file and HOST_SYS.")
	flag.StringVar(&metricsBindAddr, "metrics-bind-address", "",
		"The address the metric endpoint binds to. Set this to '0' to disable the metrics server")
}

// LoadFromFlags loads the file named by --config-file and applies the
// command line overrides before any defaults are filled in, so an address
// given on the command line alone also selects its network.
func LoadFromFlags() (*Config, error) {
	cfg, err := readFile(configFile)
	if err != nil {
		return nil, err
	}

	applyOverrides(&cfg, overrides{
		network:     agentxNetwork,
		address:     agentxAddress,
		sysPath:     hostSysPath,
		metricsAddr: metricsBindAddr,
	})
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type overrides struct {
	network     string
	address     string
	sysPath     string
	metricsAddr string
}

func applyOverrides(cfg *Config, o overrides) {
	if o.network != "" {
		cfg.AgentX.Network = o.network
	}
	if o.address != "" {
		cfg.AgentX.Address = o.address
	}
	if o.sysPath != "" {
		cfg.Host.SysPath = o.sysPath
	}
	if o.metricsAddr != "" {
		cfg.Metrics.Addr = o.metricsAddr
	}
}
