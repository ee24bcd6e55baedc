// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/posteo/go-agentx/value"
	"gopkg.in/yaml.v3"

	"github.com/hwtemp/agent/pkg/config/environment"
)

// Config is the agent configuration file.
type Config struct {
	AgentX  AgentXConfig  `yaml:"agentx"`
	Table   TableConfig   `yaml:"table"`
	Host    HostConfig    `yaml:"host"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type AgentXConfig struct {
	// Network is "unix" or "tcp".
	Network           string        `yaml:"network"`
	Address           string        `yaml:"address"`
	Timeout           time.Duration `yaml:"timeout"`
	ReconnectInterval time.Duration `yaml:"reconnect_interval"`
	MaxConnectTime    time.Duration `yaml:"max_connect_time"`
	Priority          int           `yaml:"priority"`
}

type TableConfig struct {
	OID string `yaml:"oid"`
}

type HostConfig struct {
	SysPath string `yaml:"sys_path"`
}

type MetricsConfig struct {
	// Addr is the bind address of the Prometheus endpoint. "0" disables it.
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the YAML file at path, fills in defaults and validates the
// result. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg, err := readFile(path)
	if err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readFile(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.AgentX.Network == "" && c.AgentX.Address == "" {
		c.AgentX.Network, c.AgentX.Address = environment.GetMasterAgentAddress()
	}
	if c.AgentX.Address == "" {
		c.AgentX.Address = "/var/agentx/master"
	}
	if c.AgentX.Network == "" {
		c.AgentX.Network = networkFor(c.AgentX.Address)
	}
	if c.AgentX.Timeout == 0 {
		c.AgentX.Timeout = time.Minute
	}
	if c.AgentX.ReconnectInterval == 0 {
		c.AgentX.ReconnectInterval = time.Second
	}
	if c.AgentX.Priority == 0 {
		c.AgentX.Priority = 127
	}
	if c.Table.OID == "" {
		c.Table.OID = "1.3.6.1.4.1.2021.13.16.2"
	}
	if c.Host.SysPath == "" {
		c.Host.SysPath = environment.GetHostSysPath()
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9112"
	}
}

// Validate checks the configuration for values the agent cannot run with.
func (c *Config) Validate() error {
	switch c.AgentX.Network {
	case "unix", "tcp", "tcp4", "tcp6":
	default:
		return fmt.Errorf("agentx.network must be one of unix, tcp, tcp4, tcp6, got: %q", c.AgentX.Network)
	}
	if c.AgentX.Address == "" {
		return fmt.Errorf("agentx.address is required but not provided")
	}
	if c.AgentX.Network == "unix" {
		if !filepath.IsAbs(c.AgentX.Address) {
			return fmt.Errorf("agentx.address must be an absolute socket path for network unix, got: %q", c.AgentX.Address)
		}
	} else if _, _, err := net.SplitHostPort(c.AgentX.Address); err != nil {
		return fmt.Errorf("agentx.address must be host:port for network %s, got: %q", c.AgentX.Network, c.AgentX.Address)
	}
	if c.AgentX.Timeout < 0 || c.AgentX.ReconnectInterval < 0 || c.AgentX.MaxConnectTime < 0 {
		return fmt.Errorf("agentx durations must not be negative")
	}
	if c.AgentX.Priority < 1 || c.AgentX.Priority > 255 {
		return fmt.Errorf("agentx.priority must be between 1 and 255, got: %d", c.AgentX.Priority)
	}
	if _, err := c.TableOID(); err != nil {
		return err
	}
	if !filepath.IsAbs(c.Host.SysPath) {
		return fmt.Errorf("host.sys_path must be an absolute path, got: %q", c.Host.SysPath)
	}
	return nil
}

// networkFor infers the network of an address given without one: socket
// paths are unix, everything else is tcp.
func networkFor(address string) string {
	if filepath.IsAbs(address) {
		return "unix"
	}
	return "tcp"
}

// TableOID returns the parsed table OID.
func (c *Config) TableOID() (value.OID, error) {
	oid, err := value.ParseOID(c.Table.OID)
	if err != nil {
		return nil, fmt.Errorf("table.oid is not a valid OID %q: %w", c.Table.OID, err)
	}
	if len(oid) == 0 {
		return nil, fmt.Errorf("table.oid must not be empty")
	}
	return oid, nil
}

// MetricsEnabled reports whether the Prometheus endpoint should be served.
func (c *Config) MetricsEnabled() bool {
	return c.Metrics.Addr != "0"
}
