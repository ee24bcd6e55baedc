// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "agent.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	t.Setenv("AGENTX_ADDRESS", "")
	t.Setenv("HOST_SYS", "")

	cfg := Default()

	assert.Equal(t, "unix", cfg.AgentX.Network)
	assert.Equal(t, "/var/agentx/master", cfg.AgentX.Address)
	assert.Equal(t, time.Minute, cfg.AgentX.Timeout)
	assert.Equal(t, time.Second, cfg.AgentX.ReconnectInterval)
	assert.Equal(t, 127, cfg.AgentX.Priority)
	assert.Equal(t, "1.3.6.1.4.1.2021.13.16.2", cfg.Table.OID)
	assert.Equal(t, "/sys", cfg.Host.SysPath)
	assert.Equal(t, ":9112", cfg.Metrics.Addr)
	assert.True(t, cfg.MetricsEnabled())
	require.NoError(t, cfg.Validate())
}

func TestDefault_EnvironmentOverrides(t *testing.T) {
	t.Setenv("AGENTX_ADDRESS", "tcp:localhost:705")
	t.Setenv("HOST_SYS", "/host/sys")

	cfg := Default()

	assert.Equal(t, "tcp", cfg.AgentX.Network)
	assert.Equal(t, "localhost:705", cfg.AgentX.Address)
	assert.Equal(t, "/host/sys", cfg.Host.SysPath)
}

func TestLoad(t *testing.T) {
	t.Setenv("AGENTX_ADDRESS", "")
	path := writeConfig(t, `
agentx:
  network: tcp
  address: 127.0.0.1:705
  timeout: 15s
  reconnect_interval: 5s
  max_connect_time: 2m
  priority: 100
table:
  oid: 1.3.6.1.4.1.2021.13.16.2
host:
  sys_path: /host/sys
metrics:
  addr: "0"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tcp", cfg.AgentX.Network)
	assert.Equal(t, "127.0.0.1:705", cfg.AgentX.Address)
	assert.Equal(t, 15*time.Second, cfg.AgentX.Timeout)
	assert.Equal(t, 5*time.Second, cfg.AgentX.ReconnectInterval)
	assert.Equal(t, 2*time.Minute, cfg.AgentX.MaxConnectTime)
	assert.Equal(t, 100, cfg.AgentX.Priority)
	assert.Equal(t, "/host/sys", cfg.Host.SysPath)
	assert.False(t, cfg.MetricsEnabled())

	oid, err := cfg.TableOID()
	require.NoError(t, err)
	assert.Equal(t, "1.3.6.1.4.1.2021.13.16.2", oid.String())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		expectedErr string
	}{
		{
			name:        "malformed yaml",
			content:     "agentx: [",
			expectedErr: "failed to parse config file",
		},
		{
			name:        "unknown network",
			content:     "agentx: {network: udp, address: localhost:705}",
			expectedErr: "agentx.network must be one of",
		},
		{
			name:        "priority out of range",
			content:     "agentx: {priority: 300}",
			expectedErr: "agentx.priority must be between 1 and 255",
		},
		{
			name:        "negative timeout",
			content:     "agentx: {timeout: -1s}",
			expectedErr: "agentx durations must not be negative",
		},
		{
			name:        "invalid oid",
			content:     "table: {oid: not.an.oid}",
			expectedErr: "table.oid is not a valid OID",
		},
		{
			name:        "unix network with host:port address",
			content:     "agentx: {network: unix, address: localhost:705}",
			expectedErr: "agentx.address must be an absolute socket path for network unix",
		},
		{
			name:        "tcp network with socket path",
			content:     "agentx: {network: tcp, address: /var/agentx/master}",
			expectedErr: "agentx.address must be host:port for network tcp",
		},
		{
			name:        "relative sys path",
			content:     "host: {sys_path: host/sys}",
			expectedErr: "host.sys_path must be an absolute path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("AGENTX_ADDRESS", "")
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedErr)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config file")
	})
}

func TestApplyOverrides(t *testing.T) {
	cfg := &Config{
		AgentX:  AgentXConfig{Network: "unix", Address: "/var/agentx/master"},
		Host:    HostConfig{SysPath: "/sys"},
		Metrics: MetricsConfig{Addr: ":9112"},
	}

	applyOverrides(cfg, overrides{address: "/run/agentx.sock", metricsAddr: "0"})

	assert.Equal(t, "unix", cfg.AgentX.Network)
	assert.Equal(t, "/run/agentx.sock", cfg.AgentX.Address)
	assert.Equal(t, "/sys", cfg.Host.SysPath)
	assert.Equal(t, "0", cfg.Metrics.Addr)
}

func TestLoad_InfersNetworkFromAddress(t *testing.T) {
	t.Setenv("AGENTX_ADDRESS", "")

	cfg, err := Load(writeConfig(t, "agentx: {address: localhost:705}"))
	require.NoError(t, err)
	assert.Equal(t, "tcp", cfg.AgentX.Network)

	cfg, err = Load(writeConfig(t, "agentx: {address: /run/agentx.sock}"))
	require.NoError(t, err)
	assert.Equal(t, "unix", cfg.AgentX.Network)
}

func setFlags(t *testing.T, file, network, address string) {
	t.Helper()
	prevFile, prevNetwork, prevAddress := configFile, agentxNetwork, agentxAddress
	prevSysPath, prevMetrics := hostSysPath, metricsBindAddr
	t.Cleanup(func() {
		configFile, agentxNetwork, agentxAddress = prevFile, prevNetwork, prevAddress
		hostSysPath, metricsBindAddr = prevSysPath, prevMetrics
	})
	configFile, agentxNetwork, agentxAddress = file, network, address
	hostSysPath, metricsBindAddr = "", ""
}

func TestLoadFromFlags(t *testing.T) {
	tests := []struct {
		name            string
		env             string
		file            string
		network         string
		address         string
		expectedNetwork string
		expectedAddress string
		expectedErr     string
	}{
		{
			name:            "defaults",
			expectedNetwork: "unix",
			expectedAddress: "/var/agentx/master",
		},
		{
			name:            "environment only",
			env:             "tcp:localhost:705",
			expectedNetwork: "tcp",
			expectedAddress: "localhost:705",
		},
		{
			name:            "tcp address flag without network",
			env:             "tcp:localhost:705",
			address:         "localhost:705",
			expectedNetwork: "tcp",
			expectedAddress: "localhost:705",
		},
		{
			name:            "socket address flag without network",
			env:             "tcp:localhost:705",
			address:         "/run/agentx.sock",
			expectedNetwork: "unix",
			expectedAddress: "/run/agentx.sock",
		},
		{
			name:            "explicit tcp6",
			network:         "tcp6",
			address:         "[::1]:705",
			expectedNetwork: "tcp6",
			expectedAddress: "[::1]:705",
		},
		{
			name:            "address flag overrides file address",
			file:            "agentx: {address: /var/agentx/master}",
			address:         "127.0.0.1:705",
			expectedNetwork: "tcp",
			expectedAddress: "127.0.0.1:705",
		},
		{
			name:        "file network conflicts with address flag",
			file:        "agentx: {network: unix}",
			address:     "localhost:705",
			expectedErr: "agentx.address must be an absolute socket path for network unix",
		},
		{
			name:        "network flag conflicts with default address",
			network:     "tcp",
			expectedErr: "agentx.address must be host:port for network tcp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("AGENTX_ADDRESS", tt.env)
			t.Setenv("HOST_SYS", "")
			var file string
			if tt.file != "" {
				file = writeConfig(t, tt.file)
			}
			setFlags(t, file, tt.network, tt.address)

			cfg, err := LoadFromFlags()
			if tt.expectedErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedNetwork, cfg.AgentX.Network)
			assert.Equal(t, tt.expectedAddress, cfg.AgentX.Address)
		})
	}
}
