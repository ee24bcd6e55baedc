// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package testutil provides utilities for testing, with a focus on integration test helpers.
package testutil

import (
	"net"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/hwtemp/agent/pkg/config/environment"
)

// RequireLinux skips the test if not running on Linux.
func RequireLinux(t *testing.T) {
	t.Helper()
	if runtime.GOOS != "linux" {
		t.Skip("Test requires Linux")
	}
}

// RequireHwmon skips the test unless the host exposes at least one hwmon
// device. It returns the host's sys path.
func RequireHwmon(t *testing.T) string {
	t.Helper()
	RequireLinux(t)

	sysPath := environment.GetHostSysPath()
	entries, err := os.ReadDir(filepath.Join(sysPath, "class", "hwmon"))
	if err != nil {
		t.Skipf("Test requires hwmon class in sysfs: %v", err)
	}
	if len(entries) == 0 {
		t.Skip("Test requires at least one hwmon device")
	}
	return sysPath
}

// RequireMasterAgent skips the test unless an AgentX master agent accepts
// connections at AGENTX_ADDRESS. It returns the network and address.
func RequireMasterAgent(t *testing.T) (network, address string) {
	t.Helper()

	network, address = environment.GetMasterAgentAddress()
	if network == "" {
		t.Skip("Test requires AGENTX_ADDRESS, e.g. unix:/var/agentx/master")
	}

	conn, err := net.DialTimeout(network, address, time.Second)
	if err != nil {
		t.Skipf("Test requires a master agent at %s:%s: %v", network, address, err)
	}
	_ = conn.Close()
	return network, address
}
