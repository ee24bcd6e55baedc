// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package environment provides utilities for extracting configuration from environment variables
package environment

import (
	"os"
	"strings"
)

// GetNodeName returns the node name from NODE_NAME environment variable,
// falling back to hostname if not set.
func GetNodeName() (string, error) {
	nodeName := os.Getenv("NODE_NAME")
	if nodeName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return "", err
		}
		nodeName = hostname
	}
	return nodeName, nil
}

// GetHostSysPath returns the host's /sys from the HOST_SYS environment
// variable, e.g. /host/sys in containers. Defaults to /sys.
func GetHostSysPath() string {
	if sysPath := os.Getenv("HOST_SYS"); sysPath != "" {
		return sysPath
	}
	return "/sys"
}

// GetMasterAgentAddress returns the AgentX master address from the
// AGENTX_ADDRESS environment variable, e.g. "unix:/var/agentx/master" or
// "tcp:localhost:705". Returns empty strings if not set or malformed.
func GetMasterAgentAddress() (network, address string) {
	network, address, found := strings.Cut(os.Getenv("AGENTX_ADDRESS"), ":")
	if !found || network == "" || address == "" {
		return "", ""
	}
	return network, address
}
