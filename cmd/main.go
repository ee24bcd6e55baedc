// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// CLI Options (alphabetical order)
	devLogging bool
	logLevel   int
)

var rootCmd = &cobra.Command{
	Use:   "sensors-agent",
	Short: "AgentX subagent serving lmTempSensorsTable",
	Long: `sensors-agent reads the host's temperature sensors and serves them to an
SNMP master agent as lmTempSensorsTable (1.3.6.1.4.1.2021.13.16.2).

Examples:
  sensors-agent serve --agentx-address /var/agentx/master
  sensors-agent walk
  sensors-agent walk --fixture testdata/sensors.yaml`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&devLogging, "dev-logging", false,
		"Use human readable development logging instead of JSON")
	rootCmd.PersistentFlags().IntVar(&logLevel, "log-level", 0,
		"Log verbosity. Higher values log more detail, e.g. 1 logs every AgentX request")
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	rootCmd.AddCommand(serveCmd, walkCmd)
}

// newLogger builds the process logger. logr verbosity n maps to zap level -n.
func newLogger(dev bool, level int) (logr.Logger, error) {
	zapConfig := zap.NewProductionConfig()
	if dev {
		zapConfig = zap.NewDevelopmentConfig()
	}
	if level < 0 {
		return logr.Discard(), fmt.Errorf("log level must not be negative, got: %d", level)
	}
	zapConfig.Level = zap.NewAtomicLevelAt(zapcore.Level(-level))

	zapLog, err := zapConfig.Build()
	if err != nil {
		return logr.Discard(), fmt.Errorf("failed to build logger: %w", err)
	}
	return zapr.NewLogger(zapLog), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
