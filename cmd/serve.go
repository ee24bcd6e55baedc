// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hwtemp/agent/internal/config"
	"github.com/hwtemp/agent/internal/metrics"
	"github.com/hwtemp/agent/internal/subagent"
	"github.com/hwtemp/agent/internal/tempsensors"
	"github.com/hwtemp/agent/pkg/config/environment"
	"github.com/hwtemp/agent/pkg/sensors"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Register the table with the master agent and serve requests",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger(devLogging, logLevel)
	if err != nil {
		return err
	}
	description := subagent.DefaultDescription
	if nodeName, err := environment.GetNodeName(); err != nil {
		logger.Error(err, "unable to determine node name")
	} else {
		logger = logger.WithValues("node", nodeName)
		description = sessionDescription(nodeName)
	}
	setupLog := logger.WithName("setup")

	cfg, err := config.LoadFromFlags()
	if err != nil {
		setupLog.Error(err, "invalid configuration")
		return err
	}
	tableOID, err := cfg.TableOID()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source, err := sensors.NewHwmonSource(logger, cfg.Host.SysPath)
	if err != nil {
		setupLog.Error(err, "unable to create sensor source")
		return err
	}

	reg := metrics.NewRegistry()
	recorder, err := metrics.NewRecorder(reg)
	if err != nil {
		setupLog.Error(err, "unable to create metrics recorder")
		return err
	}

	builder := tempsensors.NewBuilder(logger, source, recorder)
	table := tempsensors.NewTable(logger, builder)
	handler, err := subagent.NewTableHandler(logger, table, tableOID, recorder)
	if err != nil {
		setupLog.Error(err, "unable to create table handler")
		return err
	}

	agent, err := subagent.New(logger, subagent.Config{
		Network:           cfg.AgentX.Network,
		Address:           cfg.AgentX.Address,
		Timeout:           cfg.AgentX.Timeout,
		ReconnectInterval: cfg.AgentX.ReconnectInterval,
		Priority:          byte(cfg.AgentX.Priority),
		MaxConnectTime:    cfg.AgentX.MaxConnectTime,
		Description:       description,
	}, handler)
	if err != nil {
		setupLog.Error(err, "unable to create subagent")
		return err
	}

	if cfg.MetricsEnabled() {
		srv, err := metrics.NewServer(logger, cfg.Metrics.Addr, reg)
		if err != nil {
			setupLog.Error(err, "unable to create metrics server")
			return err
		}
		go func() {
			if err := srv.Start(ctx); err != nil {
				setupLog.Error(err, "metrics server stopped")
			}
		}()
	} else {
		setupLog.Info("metrics server disabled")
	}

	setupLog.Info("starting subagent",
		"network", cfg.AgentX.Network, "address", cfg.AgentX.Address, "oid", tableOID.String())
	if err := agent.Start(ctx); err != nil {
		setupLog.Error(err, "subagent failed")
		return err
	}
	return nil
}

// sessionDescription names the AgentX session after the node it serves, so
// the master agent's logs tell subagents on shared masters apart.
func sessionDescription(nodeName string) string {
	return subagent.DefaultDescription + "@" + nodeName
}
