// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package main

import (
	"fmt"
	"io"

	"github.com/go-logr/logr"
	"github.com/posteo/go-agentx/pdu"
	"github.com/posteo/go-agentx/value"
	"github.com/spf13/cobra"

	"github.com/hwtemp/agent/internal/config"
	"github.com/hwtemp/agent/internal/subagent"
	"github.com/hwtemp/agent/internal/tempsensors"
	"github.com/hwtemp/agent/pkg/sensors"
)

var fixturePath string

var walkCmd = &cobra.Command{
	Use:   "walk",
	Short: "Print the table the way an SNMP walk would see it",
	Long: `Walk reads the sensors once and prints every instance of the table in
GETNEXT order, without connecting to a master agent.

Examples:
  sensors-agent walk
  sensors-agent walk --host-sys-path /host/sys
  sensors-agent walk --fixture testdata/sensors.yaml`,
	Args: cobra.NoArgs,
	RunE: runWalk,
}

func init() {
	walkCmd.Flags().StringVar(&fixturePath, "fixture", "",
		"Read sensors from a YAML fixture instead of sysfs")
}

func runWalk(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger(devLogging, logLevel)
	if err != nil {
		return err
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		return err
	}
	tableOID, err := cfg.TableOID()
	if err != nil {
		return err
	}

	var source sensors.Source
	if fixturePath != "" {
		source, err = sensors.LoadFixture(fixturePath)
	} else {
		source, err = sensors.NewHwmonSource(logger, cfg.Host.SysPath)
	}
	if err != nil {
		return err
	}

	return walk(cmd.OutOrStdout(), logger, source, tableOID)
}

// walk drives a TableHandler with GETNEXT requests from the table root
// until the end of the table and writes each variable in snmpwalk form.
func walk(w io.Writer, logger logr.Logger, source sensors.Source, tableOID value.OID) error {
	builder := tempsensors.NewBuilder(logger, source, nil)
	table := tempsensors.NewTable(logger, builder)
	handler, err := subagent.NewTableHandler(logger, table, tableOID, nil)
	if err != nil {
		return err
	}
	defer handler.Reset()

	next := tableOID
	for {
		oid, t, v, err := handler.GetNext(next, false, nil)
		if err != nil {
			return fmt.Errorf("walk failed at %s: %w", next, err)
		}
		if oid == nil {
			return nil
		}
		if _, err := fmt.Fprintf(w, "%s = %s\n", oid, formatVariable(t, v)); err != nil {
			return err
		}
		next = oid
	}
}

func formatVariable(t pdu.VariableType, v interface{}) string {
	switch t {
	case pdu.VariableTypeInteger:
		return fmt.Sprintf("INTEGER: %d", v)
	case pdu.VariableTypeOctetString:
		return fmt.Sprintf("STRING: %q", v)
	case pdu.VariableTypeGauge32:
		return fmt.Sprintf("Gauge32: %d", v)
	case pdu.VariableTypeNoSuchInstance:
		return "No Such Instance currently exists at this OID"
	case pdu.VariableTypeNoSuchObject:
		return "No Such Object available on this agent at this OID"
	}
	return fmt.Sprintf("%v", v)
}
