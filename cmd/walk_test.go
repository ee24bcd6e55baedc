// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/go-logr/logr/testr"
	"github.com/posteo/go-agentx/pdu"
	"github.com/posteo/go-agentx/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hwtemp/agent/internal/subagent"
	"github.com/hwtemp/agent/pkg/sensors"
)

func TestWalk_Fixture(t *testing.T) {
	source, err := sensors.LoadFixture("testdata/sensors.yaml")
	require.NoError(t, err)

	var out bytes.Buffer
	err = walk(&out, testr.New(t), source, value.MustParseOID(subagent.DefaultTableOID))
	require.NoError(t, err)

	expected := []string{
		`1.3.6.1.4.1.2021.13.16.2.1.1.0 = INTEGER: 0`,
		`1.3.6.1.4.1.2021.13.16.2.1.1.1 = INTEGER: 1`,
		`1.3.6.1.4.1.2021.13.16.2.1.1.2 = INTEGER: 2`,
		`1.3.6.1.4.1.2021.13.16.2.1.2.0 = STRING: "Package id 0"`,
		`1.3.6.1.4.1.2021.13.16.2.1.2.1 = STRING: "Core 0"`,
		`1.3.6.1.4.1.2021.13.16.2.1.2.2 = STRING: "AUXTIN with a label longer than "`,
		`1.3.6.1.4.1.2021.13.16.2.1.3.0 = Gauge32: 45`,
		`1.3.6.1.4.1.2021.13.16.2.1.3.1 = Gauge32: 41`,
		`1.3.6.1.4.1.2021.13.16.2.1.3.2 = Gauge32: 0`,
	}
	assert.Equal(t, expected, strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n"))
}

func TestWalk_EmptySource(t *testing.T) {
	var out bytes.Buffer
	err := walk(&out, testr.New(t), sensors.NewStaticSource(), value.MustParseOID(subagent.DefaultTableOID))
	require.NoError(t, err)
	assert.Empty(t, out.String())
}

func TestFormatVariable(t *testing.T) {
	tests := []struct {
		varType  pdu.VariableType
		value    interface{}
		expected string
	}{
		{pdu.VariableTypeInteger, int32(3), "INTEGER: 3"},
		{pdu.VariableTypeOctetString, "Core 0", `STRING: "Core 0"`},
		{pdu.VariableTypeGauge32, uint32(45), "Gauge32: 45"},
		{pdu.VariableTypeNoSuchInstance, nil, "No Such Instance currently exists at this OID"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatVariable(tt.varType, tt.value))
		})
	}
}

func TestNewLogger(t *testing.T) {
	_, err := newLogger(false, 2)
	require.NoError(t, err)

	_, err = newLogger(true, 0)
	require.NoError(t, err)

	_, err = newLogger(false, -1)
	assert.ErrorContains(t, err, "must not be negative")
}

func TestSessionDescription(t *testing.T) {
	assert.Equal(t, "lmTempSensorsTable@rack1-node3", sessionDescription("rack1-node3"))
}
