// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hwtemp/agent/pkg/sensors"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRecorder(reg)
	require.NoError(t, err)

	r.ObserveBuild(3, 2*time.Millisecond)
	r.ObserveBuild(2, time.Millisecond)
	assert.Equal(t, 2.0, testutil.ToFloat64(r.walks))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.rows))
	assert.Equal(t, 1, testutil.CollectAndCount(r.buildDuration))

	r.SensorReadFailed("coretemp-isa-0000")
	r.SensorReadFailed("coretemp-isa-0000")
	assert.Equal(t, 2.0, testutil.ToFloat64(r.readFailures.WithLabelValues("coretemp-isa-0000")))

	r.ChipSkipped("lm75-i2c-0-48", sensors.BusI2C)
	assert.Equal(t, 1.0, testutil.ToFloat64(r.chipsSkipped.WithLabelValues("i2c")))

	r.ObserveRequest("get", "ok")
	r.ObserveRequest("getnext", "end_of_view")
	assert.Equal(t, 1.0, testutil.ToFloat64(r.requests.WithLabelValues("get", "ok")))
	assert.Equal(t, 2, testutil.CollectAndCount(r.requests))
}

func TestNewRecorder_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewRecorder(reg)
	require.NoError(t, err)

	_, err = NewRecorder(reg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to register collector")
}
