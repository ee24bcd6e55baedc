// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package metrics exposes agent self-monitoring metrics to Prometheus.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hwtemp/agent/internal/tempsensors"
	"github.com/hwtemp/agent/pkg/sensors"
)

const namespace = "hwtemp"

// Compile-time interface check
var _ tempsensors.Observer = (*Recorder)(nil)

// Recorder records snapshot builds and protocol requests.
type Recorder struct {
	walks         prometheus.Counter
	rows          prometheus.Gauge
	buildDuration prometheus.Histogram
	readFailures  *prometheus.CounterVec
	chipsSkipped  *prometheus.CounterVec
	requests      *prometheus.CounterVec
}

// NewRecorder creates a Recorder and registers its collectors with reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		walks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "walks_total",
			Help:      "Number of table walks, i.e. snapshot rebuilds.",
		}),
		rows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_rows",
			Help:      "Number of rows in the most recent snapshot.",
		}),
		buildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Time spent reading sensors to build a snapshot.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		readFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sensor_read_failures_total",
			Help:      "Sensor readings dropped because they could not be fetched.",
		}, []string{"chip"}),
		chipsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chips_skipped_total",
			Help:      "Chips ignored because they are not on the local ISA bus.",
		}, []string{"bus"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agentx_requests_total",
			Help:      "AgentX requests handled, by request type and outcome.",
		}, []string{"type", "result"}),
	}

	for _, c := range []prometheus.Collector{
		r.walks, r.rows, r.buildDuration, r.readFailures, r.chipsSkipped, r.requests,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}
	return r, nil
}

func (r *Recorder) ObserveBuild(rows int, duration time.Duration) {
	r.walks.Inc()
	r.rows.Set(float64(rows))
	r.buildDuration.Observe(duration.Seconds())
}

func (r *Recorder) SensorReadFailed(chip string) {
	r.readFailures.WithLabelValues(chip).Inc()
}

func (r *Recorder) ChipSkipped(_ string, bus sensors.BusType) {
	r.chipsSkipped.WithLabelValues(bus.String()).Inc()
}

// ObserveRequest counts one AgentX request of kind ("get", "getnext") with
// result ("ok", "no_such_object", "no_such_instance", "end_of_view").
func (r *Recorder) ObserveRequest(kind, result string) {
	r.requests.WithLabelValues(kind, result).Inc()
}
