// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package tempsensors

import (
	"context"
	"time"

	"github.com/go-logr/logr"

	"github.com/hwtemp/agent/pkg/sensors"
)

// Observer receives build statistics. Implementations must be cheap; they
// are called inline while a walk is in progress.
type Observer interface {
	ObserveBuild(rows int, duration time.Duration)
	SensorReadFailed(chip string)
	ChipSkipped(chip string, bus sensors.BusType)
}

type nopObserver struct{}

func (nopObserver) ObserveBuild(int, time.Duration)     {}
func (nopObserver) SensorReadFailed(string)             {}
func (nopObserver) ChipSkipped(string, sensors.BusType) {}

// Builder materializes snapshots from a sensor source.
//
// Only chips on the local ISA bus are considered. For each of their
// features, the readable primary temperature input becomes one row. A
// reading that cannot be fetched is skipped and does not affect other rows.
type Builder struct {
	source   sensors.Source
	logger   logr.Logger
	observer Observer
}

// NewBuilder creates a Builder over source. A nil observer is ignored.
func NewBuilder(logger logr.Logger, source sensors.Source, observer Observer) *Builder {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Builder{
		source:   source,
		logger:   logger.WithName("builder"),
		observer: observer,
	}
}

// Build enumerates the source once and returns the rows in discovery order
// with indexes 0..N-1. It never fails: if chips cannot be enumerated the
// snapshot is empty.
func (b *Builder) Build(ctx context.Context) Snapshot {
	start := time.Now()

	chips, err := b.source.Chips(ctx)
	if err != nil {
		b.logger.Error(err, "failed to enumerate sensor chips")
		b.observer.ObserveBuild(0, time.Since(start))
		return Snapshot{}
	}

	var rows []Row
	for _, chip := range chips {
		if chip.Bus.Type != sensors.BusISA {
			b.logger.V(2).Info("skipping chip", "chip", chip.Name, "bus", chip.Bus.Type)
			b.observer.ChipSkipped(chip.Name, chip.Bus.Type)
			continue
		}

		for _, feature := range b.source.Features(chip) {
			label := b.source.Label(chip, feature)
			b.logger.V(2).Info("scanning feature", "chip", chip.Name, "feature", feature.Name, "label", label)

			for _, sub := range b.source.Subfeatures(chip, feature) {
				if !sub.Flags.Readable() || sub.Type != sensors.SubfeatureTempInput {
					continue
				}

				reading, err := b.source.Value(chip, sub)
				if err != nil {
					b.logger.V(1).Info("skipping unreadable sensor",
						"chip", chip.Name, "subfeature", sub.Name, "error", err.Error())
					b.observer.SensorReadFailed(chip.Name)
					continue
				}
				gauge, ok := GaugeFromCelsius(reading)
				if !ok {
					b.logger.V(1).Info("skipping sensor without a numeric reading",
						"chip", chip.Name, "subfeature", sub.Name)
					b.observer.SensorReadFailed(chip.Name)
					continue
				}

				rows = append(rows, Row{
					Index: int32(len(rows)),
					Label: NewLabel(label),
					Value: gauge,
				})
			}
		}
	}

	b.observer.ObserveBuild(len(rows), time.Since(start))
	b.logger.V(1).Info("built snapshot", "rows", len(rows), "duration", time.Since(start))
	return Snapshot{rows: rows}
}
