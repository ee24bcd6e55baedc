// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package sensors enumerates hardware monitoring chips and reads their values.
//
// The model follows the kernel hwmon layout: a chip exposes features
// (temp1, fan2, in0, ...) and every feature exposes subfeatures, one per
// sysfs attribute (temp1_input, temp1_max, ...).
package sensors

import (
	"context"
	"errors"
)

// ErrNotReadable is returned by Value for subfeatures without ModeR.
var ErrNotReadable = errors.New("subfeature is not readable")

// Source enumerates chips and fetches readings.
//
// Enumeration results are only valid until the next call to Chips.
type Source interface {
	// Chips returns all detected chips in discovery order.
	Chips(ctx context.Context) ([]Chip, error)
	// Features returns the features of chip in discovery order.
	Features(chip Chip) []Feature
	// Subfeatures returns the subfeatures of feature in discovery order.
	Subfeatures(chip Chip, feature Feature) []Subfeature
	// Value fetches the current value of subfeature, scaled to its natural
	// unit (degrees Celsius for temperatures).
	Value(chip Chip, subfeature Subfeature) (float64, error)
	// Label returns the human readable label of feature.
	Label(chip Chip, feature Feature) string
}
