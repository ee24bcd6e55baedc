// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package tempsensors

import "math"

// MaxLabelLength is the maximum length of a row label in bytes. Longer labels
// are truncated to exactly this many bytes.
const MaxLabelLength = 32

// Label is a sensor label of at most MaxLabelLength bytes.
type Label string

// NewLabel truncates s to MaxLabelLength bytes.
func NewLabel(s string) Label {
	if len(s) > MaxLabelLength {
		s = s[:MaxLabelLength]
	}
	return Label(s)
}

// Len returns the stored length of the label in bytes.
func (l Label) Len() int { return len(l) }

// Bytes returns the label as an octet string.
func (l Label) Bytes() []byte { return []byte(l) }

// Row is one temperature reading captured in a snapshot.
type Row struct {
	Index int32
	Label Label
	Value uint32
}

// GaugeFromCelsius converts a reading into an unsigned gauge value.
//
// The fractional part is dropped. Negative readings clamp to 0 and readings
// above the gauge range clamp to math.MaxUint32. NaN has no gauge value and
// reports false.
func GaugeFromCelsius(v float64) (uint32, bool) {
	switch {
	case math.IsNaN(v):
		return 0, false
	case v <= 0:
		return 0, true
	case v >= math.MaxUint32:
		return math.MaxUint32, true
	}
	return uint32(math.Trunc(v)), true
}

// Snapshot is the ordered, immutable set of rows produced by one build.
// Row indexes are dense: the row at position i has Index i.
type Snapshot struct {
	rows []Row
}

// Len returns the number of rows.
func (s Snapshot) Len() int { return len(s.rows) }

// Row returns the row at position i.
func (s Snapshot) Row(i int) (Row, bool) {
	if i < 0 || i >= len(s.rows) {
		return Row{}, false
	}
	return s.rows[i], true
}
