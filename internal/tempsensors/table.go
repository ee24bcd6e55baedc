// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package tempsensors

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"
)

var (
	// ErrNoSuchInstance is returned for a valid column queried without a
	// row bound by the current walk.
	ErrNoSuchInstance = errors.New("no such instance")
	// ErrNoSuchObject is returned for a column outside the table.
	ErrNoSuchObject = errors.New("no such object")
)

// Column identifies a table column. Column numbers match the
// lmTempSensorsEntry object numbers.
type Column uint32

const (
	ColumnIndex  Column = 1
	ColumnDevice Column = 2
	ColumnValue  Column = 3

	MinColumn = ColumnIndex
	MaxColumn = ColumnValue
)

func (c Column) String() string {
	switch c {
	case ColumnIndex:
		return "lmTempSensorsIndex"
	case ColumnDevice:
		return "lmTempSensorsDevice"
	case ColumnValue:
		return "lmTempSensorsValue"
	}
	return fmt.Sprintf("column(%d)", uint32(c))
}

// Valid reports whether c is one of the table's columns.
func (c Column) Valid() bool { return c >= MinColumn && c <= MaxColumn }

// ValueType is the wire type of a column value.
type ValueType int

const (
	TypeInteger ValueType = iota
	TypeOctetString
	TypeGauge32
)

// Value is a typed column value. Only the field matching Type is set.
type Value struct {
	Type        ValueType
	Integer     int32
	OctetString []byte
	Gauge32     uint32
}

// Binding is a reference to one row of the snapshot held by a Table. It is
// only valid during the walk that produced it; the zero Binding is unbound.
type Binding struct {
	generation uint64
	pos        int
}

// Bound reports whether b was produced by a successful First or Next.
func (b Binding) Bound() bool { return b.generation != 0 }

// Table serves the temperature table to a protocol driver.
//
// A walk starts with First, which discards the held snapshot and builds a
// fresh one, and continues with Next until it reports the end of the table.
// Column resolves values for a row bound by the current walk. A Table
// holds exactly one snapshot and is not safe for concurrent walks; callers
// must serialize them.
type Table struct {
	builder *Builder
	logger  logr.Logger

	snapshot   Snapshot
	generation uint64
}

// NewTable creates a Table fed by builder. It holds no snapshot until the
// first walk.
func NewTable(logger logr.Logger, builder *Builder) *Table {
	return &Table{
		builder: builder,
		logger:  logger.WithName("table"),
	}
}

// First starts a walk. The previous snapshot is discarded before the new one
// is built, so a walk never observes rows from two builds. It reports false
// when the new snapshot is empty.
func (t *Table) First(ctx context.Context) (Binding, bool) {
	t.Reset()
	snapshot := t.builder.Build(ctx)

	t.generation++
	t.snapshot = snapshot
	t.logger.V(1).Info("walk started", "generation", t.generation, "rows", snapshot.Len())

	return t.bind(0)
}

// Next advances past b. It reports false at the end of the table, and for
// bindings that do not belong to the current walk. It never modifies the
// snapshot.
func (t *Table) Next(b Binding) (Binding, bool) {
	if !t.current(b) {
		return Binding{}, false
	}
	return t.bind(b.pos + 1)
}

// Index returns the table key of the row bound by b.
func (t *Table) Index(b Binding) (int32, bool) {
	row, ok := t.row(b)
	if !ok {
		return 0, false
	}
	return row.Index, true
}

// Column resolves column col of the row bound by b.
//
// Columns outside the table fail with ErrNoSuchObject whether or not b is
// bound. Valid columns fail with ErrNoSuchInstance when b is not bound by
// the current walk.
func (t *Table) Column(b Binding, col Column) (Value, error) {
	if !col.Valid() {
		return Value{}, fmt.Errorf("%s: %w", col, ErrNoSuchObject)
	}

	row, ok := t.row(b)
	if !ok {
		return Value{}, fmt.Errorf("%s: %w", col, ErrNoSuchInstance)
	}

	switch col {
	case ColumnIndex:
		return Value{Type: TypeInteger, Integer: row.Index}, nil
	case ColumnDevice:
		return Value{Type: TypeOctetString, OctetString: row.Label.Bytes()}, nil
	default:
		return Value{Type: TypeGauge32, Gauge32: row.Value}, nil
	}
}

// Reset drops the held snapshot. Bindings from earlier walks become unbound.
func (t *Table) Reset() {
	t.snapshot = Snapshot{}
	t.generation++
}

func (t *Table) bind(pos int) (Binding, bool) {
	if pos >= t.snapshot.Len() {
		return Binding{}, false
	}
	return Binding{generation: t.generation, pos: pos}, true
}

func (t *Table) current(b Binding) bool {
	return b.Bound() && b.generation == t.generation
}

func (t *Table) row(b Binding) (Row, bool) {
	if !t.current(b) {
		return Row{}, false
	}
	return t.snapshot.Row(b.pos)
}
