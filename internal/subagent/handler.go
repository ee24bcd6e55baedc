// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package subagent serves the temperature table to an SNMP master agent over
// the AgentX protocol (RFC 2741).
package subagent

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-logr/logr"
	"github.com/posteo/go-agentx"
	"github.com/posteo/go-agentx/pdu"
	"github.com/posteo/go-agentx/value"

	"github.com/hwtemp/agent/internal/tempsensors"
)

// Compile-time interface check
var _ agentx.Handler = (*TableHandler)(nil)

// RequestObserver is notified of every handled request.
type RequestObserver interface {
	ObserveRequest(kind, result string)
}

type nopRequestObserver struct{}

func (nopRequestObserver) ObserveRequest(string, string) {}

const (
	resultOK             = "ok"
	resultNoSuchObject   = "no_such_object"
	resultNoSuchInstance = "no_such_instance"
	resultEndOfView      = "end_of_view"
)

// TableHandler answers Get and GetNext requests below a table OID.
//
// Every request is one complete walk of the table: the snapshot is rebuilt
// with First and the rows are visited with Next until the requested
// instance is found. Requests are serialized so only one walk uses the
// table at a time. The handler is read-only; the master agent rejects Set
// requests for regions registered by a handler without a set path.
type TableHandler struct {
	mu       sync.Mutex
	table    *tempsensors.Table
	tableOID value.OID
	entryOID value.OID
	logger   logr.Logger
	observer RequestObserver
}

// NewTableHandler creates a handler serving table at tableOID.
func NewTableHandler(logger logr.Logger, table *tempsensors.Table, tableOID value.OID, observer RequestObserver) (*TableHandler, error) {
	if table == nil {
		return nil, fmt.Errorf("table is required")
	}
	if len(tableOID) == 0 {
		return nil, fmt.Errorf("table OID is required")
	}
	if observer == nil {
		observer = nopRequestObserver{}
	}

	entry := make(value.OID, 0, len(tableOID)+1)
	entry = append(entry, tableOID...)
	entry = append(entry, entrySubID)

	return &TableHandler{
		table:    table,
		tableOID: tableOID,
		entryOID: entry,
		logger:   logger.WithName("handler"),
		observer: observer,
	}, nil
}

// TableOID returns the OID the handler is registered at.
func (h *TableHandler) TableOID() value.OID { return h.tableOID }

// Reset drops the snapshot held by the table.
func (h *TableHandler) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.table.Reset()
}

// Get resolves a single instance <table>.1.<column>.<index>.
func (h *TableHandler) Get(oid value.OID) (value.OID, pdu.VariableType, interface{}, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.logger.V(1).Info("processing request", "mode", "get", "oid", oid.String())

	col, index, hasIndex, ok := splitInstance(h.entryOID, oid)
	if !ok || !col.Valid() {
		h.observer.ObserveRequest("get", resultNoSuchObject)
		return oid, pdu.VariableTypeNoSuchObject, nil, nil
	}

	var bound tempsensors.Binding
	if hasIndex {
		for b, more := h.table.First(context.Background()); more; b, more = h.table.Next(b) {
			if rowIndex, _ := h.table.Index(b); uint32(rowIndex) == index {
				bound = b
				break
			}
		}
	}

	t, v, result := h.resolve(bound, col)
	h.observer.ObserveRequest("get", result)
	return oid, t, v, nil
}

// GetNext returns the first instance after from (or at from when
// includeFrom is set) and before to. A nil OID signals the end of the
// table's view.
func (h *TableHandler) GetNext(from value.OID, includeFrom bool, to value.OID) (value.OID, pdu.VariableType, interface{}, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.logger.V(1).Info("processing request", "mode", "getnext", "from", from.String(), "include", includeFrom)

	var bindings []tempsensors.Binding
	for b, more := h.table.First(context.Background()); more; b, more = h.table.Next(b) {
		bindings = append(bindings, b)
	}

	for col := tempsensors.MinColumn; col <= tempsensors.MaxColumn; col++ {
		for _, b := range bindings {
			index, _ := h.table.Index(b)
			candidate := instanceOID(h.entryOID, col, index)

			cmp := compareOIDs(candidate, from)
			if cmp < 0 || (cmp == 0 && !includeFrom) {
				continue
			}
			if len(to) > 0 && compareOIDs(candidate, to) >= 0 {
				h.observer.ObserveRequest("getnext", resultEndOfView)
				return nil, pdu.VariableTypeEndOfMIBView, nil, nil
			}

			t, v, result := h.resolve(b, col)
			h.observer.ObserveRequest("getnext", result)
			return candidate, t, v, nil
		}
	}

	h.observer.ObserveRequest("getnext", resultEndOfView)
	return nil, pdu.VariableTypeEndOfMIBView, nil, nil
}

// resolve maps a column query onto an AgentX variable.
func (h *TableHandler) resolve(b tempsensors.Binding, col tempsensors.Column) (pdu.VariableType, interface{}, string) {
	val, err := h.table.Column(b, col)
	switch {
	case errors.Is(err, tempsensors.ErrNoSuchInstance):
		return pdu.VariableTypeNoSuchInstance, nil, resultNoSuchInstance
	case err != nil:
		return pdu.VariableTypeNoSuchObject, nil, resultNoSuchObject
	}

	switch val.Type {
	case tempsensors.TypeInteger:
		return pdu.VariableTypeInteger, val.Integer, resultOK
	case tempsensors.TypeOctetString:
		return pdu.VariableTypeOctetString, string(val.OctetString), resultOK
	default:
		return pdu.VariableTypeGauge32, val.Gauge32, resultOK
	}
}
