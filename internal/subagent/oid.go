// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package subagent

import (
	"github.com/posteo/go-agentx/value"

	"github.com/hwtemp/agent/internal/tempsensors"
)

// DefaultTableOID is lmTempSensorsTable in UCD-SNMP-MIB's lmSensors subtree.
const DefaultTableOID = "1.3.6.1.4.1.2021.13.16.2"

// entrySubID is the lmTempSensorsEntry sub-identifier below the table.
const entrySubID = 1

// compareOIDs orders OIDs lexicographically by sub-identifier. A prefix
// sorts before any OID it prefixes.
func compareOIDs(a, b value.OID) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

func hasPrefix(oid, prefix value.OID) bool {
	if len(oid) < len(prefix) {
		return false
	}
	for i := range prefix {
		if oid[i] != prefix[i] {
			return false
		}
	}
	return true
}

// instanceOID returns <entry>.<column>.<index>.
func instanceOID(entry value.OID, col tempsensors.Column, index int32) value.OID {
	oid := make(value.OID, 0, len(entry)+2)
	oid = append(oid, entry...)
	return append(oid, uint32(col), uint32(index))
}

// splitInstance splits an OID below entry into its column and row index.
// ok is false when the OID has no column. hasIndex is false when the OID
// does not carry exactly one index sub-identifier.
func splitInstance(entry, oid value.OID) (col tempsensors.Column, index uint32, hasIndex, ok bool) {
	if !hasPrefix(oid, entry) || len(oid) == len(entry) {
		return 0, 0, false, false
	}
	col = tempsensors.Column(oid[len(entry)])
	if len(oid) != len(entry)+2 {
		return col, 0, false, true
	}
	return col, oid[len(entry)+1], true, true
}
