// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package tempsensors implements the lmTempSensorsTable: a read-only table of
// hardware temperature readings rebuilt from the sensor source at the start
// of every walk.
//
// Each row has three columns:
//
//	1 lmTempSensorsIndex   INTEGER    dense row key, 0..N-1
//	2 lmTempSensorsDevice  OCTET STR  sensor label, at most 32 bytes
//	3 lmTempSensorsValue   Gauge32    reading in whole degrees Celsius
package tempsensors
