// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package sensors

import (
	"fmt"
	"strings"
)

// BusType identifies the bus a sensor chip is attached to.
type BusType int

const (
	BusAny BusType = iota
	// BusISA covers platform and isa devices, i.e. sensors wired to the host's
	// local instrumentation bus (coretemp, k10temp, nct6775, ...).
	BusISA
	BusPCI
	BusSPI
	BusI2C
	BusVirtual
	BusACPI
	BusHID
	BusMDIO
	BusSCSI
)

var busTypeNames = map[BusType]string{
	BusAny:     "any",
	BusISA:     "isa",
	BusPCI:     "pci",
	BusSPI:     "spi",
	BusI2C:     "i2c",
	BusVirtual: "virtual",
	BusACPI:    "acpi",
	BusHID:     "hid",
	BusMDIO:    "mdio",
	BusSCSI:    "scsi",
}

func (b BusType) String() string {
	if name, ok := busTypeNames[b]; ok {
		return name
	}
	return fmt.Sprintf("bus(%d)", int(b))
}

// ParseBusType converts a bus name such as "isa" or "i2c" into a BusType.
func ParseBusType(s string) (BusType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for b, name := range busTypeNames {
		if name == s {
			return b, nil
		}
	}
	return BusAny, fmt.Errorf("unknown bus type %q", s)
}

// Bus is the bus a chip sits on together with the bus number (adapter).
type Bus struct {
	Type BusType
	Nr   int
}

// FeatureType is the kind of measurement a feature exposes.
type FeatureType int

// Ordered the way features are reported for a chip.
const (
	FeatureIn FeatureType = iota
	FeatureFan
	FeatureTemp
	FeaturePower
	FeatureEnergy
	FeatureCurr
	FeatureHumidity
	FeatureIntrusion
	FeatureUnknown
)

var featurePrefixes = map[string]FeatureType{
	"in":        FeatureIn,
	"fan":       FeatureFan,
	"temp":      FeatureTemp,
	"power":     FeaturePower,
	"energy":    FeatureEnergy,
	"curr":      FeatureCurr,
	"humidity":  FeatureHumidity,
	"intrusion": FeatureIntrusion,
}

func (f FeatureType) String() string {
	for prefix, t := range featurePrefixes {
		if t == f {
			return prefix
		}
	}
	return "unknown"
}

// SubfeatureType tags an individual sysfs attribute of a feature.
type SubfeatureType int

const (
	SubfeatureUnknown SubfeatureType = iota
	SubfeatureInInput
	SubfeatureInMin
	SubfeatureInMax
	SubfeatureFanInput
	SubfeatureFanMin
	SubfeatureFanMax
	// SubfeatureTempInput is the primary temperature reading of a temp feature.
	SubfeatureTempInput
	SubfeatureTempMax
	SubfeatureTempMaxHyst
	SubfeatureTempMin
	SubfeatureTempCrit
	SubfeatureTempCritHyst
	SubfeatureTempLowCrit
	SubfeatureTempEmergency
	SubfeatureTempLowest
	SubfeatureTempHighest
	SubfeatureTempAlarm
	SubfeatureTempFault
	SubfeatureTempType
	SubfeatureTempOffset
	SubfeaturePowerInput
	SubfeaturePowerAverage
	SubfeatureEnergyInput
	SubfeatureCurrInput
	SubfeatureHumidityInput
	SubfeatureIntrusionAlarm
)

// subfeatureNames maps "<feature prefix>_<attribute suffix>" to its type.
var subfeatureNames = map[string]SubfeatureType{
	"in_input":        SubfeatureInInput,
	"in_min":          SubfeatureInMin,
	"in_max":          SubfeatureInMax,
	"fan_input":       SubfeatureFanInput,
	"fan_min":         SubfeatureFanMin,
	"fan_max":         SubfeatureFanMax,
	"temp_input":      SubfeatureTempInput,
	"temp_max":        SubfeatureTempMax,
	"temp_max_hyst":   SubfeatureTempMaxHyst,
	"temp_min":        SubfeatureTempMin,
	"temp_crit":       SubfeatureTempCrit,
	"temp_crit_hyst":  SubfeatureTempCritHyst,
	"temp_lcrit":      SubfeatureTempLowCrit,
	"temp_emergency":  SubfeatureTempEmergency,
	"temp_lowest":     SubfeatureTempLowest,
	"temp_highest":    SubfeatureTempHighest,
	"temp_alarm":      SubfeatureTempAlarm,
	"temp_fault":      SubfeatureTempFault,
	"temp_type":       SubfeatureTempType,
	"temp_offset":     SubfeatureTempOffset,
	"power_input":     SubfeaturePowerInput,
	"power_average":   SubfeaturePowerAverage,
	"energy_input":    SubfeatureEnergyInput,
	"curr_input":      SubfeatureCurrInput,
	"humidity_input":  SubfeatureHumidityInput,
	"intrusion_alarm": SubfeatureIntrusionAlarm,
}

func (s SubfeatureType) String() string {
	for name, t := range subfeatureNames {
		if t == s {
			return name
		}
	}
	return "unknown"
}

// ParseSubfeatureType converts a name such as "temp_input" into a SubfeatureType.
func ParseSubfeatureType(s string) (SubfeatureType, error) {
	if t, ok := subfeatureNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return t, nil
	}
	return SubfeatureUnknown, fmt.Errorf("unknown subfeature type %q", s)
}

// Mode holds the access flags of a subfeature.
type Mode uint8

const (
	ModeR Mode = 1 << iota
	ModeW
)

// Readable reports whether the value can be fetched.
func (m Mode) Readable() bool { return m&ModeR != 0 }

// Chip is one sensor-bearing device.
type Chip struct {
	// Name is the unique chip name, e.g. "coretemp-isa-0000".
	Name string
	// Prefix is the driver name as reported by the kernel, e.g. "coretemp".
	Prefix string
	Bus    Bus
	Addr   int
	// Path is the directory holding the chip's attributes.
	Path string
}

// Feature is one measured quantity of a chip, e.g. "temp1".
type Feature struct {
	Name   string
	Number int
	Type   FeatureType
}

// Subfeature is one raw attribute of a feature, e.g. "temp1_input".
type Subfeature struct {
	Name   string
	Number int
	Type   SubfeatureType
	Flags  Mode
}
