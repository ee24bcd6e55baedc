// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package sensors

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-logr/logr"
)

// Compile-time interface check
var _ Source = (*HwmonSource)(nil)

var attrPattern = regexp.MustCompile(`^([a-z]+)(\d+)_([a-z_]+)$`)

// HwmonSource reads chips from /sys/class/hwmon.
//
// Each hwmonN directory is one chip. Attributes normally live directly in
// hwmonN; older drivers put them in hwmonN/device, which is checked when
// hwmonN has no name file.
//
// The bus is derived from the device/subsystem link:
//   - platform, of_platform, isa: BusISA
//   - i2c, spi, pci, acpi, hid, mdio_bus, scsi: the matching bus
//   - no device link: BusVirtual
//
// Reference: https://www.kernel.org/doc/html/latest/hwmon/sysfs-interface.html
type HwmonSource struct {
	logger    logr.Logger
	hwmonPath string

	mu    sync.RWMutex
	chips map[string]*chipAttrs
}

type chipAttrs struct {
	features    []Feature
	subfeatures map[string][]Subfeature
}

// NewHwmonSource creates a source rooted at <hostSysPath>/class/hwmon.
func NewHwmonSource(logger logr.Logger, hostSysPath string) (*HwmonSource, error) {
	if hostSysPath == "" {
		return nil, fmt.Errorf("HostSysPath is required but not provided")
	}
	if !filepath.IsAbs(hostSysPath) {
		return nil, fmt.Errorf("HostSysPath must be an absolute path, got: %q", hostSysPath)
	}
	return &HwmonSource{
		logger:    logger.WithName("hwmon"),
		hwmonPath: filepath.Join(hostSysPath, "class", "hwmon"),
		chips:     make(map[string]*chipAttrs),
	}, nil
}

func (s *HwmonSource) Chips(ctx context.Context) ([]Chip, error) {
	entries, err := os.ReadDir(s.hwmonPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.hwmonPath, err)
	}

	var dirs []string
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "hwmon") {
			dirs = append(dirs, entry.Name())
		}
	}
	sort.Slice(dirs, func(i, j int) bool {
		return hwmonNumber(dirs[i]) < hwmonNumber(dirs[j])
	})

	scanned := make(map[string]*chipAttrs, len(dirs))
	chips := make([]Chip, 0, len(dirs))
	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		chip, ok := s.readChip(filepath.Join(s.hwmonPath, dir))
		if !ok {
			continue
		}
		attrs, err := scanAttributes(chip.Path)
		if err != nil {
			s.logger.V(1).Info("skipping chip with unreadable attributes", "chip", chip.Name, "error", err)
			continue
		}
		scanned[chip.Path] = attrs
		chips = append(chips, chip)
	}

	s.mu.Lock()
	s.chips = scanned
	s.mu.Unlock()

	return chips, nil
}

func (s *HwmonSource) Features(chip Chip) []Feature {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if attrs, ok := s.chips[chip.Path]; ok {
		return attrs.features
	}
	return nil
}

func (s *HwmonSource) Subfeatures(chip Chip, feature Feature) []Subfeature {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if attrs, ok := s.chips[chip.Path]; ok {
		return attrs.subfeatures[feature.Name]
	}
	return nil
}

func (s *HwmonSource) Value(chip Chip, subfeature Subfeature) (float64, error) {
	if !subfeature.Flags.Readable() {
		return 0, ErrNotReadable
	}

	path := filepath.Join(chip.Path, subfeature.Name)
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", path, err)
	}

	raw, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return raw / scaleFor(subfeature.Type), nil
}

func (s *HwmonSource) Label(chip Chip, feature Feature) string {
	data, err := os.ReadFile(filepath.Join(chip.Path, feature.Name+"_label"))
	if err != nil {
		return feature.Name
	}
	label := strings.TrimSpace(string(data))
	if label == "" {
		return feature.Name
	}
	return label
}

// readChip resolves the attribute directory, driver name and bus of one
// hwmonN entry. Entries without a name are not chips.
func (s *HwmonSource) readChip(dir string) (Chip, bool) {
	attrDir := dir
	name, err := readTrimmed(filepath.Join(dir, "name"))
	if err != nil {
		attrDir = filepath.Join(dir, "device")
		name, err = readTrimmed(filepath.Join(attrDir, "name"))
		if err != nil {
			s.logger.V(2).Info("skipping hwmon entry without name", "path", dir)
			return Chip{}, false
		}
	}

	chip := Chip{
		Prefix: name,
		Path:   attrDir,
		Bus:    Bus{Type: BusVirtual},
	}

	devicePath, err := filepath.EvalSymlinks(filepath.Join(dir, "device"))
	if err == nil {
		subsystem, err := os.Readlink(filepath.Join(dir, "device", "subsystem"))
		if err != nil {
			s.logger.V(2).Info("device has no subsystem link", "path", devicePath)
			return Chip{}, false
		}
		bus, addr, ok := parseBus(filepath.Base(subsystem), filepath.Base(devicePath))
		if !ok {
			s.logger.V(2).Info("skipping device on unsupported subsystem",
				"path", devicePath, "subsystem", filepath.Base(subsystem))
			return Chip{}, false
		}
		chip.Bus = bus
		chip.Addr = addr
	}

	chip.Name = chipName(chip)
	return chip, true
}

// parseBus maps a subsystem name and device id onto a bus and address.
func parseBus(subsystem, deviceID string) (Bus, int, bool) {
	switch subsystem {
	case "platform", "of_platform", "isa":
		// coretemp.0, it87.656
		addr := 0
		if i := strings.LastIndex(deviceID, "."); i >= 0 {
			if n, err := strconv.Atoi(deviceID[i+1:]); err == nil {
				addr = n
			}
		}
		return Bus{Type: BusISA}, addr, true
	case "i2c":
		// 0-0048
		var nr, addr int
		if _, err := fmt.Sscanf(deviceID, "%d-%x", &nr, &addr); err != nil {
			return Bus{}, 0, false
		}
		return Bus{Type: BusI2C, Nr: nr}, addr, true
	case "pci":
		// 0000:00:18.3
		var domain, bus, slot, fn int
		if _, err := fmt.Sscanf(deviceID, "%x:%x:%x.%x", &domain, &bus, &slot, &fn); err != nil {
			return Bus{}, 0, false
		}
		return Bus{Type: BusPCI}, (domain << 16) + (bus << 8) + (slot << 3) + fn, true
	case "spi":
		// spi0.1
		var nr, addr int
		if _, err := fmt.Sscanf(deviceID, "spi%d.%d", &nr, &addr); err != nil {
			return Bus{}, 0, false
		}
		return Bus{Type: BusSPI, Nr: nr}, addr, true
	case "acpi":
		return Bus{Type: BusACPI}, 0, true
	case "hid":
		return Bus{Type: BusHID}, 0, true
	case "mdio_bus":
		return Bus{Type: BusMDIO}, 0, true
	case "scsi":
		return Bus{Type: BusSCSI}, 0, true
	}
	return Bus{}, 0, false
}

func chipName(chip Chip) string {
	switch chip.Bus.Type {
	case BusISA, BusPCI, BusACPI, BusHID, BusMDIO, BusSCSI:
		return fmt.Sprintf("%s-%s-%04x", chip.Prefix, chip.Bus.Type, chip.Addr)
	case BusI2C, BusSPI:
		return fmt.Sprintf("%s-%s-%d-%02x", chip.Prefix, chip.Bus.Type, chip.Bus.Nr, chip.Addr)
	default:
		return fmt.Sprintf("%s-%s-0", chip.Prefix, chip.Bus.Type)
	}
}

// scanAttributes groups the attribute files of a chip into features and
// subfeatures, ordered by feature type, feature number and subfeature type.
func scanAttributes(dir string) (*chipAttrs, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*Feature)
	subs := make(map[string][]Subfeature)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := attrPattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		kind, ok := featurePrefixes[m[1]]
		if !ok || m[3] == "label" {
			continue
		}
		subType, ok := subfeatureNames[m[1]+"_"+m[3]]
		if !ok {
			continue
		}
		number, _ := strconv.Atoi(m[2])

		info, err := entry.Info()
		if err != nil {
			continue
		}
		var flags Mode
		if info.Mode().Perm()&0o400 != 0 {
			flags |= ModeR
		}
		if info.Mode().Perm()&0o200 != 0 {
			flags |= ModeW
		}

		featureName := m[1] + m[2]
		if _, exists := byName[featureName]; !exists {
			byName[featureName] = &Feature{Name: featureName, Number: number, Type: kind}
		}
		subs[featureName] = append(subs[featureName], Subfeature{
			Name:  entry.Name(),
			Type:  subType,
			Flags: flags,
		})
	}

	attrs := &chipAttrs{subfeatures: subs}
	for _, f := range byName {
		attrs.features = append(attrs.features, *f)
	}
	sort.Slice(attrs.features, func(i, j int) bool {
		a, b := attrs.features[i], attrs.features[j]
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.Number < b.Number
	})

	number := 0
	for _, f := range attrs.features {
		list := subs[f.Name]
		sort.Slice(list, func(i, j int) bool { return list[i].Type < list[j].Type })
		for i := range list {
			list[i].Number = number
			number++
		}
	}
	return attrs, nil
}

// scaleFor returns the divisor from the raw sysfs unit to the natural unit.
func scaleFor(t SubfeatureType) float64 {
	switch t {
	case SubfeatureFanInput, SubfeatureFanMin, SubfeatureFanMax,
		SubfeatureTempAlarm, SubfeatureTempFault, SubfeatureTempType, SubfeatureIntrusionAlarm:
		return 1
	case SubfeaturePowerInput, SubfeaturePowerAverage, SubfeatureEnergyInput:
		return 1e6
	default:
		// millidegrees, millivolts, milliamperes, milli-percent
		return 1e3
	}
}

func hwmonNumber(name string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(name, "hwmon"))
	if err != nil {
		return int(^uint(0) >> 1)
	}
	return n
}

func readTrimmed(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
