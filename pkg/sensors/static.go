// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package sensors

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Compile-time interface check
var _ Source = (*StaticSource)(nil)

// StaticSource is an in-memory Source. It serves fixed readings and is used
// by tests and by the walk command with a fixture file.
type StaticSource struct {
	chips []StaticChip
}

// StaticChip is a chip together with its features.
type StaticChip struct {
	Chip     Chip
	Features []StaticFeature
}

// StaticFeature is a feature together with its label and subfeatures.
type StaticFeature struct {
	Feature     Feature
	Label       string
	Subfeatures []StaticSubfeature
}

// StaticSubfeature is a subfeature with a fixed reading. When Err is set,
// Value fails with it.
type StaticSubfeature struct {
	Subfeature Subfeature
	Value      float64
	Err        error
}

// NewStaticSource returns a source serving chips. Chip paths are used as
// lookup keys and default to the chip name.
func NewStaticSource(chips ...StaticChip) *StaticSource {
	for i := range chips {
		if chips[i].Chip.Path == "" {
			chips[i].Chip.Path = chips[i].Chip.Name
		}
	}
	return &StaticSource{chips: chips}
}

func (s *StaticSource) Chips(ctx context.Context) ([]Chip, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	chips := make([]Chip, 0, len(s.chips))
	for _, c := range s.chips {
		chips = append(chips, c.Chip)
	}
	return chips, nil
}

func (s *StaticSource) Features(chip Chip) []Feature {
	c := s.chip(chip)
	if c == nil {
		return nil
	}
	features := make([]Feature, 0, len(c.Features))
	for _, f := range c.Features {
		features = append(features, f.Feature)
	}
	return features
}

func (s *StaticSource) Subfeatures(chip Chip, feature Feature) []Subfeature {
	f := s.feature(chip, feature)
	if f == nil {
		return nil
	}
	subs := make([]Subfeature, 0, len(f.Subfeatures))
	for _, sf := range f.Subfeatures {
		subs = append(subs, sf.Subfeature)
	}
	return subs
}

func (s *StaticSource) Value(chip Chip, subfeature Subfeature) (float64, error) {
	c := s.chip(chip)
	if c == nil {
		return 0, fmt.Errorf("unknown chip %q", chip.Name)
	}
	for _, f := range c.Features {
		for _, sf := range f.Subfeatures {
			if sf.Subfeature.Name != subfeature.Name {
				continue
			}
			if !sf.Subfeature.Flags.Readable() {
				return 0, ErrNotReadable
			}
			if sf.Err != nil {
				return 0, sf.Err
			}
			return sf.Value, nil
		}
	}
	return 0, fmt.Errorf("unknown subfeature %q on chip %q", subfeature.Name, chip.Name)
}

func (s *StaticSource) Label(chip Chip, feature Feature) string {
	f := s.feature(chip, feature)
	if f == nil || f.Label == "" {
		return feature.Name
	}
	return f.Label
}

func (s *StaticSource) chip(chip Chip) *StaticChip {
	for i := range s.chips {
		if s.chips[i].Chip.Path == chip.Path {
			return &s.chips[i]
		}
	}
	return nil
}

func (s *StaticSource) feature(chip Chip, feature Feature) *StaticFeature {
	c := s.chip(chip)
	if c == nil {
		return nil
	}
	for i := range c.Features {
		if c.Features[i].Feature.Name == feature.Name {
			return &c.Features[i]
		}
	}
	return nil
}

type fixtureFile struct {
	Chips []struct {
		Name     string `yaml:"name"`
		Prefix   string `yaml:"prefix"`
		Bus      string `yaml:"bus"`
		Features []struct {
			Name        string `yaml:"name"`
			Label       string `yaml:"label"`
			Subfeatures []struct {
				Name     string  `yaml:"name"`
				Type     string  `yaml:"type"`
				Readable *bool   `yaml:"readable"`
				Value    float64 `yaml:"value"`
				Error    string  `yaml:"error"`
			} `yaml:"subfeatures"`
		} `yaml:"features"`
	} `yaml:"chips"`
}

// LoadFixture builds a StaticSource from a YAML file of the form:
//
//	chips:
//	  - name: coretemp-isa-0000
//	    bus: isa
//	    features:
//	      - name: temp1
//	        label: Package id 0
//	        subfeatures:
//	          - {name: temp1_input, type: temp_input, value: 45.7}
//
// Subfeatures are readable unless readable is false. A non-empty error makes
// Value fail for that subfeature.
func LoadFixture(path string) (*StaticSource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture %s: %w", path, err)
	}
	var file fixtureFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse fixture %s: %w", path, err)
	}

	var chips []StaticChip
	number := 0
	for _, fc := range file.Chips {
		bus := BusISA
		if fc.Bus != "" {
			if bus, err = ParseBusType(fc.Bus); err != nil {
				return nil, fmt.Errorf("chip %q: %w", fc.Name, err)
			}
		}
		chip := StaticChip{Chip: Chip{Name: fc.Name, Prefix: fc.Prefix, Bus: Bus{Type: bus}}}
		for fi, ff := range fc.Features {
			feature := StaticFeature{
				Feature: Feature{Name: ff.Name, Number: fi, Type: FeatureTemp},
				Label:   ff.Label,
			}
			for _, fs := range ff.Subfeatures {
				subType, err := ParseSubfeatureType(fs.Type)
				if err != nil {
					return nil, fmt.Errorf("chip %q feature %q: %w", fc.Name, ff.Name, err)
				}
				flags := ModeR
				if fs.Readable != nil && !*fs.Readable {
					flags = 0
				}
				sub := StaticSubfeature{
					Subfeature: Subfeature{Name: fs.Name, Number: number, Type: subType, Flags: flags},
					Value:      fs.Value,
				}
				if fs.Error != "" {
					sub.Err = errors.New(fs.Error)
				}
				number++
				feature.Subfeatures = append(feature.Subfeatures, sub)
			}
			chip.Features = append(chip.Features, feature)
		}
		chips = append(chips, chip)
	}
	return NewStaticSource(chips...), nil
}
