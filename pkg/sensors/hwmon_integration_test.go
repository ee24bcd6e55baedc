// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

//go:build integration

package sensors_test

import (
	"context"
	"testing"

	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hwtemp/agent/pkg/sensors"
	"github.com/hwtemp/agent/pkg/testutil"
)

func TestHwmonSource_RealSysfs(t *testing.T) {
	sysPath := testutil.RequireHwmon(t)

	source, err := sensors.NewHwmonSource(testr.New(t), sysPath)
	require.NoError(t, err)

	chips, err := source.Chips(context.Background())
	require.NoError(t, err)

	for _, chip := range chips {
		assert.NotEmpty(t, chip.Name)
		assert.NotEmpty(t, chip.Prefix)
		for _, feature := range source.Features(chip) {
			assert.NotEmpty(t, source.Label(chip, feature), "chip %s feature %s", chip.Name, feature.Name)
			for _, sub := range source.Subfeatures(chip, feature) {
				if sub.Type != sensors.SubfeatureTempInput || !sub.Flags.Readable() {
					continue
				}
				v, err := source.Value(chip, sub)
				if err != nil {
					t.Logf("%s/%s: %v", chip.Name, sub.Name, err)
					continue
				}
				t.Logf("%s %s = %.1f", chip.Name, source.Label(chip, feature), v)
				assert.Greater(t, v, -60.0)
				assert.Less(t, v, 200.0)
			}
		}
	}
}
