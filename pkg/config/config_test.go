// Copyright 2026 The fleetsched Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestValidateAndAdjustDefaults(t *testing.T) {
	t.Parallel()

	cfg := &AllocatorConfig{}
	require.NoError(t, cfg.ValidateAndAdjust())
	require.Equal(t, TomlDuration(time.Second), cfg.TickInterval)
	require.Equal(t, float64(0), cfg.MinOfferCPUs)
	require.Equal(t, int64(32), cfg.MinOfferMemoryMB)
	require.Equal(t, 1.0, cfg.FrameworkDefaultWeight)
}

func TestValidateAndAdjustRejectsNonsense(t *testing.T) {
	t.Parallel()

	cfg := GetDefaultAllocatorConfig()
	cfg.TickInterval = TomlDuration(-time.Second)
	require.Error(t, cfg.ValidateAndAdjust())

	cfg = GetDefaultAllocatorConfig()
	cfg.MinOfferCPUs = -1
	require.Error(t, cfg.ValidateAndAdjust())

	cfg = GetDefaultAllocatorConfig()
	cfg.MinOfferMemory = "not-a-size"
	require.Error(t, cfg.ValidateAndAdjust())

	cfg = GetDefaultAllocatorConfig()
	cfg.FilterTimeout = TomlDuration(-time.Minute)
	require.Error(t, cfg.ValidateAndAdjust())
}

func TestFromTomlFile(t *testing.T) {
	t.Parallel()

	content := `
tick-interval = "500ms"
min-offer-cpus = 0.5
min-offer-memory = "1GiB"
framework-default-weight = 2.0
filter-timeout = "10s"
`
	path := filepath.Join(t.TempDir(), "allocator.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := FromTomlFile(path)
	require.NoError(t, err)
	require.Equal(t, TomlDuration(500*time.Millisecond), cfg.TickInterval)
	require.Equal(t, 0.5, cfg.MinOfferCPUs)
	require.Equal(t, int64(1024), cfg.MinOfferMemoryMB)
	require.Equal(t, 2.0, cfg.FrameworkDefaultWeight)
	require.Equal(t, TomlDuration(10*time.Second), cfg.FilterTimeout)
}

func TestFromTomlFileMissing(t *testing.T) {
	t.Parallel()

	_, err := FromTomlFile(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}
