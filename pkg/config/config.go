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
	"time"

	"github.com/BurntSushi/toml"
	"github.com/docker/go-units"
	cerrors "github.com/fleetsched/fleetsched/pkg/errors"
)

// TomlDuration is a time.Duration that (un)marshals as a duration string
// in TOML and JSON.
type TomlDuration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *TomlDuration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = TomlDuration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d TomlDuration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// AllocatorConfig configs the allocation engine and its event loop.
type AllocatorConfig struct {
	// TickInterval is the period of the liveness tick delivered to the
	// allocator even when no other event arrives.
	TickInterval TomlDuration `toml:"tick-interval" json:"tick-interval"`

	// MinOfferCPUs and MinOfferMemory are the smallest free slice of a
	// slave worth offering; anything below is skipped until more
	// resources free up.
	MinOfferCPUs   float64 `toml:"min-offer-cpus" json:"min-offer-cpus"`
	MinOfferMemory string  `toml:"min-offer-memory" json:"min-offer-memory"`

	// FrameworkDefaultWeight applies to frameworks registered with a
	// non-positive weight.
	FrameworkDefaultWeight float64 `toml:"framework-default-weight" json:"framework-default-weight"`

	// FilterTimeout bounds how long a refusal suppresses re-offering a
	// slave to the refusing framework before it decays on its own.
	// Zero disables time-based decay.
	FilterTimeout TomlDuration `toml:"filter-timeout" json:"filter-timeout"`

	// MinOfferMemoryMB is resolved from MinOfferMemory by
	// ValidateAndAdjust.
	MinOfferMemoryMB int64 `toml:"-" json:"-"`
}

// read only
var defaultAllocatorConfig = &AllocatorConfig{
	TickInterval:           TomlDuration(time.Second),
	MinOfferCPUs:           1,
	MinOfferMemory:         "32MiB",
	FrameworkDefaultWeight: 1.0,
	FilterTimeout:          TomlDuration(5 * time.Second),
}

// GetDefaultAllocatorConfig returns a copy of the default configuration.
func GetDefaultAllocatorConfig() *AllocatorConfig {
	cfg := *defaultAllocatorConfig
	return &cfg
}

// ValidateAndAdjust verifies each parameter and fills in defaults.
func (c *AllocatorConfig) ValidateAndAdjust() error {
	if c.TickInterval == 0 {
		c.TickInterval = defaultAllocatorConfig.TickInterval
	}
	if c.TickInterval < 0 {
		return cerrors.ErrInvalidConfig.GenWithStackByArgs("tick-interval must be positive")
	}
	if c.MinOfferCPUs < 0 {
		return cerrors.ErrInvalidConfig.GenWithStackByArgs("min-offer-cpus must not be negative")
	}
	if c.MinOfferMemory == "" {
		c.MinOfferMemory = defaultAllocatorConfig.MinOfferMemory
	}
	memBytes, err := units.RAMInBytes(c.MinOfferMemory)
	if err != nil {
		return cerrors.ErrInvalidConfig.GenWithStackByArgs("min-offer-memory: " + err.Error())
	}
	c.MinOfferMemoryMB = memBytes / units.MiB
	if c.FrameworkDefaultWeight <= 0 {
		c.FrameworkDefaultWeight = defaultAllocatorConfig.FrameworkDefaultWeight
	}
	if c.FilterTimeout < 0 {
		return cerrors.ErrInvalidConfig.GenWithStackByArgs("filter-timeout must not be negative")
	}
	return nil
}

// FromTomlFile loads and validates a configuration from a TOML file.
func FromTomlFile(path string) (*AllocatorConfig, error) {
	cfg := GetDefaultAllocatorConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, cerrors.ErrInvalidConfig.GenWithStackByArgs(err.Error())
	}
	if err := cfg.ValidateAndAdjust(); err != nil {
		return nil, err
	}
	return cfg, nil
}
