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

package clock

import (
	"time"

	bclock "github.com/benbjohnson/clock"
	"github.com/gavv/monotime"
)

type (
	// Timer is an alias to the underlying clock library's timer.
	Timer = bclock.Timer
	// Ticker is an alias to the underlying clock library's ticker.
	Ticker = bclock.Ticker
	// MonotonicTime is a duration since an arbitrary fixed origin.
	MonotonicTime time.Duration
)

var unixEpoch = time.Unix(0, 0)

// Clock is a time source that can be swapped for a mock in tests.
type Clock interface {
	bclock.Clock
	Mono() MonotonicTime
}

type withRealMono struct {
	bclock.Clock
}

func (r withRealMono) Mono() MonotonicTime {
	return MonotonicTime(monotime.Now())
}

// Mock is a manually advanced Clock for unit tests.
type Mock struct {
	*bclock.Mock
}

// Mono implements Clock.
func (r Mock) Mono() MonotonicTime {
	return MonotonicTime(r.Now().Sub(unixEpoch))
}

// New returns a Clock backed by the wall clock.
func New() Clock {
	return withRealMono{bclock.New()}
}

// NewMock returns a mock Clock starting at the unix epoch.
func NewMock() *Mock {
	return &Mock{bclock.NewMock()}
}

// Sub returns the duration between two monotonic readings.
func (m MonotonicTime) Sub(other MonotonicTime) time.Duration {
	return time.Duration(m - other)
}
