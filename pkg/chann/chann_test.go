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

package chann

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestUnboundedFIFO(t *testing.T) {
	t.Parallel()

	ch := New[int]()
	const count = 10000
	for i := 0; i < count; i++ {
		ch.In() <- i
	}
	ch.Close()

	received := 0
	for v := range ch.Out() {
		require.Equal(t, received, v)
		received++
	}
	require.Equal(t, count, received)
}

func TestCloseEmpty(t *testing.T) {
	t.Parallel()

	ch := New[string]()
	ch.Close()
	_, ok := <-ch.Out()
	require.False(t, ok)
}
