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

package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResourcesArithmetic(t *testing.T) {
	t.Parallel()

	a := Resources{CPUs: 4, MemoryMB: 1024}
	b := Resources{CPUs: 1.5, MemoryMB: 256}

	require.Equal(t, Resources{CPUs: 5.5, MemoryMB: 1280}, a.Add(b))
	require.Equal(t, Resources{CPUs: 2.5, MemoryMB: 768}, a.Sub(b))
	require.Equal(t, Resources{CPUs: 0, MemoryMB: 0}, b.Sub(a).Clamp())
	require.True(t, b.LessOrEqual(a))
	require.False(t, a.LessOrEqual(b))
}

func TestResourcesIsZero(t *testing.T) {
	t.Parallel()

	require.True(t, Resources{}.IsZero())
	require.True(t, Resources{CPUs: -1, MemoryMB: -5}.IsZero())
	require.False(t, Resources{CPUs: 0.1}.IsZero())
	require.False(t, Resources{MemoryMB: 1}.IsZero())
}

func TestResourcesCovers(t *testing.T) {
	t.Parallel()

	minimum := Resources{CPUs: 1, MemoryMB: 32}
	require.True(t, Resources{CPUs: 1, MemoryMB: 32}.Covers(minimum))
	require.True(t, Resources{CPUs: 8, MemoryMB: 4096}.Covers(minimum))
	require.False(t, Resources{CPUs: 0.5, MemoryMB: 4096}.Covers(minimum))
	require.False(t, Resources{CPUs: 8, MemoryMB: 16}.Covers(minimum))
}

func TestSlotOfferTotal(t *testing.T) {
	t.Parallel()

	offer := &SlotOffer{
		ID:          "offer-1",
		FrameworkID: "framework-1",
		Resources: []SlaveResources{
			{SlaveID: "slave-1", Resources: Resources{CPUs: 2, MemoryMB: 512}},
			{SlaveID: "slave-2", Resources: Resources{CPUs: 3, MemoryMB: 1024}},
		},
	}
	require.Equal(t, Resources{CPUs: 5, MemoryMB: 1536}, offer.Total())
}

func TestReasonStrings(t *testing.T) {
	t.Parallel()

	require.Equal(t, "finished", TaskFinished.String())
	require.Equal(t, "lost", TaskLost.String())
	require.Equal(t, "refused", OfferRefused.String())
	require.Equal(t, "accepted", OfferAccepted.String())
	require.True(t, OfferRefused.IsRefusal())
	require.False(t, OfferAccepted.IsRefusal())
	require.False(t, OfferRescinded.IsRefusal())
	require.False(t, OfferExpired.IsRefusal())
}

func TestNewStateEntryToken(t *testing.T) {
	t.Parallel()

	e1 := NewStateEntry("slaves/slave-1", StateEntrySlave, []byte("payload"))
	e2 := NewStateEntry("slaves/slave-1", StateEntrySlave, []byte("payload"))
	require.NotEmpty(t, e1.Token)
	require.NotEqual(t, e1.Token, e2.Token)
}
