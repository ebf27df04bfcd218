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

import "github.com/google/uuid"

// StateEntryType tags the payload kind of a persistent state entry.
type StateEntryType int

// State entry types known to the coordinator's durability layer.
const (
	StateEntrySlave StateEntryType = iota
	StateEntryFramework
	StateEntryTask
)

// StateEntry is the durability record format used by the coordinator for
// recovery. The allocator never persists its own state; it is rebuilt
// from a fresh add-event replay after a restart. The type lives here so
// that both sides of the boundary agree on the shape.
type StateEntry struct {
	Name  string
	Token string
	Type  StateEntryType
	Value []byte
}

// NewStateEntry builds an entry with a fresh uniqueness token.
func NewStateEntry(name string, typ StateEntryType, value []byte) *StateEntry {
	return &StateEntry{
		Name:  name,
		Token: uuid.New().String(),
		Type:  typ,
		Value: value,
	}
}
