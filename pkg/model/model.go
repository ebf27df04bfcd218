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
	"fmt"

	"github.com/docker/go-units"
)

// SlaveID is the unique identifier of a cluster node.
type SlaveID string

// FrameworkID is the unique identifier of a tenant framework.
type FrameworkID string

// TaskID is the unique identifier of a task, scoped to its framework.
type TaskID string

// OfferID is the unique identifier of a resource offer.
type OfferID string

// Resources is a vector of schedulable resource quantities.
// The zero value means "nothing".
type Resources struct {
	CPUs     float64 `toml:"cpus" json:"cpus"`
	MemoryMB int64   `toml:"memory-mb" json:"memory-mb"`
}

// Add returns r + other.
func (r Resources) Add(other Resources) Resources {
	return Resources{
		CPUs:     r.CPUs + other.CPUs,
		MemoryMB: r.MemoryMB + other.MemoryMB,
	}
}

// Sub returns r - other. The result may be negative in either
// dimension; callers that need a floor should use Clamp.
func (r Resources) Sub(other Resources) Resources {
	return Resources{
		CPUs:     r.CPUs - other.CPUs,
		MemoryMB: r.MemoryMB - other.MemoryMB,
	}
}

// Clamp floors each dimension at zero.
func (r Resources) Clamp() Resources {
	if r.CPUs < 0 {
		r.CPUs = 0
	}
	if r.MemoryMB < 0 {
		r.MemoryMB = 0
	}
	return r
}

// Min returns the dimension-wise minimum of r and other.
func (r Resources) Min(other Resources) Resources {
	if other.CPUs < r.CPUs {
		r.CPUs = other.CPUs
	}
	if other.MemoryMB < r.MemoryMB {
		r.MemoryMB = other.MemoryMB
	}
	return r
}

// IsZero reports whether no dimension is positive.
func (r Resources) IsZero() bool {
	return r.CPUs <= 0 && r.MemoryMB <= 0
}

// LessOrEqual reports whether every dimension of r fits into other.
func (r Resources) LessOrEqual(other Resources) bool {
	return r.CPUs <= other.CPUs && r.MemoryMB <= other.MemoryMB
}

// Covers reports whether r is at least the given minimum in every dimension.
func (r Resources) Covers(minimum Resources) bool {
	return minimum.LessOrEqual(r)
}

func (r Resources) String() string {
	return fmt.Sprintf("cpus=%g memory=%s",
		r.CPUs, units.BytesSize(float64(r.MemoryMB)*units.MiB))
}

// SlaveInfo is a cached, non-owning view of a node registered with the
// coordinator. The coordinator owns the canonical object; the allocator
// holds this snapshot keyed by ID and purges it on removal.
type SlaveInfo struct {
	ID       SlaveID
	Hostname string
	Capacity Resources
}

// FrameworkInfo is a cached, non-owning view of a tenant framework.
// Weight skews the fairness ordering; a framework with twice the weight
// tolerates twice the allocation before losing priority.
type FrameworkInfo struct {
	ID     FrameworkID
	Name   string
	Weight float64
}

// TaskInfo describes a task placement as reported by the coordinator.
type TaskInfo struct {
	ID          TaskID
	FrameworkID FrameworkID
	SlaveID     SlaveID
	Resources   Resources
}

func (t *TaskInfo) String() string {
	return fmt.Sprintf("task %s of framework %s on slave %s (%s)",
		t.ID, t.FrameworkID, t.SlaveID, t.Resources)
}
