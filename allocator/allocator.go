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

// Package allocator decides which idle cluster resources are offered to
// which frameworks. It is a derived, recomputable in-memory view driven
// entirely by the coordinator's event stream; it performs no I/O and
// persists nothing.
package allocator

import (
	"github.com/fleetsched/fleetsched/pkg/model"
)

// Allocator reacts to cluster events reported by the coordinator. Each
// call may synchronously push a batch of new offers into the OfferSink.
//
// None of these methods is thread-safe. The coordinator must invoke
// them from a single control thread; use EventLoop when the caller is
// concurrent.
type Allocator interface {
	// FrameworkAdded registers a framework for offer consideration.
	FrameworkAdded(info *model.FrameworkInfo)

	// FrameworkRemoved purges the framework from all refusal sets and
	// per-framework bookkeeping. Safe to call with offers outstanding.
	FrameworkRemoved(id model.FrameworkID)

	// SlaveAdded registers a node together with its initial
	// free-capacity snapshot.
	SlaveAdded(info *model.SlaveInfo, free model.Resources)

	// SlaveRemoved purges the slave's bookkeeping. Idempotent: removing
	// an unknown slave is a no-op.
	SlaveRemoved(id model.SlaveID)

	// TaskAdded records a task placement reported by the coordinator.
	// Capacity held by the task was already accounted for when the
	// covering offer was returned, so this is index bookkeeping only.
	TaskAdded(task *model.TaskInfo)

	// TaskRemoved frees the task's resources on its slave. A non-zero
	// freed amount clears the slave's refusal record.
	TaskRemoved(task *model.TaskInfo, reason model.TaskRemovalReason)

	// OfferReturned reports an offer's terminal state. resourcesLeft
	// holds the offered-but-unconsumed slices, which are folded back
	// into each slave's free view. A refusal adds the owning framework
	// to the refusal record of every affected slave.
	OfferReturned(id model.OfferID, reason model.OfferReturnReason,
		resourcesLeft []model.SlaveResources)

	// OffersRevived clears the framework from every slave's refusal set
	// so it is reconsidered immediately.
	OffersRevived(id model.FrameworkID)

	// TimerTick is the periodic liveness trigger: it re-runs offer
	// generation even when no other event arrives.
	TimerTick()
}

// OfferSink receives batches of newly generated offers. The coordinator
// implements it and is responsible for wire delivery and for eventually
// reporting each offer back via OfferReturned.
type OfferSink interface {
	SendOffers(offers []*model.SlotOffer)
}
