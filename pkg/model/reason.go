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

// TaskRemovalReason tells why a task stopped holding resources. It is
// forwarded for accounting only and does not change allocation mechanics.
type TaskRemovalReason int

// Task removal reasons.
const (
	TaskFinished TaskRemovalReason = iota
	TaskFailed
	TaskKilled
	TaskLost
)

func (r TaskRemovalReason) String() string {
	switch r {
	case TaskFinished:
		return "finished"
	case TaskFailed:
		return "failed"
	case TaskKilled:
		return "killed"
	case TaskLost:
		return "lost"
	}
	return "unknown"
}

// OfferReturnReason tells how an outstanding offer terminated. Only a
// refusal feeds the refusal table; the other reasons are terminal states
// that carry no suppression semantics.
type OfferReturnReason int

// Offer return reasons.
const (
	OfferAccepted OfferReturnReason = iota
	OfferRefused
	OfferRescinded
	OfferExpired
)

func (r OfferReturnReason) String() string {
	switch r {
	case OfferAccepted:
		return "accepted"
	case OfferRefused:
		return "refused"
	case OfferRescinded:
		return "rescinded"
	case OfferExpired:
		return "expired"
	}
	return "unknown"
}

// IsRefusal reports whether the return reason should record the owning
// framework as a refuser of the affected slaves.
func (r OfferReturnReason) IsRefusal() bool {
	return r == OfferRefused
}
