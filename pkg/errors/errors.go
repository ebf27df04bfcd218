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

package errors

import (
	"github.com/pingcap/errors"
)

// errors
var (
	// unknown-entity errors: the coordinator's view and the allocator's
	// view can transiently diverge, so these are logged and ignored by
	// the engine, never propagated as fatal.
	ErrUnknownSlave = errors.Normalize(
		"slave not registered with the allocator: %s",
		errors.RFCCodeText("FSCHED:ErrUnknownSlave"),
	)
	ErrUnknownFramework = errors.Normalize(
		"framework not registered with the allocator: %s",
		errors.RFCCodeText("FSCHED:ErrUnknownFramework"),
	)
	ErrUnknownOffer = errors.Normalize(
		"offer not outstanding: %s",
		errors.RFCCodeText("FSCHED:ErrUnknownOffer"),
	)
	ErrUnknownTask = errors.Normalize(
		"task not tracked by the allocator: %s",
		errors.RFCCodeText("FSCHED:ErrUnknownTask"),
	)
	ErrDuplicateSlave = errors.Normalize(
		"slave already registered: %s",
		errors.RFCCodeText("FSCHED:ErrDuplicateSlave"),
	)
	ErrDuplicateFramework = errors.Normalize(
		"framework already registered: %s",
		errors.RFCCodeText("FSCHED:ErrDuplicateFramework"),
	)

	// invariant violations: detected defensively, clamped to the last
	// known-good value by the engine.
	ErrResourceOverflow = errors.Normalize(
		"returned resources exceed the offered amount, offer %s slave %s",
		errors.RFCCodeText("FSCHED:ErrResourceOverflow"),
	)

	ErrInvalidConfig = errors.Normalize(
		"invalid allocator configuration: %s",
		errors.RFCCodeText("FSCHED:ErrInvalidConfig"),
	)
	ErrEventLoopClosed = errors.Normalize(
		"allocator event loop is closed",
		errors.RFCCodeText("FSCHED:ErrEventLoopClosed"),
	)
)
