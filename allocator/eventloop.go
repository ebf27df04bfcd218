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

package allocator

import (
	"context"
	"sync"
	"time"

	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/atomic"

	"github.com/fleetsched/fleetsched/pkg/chann"
	"github.com/fleetsched/fleetsched/pkg/clock"
	cerrors "github.com/fleetsched/fleetsched/pkg/errors"
	"github.com/fleetsched/fleetsched/pkg/model"
)

// EventLoop serializes allocator access behind a single-writer
// discipline: one goroutine owns the wrapped Allocator and is reached
// only through an unbounded mailbox, so the refusal table and the
// free-capacity view are never observed or mutated concurrently. It
// also drives the periodic liveness tick.
type EventLoop struct {
	alloc        Allocator
	clock        clock.Clock
	tickInterval time.Duration

	mailbox *chann.Chann[func()]
	started *atomic.Bool

	// mu guards closed, so that no event can be enqueued once the
	// mailbox starts draining.
	mu     sync.RWMutex
	closed bool
}

// NewEventLoop wraps alloc. Events enqueued before Run are processed
// once the loop starts.
func NewEventLoop(alloc Allocator, clk clock.Clock, tickInterval time.Duration) *EventLoop {
	return &EventLoop{
		alloc:        alloc,
		clock:        clk,
		tickInterval: tickInterval,
		mailbox:      chann.New[func()](),
		started:      atomic.NewBool(false),
	}
}

// Run owns the allocator until ctx is cancelled. It must be called at
// most once; stopping the loop is done by cancelling ctx. On return the
// mailbox is drained and closed, and further enqueues fail with
// ErrEventLoopClosed.
func (l *EventLoop) Run(ctx context.Context) error {
	if !l.started.CompareAndSwap(false, true) {
		log.Panic("allocator event loop started twice")
	}
	defer l.shutdown()

	ticker := l.clock.Ticker(l.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return errors.Trace(ctx.Err())
		case <-ticker.C:
			l.alloc.TimerTick()
		case fn := <-l.mailbox.Out():
			fn()
		}
	}
}

func (l *EventLoop) shutdown() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()

	// Pending events are discarded: the allocator is a derived view and
	// is rebuilt from a fresh replay on restart anyway.
	l.mailbox.Close()
	for range l.mailbox.Out() {
	}
}

func (l *EventLoop) submit(fn func()) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return cerrors.ErrEventLoopClosed.GenWithStackByArgs()
	}
	l.mailbox.In() <- fn
	return nil
}

// FrameworkAdded enqueues Allocator.FrameworkAdded.
func (l *EventLoop) FrameworkAdded(info *model.FrameworkInfo) error {
	return l.submit(func() { l.alloc.FrameworkAdded(info) })
}

// FrameworkRemoved enqueues Allocator.FrameworkRemoved.
func (l *EventLoop) FrameworkRemoved(id model.FrameworkID) error {
	return l.submit(func() { l.alloc.FrameworkRemoved(id) })
}

// SlaveAdded enqueues Allocator.SlaveAdded.
func (l *EventLoop) SlaveAdded(info *model.SlaveInfo, free model.Resources) error {
	return l.submit(func() { l.alloc.SlaveAdded(info, free) })
}

// SlaveRemoved enqueues Allocator.SlaveRemoved.
func (l *EventLoop) SlaveRemoved(id model.SlaveID) error {
	return l.submit(func() { l.alloc.SlaveRemoved(id) })
}

// TaskAdded enqueues Allocator.TaskAdded.
func (l *EventLoop) TaskAdded(task *model.TaskInfo) error {
	return l.submit(func() { l.alloc.TaskAdded(task) })
}

// TaskRemoved enqueues Allocator.TaskRemoved.
func (l *EventLoop) TaskRemoved(task *model.TaskInfo, reason model.TaskRemovalReason) error {
	return l.submit(func() { l.alloc.TaskRemoved(task, reason) })
}

// OfferReturned enqueues Allocator.OfferReturned.
func (l *EventLoop) OfferReturned(
	id model.OfferID, reason model.OfferReturnReason, resourcesLeft []model.SlaveResources,
) error {
	return l.submit(func() { l.alloc.OfferReturned(id, reason, resourcesLeft) })
}

// OffersRevived enqueues Allocator.OffersRevived.
func (l *EventLoop) OffersRevived(id model.FrameworkID) error {
	return l.submit(func() { l.alloc.OffersRevived(id) })
}
