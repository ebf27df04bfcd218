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
	"sync/atomic"

	"github.com/fleetsched/fleetsched/pkg/containers"
)

// Chann is an unbounded channel: sends on In never block, and queued
// elements are delivered on Out in FIFO order by an internal goroutine.
type Chann[T any] struct {
	queue   *containers.Deque[T]
	in, out chan T
	close   chan struct{}
	len     int64
}

// New allocates an unbounded channel.
func New[T any]() *Chann[T] {
	ch := &Chann[T]{
		queue: containers.NewDeque[T](),
		in:    make(chan T, 1),
		out:   make(chan T, 1),
		close: make(chan struct{}),
	}
	go ch.unboundedProcessing()
	return ch
}

// In returns the send channel. Do not close() it directly; use Close.
func (ch *Chann[T]) In() chan<- T { return ch.in }

// Out returns the receive channel.
func (ch *Chann[T]) Out() <-chan T { return ch.out }

// Close closes the channel. Queued elements are still delivered on Out;
// the receiver must drain Out until it is closed.
func (ch *Chann[T]) Close() {
	ch.close <- struct{}{}
}

// unboundedProcessing shuttles elements from In to Out through the queue.
func (ch *Chann[T]) unboundedProcessing() {
	for {
		e, ok := ch.queue.Peek()
		if ok {
			select {
			case ch.out <- e:
				atomic.AddInt64(&ch.len, -1)
				ch.queue.Pop()
			case e, ok := <-ch.in:
				if !ok {
					panic("chann: send-only channel ch.In() closed unexpectedly")
				}
				atomic.AddInt64(&ch.len, 1)
				ch.queue.Push(e)
			case <-ch.close:
				ch.unboundedTerminate()
				return
			}
		} else {
			select {
			case e, ok := <-ch.in:
				if !ok {
					panic("chann: send-only channel ch.In() closed unexpectedly")
				}
				atomic.AddInt64(&ch.len, 1)
				ch.queue.Push(e)
			case <-ch.close:
				ch.unboundedTerminate()
				return
			}
		}
	}
}

// unboundedTerminate flushes everything still queued to Out, then
// closes Out. The consumer has to keep receiving until Out closes.
func (ch *Chann[T]) unboundedTerminate() {
	close(ch.in)
	for e := range ch.in {
		ch.queue.Push(e)
	}

	for e, ok := ch.queue.Pop(); ok; e, ok = ch.queue.Pop() {
		ch.out <- e
		atomic.AddInt64(&ch.len, -1)
	}

	close(ch.out)
	close(ch.close)
}

// Len returns an approximation of the number of buffered elements.
func (ch *Chann[T]) Len() int {
	return int(atomic.LoadInt64(&ch.len)) + len(ch.in) + len(ch.out)
}
