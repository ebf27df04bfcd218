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

package containers

import (
	"sync"

	"github.com/edwingeng/deque"
)

// Deque is a thread-safe typed queue backed by edwingeng/deque.
type Deque[T any] struct {
	// mu protects deque, because it is not thread-safe.
	mu    sync.RWMutex
	deque deque.Deque
}

// NewDeque creates a new Deque instance.
func NewDeque[T any]() *Deque[T] {
	return &Deque[T]{
		deque: deque.NewDeque(),
	}
}

// Push appends elem at the back of the queue.
func (d *Deque[T]) Push(elem T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.deque.PushBack(elem)
}

// Pop removes and returns the front element.
func (d *Deque[T]) Pop() (T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.deque.Empty() {
		var noVal T
		return noVal, false
	}

	return d.deque.PopFront().(T), true
}

// Peek returns the front element without removing it.
func (d *Deque[T]) Peek() (T, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.deque.Empty() {
		var noVal T
		return noVal, false
	}

	return d.deque.Front().(T), true
}

// Size returns the number of queued elements.
func (d *Deque[T]) Size() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.deque.Len()
}
