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
	"strings"
)

// SlaveResources is a slice of one slave's capacity participating in an
// offer, or left over when an offer is returned.
type SlaveResources struct {
	SlaveID   SlaveID
	Resources Resources
}

func (s SlaveResources) String() string {
	return fmt.Sprintf("%s: %s", s.SlaveID, s.Resources)
}

// SlotOffer proposes resources on one or more slaves to exactly one
// framework. It stays outstanding until the coordinator reports it
// returned (accepted, refused, rescinded or expired).
type SlotOffer struct {
	ID          OfferID
	FrameworkID FrameworkID
	Resources   []SlaveResources
}

// Total sums the offered quantities across all slaves in the offer.
func (o *SlotOffer) Total() Resources {
	var total Resources
	for _, sr := range o.Resources {
		total = total.Add(sr.Resources)
	}
	return total
}

func (o *SlotOffer) String() string {
	parts := make([]string, 0, len(o.Resources))
	for _, sr := range o.Resources {
		parts = append(parts, sr.String())
	}
	return fmt.Sprintf("offer %s to %s [%s]",
		o.ID, o.FrameworkID, strings.Join(parts, ", "))
}
