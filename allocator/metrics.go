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
	"github.com/prometheus/client_golang/prometheus"
)

var (
	slaveGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fleetsched",
			Subsystem: "allocator",
			Name:      "slaves",
			Help:      "The number of registered slaves",
		})
	frameworkGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fleetsched",
			Subsystem: "allocator",
			Name:      "frameworks",
			Help:      "The number of registered frameworks",
		})
	outstandingOfferGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fleetsched",
			Subsystem: "allocator",
			Name:      "outstanding_offers",
			Help:      "The number of offers awaiting a response",
		})
	refusalEntryGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fleetsched",
			Subsystem: "allocator",
			Name:      "refusal_entries",
			Help:      "The number of (slave, framework) refusal records",
		})
	freeCPUsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fleetsched",
			Subsystem: "allocator",
			Name:      "free_cpus",
			Help:      "Unoffered free cpus across all slaves",
		})
	freeMemoryGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fleetsched",
			Subsystem: "allocator",
			Name:      "free_memory_mb",
			Help:      "Unoffered free memory across all slaves, in MiB",
		})
	offersMadeCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fleetsched",
			Subsystem: "allocator",
			Name:      "offers_made",
			Help:      "The total number of offers sent to the coordinator",
		})
	offersReturnedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fleetsched",
			Subsystem: "allocator",
			Name:      "offers_returned",
			Help:      "The total number of returned offers by reason",
		}, []string{"reason"})
	tasksRemovedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fleetsched",
			Subsystem: "allocator",
			Name:      "tasks_removed",
			Help:      "The total number of removed tasks by reason",
		}, []string{"reason"})
	offerPassDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fleetsched",
			Subsystem: "allocator",
			Name:      "offer_pass_duration_seconds",
			Help:      "Duration of one offer-generation pass",
			Buckets:   prometheus.ExponentialBuckets(0.000001, 4, 12),
		})
)

// InitMetrics registers all metrics used by the allocator.
func InitMetrics(registry *prometheus.Registry) {
	registry.MustRegister(slaveGauge)
	registry.MustRegister(frameworkGauge)
	registry.MustRegister(outstandingOfferGauge)
	registry.MustRegister(refusalEntryGauge)
	registry.MustRegister(freeCPUsGauge)
	registry.MustRegister(freeMemoryGauge)
	registry.MustRegister(offersMadeCounter)
	registry.MustRegister(offersReturnedCounter)
	registry.MustRegister(tasksRemovedCounter)
	registry.MustRegister(offerPassDuration)
}

func (a *SimpleAllocator) collectMetrics() {
	slaveGauge.Set(float64(len(a.slaves)))
	frameworkGauge.Set(float64(len(a.frameworks)))
	outstandingOfferGauge.Set(float64(len(a.offers)))

	refusals := 0
	for _, set := range a.refusers {
		refusals += len(set)
	}
	refusalEntryGauge.Set(float64(refusals))

	var free float64
	var freeMem float64
	for _, slave := range a.slaves {
		f := slave.free()
		free += f.CPUs
		freeMem += float64(f.MemoryMB)
	}
	freeCPUsGauge.Set(free)
	freeMemoryGauge.Set(freeMem)
}
