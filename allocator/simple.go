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
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/fleetsched/fleetsched/pkg/clock"
	"github.com/fleetsched/fleetsched/pkg/config"
	cerrors "github.com/fleetsched/fleetsched/pkg/errors"
	"github.com/fleetsched/fleetsched/pkg/model"
)

// slaveState is the allocator's bookkeeping for one node. The free view
// is derived, never stored: free = capacity - used - offered, floored at
// zero, so it can never exceed the slave's total capacity.
type slaveState struct {
	info    *model.SlaveInfo
	used    model.Resources // held by running tasks
	offered model.Resources // held by outstanding offers
}

func (s *slaveState) free() model.Resources {
	return s.info.Capacity.Sub(s.used).Sub(s.offered).Clamp()
}

type frameworkState struct {
	info *model.FrameworkInfo
	// seq is the registration order, the deterministic tie-breaker of
	// the allocation ordering.
	seq       uint64
	allocated model.Resources // outstanding offers plus running tasks
}

// share is the fairness score: cumulative allocation in cpu-equivalents
// scaled down by the framework's weight. Smaller is considered earlier.
func (f *frameworkState) share() float64 {
	return (f.allocated.CPUs + float64(f.allocated.MemoryMB)/1024.0) / f.info.Weight
}

type offerRecord struct {
	offer  *model.SlotOffer
	slaves map[model.SlaveID]model.Resources
}

type taskKey struct {
	framework model.FrameworkID
	task      model.TaskID
}

// SimpleAllocator offers each slave's whole free capacity to the first
// framework in the fairness ordering that has not recently refused it.
// One offer may bundle several slaves for the same framework; a slave's
// capacity is never split across frameworks within one pass.
type SimpleAllocator struct {
	cfg    *config.AllocatorConfig
	clock  clock.Clock
	sink   OfferSink
	logger *zap.Logger

	slaves     map[model.SlaveID]*slaveState
	frameworks map[model.FrameworkID]*frameworkState
	offers     map[model.OfferID]*offerRecord
	tasks      map[taskKey]*model.TaskInfo

	// refusers remembers which frameworks refused each slave recently,
	// with the deadline past which the refusal decays on its own. It is
	// cleared when the slave's free resources go up or when everyone
	// has refused it.
	refusers map[model.SlaveID]map[model.FrameworkID]time.Time

	nextSeq uint64
}

var _ Allocator = (*SimpleAllocator)(nil)

// NewSimpleAllocator creates an allocator pushing offers into sink.
// cfg must have passed ValidateAndAdjust.
func NewSimpleAllocator(
	cfg *config.AllocatorConfig, clk clock.Clock, sink OfferSink,
) *SimpleAllocator {
	return &SimpleAllocator{
		cfg:        cfg,
		clock:      clk,
		sink:       sink,
		logger:     log.L().With(zap.String("component", "allocator")),
		slaves:     map[model.SlaveID]*slaveState{},
		frameworks: map[model.FrameworkID]*frameworkState{},
		offers:     map[model.OfferID]*offerRecord{},
		tasks:      map[taskKey]*model.TaskInfo{},
		refusers:   map[model.SlaveID]map[model.FrameworkID]time.Time{},
	}
}

// FrameworkAdded implements Allocator.
func (a *SimpleAllocator) FrameworkAdded(info *model.FrameworkInfo) {
	if _, ok := a.frameworks[info.ID]; ok {
		a.logger.Warn("framework already registered, ignoring",
			zap.String("frameworkID", string(info.ID)),
			zap.Error(cerrors.ErrDuplicateFramework.GenWithStackByArgs(info.ID)))
		return
	}

	cached := *info
	if cached.Weight <= 0 {
		cached.Weight = a.cfg.FrameworkDefaultWeight
	}
	a.nextSeq++
	a.frameworks[cached.ID] = &frameworkState{info: &cached, seq: a.nextSeq}

	a.logger.Info("framework added",
		zap.String("frameworkID", string(cached.ID)),
		zap.String("name", cached.Name),
		zap.Float64("weight", cached.Weight))

	// new demand may absorb previously un-offerable slack
	a.makeNewOffers()
}

// FrameworkRemoved implements Allocator. Resources held by the
// framework's running tasks stay accounted until the coordinator
// reports each task removed.
func (a *SimpleAllocator) FrameworkRemoved(id model.FrameworkID) {
	if _, ok := a.frameworks[id]; !ok {
		a.logger.Warn("removing unknown framework, ignoring",
			zap.String("frameworkID", string(id)),
			zap.Error(cerrors.ErrUnknownFramework.GenWithStackByArgs(id)))
		return
	}
	delete(a.frameworks, id)

	for slaveID, set := range a.refusers {
		delete(set, id)
		if len(set) == 0 {
			delete(a.refusers, slaveID)
		}
	}

	// Outstanding offers to a removed framework are meaningless; drop
	// them and release their hold. A late OfferReturned for one of them
	// is ignored as unknown, which is the intended self-healing path.
	for offerID, rec := range a.offers {
		if rec.offer.FrameworkID != id {
			continue
		}
		for slaveID, res := range rec.slaves {
			if slave, ok := a.slaves[slaveID]; ok {
				slave.offered = slave.offered.Sub(res).Clamp()
			}
		}
		delete(a.offers, offerID)
	}

	a.logger.Info("framework removed", zap.String("frameworkID", string(id)))
	a.collectMetrics()
}

// SlaveAdded implements Allocator.
func (a *SimpleAllocator) SlaveAdded(info *model.SlaveInfo, free model.Resources) {
	if _, ok := a.slaves[info.ID]; ok {
		a.logger.Warn("slave already registered, ignoring",
			zap.String("slaveID", string(info.ID)),
			zap.Error(cerrors.ErrDuplicateSlave.GenWithStackByArgs(info.ID)))
		return
	}
	if !free.LessOrEqual(info.Capacity) {
		a.logger.Error("reported free resources exceed slave capacity, clamping",
			zap.String("slaveID", string(info.ID)),
			zap.Stringer("free", free),
			zap.Stringer("capacity", info.Capacity))
		free = free.Min(info.Capacity)
	}

	cached := *info
	a.slaves[cached.ID] = &slaveState{
		info: &cached,
		used: cached.Capacity.Sub(free).Clamp(),
	}

	a.logger.Info("slave added",
		zap.String("slaveID", string(cached.ID)),
		zap.String("hostname", cached.Hostname),
		zap.Stringer("capacity", cached.Capacity),
		zap.Stringer("free", free))

	a.makeNewOffers()
}

// SlaveRemoved implements Allocator.
func (a *SimpleAllocator) SlaveRemoved(id model.SlaveID) {
	if _, ok := a.slaves[id]; !ok {
		// idempotent by contract, so no warning here
		a.logger.Debug("removing unknown slave, no-op",
			zap.String("slaveID", string(id)))
		return
	}
	delete(a.slaves, id)
	delete(a.refusers, id)

	for key, task := range a.tasks {
		if task.SlaveID != id {
			continue
		}
		delete(a.tasks, key)
		if fw, ok := a.frameworks[task.FrameworkID]; ok {
			fw.allocated = fw.allocated.Sub(task.Resources).Clamp()
		}
	}

	// Outstanding offers lose the removed slave's slice; an offer left
	// with no slices is dropped entirely.
	for offerID, rec := range a.offers {
		res, ok := rec.slaves[id]
		if !ok {
			continue
		}
		delete(rec.slaves, id)
		if fw, ok := a.frameworks[rec.offer.FrameworkID]; ok {
			fw.allocated = fw.allocated.Sub(res).Clamp()
		}
		if len(rec.slaves) == 0 {
			delete(a.offers, offerID)
		}
	}

	a.logger.Info("slave removed", zap.String("slaveID", string(id)))
	a.collectMetrics()
}

// TaskAdded implements Allocator.
func (a *SimpleAllocator) TaskAdded(task *model.TaskInfo) {
	if _, ok := a.slaves[task.SlaveID]; !ok {
		a.logger.Warn("task added on unknown slave, ignoring",
			zap.Stringer("task", task),
			zap.Error(cerrors.ErrUnknownSlave.GenWithStackByArgs(task.SlaveID)))
		return
	}
	key := taskKey{framework: task.FrameworkID, task: task.ID}
	if _, ok := a.tasks[key]; ok {
		a.logger.Warn("task already tracked, ignoring", zap.Stringer("task", task))
		return
	}
	cached := *task
	a.tasks[key] = &cached
	a.logger.Debug("task added", zap.Stringer("task", task))
}

// TaskRemoved implements Allocator.
func (a *SimpleAllocator) TaskRemoved(task *model.TaskInfo, reason model.TaskRemovalReason) {
	slave, ok := a.slaves[task.SlaveID]
	if !ok {
		a.logger.Warn("task removed on unknown slave, ignoring",
			zap.Stringer("task", task),
			zap.Stringer("reason", reason),
			zap.Error(cerrors.ErrUnknownSlave.GenWithStackByArgs(task.SlaveID)))
		return
	}

	key := taskKey{framework: task.FrameworkID, task: task.ID}
	if _, tracked := a.tasks[key]; tracked {
		delete(a.tasks, key)
	} else {
		// The coordinator is the source of truth; free the resources
		// even for a task we never saw launched.
		a.logger.Debug("removed task was not tracked",
			zap.Stringer("task", task),
			zap.Error(cerrors.ErrUnknownTask.GenWithStackByArgs(task.ID)))
	}

	freed := task.Resources
	if !freed.LessOrEqual(slave.used) {
		a.logger.Error("freed resources exceed the slave's used amount, clamping",
			zap.Stringer("task", task),
			zap.Stringer("used", slave.used))
		freed = freed.Min(slave.used)
	}
	slave.used = slave.used.Sub(freed).Clamp()

	if fw, ok := a.frameworks[task.FrameworkID]; ok {
		fw.allocated = fw.allocated.Sub(freed).Clamp()
	}

	// the slave just became more attractive
	if !freed.IsZero() {
		delete(a.refusers, task.SlaveID)
	}

	tasksRemovedCounter.WithLabelValues(reason.String()).Inc()
	a.logger.Info("task removed",
		zap.Stringer("task", task),
		zap.Stringer("reason", reason),
		zap.Stringer("slaveFree", slave.free()))

	a.makeNewOffers()
}

// OfferReturned implements Allocator.
func (a *SimpleAllocator) OfferReturned(
	id model.OfferID, reason model.OfferReturnReason, resourcesLeft []model.SlaveResources,
) {
	rec, ok := a.offers[id]
	if !ok {
		a.logger.Warn("returned offer is not outstanding, ignoring",
			zap.String("offerID", string(id)),
			zap.Stringer("reason", reason),
			zap.Error(cerrors.ErrUnknownOffer.GenWithStackByArgs(id)))
		return
	}
	delete(a.offers, id)

	leftBySlave := make(map[model.SlaveID]model.Resources, len(resourcesLeft))
	for _, sr := range resourcesLeft {
		leftBySlave[sr.SlaveID] = leftBySlave[sr.SlaveID].Add(sr.Resources)
	}

	fw := a.frameworks[rec.offer.FrameworkID] // nil if removed meanwhile
	for slaveID, offered := range rec.slaves {
		slave, ok := a.slaves[slaveID]
		if !ok {
			a.logger.Debug("returned offer references a removed slave",
				zap.String("offerID", string(id)),
				zap.String("slaveID", string(slaveID)))
			delete(leftBySlave, slaveID)
			continue
		}
		slave.offered = slave.offered.Sub(offered).Clamp()

		leftover := leftBySlave[slaveID]
		delete(leftBySlave, slaveID)
		if !leftover.LessOrEqual(offered) {
			a.logger.Error("returned resources exceed the offered amount, clamping",
				zap.String("offerID", string(id)),
				zap.String("slaveID", string(slaveID)),
				zap.Stringer("offered", offered),
				zap.Stringer("leftover", leftover),
				zap.Error(cerrors.ErrResourceOverflow.GenWithStackByArgs(id, slaveID)))
			leftover = leftover.Min(offered)
		}

		// whatever was not handed back is now held by launched tasks
		consumed := offered.Sub(leftover).Clamp()
		slave.used = slave.used.Add(consumed)

		if fw != nil {
			fw.allocated = fw.allocated.Sub(leftover).Clamp()
			if reason.IsRefusal() {
				set := a.refusers[slaveID]
				if set == nil {
					set = map[model.FrameworkID]time.Time{}
					a.refusers[slaveID] = set
				}
				set[rec.offer.FrameworkID] = a.filterDeadline()
			}
		}
	}
	for slaveID := range leftBySlave {
		a.logger.Warn("leftover resources reference a slave outside the offer, ignoring",
			zap.String("offerID", string(id)),
			zap.String("slaveID", string(slaveID)))
	}

	offersReturnedCounter.WithLabelValues(reason.String()).Inc()
	a.logger.Info("offer returned",
		zap.String("offerID", string(id)),
		zap.String("frameworkID", string(rec.offer.FrameworkID)),
		zap.Stringer("reason", reason))

	a.makeNewOffers()
}

// OffersRevived implements Allocator.
func (a *SimpleAllocator) OffersRevived(id model.FrameworkID) {
	if _, ok := a.frameworks[id]; !ok {
		a.logger.Warn("reviving offers for unknown framework, ignoring",
			zap.String("frameworkID", string(id)),
			zap.Error(cerrors.ErrUnknownFramework.GenWithStackByArgs(id)))
		return
	}

	for slaveID, set := range a.refusers {
		if _, ok := set[id]; !ok {
			continue
		}
		delete(set, id)
		if len(set) == 0 {
			delete(a.refusers, slaveID)
		}
	}

	a.logger.Info("offers revived", zap.String("frameworkID", string(id)))
	a.makeNewOffers()
}

// TimerTick implements Allocator.
func (a *SimpleAllocator) TimerTick() {
	a.expireRefusals()
	a.makeNewOffers()
}

// filterDeadline computes when a fresh refusal decays. The zero time
// means it never decays on its own.
func (a *SimpleAllocator) filterDeadline() time.Time {
	if a.cfg.FilterTimeout == 0 {
		return time.Time{}
	}
	return a.clock.Now().Add(time.Duration(a.cfg.FilterTimeout))
}

func (a *SimpleAllocator) refusalExpired(deadline time.Time, now time.Time) bool {
	return !deadline.IsZero() && !now.Before(deadline)
}

// expireRefusals sweeps refusal entries whose decay deadline has passed.
func (a *SimpleAllocator) expireRefusals() {
	now := a.clock.Now()
	for slaveID, set := range a.refusers {
		for frameworkID, deadline := range set {
			if a.refusalExpired(deadline, now) {
				delete(set, frameworkID)
				a.logger.Debug("refusal decayed",
					zap.String("slaveID", string(slaveID)),
					zap.String("frameworkID", string(frameworkID)))
			}
		}
		if len(set) == 0 {
			delete(a.refusers, slaveID)
		}
	}
}

func (a *SimpleAllocator) isRefuser(
	slaveID model.SlaveID, frameworkID model.FrameworkID, now time.Time,
) bool {
	set, ok := a.refusers[slaveID]
	if !ok {
		return false
	}
	deadline, ok := set[frameworkID]
	if !ok {
		return false
	}
	if a.refusalExpired(deadline, now) {
		delete(set, frameworkID)
		if len(set) == 0 {
			delete(a.refusers, slaveID)
		}
		return false
	}
	return true
}

func (a *SimpleAllocator) activeRefuserCount(slaveID model.SlaveID, now time.Time) int {
	count := 0
	for _, deadline := range a.refusers[slaveID] {
		if !a.refusalExpired(deadline, now) {
			count++
		}
	}
	return count
}

// getAllocationOrdering returns the frameworks in the order offers are
// attempted. The comparator is a total order (shares, then unique
// registration sequence), so the result is identical for identical
// state regardless of map iteration order.
func (a *SimpleAllocator) getAllocationOrdering() []*frameworkState {
	ordering := make([]*frameworkState, 0, len(a.frameworks))
	for _, fw := range a.frameworks {
		ordering = append(ordering, fw)
	}
	sort.SliceStable(ordering, func(i, j int) bool {
		si, sj := ordering[i].share(), ordering[j].share()
		if si != sj {
			return si < sj
		}
		return ordering[i].seq < ordering[j].seq
	})
	return ordering
}

// makeNewOffers looks at the full state of the cluster and sends out
// offers. It is bounded by O(frameworks x slaves) and never blocks.
func (a *SimpleAllocator) makeNewOffers() {
	start := a.clock.Mono()
	defer func() {
		offerPassDuration.Observe(a.clock.Mono().Sub(start).Seconds())
		a.collectMetrics()
	}()

	ordering := a.getAllocationOrdering()
	if len(ordering) == 0 {
		return
	}

	minOffer := model.Resources{
		CPUs:     a.cfg.MinOfferCPUs,
		MemoryMB: a.cfg.MinOfferMemoryMB,
	}

	// Collect the free resources worth offering, in a deterministic
	// slave order.
	free := make(map[model.SlaveID]model.Resources)
	order := make([]model.SlaveID, 0, len(a.slaves))
	for slaveID, slave := range a.slaves {
		f := slave.free()
		if f.IsZero() || !f.Covers(minOffer) {
			continue
		}
		free[slaveID] = f
		order = append(order, slaveID)
	}
	if len(order) == 0 {
		return
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	now := a.clock.Now()

	// A slave refused by every registered framework must not starve:
	// clear its record wholesale and retry it in this very pass.
	for _, slaveID := range order {
		if a.activeRefuserCount(slaveID, now) >= len(a.frameworks) {
			delete(a.refusers, slaveID)
			a.logger.Info("every framework refused slave, clearing its refusal record",
				zap.String("slaveID", string(slaveID)))
		}
	}

	var batch []*model.SlotOffer
	for _, fw := range ordering {
		var offerable []model.SlaveResources
		for _, slaveID := range order {
			res, ok := free[slaveID]
			if !ok {
				continue
			}
			if a.isRefuser(slaveID, fw.info.ID, now) {
				continue
			}
			offerable = append(offerable, model.SlaveResources{
				SlaveID:   slaveID,
				Resources: res,
			})
		}
		if len(offerable) == 0 {
			continue
		}

		offer := &model.SlotOffer{
			ID:          model.OfferID(uuid.New().String()),
			FrameworkID: fw.info.ID,
			Resources:   offerable,
		}
		rec := &offerRecord{
			offer:  offer,
			slaves: make(map[model.SlaveID]model.Resources, len(offerable)),
		}
		for _, sr := range offerable {
			// provisionally consumed, so the same quantity cannot be
			// offered twice within this pass
			delete(free, sr.SlaveID)
			rec.slaves[sr.SlaveID] = sr.Resources
			a.slaves[sr.SlaveID].offered = a.slaves[sr.SlaveID].offered.Add(sr.Resources)
		}
		fw.allocated = fw.allocated.Add(offer.Total())
		a.offers[offer.ID] = rec
		batch = append(batch, offer)

		a.logger.Info("making offer", zap.Stringer("offer", offer))
	}

	if len(batch) > 0 {
		offersMadeCounter.Add(float64(len(batch)))
		a.sink.SendOffers(batch)
	}
}
