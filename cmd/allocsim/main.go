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

// allocsim plays coordinator against the allocator: it registers a
// synthetic cluster, accepts or refuses the resulting offers at random,
// completes tasks over time, and reports what the allocator did.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/pingcap/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fleetsched/fleetsched/allocator"
	"github.com/fleetsched/fleetsched/pkg/clock"
	"github.com/fleetsched/fleetsched/pkg/config"
	"github.com/fleetsched/fleetsched/pkg/model"
)

var (
	configFile     string
	logLevel       string
	slaveCount     int
	frameworkCount int
	duration       time.Duration
	seed           int64
	metricsAddr    string
)

func main() {
	cmd := &cobra.Command{
		Use:          "allocsim",
		Short:        "Run a scripted cluster simulation against the fleetsched allocator",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
	cmd.Flags().StringVar(&configFile, "config", "", "allocator configuration file")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level")
	cmd.Flags().IntVar(&slaveCount, "slaves", 4, "number of simulated slaves")
	cmd.Flags().IntVar(&frameworkCount, "frameworks", 3, "number of simulated frameworks")
	cmd.Flags().DurationVar(&duration, "duration", 3*time.Second, "how long to run the simulation")
	cmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "address to serve prometheus metrics on, empty to disable")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type coordinator struct {
	loop *allocator.EventLoop
	rng  *rand.Rand

	mu       sync.Mutex
	running  []*model.TaskInfo
	nextTask int
	journal  []*model.StateEntry

	offers   int
	accepted int
	refused  int
	finished int
}

// SendOffers implements allocator.OfferSink. It must not call back into
// the event loop synchronously (the loop goroutine is the caller), so
// responses are dispatched from fresh goroutines.
func (c *coordinator) SendOffers(offers []*model.SlotOffer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, offer := range offers {
		c.offers++
		if c.rng.Intn(2) == 0 {
			c.refused++
			go c.refuse(offer)
			continue
		}
		c.accepted++
		task := &model.TaskInfo{
			ID:          model.TaskID(fmt.Sprintf("task-%d", c.nextTask)),
			FrameworkID: offer.FrameworkID,
			SlaveID:     offer.Resources[0].SlaveID,
			Resources:   offer.Resources[0].Resources,
		}
		c.nextTask++
		c.running = append(c.running, task)
		go c.accept(offer, task)
	}
}

func (c *coordinator) refuse(offer *model.SlotOffer) {
	if err := c.loop.OfferReturned(offer.ID, model.OfferRefused, offer.Resources); err != nil {
		log.Warn("refusal not delivered", zap.Error(err))
	}
}

// accept launches a task on the offer's first slave and hands back the
// other slices untouched.
func (c *coordinator) accept(offer *model.SlotOffer, task *model.TaskInfo) {
	left := offer.Resources[1:]
	if err := c.loop.OfferReturned(offer.ID, model.OfferAccepted, left); err != nil {
		log.Warn("acceptance not delivered", zap.Error(err))
		return
	}
	if err := c.loop.TaskAdded(task); err != nil {
		log.Warn("task launch not delivered", zap.Error(err))
	}
}

// completeOne finishes the oldest running task, freeing its resources.
func (c *coordinator) completeOne() {
	c.mu.Lock()
	if len(c.running) == 0 {
		c.mu.Unlock()
		return
	}
	task := c.running[0]
	c.running = c.running[1:]
	c.finished++
	c.mu.Unlock()

	if err := c.loop.TaskRemoved(task, model.TaskFinished); err != nil {
		log.Warn("task completion not delivered", zap.Error(err))
	}
}

// record appends a durability entry the way the real coordinator would
// persist registrations for recovery.
func (c *coordinator) record(name string, typ model.StateEntryType, v any) {
	value, err := json.Marshal(v)
	if err != nil {
		log.Panic("marshaling state entry", zap.Error(err))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.journal = append(c.journal, model.NewStateEntry(name, typ, value))
}

func run() error {
	lg, props, err := log.InitLogger(&log.Config{Level: logLevel})
	if err != nil {
		return err
	}
	log.ReplaceGlobals(lg, props)

	cfg := config.GetDefaultAllocatorConfig()
	if configFile != "" {
		if cfg, err = config.FromTomlFile(configFile); err != nil {
			return err
		}
	} else if err = cfg.ValidateAndAdjust(); err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	allocator.InitMetrics(registry)
	if metricsAddr != "" {
		go func() {
			handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
			mux := http.NewServeMux()
			mux.Handle("/metrics", handler)
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				log.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	clk := clock.New()
	coord := &coordinator{rng: rand.New(rand.NewSource(seed))}
	alloc := allocator.NewSimpleAllocator(cfg, clk, coord)
	coord.loop = allocator.NewEventLoop(alloc, clk, time.Duration(cfg.TickInterval))

	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := coord.loop.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error("event loop stopped", zap.Error(err))
		}
	}()

	for i := 0; i < frameworkCount; i++ {
		info := &model.FrameworkInfo{
			ID:     model.FrameworkID(fmt.Sprintf("framework-%d", i)),
			Name:   fmt.Sprintf("sim-framework-%d", i),
			Weight: float64(1 + i%2),
		}
		coord.record("frameworks/"+string(info.ID), model.StateEntryFramework, info)
		if err := coord.loop.FrameworkAdded(info); err != nil {
			return err
		}
	}
	for i := 0; i < slaveCount; i++ {
		info := &model.SlaveInfo{
			ID:       model.SlaveID(fmt.Sprintf("slave-%d", i)),
			Hostname: fmt.Sprintf("node-%d.sim", i),
			Capacity: model.Resources{CPUs: 8, MemoryMB: 16384},
		}
		coord.record("slaves/"+string(info.ID), model.StateEntrySlave, info)
		if err := coord.loop.SlaveAdded(info, info.Capacity); err != nil {
			return err
		}
	}

	completion := time.NewTicker(200 * time.Millisecond)
	defer completion.Stop()
	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			coord.mu.Lock()
			defer coord.mu.Unlock()
			log.Info("simulation finished",
				zap.Int("offers", coord.offers),
				zap.Int("accepted", coord.accepted),
				zap.Int("refused", coord.refused),
				zap.Int("tasksFinished", coord.finished),
				zap.Int("tasksRunning", len(coord.running)),
				zap.Int("journalEntries", len(coord.journal)))
			return nil
		case <-completion.C:
			coord.completeOne()
		}
	}
}
