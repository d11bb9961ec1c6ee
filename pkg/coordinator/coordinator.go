/*
Copyright © 2020 Marvin

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package coordinator

import (
	"context"
	"sort"
	"time"

	"github.com/wentaojin/dbload/logger"
	"github.com/wentaojin/dbload/pkg/config"
	"github.com/wentaojin/dbload/pkg/errs"
	"github.com/wentaojin/dbload/pkg/generator"
	"github.com/wentaojin/dbload/pkg/progress"
	"github.com/wentaojin/dbload/pkg/worker"
	"github.com/wentaojin/dbload/utils/retry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Provisioner interface {
	Provision(ctx context.Context) error
}

// ProvisionFunc adapts a function to Provisioner
type ProvisionFunc func(ctx context.Context) error

func (f ProvisionFunc) Provision(ctx context.Context) error {
	return f(ctx)
}

// Aggregate is computed once, after every worker reached a terminal state.
//
// TargetRecords and TargetTPS reproduce the historical headline figure built from the
// configured totals, which overstates throughput when workers fail. TotalRecords and TPS
// only count committed batches and are the figures to trust.
type Aggregate struct {
	Workers       int
	TargetRecords int64
	TotalRecords  int64
	Failed        int
	StartedAt     time.Time
	Elapsed       time.Duration
	TPS           float64
	TargetTPS     float64
	Results       []*worker.Result
}

type Coordinator struct {
	Config      *config.RunConfig
	Provisioner Provisioner
	Open        worker.Opener
	// Retry defaults to a policy built from Config.Retry retrying every error
	Retry        retry.Policy
	Publisher    progress.Publisher
	NewGenerator func(workerID int) *generator.Generator
}

// Run provisions the schema, fans the workers out and joins them. Only a provisioning
// failure is returned as an error, worker failures are reported in the aggregate.
func (c *Coordinator) Run(ctx context.Context) (*Aggregate, error) {
	cfg := c.Config
	if cfg == nil || c.Open == nil {
		return nil, errs.ErrConfigInvalid.New("coordinator needs a run config and a worker opener")
	}

	if c.Provisioner != nil {
		if err := c.Provisioner.Provision(ctx); err != nil {
			if !errs.IsProvisioning(err) {
				err = errs.ErrProvisioning.Wrap(err, "provision schema failed")
			}
			return nil, err
		}
	}

	policy := c.Retry
	if policy == nil {
		policy = retry.NewPolicy(cfg.Retry.MaxRetries, cfg.Retry.Delay, cfg.Retry.MaxDelay, nil)
	}

	logger.Info("load run starting",
		zap.Int("workers", cfg.Workers),
		zap.Int("records_per_worker", cfg.RecordsPerWorker),
		zap.Int("batch_size", cfg.BatchSize),
		zap.Int("max_parallel", cfg.MaxParallel))

	results := make([]*worker.Result, cfg.Workers)

	g := &errgroup.Group{}
	if cfg.MaxParallel > 0 {
		g.SetLimit(cfg.MaxParallel)
	}

	startTime := time.Now()
	for i := 0; i < cfg.Workers; i++ {
		w := &worker.Worker{
			ID:           i,
			Target:       cfg.RecordsPerWorker,
			BatchSize:    cfg.BatchSize,
			Open:         c.Open,
			Retry:        policy,
			Publisher:    c.Publisher,
			NewGenerator: c.NewGenerator,
		}
		slot := i
		g.Go(func() error {
			results[slot] = w.Run(ctx)
			return nil
		})
	}
	// workers never return an error, failures travel in their results
	_ = g.Wait()
	elapsed := time.Since(startTime)

	agg := aggregate(cfg, results, startTime, elapsed)
	logger.Info("load run finished",
		zap.Int64("target_records", agg.TargetRecords),
		zap.Int64("total_records", agg.TotalRecords),
		zap.Int("failed_workers", agg.Failed),
		zap.Duration("elapsed", agg.Elapsed),
		zap.Float64("tps", agg.TPS))
	return agg, nil
}

func aggregate(cfg *config.RunConfig, results []*worker.Result, startTime time.Time, elapsed time.Duration) *Aggregate {
	agg := &Aggregate{
		Workers:       cfg.Workers,
		TargetRecords: cfg.TargetRecords(),
		StartedAt:     startTime,
		Elapsed:       elapsed,
		Results:       results,
	}
	for _, r := range results {
		agg.TotalRecords += int64(r.Written)
		if r.State == worker.StateFailed {
			agg.Failed++
		}
	}
	sort.Slice(agg.Results, func(i, j int) bool {
		return agg.Results[i].WorkerID < agg.Results[j].WorkerID
	})
	agg.TPS = progress.Rate(agg.TotalRecords, elapsed)
	agg.TargetTPS = progress.Rate(agg.TargetRecords, elapsed)
	return agg
}

// FailedResults returns the results of failed workers
func (a *Aggregate) FailedResults() []*worker.Result {
	var failed []*worker.Result
	for _, r := range a.Results {
		if r.State == worker.StateFailed {
			failed = append(failed, r)
		}
	}
	return failed
}
