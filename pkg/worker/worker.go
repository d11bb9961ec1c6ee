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
package worker

import (
	"context"
	"time"

	"github.com/joomcode/errorx"
	"github.com/wentaojin/dbload/logger"
	"github.com/wentaojin/dbload/pkg/errs"
	"github.com/wentaojin/dbload/pkg/generator"
	"github.com/wentaojin/dbload/pkg/progress"
	"github.com/wentaojin/dbload/pkg/writer"
	"github.com/wentaojin/dbload/utils/retry"
	"go.uber.org/zap"
)

type State int

const (
	StateInit State = iota
	StateRunning
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Opener acquires the dedicated batch writer of a worker
type Opener func(ctx context.Context, workerID int) (writer.BatchWriter, error)

// Result is produced once, when the worker reaches a terminal state
type Result struct {
	WorkerID int
	State    State
	Written  int
	Target   int
	Batches  int
	Retries  int
	Elapsed  time.Duration
	TPS      float64
	Err      error
}

type Worker struct {
	ID        int
	Target    int
	BatchSize int
	Open      Opener
	Retry     retry.Policy
	Publisher progress.Publisher
	// NewGenerator defaults to generator.New
	NewGenerator func(workerID int) *generator.Generator

	state State
}

func (w *Worker) State() State {
	return w.state
}

// BatchSizes returns the sizes of the batches a worker issues for target records
func BatchSizes(target, batchSize int) []int {
	var sizes []int
	if batchSize <= 0 {
		return sizes
	}
	for remaining := target; remaining > 0; {
		n := batchSize
		if remaining < n {
			n = remaining
		}
		sizes = append(sizes, n)
		remaining -= n
	}
	return sizes
}

// Run drives the worker to Done or Failed. Errors never escape, they are carried by the result.
func (w *Worker) Run(ctx context.Context) *Result {
	w.state = StateInit
	pub := w.Publisher
	if pub == nil {
		pub = progress.Discard{}
	}
	newGen := w.NewGenerator
	if newGen == nil {
		newGen = generator.New
	}
	lg := logger.With(zap.Int("worker", w.ID))

	res := &Result{WorkerID: w.ID, Target: w.Target}
	startTime := time.Now()

	if w.BatchSize <= 0 && w.Target > 0 {
		return w.finish(pub, res, startTime, errs.ErrConfigInvalid.New("batch size must be positive, got %d", w.BatchSize))
	}

	bw, err := w.Open(ctx, w.ID)
	if err != nil {
		lg.Error("worker connect failed", zap.Error(err))
		return w.finish(pub, res, startTime, err)
	}

	w.state = StateRunning
	err = w.loop(ctx, lg, bw, newGen(w.ID), pub, res, startTime)
	if cerr := bw.Close(); cerr != nil {
		lg.Warn("worker close connection failed", zap.Error(cerr))
	}
	return w.finish(pub, res, startTime, err)
}

func (w *Worker) loop(ctx context.Context, lg *zap.Logger, bw writer.BatchWriter, gen *generator.Generator,
	pub progress.Publisher, res *Result, startTime time.Time) error {
	remaining := w.Target
	for remaining > 0 {
		if err := ctx.Err(); err != nil {
			lg.Warn("worker canceled", zap.Int("written", res.Written), zap.Error(err))
			return err
		}
		n := w.BatchSize
		if remaining < n {
			n = remaining
		}
		rows := gen.Batch(n)

		retries, err := retry.Do(ctx, w.Retry, func(ctx context.Context) error {
			return bw.WriteBatch(ctx, rows)
		})
		res.Retries += retries
		if err != nil {
			if e := errorx.Cast(err); e != nil {
				err = e.WithProperty(errs.ErrPropWorkerID, w.ID).WithProperty(errs.ErrPropBatch, res.Batches+1)
			}
			lg.Error("worker write batch failed",
				zap.Int("batch", res.Batches+1),
				zap.Int("written", res.Written),
				zap.Int("retries", retries),
				zap.Error(err))
			return err
		}

		remaining -= n
		res.Written += n
		res.Batches++

		elapsed := time.Since(startTime)
		pub.PublishSample(progress.Sample{
			WorkerID: w.ID,
			Written:  res.Written,
			Target:   w.Target,
			Batches:  res.Batches,
			Elapsed:  elapsed,
			TPS:      progress.Rate(int64(res.Written), elapsed),
		})
	}
	return nil
}

func (w *Worker) finish(pub progress.Publisher, res *Result, startTime time.Time, err error) *Result {
	res.Elapsed = time.Since(startTime)
	res.TPS = progress.Rate(int64(res.Written), res.Elapsed)
	res.Err = err
	if err != nil {
		w.state = StateFailed
	} else {
		w.state = StateDone
	}
	res.State = w.state

	pub.PublishFinish(progress.Finish{
		WorkerID: res.WorkerID,
		State:    res.State.String(),
		Written:  res.Written,
		Target:   res.Target,
		Batches:  res.Batches,
		Elapsed:  res.Elapsed,
		TPS:      res.TPS,
		Err:      err,
	})
	return res
}
