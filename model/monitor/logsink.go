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
package monitor

import (
	"github.com/wentaojin/dbload/logger"
	"github.com/wentaojin/dbload/pkg/progress"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// LogSink writes one line per committed batch and one per finished worker
type LogSink struct {
	workers int
	quiet   bool

	batches  *atomic.Int64
	finished *atomic.Int64
	failed   *atomic.Int64
}

// NewLogSink builds a sink for a run of workers, quiet keeps only the completion lines
func NewLogSink(workers int, quiet bool) *LogSink {
	return &LogSink{
		workers:  workers,
		quiet:    quiet,
		batches:  atomic.NewInt64(0),
		finished: atomic.NewInt64(0),
		failed:   atomic.NewInt64(0),
	}
}

func (s *LogSink) Attach(bus *progress.Bus) error {
	if err := bus.SubscribeSample(s.OnSample); err != nil {
		return err
	}
	return bus.SubscribeFinish(s.OnFinish)
}

func (s *LogSink) OnSample(sm progress.Sample) {
	s.batches.Inc()
	if s.quiet {
		return
	}
	logger.Info("batch committed",
		zap.Int("worker_id", sm.WorkerID),
		zap.Int("batch", sm.Batches),
		zap.Int("written", sm.Written),
		zap.Int("target", sm.Target),
		zap.String("tps", formatRate(sm.TPS)))
}

func (s *LogSink) OnFinish(f progress.Finish) {
	finished := s.finished.Inc()
	fields := []zap.Field{
		zap.Int("worker_id", f.WorkerID),
		zap.String("state", f.State),
		zap.Int("written", f.Written),
		zap.Int("target", f.Target),
		zap.Duration("elapsed", f.Elapsed),
		zap.String("tps", formatRate(f.TPS)),
		zap.String("finished", progressOf(finished, s.workers)),
	}
	if f.Err != nil {
		s.failed.Inc()
		logger.Error("worker failed", append(fields, zap.Error(f.Err))...)
		return
	}
	logger.Info("worker done", fields...)
}

func (s *LogSink) Batches() int64 {
	return s.batches.Load()
}

func (s *LogSink) Finished() int64 {
	return s.finished.Load()
}

func (s *LogSink) Failed() int64 {
	return s.failed.Load()
}
