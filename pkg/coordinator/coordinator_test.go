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
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wentaojin/dbload/pkg/config"
	"github.com/wentaojin/dbload/pkg/errs"
	"github.com/wentaojin/dbload/pkg/progress"
	"github.com/wentaojin/dbload/pkg/worker"
	"github.com/wentaojin/dbload/pkg/writer/writertest"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func runConfig(workers, records, batch int) *config.RunConfig {
	cfg := config.Default()
	cfg.Workers = workers
	cfg.RecordsPerWorker = records
	cfg.BatchSize = batch
	return cfg
}

func TestRunAllSucceed(t *testing.T) {
	f := &writertest.Factory{}
	c := &Coordinator{Config: runConfig(4, 1000, 250), Open: f.Open}

	agg, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, agg.Results, 4)
	for i, r := range agg.Results {
		assert.Equal(t, i, r.WorkerID)
		assert.Equal(t, worker.StateDone, r.State)
		assert.Equal(t, 1000, r.Written)
		assert.Equal(t, []int{250, 250, 250, 250}, f.Writer(i).Sizes())
		assert.True(t, f.Writer(i).Closed())
	}
	assert.Equal(t, int64(4000), agg.TotalRecords)
	assert.Equal(t, int64(4000), agg.TargetRecords)
	assert.Equal(t, 0, agg.Failed)
	assert.Empty(t, agg.FailedResults())
	assert.Greater(t, agg.Elapsed.Nanoseconds(), int64(0))
}

func TestRunOneWorkerFailsOnThirdBatch(t *testing.T) {
	f := &writertest.Factory{Configure: func(workerID int, w *writertest.Writer) {
		if workerID == 2 {
			w.FailAt = 3
		}
	}}
	c := &Coordinator{Config: runConfig(4, 1000, 250), Open: f.Open}

	agg, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, agg.Results, 4)

	for _, r := range agg.Results {
		if r.WorkerID == 2 {
			assert.Equal(t, worker.StateFailed, r.State)
			assert.Equal(t, 500, r.Written)
			assert.True(t, errs.IsWrite(r.Err))
			continue
		}
		assert.Equal(t, worker.StateDone, r.State)
		assert.Equal(t, 1000, r.Written)
		assert.NoError(t, r.Err)
	}
	assert.Equal(t, 1, agg.Failed)
	assert.Equal(t, int64(3500), agg.TotalRecords)
	assert.Equal(t, int64(4000), agg.TargetRecords)
	assert.GreaterOrEqual(t, agg.TargetTPS, agg.TPS)
	require.Len(t, agg.FailedResults(), 1)
}

func TestRunConnectionFailureIsLocal(t *testing.T) {
	f := &writertest.Factory{OpenErr: map[int]error{0: errors.New("too many connections")}}
	c := &Coordinator{Config: runConfig(3, 100, 30), Open: f.Open}

	agg, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, errs.IsConnection(agg.Results[0].Err))
	assert.Equal(t, 0, agg.Results[0].Written)
	assert.Equal(t, 100, agg.Results[1].Written)
	assert.Equal(t, 100, agg.Results[2].Written)
	assert.Equal(t, int64(200), agg.TotalRecords)
}

func TestRunZeroRecords(t *testing.T) {
	f := &writertest.Factory{}
	c := &Coordinator{Config: runConfig(8, 0, 100), Open: f.Open}

	agg, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), agg.TotalRecords)
	assert.Equal(t, 0.0, agg.TPS)
	assert.Equal(t, 0.0, agg.TargetTPS)
	assert.Equal(t, 0, agg.Failed)
}

func TestRunProvisioningFailureIsFatal(t *testing.T) {
	f := &writertest.Factory{}
	c := &Coordinator{
		Config: runConfig(2, 10, 5),
		Open:   f.Open,
		Provisioner: ProvisionFunc(func(ctx context.Context) error {
			return errors.New("access denied")
		}),
	}
	agg, err := c.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, agg)
	assert.True(t, errs.IsProvisioning(err))
	assert.Nil(t, f.Writer(0))
}

func TestRunBoundedParallelism(t *testing.T) {
	var (
		mu      sync.Mutex
		active  int
		maxSeen int
	)
	f := &writertest.Factory{}
	c := &Coordinator{
		Config: func() *config.RunConfig {
			cfg := runConfig(6, 20, 5)
			cfg.MaxParallel = 2
			return cfg
		}(),
		Open: f.Open,
		Publisher: hookPublisher{
			sample: func(s progress.Sample) {
				if s.Batches == 1 {
					mu.Lock()
					active++
					if active > maxSeen {
						maxSeen = active
					}
					mu.Unlock()
				}
			},
			finish: func(progress.Finish) {
				mu.Lock()
				active--
				mu.Unlock()
			},
		},
	}
	agg, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(120), agg.TotalRecords)
	assert.LessOrEqual(t, maxSeen, 2)
}

func TestRunPublishesThroughBus(t *testing.T) {
	bus := progress.NewBus()
	var (
		mu       sync.Mutex
		samples  int
		finished int
	)
	require.NoError(t, bus.SubscribeSample(func(progress.Sample) { mu.Lock(); samples++; mu.Unlock() }))
	require.NoError(t, bus.SubscribeFinish(func(progress.Finish) { mu.Lock(); finished++; mu.Unlock() }))

	f := &writertest.Factory{}
	c := &Coordinator{Config: runConfig(3, 100, 25), Open: f.Open, Publisher: bus}
	_, err := c.Run(context.Background())
	require.NoError(t, err)
	bus.Wait()

	assert.Equal(t, 12, samples)
	assert.Equal(t, 3, finished)
}

func TestRunNeedsOpener(t *testing.T) {
	_, err := (&Coordinator{Config: runConfig(1, 1, 1)}).Run(context.Background())
	assert.True(t, errs.IsConfigInvalid(err))
}

type hookPublisher struct {
	sample func(progress.Sample)
	finish func(progress.Finish)
}

func (h hookPublisher) PublishSample(s progress.Sample) { h.sample(s) }
func (h hookPublisher) PublishFinish(f progress.Finish) { h.finish(f) }
