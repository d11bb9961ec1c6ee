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
package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wentaojin/dbload/database/sqlite"
	"github.com/wentaojin/dbload/pkg/config"
	"github.com/wentaojin/dbload/pkg/coordinator"
	"github.com/wentaojin/dbload/pkg/worker"
	"github.com/xuri/excelize/v2"
)

func newReport() *Report {
	cfg := config.Default()
	cfg.Workers = 2
	cfg.RecordsPerWorker = 100
	cfg.BatchSize = 50

	agg := &coordinator.Aggregate{
		Workers:       2,
		TargetRecords: 200,
		TotalRecords:  150,
		Failed:        1,
		StartedAt:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Elapsed:       3 * time.Second,
		TPS:           50,
		TargetTPS:     66.666666,
		Results: []*worker.Result{
			{WorkerID: 0, State: worker.StateDone, Written: 100, Target: 100, Batches: 2, Elapsed: 2 * time.Second, TPS: 50},
			{WorkerID: 1, State: worker.StateFailed, Written: 50, Target: 100, Batches: 1, Retries: 2, Elapsed: 3 * time.Second, TPS: 16.6666, Err: errors.New("deadlock found")},
		},
	}
	return New("run-1", cfg, agg)
}

func TestNew(t *testing.T) {
	r := newReport()
	assert.Equal(t, "run-1", r.Summary.RunID)
	assert.Equal(t, "root@localhost:6033/testdb.messages", r.Summary.Target)
	assert.Equal(t, 66.67, r.Summary.TargetTPS)
	assert.Equal(t, 3.0, r.Summary.ElapsedSeconds)
	require.Len(t, r.Workers, 2)
	assert.Equal(t, "failed", r.Workers[1].State)
	assert.Equal(t, 16.67, r.Workers[1].TPS)
	assert.Equal(t, "deadlock found", r.Workers[1].Error)
	assert.Empty(t, r.Workers[0].Error)
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newReport().Print(&buf, OutputTable))
	out := buf.String()
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "66.67")
	assert.Contains(t, out, "Target TPS")
	assert.Contains(t, out, "worker 1 failed after 50 of 100 records: deadlock found")
	assert.Contains(t, out, "target tps 66.67 counts the configured 200 records, 150 were written")
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newReport().Print(&buf, "JSON"))

	dec := json.NewDecoder(&buf)
	var got Report
	require.NoError(t, dec.Decode(&got))
	assert.Equal(t, int64(150), got.Summary.TotalRecords)
	assert.Equal(t, 50.0, got.Summary.TPS)
	require.Len(t, got.Workers, 2)
	assert.Equal(t, 2, got.Workers[1].Retries)

	require.Error(t, newReport().Print(&buf, "csv"))
}

func TestHistoryRoundTrip(t *testing.T) {
	r := newReport()
	run := r.History()
	assert.Equal(t, "messages", run.TargetTable)
	require.Len(t, run.WorkerRuns, 2)
	assert.Equal(t, "run-1", run.WorkerRuns[1].RunID)

	back := FromHistory(run)
	assert.Equal(t, r.Summary, back.Summary)
	assert.Equal(t, r.Workers, back.Workers)
}

func TestHistoryTable(t *testing.T) {
	out := HistoryTable([]*sqlite.Run{newReport().History()})
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "2026-01-02 03:04:05")
}

func TestExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, newReport().Export(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetWorkers)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Worker", rows[0][0])
	assert.Equal(t, "deadlock found", rows[2][8])

	summary, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	assert.Equal(t, []string{"Run ID", "run-1"}, summary[1])
	assert.Equal(t, []string{"Total Records", "150"}, summary[9])
}
