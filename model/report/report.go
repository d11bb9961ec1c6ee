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
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/tidwall/pretty"
	"github.com/wentaojin/dbload/database/sqlite"
	"github.com/wentaojin/dbload/pkg/config"
	"github.com/wentaojin/dbload/pkg/coordinator"
)

const (
	OutputTable = "table"
	OutputJSON  = "json"
)

// Summary is the run level part of the report
type Summary struct {
	RunID            string    `json:"runID"`
	Driver           string    `json:"driver"`
	Target           string    `json:"target"`
	Table            string    `json:"table"`
	Workers          int       `json:"workers"`
	RecordsPerWorker int       `json:"recordsPerWorker"`
	BatchSize        int       `json:"batchSize"`
	TargetRecords    int64     `json:"targetRecords"`
	TotalRecords     int64     `json:"totalRecords"`
	FailedWorkers    int       `json:"failedWorkers"`
	StartedAt        time.Time `json:"startedAt"`
	ElapsedSeconds   float64   `json:"elapsedSeconds"`
	TPS              float64   `json:"tps"`
	TargetTPS        float64   `json:"targetTPS"`
}

type WorkerRow struct {
	WorkerID       int     `json:"workerID"`
	State          string  `json:"state"`
	Written        int64   `json:"written"`
	Target         int     `json:"target"`
	Batches        int     `json:"batches"`
	Retries        int     `json:"retries"`
	ElapsedSeconds float64 `json:"elapsedSeconds"`
	TPS            float64 `json:"tps"`
	Error          string  `json:"error,omitempty"`
}

type Report struct {
	Summary Summary      `json:"summary"`
	Workers []*WorkerRow `json:"workers"`
}

// New builds the report of a finished run, figures are rounded to 2 places
func New(runID string, cfg *config.RunConfig, agg *coordinator.Aggregate) *Report {
	r := &Report{
		Summary: Summary{
			RunID:            runID,
			Driver:           cfg.Connection.Driver,
			Target:           cfg.Address(),
			Table:            cfg.Connection.Table,
			Workers:          agg.Workers,
			RecordsPerWorker: cfg.RecordsPerWorker,
			BatchSize:        cfg.BatchSize,
			TargetRecords:    agg.TargetRecords,
			TotalRecords:     agg.TotalRecords,
			FailedWorkers:    agg.Failed,
			StartedAt:        agg.StartedAt,
			ElapsedSeconds:   round(agg.Elapsed.Seconds()),
			TPS:              round(agg.TPS),
			TargetTPS:        round(agg.TargetTPS),
		},
	}
	for _, res := range agg.Results {
		row := &WorkerRow{
			WorkerID:       res.WorkerID,
			State:          res.State.String(),
			Written:        int64(res.Written),
			Target:         res.Target,
			Batches:        res.Batches,
			Retries:        res.Retries,
			ElapsedSeconds: round(res.Elapsed.Seconds()),
			TPS:            round(res.TPS),
		}
		if res.Err != nil {
			row.Error = res.Err.Error()
		}
		r.Workers = append(r.Workers, row)
	}
	return r
}

// FromHistory rebuilds the report of a stored run
func FromHistory(run *sqlite.Run) *Report {
	r := &Report{
		Summary: Summary{
			RunID:            run.RunID,
			Driver:           run.Driver,
			Target:           run.Target,
			Table:            run.TargetTable,
			Workers:          run.Workers,
			RecordsPerWorker: run.RecordsPerWorker,
			BatchSize:        run.BatchSize,
			TargetRecords:    run.TargetRecords,
			TotalRecords:     run.TotalRecords,
			FailedWorkers:    run.FailedWorkers,
			StartedAt:        run.StartedAt,
			ElapsedSeconds:   run.ElapsedSeconds,
			TPS:              run.TPS,
			TargetTPS:        run.TargetTPS,
		},
	}
	for _, w := range run.WorkerRuns {
		r.Workers = append(r.Workers, &WorkerRow{
			WorkerID:       w.WorkerID,
			State:          w.State,
			Written:        w.Written,
			Target:         w.Target,
			Batches:        w.Batches,
			Retries:        w.Retries,
			ElapsedSeconds: w.ElapsedSeconds,
			TPS:            w.TPS,
			Error:          w.Error,
		})
	}
	return r
}

// History converts the report into the metadata rows of the run history
func (r *Report) History() *sqlite.Run {
	s := r.Summary
	run := &sqlite.Run{
		RunID:            s.RunID,
		Driver:           s.Driver,
		Target:           s.Target,
		TargetTable:      s.Table,
		Workers:          s.Workers,
		RecordsPerWorker: s.RecordsPerWorker,
		BatchSize:        s.BatchSize,
		TargetRecords:    s.TargetRecords,
		TotalRecords:     s.TotalRecords,
		FailedWorkers:    s.FailedWorkers,
		ElapsedSeconds:   s.ElapsedSeconds,
		TPS:              s.TPS,
		TargetTPS:        s.TargetTPS,
		StartedAt:        s.StartedAt,
		Entity:           &sqlite.Entity{},
	}
	for _, w := range r.Workers {
		run.WorkerRuns = append(run.WorkerRuns, &sqlite.RunWorker{
			RunID:          s.RunID,
			WorkerID:       w.WorkerID,
			State:          w.State,
			Written:        w.Written,
			Target:         w.Target,
			Batches:        w.Batches,
			Retries:        w.Retries,
			ElapsedSeconds: w.ElapsedSeconds,
			TPS:            w.TPS,
			Error:          w.Error,
			Entity:         &sqlite.Entity{},
		})
	}
	return run
}

func (r *Report) JSON() ([]byte, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal report failed: %v", err)
	}
	return pretty.Pretty(b), nil
}

// Print writes the report in format, table or json, followed by a warning per failed worker
func (r *Report) Print(w io.Writer, format string) error {
	switch strings.ToLower(format) {
	case "", OutputTable:
		if _, err := fmt.Fprintln(w, r.Table()); err != nil {
			return err
		}
	case OutputJSON:
		b, err := r.JSON()
		if err != nil {
			return err
		}
		if _, err := w.Write(b); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported output format [%s], expect table or json", format)
	}
	return r.PrintWarnings(w)
}

func (r *Report) PrintWarnings(w io.Writer) error {
	warn := color.New(color.FgRed, color.Bold)
	for _, row := range r.Workers {
		if row.Error == "" {
			continue
		}
		if _, err := warn.Fprintf(w, "worker %d failed after %d of %d records: %s\n", row.WorkerID, row.Written, row.Target, row.Error); err != nil {
			return err
		}
	}
	if r.Summary.FailedWorkers > 0 {
		if _, err := color.New(color.FgYellow).Fprintf(w, "target tps %s counts the configured %d records, %d were written\n",
			fixed(r.Summary.TargetTPS), r.Summary.TargetRecords, r.Summary.TotalRecords); err != nil {
			return err
		}
	}
	return nil
}

func round(f float64) float64 {
	return decimal.NewFromFloat(f).Round(2).InexactFloat64()
}

func fixed(f float64) string {
	return decimal.NewFromFloat(f).StringFixed(2)
}
