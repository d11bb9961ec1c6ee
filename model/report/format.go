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
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/wentaojin/dbload/database/sqlite"
)

var (
	workerColumns  = []string{"Worker", "State", "Written", "Target", "Batches", "Retries", "Elapsed(s)", "TPS", "Error"}
	historyColumns = []string{"Run ID", "Driver", "Target", "Workers", "Target Records", "Total Records", "Failed", "Elapsed(s)", "TPS", "Started At"}
)

// Table renders the per worker rows and the aggregate footer
func (r *Report) Table() string {
	rows := make([][]interface{}, 0, len(r.Workers))
	for _, w := range r.Workers {
		rows = append(rows, []interface{}{w.WorkerID, w.State, w.Written, w.Target, w.Batches, w.Retries, fixed(w.ElapsedSeconds), fixed(w.TPS), w.Error})
	}

	s := r.Summary
	t := newTableWriter(fmt.Sprintf("run %s  %s", s.RunID, s.Target), workerColumns, rows)
	t.AppendFooter(table.Row{"Total", fmt.Sprintf("%d failed", s.FailedWorkers), s.TotalRecords, s.TargetRecords, "", "", fixed(s.ElapsedSeconds), fixed(s.TPS), ""})

	summary := newTableWriter("summary", []string{"Metric", "Value"}, [][]interface{}{
		{"Workers", s.Workers},
		{"Records Per Worker", s.RecordsPerWorker},
		{"Batch Size", s.BatchSize},
		{"Target Records", s.TargetRecords},
		{"Total Records", s.TotalRecords},
		{"Failed Workers", s.FailedWorkers},
		{"Elapsed(s)", fixed(s.ElapsedSeconds)},
		{"TPS", fixed(s.TPS)},
		{"Target TPS", fixed(s.TargetTPS)},
	})
	return t.Render() + "\n\n" + summary.Render()
}

// HistoryTable renders stored runs, newest first as given
func HistoryTable(runs []*sqlite.Run) string {
	rows := make([][]interface{}, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []interface{}{
			run.RunID, run.Driver, run.Target, run.Workers, run.TargetRecords, run.TotalRecords, run.FailedWorkers,
			fixed(run.ElapsedSeconds), fixed(run.TPS), run.StartedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return newTableWriter("", historyColumns, rows).Render()
}

func newTableWriter(title string, columns []string, rows [][]interface{}) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	if !strings.EqualFold(title, "") {
		t.SetTitle(title)
	}

	var header table.Row
	for _, c := range columns {
		header = append(header, c)
	}
	t.AppendHeader(header)
	t.AppendSeparator()

	var newRows []table.Row
	for _, row := range rows {
		var newRow table.Row
		for _, v := range row[:len(columns)] {
			newRow = append(newRow, v)
		}
		newRows = append(newRows, newRow)
	}
	t.AppendRows(newRows)
	return t
}
