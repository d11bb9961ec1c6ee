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

	"github.com/xuri/excelize/v2"
)

const (
	SheetWorkers = "workers"
	SheetSummary = "summary"
)

// Export writes the report to an xlsx workbook, failed worker rows are highlighted
func (r *Report) Export(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	titleStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{"#0000FF"},
		},
		Font: &excelize.Font{
			Color: "#FFFFFF",
			Bold:  true,
		},
	})
	if err != nil {
		return fmt.Errorf("create xlsx title style failed: %v", err)
	}
	failedStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{"#FFC7CE"},
		},
	})
	if err != nil {
		return fmt.Errorf("create xlsx row style failed: %v", err)
	}

	if err := f.SetSheetName("Sheet1", SheetWorkers); err != nil {
		return err
	}
	if err := writeSheetRow(f, SheetWorkers, 1, toRow(workerColumns), titleStyle); err != nil {
		return err
	}
	for i, w := range r.Workers {
		style := 0
		if w.Error != "" {
			style = failedStyle
		}
		row := []interface{}{w.WorkerID, w.State, w.Written, w.Target, w.Batches, w.Retries, w.ElapsedSeconds, w.TPS, w.Error}
		if err := writeSheetRow(f, SheetWorkers, i+2, row, style); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(SheetSummary); err != nil {
		return err
	}
	s := r.Summary
	summary := [][]interface{}{
		{"Metric", "Value"},
		{"Run ID", s.RunID},
		{"Driver", s.Driver},
		{"Target", s.Target},
		{"Table", s.Table},
		{"Workers", s.Workers},
		{"Records Per Worker", s.RecordsPerWorker},
		{"Batch Size", s.BatchSize},
		{"Target Records", s.TargetRecords},
		{"Total Records", s.TotalRecords},
		{"Failed Workers", s.FailedWorkers},
		{"Started At", s.StartedAt.Format("2006-01-02 15:04:05")},
		{"Elapsed(s)", s.ElapsedSeconds},
		{"TPS", s.TPS},
		{"Target TPS", s.TargetTPS},
	}
	for i, row := range summary {
		style := 0
		if i == 0 {
			style = titleStyle
		}
		if err := writeSheetRow(f, SheetSummary, i+1, row, style); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx file [%s] failed: %v", path, err)
	}
	return nil
}

func writeSheetRow(f *excelize.File, sheet string, rowIndex int, row []interface{}, style int) error {
	first, err := excelize.CoordinatesToCellName(1, rowIndex)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(row), rowIndex)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, first, &row); err != nil {
		return fmt.Errorf("write sheet [%s] row [%d] failed: %v", sheet, rowIndex, err)
	}
	if style > 0 {
		return f.SetCellStyle(sheet, first, last, style)
	}
	return nil
}

func toRow(columns []string) []interface{} {
	row := make([]interface{}, 0, len(columns))
	for _, c := range columns {
		row = append(row, c)
	}
	return row
}
