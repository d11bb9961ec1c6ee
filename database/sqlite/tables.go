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
package sqlite

import (
	"encoding/json"
	"time"
)

type Entity struct {
	Comment   string    `gorm:"type:varchar(1000);comment:comment content" json:"comment"`
	CreatedAt time.Time `gorm:"<-:create" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Run is one finished load run
type Run struct {
	ID               uint64       `gorm:"primarykey;autoIncrement;comment:id" json:"id"`
	RunID            string       `gorm:"not null;type:varchar(36);uniqueIndex:uniq_run_run_id;comment:uuid of run" json:"runID"`
	Driver           string       `gorm:"not null;type:varchar(30);comment:target database driver" json:"driver"`
	Target           string       `gorm:"not null;type:varchar(300);comment:target address without password" json:"target"`
	TargetTable      string       `gorm:"not null;type:varchar(64);comment:target table" json:"targetTable"`
	Workers          int          `gorm:"type:int;comment:worker count" json:"workers"`
	RecordsPerWorker int          `gorm:"type:int;comment:records per worker" json:"recordsPerWorker"`
	BatchSize        int          `gorm:"type:int;comment:batch size" json:"batchSize"`
	TargetRecords    int64        `gorm:"type:bigint;comment:configured total records" json:"targetRecords"`
	TotalRecords     int64        `gorm:"type:bigint;comment:written total records" json:"totalRecords"`
	FailedWorkers    int          `gorm:"type:int;comment:failed worker count" json:"failedWorkers"`
	ElapsedSeconds   float64      `gorm:"comment:run wall clock seconds" json:"elapsedSeconds"`
	TPS              float64      `gorm:"comment:written records per second" json:"tps"`
	TargetTPS        float64      `gorm:"comment:configured records per second" json:"targetTPS"`
	StartedAt        time.Time    `json:"startedAt"`
	WorkerRuns       []*RunWorker `gorm:"foreignKey:RunID;references:RunID" json:"workerRuns,omitempty"`
	*Entity
}

func (r *Run) String() string {
	val, _ := json.MarshalIndent(r, "", " ")
	return string(val)
}

// RunWorker is the result of one worker inside a run
type RunWorker struct {
	ID             uint64  `gorm:"primarykey;autoIncrement;comment:id" json:"id"`
	RunID          string  `gorm:"not null;type:varchar(36);index:idx_run_worker_run_id;comment:uuid of run" json:"runID"`
	WorkerID       int     `gorm:"type:int;comment:worker id" json:"workerID"`
	State          string  `gorm:"type:varchar(10);comment:terminal state" json:"state"`
	Written        int64   `gorm:"type:bigint;comment:written records" json:"written"`
	Target         int     `gorm:"type:int;comment:record target" json:"target"`
	Batches        int     `gorm:"type:int;comment:committed batches" json:"batches"`
	Retries        int     `gorm:"type:int;comment:retried batch attempts" json:"retries"`
	ElapsedSeconds float64 `gorm:"comment:worker seconds" json:"elapsedSeconds"`
	TPS            float64 `gorm:"comment:worker records per second" json:"tps"`
	Error          string  `gorm:"type:text;comment:failure detail" json:"error"`
	*Entity
}
