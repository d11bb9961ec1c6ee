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
package writer

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/wentaojin/dbload/pkg/errs"
	"github.com/wentaojin/dbload/pkg/generator"
)

// ColumnsPerRow is the number of bound values of one message row
const ColumnsPerRow = 6

// BatchWriter writes one batch atomically per call, implementations never retry
type BatchWriter interface {
	WriteBatch(ctx context.Context, rows []generator.Row) error
	Close() error
}

// Sessions hands out dedicated sessions, *sql.DB satisfies it
type Sessions interface {
	Conn(ctx context.Context) (*sql.Conn, error)
}

// SQLWriter owns one dedicated session for the lifetime of a worker. After a failed batch the
// session is given back and the next batch acquires a fresh one from sessions.
type SQLWriter struct {
	sessions  Sessions
	conn      *sql.Conn
	table     string
	chunkRows int
	release   func() error
}

// NewSQLWriter binds conn taken from sessions, release is called after the session is closed and may be nil
func NewSQLWriter(sessions Sessions, conn *sql.Conn, table string, maxPlaceholders int, release func() error) *SQLWriter {
	chunkRows := maxPlaceholders / ColumnsPerRow
	if chunkRows <= 0 {
		chunkRows = 1
	}
	return &SQLWriter{
		sessions:  sessions,
		conn:      conn,
		table:     table,
		chunkRows: chunkRows,
		release:   release,
	}
}

// InsertSQL renders the multi-row insert for n rows
func InsertSQL(table string, n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO `%s` (`message_id`, `sender`, `recipient`, `message_text`, `timestamp`, `status`) VALUES ", table)
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(?,?,?,?,?,?)")
	}
	return b.String()
}

func bindArgs(rows []generator.Row) []interface{} {
	args := make([]interface{}, 0, len(rows)*ColumnsPerRow)
	for _, r := range rows {
		args = append(args, r.MessageID, r.Sender, r.Recipient, r.Text, r.Timestamp, r.Status)
	}
	return args
}

// WriteBatch inserts every row inside one transaction and commits it. Batches larger than the
// placeholder limit are split into several statements of the same transaction. A failed commit
// may still have been applied by the storage engine, the error carries the commit phase then.
func (w *SQLWriter) WriteBatch(ctx context.Context, rows []generator.Row) error {
	if len(rows) == 0 {
		return nil
	}
	err := w.writeBatch(ctx, rows)
	if err != nil {
		w.dropSession()
	}
	return err
}

func (w *SQLWriter) writeBatch(ctx context.Context, rows []generator.Row) error {
	if w.conn == nil {
		conn, err := w.sessions.Conn(ctx)
		if err != nil {
			return errs.ErrConnection.Wrap(err, "reacquire session failed").WithProperty(errs.ErrPropPhase, errs.PhaseBegin)
		}
		w.conn = conn
	}
	tx, err := w.conn.BeginTx(ctx, nil)
	if err != nil {
		return errs.ErrWrite.Wrap(err, "begin transaction failed").WithProperty(errs.ErrPropPhase, errs.PhaseBegin)
	}

	for start := 0; start < len(rows); start += w.chunkRows {
		end := start + w.chunkRows
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]
		if _, err = tx.ExecContext(ctx, InsertSQL(w.table, len(chunk)), bindArgs(chunk)...); err != nil {
			tx.Rollback()
			return errs.ErrWrite.Wrap(err, "insert %d rows into table [%s] failed", len(chunk), w.table).
				WithProperty(errs.ErrPropPhase, errs.PhaseInsert).
				WithProperty(errs.ErrPropTable, w.table)
		}
	}

	if err = tx.Commit(); err != nil {
		return errs.ErrWrite.Wrap(err, "commit %d rows into table [%s] failed", len(rows), w.table).
			WithProperty(errs.ErrPropPhase, errs.PhaseCommit).
			WithProperty(errs.ErrPropTable, w.table)
	}
	return nil
}

// dropSession gives the session back to its pool, which discards it when the driver marked it bad
func (w *SQLWriter) dropSession() {
	if w.conn == nil {
		return
	}
	w.conn.Close()
	w.conn = nil
}

func (w *SQLWriter) Close() error {
	var err error
	if w.conn != nil {
		err = w.conn.Close()
		w.conn = nil
	}
	if w.release != nil {
		if rerr := w.release(); err == nil {
			err = rerr
		}
	}
	return err
}
