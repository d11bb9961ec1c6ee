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

// Package writertest provides in-memory batch writers for tests.
package writertest

import (
	"context"
	"errors"
	"sync"

	"github.com/wentaojin/dbload/pkg/errs"
	"github.com/wentaojin/dbload/pkg/generator"
	"github.com/wentaojin/dbload/pkg/writer"
)

var ErrInjected = errors.New("injected write failure")

// Writer records batch sizes. FailAt makes the FailAt-th batch (1-based) fail FailTimes times,
// FailTimes zero means it fails forever.
type Writer struct {
	FailAt    int
	FailTimes int

	mu       sync.Mutex
	calls    int
	failures int
	sizes    []int
	closed   bool
}

func (w *Writer) WriteBatch(ctx context.Context, rows []generator.Row) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	if w.FailAt > 0 && len(w.sizes)+1 == w.FailAt && (w.FailTimes == 0 || w.failures < w.FailTimes) {
		w.failures++
		return errs.ErrWrite.Wrap(ErrInjected, "stub write failed").WithProperty(errs.ErrPropPhase, errs.PhaseInsert)
	}
	w.sizes = append(w.sizes, len(rows))
	return nil
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

// Sizes returns the sizes of the accepted batches
func (w *Writer) Sizes() []int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]int(nil), w.sizes...)
}

// Calls counts every WriteBatch call, failed ones included
func (w *Writer) Calls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls
}

func (w *Writer) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

// Factory hands out one Writer per worker id, configure lets a test shape a given worker
type Factory struct {
	Configure func(workerID int, w *Writer)
	// OpenErr fails the open of the listed worker ids
	OpenErr map[int]error

	mu      sync.Mutex
	writers map[int]*Writer
}

func (f *Factory) Open(ctx context.Context, workerID int) (writer.BatchWriter, error) {
	if err, ok := f.OpenErr[workerID]; ok {
		return nil, errs.ErrConnection.Wrap(err, "stub open failed").WithProperty(errs.ErrPropWorkerID, workerID)
	}
	w := &Writer{}
	if f.Configure != nil {
		f.Configure(workerID, w)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writers == nil {
		f.writers = make(map[int]*Writer)
	}
	f.writers[workerID] = w
	return w, nil
}

func (f *Factory) Writer(workerID int) *Writer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writers[workerID]
}
