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
package errs

import (
	"github.com/joomcode/errorx"
)

var (
	errNS = errorx.NewNamespace("dbload")

	// ErrPropWorkerID is the id of the worker that raised the error
	ErrPropWorkerID = errorx.RegisterPrintableProperty("worker_id")
	// ErrPropBatch is the 1-based batch sequence inside the worker
	ErrPropBatch = errorx.RegisterPrintableProperty("batch")
	// ErrPropPhase is the transaction phase of a failed batch write: begin, insert, commit
	ErrPropPhase = errorx.RegisterPrintableProperty("phase")
	// ErrPropTable is the target relation
	ErrPropTable = errorx.RegisterPrintableProperty("table")

	// ErrProvisioning aborts the whole run before any worker launches
	ErrProvisioning = errNS.NewType("provisioning_failed")
	// ErrConnection is local to one worker
	ErrConnection = errNS.NewType("connection_failed")
	// ErrWrite terminates the loop of one worker
	ErrWrite = errNS.NewType("write_failed")
	// ErrConfigInvalid is returned by configuration validation
	ErrConfigInvalid = errNS.NewType("config_invalid")
)

const (
	PhaseBegin  = "begin"
	PhaseInsert = "insert"
	PhaseCommit = "commit"
)

func IsProvisioning(err error) bool {
	return errorx.IsOfType(err, ErrProvisioning)
}

func IsConnection(err error) bool {
	return errorx.IsOfType(err, ErrConnection)
}

func IsWrite(err error) bool {
	return errorx.IsOfType(err, ErrWrite)
}

func IsConfigInvalid(err error) bool {
	return errorx.IsOfType(err, ErrConfigInvalid)
}

// Phase returns the transaction phase recorded on a write error, empty when absent
func Phase(err error) string {
	e := errorx.Cast(err)
	if e == nil {
		return ""
	}
	v, ok := e.Property(ErrPropPhase)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Root strips errorx wrappers and returns the innermost cause
func Root(err error) error {
	for {
		e := errorx.Cast(err)
		if e == nil || e.Cause() == nil {
			return err
		}
		err = e.Cause()
	}
}
