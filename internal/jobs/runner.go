/*
 * GraphEngine
 *
 * Copyright 2024 The GraphEngine Authors.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package jobs

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/sirupsen/logrus"

	"github.com/arangoanalytics/graphengine/internal/engineerr"
)

/*
Runner is the fixed-size worker pool behind every compute/load/store
request: the request returns immediately with a freshly allocated job,
and the actual work runs on one of a fixed number of worker goroutines
sized to the core count.
*/
type Runner struct {
	work   chan func()
	Logger *logrus.Entry
}

// NewRunner starts a pool of `workers` goroutines (runtime.NumCPU() if
// workers <= 0) consuming from an internal work queue.
func NewRunner(workers int) *Runner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	r := &Runner{
		work:   make(chan func(), 256),
		Logger: logrus.WithField("component", "jobs"),
	}

	for i := 0; i < workers; i++ {
		go r.loop()
	}

	return r
}

func (r *Runner) loop() {
	for body := range r.work {
		body()
	}
}

/*
Submit schedules body to run on the pool against job j. Any panic
inside body is recovered here and turned into a terminal Internal
error, with a stack trace logged via logrus.
*/
func (r *Runner) Submit(j *Job, body func(j *Job)) {
	r.work <- func() {
		defer func() {
			if rec := recover(); rec != nil {
				r.Logger.WithFields(logrus.Fields{
					"job_id": j.ID(),
					"panic":  fmt.Sprint(rec),
					"stack":  string(debug.Stack()),
				}).Error("worker panicked")
				j.Fail(engineerr.Internal, fmt.Sprintf("internal error: %v", rec))
			}
		}()
		body(j)
	}
}

// FailFromError interprets err: if it is a typed *engineerr.Error, the
// job fails with that Kind/Detail; otherwise it fails as Internal.
func FailFromError(j *Job, err error) {
	if e, ok := engineerr.As(err); ok {
		j.Fail(e.Kind, e.Detail)
		return
	}
	j.Fail(engineerr.Internal, err.Error())
}
