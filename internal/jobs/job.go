/*
 * GraphEngine
 *
 * Copyright 2024 The GraphEngine Authors.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

/*
Package jobs defines the Job type: an asynchronous unit of work with
atomic progress, a cancel flag, and a one-shot result publication.
Runner (runner.go, in this same package) schedules Jobs onto a worker
pool.
*/
package jobs

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/juju/clock"

	"github.com/arangoanalytics/graphengine/internal/engineerr"
)

// CompType is one of the ten computation types the engine dispatches.
type CompType string

const (
	LoadData             CompType = "LoadData"
	WCC                  CompType = "WCC"
	SCC                  CompType = "SCC"
	AggregateComponents  CompType = "AggregateComponents"
	PageRank             CompType = "PageRank"
	IRank                CompType = "IRank"
	LabelPropagation     CompType = "LabelPropagation"
	AttributePropagation CompType = "AttributePropagation"
	Custom               CompType = "Custom"
	StoreResults         CompType = "StoreResults"
)

// State is the job's lifecycle state.
type State int32

const (
	Running State = iota
	Succeeded
	Failed
)

/*
Job tracks one unit of asynchronous work. progress/total/cancel are
accessed with atomics so the worker can update them without locking
and readers observe a consistent snapshot without locking either.
Result, once published, is immutable; resultMu guards only the single
publish-once transition.
*/
type Job struct {
	id       int64
	graphID  int64 // may change once via SetGraphID (LoadData attaching its graph)
	compType CompType

	progress int64
	total    int64
	cancel   int32
	state    int32 // State, atomic

	clock     clock.Clock
	startedAt time.Time

	resultMu  sync.Mutex
	result    interface{}
	memory    uint64
	runtimeUs int64
	errKind   engineerr.Kind
	errMsg    string
}

// New creates a Job in the Running state. clk times the job's start
// and, on Complete/Fail, its elapsed runtime; pass clock.WallClock in
// production and a fake clock in tests that need to control elapsed
// time.
func New(id int64, graphID int64, compType CompType, clk clock.Clock) *Job {
	return &Job{
		id:        id,
		graphID:   graphID,
		compType:  compType,
		state:     int32(Running),
		clock:     clk,
		startedAt: clk.Now(),
	}
}

func (j *Job) ID() int64         { return j.id }
func (j *Job) CompType() CompType { return j.compType }

// GraphID returns the graph this job currently references (0 if none
// yet, for a LoadData job still building).
func (j *Job) GraphID() int64 { return atomic.LoadInt64(&j.graphID) }

// SetGraphID retargets the job onto a freshly built graph. Used only
// by a LoadData job transitioning from "no graph yet" to "built".
func (j *Job) SetGraphID(id int64) { atomic.StoreInt64(&j.graphID, id) }

// Progress/Total expose the atomic counters the algorithm/loader/
// writer updates directly via their pointers (see ProgressPointers).
func (j *Job) Progress() int64 { return atomic.LoadInt64(&j.progress) }
func (j *Job) Total() int64    { return atomic.LoadInt64(&j.total) }

// ProgressPointers hands out the raw pointers a worker body ticks
// directly, avoiding a method-call indirection per superstep.
func (j *Job) ProgressPointers() (progress, total *int64, cancel *int32) {
	return &j.progress, &j.total, &j.cancel
}

// Cancel requests cooperative cancellation; the worker observes this
// at its next superstep/batch boundary.
func (j *Job) Cancel() {
	atomic.StoreInt32(&j.cancel, 1)
}

// Cancelled reports whether Cancel has been called.
func (j *Job) Cancelled() bool {
	return atomic.LoadInt32(&j.cancel) != 0
}

// State returns the job's current lifecycle state.
func (j *Job) State() State {
	return State(atomic.LoadInt32(&j.state))
}

// Complete publishes a successful result exactly once.
func (j *Job) Complete(result interface{}, memory uint64) {
	j.resultMu.Lock()
	defer j.resultMu.Unlock()

	if State(atomic.LoadInt32(&j.state)) != Running {
		return
	}

	j.result = result
	j.memory = memory
	j.runtimeUs = j.clock.Now().Sub(j.startedAt).Microseconds()
	atomic.StoreInt32(&j.state, int32(Succeeded))
}

// Fail publishes a terminal error exactly once.
func (j *Job) Fail(kind engineerr.Kind, msg string) {
	j.resultMu.Lock()
	defer j.resultMu.Unlock()

	if State(atomic.LoadInt32(&j.state)) != Running {
		return
	}

	j.errKind = kind
	j.errMsg = msg
	j.runtimeUs = j.clock.Now().Sub(j.startedAt).Microseconds()
	atomic.StoreInt32(&j.state, int32(Failed))
}

// Snapshot is a consistent, lock-free-to-the-caller read of every job
// field, used by the HTTP layer to build a response.
type Snapshot struct {
	ID        int64
	GraphID   int64
	CompType  CompType
	Progress  int64
	Total     int64
	ErrorCode int
	ErrorMsg  string
	Memory    uint64
	RuntimeUs int64
	Result    interface{}
}

// Snapshot reads every field of the job consistently while holding
// resultMu, which Complete/Fail also take only briefly. Progress/Total
// are read via atomics (workers update them continuously while
// Running without taking resultMu).
func (j *Job) Snapshot() Snapshot {
	j.resultMu.Lock()
	defer j.resultMu.Unlock()

	s := Snapshot{
		ID:        j.id,
		GraphID:   j.GraphID(),
		CompType:  j.compType,
		Progress:  j.Progress(),
		Total:     j.Total(),
		Memory:    j.memory,
		RuntimeUs: j.runtimeUs,
		Result:    j.result,
	}
	if j.State() == Failed {
		s.ErrorCode = j.errKind.Code()
		s.ErrorMsg = j.errMsg
	}
	return s
}
