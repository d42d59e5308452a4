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
Package registry holds the global lifecycle of graphs and jobs: id
allocation, list/get/delete, and the InUse guard that refuses to
delete a graph while any job still references it (a job holds its
graph, whatever its state, until DeleteJob removes it). A
single sync.RWMutex guards the coordinating state; algorithm execution
never holds this lock (it holds a *store.Graph reference of its own
instead).
*/
package registry

import (
	"sync"
	"sync/atomic"

	"github.com/juju/clock"

	"github.com/arangoanalytics/graphengine/internal/engineerr"
	"github.com/arangoanalytics/graphengine/internal/jobs"
	"github.com/arangoanalytics/graphengine/internal/metrics"
	"github.com/arangoanalytics/graphengine/internal/store"
)

// Registry is the process-wide table of live graphs and jobs.
type Registry struct {
	mu sync.RWMutex

	// Clock times every job this registry creates. Defaults to
	// clock.WallClock; tests that need to control elapsed runtime can
	// overwrite it before calling NewJob.
	Clock clock.Clock

	nextGraphID int64
	nextJobID   int64

	graphs map[int64]*graphEntry
	jobs   map[int64]*jobs.Job
}

type graphEntry struct {
	graph    *store.Graph
	refCount int // number of not-yet-deleted jobs referencing this graph
}

// New returns an empty Registry timing jobs with clock.WallClock.
func New() *Registry {
	return &Registry{
		Clock:  clock.WallClock,
		graphs: make(map[int64]*graphEntry),
		jobs:   make(map[int64]*jobs.Job),
	}
}

// NewGraphID allocates a fresh graph id. The graph itself is not
// registered until RegisterGraph or AttachGraph is called with it.
func (r *Registry) NewGraphID() int64 {
	return atomic.AddInt64(&r.nextGraphID, 1)
}

// NewJobID allocates a fresh job id.
func (r *Registry) NewJobID() int64 {
	return atomic.AddInt64(&r.nextJobID, 1)
}

// RegisterGraph makes g visible to Get/List with no job referencing
// it yet. The LoadData path uses AttachGraph instead, which also
// gives the load job its reference.
func (r *Registry) RegisterGraph(g *store.Graph) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.graphs[g.ID] = &graphEntry{graph: g}
	r.reportGraphStats()
}

// reportGraphStats pushes the current graph/vertex counts to the
// Prometheus gauges. Callers must already hold r.mu.
func (r *Registry) reportGraphStats() {
	var totalVertices int64
	for _, e := range r.graphs {
		totalVertices += int64(e.graph.NumVertices())
	}
	metrics.SetGraphStats(len(r.graphs), totalVertices)
}

// GetGraph returns the graph with the given id, or NotFound.
func (r *Registry) GetGraph(id int64) (*store.Graph, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.graphs[id]
	if !ok {
		return nil, engineerr.New(engineerr.NotFound, "no such graph %d", id)
	}
	return e.graph, nil
}

// ListGraphs returns a snapshot of all registered graphs.
func (r *Registry) ListGraphs() []*store.Graph {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*store.Graph, 0, len(r.graphs))
	for _, e := range r.graphs {
		out = append(out, e.graph)
	}
	return out
}

// DeleteGraph removes a graph, failing with InUse if any job that has
// not been deleted still references it.
func (r *Registry) DeleteGraph(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.graphs[id]
	if !ok {
		return engineerr.New(engineerr.NotFound, "no such graph %d", id)
	}
	if e.refCount > 0 {
		return engineerr.New(engineerr.InUse, "graph %d is referenced by %d job(s)", id, e.refCount)
	}

	delete(r.graphs, id)
	r.reportGraphStats()
	return nil
}

// NewJob allocates and registers a job referencing graphID, bumping
// that graph's reference count. graphID may be 0 for a LoadData job
// that has not yet produced a graph.
func (r *Registry) NewJob(compType jobs.CompType, graphID int64) (*jobs.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if graphID != 0 {
		e, ok := r.graphs[graphID]
		if !ok {
			return nil, engineerr.New(engineerr.NotFound, "no such graph %d", graphID)
		}
		e.refCount++
	}

	id := atomic.AddInt64(&r.nextJobID, 1)
	j := jobs.New(id, graphID, compType, r.Clock)
	r.jobs[id] = j
	return j, nil
}

// AttachGraph is used by a LoadData job once it has built a graph: it
// registers the graph and retargets the job's reference onto it.
func (r *Registry) AttachGraph(jobID int64, g *store.Graph) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[jobID]
	if !ok {
		return engineerr.New(engineerr.NotFound, "no such job %d", jobID)
	}

	r.graphs[g.ID] = &graphEntry{graph: g, refCount: 1}
	j.SetGraphID(g.ID)
	r.reportGraphStats()
	return nil
}

// GetJob returns the job with the given id, or NotFound.
func (r *Registry) GetJob(id int64) (*jobs.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	j, ok := r.jobs[id]
	if !ok {
		return nil, engineerr.New(engineerr.NotFound, "no such job %d", id)
	}
	return j, nil
}

// ListJobs returns a snapshot of all registered jobs.
func (r *Registry) ListJobs() []*jobs.Job {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*jobs.Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, j)
	}
	return out
}

// DeleteJob removes a job and releases its hold on the graph it
// referenced, enabling eventual graph deletion.
func (r *Registry) DeleteJob(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[id]
	if !ok {
		return engineerr.New(engineerr.NotFound, "no such job %d", id)
	}

	if gid := j.GraphID(); gid != 0 {
		if e, ok := r.graphs[gid]; ok && e.refCount > 0 {
			e.refCount--
		}
	}

	delete(r.jobs, id)
	return nil
}
