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
Package engine wires the registry, job runner, algorithm suite, loader
and writer together: "Registry -> Job runner -> (Loader | Algorithm |
Writer) -> Graph/Column store". Each exported function here
corresponds to one POST endpoint: it allocates a job, submits work to
the runner, and returns immediately.
*/
package engine

import (
	"context"
	"path/filepath"
	"strconv"

	"github.com/arangoanalytics/graphengine/internal/algo"
	"github.com/arangoanalytics/graphengine/internal/dbclient"
	"github.com/arangoanalytics/graphengine/internal/engineerr"
	"github.com/arangoanalytics/graphengine/internal/jobs"
	"github.com/arangoanalytics/graphengine/internal/loader"
	"github.com/arangoanalytics/graphengine/internal/metrics"
	"github.com/arangoanalytics/graphengine/internal/registry"
	"github.com/arangoanalytics/graphengine/internal/writer"
)

// Engine bundles the shared registry and runner every handler needs.
// Database clients are not held here: each request builds its own
// *dbclient.Client carrying the caller's re-signed bearer token and
// passes it into LoadData/StoreResults directly.
type Engine struct {
	Registry   *registry.Registry
	Runner     *jobs.Runner
	ScratchDir string // root for per-job scratch directories (e.g. custom-function scripts)
}

// New builds an Engine with a fresh registry and a runner sized to the
// given worker count (<=0 means runtime.NumCPU()).
func New(workers int, scratchDir string) *Engine {
	return &Engine{
		Registry:   registry.New(),
		Runner:     jobs.NewRunner(workers),
		ScratchDir: scratchDir,
	}
}

// runAlgorithm is the common dispatch path for every algorithm
// endpoint: allocate a job referencing graphID, submit a worker body
// that runs alg against the resolved graph, and publish progress
// through the job's own atomic counters.
func (e *Engine) runAlgorithm(compType jobs.CompType, graphID int64, alg algo.Algorithm) (*jobs.Job, error) {
	g, err := e.Registry.GetGraph(graphID)
	if err != nil {
		return nil, err
	}

	j, err := e.Registry.NewJob(compType, graphID)
	if err != nil {
		return nil, err
	}

	e.Runner.Submit(j, func(j *jobs.Job) {
		progress, total, cancel := j.ProgressPointers()
		p := &algo.Progress{Current: progress, Total: total, Cancel: cancel}

		timer := metrics.StartAlgorithm(string(compType))
		defer timer.ObserveDuration()

		res, err := alg.Run(g, p)
		if err != nil {
			jobs.FailFromError(j, err)
			metrics.JobFailed(string(compType))
			return
		}

		j.Complete(res, resultMemory(res))
		metrics.JobSucceeded(string(compType))
	})

	return j, nil
}

// WCC runs weakly connected components on graphID.
func (e *Engine) WCC(graphID int64) (*jobs.Job, error) {
	return e.runAlgorithm(jobs.WCC, graphID, algo.WCCAlgorithm{})
}

// SCC runs strongly connected components on graphID.
func (e *Engine) SCC(graphID int64) (*jobs.Job, error) {
	return e.runAlgorithm(jobs.SCC, graphID, algo.SCCAlgorithm{})
}

// AggregateComponents builds a value distribution per component.
// componentJobID must reference an already-completed WCC/SCC job on
// the same graph.
func (e *Engine) AggregateComponents(graphID, componentJobID int64, attribute string) (*jobs.Job, error) {
	compJob, err := e.Registry.GetJob(componentJobID)
	if err != nil {
		return nil, err
	}
	snap := compJob.Snapshot()
	if snap.Total == 0 && snap.Progress == 0 && compJob.State() != jobs.Succeeded {
		return nil, engineerr.New(engineerr.InvalidInput, "component job %d has not completed", componentJobID)
	}
	components, ok := snap.Result.(*algo.Result)
	if !ok || components.IntVector == nil {
		return nil, engineerr.New(engineerr.InvalidInput, "job %d did not produce a component vector", componentJobID)
	}

	return e.runAlgorithm(jobs.AggregateComponents, graphID, algo.AggregateAlgorithm{
		Components: components.IntVector,
		Attribute:  attribute,
	})
}

// PageRank runs damped power-iteration PageRank on graphID.
func (e *Engine) PageRank(graphID int64, maxSupersteps int, damping, tolerance float64) (*jobs.Job, error) {
	return e.runAlgorithm(jobs.PageRank, graphID, algo.PageRankAlgorithm{
		MaxSupersteps: maxSupersteps, Damping: damping, Tolerance: tolerance,
	})
}

// IRank runs iRank (PageRank with collection-relative seeding) on graphID.
func (e *Engine) IRank(graphID int64, maxSupersteps int, damping, tolerance float64) (*jobs.Job, error) {
	return e.runAlgorithm(jobs.IRank, graphID, algo.IRankAlgorithm{
		MaxSupersteps: maxSupersteps, Damping: damping, Tolerance: tolerance,
	})
}

// LabelPropagation runs label propagation on graphID.
func (e *Engine) LabelPropagation(graphID int64, startAttr string, synchronous, randomTiebreak bool, maxSupersteps int, seed int64) (*jobs.Job, error) {
	return e.runAlgorithm(jobs.LabelPropagation, graphID, algo.LabelPropagationAlgorithm{
		StartLabelAttribute: startAttr,
		Synchronous:         synchronous,
		RandomTiebreak:      randomTiebreak,
		MaxSupersteps:       maxSupersteps,
		Seed:                seed,
	})
}

// AttributePropagation runs attribute-set propagation on graphID.
func (e *Engine) AttributePropagation(graphID int64, startAttr string, synchronous, backwards bool, maxSupersteps int) (*jobs.Job, error) {
	return e.runAlgorithm(jobs.AttributePropagation, graphID, algo.AttributePropagationAlgorithm{
		StartLabelAttribute: startAttr,
		Synchronous:         synchronous,
		Backwards:           backwards,
		MaxSupersteps:       maxSupersteps,
	})
}

// Custom runs the caller-supplied ECAL script against graphID.
func (e *Engine) Custom(graphID int64, body string) (*jobs.Job, error) {
	j, err := e.Registry.NewJob(jobs.Custom, graphID)
	if err != nil {
		return nil, err
	}
	// Only the per-job scratch path is computed here; script.Run
	// creates the directory and CustomFunctionAlgorithm.Run removes it.
	scratch := filepath.Join(e.ScratchDir, "job-"+strconv.FormatInt(j.ID(), 10))

	g, err := e.Registry.GetGraph(graphID)
	if err != nil {
		jobs.FailFromError(j, err)
		return j, nil
	}

	e.Runner.Submit(j, func(j *jobs.Job) {
		progress, total, cancel := j.ProgressPointers()
		p := &algo.Progress{Current: progress, Total: total, Cancel: cancel}

		timer := metrics.StartAlgorithm(string(jobs.Custom))
		defer timer.ObserveDuration()

		res, err := algo.CustomFunctionAlgorithm{ScratchDir: scratch, Body: body}.Run(g, p)
		if err != nil {
			jobs.FailFromError(j, err)
			metrics.JobFailed(string(jobs.Custom))
			return
		}
		j.Complete(res, resultMemory(res))
		metrics.JobSucceeded(string(jobs.Custom))
	})

	return j, nil
}

/*
LoadData starts building a graph from the database. db is the
request-scoped database client, built with the caller's re-signed
bearer token; the job has no graph yet (GraphID 0) until the loader
finishes building one, at which point Registry.AttachGraph retargets
it.
*/
func (e *Engine) LoadData(db *dbclient.Client, req loader.Request) (*jobs.Job, error) {
	j, err := e.Registry.NewJob(jobs.LoadData, 0)
	if err != nil {
		return nil, err
	}

	gid := e.Registry.NewGraphID()
	ld := loader.New(db)

	e.Runner.Submit(j, func(j *jobs.Job) {
		progress, total, cancel := j.ProgressPointers()

		timer := metrics.StartAlgorithm(string(jobs.LoadData))
		defer timer.ObserveDuration()

		g, err := ld.Load(context.Background(), gid, req, progress, total, cancel)
		if err != nil {
			jobs.FailFromError(j, err)
			metrics.JobFailed(string(jobs.LoadData))
			return
		}

		if err := e.Registry.AttachGraph(j.ID(), g); err != nil {
			jobs.FailFromError(j, err)
			metrics.JobFailed(string(jobs.LoadData))
			return
		}

		_, perVertex, perEdge := g.MemoryUsage()
		j.Complete(nil, perVertex*uint64(g.NumVertices())+perEdge*uint64(g.NumEdges()))
		metrics.JobSucceeded(string(jobs.LoadData))
	})

	return j, nil
}

// StoreResults writes completed job results back to the database.
func (e *Engine) StoreResults(db *dbclient.Client, graphID int64, req writer.Request) (*jobs.Job, error) {
	g, err := e.Registry.GetGraph(graphID)
	if err != nil {
		return nil, err
	}

	j, err := e.Registry.NewJob(jobs.StoreResults, graphID)
	if err != nil {
		return nil, err
	}

	wr := writer.New(db)

	e.Runner.Submit(j, func(j *jobs.Job) {
		progress, total, cancel := j.ProgressPointers()

		timer := metrics.StartAlgorithm(string(jobs.StoreResults))
		defer timer.ObserveDuration()

		if err := wr.Write(context.Background(), g, req, progress, total, cancel); err != nil {
			jobs.FailFromError(j, err)
			metrics.JobFailed(string(jobs.StoreResults))
			return
		}

		j.Complete(nil, 0)
		metrics.JobSucceeded(string(jobs.StoreResults))
	})

	return j, nil
}

func resultMemory(res *algo.Result) uint64 {
	switch {
	case res.IntVector != nil:
		return uint64(len(res.IntVector)) * 4
	case res.FloatVector != nil:
		return uint64(len(res.FloatVector)) * 8
	case res.SetVector != nil:
		var n uint64
		for _, s := range res.SetVector {
			for _, l := range s {
				n += uint64(len(l))
			}
		}
		return n
	case res.StringVector != nil:
		var n uint64
		for _, l := range res.StringVector {
			n += uint64(len(l))
		}
		return n
	}
	return 0
}

