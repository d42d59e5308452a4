/*
 * GraphEngine
 *
 * Copyright 2024 The GraphEngine Authors.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package algo

import (
	"math"
	"os"
	"path/filepath"

	"github.com/arangoanalytics/graphengine/internal/engineerr"
	"github.com/arangoanalytics/graphengine/internal/script"
	"github.com/arangoanalytics/graphengine/internal/store"
)

// CustomFunctionAlgorithm hands the graph to the embedded script
// interpreter. ScratchDir is a per-job directory that script.Run
// creates and Run removes once the script returns; Body is the caller-supplied script text from
// the /v1/python request's "function" field.
type CustomFunctionAlgorithm struct {
	ScratchDir string
	Body       string
}

// accessorAdapter exposes *store.Graph as a script.GraphAccessor
// without adding any mutating method to the interface.
type accessorAdapter struct {
	g *store.Graph
}

func (a accessorAdapter) NumVertices() int { return a.g.NumVertices() }

func (a accessorAdapter) Successors(idx int32) []int32 {
	return a.g.ByFrom().Successors(idx)
}

func (a accessorAdapter) Predecessors(idx int32) []int32 {
	return a.g.ByTo().Successors(idx)
}

func (a accessorAdapter) Column(name string, idx int32) interface{} {
	col := a.g.Column(name)
	if col == nil {
		return nil
	}
	return col.At(int(idx))
}

func (a accessorAdapter) Key(idx int32) string { return a.g.Key(idx) }

func (a accessorAdapter) IndexByKey(key string) (int32, bool) { return a.g.IndexByKey(key) }

// Run implements Algorithm. Progress for a custom function is
// all-or-nothing: total=1, progress flips to 1 once the script
// returns, since the interpreter itself offers no superstep boundary
// to check cancellation against (Run checks the cancel flag once,
// before the script starts).
func (c CustomFunctionAlgorithm) Run(g *store.Graph, progress *Progress) (*Result, error) {
	if progress.Total != nil {
		*progress.Total = 1
	}
	if progress.Cancelled() {
		return nil, engineerr.New(engineerr.Cancelled, "custom function cancelled before start")
	}

	defer os.RemoveAll(c.ScratchDir)

	dir := c.ScratchDir
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "graphengine-custom")
	}

	values, err := script.Run(dir, c.Body, accessorAdapter{g: g})
	if err != nil {
		return nil, err
	}

	n := g.NumVertices()
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	for idx, v := range values {
		if idx < 0 || int(idx) >= n {
			return nil, engineerr.New(engineerr.InterpreterError, "script reported result for out-of-range vertex %d", idx)
		}
		out[idx] = v
	}

	progress.Set(1)

	return &Result{FloatVector: out}, nil
}
