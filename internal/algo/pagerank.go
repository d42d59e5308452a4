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
	"runtime"
	"strings"

	"github.com/RoaringBitmap/roaring"

	"github.com/arangoanalytics/graphengine/internal/engineerr"
	"github.com/arangoanalytics/graphengine/internal/store"
)

// DefaultTolerance is the L1-change stop threshold (the iteration
// stops early once the L1 change between supersteps drops below this),
// exposed as an overridable parameter.
const DefaultTolerance = 1e-9

// PageRankAlgorithm is the classic damped power-iteration PageRank.
type PageRankAlgorithm struct {
	MaxSupersteps int
	Damping       float64
	Tolerance     float64 // 0 means DefaultTolerance
}

// Run implements Algorithm.
func (p PageRankAlgorithm) Run(g *store.Graph, progress *Progress) (*Result, error) {
	n := g.NumVertices()
	if n == 0 {
		return &Result{FloatVector: nil, Scalars: map[string]float64{"sum": 0}}, nil
	}
	init := make([]float64, n)
	invN := 1.0 / float64(n)
	for i := range init {
		init[i] = invN
	}
	return runRankIteration(g, progress, init, p.Damping, p.MaxSupersteps, tol(p.Tolerance))
}

// IRankAlgorithm runs the identical iteration to PageRank, but the
// initial rank for v is 1/Nc where Nc is the number of vertices
// sharing v's source-collection label (the segment of the stored _id
// before "/").
type IRankAlgorithm struct {
	MaxSupersteps int
	Damping       float64
	Tolerance     float64
}

// Run implements Algorithm.
func (ir IRankAlgorithm) Run(g *store.Graph, progress *Progress) (*Result, error) {
	n := g.NumVertices()
	if n == 0 {
		return &Result{FloatVector: nil, Scalars: map[string]float64{"sum": 0}}, nil
	}

	collectionOf := make([]string, n)
	counts := make(map[string]int)
	for v := 0; v < n; v++ {
		key := g.Key(int32(v))
		coll := key
		if i := strings.IndexByte(key, '/'); i >= 0 {
			coll = key[:i]
		}
		collectionOf[v] = coll
		counts[coll]++
	}

	init := make([]float64, n)
	for v := 0; v < n; v++ {
		nc := counts[collectionOf[v]]
		if nc == 0 {
			nc = 1
		}
		init[v] = 1.0 / float64(nc)
	}

	return runRankIteration(g, progress, init, ir.Damping, ir.MaxSupersteps, tol(ir.Tolerance))
}

func tol(t float64) float64 {
	if t <= 0 {
		return DefaultTolerance
	}
	return t
}

// runRankIteration is the shared bulk-synchronous core for both
// PageRank and iRank: only the initial rank vector differs between
// them.
func runRankIteration(g *store.Graph, progress *Progress, r []float64, damping float64, maxSupersteps int, tolerance float64) (*Result, error) {
	n := len(r)
	byTo := g.ByTo()
	byFrom := g.ByFrom()

	outdeg := make([]int32, n)
	for v := 0; v < n; v++ {
		outdeg[v] = byFrom.Offsets[v+1] - byFrom.Offsets[v]
	}

	dangling := roaring.New()
	for v := 0; v < n; v++ {
		if outdeg[v] == 0 {
			dangling.Add(uint32(v))
		}
	}

	if progress.Total != nil {
		*progress.Total = int64(maxSupersteps)
	}

	invN := 1.0 / float64(n)

	// base is the per-vertex restart mass: each superstep redistributes
	// (1-damping) of v's own starting rank back onto v, rather than a
	// single (1-damping)/N spread uniformly. For PageRank, where every
	// vertex starts at 1/N, this reduces to the uniform case; for iRank,
	// where vertices start at 1/Nc(v), it keeps the restart mass bound
	// to each vertex's source collection and preserves the initial rank
	// sum across supersteps.
	base := make([]float64, n)
	for v := 0; v < n; v++ {
		base[v] = (1 - damping) * r[v]
	}

	newR := make([]float64, n)

	for step := 0; step < maxSupersteps; step++ {
		var danglingSum float64
		it := dangling.Iterator()
		for it.HasNext() {
			danglingSum += r[it.Next()]
		}
		m := damping * danglingSum * invN

		parallelForRange(n, func(lo, hi int) {
			for v := lo; v < hi; v++ {
				var sum float64
				for _, u := range byTo.Successors(int32(v)) {
					if outdeg[u] > 0 {
						sum += r[u] / float64(outdeg[u])
					}
				}
				newR[v] = base[v] + m + damping*sum
			}
		})

		var l1 float64
		for v := 0; v < n; v++ {
			d := newR[v] - r[v]
			if d < 0 {
				d = -d
			}
			l1 += d
		}

		r, newR = newR, r

		progress.Set(int64(step + 1))
		if progress.Cancelled() {
			return nil, engineerr.New(engineerr.Cancelled, "pagerank cancelled after %d/%d supersteps", step+1, maxSupersteps)
		}

		if l1 < tolerance {
			progress.Set(int64(maxSupersteps))
			break
		}
	}

	var sum float64
	for _, v := range r {
		sum += v
	}

	return &Result{FloatVector: r, Scalars: map[string]float64{"sum": sum}}, nil
}

// parallelForRange splits [0,n) into up to runtime.NumCPU() contiguous
// chunks and runs body over each concurrently, waiting for every chunk
// before returning.
func parallelForRange(n int, body func(lo, hi int)) {
	workers := runtime.NumCPU()
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		body(0, n)
		return
	}

	chunk := (n + workers - 1) / workers
	done := make(chan struct{}, workers)
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		if lo >= hi {
			done <- struct{}{}
			continue
		}
		go func(lo, hi int) {
			body(lo, hi)
			done <- struct{}{}
		}(lo, hi)
	}
	for w := 0; w < workers; w++ {
		<-done
	}
}
