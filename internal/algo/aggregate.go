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
	"github.com/arangoanalytics/graphengine/internal/engineerr"
	"github.com/arangoanalytics/graphengine/internal/store"
)

/*
AggregateAlgorithm consumes a prior WCC/SCC result (component id per
vertex) and a named attribute column, and produces a distribution map
per component: component id -> {value -> count}. It does not run
over the graph's own result cache; the job runner supplies the prior
component vector directly.
*/
type AggregateAlgorithm struct {
	Components []int32 // component id per vertex, from a prior WCC/SCC job
	Attribute  string
}

// Run implements Algorithm.
func (a AggregateAlgorithm) Run(g *store.Graph, progress *Progress) (*Result, error) {
	n := g.NumVertices()
	if len(a.Components) != n {
		return nil, engineerr.New(engineerr.AlgorithmError, "component vector length %d does not match graph size %d", len(a.Components), n)
	}

	col := g.Column(a.Attribute)
	if col == nil {
		return nil, engineerr.New(engineerr.AlgorithmError, "no such attribute column %q", a.Attribute)
	}

	if progress.Total != nil {
		*progress.Total = int64(n)
	}

	hist := make(map[int32]map[interface{}]int64)

	const batch = 1000
	for v := 0; v < n; v++ {
		comp := a.Components[v]
		h, ok := hist[comp]
		if !ok {
			h = make(map[interface{}]int64)
			hist[comp] = h
		}
		h[col.At(v)]++

		if (v+1)%batch == 0 {
			progress.Set(int64(v + 1))
			if progress.Cancelled() {
				return nil, engineerr.New(engineerr.Cancelled, "aggregatecomponents cancelled after %d/%d vertices", v+1, n)
			}
		}
	}
	progress.Set(int64(n))

	return &Result{Histograms: hist}, nil
}
