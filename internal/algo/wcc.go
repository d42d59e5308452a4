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

// WCCAlgorithm computes weakly connected components by union-find over
// an undirected view of the edge set.
type WCCAlgorithm struct{}

type unionFind struct {
	parent []int32
	rank   []int8
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int32, n), rank: make([]int8, n)}
	for i := range uf.parent {
		uf.parent[i] = int32(i)
	}
	return uf
}

func (uf *unionFind) find(x int32) int32 {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]] // path compression (halving)
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int32) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if uf.rank[ra] < uf.rank[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	if uf.rank[ra] == uf.rank[rb] {
		uf.rank[ra]++
	}
}

// Run implements Algorithm.
func (WCCAlgorithm) Run(g *store.Graph, progress *Progress) (*Result, error) {
	n := g.NumVertices()
	edges := g.Edges()

	if progress.Total != nil {
		*progress.Total = int64(len(edges))
	}

	uf := newUnionFind(n)

	const batch = 1000
	for i, e := range edges {
		uf.union(e.From, e.To)

		if (i+1)%batch == 0 {
			progress.Set(int64(i + 1))
			if progress.Cancelled() {
				return nil, engineerr.New(engineerr.Cancelled, "wcc cancelled after %d/%d edges", i+1, len(edges))
			}
		}
	}
	progress.Set(int64(len(edges)))

	// Normalize representatives to the minimum index in each component.
	rep := make([]int32, n)
	min := make([]int32, n)
	for i := range min {
		min[i] = -1
	}
	for i := 0; i < n; i++ {
		r := uf.find(int32(i))
		if min[r] == -1 || int32(i) < min[r] {
			min[r] = int32(i)
		}
	}
	for i := 0; i < n; i++ {
		rep[i] = min[uf.find(int32(i))]
	}

	return &Result{IntVector: rep}, nil
}
