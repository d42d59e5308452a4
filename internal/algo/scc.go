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
	"github.com/RoaringBitmap/roaring"

	"github.com/arangoanalytics/graphengine/internal/engineerr"
	"github.com/arangoanalytics/graphengine/internal/store"
)

// SCCAlgorithm computes strongly connected components with an
// iterative (non-recursive) Tarjan's algorithm. Components are
// numbered in the order they complete.
type SCCAlgorithm struct{}

// dfsFrame is one stack entry of the explicit DFS stack, replacing the
// recursive call frame a textbook Tarjan implementation would use.
type dfsFrame struct {
	v        int32
	children []int32
	ci       int
}

// Run implements Algorithm.
func (SCCAlgorithm) Run(g *store.Graph, progress *Progress) (*Result, error) {
	n := g.NumVertices()
	byFrom := g.ByFrom()

	if progress.Total != nil {
		*progress.Total = int64(n)
	}

	index := make([]int32, n)
	lowlink := make([]int32, n)
	for i := range index {
		index[i] = -1
	}
	onStack := roaring.New()
	compID := make([]int32, n)
	for i := range compID {
		compID[i] = -1
	}

	var nodeStack []int32
	var nextIndex int32
	var nextComp int32
	var visited int64

	strongConnect := func(start int32) error {
		var stack []dfsFrame
		stack = append(stack, dfsFrame{v: start, children: byFrom.Successors(start)})
		index[start] = nextIndex
		lowlink[start] = nextIndex
		nextIndex++
		nodeStack = append(nodeStack, start)
		onStack.Add(uint32(start))

		for len(stack) > 0 {
			top := &stack[len(stack)-1]

			if top.ci < len(top.children) {
				w := top.children[top.ci]
				top.ci++

				if index[w] == -1 {
					index[w] = nextIndex
					lowlink[w] = nextIndex
					nextIndex++
					nodeStack = append(nodeStack, w)
					onStack.Add(uint32(w))
					stack = append(stack, dfsFrame{v: w, children: byFrom.Successors(w)})
				} else if onStack.Contains(uint32(w)) {
					if index[w] < lowlink[top.v] {
						lowlink[top.v] = index[w]
					}
				}
				continue
			}

			// All children visited: pop this frame, propagate lowlink
			// to the parent, and emit a component if this is a root.
			v := top.v
			stack = stack[:len(stack)-1]

			if len(stack) > 0 {
				parent := &stack[len(stack)-1]
				if lowlink[v] < lowlink[parent.v] {
					lowlink[parent.v] = lowlink[v]
				}
			}

			if lowlink[v] == index[v] {
				comp := nextComp
				nextComp++
				for {
					w := nodeStack[len(nodeStack)-1]
					nodeStack = nodeStack[:len(nodeStack)-1]
					onStack.Remove(uint32(w))
					compID[w] = comp
					if w == v {
						break
					}
				}
			}

			visited++
			if visited%1000 == 0 {
				progress.Set(visited)
				if progress.Cancelled() {
					return engineerr.New(engineerr.Cancelled, "scc cancelled after %d/%d vertices", visited, n)
				}
			}
		}
		return nil
	}

	for v := int32(0); v < int32(n); v++ {
		if index[v] != -1 {
			continue
		}
		if err := strongConnect(v); err != nil {
			return nil, err
		}
	}
	progress.Set(int64(n))

	return &Result{IntVector: compID}, nil
}
