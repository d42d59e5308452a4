/*
 * GraphEngine
 *
 * Copyright 2024 The GraphEngine Authors.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package store

/*
csr is a Compressed-Sparse-Row edge index: Offsets has length N+1 and
Neighbors has length E. Neighbors[Offsets[v]:Offsets[v+1]] lists the
destinations (for by_from) or sources (for by_to) attached to v. Built
by a two-pass counting sort, Θ(N+E) time and space.
*/
type csr struct {
	Offsets   []int32
	Neighbors []int32
}

// buildCSR constructs a CSR index over edges, keyed on from (for
// by_from) or to (for by_to) as selected by keyOf.
func buildCSR(n int, edges []Edge, keyOf func(Edge) int32) *csr {
	offsets := make([]int32, n+1)

	// Pass 1: count out-degree (or in-degree) per vertex.
	for _, e := range edges {
		offsets[keyOf(e)+1]++
	}

	// Pass 2: prefix-sum into offsets.
	for i := 0; i < n; i++ {
		offsets[i+1] += offsets[i]
	}

	neighbors := make([]int32, len(edges))
	cursor := make([]int32, n)
	copy(cursor, offsets[:n])

	other := func(e Edge, by func(Edge) int32) int32 {
		if by(e) == e.From {
			return e.To
		}
		return e.From
	}

	// Pass 3: distribute. keyOf tells us which endpoint buckets the
	// edge; the "other" endpoint is what gets stored as the neighbor.
	for _, e := range edges {
		k := keyOf(e)
		neighbors[cursor[k]] = other(e, keyOf)
		cursor[k]++
	}

	return &csr{Offsets: offsets, Neighbors: neighbors}
}

// ByFrom returns (building it on first use) the CSR index whose
// Neighbors[v] lists v's successors.
func (g *Graph) ByFrom() *csr {
	g.csrOnce.Do(func() {
		g.byFrom = buildCSR(len(g.hashes), g.edges, func(e Edge) int32 { return e.From })
	})
	return g.byFrom
}

// ByTo returns (building it on first use) the CSR index whose
// Neighbors[v] lists v's predecessors.
func (g *Graph) ByTo() *csr {
	g.byToOnce.Do(func() {
		g.byTo = buildCSR(len(g.hashes), g.edges, func(e Edge) int32 { return e.To })
	})
	return g.byTo
}

// Successors returns v's out-neighbors.
func (c *csr) Successors(v int32) []int32 {
	return c.Neighbors[c.Offsets[v]:c.Offsets[v+1]]
}
