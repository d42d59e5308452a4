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
	"math/rand"

	"github.com/arangoanalytics/graphengine/internal/engineerr"
	"github.com/arangoanalytics/graphengine/internal/store"
)

/*
LabelPropagationAlgorithm propagates the most frequent label among a
vertex's neighbors until convergence. Each vertex starts with a label:
its own stored document key when StartLabelAttribute is "@id", its
index when StartLabelAttribute is "", or a value from a named column
otherwise (numeric values truncated to int32; a non-numeric value
falls back to the vertex's index). At each superstep every vertex
adopts the most frequent label among itself and its undirected
neighbors (its own label counts as one vote alongside by_from and
by_to combined);
ties are broken by smallest label unless RandomTiebreak is set, in
which case a tied label is chosen uniformly at random from a seeded
generator so runs are reproducible in tests.

Labels always propagate as interned int32 ids internally — "smallest"
and "most frequent" both reduce to operations over those ids — but
when StartLabelAttribute is "@id" the ids are interned from the
vertices' own string keys rather than from vertex index, and
"smallest" compares the interned strings lexicographically rather
than the ids numerically, so tie-breaking and the final reported
label match the original _id strings, not an arbitrary index order.
*/
type LabelPropagationAlgorithm struct {
	StartLabelAttribute string // "" means vertex index; "@id" means the vertex's own document key
	Synchronous         bool
	RandomTiebreak      bool
	MaxSupersteps       int
	Seed                int64
}

// Run implements Algorithm.
func (lp LabelPropagationAlgorithm) Run(g *store.Graph, progress *Progress) (*Result, error) {
	n := g.NumVertices()
	byFrom := g.ByFrom()
	byTo := g.ByTo()

	byID := lp.StartLabelAttribute == "@id"

	labels := make([]int32, n)
	var keyOf []string // keyOf[id] is the interned id's original string; nil unless byID
	if byID {
		keyOf = make([]string, n)
		for v := 0; v < n; v++ {
			labels[v] = int32(v)
			keyOf[v] = g.Key(int32(v))
		}
	} else if lp.StartLabelAttribute == "" {
		for v := range labels {
			labels[v] = int32(v)
		}
	} else {
		col := g.Column(lp.StartLabelAttribute)
		if col == nil {
			return nil, engineerr.New(engineerr.AlgorithmError, "no such start_label_attribute column %q", lp.StartLabelAttribute)
		}
		for v := 0; v < n; v++ {
			labels[v] = labelAsInt32(col.At(v), int32(v))
		}
	}

	less := func(a, b int32) bool {
		if byID {
			return keyOf[a] < keyOf[b]
		}
		return a < b
	}

	if progress.Total != nil {
		*progress.Total = int64(lp.MaxSupersteps)
	}

	rng := rand.New(rand.NewSource(lp.Seed))
	next := make([]int32, n)

	for step := 0; step < lp.MaxSupersteps; step++ {
		changed := false

		// Synchronous reads the previous step's labels for every
		// vertex (double buffering); asynchronous reads labels as
		// they are updated, in vertex-index ascending order.
		for v := 0; v < n; v++ {
			counts := make(map[int32]int)
			counts[labels[v]]++
			for _, u := range byFrom.Successors(int32(v)) {
				counts[labels[u]]++
			}
			for _, u := range byTo.Successors(int32(v)) {
				counts[labels[u]]++
			}

			newLabel := pickLabel(counts, labels[v], lp.RandomTiebreak, rng, less)
			if newLabel != labels[v] {
				changed = true
			}

			if lp.Synchronous {
				next[v] = newLabel
			} else {
				labels[v] = newLabel
			}
		}

		if lp.Synchronous {
			labels, next = next, labels
		}

		progress.Set(int64(step + 1))
		if progress.Cancelled() {
			return nil, engineerr.New(engineerr.Cancelled, "labelpropagation cancelled after %d/%d supersteps", step+1, lp.MaxSupersteps)
		}

		if !changed {
			break
		}
	}

	if byID {
		out := make([]string, n)
		for v, l := range labels {
			out[v] = keyOf[l]
		}
		return &Result{StringVector: out}, nil
	}

	return &Result{IntVector: labels}, nil
}

func labelAsInt32(v interface{}, fallback int32) int32 {
	switch t := v.(type) {
	case int64:
		return int32(t)
	case uint64:
		return int32(t)
	case float64:
		return int32(t)
	}
	return fallback
}

// pickLabel chooses the most frequent label in counts, falling back to
// current when counts is empty (an isolated vertex keeps its label).
// Ties are broken by less (smallest label under whatever ordering the
// caller's label space uses), or uniformly at random from rng when
// random is true.
func pickLabel(counts map[int32]int, current int32, random bool, rng *rand.Rand, less func(a, b int32) bool) int32 {
	if len(counts) == 0 {
		return current
	}

	best := -1
	var winners []int32
	for label, c := range counts {
		if c > best {
			best = c
			winners = []int32{label}
		} else if c == best {
			winners = append(winners, label)
		}
	}

	if len(winners) == 1 {
		return winners[0]
	}

	if random {
		return winners[rng.Intn(len(winners))]
	}

	min := winners[0]
	for _, w := range winners[1:] {
		if less(w, min) {
			min = w
		}
	}
	return min
}
