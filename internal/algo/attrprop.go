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
AttributePropagationAlgorithm propagates sets of string labels across
the graph. Each vertex holds a set of string labels from a named
column (scalar values are lifted to singletons). At each step v's label set becomes
label_set(v) ∪ ⋃ label_set(u) for each u with u→v (or v→u when
Backwards is set). Sync/async discipline mirrors label propagation.
Stops when no set changes.
*/
type AttributePropagationAlgorithm struct {
	StartLabelAttribute string
	Synchronous         bool
	Backwards           bool
	MaxSupersteps       int
}

// Run implements Algorithm.
func (ap AttributePropagationAlgorithm) Run(g *store.Graph, progress *Progress) (*Result, error) {
	n := g.NumVertices()
	byFrom := g.ByFrom()
	byTo := g.ByTo()

	col := g.Column(ap.StartLabelAttribute)
	if col == nil {
		return nil, engineerr.New(engineerr.AlgorithmError, "no such start_label_attribute column %q", ap.StartLabelAttribute)
	}

	sets := make([]map[string]struct{}, n)
	for v := 0; v < n; v++ {
		sets[v] = map[string]struct{}{}
		if s := labelAsString(col.At(v)); s != "" {
			sets[v][s] = struct{}{}
		}
	}

	// predecessors(v) is by_to for forward propagation (u -> v
	// contributes to v); backward propagation instead pulls from
	// successors (v -> u contributes to v, i.e. by_from).
	predecessors := byTo
	if ap.Backwards {
		predecessors = byFrom
	}

	if progress.Total != nil {
		*progress.Total = int64(ap.MaxSupersteps)
	}

	next := make([]map[string]struct{}, n)

	for step := 0; step < ap.MaxSupersteps; step++ {
		changed := false

		for v := 0; v < n; v++ {
			merged := cloneSet(sets[v])
			for _, u := range predecessors.Successors(int32(v)) {
				for label := range sets[u] {
					if _, ok := merged[label]; !ok {
						merged[label] = struct{}{}
						changed = true
					}
				}
			}

			if ap.Synchronous {
				next[v] = merged
			} else {
				sets[v] = merged
			}
		}

		if ap.Synchronous {
			sets, next = next, sets
		}

		progress.Set(int64(step + 1))
		if progress.Cancelled() {
			return nil, engineerr.New(engineerr.Cancelled, "attributepropagation cancelled after %d/%d supersteps", step+1, ap.MaxSupersteps)
		}

		if !changed {
			break
		}
	}

	out := make([][]string, n)
	for v := 0; v < n; v++ {
		for label := range sets[v] {
			out[v] = append(out[v], label)
		}
	}

	return &Result{SetVector: out}, nil
}

func cloneSet(s map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

func labelAsString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	}
	return ""
}
