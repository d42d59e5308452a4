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
Package algo implements the algorithm suite: WCC, SCC, component
aggregation, PageRank, iRank, label propagation, attribute
propagation, and the custom-function bridge. Algorithms are
represented as a tagged variant with a common dispatch function
rather than via inheritance.
*/
package algo

import (
	"sync/atomic"

	"github.com/arangoanalytics/graphengine/internal/store"
)

// Progress is the injected atomic counter an algorithm updates as it
// makes superstep/batch progress, and the cancel flag it polls at
// superstep boundaries. Both are owned by the job runner.
type Progress struct {
	Current *int64
	Total   *int64
	Cancel  *int32
}

// Tick advances the progress counter by delta.
func (p *Progress) Tick(delta int64) {
	if p.Current != nil {
		atomic.AddInt64(p.Current, delta)
	}
}

// Set pins the progress counter to an absolute value.
func (p *Progress) Set(v int64) {
	if p.Current != nil {
		atomic.StoreInt64(p.Current, v)
	}
}

// Cancelled reports whether the job has been asked to stop.
func (p *Progress) Cancelled() bool {
	return p.Cancel != nil && atomic.LoadInt32(p.Cancel) != 0
}

// Kind tags which algorithm a Request carries, mirroring the
// comp_type enumeration's algorithmic members.
type Kind string

const (
	WCC                 Kind = "WCC"
	SCC                 Kind = "SCC"
	AggregateComponents Kind = "AggregateComponents"
	PageRank            Kind = "PageRank"
	IRank               Kind = "IRank"
	LabelPropagation    Kind = "LabelPropagation"
	AttributePropagation Kind = "AttributePropagation"
	Custom              Kind = "Custom"
)

// Result is the algorithm-dependent output of a Run call: a
// length-N primary vector plus whatever derived scalars/maps the
// algorithm produces. Exactly one of the typed vectors is populated.
type Result struct {
	IntVector    []int32                         // WCC/SCC representative or component id, label propagation labels
	FloatVector  []float64                       // PageRank/iRank/custom numeric result
	Histograms   map[int32]map[interface{}]int64 // component aggregation
	SetVector    [][]string                      // attribute propagation label sets
	StringVector []string                        // label propagation labels when seeded from "@id"
	Scalars      map[string]float64              // e.g. rank sum, iterations run
}

// Algorithm is the common interface every member of Kind implements.
type Algorithm interface {
	Run(g *store.Graph, progress *Progress) (*Result, error)
}
