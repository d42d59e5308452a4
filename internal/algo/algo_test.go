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
	"testing"

	"github.com/arangoanalytics/graphengine/internal/store"
)

func freshProgress() *Progress {
	var cur, total int64
	var cancel int32
	return &Progress{Current: &cur, Total: &total, Cancel: &cancel}
}

// buildABCD builds a tiny fixture graph: A->B, C->D.
func buildABCD(t *testing.T) *store.Graph {
	g := store.New(1)
	for _, k := range []string{"A", "B", "C", "D"} {
		if _, err := g.AddVertex(k, nil, nil); err != nil {
			t.Fatal(err)
		}
	}
	g.SealVertices()
	for _, e := range [][2]string{{"A", "B"}, {"C", "D"}} {
		if err := g.AddEdge(store.VertexRef{Key: e[0]}, store.VertexRef{Key: e[1]}); err != nil {
			t.Fatal(err)
		}
	}
	g.Seal()
	return g
}

func TestWCCTwoComponents(t *testing.T) {
	g := buildABCD(t)

	res, err := WCCAlgorithm{}.Run(g, freshProgress())
	if err != nil {
		t.Fatal(err)
	}

	want := []int32{0, 0, 2, 2}
	for i, w := range want {
		if res.IntVector[i] != w {
			t.Error("Unexpected representative at", i, "got", res.IntVector[i], "want", w)
			return
		}
	}
}

func TestWCCIdempotence(t *testing.T) {
	g := buildABCD(t)

	r1, err := WCCAlgorithm{}.Run(g, freshProgress())
	if err != nil {
		t.Fatal(err)
	}
	r2, err := WCCAlgorithm{}.Run(g, freshProgress())
	if err != nil {
		t.Fatal(err)
	}

	for i := range r1.IntVector {
		if r1.IntVector[i] != r2.IntVector[i] {
			t.Error("WCC is not idempotent at vertex", i)
			return
		}
	}
}

func TestWCCSingleVertexNoEdges(t *testing.T) {
	g := store.New(1)
	g.AddVertex("A", nil, nil)
	g.SealVertices()
	g.Seal()

	res, err := WCCAlgorithm{}.Run(g, freshProgress())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.IntVector) != 1 || res.IntVector[0] != 0 {
		t.Error("Unexpected single-vertex WCC result:", res.IntVector)
		return
	}
}

func TestWCCEmptyGraph(t *testing.T) {
	g := store.New(1)
	g.SealVertices()
	g.Seal()

	res, err := WCCAlgorithm{}.Run(g, freshProgress())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.IntVector) != 0 {
		t.Error("Expected an empty result vector")
		return
	}
}

func TestSCCSelfLoopOnlyGraph(t *testing.T) {
	g := store.New(1)
	for _, k := range []string{"A", "B", "C"} {
		g.AddVertex(k, nil, nil)
	}
	g.SealVertices()
	for _, k := range []string{"A", "B", "C"} {
		g.AddEdge(store.VertexRef{Key: k}, store.VertexRef{Key: k})
	}
	g.Seal()

	res, err := SCCAlgorithm{}.Run(g, freshProgress())
	if err != nil {
		t.Fatal(err)
	}

	seen := map[int32]bool{}
	for _, c := range res.IntVector {
		if seen[c] {
			t.Error("Expected each vertex to be its own singleton component")
			return
		}
		seen[c] = true
	}
}

func TestPageRankSingleVertex(t *testing.T) {
	g := store.New(1)
	g.AddVertex("A", nil, nil)
	g.SealVertices()
	g.Seal()

	res, err := PageRankAlgorithm{MaxSupersteps: 10, Damping: 0.85}.Run(g, freshProgress())
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(res.FloatVector[0]-1.0) > 1e-9 {
		t.Error("Expected single-vertex pagerank of 1.0, got", res.FloatVector[0])
		return
	}
}

func TestPageRankSumInvariant(t *testing.T) {
	g := buildABCD(t)

	res, err := PageRankAlgorithm{MaxSupersteps: 20, Damping: 0.85}.Run(g, freshProgress())
	if err != nil {
		t.Fatal(err)
	}

	var sum float64
	for _, v := range res.FloatVector {
		sum += v
	}
	if math.Abs(sum-1.0) > 1e-6 {
		t.Error("PageRank does not sum to 1:", sum)
		return
	}
}

func TestIRankSumInvariantAcrossIterations(t *testing.T) {
	g := store.New(1)
	for _, k := range []string{"coll1/a", "coll1/b", "coll2/c"} {
		g.AddVertex(k, nil, nil)
	}
	g.SealVertices()
	g.AddEdge(store.VertexRef{Key: "coll1/a"}, store.VertexRef{Key: "coll2/c"})
	g.Seal()

	// Run for one superstep and for many; the initial weight sum
	// (1/2 + 1/2 + 1/1 = 2) must be conserved by both, since iRank's
	// iteration conserves total rank mass.
	initSum := 1.0/2 + 1.0/2 + 1.0/1

	r1, err := IRankAlgorithm{MaxSupersteps: 1, Damping: 0.85}.Run(g, freshProgress())
	if err != nil {
		t.Fatal(err)
	}
	r10, err := IRankAlgorithm{MaxSupersteps: 10, Damping: 0.85}.Run(g, freshProgress())
	if err != nil {
		t.Fatal(err)
	}

	sum := func(v []float64) float64 {
		var s float64
		for _, x := range v {
			s += x
		}
		return s
	}

	if math.Abs(sum(r1.FloatVector)-initSum) > 1e-6 {
		t.Error("iRank sum drifted after 1 superstep:", sum(r1.FloatVector), initSum)
		return
	}
	if math.Abs(sum(r10.FloatVector)-initSum) > 1e-6 {
		t.Error("iRank sum drifted after 10 supersteps:", sum(r10.FloatVector), initSum)
		return
	}
}

func TestLabelPropagationChainConverges(t *testing.T) {
	g := store.New(1)
	for i := 1; i <= 5; i++ {
		g.AddVertex(string(rune('0'+i)), nil, nil)
	}
	g.SealVertices()
	for i := 1; i < 5; i++ {
		g.AddEdge(store.VertexRef{HasIndex: true, Index: int32(i - 1)}, store.VertexRef{HasIndex: true, Index: int32(i)})
	}
	g.Seal()

	res, err := LabelPropagationAlgorithm{
		Synchronous:   true,
		MaxSupersteps: 10,
	}.Run(g, freshProgress())
	if err != nil {
		t.Fatal(err)
	}

	for i, label := range res.IntVector {
		if label != 0 {
			t.Error("Expected all vertices to converge to label 0 (vertex id 1), got", label, "at", i)
			return
		}
	}
}

func TestLabelPropagationByIDConvergesToStoredKey(t *testing.T) {
	g := store.New(1)
	for i := 1; i <= 5; i++ {
		g.AddVertex(string(rune('0'+i)), nil, nil)
	}
	g.SealVertices()
	for i := 1; i < 5; i++ {
		g.AddEdge(store.VertexRef{HasIndex: true, Index: int32(i - 1)}, store.VertexRef{HasIndex: true, Index: int32(i)})
	}
	g.Seal()

	res, err := LabelPropagationAlgorithm{
		StartLabelAttribute: "@id",
		Synchronous:         true,
		MaxSupersteps:       10,
	}.Run(g, freshProgress())
	if err != nil {
		t.Fatal(err)
	}

	if res.IntVector != nil {
		t.Fatal("Expected an @id-seeded run to report a StringVector, not an IntVector")
	}
	for i, label := range res.StringVector {
		if label != "1" {
			t.Error("Expected all vertices to converge to the stored key \"1\", got", label, "at", i)
			return
		}
	}
}

func TestLabelPropagationByIDBreaksTiesByStoredKeyNotIndex(t *testing.T) {
	// A center vertex "m" with two leaf neighbors "z" and "a": the
	// center sees one vote for its own label and one for each leaf's
	// label, a three-way tie that must be broken by comparing the
	// stored keys ("a" < "m" < "z"), not
	// their vertex indices (1 and 2, where index order would pick
	// whichever leaf happens to come first).
	g := store.New(1)
	g.AddVertex("m", nil, nil)
	g.AddVertex("z", nil, nil)
	g.AddVertex("a", nil, nil)
	g.SealVertices()
	g.AddEdge(store.VertexRef{HasIndex: true, Index: 0}, store.VertexRef{HasIndex: true, Index: 1})
	g.AddEdge(store.VertexRef{HasIndex: true, Index: 0}, store.VertexRef{HasIndex: true, Index: 2})
	g.Seal()

	res, err := LabelPropagationAlgorithm{
		StartLabelAttribute: "@id",
		Synchronous:         true,
		MaxSupersteps:       1,
	}.Run(g, freshProgress())
	if err != nil {
		t.Fatal(err)
	}

	if res.StringVector[0] != "a" {
		t.Error("Expected the center to break its tie toward the lexicographically smaller key \"a\", got", res.StringVector[0])
	}
}

func TestAttributePropagationForwardSyncOneStep(t *testing.T) {
	g := store.New(1)
	declared := map[string]store.ColumnType{"label": store.ColumnString}
	g.AddVertex("v1", declared, map[string]interface{}{"label": "x"})
	g.AddVertex("v2", declared, map[string]interface{}{"label": "y"})
	g.SealVertices()
	g.AddEdge(store.VertexRef{Key: "v1"}, store.VertexRef{Key: "v2"})
	g.Seal()

	res, err := AttributePropagationAlgorithm{
		StartLabelAttribute: "label",
		Synchronous:         true,
		MaxSupersteps:       1,
	}.Run(g, freshProgress())
	if err != nil {
		t.Fatal(err)
	}

	if !sameSet(res.SetVector[0], []string{"x"}) {
		t.Error("Unexpected label set for v1:", res.SetVector[0])
		return
	}
	if !sameSet(res.SetVector[1], []string{"x", "y"}) {
		t.Error("Unexpected label set for v2:", res.SetVector[1])
		return
	}
}

func TestAttributePropagationMonotonicity(t *testing.T) {
	g := store.New(1)
	declared := map[string]store.ColumnType{"label": store.ColumnString}
	for _, k := range []string{"v1", "v2", "v3"} {
		g.AddVertex(k, declared, map[string]interface{}{"label": k})
	}
	g.SealVertices()
	g.AddEdge(store.VertexRef{Key: "v1"}, store.VertexRef{Key: "v2"})
	g.AddEdge(store.VertexRef{Key: "v2"}, store.VertexRef{Key: "v3"})
	g.Seal()

	var prevSizes []int
	for step := 1; step <= 3; step++ {
		res, err := AttributePropagationAlgorithm{
			StartLabelAttribute: "label",
			Synchronous:         true,
			MaxSupersteps:       step,
		}.Run(g, freshProgress())
		if err != nil {
			t.Fatal(err)
		}

		sizes := make([]int, len(res.SetVector))
		for i, s := range res.SetVector {
			sizes[i] = len(s)
		}

		if prevSizes != nil {
			for i := range sizes {
				if sizes[i] < prevSizes[i] {
					t.Error("Label set size decreased at vertex", i)
					return
				}
			}
		}
		prevSizes = sizes
	}
}

func sameSet(a []string, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	m := map[string]bool{}
	for _, x := range a {
		m[x] = true
	}
	for _, x := range b {
		if !m[x] {
			return false
		}
	}
	return true
}
