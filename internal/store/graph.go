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
Package store holds the in-memory graph representation: a compact,
append-only, two-phase built structure with hashed vertex identity, a
columnar attribute store, and CSR-style edge indices built lazily on
first algorithmic need.
*/
package store

import (
	"sync"

	"github.com/arangoanalytics/graphengine/internal/engineerr"
)

// BuildState is one of the three states a Graph moves through exactly
// once, in order.
type BuildState int

const (
	BuildingVertices BuildState = iota
	VerticesSealed
	Sealed
)

/*
Edge is an ordered (from, to) pair of vertex indices. Duplicates and
self-loops are both permitted.
*/
type Edge struct {
	From int32
	To   int32
}

/*
Graph is a sealed, immutable snapshot. It is built through its
AddVertex/SealVertices/AddEdge/Seal methods (mutating,
single-threaded) and then read through its exported
methods (safe for unlimited concurrent readers once Sealed).
*/
type Graph struct {
	ID int64

	state BuildState

	// vertex phase
	hashes []uint64 // length N once vertices sealed; hashes[i] is vertex i's hash
	keys   []string // length N if any key was stored, else nil
	hasKeys bool
	ident  *identity
	cols   *Columns

	// edge phase
	edges []Edge

	// lazy CSR, built once under csrOnce
	csrOnce   sync.Once
	byFrom    *csr
	byToOnce  sync.Once
	byTo      *csr
}

// New creates an empty Graph in the BuildingVertices state.
func New(id int64) *Graph {
	return &Graph{
		ID:    id,
		state: BuildingVertices,
		ident: newIdentity(),
		cols:  newColumns(),
	}
}

// State returns the graph's current build state.
func (g *Graph) State() BuildState { return g.state }

// NumVertices returns N. Valid in any state (it is the number of
// vertices appended so far).
func (g *Graph) NumVertices() int { return len(g.hashes) }

// NumEdges returns E. Only meaningful once vertices are sealed; zero
// before then.
func (g *Graph) NumEdges() int { return len(g.edges) }

/*
AddVertex appends a new vertex while the graph is in BuildingVertices
state. key is optional ("" means no key); declared maps attribute
names to their column types and attrs holds the raw values, coerced
per their declared type. Returns the new
vertex's index.
*/
func (g *Graph) AddVertex(key string, declared map[string]ColumnType, attrs map[string]interface{}) (int32, error) {
	if g.state != BuildingVertices {
		return 0, engineerr.New(engineerr.Internal, "add_vertex called outside BuildingVertices state")
	}

	idx := int32(len(g.hashes))
	hasKey := key != ""

	h := g.ident.resolveForInsert(key, hasKey)
	g.ident.register(h, idx, key, hasKey)

	g.hashes = append(g.hashes, h)

	if hasKey {
		g.hasKeys = true
	}
	if g.hasKeys {
		for int32(len(g.keys)) <= idx {
			g.keys = append(g.keys, "")
		}
		g.keys[idx] = key
	}

	n := int(idx) + 1
	for name, t := range declared {
		col := g.cols.declare(name, t, n)
		var v interface{}
		if attrs != nil {
			v = attrs[name]
		}
		if err := col.Set(int(idx), v); err != nil {
			return 0, engineerr.New(engineerr.LoadError, "vertex %v attribute %q: %v", key, name, err)
		}
	}
	// Any previously declared column must still reach length n.
	for _, name := range g.cols.Names() {
		g.cols.Get(name).grow(n)
	}

	return idx, nil
}

// SealVertices freezes the hash/key table and finalizes columns,
// moving the graph from BuildingVertices to VerticesSealed.
func (g *Graph) SealVertices() error {
	if g.state != BuildingVertices {
		return engineerr.New(engineerr.Internal, "seal_vertices called outside BuildingVertices state")
	}
	n := len(g.hashes)
	for _, name := range g.cols.Names() {
		g.cols.Get(name).grow(n)
	}
	g.state = VerticesSealed
	return nil
}

/*
VertexRef is a caller-supplied edge endpoint reference: exactly one of
Index, Hash, Key is set, checked in that precedence order.
*/
type VertexRef struct {
	HasIndex bool
	Index    int32
	HasHash  bool
	Hash     uint64
	Key      string
}

// resolve turns a VertexRef into a trusted vertex index.
func (g *Graph) resolve(ref VertexRef) (int32, error) {
	n := int32(len(g.hashes))

	if ref.HasIndex {
		if ref.Index < 0 || ref.Index >= n {
			return 0, engineerr.New(engineerr.LoadError, "index %d out of range [0,%d)", ref.Index, n)
		}
		return ref.Index, nil
	}

	if ref.HasHash {
		idx, ok := g.ident.indexByHash(ref.Hash)
		if !ok {
			return 0, engineerr.New(engineerr.LoadError, "unresolved hash endpoint %d", ref.Hash)
		}
		return idx, nil
	}

	if ref.Key != "" {
		idx, ok := g.ident.indexByKey(ref.Key)
		if !ok {
			return 0, engineerr.New(engineerr.LoadError, "unresolved key endpoint %q", ref.Key)
		}
		return idx, nil
	}

	return 0, engineerr.New(engineerr.LoadError, "empty edge endpoint reference")
}

/*
AddEdge appends an edge once vertices are sealed. Endpoints are
resolved per the precedence rule in resolve. A resolution failure
rejects this edge with a typed error but does not mutate graph state
otherwise, so callers can continue processing a batch.
*/
func (g *Graph) AddEdge(from, to VertexRef) error {
	if g.state != VerticesSealed {
		return engineerr.New(engineerr.Internal, "add_edge called outside VerticesSealed state")
	}

	fi, err := g.resolve(from)
	if err != nil {
		return err
	}
	ti, err := g.resolve(to)
	if err != nil {
		return err
	}

	g.edges = append(g.edges, Edge{From: fi, To: ti})
	return nil
}

// Seal freezes the edge list, moving the graph from VerticesSealed to
// Sealed. No further mutation is possible afterwards.
func (g *Graph) Seal() error {
	if g.state != VerticesSealed {
		return engineerr.New(engineerr.Internal, "seal called outside VerticesSealed state")
	}
	g.state = Sealed
	return nil
}

// Key returns the stored key for vertex idx, or "" if keys were never
// stored for this graph.
func (g *Graph) Key(idx int32) string {
	if !g.hasKeys || int(idx) >= len(g.keys) {
		return ""
	}
	return g.keys[idx]
}

// HasKeys reports whether this graph stores per-vertex keys.
func (g *Graph) HasKeys() bool { return g.hasKeys }

// Hash returns the stored hash for vertex idx.
func (g *Graph) Hash(idx int32) uint64 { return g.hashes[idx] }

// Column returns the named attribute column, or nil if undeclared.
func (g *Graph) Column(name string) *Column { return g.cols.Get(name) }

// ColumnNames returns the declared attribute column names.
func (g *Graph) ColumnNames() []string { return g.cols.Names() }

// Edges returns the sealed edge list. Callers must not mutate it.
func (g *Graph) Edges() []Edge { return g.edges }

// IndexByKey looks up a vertex index by its stored key.
func (g *Graph) IndexByKey(key string) (int32, bool) { return g.ident.indexByKey(key) }

// IndexByHash looks up a vertex index by hash.
func (g *Graph) IndexByHash(h uint64) (int32, bool) { return g.ident.indexByHash(h) }

// MemoryUsage is a budgetary estimate used for the graph response's
// memory_usage/memory_per_vertex/memory_per_edge fields. It is
// informational, never load-bearing for correctness.
func (g *Graph) MemoryUsage() (total, perVertex, perEdge uint64) {
	n := uint64(len(g.hashes))
	e := uint64(len(g.edges))

	var keyBytes uint64
	if g.hasKeys {
		for _, k := range g.keys {
			keyBytes += uint64(len(k))
		}
	}

	var colBytes uint64
	for _, name := range g.cols.Names() {
		col := g.cols.Get(name)
		switch col.Type {
		case ColumnString:
			for _, s := range col.Strings {
				colBytes += uint64(len(s))
			}
		case ColumnF64:
			colBytes += 8 * n
		case ColumnI64, ColumnU64:
			colBytes += 8 * n
		}
	}

	vertexBytes := 24*n + keyBytes + colBytes
	edgeBytes := 16 * e

	total = vertexBytes + edgeBytes
	if g.byFrom != nil || g.byTo != nil {
		total += 16 * (n + e)
	}

	if n > 0 {
		perVertex = vertexBytes / n
	}
	if e > 0 {
		perEdge = edgeBytes / e
	}
	return
}
