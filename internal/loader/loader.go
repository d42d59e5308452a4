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
Package loader builds a *store.Graph from a document database,
supporting two sub-paths: a named graph (whose vertex/edge collections
are enumerated first) or an explicit list of collections. Both paths
stream pages through dbclient and enforce the two-phase build
ordering: every vertex batch of every collection is applied before any
edge batch begins resolving endpoints. There is no separate in-flight
batch queue: each collection goroutine fetches and applies one page at
a time, so at most Parallelism pages are in flight, and
Request.MaxInFlightBatches is defaulted but not otherwise used.
*/
package loader

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/arangoanalytics/graphengine/internal/dbclient"
	"github.com/arangoanalytics/graphengine/internal/engineerr"
	"github.com/arangoanalytics/graphengine/internal/store"
)

// maxFailureSample bounds the number of offending document ids kept
// in a load-time error report.
const maxFailureSample = 50

// Request describes one load job's source, taken directly off the
// POST /v1/loaddata body.
type Request struct {
	// NamedGraph, when set, is a single database graph descriptor
	// whose vertex/edge collections are enumerated automatically.
	NamedGraph string

	// VertexCollections/EdgeCollections are used for the explicit-
	// collection path when NamedGraph is empty.
	VertexCollections []string
	EdgeCollections   []string

	// VertexAttributes, when non-empty, restricts every loaded vertex
	// to exactly these attribute names, discarding anything else the
	// document carries. VertexAttributeTypes, aligned index-for-index
	// with VertexAttributes, overrides the per-document type sniff
	// with a caller-declared column type for that attribute; an
	// attribute named in VertexAttributes but absent (or positioned
	// past the end) of VertexAttributeTypes keeps the sniffed type.
	VertexAttributes     []string
	VertexAttributeTypes []string

	BatchSize          int
	MaxInFlightBatches int
	Parallelism        int
}

// Loader pulls documents through a dbclient.Client and builds a graph.
type Loader struct {
	DB     *dbclient.Client
	Logger *logrus.Entry
}

// New builds a Loader against the given database client.
func New(db *dbclient.Client) *Loader {
	return &Loader{DB: db, Logger: logrus.WithField("component", "loader")}
}

/*
Load builds graph id gid from req, reporting progress through
progress/total (ticked per processed document batch) and observing
cancel at each batch boundary, matching the job runner's cooperative
cancellation contract.
*/
func (l *Loader) Load(ctx context.Context, gid int64, req Request, progress, total *int64, cancel *int32) (*store.Graph, error) {
	if req.BatchSize <= 0 {
		req.BatchSize = 1000
	}
	if req.MaxInFlightBatches <= 0 {
		req.MaxInFlightBatches = 200
	}
	if req.Parallelism <= 0 {
		req.Parallelism = runtime.NumCPU()
	}

	vertexCollections := req.VertexCollections
	edgeCollections := req.EdgeCollections
	if req.NamedGraph != "" {
		var err error
		vertexCollections, edgeCollections, err = l.enumerateNamedGraph(ctx, req.NamedGraph)
		if err != nil {
			return nil, err
		}
	}

	g := store.New(gid)
	proj := newAttributeProjection(req.VertexAttributes, req.VertexAttributeTypes)

	if err := l.loadVertices(ctx, g, vertexCollections, req, proj, progress, total, cancel); err != nil {
		return nil, err
	}
	if err := g.SealVertices(); err != nil {
		return nil, engineerr.New(engineerr.LoadError, "sealing vertices: %v", err)
	}

	if err := l.loadEdges(ctx, g, edgeCollections, req, progress, total, cancel); err != nil {
		return nil, err
	}
	if err := g.Seal(); err != nil {
		return nil, engineerr.New(engineerr.LoadError, "sealing graph: %v", err)
	}

	return g, nil
}

// enumerateNamedGraph resolves a named graph's vertex/edge collections
// by reading the "_graphs/<name>" descriptor document through
// StreamPage.
func (l *Loader) enumerateNamedGraph(ctx context.Context, name string) (vertexColls, edgeColls []string, err error) {
	page, err := l.DB.StreamPage(ctx, "_graphs/"+name, "", 1)
	if err != nil {
		return nil, nil, engineerr.New(engineerr.LoadError, "enumerating named graph %q: %v", name, err)
	}
	if len(page.Documents) == 0 {
		return nil, nil, engineerr.New(engineerr.LoadError, "named graph %q not found", name)
	}

	doc := page.Documents[0]
	if v, ok := doc.Attrs["vertex_collections"].([]interface{}); ok {
		for _, c := range v {
			if s, ok := c.(string); ok {
				vertexColls = append(vertexColls, s)
			}
		}
	}
	if v, ok := doc.Attrs["edge_collections"].([]interface{}); ok {
		for _, c := range v {
			if s, ok := c.(string); ok {
				edgeColls = append(edgeColls, s)
			}
		}
	}
	return vertexColls, edgeColls, nil
}

/*
loadVertices streams every vertex collection and appends each document
as a vertex. Vertex insertion into store.Graph is single-threaded (the
column store only accepts writes during its build phase, one goroutine
at a time), so batches are fanned out for fetching but applied to the
graph sequentially through applyMu.
*/
func (l *Loader) loadVertices(ctx context.Context, g *store.Graph, collections []string, req Request, proj attributeProjection, progress, total *int64, cancel *int32) error {
	var applyMu sync.Mutex
	var errs *multierror.Error
	var sample []string
	var failed int

	grp, ctx := errgroup.WithContext(ctx)
	grp.SetLimit(req.Parallelism)

	for _, coll := range collections {
		coll := coll
		grp.Go(func() error {
			cursor := ""
			for {
				if cancelled(cancel) {
					return engineerr.New(engineerr.Cancelled, "load cancelled")
				}

				page, err := l.DB.StreamPage(ctx, coll, cursor, req.BatchSize)
				if err != nil {
					return engineerr.New(engineerr.LoadError, "streaming vertex collection %q: %v", coll, err)
				}

				applyMu.Lock()
				for _, doc := range page.Documents {
					attrs := proj.apply(doc.Attrs)
					declared := declaredColumns(attrs, proj.types)
					if _, err := g.AddVertex(doc.Key, declared, attrs); err != nil {
						failed++
						errs = multierror.Append(errs, fmt.Errorf("vertex %s: %w", doc.Key, err))
						if len(sample) < maxFailureSample {
							sample = append(sample, doc.Key)
						}
					}
				}
				applyMu.Unlock()

				tickBatch(progress, total, len(page.Documents))

				if !page.HasMore {
					return nil
				}
				cursor = page.Cursor
			}
		})
	}

	if err := grp.Wait(); err != nil {
		return err
	}

	if failed > 0 {
		return engineerr.New(engineerr.LoadError, "%d vertex error(s), sample: %v (%v)", failed, sample, errs)
	}
	return nil
}

/*
loadEdges streams every edge collection in parallel (bounded by
req.Parallelism via errgroup) and resolves each edge's endpoints
against the already-sealed vertex hash/key tables. Pages are fetched
concurrently, but every AddEdge call (endpoint resolution plus append)
is serialized through the loader's own mu, since the graph takes no
lock of its own.
*/
func (l *Loader) loadEdges(ctx context.Context, g *store.Graph, collections []string, req Request, progress, total *int64, cancel *int32) error {
	var mu sync.Mutex
	var errs *multierror.Error
	var sample []string
	var unresolved int

	grp, ctx := errgroup.WithContext(ctx)
	grp.SetLimit(req.Parallelism)

	for _, coll := range collections {
		coll := coll
		grp.Go(func() error {
			cursor := ""
			for {
				if cancelled(cancel) {
					return engineerr.New(engineerr.Cancelled, "load cancelled")
				}

				page, err := l.DB.StreamPage(ctx, coll, cursor, req.BatchSize)
				if err != nil {
					return engineerr.New(engineerr.LoadError, "streaming edge collection %q: %v", coll, err)
				}

				for _, doc := range page.Documents {
					from := store.VertexRef{Key: doc.From}
					to := store.VertexRef{Key: doc.To}

					mu.Lock()
					err := g.AddEdge(from, to)
					if err != nil {
						unresolved++
						errs = multierror.Append(errs, fmt.Errorf("edge %s: %w", doc.Key, err))
						if len(sample) < maxFailureSample {
							sample = append(sample, doc.Key)
						}
					}
					mu.Unlock()
				}

				tickBatch(progress, total, len(page.Documents))

				if !page.HasMore {
					return nil
				}
				cursor = page.Cursor
			}
		})
	}

	if err := grp.Wait(); err != nil {
		return err
	}

	if unresolved > 0 {
		return engineerr.New(engineerr.LoadError, "%d unresolvable edge endpoint(s), sample: %v (%v)", unresolved, sample, errs)
	}
	return nil
}

func cancelled(cancel *int32) bool {
	return cancel != nil && *cancel != 0
}

// tickBatch is called from every collection's fan-out goroutine, so
// progress/total are updated atomically rather than with plain +=.
func tickBatch(progress, total *int64, n int) {
	if progress == nil {
		return
	}
	p := atomic.AddInt64(progress, int64(n))
	if total != nil {
		for {
			cur := atomic.LoadInt64(total)
			if cur >= p {
				break
			}
			if atomic.CompareAndSwapInt64(total, cur, p) {
				break
			}
		}
	}
}

/*
attributeProjection is the caller-declared view of vertex attributes
built once per load from the request's vertex_attributes/
vertex_attribute_types pair: allowed, when non-nil, restricts every
document to exactly those attribute names; types overrides the
per-document JSON-type sniff with an explicit column type for a named
attribute. Both are empty (a no-op projection) when the request
declared neither field, preserving the type-sniffing behavior a
caller who doesn't declare anything has always gotten.
*/
type attributeProjection struct {
	allowed map[string]struct{}
	types   map[string]store.ColumnType
}

func newAttributeProjection(names, types []string) attributeProjection {
	proj := attributeProjection{types: make(map[string]store.ColumnType, len(names))}
	if len(names) > 0 {
		proj.allowed = make(map[string]struct{}, len(names))
	}
	for i, name := range names {
		proj.allowed[name] = struct{}{}
		if i < len(types) {
			if t, ok := parseColumnType(types[i]); ok {
				proj.types[name] = t
			}
		}
	}
	return proj
}

// apply restricts attrs to the declared attribute names when the
// caller named any; with no declared names it passes attrs through
// unchanged.
func (p attributeProjection) apply(attrs map[string]interface{}) map[string]interface{} {
	if p.allowed == nil {
		return attrs
	}
	out := make(map[string]interface{}, len(p.allowed))
	for k, v := range attrs {
		if _, ok := p.allowed[k]; ok {
			out[k] = v
		}
	}
	return out
}

func parseColumnType(s string) (store.ColumnType, bool) {
	switch s {
	case "string":
		return store.ColumnString, true
	case "f64":
		return store.ColumnF64, true
	case "i64":
		return store.ColumnI64, true
	case "u64":
		return store.ColumnU64, true
	}
	return 0, false
}

// declaredColumns infers a column type per attribute from its JSON
// value, matching the column store's typed-column model, except for
// an attribute named in overrides, whose declared type wins over the
// sniffed one.
func declaredColumns(attrs map[string]interface{}, overrides map[string]store.ColumnType) map[string]store.ColumnType {
	declared := make(map[string]store.ColumnType, len(attrs))
	for k, v := range attrs {
		if t, ok := overrides[k]; ok {
			declared[k] = t
			continue
		}
		switch v.(type) {
		case string:
			declared[k] = store.ColumnString
		case float64:
			declared[k] = store.ColumnF64
		case int, int32, int64:
			declared[k] = store.ColumnI64
		case uint, uint32, uint64:
			declared[k] = store.ColumnU64
		default:
			declared[k] = store.ColumnString
		}
	}
	return declared
}
