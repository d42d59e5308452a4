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
Package writer takes a set of completed jobs producing equal-length
result vectors and a set of attribute names, builds one document per
vertex, and batch-upserts them into a target collection so reruns are
idempotent.
*/
package writer

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/arangoanalytics/graphengine/internal/algo"
	"github.com/arangoanalytics/graphengine/internal/dbclient"
	"github.com/arangoanalytics/graphengine/internal/engineerr"
	"github.com/arangoanalytics/graphengine/internal/store"
)

// DefaultBatchSize is the default upsert batch size.
const DefaultBatchSize = 10000

// Source binds a result vector (read off a completed job) to the
// attribute name it should be written under.
type Source struct {
	Attribute string
	Result    *algo.Result
}

// Request describes one store-results job, taken off POST
// /v1/storeresults.
type Request struct {
	Collection  string
	Sources     []Source
	BatchSize   int
	Parallelism int
}

// Writer batch-upserts per-vertex result documents.
type Writer struct {
	DB *dbclient.Client
}

// New builds a Writer against the given database client.
func New(db *dbclient.Client) *Writer {
	return &Writer{DB: db}
}

/*
Write builds one document per vertex of g — {_key: <vertex key>,
<attr1>: v1, ...} — and upserts them in batches, ticking
progress/total per batch and observing cancel at each batch boundary.
*/
func (w *Writer) Write(ctx context.Context, g *store.Graph, req Request, progress, total *int64, cancel *int32) error {
	if req.BatchSize <= 0 {
		req.BatchSize = DefaultBatchSize
	}
	if req.Parallelism <= 0 {
		req.Parallelism = runtime.NumCPU()
	}
	if len(req.Sources) == 0 {
		return engineerr.New(engineerr.InvalidInput, "storeresults requires at least one source")
	}

	n := g.NumVertices()
	for _, s := range req.Sources {
		if !resultLen(s.Result, n) {
			return engineerr.New(engineerr.InvalidInput, "result for attribute %q has the wrong length", s.Attribute)
		}
	}

	if total != nil {
		*total = int64(n)
	}

	batches := make([][]dbclient.Document, 0, n/req.BatchSize+1)
	for start := 0; start < n; start += req.BatchSize {
		end := start + req.BatchSize
		if end > n {
			end = n
		}
		batches = append(batches, w.buildBatch(g, req.Sources, start, end))
	}

	var mu sync.Mutex
	var errs *multierror.Error

	grp, ctx := errgroup.WithContext(ctx)
	grp.SetLimit(req.Parallelism)

	for _, batch := range batches {
		batch := batch
		grp.Go(func() error {
			if cancelled(cancel) {
				return engineerr.New(engineerr.Cancelled, "store cancelled")
			}

			if err := w.DB.BatchUpsert(ctx, req.Collection, batch); err != nil {
				mu.Lock()
				errs = multierror.Append(errs, fmt.Errorf("batch of %d documents: %w", len(batch), err))
				mu.Unlock()
				return nil // keep writing remaining batches; aggregate failures below
			}

			if progress != nil {
				atomic.AddInt64(progress, int64(len(batch)))
			}
			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		return err
	}
	if errs != nil {
		return engineerr.New(engineerr.StoreError, "%d batch(es) failed: %v", len(errs.Errors), errs)
	}
	return nil
}

func (w *Writer) buildBatch(g *store.Graph, sources []Source, start, end int) []dbclient.Document {
	docs := make([]dbclient.Document, 0, end-start)
	for i := start; i < end; i++ {
		attrs := make(map[string]interface{}, len(sources))
		for _, s := range sources {
			attrs[s.Attribute] = valueAt(s.Result, i)
		}
		docs = append(docs, dbclient.Document{Key: g.Key(int32(i)), Attrs: attrs})
	}
	return docs
}

func resultLen(r *algo.Result, n int) bool {
	switch {
	case r.IntVector != nil:
		return len(r.IntVector) == n
	case r.FloatVector != nil:
		return len(r.FloatVector) == n
	case r.SetVector != nil:
		return len(r.SetVector) == n
	case r.StringVector != nil:
		return len(r.StringVector) == n
	}
	return false
}

func valueAt(r *algo.Result, i int) interface{} {
	switch {
	case r.IntVector != nil:
		return r.IntVector[i]
	case r.FloatVector != nil:
		return r.FloatVector[i]
	case r.SetVector != nil:
		return r.SetVector[i]
	case r.StringVector != nil:
		return r.StringVector[i]
	}
	return nil
}

func cancelled(cancel *int32) bool {
	return cancel != nil && *cancel != 0
}
