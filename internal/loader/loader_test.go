/*
 * GraphEngine
 *
 * Copyright 2024 The GraphEngine Authors.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package loader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/arangoanalytics/graphengine/internal/dbclient"
	"github.com/arangoanalytics/graphengine/internal/store"
)

// fakeDatabase serves a fixed vertex collection (A, B, C) and a fixed
// edge collection (A->B, B->C), each as a single page.
func fakeDatabase(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("collection") {
		case "vertices":
			w.Write([]byte(`{
				"documents": [
					{"_key": "A", "label": "a"},
					{"_key": "B", "label": "b"},
					{"_key": "C", "label": "c"}
				],
				"hasMore": false
			}`))
		case "edges":
			w.Write([]byte(`{
				"documents": [
					{"_key": "e1", "_from": "A", "_to": "B"},
					{"_key": "e2", "_from": "B", "_to": "C"}
				],
				"hasMore": false
			}`))
		default:
			t.Errorf("unexpected collection %q", r.URL.Query().Get("collection"))
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestLoadBuildsGraphFromExplicitCollections(t *testing.T) {
	srv := fakeDatabase(t)
	defer srv.Close()

	db := dbclient.New([]string{srv.URL}, "", time.Second)
	defer db.Close()

	l := New(db)

	var progress, total int64
	var cancel int32

	g, err := l.Load(context.Background(), 1, Request{
		VertexCollections: []string{"vertices"},
		EdgeCollections:   []string{"edges"},
	}, &progress, &total, &cancel)
	if err != nil {
		t.Fatal(err)
	}

	if g.State() != store.Sealed {
		t.Error("Expected the loaded graph to be sealed")
		return
	}
	if g.NumVertices() != 3 {
		t.Error("Unexpected vertex count:", g.NumVertices())
		return
	}
	if g.NumEdges() != 2 {
		t.Error("Unexpected edge count:", g.NumEdges())
		return
	}

	ai, ok := g.IndexByKey("A")
	if !ok {
		t.Fatal("vertex A not found")
	}
	bi, ok := g.IndexByKey("B")
	if !ok {
		t.Fatal("vertex B not found")
	}

	found := false
	for _, e := range g.Edges() {
		if e.From == ai && e.To == bi {
			found = true
		}
	}
	if !found {
		t.Error("Expected edge A->B in the sealed graph")
		return
	}
	if progress != 5 { // 3 vertex docs + 2 edge docs
		t.Error("Unexpected progress total:", progress)
		return
	}
}

func TestLoadRejectsUnresolvableEdgeEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("collection") {
		case "vertices":
			w.Write([]byte(`{"documents": [{"_key": "A"}], "hasMore": false}`))
		case "edges":
			w.Write([]byte(`{"documents": [{"_key": "e1", "_from": "A", "_to": "ghost"}], "hasMore": false}`))
		}
	}))
	defer srv.Close()

	db := dbclient.New([]string{srv.URL}, "", time.Second)
	defer db.Close()

	l := New(db)

	var progress, total int64
	var cancel int32
	_, err := l.Load(context.Background(), 1, Request{
		VertexCollections: []string{"vertices"},
		EdgeCollections:   []string{"edges"},
	}, &progress, &total, &cancel)
	if err == nil {
		t.Error("Expected an error for an unresolvable edge endpoint")
		return
	}
}

func TestLoadAppliesVertexAttributeProjectionAndTypeOverride(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("collection") {
		case "vertices":
			w.Write([]byte(`{
				"documents": [
					{"_key": "A", "label": "a", "score": 1, "internal_note": "drop me"}
				],
				"hasMore": false
			}`))
		case "edges":
			w.Write([]byte(`{"documents": [], "hasMore": false}`))
		}
	}))
	defer srv.Close()

	db := dbclient.New([]string{srv.URL}, "", time.Second)
	defer db.Close()

	l := New(db)

	var progress, total int64
	var cancel int32
	g, err := l.Load(context.Background(), 1, Request{
		VertexCollections:    []string{"vertices"},
		EdgeCollections:      []string{"edges"},
		VertexAttributes:     []string{"label", "score"},
		VertexAttributeTypes: []string{"string", "u64"},
	}, &progress, &total, &cancel)
	if err != nil {
		t.Fatal(err)
	}

	if g.Column("internal_note") != nil {
		t.Error("Expected internal_note to be dropped by the declared vertex_attributes projection")
	}

	col := g.Column("score")
	if col == nil {
		t.Fatal("Expected a score column")
	}
	if col.Type != store.ColumnU64 {
		t.Error("Expected score's declared type u64 to win over the sniffed f64 type, got", col.Type)
	}
}

func TestLoadHonoursCancel(t *testing.T) {
	srv := fakeDatabase(t)
	defer srv.Close()

	db := dbclient.New([]string{srv.URL}, "", time.Second)
	defer db.Close()

	l := New(db)

	var progress, total int64
	cancel := int32(1)
	_, err := l.Load(context.Background(), 1, Request{
		VertexCollections: []string{"vertices"},
		EdgeCollections:   []string{"edges"},
	}, &progress, &total, &cancel)
	if err == nil {
		t.Error("Expected a cancellation error")
		return
	}
}
