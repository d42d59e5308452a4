/*
 * GraphEngine
 *
 * Copyright 2024 The GraphEngine Authors.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/arangoanalytics/graphengine/internal/engine"
)

func TestLoadDataPostRejectsIncompleteRequest(t *testing.T) {
	h := &LoadDataHandlers{Engine: engine.New(1, t.TempDir())}

	body, _ := json.Marshal(map[string]interface{}{"database": "mydb"})
	req := httptest.NewRequest(http.MethodPost, "/v1/loaddata", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	h.Post(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Unexpected status: %d, body: %s", rr.Code, rr.Body.String())
	}
}

func TestLoadDataPostAcceptsGraphName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"documents": [{"_key": "g", "vertex_collections": ["v"], "edge_collections": ["e"]}], "hasMore": false}`))
	}))
	defer srv.Close()

	eng := engine.New(1, t.TempDir())
	h := &LoadDataHandlers{Engine: eng, DBEndpoints: []string{srv.URL}, RequestTimeout: time.Second}

	body, _ := json.Marshal(map[string]interface{}{"database": "mydb", "graph_name": "social"})
	req := httptest.NewRequest(http.MethodPost, "/v1/loaddata", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	h.Post(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Unexpected status: %d, body: %s", rr.Code, rr.Body.String())
	}

	var resp jobResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.CompType != "LoadData" {
		t.Error("Unexpected comp_type:", resp.CompType)
		return
	}
}

func TestLoadDataPostAcceptsVertexAttributeDeclaration(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"documents": [], "hasMore": false}`))
	}))
	defer srv.Close()

	eng := engine.New(1, t.TempDir())
	h := &LoadDataHandlers{Engine: eng, DBEndpoints: []string{srv.URL}, RequestTimeout: time.Second}

	body, _ := json.Marshal(map[string]interface{}{
		"database":               "mydb",
		"vertex_collections":     []string{"people"},
		"edge_collections":       []string{"knows"},
		"vertex_attributes":      []string{"name", "age"},
		"vertex_attribute_types": []string{"string", "u64"},
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/loaddata", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	h.Post(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Unexpected status: %d, body: %s", rr.Code, rr.Body.String())
	}
}
