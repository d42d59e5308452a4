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

	"github.com/arangoanalytics/graphengine/internal/algo"
	"github.com/arangoanalytics/graphengine/internal/engine"
	"github.com/arangoanalytics/graphengine/internal/jobs"
)

func TestStoreResultsPostRejectsMismatchedLengths(t *testing.T) {
	eng := engine.New(1, t.TempDir())
	h := &ResultHandlers{Engine: eng, Registry: eng.Registry}

	body, _ := json.Marshal(map[string]interface{}{
		"job_ids":         []string{"1"},
		"attribute_names": []string{},
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/storeresults", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	h.Post(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Unexpected status: %d, body: %s", rr.Code, rr.Body.String())
	}
}

func TestStoreResultsPostRejectsUnsucceededJob(t *testing.T) {
	eng := engine.New(1, t.TempDir())
	h := &ResultHandlers{Engine: eng, Registry: eng.Registry}

	j, err := eng.Registry.NewJob(jobs.WCC, 0)
	if err != nil {
		t.Fatal(err)
	}

	body, _ := json.Marshal(map[string]interface{}{
		"job_ids":         []string{decimal(j.ID())},
		"attribute_names": []string{"component"},
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/storeresults", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	h.Post(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Unexpected status: %d, body: %s", rr.Code, rr.Body.String())
	}
}

func TestStoreResultsPostDispatchesForSucceededJob(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	eng := engine.New(1, t.TempDir())
	reg := eng.Registry

	g := buildTestGraph(t, reg, "A", "B")
	j, err := reg.NewJob(jobs.WCC, g.ID)
	if err != nil {
		t.Fatal(err)
	}
	j.Complete(&algo.Result{IntVector: []int32{0, 0}}, 0)

	h := &ResultHandlers{Engine: eng, Registry: reg, DBEndpoints: []string{srv.URL}, RequestTimeout: time.Second}

	body, _ := json.Marshal(map[string]interface{}{
		"job_ids":           []string{decimal(j.ID())},
		"attribute_names":   []string{"component"},
		"target_collection": "results",
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/storeresults", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	h.Post(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Unexpected status: %d, body: %s", rr.Code, rr.Body.String())
	}

	var resp jobResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.CompType != jobs.StoreResults {
		t.Error("Unexpected comp_type:", resp.CompType)
		return
	}
}
