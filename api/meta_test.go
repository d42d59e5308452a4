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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/arangoanalytics/graphengine/config"
)

func TestAPIVersion(t *testing.T) {
	h := &MetaHandlers{}

	req := httptest.NewRequest(http.MethodGet, "/v1/api-version", nil)
	rr := httptest.NewRecorder()

	h.APIVersion(rr, req)

	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["api_version"] != "v1" {
		t.Error("Unexpected api_version:", body["api_version"])
		return
	}
	if body["product_version"] != config.ProductVersion {
		t.Error("Unexpected product_version:", body["product_version"])
		return
	}
}

func TestShutdownNowCallsShutdown(t *testing.T) {
	done := make(chan struct{})
	h := &MetaHandlers{Shutdown: func() { close(done) }}

	req := httptest.NewRequest(http.MethodDelete, "/v1/shutdown", nil)
	rr := httptest.NewRecorder()

	h.ShutdownNow(rr, req)

	if rr.Code != http.StatusOK {
		t.Error("Unexpected status:", rr.Code)
		return
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Error("Expected Shutdown to be called")
	}
}
