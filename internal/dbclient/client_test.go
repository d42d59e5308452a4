/*
 * GraphEngine
 *
 * Copyright 2024 The GraphEngine Authors.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package dbclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestStreamPageSplitsReservedFields(t *testing.T) {
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if got := r.URL.Query().Get("collection"); got != "vertices" {
			t.Error("Unexpected collection query param:", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"documents": [
				{"_key": "v1", "_id": "vertices/v1", "_rev": "1", "name": "alice", "age": 30},
				{"_key": "v2", "name": "bob"}
			],
			"hasMore": true,
			"cursor": "next-page"
		}`))
	}))
	defer srv.Close()

	c := New([]string{srv.URL}, "tok123", 5*time.Second)
	defer c.Close()

	page, err := c.StreamPage(context.Background(), "vertices", "", 100)
	if err != nil {
		t.Fatal(err)
	}
	if gotAuth != "Bearer tok123" {
		t.Error("Unexpected Authorization header:", gotAuth)
		return
	}
	if !page.HasMore || page.Cursor != "next-page" {
		t.Error("Unexpected paging fields:", page.HasMore, page.Cursor)
		return
	}
	if len(page.Documents) != 2 {
		t.Fatal("Expected 2 documents, got", len(page.Documents))
	}

	d1 := page.Documents[0]
	if d1.Key != "v1" {
		t.Error("Unexpected key:", d1.Key)
		return
	}
	if _, ok := d1.Attrs["_id"]; ok {
		t.Error("_id should have been stripped from attrs")
		return
	}
	if _, ok := d1.Attrs["_rev"]; ok {
		t.Error("_rev should have been stripped from attrs")
		return
	}
	if d1.Attrs["name"] != "alice" {
		t.Error("Unexpected name attr:", d1.Attrs["name"])
		return
	}
}

func TestStreamPageServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New([]string{srv.URL}, "", time.Second)
	defer c.Close()

	if _, err := c.StreamPage(context.Background(), "vertices", "", 10); err == nil {
		t.Error("Expected an error on a 500 response")
		return
	}
}

func TestBatchUpsertSendsDocuments(t *testing.T) {
	var received []map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Error("Unexpected method:", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatal(err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New([]string{srv.URL}, "tok", time.Second)
	defer c.Close()

	err := c.BatchUpsert(context.Background(), "results", []Document{
		{Key: "v1", Attrs: map[string]interface{}{"rank": 0.5}},
		{Key: "v2", From: "a/1", To: "b/2", Attrs: map[string]interface{}{"rank": 0.25}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(received) != 2 {
		t.Fatal("Expected 2 documents sent, got", len(received))
	}
	if received[0]["_key"] != "v1" || received[0]["rank"].(float64) != 0.5 {
		t.Error("Unexpected first document:", received[0])
		return
	}
	if received[1]["_from"] != "a/1" || received[1]["_to"] != "b/2" {
		t.Error("Unexpected second document endpoints:", received[1])
		return
	}
}

func TestBatchUpsertServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New([]string{srv.URL}, "", time.Second)
	defer c.Close()

	err := c.BatchUpsert(context.Background(), "results", []Document{{Key: "v1"}})
	if err == nil {
		t.Error("Expected an error on a 400 response")
		return
	}
}
