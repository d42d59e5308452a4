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
Package dbclient talks to the document database backing named-graph
loads and result stores: streaming a collection's documents in pages
and batch-upserting documents back. It is the one package in the
Engine that makes outbound HTTP calls, so it owns the
retry/backoff policy used by both the loader and the writer.
*/
package dbclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"resty.dev/v3"

	"github.com/arangoanalytics/graphengine/internal/engineerr"
)

// Document is a single database document: its key plus its arbitrary
// attribute fields.
type Document struct {
	Key   string                 `json:"_key"`
	From  string                 `json:"_from,omitempty"`
	To    string                 `json:"_to,omitempty"`
	Attrs map[string]interface{} `json:"-"`
}

// Page is one page of a streamed collection scan.
type Page struct {
	Documents []Document
	HasMore   bool
	Cursor    string
}

// Client wraps a resty client pointed at one or more database
// endpoints, retrying idempotent requests with exponential backoff.
type Client struct {
	rc        *resty.Client
	endpoints []string
	retries   int
}

// New builds a Client against the given endpoints, authenticating
// every outbound request with the given bearer token (normally a
// token re-signed by the auth package under the caller's identity).
func New(endpoints []string, bearerToken string, timeout time.Duration) *Client {
	rc := resty.New().
		SetTimeout(timeout).
		SetAuthToken(bearerToken).
		SetRetryCount(3).
		SetRetryWaitTime(100 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second)

	return &Client{rc: rc, endpoints: endpoints, retries: 3}
}

// Close releases the underlying HTTP client's idle connections.
func (c *Client) Close() {
	c.rc.Close()
}

func (c *Client) baseURL() string {
	if len(c.endpoints) == 0 {
		return ""
	}
	return c.endpoints[0]
}

/*
StreamPage fetches one page of a collection scan. collection may be a
named-graph vertex/edge collection or an explicit collection name;
cursor is empty for the first page and is echoed back from the
previous Page.Cursor thereafter.
*/
func (c *Client) StreamPage(ctx context.Context, collection, cursor string, batchSize int) (*Page, error) {
	var out struct {
		Documents []rawDocument `json:"documents"`
		HasMore   bool          `json:"hasMore"`
		Cursor    string        `json:"cursor"`
	}

	req := c.rc.R().
		SetContext(ctx).
		SetQueryParam("collection", collection).
		SetQueryParam("batchSize", fmt.Sprint(batchSize)).
		SetResult(&out)

	if cursor != "" {
		req.SetQueryParam("cursor", cursor)
	}

	resp, err := req.Get(c.baseURL() + "/_api/simple/scan")
	if err != nil {
		return nil, engineerr.New(engineerr.LoadError, "database scan request failed: %v", err)
	}
	if resp.IsError() {
		return nil, engineerr.New(engineerr.LoadError, "database scan returned %s", resp.Status())
	}

	page := &Page{HasMore: out.HasMore, Cursor: out.Cursor}
	for _, d := range out.Documents {
		page.Documents = append(page.Documents, d.toDocument())
	}
	return page, nil
}

/*
BatchUpsert writes a batch of documents into collection in a single
request; the result writer uses it. The request sets
overwriteMode=update so a document whose _key already exists is
updated in place rather than rejected with a conflict, making repeated
calls with the same keys idempotent. Returns a StoreError when the
request fails or the server answers with an error status; per-document
results inside a successful response are not inspected.
*/
func (c *Client) BatchUpsert(ctx context.Context, collection string, docs []Document) error {
	body := make([]map[string]interface{}, len(docs))
	for i, d := range docs {
		m := map[string]interface{}{"_key": d.Key}
		if d.From != "" {
			m["_from"] = d.From
		}
		if d.To != "" {
			m["_to"] = d.To
		}
		for k, v := range d.Attrs {
			m[k] = v
		}
		body[i] = m
	}

	resp, err := c.rc.R().
		SetContext(ctx).
		SetQueryParam("collection", collection).
		SetQueryParam("overwrite", "true").
		SetQueryParam("overwriteMode", "update").
		SetBody(body).
		Post(c.baseURL() + "/_api/document/" + collection)
	if err != nil {
		return engineerr.New(engineerr.StoreError, "database upsert request failed: %v", err)
	}
	if resp.IsError() {
		return engineerr.New(engineerr.StoreError, "database upsert returned %s", resp.Status())
	}
	return nil
}

type rawDocument struct {
	Key  string
	From string
	To   string
	Rest map[string]interface{}
}

// UnmarshalJSON splits the reserved _key/_from/_to fields out of the
// document, leaving every other field as an attribute.
func (r *rawDocument) UnmarshalJSON(data []byte) error {
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}

	if v, ok := m["_key"].(string); ok {
		r.Key = v
		delete(m, "_key")
	}
	if v, ok := m["_from"].(string); ok {
		r.From = v
		delete(m, "_from")
	}
	if v, ok := m["_to"].(string); ok {
		r.To = v
		delete(m, "_to")
	}
	delete(m, "_id")
	delete(m, "_rev")

	r.Rest = m
	return nil
}

func (r rawDocument) toDocument() Document {
	return Document{Key: r.Key, From: r.From, To: r.To, Attrs: r.Rest}
}
