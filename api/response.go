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
Package api implements the Engine's HTTP surface. Routing is done
with github.com/gorilla/mux; every handler reads/writes JSON and
serializes numeric ids and sizes as decimal strings.
*/
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/arangoanalytics/graphengine/internal/engineerr"
)

// errorResponse is the uniform {error_code, error_message} shape
// returned on any synchronously-surfaced error.
type errorResponse struct {
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError maps err to its HTTP status (falling back to Internal)
// and writes the standard error body.
func writeError(w http.ResponseWriter, err error) {
	e, ok := engineerr.As(err)
	if !ok {
		e = engineerr.New(engineerr.Internal, "%v", err)
	}
	writeJSON(w, e.Kind.HTTPStatus(), errorResponse{ErrorCode: e.Kind.Code(), ErrorMessage: e.Detail})
}

func decimal(v int64) string {
	return strconv.FormatInt(v, 10)
}

// decodeJSON reads and decodes a request body, returning an
// InvalidInput error on any parse failure.
func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return engineerr.New(engineerr.InvalidInput, "malformed request body: %v", err)
	}
	return nil
}
