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
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/arangoanalytics/graphengine/internal/auth"
)

type contextKey int

const bearerContextKey contextKey = 1

// AuthMiddleware validates the inbound bearer token and stores a
// downstream token re-signed under the resolved username in the
// request context, for handlers that call out to the database on
// the caller's behalf.
func AuthMiddleware(v *auth.Validator, enabled bool, logger *logrus.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				next.ServeHTTP(w, r)
				return
			}

			username, err := v.Validate(r.Header.Get("Authorization"))
			if err != nil {
				logger.WithError(err).Warn("rejected request")
				writeError(w, err)
				return
			}

			downstream, err := v.Sign(username)
			if err != nil {
				writeError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), bearerContextKey, downstream)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerFromContext returns the downstream bearer token AuthMiddleware
// placed in the request context, or "" when auth is disabled.
func bearerFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(bearerContextKey).(string)
	return v, ok
}
