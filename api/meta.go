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
	"net/http"

	"github.com/arangoanalytics/graphengine/config"
)

// MetaHandlers implements GET /v1/api-version and DELETE /v1/shutdown.
type MetaHandlers struct {
	// Shutdown is called once the shutdown endpoint has written its
	// response; it is expected to stop the HTTP server gracefully.
	Shutdown func()
}

func (h *MetaHandlers) APIVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"api_version":     "v1",
		"product_version": config.ProductVersion,
	})
}

func (h *MetaHandlers) ShutdownNow(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{})
	if h.Shutdown != nil {
		go h.Shutdown()
	}
}
