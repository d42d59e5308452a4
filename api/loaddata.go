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
	"time"

	"github.com/arangoanalytics/graphengine/internal/dbclient"
	"github.com/arangoanalytics/graphengine/internal/engine"
	"github.com/arangoanalytics/graphengine/internal/engineerr"
	"github.com/arangoanalytics/graphengine/internal/loader"
)

// LoadDataHandlers implements POST /v1/loaddata.
type LoadDataHandlers struct {
	Engine          *engine.Engine
	DBEndpoints     []string
	RequestTimeout  time.Duration
}

type loadDataRequest struct {
	Database             string   `json:"database"`
	GraphName            string   `json:"graph_name"`
	VertexCollections    []string `json:"vertex_collections"`
	EdgeCollections      []string `json:"edge_collections"`
	VertexAttributes     []string `json:"vertex_attributes"`
	VertexAttributeTypes []string `json:"vertex_attribute_types"`
	Parallelism          int      `json:"parallelism"`
	BatchSize            int      `json:"batch_size"`
	MaxInFlightBatches   int      `json:"max_in_flight_batches"`
}

func (h *LoadDataHandlers) Post(w http.ResponseWriter, r *http.Request) {
	var req loadDataRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	hasExplicit := len(req.VertexCollections) > 0 && len(req.EdgeCollections) > 0
	if req.GraphName == "" && !hasExplicit {
		writeError(w, engineerr.New(engineerr.InvalidInput,
			"Either specify the graph_name or ensure that vertex_collections and edge_collections are not empty."))
		return
	}

	bearer, _ := bearerFromContext(r.Context())
	db := dbclient.New(h.DBEndpoints, bearer, h.RequestTimeout)

	j, err := h.Engine.LoadData(db, loader.Request{
		NamedGraph:           req.GraphName,
		VertexCollections:    req.VertexCollections,
		EdgeCollections:      req.EdgeCollections,
		VertexAttributes:     req.VertexAttributes,
		VertexAttributeTypes: req.VertexAttributeTypes,
		BatchSize:            req.BatchSize,
		MaxInFlightBatches:   req.MaxInFlightBatches,
		Parallelism:          req.Parallelism,
	})
	writeJobStarted(w, j, err)
}
