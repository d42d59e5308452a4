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
	"time"

	"github.com/arangoanalytics/graphengine/internal/algo"
	"github.com/arangoanalytics/graphengine/internal/dbclient"
	"github.com/arangoanalytics/graphengine/internal/engine"
	"github.com/arangoanalytics/graphengine/internal/engineerr"
	"github.com/arangoanalytics/graphengine/internal/jobs"
	"github.com/arangoanalytics/graphengine/internal/registry"
	"github.com/arangoanalytics/graphengine/internal/writer"
)

// ResultHandlers implements POST /v1/storeresults.
type ResultHandlers struct {
	Engine         *engine.Engine
	Registry       *registry.Registry
	DBEndpoints    []string
	RequestTimeout time.Duration
}

type storeResultsRequest struct {
	JobIDs          []json.Number `json:"job_ids"`
	AttributeNames  []string      `json:"attribute_names"`
	Database        string        `json:"database"`
	TargetCollection string       `json:"target_collection"`
	Parallelism     int           `json:"parallelism"`
	BatchSize       int           `json:"batch_size"`
}

func (h *ResultHandlers) Post(w http.ResponseWriter, r *http.Request) {
	var req storeResultsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if len(req.JobIDs) != len(req.AttributeNames) || len(req.JobIDs) == 0 {
		writeError(w, engineerr.New(engineerr.InvalidInput, "job_ids and attribute_names must be non-empty and of equal length"))
		return
	}

	var graphID int64
	sources := make([]writer.Source, 0, len(req.JobIDs))

	for i, jn := range req.JobIDs {
		jid, err := jn.Int64()
		if err != nil {
			writeError(w, engineerr.New(engineerr.InvalidInput, "invalid job id %q", jn))
			return
		}

		j, err := h.Registry.GetJob(jid)
		if err != nil {
			writeError(w, err)
			return
		}
		snap := j.Snapshot()
		if j.State() != jobs.Succeeded {
			writeError(w, engineerr.New(engineerr.InvalidInput, "job %d has not succeeded", jid))
			return
		}
		res, ok := snap.Result.(*algo.Result)
		if !ok {
			writeError(w, engineerr.New(engineerr.InvalidInput, "job %d produced no result vector", jid))
			return
		}

		if i == 0 {
			graphID = snap.GraphID
		} else if snap.GraphID != graphID {
			writeError(w, engineerr.New(engineerr.InvalidInput, "all jobs must reference the same graph"))
			return
		}

		sources = append(sources, writer.Source{Attribute: req.AttributeNames[i], Result: res})
	}

	bearer, _ := bearerFromContext(r.Context())
	db := dbclient.New(h.DBEndpoints, bearer, h.RequestTimeout)

	j, err := h.Engine.StoreResults(db, graphID, writer.Request{
		Collection:  req.TargetCollection,
		Sources:     sources,
		Parallelism: req.Parallelism,
		BatchSize:   req.BatchSize,
	})
	writeJobStarted(w, j, err)
}
