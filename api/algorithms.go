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

	"github.com/arangoanalytics/graphengine/internal/engine"
	"github.com/arangoanalytics/graphengine/internal/engineerr"
	"github.com/arangoanalytics/graphengine/internal/jobs"
)

// AlgorithmHandlers implements the eight POST /v1/<algorithm> endpoints.
type AlgorithmHandlers struct {
	Engine *engine.Engine
}

func writeJobStarted(w http.ResponseWriter, j *jobs.Job, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toJobResponse(j.Snapshot()))
}

type graphIDRequest struct {
	GraphID json.Number `json:"graph_id"`
}

func (r graphIDRequest) id() (int64, error) {
	v, err := r.GraphID.Int64()
	if err != nil {
		return 0, engineerr.New(engineerr.InvalidInput, "invalid graph_id")
	}
	return v, nil
}

func (h *AlgorithmHandlers) WCC(w http.ResponseWriter, r *http.Request) {
	var req graphIDRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	gid, err := req.id()
	if err != nil {
		writeError(w, err)
		return
	}
	j, err := h.Engine.WCC(gid)
	writeJobStarted(w, j, err)
}

func (h *AlgorithmHandlers) SCC(w http.ResponseWriter, r *http.Request) {
	var req graphIDRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	gid, err := req.id()
	if err != nil {
		writeError(w, err)
		return
	}
	j, err := h.Engine.SCC(gid)
	writeJobStarted(w, j, err)
}

func (h *AlgorithmHandlers) AggregateComponents(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GraphID       json.Number `json:"graph_id"`
		ComponentJobID json.Number `json:"component_job_id"`
		Attribute     string      `json:"attribute"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	gid, err := req.GraphID.Int64()
	if err != nil {
		writeError(w, engineerr.New(engineerr.InvalidInput, "invalid graph_id"))
		return
	}
	cjid, err := req.ComponentJobID.Int64()
	if err != nil {
		writeError(w, engineerr.New(engineerr.InvalidInput, "invalid component_job_id"))
		return
	}

	j, err := h.Engine.AggregateComponents(gid, cjid, req.Attribute)
	writeJobStarted(w, j, err)
}

func (h *AlgorithmHandlers) PageRank(w http.ResponseWriter, r *http.Request) {
	h.rank(w, r, h.Engine.PageRank)
}

func (h *AlgorithmHandlers) IRank(w http.ResponseWriter, r *http.Request) {
	h.rank(w, r, h.Engine.IRank)
}

func (h *AlgorithmHandlers) rank(w http.ResponseWriter, r *http.Request, dispatch func(int64, int, float64, float64) (*jobs.Job, error)) {
	var req struct {
		GraphID            json.Number `json:"graph_id"`
		MaximumSupersteps  int         `json:"maximum_supersteps"`
		DampingFactor      float64     `json:"damping_factor"`
		Tolerance          float64     `json:"tolerance"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	gid, err := req.GraphID.Int64()
	if err != nil {
		writeError(w, engineerr.New(engineerr.InvalidInput, "invalid graph_id"))
		return
	}

	j, err := dispatch(gid, req.MaximumSupersteps, req.DampingFactor, req.Tolerance)
	writeJobStarted(w, j, err)
}

func (h *AlgorithmHandlers) LabelPropagation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GraphID             json.Number `json:"graph_id"`
		StartLabelAttribute string      `json:"start_label_attribute"`
		Synchronous         bool        `json:"synchronous"`
		RandomTiebreak      bool        `json:"random_tiebreak"`
		MaximumSupersteps   int         `json:"maximum_supersteps"`
		Seed                int64       `json:"seed"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	gid, err := req.GraphID.Int64()
	if err != nil {
		writeError(w, engineerr.New(engineerr.InvalidInput, "invalid graph_id"))
		return
	}

	j, err := h.Engine.LabelPropagation(gid, req.StartLabelAttribute, req.Synchronous, req.RandomTiebreak, req.MaximumSupersteps, req.Seed)
	writeJobStarted(w, j, err)
}

func (h *AlgorithmHandlers) AttributePropagation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GraphID             json.Number `json:"graph_id"`
		StartLabelAttribute string      `json:"start_label_attribute"`
		Synchronous         bool        `json:"synchronous"`
		Backwards           bool        `json:"backwards"`
		MaximumSupersteps   int         `json:"maximum_supersteps"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	gid, err := req.GraphID.Int64()
	if err != nil {
		writeError(w, engineerr.New(engineerr.InvalidInput, "invalid graph_id"))
		return
	}

	j, err := h.Engine.AttributePropagation(gid, req.StartLabelAttribute, req.Synchronous, req.Backwards, req.MaximumSupersteps)
	writeJobStarted(w, j, err)
}

// Custom implements POST /v1/python, a historical name for the
// endpoint that dispatches the embedded ECAL custom-function
// algorithm; it has never run actual Python.
func (h *AlgorithmHandlers) Custom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GraphID  json.Number `json:"graph_id"`
		Function string      `json:"function"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	gid, err := req.GraphID.Int64()
	if err != nil {
		writeError(w, engineerr.New(engineerr.InvalidInput, "invalid graph_id"))
		return
	}

	j, err := h.Engine.Custom(gid, req.Function)
	writeJobStarted(w, j, err)
}
