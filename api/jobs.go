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
	"strconv"

	"github.com/gorilla/mux"

	"github.com/arangoanalytics/graphengine/internal/engineerr"
	"github.com/arangoanalytics/graphengine/internal/jobs"
	"github.com/arangoanalytics/graphengine/internal/registry"
)

// jobResponse is the uniform job shape returned by every job endpoint.
type jobResponse struct {
	JobID         string      `json:"job_id"`
	GraphID       string      `json:"graph_id"`
	Total         string      `json:"total"`
	Progress      string      `json:"progress"`
	ErrorCode     int         `json:"error_code"`
	ErrorMessage  string      `json:"error_message"`
	MemoryUsage   string      `json:"memory_usage"`
	CompType      jobs.CompType `json:"comp_type"`
	RuntimeMicros string      `json:"runtime_in_microseconds"`
	Result        interface{} `json:"result,omitempty"`
}

func toJobResponse(s jobs.Snapshot) jobResponse {
	return jobResponse{
		JobID:         decimal(s.ID),
		GraphID:       decimal(s.GraphID),
		Total:         decimal(s.Total),
		Progress:      decimal(s.Progress),
		ErrorCode:     s.ErrorCode,
		ErrorMessage:  s.ErrorMsg,
		MemoryUsage:   decimal(int64(s.Memory)),
		CompType:      s.CompType,
		RuntimeMicros: decimal(s.RuntimeUs),
		Result:        encodeResult(s.Result),
	}
}

// JobHandlers implements GET/DELETE for /v1/jobs and /v1/jobs/{id}.
type JobHandlers struct {
	Registry *registry.Registry
}

func (h *JobHandlers) List(w http.ResponseWriter, r *http.Request) {
	js := h.Registry.ListJobs()
	out := make([]jobResponse, 0, len(js))
	for _, j := range js {
		out = append(out, toJobResponse(j.Snapshot()))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *JobHandlers) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	j, err := h.Registry.GetJob(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toJobResponse(j.Snapshot()))
}

func (h *JobHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.Registry.DeleteJob(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{})
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, engineerr.New(engineerr.InvalidInput, "invalid %s %q", name, raw)
	}
	return id, nil
}
