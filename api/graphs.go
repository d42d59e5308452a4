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

	"github.com/arangoanalytics/graphengine/internal/registry"
	"github.com/arangoanalytics/graphengine/internal/store"
)

// graphResponse is the JSON shape returned for a single graph.
type graphResponse struct {
	GraphID         string `json:"graph_id"`
	NumberOfVertices string `json:"number_of_vertices"`
	NumberOfEdges    string `json:"number_of_edges"`
	MemoryUsage      string `json:"memory_usage"`
	MemoryPerVertex  string `json:"memory_per_vertex"`
	MemoryPerEdge    string `json:"memory_per_edge"`
}

func toGraphResponse(g *store.Graph) graphResponse {
	total, perVertex, perEdge := g.MemoryUsage()
	return graphResponse{
		GraphID:          decimal(g.ID),
		NumberOfVertices: decimal(int64(g.NumVertices())),
		NumberOfEdges:    decimal(int64(g.NumEdges())),
		MemoryUsage:      decimal(int64(total)),
		MemoryPerVertex:  decimal(int64(perVertex)),
		MemoryPerEdge:    decimal(int64(perEdge)),
	}
}

// GraphHandlers implements GET/DELETE for /v1/graphs and /v1/graphs/{id}.
type GraphHandlers struct {
	Registry *registry.Registry
}

func (h *GraphHandlers) List(w http.ResponseWriter, r *http.Request) {
	gs := h.Registry.ListGraphs()
	out := make([]graphResponse, 0, len(gs))
	for _, g := range gs {
		out = append(out, toGraphResponse(g))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *GraphHandlers) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	g, err := h.Registry.GetGraph(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGraphResponse(g))
}

func (h *GraphHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.Registry.DeleteGraph(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{})
}
