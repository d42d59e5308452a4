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

	"github.com/gorilla/websocket"

	"github.com/arangoanalytics/graphengine/internal/jobs"
	"github.com/arangoanalytics/graphengine/internal/registry"
)

const watchPollInterval = 100 * time.Millisecond

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WatchHandlers implements the optional GET /v1/jobs/{id}/watch
// websocket progress stream: it pushes {progress, total} frames on a
// short poll until the job reaches a terminal state, then closes.
// Purely observational.
type WatchHandlers struct {
	Registry *registry.Registry
}

type watchFrame struct {
	Progress string `json:"progress"`
	Total    string `json:"total"`
	Done     bool   `json:"done"`
}

func (h *WatchHandlers) Watch(w http.ResponseWriter, r *http.Request) {
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

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(watchPollInterval)
	defer ticker.Stop()

	for range ticker.C {
		snap := j.Snapshot()
		done := j.State() != jobs.Running

		if err := conn.WriteJSON(watchFrame{
			Progress: decimal(snap.Progress),
			Total:    decimal(snap.Total),
			Done:     done,
		}); err != nil {
			return
		}
		if done {
			return
		}
	}
}
