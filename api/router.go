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
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/arangoanalytics/graphengine/internal/auth"
	"github.com/arangoanalytics/graphengine/internal/engine"
	"github.com/arangoanalytics/graphengine/internal/registry"
)

// Options configures RegisterRoutes.
type Options struct {
	Engine         *engine.Engine
	Registry       *registry.Registry
	Validator      *auth.Validator
	AuthEnabled    bool
	DBEndpoints    []string
	RequestTimeout time.Duration
	Shutdown       func()
}

// RegisterRoutes wires every graph, job, algorithm, load, store, watch
// and metrics endpoint onto router. All routes except /metrics pass
// through AuthMiddleware.
func RegisterRoutes(router *mux.Router, opts Options) {
	logger := logrus.WithField("component", "api")

	graphs := &GraphHandlers{Registry: opts.Registry}
	jobsH := &JobHandlers{Registry: opts.Registry}
	algos := &AlgorithmHandlers{Engine: opts.Engine}
	load := &LoadDataHandlers{Engine: opts.Engine, DBEndpoints: opts.DBEndpoints, RequestTimeout: opts.RequestTimeout}
	results := &ResultHandlers{Engine: opts.Engine, Registry: opts.Registry, DBEndpoints: opts.DBEndpoints, RequestTimeout: opts.RequestTimeout}
	meta := &MetaHandlers{Shutdown: opts.Shutdown}
	watch := &WatchHandlers{Registry: opts.Registry}

	v1 := router.PathPrefix("/v1").Subrouter()
	v1.Use(AuthMiddleware(opts.Validator, opts.AuthEnabled, logger))

	v1.HandleFunc("/graphs", graphs.List).Methods("GET")
	v1.HandleFunc("/graphs/{id}", graphs.Get).Methods("GET")
	v1.HandleFunc("/graphs/{id}", graphs.Delete).Methods("DELETE")
	v1.HandleFunc("/loaddata", load.Post).Methods("POST")

	v1.HandleFunc("/jobs", jobsH.List).Methods("GET")
	v1.HandleFunc("/jobs/{id}", jobsH.Get).Methods("GET")
	v1.HandleFunc("/jobs/{id}", jobsH.Delete).Methods("DELETE")
	v1.HandleFunc("/jobs/{id}/watch", watch.Watch).Methods("GET")

	v1.HandleFunc("/wcc", algos.WCC).Methods("POST")
	v1.HandleFunc("/scc", algos.SCC).Methods("POST")
	v1.HandleFunc("/aggregatecomponents", algos.AggregateComponents).Methods("POST")
	v1.HandleFunc("/pagerank", algos.PageRank).Methods("POST")
	v1.HandleFunc("/irank", algos.IRank).Methods("POST")
	v1.HandleFunc("/labelpropagation", algos.LabelPropagation).Methods("POST")
	v1.HandleFunc("/attributepropagation", algos.AttributePropagation).Methods("POST")
	v1.HandleFunc("/python", algos.Custom).Methods("POST")

	v1.HandleFunc("/storeresults", results.Post).Methods("POST")

	v1.HandleFunc("/api-version", meta.APIVersion).Methods("GET")
	v1.HandleFunc("/shutdown", meta.ShutdownNow).Methods("DELETE")

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}
