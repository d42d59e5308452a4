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
Package metrics exposes the Engine's Prometheus metrics, served from
GET /metrics. Every job type gets a duration histogram and
success/failure counters, labeled by computation type.
*/
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "graphengine"

var (
	jobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "jobs",
		Name:      "duration_seconds",
		Help:      "Time spent running a job, by computation type.",
		Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30, 60, 300, 1800},
	}, []string{"comp_type"})

	jobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "jobs",
		Name:      "total",
		Help:      "Completed jobs, by computation type and outcome.",
	}, []string{"comp_type", "outcome"})

	graphsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "graphs",
		Name:      "active",
		Help:      "Number of graphs currently held in the registry.",
	})

	verticesTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "graphs",
		Name:      "vertices_total",
		Help:      "Total vertices across every graph in the registry.",
	})
)

// Timer tracks the elapsed time of one job run.
type Timer struct {
	compType string
	start    *prometheus.Timer
}

// StartAlgorithm begins timing a job of the given computation type.
func StartAlgorithm(compType string) *Timer {
	t := &Timer{compType: compType}
	t.start = prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		jobDuration.WithLabelValues(compType).Observe(v)
	}))
	return t
}

// ObserveDuration records the elapsed time since StartAlgorithm.
func (t *Timer) ObserveDuration() {
	t.start.ObserveDuration()
}

// JobSucceeded increments the success counter for compType.
func JobSucceeded(compType string) {
	jobsTotal.WithLabelValues(compType, "success").Inc()
}

// JobFailed increments the failure counter for compType.
func JobFailed(compType string) {
	jobsTotal.WithLabelValues(compType, "failure").Inc()
}

// SetGraphStats updates the registry-wide graph gauges. Called after
// every graph creation or deletion.
func SetGraphStats(numGraphs int, totalVertices int64) {
	graphsActive.Set(float64(numGraphs))
	verticesTotal.Set(float64(totalVertices))
}
