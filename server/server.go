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
Package server contains the startup and shutdown sequence for the
GraphEngine server.
*/
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/arangoanalytics/graphengine/api"
	"github.com/arangoanalytics/graphengine/config"
	"github.com/arangoanalytics/graphengine/internal/auth"
	"github.com/arangoanalytics/graphengine/internal/engine"
)

/*
Using custom consolelogger type so we can test log.Fatal calls with unit tests. Overwrite
these if the server should not call os.Exit on a fatal error.
*/
type consolelogger func(v ...interface{})

var fatal = consolelogger(log.Fatal)
var print = consolelogger(log.Print)

// shutdownOnce guards against the DELETE /v1/shutdown endpoint and an
// OS signal both trying to shut the server down.
var shutdownOnce sync.Once

/*
StartServer runs the GraphEngine server. The server uses config.Config
for all its configuration parameters.
*/
func StartServer() {
	var err error

	print(fmt.Sprintf("GraphEngine %v", config.ProductVersion))

	// Ensure we have a configuration - use the default configuration if nothing was set

	if config.Config == nil {
		config.LoadDefaultConfig()
	}

	configureLogging()

	// Create the engine - registry, job runner and scratch space for custom-function jobs

	print("Creating engine instance")

	workers := int(config.Int(config.WorkerCount))
	eng := engine.New(workers, config.Str(config.ScratchDir))

	if err = os.MkdirAll(config.Str(config.ScratchDir), 0770); err != nil {
		fatal("Could not create scratch dir:", err.Error())
		return
	}

	// Set up bearer-token validation

	var validator *auth.Validator
	if config.Bool(config.EnableAuth) {
		print("Loading JWT secrets from: ", config.Str(config.ArangoJWTSecretsDir))

		validator, err = auth.NewValidator(config.Str(config.ArangoJWTSecretsDir))
		if err != nil {
			fatal(err)
			return
		}
	} else {
		validator, _ = auth.NewValidator("")
	}

	// Register routes

	print("Registering routes")

	router := mux.NewRouter()

	hs := &http.Server{
		Addr:    config.Str(config.BindHost) + ":" + config.Str(config.BindPort),
		Handler: router,
	}

	stopCh := make(chan struct{}, 1)

	api.RegisterRoutes(router, api.Options{
		Engine:         eng,
		Registry:       eng.Registry,
		Validator:      validator,
		AuthEnabled:    config.Bool(config.EnableAuth),
		DBEndpoints:    endpoints(config.Str(config.ArangoEndpoints)),
		RequestTimeout: 30 * time.Second,
		Shutdown: func() {
			shutdown(hs)
			select {
			case stopCh <- struct{}{}:
			default:
			}
		},
	})

	// Start the HTTP server and enable the REST API

	print("Starting server on: ", hs.Addr)

	go func() {
		if err := hs.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fatal(err)
		}
	}()

	// Wait for an OS shutdown signal as well as the /v1/shutdown endpoint

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
	case <-stopCh:
	}

	print("Shutting down")
	shutdown(hs)
}

func shutdown(hs *http.Server) {
	shutdownOnce.Do(func() {
		timeout := time.Duration(config.Int(config.ShutdownTimeoutSecs)) * time.Second
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := hs.Shutdown(ctx); err != nil {
			print("Error during shutdown:", err.Error())
		}
	})
}

func configureLogging() {
	level, err := logrus.ParseLevel(config.Str(config.LogLevel))
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if config.Bool(config.LogJSON) {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
}

func endpoints(csv string) []string {
	if csv == "" {
		return nil
	}
	var out []string
	for _, e := range strings.Split(csv, ",") {
		e = strings.TrimSpace(e)
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}
