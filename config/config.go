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
Package config holds the Engine's runtime configuration. Config is a
flat map[string]string, the same representation the rest of the
examples in this tree use for server config, merged from
DefaultConfig by LoadConfigFile or left as-is by LoadDefaultConfig.
*/
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/krotik/common/fileutil"
)

// ProductVersion is reported on startup and from GET /v1/api-version.
const ProductVersion = "1.0.0"

// Config keys.
const (
	BindHost             = "BindHost"
	BindPort             = "BindPort"
	WorkerCount          = "WorkerCount"
	ScratchDir           = "ScratchDir"
	MaxInFlightBatches   = "MaxInFlightBatches"
	ResultBatchSize      = "ResultBatchSize"
	ArangoEndpoints      = "ArangoEndpoints"
	ArangoJWTSecretsDir  = "ArangoJWTSecretsDir"
	AuthServiceURL       = "AuthServiceURL"
	EnableAuth           = "EnableAuth"
	EnableMetrics        = "EnableMetrics"
	LogLevel             = "LogLevel"
	LogJSON              = "LogJSON"
	ShutdownTimeoutSecs  = "ShutdownTimeoutSecs"
)

// DefaultConfig is used whenever a key is missing from a loaded
// config file, and entirely when no config file is given at all.
var DefaultConfig = map[string]string{
	BindHost:            "0.0.0.0",
	BindPort:            "9090",
	WorkerCount:         "0", // 0 means runtime.NumCPU()
	ScratchDir:          "scratch",
	MaxInFlightBatches:  "200",
	ResultBatchSize:      "10000",
	ArangoEndpoints:     "",
	ArangoJWTSecretsDir: "",
	AuthServiceURL:      "",
	EnableAuth:          "false",
	EnableMetrics:       "true",
	LogLevel:            "info",
	LogJSON:             "false",
	ShutdownTimeoutSecs: "30",
}

// Config is the currently loaded configuration. nil until
// LoadDefaultConfig or LoadConfigFile has been called.
var Config map[string]string

// LoadDefaultConfig sets Config to a copy of DefaultConfig.
func LoadDefaultConfig() {
	Config = make(map[string]string, len(DefaultConfig))
	for k, v := range DefaultConfig {
		Config[k] = v
	}
}

// LoadConfigFile reads a JSON config file from path, merging missing
// keys in from DefaultConfig. A missing file is an error.
func LoadConfigFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}

	defaults := make(map[string]interface{}, len(DefaultConfig))
	for k, v := range DefaultConfig {
		defaults[k] = v
	}

	c, err := fileutil.LoadConfig(path, defaults)
	if err != nil {
		return err
	}

	Config = make(map[string]string, len(c))
	for k, v := range c {
		Config[k] = fmt.Sprintf("%v", v)
	}
	return nil
}

// Str returns the string value for key.
func Str(key string) string {
	return Config[key]
}

// Bool returns the boolean value for key ("true" / "false").
func Bool(key string) bool {
	return Config[key] == "true"
}

// Int returns the integer value for key, or 0 if it cannot be parsed.
func Int(key string) int64 {
	v, _ := strconv.ParseInt(Config[key], 10, 64)
	return v
}
