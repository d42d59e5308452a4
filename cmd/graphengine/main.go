/*
 * GraphEngine
 *
 * Copyright 2024 The GraphEngine Authors.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arangoanalytics/graphengine/config"
	"github.com/arangoanalytics/graphengine/server"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		bindPort       string
		arangoEndpoints string
		arangoJWTSecrets string
		authService    string
		configFile     string
	)

	cmd := &cobra.Command{
		Use:   "graphengine",
		Short: "GraphEngine is an in-memory graph analytics server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configFile != "" {
				if err := config.LoadConfigFile(configFile); err != nil {
					return err
				}
			} else {
				config.LoadDefaultConfig()
			}

			if bindPort != "" {
				config.Config[config.BindPort] = bindPort
			}
			if arangoEndpoints != "" {
				config.Config[config.ArangoEndpoints] = arangoEndpoints
			}
			if arangoJWTSecrets != "" {
				config.Config[config.ArangoJWTSecretsDir] = arangoJWTSecrets
				config.Config[config.EnableAuth] = "true"
			}
			if authService != "" {
				config.Config[config.AuthServiceURL] = authService
			}

			server.StartServer()
			return nil
		},
	}

	cmd.Flags().StringVar(&bindPort, "bind-port", "", "port to bind the HTTP server to")
	cmd.Flags().StringVar(&arangoEndpoints, "arangodb-endpoints", "", "comma-separated list of database endpoints")
	cmd.Flags().StringVar(&arangoJWTSecrets, "arangodb-jwt-secrets", "", "directory of shared JWT secrets")
	cmd.Flags().StringVar(&authService, "auth-service", "", "optional endpoint for token validation")
	cmd.Flags().StringVar(&configFile, "config", "", "path to a JSON config file")

	return cmd
}
