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

import "testing"

func TestRootCmdDefinesExpectedFlags(t *testing.T) {
	cmd := rootCmd()

	for _, name := range []string{"bind-port", "arangodb-endpoints", "arangodb-jwt-secrets", "auth-service", "config"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("Expected a %q flag to be defined", name)
		}
	}
}

func TestRootCmdUseAndShort(t *testing.T) {
	cmd := rootCmd()

	if cmd.Use != "graphengine" {
		t.Error("Unexpected Use:", cmd.Use)
		return
	}
	if cmd.Short == "" {
		t.Error("Expected a non-empty Short description")
		return
	}
}
