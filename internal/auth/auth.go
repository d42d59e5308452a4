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
Package auth validates inbound bearer tokens and re-signs outbound
database requests. Validation and signing both use
github.com/golang-jwt/jwt/v4 against a directory of shared secrets
(one key per tenant/database, loaded from --arangodb-jwt-secrets).
*/
package auth

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/arangoanalytics/graphengine/internal/engineerr"
)

// claims is the minimal set of fields the Engine reads from or writes
// into a token.
type claims struct {
	jwt.RegisteredClaims
	PreferredUsername string `json:"preferred_username,omitempty"`
}

// Validator verifies inbound bearer tokens and signs outbound ones.
type Validator struct {
	mu      sync.RWMutex
	secrets map[string][]byte // keyed by the token's "kid" header, "" for the default secret
}

// NewValidator loads every file under secretsDir as a named secret
// (filename without extension is the key id); the first secret loaded
// also serves as the default secret. secretsDir must be a directory:
// a plain file there fails with an Internal error.
func NewValidator(secretsDir string) (*Validator, error) {
	v := &Validator{secrets: make(map[string][]byte)}
	if secretsDir == "" {
		return v, nil
	}

	entries, err := os.ReadDir(secretsDir)
	if err != nil {
		return nil, engineerr.New(engineerr.Internal, "reading jwt secrets dir %q: %v", secretsDir, err)
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(secretsDir, e.Name()))
		if err != nil {
			return nil, engineerr.New(engineerr.Internal, "reading jwt secret %q: %v", e.Name(), err)
		}
		kid := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		v.secrets[kid] = []byte(strings.TrimSpace(string(data)))
		if len(v.secrets) == 1 {
			v.secrets[""] = v.secrets[kid] // first secret loaded doubles as the default
		}
	}
	return v, nil
}

// Validate verifies an "Authorization: Bearer <token>" header value
// and returns the resolved username, or Unauthorized on any failure.
func (v *Validator) Validate(authHeader string) (string, error) {
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == authHeader || token == "" {
		return "", engineerr.New(engineerr.Unauthorized, "missing bearer token")
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	var parsed claims
	_, err := jwt.ParseWithClaims(token, &parsed, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		secret, ok := v.secrets[kid]
		if !ok {
			return nil, fmt.Errorf("unknown key id %q", kid)
		}
		return secret, nil
	})
	if err != nil {
		return "", engineerr.New(engineerr.Unauthorized, "invalid bearer token: %v", err)
	}

	username := parsed.PreferredUsername
	if username == "" {
		username = parsed.Subject
	}
	if username == "" {
		return "", engineerr.New(engineerr.Unauthorized, "token carries no username")
	}
	return username, nil
}

// Sign mints a fresh short-lived token under username, for downstream
// database requests re-signed under the same username.
func (v *Validator) Sign(username string) (string, error) {
	v.mu.RLock()
	secret := v.secrets[""]
	v.mu.RUnlock()

	if len(secret) == 0 {
		return "", engineerr.New(engineerr.Internal, "no default jwt secret configured")
	}

	now := time.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        strconv.FormatInt(now.UnixNano(), 10),
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(5 * time.Minute)),
		},
		PreferredUsername: username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", engineerr.New(engineerr.Internal, "signing downstream token: %v", err)
	}
	return signed, nil
}
