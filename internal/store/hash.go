/*
 * GraphEngine
 *
 * Copyright 2024 The GraphEngine Authors.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package store

import "github.com/zeebo/xxh3"

// signBit marks the reserved exceptional-hash range [2^63, 2^64). An
// ordinary xxh3 hash is masked to clear it; an exceptional hash always
// has it set, keeping the two ranges disjoint.
const signBit = uint64(1) << 63

// hashKey computes the masked xxh3-64 of key, guaranteed to lie in
// [0, 2^63) regardless of what xxh3 produces.
func hashKey(key []byte) uint64 {
	return xxh3.Hash(key) &^ signBit
}

/*
identity resolves vertex keys to hashes and indices, reconciling
collisions between distinct keys by minting exceptional hashes from the
reserved range. It is the "hash table" referenced throughout §4.1.
*/
type identity struct {
	hashToIndex map[uint64]int32
	keyAtHash   map[uint64]string // only populated when keys are stored
	keyToIndex  map[string]int32  // only populated when keys are stored
	nextExceptional uint64
}

func newIdentity() *identity {
	return &identity{
		hashToIndex: make(map[uint64]int32),
		keyAtHash:   make(map[uint64]string),
		keyToIndex:  make(map[string]int32),
	}
}

// resolveForInsert computes the hash to use for a newly appended vertex
// with the given optional key, minting an exceptional hash if the
// ordinary hash already belongs to a different key.
func (id *identity) resolveForInsert(key string, hasKey bool) uint64 {
	if !hasKey {
		// Keyless vertices still need a unique hash so edge-by-hash
		// resolution and the hash table stay injective.
		h := id.mintExceptional()
		return h
	}

	h := hashKey([]byte(key))

	if existing, ok := id.keyAtHash[h]; ok && existing != key {
		h = id.mintExceptional()
	}

	return h
}

func (id *identity) mintExceptional() uint64 {
	h := signBit | id.nextExceptional
	id.nextExceptional++
	return h
}

// register records that hash h (as returned by resolveForInsert) now
// maps to vertex index idx and, if present, key.
func (id *identity) register(h uint64, idx int32, key string, hasKey bool) {
	id.hashToIndex[h] = idx
	if hasKey {
		id.keyAtHash[h] = key
		id.keyToIndex[key] = idx
	}
}

// indexByHash looks up the vertex index for an exact hash.
func (id *identity) indexByHash(h uint64) (int32, bool) {
	idx, ok := id.hashToIndex[h]
	return idx, ok
}

// indexByKey looks up the vertex index for an exact key, consulting the
// key table built during the vertex phase.
func (id *identity) indexByKey(key string) (int32, bool) {
	idx, ok := id.keyToIndex[key]
	return idx, ok
}
