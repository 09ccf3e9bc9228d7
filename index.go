// Copyright (c) 2025 The basetree Authors
// SPDX-License-Identifier: MIT

package basetree

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// nodeIndex is an open-addressed hash table mapping a canonical
// (Q, T, F) triple to the NodeId that was interned for it. Slot
// validity is gated by a per-slot generation number equal to the
// table's current version; a mismatched generation is treated as an
// empty slot, which is how invalidate() clears the whole table in O(1).
type nodeIndex struct {
	size        uint64 // prime-sized backing array length
	ids         []NodeId
	generations []uint32
	version     uint32
}

// newNodeIndex returns a table sized to comfortably hold capacity
// entries at a reasonable load factor, rounded up to the next prime.
func newNodeIndex(capacity NodeId) *nodeIndex {
	size := nextPrime(uint64(capacity)*2 + 16)
	return &nodeIndex{
		size:        size,
		ids:         make([]NodeId, size),
		generations: make([]uint32, size),
		version:     1,
	}
}

// hashTriple is the content address of a canonical (Q, T, F) triple,
// the key the rest of the core's normalisation pipeline is built
// around: two triples that hash equal (after the index resolves any
// collision by direct comparison) denote the same stored node.
func hashTriple(q, t, f NodeId) uint64 {
	var buf [12]byte
	binary.LittleEndian.PutUint32(buf[0:4], uint32(q))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(t))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(f))
	return xxhash.Sum64(buf[:])
}

// probeStep derives a non-zero probe increment from the hash so that
// distinct keys hashing to the same initial slot still diverge across
// collisions (a cheap double-hashing scheme).
func (ix *nodeIndex) probeStep(h uint64) uint64 {
	step := (h >> 32) % (ix.size - 1)
	return step + 1
}

// lookup searches for (q, t, f), returning the probe slot it either
// occupies or would be installed into, and the id found there (0 if
// the slot is empty or stale).
func (ix *nodeIndex) lookup(q, t, f NodeId, nodes *nodeStore) (slot uint64, id NodeId) {
	h := hashTriple(q, t, f)
	step := ix.probeStep(h)
	slot = h % ix.size

	for {
		if ix.generations[slot] != ix.version {
			return slot, 0
		}
		cand := ix.ids[slot]
		n := nodes.get(cand)
		if n.Q == q && n.T == t && n.F == f {
			return slot, cand
		}
		slot = (slot + step) % ix.size
	}
}

// install records id as occupying slot, stamped with the table's
// current generation.
func (ix *nodeIndex) install(slot uint64, id NodeId) {
	ix.ids[slot] = id
	ix.generations[slot] = ix.version
}

// invalidate discards every entry in O(1) by bumping the generation
// counter; on overflow it falls back to a single full clear and resets
// to generation 1, exactly mirroring the versioned-map technique used
// throughout this package's scratch buffers.
func (ix *nodeIndex) invalidate() {
	ix.version++
	if ix.version == 0 {
		for i := range ix.generations {
			ix.generations[i] = 0
		}
		ix.version = 1
	}
}

// nextPrime returns the smallest prime >= n (n > 1), used to size the
// index so linear-ish probing visits every slot before repeating.
func nextPrime(n uint64) uint64 {
	if n < 3 {
		return 3
	}
	if n%2 == 0 {
		n++
	}
	for !isPrime(n) {
		n += 2
	}
	return n
}

func isPrime(n uint64) bool {
	if n < 2 {
		return false
	}
	if n%2 == 0 {
		return n == 2
	}
	for d := uint64(3); d*d <= n; d += 2 {
		if n%d == 0 {
			return false
		}
	}
	return true
}
