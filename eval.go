// Copyright (c) 2025 The basetree Authors
// SPDX-License-Identifier: MIT

package basetree

import "hash/crc32"

// maxTruthTableEntries bounds TruthTableCRC to graphs small enough for
// brute-force enumeration (2^24 one-byte rows is already a 16 MiB
// table); beval and the toy builders never exceed this in practice.
const maxTruthTableEntries = 24

// Eval computes ref's boolean value under bindings, where bit i of
// bindings is the value of entry i (entry id estart+i). Reserved ids
// below estart evaluate to false; they are never referenced by a
// well-formed expression.
func (g *Graph) Eval(ref NodeId, bindings uint64) bool {
	idx := ref.Index()
	var v bool
	switch {
	case idx == 0:
		v = false
	case idx < g.estart:
		v = false
	case idx < g.nstart:
		v = bindings&(1<<uint(idx-g.estart)) != 0
	default:
		n := g.store.get(idx)
		if g.Eval(n.Q, bindings) {
			v = g.Eval(n.T, bindings)
		} else {
			v = g.Eval(n.F, bindings)
		}
	}
	if ref.Inverted() {
		v = !v
	}
	return v
}

// TruthTableCRC enumerates every input combination over g's entries and
// returns the CRC-32 of the resulting truth table (one byte per row, 0
// or 1), a compact signature for comparing two roots' boolean function
// without comparing DAG shape.
func (g *Graph) TruthTableCRC(root NodeId) (uint32, error) {
	numEntries := int(g.nstart - g.estart)
	if numEntries > maxTruthTableEntries {
		return 0, wrapf(ErrBadRange, "%d entries exceeds brute-force truth table limit of %d", numEntries, maxTruthTableEntries)
	}
	rows := uint64(1) << uint(numEntries)
	table := make([]byte, rows)
	for b := uint64(0); b < rows; b++ {
		if g.Eval(root, b) {
			table[b] = 1
		}
	}
	return crc32.ChecksumIEEE(table), nil
}
