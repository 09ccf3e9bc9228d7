// Copyright (c) 2025 The basetree Authors
// SPDX-License-Identifier: MIT

// Command builders exercises a handful of example graph constructors
// built as external collaborators of the core: a ripple-carry adder, a
// truth-table-driven decision-diagram generator, and a toy multi-round
// Feistel/MD5-style mixing network. Every one of them talks to
// basetree purely through AddNormaliseNode — none ever touches an
// internal package symbol.
package main

import "github.com/baseform/basetree"

// FullAdder builds a full-adder bit slice: sum = a ^ b ^ cin, carry =
// majority(a, b, cin) = ab + a.cin + b.cin, expressed purely as nested
// AddNormaliseNode calls over OR/XOR/AND shapes.
func FullAdder(g *basetree.Graph, a, b, cin basetree.NodeId) (sum, cout basetree.NodeId, err error) {
	abXor, err := xor(g, a, b)
	if err != nil {
		return 0, 0, err
	}
	sum, err = xor(g, abXor, cin)
	if err != nil {
		return 0, 0, err
	}

	ab, err := and(g, a, b)
	if err != nil {
		return 0, 0, err
	}
	aCin, err := and(g, a, cin)
	if err != nil {
		return 0, 0, err
	}
	bCin, err := and(g, b, cin)
	if err != nil {
		return 0, 0, err
	}
	cout, err = or(g, ab, aCin)
	if err != nil {
		return 0, 0, err
	}
	cout, err = or(g, cout, bCin)
	if err != nil {
		return 0, 0, err
	}
	return sum, cout, nil
}

// RippleCarryAdder builds a bits-wide ripple-carry adder over two input
// vectors a, b (each least-significant bit first) and an initial carry
// cin, returning the bits-wide sum vector and the final carry-out.
func RippleCarryAdder(g *basetree.Graph, a, b []basetree.NodeId, cin basetree.NodeId) (sum []basetree.NodeId, cout basetree.NodeId, err error) {
	if len(a) != len(b) {
		return nil, 0, errLenMismatch("RippleCarryAdder", len(a), len(b))
	}
	sum = make([]basetree.NodeId, len(a))
	carry := cin
	for i := range a {
		s, c, err := FullAdder(g, a[i], b[i], carry)
		if err != nil {
			return nil, 0, err
		}
		sum[i] = s
		carry = c
	}
	return sum, carry, nil
}

func and(g *basetree.Graph, a, b basetree.NodeId) (basetree.NodeId, error) {
	return g.AddNormaliseNode(a, b, 0)
}

func or(g *basetree.Graph, a, b basetree.NodeId) (basetree.NodeId, error) {
	return g.AddNormaliseNode(a, basetree.IBIT, b)
}

func xor(g *basetree.Graph, a, b basetree.NodeId) (basetree.NodeId, error) {
	return g.AddNormaliseNode(a, b.Invert(), b)
}

func not(a basetree.NodeId) basetree.NodeId { return a.Invert() }

type lenMismatchError struct {
	op       string
	lenA, lb int
}

func (e *lenMismatchError) Error() string {
	return e.op + ": mismatched vector lengths"
}

func errLenMismatch(op string, a, b int) error {
	return &lenMismatchError{op: op, lenA: a, lb: b}
}
