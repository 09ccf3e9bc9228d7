// Copyright (c) 2025 The basetree Authors
// SPDX-License-Identifier: MIT

package main

import "github.com/baseform/basetree"

// ToyFeistelRound builds one round of a toy Feistel cipher in the
// shape of a single DES round: given the left/right halves of the
// block and a round key (all equal width), it XORs the right half with
// the key, runs that through a small S-box-like non-linear mix (a
// handful of AND/OR/XOR gates fanning each output bit out over several
// input bits, the same flavour as a real DES S-box without the actual
// DES tables), then XORs the result into the left half. It returns the
// new (left, right) pair: newLeft = right, newRight = left XOR mix.
func ToyFeistelRound(g *basetree.Graph, left, right, key []basetree.NodeId) (newLeft, newRight []basetree.NodeId, err error) {
	if len(left) != len(right) || len(right) != len(key) {
		return nil, nil, errLenMismatch("ToyFeistelRound", len(left), len(right))
	}

	mixed := make([]basetree.NodeId, len(right))
	for i := range right {
		x, err := xor(g, right[i], key[i])
		if err != nil {
			return nil, nil, err
		}
		mixed[i] = x
	}

	sboxed, err := toySBox(g, mixed)
	if err != nil {
		return nil, nil, err
	}

	newRight = make([]basetree.NodeId, len(left))
	for i := range left {
		v, err := xor(g, left[i], sboxed[i])
		if err != nil {
			return nil, nil, err
		}
		newRight[i] = v
	}
	return right, newRight, nil
}

// toySBox mixes each output bit from itself and its two ring neighbours
// — out[i] = in[i] XOR (in[i-1] AND in[i+1]) OR (NOT in[i] AND in[i+1])
// — a compact non-linear substitution in the same spirit as a real
// S-box's bit diffusion, not a cryptographic one.
func toySBox(g *basetree.Graph, in []basetree.NodeId) ([]basetree.NodeId, error) {
	n := len(in)
	out := make([]basetree.NodeId, n)
	for i := range in {
		prev := in[(i-1+n)%n]
		next := in[(i+1)%n]

		a, err := and(g, prev, next)
		if err != nil {
			return nil, err
		}
		b, err := and(g, not(in[i]), next)
		if err != nil {
			return nil, err
		}
		ab, err := or(g, a, b)
		if err != nil {
			return nil, err
		}
		v, err := xor(g, in[i], ab)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// ToyMD5Round builds one MD5-style round step on a 4-word state
// (a, b, c, d), each word a slice of bit references: the real F/G/H/I
// nonlinear functions of MD5, applied bitwise, followed by modular
// ripple-carry additions of a, the nonlinear word and the
// message/constant word m. No rotation is performed and none is taken
// as input: that is pure wiring, not boolean algebra, so it has no
// AddNormaliseNode content worth modelling here.
func ToyMD5Round(g *basetree.Graph, round int, a, b, c, d, m []basetree.NodeId) ([]basetree.NodeId, error) {
	nonlinear, err := md5Nonlinear(g, round, b, c, d)
	if err != nil {
		return nil, err
	}
	sum1, _, err := RippleCarryAdder(g, a, nonlinear, 0)
	if err != nil {
		return nil, err
	}
	sum2, _, err := RippleCarryAdder(g, sum1, m, 0)
	if err != nil {
		return nil, err
	}
	return sum2, nil
}

// md5Nonlinear dispatches to MD5's F, G, H, or I function (bitwise,
// per output bit) based on which quarter of the 64-round schedule round
// falls into.
func md5Nonlinear(g *basetree.Graph, round int, b, c, d []basetree.NodeId) ([]basetree.NodeId, error) {
	switch (round / 16) % 4 {
	case 0:
		return bitwise3(g, b, c, d, mdF)
	case 1:
		return bitwise3(g, b, c, d, mdG)
	case 2:
		return bitwise3(g, b, c, d, mdH)
	default:
		return bitwise3(g, b, c, d, mdI)
	}
}

type bitwiseFn func(g *basetree.Graph, x, y, z basetree.NodeId) (basetree.NodeId, error)

func bitwise3(g *basetree.Graph, x, y, z []basetree.NodeId, fn bitwiseFn) ([]basetree.NodeId, error) {
	if len(x) != len(y) || len(y) != len(z) {
		return nil, errLenMismatch("bitwise3", len(x), len(y))
	}
	out := make([]basetree.NodeId, len(x))
	for i := range x {
		v, err := fn(g, x[i], y[i], z[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// mdF is MD5's round-1 function: (x AND y) OR (NOT x AND z).
func mdF(g *basetree.Graph, x, y, z basetree.NodeId) (basetree.NodeId, error) {
	xy, err := and(g, x, y)
	if err != nil {
		return 0, err
	}
	nxz, err := and(g, not(x), z)
	if err != nil {
		return 0, err
	}
	return or(g, xy, nxz)
}

// mdG is MD5's round-2 function: (x AND z) OR (y AND NOT z).
func mdG(g *basetree.Graph, x, y, z basetree.NodeId) (basetree.NodeId, error) {
	xz, err := and(g, x, z)
	if err != nil {
		return 0, err
	}
	ynz, err := and(g, y, not(z))
	if err != nil {
		return 0, err
	}
	return or(g, xz, ynz)
}

// mdH is MD5's round-3 function: x XOR y XOR z.
func mdH(g *basetree.Graph, x, y, z basetree.NodeId) (basetree.NodeId, error) {
	xy, err := xor(g, x, y)
	if err != nil {
		return 0, err
	}
	return xor(g, xy, z)
}

// mdI is MD5's round-4 function: y XOR (x OR NOT z).
func mdI(g *basetree.Graph, x, y, z basetree.NodeId) (basetree.NodeId, error) {
	xnz, err := or(g, x, not(z))
	if err != nil {
		return 0, err
	}
	return xor(g, y, xnz)
}
