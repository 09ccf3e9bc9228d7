// Copyright (c) 2025 The basetree Authors
// SPDX-License-Identifier: MIT

package main

import "github.com/baseform/basetree"

// FromTruthTable builds a decision-diagram style expression for an
// arbitrary boolean function given as a truth table: table must have
// exactly 2^len(vars) entries, row i giving the function's value when
// variable vars[j]'s bit is (i>>j)&1. It recurses top variable first,
// Shannon-expanding on vars[last] down to vars[0], so the recursion
// mirrors a standard ROBDD construction — every intermediate node still
// goes through AddNormaliseNode, so the result is canonical and
// typically far smaller than the 2^n-row table it was derived from.
func FromTruthTable(g *basetree.Graph, vars []basetree.NodeId, table []bool) (basetree.NodeId, error) {
	if len(table) != 1<<uint(len(vars)) {
		return 0, errLenMismatch("FromTruthTable", len(table), 1<<uint(len(vars)))
	}
	return fromTable(g, vars, table)
}

func fromTable(g *basetree.Graph, vars []basetree.NodeId, table []bool) (basetree.NodeId, error) {
	if len(vars) == 0 {
		if table[0] {
			return basetree.IBIT, nil // constant true: 0 ? !0 : 0 folds to !0, represented as IBIT over the 0 node
		}
		return 0, nil
	}

	half := len(table) / 2
	lo, err := fromTable(g, vars[:len(vars)-1], table[:half])
	if err != nil {
		return 0, err
	}
	hi, err := fromTable(g, vars[:len(vars)-1], table[half:])
	if err != nil {
		return 0, err
	}

	v := vars[len(vars)-1]
	return g.AddNormaliseNode(v, hi, lo)
}
