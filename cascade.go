// Copyright (c) 2025 The basetree Authors
// SPDX-License-Identifier: MIT

package basetree

import "sort"

// cascadeShape recognises which of OR, XOR/NE, AND a (Q, T, F) triple
// instantiates, returning CascadeNone if it is none of them.
func cascadeShape(q, t, f NodeId) Cascade {
	switch {
	case isOR(t, f):
		return CascadeOr
	case isNE(t, f):
		return CascadeNe
	case isAND(t, f):
		return CascadeAnd
	default:
		return CascadeNone
	}
}

// collectCascadeTerms flattens every same-operator descendant of
// (q, f-or-t) reachable without crossing a differing operator or an
// inverted reference, appending each leaf NodeId to terms.
func (g *Graph) collectCascadeTerms(id NodeId, op Cascade, terms []NodeId) []NodeId {
	if id.Inverted() {
		return append(terms, id)
	}
	idx := id.Index()
	if idx < g.nstart {
		return append(terms, id)
	}
	n := g.store.get(idx)
	if cascadeShape(n.Q, n.T, n.F) != op {
		return append(terms, id)
	}
	switch op {
	case CascadeOr, CascadeNe:
		terms = g.collectCascadeTerms(n.Q, op, terms)
		terms = g.collectCascadeTerms(n.F, op, terms)
	case CascadeAnd:
		terms = g.collectCascadeTerms(n.Q, op, terms)
		terms = g.collectCascadeTerms(n.T, op, terms)
	}
	return terms
}

// cascadeQTF detects whether (Q, T, F) instantiates OR, XOR/NE or AND,
// and if so flattens adjacent same-operator children, folds duplicate
// and (for XOR) pairwise-cancelling terms, and rebuilds a left-leaning
// chain of strictly increasing terms via addNormaliseNode. It reports
// whether anything changed. A collapse to a single term is signalled by
// setting *q == *t == *f to that term's id (or to 0, for a fully
// cancelled XOR chain).
func (g *Graph) cascadeQTF(q, t, f *NodeId, depth int) (bool, error) {
	op := cascadeShape(*q, *t, *f)
	if op == CascadeNone {
		return false, nil
	}

	var left, right NodeId
	switch op {
	case CascadeOr, CascadeNe:
		left, right = *q, *f
	case CascadeAnd:
		left, right = *q, *t
	}

	terms := g.collectCascadeTerms(left, op, nil)
	terms = g.collectCascadeTerms(right, op, terms)

	terms, _ = dedupeCascadeTerms(terms, op)

	sort.Slice(terms, func(i, j int) bool {
		return g.compare(terms[i], g, terms[j], op) == Less
	})

	origQ, origT, origF := *q, *t, *f

	switch len(terms) {
	case 0:
		*q, *t, *f = 0, 0, 0
		return true, nil
	case 1:
		*q, *t, *f = terms[0], terms[0], terms[0]
		return true, nil
	}

	acc := terms[0]
	for i, term := range terms[1:] {
		last := i == len(terms)-2

		var nq, nt, nf NodeId
		switch op {
		case CascadeOr:
			nq, nt, nf = acc, IBIT, term
		case CascadeNe:
			nq, nt, nf = acc, term.Invert(), term
		case CascadeAnd:
			nq, nt, nf = acc, term, 0
		}
		if g.compare(nq, g, nf, op) != Less && op != CascadeAnd {
			nq, nf = nf, nq
			if op == CascadeNe {
				nt = nf.Invert()
			}
		}
		if op == CascadeAnd && g.compare(nq, g, nt, op) != Less {
			nq, nt = nt, nq
		}

		if last {
			// the final combination becomes the new top-level triple;
			// it is not interned here, only reported back to the
			// caller, which re-enters the normaliser (or interns it
			// directly if nothing actually changed).
			*q, *t, *f = nq, nt, nf
			break
		}

		id, err := g.addNormaliseNode(nq, nt, nf, depth+1)
		if err != nil {
			return false, err
		}
		acc = id
	}

	if *q == origQ && *t == origT && *f == origF {
		return false, nil
	}
	return true, nil
}

// dedupeCascadeTerms removes duplicate terms for OR/AND (idempotent:
// A|A=A, A&A=A) and pairwise-cancels duplicate terms for XOR/NE
// (A^A=0, so an even count of a term vanishes and an odd count leaves
// one copy). It reports whether any folding happened.
func dedupeCascadeTerms(terms []NodeId, op Cascade) ([]NodeId, bool) {
	counts := make(map[NodeId]int, len(terms))
	order := make([]NodeId, 0, len(terms))
	for _, t := range terms {
		if counts[t] == 0 {
			order = append(order, t)
		}
		counts[t]++
	}

	out := make([]NodeId, 0, len(order))
	changed := len(order) != len(terms)
	for _, t := range order {
		n := counts[t]
		switch op {
		case CascadeNe:
			if n%2 == 1 {
				out = append(out, t)
			}
		default: // OR, AND
			out = append(out, t)
		}
	}
	return out, changed
}
