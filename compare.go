// Copyright (c) 2025 The basetree Authors
// SPDX-License-Identifier: MIT

package basetree

// Ordering is the result of a comparison: Less, Equal, or Greater.
type Ordering int

const (
	Less    Ordering = -1
	Equal   Ordering = 0
	Greater Ordering = 1
)

// Cascade tags a comparator stack frame with the same-operator chain it
// was pushed as part of. Sync is a barrier cascade that is never
// unwound; it is pushed around a node that starts a new cascade so
// that one side exhausting its chain is never mistaken for the other
// side's chain continuing.
type Cascade int

const (
	CascadeNone Cascade = iota
	CascadeOr
	CascadeNe
	CascadeAnd
	CascadeSync
)

// cascadeOf returns the Cascade tag for a node's own operator, or
// CascadeNone if it is not a same-operator-chainable node.
func cascadeOf(v variant) Cascade {
	switch v {
	case variantOR:
		return CascadeOr
	case variantNE:
		return CascadeNe
	case variantAND:
		return CascadeAnd
	default:
		return CascadeNone
	}
}

// compareFrame is one entry on a comparator stack: the cascade tag it
// was pushed under, and the reference itself.
type compareFrame struct {
	cascade Cascade
	id      NodeId
}

// compare defines a total order over references, used by addBasicNode
// to enforce dyadic operand ordering and by cascadeQTF to order a
// cascade's flattened terms. lhs belongs to g; rhs belongs to rhsGraph
// (which may be g itself, for a self-compare). topCascade tags the two
// initial frames; pass CascadeNone for a general-purpose compare.
//
// The two DAGs are walked in lock-step with explicit stacks so that
// recursion depth never has to scale with graph size. A same-operator
// chain on either side is transparently flattened ("unwound") as it is
// encountered, so the order is stable across left/right rotations of a
// cascade: compare(a, OR(b, c)) == compare(a, OR(c, b)).
func (g *Graph) compare(lhs NodeId, rhsGraph *Graph, rhs NodeId, topCascade Cascade) Ordering {
	pool := g.pool
	memo := pool.acquireVersioned()
	defer pool.releaseVersioned(memo)

	stackL := []compareFrame{{topCascade, lhs}}
	stackR := []compareFrame{{topCascade, rhs}}

	for len(stackL) > 0 && len(stackR) > 0 {
		fl := exposeTop(&stackL, g)
		fr := exposeTop(&stackR, rhsGraph)

		if fl.cascade != fr.cascade {
			// a Sync barrier or an empty cascade on one side while the
			// other still carries its chain tag: whichever stack is now
			// shorter (it pushed fewer replacement frames because its
			// chain ended) is the exhausted, lesser side.
			if len(stackL) < len(stackR) {
				return Less
			}
			if len(stackL) > len(stackR) {
				return Greater
			}
			if fl.cascade == CascadeSync {
				return Less
			}
			return Greater
		}

		if ord, decided := compareExposed(g, fl.id, rhsGraph, fr.id); decided {
			return ord
		}

		lIdx, rIdx := fl.id.Index(), fr.id.Index()
		if g == rhsGraph && lIdx == rIdx && fl.id == fr.id {
			continue // identical reference, nothing further to distinguish
		}

		// prune revisits: if this exact (L, R) pairing was already
		// queued for descent earlier in this call, its subtrees are
		// already known to compare Equal; don't re-expand them.
		seen, ok := memo.get(lIdx)
		if ok && NodeId(seen) == fr.id {
			continue
		}
		memo.set(lIdx, uint32(fr.id))

		nl := g.store.get(lIdx)
		nr := rhsGraph.store.get(rIdx)
		vl := classify(lIdx, g.nstart, nl.T, nl.F)

		childCascade := topCascadeFor(fl.cascade, vl)

		pushChild := func(stack *[]compareFrame, n Node, c Cascade) {
			// descend F, then T, then Q, each tagged with c. Operands
			// are always pushed, including a degenerate 0, so the two
			// stacks grow in lock-step and later frames stay paired by
			// position; a 0 operand simply compares as the lowest
			// possible reference against whatever the other side holds.
			*stack = append(*stack, compareFrame{c, n.F})
			*stack = append(*stack, compareFrame{c, n.T})
			*stack = append(*stack, compareFrame{c, n.Q})
		}

		if childCascade != fl.cascade {
			// this node starts a new cascade relative to its parent
			// frame: install a Sync barrier first so a shorter chain on
			// one side can't be mistaken for a structural difference.
			stackL = append(stackL, compareFrame{CascadeSync, 0})
			stackR = append(stackR, compareFrame{CascadeSync, 0})
		}

		pushChild(&stackL, nl, childCascade)
		pushChild(&stackR, nr, childCascade)
	}

	if len(stackL) == 0 && len(stackR) == 0 {
		return Equal
	}
	if len(stackL) == 0 {
		return Less
	}
	return Greater
}

// topCascadeFor returns the cascade tag to push for a node's operands,
// given the cascade its parent frame was tagged with: a node continues
// its parent's cascade only when its own operator matches it, otherwise
// its operands start fresh (CascadeNone) unless the node is itself a
// cascade operator.
func topCascadeFor(parent Cascade, v variant) Cascade {
	self := cascadeOf(v)
	if self != CascadeNone {
		return self
	}
	return CascadeNone
}

// exposeTop pops the next terminal frame from stack, first flattening
// ("unwinding") any depth of same-operator chain: while the top frame
// is an internal, non-inverted node whose operator matches its own
// cascade tag, it is replaced by its two operands (right first, so the
// left — potentially itself a continuation of the chain — is processed
// first).
func exposeTop(stack *[]compareFrame, g *Graph) compareFrame {
	for {
		top := (*stack)[len(*stack)-1]

		if top.cascade == CascadeSync || top.cascade == CascadeNone {
			*stack = (*stack)[:len(*stack)-1]
			return top
		}
		if top.id.Inverted() {
			*stack = (*stack)[:len(*stack)-1]
			return top
		}
		idx := top.id.Index()
		if idx < g.nstart {
			*stack = (*stack)[:len(*stack)-1]
			return top
		}

		n := g.store.get(idx)
		v := classify(idx, g.nstart, n.T, n.F)
		if cascadeOf(v) != top.cascade {
			*stack = (*stack)[:len(*stack)-1]
			return top
		}

		*stack = (*stack)[:len(*stack)-1]

		var left, right NodeId
		switch v {
		case variantOR, variantNE:
			left, right = n.Q, n.F
		case variantAND:
			left, right = n.Q, n.T
		}
		*stack = append(*stack, compareFrame{top.cascade, right})
		*stack = append(*stack, compareFrame{top.cascade, left})
	}
}

// compareExposed compares two terminal (already-unwound) frames that
// share the same cascade tag. It returns (ordering, true) if a decision
// was reached, or (Equal, false) if the caller must descend into
// operands to decide.
func compareExposed(g *Graph, lhs NodeId, rhsGraph *Graph, rhs NodeId) (Ordering, bool) {
	lIdx, rIdx := lhs.Index(), rhs.Index()

	if g == rhsGraph && lIdx == rIdx && lhs.Inverted() == rhs.Inverted() {
		return Equal, false // identical reference; caller treats as continue
	}

	lEntry := lIdx < g.nstart
	rEntry := rIdx < rhsGraph.nstart

	switch {
	case lEntry && rEntry:
		if lIdx == rIdx {
			if lhs.Inverted() == rhs.Inverted() {
				return Equal, false
			}
			if !lhs.Inverted() {
				return Less, true
			}
			return Greater, true
		}
		if lIdx < rIdx {
			return Less, true
		}
		return Greater, true
	case lEntry:
		return Less, true
	case rEntry:
		return Greater, true
	}

	nl := g.store.get(lIdx)
	nr := rhsGraph.store.get(rIdx)
	vl := classify(lIdx, g.nstart, nl.T, nl.F)
	vr := classify(rIdx, rhsGraph.nstart, nr.T, nr.F)

	if vl.rank() != vr.rank() {
		if vl.rank() < vr.rank() {
			return Less, true
		}
		return Greater, true
	}

	if lhs.Inverted() != rhs.Inverted() {
		if !lhs.Inverted() {
			return Less, true
		}
		return Greater, true
	}

	return Equal, false
}
