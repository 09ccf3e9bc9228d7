// Copyright (c) 2025 The basetree Authors
// SPDX-License-Identifier: MIT

package basetree

import "fmt"

// maxRecursionDepth guards against a cycle in the rewrite rules, which
// would otherwise be a silent infinite loop; hitting it is a logic bug,
// never a property of legitimate input.
const maxRecursionDepth = 240

// AddNormaliseNode is the engine's single entry point: given three
// child references it returns the id of a node that both encodes the
// same boolean function and is structurally canonical under the
// package's algebra.
func (g *Graph) AddNormaliseNode(q, t, f NodeId) (NodeId, error) {
	return g.addNormaliseNode(q, t, f, 0)
}

func (g *Graph) addNormaliseNode(q, t, f NodeId, depth int) (NodeId, error) {
	if depth > maxRecursionDepth {
		return 0, wrapf(ErrInvariantViolation, "recursion depth exceeded %d, rewrite rules likely cycling", maxRecursionDepth)
	}

	// 1. trivial identity: Q ? T : T == T regardless of Q.
	if t == f {
		return f, nil
	}

	// 2. level-1 inversion propagation.
	if q.Inverted() {
		q = q.Index()
		t, f = f, t
	}
	if q == 0 {
		return f, nil
	}
	if f.Inverted() {
		id, err := g.addNormaliseNode(q, t.Invert(), f.Index(), depth+1)
		if err != nil {
			return 0, err
		}
		return id.Invert(), nil
	}

	g.explainStep("entry", q, t, f)

	// 3. level-2 single-node identities.
	if result, collapsed := level2Collapse(q, t, f); collapsed {
		g.explainStep("level2-collapse", 0, 0, result)
		return result, nil
	}
	if level2Rewrite(&q, &t, &f) {
		g.explainStep("level2-rewrite", q, t, f)
		return g.addNormaliseNode(q, t, f, depth+1)
	}

	// 4. fast cache lookup.
	if slot, id := g.index.lookup(q, t, f, g.store); id != 0 {
		_ = slot
		return id, nil
	}

	// 5. purification (optional): rewrite any QTF into QnTF form.
	if g.flags.Has(FlagPure) {
		if classify(0, 0, t, f) == variantQTF {
			inner, err := g.addNormaliseNode(q, t.Invert(), f, depth+1)
			if err != nil {
				return 0, err
			}
			return g.addNormaliseNode(q, inner.Invert(), f, depth+1)
		}
	}

	// 6. cascade reordering (optional), otherwise a one-shot swap.
	if g.flags.Has(FlagCascade) {
		changed, err := g.cascadeQTF(&q, &t, &f, depth)
		if err != nil {
			return 0, err
		}
		if changed {
			if q == t && t == f {
				g.explainStep("cascade-collapse", 0, 0, q)
				return q, nil
			}
			g.explainStep("cascade-reorder", q, t, f)
			return g.addNormaliseNode(q, t, f, depth+1)
		}
	} else {
		oneShotSwap(g, &q, &t, &f)
	}

	// 7. pattern rewrite (optional).
	if g.flags.Has(FlagRewrite) && g.rewriter != nil {
		changed, err := g.rewriteQTF(&q, &t, &f)
		if err != nil {
			return 0, err
		}
		if changed {
			if t == f {
				return f, nil
			}
			g.explainStep("pattern-rewrite", q, t, f)
			return g.addNormaliseNode(q, t, f, depth+1)
		}
	}

	// 9. intern.
	return g.addBasicNode(q, t, f)
}

// level2Collapse applies the subset of single-node identities that
// resolve directly to one of the existing operands, without needing a
// fresh node. It assumes the step-1/step-2 preconditions already hold:
// t != f, q is not inverted and non-zero, f is not inverted.
func level2Collapse(q, t, f NodeId) (NodeId, bool) {
	// Q ? !0 : 0  ==  Q
	if t == IBIT && f == 0 {
		return q, true
	}
	ti := t.Index()
	switch {
	case ti == q.Index() && !t.Inverted():
		// Q ? Q : F  ==  Q OR F; the F == 0 instance collapses further
		// below via the OR identity, so only short-circuit when it does.
		if f == 0 {
			return q, true
		}
	case ti == q.Index() && t.Inverted():
		// Q ? !Q : F  ==  !Q AND F; collapses to constant-false whenever
		// F can never be true while Q is false (F == 0 or F == Q).
		if f == 0 || f == q {
			return 0, true
		}
	}
	return 0, false
}

// level2Rewrite applies single-node identities that change the shape
// of the triple but still need a further normalisation pass (they may
// need index lookup, cascade reordering, etc.), rather than resolving
// directly to an operand. It mutates *q, *t, *f in place and reports
// whether anything changed.
func level2Rewrite(q, t, f *NodeId) bool {
	ti := t.Index()
	switch {
	case ti == q.Index() && !t.Inverted():
		// Q ? Q : F  ==  Q OR F  (F == 0 already resolved by level2Collapse)
		*t = IBIT
		return true
	case ti == q.Index() && t.Inverted():
		// Q ? !Q : F  ==  !Q AND F  ==  F ? !Q : 0, re-rooted on F since
		// Q itself can never carry IBIT in a stored node. (F == 0 and
		// F == Q already resolved by level2Collapse.)
		*q, *t, *f = *f, (*q).Invert(), 0
		return true
	}
	// Q ? T : Q  ==  Q AND T
	if *f == *q {
		*f = 0
		return true
	}
	return false
}

// oneShotSwap applies the non-CASCADE fallback ordering rule: if the
// node is OR/NE/AND and its operands are out of order under the
// non-cascading comparator, swap them.
func oneShotSwap(g *Graph, q, t, f *NodeId) {
	switch cascadeShape(*q, *t, *f) {
	case CascadeOr:
		if g.compare(*q, g, *f, CascadeNone) == Greater {
			*q, *f = *f, *q
		}
	case CascadeNe:
		if g.compare(*q, g, *f, CascadeNone) == Greater {
			*q, *f = *f, *q
			*t = f.Invert()
		}
	case CascadeAnd:
		if g.compare(*q, g, *t, CascadeNone) == Greater {
			*q, *t = *t, *q
		}
	}
}

// addBasicNode interns a pre-normalised (Q, T, F) triple: it looks the
// triple up in the index and returns the existing id if present,
// otherwise appends a new node and installs it.
func (g *Graph) addBasicNode(q, t, f NodeId) (NodeId, error) {
	if g.flags.Has(FlagParanoid) {
		if err := g.checkNode(q, t, f); err != nil {
			return 0, err
		}
	}

	slot, id := g.index.lookup(q, t, f, g.store)
	if id != 0 {
		return id, nil
	}

	id, err := g.store.alloc(q, t, f)
	if err != nil {
		return 0, err
	}
	g.index.install(slot, id)
	return id, nil
}

// checkNode re-verifies the five structural invariants for a
// candidate (Q, T, F) about to be interned; only ever invoked in
// PARANOID mode.
func (g *Graph) checkNode(q, t, f NodeId) error {
	if q == 0 {
		return wrapf(ErrInvariantViolation, "Q must not be 0")
	}
	if q.Inverted() {
		return wrapf(ErrInvariantViolation, "Q must not carry IBIT")
	}
	if f.Inverted() {
		return wrapf(ErrInvariantViolation, "F must not carry IBIT")
	}
	if q.Index() >= g.store.count() || t.Index() >= g.store.count() || f.Index() >= g.store.count() {
		return wrapf(ErrInvariantViolation, "operand out of range")
	}
	if q == t.Index() {
		return wrapf(ErrInvariantViolation, "Q/T fold: Q == T")
	}
	if q == f {
		return wrapf(ErrInvariantViolation, "Q/F fold: Q == F")
	}
	if t == IBIT && f == 0 {
		return wrapf(ErrInvariantViolation, "trivial OR-with-false fold not collapsed")
	}
	// with FlagCascade the operands are ordered by the cascade-aware
	// comparator, as cascadeQTF orders them; otherwise by the plain one.
	op := cascadeShape(q, t, f)
	tag := CascadeNone
	if g.flags.Has(FlagCascade) {
		tag = op
	}
	switch op {
	case CascadeOr:
		if g.compare(q, g, f, tag) != Less {
			return wrapf(ErrInvariantViolation, "OR operands out of order")
		}
	case CascadeNe:
		if g.compare(q, g, f, tag) != Less {
			return wrapf(ErrInvariantViolation, "NE operands out of order")
		}
	case CascadeAnd:
		if g.compare(q, g, t, tag) != Less {
			return wrapf(ErrInvariantViolation, "AND operands out of order")
		}
	}
	return nil
}

// explainStep writes one JSON trace line to ctx.Explain, if set.
// Failures to write are swallowed: tracing must never perturb
// normalisation.
func (g *Graph) explainStep(rule string, q, t, f NodeId) {
	if g.ctx == nil || g.ctx.Explain == nil {
		return
	}
	fmt.Fprintf(g.ctx.Explain, "{\"rule\":%q,\"q\":%d,\"t\":%d,\"f\":%d}\n", rule, q, t, f)
}

// Audit walks every live node and re-checks the five structural
// invariants, including the operand order of each OR/NE/AND node,
// regardless of whether PARANOID was set at construction. Each node is
// checked on its own: the ordering along a whole cascade chain is not
// walked. It is the supplemented standalone counterpart to
// the inline paranoid checks performed during construction.
func (g *Graph) Audit() error {
	for id := g.nstart; id < g.store.count(); id++ {
		n := g.store.get(id)
		if err := g.checkNode(n.Q, n.T, n.F); err != nil {
			return fmt.Errorf("node %d: %w", id, err)
		}
	}
	return nil
}
