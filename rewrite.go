// Copyright (c) 2025 The basetree Authors
// SPDX-License-Identifier: MIT

package basetree

// RewriteTable is the pluggable pattern-database collaborator consulted
// by rewriteQTF when FlagRewrite is set. Its schema lives outside the
// core; internal/rewritedb provides a concrete implementation backed by
// an embedded key-value store. A nil RewriteTable makes the rewriter a
// no-op, exactly as if the database were absent.
type RewriteTable interface {
	// Lookup resolves a canonical two-deep fingerprint (the mixed-radix
	// probe key built by fingerprintQTF) to a RewriteEntry. found is
	// false if the table has no opinion on this shape.
	Lookup(key uint64) (entry RewriteEntry, found bool)
}

// RewriteOutcome classifies what a RewriteEntry instructs rewriteQTF to
// do with the candidate triple.
type RewriteOutcome int

const (
	// RewriteNoop reports the triple is already canonical.
	RewriteNoop RewriteOutcome = iota
	// RewriteCollapse reports the whole expression reduces to one slot.
	RewriteCollapse
	// RewriteReorder reports a same-shape permutation of the operands.
	RewriteReorder
	// RewriteReplace reports a short build sequence produces a
	// different sub-DAG entirely.
	RewriteReplace
)

// RewriteStep is one pre-encoded build instruction of a RewriteReplace
// entry: addNormaliseNode(Slots[Q], Slots[T] (inverted per TInvert),
// Slots[F]) where an index >= 9 refers to a previously materialised
// step's result rather than one of the original nine fingerprint slots.
type RewriteStep struct {
	Q, T, F int
	TInvert bool
}

// RewriteEntry is one table lookup result.
type RewriteEntry struct {
	Outcome RewriteOutcome

	// Collapse: index into the 9-slot fingerprint naming the surviving
	// operand.
	CollapseSlot int

	// Reorder: the new (Q, T, F) expressed as fingerprint slot indices,
	// with TInvert marking whether T carries an inversion.
	ReorderQ, ReorderF int
	ReorderT           int
	ReorderTInvert     bool

	// Replace: a sequence of build steps; the last step's result is the
	// rewrite's final node.
	Steps []RewriteStep
}

// RewriteStats are the rewriter's cumulative per-outcome counters,
// exposed via Graph.RewriteStats for diagnostics.
type RewriteStats struct {
	Noop     uint64
	Collapse uint64
	Reorder  uint64
	Replace  uint64
}

// fingerprintQTF walks the two-deep neighbourhood of (q, t, f) into a
// 9-slot vector: the triple's own three operands, plus — for whichever
// of those operands is itself an uninverted internal node — its own
// three operands in turn, in Q, T, F order. External references (entries
// or already-exhausted slots) occupy a slot directly; unused positions
// are left as the zero reference. slots[0:3] are always q, t.Index(),
// f; slots[3:9] are filled left-to-right by the first operand(s) that
// expand.
//
// The returned key packs one base-4 digit per slot, recording whether
// the slot is an external reference or an internal node and whether it
// carries an inversion: it names the *shape* of the neighbourhood, not
// the specific identities of the external references it touches, so
// that a table trained on one set of inputs applies to any isomorphic
// shape. The key does not record which slots hold the same reference.
func (g *Graph) fingerprintQTF(q, t, f NodeId) (key uint64, slots [9]NodeId) {
	slots[0], slots[1], slots[2] = q, t.Index(), f

	next := 3
	expand := func(id NodeId) {
		if next >= len(slots) {
			return
		}
		idx := id.Index()
		if id.Inverted() || idx < g.nstart {
			return
		}
		n := g.store.get(idx)
		for _, child := range [...]NodeId{n.Q, n.T.Index(), n.F} {
			if next >= len(slots) {
				return
			}
			slots[next] = child
			next++
		}
	}
	expand(q)
	expand(t)
	expand(f)

	for _, s := range slots {
		// the digit names the slot's shape, not its identity: whether
		// it is an external reference (entry/sentinel) or an internal
		// node, and whether it carries an inversion.
		var digit uint64
		if s.Index() < g.nstart {
			digit = 0
		} else {
			digit = 1
		}
		if s.Inverted() {
			digit |= 2
		}
		key = key*4 + digit
	}
	return key, slots
}

// rewriteQTF consults g.rewriter for a pattern matching (q, t, f) and
// applies its instruction in place. It reports whether anything
// changed. A nil rewriter is a no-op.
func (g *Graph) rewriteQTF(q, t, f *NodeId) (bool, error) {
	if g.rewriter == nil {
		return false, nil
	}
	key, slots := g.fingerprintQTF(*q, *t, *f)

	entry, found := g.rewriter.Lookup(key)
	if !found {
		g.rewriteStats.Noop++
		return false, nil
	}

	switch entry.Outcome {
	case RewriteNoop:
		g.rewriteStats.Noop++
		return false, nil

	case RewriteCollapse:
		g.rewriteStats.Collapse++
		result := slots[entry.CollapseSlot]
		*q, *t, *f = result, result, result
		return true, nil

	case RewriteReorder:
		g.rewriteStats.Reorder++
		nt := slots[entry.ReorderT]
		if entry.ReorderTInvert {
			nt = nt.Invert()
		}
		*q, *t, *f = slots[entry.ReorderQ], nt, slots[entry.ReorderF]
		return true, nil

	case RewriteReplace:
		g.rewriteStats.Replace++
		materialised := make([]NodeId, 0, len(entry.Steps))
		resolve := func(idx int) NodeId {
			if idx < len(slots) {
				return slots[idx]
			}
			return materialised[idx-len(slots)]
		}
		var result NodeId
		for _, step := range entry.Steps {
			sq := resolve(step.Q)
			st := resolve(step.T)
			if step.TInvert {
				st = st.Invert()
			}
			sf := resolve(step.F)
			id, err := g.addNormaliseNode(sq, st, sf, g.recursionDepth+1)
			if err != nil {
				return false, err
			}
			materialised = append(materialised, id)
			result = id
		}
		*q, *t, *f = result, result, result
		return true, nil

	default:
		return false, wrapf(ErrInvariantViolation, "unknown rewrite outcome %d", entry.Outcome)
	}
}
