// Copyright (c) 2025 The basetree Authors
// SPDX-License-Identifier: MIT

package basetree

// NodeId references a node in a Graph's arena. Bit 31 (IBIT) means
// "invert the referenced node's output"; bits 0-30 are the arena index.
//
// NodeId has value semantics: it never escapes to a different Graph
// without being translated through an explicit NodeId -> NodeId map
// (see ImportActive / ImportNodes / ImportFold).
type NodeId uint32

// IBIT is the high bit of a NodeId, marking logical inversion of the
// referenced node's output.
const IBIT NodeId = 1 << 31

// Index strips IBIT, returning the underlying arena index.
func (r NodeId) Index() NodeId { return r &^ IBIT }

// Inverted reports whether r carries the inversion bit.
func (r NodeId) Inverted() bool { return r&IBIT != 0 }

// Invert toggles the inversion bit of r.
func (r NodeId) Invert() NodeId { return r ^ IBIT }

// WithInvert returns r with its inversion bit set to inv.
func (r NodeId) WithInvert(inv bool) NodeId {
	if inv {
		return r.Index() | IBIT
	}
	return r.Index()
}

// Node is one interned (Q, T, F) triple. Once appended to a Graph's
// arena a Node is never mutated; canonicalisation always produces a new
// Node or returns the id of an existing one.
//
// Invariants, checked in PARANOID mode by Graph.checkNode:
//
//   - Q != 0 (constant-false is never a question)
//   - Q, T.Index(), F are all < the owning Graph's ncount
//   - Q and F never carry IBIT; only T may
//   - Q != T.Index(), Q != F, and (T, F) does not degenerate to a fold
//   - dyadic operands are ordered per the owning Graph's comparator
type Node struct {
	Q NodeId
	T NodeId
	F NodeId
}

// variant classifies a Node's (T, F) shape. The classification never
// depends on Q, only on how T and F relate to each other and to 0.
type variant int

const (
	variantConst0 variant = iota
	variantEntry
	variantOR
	variantGT
	variantNE
	variantAND
	variantQnTF
	variantQTF
)

// classify returns the operator variant of a node with fields (Q, T, F),
// per the polymorphism table of the algebra. id and nstart are only
// needed to tell CONST0 and ENTRY apart from internal nodes; pass
// id == 0 and nstart == 0 to classify a bare (Q, T, F) triple that is
// known not to be a constant or entry.
func classify(id NodeId, nstart NodeId, t, f NodeId) variant {
	switch {
	case id == 0:
		return variantConst0
	case nstart != 0 && id < nstart:
		return variantEntry
	case t == IBIT:
		return variantOR
	case t&IBIT != 0 && f == 0:
		return variantGT
	case (t^IBIT) == f && f != 0:
		return variantNE
	case t&IBIT == 0 && f == 0:
		return variantAND
	case t&IBIT != 0:
		return variantQnTF
	default:
		return variantQTF
	}
}

// isOR reports whether (T, F) encodes T == IBIT, i.e. Q ? !0 : F == Q OR F.
func isOR(t, f NodeId) bool { return t == IBIT }

// isGT reports whether (T, F) encodes Q ? !T : 0 with T not itself 0.
func isGT(t, f NodeId) bool { return t&IBIT != 0 && f == 0 }

// isNE reports whether (T, F) encodes Q ? !F : F, i.e. Q XOR F.
func isNE(t, f NodeId) bool { return (t^IBIT) == f && f != 0 }

// isAND reports whether (T, F) encodes Q ? T : 0 with T not inverted.
func isAND(t, f NodeId) bool { return t&IBIT == 0 && f == 0 }

// rank gives the fixed total order used by the comparator to
// rank nodes of differing operator: OR < GT < NE < AND < QnTF < QTF.
func (v variant) rank() int { return int(v) }
