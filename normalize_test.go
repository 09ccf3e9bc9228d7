// Copyright (c) 2025 The basetree Authors
// SPDX-License-Identifier: MIT

package basetree

import "testing"

// newTestGraph returns a small graph with three entries a, b, c
// (ids 1, 2, 3) and room for internal nodes, flags as requested.
func newTestGraph(t *testing.T, flags Flags) (*Graph, NodeId, NodeId, NodeId) {
	t.Helper()
	g, err := New(nil, 1, 1, 1, 4, 4, 64, flags)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g, 1, 2, 3
}

func TestLevel2FoldIdentity(t *testing.T) {
	// addNormaliseNode(a, IBIT|0, 0) -- pattern a ? !0 : 0 -- returns a.
	g, a, _, _ := newTestGraph(t, FlagCascade)
	got, err := g.AddNormaliseNode(a, IBIT, 0)
	if err != nil {
		t.Fatalf("AddNormaliseNode: %v", err)
	}
	if got != a {
		t.Fatalf("got %d, want %d", got, a)
	}
}

func TestOROrdering(t *testing.T) {
	g, a, b, _ := newTestGraph(t, FlagCascade)

	id1, err := g.AddNormaliseNode(b, IBIT, a)
	if err != nil {
		t.Fatalf("AddNormaliseNode(b,IBIT,a): %v", err)
	}
	id2, err := g.AddNormaliseNode(a, IBIT, b)
	if err != nil {
		t.Fatalf("AddNormaliseNode(a,IBIT,b): %v", err)
	}
	if id1 != id2 {
		t.Fatalf("OR(b,a) id %d != OR(a,b) id %d", id1, id2)
	}

	n := g.Node(id1.Index())
	if n.Q != a || n.T != IBIT || n.F != b {
		t.Fatalf("node = (%d,%d,%d), want (%d,%d,%d)", n.Q, n.T, n.F, a, IBIT, b)
	}
}

func TestCascadeFlatten(t *testing.T) {
	g, a, b, c := newTestGraph(t, FlagCascade)

	inner, err := g.AddNormaliseNode(b, IBIT, a)
	if err != nil {
		t.Fatalf("inner OR: %v", err)
	}
	root, err := g.AddNormaliseNode(c, IBIT, inner)
	if err != nil {
		t.Fatalf("outer OR: %v", err)
	}

	expectInner, err := g.AddNormaliseNode(a, IBIT, b)
	if err != nil {
		t.Fatalf("expected inner OR: %v", err)
	}
	if inner != expectInner {
		t.Fatalf("inner OR(b,a)=%d, want OR(a,b)=%d", inner, expectInner)
	}

	n := g.Node(root.Index())
	if n.Q != inner || n.T != IBIT || n.F != c {
		t.Fatalf("root node = (%d,%d,%d), want (%d,%d,%d)", n.Q, n.T, n.F, inner, IBIT, c)
	}
}

func TestSelfCancellingXOR(t *testing.T) {
	g, a, _, _ := newTestGraph(t, FlagCascade)
	got, err := g.AddNormaliseNode(a, IBIT|a, a)
	if err != nil {
		t.Fatalf("AddNormaliseNode: %v", err)
	}
	if got != 0 {
		t.Fatalf("got %d, want 0", got)
	}
}

func TestTextRoundTrip(t *testing.T) {
	g, a, b, _ := newTestGraph(t, FlagCascade)
	root, err := g.AddNormaliseNode(a, IBIT, b)
	if err != nil {
		t.Fatalf("AddNormaliseNode: %v", err)
	}

	text := g.SaveString(root)
	if text != "ab+" {
		t.Fatalf("SaveString = %q, want %q", text, "ab+")
	}

	reloaded, err := g.LoadStringSafe(text)
	if err != nil {
		t.Fatalf("LoadStringSafe: %v", err)
	}
	if reloaded != root {
		t.Fatalf("LoadStringSafe(%q) = %d, want %d", text, reloaded, root)
	}
}

func TestAddNormaliseNodeIdempotent(t *testing.T) {
	g, a, b, c := newTestGraph(t, FlagCascade)
	id1, err := g.AddNormaliseNode(a, b, c)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	id2, err := g.AddNormaliseNode(a, b, c)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("not idempotent: %d != %d", id1, id2)
	}
}

func TestQTFEvaluatesLikeDirectDefinition(t *testing.T) {
	g, a, b, c := newTestGraph(t, FlagCascade)
	root, err := g.AddNormaliseNode(a, b, c)
	if err != nil {
		t.Fatalf("AddNormaliseNode: %v", err)
	}
	for bits := uint64(0); bits < 8; bits++ {
		av := bits&1 != 0
		bv := bits&2 != 0
		cv := bits&4 != 0
		want := av && bv || !av && cv
		got := g.Eval(root, bits)
		if got != want {
			t.Fatalf("bits=%03b: Eval=%v, want %v", bits, got, want)
		}
	}
}

func TestCapacityExceeded(t *testing.T) {
	// maxNodes is nstart plus the 10-slot safety margin: New's own
	// entry allocations still fit, so the very first internal
	// allocation must fail.
	g, err := New(nil, 1, 1, 1, 4, 1, 14, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	a, b := NodeId(1), NodeId(2)
	if _, err := g.AddNormaliseNode(a, b, 0); err == nil {
		t.Fatal("expected CapacityExceeded, got nil")
	}
}

func TestParanoidRejectsBadOrder(t *testing.T) {
	g, a, b, _ := newTestGraph(t, FlagParanoid)
	// addBasicNode bypasses the normaliser's ordering guarantees; feed
	// it an out-of-order AND triple directly to exercise checkNode.
	if _, err := g.addBasicNode(b, a, 0); err == nil {
		t.Fatal("expected InvariantViolation for out-of-order AND operands")
	}
}
