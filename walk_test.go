// Copyright (c) 2025 The basetree Authors
// SPDX-License-Identifier: MIT

package basetree

import "testing"

func TestEncodeDecodePlaceholderRoundTrip(t *testing.T) {
	for n := 0; n < 200; n++ {
		s := encodePlaceholder(n)
		got := decodePlaceholder(s)
		if got != n {
			t.Fatalf("decodePlaceholder(encodePlaceholder(%d)=%q) = %d", n, s, got)
		}
	}
}

func TestEncodeDecodeBackrefRoundTrip(t *testing.T) {
	for n := 1; n < 200; n++ {
		s := encodeBackref(n)
		got := decodeBackref(s)
		if got != n {
			t.Fatalf("decodeBackref(encodeBackref(%d)=%q) = %d", n, s, got)
		}
	}
}

func TestPlaceholderPast26UsesCarryDigit(t *testing.T) {
	// n=26 is the first value needing a single carry digit: "Aa".
	got := encodePlaceholder(26)
	if got != "Aa" {
		t.Fatalf("encodePlaceholder(26) = %q, want %q", got, "Aa")
	}
	if decodePlaceholder(got) != 26 {
		t.Fatalf("decodePlaceholder(%q) = %d, want 26", got, decodePlaceholder(got))
	}
}

func TestTextRoundTripManyEntries(t *testing.T) {
	// 30 entries forces SaveString's placeholder encoding past the
	// single-letter a..z range into the Aa.. carry form.
	const numEntries = 30
	estart := NodeId(1)
	nstart := estart + numEntries
	g, err := New(nil, 1, 1, estart, nstart, 1, 4096, FlagCascade)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	root := estart
	for i := 1; i < numEntries; i++ {
		root, err = g.AddNormaliseNode(estart+NodeId(i), IBIT, root)
		if err != nil {
			t.Fatalf("AddNormaliseNode at i=%d: %v", i, err)
		}
	}

	text := g.SaveString(root)
	reloaded, err := g.LoadStringSafe(text)
	if err != nil {
		t.Fatalf("LoadStringSafe(%q): %v", text, err)
	}
	if reloaded != root {
		t.Fatalf("LoadStringSafe round trip = %d, want %d", reloaded, root)
	}
}

func TestTextRoundTripXORAndAND(t *testing.T) {
	g, a, b, c := newTestGraph(t, FlagCascade)

	xorRoot, err := g.AddNormaliseNode(a, b.Invert(), b)
	if err != nil {
		t.Fatalf("xor: %v", err)
	}
	andRoot, err := g.AddNormaliseNode(xorRoot, c, 0)
	if err != nil {
		t.Fatalf("and: %v", err)
	}

	text := g.SaveString(andRoot)
	reloaded, err := g.LoadStringSafe(text)
	if err != nil {
		t.Fatalf("LoadStringSafe(%q): %v", text, err)
	}
	if reloaded != andRoot {
		t.Fatalf("LoadStringSafe round trip = %d, want %d", reloaded, andRoot)
	}
}

func TestTextRoundTripFanOutSharedSubtree(t *testing.T) {
	// Two distinct roots sharing a common subexpression must each
	// serialise and reload correctly; the second root's reference to
	// the first's subtree is re-derived fresh since SaveString is
	// called independently per root.
	g, a, b, c := newTestGraph(t, FlagCascade)
	shared, err := g.AddNormaliseNode(a, IBIT, b)
	if err != nil {
		t.Fatalf("shared OR: %v", err)
	}
	root1, err := g.AddNormaliseNode(shared, c, 0)
	if err != nil {
		t.Fatalf("root1 AND: %v", err)
	}
	root2, err := g.AddNormaliseNode(c, IBIT, shared)
	if err != nil {
		t.Fatalf("root2 OR: %v", err)
	}

	for _, root := range []NodeId{root1, root2} {
		text := g.SaveString(root)
		reloaded, err := g.LoadStringSafe(text)
		if err != nil {
			t.Fatalf("LoadStringSafe(%q): %v", text, err)
		}
		if reloaded != root {
			t.Fatalf("round trip of %q = %d, want %d", text, reloaded, root)
		}
	}
}

func TestLoadStringRejectsMalformedExpression(t *testing.T) {
	g, _, _, _ := newTestGraph(t, FlagCascade)
	if _, err := g.LoadStringSafe("ab+c"); err == nil {
		t.Fatal("expected error for expression leaving extra operands")
	}
	if _, err := g.LoadStringSafe("a+"); err == nil {
		t.Fatal("expected error for operator with too few operands")
	}
}
