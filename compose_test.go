// Copyright (c) 2025 The basetree Authors
// SPDX-License-Identifier: MIT

package basetree

import "testing"

func TestImportActive(t *testing.T) {
	src, a, b, c := newTestGraph(t, FlagCascade)
	root, err := src.AddNormaliseNode(a, b, c)
	if err != nil {
		t.Fatalf("AddNormaliseNode: %v", err)
	}
	if err := src.SetRoot(0, root); err != nil {
		t.Fatalf("SetRoot: %v", err)
	}

	dst, err := New(nil, 1, 1, 1, 4, 4, 64, FlagCascade)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := dst.ImportActive(src); err != nil {
		t.Fatalf("ImportActive: %v", err)
	}

	got, err := dst.GetRoot(0)
	if err != nil {
		t.Fatalf("GetRoot: %v", err)
	}
	for bits := uint64(0); bits < 8; bits++ {
		if src.Eval(root, bits) != dst.Eval(got, bits) {
			t.Fatalf("bits=%03b: src=%v dst=%v diverge", bits, src.Eval(root, bits), dst.Eval(got, bits))
		}
	}
}

func TestImportNodes(t *testing.T) {
	src, a, b, _ := newTestGraph(t, FlagCascade)
	sub, err := src.AddNormaliseNode(a, IBIT, b)
	if err != nil {
		t.Fatalf("AddNormaliseNode: %v", err)
	}

	dst, err := New(nil, 1, 1, 1, 4, 1, 64, FlagCascade)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := dst.ImportNodes(src, sub)
	if err != nil {
		t.Fatalf("ImportNodes: %v", err)
	}
	for bits := uint64(0); bits < 4; bits++ {
		if src.Eval(sub, bits) != dst.Eval(got, bits) {
			t.Fatalf("bits=%02b: src=%v dst=%v diverge", bits, src.Eval(sub, bits), dst.Eval(got, bits))
		}
	}
}

func TestImportFoldReducesToEntry(t *testing.T) {
	// root = a ? b : b is foldable to just b regardless of a; folding
	// on entry index 0 (a) must therefore bind the root to the bare
	// entry b, i.e. ImportFold must not introduce any node referencing
	// the folded entry.
	src, a, b, _ := newTestGraph(t, FlagCascade)
	root, err := src.AddNormaliseNode(a, b, b)
	if err != nil {
		t.Fatalf("AddNormaliseNode: %v", err)
	}
	if root != b {
		t.Fatalf("a?b:b should normalise to b directly, got %d want %d", root, b)
	}
	if err := src.SetRoot(0, root); err != nil {
		t.Fatalf("SetRoot: %v", err)
	}

	dst, err := New(nil, 1, 1, 1, 4, 4, 64, FlagCascade)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := dst.ImportFold(src, 0); err != nil {
		t.Fatalf("ImportFold: %v", err)
	}
	got, err := dst.GetRoot(0)
	if err != nil {
		t.Fatalf("GetRoot: %v", err)
	}
	if got != b {
		t.Fatalf("ImportFold(a) of a?b:b = %d, want %d (bare b)", got, b)
	}
}

func TestCountActive(t *testing.T) {
	g, a, b, c := newTestGraph(t, FlagCascade)
	root, err := g.AddNormaliseNode(a, b, c)
	if err != nil {
		t.Fatalf("AddNormaliseNode: %v", err)
	}
	if err := g.SetRoot(0, root); err != nil {
		t.Fatalf("SetRoot: %v", err)
	}
	if n := g.CountActive(); n == 0 {
		t.Fatal("CountActive = 0, want at least 1 for a non-trivial root")
	}
}

func TestBuildSystemFoldsAllRoots(t *testing.T) {
	g, a, b, c := newTestGraph(t, FlagCascade)
	if err := g.SetRoot(0, a); err != nil {
		t.Fatalf("SetRoot 0: %v", err)
	}
	if err := g.SetRoot(1, b); err != nil {
		t.Fatalf("SetRoot 1: %v", err)
	}
	_ = c
	g.SetRootName(0, "r0")
	g.SetRootName(1, "r1")

	sys, err := g.BuildSystem([]string{"r0", "r1"})
	if err != nil {
		t.Fatalf("BuildSystem: %v", err)
	}
	got, ok := g.System()
	if !ok {
		t.Fatal("System() ok = false after BuildSystem")
	}
	if got != sys {
		t.Fatalf("System() = %d, want %d", got, sys)
	}
	if !g.Flags().Has(FlagSystem) {
		t.Fatal("FlagSystem not set after BuildSystem")
	}
}

// TestBuildSystemBalancedInvariant checks the actual point of
// BuildSystem: the folded system must evaluate to zero for every
// binding when each named root is wired straight back to its own
// entry (a balanced system), and to one for some binding as soon as a
// single root is swapped for a value that can diverge from its entry.
func TestBuildSystemBalancedInvariant(t *testing.T) {
	g, a, b, _ := newTestGraph(t, FlagCascade)
	if err := g.SetRoot(0, a); err != nil {
		t.Fatalf("SetRoot 0: %v", err)
	}
	if err := g.SetRoot(1, b); err != nil {
		t.Fatalf("SetRoot 1: %v", err)
	}
	g.SetRootName(0, "r0")
	g.SetRootName(1, "r1")

	balanced, err := g.BuildSystem([]string{"r0", "r1"})
	if err != nil {
		t.Fatalf("BuildSystem: %v", err)
	}
	for bits := uint64(0); bits < 4; bits++ {
		if got := g.Eval(balanced, bits); got {
			t.Fatalf("bits=%02b: balanced system = %v, want false", bits, got)
		}
	}

	g2, a2, b2, c2 := newTestGraph(t, FlagCascade)
	if err := g2.SetRoot(0, a2); err != nil {
		t.Fatalf("SetRoot 0: %v", err)
	}
	// root 1 is wired to c, an entry distinct from key 1 (b), so the
	// system must go non-zero whenever b and c disagree.
	if err := g2.SetRoot(1, c2); err != nil {
		t.Fatalf("SetRoot 1: %v", err)
	}
	g2.SetRootName(0, "r0")
	g2.SetRootName(1, "r1")

	unbalanced, err := g2.BuildSystem([]string{"r0", "r1"})
	if err != nil {
		t.Fatalf("BuildSystem: %v", err)
	}
	_ = b2
	sawMismatch := false
	for bits := uint64(0); bits < 8; bits++ {
		if g2.Eval(unbalanced, bits) {
			sawMismatch = true
			break
		}
	}
	if !sawMismatch {
		t.Fatal("unbalanced system never went true, want at least one mismatching binding")
	}
}

func TestBuildSystemUnknownRootName(t *testing.T) {
	g, a, _, _ := newTestGraph(t, FlagCascade)
	g.SetRootName(0, "r0")
	if err := g.SetRoot(0, a); err != nil {
		t.Fatalf("SetRoot: %v", err)
	}
	if _, err := g.BuildSystem([]string{"missing"}); err == nil {
		t.Fatal("expected error for unknown root name")
	}
}

func TestRewind(t *testing.T) {
	g, a, b, _ := newTestGraph(t, FlagCascade)
	before := g.NCount()
	if _, err := g.AddNormaliseNode(a, b, 0); err != nil {
		t.Fatalf("AddNormaliseNode: %v", err)
	}
	if g.NCount() == before {
		t.Fatal("NCount unchanged after adding an internal node")
	}
	g.Rewind()
	if g.NCount() != before {
		t.Fatalf("NCount after Rewind = %d, want %d", g.NCount(), before)
	}
	if len(g.History()) != 0 {
		t.Fatal("History not cleared after Rewind")
	}
}
