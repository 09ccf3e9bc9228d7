// Copyright (c) 2025 The basetree Authors
// SPDX-License-Identifier: MIT

package basetree

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// buildTenRootGraph constructs a 9-entry graph with 10 distinct roots,
// each some combination of the entries, exercising a file round trip
// at a non-trivial size.
func buildTenRootGraph(t *testing.T, flags Flags) *Graph {
	t.Helper()
	const numEntries = 9
	estart := NodeId(1)
	nstart := estart + numEntries
	g, err := New(nil, 1, 1, estart, nstart, 10, 4096, flags)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := 0; i < numEntries; i++ {
		g.SetEntryName(i, string(rune('a'+i)))
	}

	entry := func(i int) NodeId { return estart + NodeId(i) }
	for r := 0; r < 10; r++ {
		q := entry(r % numEntries)
		tt := entry((r + 1) % numEntries)
		f := entry((r + 2) % numEntries)
		ref, err := g.AddNormaliseNode(q, tt, f)
		if err != nil {
			t.Fatalf("AddNormaliseNode root %d: %v", r, err)
		}
		if err := g.SetRoot(r, ref); err != nil {
			t.Fatalf("SetRoot %d: %v", r, err)
		}
		g.SetRootName(r, "root"+string(rune('0'+r)))
	}
	return g
}

func TestFileRoundTrip(t *testing.T) {
	g := buildTenRootGraph(t, FlagCascade)
	path := filepath.Join(t.TempDir(), "graph.bt")

	if err := g.SaveFile(path, false); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}

	loaded, err := LoadFile(nil, path, 0)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if loaded.NCount() != g.NCount() {
		t.Fatalf("NCount = %d, want %d", loaded.NCount(), g.NCount())
	}
	if loaded.NumRoots() != g.NumRoots() {
		t.Fatalf("NumRoots = %d, want %d", loaded.NumRoots(), g.NumRoots())
	}
	for i := 0; i < g.NumRoots(); i++ {
		wantRef, _ := g.GetRoot(i)
		gotRef, err := loaded.GetRoot(i)
		if err != nil {
			t.Fatalf("GetRoot(%d): %v", i, err)
		}
		if gotRef != wantRef {
			t.Fatalf("root %d = %d, want %d", i, gotRef, wantRef)
		}
	}
	wantNodes := make([]Node, g.NCount())
	gotNodes := make([]Node, loaded.NCount())
	for id := NodeId(0); id < g.NCount(); id++ {
		wantNodes[id] = g.Node(id)
		gotNodes[id] = loaded.Node(id)
	}
	if diff := cmp.Diff(wantNodes, gotNodes); diff != "" {
		t.Fatalf("node table mismatch after round trip (-want +got):\n%s", diff)
	}
}

func TestFileRoundTripCompressed(t *testing.T) {
	g := buildTenRootGraph(t, FlagCascade)
	path := filepath.Join(t.TempDir(), "graph.bt.zst")

	if err := g.SaveFile(path, true); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	loaded, err := LoadFile(nil, path, 0)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if loaded.NCount() != g.NCount() {
		t.Fatalf("NCount = %d, want %d", loaded.NCount(), g.NCount())
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	g := buildTenRootGraph(t, FlagCascade)
	path := filepath.Join(t.TempDir(), "graph.json")

	if err := g.SaveMetadata(path, false); err != nil {
		t.Fatalf("SaveMetadata: %v", err)
	}
	meta, err := LoadMetadata(path, false)
	if err != nil {
		t.Fatalf("LoadMetadata: %v", err)
	}
	if len(meta.Entries) != 9 {
		t.Fatalf("len(Entries) = %d, want 9", len(meta.Entries))
	}
	if len(meta.Text) != 10 {
		t.Fatalf("len(Text) = %d, want 10", len(meta.Text))
	}
}
