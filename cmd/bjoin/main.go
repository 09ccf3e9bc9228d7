// Copyright (c) 2025 The basetree Authors
// SPDX-License-Identifier: MIT

// Command bjoin concatenates multiple graphs into one, matching entry
// and root names across inputs: an entry name seen in an earlier input
// is reused for a later input's same-named entry, while two inputs
// defining the same root name is a fatal mismatch. Each input Graph's
// own call graph stays strictly single-threaded; only the independent
// top-level "load this input file" steps run concurrently, via
// errgroup.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/baseform/basetree"
	"github.com/baseform/basetree/cmd/internal/clibase"
)

// EntryJoin records, per input entry name, whether it was newly
// introduced by this join or matched an entry already seen in an
// earlier input. RootJoin lists each joined root; a root name may come
// from one input only, so its New is always true.
type EntryJoin struct {
	Name  string `json:"name"`
	Index int    `json:"index"`
	New   bool   `json:"new"`
}

type RootJoin struct {
	Name string `json:"name"`
	File string `json:"file"`
	New  bool   `json:"new"`
}

// Summary is bjoin's diagnostic report, printed to stdout as JSON
// after a successful join.
type Summary struct {
	Entries []EntryJoin `json:"entries"`
	Roots   []RootJoin  `json:"roots"`
}

func main() {
	flags := &clibase.Flags{}

	root := &cobra.Command{
		Use:   "bjoin <out> <in>...",
		Short: "Concatenate multiple graphs, matching entry/root names across inputs",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, ins := args[0], args[1:]
			if err := join(flags, out, ins); err != nil {
				clibase.Fail("bjoin", out, err)
			}
			return nil
		},
	}
	flags.Register(root)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func join(flags *clibase.Flags, out string, ins []string) error {
	ctx := basetree.NewContext()

	sources := make([]*basetree.Graph, len(ins))
	g, _ := errgroup.WithContext(context.Background())
	for i, path := range ins {
		i, path := i, path
		g.Go(func() error {
			src, err := basetree.LoadFile(ctx, path, flags.GraphFlags())
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			sources[i] = src
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	entryIndex := make(map[string]int)
	var summary Summary

	for _, src := range sources {
		for i := 0; i < int(src.NStart()-src.EStart()); i++ {
			name := src.EntryName(i)
			if name == "" {
				name = fmt.Sprintf("$e%d", i)
			}
			if idx, ok := entryIndex[name]; !ok {
				idx = len(entryIndex)
				entryIndex[name] = idx
				summary.Entries = append(summary.Entries, EntryJoin{Name: name, Index: idx, New: true})
			} else {
				summary.Entries = append(summary.Entries, EntryJoin{Name: name, Index: idx, New: false})
			}
		}
	}

	numEntries := len(entryIndex)
	estart := basetree.NodeId(1)
	nstart := estart + basetree.NodeId(numEntries)

	var totalRoots int
	for _, src := range sources {
		totalRoots += src.NumRoots()
	}

	dst, err := basetree.New(ctx, 1, 1, estart, nstart, basetree.NodeId(totalRoots), basetree.NodeId(flags.MaxNodes), flags.GraphFlags())
	if err != nil {
		return err
	}
	for name, idx := range entryIndex {
		dst.SetEntryName(idx, name)
	}

	seenRoots := make(map[string]bool)
	rootSlot := 0
	for si, src := range sources {
		override := make(map[basetree.NodeId]basetree.NodeId, int(src.NStart()-src.EStart()))
		for i := 0; i < int(src.NStart()-src.EStart()); i++ {
			name := src.EntryName(i)
			if name == "" {
				name = fmt.Sprintf("$e%d", i)
			}
			override[src.EStart()+basetree.NodeId(i)] = dst.EStart() + basetree.NodeId(entryIndex[name])
		}

		for i := 0; i < src.NumRoots(); i++ {
			name := src.RootName(i)
			if name == "" {
				name = fmt.Sprintf("$r%d_%d", si, i)
			}
			if seenRoots[name] {
				return fmt.Errorf("%w: root %q defined by more than one input", basetree.ErrMismatch, name)
			}
			seenRoots[name] = true

			ref, err := src.GetRoot(i)
			if err != nil {
				return err
			}
			mapped, err := importWithEntryRemap(dst, src, ref, override)
			if err != nil {
				return err
			}
			if err := dst.SetRoot(rootSlot, mapped); err != nil {
				return err
			}
			dst.SetRootName(rootSlot, name)
			summary.Roots = append(summary.Roots, RootJoin{Name: name, File: ins[si], New: true})
			rootSlot++
		}
	}

	if flags.Audit {
		if err := dst.Audit(); err != nil {
			return err
		}
	}

	if err := dst.SaveFile(out, false); err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

// importWithEntryRemap copies ref (from src) into dst, substituting
// each of src's entries for the unified destination entry recorded in
// override. It walks the subtree recursively with a memo, interning
// each internal node through dst.AddNormaliseNode.
func importWithEntryRemap(dst, src *basetree.Graph, ref basetree.NodeId, override map[basetree.NodeId]basetree.NodeId) (basetree.NodeId, error) {
	memo := make(map[basetree.NodeId]basetree.NodeId)

	var walk func(id basetree.NodeId) (basetree.NodeId, error)
	walk = func(id basetree.NodeId) (basetree.NodeId, error) {
		idx := id.Index()
		if idx == 0 {
			return id, nil
		}
		if idx < src.NStart() {
			mapped, ok := override[idx]
			if !ok {
				return 0, fmt.Errorf("%w: entry %d has no unified mapping", basetree.ErrMismatch, idx)
			}
			return mapped.WithInvert(id.Inverted()), nil
		}
		if mapped, ok := memo[idx]; ok {
			return mapped.WithInvert(id.Inverted()), nil
		}
		n := src.Node(idx)
		q, err := walk(n.Q)
		if err != nil {
			return 0, err
		}
		t, err := walk(n.T)
		if err != nil {
			return 0, err
		}
		f, err := walk(n.F)
		if err != nil {
			return 0, err
		}
		built, err := dst.AddNormaliseNode(q, t, f)
		if err != nil {
			return 0, err
		}
		memo[idx] = built
		return built.WithInvert(id.Inverted()), nil
	}

	return walk(ref)
}
