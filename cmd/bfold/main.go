// Copyright (c) 2025 The basetree Authors
// SPDX-License-Identifier: MIT

// Command bfold imports a whole tree, then repeatedly tries every entry
// as a candidate Shannon-expansion fold (ImportFold) of the current
// best graph, keeping whichever fold produced the smallest
// CountActive() result, until no fold shrinks it further. The tree is
// not rebuilt node by node: each round folds the whole graph. The
// per-candidate folds of a round are independent of one another, so
// they are evaluated concurrently via errgroup while each candidate's
// own Graph stays single-threaded.
package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/baseform/basetree"
	"github.com/baseform/basetree/cmd/internal/clibase"
)

func main() {
	flags := &clibase.Flags{}

	root := &cobra.Command{
		Use:   "bfold <out> <in>",
		Short: "Rebuild a tree, greedily folding on the entry that minimises active node count",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, in := args[0], args[1]
			if err := fold(flags, out, in); err != nil {
				clibase.Fail("bfold", in, err)
			}
			return nil
		},
	}
	flags.Register(root)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// candidate is one entry's ImportFold result, evaluated concurrently
// against every other candidate entry's result.
type candidate struct {
	entry  int
	graph  *basetree.Graph
	active int
}

func fold(flags *clibase.Flags, out, in string) error {
	ctx := basetree.NewContext()
	src, err := basetree.LoadFile(ctx, in, flags.GraphFlags())
	if err != nil {
		return err
	}

	log := flags.Logger()
	numEntries := int(src.NStart() - src.EStart())

	best := cloneDims(src, ctx, flags)
	if err := best.ImportActive(src); err != nil {
		return err
	}
	bestActive := best.CountActive()

	for numEntries > 0 {
		candidates := make([]candidate, numEntries)
		g, _ := errgroup.WithContext(context.Background())
		for e := 0; e < numEntries; e++ {
			e := e
			g.Go(func() error {
				dst := cloneDims(best, ctx, flags)
				if err := dst.ImportFold(best, e); err != nil {
					return err
				}
				candidates[e] = candidate{entry: e, graph: dst, active: dst.CountActive()}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		winner := -1
		for i, c := range candidates {
			if winner < 0 || c.active < candidates[winner].active {
				winner = i
			}
		}
		if candidates[winner].active >= bestActive {
			break
		}
		best = candidates[winner].graph
		bestActive = candidates[winner].active
		log.Info().Int("entry", candidates[winner].entry).Int("active", bestActive).Msg("fold improved")
	}

	if flags.Audit {
		if err := best.Audit(); err != nil {
			return err
		}
	}
	return best.SaveFile(out, false)
}

func cloneDims(src *basetree.Graph, ctx *basetree.Context, flags *clibase.Flags) *basetree.Graph {
	dst, err := basetree.New(ctx, src.KStart(), src.OStart(), src.EStart(), src.NStart(), basetree.NodeId(src.NumRoots()), basetree.NodeId(flags.MaxNodes), flags.GraphFlags())
	if err != nil {
		panic(err) // dimensions are copied verbatim from an already-valid Graph
	}
	for i := 0; i < int(src.NStart()-src.EStart()); i++ {
		dst.SetEntryName(i, src.EntryName(i))
	}
	for i := 0; i < src.NumRoots(); i++ {
		dst.SetRootName(i, src.RootName(i))
	}
	return dst
}
