// Copyright (c) 2025 The basetree Authors
// SPDX-License-Identifier: MIT

// Command bextract copies a single named root out of a tree and writes
// a tree whose sole root is that root's reference, pruned down to only
// the nodes it actually needs. The source's balanced-system root, if
// any, is neither consulted nor carried over.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/baseform/basetree"
	"github.com/baseform/basetree/cmd/internal/clibase"
)

func main() {
	flags := &clibase.Flags{}

	root := &cobra.Command{
		Use:   "bextract <out> <in> <name>",
		Short: "Extract a single named root into its own tree",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, in, name := args[0], args[1], args[2]
			if err := extract(flags, out, in, name); err != nil {
				clibase.Fail("bextract", in, err)
			}
			return nil
		},
	}
	flags.Register(root)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func extract(flags *clibase.Flags, out, in, name string) error {
	ctx := basetree.NewContext()
	src, err := basetree.LoadFile(ctx, in, flags.GraphFlags())
	if err != nil {
		return err
	}

	idx := -1
	for i := 0; i < src.NumRoots(); i++ {
		if src.RootName(i) == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: root %q not present in %s", basetree.ErrNotFound, name, in)
	}
	ref, err := src.GetRoot(idx)
	if err != nil {
		return err
	}

	dst, err := basetree.New(ctx, src.KStart(), src.OStart(), src.EStart(), src.NStart(), 1, basetree.NodeId(flags.MaxNodes), flags.GraphFlags())
	if err != nil {
		return err
	}
	for i := 0; i < int(src.NStart()-src.EStart()); i++ {
		dst.SetEntryName(i, src.EntryName(i))
	}

	mapped, err := dst.ImportNodes(src, ref)
	if err != nil {
		return err
	}
	if err := dst.SetRoot(0, mapped); err != nil {
		return err
	}
	dst.SetRootName(0, name)

	if flags.Audit {
		if err := dst.Audit(); err != nil {
			return err
		}
	}

	return dst.SaveFile(out, false)
}
