// Copyright (c) 2025 The basetree Authors
// SPDX-License-Identifier: MIT

// Command ksave dumps a tree's metadata (or, with -c, a C source
// rendering of its node table) to the file <out>, roots first.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/baseform/basetree"
	"github.com/baseform/basetree/cmd/internal/clibase"
)

func main() {
	flags := &clibase.Flags{}
	var asC bool

	root := &cobra.Command{
		Use:   "ksave <out> <in>",
		Short: "Dump a tree as JSON metadata, or as C source with -c",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, in := args[0], args[1]
			var err error
			if asC {
				err = saveC(flags, out, in)
			} else {
				err = saveJSON(flags, out, in)
			}
			if err != nil {
				clibase.Fail("ksave", in, err)
			}
			return nil
		},
	}
	flags.Register(root)
	root.Flags().BoolVarP(&asC, "c", "c", false, "emit C source instead of JSON")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func saveJSON(flags *clibase.Flags, out, in string) error {
	ctx := basetree.NewContext()
	g, err := basetree.LoadFile(ctx, in, flags.GraphFlags())
	if err != nil {
		return err
	}
	meta := g.BuildMetadata()

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

// saveC renders g's node table as a C array literal, roots printed
// first as a comment block naming each root's index, for embedding a
// fixed tree into a C program without any basetree tooling present at
// runtime.
func saveC(flags *clibase.Flags, out, in string) error {
	ctx := basetree.NewContext()
	g, err := basetree.LoadFile(ctx, in, flags.GraphFlags())
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	defer w.Flush()

	fmt.Fprintf(w, "/* generated by ksave, do not edit */\n")
	fmt.Fprintf(w, "/* roots:\n")
	for i := 0; i < g.NumRoots(); i++ {
		ref, _ := g.GetRoot(i)
		fmt.Fprintf(w, " *   %d: %s = 0x%08x\n", i, nameOrDefault(g.RootName(i), i), uint32(ref))
	}
	fmt.Fprintf(w, " */\n\n")

	fmt.Fprintf(w, "static const unsigned kstart = %d;\n", g.KStart())
	fmt.Fprintf(w, "static const unsigned estart = %d;\n", g.EStart())
	fmt.Fprintf(w, "static const unsigned nstart = %d;\n", g.NStart())
	fmt.Fprintf(w, "static const unsigned ncount = %d;\n\n", g.NCount())

	fmt.Fprintf(w, "struct basetree_node { unsigned q, t, f; };\n\n")
	fmt.Fprintf(w, "static const struct basetree_node nodes[%d] = {\n", g.NCount())
	for id := basetree.NodeId(0); id < g.NCount(); id++ {
		n := g.Node(id)
		fmt.Fprintf(w, "  { %d, %d, %d },\n", uint32(n.Q), uint32(n.T), uint32(n.F))
	}
	fmt.Fprintf(w, "};\n")
	return nil
}

func nameOrDefault(name string, i int) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("$r%d", i)
}
