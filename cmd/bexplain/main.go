// Copyright (c) 2025 The basetree Authors
// SPDX-License-Identifier: MIT

// Command bexplain loads one or more textual-notation patterns and
// re-normalises each of their operator nodes with Context.Explain wired
// to stdout, printing one JSON object per AddNormaliseNode state-machine
// step fired along the way.
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
		Use:   "bexplain <pattern>...",
		Short: "Trace AddNormaliseNode's state-machine steps for one or more patterns, as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, pattern := range args {
				if err := explainOne(flags, pattern); err != nil {
					clibase.Fail("bexplain", pattern, err)
				}
			}
			return nil
		},
	}
	flags.Register(root)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func explainOne(flags *clibase.Flags, pattern string) error {
	numEntries := maxEntry(pattern) + 1

	estart := basetree.NodeId(1)
	nstart := estart + basetree.NodeId(numEntries)

	ctx := basetree.NewContext()
	ctx.Explain = os.Stdout

	g, err := basetree.New(ctx, 1, 1, estart, nstart, 1, basetree.NodeId(flags.MaxNodes), flags.GraphFlags())
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "# bexplain %s\n", pattern)
	root, err := g.LoadStringSafe(pattern)
	if err != nil {
		return err
	}
	return g.SetRoot(0, root)
}

// maxEntry returns the highest placeholder index a pattern references,
// decoding each carry-digit run with its lowercase unit digit and
// counting the '/' transform's placeholders too, so New is given enough
// entries for every reference to parse.
func maxEntry(text string) int {
	n, v := 0, 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c >= 'A' && c <= 'Z':
			v = v*26 + int(c-'A') + 1
		case c >= 'a' && c <= 'z':
			if p := v*26 + int(c-'a'); p > n {
				n = p
			}
			v = 0
		default:
			v = 0
		}
	}
	return n
}
