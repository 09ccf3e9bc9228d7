// Copyright (c) 2025 The basetree Authors
// SPDX-License-Identifier: MIT

// Command beval loads one or more textual-notation patterns, evaluates
// the truth table of each resulting root, and prints the CRC-32 of each
// table — a cheap way to tell whether two expressions encode the same
// boolean function without comparing DAG shape.
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
		Use:   "beval <pattern>...",
		Short: "Evaluate the truth table CRC of one or more textual-notation patterns",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := flags.Logger()
			for _, pattern := range args {
				log.Info().Str("pattern", pattern).Msg("evaluating")
				if err := evalOne(flags, pattern); err != nil {
					clibase.Fail("beval", pattern, err)
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

func evalOne(flags *clibase.Flags, pattern string) error {
	numEntries := countPlaceholders(pattern)

	estart := basetree.NodeId(1)
	nstart := estart + basetree.NodeId(numEntries)

	ctx := basetree.NewContext()
	g, err := basetree.New(ctx, 1, 1, estart, nstart, 1, basetree.NodeId(flags.MaxNodes), flags.GraphFlags())
	if err != nil {
		return err
	}

	root, err := g.LoadStringSafe(pattern)
	if err != nil {
		return err
	}
	if err := g.SetRoot(0, root); err != nil {
		return err
	}

	if flags.Audit {
		if err := g.Audit(); err != nil {
			return err
		}
	}

	crc, err := g.TruthTableCRC(root)
	if err != nil {
		return err
	}
	fmt.Printf("%s\tentries=%d\tnodes=%d\tcrc=%08x\n", pattern, numEntries, g.NCount(), crc)
	return nil
}

// countPlaceholders scans a textual-notation expression, including any
// trailing "/transform" suffix, and returns one past the highest
// placeholder index referenced, i.e. enough entries for every
// placeholder of the pattern to parse. It decodes the placeholder
// alphabet SaveString/LoadStringSafe use (a..z, Aa..Zz, ...) to size a
// fresh Graph before parsing the pattern for real.
func countPlaceholders(text string) int {
	max := 0
	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case c >= 'a' && c <= 'z':
			if n := int(c-'a') + 1; n > max {
				max = n
			}
			i++
		case c >= 'A' && c <= 'Z':
			j := i
			for j < len(text) && text[j] >= 'A' && text[j] <= 'Z' {
				j++
			}
			if j < len(text) && text[j] >= 'a' && text[j] <= 'z' {
				// uppercase carry digits followed by a lowercase unit
				// digit: a placeholder past 'z', decoded exactly.
				n := 0
				for k := i; k < j; k++ {
					n = n*26 + int(text[k]-'A') + 1
				}
				n = n*26 + int(text[j]-'a') + 1
				if n > max {
					max = n
				}
				i = j + 1
			} else {
				i = j // uppercase back-reference run, not a placeholder
			}
		default:
			i++
		}
	}
	return max
}
