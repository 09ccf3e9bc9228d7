// Copyright (c) 2025 The basetree Authors
// SPDX-License-Identifier: MIT

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/baseform/basetree"
	"github.com/baseform/basetree/cmd/internal/clibase"
)

func main() {
	flags := &clibase.Flags{}

	root := &cobra.Command{
		Use:   "builders",
		Short: "Exercise the example graph constructors (adder, truth-table, toy Feistel round)",
	}
	flags.Register(root)

	root.AddCommand(adderCmd(flags), feistelCmd(flags), tableCmd(flags))

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func adderCmd(flags *clibase.Flags) *cobra.Command {
	var bits int
	cmd := &cobra.Command{
		Use:   "adder <out>",
		Short: "Build a ripple-carry adder of the given bit width",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runAdder(flags, args[0], bits); err != nil {
				clibase.Fail("builders adder", args[0], err)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&bits, "bits", 4, "adder width in bits")
	return cmd
}

func runAdder(flags *clibase.Flags, out string, bits int) error {
	estart := basetree.NodeId(1)
	nstart := estart + basetree.NodeId(2*bits)
	ctx := basetree.NewContext()
	g, err := basetree.New(ctx, 1, 1, estart, nstart, basetree.NodeId(bits+1), basetree.NodeId(flags.MaxNodes), flags.GraphFlags())
	if err != nil {
		return err
	}

	a := make([]basetree.NodeId, bits)
	b := make([]basetree.NodeId, bits)
	for i := 0; i < bits; i++ {
		a[i] = estart + basetree.NodeId(i)
		b[i] = estart + basetree.NodeId(bits+i)
		g.SetEntryName(i, letterName("a", i))
		g.SetEntryName(bits+i, letterName("b", i))
	}

	sum, cout, err := RippleCarryAdder(g, a, b, 0)
	if err != nil {
		return err
	}
	for i, s := range sum {
		if err := g.SetRoot(i, s); err != nil {
			return err
		}
		g.SetRootName(i, letterName("sum", i))
	}
	if err := g.SetRoot(bits, cout); err != nil {
		return err
	}
	g.SetRootName(bits, "cout")

	if flags.Audit {
		if err := g.Audit(); err != nil {
			return err
		}
	}
	return g.SaveFile(out, false)
}

func feistelCmd(flags *clibase.Flags) *cobra.Command {
	var bits, rounds int
	cmd := &cobra.Command{
		Use:   "feistel <out>",
		Short: "Build a toy multi-round Feistel cipher over the given half-block width",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runFeistel(flags, args[0], bits, rounds); err != nil {
				clibase.Fail("builders feistel", args[0], err)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&bits, "bits", 4, "half-block width in bits")
	cmd.Flags().IntVar(&rounds, "rounds", 4, "number of Feistel rounds")
	return cmd
}

func runFeistel(flags *clibase.Flags, out string, bits, rounds int) error {
	numEntries := 2*bits + rounds*bits // left, right, one key per round
	estart := basetree.NodeId(1)
	nstart := estart + basetree.NodeId(numEntries)

	ctx := basetree.NewContext()
	g, err := basetree.New(ctx, 1, 1, estart, nstart, basetree.NodeId(2*bits), basetree.NodeId(flags.MaxNodes), flags.GraphFlags())
	if err != nil {
		return err
	}

	next := 0
	alloc := func(prefix string, n int) []basetree.NodeId {
		out := make([]basetree.NodeId, n)
		for i := 0; i < n; i++ {
			out[i] = estart + basetree.NodeId(next)
			g.SetEntryName(next, letterName(prefix, i))
			next++
		}
		return out
	}

	left := alloc("l", bits)
	right := alloc("r", bits)

	for round := 0; round < rounds; round++ {
		key := alloc("k", bits)
		nl, nr, err := ToyFeistelRound(g, left, right, key)
		if err != nil {
			return err
		}
		left, right = nl, nr
	}

	for i, ref := range left {
		if err := g.SetRoot(i, ref); err != nil {
			return err
		}
		g.SetRootName(i, letterName("outl", i))
	}
	for i, ref := range right {
		if err := g.SetRoot(bits+i, ref); err != nil {
			return err
		}
		g.SetRootName(bits+i, letterName("outr", i))
	}

	if flags.Audit {
		if err := g.Audit(); err != nil {
			return err
		}
	}
	return g.SaveFile(out, false)
}

func tableCmd(flags *clibase.Flags) *cobra.Command {
	var bits int
	cmd := &cobra.Command{
		Use:   "table <out>",
		Short: "Build a decision-diagram for the N-bit parity function from its truth table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runTable(flags, args[0], bits); err != nil {
				clibase.Fail("builders table", args[0], err)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&bits, "bits", 4, "number of input variables")
	return cmd
}

// runTable demonstrates FromTruthTable on the parity function (XOR of
// every input bit) — a deliberately simple function whose table form
// still exercises every row of the 2^bits table the constructor walks.
func runTable(flags *clibase.Flags, out string, bits int) error {
	estart := basetree.NodeId(1)
	nstart := estart + basetree.NodeId(bits)
	ctx := basetree.NewContext()
	g, err := basetree.New(ctx, 1, 1, estart, nstart, 1, basetree.NodeId(flags.MaxNodes), flags.GraphFlags())
	if err != nil {
		return err
	}

	vars := make([]basetree.NodeId, bits)
	for i := 0; i < bits; i++ {
		vars[i] = estart + basetree.NodeId(i)
		g.SetEntryName(i, letterName("v", i))
	}

	rows := 1 << uint(bits)
	table := make([]bool, rows)
	for i := 0; i < rows; i++ {
		table[i] = popcount(i)%2 == 1
	}

	root, err := FromTruthTable(g, vars, table)
	if err != nil {
		return err
	}
	if err := g.SetRoot(0, root); err != nil {
		return err
	}
	g.SetRootName(0, "parity")

	if flags.Audit {
		if err := g.Audit(); err != nil {
			return err
		}
	}
	return g.SaveFile(out, false)
}

func popcount(n int) int {
	c := 0
	for n != 0 {
		c += n & 1
		n >>= 1
	}
	return c
}

func letterName(prefix string, i int) string {
	const digits = "0123456789"
	if i < 10 {
		return prefix + string(digits[i])
	}
	return prefix + string(digits[i/10]) + string(digits[i%10])
}
