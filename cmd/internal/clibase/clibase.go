// Copyright (c) 2025 The basetree Authors
// SPDX-License-Identifier: MIT

// Package clibase is the thin shared layer every basetree CLI driver
// (beval, bexplain, bextract, bjoin, bfold, ksave) is built on: the
// global flag set (-verbose, -debug, -maxnode, -paranoid, -pure,
// -cascade, -rewrite, -audit, -rewritedb), a zerolog-backed logger, and
// a one-line JSON-to-stderr error diagnostic shared by every driver.
package clibase

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/baseform/basetree"
	"github.com/baseform/basetree/internal/rewritedb"
)

// Flags holds the global options every driver command shares. Register
// with Register and resolve with (*Flags).GraphFlags /
// (*Flags).Logger once cobra has parsed argv.
type Flags struct {
	Verbose  bool
	Debug    bool
	MaxNodes uint32
	NStart   uint32

	Paranoid bool
	Pure     bool
	Cascade  bool
	Rewrite  bool
	Audit    bool

	RewriteDB string
}

// DefaultMaxNodes is a modest default arena capacity; a driver working
// on anything but a toy graph is expected to override it with -maxnode.
const DefaultMaxNodes = 1 << 20

// Register attaches the shared flags to cmd's persistent flag set so
// every subcommand inherits them uniformly.
func (f *Flags) Register(cmd *cobra.Command) {
	cmd.PersistentFlags().BoolVarP(&f.Verbose, "verbose", "v", false, "enable progress-style logging")
	cmd.PersistentFlags().BoolVar(&f.Debug, "debug", false, "enable additional diagnostic bookkeeping")
	cmd.PersistentFlags().Uint32Var(&f.MaxNodes, "maxnode", DefaultMaxNodes, "arena capacity")
	cmd.PersistentFlags().BoolVar(&f.Paranoid, "paranoid", false, "enable exhaustive invariant assertions")
	cmd.PersistentFlags().BoolVar(&f.Pure, "pure", false, "restrict stored nodes to the QnTF variant")
	cmd.PersistentFlags().BoolVar(&f.Cascade, "cascade", true, "enable full cascade reordering")
	cmd.PersistentFlags().BoolVar(&f.Rewrite, "rewrite", false, "enable the pattern-database rewriter")
	cmd.PersistentFlags().BoolVar(&f.Audit, "audit", false, "run Graph.Audit() after construction")
	cmd.PersistentFlags().StringVar(&f.RewriteDB, "rewritedb", "", "path to a rewritedb database, opened by OpenRewriteTable")
}

// GraphFlags translates the parsed command-line flags into a
// basetree.Flags bit-mask for New/LoadFile.
func (f *Flags) GraphFlags() basetree.Flags {
	var bits basetree.Flags
	if f.Paranoid {
		bits |= basetree.FlagParanoid
	}
	if f.Pure {
		bits |= basetree.FlagPure
	}
	if f.Rewrite {
		bits |= basetree.FlagRewrite
	}
	if f.Cascade {
		bits |= basetree.FlagCascade
	}
	return bits
}

// Logger returns a zerolog.Logger configured per -verbose/-debug,
// writing to stderr so stdout stays reserved for a driver's actual
// output (text, JSON, binary).
func (f *Flags) Logger() zerolog.Logger {
	level := zerolog.WarnLevel
	switch {
	case f.Debug:
		level = zerolog.DebugLevel
	case f.Verbose:
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true}).
		Level(level).
		With().Timestamp().Logger()
}

// OpenRewriteTable opens the rewritedb at f.RewriteDB, if -rewrite was
// requested and a path given. Otherwise it returns a nil table, a no-op
// close function and no error, so the rewriter degrades to a no-op,
// matching how an absent database is handled.
func (f *Flags) OpenRewriteTable(log zerolog.Logger) (*basetree.DBRewriteTable, func() error, error) {
	if !f.Rewrite || f.RewriteDB == "" {
		return nil, func() error { return nil }, nil
	}
	db, err := rewritedb.Open(f.RewriteDB)
	if err != nil {
		return nil, nil, err
	}
	return basetree.NewDBRewriteTable(db, log), db.Close, nil
}

// Diagnostic is the compact machine-readable error object every driver
// emits to stderr on a fatal error.
type Diagnostic struct {
	Error    string `json:"error"`
	Filename string `json:"filename,omitempty"`
	Op       string `json:"op,omitempty"`
}

// Fail prints a JSON diagnostic for err to stderr and exits the process
// with a non-zero status, clearing any in-flight progress ticker output
// first via a bare ANSI erase-line so the diagnostic isn't interleaved
// with a corrupted progress line.
func Fail(op, filename string, err error) {
	fmt.Fprint(os.Stderr, "\x1b[2K\r")
	enc := json.NewEncoder(os.Stderr)
	_ = enc.Encode(Diagnostic{Error: err.Error(), Filename: filename, Op: op})
	os.Exit(1)
}
