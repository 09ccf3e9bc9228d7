// Copyright (c) 2025 The basetree Authors
// SPDX-License-Identifier: MIT

package basetree

import (
	"io"
	"sync/atomic"
)

// Context carries the ambient state the original C++ implementation
// kept in a process-wide global: debug/verbose levels, an explain
// sink, and a tick flag a signal handler may set between top-level
// operations. A Context is passed explicitly into New; there are no
// package-level globals.
type Context struct {
	// Verbose enables progress-style logging in CLI drivers. The core
	// itself never logs; it only consults Explain.
	Verbose bool

	// Debug marks a debugging run. The core does not consult it: the
	// rewrite counters are always kept.
	Debug bool

	// Explain, when non-nil, receives one JSON object per
	// AddNormaliseNode state-machine step: the rule that fired and one
	// (q, t, f) triple, the triple the step produced (for "entry", the
	// triple being normalised; collapse steps report the result in f).
	Explain io.Writer

	// tick is set by an outer progress loop (e.g. on SIGUSR1) and
	// observed between top-level operations; the core never blocks on
	// it, it is purely advisory.
	tick atomic.Bool

	// allocations counts every arena Node appended across the
	// Context's lifetime, for diagnostics.
	allocations atomic.Int64
}

// NewContext returns a ready-to-use Context with default (quiet)
// settings.
func NewContext() *Context {
	return &Context{}
}

// Tick sets the advisory progress flag. Safe to call from a signal
// handler.
func (c *Context) Tick() { c.tick.Store(true) }

// ConsumeTick reports and clears the advisory progress flag.
func (c *Context) ConsumeTick() bool { return c.tick.Swap(false) }

// Allocations returns the number of nodes ever appended under this
// Context, across every Graph that shares it.
func (c *Context) Allocations() int64 { return c.allocations.Load() }
