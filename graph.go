// Copyright (c) 2025 The basetree Authors
// SPDX-License-Identifier: MIT

package basetree

import "sync"

// Flags is a bit-mask of feature flags selected at construction time
// and persisted in the file header.
type Flags uint32

const (
	// FlagParanoid enables exhaustive invariant assertions inside the
	// normaliser and comparator.
	FlagParanoid Flags = 1 << iota

	// FlagPure restricts stored nodes to the QnTF variant, rewriting
	// any QTF into QnTF form at normalisation time.
	FlagPure

	// FlagRewrite enables the pattern-database rewriter.
	FlagRewrite

	// FlagCascade enables full cascade reordering; without it the
	// normaliser only applies a one-shot operand swap.
	FlagCascade

	// FlagSystem marks a graph built by folding key-bindings into an
	// artificial "balanced-system" root.
	FlagSystem
)

// Has reports whether all bits of other are set in f.
func (f Flags) Has(other Flags) bool { return f&other == other }

// Graph is a directed acyclic graph of ternary choice nodes. It owns
// its node arena and index exclusively; scratch maps are borrowed from
// its mapPool and must be returned on every exit path.
//
// Graph must not be copied by value; always pass by pointer.
type Graph struct {
	// used by -copylocks checker from `go vet`.
	_ [0]sync.Mutex

	ctx *Context

	// dimensions, fixed at construction
	kstart   NodeId // first reserved-sentinel id
	ostart   NodeId // first id after the reserved sentinels
	estart   NodeId // first entry id
	nstart   NodeId // first id the normaliser may allocate
	maxNodes NodeId

	flags Flags

	store *nodeStore
	index *nodeIndex
	pool  *mapPool

	entryNames []string
	rootNames  []string
	roots      []NodeId

	hasSystem bool
	system    NodeId

	history []NodeId

	rewriter     RewriteTable
	rewriteStats RewriteStats

	recursionDepth int
}

// New constructs an empty Graph. Entries [estart, nstart) are
// self-initialised as conventional self-references (N[id] = (0, IBIT,
// id)); internal nodes start at nstart and grow as AddNormaliseNode is
// called.
func New(ctx *Context, kstart, ostart, estart, nstart NodeId, numRoots NodeId, maxNodes NodeId, flags Flags) (*Graph, error) {
	if ctx == nil {
		ctx = NewContext()
	}
	if !(kstart <= ostart && ostart <= estart && estart <= nstart) {
		return nil, wrapf(ErrBadRange, "dimensions out of order: kstart=%d ostart=%d estart=%d nstart=%d", kstart, ostart, estart, nstart)
	}
	if nstart >= maxNodes {
		return nil, wrapf(ErrBadSize, "nstart=%d >= maxNodes=%d", nstart, maxNodes)
	}

	g := &Graph{
		ctx:      ctx,
		kstart:   kstart,
		ostart:   ostart,
		estart:   estart,
		nstart:   nstart,
		maxNodes: maxNodes,
		flags:    flags,
		store:    newNodeStore(ctx, maxNodes),
		index:    newNodeIndex(maxNodes),
		pool:     newMapPool(maxNodes),
		roots:    make([]NodeId, numRoots),
	}

	// grow the arena up to nstart: ids [1, kstart) are reserved
	// sentinels (e.g. the error id), ids [kstart, estart) are "other"
	// reserved ids the driver may assign meaning to, and ids [estart,
	// nstart) are entries, each a conventional self-reference.
	for id := NodeId(1); id < nstart; id++ {
		t := NodeId(0)
		f := NodeId(0)
		if id >= estart {
			t = IBIT
			f = id
		}
		if _, err := g.store.alloc(0, t, f); err != nil {
			return nil, err
		}
	}

	return g, nil
}

// NCount returns the number of live nodes in the arena, including the
// constant-false sentinel.
func (g *Graph) NCount() NodeId { return g.store.count() }

// KStart, OStart, EStart, NStart, MaxNodes, NumRoots expose the
// Graph's fixed dimensions.
func (g *Graph) KStart() NodeId   { return g.kstart }
func (g *Graph) OStart() NodeId   { return g.ostart }
func (g *Graph) EStart() NodeId   { return g.estart }
func (g *Graph) NStart() NodeId   { return g.nstart }
func (g *Graph) MaxNodes() NodeId { return g.maxNodes }
func (g *Graph) NumRoots() int    { return len(g.roots) }
func (g *Graph) Flags() Flags     { return g.flags }

// Node returns the interned Node at id. id must be < NCount().
func (g *Graph) Node(id NodeId) Node { return g.store.get(id) }

// IsEntry reports whether id names an entry (input variable).
func (g *Graph) IsEntry(id NodeId) bool { return id >= g.estart && id < g.nstart }

// SetRoot binds root index i to reference ref.
func (g *Graph) SetRoot(i int, ref NodeId) error {
	if i < 0 || i >= len(g.roots) {
		return wrapf(ErrBadRange, "root index %d out of range [0,%d)", i, len(g.roots))
	}
	g.roots[i] = ref
	g.recordHistory(ref)
	return nil
}

// GetRoot returns the reference bound to root index i.
func (g *Graph) GetRoot(i int) (NodeId, error) {
	if i < 0 || i >= len(g.roots) {
		return 0, wrapf(ErrBadRange, "root index %d out of range [0,%d)", i, len(g.roots))
	}
	return g.roots[i], nil
}

// SetEntryName / SetRootName attach a display name to an entry or root
// index; names are carried through save/load for textual and JSON
// serialisation.
func (g *Graph) SetEntryName(i int, name string) {
	for len(g.entryNames) <= i {
		g.entryNames = append(g.entryNames, "")
	}
	g.entryNames[i] = name
}

func (g *Graph) SetRootName(i int, name string) {
	for len(g.rootNames) <= i {
		g.rootNames = append(g.rootNames, "")
	}
	g.rootNames[i] = name
}

func (g *Graph) EntryName(i int) string {
	if i < 0 || i >= len(g.entryNames) {
		return ""
	}
	return g.entryNames[i]
}

func (g *Graph) RootName(i int) string {
	if i < 0 || i >= len(g.rootNames) {
		return ""
	}
	return g.rootNames[i]
}

// System returns the artificial balanced-system root and whether one
// has been set.
func (g *Graph) System() (NodeId, bool) { return g.system, g.hasSystem }

// SetSystem installs the artificial balanced-system root and sets
// FlagSystem.
func (g *Graph) SetSystem(ref NodeId) {
	g.system = ref
	g.hasSystem = true
	g.flags |= FlagSystem
}

// SetRewriter installs the optional pattern-database rewriter consulted
// when FlagRewrite is set. A nil table makes the rewriter a no-op.
func (g *Graph) SetRewriter(table RewriteTable) { g.rewriter = table }

// RewriteStats returns the rewriter's cumulative per-outcome counters.
func (g *Graph) RewriteStats() RewriteStats { return g.rewriteStats }

// History returns the recorded sequence of references bound to roots
// through SetRoot over this graph's lifetime, oldest first (used by the
// JSON metadata sidecar). Roots bound by the Import* operations are not
// recorded.
func (g *Graph) History() []NodeId { return g.history }

// recordHistory appends id to the history log.
func (g *Graph) recordHistory(id NodeId) {
	g.history = append(g.history, id)
}
