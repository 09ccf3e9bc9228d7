// Copyright (c) 2025 The basetree Authors
// SPDX-License-Identifier: MIT

package basetree

import "github.com/bits-and-blooms/bitset"

// Rewind resets the arena back to NStart, discarding every internal
// node and invalidating the index. Entries and their names survive.
func (g *Graph) Rewind() {
	g.store.truncate(g.nstart)
	g.index.invalidate()
	g.history = nil
}

// importRef copies the subtree reachable from ref in source into g,
// interning each node via build, and returns the corresponding
// reference in g. override substitutes a fixed destination reference
// for a given source arena index wherever encountered (used by
// ImportFold to force an entry to a constant); it may be nil.
//
// The walk is iterative (explicit stack, two-pass per frame) so its
// depth never scales with graph size, the same discipline the
// comparator uses for the same reason.
func (g *Graph) importRef(source *Graph, root NodeId, override map[NodeId]NodeId, build func(q, t, f NodeId) (NodeId, error)) (NodeId, error) {
	memo := make(map[NodeId]NodeId)

	resolve := func(ref NodeId) (NodeId, error) {
		idx := ref.Index()
		if sub, ok := override[idx]; ok {
			return sub.WithInvert(ref.Inverted()), nil
		}
		if idx < source.nstart {
			if idx >= g.nstart {
				return 0, wrapf(ErrBadRange, "source entry/sentinel %d has no counterpart in destination graph", idx)
			}
			return idx.WithInvert(ref.Inverted()), nil
		}
		mapped, ok := memo[idx]
		if !ok {
			return 0, wrapf(ErrInvariantViolation, "import: node %d visited before its children were resolved", idx)
		}
		return mapped.WithInvert(ref.Inverted()), nil
	}

	type frame struct {
		id      NodeId
		revisit bool
	}
	stack := []frame{{root, false}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		idx := top.id.Index()

		switch {
		case idx < source.nstart:
			stack = stack[:len(stack)-1]

		case func() bool { _, ok := memo[idx]; return ok }():
			stack = stack[:len(stack)-1]

		case func() bool { _, ok := override[idx]; return ok }():
			stack = stack[:len(stack)-1]

		case !top.revisit:
			stack[len(stack)-1].revisit = true
			n := source.store.get(idx)
			stack = append(stack, frame{n.F, false}, frame{n.T, false}, frame{n.Q, false})

		default:
			stack = stack[:len(stack)-1]
			n := source.store.get(idx)
			q, err := resolve(n.Q)
			if err != nil {
				return 0, err
			}
			t, err := resolve(n.T)
			if err != nil {
				return 0, err
			}
			f, err := resolve(n.F)
			if err != nil {
				return 0, err
			}
			id, err := build(q, t, f)
			if err != nil {
				return 0, err
			}
			memo[idx] = id
		}
	}

	return resolve(root)
}

// ImportActive copies every node reachable from source's roots and
// system (if any) into g, re-interning each via addBasicNode on the
// assumption that source is already canonical, then binds g's roots
// (and system) to the imported references. g and source must share the
// same entry layout (same estart/nstart) and the same number of roots.
func (g *Graph) ImportActive(source *Graph) error {
	if len(g.roots) != len(source.roots) {
		return wrapf(ErrBadRange, "root count mismatch: destination has %d, source has %d", len(g.roots), len(source.roots))
	}
	for i, ref := range source.roots {
		mapped, err := g.importRef(source, ref, nil, g.addBasicNode)
		if err != nil {
			return err
		}
		g.roots[i] = mapped
	}
	if source.hasSystem {
		mapped, err := g.importRef(source, source.system, nil, g.addBasicNode)
		if err != nil {
			return err
		}
		g.SetSystem(mapped)
	}
	return nil
}

// ImportNodes copies the single subtree rooted at nodeId (in source)
// into g and returns its corresponding reference in g, without
// touching g's roots.
func (g *Graph) ImportNodes(source *Graph, nodeId NodeId) (NodeId, error) {
	return g.importRef(source, nodeId, nil, g.addBasicNode)
}

// ImportFold builds, for each of source's roots, `iFold ? set : clr`
// where set is source with entry iFold forced to constant true and clr
// the same with it forced to constant false, then binds g's
// corresponding root to the result. Every copied node goes through the
// full normaliser rather than addBasicNode, since forcing iFold can
// trigger level-1/level-2 collapses anywhere iFold occurred, the
// Shannon-expansion style simplification this construction is for.
func (g *Graph) ImportFold(source *Graph, iFold int) error {
	if len(g.roots) != len(source.roots) {
		return wrapf(ErrBadRange, "root count mismatch: destination has %d, source has %d", len(g.roots), len(source.roots))
	}
	foldEntry := source.estart + NodeId(iFold)
	if foldEntry >= source.nstart {
		return wrapf(ErrBadRange, "fold entry %d out of range", iFold)
	}

	setOverride := map[NodeId]NodeId{foldEntry: IBIT}
	clrOverride := map[NodeId]NodeId{foldEntry: 0}

	normalise := func(q, t, f NodeId) (NodeId, error) { return g.AddNormaliseNode(q, t, f) }

	for i, ref := range source.roots {
		set, err := g.importRef(source, ref, setOverride, normalise)
		if err != nil {
			return err
		}
		clr, err := g.importRef(source, ref, clrOverride, normalise)
		if err != nil {
			return err
		}
		q, err := g.importRef(source, foldEntry, nil, normalise)
		if err != nil {
			return err
		}
		id, err := g.AddNormaliseNode(q, set, clr)
		if err != nil {
			return err
		}
		g.roots[i] = id
	}
	return nil
}

// CountActive counts the internal nodes reachable from g's roots and
// system, used as a fitness metric (a smaller count is a "better"
// graph for the same function). Liveness is a pure membership question
// over node indices, so it is tracked with a bitset sized to the
// arena rather than a map.
func (g *Graph) CountActive() int {
	live := bitset.New(uint(g.store.count()))
	var walk func(id NodeId)
	walk = func(id NodeId) {
		idx := id.Index()
		if idx < g.nstart || live.Test(uint(idx)) {
			return
		}
		live.Set(uint(idx))
		n := g.store.get(idx)
		walk(n.Q)
		walk(n.T)
		walk(n.F)
	}
	for _, r := range g.roots {
		walk(r)
	}
	if g.hasSystem {
		walk(g.system)
	}
	return int(live.Count())
}

// BuildSystem builds a single artificial "balanced system" node that
// evaluates to zero exactly when every one of the named roots equals
// its corresponding entry (key): order[i] names the root meant to hold
// entry i's committed value. For each pair it folds key XOR root into
// a term and ORs every term together, so the system is zero iff all
// keys and roots agree and non-zero the moment any one of them
// diverges; installs the result via SetSystem. At least one name is
// required, and order may name at most as many roots as the graph has
// entries.
func (g *Graph) BuildSystem(order []string) (NodeId, error) {
	if len(order) == 0 {
		return 0, wrapf(ErrBadRange, "BuildSystem requires at least one root name")
	}
	if numEntries := g.nstart - g.estart; NodeId(len(order)) > numEntries {
		return 0, wrapf(ErrBadRange, "BuildSystem given %d roots but graph has only %d entries", len(order), numEntries)
	}

	var system NodeId
	for i, name := range order {
		rootIdx := -1
		for j, rn := range g.rootNames {
			if rn == name {
				rootIdx = j
				break
			}
		}
		if rootIdx < 0 {
			return 0, wrapf(ErrNotFound, "root %q not found", name)
		}

		key := g.estart + NodeId(i)
		root := g.roots[rootIdx]
		term, err := g.AddNormaliseNode(key, root.Invert(), root)
		if err != nil {
			return 0, err
		}
		system, err = g.AddNormaliseNode(system, IBIT, term)
		if err != nil {
			return 0, err
		}
	}

	g.SetSystem(system)
	return system, nil
}
