// Copyright (c) 2025 The basetree Authors
// SPDX-License-Identifier: MIT

package basetree

// storeSafetyMargin is the number of free slots the store insists on
// keeping available; addBasicNode fails with ErrCapacityExceeded once
// this many slots or fewer remain, rather than exhausting the arena
// exactly.
const storeSafetyMargin = 10

// nodeStore is a fixed-capacity, append-only arena of Nodes indexed by
// a 32-bit NodeId. Nodes are immutable once allocated; the store never
// shrinks except via rewind, which truncates back to a fixed floor.
type nodeStore struct {
	nodes    []Node
	maxNodes NodeId
	ctx      *Context
}

// newNodeStore allocates an arena able to hold up to maxNodes nodes,
// with slot 0 pre-reserved as the constant-false node.
func newNodeStore(ctx *Context, maxNodes NodeId) *nodeStore {
	s := &nodeStore{
		nodes:    make([]Node, 1, maxNodes),
		maxNodes: maxNodes,
		ctx:      ctx,
	}
	// id 0 is constant false; Q == 0 is never a valid question so this
	// sentinel entry is never looked up, only ever referenced as the
	// literal NodeId 0.
	s.nodes[0] = Node{}
	return s
}

// count returns the number of nodes currently allocated, including the
// id-0 sentinel.
func (s *nodeStore) count() NodeId { return NodeId(len(s.nodes)) }

// get returns the Node for id. Callers must ensure id < count(); this
// path does not bounds-check.
func (s *nodeStore) get(id NodeId) Node { return s.nodes[id.Index()] }

// alloc appends a new Node and returns its id. It fails once
// storeSafetyMargin slots or fewer remain.
func (s *nodeStore) alloc(q, t, f NodeId) (NodeId, error) {
	if NodeId(len(s.nodes))+storeSafetyMargin >= s.maxNodes {
		return 0, wrapf(ErrCapacityExceeded, "node store exhausted: %d/%d nodes used", len(s.nodes), s.maxNodes)
	}
	id := NodeId(len(s.nodes))
	s.nodes = append(s.nodes, Node{Q: q, T: t, F: f})
	if s.ctx != nil {
		s.ctx.allocations.Add(1)
	}
	return id, nil
}

// truncate shrinks the arena back to n nodes, used by rewind. n must be
// <= count().
func (s *nodeStore) truncate(n NodeId) {
	s.nodes = s.nodes[:n]
}
