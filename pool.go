// Copyright (c) 2025 The basetree Authors
// SPDX-License-Identifier: MIT

package basetree

// maxPoolArray bounds each of mapPool's free-lists. Overflowing it means
// too many nested scratch maps are in flight at once, a logic bug, and
// is treated as fatal.
const maxPoolArray = 128

// scratchMap is a borrowed NodeId[maxNodes] buffer. Callers must clear
// or otherwise fully (re)populate the slots they read; acquire never
// zeroes it.
type scratchMap struct {
	values []NodeId
}

// versionedMap is a borrowed scratch array invalidated in O(1) by
// bumping current instead of zeroing values on every use: values[i] is
// only valid when versions[i] == current. On wrap-around to 0 one full
// clear is required.
type versionedMap struct {
	values   []uint32
	versions []uint32
	current  uint32
}

// get returns (value, true) iff i was stamped with the map's current
// version.
func (m *versionedMap) get(i NodeId) (uint32, bool) {
	idx := int(i)
	if m.versions[idx] == m.current {
		return m.values[idx], true
	}
	return 0, false
}

// set stamps i with the current version and stores value.
func (m *versionedMap) set(i NodeId, value uint32) {
	idx := int(i)
	m.values[idx] = value
	m.versions[idx] = m.current
}

// reset invalidates every entry in O(1); on overflow it clears the
// versions array once and restarts numbering at 1.
func (m *versionedMap) reset() {
	m.current++
	if m.current == 0 {
		for i := range m.versions {
			m.versions[i] = 0
		}
		m.current = 1
	}
}

// mapPool is a per-Graph, single-threaded, stack-discipline arena of
// reusable scratch buffers: one free-list of scratchMaps, one of
// versionedMaps. Acquire/release must nest strictly, mirroring how the
// comparator and cascade reorderer borrow and return maps within a
// single call.
type mapPool struct {
	maxNodes NodeId

	scratchFree   []*scratchMap
	versionedFree []*versionedMap
}

// newMapPool returns a pool sized for the given arena capacity.
func newMapPool(maxNodes NodeId) *mapPool {
	return &mapPool{maxNodes: maxNodes}
}

// acquireScratch returns a scratchMap from the free-list, or a freshly
// allocated one if the list is empty.
func (p *mapPool) acquireScratch() *scratchMap {
	if n := len(p.scratchFree); n > 0 {
		m := p.scratchFree[n-1]
		p.scratchFree = p.scratchFree[:n-1]
		return m
	}
	return &scratchMap{values: make([]NodeId, p.maxNodes)}
}

// releaseScratch returns m to the free-list. Overflowing maxPoolArray
// is a configuration error: it means callers are leaking acquisitions
// without matching releases.
func (p *mapPool) releaseScratch(m *scratchMap) {
	if len(p.scratchFree) >= maxPoolArray {
		panic("basetree: scratchMap free-list overflow, acquire/release is not nested correctly")
	}
	p.scratchFree = append(p.scratchFree, m)
}

// acquireVersioned returns a versionedMap from the free-list, or a
// freshly allocated one (version 0, so the very first reset() call
// makes every slot immediately distinguishable from uninitialised
// memory).
func (p *mapPool) acquireVersioned() *versionedMap {
	if n := len(p.versionedFree); n > 0 {
		m := p.versionedFree[n-1]
		p.versionedFree = p.versionedFree[:n-1]
		m.reset()
		return m
	}
	m := &versionedMap{
		values:   make([]uint32, p.maxNodes),
		versions: make([]uint32, p.maxNodes),
	}
	m.reset()
	return m
}

// releaseVersioned returns m to the free-list.
func (p *mapPool) releaseVersioned(m *versionedMap) {
	if len(p.versionedFree) >= maxPoolArray {
		panic("basetree: versionedMap free-list overflow, acquire/release is not nested correctly")
	}
	p.versionedFree = append(p.versionedFree, m)
}
