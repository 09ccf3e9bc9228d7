// Copyright (c) 2025 The basetree Authors
// SPDX-License-Identifier: MIT

package basetree

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/bits-and-blooms/bitset"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

// Metadata is the JSON sidecar written alongside a BaseTreeFile. It
// carries nothing normalisation ever consults — purely descriptive
// bookkeeping for tooling (bextract, bjoin summaries, ksave manifests)
// that would otherwise have to re-derive it from the binary form.
type Metadata struct {
	// BuildID is stamped fresh on every SaveMetadata call so two saves
	// of semantically identical graphs can still be told apart.
	BuildID string `json:"build_id"`

	Entries []string `json:"entries"`
	Roots   []string `json:"roots"`

	// RefCounts maps each live internal node index (as a string, since
	// JSON object keys must be strings) to the number of distinct
	// parent slots (across every root, system and other internal node)
	// that reference it, inversion ignored. A node absent from this map
	// is unreferenced garbage still sitting in the arena.
	RefCounts map[string]int `json:"ref_counts"`

	// History lists every reference bound to a root through SetRoot,
	// oldest first (Graph.History).
	History []uint32 `json:"history,omitempty"`

	// Text renders each current root via SaveString, for quick
	// human/diff inspection without decoding the binary form.
	Text map[string]string `json:"text"`

	RewriteStats RewriteStats `json:"rewrite_stats"`
}

// BuildMetadata computes a fresh Metadata snapshot of g's current
// state.
func (g *Graph) BuildMetadata() Metadata {
	m := Metadata{
		BuildID:      uuid.NewString(),
		Entries:      append([]string(nil), g.entryNames...),
		Roots:        append([]string(nil), g.rootNames...),
		RefCounts:    g.refCounts(),
		Text:         make(map[string]string, len(g.roots)),
		RewriteStats: g.RewriteStats(),
	}
	for _, h := range g.history {
		m.History = append(m.History, uint32(h))
	}
	for i, ref := range g.roots {
		name := nthRootName(g.rootNames, i)
		m.Text[name] = g.SaveString(ref)
	}
	if g.hasSystem {
		m.Text["$system"] = g.SaveString(g.system)
	}
	return m
}

func nthRootName(names []string, i int) string {
	if i < len(names) {
		return names[i]
	}
	return "$unnamed"
}

// refCounts walks every node reachable from the roots and system and
// tallies, per internal node index, how many parent slots reference it.
func (g *Graph) refCounts() map[string]int {
	counts := make(map[string]int)
	visited := bitset.New(uint(g.store.count()))

	var walk func(ref NodeId)
	walk = func(ref NodeId) {
		idx := ref.Index()
		if idx < g.nstart {
			return
		}
		counts[jsonKey(idx)]++
		if visited.Test(uint(idx)) {
			return
		}
		visited.Set(uint(idx))
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
	return counts
}

func jsonKey(idx NodeId) string {
	return itoa(int(idx))
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// SaveMetadata writes g's metadata sidecar to path as JSON, optionally
// zstd-compressed (mirroring SaveFile's compress option so a driver can
// keep both artifacts under the same compression policy).
func (g *Graph) SaveMetadata(path string, compress bool) error {
	raw, err := json.MarshalIndent(g.BuildMetadata(), "", "  ")
	if err != nil {
		return wrapf(ErrBadMetadata, "marshal: %v", err)
	}

	body := raw
	if compress {
		var buf bytes.Buffer
		enc, err := zstd.NewWriter(&buf)
		if err != nil {
			return wrapf(ErrIO, "zstd writer: %v", err)
		}
		if _, err := enc.Write(raw); err != nil {
			enc.Close()
			return wrapf(ErrIO, "zstd compress: %v", err)
		}
		if err := enc.Close(); err != nil {
			return wrapf(ErrIO, "zstd close: %v", err)
		}
		body = buf.Bytes()
	}

	if err := os.WriteFile(path, body, 0o644); err != nil {
		return wrapf(ErrIO, "write %s: %v", path, err)
	}
	return nil
}

// LoadMetadata reads a sidecar written by SaveMetadata. compressed must
// match how it was written; SaveMetadata does not self-describe this
// the way SaveFile's header does, since the sidecar is a plain JSON
// file meant to be readable by tools outside this module.
func LoadMetadata(path string, compressed bool) (Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, wrapf(ErrIO, "read %s: %v", path, err)
	}
	if compressed {
		dec, err := zstd.NewReader(bytes.NewReader(raw))
		if err != nil {
			return Metadata{}, wrapf(ErrIO, "zstd reader: %v", err)
		}
		defer dec.Close()
		decoded, err := io.ReadAll(dec)
		if err != nil {
			return Metadata{}, wrapf(ErrIO, "zstd decompress: %v", err)
		}
		raw = decoded
	}
	var m Metadata
	if err := json.Unmarshal(raw, &m); err != nil {
		return Metadata{}, wrapf(ErrBadMetadata, "unmarshal: %v", err)
	}
	return m, nil
}
