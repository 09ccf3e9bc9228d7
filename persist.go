// Copyright (c) 2025 The basetree Authors
// SPDX-License-Identifier: MIT

package basetree

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

// magicNumber identifies a BaseTreeFile. It is a fixed literal and is
// never versioned; a format change is a breaking change to this
// constant, not a new field.
const magicNumber uint32 = 0x20210613

// sectionAlign is the byte boundary every section is padded to.
const sectionAlign = 16

// header is the fixed-size leading record of a BaseTreeFile. All
// multi-byte fields are little-endian.
type header struct {
	Magic      uint32
	Flags      uint32
	KStart     uint32
	OStart     uint32
	EStart     uint32
	NStart     uint32
	NCount     uint32
	NumRoots   uint32
	NumHistory uint32
	Compressed uint32 // 0 or 1; the node+root+history payload is zstd-compressed
	CRC32      uint32 // over the uncompressed nodes+roots+history payload
	OffNames   uint64
	OffNodes   uint64
	OffRoots   uint64
	OffHistory uint64
	FileSize   uint64
}

const headerSize = 4*11 + 8*5

func (h *header) marshal() []byte {
	buf := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(buf[0:], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:], h.Flags)
	binary.LittleEndian.PutUint32(buf[8:], h.KStart)
	binary.LittleEndian.PutUint32(buf[12:], h.OStart)
	binary.LittleEndian.PutUint32(buf[16:], h.EStart)
	binary.LittleEndian.PutUint32(buf[20:], h.NStart)
	binary.LittleEndian.PutUint32(buf[24:], h.NCount)
	binary.LittleEndian.PutUint32(buf[28:], h.NumRoots)
	binary.LittleEndian.PutUint32(buf[32:], h.NumHistory)
	binary.LittleEndian.PutUint32(buf[36:], h.Compressed)
	off := 40
	binary.LittleEndian.PutUint32(buf[off:], h.CRC32)
	off += 4
	binary.LittleEndian.PutUint64(buf[off:], h.OffNames)
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], h.OffNodes)
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], h.OffRoots)
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], h.OffHistory)
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], h.FileSize)
	return buf
}

func unmarshalHeader(buf []byte) (header, error) {
	if len(buf) < headerSize {
		return header{}, wrapf(ErrBadSize, "header truncated: %d bytes, want %d", len(buf), headerSize)
	}
	var h header
	h.Magic = binary.LittleEndian.Uint32(buf[0:])
	h.Flags = binary.LittleEndian.Uint32(buf[4:])
	h.KStart = binary.LittleEndian.Uint32(buf[8:])
	h.OStart = binary.LittleEndian.Uint32(buf[12:])
	h.EStart = binary.LittleEndian.Uint32(buf[16:])
	h.NStart = binary.LittleEndian.Uint32(buf[20:])
	h.NCount = binary.LittleEndian.Uint32(buf[24:])
	h.NumRoots = binary.LittleEndian.Uint32(buf[28:])
	h.NumHistory = binary.LittleEndian.Uint32(buf[32:])
	h.Compressed = binary.LittleEndian.Uint32(buf[36:])
	off := 40
	h.CRC32 = binary.LittleEndian.Uint32(buf[off:])
	off += 4
	h.OffNames = binary.LittleEndian.Uint64(buf[off:])
	off += 8
	h.OffNodes = binary.LittleEndian.Uint64(buf[off:])
	off += 8
	h.OffRoots = binary.LittleEndian.Uint64(buf[off:])
	off += 8
	h.OffHistory = binary.LittleEndian.Uint64(buf[off:])
	off += 8
	h.FileSize = binary.LittleEndian.Uint64(buf[off:])
	if h.Magic != magicNumber {
		return header{}, wrapf(ErrBadMagic, "got %#x, want %#x", h.Magic, magicNumber)
	}
	return h, nil
}

func pad(n int) int {
	if r := n % sectionAlign; r != 0 {
		n += sectionAlign - r
	}
	return n
}

// SaveFile writes the graph's full reachable state (from its roots and
// system, if any) to path as a BaseTreeFile. When compress is true the
// node/root/history payload is zstd-compressed.
func (g *Graph) SaveFile(path string, compress bool) error {
	var namesBuf bytes.Buffer
	for _, name := range g.entryNames {
		namesBuf.WriteString(name)
		namesBuf.WriteByte(0)
	}
	namesBuf.WriteByte(0)
	for _, name := range g.rootNames {
		namesBuf.WriteString(name)
		namesBuf.WriteByte(0)
	}
	namesBuf.WriteByte(0)

	var payload bytes.Buffer
	for id := NodeId(0); id < g.store.count(); id++ {
		n := g.store.get(id)
		var rec [12]byte
		binary.LittleEndian.PutUint32(rec[0:], uint32(n.Q))
		binary.LittleEndian.PutUint32(rec[4:], uint32(n.T))
		binary.LittleEndian.PutUint32(rec[8:], uint32(n.F))
		payload.Write(rec[:])
	}
	for _, r := range g.roots {
		var rec [4]byte
		binary.LittleEndian.PutUint32(rec[:], uint32(r))
		payload.Write(rec[:])
	}
	for _, h := range g.history {
		var rec [4]byte
		binary.LittleEndian.PutUint32(rec[:], uint32(h))
		payload.Write(rec[:])
	}

	crc := crc32.ChecksumIEEE(payload.Bytes())

	body := payload.Bytes()
	if compress {
		var compressed bytes.Buffer
		enc, err := zstd.NewWriter(&compressed)
		if err != nil {
			return wrapf(ErrIO, "zstd writer: %v", err)
		}
		if _, err := enc.Write(body); err != nil {
			enc.Close()
			return wrapf(ErrIO, "zstd compress: %v", err)
		}
		if err := enc.Close(); err != nil {
			return wrapf(ErrIO, "zstd close: %v", err)
		}
		body = compressed.Bytes()
	}

	offNames := uint64(pad(headerSize))
	offNodes := offNames + uint64(pad(namesBuf.Len()))
	// the payload is the last section and is written unpadded, so
	// FileSize marks exactly where it ends.
	offEnd := offNodes + uint64(len(body))

	h := header{
		Magic:      magicNumber,
		Flags:      uint32(g.flags),
		KStart:     uint32(g.kstart),
		OStart:     uint32(g.ostart),
		EStart:     uint32(g.estart),
		NStart:     uint32(g.nstart),
		NCount:     uint32(g.store.count()),
		NumRoots:   uint32(len(g.roots)),
		NumHistory: uint32(len(g.history)),
		CRC32:      crc,
		OffNames:   offNames,
		OffNodes:   offNodes,
		OffRoots:   offNodes, // roots/history are appended inside the same payload section
		OffHistory: offNodes,
		FileSize:   offEnd,
	}
	if compress {
		h.Compressed = 1
	}

	f, err := os.Create(path)
	if err != nil {
		return wrapf(ErrIO, "create %s: %v", path, err)
	}
	defer f.Close()

	if err := writeSection(f, h.marshal()); err != nil {
		return err
	}
	if err := writeSection(f, namesBuf.Bytes()); err != nil {
		return err
	}
	if _, err := f.Write(body); err != nil {
		return wrapf(ErrIO, "write: %v", err)
	}
	return nil
}

func writeSection(w io.Writer, data []byte) error {
	if _, err := w.Write(data); err != nil {
		return wrapf(ErrIO, "write: %v", err)
	}
	padding := pad(len(data)) - len(data)
	if padding > 0 {
		if _, err := w.Write(make([]byte, padding)); err != nil {
			return wrapf(ErrIO, "pad: %v", err)
		}
	}
	return nil
}

// LoadFile reads a BaseTreeFile written by SaveFile into a freshly
// constructed Graph. ctx and flags override the persisted Context and
// any additional runtime-only flags (e.g. PARANOID) the caller wants
// on top of what was saved; the persisted dimensions always win.
func LoadFile(ctx *Context, path string, extraFlags Flags) (*Graph, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, wrapf(ErrIO, "read %s: %v", path, err)
	}
	if len(raw) < headerSize {
		return nil, wrapf(ErrBadSize, "file too small: %d bytes", len(raw))
	}
	h, err := unmarshalHeader(raw[:headerSize])
	if err != nil {
		return nil, err
	}
	if uint64(len(raw)) < h.FileSize {
		return nil, wrapf(ErrBadSize, "file truncated: have %d bytes, header declares %d", len(raw), h.FileSize)
	}

	namesEnd := h.OffNodes
	if namesEnd > uint64(len(raw)) {
		return nil, wrapf(ErrBadRange, "names section out of range")
	}
	entryNames, rootNames := splitNames(raw[h.OffNames:namesEnd])

	body := raw[h.OffNodes:h.FileSize]
	if h.Compressed == 1 {
		dec, err := zstd.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, wrapf(ErrIO, "zstd reader: %v", err)
		}
		defer dec.Close()
		decoded, err := io.ReadAll(dec)
		if err != nil {
			return nil, wrapf(ErrIO, "zstd decompress: %v", err)
		}
		body = decoded
	}

	if crc32.ChecksumIEEE(body) != h.CRC32 {
		return nil, wrapf(ErrMismatch, "CRC-32 mismatch: file is corrupt")
	}

	nodeBytes := int(h.NCount) * 12
	if nodeBytes > len(body) {
		return nil, wrapf(ErrBadSize, "node section truncated")
	}
	rootBytes := int(h.NumRoots) * 4
	historyBytes := int(h.NumHistory) * 4
	if nodeBytes+rootBytes+historyBytes > len(body) {
		return nil, wrapf(ErrBadSize, "root/history section truncated")
	}

	g, err := New(ctx, NodeId(h.KStart), NodeId(h.OStart), NodeId(h.EStart), NodeId(h.NStart),
		NodeId(h.NumRoots), NodeId(h.NCount)+storeSafetyMargin+1, Flags(h.Flags)|extraFlags)
	if err != nil {
		return nil, err
	}

	for off := int(h.NStart) * 12; off < nodeBytes; off += 12 {
		q := NodeId(binary.LittleEndian.Uint32(body[off:]))
		t := NodeId(binary.LittleEndian.Uint32(body[off+4:]))
		f := NodeId(binary.LittleEndian.Uint32(body[off+8:]))
		if _, err := g.addBasicNode(q, t, f); err != nil {
			return nil, err
		}
	}

	rootsStart := nodeBytes
	for i := 0; i < int(h.NumRoots); i++ {
		off := rootsStart + i*4
		g.roots[i] = NodeId(binary.LittleEndian.Uint32(body[off:]))
	}

	historyStart := rootsStart + rootBytes
	g.history = make([]NodeId, h.NumHistory)
	for i := 0; i < int(h.NumHistory); i++ {
		off := historyStart + i*4
		g.history[i] = NodeId(binary.LittleEndian.Uint32(body[off:]))
	}

	g.entryNames = entryNames
	g.rootNames = rootNames

	return g, nil
}

func splitNames(buf []byte) (entries, roots []string) {
	i := 0
	readSet := func() []string {
		var out []string
		for i < len(buf) {
			start := i
			for i < len(buf) && buf[i] != 0 {
				i++
			}
			if i >= len(buf) {
				break
			}
			if start == i {
				i++ // the set's trailing empty-string terminator
				break
			}
			out = append(out, string(buf[start:i]))
			i++
		}
		return out
	}
	entries = readSet()
	roots = readSet()
	return entries, roots
}
