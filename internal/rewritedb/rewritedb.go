// Copyright (c) 2025 The basetree Authors
// SPDX-License-Identifier: MIT

// Package rewritedb is the concrete signature/member pattern database
// consulted by the core's optional rewriter. Its schema is deliberately
// kept outside the core package: this is a thin, swappable collaborator
// so a driver can point at a real on-disk database instead of wiring an
// in-memory stub.
//
// Entries are keyed by the core's mixed-radix fingerprint and stored as
// a small fixed binary encoding of a rewrite instruction, persisted in
// an embedded key-value store.
package rewritedb

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/dgraph-io/badger/v2"
)

// Outcome mirrors basetree.RewriteOutcome without importing the core
// package, keeping this database usable standalone (e.g. by an offline
// table-building tool) without pulling in the DAG engine.
type Outcome uint8

const (
	OutcomeNoop Outcome = iota
	OutcomeCollapse
	OutcomeReorder
	OutcomeReplace
)

// Step is one pre-encoded build instruction of a Replace entry.
type Step struct {
	Q, T, F int32
	TInvert bool
}

// Entry is one decoded table row.
type Entry struct {
	Outcome Outcome

	CollapseSlot int32

	ReorderQ, ReorderF int32
	ReorderT           int32
	ReorderTInvert     bool

	Steps []Step
}

// DB wraps an embedded, disk-backed key-value store holding the
// rewrite pattern table. It is read-mostly in normal operation; Build
// tooling is responsible for populating it offline.
type DB struct {
	bdb *badger.DB
}

// Open opens (creating if necessary) the pattern database at dir.
func Open(dir string) (*DB, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "rewritedb: open %s", dir)
	}
	return &DB{bdb: bdb}, nil
}

// Close releases the underlying store.
func (db *DB) Close() error {
	return db.bdb.Close()
}

// Lookup resolves key to an Entry. found is false if the table has no
// row for this fingerprint.
func (db *DB) Lookup(key uint64) (entry Entry, found bool, err error) {
	var raw []byte
	err = db.bdb.View(func(txn *badger.Txn) error {
		item, getErr := txn.Get(encodeKey(key))
		if errors.Is(getErr, badger.ErrKeyNotFound) {
			return nil
		}
		if getErr != nil {
			return getErr
		}
		return item.Value(func(val []byte) error {
			raw = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		return Entry{}, false, errors.Wrapf(err, "rewritedb: lookup %x", key)
	}
	if raw == nil {
		return Entry{}, false, nil
	}
	entry, err = decodeEntry(raw)
	if err != nil {
		return Entry{}, false, err
	}
	return entry, true, nil
}

// Put installs entry under key, overwriting any existing row. It is
// meant for offline table construction, not the normalisation hot path.
func (db *DB) Put(key uint64, entry Entry) error {
	raw, err := encodeEntry(entry)
	if err != nil {
		return err
	}
	return db.bdb.Update(func(txn *badger.Txn) error {
		return txn.Set(encodeKey(key), raw)
	})
}

func encodeKey(key uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, key)
	return buf
}

// encodeEntry packs an Entry into a compact binary row: a one-byte
// outcome tag followed by the outcome-specific fixed/variable fields.
func encodeEntry(e Entry) ([]byte, error) {
	switch e.Outcome {
	case OutcomeNoop:
		return []byte{byte(OutcomeNoop)}, nil

	case OutcomeCollapse:
		buf := make([]byte, 1+4)
		buf[0] = byte(OutcomeCollapse)
		binary.BigEndian.PutUint32(buf[1:], uint32(e.CollapseSlot))
		return buf, nil

	case OutcomeReorder:
		buf := make([]byte, 1+4+4+4+1)
		buf[0] = byte(OutcomeReorder)
		binary.BigEndian.PutUint32(buf[1:5], uint32(e.ReorderQ))
		binary.BigEndian.PutUint32(buf[5:9], uint32(e.ReorderT))
		binary.BigEndian.PutUint32(buf[9:13], uint32(e.ReorderF))
		if e.ReorderTInvert {
			buf[13] = 1
		}
		return buf, nil

	case OutcomeReplace:
		buf := make([]byte, 1+2+len(e.Steps)*(4+4+4+1))
		buf[0] = byte(OutcomeReplace)
		binary.BigEndian.PutUint16(buf[1:3], uint16(len(e.Steps)))
		off := 3
		for _, s := range e.Steps {
			binary.BigEndian.PutUint32(buf[off:], uint32(s.Q))
			binary.BigEndian.PutUint32(buf[off+4:], uint32(s.T))
			binary.BigEndian.PutUint32(buf[off+8:], uint32(s.F))
			if s.TInvert {
				buf[off+12] = 1
			}
			off += 13
		}
		return buf, nil

	default:
		return nil, errors.Newf("rewritedb: unknown outcome %d", e.Outcome)
	}
}

func decodeEntry(raw []byte) (Entry, error) {
	if len(raw) < 1 {
		return Entry{}, errors.New("rewritedb: truncated entry")
	}
	outcome := Outcome(raw[0])
	switch outcome {
	case OutcomeNoop:
		return Entry{Outcome: OutcomeNoop}, nil

	case OutcomeCollapse:
		if len(raw) < 5 {
			return Entry{}, errors.New("rewritedb: truncated collapse entry")
		}
		return Entry{
			Outcome:      OutcomeCollapse,
			CollapseSlot: int32(binary.BigEndian.Uint32(raw[1:5])),
		}, nil

	case OutcomeReorder:
		if len(raw) < 14 {
			return Entry{}, errors.New("rewritedb: truncated reorder entry")
		}
		return Entry{
			Outcome:        OutcomeReorder,
			ReorderQ:       int32(binary.BigEndian.Uint32(raw[1:5])),
			ReorderT:       int32(binary.BigEndian.Uint32(raw[5:9])),
			ReorderF:       int32(binary.BigEndian.Uint32(raw[9:13])),
			ReorderTInvert: raw[13] != 0,
		}, nil

	case OutcomeReplace:
		if len(raw) < 3 {
			return Entry{}, errors.New("rewritedb: truncated replace entry")
		}
		n := int(binary.BigEndian.Uint16(raw[1:3]))
		steps := make([]Step, 0, n)
		off := 3
		for i := 0; i < n; i++ {
			if off+13 > len(raw) {
				return Entry{}, errors.New("rewritedb: truncated replace step")
			}
			steps = append(steps, Step{
				Q:       int32(binary.BigEndian.Uint32(raw[off:])),
				T:       int32(binary.BigEndian.Uint32(raw[off+4:])),
				F:       int32(binary.BigEndian.Uint32(raw[off+8:])),
				TInvert: raw[off+12] != 0,
			})
			off += 13
		}
		return Entry{Outcome: OutcomeReplace, Steps: steps}, nil

	default:
		return Entry{}, errors.Newf("rewritedb: unknown outcome tag %d", raw[0])
	}
}
