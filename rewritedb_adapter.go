// Copyright (c) 2025 The basetree Authors
// SPDX-License-Identifier: MIT

package basetree

import (
	"github.com/baseform/basetree/internal/rewritedb"
	"github.com/rs/zerolog"
)

// DBRewriteTable adapts an on-disk rewritedb.DB to the RewriteTable
// interface consulted by rewriteQTF. A store-level I/O error is logged
// and treated as "not found" rather than propagated: an absent or
// unreadable database degrades the rewriter to a no-op instead of
// failing normalisation.
type DBRewriteTable struct {
	db  *rewritedb.DB
	log zerolog.Logger
}

// NewDBRewriteTable wraps db. A zero zerolog.Logger discards output.
func NewDBRewriteTable(db *rewritedb.DB, log zerolog.Logger) *DBRewriteTable {
	return &DBRewriteTable{db: db, log: log}
}

func (t *DBRewriteTable) Lookup(key uint64) (RewriteEntry, bool) {
	raw, found, err := t.db.Lookup(key)
	if err != nil {
		t.log.Warn().Err(err).Uint64("key", key).Msg("rewritedb lookup failed, treating as miss")
		return RewriteEntry{}, false
	}
	if !found {
		return RewriteEntry{}, false
	}

	entry := RewriteEntry{
		Outcome:        RewriteOutcome(raw.Outcome),
		CollapseSlot:   int(raw.CollapseSlot),
		ReorderQ:       int(raw.ReorderQ),
		ReorderT:       int(raw.ReorderT),
		ReorderF:       int(raw.ReorderF),
		ReorderTInvert: raw.ReorderTInvert,
	}
	if len(raw.Steps) > 0 {
		entry.Steps = make([]RewriteStep, len(raw.Steps))
		for i, s := range raw.Steps {
			entry.Steps[i] = RewriteStep{Q: int(s.Q), T: int(s.T), F: int(s.F), TInvert: s.TInvert}
		}
	}
	return entry, true
}
