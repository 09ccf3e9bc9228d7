// Copyright (c) 2025 The basetree Authors
// SPDX-License-Identifier: MIT

package basetree

import (
	"github.com/cockroachdb/errors"
)

// ErrorKind closes the error taxonomy a Graph operation can fail with.
// Every fatal error returned by this package can be matched against one
// of these via errors.Is.
type ErrorKind struct {
	name string
}

func (k ErrorKind) Error() string { return k.name }

var (
	// ErrCapacityExceeded is returned when the node store is within its
	// configured safety margin of maxNodes. (A scratch-buffer pool's
	// free-list overflow panics instead.)
	ErrCapacityExceeded = ErrorKind{"capacity exceeded"}

	// ErrBadMagic is returned by loadFile when the header magic does
	// not match BaseTreeMagic.
	ErrBadMagic = ErrorKind{"bad magic"}

	// ErrBadSize is returned by loadFile when declared section sizes
	// don't fit the file, or by New when nstart is not below maxNodes.
	ErrBadSize = ErrorKind{"bad size"}

	// ErrBadToken is returned by LoadStringSafe/LoadStringFast on an
	// unrecognised character in the textual notation.
	ErrBadToken = ErrorKind{"bad token"}

	// ErrBadRange is returned when a back-reference or entry index in
	// textual or binary input falls outside the valid range.
	ErrBadRange = ErrorKind{"bad range"}

	// ErrBadMetadata is returned by the JSON sidecar reader on a
	// malformed or inconsistent metadata document.
	ErrBadMetadata = ErrorKind{"bad metadata"}

	// ErrInvariantViolation is raised by the PARANOID-mode and Audit
	// checks, the normaliser's recursion-depth guard and an unknown
	// rewrite outcome; it indicates a bug in the normaliser, not bad
	// input.
	ErrInvariantViolation = ErrorKind{"invariant violation"}

	// ErrIO wraps filesystem, mmap or close failures.
	ErrIO = ErrorKind{"io error"}

	// ErrNotFound is returned when a named entry or root does not
	// exist (bextract) or a requested node id is not reachable.
	ErrNotFound = ErrorKind{"not found"}

	// ErrMismatch is returned when two graphs fed to a composition
	// operation have inconsistent dimensions (bjoin).
	ErrMismatch = ErrorKind{"mismatch"}
)

// wrapf builds a formatted error marked as kind, so callers can do
// errors.Is(err, basetree.ErrCapacityExceeded) regardless of message text.
func wrapf(kind ErrorKind, format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), kind)
}
