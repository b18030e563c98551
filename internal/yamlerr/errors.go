// Copyright 2025 The go-yaml Project Contributors
// SPDX-License-Identifier: Apache-2.0

// Package yamlerr holds the marked error vocabulary shared by the inbound
// and outbound transcoders and the session orchestrator: a source
// position (Mark), the error types (ReaderError, EmitterError,
// WriterError) and the sentinel kinds a transcoding session can fail
// with.
package yamlerr

import (
	"errors"
	"fmt"
	"strings"
)

// Session-level sentinel Kinds spec.md §7 names that have no dedicated
// struct type below: errors.Is against these lets a caller distinguish
// them from one another without string-matching Error().
var (
	// ErrSchemaSealed reports a schema message arriving after the tree
	// has already been sealed by a value batch. Disposition is "skip
	// with diagnostic" (spec §7): the inbound transcoder keeps reading
	// rather than failing the session.
	ErrSchemaSealed = errors.New("lnetyaml: schema message arrived after schema was sealed")
	// ErrUnknownGroup reports outbound YAML naming a multicast group the
	// bound family does not expose.
	ErrUnknownGroup = errors.New("lnetyaml: multicast group not found in family")
	// ErrNoGroup reports outbound YAML naming no group at all.
	ErrNoGroup = errors.New("lnetyaml: no multicast group named")
	// ErrProtocolFraming reports a message or YAML fragment that could
	// not be parsed as a well-formed attribute sequence.
	ErrProtocolFraming = errors.New("lnetyaml: malformed attribute framing")
)

// Mark holds a position within the YAML text a transcoder produced or
// consumed, for diagnostics only — transcoding itself never resumes from
// a Mark.
type Mark struct {
	Index  int
	Line   int
	Column int
}

func (m Mark) String() string {
	if m.Line == 0 {
		return "<unknown position>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "line %d", m.Line)
	if m.Column != 0 {
		fmt.Fprintf(&b, ", column %d", m.Column+1)
	}
	return b.String()
}

// ReaderError reports a failure to produce the next chunk of YAML text
// on the inbound path: a transport error, a protocol-framing violation,
// or a terminal error the kernel attached to the last message.
type ReaderError struct {
	Offset int
	Mark   Mark
	Err    error
}

func (e *ReaderError) Error() string {
	return fmt.Sprintf("lnetyaml: reader: offset %d at %s: %s", e.Offset, e.Mark, e.Err)
}

func (e *ReaderError) Unwrap() error { return e.Err }

// EmitterError reports a failure on the outbound path: YAML the user
// produced could not be shaped into attributes, or no multicast group
// could be resolved for the outgoing message. Err, when set, is one of
// the session-level sentinels above, letting a caller use errors.Is
// against the documented Kind instead of matching Message text.
type EmitterError struct {
	Mark    Mark
	Message string
	Err     error
}

func (e *EmitterError) Error() string {
	if e.Mark.Line == 0 {
		return fmt.Sprintf("lnetyaml: emitter: %s", e.Message)
	}
	return fmt.Sprintf("lnetyaml: emitter: %s at %s", e.Message, e.Mark)
}

func (e *EmitterError) Unwrap() error { return e.Err }

// WriterError wraps a transport-level send/receive failure.
type WriterError struct {
	Err error
}

func (e *WriterError) Error() string { return fmt.Sprintf("lnetyaml: writer: %s", e.Err) }
func (e *WriterError) Unwrap() error { return e.Err }
