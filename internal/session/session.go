// Copyright 2025 The go-yaml Project Contributors
// SPDX-License-Identifier: Apache-2.0

// Package session implements the session orchestrator (spec §4.E): it
// owns the transport handle, wires it to an inbound or outbound
// transcoder, and maps the transport's configuration and the
// transcoder's outcome onto the session-level error vocabulary.
package session

import (
	"github.com/chaos/lnetyaml/internal/inbound"
	"github.com/chaos/lnetyaml/internal/outbound"
	"github.com/chaos/lnetyaml/internal/transport"
	"github.com/chaos/lnetyaml/internal/yamlerr"
)

// Sentinel error kinds from spec §7 that are decided at the orchestrator
// level rather than inside either transcoder. Defined in package
// yamlerr (a leaf package both internal/inbound and internal/outbound
// already import, so they can wrap these sentinels directly into the
// ReaderError/EmitterError they return) and re-exported here under the
// names spec §7 gives them.
var (
	ErrSchemaSealed    = yamlerr.ErrSchemaSealed
	ErrUnknownGroup    = yamlerr.ErrUnknownGroup
	ErrNoGroup         = yamlerr.ErrNoGroup
	ErrProtocolFraming = yamlerr.ErrProtocolFraming
)

// Session owns one transport.Conn for the lifetime of one read or write
// pass, plus whichever transcoder it was attached to. Not safe for
// concurrent use — spec §5's "single-threaded cooperative" model.
type Session struct {
	conn   transport.Conn
	reader *inbound.Transcoder
	writer *outbound.Transcoder
}

// AttachReader allocates a session around conn for decoding inbound
// generic-netlink messages into YAML text. It enables broadcast-error
// and extended-ack reporting, and for a streaming (async) session also
// disables sequence checking and auto-ack, since asynchronous events
// arrive without the usual request/response pairing (spec §4.E).
func AttachReader(conn transport.Conn, isAsyncStream bool) (*Session, error) {
	if err := conn.EnableBroadcastError(true); err != nil {
		return nil, err
	}
	if err := conn.EnableExtAck(true); err != nil {
		return nil, err
	}
	if isAsyncStream {
		if err := conn.DisableSeqCheck(true); err != nil {
			return nil, err
		}
		if err := conn.DisableAutoAck(true); err != nil {
			return nil, err
		}
	}
	return &Session{conn: conn, reader: inbound.New(conn)}, nil
}

// AttachWriter allocates a session around conn for encoding YAML text
// into one outbound generic-netlink message, stamped with the given
// family/version/command/flags (spec §4.E, §4.D step 5).
func AttachWriter(conn transport.Conn, family uint16, version, command uint8, flags uint16) (*Session, error) {
	return &Session{conn: conn, writer: outbound.New(conn, family, version, command, flags)}, nil
}

// Reader returns the inbound transcoder for a session built with
// AttachReader, or nil for a writer session.
func (s *Session) Reader() *inbound.Transcoder { return s.reader }

// Writer returns the outbound transcoder for a session built with
// AttachWriter, or nil for a reader session.
func (s *Session) Writer() *outbound.Transcoder { return s.writer }

// Close releases the session's transport handle.
func (s *Session) Close() error {
	return s.conn.Close()
}
