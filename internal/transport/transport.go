// Copyright 2025 The go-yaml Project Contributors
// SPDX-License-Identifier: Apache-2.0

// Package transport is the narrow, out-of-scope collaborator spec.md
// §1 describes: "the transport socket primitives (open, bind, send,
// receive, multicast group subscription, credentials) — the core uses
// them through a narrow adapter." Nothing in this package understands
// YAML, schemas, or attribute trees; it only understands generic
// netlink framing and the raw socket operations needed to move it.
package transport

import (
	"context"
	"errors"
)

// Generic-netlink / rtnetlink-family constants this package reuses
// directly from the kernel's own numbering, rather than inventing new
// ones: message types and flag bits are taken verbatim from
// <linux/netlink.h>.
const (
	// NLMSGDone marks the terminal message of a multi-part dump.
	NLMSGDone uint16 = 0x3
	// NLMSGError marks a message carrying an error (or, with Errno == 0,
	// an ACK).
	NLMSGError uint16 = 0x2

	// FlagMulti ("more messages follow") is NLM_F_MULTI.
	FlagMulti uint16 = 0x2
	// FlagCreate is NLM_F_CREATE, repurposed here as the schema framing
	// bit spec.md calls "create": a message bearing this flag carries a
	// key schema rather than a value batch.
	FlagCreate uint16 = 0x400
)

// Header is a generic-netlink message header, stripped of its payload.
type Header struct {
	Len   uint32
	Type  uint16
	Flags uint16
	Seq   uint32
	PID   uint32

	// Cmd, Version are the generic-netlink sub-header fields (absent
	// from control/error messages).
	Cmd     uint8
	Version uint8
}

// IsSchema reports whether this message's framing flags mark it as
// carrying a key schema rather than a value batch.
func (h Header) IsSchema() bool { return h.Flags&FlagCreate != 0 }

// IsMulti reports whether more messages are expected after this one.
func (h Header) IsMulti() bool { return h.Flags&FlagMulti != 0 }

// IsDone reports whether this message terminates a multi-part stream.
func (h Header) IsDone() bool { return h.Type == NLMSGDone }

// IsError reports whether this message carries a kernel error (or an
// ACK, when Errno is zero).
func (h Header) IsError() bool { return h.Type == NLMSGError }

// Message is one generic-netlink datagram: header, attribute body, and
// — for NLMSGError messages — the kernel's error code and any
// extended-ack diagnostic text.
type Message struct {
	Header Header
	Body   []byte

	Errno  int32
	ExtAck string
}

// ErrInterrupted is returned by Conn.Receive when the underlying
// receive call was interrupted (EINTR) before any message arrived. It
// is spec's "Interrupted" error kind: non-fatal, translated by the
// inbound transcoder into a benign zero-length read.
var ErrInterrupted = errors.New("transport: receive interrupted")

// Conn is everything the session orchestrator and the inbound/outbound
// transcoders need from a generic-netlink socket. It is deliberately
// narrow: open/bind/credentials live in the concrete implementations
// (Socket for a real kernel socket, Fake for tests), not in this
// interface.
type Conn interface {
	// Receive blocks until at least one message arrives or the call is
	// interrupted.
	Receive(ctx context.Context) (Message, error)
	// Send transmits one outbound message.
	Send(ctx context.Context, msg Message) error

	// ResolveGroup looks up a multicast group's numeric ID by name
	// within the bound family. ok is false if the family exposes no
	// such group (spec's UnknownGroup error kind).
	ResolveGroup(name string) (id uint32, ok bool)
	// JoinGroup subscribes the socket to a multicast group by numeric
	// ID, for streaming/async sessions.
	JoinGroup(id uint32) error

	// EnableExtAck turns on extended-ack error reporting.
	EnableExtAck(enable bool) error
	// EnableBroadcastError turns on delivery-failure reporting for
	// multicast sends.
	EnableBroadcastError(enable bool) error
	// DisableSeqCheck turns off sequence-number validation, needed for
	// streaming sessions where async events arrive unpaired.
	DisableSeqCheck(disable bool) error
	// DisableAutoAck turns off automatic ACK handling, for the same
	// reason.
	DisableAutoAck(disable bool) error

	// PID returns the port ID this socket is bound to.
	PID() uint32
	// FamilyID returns the resolved numeric ID of the bound family.
	FamilyID() uint16

	Close() error
}
