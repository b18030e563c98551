// Copyright 2025 The go-yaml Project Contributors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"sync"
)

// Fake is an in-memory Conn used by package tests and by any caller
// that wants to drive the session orchestrator without a real kernel
// socket. It is not exercised by cmd/lnetyaml, only by _test.go files
// across the module.
type Fake struct {
	mu      sync.Mutex
	inbox   []Message
	sent    []Message
	groups  map[string]uint32
	joined  map[uint32]bool
	pid     uint32
	family  uint16
	closed  bool
	extAck  bool
	bcastEr bool
}

// NewFake returns a Fake bound to the given PID and family ID, with no
// queued inbound messages and no known multicast groups.
func NewFake(pid uint32, family uint16) *Fake {
	return &Fake{
		groups: make(map[string]uint32),
		joined: make(map[uint32]bool),
		pid:    pid,
		family: family,
	}
}

// Queue appends messages to the inbox for a future Receive to return,
// in order.
func (f *Fake) Queue(msgs ...Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inbox = append(f.inbox, msgs...)
}

// WithGroup registers a resolvable multicast group name.
func (f *Fake) WithGroup(name string, id uint32) *Fake {
	f.groups[name] = id
	return f
}

// Sent returns every message handed to Send so far, for test assertions.
func (f *Fake) Sent() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Message, len(f.sent))
	copy(out, f.sent)
	return out
}

func (f *Fake) Receive(ctx context.Context) (Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.inbox) == 0 {
		return Message{}, ErrInterrupted
	}
	msg := f.inbox[0]
	f.inbox = f.inbox[1:]
	return msg, nil
}

func (f *Fake) Send(ctx context.Context, msg Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return nil
}

func (f *Fake) ResolveGroup(name string) (uint32, bool) {
	id, ok := f.groups[name]
	return id, ok
}

func (f *Fake) JoinGroup(id uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joined[id] = true
	return nil
}

func (f *Fake) Joined(id uint32) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.joined[id]
}

func (f *Fake) EnableExtAck(enable bool) error         { f.extAck = enable; return nil }
func (f *Fake) EnableBroadcastError(enable bool) error { f.bcastEr = enable; return nil }
func (f *Fake) DisableSeqCheck(disable bool) error     { return nil }
func (f *Fake) DisableAutoAck(disable bool) error      { return nil }

func (f *Fake) PID() uint32      { return f.pid }
func (f *Fake) FamilyID() uint16 { return f.family }

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
