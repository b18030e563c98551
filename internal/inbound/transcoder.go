// Copyright 2025 The go-yaml Project Contributors
// SPDX-License-Identifier: Apache-2.0

// Package inbound implements the inbound transcoder (spec §4.C): it
// classifies generic-netlink messages arriving from a transport.Conn,
// caches the schema they declare, and renders value batches into YAML
// text. Transcoder implements io.Reader, the idiomatic equivalent of
// spec's reader-callback contract — a YAML engine such as
// gopkg.in/yaml.v3 (or a plain line scanner, for callers that don't
// need full parsing) reads from it exactly like any other io.Reader.
package inbound

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/chaos/lnetyaml/internal/attr"
	"github.com/chaos/lnetyaml/internal/schema"
	"github.com/chaos/lnetyaml/internal/transport"
	"github.com/chaos/lnetyaml/internal/yamlerr"
)

// Transcoder turns a stream of generic-netlink messages into YAML
// text. It owns the session's schema.Tree for as long as the session
// runs; the session orchestrator (package session) is what decides
// when a Transcoder's tree should be torn down.
type Transcoder struct {
	conn transport.Conn
	tree *schema.Tree

	complete bool
	lastErr  error

	// lastSkipped records the diagnostic for the most recent message the
	// transcoder dropped without failing the session (spec §7's "skip
	// with diagnostic" disposition) — currently only a schema-create
	// message arriving after the tree was sealed.
	lastSkipped error

	queue []byte // rendered, not-yet-flushed YAML bytes

	rootLabel       string
	rootLabelSet    bool
	rootIndentBonus int
}

// New returns a Transcoder reading messages from conn into a fresh,
// unsealed schema tree.
func New(conn transport.Conn) *Transcoder {
	return &Transcoder{conn: conn, tree: schema.New()}
}

// Tree returns the schema tree this transcoder is building and
// rendering against. The session orchestrator uses it to decide
// whether a session has left its schema phase.
func (tc *Transcoder) Tree() *schema.Tree { return tc.tree }

// Complete reports whether the session's terminal message has already
// been observed.
func (tc *Transcoder) Complete() bool { return tc.complete }

// LastError returns the error that ended the session, if any.
func (tc *Transcoder) LastError() error { return tc.lastErr }

// LastSkipped returns the diagnostic for the most recent message the
// transcoder dropped without ending the session, if any (spec §7's
// SchemaSealed kind: "skip with diagnostic").
func (tc *Transcoder) LastSkipped() error { return tc.lastSkipped }

// Read implements io.Reader. Each call drives the transport until at
// least one message has been classified and run through schema or
// value intake, then copies whatever YAML text that produced (or was
// left over from a previous call) into buf. A short read is never a
// partial line: intake only ever appends whole rendered lines to the
// internal queue, so a caller that gets fewer bytes than it asked for
// simply calls Read again for the rest — there is no separate
// "remaining capacity" counter to unwind, because the queue's length
// after the copy already is the remaining capacity.
func (tc *Transcoder) Read(buf []byte) (int, error) {
	if tc.complete && len(tc.queue) == 0 {
		if tc.lastErr != nil {
			return 0, tc.lastErr
		}
		return 0, io.EOF
	}
	for len(tc.queue) == 0 {
		msg, err := tc.conn.Receive(context.Background())
		if errors.Is(err, transport.ErrInterrupted) {
			return 0, nil
		}
		if err != nil {
			tc.fail(&yamlerr.ReaderError{Err: err})
			return 0, tc.lastErr
		}

		switch {
		case msg.Header.IsError():
			if msg.Errno != 0 {
				tc.fail(&yamlerr.ReaderError{Err: fmt.Errorf("lnetyaml: kernel error %d: %s", msg.Errno, msg.ExtAck)})
				return 0, tc.lastErr
			}
			// A bare ACK (Errno == 0) carries no YAML; keep reading.
		case msg.Header.IsDone():
			tc.finish()
			return 0, nil
		case msg.Header.IsSchema():
			if tc.tree.Sealed() {
				tc.lastSkipped = &yamlerr.ReaderError{Err: yamlerr.ErrSchemaSealed}
				continue
			}
			if err := tc.intakeSchema(msg.Body); err != nil {
				tc.fail(&yamlerr.ReaderError{Err: err})
				return 0, tc.lastErr
			}
		default:
			tc.tree.Seal()
			if err := tc.intakeValue(msg.Body); err != nil {
				tc.fail(&yamlerr.ReaderError{Err: err})
				return 0, tc.lastErr
			}
			if !msg.Header.IsMulti() {
				tc.finish()
			}
		}
	}

	n := copy(buf, tc.queue)
	tc.queue = tc.queue[n:]
	return n, nil
}

func (tc *Transcoder) fail(err error) {
	tc.lastErr = err
	tc.complete = true
}

func (tc *Transcoder) finish() {
	tc.tree.Destroy()
	tc.complete = true
}

// intakeSchema parses one schema message's body — a single top-level
// LIST attribute whose children are key records — into the tree's root
// node (creating it, the first time) or further sealed-free levels.
func (tc *Transcoder) intakeSchema(body []byte) error {
	raws, err := attr.Split(body)
	if err != nil {
		return fmt.Errorf("lnetyaml: schema message: %w", err)
	}
	if len(raws) != 1 || raws[0].Tag != tagList {
		return fmt.Errorf("lnetyaml: schema message: expected one top-level LIST attribute, got %d", len(raws))
	}
	records, err := attr.Split(raws[0].Data)
	if err != nil {
		return fmt.Errorf("lnetyaml: schema message: %w", err)
	}

	parent := -1
	if tc.tree.Root() != -1 {
		parent = tc.tree.Root()
	}
	_, err = tc.intakeSchemaLevel(parent, records)
	return err
}

// intakeSchemaLevel builds one schema node from a flat record sequence,
// recursing into any record that carries its own LIST field (spec §6:
// "LIST ... nested: recursive schema for a nested level").
func (tc *Transcoder) intakeSchemaLevel(parent int, records []attr.Raw) (int, error) {
	nodeIdx := -1
	for i, rec := range records {
		if rec.Tag != tagList {
			return -1, fmt.Errorf("lnetyaml: schema record %d: unexpected tag %d", i, rec.Tag)
		}
		fields, err := attr.Split(rec.Data)
		if err != nil {
			return -1, fmt.Errorf("lnetyaml: schema record %d: %w", i, err)
		}

		var (
			haveIndex, haveListSize   bool
			index, listSize, nlaType int
			keyFormat                schema.Format
			name                     string
			childRecords             []attr.Raw
			hasChild                 bool
		)
		for _, f := range fields {
			switch f.Tag {
			case tagIndex:
				v, err := attr.Decode(f, attr.KindU16)
				if err != nil {
					return -1, fmt.Errorf("lnetyaml: schema record %d: INDEX: %w", i, err)
				}
				index, haveIndex = int(v.U), true
			case tagListSize:
				v, err := attr.Decode(f, attr.KindU16)
				if err != nil {
					return -1, fmt.Errorf("lnetyaml: schema record %d: LIST_SIZE: %w", i, err)
				}
				listSize, haveListSize = int(v.U), true
			case tagNLAType:
				v, err := attr.Decode(f, attr.KindU16)
				if err != nil {
					return -1, fmt.Errorf("lnetyaml: schema record %d: NLA_TYPE: %w", i, err)
				}
				nlaType = int(v.U)
			case tagValue:
				v, err := attr.Decode(f, attr.KindString)
				if err != nil {
					return -1, fmt.Errorf("lnetyaml: schema record %d: VALUE: %w", i, err)
				}
				name = v.String()
			case tagKeyFormat:
				v, err := attr.Decode(f, attr.KindU16)
				if err != nil {
					return -1, fmt.Errorf("lnetyaml: schema record %d: KEY_FORMAT: %w", i, err)
				}
				keyFormat = schema.Format(v.U)
			case tagList:
				children, err := attr.Split(f.Data)
				if err != nil {
					return -1, fmt.Errorf("lnetyaml: schema record %d: LIST: %w", i, err)
				}
				childRecords, hasChild = children, true
			}
		}

		if i == 0 {
			if !haveListSize {
				return -1, fmt.Errorf("lnetyaml: schema level: first record missing LIST_SIZE")
			}
			nodeIdx, err = tc.tree.InsertNode(parent, listSize+1)
			if err != nil {
				return -1, err
			}
		}
		if !haveIndex {
			return -1, fmt.Errorf("lnetyaml: schema record %d: missing INDEX", i)
		}

		dataType := attr.Kind(nlaType)
		if hasChild {
			dataType = attr.KindNested
		}
		if err := tc.tree.SetKey(nodeIdx, index, schema.Descriptor{
			Name:     name,
			DataType: dataType,
			Format:   keyFormat,
		}); err != nil {
			return -1, err
		}

		if hasChild {
			if _, err := tc.intakeSchemaLevel(nodeIdx, childRecords); err != nil {
				return -1, err
			}
		}
	}
	return nodeIdx, nil
}
