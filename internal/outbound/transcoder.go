// Copyright 2025 The go-yaml Project Contributors
// SPDX-License-Identifier: Apache-2.0

// Package outbound implements the outbound transcoder (spec §4.D): it
// parses emitted YAML text line by line, infers structure from
// indentation and bracket tokens, and shapes the result into a
// generic-netlink message of typed attributes sent over a
// transport.Conn. Transcoder implements io.Writer, the idiomatic
// equivalent of spec's writer-callback contract — a YAML engine such
// as gopkg.in/yaml.v3's Encoder writes into it exactly like any other
// io.Writer.
package outbound

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/chaos/lnetyaml/internal/attr"
	"github.com/chaos/lnetyaml/internal/transport"
	"github.com/chaos/lnetyaml/internal/yamlerr"
)

// tagVal is the single attribute tag used for every body attribute —
// name strings, value strings, and nested containers alike. The wire
// format carries structure through nesting and line order, not through
// per-attribute type tags (spec §6, "the receiver reconciles against
// its own schema").
const tagVal uint16 = 1

// frame is one open nested attribute on the structure-inference stack.
// childIndent is the indentation at which this frame's direct children
// are expected; root (the implicit message body, not itself nested in
// anything) has no handle.
type frame struct {
	childIndent int
	handle      attr.NestedHandle
	hasHandle   bool
}

// Transcoder renders incoming YAML text into one outgoing
// generic-netlink message per blank-line-terminated document.
type Transcoder struct {
	conn    transport.Conn
	family  uint16
	version uint8
	cmd     uint8
	flags   uint16

	lineBuf bytes.Buffer

	msg           *attr.Message
	stack         []frame
	groupResolved bool
	groupID       uint32
	sawAnyBody    bool

	lastErr error
}

// New returns a Transcoder that stamps every outgoing message with the
// given family/version/command/flags and sends it over conn.
func New(conn transport.Conn, family uint16, version, cmd uint8, flags uint16) *Transcoder {
	return &Transcoder{conn: conn, family: family, version: version, cmd: cmd, flags: flags}
}

// LastError returns the error that ended the session, if any.
func (tc *Transcoder) LastError() error { return tc.lastErr }

// Write implements io.Writer. It buffers p, processes every complete
// line it now holds, and leaves any trailing partial line buffered for
// the next call — spec's "receives YAML text fragments (multiple
// lines per call)".
func (tc *Transcoder) Write(p []byte) (int, error) {
	if tc.lastErr != nil {
		return 0, tc.lastErr
	}
	tc.lineBuf.Write(p)
	for {
		buf := tc.lineBuf.Bytes()
		nl := bytes.IndexByte(buf, '\n')
		if nl < 0 {
			break
		}
		line := string(buf[:nl])
		tc.lineBuf.Next(nl + 1)
		if err := tc.processLine(line); err != nil {
			tc.lastErr = err
			return len(p), err
		}
	}
	return len(p), nil
}

func (tc *Transcoder) processLine(raw string) error {
	line, err := substituteQuotes(raw)
	if err != nil {
		return &yamlerr.EmitterError{Err: yamlerr.ErrProtocolFraming, Message: err.Error()}
	}

	trimmed := strings.TrimSpace(line)
	switch trimmed {
	case "---", "...":
		return nil
	case "":
		return tc.flush()
	}

	if tc.msg == nil {
		tc.msg = attr.NewMessage()
		tc.stack = []frame{{childIndent: 0}}
	}

	if !tc.groupResolved {
		return tc.resolveGroupLine(line)
	}

	return tc.emitBodyLine(line)
}

// resolveGroupLine handles spec step 2: the first unindented `key:`
// line names the multicast group. Like any other bare key, it opens a
// nested attribute with no name attribute; its own indented (or, for a
// single-line flow body, inline) content is encoded inside it.
func (tc *Transcoder) resolveGroupLine(line string) error {
	indent := leadingSpaces(line)
	text := strings.TrimSpace(line)
	if indent != 0 {
		return &yamlerr.EmitterError{Err: yamlerr.ErrProtocolFraming, Message: "outbound: first body line must be an unindented group name"}
	}

	name, rest, hasFlow := splitGroupLine(text)
	id, ok := tc.conn.ResolveGroup(name)
	if !ok {
		return &yamlerr.EmitterError{Err: yamlerr.ErrUnknownGroup, Message: fmt.Sprintf("outbound: multicast group %q not found", name)}
	}
	tc.groupID = id
	tc.groupResolved = true

	h := tc.msg.BeginNested(tagVal)
	tc.stack = append(tc.stack, frame{childIndent: indent + 2, handle: h, hasHandle: true})

	if hasFlow {
		entries := splitFlowEntries(rest)
		return tc.emitFlowEntries(entries)
	}
	return nil
}

// splitGroupLine separates "name:" from a trailing inline flow body, if
// any (the group line and its whole body can share one line when the
// emitter produced flow-style output, e.g. `net: { ... }`).
func splitGroupLine(text string) (name, rest string, hasFlow bool) {
	name = strings.TrimSuffix(text, ":")
	if name != text {
		return name, "", false
	}
	colon := strings.Index(text, ": ")
	if colon < 0 {
		return text, "", false
	}
	name = text[:colon]
	rest = strings.TrimSpace(text[colon+1:])
	return name, rest, true
}

func (tc *Transcoder) emitBodyLine(line string) error {
	indent := leadingSpaces(line)
	text := line[indent:]

	isSeqItem := strings.HasPrefix(text, "- ")
	if isSeqItem {
		text = text[2:]
		indent += 2
	}

	for len(tc.stack) > 1 && tc.stack[len(tc.stack)-1].childIndent > indent {
		tc.closeTop()
	}

	if isSeqItem {
		h := tc.msg.BeginNested(tagVal)
		tc.stack = append(tc.stack, frame{childIndent: indent + 2, handle: h, hasHandle: true})
	}

	return tc.emitEntry(text, indent)
}

// emitEntry emits the attribute(s) for one logical YAML entry. A bare
// key (`name:`) opens a nested container attribute — its identity is
// carried by nesting position alone, not by a preceding name attribute
// (spec §4.D / §6: "wire conveys structure via nesting, not per-value
// type tags"). A scalar entry (`name: value`) emits two sibling string
// attributes, name then value, since a bare value alone would carry no
// identity at all.
func (tc *Transcoder) emitEntry(text string, indent int) error {
	if _, ok := bareKey(text); ok {
		h := tc.msg.BeginNested(tagVal)
		tc.stack = append(tc.stack, frame{childIndent: indent + 2, handle: h, hasHandle: true})
		tc.sawAnyBody = true
		return nil
	}

	name, value, ok := splitKeyValue(text)
	if !ok {
		return &yamlerr.EmitterError{Err: yamlerr.ErrProtocolFraming, Message: fmt.Sprintf("outbound: unparseable body line %q", text)}
	}
	tc.sawAnyBody = true

	if strings.ContainsAny(value, "{[") {
		h := tc.msg.BeginNested(tagVal)
		err := tc.emitFlowEntries(splitFlowEntries(value))
		tc.msg.EndNested(h)
		return err
	}

	tc.emitString(name)
	tc.emitString(value)
	return nil
}

// emitFlowEntries tokenizes a FLOW container's comma-separated content
// (already stripped of its outer bracket by the caller where
// applicable) and emits each entry, recursing into any entry that is
// itself a nested flow container.
func (tc *Transcoder) emitFlowEntries(entries []string) error {
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if _, inner, _, ok := splitFlowNamedContainer(e); ok {
			h := tc.msg.BeginNested(tagVal)
			err := tc.emitFlowEntries(splitFlowEntries(inner))
			tc.msg.EndNested(h)
			if err != nil {
				return err
			}
			continue
		}
		name, value, ok := splitKeyValue(e)
		if !ok {
			return &yamlerr.EmitterError{Err: yamlerr.ErrProtocolFraming, Message: fmt.Sprintf("outbound: unparseable flow entry %q", e)}
		}
		tc.emitString(name)
		tc.emitString(value)
	}
	tc.sawAnyBody = tc.sawAnyBody || len(entries) > 0
	return nil
}

// emitString appends a string attribute into whatever nested scope is
// currently open (or the message's top level, if none is).
func (tc *Transcoder) emitString(s string) {
	tc.msg.EncodeString(tagVal, s)
}

func (tc *Transcoder) closeTop() {
	top := tc.stack[len(tc.stack)-1]
	tc.stack = tc.stack[:len(tc.stack)-1]
	if top.hasHandle {
		tc.msg.EndNested(top.handle)
	}
}

// flush closes every remaining open frame, sends the message (or a
// command-only message if the body produced no attributes), and resets
// state for the next document (spec §4.D step 5).
func (tc *Transcoder) flush() error {
	if tc.msg == nil {
		return nil
	}
	if !tc.groupResolved {
		tc.lastErr = &yamlerr.EmitterError{Err: yamlerr.ErrNoGroup, Message: "outbound: no multicast group named"}
		return tc.lastErr
	}
	for len(tc.stack) > 1 {
		tc.closeTop()
	}

	body := tc.msg.Bytes()
	if !tc.sawAnyBody {
		body = nil
	}
	msg := transport.Message{
		Header: transport.Header{
			Type:    tc.family,
			Flags:   tc.flags,
			PID:     tc.conn.PID(),
			Cmd:     tc.cmd,
			Version: tc.version,
		},
		Body: body,
	}
	if err := tc.conn.JoinGroup(tc.groupID); err != nil {
		tc.lastErr = &yamlerr.WriterError{Err: err}
		return tc.lastErr
	}
	if err := tc.conn.Send(context.Background(), msg); err != nil {
		tc.lastErr = &yamlerr.WriterError{Err: err}
		return tc.lastErr
	}

	tc.msg = nil
	tc.stack = nil
	tc.groupResolved = false
	tc.groupID = 0
	tc.sawAnyBody = false
	return nil
}

func leadingSpaces(s string) int {
	n := 0
	for n < len(s) && s[n] == ' ' {
		n++
	}
	return n
}

// bareKey reports whether text is a key with no value on its own line
// ("name:", opening a nested container).
func bareKey(text string) (string, bool) {
	if strings.HasSuffix(text, ":") && !strings.Contains(text, ": ") {
		return strings.TrimSuffix(text, ":"), true
	}
	return "", false
}

// splitKeyValue splits "name: value" at the first ": ".
func splitKeyValue(text string) (name, value string, ok bool) {
	i := strings.Index(text, ": ")
	if i < 0 {
		return "", "", false
	}
	return text[:i], strings.TrimSpace(text[i+2:]), true
}

// splitFlowNamedContainer recognizes "name: { ... }" / "name: [ ... ]"
// as a single flow token and returns its name, inner content, and
// opening bracket.
func splitFlowNamedContainer(entry string) (name, inner string, open byte, ok bool) {
	i := strings.Index(entry, ": ")
	if i < 0 {
		return "", "", 0, false
	}
	rest := strings.TrimSpace(entry[i+2:])
	if len(rest) < 2 {
		return "", "", 0, false
	}
	first := rest[0]
	last := rest[len(rest)-1]
	if (first == '{' && last == '}') || (first == '[' && last == ']') {
		return entry[:i], strings.TrimSpace(rest[1 : len(rest)-1]), first, true
	}
	return "", "", 0, false
}

// splitFlowEntries splits s on top-level commas, respecting nested
// bracket depth so an inner flow container's own commas aren't treated
// as separators. s is the content between (not including) a container's
// outer brackets.
func splitFlowEntries(s string) []string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "{")
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "}")
	s = strings.TrimSuffix(s, "]")
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	var entries []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{', '[':
			depth++
		case '}', ']':
			depth--
		case ',':
			if depth == 0 {
				entries = append(entries, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	entries = append(entries, strings.TrimSpace(s[start:]))
	return entries
}

// substituteQuotes implements spec §4.D step 1: each single- or
// double-quoted segment is replaced with "% <content> %", quote
// characters dropped. An unterminated quote is reported to the caller
// as unbalanced input (spec §9 Open Question, resolved: reject with an
// emitter error).
func substituteQuotes(line string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(line); {
		c := line[i]
		if c == '\'' || c == '"' {
			j := strings.IndexByte(line[i+1:], c)
			if j < 0 {
				return "", fmt.Errorf("unbalanced quote starting at column %d", i)
			}
			b.WriteString("% ")
			b.WriteString(line[i+1 : i+1+j])
			b.WriteString(" %")
			i = i + 1 + j + 1
			continue
		}
		b.WriteByte(c)
		i++
	}
	return b.String(), nil
}
