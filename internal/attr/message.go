// Copyright 2025 The go-yaml Project Contributors
// SPDX-License-Identifier: Apache-2.0

package attr

import "encoding/binary"

// Message is a growing netlink attribute sequence. It backs both the
// body of an outbound generic-netlink message (component D) and, via
// BeginNested/EndNested, any container attribute nested inside it.
type Message struct {
	buf []byte
}

// NewMessage returns an empty Message ready to append attributes to.
func NewMessage() *Message {
	return &Message{buf: make([]byte, 0, 256)}
}

// Bytes returns the encoded attribute sequence built so far.
func (m *Message) Bytes() []byte { return m.buf }

// Len reports how many bytes have been encoded so far.
func (m *Message) Len() int { return len(m.buf) }

func (m *Message) appendHeader(tag uint16) {
	var hdr [headerLen]byte
	binary.LittleEndian.PutUint16(hdr[2:4], tag)
	// length is back-patched once the payload is known.
	m.buf = append(m.buf, hdr[:]...)
}

func (m *Message) padTo4() {
	for len(m.buf)%alignTo != 0 {
		m.buf = append(m.buf, 0)
	}
}

func (m *Message) patchLength(offset int) {
	total := len(m.buf) - offset
	binary.LittleEndian.PutUint16(m.buf[offset:offset+2], uint16(total))
}

// EncodeU16 appends a u16-tagged attribute.
func (m *Message) EncodeU16(tag uint16, v uint16) {
	offset := len(m.buf)
	m.appendHeader(tag)
	var p [2]byte
	binary.LittleEndian.PutUint16(p[:], v)
	m.buf = append(m.buf, p[:]...)
	m.patchLength(offset)
	m.padTo4()
}

// EncodeU32 appends a u32-tagged attribute.
func (m *Message) EncodeU32(tag uint16, v uint32) {
	offset := len(m.buf)
	m.appendHeader(tag)
	var p [4]byte
	binary.LittleEndian.PutUint32(p[:], v)
	m.buf = append(m.buf, p[:]...)
	m.patchLength(offset)
	m.padTo4()
}

// EncodeU64 appends a u64-tagged attribute.
func (m *Message) EncodeU64(tag uint16, v uint64) {
	offset := len(m.buf)
	m.appendHeader(tag)
	var p [8]byte
	binary.LittleEndian.PutUint64(p[:], v)
	m.buf = append(m.buf, p[:]...)
	m.patchLength(offset)
	m.padTo4()
}

// EncodeS16 appends a signed 16-bit attribute.
func (m *Message) EncodeS16(tag uint16, v int16) { m.EncodeU16(tag, uint16(v)) }

// EncodeS32 appends a signed 32-bit attribute.
func (m *Message) EncodeS32(tag uint16, v int32) { m.EncodeU32(tag, uint32(v)) }

// EncodeS64 appends a signed 64-bit attribute, tolerating any resulting
// buffer alignment (see Decode's KindS64 case for the matching concern
// on read-back).
func (m *Message) EncodeS64(tag uint16, v int64) { m.EncodeU64(tag, uint64(v)) }

// EncodeString appends a string-tagged attribute. The string is not
// NUL-terminated on the wire; framing carries its length.
func (m *Message) EncodeString(tag uint16, s string) {
	offset := len(m.buf)
	m.appendHeader(tag)
	m.buf = append(m.buf, s...)
	m.patchLength(offset)
	m.padTo4()
}

// NestedHandle records where a container attribute's header was opened,
// so EndNested can back-patch its length once every child attribute has
// been appended.
type NestedHandle struct {
	offset int
}

// BeginNested opens a nested (container) attribute and returns a handle
// to close it later with EndNested. Children are encoded by further
// calls against the same Message between Begin and End.
func (m *Message) BeginNested(tag uint16) NestedHandle {
	offset := len(m.buf)
	m.appendHeader(tag)
	return NestedHandle{offset: offset}
}

// EndNested closes a container opened by BeginNested, back-patching its
// length to cover everything appended since.
func (m *Message) EndNested(h NestedHandle) {
	m.patchLength(h.offset)
	m.padTo4()
}
