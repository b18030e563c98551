// Copyright 2025 The go-yaml Project Contributors
// SPDX-License-Identifier: Apache-2.0

package attr

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrSkip is wrapped by Decode's error when the expected Kind is unknown
// (including KindInvalid, which Policy.Expect reports for a tag outside
// the policy) or the payload is too short for the expected Kind. It is
// a skip signal, not a batch-aborting error — the
// caller drops the one attribute and keeps decoding the rest of the
// batch (spec's "policy table" behavior).
var ErrSkip = errors.New("attr: attribute out of policy, skipping")

// Raw is one attribute as split out of a netlink message body: a tag
// and its payload, with framing and alignment already stripped.
type Raw struct {
	Tag  uint16
	Data []byte
}

// Policy maps a 1-based slot index to the Kind expected at that index,
// mirroring a schema node's keys[i].data_type. Policy[0] is always the
// unused sentinel slot.
type Policy []Kind

// PolicyFor builds a Policy slice sized maxIndex from a lookup function,
// the Go spelling of "a short slice derived from the current schema
// node" (spec design notes, §9).
func PolicyFor(maxIndex int, kindAt func(i int) Kind) Policy {
	p := make(Policy, maxIndex)
	for i := 1; i < maxIndex; i++ {
		p[i] = kindAt(i)
	}
	return p
}

// Expect reports the expected Kind for slot i, or KindInvalid if i is
// out of range.
func (p Policy) Expect(i int) Kind {
	if i <= 0 || i >= len(p) {
		return KindInvalid
	}
	return p[i]
}

// Value is a decoded scalar attribute. Exactly one of U, S, or Bytes is
// meaningful, selected by Kind — a tagged variant switched on by value,
// never by interface dispatch (spec design note, §9).
type Value struct {
	Kind  Kind
	U     uint64
	S     int64
	Bytes []byte // borrowed view into the original message buffer
}

// String returns a freshly allocated copy of a string-kind Value. Most
// call sites use Bytes directly (a zero-copy borrow); String exists for
// the few call sites — schema label storage — that must outlive the
// message buffer.
func (v Value) String() string {
	return string(v.Bytes)
}

// Decode interprets raw per the policy's expectation for raw.Tag-derived
// slot index. Callers pass the expected Kind directly (resolved from the
// schema by the caller) rather than the raw wire type, because generic
// netlink attributes don't self-describe their primitive type on the
// wire — the schema does.
func Decode(raw Raw, want Kind) (Value, error) {
	switch want {
	case KindU16:
		if len(raw.Data) < 2 {
			return Value{}, fmt.Errorf("attr: short u16 payload (%d bytes): %w", len(raw.Data), ErrSkip)
		}
		return Value{Kind: want, U: uint64(binary.LittleEndian.Uint16(raw.Data))}, nil

	case KindU32:
		if len(raw.Data) < 4 {
			return Value{}, fmt.Errorf("attr: short u32 payload (%d bytes): %w", len(raw.Data), ErrSkip)
		}
		return Value{Kind: want, U: uint64(binary.LittleEndian.Uint32(raw.Data))}, nil

	case KindU64:
		if len(raw.Data) < 8 {
			return Value{}, fmt.Errorf("attr: short u64 payload (%d bytes): %w", len(raw.Data), ErrSkip)
		}
		return Value{Kind: want, U: binary.LittleEndian.Uint64(raw.Data)}, nil

	case KindS16:
		if len(raw.Data) < 2 {
			return Value{}, fmt.Errorf("attr: short s16 payload (%d bytes): %w", len(raw.Data), ErrSkip)
		}
		return Value{Kind: want, S: int64(int16(binary.LittleEndian.Uint16(raw.Data)))}, nil

	case KindS32:
		if len(raw.Data) < 4 {
			return Value{}, fmt.Errorf("attr: short s32 payload (%d bytes): %w", len(raw.Data), ErrSkip)
		}
		return Value{Kind: want, S: int64(int32(binary.LittleEndian.Uint32(raw.Data)))}, nil

	case KindS64:
		// Tolerate any byte alignment: a plain slice index carries no
		// hardware alignment requirement in Go, unlike the C producers
		// this format originates from.
		if len(raw.Data) < 8 {
			return Value{}, fmt.Errorf("attr: short s64 payload (%d bytes): %w", len(raw.Data), ErrSkip)
		}
		return Value{Kind: want, S: int64(binary.LittleEndian.Uint64(raw.Data))}, nil

	case KindString, KindNulString:
		data := raw.Data
		if n := indexNul(data); n >= 0 {
			data = data[:n]
		}
		return Value{Kind: want, Bytes: data}, nil

	case KindNested:
		return Value{Kind: want, Bytes: raw.Data}, nil
	}

	return Value{}, fmt.Errorf("attr: unknown expected kind %v: %w", want, ErrSkip)
}

func indexNul(b []byte) int {
	for i, c := range b {
		if c == 0 {
			return i
		}
	}
	return -1
}
