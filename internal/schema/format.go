// Copyright 2025 The go-yaml Project Contributors
// SPDX-License-Identifier: Apache-2.0

package schema

// Format is the bitset over {FLOW, SEQUENCE, MAPPING} a container-typed
// key carries, governing how the inbound transcoder renders it and how
// the outbound transcoder's indentation inference reconstructs it.
type Format uint8

const (
	FormatNone Format = 0
	// FlowFlag selects `[...]`/`{...}` rendering instead of block
	// indentation; mutually exclusive with block style.
	FlowFlag Format = 1 << 0
	// SequenceFlag introduces each child entry with `- `.
	SequenceFlag Format = 1 << 1
	// MappingFlag introduces each child entry with `k: `. May co-occur
	// with SequenceFlag (a sequence of mappings).
	MappingFlag Format = 1 << 2
	// endMarker is the END bit of the bitset. It never appears in a
	// schema message from the kernel, and the outbound transcoder does
	// not use it: that package tracks container closes with its own
	// indentation stack.
	endMarker Format = 1 << 3
)

func (f Format) Flow() bool     { return f&FlowFlag != 0 }
func (f Format) Sequence() bool { return f&SequenceFlag != 0 }
func (f Format) Mapping() bool  { return f&MappingFlag != 0 }
func (f Format) end() bool      { return f&endMarker != 0 }

// EndMarker returns the internal END format bit.
func EndMarker() Format { return endMarker }

func (f Format) String() string {
	if f == FormatNone {
		return "none"
	}
	s := ""
	if f.Flow() {
		s += "flow,"
	}
	if f.Sequence() {
		s += "sequence,"
	}
	if f.Mapping() {
		s += "mapping,"
	}
	if f.end() {
		s += "end,"
	}
	if len(s) > 0 {
		s = s[:len(s)-1]
	}
	return s
}
