// Copyright 2025 The go-yaml Project Contributors
// SPDX-License-Identifier: Apache-2.0

// Package attr implements the attribute codec: decoding and encoding of
// length-prefixed, typed netlink attributes carried inside a generic
// netlink message body.
//
// It knows nothing about schema trees or YAML; it only understands the
// wire shape of one attribute (a 4-byte nlattr header followed by
// 4-byte-aligned payload) and the primitive value it carries.
package attr

import "fmt"

// Kind tags the primitive type of an attribute's value. It is the Go
// spelling of spec's "primitive attribute type" and of a key
// descriptor's data_type field.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindU16
	KindU32
	KindU64
	KindS16
	KindS32
	KindS64
	KindString    // opaque string, not required to be NUL-terminated on the wire
	KindNulString // a "label": NUL-terminated once surfaced
	KindNested    // a container of further attributes
)

func (k Kind) String() string {
	switch k {
	case KindU16:
		return "u16"
	case KindU32:
		return "u32"
	case KindU64:
		return "u64"
	case KindS16:
		return "s16"
	case KindS32:
		return "s32"
	case KindS64:
		return "s64"
	case KindString:
		return "string"
	case KindNulString:
		return "label"
	case KindNested:
		return "nested"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// IsScalar reports whether values of this kind render as a plain YAML
// scalar (as opposed to a container or a group label).
func (k Kind) IsScalar() bool {
	switch k {
	case KindU16, KindU32, KindU64, KindS16, KindS32, KindS64, KindString:
		return true
	}
	return false
}
