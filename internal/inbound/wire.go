// Copyright 2025 The go-yaml Project Contributors
// SPDX-License-Identifier: Apache-2.0

package inbound

// Attribute tags used inside a schema message's key records (spec §6,
// "Wire — inbound schema message"). A record carries a subset of these;
// LIST nests a further record sequence for the next schema level, and
// LIST reused at the top of the message frames the whole record
// sequence.
const (
	tagList      uint16 = 1 // nested: record sequence (top-level, or a nested level)
	tagListSize  uint16 = 2 // u16: max_index - 1 for a LIST's record sequence
	tagIndex     uint16 = 3 // u16: this record's slot index within its level
	tagNLAType   uint16 = 4 // u16: attr.Kind code for this key's declared value type
	tagValue     uint16 = 5 // string: key name (or, for a root group label, the label text)
	tagKeyFormat uint16 = 6 // u16: schema.Format bitset
)
