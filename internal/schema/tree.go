// Copyright 2025 The go-yaml Project Contributors
// SPDX-License-Identifier: Apache-2.0

// Package schema implements the in-memory key-descriptor tree cached
// from an inbound schema message: a flat arena of nodes, one per
// nesting level, addressed by index rather than by pointer (spec's
// design note: "nodes are never deleted mid-session and children are
// always iterated in declaration order," the same property
// internal/libyaml leans on to keep its token and event queues as flat
// slices instead of linked lists).
package schema

import (
	"errors"
	"fmt"

	"github.com/chaos/lnetyaml/internal/attr"
)

// ErrSealed is returned by InsertNode once a value batch has been
// processed: invariant 3 forbids further schema-create messages.
var ErrSealed = errors.New("schema: tree is sealed, schema-create after values seen")

// Descriptor is an immutable key descriptor: index, name, declared
// value type, and rendering format. index 0 is the reserved sentinel
// and is never populated by SetKey with a non-zero descriptor in normal
// use.
type Descriptor struct {
	Index      int
	Name       string
	DataType   attr.Kind
	Format     Format
	Default    string
	HasDefault bool
}

// Node is one level of the key tree: a slot-addressable key table plus
// the arena indices of its nested children, in declaration order.
type Node struct {
	MaxIndex int
	Keys     []Descriptor // Keys[i] describes the key at index i; Keys[0] unused
	Children []int        // arena index per nested-typed key, in declaration order
	set      []bool       // tracks which slots have been populated, for duplicate detection
}

// Tree owns every Node allocated for one session's schema, plus the
// sealed flag that enforces invariant 3.
type Tree struct {
	nodes  []Node
	root   int
	sealed bool
}

// New returns an empty Tree with no root node yet.
func New() *Tree {
	return &Tree{root: -1}
}

// Root returns the root node's arena index, or -1 if no schema message
// has been processed yet.
func (t *Tree) Root() int { return t.root }

// Sealed reports whether a value batch has already been processed.
func (t *Tree) Sealed() bool { return t.sealed }

// Seal marks the tree sealed; called by the inbound transcoder the
// first time it processes a value batch.
func (t *Tree) Seal() { t.sealed = true }

// InsertNode allocates a new node with maxIndex slots (inclusive of the
// sentinel slot 0) and links it as the parent's next nested child in
// declaration order. Pass parent -1 to create the root; root may only
// be created once.
func (t *Tree) InsertNode(parent, maxIndex int) (int, error) {
	if t.sealed {
		return -1, ErrSealed
	}
	if maxIndex < 1 {
		return -1, fmt.Errorf("schema: max_index %d must be at least 1 (the sentinel slot)", maxIndex)
	}
	idx := len(t.nodes)
	t.nodes = append(t.nodes, Node{
		MaxIndex: maxIndex,
		Keys:     make([]Descriptor, maxIndex),
		set:      make([]bool, maxIndex),
	})

	if parent == -1 {
		if t.root != -1 {
			return -1, errors.New("schema: root already created")
		}
		t.root = idx
		return idx, nil
	}
	if parent < 0 || parent >= idx {
		return -1, fmt.Errorf("schema: parent node %d does not exist", parent)
	}
	t.nodes[parent].Children = append(t.nodes[parent].Children, idx)
	return idx, nil
}

// SetKey populates slot index of node nodeIdx. Setting the same index
// twice is a protocol error (spec §3, "duplicate sets at the same
// index are an error").
func (t *Tree) SetKey(nodeIdx, index int, d Descriptor) error {
	n, err := t.node(nodeIdx)
	if err != nil {
		return err
	}
	if index < 0 || index >= n.MaxIndex {
		return fmt.Errorf("schema: index %d out of range [0,%d)", index, n.MaxIndex)
	}
	if n.set[index] {
		return fmt.Errorf("schema: duplicate key set at index %d", index)
	}
	d.Index = index
	n.Keys[index] = d
	n.set[index] = true
	return nil
}

// ChildOf returns the arena index of the ordinal-th nested child of
// nodeIdx (0-based), used by the value-phase traversal to descend into
// nested attributes in declaration order.
func (t *Tree) ChildOf(nodeIdx, ordinal int) (int, error) {
	n, err := t.node(nodeIdx)
	if err != nil {
		return -1, err
	}
	if ordinal < 0 || ordinal >= len(n.Children) {
		return -1, fmt.Errorf("schema: no nested child at ordinal %d (node has %d)", ordinal, len(n.Children))
	}
	return n.Children[ordinal], nil
}

// Node returns a pointer to the node at idx for read access (key table,
// child count). The returned pointer is invalidated by any further
// InsertNode call, as with any slice-backed arena.
func (t *Tree) Node(idx int) (*Node, error) {
	return t.node(idx)
}

func (t *Tree) node(idx int) (*Node, error) {
	if idx < 0 || idx >= len(t.nodes) {
		return nil, fmt.Errorf("schema: node index %d out of range", idx)
	}
	return &t.nodes[idx], nil
}

// Destroy walks the arena in reverse allocation order, so every node is
// cleared after all of its descendants (post-order), dropping every
// owned string (key names and defaults) before releasing the node table
// itself. Go's
// allocator doesn't need this to reclaim memory, but the session
// lifecycle (spec §3, "Lifecycle") names an explicit teardown step, and
// dropping the string references here lets anything still holding a
// *Tree observe a cleanly emptied structure rather than stale data.
func (t *Tree) Destroy() {
	for i := len(t.nodes) - 1; i >= 0; i-- {
		for j := range t.nodes[i].Keys {
			t.nodes[i].Keys[j] = Descriptor{}
		}
		t.nodes[i].Children = nil
	}
	t.nodes = nil
	t.root = -1
	t.sealed = true
}
