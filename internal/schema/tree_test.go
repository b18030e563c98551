// Copyright 2025 The go-yaml Project Contributors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaos/lnetyaml/internal/attr"
)

func buildS1(t *testing.T) *Tree {
	t.Helper()
	tree := New()
	root, err := tree.InsertNode(-1, 3)
	require.NoError(t, err)
	require.NoError(t, tree.SetKey(root, 1, Descriptor{Name: "net", DataType: attr.KindNulString, Format: MappingFlag}))
	require.NoError(t, tree.SetKey(root, 2, Descriptor{Name: "mtu", DataType: attr.KindU32}))
	return tree
}

func TestTreeBasicShape(t *testing.T) {
	tree := buildS1(t)
	node, err := tree.Node(tree.Root())
	require.NoError(t, err)
	assert.Equal(t, 3, node.MaxIndex)
	assert.Equal(t, "net", node.Keys[1].Name)
	assert.Equal(t, attr.KindU32, node.Keys[2].DataType)
	assert.Empty(t, node.Keys[0].Name, "slot 0 is the sentinel and is never dereferenced as a user key")
}

func TestDuplicateSetIsError(t *testing.T) {
	tree := buildS1(t)
	err := tree.SetKey(tree.Root(), 1, Descriptor{Name: "again"})
	assert.Error(t, err)
}

func TestSealedTreeRejectsNewNodes(t *testing.T) {
	tree := buildS1(t)
	tree.Seal()
	_, err := tree.InsertNode(-1, 2)
	assert.ErrorIs(t, err, ErrSealed)
}

func TestNestedChildOrderAndLookup(t *testing.T) {
	tree := New()
	root, err := tree.InsertNode(-1, 2)
	require.NoError(t, err)
	require.NoError(t, tree.SetKey(root, 1, Descriptor{Name: "nets", DataType: attr.KindNested, Format: SequenceFlag | MappingFlag}))

	child, err := tree.InsertNode(root, 4)
	require.NoError(t, err)
	require.NoError(t, tree.SetKey(child, 1, Descriptor{Name: "nid", DataType: attr.KindString}))
	require.NoError(t, tree.SetKey(child, 2, Descriptor{Name: "status", DataType: attr.KindString}))
	require.NoError(t, tree.SetKey(child, 3, Descriptor{Name: "refcount", DataType: attr.KindU32}))

	got, err := tree.ChildOf(root, 0)
	require.NoError(t, err)
	assert.Equal(t, child, got)

	_, err = tree.ChildOf(root, 1)
	assert.Error(t, err, "only one nested child was declared")
}

func TestDestroyClearsTree(t *testing.T) {
	tree := buildS1(t)
	tree.Destroy()
	assert.Equal(t, -1, tree.Root())
	assert.True(t, tree.Sealed())
}

func TestSecondRootRejected(t *testing.T) {
	tree := buildS1(t)
	_, err := tree.InsertNode(-1, 2)
	assert.Error(t, err)
}
