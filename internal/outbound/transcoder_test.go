// Copyright 2025 The go-yaml Project Contributors
// SPDX-License-Identifier: Apache-2.0

package outbound

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaos/lnetyaml/internal/attr"
	"github.com/chaos/lnetyaml/internal/transport"
)

func TestWriteS4RoundTrip(t *testing.T) {
	fake := transport.NewFake(1, 0x20).WithGroup("net", 7)
	tc := New(fake, 0x20, 1, 5, 0)

	n, err := tc.Write([]byte("net:\n  add:\n    nid: tcp1\n    mtu: 9000\n\n"))
	require.NoError(t, err)
	assert.Equal(t, len("net:\n  add:\n    nid: tcp1\n    mtu: 9000\n\n"), n)
	require.NoError(t, tc.LastError())

	sent := fake.Sent()
	require.Len(t, sent, 1)
	assert.True(t, fake.Joined(7))

	top, err := attr.Split(sent[0].Body)
	require.NoError(t, err)
	require.Len(t, top, 1)
	groupVal, err := attr.Decode(top[0], attr.KindNested)
	require.NoError(t, err)
	group, err := attr.Split(groupVal.Bytes)
	require.NoError(t, err)
	require.Len(t, group, 1)
	addVal, err := attr.Decode(group[0], attr.KindNested)
	require.NoError(t, err)

	fields, err := attr.Split(addVal.Bytes)
	require.NoError(t, err)
	require.Len(t, fields, 4)

	want := []string{"nid", "tcp1", "mtu", "9000"}
	for i, raw := range fields {
		v, err := attr.Decode(raw, attr.KindString)
		require.NoError(t, err)
		assert.Equal(t, want[i], v.String())
	}
}

func TestWriteUnknownGroupFails(t *testing.T) {
	fake := transport.NewFake(1, 0x20)
	tc := New(fake, 0x20, 1, 5, 0)

	_, err := tc.Write([]byte("missing:\n"))
	require.Error(t, err)
	assert.Error(t, tc.LastError())
	assert.Empty(t, fake.Sent())
}

func TestWriteCommandOnlyMessageWhenBodyEmpty(t *testing.T) {
	fake := transport.NewFake(1, 0x20).WithGroup("net", 7)
	tc := New(fake, 0x20, 1, 5, 0)

	_, err := tc.Write([]byte("net:\n\n"))
	require.NoError(t, err)

	sent := fake.Sent()
	require.Len(t, sent, 1)
	assert.Empty(t, sent[0].Body)
}

func TestWriteFlowSingleLine(t *testing.T) {
	fake := transport.NewFake(1, 0x20).WithGroup("net", 7)
	tc := New(fake, 0x20, 1, 5, 0)

	_, err := tc.Write([]byte("net: { nets: [ nid: tcp1, status: up, refcount: 3 ] }\n\n"))
	require.NoError(t, err)

	sent := fake.Sent()
	require.Len(t, sent, 1)

	top, err := attr.Split(sent[0].Body)
	require.NoError(t, err)
	require.Len(t, top, 1)
	groupVal, err := attr.Decode(top[0], attr.KindNested)
	require.NoError(t, err)
	group, err := attr.Split(groupVal.Bytes)
	require.NoError(t, err)
	require.Len(t, group, 1)
	netsVal, err := attr.Decode(group[0], attr.KindNested)
	require.NoError(t, err)

	fields, err := attr.Split(netsVal.Bytes)
	require.NoError(t, err)
	require.Len(t, fields, 6)
	want := []string{"nid", "tcp1", "status", "up", "refcount", "3"}
	for i, raw := range fields {
		v, err := attr.Decode(raw, attr.KindString)
		require.NoError(t, err)
		assert.Equal(t, want[i], v.String())
	}
}

func TestWriteUnbalancedQuoteFails(t *testing.T) {
	fake := transport.NewFake(1, 0x20).WithGroup("net", 7)
	tc := New(fake, 0x20, 1, 5, 0)

	_, err := tc.Write([]byte("net:\n  add:\n    nid: 'tcp1\n"))
	require.Error(t, err)
	assert.Error(t, tc.LastError())
}

func TestSubstituteQuotes(t *testing.T) {
	got, err := substituteQuotes(`nid: "tcp1"`)
	require.NoError(t, err)
	assert.Equal(t, "nid: % tcp1 %", got)
}

func TestWriteAcrossFragments(t *testing.T) {
	fake := transport.NewFake(1, 0x20).WithGroup("net", 7)
	tc := New(fake, 0x20, 1, 5, 0)

	chunks := []string{"net:\n  add:\n", "    nid: tcp1\n", "    mtu: 9000\n", "\n"}
	for _, c := range chunks {
		_, err := tc.Write([]byte(c))
		require.NoError(t, err)
	}

	sent := fake.Sent()
	require.Len(t, sent, 1)
}
