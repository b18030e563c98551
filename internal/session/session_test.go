// Copyright 2025 The go-yaml Project Contributors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaos/lnetyaml/internal/transport"
)

// optionConn wraps a Fake and records the socket options AttachReader sets.
type optionConn struct {
	*transport.Fake
	extAck, bcastErr, noSeqCheck, noAutoAck bool
}

func (c *optionConn) EnableExtAck(v bool) error         { c.extAck = v; return nil }
func (c *optionConn) EnableBroadcastError(v bool) error { c.bcastErr = v; return nil }
func (c *optionConn) DisableSeqCheck(v bool) error      { c.noSeqCheck = v; return nil }
func (c *optionConn) DisableAutoAck(v bool) error       { c.noAutoAck = v; return nil }

func TestAttachReaderConfiguresTransport(t *testing.T) {
	conn := &optionConn{Fake: transport.NewFake(1, 0x20)}
	s, err := AttachReader(conn, false)
	require.NoError(t, err)
	require.NotNil(t, s.Reader())
	assert.Nil(t, s.Writer())
	assert.True(t, conn.extAck)
	assert.True(t, conn.bcastErr)
	assert.False(t, conn.noSeqCheck)
	assert.False(t, conn.noAutoAck)
}

func TestAttachReaderStreamingDisablesSeqCheckAndAutoAck(t *testing.T) {
	conn := &optionConn{Fake: transport.NewFake(1, 0x20)}
	_, err := AttachReader(conn, true)
	require.NoError(t, err)
	assert.True(t, conn.noSeqCheck)
	assert.True(t, conn.noAutoAck)
}

// TestKernelErrorSurfacesExtAckText exercises S5: a terminal error
// message carrying ext-ack text "invalid nid" must make the reader
// return (0, fail) with that string retrievable from the error.
func TestKernelErrorSurfacesExtAckText(t *testing.T) {
	fake := transport.NewFake(1, 0x20)
	fake.Queue(transport.Message{
		Header: transport.Header{Type: transport.NLMSGError},
		Errno:  -22,
		ExtAck: "invalid nid",
	})

	s, err := AttachReader(fake, false)
	require.NoError(t, err)

	n, readErr := s.Reader().Read(make([]byte, 64))
	assert.Equal(t, 0, n)
	require.Error(t, readErr)
	assert.Contains(t, readErr.Error(), "invalid nid")
	assert.True(t, s.Reader().Complete())
}

// TestInterruptedThenSuccessfulReceive exercises S6: an interrupted
// receive returns a benign zero-length read; a subsequent call that
// finds a real message completes normally.
func TestInterruptedThenSuccessfulReceive(t *testing.T) {
	fake := transport.NewFake(1, 0x20)
	s, err := AttachReader(fake, false)
	require.NoError(t, err)

	n, readErr := s.Reader().Read(make([]byte, 64))
	require.NoError(t, readErr)
	assert.Equal(t, 0, n)
	assert.False(t, s.Reader().Complete())

	fake.Queue(transport.Message{Header: transport.Header{Type: transport.NLMSGDone}})
	n, readErr = s.Reader().Read(make([]byte, 64))
	require.NoError(t, readErr)
	assert.Equal(t, 0, n)
	assert.True(t, s.Reader().Complete())
}

func TestAttachWriterBuildsOutboundTranscoder(t *testing.T) {
	fake := transport.NewFake(1, 0x20).WithGroup("net", 7)
	s, err := AttachWriter(fake, 0x20, 1, 5, 0)
	require.NoError(t, err)
	require.NotNil(t, s.Writer())

	_, writeErr := s.Writer().Write([]byte("net:\n  add:\n    nid: tcp1\n\n"))
	require.NoError(t, writeErr)
	assert.Len(t, fake.Sent(), 1)
}
