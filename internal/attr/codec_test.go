// Copyright 2025 The go-yaml Project Contributors
// SPDX-License-Identifier: Apache-2.0

package attr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageRoundTripScalars(t *testing.T) {
	m := NewMessage()
	m.EncodeU16(1, 9000)
	m.EncodeS64(2, -12345)
	m.EncodeString(3, "tcp1")

	raws, err := Split(m.Bytes())
	require.NoError(t, err)
	require.Len(t, raws, 3)

	v, err := Decode(raws[0], KindU16)
	require.NoError(t, err)
	assert.Equal(t, uint64(9000), v.U)

	v, err = Decode(raws[1], KindS64)
	require.NoError(t, err)
	assert.Equal(t, int64(-12345), v.S)

	v, err = Decode(raws[2], KindString)
	require.NoError(t, err)
	assert.Equal(t, "tcp1", v.String())
}

func TestMessageNestedRoundTrip(t *testing.T) {
	m := NewMessage()
	h := m.BeginNested(1)
	m.EncodeU32(1, 7)
	m.EncodeU32(2, 8)
	m.EndNested(h)
	m.EncodeU16(2, 42)

	raws, err := Split(m.Bytes())
	require.NoError(t, err)
	require.Len(t, raws, 2)

	inner, err := Decode(raws[0], KindNested)
	require.NoError(t, err)
	children, err := Split(inner.Bytes)
	require.NoError(t, err)
	require.Len(t, children, 2)

	v, err := Decode(raws[1], KindU16)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), v.U)
}

// Signed-64 values must decode correctly regardless of the byte offset
// they land at within the message buffer — Go slices carry no hardware
// alignment constraint, unlike the C producers this format originates
// from (Testable Property 5).
func TestDecodeS64AnyAlignment(t *testing.T) {
	want := int64(-9007199254740991)
	for pad := 0; pad < 7; pad++ {
		m := NewMessage()
		if pad > 0 {
			m.EncodeString(99, string(make([]byte, pad)))
		}
		m.EncodeS64(1, want)

		raws, err := Split(m.Bytes())
		require.NoError(t, err)
		last := raws[len(raws)-1]

		v, err := Decode(last, KindS64)
		require.NoError(t, err)
		assert.Equal(t, want, v.S, "pad=%d", pad)

		// Attribute framing pads every payload to 4 bytes, so also place
		// the same payload at an offset of exactly pad bytes.
		shifted := make([]byte, pad+len(last.Data))
		copy(shifted[pad:], last.Data)
		v, err = Decode(Raw{Tag: last.Tag, Data: shifted[pad:]}, KindS64)
		require.NoError(t, err)
		assert.Equal(t, want, v.S, "unaligned pad=%d", pad)
	}
}

func TestDecodeSkipsShortPayload(t *testing.T) {
	raw := Raw{Tag: 1, Data: []byte{0x01}}
	_, err := Decode(raw, KindU32)
	require.ErrorIs(t, err, ErrSkip)
}

func TestSplitRejectsTruncatedHeader(t *testing.T) {
	_, err := Split([]byte{0x01})
	require.Error(t, err)
}

func TestSplitRejectsOversizedLength(t *testing.T) {
	buf := []byte{0xFF, 0xFF, 0x01, 0x00}
	_, err := Split(buf)
	require.Error(t, err)
}

func TestPolicyFor(t *testing.T) {
	kinds := map[int]Kind{1: KindU32, 2: KindString}
	p := PolicyFor(3, func(i int) Kind { return kinds[i] })
	assert.Equal(t, KindU32, p.Expect(1))
	assert.Equal(t, KindString, p.Expect(2))
	assert.Equal(t, KindInvalid, p.Expect(0))
	assert.Equal(t, KindInvalid, p.Expect(99))
}
