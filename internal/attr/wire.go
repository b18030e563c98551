// Copyright 2025 The go-yaml Project Contributors
// SPDX-License-Identifier: Apache-2.0

package attr

import (
	"encoding/binary"
	"fmt"
)

// headerLen is the size of one nlattr header: a 16-bit length (header +
// payload) followed by a 16-bit tag. Payload is padded to a 4-byte
// boundary; the padding itself is not counted in the next attribute's
// offset beyond alignUp.
const headerLen = 4

const alignTo = 4

func alignUp(n int) int {
	return (n + alignTo - 1) &^ (alignTo - 1)
}

// Split walks buf as a sequence of consecutive nlattrs and returns one
// Raw per attribute. It stops at the first malformed header (length
// that under- or over-runs the buffer) and reports that as an error —
// spec's ProtocolFraming kind.
func Split(buf []byte) ([]Raw, error) {
	var out []Raw
	for len(buf) > 0 {
		if len(buf) < headerLen {
			return out, fmt.Errorf("attr: truncated attribute header (%d bytes left)", len(buf))
		}
		total := int(binary.LittleEndian.Uint16(buf[0:2]))
		tag := binary.LittleEndian.Uint16(buf[2:4])
		if total < headerLen || total > len(buf) {
			return out, fmt.Errorf("attr: attribute length %d out of range (%d bytes left)", total, len(buf))
		}
		out = append(out, Raw{Tag: tag, Data: buf[headerLen:total]})
		buf = buf[alignUp(total):]
	}
	return out, nil
}
