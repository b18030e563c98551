// Copyright 2025 The go-yaml Project Contributors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// nlmsgAlign mirrors NLMSG_ALIGN: netlink message framing is aligned to
// 4 bytes, same as the attribute framing in package attr.
func nlmsgAlign(n int) int { return (n + 3) &^ 3 }

const nlmsgHdrLen = 16 // sizeof(struct nlmsghdr)

// Socket is a real AF_NETLINK generic-netlink socket, opened against a
// resolved family ID. It is the production Conn; package tests use Fake
// instead.
type Socket struct {
	fd       int
	pid      uint32
	familyID uint16
	seq      uint32
	groups   map[string]uint32
}

// Open binds a new generic-netlink socket and resolves familyName to a
// numeric family ID via CTRL_CMD_GETFAMILY.
func Open(familyName string) (*Socket, error) {
	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_RAW|unix.SOCK_CLOEXEC, unix.NETLINK_GENERIC)
	if err != nil {
		return nil, fmt.Errorf("transport: socket: %w", err)
	}
	sa := &unix.SockaddrNetlink{Family: unix.AF_NETLINK}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("transport: bind: %w", err)
	}
	bound, err := unix.Getsockname(fd)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("transport: getsockname: %w", err)
	}
	nl, ok := bound.(*unix.SockaddrNetlink)
	if !ok {
		unix.Close(fd)
		return nil, fmt.Errorf("transport: unexpected sockaddr type %T", bound)
	}

	s := &Socket{fd: fd, pid: nl.Pid}
	famID, err := s.resolveFamily(familyName)
	if err != nil {
		unix.Close(fd)
		return nil, err
	}
	s.familyID = famID
	return s, nil
}

// resolveFamily asks NETLINK_GENERIC's control family (genl_ctrl,
// family ID 0x10) to map a family name to its numeric ID, the same
// CTRL_CMD_GETFAMILY handshake every generic-netlink client performs
// before it can address the family by number.
func (s *Socket) resolveFamily(name string) (uint16, error) {
	const (
		genlCtrlFamilyID    = 0x10
		ctrlCmdGetFamily    = 3
		ctrlAttrFamilyName  = 2
		ctrlAttrFamilyID    = 1
		ctrlAttrMcastGroups = 7
	)

	body := make([]byte, 0, 32)
	// attribute: CTRL_ATTR_FAMILY_NAME, NUL-terminated string
	payload := append([]byte(name), 0)
	total := 4 + len(payload)
	hdr := make([]byte, 4)
	binary.LittleEndian.PutUint16(hdr[0:2], uint16(total))
	binary.LittleEndian.PutUint16(hdr[2:4], ctrlAttrFamilyName)
	body = append(body, hdr...)
	body = append(body, payload...)
	for len(body)%4 != 0 {
		body = append(body, 0)
	}

	seq := atomic.AddUint32(&s.seq, 1)
	msg := Message{
		Header: Header{
			Type:    genlCtrlFamilyID,
			Flags:   unix.NLM_F_REQUEST | unix.NLM_F_ACK,
			Seq:     seq,
			PID:     s.pid,
			Cmd:     ctrlCmdGetFamily,
			Version: 1,
		},
		Body: body,
	}
	if err := s.sendRaw(msg, genlCtrlFamilyID); err != nil {
		return 0, fmt.Errorf("transport: resolve family %q: %w", name, err)
	}

	reply, err := s.Receive(context.Background())
	if err != nil {
		return 0, fmt.Errorf("transport: resolve family %q: %w", name, err)
	}
	if reply.Header.IsError() {
		return 0, fmt.Errorf("transport: family %q not found (errno %d)", name, reply.Errno)
	}

	var famID uint16
	haveFamID := false
	groups := make(map[string]uint32)
	for off := 0; off+4 <= len(reply.Body); {
		alen := int(binary.LittleEndian.Uint16(reply.Body[off : off+2]))
		tag := binary.LittleEndian.Uint16(reply.Body[off+2 : off+4])
		if alen < 4 || off+alen > len(reply.Body) {
			break
		}
		data := reply.Body[off+4 : off+alen]
		switch {
		case tag == ctrlAttrFamilyID && len(data) >= 2:
			famID = binary.LittleEndian.Uint16(data)
			haveFamID = true
		case tag == ctrlAttrMcastGroups:
			parseMcastGroups(data, groups)
		}
		off += nlmsgAlign(alen)
	}
	if !haveFamID {
		return 0, fmt.Errorf("transport: family %q: reply carried no CTRL_ATTR_FAMILY_ID", name)
	}
	s.groups = groups
	return famID, nil
}

// parseMcastGroups walks CTRL_ATTR_MCAST_GROUPS's payload: an
// array-indexed list of nested attributes, one per multicast group the
// family exposes, each holding a CTRL_ATTR_MCAST_GRP_NAME string and a
// CTRL_ATTR_MCAST_GRP_ID u32. Recognized groups are recorded into out by
// name, for later lookup by ResolveGroup.
func parseMcastGroups(buf []byte, out map[string]uint32) {
	const (
		ctrlAttrMcastGrpName = 1
		ctrlAttrMcastGrpID   = 2
	)
	for off := 0; off+4 <= len(buf); {
		alen := int(binary.LittleEndian.Uint16(buf[off : off+2]))
		if alen < 4 || off+alen > len(buf) {
			break
		}
		entry := buf[off+4 : off+alen]

		var name string
		var id uint32
		var haveName, haveID bool
		for eoff := 0; eoff+4 <= len(entry); {
			elen := int(binary.LittleEndian.Uint16(entry[eoff : eoff+2]))
			etag := binary.LittleEndian.Uint16(entry[eoff+2 : eoff+4])
			if elen < 4 || eoff+elen > len(entry) {
				break
			}
			edata := entry[eoff+4 : eoff+elen]
			switch etag {
			case ctrlAttrMcastGrpName:
				n := len(edata)
				if i := bytesIndexNul(edata); i >= 0 {
					n = i
				}
				name, haveName = string(edata[:n]), true
			case ctrlAttrMcastGrpID:
				if len(edata) >= 4 {
					id, haveID = binary.LittleEndian.Uint32(edata), true
				}
			}
			eoff += nlmsgAlign(elen)
		}
		if haveName && haveID {
			out[name] = id
		}
		off += nlmsgAlign(alen)
	}
}

func bytesIndexNul(b []byte) int {
	for i, c := range b {
		if c == 0 {
			return i
		}
	}
	return -1
}

func (s *Socket) sendRaw(msg Message, msgType uint16) error {
	hdr := make([]byte, nlmsgHdrLen+4) // nlmsghdr + genlmsghdr
	total := len(hdr) + len(msg.Body)
	binary.LittleEndian.PutUint32(hdr[0:4], uint32(total))
	binary.LittleEndian.PutUint16(hdr[4:6], msgType)
	binary.LittleEndian.PutUint16(hdr[6:8], msg.Header.Flags)
	binary.LittleEndian.PutUint32(hdr[8:12], msg.Header.Seq)
	binary.LittleEndian.PutUint32(hdr[12:16], msg.Header.PID)
	hdr[nlmsgHdrLen] = msg.Header.Cmd
	hdr[nlmsgHdrLen+1] = msg.Header.Version

	out := append(hdr, msg.Body...)
	sa := &unix.SockaddrNetlink{Family: unix.AF_NETLINK}
	return unix.Sendto(s.fd, out, 0, sa)
}

// Send transmits a message addressed to the resolved family.
func (s *Socket) Send(ctx context.Context, msg Message) error {
	msg.Header.Seq = atomic.AddUint32(&s.seq, 1)
	msg.Header.PID = s.pid
	if err := s.sendRaw(msg, s.familyID); err != nil {
		return fmt.Errorf("transport: send: %w", err)
	}
	return nil
}

// Receive reads and parses the next generic-netlink message. For an
// NLMSG_ERROR message it sets Errno from the payload and leaves the rest
// (the echoed request and any extended-ack attributes) in Body; ExtAck
// is not filled in.
func (s *Socket) Receive(ctx context.Context) (Message, error) {
	buf := make([]byte, 1<<16)
	n, _, err := unix.Recvfrom(s.fd, buf, 0)
	if err != nil {
		if err == unix.EINTR {
			return Message{}, ErrInterrupted
		}
		return Message{}, fmt.Errorf("transport: recvfrom: %w", err)
	}
	if n < nlmsgHdrLen {
		return Message{}, fmt.Errorf("transport: short netlink message (%d bytes)", n)
	}
	raw := buf[:n]
	length := binary.LittleEndian.Uint32(raw[0:4])
	typ := binary.LittleEndian.Uint16(raw[4:6])
	flags := binary.LittleEndian.Uint16(raw[6:8])
	seq := binary.LittleEndian.Uint32(raw[8:12])
	pid := binary.LittleEndian.Uint32(raw[12:16])
	if int(length) > n {
		length = uint32(n)
	}
	body := raw[nlmsgHdrLen:length]

	msg := Message{Header: Header{Len: length, Type: typ, Flags: flags, Seq: seq, PID: pid}}
	if typ == NLMSGError {
		if len(body) < 4 {
			return Message{}, fmt.Errorf("transport: truncated NLMSGError payload")
		}
		msg.Errno = int32(binary.LittleEndian.Uint32(body[0:4]))
		msg.Body = body[4:]
		return msg, nil
	}
	if len(body) >= 2 {
		msg.Header.Cmd = body[0]
		msg.Header.Version = body[1]
		msg.Body = body[4:]
	}
	return msg, nil
}

// ResolveGroup looks up a multicast group's numeric ID by name, from the
// CTRL_ATTR_MCAST_GROUPS list cached off the CTRL_CMD_GETFAMILY reply
// resolveFamily already fetched when the socket was opened.
func (s *Socket) ResolveGroup(name string) (uint32, bool) {
	id, ok := s.groups[name]
	return id, ok
}

func (s *Socket) JoinGroup(id uint32) error {
	return unix.SetsockoptInt(s.fd, unix.SOL_NETLINK, unix.NETLINK_ADD_MEMBERSHIP, int(id))
}

func (s *Socket) EnableExtAck(enable bool) error {
	v := 0
	if enable {
		v = 1
	}
	return unix.SetsockoptInt(s.fd, unix.SOL_NETLINK, unix.NETLINK_EXT_ACK, v)
}

func (s *Socket) EnableBroadcastError(enable bool) error {
	v := 0
	if enable {
		v = 1
	}
	return unix.SetsockoptInt(s.fd, unix.SOL_NETLINK, unix.NETLINK_BROADCAST_ERROR, v)
}

// DisableSeqCheck: Receive never validates sequence numbers on a Socket,
// so there is no check to turn off; with disable set this sets
// NETLINK_NO_ENOBUFS, so receive-buffer overruns are not reported as
// ENOBUFS errors.
func (s *Socket) DisableSeqCheck(disable bool) error {
	v := 0
	if disable {
		v = 1
	}
	return unix.SetsockoptInt(s.fd, unix.SOL_NETLINK, unix.NETLINK_NO_ENOBUFS, v)
}

// DisableAutoAck has no kernel-side sockopt counterpart: auto-ack is a
// libnl convention (don't block waiting for an ACK after a request),
// not a netlink socket option, so there is nothing to configure here
// beyond what DisableSeqCheck already does.
func (s *Socket) DisableAutoAck(disable bool) error {
	return nil
}

func (s *Socket) PID() uint32      { return s.pid }
func (s *Socket) FamilyID() uint16 { return s.familyID }

func (s *Socket) Close() error { return unix.Close(s.fd) }
