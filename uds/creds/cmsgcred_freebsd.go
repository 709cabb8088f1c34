//go:build freebsd

package creds

import (
	"encoding/binary"

	"github.com/kotauskas/interprocess-go/uds/cmsg"
	"golang.org/x/sys/unix"
)

// CmsgCred is FreeBSD's struct cmsgcred, delivered as SCM_CREDS
// ancillary data rather than via getsockopt. The sender has no
// control over its contents — the kernel fills it in — so unlike
// Xucred there is a real/effective UID split, a GID, a supplementary
// group list and a PID. It carries a single GID, which both Rgid and
// Egid report.
type CmsgCred struct {
	PID       int32
	UID       uint32
	EUID      uint32
	GID       uint32
	GroupList []uint32
}

func (c *CmsgCred) Euid() (uint32, bool) { return c.EUID, true }
func (c *CmsgCred) Ruid() (uint32, bool) { return c.UID, true }
func (c *CmsgCred) Egid() (uint32, bool) { return c.GID, true }
func (c *CmsgCred) Rgid() (uint32, bool) { return c.GID, true }
func (c *CmsgCred) Pid() (int32, bool)   { return c.PID, true }
func (c *CmsgCred) Groups() ([]uint32, bool) {
	return c.GroupList, len(c.GroupList) > 0
}

// SockCred2 is FreeBSD's newer struct sockcred2, also delivered via
// SCM_CREDS2 ancillary data. It differs from CmsgCred in being
// self-describing (a Ngroups field plus variable-length trailer)
// instead of a fixed-size groups array, which is why its cmsg decoder
// (package cmsg) needs the raw payload length rather than a fixed
// struct size.
type SockCred2 struct {
	PID       int32
	UID       uint32
	EUID      uint32
	GID       uint32
	EGID      uint32
	GroupList []uint32
}

func (c *SockCred2) Euid() (uint32, bool) { return c.EUID, true }
func (c *SockCred2) Ruid() (uint32, bool) { return c.UID, true }
func (c *SockCred2) Egid() (uint32, bool) { return c.EGID, true }
func (c *SockCred2) Rgid() (uint32, bool) { return c.GID, true }
func (c *SockCred2) Pid() (int32, bool)   { return c.PID, true }
func (c *SockCred2) Groups() ([]uint32, bool) {
	return c.GroupList, len(c.GroupList) > 0
}

// ForSocket on FreeBSD goes through the getsockopt LOCAL_PEERCRED path
// (xucred_bsd.go); CmsgCred/SockCred2 are only produced by decoding
// SCM_CREDS/SCM_CREDS2 ancillary messages via package cmsg, since the
// sender must opt in per-message (LOCAL_CREDS socket option) rather
// than query after the fact.

const scmCreds = 0x03  // SCM_CREDS
const scmCreds2 = 0x08 // SCM_CREDS2
const cmGroupMax = 16

// cmsgCredDecoder decodes FreeBSD's fixed-layout struct cmsgcred.
var cmsgCredDecoder = cmsg.Decoder[*CmsgCred]{
	Level:   unix.SOL_SOCKET,
	Type:    scmCreds,
	MinSize: 4 + 4 + 4 + 4 + 2,
	Decode: func(data []byte) (*CmsgCred, error) {
		le := binary.LittleEndian
		pid := int32(le.Uint32(data[0:4]))
		uid := le.Uint32(data[4:8])
		euid := le.Uint32(data[8:12])
		gid := le.Uint32(data[12:16])
		ngroups := int(int16(le.Uint16(data[16:18])))
		if ngroups < 0 || ngroups > cmGroupMax {
			return nil, ErrInvalidData
		}
		groupsOff := 20 // struct alignment pads the short to 4 bytes
		groups := make([]uint32, ngroups)
		for i := 0; i < ngroups; i++ {
			off := groupsOff + i*4
			if off+4 > len(data) {
				return nil, ErrInvalidData
			}
			groups[i] = le.Uint32(data[off : off+4])
		}
		return &CmsgCred{PID: pid, UID: uid, EUID: euid, GID: gid, GroupList: groups}, nil
	},
}

// DecodeCmsgCred decodes an SCM_CREDS record into CmsgCred.
func DecodeCmsgCred(m cmsg.Cmsg) (*CmsgCred, error) {
	return cmsg.Decode(cmsgCredDecoder, m)
}

// sockCred2Decoder decodes FreeBSD's self-describing struct sockcred2.
var sockCred2Decoder = cmsg.Decoder[*SockCred2]{
	Level:   unix.SOL_SOCKET,
	Type:    scmCreds2,
	MinSize: 4 + 4 + 4 + 4 + 4 + 4 + 2,
	Decode: func(data []byte) (*SockCred2, error) {
		le := binary.LittleEndian
		// sc_version occupies the first 4 bytes; not surfaced on
		// SockCred2 since the kernel, not the sender, stamps it.
		pid := int32(le.Uint32(data[4:8]))
		uid := le.Uint32(data[8:12])
		euid := le.Uint32(data[12:16])
		gid := le.Uint32(data[16:20])
		egid := le.Uint32(data[20:24])
		ngroups := int(int16(le.Uint16(data[24:26])))
		if ngroups < 0 {
			return nil, ErrInvalidData
		}
		groupsOff := 28
		groups := make([]uint32, ngroups)
		for i := 0; i < ngroups; i++ {
			off := groupsOff + i*4
			if off+4 > len(data) {
				return nil, ErrInvalidData
			}
			groups[i] = le.Uint32(data[off : off+4])
		}
		return &SockCred2{PID: pid, UID: uid, EUID: euid, GID: gid, EGID: egid, GroupList: groups}, nil
	},
}

// DecodeSockCred2 decodes an SCM_CREDS2 record into SockCred2.
func DecodeSockCred2(m cmsg.Cmsg) (*SockCred2, error) {
	return cmsg.Decode(sockCred2Decoder, m)
}
