//go:build netbsd

package creds

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// netbsdUnpcbid mirrors NetBSD's struct unpcbid, returned by
// LOCAL_PEEREID. golang.org/x/sys/unix does not expose a typed
// wrapper for it, unlike Ucred/Xucred, so it is read with a raw
// getsockopt call here.
type netbsdUnpcbid struct {
	PID  uint32
	EUID uint32
	EGID uint32
}

// NetBSDPeerEID is the NetBSD LOCAL_PEEREID credentials variant. It
// intentionally does not claim continuous-mode (SO_PASSCRED-style)
// semantics: it is only ever populated by a one-shot LOCAL_PEEREID
// query, never by an ancillary message.
type NetBSDPeerEID struct {
	PID  uint32
	EUID uint32
	EGID uint32
}

func (p *NetBSDPeerEID) Euid() (uint32, bool)     { return p.EUID, true }
func (p *NetBSDPeerEID) Ruid() (uint32, bool)     { return 0, false }
func (p *NetBSDPeerEID) Egid() (uint32, bool)     { return p.EGID, true }
func (p *NetBSDPeerEID) Rgid() (uint32, bool)     { return 0, false }
func (p *NetBSDPeerEID) Pid() (int32, bool)       { return int32(p.PID), true }
func (p *NetBSDPeerEID) Groups() ([]uint32, bool) { return nil, false }

const solLocal = 0 // SOL_LOCAL; NetBSD delivers LOCAL_PEEREID over SOL_SOCKET in practice
const localPeerEID = 0x0003

// ForSocket queries LOCAL_PEEREID via a raw getsockopt, since
// golang.org/x/sys/unix has no typed helper for struct unpcbid.
func ForSocket(fd int) (Credentials, error) {
	var raw netbsdUnpcbid
	size := uint32(unsafe.Sizeof(raw))
	_, _, errno := unix.Syscall6(unix.SYS_GETSOCKOPT,
		uintptr(fd), uintptr(unix.SOL_SOCKET), uintptr(localPeerEID),
		uintptr(unsafe.Pointer(&raw)), uintptr(unsafe.Pointer(&size)), 0)
	if errno != 0 {
		return nil, errno
	}
	return &NetBSDPeerEID{PID: raw.PID, EUID: raw.EUID, EGID: raw.EGID}, nil
}
