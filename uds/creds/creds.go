//go:build unix

// Package creds implements typed peer-credential decoders for
// Unix-domain sockets. Credentials is a tagged union (one variant per
// supported platform's kernel struct) rather than a single common
// struct, because the fields genuinely differ — ucred has no
// supplementary groups, xucred has a version tag, cmsgcred and
// sockcred2 are delivered as ancillary data rather than via
// getsockopt, and NetBSD's peereid has no settled "continuous
// credentials" semantics.
package creds

import "fmt"

// Credentials is satisfied by exactly one concrete variant per
// platform: *Ucred (Linux), *Xucred (Darwin/FreeBSD getsockopt path),
// *CmsgCred or *SockCred2 (FreeBSD ancillary path), *NetBSDPeerEID
// (NetBSD). Platform code picks the variant; callers use the
// interface to stay portable.
type Credentials interface {
	// Euid returns the effective UID of the peer, if known.
	Euid() (uint32, bool)
	// Ruid returns the real UID of the peer, if known.
	Ruid() (uint32, bool)
	// Egid returns the effective GID of the peer, if known.
	Egid() (uint32, bool)
	// Rgid returns the real GID of the peer, if known.
	Rgid() (uint32, bool)
	// Pid returns the peer's process ID, if known.
	Pid() (int32, bool)
	// Groups returns the peer's supplementary groups, if known.
	Groups() ([]uint32, bool)
}

// BestEffortRUID returns the real UID if the variant carries one,
// falling back to the effective UID. This is the entry point daemons
// should use for authentication decisions when they don't care which
// of real/effective a given platform happened to expose.
func BestEffortRUID(c Credentials) (uint32, bool) {
	if uid, ok := c.Ruid(); ok {
		return uid, true
	}
	return c.Euid()
}

// BestEffortRGID is the GID analogue of BestEffortRUID.
func BestEffortRGID(c Credentials) (uint32, bool) {
	if gid, ok := c.Rgid(); ok {
		return gid, true
	}
	return c.Egid()
}

// ErrConnectionReset is returned by ForSocket when the kernel reports
// a sentinel indicating the peer already went away (e.g. Linux ucred
// with pid == 0).
var ErrConnectionReset = fmt.Errorf("creds: connection reset (peer credentials unavailable)")

// ErrUnsupported is returned by ForSocket on platforms with no known
// peer-credential mechanism wired up.
var ErrUnsupported = fmt.Errorf("creds: unsupported on this platform")

// ErrInvalidData is returned when a decoded credentials struct fails a
// structural check, e.g. xucred's version tag not matching
// XUCRED_VERSION.
var ErrInvalidData = fmt.Errorf("creds: invalid data")

// Ucred is the {pid, uid, gid} credentials variant shared by Linux's
// SO_PEERCRED and OpenBSD's SO_PEERCRED (struct sockpeercred uses the
// same three fields, just a different wire order, decoded separately
// per platform in ucred_linux.go / openbsd_peercred.go).
type Ucred struct {
	PID int32
	UID uint32
	GID uint32
}

func (u *Ucred) Euid() (uint32, bool)     { return u.UID, true }
func (u *Ucred) Ruid() (uint32, bool)     { return u.UID, true }
func (u *Ucred) Egid() (uint32, bool)     { return u.GID, true }
func (u *Ucred) Rgid() (uint32, bool)     { return u.GID, true }
func (u *Ucred) Pid() (int32, bool)       { return u.PID, true }
func (u *Ucred) Groups() ([]uint32, bool) { return nil, false }
