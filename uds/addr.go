//go:build unix

// Package uds implements the Unix-domain-socket stream engine: address
// construction (this file), listener/stream lifecycle (listener.go,
// stream.go), and peer credential queries (Stream.PeerCreds). It is
// consumed directly by callers who want UDS-specific features (cmsg,
// credentials) and indirectly by package localsocket on Unix targets.
package uds

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// UdAddr wraps a platform sockaddr_un, tracking how many bytes of
// sun_path are initialized. The tracked length never exceeds
// SunPathLen, and a NUL terminator is added only when producing a
// TerminatedUdAddr for bind/connect.
type UdAddr struct {
	raw      unix.RawSockaddrUnix
	len      int // bytes of Path considered initialized, excluding any NUL
	abstract bool
}

// TerminatedUdAddr is a UdAddr witnessed to carry a trailing NUL
// terminator (inside sun_path, or appended where there's room), the
// precondition bind(2) and connect(2) need from a path address.
type TerminatedUdAddr struct {
	UdAddr
}

// NewUdAddr builds a UdAddr from a Name's raw bytes. Abstract-namespace
// names (IsNamespaced on Linux) get the leading-NUL encoding; all other
// names are treated as filesystem paths.
func NewUdAddr(raw []byte, abstract bool) (UdAddr, error) {
	path := raw
	extra := 0
	if abstract {
		extra = 1 // the leading NUL counts against the SunPathLen budget below
	}
	if len(path)+extra > SunPathLen {
		return UdAddr{}, fmt.Errorf("%w: encoded length %d exceeds SUN_PATH_LEN (%d)", ErrAddressInvalid, len(path)+extra, SunPathLen)
	}

	var a UdAddr
	a.raw.Family = unix.AF_UNIX
	n := 0
	if abstract {
		// Abstract namespace: sun_path[0] = 0, name follows without a
		// terminator (the kernel uses the supplied length, not a NUL
		// scan, for abstract addresses).
		n = 1
	}
	for i, b := range path {
		a.raw.Path[n+i] = int8(b)
	}
	a.len = n + len(path)
	a.abstract = abstract
	return a, nil
}

// Terminate returns a witness that the address carries a trailing NUL,
// writing it into sun_path at index Len. NewUdAddr accepts a path that
// fills sun_path exactly (Len == SunPathLen); such an address has no
// room for the terminator, and Terminate rejects it with
// ErrAddressInvalid.
//
// Abstract-namespace addresses are NUL-exempt: the kernel uses Len,
// not a terminator, to delimit them, so Terminate is a no-op for them.
func (a UdAddr) Terminate() (TerminatedUdAddr, error) {
	if a.abstract {
		return TerminatedUdAddr{a}, nil
	}
	if a.len >= len(a.raw.Path) {
		return TerminatedUdAddr{}, fmt.Errorf("%w: no room for NUL terminator", ErrAddressInvalid)
	}
	a.raw.Path[a.len] = 0
	return TerminatedUdAddr{a}, nil
}

// SockaddrLen returns the length to pass to bind(2)/connect(2): the
// fixed header plus Len, plus one for the abstract case's leading NUL
// which is already included in Len.
func (a UdAddr) SockaddrLen() uint32 {
	const headerLen = 2 // sun_family
	return uint32(headerLen + a.len)
}

// Sockaddr converts to the golang.org/x/sys/unix representation bind
// and connect accept directly. An abstract-namespace address needs no
// special handling here: NewUdAddr already wrote its leading NUL into
// sun_path, and unix.SockaddrUnix treats a NUL-led Name as abstract.
func (a UdAddr) Sockaddr() *unix.SockaddrUnix {
	name := make([]byte, a.len)
	for i := range name {
		name[i] = byte(a.raw.Path[i])
	}
	return &unix.SockaddrUnix{Name: string(name)}
}

// Path returns the filesystem path this address binds to, or "" for
// an abstract-namespace address (nothing is persisted on disk for
// those, so there is nothing to reclaim on drop).
func (a UdAddr) Path() string {
	if a.abstract {
		return ""
	}
	b := make([]byte, a.len)
	for i := range b {
		b[i] = byte(a.raw.Path[i])
	}
	return string(b)
}
