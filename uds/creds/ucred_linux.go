//go:build linux

package creds

import "golang.org/x/sys/unix"

// ForSocket queries SO_PEERCRED. A pid of 0 is the kernel's "the peer
// has already disconnected" sentinel and is surfaced as
// ErrConnectionReset rather than a zero-valued PID.
func ForSocket(fd int) (Credentials, error) {
	raw, err := unix.GetsockoptUcred(fd, unix.SOL_SOCKET, unix.SO_PEERCRED)
	if err != nil {
		return nil, err
	}
	if raw.Pid == 0 {
		return nil, ErrConnectionReset
	}
	return &Ucred{PID: raw.Pid, UID: raw.Uid, GID: raw.Gid}, nil
}
