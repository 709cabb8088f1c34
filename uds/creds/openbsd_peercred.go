//go:build openbsd

package creds

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// openbsdSockpeercred mirrors OpenBSD's struct sockpeercred, returned
// by SO_PEERCRED (OpenBSD's layout differs from Linux's struct ucred
// only in field order/padding, but is read independently here rather
// than reusing Ucred to keep each platform's wire struct explicit).
type openbsdSockpeercred struct {
	UID uint32
	GID uint32
	PID int32
}

// ForSocket queries SO_PEERCRED.
func ForSocket(fd int) (Credentials, error) {
	var raw openbsdSockpeercred
	size := uint32(unsafe.Sizeof(raw))
	_, _, errno := unix.Syscall6(unix.SYS_GETSOCKOPT,
		uintptr(fd), uintptr(unix.SOL_SOCKET), uintptr(unix.SO_PEERCRED),
		uintptr(unsafe.Pointer(&raw)), uintptr(unsafe.Pointer(&size)), 0)
	if errno != 0 {
		return nil, errno
	}
	if raw.PID == 0 {
		return nil, ErrConnectionReset
	}
	return &Ucred{PID: raw.PID, UID: raw.UID, GID: raw.GID}, nil
}
