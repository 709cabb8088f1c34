//go:build darwin || freebsd

package creds

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// xucredVersion is XUCRED_VERSION: the struct xucred layout version
// both Darwin and FreeBSD's kernels expect on the wire. A mismatch
// means the kernel changed the ABI out from under us, and is surfaced
// as invalid data rather than silently misreading fields.
const xucredVersion = 0

// Xucred is the Darwin/FreeBSD LOCAL_PEERCRED credentials variant.
// There is no real UID/GID or PID on this struct — only the effective
// UID and the supplementary group list, which is what BSD's kernel
// actually hands back.
type Xucred struct {
	Version   uint32
	UID       uint32
	GroupList []uint32
}

func (x *Xucred) Euid() (uint32, bool) { return x.UID, true }
func (x *Xucred) Ruid() (uint32, bool) { return 0, false }
func (x *Xucred) Egid() (uint32, bool) {
	if len(x.GroupList) == 0 {
		return 0, false
	}
	return x.GroupList[0], true
}
func (x *Xucred) Rgid() (uint32, bool)     { return 0, false }
func (x *Xucred) Pid() (int32, bool)       { return 0, false }
func (x *Xucred) Groups() ([]uint32, bool) { return x.GroupList, len(x.GroupList) > 0 }

// ForSocket queries LOCAL_PEERCRED.
func ForSocket(fd int) (Credentials, error) {
	raw, err := unix.GetsockoptXucred(fd, unix.SOL_LOCAL, unix.LOCAL_PEERCRED)
	if err != nil {
		return nil, err
	}
	if raw.Version != xucredVersion {
		return nil, fmt.Errorf("creds: xucred version %d, want %d: %w", raw.Version, xucredVersion, ErrInvalidData)
	}
	groups := make([]uint32, 0, raw.Ngroups)
	for i := 0; i < int(raw.Ngroups) && i < len(raw.Groups); i++ {
		groups = append(groups, raw.Groups[i])
	}
	return &Xucred{Version: raw.Version, UID: raw.Uid, GroupList: groups}, nil
}
