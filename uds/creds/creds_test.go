//go:build unix

package creds

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// euidOnly is a variant shaped like the BSD getsockopt results
// (Xucred, NetBSDPeerEID): effective IDs only, no real ones.
type euidOnly struct{ euid, egid uint32 }

func (e *euidOnly) Euid() (uint32, bool)     { return e.euid, true }
func (e *euidOnly) Ruid() (uint32, bool)     { return 0, false }
func (e *euidOnly) Egid() (uint32, bool)     { return e.egid, true }
func (e *euidOnly) Rgid() (uint32, bool)     { return 0, false }
func (e *euidOnly) Pid() (int32, bool)       { return 0, false }
func (e *euidOnly) Groups() ([]uint32, bool) { return nil, false }

func TestBestEffortRUIDPrefersReal(t *testing.T) {
	u := &Ucred{PID: 1, UID: 42, GID: 42}
	uid, ok := BestEffortRUID(u)
	assert.True(t, ok)
	assert.EqualValues(t, 42, uid)
}

func TestBestEffortRUIDFallsBackToEffective(t *testing.T) {
	p := &euidOnly{euid: 77, egid: 78}
	uid, ok := BestEffortRUID(p)
	assert.True(t, ok)
	assert.EqualValues(t, 77, uid)

	gid, ok := BestEffortRGID(p)
	assert.True(t, ok)
	assert.EqualValues(t, 78, gid)
}

func TestFileDescriptorsBorrowedCloseIsNoop(t *testing.T) {
	f := BorrowFDs([]int{3, 4})
	assert.NoError(t, f.Close())
	assert.Equal(t, []int{3, 4}, f.FDs(), "borrowed descriptors stay with the caller")
}

func TestFileDescriptorsTakeDisarmsClose(t *testing.T) {
	f := ReceivedFDs([]int{-1})
	got := f.Take()
	assert.Equal(t, []int{-1}, got)
	// Close after Take must not touch the (invalid) descriptor;
	// if it did, unix.Close(-1) would return EBADF here.
	assert.NoError(t, f.Close())
}
