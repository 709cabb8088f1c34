//go:build unix

package creds

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/kotauskas/interprocess-go/uds/cmsg"
)

// Sends a pipe's write end across a socketpair as SCM_RIGHTS, writes
// through the received descriptor, and reads the byte back out of the
// original pipe.
func TestFileDescriptorPassing(t *testing.T) {
	sp, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	require.NoError(t, err)
	defer unix.Close(sp[0])
	defer unix.Close(sp[1])

	var pipeFDs [2]int
	require.NoError(t, unix.Pipe(pipeFDs[:]))
	pr, pw := pipeFDs[0], pipeFDs[1]
	defer unix.Close(pr)
	defer unix.Close(pw)

	borrowed := BorrowFDs([]int{pw})
	buf := cmsg.NewBuffer(64)
	buf.AddRawMessage(unix.SOL_SOCKET, unix.SCM_RIGHTS, cmsg.EncodeRights(borrowed.FDs()))
	require.NoError(t, unix.Sendmsg(sp[0], []byte{1}, buf.Bytes(), nil, 0))

	data := make([]byte, 1)
	oob := make([]byte, 128)
	_, oobn, _, _, err := unix.Recvmsg(sp[1], data, oob, 0)
	require.NoError(t, err)

	msgs, err := cmsg.Parse(oob[:oobn])
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	fds, err := cmsg.Decode(cmsg.RightsDecoder, msgs[0])
	require.NoError(t, err)
	require.Len(t, fds, 1)

	received := ReceivedFDs(fds)
	defer received.Close()

	_, err = unix.Write(received.FDs()[0], []byte{0x7F})
	require.NoError(t, err)

	got := make([]byte, 1)
	_, err = unix.Read(pr, got)
	require.NoError(t, err)
	require.Equal(t, byte(0x7F), got[0])
}
