//go:build unix

package cmsg

import (
	"encoding/binary"

	"golang.org/x/sys/unix"
)

// RightsDecoder decodes an SCM_RIGHTS record into the file descriptor
// numbers it carries. The returned ints are freshly dup'd by the
// kernel into the receiving process and must be closed by the caller
// once done (see uds/creds.FileDescriptors for an owning wrapper).
var RightsDecoder = Decoder[[]int]{
	Level: unix.SOL_SOCKET,
	Type:  unix.SCM_RIGHTS,
	Decode: func(data []byte) ([]int, error) {
		// The kernel writes each descriptor as a 32-bit int in the
		// host's native byte order.
		const fdSize = 4
		n := len(data) / fdSize
		fds := make([]int, n)
		for i := 0; i < n; i++ {
			fds[i] = int(int32(binary.NativeEndian.Uint32(data[i*fdSize:])))
		}
		return fds, nil
	},
}

// EncodeRights builds the raw payload for an SCM_RIGHTS record
// carrying fds, suitable for Buffer.AddMessage(unix.SOL_SOCKET,
// unix.SCM_RIGHTS, ...).
func EncodeRights(fds []int) []byte {
	return unix.UnixRights(fds...)[cmsgDataOffset : cmsgDataOffset+4*len(fds)]
}
