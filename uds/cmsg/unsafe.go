//go:build unix

package cmsg

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// cmsgDataOffset is the number of leading bytes a cmsghdr occupies
// before its payload starts, including any alignment padding the
// platform inserts between the header and CMSG_DATA.
var cmsgDataOffset = unix.CmsgLen(0)

func unsafeCmsghdrAt(buf []byte, offset int) unsafe.Pointer {
	return unsafe.Pointer(&buf[offset])
}
