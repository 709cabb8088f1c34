//go:build unix

package cmsg

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ErrTruncated is returned when a buffer ends mid-header or claims a
// length that would read past its own end — the MSG_CTRUNC case,
// surfaced explicitly rather than silently truncating the last
// record.
var ErrTruncated = fmt.Errorf("cmsg: truncated control message buffer")

// Parse walks a raw ancillary-data buffer (as returned in the oob
// slice from unix.Recvmsg) and returns every well-formed record it
// contains. A record whose declared length would overrun the buffer
// is clipped to the remaining bytes rather than read out of bounds;
// if that clip actually had to trim anything, ErrTruncated is
// returned alongside the records successfully parsed so far.
func Parse(raw []byte) ([]Cmsg, error) {
	var out []Cmsg
	rest := raw
	for len(rest) > 0 {
		if len(rest) < cmsgDataOffset {
			return out, ErrTruncated
		}
		hdr := (*unix.Cmsghdr)(unsafe.Pointer(&rest[0]))
		level := hdr.Level
		typ := hdr.Type

		declared := int(hdr.Len)
		if declared < cmsgDataOffset {
			return out, ErrTruncated
		}

		clipped := declared
		truncated := false
		if clipped > len(rest) {
			clipped = len(rest)
			truncated = true
		}

		out = append(out, Cmsg{
			Level: level,
			Type:  typ,
			Data:  append([]byte(nil), rest[cmsgDataOffset:clipped]...),
		})

		if truncated {
			return out, ErrTruncated
		}

		advance := unix.CmsgSpace(clipped - cmsgDataOffset)
		if advance <= 0 || advance > len(rest) {
			break
		}
		rest = rest[advance:]
	}
	return out, nil
}
