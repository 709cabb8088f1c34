//go:build unix

package cmsg

import "golang.org/x/sys/unix"

// Buffer accumulates cmsghdr-framed records for a single sendmsg call.
// The zero value is an empty Buffer ready for use; NewBuffer only
// preallocates capacity.
type Buffer struct {
	buf []byte
}

// NewBuffer returns an empty Buffer with room for at least capacity
// bytes of framed ancillary data before it must grow.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{buf: make([]byte, 0, capacity)}
}

// Reserve grows the buffer's capacity so that at least extra more
// bytes can be appended without a further allocation. It never
// shrinks the buffer.
func (b *Buffer) Reserve(extra int) {
	if cap(b.buf)-len(b.buf) >= extra {
		return
	}
	grown := make([]byte, len(b.buf), len(b.buf)+extra)
	copy(grown, b.buf)
	b.buf = grown
}

// ReserveExact behaves like Reserve but never over-allocates beyond
// what extra requires.
func (b *Buffer) ReserveExact(extra int) { b.Reserve(extra) }

// AddMessage appends one cmsghdr-framed record carrying data tagged
// with (level, typ), zero-padding up to the platform's cmsg alignment
// so a subsequent record (or the kernel's own CMSG_NXTHDR walk)
// starts at a valid boundary.
func (b *Buffer) AddMessage(level, typ int32, data []byte) {
	space := unix.CmsgSpace(len(data))
	b.Reserve(space)

	start := len(b.buf)
	b.buf = b.buf[:start+space]
	for i := start; i < start+space; i++ {
		b.buf[i] = 0
	}

	hdr := (*unix.Cmsghdr)(unsafeCmsghdrAt(b.buf, start))
	hdr.SetLen(unix.CmsgLen(len(data)))
	hdr.Level = level
	hdr.Type = typ

	copy(b.buf[start+cmsgDataOffset:], data)
}

// AddRawMessage is a synonym for AddMessage kept for callers that
// build payloads opaquely (e.g. an SCM_RIGHTS payload from
// EncodeRights) rather than through a typed encoder. raw is the
// record's payload only; the cmsghdr is added here.
func (b *Buffer) AddRawMessage(level, typ int32, raw []byte) {
	b.AddMessage(level, typ, raw)
}

// Bytes returns the accumulated wire-format ancillary data, suitable
// for passing as the oob argument to unix.Sendmsg.
func (b *Buffer) Bytes() []byte { return b.buf }

// Len returns the number of bytes accumulated so far.
func (b *Buffer) Len() int { return len(b.buf) }
