//go:build unix

// Package cmsg implements framing and decoding of Unix ancillary
// (control) messages carried alongside a stream segment or datagram —
// SCM_RIGHTS (file descriptors), SCM_CREDENTIALS / SCM_CREDS (peer
// credentials), and anything else a platform chooses to deliver via
// sendmsg/recvmsg's msg_control.
//
// The wire format is a sequence of cmsghdr-prefixed records, each
// padded up to the platform's cmsg alignment. Building inherits that
// arithmetic from golang.org/x/sys/unix (CmsgLen/CmsgSpace); decoding
// walks the buffer by hand so a truncated trailing record is reported
// rather than silently skipped, matching the behavior documented for
// recvmsg's MSG_CTRUNC.
package cmsg

// Cmsg is one decoded ancillary-data record: a level/type pair
// identifying what the payload means (e.g. SOL_SOCKET/SCM_RIGHTS) and
// the raw payload bytes, still in platform wire format.
type Cmsg struct {
	Level int32
	Type  int32
	Data  []byte
}
