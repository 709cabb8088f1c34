//go:build linux

package creds

import (
	"github.com/kotauskas/interprocess-go/uds/cmsg"
	"golang.org/x/sys/unix"
)

// scmCredentialsDecoder decodes the SCM_CREDENTIALS ancillary message
// Linux delivers per-datagram once SO_PASSCRED is enabled on the
// socket, reusing unix.ParseUnixCredentials' struct ucred layout
// rather than duplicating it.
var scmCredentialsDecoder = cmsg.Decoder[*Ucred]{
	Level:   unix.SOL_SOCKET,
	Type:    unix.SCM_CREDENTIALS,
	MinSize: 12,
	Decode: func(data []byte) (*Ucred, error) {
		sm := unix.SocketControlMessage{
			Header: unix.Cmsghdr{Level: unix.SOL_SOCKET, Type: unix.SCM_CREDENTIALS},
			Data:   data,
		}
		raw, err := unix.ParseUnixCredentials(&sm)
		if err != nil {
			return nil, err
		}
		return &Ucred{PID: raw.Pid, UID: raw.Uid, GID: raw.Gid}, nil
	},
}

// DecodeSCMCredentials decodes an SCM_CREDENTIALS record produced by
// a SO_PASSCRED-enabled socket into Ucred.
func DecodeSCMCredentials(m cmsg.Cmsg) (*Ucred, error) {
	return cmsg.Decode(scmCredentialsDecoder, m)
}
