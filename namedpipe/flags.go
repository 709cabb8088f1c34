//go:build windows

package namedpipe

import "golang.org/x/sys/windows"

// npfsTypeFlags computes the NamedPipeType bits NtCreateNamedPipeFile
// expects. Every instance of a pipe in this package — the first and
// every subsequent one — goes through NtCreateNamedPipeFile rather
// than CreateNamedPipeW, which is what lets the first instance be
// opened with no read/write access (see makeServerPipeHandle) so NPFS
// parks it in a disconnected state until a client arrives.
//
// acceptRemote mirrors ListenerOptions.AcceptRemote: false rejects
// connections relayed in from another machine over SMB, which for a
// same-host IPC primitive is the sane default.
func npfsTypeFlags(messageMode, acceptRemote bool) uint32 {
	typ := uint32(0)
	if !acceptRemote {
		typ |= windows.FILE_PIPE_REJECT_REMOTE_CLIENTS
	}
	if messageMode {
		typ |= windows.FILE_PIPE_MESSAGE_TYPE
	}
	return typ
}
