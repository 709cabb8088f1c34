//go:build windows

package namedpipe

// PeerPID returns the process ID of the process on the other end of
// the pipe. It is the whole of the peer-credential story on Windows:
// NPFS, unlike SO_PEERCRED, has no notion of uid/gid for a local
// connection.
func (s *streamCore) PeerPID() (uint32, error) {
	var pid uint32
	var err error
	if s.isServer {
		err = getNamedPipeClientProcessId(s.win32File.handle, &pid)
	} else {
		err = getNamedPipeServerProcessId(s.win32File.handle, &pid)
	}
	if err != nil {
		return 0, err
	}
	return pid, nil
}
