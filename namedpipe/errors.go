//go:build windows

package namedpipe

import "net"

// ErrListenerClosed is returned for pipe operations on listeners that
// have been closed.
var ErrListenerClosed = net.ErrClosed

// ErrConfigConflict names the server-side combination the Win32 API
// rejects: a PIPE_TYPE_BYTE pipe read in message mode. Listen does not
// return it, because ListenConfig.MessageMode sets the pipe type and
// the read mode together, so that combination cannot be requested.
var ErrConfigConflict = &configError{"byte-mode pipe cannot be read in message mode"}

type configError struct{ msg string }

func (e *configError) Error() string { return "namedpipe: " + e.msg }
