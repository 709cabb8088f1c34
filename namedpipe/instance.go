//go:build windows

package namedpipe

import (
	"fmt"
	"os"
	"runtime"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/kotauskas/interprocess-go/namedpipe/internal/fs"
)

// npInstanceLimit turns the 0..=254 InstanceLimit convention described
// in localsocket.ListenerOptions into NtCreateNamedPipeFile's
// MaxInstances parameter, where 0xffffffff means unlimited.
func npInstanceLimit(limit int) uint32 {
	if limit <= 0 {
		return 0xffffffff
	}
	if limit > 254 {
		limit = 254
	}
	return uint32(limit)
}

// instanceConfig carries everything about a listener that every
// instance it creates needs, so makeServerPipeHandle doesn't have to
// reach back into the listener itself (which would entangle instance
// creation with the listener's own locking).
type instanceConfig struct {
	messageMode      bool
	acceptRemote     bool
	writeThrough     bool
	inheritable      bool
	instanceLimit    int
	inputBufferSize  int32
	outputBufferSize int32
	defaultTimeout   time.Duration
	securityDesc     []byte
}

// NT-level named-pipe read modes, NtCreateNamedPipeFile's ReadMode
// parameter (distinct from the Win32 PIPE_READMODE_* values used with
// SetNamedPipeHandleState).
const (
	filePipeByteStreamMode = 0x0
	filePipeMessageMode    = 0x1
)

// makeServerPipeHandle opens one NPFS instance of path. first selects
// the no-read/write-access open that NPFS uses to mean "this is the
// first instance of the pipe name, reserve it but stay disconnected",
// and is the only call that's allowed (and required) to carry a
// security descriptor.
func makeServerPipeHandle(path string, c *instanceConfig, first bool) (windows.Handle, error) {
	path16, err := windows.UTF16FromString(path)
	if err != nil {
		return 0, &os.PathError{Op: "open", Path: path, Err: err}
	}

	var oa objectAttributes
	oa.Length = unsafe.Sizeof(oa)

	var ntPath unicodeString
	if err := rtlDosPathNameToNtPathName(&path16[0], &ntPath, 0, 0).Err(); err != nil {
		return 0, &os.PathError{Op: "open", Path: path, Err: err}
	}
	defer windows.LocalFree(windows.Handle(ntPath.Buffer)) //nolint:errcheck
	oa.ObjectName = &ntPath
	oa.Attributes = windows.OBJ_CASE_INSENSITIVE
	if c.inheritable {
		oa.Attributes |= windows.OBJ_INHERIT
	}

	if first {
		if c.securityDesc != nil {
			l := uint32(len(c.securityDesc))
			sdb, err := windows.LocalAlloc(0, l)
			if err != nil {
				return 0, fmt.Errorf("allocating security descriptor of length %d: %w", l, err)
			}
			defer windows.LocalFree(windows.Handle(sdb)) //nolint:errcheck
			copy((*[0xffff]byte)(unsafe.Pointer(sdb))[:], c.securityDesc)
			oa.SecurityDescriptor = (*securityDescriptor)(unsafe.Pointer(sdb))
		} else {
			var dacl uintptr
			if err := rtlDefaultNpAcl(&dacl).Err(); err != nil {
				return 0, fmt.Errorf("getting default named pipe ACL: %w", err)
			}
			defer windows.LocalFree(windows.Handle(dacl)) //nolint:errcheck
			oa.SecurityDescriptor = &securityDescriptor{
				Revision: 1,
				Control:  windows.SE_DACL_PRESENT,
				Dacl:     dacl,
			}
		}
	}

	typ := npfsTypeFlags(c.messageMode, c.acceptRemote)

	disposition := fs.FILE_OPEN
	access := fs.GENERIC_READ | fs.GENERIC_WRITE | fs.SYNCHRONIZE
	if first {
		disposition = fs.FILE_CREATE
		// Asking for no read/write access here is what puts the
		// instance into NPFS's disconnected-but-reserved state until
		// the next makeServerPipeHandle(first=false) call.
		access = fs.SYNCHRONIZE
	}

	var options fs.NTCreateOptions
	if c.writeThrough {
		options |= fs.FILE_WRITE_THROUGH
	}

	readMode := uint32(filePipeByteStreamMode)
	if c.messageMode {
		readMode = filePipeMessageMode
	}

	// WaitNamedPipe's default timeout for this pipe name; negative
	// means relative in NT time units (100ns ticks).
	waitDefault := 50 * time.Millisecond
	if c.defaultTimeout > 0 {
		waitDefault = c.defaultTimeout
	}
	timeout := -waitDefault.Nanoseconds() / 100

	var (
		h    windows.Handle
		iosb ioStatusBlock
	)
	err = ntCreateNamedPipeFile(&h,
		access,
		&oa,
		&iosb,
		fs.FILE_SHARE_READ|fs.FILE_SHARE_WRITE,
		disposition,
		options,
		typ,
		readMode,
		0,
		npInstanceLimit(c.instanceLimit),
		uint32(c.inputBufferSize),
		uint32(c.outputBufferSize),
		&timeout).Err()
	if err != nil {
		return 0, &os.PathError{Op: "open", Path: path, Err: err}
	}

	runtime.KeepAlive(ntPath)
	return h, nil
}

// connectPipe waits for a client to connect to an already-open,
// disconnected server instance.
func connectPipe(p *win32File) error {
	c, err := p.prepareIO()
	if err != nil {
		return err
	}
	defer p.wg.Done()

	err = connectNamedPipe(p.handle, &c.o)
	_, err = p.asyncIO(c, nil, 0, err)
	if err != nil && err != windows.ERROR_PIPE_CONNECTED { //nolint:errorlint // err is Errno
		return err
	}
	return nil
}
