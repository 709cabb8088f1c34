//go:build windows

package namedpipe

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/windows"
)

var (
	// ErrFileClosed is returned when an I/O is attempted on a closed handle.
	ErrFileClosed = errors.New("file has already been closed")
	// ErrTimeout is returned for an I/O that hits its deadline before completing.
	ErrTimeout = &timeoutError{}
)

type timeoutError struct{}

func (*timeoutError) Error() string   { return "i/o timeout" }
func (*timeoutError) Timeout() bool   { return true }
func (*timeoutError) Temporary() bool { return true }

// ioCompletionPort is the single completion port every overlapped
// handle opened through makeWin32File is associated with. One
// processor goroutine drains it and routes each completion to the
// ioOperation that queued it, keyed by the operation's own address
// (passed to the kernel as the OVERLAPPED pointer, and handed back
// unchanged in the completion packet).
var (
	ioCompletionPort windows.Handle
	ioInitOnce       sync.Once
	ioInitErr        error
)

func ensureIOCompletionPort() error {
	ioInitOnce.Do(func() {
		h, err := windows.CreateIoCompletionPort(windows.InvalidHandle, 0, 0, 0xffffffff)
		if err != nil {
			ioInitErr = err
			return
		}
		ioCompletionPort = h
		go ioCompletionProcessor(h)
	})
	return ioInitErr
}

type ioResult struct {
	bytes uint32
	err   error
}

type ioOperation struct {
	o  windows.Overlapped
	ch chan ioResult
}

func ioCompletionProcessor(port windows.Handle) {
	for {
		var bytes uint32
		var key uintptr
		var ov *windows.Overlapped
		err := windows.GetQueuedCompletionStatus(port, &bytes, &key, &ov, windows.INFINITE)
		if ov == nil {
			// The port itself was closed or an unexpected error occurred;
			// either way there's nothing left to route.
			return
		}
		op := (*ioOperation)(unsafePointerFromOverlapped(ov))
		if err != nil {
			op.ch <- ioResult{bytes, err}
		} else {
			op.ch <- ioResult{bytes, nil}
		}
	}
}

// timeoutChan lets Read/Write deadlines preempt a pending overlapped
// operation: SetDeadline closes (and replaces) the channel at the
// given time, and asyncIO selects on it alongside the completion
// channel.
type timeoutChan struct {
	mu      sync.Mutex
	channel chan struct{}
	timer   *time.Timer
}

func (t *timeoutChan) c() chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.channel == nil {
		t.channel = make(chan struct{})
	}
	return t.channel
}

func (t *timeoutChan) set(deadline time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	if t.channel != nil {
		select {
		case <-t.channel:
		default:
			close(t.channel)
		}
	}
	t.channel = make(chan struct{})
	if deadline.IsZero() {
		return
	}
	d := time.Until(deadline)
	if d <= 0 {
		close(t.channel)
		return
	}
	ch := t.channel
	t.timer = time.AfterFunc(d, func() { close(ch) })
}

// win32File wraps an overlapped-mode Win32 handle (a named pipe
// instance in this package's case) with the asynchronous-but-looks-
// synchronous Read/Write contract the rest of namedpipe is built on:
// every blocking call queues an overlapped operation, associates a
// deadline channel, and waits for whichever fires first.
type win32File struct {
	handle                      windows.Handle
	wg                          sync.WaitGroup
	wgLock                      sync.RWMutex
	closing                     atomic.Bool
	socket                      bool
	readDeadline, writeDeadline timeoutChan
}

// makeWin32File associates h with the shared completion port and
// wraps it, taking ownership: Close on the returned *win32File closes
// h.
func makeWin32File(h windows.Handle) (*win32File, error) {
	if err := ensureIOCompletionPort(); err != nil {
		return nil, err
	}
	if _, err := windows.CreateIoCompletionPort(h, ioCompletionPort, 0, 0xffffffff); err != nil {
		return nil, err
	}
	if err := windows.SetFileCompletionNotificationModes(h,
		windows.FILE_SKIP_COMPLETION_PORT_ON_SUCCESS|windows.FILE_SKIP_SET_EVENT_ON_HANDLE); err != nil {
		return nil, err
	}
	return &win32File{handle: h}, nil
}

// prepareIO registers intent to start one overlapped operation. It
// must be paired with wg.Done() (directly, or via the defer pattern
// every caller in this package uses) once the operation, successful
// or not, has fully completed.
func (f *win32File) prepareIO() (*ioOperation, error) {
	if f.closing.Load() {
		return nil, ErrFileClosed
	}
	f.wgLock.RLock()
	defer f.wgLock.RUnlock()
	if f.closing.Load() {
		return nil, ErrFileClosed
	}
	f.wg.Add(1)
	return &ioOperation{ch: make(chan ioResult, 1)}, nil
}

// asyncIO waits for the overlapped operation c to complete, racing it
// against deadline (nil for none) and the file's close signal. err is
// the immediate return from the syscall that queued c; on Windows an
// overlapped call that will complete asynchronously returns
// ERROR_IO_PENDING, which asyncIO treats as "wait for completion"
// rather than an error.
func (f *win32File) asyncIO(c *ioOperation, deadline *timeoutChan, bytes uint32, err error) (int, error) {
	if err != windows.ERROR_IO_PENDING { //nolint:errorlint // err is Errno
		return int(bytes), err
	}

	if f.closing.Load() {
		windows.CancelIoEx(f.handle, &c.o)
	}

	var timeoutC <-chan struct{}
	if deadline != nil {
		timeoutC = deadline.c()
	}

	select {
	case r := <-c.ch:
		return int(r.bytes), r.err
	case <-timeoutC:
		windows.CancelIoEx(f.handle, &c.o)
		r := <-c.ch
		if r.err == nil || errors.Is(r.err, windows.ERROR_OPERATION_ABORTED) {
			return int(r.bytes), ErrTimeout
		}
		return int(r.bytes), r.err
	}
}

// Read implements io.Reader using an overlapped ReadFile.
func (f *win32File) Read(b []byte) (int, error) {
	c, err := f.prepareIO()
	if err != nil {
		return 0, err
	}
	defer f.wg.Done()

	var bytes uint32
	if len(b) == 0 {
		return 0, nil
	}
	err = windows.ReadFile(f.handle, b, &bytes, &c.o)
	n, err := f.asyncIO(c, &f.readDeadline, bytes, err)
	if err != nil {
		if errors.Is(err, windows.ERROR_BROKEN_PIPE) {
			return 0, io.EOF
		}
		return n, err
	}
	if n == 0 && len(b) != 0 {
		return 0, io.EOF
	}
	return n, nil
}

// Write implements io.Writer using an overlapped WriteFile.
func (f *win32File) Write(b []byte) (int, error) {
	c, err := f.prepareIO()
	if err != nil {
		return 0, err
	}
	defer f.wg.Done()

	var bytes uint32
	err = windows.WriteFile(f.handle, b, &bytes, &c.o)
	return f.asyncIO(c, &f.writeDeadline, bytes, err)
}

// Flush flushes any buffered but unwritten data.
func (f *win32File) Flush() error {
	return windows.FlushFileBuffers(f.handle)
}

// SetReadDeadline arms (or clears, with a zero Time) the deadline
// used by Read.
func (f *win32File) SetReadDeadline(t time.Time) error {
	f.readDeadline.set(t)
	return nil
}

// SetWriteDeadline is Write's analogue of SetReadDeadline.
func (f *win32File) SetWriteDeadline(t time.Time) error {
	f.writeDeadline.set(t)
	return nil
}

// IsClosed reports whether Close has already been called.
func (f *win32File) IsClosed() bool {
	return f.closing.Load()
}

// Close cancels any in-flight I/O and closes the underlying handle.
// It waits for outstanding asyncIO calls to observe the cancellation
// before returning, so a concurrent Read/Write is guaranteed to have
// returned by the time Close does.
func (f *win32File) Close() error {
	f.wgLock.Lock()
	if f.closing.Load() {
		f.wgLock.Unlock()
		return nil
	}
	f.closing.Store(true)
	f.wgLock.Unlock()

	windows.CancelIoEx(f.handle, nil) //nolint:errcheck
	f.wg.Wait()
	return windows.CloseHandle(f.handle)
}
