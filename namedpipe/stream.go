//go:build windows

package namedpipe

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/windows"

	"github.com/kotauskas/interprocess-go/namedpipe/internal/fs"
)

// ConnectConfig is the Windows-specific subset of
// localsocket.ConnectOptions: what it takes to dial a named pipe
// path under one of the four connect-wait disciplines.
type ConnectConfig struct {
	Path              string
	WaitMode          int // mirrors localsocket.WaitMode's int values
	WaitTimeout       time.Duration
	NonblockingStream bool // the opened stream gets PIPE_NOWAIT applied
}

const (
	waitImmediate = iota
	waitTimeout
	waitUnbounded
	waitDeferred
)

// ErrWaitDeferredUnsupported is returned by Connect when asked for
// WaitDeferred: this engine is built on synchronous overlapped I/O
// (one goroutine blocked per pending operation), not a reactor, so
// there is no half-open "deferred" connect handle to hand back.
var ErrWaitDeferredUnsupported = errors.New("namedpipe: deferred connect wait is not supported by this engine")

// streamCore is the shared body underneath Stream, RecvHalf and
// SendHalf, mirroring package uds's split/reunite design so the two
// platforms present the same ownership model to localsocket's facade.
// owners counts how many values (one unsplit Stream, or two halves)
// currently share the handle; the handle is disposed of exactly once,
// when the count reaches zero.
type streamCore struct {
	*win32File
	path        string
	messageMode bool
	isServer    bool
	owners      atomic.Int32
	writeClosed atomic.Bool
	readEOF     atomic.Bool
	receiving   atomic.Bool
	flush       needsFlush
	closeOnce   sync.Once
	closeErr    error
}

func newStreamCore(f *win32File, path string, messageMode, isServer bool) *streamCore {
	c := &streamCore{win32File: f, path: path, messageMode: messageMode, isServer: isServer}
	c.owners.Store(1)
	return c
}

// enterRecv/exitRecv bracket the receive path. Concurrent recv+send on
// split halves is fine (different syscalls on the same handle), but
// two concurrent receives interleave partial reads unpredictably and
// are outside the contract, so re-entry panics instead of corrupting
// the peer's data silently.
func (s *streamCore) enterRecv() {
	if !s.receiving.CompareAndSwap(false, true) {
		panic("namedpipe: concurrent receive on the same stream")
	}
}

func (s *streamCore) exitRecv() { s.receiving.Store(false) }

// Stream is a connected named-pipe instance, presented as a byte
// stream: Read absorbs a message-mode pipe's boundaries
// (ERROR_MORE_DATA means "keep reading", a zero-byte message means
// end-of-stream), while recvmsg.go additionally exposes the
// boundaries themselves for callers that asked for ModeMessages.
type Stream struct {
	*streamCore
}

func newAcceptedStream(f *win32File, path string, messageMode bool) (*Stream, error) {
	return &Stream{newStreamCore(f, path, messageMode, true)}, nil
}

// ErrWouldBlock is returned by Connect in WaitImmediate mode when the
// pipe exists but has no free instance (ERROR_PIPE_BUSY).
var ErrWouldBlock = errors.New("namedpipe: no pipe instance is available to connect to")

// Connect dials a named pipe, retrying past ERROR_PIPE_BUSY according
// to cfg.WaitMode. WaitImmediate makes one attempt and maps
// ERROR_PIPE_BUSY to ErrWouldBlock; WaitTimeout bounds the retry loop
// to cfg.WaitTimeout (a zero timeout degenerates to WaitImmediate) and
// reports expiry as ErrTimeout; WaitUnbounded retries forever;
// WaitDeferred is rejected with ErrWaitDeferredUnsupported.
func Connect(cfg ConnectConfig) (*Stream, error) {
	var h windows.Handle
	var err error
	switch cfg.WaitMode {
	case waitDeferred:
		return nil, ErrWaitDeferredUnsupported
	case waitImmediate:
		h, err = dialPipeOnce(cfg.Path)
	case waitTimeout:
		if cfg.WaitTimeout <= 0 {
			h, err = dialPipeOnce(cfg.Path)
			break
		}
		ctx, cancel := context.WithTimeout(context.Background(), cfg.WaitTimeout)
		h, err = tryDialPipe(ctx, cfg.Path)
		cancel()
	default: // waitUnbounded
		h, err = tryDialPipe(context.Background(), cfg.Path)
	}
	if err != nil {
		return nil, err
	}

	var pipeFlags uint32
	if err := getNamedPipeInfo(h, &pipeFlags, nil, nil, nil); err != nil {
		windows.Close(h)
		return nil, err
	}

	// A message-type pipe is opened in byte read mode by default;
	// switch the client end over so each ReadFile consumes exactly one
	// message. CreateFile above granted GENERIC_WRITE, which includes
	// the FILE_WRITE_ATTRIBUTES right this call needs.
	messageMode := pipeFlags&windows.PIPE_TYPE_MESSAGE != 0
	if messageMode || cfg.NonblockingStream {
		var state uint32
		if messageMode {
			state |= windows.PIPE_READMODE_MESSAGE
		}
		if cfg.NonblockingStream {
			state |= windows.PIPE_NOWAIT
		}
		if err := setNamedPipeHandleState(h, &state, nil, nil); err != nil {
			windows.Close(h)
			return nil, err
		}
	}

	f, err := makeWin32File(h)
	if err != nil {
		windows.Close(h)
		return nil, err
	}

	return &Stream{newStreamCore(f, cfg.Path, messageMode, false)}, nil
}

// dialPipeOnce makes a single CreateFile attempt, mapping
// ERROR_PIPE_BUSY to ErrWouldBlock.
func dialPipeOnce(path string) (windows.Handle, error) {
	h, err := fs.CreateFile(path,
		fs.GENERIC_READ|fs.GENERIC_WRITE,
		0,
		nil,
		fs.OPEN_EXISTING,
		fs.FILE_FLAG_OVERLAPPED|fs.SECURITY_SQOS_PRESENT|fs.SECURITY_ANONYMOUS,
		0)
	if err == nil {
		return h, nil
	}
	if err == windows.ERROR_PIPE_BUSY { //nolint:errorlint // err is Errno
		return h, ErrWouldBlock
	}
	return h, &os.PathError{Err: err, Op: "open", Path: path}
}

// tryDialPipe spins on dialPipeOnce until the pipe stops being busy or
// ctx expires; a deadline expiry is reported as ErrTimeout.
func tryDialPipe(ctx context.Context, path string) (windows.Handle, error) {
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return windows.Handle(0), ErrTimeout
			}
			return windows.Handle(0), ctx.Err()
		default:
			h, err := dialPipeOnce(path)
			if !errors.Is(err, ErrWouldBlock) {
				return h, err
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// Read absorbs message-mode framing: ERROR_MORE_DATA is treated as a
// successful partial read, and a zero-byte message (used by
// CloseWrite to signal EOF) latches readEOF so every subsequent Read
// also returns io.EOF.
func (s *streamCore) Read(b []byte) (int, error) {
	s.enterRecv()
	defer s.exitRecv()
	if s.readEOF.Load() {
		return 0, io.EOF
	}
	n, err := s.win32File.Read(b)
	switch {
	case errors.Is(err, io.EOF):
		s.readEOF.Store(true)
	case errors.Is(err, windows.ERROR_MORE_DATA):
		err = nil
	}
	return n, err
}

// Write rejects further writes once CloseWrite has sent the
// zero-byte EOF marker.
func (s *streamCore) Write(b []byte) (int, error) {
	if s.writeClosed.Load() {
		return 0, errPipeWriteClosed
	}
	if len(b) == 0 {
		return 0, nil
	}
	n, err := s.win32File.Write(b)
	if err == nil {
		s.flush.markDirty()
	}
	return n, err
}

var errPipeWriteClosed = errors.New("namedpipe: pipe has been closed for write")

// Flush drains every write made since the last flush to the peer's
// buffer. It is idempotent: a second Flush with no intervening write
// doesn't reach FlushFileBuffers at all, per needsFlush. On failure
// the dirty state is restored so a later Flush (or the limbo pool)
// retries.
func (s *streamCore) Flush() error {
	if !s.flush.take() {
		return nil
	}
	if err := s.win32File.Flush(); err != nil {
		s.flush.markDirty()
		return err
	}
	return nil
}

// CloseWrite half-closes a message-mode pipe's write side by sending
// a zero-byte message, which Read on the peer surfaces as io.EOF.
// It flushes the pipe first, so it returns only once the peer has
// read what was written before it. Only meaningful for ModeMessages streams; a byte-mode pipe has no
// way to signal this distinctly from a normal Close.
func (s *streamCore) CloseWrite() error {
	if s.writeClosed.Load() {
		return errPipeWriteClosed
	}
	if err := s.win32File.Flush(); err != nil {
		return err
	}
	if _, err := s.win32File.Write(nil); err != nil {
		return err
	}
	s.writeClosed.Store(true)
	return nil
}

// Disconnect tears down the client connection without closing the
// handle, allowing the server to reuse the instance — not exposed
// through the facade directly, but available for callers that manage
// their own pool of server-side Streams.
func (s *streamCore) Disconnect() error {
	return disconnectNamedPipe(s.win32File.handle)
}

func (s *streamCore) LocalAddr() net.Addr  { return pipeAddress(s.path) }
func (s *streamCore) RemoteAddr() net.Addr { return pipeAddress(s.path) }

func (s *streamCore) SetDeadline(t time.Time) error {
	if err := s.SetReadDeadline(t); err != nil {
		return err
	}
	return s.SetWriteDeadline(t)
}

// Close releases the caller's share of the handle. An unsplit Stream
// disposes of it immediately; split halves jointly own it, so closing
// one half leaves the other fully usable and the handle is disposed
// of only when the second half closes. Disposal happens exactly once
// no matter how many further Close calls arrive, and routes a dirty
// handle — written to since the last flush, per needsFlush — through
// the limbo pool to be flushed and closed in the background, so a
// caller closing a just-written Stream doesn't lose the tail of its
// last write.
func (s *streamCore) Close() error {
	if s.owners.Add(-1) > 0 {
		return nil
	}
	s.closeOnce.Do(func() {
		if s.flush.take() {
			limboPool.sendToLimbo(s.win32File)
			return
		}
		s.closeErr = s.win32File.Close()
	})
	return s.closeErr
}

// EvadeLimbo clears the stream's dirty state without flushing: a
// caller that knows the peer doesn't care about the last write (or
// has already flushed by other means) can call this before Close to
// skip the limbo pool entirely.
func (s *streamCore) EvadeLimbo() { s.flush.state.Store(int32(flushClean)) }

// RecvHalf is the read side of a split Stream.
type RecvHalf struct{ core *streamCore }

// SendHalf is the write side of a split Stream.
type SendHalf struct{ core *streamCore }

func (r *RecvHalf) Read(b []byte) (int, error) { return r.core.Read(b) }
func (r *RecvHalf) Close() error               { return r.core.Close() }

func (w *SendHalf) Write(b []byte) (int, error) { return w.core.Write(b) }
func (w *SendHalf) Close() error                { return w.core.Close() }

// Split transfers ownership of the Stream's handle into a shared
// core, returning independent recv/send halves that jointly own the
// handle. After Split, s itself must not be used.
func (s *Stream) Split() (*RecvHalf, *SendHalf) {
	s.flush.onClone()
	s.owners.Store(2)
	return &RecvHalf{core: s.streamCore}, &SendHalf{core: s.streamCore}
}

// ErrNotReunitable is returned by Reunite when the two halves did not
// originate from the same Split call.
var ErrNotReunitable = &reuniteError{}

type reuniteError struct{}

func (*reuniteError) Error() string { return "namedpipe: halves did not come from the same split" }

// Reunite recombines a RecvHalf and SendHalf into a single Stream, but
// only if they share the same underlying core (pointer identity). The
// returned Stream is the handle's sole owner again; the consumed
// halves must not be used (or closed) afterward.
func Reunite(r *RecvHalf, w *SendHalf) (*Stream, *RecvHalf, *SendHalf, error) {
	if r.core != w.core {
		return nil, r, w, ErrNotReunitable
	}
	r.core.owners.Store(1)
	return &Stream{r.core}, nil, nil, nil
}
