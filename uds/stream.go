//go:build unix

package uds

import (
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"github.com/kotauskas/interprocess-go/uds/creds"
)

// ConnectConfig is the UDS-specific subset of localsocket.ConnectOptions.
type ConnectConfig struct {
	Addr        UdAddr
	Nonblocking bool
}

// Stream is a connected UDS byte stream. A freshly connected or
// accepted Stream exclusively owns its file descriptor; Split
// transfers that ownership into a shared core so two halves can be
// used from different goroutines concurrently (recv+send).
type Stream struct {
	*streamCore
}

// streamCore is the shared body underneath Stream and its halves.
// Split wraps a Stream in two halves that both point at the same
// core; Reunite requires pointer identity of the two halves' cores.
// owners counts how many values (one unsplit Stream, or two halves)
// currently share the descriptor; it is closed exactly once, when the
// count reaches zero.
type streamCore struct {
	fd          int
	nonblocking bool
	owners      atomic.Int32
	closeOnce   sync.Once
	closeErr    error
}

func newStreamCore(fd int, nonblocking bool) *streamCore {
	c := &streamCore{fd: fd, nonblocking: nonblocking}
	c.owners.Store(1)
	return c
}

// Connect performs socket+connect against the given address.
func Connect(cfg ConnectConfig) (*Stream, error) {
	term, err := cfg.Addr.Terminate()
	if err != nil {
		return nil, err
	}
	typ := unix.SOCK_STREAM | unix.SOCK_CLOEXEC
	if cfg.Nonblocking {
		typ |= unix.SOCK_NONBLOCK
	}
	fd, err := unix.Socket(unix.AF_UNIX, typ, 0)
	if err != nil {
		return nil, os.NewSyscallError("socket", err)
	}
	if err := unix.Connect(fd, term.Sockaddr()); err != nil {
		unix.Close(fd)
		return nil, os.NewSyscallError("connect", err)
	}
	return &Stream{newStreamCore(fd, cfg.Nonblocking)}, nil
}

func (s *streamCore) Read(b []byte) (int, error) {
	n, err := unix.Read(s.fd, b)
	if err != nil {
		return 0, os.NewSyscallError("read", err)
	}
	if n == 0 && len(b) > 0 {
		// A zero-byte read on a stream socket means the peer closed
		// its write side.
		return 0, io.EOF
	}
	return n, nil
}

func (s *streamCore) Write(b []byte) (int, error) {
	n, err := unix.Write(s.fd, b)
	if err != nil {
		return n, os.NewSyscallError("write", err)
	}
	return n, nil
}

// SetRecvTimeout sets SO_RCVTIMEO. A zero duration clears the timeout.
func (s *streamCore) SetRecvTimeout(d time.Duration) error {
	return os.NewSyscallError("setsockopt(SO_RCVTIMEO)", unix.SetsockoptTimeval(s.fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, durationToTimeval(d)))
}

// SetSendTimeout sets SO_SNDTIMEO. A zero duration clears the timeout.
func (s *streamCore) SetSendTimeout(d time.Duration) error {
	return os.NewSyscallError("setsockopt(SO_SNDTIMEO)", unix.SetsockoptTimeval(s.fd, unix.SOL_SOCKET, unix.SO_SNDTIMEO, durationToTimeval(d)))
}

func durationToTimeval(d time.Duration) *unix.Timeval {
	tv := unix.NsecToTimeval(d.Nanoseconds())
	return &tv
}

// TakeError returns and clears the last asynchronous error observed
// on the socket (SO_ERROR).
func (s *streamCore) TakeError() error {
	errno, err := unix.GetsockoptInt(s.fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return os.NewSyscallError("getsockopt(SO_ERROR)", err)
	}
	if errno == 0 {
		return nil
	}
	return os.NewSyscallError("so_error", unix.Errno(errno))
}

// PeerCreds queries the connected peer's credentials, dispatching to
// the platform-specific sockopt in package creds.
func (s *streamCore) PeerCreds() (creds.Credentials, error) {
	return creds.ForSocket(s.fd)
}

// Close releases the caller's share of the descriptor. An unsplit
// Stream closes it immediately; split halves jointly own it, so the
// descriptor is closed only when the second half closes, and exactly
// once no matter how many further Close calls arrive.
func (s *streamCore) Close() error {
	if s.owners.Add(-1) > 0 {
		return nil
	}
	s.closeOnce.Do(func() {
		s.closeErr = os.NewSyscallError("close", unix.Close(s.fd))
	})
	return s.closeErr
}

// shutdownDirection half-closes one direction of the socket when a
// half is closed while its sibling is still live, so the peer
// observes EOF (or EPIPE) for that direction even though the
// descriptor itself stays open for the surviving half.
func (s *streamCore) shutdownDirection(how int) {
	if s.owners.Load() > 0 {
		unix.Shutdown(s.fd, how) //nolint:errcheck // best effort; the peer may already be gone
	}
}

func (s *streamCore) Fd() int { return s.fd }

// RecvHalf is the read side of a split Stream.
type RecvHalf struct{ core *streamCore }

// SendHalf is the write side of a split Stream.
type SendHalf struct{ core *streamCore }

func (r *RecvHalf) Read(b []byte) (int, error) { return r.core.Read(b) }

// Close shuts down the receive direction and releases this half's
// share of the descriptor; the descriptor itself is closed once the
// send half has been closed too.
func (r *RecvHalf) Close() error {
	r.core.shutdownDirection(unix.SHUT_RD)
	return r.core.Close()
}

func (w *SendHalf) Write(b []byte) (int, error) { return w.core.Write(b) }

// Close shuts down the send direction (the peer's reads see EOF) and
// releases this half's share of the descriptor; the descriptor itself
// is closed once the receive half has been closed too.
func (w *SendHalf) Close() error {
	w.core.shutdownDirection(unix.SHUT_WR)
	return w.core.Close()
}

// Split transfers ownership of the Stream's descriptor into a shared
// core, returning independent recv/send halves that jointly own the
// descriptor. After Split, s itself must not be used.
func (s *Stream) Split() (*RecvHalf, *SendHalf) {
	s.owners.Store(2)
	return &RecvHalf{core: s.streamCore}, &SendHalf{core: s.streamCore}
}

// ErrNotReunitable is returned by Reunite when the two halves did not
// originate from the same Split call.
var ErrNotReunitable = &reuniteError{}

type reuniteError struct{}

func (*reuniteError) Error() string { return "uds: halves did not come from the same split" }

// Reunite recombines a RecvHalf and SendHalf into a single Stream, but
// only if they share the same underlying core (pointer identity). On
// failure both halves are returned alongside the error so the caller
// doesn't lose them. On success the Stream is the descriptor's sole
// owner again; the consumed halves must not be used (or closed)
// afterward.
func Reunite(r *RecvHalf, w *SendHalf) (*Stream, *RecvHalf, *SendHalf, error) {
	if r.core != w.core {
		return nil, r, w, ErrNotReunitable
	}
	r.core.owners.Store(1)
	return &Stream{r.core}, nil, nil, nil
}
