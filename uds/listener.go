//go:build unix

package uds

import (
	"os"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/kotauskas/interprocess-go/internal/ilog"
)

// NonblockingMode is the four-way matrix of which of
// accept/produced-streams should be nonblocking.
type NonblockingMode int

const (
	NonblockingNeither NonblockingMode = iota
	NonblockingAccept
	NonblockingStream
	NonblockingBoth
)

func (m NonblockingMode) acceptsNonblocking() bool {
	return m == NonblockingAccept || m == NonblockingBoth
}

func (m NonblockingMode) streamsNonblocking() bool {
	return m == NonblockingStream || m == NonblockingBoth
}

// defaultBacklog is the default passed to listen(2).
const defaultBacklog = 128

// Config is the UDS-specific subset of localsocket.ListenerOptions,
// consumed directly by callers who only want UDS.
type Config struct {
	Addr                           UdAddr
	Nonblocking                    NonblockingMode
	ReclaimName                    bool
	TryOverwrite                   bool
	ReceiveCredentialsContinuously bool
	Logger                         ilog.Logger
}

// reclaimGuard holds the bound path and unlinks it on Close unless
// DoNotReclaimNameOnDrop was called.
type reclaimGuard struct {
	path  string
	armed bool
	mu    sync.Mutex
}

func (g *reclaimGuard) disarm() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.armed = false
}

func (g *reclaimGuard) fire(log ilog.Logger) {
	g.mu.Lock()
	armed, path := g.armed, g.path
	g.armed = false
	g.mu.Unlock()
	if !armed || path == "" {
		return
	}
	if err := unix.Unlink(path); err != nil && !os.IsNotExist(err) {
		log.Warnf("uds: failed to reclaim name %q: %v", path, err)
		return
	}
	log.Debugf("uds: reclaimed name %q", path)
}

// Listener is a bound, listening UDS socket.
type Listener struct {
	fd          int
	addr        UdAddr
	nonblocking NonblockingMode
	guard       *reclaimGuard
	log         ilog.Logger
	closeOnce   sync.Once
	closeErr    error
}

// Listen builds the address, creates the socket (SOCK_CLOEXEC, plus
// SOCK_NONBLOCK for a nonblocking accept, passed in the socket type),
// binds (retrying once after unlink if AddrInUse and TryOverwrite),
// listens, and installs the reclaim guard.
func Listen(cfg Config) (*Listener, error) {
	term, err := cfg.Addr.Terminate()
	if err != nil {
		return nil, errors.Wrap(err, "uds: listen")
	}

	typ := unix.SOCK_STREAM | unix.SOCK_CLOEXEC
	if cfg.Nonblocking.acceptsNonblocking() {
		typ |= unix.SOCK_NONBLOCK
	}
	fd, err := unix.Socket(unix.AF_UNIX, typ, 0)
	if err != nil {
		return nil, os.NewSyscallError("socket", err)
	}

	sa := term.Sockaddr()
	bindErr := unix.Bind(fd, sa)
	if bindErr != nil {
		if errors.Is(bindErr, unix.EADDRINUSE) && cfg.TryOverwrite && term.Path() != "" {
			if rmErr := unix.Unlink(term.Path()); rmErr == nil {
				bindErr = unix.Bind(fd, sa)
			}
		}
	}
	if bindErr != nil {
		unix.Close(fd)
		return nil, os.NewSyscallError("bind", bindErr)
	}

	if err := unix.Listen(fd, defaultBacklog); err != nil {
		unix.Close(fd)
		return nil, os.NewSyscallError("listen", err)
	}

	if cfg.ReceiveCredentialsContinuously {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_PASSCRED, 1); err != nil {
			unix.Close(fd)
			return nil, os.NewSyscallError("setsockopt(SO_PASSCRED)", err)
		}
	}

	log := ilog.Get(cfg.Logger)
	guard := &reclaimGuard{path: term.Path(), armed: cfg.ReclaimName && term.Path() != ""}
	l := &Listener{fd: fd, addr: term.UdAddr, nonblocking: cfg.Nonblocking, guard: guard, log: log}
	return l, nil
}

// DoNotReclaimNameOnDrop disables the unlink-on-Close behavior
// installed by Listen.
func (l *Listener) DoNotReclaimNameOnDrop() { l.guard.disarm() }

// SetNonblocking changes the accept/stream nonblocking matrix after
// construction.
func (l *Listener) SetNonblocking(mode NonblockingMode) error {
	nb := mode.acceptsNonblocking()
	if err := setNonblocking(l.fd, nb); err != nil {
		return err
	}
	l.nonblocking = mode
	return nil
}

// Accept waits for a client: accept4 with SOCK_NONBLOCK when
// configured, falling back to accept+fcntl on platforms without
// accept4 (golang.org/x/sys/unix exposes Accept4 everywhere it's
// available and returns ENOSYS otherwise, which we treat as "fall
// back"). The resulting Stream inherits the listener's
// stream-nonblocking flag.
func (l *Listener) Accept() (*Stream, error) {
	flags := unix.SOCK_CLOEXEC
	if l.nonblocking.streamsNonblocking() {
		flags |= unix.SOCK_NONBLOCK
	}
	nfd, _, err := unix.Accept4(l.fd, flags)
	if errors.Is(err, unix.ENOSYS) {
		nfd, _, err = unix.Accept(l.fd)
		if err == nil && l.nonblocking.streamsNonblocking() {
			if serr := setNonblocking(nfd, true); serr != nil {
				unix.Close(nfd)
				return nil, os.NewSyscallError("fcntl", serr)
			}
		}
	}
	if err != nil {
		if errors.Is(err, unix.EAGAIN) {
			return nil, &os.PathError{Op: "accept", Path: l.addr.Path(), Err: unix.EAGAIN}
		}
		return nil, os.NewSyscallError("accept", err)
	}
	return &Stream{newStreamCore(nfd, l.nonblocking.streamsNonblocking())}, nil
}

// Incoming is an infinite iterator over Accept. Next returns false
// whenever Accept fails, including once the listener is closed (and
// EAGAIN on a nonblocking listener); Err reports the error.
type Incoming struct {
	l   *Listener
	cur *Stream
	err error
}

func (l *Listener) Incoming() *Incoming { return &Incoming{l: l} }

func (it *Incoming) Next() bool {
	s, err := it.l.Accept()
	it.cur, it.err = s, err
	return err == nil
}

func (it *Incoming) Stream() *Stream { return it.cur }
func (it *Incoming) Err() error      { return it.err }

// Close stops accepting and, if configured, reclaims the bound name.
func (l *Listener) Close() error {
	l.closeOnce.Do(func() {
		l.closeErr = os.NewSyscallError("close", unix.Close(l.fd))
		l.guard.fire(l.log)
	})
	return l.closeErr
}

func (l *Listener) Addr() UdAddr { return l.addr }

func setNonblocking(fd int, nb bool) error {
	return unix.SetNonblock(fd, nb)
}
