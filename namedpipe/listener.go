//go:build windows

package namedpipe

import (
	"errors"
	"net"
	"sync"
	"time"

	"golang.org/x/sys/windows"

	"github.com/kotauskas/interprocess-go/internal/ilog"
)

// ListenConfig is namedpipe's own configuration type; localsocket's
// facade_windows.go translates a localsocket.ListenerOptions into one
// of these rather than this package depending upward on localsocket.
type ListenConfig struct {
	Path               string
	MessageMode        bool
	AcceptRemote       bool
	WriteThrough       bool
	Inheritable        bool
	NonblockingStream  bool // accepted streams get PIPE_NOWAIT applied
	InstanceLimit      int
	InputBufferSize    int32
	OutputBufferSize   int32
	DefaultTimeout     time.Duration // WaitNamedPipe default; 0 means 50ms
	QueueSize          int
	SecurityDescriptor string // SDDL; empty means NPFS's default ACL
	Logger             ilog.Logger
}

type acceptResponse struct {
	f   *win32File
	err error
}

// Listener is an NPFS listener built on an accept queue. Unlike a
// Unix listen backlog, NPFS has no queue of pending connections by
// itself — a client's CreateFile succeeds only if a disconnected
// instance already exists. Listen reserves the pipe name with a
// zero-access first instance that clients cannot connect to; each
// Accept call then has a listenerWorker create a fresh instance and
// wait in ConnectNamedPipe on it. No connectable instance is kept
// between Accept calls, so a client that arrives while no Accept is
// pending finds the pipe busy.
type Listener struct {
	firstHandle windows.Handle
	path        string
	config      instanceConfig
	nonblocking bool
	log         ilog.Logger

	// acceptQueueCh is a buffered channel of (one-shot) response
	// channels. Accept enqueues a channel; whichever listenerWorker
	// picks it up creates a fresh instance, waits for a client, and
	// delivers the result back on it.
	acceptQueueCh chan chan acceptResponse

	shutdownStartedCh  chan struct{}
	shutdownFinishedCh chan struct{}
	closeMux           sync.Mutex
}

// Listen opens the first NPFS instance of cfg.Path and starts the
// accept worker pool. The pipe name must not already exist.
func Listen(cfg ListenConfig) (*Listener, error) {
	var sd []byte
	var err error
	if cfg.SecurityDescriptor != "" {
		sd, err = SddlToSecurityDescriptor(cfg.SecurityDescriptor)
		if err != nil {
			return nil, err
		}
	}

	queueSize := cfg.QueueSize
	if queueSize < 1 {
		queueSize = 1
	}

	ic := instanceConfig{
		messageMode:      cfg.MessageMode,
		acceptRemote:     cfg.AcceptRemote,
		writeThrough:     cfg.WriteThrough,
		inheritable:      cfg.Inheritable,
		instanceLimit:    cfg.InstanceLimit,
		inputBufferSize:  cfg.InputBufferSize,
		outputBufferSize: cfg.OutputBufferSize,
		defaultTimeout:   cfg.DefaultTimeout,
		securityDesc:     sd,
	}

	h, err := makeServerPipeHandle(cfg.Path, &ic, true)
	if err != nil {
		return nil, err
	}

	l := &Listener{
		firstHandle:        h,
		path:               cfg.Path,
		config:             ic,
		nonblocking:        cfg.NonblockingStream,
		log:                ilog.Get(cfg.Logger),
		acceptQueueCh:      make(chan chan acceptResponse, queueSize),
		shutdownStartedCh:  make(chan struct{}),
		shutdownFinishedCh: make(chan struct{}),
	}
	go l.listenerRoutine(queueSize)
	return l, nil
}

func (l *Listener) makeServerPipe() (*win32File, error) {
	h, err := makeServerPipeHandle(l.path, &l.config, false)
	if err != nil {
		return nil, err
	}
	f, err := makeWin32File(h)
	if err != nil {
		windows.Close(h)
		return nil, err
	}
	return f, nil
}

func (l *Listener) makeConnectedServerPipe() (*win32File, error) {
	p, err := l.makeServerPipe()
	if err != nil {
		return nil, err
	}

	ch := make(chan error)
	go func(p *win32File) {
		ch <- connectPipe(p)
	}(p)

	select {
	case err = <-ch:
		if err != nil {
			p.Close()
			p = nil
		}
	case <-l.shutdownStartedCh:
		p.Close()
		p = nil
		err = <-ch
		if err == nil || err == ErrFileClosed || err == windows.ERROR_OPERATION_ABORTED { //nolint:errorlint // err is Errno
			err = ErrListenerClosed
		}
	}
	return p, err
}

func (l *Listener) listenerWorker(wg *sync.WaitGroup) {
	var stop bool
	for !stop {
		select {
		case <-l.shutdownStartedCh:
			stop = true
		case responseCh := <-l.acceptQueueCh:
			p, err := l.makeConnectedServerPipe()
			if err != nil && !errors.Is(err, ErrListenerClosed) {
				l.log.Warnf("namedpipe: connecting an instance of %q failed: %v", l.path, err)
			} else if err == nil {
				l.log.Debugf("namedpipe: client connected to %q", l.path)
			}
			responseCh <- acceptResponse{p, err}
		}
	}
	wg.Done()
}

func (l *Listener) listenerRoutine(queueSize int) {
	var wg sync.WaitGroup
	for k := 0; k < queueSize; k++ {
		wg.Add(1)
		go l.listenerWorker(&wg)
	}
	wg.Wait()

	windows.Close(l.firstHandle)
	l.firstHandle = 0
	close(l.shutdownFinishedCh)
}

// Accept waits for the next client connection. The returned Stream's
// message mode matches how the listener was configured.
func (l *Listener) Accept() (*Stream, error) {
tryAgain:
	ch := make(chan acceptResponse)

	select {
	case l.acceptQueueCh <- ch:
	case <-l.shutdownFinishedCh:
		return nil, ErrListenerClosed
	case <-l.shutdownStartedCh:
		return nil, ErrListenerClosed
	}

	select {
	case response := <-ch:
		if response.f == nil && response.err == nil {
			return nil, ErrListenerClosed
		}
		if errors.Is(response.err, ErrListenerClosed) {
			return nil, ErrListenerClosed
		}
		if response.err == windows.ERROR_NO_DATA { //nolint:errorlint // err is Errno
			// Client connected then immediately disconnected; this
			// isn't a real Accept failure, just noise.
			goto tryAgain
		}
		if response.err != nil {
			return nil, response.err
		}
		if l.nonblocking {
			state := uint32(windows.PIPE_NOWAIT)
			if l.config.messageMode {
				state |= windows.PIPE_READMODE_MESSAGE
			}
			if err := setNamedPipeHandleState(response.f.handle, &state, nil, nil); err != nil {
				response.f.Close()
				return nil, err
			}
		}
		return newAcceptedStream(response.f, l.path, l.config.messageMode)
	case <-l.shutdownFinishedCh:
		return nil, ErrListenerClosed
	}
}

// Close shuts down every listener worker and the reserved first
// instance. Workers mid-ConnectNamedPipe have their wait cancelled.
func (l *Listener) Close() error {
	l.closeMux.Lock()
	defer l.closeMux.Unlock()
	select {
	case <-l.shutdownFinishedCh:
	default:
		select {
		case <-l.shutdownStartedCh:
		default:
			close(l.shutdownStartedCh)
			<-l.shutdownFinishedCh
		}
	}
	return nil
}

// Addr returns the listener's pipe path as a net.Addr.
func (l *Listener) Addr() net.Addr { return pipeAddress(l.path) }

type pipeAddress string

func (pipeAddress) Network() string  { return "pipe" }
func (s pipeAddress) String() string { return string(s) }
