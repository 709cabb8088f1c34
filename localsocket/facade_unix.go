//go:build unix

package localsocket

import (
	"runtime"
	"time"

	"github.com/kotauskas/interprocess-go/uds"
	"github.com/kotauskas/interprocess-go/uds/creds"
)

// Listener is the facade's presentation of a UDS listener on Unix:
// every method forwards straight to package uds, which is always the
// engine selected on this platform.
type Listener struct{ inner *uds.Listener }

// Stream is the facade's presentation of a connected UDS byte stream.
type Stream struct{ inner *uds.Stream }

// RecvHalf is the read side of a split Stream.
type RecvHalf struct{ inner *uds.RecvHalf }

// SendHalf is the write side of a split Stream.
type SendHalf struct{ inner *uds.SendHalf }

func addrFromName(name Name) (uds.UdAddr, error) {
	abstract := name.IsNamespaced() && runtime.GOOS == "linux"
	return uds.NewUdAddr(name.Raw(), abstract)
}

func nonblockingMode(accept, stream bool) uds.NonblockingMode {
	switch {
	case accept && stream:
		return uds.NonblockingBoth
	case accept:
		return uds.NonblockingAccept
	case stream:
		return uds.NonblockingStream
	default:
		return uds.NonblockingNeither
	}
}

// Create builds and binds a Listener per o, dispatching to the uds
// engine. On Unix this is always synchronous, so Create and CreateSync
// are the same operation; CreateSync exists for callers that also
// build against the Windows engine and want one spelling.
func (o ListenerOptions) Create() (*Listener, error) { return o.CreateSync() }

// CreateSync builds the listener synchronously.
func (o ListenerOptions) CreateSync() (*Listener, error) {
	o = o.WithDefaults()
	if o.Mode == ModeMessages {
		return nil, &Error{Kind: KindMessageBoundariesLost, Op: "create", Err: ErrMessageModeUnixUnsupported}
	}
	addr, err := addrFromName(o.Name)
	if err != nil {
		return nil, &Error{Kind: KindAddressInvalid, Op: "create", Err: err}
	}
	l, err := uds.Listen(uds.Config{
		Addr:                           addr,
		Nonblocking:                    nonblockingMode(o.NonblockingAccept, o.NonblockingStream),
		ReclaimName:                    !o.NoReclaimName,
		TryOverwrite:                   o.TryOverwrite,
		ReceiveCredentialsContinuously: o.ReceiveCredentialsContinuously,
		Logger:                         o.Logger,
	})
	if err != nil {
		return nil, err
	}
	return &Listener{inner: l}, nil
}

// Accept blocks (unless the listener was configured nonblocking
// accept) until a client connects, returning the server-side Stream.
func (l *Listener) Accept() (*Stream, error) {
	s, err := l.inner.Accept()
	if err != nil {
		return nil, err
	}
	return &Stream{inner: s}, nil
}

// SetNonblocking changes the accept/stream nonblocking matrix after
// construction.
func (l *Listener) SetNonblocking(accept, stream bool) error {
	return l.inner.SetNonblocking(nonblockingMode(accept, stream))
}

// DoNotReclaimNameOnDrop disables the reclaim-on-close behavior.
func (l *Listener) DoNotReclaimNameOnDrop() { l.inner.DoNotReclaimNameOnDrop() }

// Close stops accepting and, if configured, reclaims the bound name.
func (l *Listener) Close() error { return l.inner.Close() }

// Incoming is an infinite iterator over Accept.
type Incoming struct{ it *uds.Incoming }

// Incoming returns an Incoming iterator over this listener.
func (l *Listener) Incoming() *Incoming { return &Incoming{it: l.inner.Incoming()} }

// Next advances the iterator, returning false once the listener is closed.
func (it *Incoming) Next() bool { return it.it.Next() }

// Stream returns the Stream produced by the most recent successful Next.
func (it *Incoming) Stream() *Stream { return &Stream{inner: it.it.Stream()} }

// Err returns the error from the most recent unsuccessful Next.
func (it *Incoming) Err() error { return it.it.Err() }

// Connect dials a UDS listener per o.
func (o ConnectOptions) Connect() (*Stream, error) { return o.ConnectSync() }

// ConnectSync dials the listener synchronously. UDS connect is always
// immediate (there is no warm-instance wait protocol to speak of on
// Unix), so every WaitMode other than WaitDeferred behaves the same
// here; WaitDeferred is rejected for parity with the Windows engine's
// synchronous-connect limitation.
func (o ConnectOptions) ConnectSync() (*Stream, error) {
	o = o.WithDefaults()
	if o.WaitMode == WaitDeferred {
		return nil, ErrUnsupported
	}
	addr, err := addrFromName(o.Name)
	if err != nil {
		return nil, &Error{Kind: KindAddressInvalid, Op: "connect", Err: err}
	}
	s, err := uds.Connect(uds.ConnectConfig{Addr: addr, Nonblocking: o.NonblockingStream})
	if err != nil {
		return nil, err
	}
	return &Stream{inner: s}, nil
}

func (s *Stream) Read(b []byte) (int, error)  { return s.inner.Read(b) }
func (s *Stream) Write(b []byte) (int, error) { return s.inner.Write(b) }
func (s *Stream) Close() error                { return s.inner.Close() }

// SetRecvTimeout sets SO_RCVTIMEO on the socket.
func (s *Stream) SetRecvTimeout(d time.Duration) error { return s.inner.SetRecvTimeout(d) }

// SetSendTimeout sets SO_SNDTIMEO on the socket.
func (s *Stream) SetSendTimeout(d time.Duration) error { return s.inner.SetSendTimeout(d) }

// TakeError returns and clears the last asynchronous error (SO_ERROR).
func (s *Stream) TakeError() error { return s.inner.TakeError() }

// PeerCreds queries the connected peer's credentials.
func (s *Stream) PeerCreds() (creds.Credentials, error) { return s.inner.PeerCreds() }

// Split transfers ownership of the Stream into independent recv/send halves.
func (s *Stream) Split() (*RecvHalf, *SendHalf) {
	r, w := s.inner.Split()
	return &RecvHalf{inner: r}, &SendHalf{inner: w}
}

func (r *RecvHalf) Read(b []byte) (int, error) { return r.inner.Read(b) }
func (r *RecvHalf) Close() error               { return r.inner.Close() }

func (w *SendHalf) Write(b []byte) (int, error) { return w.inner.Write(b) }
func (w *SendHalf) Close() error                { return w.inner.Close() }

// Reunite recombines a RecvHalf and SendHalf into a single Stream, but
// only if they came from the same Split call.
func Reunite(r *RecvHalf, w *SendHalf) (*Stream, *RecvHalf, *SendHalf, error) {
	s, _, _, err := uds.Reunite(r.inner, w.inner)
	if err != nil {
		return nil, r, w, err
	}
	return &Stream{inner: s}, nil, nil, nil
}

// ErrMessageModeUnixUnsupported is returned by CreateSync when asked
// for ModeMessages on Unix: UDS stream sockets have no message
// boundaries and this module does not emulate them there.
var ErrMessageModeUnixUnsupported = &messageModeError{}

type messageModeError struct{}

func (*messageModeError) Error() string {
	return "localsocket: message mode is not supported by the UDS engine"
}
