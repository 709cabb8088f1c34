//go:build windows

package localsocket

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kotauskas/interprocess-go/namedpipe"
)

// Listener is the facade's presentation of an NPFS listener on
// Windows: every method forwards straight to package namedpipe, which
// is always the engine selected on this platform.
type Listener struct{ inner *namedpipe.Listener }

// Stream is the facade's presentation of a connected named-pipe
// instance.
type Stream struct{ inner *namedpipe.Stream }

// RecvHalf is the read side of a split Stream.
type RecvHalf struct{ inner *namedpipe.RecvHalf }

// SendHalf is the write side of a split Stream.
type SendHalf struct{ inner *namedpipe.SendHalf }

// pipePath turns a Name into the `\\.\pipe\<name>` or
// `\\<host>\pipe\<name>` string namedpipe.ListenConfig/ConnectConfig
// expect. A Namespaced name gets the local-host prefix prepended here,
// at bind/connect time, rather than at Name-construction time, so the
// Name itself stays a plain identifier. A Path name (GenericFilePath)
// is already fully qualified.
func pipePath(name Name) string {
	if name.IsPath() {
		return name.String()
	}
	return `\\.\pipe\` + strings.TrimPrefix(name.String(), `\\.\pipe\`)
}

// Create builds a Listener per o, dispatching to the namedpipe engine.
func (o ListenerOptions) Create() (*Listener, error) { return o.CreateSync() }

// CreateSync builds the listener synchronously; it is the blocking
// counterpart of Create (which, for this engine, is the same thing).
func (o ListenerOptions) CreateSync() (*Listener, error) {
	o = o.WithDefaults()
	// 255 is NPFS's own "unlimited" sentinel; callers ask for
	// unlimited via InstanceLimitUnlimited instead.
	if o.InstanceLimit < 0 || o.InstanceLimit > 254 {
		return nil, &Error{Kind: KindInvalidInput, Op: "create", Err: fmt.Errorf("instance limit %d outside 1..=254", o.InstanceLimit)}
	}
	limit := o.InstanceLimit
	l, err := namedpipe.Listen(namedpipe.ListenConfig{
		Path:               pipePath(o.Name),
		MessageMode:        o.Mode == ModeMessages,
		AcceptRemote:       o.AcceptRemote,
		WriteThrough:       o.WriteThrough,
		Inheritable:        o.Inheritable,
		NonblockingStream:  o.NonblockingStream,
		InstanceLimit:      limit,
		InputBufferSize:    o.InputBufHint,
		OutputBufferSize:   o.OutputBufHint,
		DefaultTimeout:     o.WaitTimeout,
		SecurityDescriptor: o.SecurityDescriptor,
		Logger:             o.Logger,
	})
	if err != nil {
		return nil, err
	}
	return &Listener{inner: l}, nil
}

// Accept blocks until a client connects, returning the server-side
// Stream.
func (l *Listener) Accept() (*Stream, error) {
	s, err := l.inner.Accept()
	if err != nil {
		return nil, err
	}
	return &Stream{inner: s}, nil
}

// SetNonblocking has no effect on Windows: NPFS nonblocking mode is
// configured per-instance at creation time, not toggled afterward, so
// this always returns ErrUnsupported.
func (l *Listener) SetNonblocking(accept, stream bool) error { return ErrUnsupported }

// DoNotReclaimNameOnDrop is a no-op on Windows: NPFS instance names
// are ephemeral and vanish with the process, so there is nothing to
// arm or disarm.
func (l *Listener) DoNotReclaimNameOnDrop() {}

// Close shuts down every listener worker and the reserved first
// instance.
func (l *Listener) Close() error { return l.inner.Close() }

// Incoming is an infinite iterator over Accept.
type Incoming struct {
	l   *Listener
	cur *Stream
	err error
}

// Incoming returns an Incoming iterator over this listener.
func (l *Listener) Incoming() *Incoming { return &Incoming{l: l} }

// Next advances the iterator, returning false once the listener is closed.
func (it *Incoming) Next() bool {
	s, err := it.l.Accept()
	it.cur, it.err = s, err
	return err == nil
}

// Stream returns the Stream produced by the most recent successful Next.
func (it *Incoming) Stream() *Stream { return it.cur }

// Err returns the error from the most recent unsuccessful Next.
func (it *Incoming) Err() error { return it.err }

// Connect dials a named-pipe listener per o.
func (o ConnectOptions) Connect() (*Stream, error) { return o.ConnectSync() }

// ConnectSync dials the pipe synchronously, honoring o.WaitMode.
func (o ConnectOptions) ConnectSync() (*Stream, error) {
	o = o.WithDefaults()
	s, err := namedpipe.Connect(namedpipe.ConnectConfig{
		Path:              pipePath(o.Name),
		WaitMode:          int(o.WaitMode),
		WaitTimeout:       o.WaitTimeout,
		NonblockingStream: o.NonblockingStream,
	})
	if err != nil {
		if errors.Is(err, namedpipe.ErrWaitDeferredUnsupported) {
			return nil, ErrUnsupported
		}
		return nil, err
	}
	return &Stream{inner: s}, nil
}

func (s *Stream) Read(b []byte) (int, error)  { return s.inner.Read(b) }
func (s *Stream) Write(b []byte) (int, error) { return s.inner.Write(b) }
func (s *Stream) Close() error                { return s.inner.Close() }

// SetRecvTimeout always fails: NPFS in this design has no per-side
// recv timeout distinct from the connect wait protocol.
func (s *Stream) SetRecvTimeout(time.Duration) error { return ErrUnsupported }

// SetSendTimeout always fails, for the same reason as SetRecvTimeout.
func (s *Stream) SetSendTimeout(time.Duration) error { return ErrUnsupported }

// TakeError has no NPFS analogue (no SO_ERROR equivalent); it always
// returns nil, since any pending error would already have been
// returned by the Read/Write call that observed it.
func (s *Stream) TakeError() error { return nil }

// PeerCreds returns a Credentials value exposing only the peer's
// PID, the one identity NPFS reports for a local connection.
func (s *Stream) PeerCreds() (PeerCredentials, error) {
	pid, err := s.inner.PeerPID()
	if err != nil {
		return PeerCredentials{}, err
	}
	return PeerCredentials{pid: pid}, nil
}

// PeerCredentials is the Windows engine's Credentials implementation:
// NPFS exposes only a process ID, never uid/gid (there is no Windows
// analogue for a Unix credential struct).
type PeerCredentials struct{ pid uint32 }

// Pid returns the peer's process ID.
func (c PeerCredentials) Pid() (int32, bool) { return int32(c.pid), true }

// Euid, Ruid, Egid, Rgid and Groups have no NPFS equivalent and always
// report unknown, mirroring the shape of uds/creds.Credentials so
// code that type-switches across platforms doesn't have to special-
// case Windows beyond the one capability it actually lacks.
func (PeerCredentials) Euid() (uint32, bool)     { return 0, false }
func (PeerCredentials) Ruid() (uint32, bool)     { return 0, false }
func (PeerCredentials) Egid() (uint32, bool)     { return 0, false }
func (PeerCredentials) Rgid() (uint32, bool)     { return 0, false }
func (PeerCredentials) Groups() ([]uint32, bool) { return nil, false }

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
	s, _, _, err := namedpipe.Reunite(r.inner, w.inner)
	if err != nil {
		return nil, r, w, err
	}
	return &Stream{inner: s}, nil, nil, nil
}
