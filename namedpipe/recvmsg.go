//go:build windows

package namedpipe

import (
	"errors"
	"io"

	"golang.org/x/sys/windows"
)

// ErrQuotaExceeded is returned by RecvMsg when a message exceeds
// maxSize even after growing. The remainder of the oversized message
// is discarded from the pipe (the Discarding phase) so the stream
// isn't left desynchronized for the next RecvMsg call.
var ErrQuotaExceeded = errors.New("namedpipe: message exceeds the configured size limit")

// RecvResult classifies the outcome of a single message-mode receive.
type RecvResult int

const (
	// Fit means the message was read in full and n is its size.
	Fit RecvResult = iota
	// Spilled means the buffer the caller originally supplied was too
	// small. From RecvMsg, the message was still read in full by
	// growing the buffer, and n is its size; from TryRecvMsg, n is only
	// the size of the head that fit, and the rest is still queued.
	Spilled
	// EndOfStream means the peer's write side is closed (a zero-byte
	// message, per CloseWrite's convention).
	EndOfStream
	// QuotaExceeded means the message was larger than maxSize; it has
	// been discarded and n is 0.
	QuotaExceeded
)

// TryRecvMsg reads one message-mode message from s into buf without
// growing it. On ERROR_MORE_DATA — buf too small — the partial bytes
// already delivered into buf[:n] are the genuine head of the message;
// the kernel holds the rest queued against the same handle for the
// next ReadFile, it is not discarded and not a new message. Callers
// that only have TryRecvMsg (not RecvMsg) available and get Spilled
// back must still drain the remainder themselves before reusing the
// stream, or switch to RecvMsg, which does that for them.
func TryRecvMsg(s *Stream, buf []byte) (RecvResult, int, error) {
	s.enterRecv()
	defer s.exitRecv()
	n, err := s.win32File.Read(buf)
	if err == nil {
		return Fit, n, nil
	}
	if errors.Is(err, windows.ERROR_MORE_DATA) {
		return Spilled, n, nil
	}
	if errors.Is(err, io.EOF) {
		return EndOfStream, 0, nil
	}
	return Fit, n, err
}

// RecvMsg reads one full message into *buf, growing *buf (replacing
// it with a freshly allocated, larger one, preserving what was
// already read) as many times as needed when the message is bigger
// than the buffer currently on hand — the grow-and-retry discipline
// described for reliable message reads, adapted to Windows'
// ERROR_MORE_DATA rather than a separate peek call. Fit means the
// caller's original buffer held the whole message; Spilled means
// growth was needed but the message was still delivered whole. It
// refuses to
// grow past maxSize (0 means unbounded): once the accumulated size
// would exceed it, the rest of the message is read into a fixed
// scratch buffer and thrown away (Discarding) so the connection
// stays usable for the next call, and QuotaExceeded is reported.
func RecvMsg(s *Stream, buf *[]byte, maxSize int) (RecvResult, int, error) {
	s.enterRecv()
	defer s.exitRecv()
	n, err := s.win32File.Read(*buf)
	if err == nil {
		return Fit, n, nil
	}
	if errors.Is(err, io.EOF) {
		return EndOfStream, 0, nil
	}
	if !errors.Is(err, windows.ERROR_MORE_DATA) {
		return Fit, n, err
	}

	total := n
	for {
		if maxSize > 0 && total >= maxSize {
			if derr := discardRestOfMessage(s); derr != nil {
				return QuotaExceeded, 0, derr
			}
			return QuotaExceeded, 0, ErrQuotaExceeded
		}

		size := total*2 + 4096
		if maxSize > 0 && size > maxSize {
			size = maxSize
		}
		grown := make([]byte, size)
		copy(grown, (*buf)[:total])
		*buf = grown

		more, rerr := s.win32File.Read(grown[total:])
		total += more
		if rerr == nil || errors.Is(rerr, io.EOF) {
			return Spilled, total, nil
		}
		if !errors.Is(rerr, windows.ERROR_MORE_DATA) {
			return Spilled, total, rerr
		}
	}
}

// discardRestOfMessage reads and throws away the remainder of an
// in-flight message-mode message, used once a message has been judged
// to exceed the caller's quota.
func discardRestOfMessage(s *Stream) error {
	scratch := make([]byte, 4096)
	for {
		_, err := s.win32File.Read(scratch)
		if errors.Is(err, windows.ERROR_MORE_DATA) {
			continue
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	}
}
