//go:build windows

package namedpipe

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sys/windows"
)

var testPipePath = `\\.\pipe\interprocess-go-test`

func TestConnectUnknownFailsImmediately(t *testing.T) {
	_, err := Connect(ConnectConfig{Path: testPipePath})
	if !errors.Is(err, windows.ERROR_FILE_NOT_FOUND) {
		t.Fatalf("expected ERROR_FILE_NOT_FOUND, got %v", err)
	}
}

func TestConnectImmediateBusyMapsToWouldBlock(t *testing.T) {
	l, err := Listen(ListenConfig{Path: testPipePath})
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	// No Accept is pending, so the only connectable instance is the
	// reserved zero-access first handle; CreateFile reports busy.
	_, err = Connect(ConnectConfig{Path: testPipePath, WaitMode: waitImmediate})
	if !errors.Is(err, ErrWouldBlock) {
		t.Fatalf("expected ErrWouldBlock, got %v", err)
	}
}

func TestConnectTimeoutExpires(t *testing.T) {
	l, err := Listen(ListenConfig{Path: testPipePath})
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	_, err = Connect(ConnectConfig{Path: testPipePath, WaitMode: waitTimeout, WaitTimeout: 10 * time.Millisecond})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestConnectDeferredUnsupported(t *testing.T) {
	_, err := Connect(ConnectConfig{Path: testPipePath, WaitMode: waitDeferred})
	if !errors.Is(err, ErrWaitDeferredUnsupported) {
		t.Fatalf("expected ErrWaitDeferredUnsupported, got %v", err)
	}
}

var testPipeSeq atomic.Uint32

func getConnection(t *testing.T, cfg ListenConfig) (client, server *Stream) {
	t.Helper()
	cfg.Path = fmt.Sprintf(`%s-%d`, testPipePath, testPipeSeq.Add(1))
	l, err := Listen(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { l.Close() })

	type response struct {
		s   *Stream
		err error
	}
	ch := make(chan response)
	go func() {
		s, err := l.Accept()
		ch <- response{s, err}
	}()

	c, err := Connect(ConnectConfig{Path: cfg.Path, WaitMode: waitUnbounded})
	if err != nil {
		t.Fatal(err)
	}
	r := <-ch
	if r.err != nil {
		c.Close()
		t.Fatal(r.err)
	}
	t.Cleanup(func() { c.EvadeLimbo(); c.Close() })
	t.Cleanup(func() { r.s.EvadeLimbo(); r.s.Close() })
	return c, r.s
}

func TestByteEcho(t *testing.T) {
	c, s := getConnection(t, ListenConfig{})

	done := make(chan error, 1)
	go func() {
		buf := make([]byte, 12)
		if _, err := io.ReadFull(s, buf); err != nil {
			done <- err
			return
		}
		if string(buf) != "Hello server" {
			done <- errors.New("server read mismatch: " + string(buf))
			return
		}
		_, err := s.Write([]byte("Hello client"))
		done <- err
	}()

	if _, err := c.Write([]byte("Hello server")); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 12)
	if _, err := io.ReadFull(c, buf); err != nil {
		t.Fatal(err)
	}
	if string(buf) != "Hello client" {
		t.Fatalf("client read mismatch: %q", buf)
	}
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}

func TestMessageBoundariesPreserved(t *testing.T) {
	c, s := getConnection(t, ListenConfig{MessageMode: true})

	first := []byte{0x01, 0x02, 0x03}
	second := []byte{0xAA, 0xBB}
	if _, err := s.Write(first); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Write(second); err != nil {
		t.Fatal(err)
	}

	buf := make([]byte, 8)
	res, n, err := RecvMsg(c, &buf, 0)
	if err != nil {
		t.Fatal(err)
	}
	if res != Fit || n != 3 || !bytes.Equal(buf[:n], first) {
		t.Fatalf("first recv: %v/%d/%v", res, n, buf[:n])
	}
	res, n, err = RecvMsg(c, &buf, 0)
	if err != nil {
		t.Fatal(err)
	}
	if res != Fit || n != 2 || !bytes.Equal(buf[:n], second) {
		t.Fatalf("second recv: %v/%d/%v", res, n, buf[:n])
	}
}

func TestMessageSpilledGrowsBuffer(t *testing.T) {
	c, s := getConnection(t, ListenConfig{MessageMode: true})

	msg := bytes.Repeat([]byte{0x5A}, 10)
	if _, err := s.Write(msg); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 4)
	res, n, err := RecvMsg(c, &buf, 0)
	if err != nil {
		t.Fatal(err)
	}
	if res != Spilled || n != len(msg) || !bytes.Equal(buf[:n], msg) {
		t.Fatalf("got %v/%d/%v", res, n, buf[:n])
	}
}

func TestMessageQuotaExceededDiscardsWholeMessage(t *testing.T) {
	c, s := getConnection(t, ListenConfig{MessageMode: true})

	if _, err := s.Write(bytes.Repeat([]byte{0x11}, 10)); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 4)
	res, n, err := RecvMsg(c, &buf, 4)
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	if res != QuotaExceeded || n != 0 {
		t.Fatalf("got %v/%d", res, n)
	}

	// The next message must arrive on a clean boundary, with no
	// residue from the discarded one.
	if _, err := s.Write([]byte{0xDE, 0xAD}); err != nil {
		t.Fatal(err)
	}
	res, n, err = RecvMsg(c, &buf, 4)
	if err != nil {
		t.Fatal(err)
	}
	if res != Fit || n != 2 || buf[0] != 0xDE || buf[1] != 0xAD {
		t.Fatalf("got %v/%d/%v", res, n, buf[:n])
	}
}

func TestCloseWriteSignalsEOF(t *testing.T) {
	c, s := getConnection(t, ListenConfig{MessageMode: true})

	if _, err := s.Write([]byte("bye")); err != nil {
		t.Fatal(err)
	}
	// CloseWrite flushes first, which waits for the client to read.
	closed := make(chan error, 1)
	go func() { closed <- s.CloseWrite() }()
	buf := make([]byte, 8)
	n, err := c.Read(buf)
	if err != nil || string(buf[:n]) != "bye" {
		t.Fatalf("read before EOF: %d/%v", n, err)
	}
	if err := <-closed; err != nil {
		t.Fatal(err)
	}
	if _, err := c.Read(buf); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
	if _, err := c.Read(buf); err != io.EOF {
		t.Fatalf("EOF must latch, got %v", err)
	}
}

func TestReuniteIdentity(t *testing.T) {
	c1, _ := getConnection(t, ListenConfig{})
	r1, w1 := c1.Split()

	reunited, rBack, wBack, err := Reunite(r1, w1)
	if err != nil {
		t.Fatal(err)
	}
	if rBack != nil || wBack != nil {
		t.Error("successful reunite must consume both halves")
	}

	r1, w1 = reunited.Split()
	c2, _ := getConnection(t, ListenConfig{})
	r2, w2 := c2.Split()
	_, rBack, wBack, err = Reunite(r1, w2)
	if !errors.Is(err, ErrNotReunitable) {
		t.Fatalf("cross-split reunite must fail, got %v", err)
	}
	if rBack == nil || wBack == nil {
		t.Error("failed reunite must return both halves")
	}
	r1.Close()
	w1.Close()
	r2.Close()
	w2.Close()
}

func TestSplitHalvesJointlyOwnHandle(t *testing.T) {
	c, s := getConnection(t, ListenConfig{})

	r, w := c.Split()
	// Closing one half must leave the handle open for the other.
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Write([]byte("late")); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 4)
	if _, err := io.ReadFull(r, buf); err != nil {
		t.Fatalf("receive half must survive the send half's close: %v", err)
	}
	if string(buf) != "late" {
		t.Fatalf("got %q", buf)
	}
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestPeerPID(t *testing.T) {
	_, s := getConnection(t, ListenConfig{})
	pid, err := s.PeerPID()
	if err != nil {
		t.Fatal(err)
	}
	if pid != uint32(os.Getpid()) {
		t.Errorf("peer pid: got %d, want %d", pid, os.Getpid())
	}
}

func TestFlushIdempotent(t *testing.T) {
	c, s := getConnection(t, ListenConfig{})

	go func() {
		buf := make([]byte, 4)
		io.ReadFull(s, buf) //nolint:errcheck
	}()
	if _, err := c.Write([]byte("data")); err != nil {
		t.Fatal(err)
	}
	if err := c.Flush(); err != nil {
		t.Fatal(err)
	}
	if c.flush.take() {
		t.Error("a successful flush must clear the dirty state")
	}
	// No intervening write: this must be a no-op, not a second syscall.
	if err := c.Flush(); err != nil {
		t.Fatal(err)
	}
}

func TestDirtyCloseStillDeliversData(t *testing.T) {
	c, s := getConnection(t, ListenConfig{OutputBufferSize: 4096})

	payload := bytes.Repeat([]byte{0x42}, 64)
	if _, err := s.Write(payload); err != nil {
		t.Fatal(err)
	}
	// Closing the dirty server side hands the handle to the limbo
	// pool, which flushes before closing; the client must still see
	// every byte.
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	got := make([]byte, len(payload))
	if _, err := io.ReadFull(c, got); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Error("payload corrupted across a dirty close")
	}
}
