//go:build unix

package uds

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func testAddr(t *testing.T) UdAddr {
	t.Helper()
	a, err := NewUdAddr([]byte(filepath.Join(t.TempDir(), "uds-test.sock")), false)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestByteEcho(t *testing.T) {
	addr := testAddr(t)
	l, err := Listen(Config{Addr: addr, ReclaimName: true})
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	serverDone := make(chan error, 1)
	go func() {
		s, err := l.Accept()
		if err != nil {
			serverDone <- err
			return
		}
		defer s.Close()
		buf := make([]byte, 12)
		if _, err := io.ReadFull(s, buf); err != nil {
			serverDone <- err
			return
		}
		if string(buf) != "Hello server" {
			serverDone <- errors.New("server read mismatch: " + string(buf))
			return
		}
		_, err = s.Write([]byte("Hello client"))
		serverDone <- err
	}()

	c, err := Connect(ConnectConfig{Addr: addr})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
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
	if err := <-serverDone; err != nil {
		t.Fatal(err)
	}
}

func TestNameReclaimedOnClose(t *testing.T) {
	addr := testAddr(t)
	l, err := Listen(Config{Addr: addr, ReclaimName: true})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(addr.Path()); err != nil {
		t.Fatalf("socket node should exist while listening: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(addr.Path()); !os.IsNotExist(err) {
		t.Fatalf("expected NotFound after close, got %v", err)
	}
}

func TestDoNotReclaimNameOnDrop(t *testing.T) {
	addr := testAddr(t)
	l, err := Listen(Config{Addr: addr, ReclaimName: true})
	if err != nil {
		t.Fatal(err)
	}
	l.DoNotReclaimNameOnDrop()
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(addr.Path()); err != nil {
		t.Fatalf("socket node should survive a disarmed close: %v", err)
	}
	os.Remove(addr.Path())
}

func TestTryOverwriteReplacesStaleNode(t *testing.T) {
	addr := testAddr(t)
	l1, err := Listen(Config{Addr: addr})
	if err != nil {
		t.Fatal(err)
	}
	l1.DoNotReclaimNameOnDrop()
	l1.Close()

	// The stale node is still on disk; a plain bind must fail...
	if _, err := Listen(Config{Addr: addr}); !errors.Is(err, unix.EADDRINUSE) {
		t.Fatalf("expected EADDRINUSE on the stale node, got %v", err)
	}
	// ...and the overwrite path must unlink and retry.
	l2, err := Listen(Config{Addr: addr, TryOverwrite: true, ReclaimName: true})
	if err != nil {
		t.Fatal(err)
	}
	l2.Close()
}

func TestNonblockingAcceptReturnsImmediately(t *testing.T) {
	addr := testAddr(t)
	l, err := Listen(Config{Addr: addr, Nonblocking: NonblockingAccept, ReclaimName: true})
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	start := time.Now()
	_, err = l.Accept()
	if !errors.Is(err, unix.EAGAIN) {
		t.Fatalf("expected EAGAIN with no pending connection, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("nonblocking accept took %v", elapsed)
	}
}

func TestSplitReuniteIdentity(t *testing.T) {
	addr := testAddr(t)
	l, err := Listen(Config{Addr: addr, ReclaimName: true})
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	accepted := make(chan *Stream, 2)
	dial := func() *Stream {
		go func() {
			s, _ := l.Accept()
			accepted <- s
		}()
		c, err := Connect(ConnectConfig{Addr: addr})
		if err != nil {
			t.Fatal(err)
		}
		s := <-accepted
		if s == nil {
			t.Fatal("accept failed")
		}
		t.Cleanup(func() { s.Close() })
		t.Cleanup(func() { c.Close() })
		return c
	}

	c1, c2 := dial(), dial()
	r1, w1 := c1.Split()
	r2, w2 := c2.Split()

	if _, _, _, err := Reunite(r1, w2); !errors.Is(err, ErrNotReunitable) {
		t.Fatalf("cross-split reunite must fail, got %v", err)
	}
	reunited, rBack, wBack, err := Reunite(r1, w1)
	if err != nil {
		t.Fatal(err)
	}
	if rBack != nil || wBack != nil {
		t.Error("successful reunite must consume both halves")
	}
	if _, err := reunited.Write([]byte("x")); err != nil {
		t.Fatalf("reunited stream must stay usable: %v", err)
	}
	r2.Close()
	w2.Close()
}

func TestSplitHalvesShareTheConnection(t *testing.T) {
	addr := testAddr(t)
	l, err := Listen(Config{Addr: addr, ReclaimName: true})
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	accepted := make(chan *Stream, 1)
	go func() {
		s, _ := l.Accept()
		accepted <- s
	}()
	c, err := Connect(ConnectConfig{Addr: addr})
	if err != nil {
		t.Fatal(err)
	}
	s := <-accepted
	if s == nil {
		t.Fatal("accept failed")
	}
	defer s.Close()

	r, w := c.Split()
	if _, err := w.Write([]byte("ping")); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 4)
	if _, err := io.ReadFull(s, buf); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Write([]byte("pong")); err != nil {
		t.Fatal(err)
	}
	if _, err := io.ReadFull(r, buf); err != nil {
		t.Fatal(err)
	}
	if string(buf) != "pong" {
		t.Fatalf("got %q", buf)
	}
	w.Close()
	r.Close()
}

func TestSplitHalvesJointlyOwnDescriptor(t *testing.T) {
	addr := testAddr(t)
	l, err := Listen(Config{Addr: addr, ReclaimName: true})
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	accepted := make(chan *Stream, 1)
	go func() {
		s, _ := l.Accept()
		accepted <- s
	}()
	c, err := Connect(ConnectConfig{Addr: addr})
	if err != nil {
		t.Fatal(err)
	}
	s := <-accepted
	if s == nil {
		t.Fatal("accept failed")
	}
	defer s.Close()

	r, w := c.Split()
	// Closing the send half shuts down that direction only: the peer
	// drains what was sent, then sees EOF...
	if _, err := w.Write([]byte("last")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 4)
	if _, err := io.ReadFull(s, buf); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Read(buf); err != io.EOF {
		t.Fatalf("peer should see EOF after the send half closes, got %v", err)
	}
	// ...while the receive half keeps working on the still-open
	// descriptor.
	if _, err := s.Write([]byte("echo")); err != nil {
		t.Fatal(err)
	}
	if _, err := io.ReadFull(r, buf); err != nil {
		t.Fatalf("receive half must survive the send half's close: %v", err)
	}
	if string(buf) != "echo" {
		t.Fatalf("got %q", buf)
	}
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestPeerCredsReportsOwnPid(t *testing.T) {
	addr := testAddr(t)
	l, err := Listen(Config{Addr: addr, ReclaimName: true})
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	accepted := make(chan *Stream, 1)
	go func() {
		s, _ := l.Accept()
		accepted <- s
	}()
	c, err := Connect(ConnectConfig{Addr: addr})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	s := <-accepted
	if s == nil {
		t.Fatal("accept failed")
	}
	defer s.Close()

	cr, err := s.PeerCreds()
	if err != nil {
		t.Fatal(err)
	}
	if pid, ok := cr.Pid(); ok && pid != int32(os.Getpid()) {
		t.Errorf("peer pid: got %d, want %d", pid, os.Getpid())
	}
	if uid, ok := cr.Euid(); ok && uid != uint32(os.Geteuid()) {
		t.Errorf("peer euid: got %d, want %d", uid, os.Geteuid())
	}
}

func TestRecvTimeoutExpires(t *testing.T) {
	addr := testAddr(t)
	l, err := Listen(Config{Addr: addr, ReclaimName: true})
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	accepted := make(chan *Stream, 1)
	go func() {
		s, _ := l.Accept()
		accepted <- s
	}()
	c, err := Connect(ConnectConfig{Addr: addr})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	s := <-accepted
	if s == nil {
		t.Fatal("accept failed")
	}
	defer s.Close()

	if err := c.SetRecvTimeout(50 * time.Millisecond); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 1)
	_, err = c.Read(buf)
	if !errors.Is(err, unix.EAGAIN) && !errors.Is(err, unix.EWOULDBLOCK) {
		t.Fatalf("expected EAGAIN after SO_RCVTIMEO expiry, got %v", err)
	}
}
