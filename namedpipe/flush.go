//go:build windows

package namedpipe

import "sync/atomic"

// flushState is needsFlush's tri-state: Clean means every byte
// written has been acknowledged delivered (or nothing has been
// written at all); DirtyOnce means at least one write happened since
// the last flush and a single best-effort FlushFileBuffers suffices
// before closing; DirtyAlways sticks a stream to "always needs a
// flush on close" once it has been split (onClone), since from then
// on a write on one half can race a Close on the other and this
// package can no longer prove a flush wasn't skipped.
type flushState int32

const (
	flushClean flushState = iota
	flushDirtyOnce
	flushDirtyAlways
)

// needsFlush tracks whether a Stream's handle must be flushed before
// it's safe to close without losing buffered-but-undelivered bytes.
// NPFS, unlike a TCP socket, does not guarantee that data written to
// one end survives the handle being closed before the other end reads
// it — CloseHandle on a named pipe with outstanding unread data can
// silently drop it. This is why limbo.go exists: rather than block
// Close until a flush completes, a dirty handle is hand off to a
// background worker that flushes it and then closes it.
type needsFlush struct {
	state atomic.Int32
}

func (n *needsFlush) markDirty() {
	n.state.CompareAndSwap(int32(flushClean), int32(flushDirtyOnce))
}

// onClone is called when a handle derived from this stream (e.g. a
// split half) starts being used independently: from this point on a
// write on one half can race a Close on the other, so the tracker
// commits to always flushing rather than trying to prove cleanliness.
func (n *needsFlush) onClone() {
	n.state.Store(int32(flushDirtyAlways))
}

// take reports whether the handle needs a flush before closing, and
// resets a one-shot DirtyOnce back to Clean (DirtyAlways is sticky).
func (n *needsFlush) take() bool {
	switch flushState(n.state.Load()) {
	case flushClean:
		return false
	case flushDirtyOnce:
		n.state.CompareAndSwap(int32(flushDirtyOnce), int32(flushClean))
		return true
	default: // flushDirtyAlways
		return true
	}
}
