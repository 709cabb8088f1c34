//go:build windows

package namedpipe

import (
	"sync"
	"time"

	"github.com/kotauskas/interprocess-go/internal/ilog"
)

// limbo is the background pool that flushes and closes handles which
// were dirty (per needsFlush) at the moment the caller asked to close
// them, so Close itself never blocks on FlushFileBuffers. It keeps a
// small number of persistent workers always running plus temporary
// workers spun up under load (one per hand-off while the queue is
// above highWatermark, with no upper limit on their count), all
// draining the same FIFO queue of pending handles.
//
// persistentWorkers stay alive for the process lifetime once started.
// temporaryWorkers are started when the queue backs up past
// highWatermark and self-terminate after idleTimeout with nothing to
// do, down to a floor of zero — they exist purely to drain a burst
// without permanently growing the worker count.
const (
	persistentWorkers = 2
	highWatermark     = 64
	lowWatermark      = 8
	idleTimeout       = 500 * time.Millisecond
)

type limboEntry struct {
	f *win32File
}

var limboPool = newLimbo()

type limboState struct {
	mu        sync.Mutex
	queue     []limboEntry
	wake      chan struct{}
	temporary int
	once      sync.Once
	log       ilog.Logger
}

func newLimbo() *limboState {
	return &limboState{wake: make(chan struct{}, 1), log: ilog.Nop}
}

// SetLogger installs the logger every namedpipe.Stream's limbo
// hand-off reports through: temporary-worker spawn/retire and flush
// failures, the background events a caller closing a Stream can't
// otherwise observe. Safe to call at any time; takes effect for
// subsequent pool activity.
func SetLogger(l ilog.Logger) {
	limboPool.mu.Lock()
	limboPool.log = ilog.Get(l)
	limboPool.mu.Unlock()
}

func (p *limboState) logger() ilog.Logger {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.log == nil {
		return ilog.Nop
	}
	return p.log
}

func (p *limboState) start() {
	p.once.Do(func() {
		for i := 0; i < persistentWorkers; i++ {
			go p.persistentWorker()
		}
	})
}

// sendToLimbo hands f off to the pool instead of closing it directly.
// The caller must not touch f again afterward.
func (p *limboState) sendToLimbo(f *win32File) {
	p.start()

	p.mu.Lock()
	p.queue = append(p.queue, limboEntry{f})
	n := len(p.queue)
	needTemp := n > highWatermark
	if needTemp {
		p.temporary++
	}
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}

	if needTemp {
		p.logger().Debugf("namedpipe: limbo queue depth %d exceeded high watermark %d, spawning temporary worker", n, highWatermark)
		go p.temporaryWorker()
	}
}

func (p *limboState) pop() (limboEntry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queue) == 0 {
		return limboEntry{}, false
	}
	e := p.queue[0]
	p.queue = p.queue[1:]
	return e, true
}

func (p *limboState) drain(e limboEntry) {
	if err := e.f.Flush(); err != nil {
		p.logger().Warnf("namedpipe: limbo flush failed: %v", err)
	}
	e.f.Close() //nolint:errcheck
}

func (p *limboState) persistentWorker() {
	for {
		if e, ok := p.pop(); ok {
			p.drain(e)
			continue
		}
		<-p.wake
	}
}

// temporaryWorker drains entries until the queue falls back to
// lowWatermark (or empties out entirely) and then exits, so a burst
// doesn't leave extra goroutines parked forever.
func (p *limboState) temporaryWorker() {
	defer func() {
		p.mu.Lock()
		p.temporary--
		p.mu.Unlock()
		p.logger().Debugf("namedpipe: limbo temporary worker retiring")
	}()

	idle := time.NewTimer(idleTimeout)
	defer idle.Stop()
	for {
		if e, ok := p.pop(); ok {
			p.drain(e)
			p.mu.Lock()
			remaining := len(p.queue)
			p.mu.Unlock()
			if remaining <= lowWatermark {
				return
			}
			if !idle.Stop() {
				<-idle.C
			}
			idle.Reset(idleTimeout)
			continue
		}
		select {
		case <-p.wake:
		case <-idle.C:
			return
		}
	}
}
