// Package loop runs the single cooperative event loop that multiplexes
// the X11 display connection and the shell pseudo-terminal, feeds shell
// bytes to the Interpreter, and throttles redraws.
//
// This departs from the reference design in one deliberate way: st's
// run()/trun() hands shell reads to a second goroutine synchronized
// over a term.rdy channel, then has the main goroutine select on that
// channel plus an fps timer. The core's concurrency model (§5) asks
// for one thread, no background workers and no locks, so this instead
// polls both file descriptors directly with unix.Poll and keeps st's
// adaptive-redraw and resize-coalescing behaviour as plain control
// flow in that one loop.
package loop

import (
	"time"

	"golang.org/x/sys/unix"
)

// Platform is the window-system collaborator the loop drains events
// from and redraws through; a thin seam over the boundary interfaces
// §6 lists as out of scope.
type Platform interface {
	// FD returns the blocking file descriptor events arrive on.
	FD() int
	// Pending reports whether events are already queued without
	// blocking on FD (mirrors XPending).
	Pending() bool
	// Drain delivers every currently queued event to loop (Enqueue,
	// MarkResize, MarkDirty), then returns.
	Drain(loop *Loop)
	// Redraw composites one frame.
	Redraw()
}

// KeyEvent is one keypress delivered by the platform: resolved
// shortcut action (if any) has already been checked by the caller via
// HandleKey; Text is the literal bytes to send to the shell when no
// shortcut consumed the key.
type KeyEvent struct {
	Text []byte
}

// highFreqThreshold/highFreqWait/throttledInterval implement §4.6 step 6: once more
// than 10 consecutive waits complete in under 1ms, redraws are
// deferred to at most once per 40ms until the loop slows back down.
const (
	highFreqThreshold = 10
	highFreqWait      = time.Millisecond
	throttledInterval = 40 * time.Millisecond
)

// Shell is the pseudo-terminal boundary the loop reads/writes.
type Shell interface {
	FD() int
	Read(buf []byte) (int, error)
	Write(buf []byte) (int, error)
	// HungUp reports whether the last Read/Write observed EOF/hangup.
	HungUp() bool
}

// Loop owns the write queue, the growable read buffer, dirty/resize
// flags, and the adaptive redraw timer.
type Loop struct {
	platform Platform
	shell    Shell

	writeQueue []byte
	readBuf    []byte
	largestRead int

	dirty        bool
	pendingResize bool

	consecutiveFastWaits int
	lastRedraw           time.Time

	// OnInterpret is invoked with the bytes read from the shell this
	// iteration; it is expected to feed the Interpreter and mark Dirty
	// as needed.
	OnInterpret func(b []byte)
	// OnResize is invoked at most once per iteration when a resize was
	// observed, after the iteration's other work, so reflow happens
	// against the final settled dimensions.
	OnResize func()
	// Done reports whether the loop should exit (window close action
	// or Shift+Escape observed by the platform layer).
	Done func() bool
}

func New(platform Platform, shell Shell) *Loop {
	return &Loop{
		platform: platform,
		shell:    shell,
		readBuf:  make([]byte, 4096),
		largestRead: 4096,
		lastRedraw: time.Time{},
	}
}

// MarkDirty records that the Grid changed and a redraw is owed.
func (l *Loop) MarkDirty() { l.dirty = true }

// MarkResize records that a resize event arrived; the loop coalesces
// repeated resizes into a single reflow per iteration.
func (l *Loop) MarkResize() { l.pendingResize = true }

// Enqueue appends bytes to the outbound shell write queue, e.g. from
// key events or bracketed paste.
func (l *Loop) Enqueue(b []byte) {
	l.writeQueue = append(l.writeQueue, b...)
}

const maxReadBuf = 4 << 20 // 4 MiB, per §4.6 step 5

// Run blocks until Done reports true or the shell hangs up.
func (l *Loop) Run() error {
	for {
		if l.Done != nil && l.Done() {
			return nil
		}

		timeout := l.waitTimeout()
		waited, err := l.wait(timeout)
		if err != nil {
			return err
		}

		l.platform.Drain(l)

		if err := l.flushWrites(); err != nil {
			return err
		}

		if err := l.readShell(); err != nil {
			if l.shell.HungUp() {
				return nil
			}
			return err
		}
		if l.shell.HungUp() {
			return nil
		}

		if l.pendingResize {
			l.pendingResize = false
			if l.OnResize != nil {
				l.OnResize()
			}
		}

		l.trackWaitSpeed(waited)
		l.maybeRedraw()
	}
}

// wait multiplexes display-readable, shell-readable, and
// shell-writable-if-queue-nonempty, returning how long it actually
// blocked so the caller can classify this as a fast or slow wait.
func (l *Loop) wait(timeout time.Duration) (time.Duration, error) {
	if l.platform.Pending() {
		return 0, nil
	}

	pfds := []unix.PollFd{
		{Fd: int32(l.platform.FD()), Events: unix.POLLIN},
		{Fd: int32(l.shell.FD()), Events: unix.POLLIN},
	}
	if len(l.writeQueue) > 0 {
		pfds[1].Events |= unix.POLLOUT
	}

	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
	}

	start := time.Now()
	for {
		n, err := unix.Poll(pfds, ms)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, err
		}
		_ = n
		break
	}
	return time.Since(start), nil
}

// waitTimeout computes the poll timeout: infinite when no redraw is
// owed, zero when one is owed and redraws are not throttled, and
// otherwise the remaining time until the throttled redraw is due.
func (l *Loop) waitTimeout() time.Duration {
	if !l.dirty {
		return -1
	}
	if l.consecutiveFastWaits <= highFreqThreshold {
		return 0
	}
	remaining := throttledInterval - time.Since(l.lastRedraw)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (l *Loop) trackWaitSpeed(waited time.Duration) {
	if waited < highFreqWait {
		l.consecutiveFastWaits++
	} else {
		l.consecutiveFastWaits = 0
	}
}

func (l *Loop) maybeRedraw() {
	if !l.dirty {
		return
	}
	if l.consecutiveFastWaits > highFreqThreshold && time.Since(l.lastRedraw) < throttledInterval {
		return
	}
	l.platform.Redraw()
	l.dirty = false
	l.lastRedraw = time.Now()
}

func (l *Loop) flushWrites() error {
	for len(l.writeQueue) > 0 {
		n, err := l.shell.Write(l.writeQueue)
		if n > 0 {
			l.writeQueue = l.writeQueue[n:]
		}
		if err == unix.EAGAIN {
			return nil
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
	}
	return nil
}

func (l *Loop) readShell() error {
	n, err := l.shell.Read(l.readBuf)
	if err == unix.EAGAIN {
		return nil
	}
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	if l.OnInterpret != nil {
		l.OnInterpret(l.readBuf[:n])
	}

	if n > l.largestRead {
		l.largestRead = n
	}
	grown := 2 * l.largestRead
	if grown > maxReadBuf {
		grown = maxReadBuf
	}
	if grown > len(l.readBuf) {
		l.readBuf = make([]byte, grown)
	}
	return nil
}
