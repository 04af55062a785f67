// Package ptyio owns the pseudo-terminal boundary: opening a
// master/slave pair, execing the user's shell onto the slave, and
// reporting window-size changes to the kernel. Grounded on
// ttynew/execsh/ttyresize in st's st.go, adapted from st's global
// cmdfile/term state into an owned handle whose master FD the event
// loop multiplexes directly.
package ptyio

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/qeedquan/go-media/posix"
	"golang.org/x/sys/unix"
)

// Size is the pseudo-terminal's window size, in character cells and
// pixels, as reported to TIOCSWINSZ.
type Size struct {
	Cols, Rows     int
	PixelsX, PixelsY int
}

// PTY is an open pseudo-terminal with a shell attached to its slave
// side. Master is the file descriptor the event loop reads/writes;
// the slave is only needed transiently to exec the child and is
// closed once the child has it open.
type PTY struct {
	Master *os.File
	cmd    *exec.Cmd

	slaveForExec *os.File
	hungUp       bool
}

// Open allocates a pseudo-terminal pair and sets its initial size.
// The slave is not yet attached to a shell; call Exec for that.
func Open(size Size) (*PTY, error) {
	m, s, err := posix.Openpty(nil, nil)
	if err != nil {
		return nil, fmt.Errorf("ptyio: openpty: %w", err)
	}
	p := &PTY{Master: m}
	if err := setWinsize(m, size); err != nil {
		m.Close()
		s.Close()
		return nil, err
	}
	p.slaveForExec = s
	return p, nil
}

// Exec starts prog, or $SHELL when prog is empty, attached to the
// pseudo-terminal's slave side, the way execsh configures the child's
// environment and controlling terminal. It returns an error when prog
// is empty and $SHELL is unset; there is no further fallback.
func (p *PTY) Exec(prog string, args []string, termName string) error {
	defer func() {
		p.slaveForExec.Close()
		p.slaveForExec = nil
	}()

	if prog == "" {
		if sh := os.Getenv("SHELL"); sh != "" {
			prog = sh
		}
	}
	if prog == "" {
		return fmt.Errorf("ptyio: no shell available")
	}

	env := os.Environ()
	env = append(env, "TERM="+termName)

	cmd := exec.Command(prog, args...)
	cmd.Stdin = p.slaveForExec
	cmd.Stdout = p.slaveForExec
	cmd.Stderr = p.slaveForExec
	cmd.Env = env
	cmd.ExtraFiles = []*os.File{p.slaveForExec}
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid:  true,
		Setctty: true,
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ptyio: exec %s: %w", prog, err)
	}
	p.cmd = cmd
	return nil
}

// SetSize reports a new window size to the kernel, which SIGWINCHes
// the foreground process group, mirroring ttyresize.
func (p *PTY) SetSize(size Size) error {
	return setWinsize(p.Master, size)
}

func setWinsize(f *os.File, size Size) error {
	ws := &unix.Winsize{
		Row: uint16(size.Rows),
		Col: uint16(size.Cols),
		Xpixel: uint16(size.PixelsX),
		Ypixel: uint16(size.PixelsY),
	}
	return unix.IoctlSetWinsize(int(f.Fd()), unix.TIOCSWINSZ, ws)
}

// Wait blocks until the shell exits and returns its exit state.
func (p *PTY) Wait() error {
	if p.cmd == nil {
		return fmt.Errorf("ptyio: no child started")
	}
	return p.cmd.Wait()
}

// Close releases the master side. The slave is closed by Exec once
// the child holds its own copy.
func (p *PTY) Close() error {
	return p.Master.Close()
}

// FD returns the raw master descriptor for the event loop's poller.
// SetNonblocking must be called once before the loop starts polling
// it, matching the reference's "shell FD is set non-blocking".
func (p *PTY) FD() int {
	return int(p.Master.Fd())
}

// SetNonblocking puts the master descriptor in O_NONBLOCK mode so
// Read/Write surface EAGAIN instead of blocking the single cooperative
// thread.
func (p *PTY) SetNonblocking() error {
	return unix.SetNonblock(p.FD(), true)
}

func (p *PTY) Read(buf []byte) (int, error) {
	n, err := unix.Read(p.FD(), buf)
	if n < 0 {
		n = 0
	}
	if err == unix.EIO {
		p.hungUp = true
	}
	return n, err
}

func (p *PTY) Write(buf []byte) (int, error) {
	n, err := unix.Write(p.FD(), buf)
	if n < 0 {
		n = 0
	}
	return n, err
}

// HungUp reports whether Read has observed EIO, which is how the slave
// side closing surfaces on a PTY master. Write does not set it.
func (p *PTY) HungUp() bool {
	return p.hungUp
}
