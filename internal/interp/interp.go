// Package interp maps parsed terminal commands onto Grid mutations
// and shell replies. It owns the read/write byte queues and the fast
// path for runs of printable ASCII, following the tputc/csihandle
// control flow in st but dispatching over vtparse.Command instead of
// inline state machines.
package interp

import (
	"log"

	"github.com/nolanderc/shitty/internal/grid"
	"github.com/nolanderc/shitty/internal/vtparse"
)

// Platform is the window-system boundary the interpreter needs:
// title updates and a bell. Everything else (key mapping, resize,
// clipboard plumbing) lives above the interpreter in the event loop.
type Platform interface {
	SetWindowTitle(title string)
	Bell()
}

// WidthFunc reports the terminal column width of a codepoint: 0 for
// combining marks (treated as 1 for layout), 1, or 2.
type WidthFunc func(r rune) int

const tabStop = 8

// Interpreter owns the shell byte queues and drives Grid mutations.
type Interpreter struct {
	Grid     *grid.Grid
	Platform Platform
	Width    WidthFunc

	readBuf  []byte
	writeBuf []byte

	ctx vtparse.Context

	// CursorStyle holds the last DECSCUSR shape code; cmd/shitty maps
	// it onto the renderer's block/bar/underline shape each frame.
	CursorStyle int
}

func New(g *grid.Grid, p Platform, width WidthFunc) *Interpreter {
	return &Interpreter{Grid: g, Platform: p, Width: width}
}

// Feed appends shell bytes to the read queue. The event loop calls
// Step afterward to drain as much as can be parsed.
func (it *Interpreter) Feed(b []byte) {
	it.readBuf = append(it.readBuf, b...)
}

// PendingWrites returns bytes queued to send to the shell and clears
// the queue. The event loop drains this into the pty.
func (it *Interpreter) PendingWrites() []byte {
	w := it.writeBuf
	it.writeBuf = nil
	return w
}

func (it *Interpreter) queueWrite(b []byte) {
	it.writeBuf = append(it.writeBuf, b...)
}

// Step drains the read queue, writing codepoints to the Grid and
// applying control/escape effects, until the queue is empty or ends
// in an incomplete sequence awaiting more bytes.
func (it *Interpreter) Step() {
	for len(it.readBuf) > 0 {
		// Fast path: runs of printable ASCII go straight to the grid.
		n := 0
		for n < len(it.readBuf) && it.readBuf[n] >= 0x20 && it.readBuf[n] <= 0x7e {
			it.Grid.Write(rune(it.readBuf[n]), 1)
			n++
		}
		if n > 0 {
			it.readBuf = it.readBuf[n:]
			continue
		}

		consumed, cmd := vtparse.Parse(it.readBuf, &it.ctx)
		switch cmd.Kind {
		case vtparse.Incomplete:
			return
		case vtparse.Invalid:
			it.Grid.Write(0xfffd, 1)
		case vtparse.Ignore:
			// nothing
		case vtparse.Codepoint:
			it.Grid.Write(cmd.Rune, it.runeWidth(cmd.Rune))
		case vtparse.Tab:
			it.tab(1)
		case vtparse.Return:
			it.Grid.SetCursor(0, 0, grid.Relative, grid.Absolute)
		case vtparse.Newline:
			it.newline()
		case vtparse.Backspace:
			it.Grid.SetCursor(0, -1, grid.Relative, grid.Relative)
		case vtparse.Delete:
			// consumed, no visible effect
		case vtparse.Bell:
			if it.Platform != nil {
				it.Platform.Bell()
			}
		case vtparse.Index:
			it.index()
		case vtparse.NextLine:
			it.newline()
		case vtparse.ReverseIndex:
			it.reverseIndex()
		case vtparse.CSI:
			it.csi(cmd)
		case vtparse.OSC:
			it.osc(it.readBuf, cmd)
		default:
			// Unsupported/unimplemented: consume, no state change.
		}
		it.readBuf = it.readBuf[consumed:]
	}
}

func (it *Interpreter) runeWidth(r rune) int {
	if it.Width == nil {
		return 1
	}
	w := it.Width(r)
	if w < 1 {
		return 1
	}
	return w
}

func (it *Interpreter) tab(n int) {
	size := it.Grid.Size()
	col := it.Grid.Cursor.Col
	for i := 0; i < n; i++ {
		next := ((col / tabStop) + 1) * tabStop
		if next >= size.Cols {
			next = size.Cols - 1
		}
		col = next
	}
	it.Grid.SetCursor(0, col, grid.Relative, grid.Absolute)
}

func (it *Interpreter) newline() {
	size := it.Grid.Size()
	if it.Grid.Cursor.Row == size.Rows-1 {
		it.Grid.ScrollUp(1)
		it.Grid.SetCursor(0, 0, grid.Relative, grid.Absolute)
	} else {
		it.Grid.SetCursor(1, 0, grid.Relative, grid.Absolute)
	}
}

func (it *Interpreter) index() {
	it.newline()
}

func (it *Interpreter) reverseIndex() {
	if it.Grid.Cursor.Row == 0 {
		it.Grid.ScrollDown(1)
	} else {
		it.Grid.SetCursor(-1, 0, grid.Relative, grid.Relative)
	}
}

// WritePaste wraps pasted bytes in bracketed-paste markers (when mode
// 2004 is active) and queues them to the shell.
func (it *Interpreter) WritePaste(b []byte) {
	if it.Grid.PrivateMode(grid.ModeBracketedPaste) {
		it.queueWrite([]byte("\x1b[200~"))
		it.queueWrite(b)
		it.queueWrite([]byte("\x1b[201~"))
		return
	}
	it.queueWrite(b)
}

// WriteKey queues raw key-derived bytes to the shell.
func (it *Interpreter) WriteKey(b []byte) {
	it.queueWrite(b)
}

func controlByte(r rune) byte {
	if r >= 'a' && r <= 'z' {
		r -= 'a' - 'A'
	}
	if r >= 'A' && r <= 'Z' {
		return byte(r - 'A' + 1)
	}
	return 0
}

// CtrlLetter returns the control code for Ctrl+<letter>, or (0, false)
// if letter isn't A..Z.
func CtrlLetter(r rune) (byte, bool) {
	c := controlByte(r)
	return c, c != 0
}

func warnf(format string, args ...interface{}) {
	log.Printf(format, args...)
}
