package interp

import (
	"testing"

	"github.com/nolanderc/shitty/internal/cell"
	"github.com/nolanderc/shitty/internal/grid"
)

type fakePlatform struct {
	title string
	bells int
}

func (p *fakePlatform) SetWindowTitle(title string) { p.title = title }
func (p *fakePlatform) Bell()                       { p.bells++ }

func asciiWidth(r rune) int {
	if r < 0x80 {
		return 1
	}
	return 2
}

func rowText(g *grid.Grid, rel int) string {
	row := g.GetRow(rel)
	b := make([]rune, row.Len())
	for i := range b {
		c := row.Cell(i)
		if c.Rune == 0 {
			b[i] = ' '
		} else {
			b[i] = c.Rune
		}
	}
	return string(b)
}

func TestCursorMoveAndErase(t *testing.T) {
	g := grid.New(grid.Size{Cols: 10, Rows: 3})
	p := &fakePlatform{}
	it := New(g, p, asciiWidth)

	it.Feed([]byte("AB\x1b[H\x1b[2JCD"))
	it.Step()

	if rowText(g, 0)[:2] != "CD" {
		t.Fatalf("row 0 = %q, want starting with CD", rowText(g, 0))
	}
	if g.Cursor.Row != 0 || g.Cursor.Col != 2 {
		t.Fatalf("cursor = (%d,%d), want (0,2)", g.Cursor.Row, g.Cursor.Col)
	}
}

func TestSGRTruecolor(t *testing.T) {
	g := grid.New(grid.Size{Cols: 10, Rows: 3})
	it := New(g, nil, asciiWidth)
	it.Feed([]byte("\x1b[38;2;10;20;30mX"))
	it.Step()

	c := g.GetRow(0).Cell(0)
	if c.Rune != 'X' {
		t.Fatalf("cell rune = %q, want X", c.Rune)
	}
	if !c.Style.TruecolorFG() {
		t.Fatalf("expected truecolor fg flag set")
	}
	if c.Style.FG != cell.RGB(10, 20, 30) {
		t.Fatalf("fg = %+v, want rgb(10,20,30)", c.Style.FG)
	}
}

func TestOSCSetsTitle(t *testing.T) {
	g := grid.New(grid.Size{Cols: 10, Rows: 3})
	p := &fakePlatform{}
	it := New(g, p, asciiWidth)
	it.Feed([]byte("\x1b]0;hello\x07"))
	it.Step()

	if p.title != "hello" {
		t.Fatalf("title = %q, want hello", p.title)
	}
	if rowText(g, 0) != "          " {
		t.Fatalf("grid should be unchanged, got %q", rowText(g, 0))
	}
}

func TestIncompleteSequenceAwaitsMoreBytes(t *testing.T) {
	g := grid.New(grid.Size{Cols: 10, Rows: 3})
	it := New(g, nil, asciiWidth)
	it.Feed([]byte("\x1b[3"))
	it.Step()
	if len(it.readBuf) != 3 {
		t.Fatalf("expected incomplete sequence retained, buf = %q", it.readBuf)
	}
	it.Feed([]byte("8;5;200m"))
	it.Step()
	if len(it.readBuf) != 0 {
		t.Fatalf("expected sequence fully consumed, buf = %q", it.readBuf)
	}
}

func TestBracketedPasteWrapping(t *testing.T) {
	g := grid.New(grid.Size{Cols: 10, Rows: 3})
	it := New(g, nil, asciiWidth)
	g.SetPrivateMode(grid.ModeBracketedPaste, true)
	it.WritePaste([]byte("hi"))
	got := string(it.PendingWrites())
	want := "\x1b[200~hi\x1b[201~"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestCtrlLetterProducesControlCode(t *testing.T) {
	it := New(grid.New(grid.Size{Cols: 1, Rows: 1}), nil, asciiWidth)
	action, consumed := it.HandleKey(ModControl, KeyNone, 'A')
	if !consumed || action != ActionNone {
		t.Fatalf("expected consumed control code, got action=%v consumed=%v", action, consumed)
	}
	if got := it.PendingWrites(); string(got) != "\x01" {
		t.Fatalf("got %q, want 0x01", got)
	}
}

func TestScrollMarginsInsertBlankLines(t *testing.T) {
	g := grid.New(grid.Size{Cols: 4, Rows: 4})
	it := New(g, nil, asciiWidth)
	it.Feed([]byte("\x1b[1;1H1111\x1b[2;1H2222\x1b[3;1H3333\x1b[4;1H4444\x1b[2;3r\x1b[2;1H\x1b[1L"))
	it.Step()

	want := []string{"1111", "    ", "2222", "4444"}
	for i, w := range want {
		if got := rowText(g, i); got != w {
			t.Errorf("row %d = %q, want %q", i, got, w)
		}
	}
}

func TestShiftEscapeClosesWindow(t *testing.T) {
	it := New(grid.New(grid.Size{Cols: 1, Rows: 1}), nil, asciiWidth)
	action, consumed := it.HandleKey(ModShift, KeyEscape, 0)
	if !consumed || action != ActionCloseWindow {
		t.Fatalf("expected close window shortcut, got action=%v consumed=%v", action, consumed)
	}
}
