package grid

import (
	"testing"

	"github.com/nolanderc/shitty/internal/cell"
)

func rowString(g *Grid, rel int) string {
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

func writeString(g *Grid, s string) {
	for _, r := range s {
		g.Write(r, 1)
	}
}

func TestWriteWrap(t *testing.T) {
	g := New(Size{Cols: 10, Rows: 3})
	writeString(g, "abcdefghijklm")

	want := []string{"abcdefghij", "klm       ", "          "}
	for i, w := range want {
		if got := rowString(g, i); got != w {
			t.Errorf("row %d = %q, want %q", i, got, w)
		}
	}
	if g.Cursor.Row != 1 || g.Cursor.Col != 3 {
		t.Errorf("cursor = (%d,%d), want (1,3)", g.Cursor.Row, g.Cursor.Col)
	}
}

func TestWriteOccupancy(t *testing.T) {
	g := New(Size{Cols: 10, Rows: 5})
	input := "the quick brown fox jumps"
	writeString(g, input)

	var got []rune
	for r := 0; r <= g.Cursor.Row; r++ {
		row := g.GetRow(r)
		for c := 0; c < row.Len(); c++ {
			if r == g.Cursor.Row && c >= g.Cursor.Col {
				break
			}
			got = append(got, row.Cell(c).Rune)
		}
	}
	if string(got) != input {
		t.Errorf("occupancy = %q, want %q", string(got), input)
	}
}

func TestCursorStaysInBounds(t *testing.T) {
	g := New(Size{Cols: 5, Rows: 5})
	ops := []func(){
		func() { g.SetCursor(100, 100, Absolute, Absolute) },
		func() { g.SetCursor(-100, -100, Absolute, Absolute) },
		func() { g.SetCursor(2, 2, Relative, Relative) },
		func() { g.SetCursor(-2, -2, Relative, Relative) },
	}
	for _, op := range ops {
		op()
		if g.Cursor.Row < 0 || g.Cursor.Row >= 5 || g.Cursor.Col < 0 || g.Cursor.Col > 5 {
			t.Fatalf("cursor out of bounds: (%d,%d)", g.Cursor.Row, g.Cursor.Col)
		}
	}
}

func TestScrollbackCap(t *testing.T) {
	g := New(Size{Cols: 4, Rows: 2, ScrollbackRows: 3})
	for i := 0; i < 20; i++ {
		g.scroll(1)
	}
	if g.ScrollbackRowCount() > 3 {
		t.Fatalf("scrollback = %d, want <= 3", g.ScrollbackRowCount())
	}
}

func TestEraseInDisplayCSI2(t *testing.T) {
	g := New(Size{Cols: 2, Rows: 2})
	writeString(g, "AB")
	g.SetCursor(0, 0, Absolute, Absolute)
	g.EraseInDisplay(EraseAll)
	if rowString(g, 0) != "  " || rowString(g, 1) != "  " {
		t.Fatalf("expected blank grid after erase all")
	}
}

func TestInsertBlankLinesWithinScrollMargins(t *testing.T) {
	g := New(Size{Cols: 4, Rows: 4})
	rows := []string{"1111", "2222", "3333", "4444"}
	for i, s := range rows {
		g.SetCursor(i, 0, Absolute, Absolute)
		writeString(g, s)
	}
	g.SetScrollMargins(1, 3)
	g.SetCursor(1, 0, Absolute, Absolute)
	g.InsertBlankLines(1, InsertAtCursor)

	want := []string{"1111", "    ", "2222", "4444"}
	for i, w := range want {
		if got := rowString(g, i); got != w {
			t.Errorf("row %d = %q, want %q", i, got, w)
		}
	}
}

func TestReflowIdentitySameSize(t *testing.T) {
	g := New(Size{Cols: 8, Rows: 4})
	writeString(g, "hello world this wraps")
	target := New(Size{Cols: 8, Rows: 4})
	g.ReflowInto(target)

	for r := 0; r <= g.Cursor.Row; r++ {
		if rowString(g, r) != rowString(target, r) {
			t.Errorf("row %d mismatch: %q vs %q", r, rowString(g, r), rowString(target, r))
		}
	}
}

func TestWideAndInheritFlags(t *testing.T) {
	g := New(Size{Cols: 10, Rows: 2})
	g.Write('漢', 2)
	row := g.GetRow(0)
	if !row.Cell(1).InheritStyle() {
		t.Errorf("expected trailing wide cell to inherit style")
	}
	if row.Cell(1).Rune != 0 {
		t.Errorf("expected trailing wide cell to carry codepoint 0")
	}
}

func TestEmptyCellDefaults(t *testing.T) {
	c := cell.Empty()
	if !c.IsEmpty() {
		t.Fatalf("expected empty cell")
	}
	if c.Style != cell.DefaultStyle() {
		t.Fatalf("expected default style")
	}
}
