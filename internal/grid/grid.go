// Package grid implements the screen model: a ring-buffered matrix of
// styled cells with cursor state, scroll margins, scrollback and
// line-continuation reflow.
//
// The ring buffer and invariants follow §3/§4.1 of the core design;
// the editing primitives (erase, insert/delete lines and characters)
// are generalized from the line-slice screen model in st, reworked to
// operate on a modulo-indexed backing store so scrollback survives
// without reallocating every row on scroll.
package grid

import (
	"github.com/nolanderc/shitty/internal/cell"
)

// Size describes a grid's geometry.
type Size struct {
	Cols           int
	Rows           int
	ScrollbackRows int
}

// EraseRange selects which part of a line or display an erase affects.
type EraseRange int

const (
	EraseRight EraseRange = iota
	EraseLeft
	EraseAll
)

// InsertOrigin selects where insertBlankLines starts shifting from.
type InsertOrigin int

const (
	InsertAtTop InsertOrigin = iota
	InsertAtCursor
)

// Cursor is the terminal's write position and pen state.
type Cursor struct {
	Col, Row int
	Brush    cell.Style
	Anchored bool // true once a glyph has been placed at this logical position
}

// Grid is a ring-buffered cols x (rows+scrollback) cell matrix.
type Grid struct {
	size Size

	// buf is the backing store, laid out row-major with RowStride =
	// size.Cols, and totalRows() logical row slots used as a ring.
	buf []cell.Cell

	rowStart           int // ring index of logical row 0 (top of view)
	scrollbackRowCount int

	Cursor Cursor

	modes map[PrivateMode]bool

	top, bot int // scroll margins: top inclusive, bot exclusive, 0-based
}

// PrivateMode is a numerically coded boolean terminal setting.
type PrivateMode int

const (
	ModeCursorVisible  PrivateMode = 25
	ModeAltScreen      PrivateMode = 1049
	ModeBracketedPaste PrivateMode = 2004
)

// New constructs a Grid of the given size, fully blank, cursor at origin.
func New(size Size) *Grid {
	if size.Cols < 1 {
		size.Cols = 1
	}
	if size.Rows < 1 {
		size.Rows = 1
	}
	g := &Grid{
		size:  size,
		buf:   make([]cell.Cell, size.Cols*(size.Rows+size.ScrollbackRows)),
		modes: make(map[PrivateMode]bool),
		bot:   size.Rows,
	}
	g.Cursor.Brush = cell.DefaultStyle()
	g.clearAll()
	return g
}

func (g *Grid) Size() Size { return g.size }

func (g *Grid) totalRows() int { return g.size.Rows + g.size.ScrollbackRows }

// ringIndex maps logical row r in [-scrollbackRowCount, rows) to a
// backing row index.
func (g *Grid) ringIndex(r int) int {
	total := g.totalRows()
	idx := (g.rowStart + r) % total
	if idx < 0 {
		idx += total
	}
	return idx
}

// Row is a handle to one logical row, avoiding a dangling slice into
// a ring buffer whose rows move underneath it.
type Row struct {
	g   *Grid
	rel int
}

// GetRow returns a handle for the row at the given view-relative
// index (0 is the top of the view; negative indices reach into
// scrollback).
func (g *Grid) GetRow(rel int) Row {
	return Row{g: g, rel: rel}
}

func (r Row) Len() int { return r.g.size.Cols }

func (r Row) Cell(col int) cell.Cell {
	return r.g.buf[r.g.ringIndex(r.rel)*r.g.size.Cols+col]
}

func (r Row) setCell(col int, c cell.Cell) {
	r.g.buf[r.g.ringIndex(r.rel)*r.g.size.Cols+col] = c
}

func (r Row) Cells() []cell.Cell {
	base := r.g.ringIndex(r.rel) * r.g.size.Cols
	return r.g.buf[base : base+r.g.size.Cols]
}

// ScrollbackRowCount reports how many rows are currently retained above the view.
func (g *Grid) ScrollbackRowCount() int { return g.scrollbackRowCount }

func (g *Grid) clearAll() {
	for i := range g.buf {
		g.buf[i] = cell.Empty()
	}
}

func (g *Grid) clearRow(rel int, from, to int) {
	row := g.GetRow(rel)
	brush := g.Cursor.Brush
	for c := from; c <= to && c < g.size.Cols; c++ {
		blank := cell.Empty()
		blank.Style = brush
		row.setCell(c, blank)
	}
}

// Write places codepoint at the cursor, wrapping and scrolling as needed.
func (g *Grid) Write(r rune, width int) {
	w := width
	if w < 1 {
		w = 1
	}
	if g.Cursor.Col+w > g.size.Cols {
		tailRow := g.GetRow(g.Cursor.Row)
		for c := g.Cursor.Col; c < g.size.Cols; c++ {
			blank := cell.Cell{Style: g.Cursor.Brush}
			if g.Cursor.Anchored {
				blank.Flags |= cell.LineContinuation
			}
			tailRow.setCell(c, blank)
		}
		g.Cursor.Col = 0
		g.Cursor.Row++
		if g.Cursor.Row >= g.size.Rows {
			g.scroll(g.Cursor.Row - g.size.Rows + 1)
		}
	}

	row := g.GetRow(g.Cursor.Row)
	c := cell.Cell{Rune: r, Style: g.Cursor.Brush}
	if g.Cursor.Anchored {
		c.Flags |= cell.LineContinuation
	}
	row.setCell(g.Cursor.Col, c)

	for i := 1; i < w; i++ {
		if g.Cursor.Col+i >= g.size.Cols {
			break
		}
		dummy := cell.Cell{Flags: cell.InheritStyle | (c.Flags & cell.LineContinuation), Style: g.Cursor.Brush}
		row.setCell(g.Cursor.Col+i, dummy)
	}

	g.Cursor.Col += w
	g.Cursor.Anchored = true
}

// scroll advances row_start by k rows, growing scrollback and clearing
// the newly exposed rows. Called from Write, ScrollUp and ReflowInto.
func (g *Grid) scroll(k int) {
	if k <= 0 {
		return
	}
	total := g.totalRows()
	g.Cursor.Row -= k
	g.rowStart = (g.rowStart + k) % total
	g.scrollbackRowCount += k
	if g.scrollbackRowCount > g.size.ScrollbackRows {
		g.scrollbackRowCount = g.size.ScrollbackRows
	}
	for i := 0; i < k; i++ {
		rel := g.size.Rows - k + i
		g.clearRow(rel, 0, g.size.Cols-1)
	}
}

// ScrollUp shifts the scroll-margin region up by n, feeding vacated
// rows to scrollback only when the region is the full screen.
func (g *Grid) ScrollUp(n int) {
	if n <= 0 {
		return
	}
	if g.top == 0 && g.bot == g.size.Rows {
		g.Cursor.Row += n
		g.scroll(n)
		return
	}
	g.shiftRows(g.top, g.bot-1, -n)
}

// ScrollDown shifts the scroll-margin region down by n.
func (g *Grid) ScrollDown(n int) {
	if n <= 0 {
		return
	}
	g.shiftRows(g.top, g.bot-1, n)
}

// shiftRows moves rows in [from, to] by delta (positive = down,
// negative = up), clearing vacated rows, without touching scrollback.
func (g *Grid) shiftRows(from, to, delta int) {
	if delta == 0 {
		return
	}
	n := to - from + 1
	if n <= 0 {
		return
	}
	tmp := make([][]cell.Cell, n)
	for i := 0; i < n; i++ {
		src := g.GetRow(from + i).Cells()
		tmp[i] = append([]cell.Cell(nil), src...)
	}
	for i := 0; i < n; i++ {
		dstRel := from + i + delta
		if dstRel < from || dstRel > to {
			continue
		}
		dst := g.GetRow(dstRel)
		copy(dst.Cells(), tmp[i])
	}
	if delta > 0 {
		for rel := from; rel < from+delta && rel <= to; rel++ {
			g.clearRow(rel, 0, g.size.Cols-1)
		}
	} else {
		for rel := to + delta + 1; rel <= to; rel++ {
			g.clearRow(rel, 0, g.size.Cols-1)
		}
	}
}

type Axis int

const (
	Absolute Axis = iota
	Relative
)

// SetCursor moves the cursor; each axis is absolute or relative, then
// clamped to the grid bounds. Never scrolls.
func (g *Grid) SetCursor(row, col int, rowAxis, colAxis Axis) {
	if rowAxis == Relative {
		row = g.Cursor.Row + row
	}
	if colAxis == Relative {
		col = g.Cursor.Col + col
	}
	g.Cursor.Row = clamp(row, 0, g.size.Rows-1)
	g.Cursor.Col = clamp(col, 0, g.size.Cols)
	if g.Cursor.Col >= g.size.Cols {
		g.Cursor.Col = g.size.Cols - 1
	}
	g.Cursor.Anchored = false
}

func (g *Grid) EraseInLine(r EraseRange) {
	switch r {
	case EraseRight:
		g.clearRow(g.Cursor.Row, g.Cursor.Col, g.size.Cols-1)
	case EraseLeft:
		g.clearRow(g.Cursor.Row, 0, g.Cursor.Col)
	case EraseAll:
		g.clearRow(g.Cursor.Row, 0, g.size.Cols-1)
	}
}

func (g *Grid) EraseInDisplay(r EraseRange) {
	switch r {
	case EraseRight: // below
		g.clearRow(g.Cursor.Row, g.Cursor.Col, g.size.Cols-1)
		for row := g.Cursor.Row + 1; row < g.size.Rows; row++ {
			g.clearRow(row, 0, g.size.Cols-1)
		}
	case EraseLeft: // above
		for row := 0; row < g.Cursor.Row; row++ {
			g.clearRow(row, 0, g.size.Cols-1)
		}
		g.clearRow(g.Cursor.Row, 0, g.Cursor.Col)
	case EraseAll:
		for row := 0; row < g.size.Rows; row++ {
			g.clearRow(row, 0, g.size.Cols-1)
		}
	}
}

func (g *Grid) InsertBlankLines(n int, where InsertOrigin) {
	top := g.top
	if where == InsertAtCursor && g.Cursor.Row > top {
		top = g.Cursor.Row
	}
	bot := g.bot - 1 // last row inside the half-open margin region
	if n > bot-top+1 {
		n = bot - top + 1
	}
	if n <= 0 {
		return
	}
	g.shiftRows(top, bot, n)
}

func (g *Grid) DeleteLines(n int) {
	top := g.top
	if g.Cursor.Row > top {
		top = g.Cursor.Row
	}
	bot := g.bot - 1 // last row inside the half-open margin region
	if n > bot-top+1 {
		n = bot - top + 1
	}
	if n <= 0 {
		return
	}
	g.shiftRows(top, bot, -n)
}

func (g *Grid) InsertBlankCharacters(n int) {
	row := g.GetRow(g.Cursor.Row)
	cells := row.Cells()
	cols := g.size.Cols
	if g.Cursor.Col+n > cols {
		n = cols - g.Cursor.Col
	}
	if n <= 0 {
		return
	}
	copy(cells[g.Cursor.Col+n:], cells[g.Cursor.Col:cols-n])
	g.clearRow(g.Cursor.Row, g.Cursor.Col, g.Cursor.Col+n-1)
}

func (g *Grid) DeleteCharacters(n int) {
	row := g.GetRow(g.Cursor.Row)
	cells := row.Cells()
	cols := g.size.Cols
	if g.Cursor.Col+n > cols {
		n = cols - g.Cursor.Col
	}
	if n <= 0 {
		return
	}
	copy(cells[g.Cursor.Col:], cells[g.Cursor.Col+n:cols])
	g.clearRow(g.Cursor.Row, cols-n, cols-1)
}

func (g *Grid) EraseCharacters(n int) {
	end := g.Cursor.Col + n - 1
	if end >= g.size.Cols {
		end = g.size.Cols - 1
	}
	g.clearRow(g.Cursor.Row, g.Cursor.Col, end)
}

// SetScrollMargins sets the scroll-margin region to the half-open
// range [top, bot): top is the first row inside the region, bot is the
// first row past it (spec.md §4.1). CSI r's 1-based inclusive bottom
// row v maps to bot=v.
func (g *Grid) SetScrollMargins(top, bot int) {
	top = clamp(top, 0, g.size.Rows-1)
	bot = clamp(bot, top+1, g.size.Rows)
	g.top, g.bot = top, bot
}

func (g *Grid) SetPrivateMode(m PrivateMode, on bool) {
	g.modes[m] = on
}

func (g *Grid) PrivateMode(m PrivateMode) bool {
	return g.modes[m]
}

// ReflowInto replays this grid's content into target, turning soft-wrap
// bookkeeping into fresh wrap decisions for target's width. Only rows
// from the top of scrollback through the cursor row are replayed; rows
// below the cursor row are not copied. For those rows the replay is the
// identity when sizes match and the cursor sits within the view.
func (g *Grid) ReflowInto(target *Grid) {
	for r := -g.scrollbackRowCount; r <= g.Cursor.Row; r++ {
		row := g.GetRow(r)
		cells := row.Cells()
		if r > -g.scrollbackRowCount && !cells[0].LineContinuation() {
			target.Cursor.Col = 0
			target.Cursor.Row++
			if target.Cursor.Row >= target.size.Rows {
				target.scroll(target.Cursor.Row - target.size.Rows + 1)
			}
			target.Cursor.Anchored = false
		}
		end := len(cells)
		for end > 0 && cells[end-1].Rune == 0 {
			end--
		}
		for i := 0; i < end; i++ {
			c := cells[i]
			if c.InheritStyle() {
				continue
			}
			w := 1
			for i+w < len(cells) && cells[i+w].InheritStyle() {
				w++
			}
			target.Cursor.Brush = c.Style
			target.Cursor.Anchored = c.LineContinuation()
			target.Write(c.Rune, w)
		}
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
