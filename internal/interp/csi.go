package interp

import (
	"fmt"

	"github.com/nolanderc/shitty/internal/cell"
	"github.com/nolanderc/shitty/internal/grid"
	"github.com/nolanderc/shitty/internal/vtparse"
)

func (it *Interpreter) param(i, def int) int {
	if i >= it.ctx.NParams || !it.ctx.Params[i].Present || it.ctx.Params[i].Value == 0 {
		return def
	}
	return it.ctx.Params[i].Value
}

func (it *Interpreter) rawParam(i int) (int, bool) {
	if i >= it.ctx.NParams {
		return 0, false
	}
	return it.ctx.Params[i].Value, it.ctx.Params[i].Present
}

func (it *Interpreter) csi(cmd vtparse.Command) {
	switch cmd.Final {
	case '@':
		it.Grid.InsertBlankCharacters(it.param(0, 1))
	case 'A':
		it.Grid.SetCursor(-it.param(0, 1), 0, grid.Relative, grid.Relative)
	case 'B', 'e':
		it.Grid.SetCursor(it.param(0, 1), 0, grid.Relative, grid.Relative)
	case 'C', 'a':
		it.Grid.SetCursor(0, it.param(0, 1), grid.Relative, grid.Relative)
	case 'D':
		it.Grid.SetCursor(0, -it.param(0, 1), grid.Relative, grid.Relative)
	case 'E':
		it.Grid.SetCursor(it.param(0, 1), 0, grid.Absolute, grid.Relative)
		it.Grid.SetCursor(it.Grid.Cursor.Row, 0, grid.Absolute, grid.Absolute)
	case 'F':
		it.Grid.SetCursor(-it.param(0, 1), 0, grid.Relative, grid.Relative)
		it.Grid.SetCursor(it.Grid.Cursor.Row, 0, grid.Absolute, grid.Absolute)
	case 'G', '`':
		it.Grid.SetCursor(it.Grid.Cursor.Row, it.param(0, 1)-1, grid.Absolute, grid.Absolute)
	case 'H', 'f':
		it.Grid.SetCursor(it.param(0, 1)-1, it.param(1, 1)-1, grid.Absolute, grid.Absolute)
	case 'J':
		it.Grid.EraseInDisplay(eraseRange(it.param(0, 0)))
	case 'K':
		it.Grid.EraseInLine(eraseRange(it.param(0, 0)))
	case 'L':
		it.Grid.InsertBlankLines(it.param(0, 1), grid.InsertAtCursor)
	case 'M':
		it.Grid.DeleteLines(it.param(0, 1))
	case 'P':
		it.Grid.DeleteCharacters(it.param(0, 1))
	case 'S':
		it.Grid.ScrollUp(it.param(0, 1))
	case 'T':
		it.Grid.ScrollDown(it.param(0, 1))
	case 'X':
		it.Grid.EraseCharacters(it.param(0, 1))
	case 'c':
		if it.param(0, 0) == 0 {
			it.queueWrite([]byte("\x1b[?6c"))
		}
	case 'd':
		it.Grid.SetCursor(it.param(0, 1)-1, it.Grid.Cursor.Col, grid.Absolute, grid.Absolute)
	case 'h':
		it.setMode(cmd.Intermediate == '?', true)
	case 'l':
		it.setMode(cmd.Intermediate == '?', false)
	case 'm':
		it.sgr()
	case 'n':
		if it.param(0, 0) == 6 {
			it.queueWrite([]byte(fmt.Sprintf("\x1b[%d;%dR", it.Grid.Cursor.Row+1, it.Grid.Cursor.Col+1)))
		}
	case 'q':
		if cmd.Intermediate == ' ' {
			// DECSCUSR: cursor style is a rendering concern owned by
			// the caller; surface the parameter unchanged.
			it.CursorStyle = it.param(0, 0)
		} else {
			warnf("erresc: unimplemented csi q intermediate %q", cmd.Intermediate)
		}
	case 'r':
		if cmd.Intermediate == '?' {
			warnf("erresc: unimplemented private r")
			return
		}
		top := it.param(0, 1) - 1
		size := it.Grid.Size()
		bot := size.Rows
		if v, ok := it.rawParam(1); ok && v != 0 {
			bot = v
		}
		it.Grid.SetScrollMargins(top, bot)
		it.Grid.SetCursor(0, 0, grid.Absolute, grid.Absolute)
	case 'u':
		if cmd.Intermediate == '=' {
			// Progressive keyboard enhancements: accepted, ignored.
		} else {
			warnf("erresc: unimplemented csi u")
		}
	default:
		warnf("erresc: unknown csi final %q", cmd.Final)
	}
}

func eraseRange(p int) grid.EraseRange {
	switch p {
	case 1:
		return grid.EraseLeft
	case 2:
		return grid.EraseAll
	default:
		return grid.EraseRight
	}
}

func (it *Interpreter) setMode(priv bool, on bool) {
	if !priv {
		warnf("erresc: unimplemented ANSI mode")
		return
	}
	code := it.param(0, 0)
	switch grid.PrivateMode(code) {
	case grid.ModeCursorVisible, grid.ModeAltScreen, grid.ModeBracketedPaste:
		it.Grid.SetPrivateMode(grid.PrivateMode(code), on)
	default:
		warnf("erresc: unrecognized private mode %d", code)
	}
}

func (it *Interpreter) sgr() {
	if it.ctx.NParams == 0 {
		it.resetBrush()
		return
	}
	for i := 0; i < it.ctx.NParams; i++ {
		p := it.param(i, 0)
		switch {
		case p == 0:
			it.resetBrush()
		case p == 1:
			it.Grid.Cursor.Brush.Flags |= cell.FlagBold
		case p == 3:
			it.Grid.Cursor.Brush.Flags |= cell.FlagItalic
		case p == 4:
			it.Grid.Cursor.Brush.Flags |= cell.FlagUnderline
		case p == 7:
			it.Grid.Cursor.Brush.Flags |= cell.FlagInverse
		case p == 22:
			it.Grid.Cursor.Brush.Flags &^= cell.FlagBold
		case p == 23:
			it.Grid.Cursor.Brush.Flags &^= cell.FlagItalic
		case p == 24:
			it.Grid.Cursor.Brush.Flags &^= cell.FlagUnderline
		case p == 27:
			it.Grid.Cursor.Brush.Flags &^= cell.FlagInverse
		case p == 30, p == 31, p == 32, p == 33, p == 34, p == 35, p == 36, p == 37:
			it.Grid.Cursor.Brush.Flags &^= cell.FlagTruecolorFG
			it.Grid.Cursor.Brush.FG = cell.Indexed(uint8(p - 30))
		case p == 38:
			if done := it.sgrExtended(&i, true); !done {
				return
			}
		case p == 39:
			it.Grid.Cursor.Brush.Flags &^= cell.FlagTruecolorFG
			it.Grid.Cursor.Brush.FG = cell.DefaultColor()
		case p == 40, p == 41, p == 42, p == 43, p == 44, p == 45, p == 46, p == 47:
			it.Grid.Cursor.Brush.Flags &^= cell.FlagTruecolorBG
			it.Grid.Cursor.Brush.BG = cell.Indexed(uint8(p - 40))
		case p == 48:
			if done := it.sgrExtended(&i, false); !done {
				return
			}
		case p == 49:
			it.Grid.Cursor.Brush.Flags &^= cell.FlagTruecolorBG
			it.Grid.Cursor.Brush.BG = cell.DefaultColor()
		case p >= 90 && p <= 97:
			it.Grid.Cursor.Brush.Flags &^= cell.FlagTruecolorFG
			it.Grid.Cursor.Brush.FG = cell.Indexed(uint8(p-90) + 8)
		case p >= 100 && p <= 107:
			it.Grid.Cursor.Brush.Flags &^= cell.FlagTruecolorBG
			it.Grid.Cursor.Brush.BG = cell.Indexed(uint8(p-100) + 8)
		default:
			warnf("erresc(default): gfx attr %d unknown", p)
			return
		}
	}
}

func (it *Interpreter) resetBrush() {
	it.Grid.Cursor.Brush = cell.DefaultStyle()
}

// sgrExtended parses the 38/48 extended-color forms: "2;r;g;b" for
// truecolor or "5;i" for a palette index. i is advanced past the
// parameters it consumes. Returns false (stop iteration) on malformed input.
func (it *Interpreter) sgrExtended(i *int, fg bool) bool {
	mode, ok := it.rawParam(*i + 1)
	if !ok {
		warnf("erresc(38/48): missing color mode")
		return false
	}
	switch mode {
	case 2:
		if *i+4 >= it.ctx.NParams {
			warnf("erresc(38/48): incorrect number of parameters")
			return false
		}
		r := it.param(*i+2, 0)
		g := it.param(*i+3, 0)
		b := it.param(*i+4, 0)
		*i += 4
		if r < 0 || r > 255 || g < 0 || g > 255 || b < 0 || b > 255 {
			warnf("erresc: bad rgb color (%d,%d,%d)", r, g, b)
			return true
		}
		if fg {
			it.Grid.Cursor.Brush.Flags |= cell.FlagTruecolorFG
			it.Grid.Cursor.Brush.FG = cell.RGB(uint8(r), uint8(g), uint8(b))
		} else {
			it.Grid.Cursor.Brush.Flags |= cell.FlagTruecolorBG
			it.Grid.Cursor.Brush.BG = cell.RGB(uint8(r), uint8(g), uint8(b))
		}
	case 5:
		if *i+2 >= it.ctx.NParams {
			warnf("erresc(38/48): incorrect number of parameters")
			return false
		}
		*i += 2
		idx := it.param(*i, 0)
		if idx < 0 || idx > 255 {
			warnf("erresc: bad color index %d", idx)
			return true
		}
		if fg {
			it.Grid.Cursor.Brush.Flags &^= cell.FlagTruecolorFG
			it.Grid.Cursor.Brush.FG = cell.Indexed(uint8(idx))
		} else {
			it.Grid.Cursor.Brush.Flags &^= cell.FlagTruecolorBG
			it.Grid.Cursor.Brush.BG = cell.Indexed(uint8(idx))
		}
	default:
		warnf("erresc(38/48): gfx attr %d unknown", mode)
		return false
	}
	return true
}
