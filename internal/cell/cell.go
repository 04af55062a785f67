// Package cell defines the grid's atomic unit of display: a codepoint
// carrying a style and a pair of layout flags.
package cell

// ColorKind tags how a Color's 24 bits are interpreted.
type ColorKind uint8

const (
	ColorDefault ColorKind = iota
	ColorIndexed
	ColorTrue
)

// Color is a tagged value: Kind says whether it is the default color,
// an indexed palette reference or a direct RGB triple. The owning
// Style's truecolor flags are kept in step with Kind; the renderer
// decides by Kind.
type Color struct {
	Kind  ColorKind
	Index uint8 // valid when Kind == ColorIndexed, 0..255 (xterm-256)
	R, G, B uint8
}

// DefaultColor returns the unset/default color of the given role.
func DefaultColor() Color {
	return Color{Kind: ColorDefault}
}

func Indexed(i uint8) Color {
	return Color{Kind: ColorIndexed, Index: i}
}

func RGB(r, g, b uint8) Color {
	return Color{Kind: ColorTrue, R: r, G: g, B: b}
}

// StyleFlag is the 16-bit attribute word of a Style.
type StyleFlag uint16

const (
	FlagTruecolorFG StyleFlag = 1 << iota
	FlagTruecolorBG
	FlagBold
	FlagItalic
	FlagUnderline
	FlagInverse
	FlagBlink
	FlagInvisible
	FlagStruck
)

// Style is the visual attribute set of a Cell: a flag word plus
// a foreground and background Color.
type Style struct {
	Flags StyleFlag
	FG    Color
	BG    Color
}

func (s Style) Bold() bool       { return s.Flags&FlagBold != 0 }
func (s Style) Italic() bool     { return s.Flags&FlagItalic != 0 }
func (s Style) Underline() bool  { return s.Flags&FlagUnderline != 0 }
func (s Style) Inverse() bool    { return s.Flags&FlagInverse != 0 }
func (s Style) Blink() bool      { return s.Flags&FlagBlink != 0 }
func (s Style) Invisible() bool  { return s.Flags&FlagInvisible != 0 }
func (s Style) Struck() bool     { return s.Flags&FlagStruck != 0 }
func (s Style) TruecolorFG() bool { return s.Flags&FlagTruecolorFG != 0 }
func (s Style) TruecolorBG() bool { return s.Flags&FlagTruecolorBG != 0 }

// DefaultStyle is the blank brush: default colors, no attributes.
func DefaultStyle() Style {
	return Style{FG: DefaultColor(), BG: DefaultColor()}
}

// Flag is the 2-bit per-cell flag set.
type Flag uint8

const (
	LineContinuation Flag = 1 << iota
	InheritStyle
)

// Cell is one grid square: a 21-bit codepoint, its style, and flags.
// The zero Cell is empty: codepoint 0, DefaultStyle, no flags.
type Cell struct {
	Rune  rune
	Flags Flag
	Style Style
}

func Empty() Cell {
	return Cell{Style: DefaultStyle()}
}

func (c Cell) IsEmpty() bool { return c.Rune == 0 }

func (c Cell) LineContinuation() bool { return c.Flags&LineContinuation != 0 }
func (c Cell) InheritStyle() bool     { return c.Flags&InheritStyle != 0 }
