// Package config holds the tunables that used to live in st's
// config.h: appearance, timing, the colour table and the default
// window geometry. Everything here is a plain value so cmd/shitty can
// build one Config from flags and hand it to the rest of the program.
package config

import "time"

// Config is the full set of knobs the terminal starts with. There is
// no config-file parsing (out of scope); cmd/shitty fills this in from
// flag defaults and command-line overrides only.
type Config struct {
	// Font is a fontconfig pattern, e.g.
	// "Liberation Mono:pixelsize=12:antialias=true:autohint=true".
	Font     string
	PtSize   float64
	BorderPx int

	Shell    string
	TermName string

	Cols int
	Rows int

	// ColorNames is the 258-entry X11/hex color table: 16 ANSI slots,
	// 240 xterm-256 slots left empty (no color is allocated for them),
	// plus the cursor and reverse-cursor colors at 256 and 257, matching
	// st's colorname layout.
	ColorNames [258]string

	DefaultFG int
	DefaultBG int
	DefaultCS int
	DefaultRCS int

	CursorShape     int // 2 block, 4 underline, 6 bar
	CursorThickness int

	MaxFPS     time.Duration
	ActionFPS  time.Duration
	BlinkTimeout time.Duration

	AllowAltScreen bool
	TabSpaces      int
}

// Default returns the stock configuration, mirroring config.go's
// package-level vars in the reference.
func Default() Config {
	c := Config{
		Font:     "Liberation Mono:pixelsize=12:antialias=true:autohint=true",
		PtSize:   12,
		BorderPx: 2,

		Shell:    "/bin/sh",
		TermName: "xterm-256color",

		Cols: 80,
		Rows: 24,

		DefaultFG:  7,
		DefaultBG:  0,
		DefaultCS:  256,
		DefaultRCS: 257,

		CursorShape:     2,
		CursorThickness: 2,

		MaxFPS:       120,
		ActionFPS:    30,
		BlinkTimeout: 800 * time.Millisecond,

		AllowAltScreen: true,
		TabSpaces:      8,
	}

	copy(c.ColorNames[:], []string{
		"black", "red3", "green3", "yellow3", "blue2", "magenta3", "cyan3", "gray90",
		"gray50", "red", "green", "yellow", "#5c5cff", "magenta", "cyan", "white",
	})
	c.ColorNames[256] = "#cccccc"
	c.ColorNames[257] = "#555555"

	return c
}
