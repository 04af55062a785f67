// Package fontcache resolves fontconfig fallback chains per style,
// manages the FreeType/Xft face handles behind them, and caches
// rasterised glyphs keyed by (face, glyph index) for the renderer's
// XRender glyph-set uploads.
//
// Face resolution and the per-codepoint fallback search are grounded
// on xloadfont/xloadfonts/xmakeglyphfontspecs in st's x.go. Each
// style's chain holds the single face fontconfig matched for that
// style; the rest of fontconfig's sorted candidate list is not added to
// the chain. A codepoint that face lacks falls back to a synthesized
// fontconfig match for that one character (in Cache.Glyph), and the
// faces found that way are kept for later lookups.
package fontcache

import (
	"fmt"
	"math"

	"github.com/qeedquan/go-media/x11/fc"
	"github.com/qeedquan/go-media/x11/xft"
	"github.com/qeedquan/go-media/x11/xlib"
)

// Style is the 2-bit {bold, italic} axis a fallback chain is keyed on.
type Style int

const (
	StyleRegular Style = iota
	StyleBold
	StyleItalic
	StyleBoldItalic
	numStyles
)

// FaceIndex identifies a loaded face within a style's fallback chain.
type FaceIndex int

// Face wraps one loaded Xft/FreeType face plus the slant/weight
// mismatch flags st reports when fontconfig couldn't honor the request.
type Face struct {
	match     *xft.Font
	pattern   *fc.Pattern
	set       *fc.FontSet
	ascent    int
	descent   int
	height    int
	width     int
	badSlant  bool
	badWeight bool
	isBitmap  bool
	unitsPerEM int
}

// Metrics are the cell geometry derived from the primary regular face.
type Metrics struct {
	CellWidth  int
	CellHeight int
	Descender  int
	Baseline   int
}

const ascii_printable = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// loadFace opens one face from a fontconfig pattern, following the
// manual-configure-then-match dance xloadfont uses so later "missing
// glyph" lookups can reuse the same configured pattern.
func loadFace(dpy *xlib.Display, scr int, pattern *fc.Pattern) (*Face, error) {
	configured := fc.PatternDuplicate(pattern)
	if configured == nil {
		return nil, fmt.Errorf("fontcache: could not duplicate pattern")
	}
	fc.ConfigSubstitute(nil, configured, fc.MatchPattern)
	xft.DefaultSubstitute(dpy, scr, (*xft.Pattern)(configured))

	matched, _ := fc.FontMatch(nil, configured)
	if matched == nil {
		fc.PatternDestroy(configured)
		return nil, fmt.Errorf("fontcache: fontconfig found no match")
	}

	f := &Face{pattern: configured}
	f.match = xft.FontOpenPattern(dpy, (*xft.Pattern)(matched))
	if f.match == nil {
		fc.PatternDestroy(configured)
		fc.PatternDestroy(matched)
		return nil, fmt.Errorf("fontcache: XftFontOpenPattern failed")
	}

	if res, want := fc.PatternGetInteger((*fc.Pattern)(pattern), "slant", 0); res == fc.ResultMatch {
		if have, ok := fc.PatternGetInteger((*fc.Pattern)(configured), "slant", 0); ok != fc.ResultMatch || have < want {
			f.badSlant = true
		}
	}
	if res, want := fc.PatternGetInteger((*fc.Pattern)(pattern), "weight", 0); res == fc.ResultMatch {
		if have, ok := fc.PatternGetInteger((*fc.Pattern)(configured), "weight", 0); ok != fc.ResultMatch || have != want {
			f.badWeight = true
		}
	}
	if isColor, ok := fc.PatternGetBool((*fc.Pattern)(matched), "color", 0); ok == fc.ResultMatch {
		f.isBitmap = isColor
	}

	var extents xft.GlyphInfo
	xft.TextExtentsUtf8(dpy, f.match, []byte(ascii_printable), &extents)

	f.ascent = f.match.Ascent()
	f.descent = f.match.Descent()
	f.height = f.ascent + f.descent
	f.width = divceil(extents.XOff(), len(ascii_printable))

	return f, nil
}

func divceil(n, d int) int {
	if d == 0 {
		return 0
	}
	return (n + d - 1) / d
}

func ptsizeFixed266(ptsize float64) int32 {
	return int32(math.Round(ptsize * 64))
}
