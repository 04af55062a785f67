package fontcache

import (
	"fmt"
	"log"

	"github.com/qeedquan/go-media/x11/fc"
	"github.com/qeedquan/go-media/x11/xft"
	"github.com/qeedquan/go-media/x11/xlib"
)

// key identifies one cached rasterisation.
type key struct {
	style Style
	face  FaceIndex
	glyph uint32
}

// Cache owns the four per-style fallback chains, the faces behind
// them, and a raster cache guaranteeing at-most-one rasterisation per
// (face, glyph index) for the current point size.
type Cache struct {
	dpy *xlib.Display
	scr int
	vis *xlib.Visual
	cmap xlib.Colormap

	family string
	ptsize float64

	chains [numStyles][]*Face

	// extraFaces holds single-character fallback faces found via
	// per-codepoint fontconfig queries, mirroring st's frc cache.
	extraFaces []*extraFace

	rasters map[key]GlyphRaster

	metrics Metrics
}

type extraFace struct {
	face  *Face
	style Style
	rune  rune
}

func New(dpy *xlib.Display, scr int, vis *xlib.Visual, cmap xlib.Colormap) *Cache {
	return &Cache{
		dpy:     dpy,
		scr:     scr,
		vis:     vis,
		cmap:    cmap,
		rasters: make(map[key]GlyphRaster),
	}
}

// LoadFaces resolves the four style chains for family at ptsize.
// Regular must resolve; missing bold/italic/bold_italic degrade
// silently to the regular chain.
func (c *Cache) LoadFaces(family string, ptsize float64) error {
	c.family = family
	c.ptsize = ptsize

	base := fc.NameParse(family)
	if base == nil {
		return fmt.Errorf("fontcache: could not parse font name %q", family)
	}
	if ptsize > 1 {
		fc.PatternDel(base, fc.PIXEL_SIZE)
		fc.PatternDel(base, fc.SIZE)
		fc.PatternAddDouble(base, fc.PIXEL_SIZE, ptsize)
	}

	regular, err := loadFace(c.dpy, c.scr, base)
	if err != nil {
		return fmt.Errorf("fontcache: regular face must resolve: %w", err)
	}
	c.chains[StyleRegular] = []*Face{regular}
	c.metrics = Metrics{
		CellWidth:  divceilf(regular.width),
		CellHeight: divceilf(regular.height),
		Descender:  regular.descent,
		Baseline:   divceilf(regular.height) - regular.descent,
	}

	italicPattern := fc.PatternDuplicate(base)
	fc.PatternDel(italicPattern, fc.SLANT)
	fc.PatternAddInteger(italicPattern, fc.SLANT, fc.SLANT_ITALIC)
	if f, err := loadFace(c.dpy, c.scr, italicPattern); err == nil {
		c.chains[StyleItalic] = []*Face{f}
	} else {
		log.Printf("fontcache: italic face unavailable, degrading to regular: %v", err)
		c.chains[StyleItalic] = c.chains[StyleRegular]
	}

	boldPattern := fc.PatternDuplicate(base)
	fc.PatternDel(boldPattern, fc.WEIGHT)
	fc.PatternAddInteger(boldPattern, fc.WEIGHT, fc.WEIGHT_BOLD)
	if f, err := loadFace(c.dpy, c.scr, boldPattern); err == nil {
		c.chains[StyleBold] = []*Face{f}
	} else {
		log.Printf("fontcache: bold face unavailable, degrading to regular: %v", err)
		c.chains[StyleBold] = c.chains[StyleRegular]
	}

	boldItalicPattern := fc.PatternDuplicate(italicPattern)
	fc.PatternDel(boldItalicPattern, fc.WEIGHT)
	fc.PatternAddInteger(boldItalicPattern, fc.WEIGHT, fc.WEIGHT_BOLD)
	if f, err := loadFace(c.dpy, c.scr, boldItalicPattern); err == nil {
		c.chains[StyleBoldItalic] = []*Face{f}
	} else {
		log.Printf("fontcache: bold-italic face unavailable, degrading to regular: %v", err)
		c.chains[StyleBoldItalic] = c.chains[StyleRegular]
	}

	fc.PatternDestroy(base)
	fc.PatternDestroy(italicPattern)
	fc.PatternDestroy(boldPattern)
	fc.PatternDestroy(boldItalicPattern)
	return nil
}

func divceilf(v int) int {
	return v
}

func (c *Cache) Metrics() Metrics { return c.metrics }

// Glyph searches style's fallback chain in array order for a face
// that maps r to a non-zero glyph index. On a full miss it falls
// through to a single-character fontconfig lookup (st's "frc" path)
// before giving up.
func (c *Cache) Glyph(style Style, r rune) (FaceIndex, uint32, bool) {
	chain := c.chains[style]
	for i, f := range chain {
		if idx := xft.CharIndex(c.dpy, f.match, r); idx != 0 {
			return FaceIndex(i), idx, true
		}
	}

	for i, ef := range c.extraFaces {
		if ef.style != style {
			continue
		}
		idx := xft.CharIndex(c.dpy, ef.face.match, r)
		if idx != 0 {
			return FaceIndex(len(chain) + i), idx, true
		}
		if ef.rune == r {
			// A cached negative result for this exact rune: still no glyph.
			return 0, 0, false
		}
	}

	primary := chain[0]
	if primary.set == nil {
		primary.set, _ = fc.FontSort(nil, primary.pattern, true)
	}
	fcpattern := fc.PatternDuplicate(primary.pattern)
	charset := fc.CharSetCreate()
	fc.CharSetAddChar(charset, r)
	fc.PatternAddCharSet(fcpattern, fc.CHARSET, charset)
	fc.PatternAddBool(fcpattern, fc.SCALABLE, true)
	fc.ConfigSubstitute(nil, fcpattern, fc.MatchPattern)
	fc.DefaultSubstitute(fcpattern)

	sets := []*fc.FontSet{primary.set}
	fontPattern, _ := fc.FontSetMatch(nil, sets, fcpattern)
	fc.PatternDestroy(fcpattern)
	fc.CharSetDestroy(charset)
	if fontPattern == nil {
		c.extraFaces = append(c.extraFaces, &extraFace{face: primary, style: style, rune: r})
		return 0, 0, false
	}

	match := xft.FontOpenPattern(c.dpy, (*xft.Pattern)(fontPattern))
	if match == nil {
		c.extraFaces = append(c.extraFaces, &extraFace{face: primary, style: style, rune: r})
		return 0, 0, false
	}
	face := &Face{match: match, pattern: fontPattern}
	idx := xft.CharIndex(c.dpy, match, r)
	c.extraFaces = append(c.extraFaces, &extraFace{face: face, style: style, rune: r})
	if idx == 0 {
		return 0, 0, false
	}
	return FaceIndex(len(chain) + len(c.extraFaces) - 1), idx, true
}

// faceAt resolves a FaceIndex back into the loaded face object, for
// rasterisation.
func (c *Cache) faceAt(style Style, idx FaceIndex) *Face {
	chain := c.chains[style]
	if int(idx) < len(chain) {
		return chain[idx]
	}
	extra := int(idx) - len(chain)
	if extra >= 0 && extra < len(c.extraFaces) {
		return c.extraFaces[extra].face
	}
	return nil
}

// SetSize flushes the raster cache and reloads every face at the new
// point size.
func (c *Cache) SetSize(ptsize float64) error {
	c.rasters = make(map[key]GlyphRaster)
	c.extraFaces = nil
	for s := range c.chains {
		c.chains[s] = nil
	}
	return c.LoadFaces(c.family, ptsize)
}

func (c *Cache) Close() {
	for _, chain := range c.chains {
		for _, f := range chain {
			if f != nil && f.match != nil {
				xft.FontClose(c.dpy, f.match)
			}
		}
	}
	for _, ef := range c.extraFaces {
		if ef.face != nil && ef.face.match != nil {
			xft.FontClose(c.dpy, ef.face.match)
		}
	}
}
