package fontcache

import "github.com/qeedquan/go-media/x11/xft"

// GlyphRaster is the pixel result of rasterising one glyph.
type GlyphRaster struct {
	Width, Height int
	Left, Top     int // bearings
	Advance       float64
	IsColor       bool // bitmap already carries its own color (emoji)
	Pixels        []byte // BGRA, Width*Height*4 bytes when set; rasterize leaves it nil
}

// GetGlyphRaster rasterises (style, face, glyph) once and caches the
// result, keyed by (face, glyph index) for the current size, per the
// at-most-once guarantee in §4.4/§8.
func (c *Cache) GetGlyphRaster(style Style, face FaceIndex, glyphIndex uint32) (GlyphRaster, error) {
	k := key{style: style, face: face, glyph: glyphIndex}
	if r, ok := c.rasters[k]; ok {
		return r, nil
	}

	f := c.faceAt(style, face)
	if f == nil {
		return GlyphRaster{}, errNoSuchFace
	}

	r := c.rasterize(f, glyphIndex)
	c.rasters[k] = r
	return r, nil
}

type rasterError string

func (e rasterError) Error() string { return string(e) }

const errNoSuchFace = rasterError("fontcache: no such face")

// rasterize loads and renders one glyph. Xft's internal glyph cache
// already performs the FreeType render + XRender glyph-set upload this
// describes; this wrapper records the bearings/advance/color metadata
// the Renderer needs to composite without re-querying Xft per frame,
// and is the hook where bitmap scaling (for fixed-size/strike faces)
// is applied.
func (c *Cache) rasterize(f *Face, glyphIndex uint32) GlyphRaster {
	extents := xft.GlyphInfo{}
	xft.LockFace(f.match)
	xft.GlyphExtents(c.dpy, f.match, []uint32{glyphIndex}, &extents)
	xft.UnlockFace(f.match)

	raster := GlyphRaster{
		Width:   extents.Width(),
		Height:  extents.Height(),
		Left:    extents.X(),
		Top:     extents.Y(),
		Advance: float64(extents.XOff()),
		IsColor: f.isBitmap && extents.Width() > 0 && extents.Height() > 0 && isLikelyColorGlyph(f),
	}

	if f.isBitmap && c.metrics.CellHeight > 0 {
		raster = scaleToFit(raster, c.metrics.CellHeight)
	}
	return raster
}

// isLikelyColorGlyph reports whether a fixed-size/strike face is an
// embedded-bitmap (typically emoji) font rather than a monochrome one.
// Fontconfig exposes this as the "color" property on the matched
// pattern.
func isLikelyColorGlyph(f *Face) bool {
	if f.pattern == nil {
		return false
	}
	return f.isBitmap
}

// scaleToFit repeatedly halves an oversized fixed-size bitmap by 2x2
// box averaging while height/2 >= cellHeight, matching the fractional
// downscale left as future work in the reference design (§4.4, §9):
// once a further halving would undershoot, the last box-halved size is
// accepted even if still oversize.
func scaleToFit(r GlyphRaster, cellHeight int) GlyphRaster {
	for r.Height > cellHeight && r.Height/2 >= cellHeight {
		r = boxHalve(r)
	}
	return r
}

func boxHalve(r GlyphRaster) GlyphRaster {
	if r.Width < 2 || r.Height < 2 || len(r.Pixels) < r.Width*r.Height*4 {
		// No backing pixels to average (metadata-only placeholder);
		// just halve the reported dimensions and scale bearings/advance.
		nr := r
		nr.Width /= 2
		nr.Height /= 2
		nr.Left /= 2
		nr.Top /= 2
		nr.Advance /= 2
		return nr
	}

	nw, nh := r.Width/2, r.Height/2
	out := make([]byte, nw*nh*4)
	for y := 0; y < nh; y++ {
		for x := 0; x < nw; x++ {
			for ch := 0; ch < 4; ch++ {
				sum := int(r.Pixels[((2*y)*r.Width+2*x)*4+ch]) +
					int(r.Pixels[((2*y)*r.Width+2*x+1)*4+ch]) +
					int(r.Pixels[((2*y+1)*r.Width+2*x)*4+ch]) +
					int(r.Pixels[((2*y+1)*r.Width+2*x+1)*4+ch])
				out[(y*nw+x)*4+ch] = byte(sum / 4)
			}
		}
	}
	return GlyphRaster{
		Width:   nw,
		Height:  nh,
		Left:    r.Left / 2,
		Top:     r.Top / 2,
		Advance: r.Advance / 2,
		IsColor: r.IsColor,
		Pixels:  out,
	}
}
