package render

import (
	"testing"

	"github.com/nolanderc/shitty/internal/cell"
	"github.com/nolanderc/shitty/internal/fontcache"
)

// Glyph lookup, upload and drawing all require a live X11/XRender
// connection, so these exercise the pure bookkeeping only: identifier
// packing, style selection, and the upload bitset's growth/caching.

func TestPackIdentifierLayout(t *testing.T) {
	id := pack(fontcache.StyleBoldItalic, 'A')
	if id>>21 != uint32(fontcache.StyleBoldItalic) {
		t.Fatalf("style bits = %d, want %d", id>>21, fontcache.StyleBoldItalic)
	}
	if id&0x1fffff != 'A' {
		t.Fatalf("codepoint bits = %d, want %d", id&0x1fffff, 'A')
	}
}

func TestStyleOf(t *testing.T) {
	cases := []struct {
		s    cell.Style
		want fontcache.Style
	}{
		{cell.Style{}, fontcache.StyleRegular},
		{cell.Style{Flags: cell.FlagBold}, fontcache.StyleBold},
		{cell.Style{Flags: cell.FlagItalic}, fontcache.StyleItalic},
		{cell.Style{Flags: cell.FlagBold | cell.FlagItalic}, fontcache.StyleBoldItalic},
	}
	for _, c := range cases {
		if got := styleOf(c.s); got != c.want {
			t.Errorf("styleOf(%+v) = %v, want %v", c.s, got, c.want)
		}
	}
}

func TestGrowGlyphsDoublesToFitRequestedIndex(t *testing.T) {
	r := &Renderer{glyphs: make([]glyphEntry, 4)}
	r.growGlyphs(10)
	if len(r.glyphs) < 11 {
		t.Fatalf("len = %d, want >= 11", len(r.glyphs))
	}
}

func TestGrowGlyphsCapsAtMaxIdentifiers(t *testing.T) {
	r := &Renderer{glyphs: make([]glyphEntry, 4)}
	r.growGlyphs(maxIdentifiers + 5)
	if len(r.glyphs) != maxIdentifiers {
		t.Fatalf("len = %d, want capped at %d", len(r.glyphs), maxIdentifiers)
	}
}

func TestGrowGlyphsPreservesExistingEntries(t *testing.T) {
	r := &Renderer{glyphs: make([]glyphEntry, 4)}
	id := pack(fontcache.StyleRegular, 'Z')
	r.growGlyphs(uint32(id))
	r.glyphs[id] = glyphEntry{uploaded: true, isColor: true}

	r.growGlyphs(uint32(id) + 1000)
	if !r.glyphs[id].uploaded || !r.glyphs[id].isColor {
		t.Fatalf("growGlyphs lost an existing entry on regrow")
	}
}
