package fontcache

import "github.com/qeedquan/go-media/x11/xft"

// FaceHandle returns the raw Xft face backing (style, idx), for
// callers (the renderer) that need to hand it to Xft's drawing calls
// directly.
func (c *Cache) FaceHandle(style Style, idx FaceIndex) *xft.Font {
	f := c.faceAt(style, idx)
	if f == nil {
		return nil
	}
	return f.match
}
