package main

import (
	"github.com/qeedquan/go-media/x11/xft"
	"github.com/qeedquan/go-media/x11/xlib"

	"github.com/nolanderc/shitty/internal/config"
	"github.com/nolanderc/shitty/internal/fontcache"
	"github.com/nolanderc/shitty/internal/grid"
	"github.com/nolanderc/shitty/internal/interp"
	"github.com/nolanderc/shitty/internal/loop"
	"github.com/nolanderc/shitty/internal/ptyio"
	"github.com/nolanderc/shitty/internal/render"
)

// window is the X11 platform collaborator: it implements both
// loop.Platform (event draining, redraw) and interp.Platform (title,
// bell), grounded on the xw/win globals and their handler functions in
// st's x.go, collected here into one owned value instead of package
// globals.
type window struct {
	dpy  *xlib.Display
	scr  int
	vis  *xlib.Visual
	cmap xlib.Colormap

	window xlib.Window
	draw   *xft.Draw
	xic    xlib.XIC

	wmDeleteWin xlib.Atom
	xembed      xlib.Atom

	width, height int
	cellWidth, cellHeight int
	borderPx int

	loop     *loop.Loop
	term     *interp.Interpreter
	renderer *render.Renderer
	grid     *grid.Grid
	pty      *ptyio.PTY
	cache    *fontcache.Cache
	metrics  fontcache.Metrics
	cfg      config.Config

	focused bool
	closed  bool
}

type windowGeometry struct {
	cols, rows             int
	cellWidth, cellHeight  int
	borderPx               int
}

func newWindow(dpy *xlib.Display, scr int, vis *xlib.Visual, cmap xlib.Colormap, geom windowGeometry, title string, bg xft.Color) (*window, error) {
	w := &window{
		dpy: dpy, scr: scr, vis: vis, cmap: cmap,
		cellWidth: geom.cellWidth, cellHeight: geom.cellHeight,
		borderPx: geom.borderPx,
	}
	w.width = 2*geom.borderPx + geom.cols*geom.cellWidth
	w.height = 2*geom.borderPx + geom.rows*geom.cellHeight

	var attrs xlib.SetWindowAttributes
	attrs.SetBackgroundPixel(bg.Pixel())
	attrs.SetBorderPixel(bg.Pixel())
	attrs.SetBitGravity(xlib.NorthWestGravity)
	attrs.SetEventMask(xlib.FocusChangeMask | xlib.KeyPressMask |
		xlib.ExposureMask | xlib.VisibilityChangeMask | xlib.StructureNotifyMask)
	attrs.SetColormap(cmap)

	root := xlib.RootWindow(dpy, scr)
	w.window = xlib.CreateWindow(dpy, root, 0, 0, w.width, w.height, 0,
		xlib.DefaultDepth(dpy, scr), xlib.InputOutput, vis,
		xlib.CWBackPixel|xlib.CWBorderPixel|xlib.CWBitGravity|xlib.CWEventMask|xlib.CWColormap,
		&attrs)

	w.draw = xft.DrawCreate(dpy, xlib.Drawable(w.window), vis, cmap)

	w.wmDeleteWin = xlib.InternAtom(dpy, "WM_DELETE_WINDOW", false)
	xlib.SetWMProtocols(dpy, w.window, []xlib.Atom{w.wmDeleteWin})
	w.xembed = xlib.InternAtom(dpy, "_XEMBED", false)

	w.xic = xlib.CreateIC(dpy)

	w.setTitle(title)
	return w, nil
}

func (w *window) mapAndWait() {
	xlib.MapWindow(w.dpy, w.window)
	var ev xlib.Event
	for {
		xlib.NextEvent(w.dpy, &ev)
		if ev.Type() == xlib.MapNotify {
			break
		}
	}
}

func (w *window) close() {
	if w.xic != nil {
		xlib.DestroyIC(w.xic)
	}
	xft.DrawDestroy(w.draw)
	xlib.DestroyWindow(w.dpy, w.window)
	xlib.CloseDisplay(w.dpy)
}

// --- loop.Platform ---

func (w *window) FD() int { return xlib.ConnectionNumber(w.dpy) }

func (w *window) Pending() bool { return xlib.Pending(w.dpy) > 0 }

func (w *window) Drain(l *loop.Loop) {
	var ev xlib.Event
	for xlib.Pending(w.dpy) > 0 {
		xlib.NextEvent(w.dpy, &ev)
		w.handleEvent(&ev, l)
	}
}

func (w *window) Redraw() {
	switch w.term.CursorStyle {
	case 3, 4:
		w.renderer.CursorShape = render.CursorUnderline
	case 5, 6:
		w.renderer.CursorShape = render.CursorBar
	default:
		w.renderer.CursorShape = render.CursorBlock
	}
	w.renderer.Frame(w.grid, w.cellWidth, w.cellHeight)
	xlib.Flush(w.dpy)
}

func (w *window) handleEvent(ev *xlib.Event, l *loop.Loop) {
	switch ev.Type() {
	case xlib.KeyPress:
		w.handleKeyPress(ev, l)
	case xlib.ConfigureNotify:
		c := ev.Configure()
		if c.Width() != w.width || c.Height() != w.height {
			w.width, w.height = c.Width(), c.Height()
			l.MarkResize()
		}
	case xlib.FocusIn:
		w.focused = true
	case xlib.FocusOut:
		w.focused = false
	case xlib.ClientMessage:
		c := ev.Client()
		if xlib.Atom(c.Long()[0]) == w.wmDeleteWin {
			w.closed = true
		}
	case xlib.Expose:
		l.MarkDirty()
	}
}

func (w *window) handleKeyPress(ev *xlib.Event, l *loop.Loop) {
	e := ev.Key()
	str, ksym, _ := xlib.XmbLookupString(w.xic, (*xlib.KeyPressedEvent)(e))

	mods := translateModifiers(e.State())
	if action, consumed := w.term.HandleKey(mods, translateKeysym(ksym), firstRune(str)); consumed {
		w.dispatchAction(action)
		return
	}
	if len(str) == 0 {
		return
	}
	l.Enqueue([]byte(str))
}

func (w *window) dispatchAction(action interp.Action) {
	switch action {
	case interp.ActionCloseWindow:
		w.closed = true
	case interp.ActionFontSmaller:
		w.rescale(interp.FontSmallerFactor)
	case interp.ActionFontLarger:
		w.rescale(interp.FontLargerFactor)
	case interp.ActionRequestClipboardPaste:
		w.requestClipboardPaste()
	}
}

// rescale reloads the font cache at a new point size and reflows the
// grid to fit the resulting cell geometry, grounded on zoomabs/cresize
// in st's x.go: the window's pixel size is left as-is and the
// column/row count changes to fit the new cell size, rather than
// resizing the X window itself.
func (w *window) rescale(factor float64) {
	newSize := w.cfg.PtSize * factor
	if newSize < 4 || newSize > 144 {
		return
	}
	if err := w.cache.SetSize(newSize); err != nil {
		return
	}
	w.cfg.PtSize = newSize
	w.metrics = w.cache.Metrics()
	w.cellWidth, w.cellHeight = w.metrics.CellWidth, w.metrics.CellHeight
	w.renderer.Reset()
	w.handleResize()
}

func (w *window) requestClipboardPaste() {
	// Clipboard request plumbing is an out-of-scope boundary per §6;
	// a real implementation issues ConvertSelection and waits for the
	// resulting SelectionNotify to synthesize a paste event.
}

func (w *window) handleResize() {
	newCols := (w.width - 2*w.borderPx) / w.cellWidth
	newRows := (w.height - 2*w.borderPx) / w.cellHeight
	if newCols < 1 {
		newCols = 1
	}
	if newRows < 1 {
		newRows = 1
	}
	if newCols == w.grid.Size().Cols && newRows == w.grid.Size().Rows {
		return
	}

	next := grid.New(grid.Size{Cols: newCols, Rows: newRows, ScrollbackRows: w.grid.ScrollbackRowCount()})
	w.grid.ReflowInto(next)
	w.grid = next
	w.term.Grid = next

	w.pty.SetSize(ptyio.Size{
		Cols: newCols, Rows: newRows,
		PixelsX: newCols * w.cellWidth, PixelsY: newRows * w.cellHeight,
	})
	w.loop.MarkDirty()
}

// --- interp.Platform ---

func (w *window) SetWindowTitle(title string) {
	w.setTitle(title)
}

func (w *window) setTitle(title string) {
	var prop xlib.TextProperty
	xlib.UTF8TextListToTextProperty(w.dpy, []string{title}, xlib.UTF8StringStyle, &prop)
	xlib.SetWMName(w.dpy, w.window, &prop)
	prop.Free()
}

func (w *window) Bell() {
	if !w.focused {
		xlib.SetWMHints(w.dpy, w.window, &xlib.WMHints{})
	}
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}

func translateModifiers(state uint) interp.Modifier {
	var m interp.Modifier
	if state&xlib.ShiftMask != 0 {
		m |= interp.ModShift
	}
	if state&xlib.ControlMask != 0 {
		m |= interp.ModControl
	}
	if state&xlib.Mod1Mask != 0 {
		m |= interp.ModAlt
	}
	return m
}

// translateKeysym maps the small set of keysyms the interpreter's
// shortcut table cares about; everything else is reported as KeyNone
// so kmap-style literal text still reaches the shell via str.
func translateKeysym(ksym xlib.KeySym) interp.Key {
	switch ksym {
	case xlib.KeySym(0xff1b): // XK_Escape
		return interp.KeyEscape
	default:
		return interp.KeyNone
	}
}
