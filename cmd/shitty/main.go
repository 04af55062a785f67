// Command shitty is a low-latency CPU-rasterised X11 terminal emulator:
// an ANSI/ECMA-48 interpreter over a ring-buffered grid, a
// fontconfig/FreeType glyph cache, and an XRender compositor, driven by
// a single cooperative event loop. Grounded on main()/xinit() in st's
// x.go and st.go, split into package boundaries instead of one flat
// package-main.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/qeedquan/go-media/x11/fc"
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

const version = "0.1.0"

type options struct {
	font    string
	title   string
	embed   string
	noAlt   bool
	showVersion bool
	cmd     []string
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: shitty [options] [cmd ...]")
	flag.PrintDefaults()
	os.Exit(2)
}

func main() {
	log.SetPrefix("")
	log.SetFlags(0)

	cfg := config.Default()

	var opt options
	flag.StringVar(&opt.font, "f", "", "override font pattern")
	flag.StringVar(&opt.title, "t", "", "set window title")
	flag.StringVar(&opt.embed, "w", "", "embed into window id")
	flag.BoolVar(&opt.noAlt, "a", false, "disable alternate screen")
	flag.BoolVar(&opt.showVersion, "v", false, "show version")
	flag.Usage = usage
	flag.Parse()
	opt.cmd = flag.Args()

	if opt.showVersion {
		fmt.Println(version)
		return
	}
	if opt.font != "" {
		cfg.Font = opt.font
	}
	if opt.noAlt {
		cfg.AllowAltScreen = false
	}
	title := opt.title
	if title == "" {
		if len(opt.cmd) > 0 {
			title = opt.cmd[0]
		} else {
			title = "shitty"
		}
	}

	if err := run(cfg, title, opt.cmd); err != nil {
		log.Fatal(err)
	}
}

func run(cfg config.Config, title string, cmd []string) error {
	if err := xlib.InitThreads(); err != nil {
		return fmt.Errorf("xinit: %w", err)
	}
	xlib.SetLocaleModifiers("")

	dpy := xlib.OpenDisplay("")
	if dpy == nil {
		return fmt.Errorf("xinit: can't open display")
	}
	scr := xlib.DefaultScreen(dpy)
	vis := xlib.DefaultVisual(dpy, scr)
	cmap := xlib.DefaultColormap(dpy, scr)

	if err := fc.Init(); err != nil {
		return fmt.Errorf("xinit: fontconfig: %w", err)
	}

	cache := fontcache.New(dpy, scr, vis, cmap)
	if err := cache.LoadFaces(cfg.Font, cfg.PtSize); err != nil {
		return fmt.Errorf("xinit: %w", err)
	}
	metrics := cache.Metrics()

	palette, err := loadPalette(dpy, cmap, cfg)
	if err != nil {
		return fmt.Errorf("xinit: %w", err)
	}

	win, err := newWindow(dpy, scr, vis, cmap, windowGeometry{
		cols: cfg.Cols, rows: cfg.Rows,
		cellWidth: metrics.CellWidth, cellHeight: metrics.CellHeight,
		borderPx: cfg.BorderPx,
	}, title, palette.background)
	if err != nil {
		return err
	}
	defer win.close()

	target := render.Target{
		Dpy:      dpy,
		Draw:     win.draw,
		Visual:   vis,
		Cmap:     cmap,
		Window:   win.window,
		BorderPx: cfg.BorderPx,
	}
	renderer := render.New(target, cache, palette.toRenderPalette())
	renderer.CursorVisible = true

	g := grid.New(grid.Size{Cols: cfg.Cols, Rows: cfg.Rows, ScrollbackRows: 2000})

	var prog string
	var args []string
	if len(cmd) > 0 {
		prog, args = cmd[0], cmd[1:]
	}
	pty, err := ptyio.Open(ptyio.Size{
		Cols: cfg.Cols, Rows: cfg.Rows,
		PixelsX: cfg.Cols * metrics.CellWidth, PixelsY: cfg.Rows * metrics.CellHeight,
	})
	if err != nil {
		return err
	}
	defer pty.Close()
	if err := pty.Exec(prog, args, cfg.TermName); err != nil {
		return err
	}
	if err := pty.SetNonblocking(); err != nil {
		return err
	}

	term := interp.New(g, win, runeWidth)

	l := loop.New(win, pty)
	l.OnInterpret = func(b []byte) {
		term.Feed(b)
		term.Step()
		if w := term.PendingWrites(); len(w) > 0 {
			l.Enqueue(w)
		}
		l.MarkDirty()
	}
	win.loop = l
	win.term = term
	win.renderer = renderer
	win.grid = g
	win.pty = pty
	win.cache = cache
	win.metrics = metrics
	win.cfg = cfg
	l.OnResize = win.handleResize
	l.Done = func() bool { return win.closed }

	win.mapAndWait()
	l.MarkDirty()
	return l.Run()
}

// runeWidth is the Unicode character-width function the Grid consults
// for wrap decisions; a full East-Asian-width table is out of scope.
// NUL and other C0 controls report 0, the common East Asian wide ranges
// st's wcwidth port covers report 2, and everything else (combining
// marks included) reports 1.
func runeWidth(r rune) int {
	switch {
	case r == 0:
		return 0
	case r < 0x20:
		return 0
	case r >= 0x1100 && (r <= 0x115f || r == 0x2329 || r == 0x232a ||
		(r >= 0x2e80 && r <= 0xa4cf && r != 0x303f) ||
		(r >= 0xac00 && r <= 0xd7a3) ||
		(r >= 0xf900 && r <= 0xfaff) ||
		(r >= 0xfe30 && r <= 0xfe6f) ||
		(r >= 0xff00 && r <= 0xff60) ||
		(r >= 0xffe0 && r <= 0xffe6) ||
		(r >= 0x20000 && r <= 0x3fffd)):
		return 2
	default:
		return 1
	}
}

type palette struct {
	colors     []xft.Color
	defaultFG  int
	defaultBG  int
	background xft.Color
}

func (p palette) toRenderPalette() render.Palette {
	return render.Palette{Colors: p.colors, DefaultFG: p.defaultFG, DefaultBG: p.defaultBG, BrightWhite: 15}
}

func loadPalette(dpy *xlib.Display, cmap xlib.Colormap, cfg config.Config) (palette, error) {
	p := palette{colors: make([]xft.Color, 258), defaultFG: cfg.DefaultFG, defaultBG: cfg.DefaultBG}
	for i, name := range cfg.ColorNames {
		if name == "" {
			continue
		}
		var c xft.Color
		if !xft.ColorAllocName(dpy, xlib.DefaultVisual(dpy, xlib.DefaultScreen(dpy)), cmap, name, &c) {
			return p, fmt.Errorf("could not allocate color %q", name)
		}
		p.colors[i] = c
	}
	p.background = p.colors[cfg.DefaultBG]
	return p, nil
}
