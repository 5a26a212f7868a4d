// Package preview mirrors the frame being captured into an X11 window, so
// the hold step can be watched on a desktop without a framebuffer.
package preview

import (
	"context"
	"image"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/drummonds/fbsnap/internal/errors"
)

// maxRequest keeps each PutImage under the core protocol request limit.
const maxRequest = 256 * 1024

type Window struct {
	X     *xgb.Conn
	wid   xproto.Window
	gc    xproto.Gcontext
	img   *image.NRGBA
	depth byte

	atomWmDeleteWindow xproto.Atom
	atomWmProtocols    xproto.Atom

	closeOnce sync.Once
	closed    chan struct{}
}

// Open connects to $DISPLAY and maps a window showing img.
func Open(title string, img *image.NRGBA) (*Window, error) {
	X, err := xgb.NewConn()
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrExternalTool, `connect to X server`)
	}
	w := &Window{X: X, img: img, closed: make(chan struct{})}
	if err := w.create(title); err != nil {
		X.Close()
		return nil, err
	}
	go w.loop()
	return w, nil
}

func (w *Window) create(title string) error {
	X := w.X
	width, height := w.img.Rect.Dx(), w.img.Rect.Dy()
	screen := xproto.Setup(X).DefaultScreen(X)
	if screen.RootDepth != 24 && screen.RootDepth != 32 {
		return errors.Kind(errors.ErrExternalTool, `X screen depth %d not supported`, screen.RootDepth)
	}
	w.depth = screen.RootDepth

	wid, err := xproto.NewWindowId(X)
	if err != nil {
		return errors.Wrapf(err, errors.ErrExternalTool, `window id`)
	}
	w.wid = wid
	err = xproto.CreateWindowChecked(X, screen.RootDepth, wid, screen.Root,
		0, 0, uint16(width), uint16(height), 0,
		xproto.WindowClassInputOutput, screen.RootVisual,
		xproto.CwBackPixel|xproto.CwEventMask,
		[]uint32{
			0xffffffff,
			xproto.EventMaskExposure | xproto.EventMaskKeyPress | xproto.EventMaskStructureNotify,
		}).Check()
	if err != nil {
		return errors.Wrapf(err, errors.ErrExternalTool, `create window`)
	}

	// Set WM_PROTOCOLS to handle window close
	del, err := xproto.InternAtom(X, false, uint16(len(`WM_DELETE_WINDOW`)), `WM_DELETE_WINDOW`).Reply()
	if err != nil {
		return errors.Wrapf(err, errors.ErrExternalTool, `intern atom`)
	}
	prot, err := xproto.InternAtom(X, false, uint16(len(`WM_PROTOCOLS`)), `WM_PROTOCOLS`).Reply()
	if err != nil {
		return errors.Wrapf(err, errors.ErrExternalTool, `intern atom`)
	}
	w.atomWmDeleteWindow, w.atomWmProtocols = del.Atom, prot.Atom
	data := make([]byte, 4)
	xgb.Put32(data, uint32(del.Atom))
	xproto.ChangeProperty(X, xproto.PropModeReplace, wid, prot.Atom, xproto.AtomAtom, 32, 1, data)
	xproto.ChangeProperty(X, xproto.PropModeReplace, wid, xproto.AtomWmName, xproto.AtomString, 8,
		uint32(len(title)), []byte(title))

	gc, err := xproto.NewGcontextId(X)
	if err != nil {
		return errors.Wrapf(err, errors.ErrExternalTool, `graphics context id`)
	}
	w.gc = gc
	xproto.CreateGC(X, gc, xproto.Drawable(wid), 0, nil)

	return errors.Wrapf(xproto.MapWindowChecked(X, wid).Check(), errors.ErrExternalTool, `map window`)
}

func (w *Window) loop() {
	defer w.markClosed()
	for {
		ev, err := w.X.WaitForEvent()
		if ev == nil && err == nil {
			return
		}
		if err != nil {
			continue
		}
		switch e := ev.(type) {
		case xproto.ExposeEvent:
			if e.Count == 0 {
				w.paint()
			}
		case xproto.ClientMessageEvent:
			if e.Type == w.atomWmProtocols && e.Data.Data32[0] == uint32(w.atomWmDeleteWindow) {
				return
			}
		case xproto.KeyPressEvent:
			return
		case xproto.DestroyNotifyEvent:
			return
		}
	}
}

// paint sends the whole picture as ZPixmap strips of whole rows.
func (w *Window) paint() {
	width, height := w.img.Rect.Dx(), w.img.Rect.Dy()
	rows := stripRows(width)
	for y := 0; y < height; y += rows {
		n := min(rows, height-y)
		xproto.PutImage(w.X, xproto.ImageFormatZPixmap, xproto.Drawable(w.wid), w.gc,
			uint16(width), uint16(n), 0, int16(y), 0, w.depth, ZPixmap(w.img, y, y+n))
	}
	w.X.Sync()
}

func stripRows(width int) int {
	return max(1, (maxRequest-64)/(width*4))
}

// ZPixmap packs rows [y0, y1) of img as 32 bit little endian BGRX, the
// layout of a 24 bit TrueColor visual.
func ZPixmap(img *image.NRGBA, y0, y1 int) []byte {
	width := img.Rect.Dx()
	out := make([]byte, width*(y1-y0)*4)
	o := 0
	for y := y0; y < y1; y++ {
		i := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
		for x := 0; x < width; x++ {
			s := img.Pix[i : i+4 : i+4]
			out[o], out[o+1], out[o+2], out[o+3] = s[2], s[1], s[0], 0
			i += 4
			o += 4
		}
	}
	return out
}

func (w *Window) markClosed() {
	w.closeOnce.Do(func() { close(w.closed) })
}

// Hold keeps the window up until ctx ends or the window is dismissed.
func (w *Window) Hold(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-w.closed:
	}
}

func (w *Window) Close() error {
	xproto.DestroyWindow(w.X, w.wid)
	w.X.Close()
	w.markClosed()
	return nil
}
