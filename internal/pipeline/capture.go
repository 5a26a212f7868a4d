/*
Package pipeline runs one capture: it decorates a source picture, shows it
full screen on the device, reads back exactly what the device holds and
keeps a compressed copy of it.

Every stage consumes the whole output of the one before and any error stops
the run. Nothing reaches the asset directory until the snapshot blob exists
in memory; then the artifacts are published by rename.
*/
package pipeline

import (
	"context"
	"image"
	"image/color"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/drummonds/fbsnap/internal/drawing"
	"github.com/drummonds/fbsnap/internal/errors"
	"github.com/drummonds/fbsnap/internal/fb"
	"github.com/drummonds/fbsnap/internal/frame"
	"github.com/drummonds/fbsnap/internal/mask"
	"github.com/drummonds/fbsnap/internal/panel"
	"github.com/drummonds/fbsnap/internal/resize"
	"github.com/drummonds/fbsnap/internal/snapshot"
	"github.com/drummonds/fbsnap/internal/source"
)

type Options struct {
	Scale      float64
	Resizer    resize.Resizer // nil is the default resizer
	Mask       mask.Params
	Background color.NRGBA
	Hold       time.Duration
	Codec      snapshot.Codec // nil is deflate
	// Assets is the directory artifacts are published to. Empty keeps
	// everything in memory.
	Assets string
	// AsDefault also publishes the snapshot as the one fbsnapd restores.
	AsDefault bool
	// Preview mirrors the frame to an X11 window during the hold.
	Preview bool
	Logger  *slog.Logger
}

// Result holds every artifact of a successful run.
type Result struct {
	RunID     string
	Name      string
	Mask      *image.Alpha
	Composite *image.NRGBA // scaled picture with the mask as its alpha
	Screen    *image.NRGBA // opaque full-screen frame as written
	Frame     []byte       // device contents read back after the hold
	Blob      []byte
	Paths     Artifacts
}

// Capture runs the whole pipeline for src on dev.
func Capture(ctx context.Context, dev fb.Device, src source.Source, o Options) (*Result, error) {
	if o.Codec == nil {
		o.Codec = snapshot.Deflate{}
	}
	if o.Scale == 0 {
		o.Scale = resize.DefaultFactor
	}
	log := o.Logger
	if log == nil {
		log = slog.Default()
	}
	res := &Result{RunID: uuid.Must(uuid.NewV7()).String(), Name: src.Name()}
	log = log.With(`run`, res.RunID, `source`, res.Name)
	g := dev.Geometry()
	start := time.Now()

	img, err := src.Image(ctx)
	if err != nil {
		return nil, err
	}
	log.Debug(`source decoded`, `size`, img.Bounds().Size())

	scaled, err := resize.Scale(img, o.Scale, o.Resizer)
	if err != nil {
		return nil, err
	}
	w, h := scaled.Rect.Dx(), scaled.Rect.Dy()
	log.Debug(`scaled`, `factor`, o.Scale, `size`, scaled.Rect.Size())

	if res.Mask, err = mask.Build(w, h, o.Mask); err != nil {
		return nil, err
	}
	if err := drawing.ReplaceAlpha(scaled, res.Mask); err != nil {
		return nil, err
	}
	res.Composite = scaled
	flat := drawing.Flatten(scaled, o.Background)

	pf := frame.NewPictureFrame(g.Bounds(), o.Background)
	p := panel.NewImagePanel(flat)
	p.Fit(pf.Bounds)
	if p.Scaled() {
		log.Warn(`picture larger than the screen, shrinking`, `picture`, flat.Rect.Size(), `screen`, g.Bounds().Size())
	}
	pf.AddPanel(p)
	if err := pf.Render(); err != nil {
		return nil, err
	}
	res.Screen = pf.Buffer

	raw, err := drawing.Encode(pf.Buffer, g)
	if err != nil {
		return nil, err
	}
	if err := Display(ctx, dev, raw, pf.Buffer, o.Hold, o.Preview); err != nil {
		return nil, err
	}

	if res.Frame, err = dev.Read(); err != nil {
		return nil, err
	}
	if res.Blob, err = snapshot.Capture(res.Frame, g, o.Codec); err != nil {
		return nil, err
	}
	log.Info(`captured`, `device`, fb.Describe(dev),
		`frame`, humanize.Bytes(uint64(len(res.Frame))),
		`snapshot`, humanize.Bytes(uint64(len(res.Blob))),
		`codec`, o.Codec.Name())

	if o.Assets != `` {
		if res.Paths, err = Publish(o.Assets, res, o.Codec, o.AsDefault); err != nil {
			return nil, err
		}
		log.Info(`published`, `snapshot`, res.Paths.Snapshot, `took`, time.Since(start).Round(time.Millisecond))
	}
	return res, nil
}

// Display writes a full frame to dev and keeps it on screen for hold, or
// until ctx ends. With preview the frame is also shown in an X11 window
// for the same time.
func Display(ctx context.Context, dev fb.Device, raw []byte, screen *image.NRGBA, hold time.Duration, preview bool) error {
	if err := dev.Write(raw); err != nil {
		return err
	}
	if hold <= 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, hold)
	defer cancel()
	if preview {
		w, err := openPreview(screen)
		if err != nil {
			return err
		}
		defer w.Close()
		w.Hold(ctx)
	} else {
		<-ctx.Done()
	}
	// a cancelled hold aborts the run; only the timeout ends it normally
	if errors.Is(ctx.Err(), context.Canceled) {
		return errors.Errorf(`hold interrupted: %w`, ctx.Err())
	}
	return nil
}
