// Package source turns a command line reference into the picture a capture
// starts from. A reference is either a local file or "photoprism:<uid>".
package source

import (
	"bytes"
	"context"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/drummonds/fbsnap/internal/errors"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

type Source interface {
	// Name keys the artifacts a capture of this source writes.
	Name() string
	Image(ctx context.Context) (image.Image, error)
}

// Parse resolves ref. PhotoPrism references need pp to reach a server.
func Parse(ref string, pp PhotoPrismOptions) (Source, error) {
	ref = strings.TrimSpace(ref)
	if ref == `` {
		return nil, errors.Kind(errors.ErrInvalidInput, `empty image reference`)
	}
	if uid, ok := strings.CutPrefix(ref, PhotoPrismPrefix); ok {
		if uid == `` {
			return nil, errors.Kind(errors.ErrInvalidInput, `%q names no photo`, ref)
		}
		return &PhotoPrism{UID: uid, Options: pp}, nil
	}
	return File(ref), nil
}

// File is a picture on local disk in any registered format or SVG.
type File string

// Name is the file's base name without its extension.
func (f File) Name() string {
	base := filepath.Base(string(f))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (f File) Image(_ context.Context) (image.Image, error) {
	data, err := os.ReadFile(string(f))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput, `read %s`, string(f))
	}
	if strings.EqualFold(filepath.Ext(string(f)), `.svg`) {
		return DecodeSVG(data)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrExternalTool, `decode %s`, string(f))
	}
	return img, nil
}

// DecodeSVG rasterises an SVG at its view box size.
func DecodeSVG(data []byte) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrExternalTool, `parse svg`)
	}
	w, h := int(icon.ViewBox.W+0.5), int(icon.ViewBox.H+0.5)
	if w <= 0 || h <= 0 {
		return nil, errors.Kind(errors.ErrInvalidInput, `svg view box %vx%v`, icon.ViewBox.W, icon.ViewBox.H)
	}
	icon.SetTarget(0, 0, float64(w), float64(h))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	raster := rasterx.NewDasher(w, h, scanner)
	icon.Draw(raster, 1.0)
	return img, nil
}
