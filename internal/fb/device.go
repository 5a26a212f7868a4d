/*
Package fb is the boundary to the raw display device.

A Device is a fixed-geometry, byte-addressable surface. It is written and read
as one contiguous image of Width*Height*BytesPerPixel bytes starting at offset
0; any hardware line padding is hidden by the implementation.

There is no locking between writers of the same device. Two processes writing
at once can tear a frame.
*/
package fb

import (
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/drummonds/fbsnap/internal/errors"
)

// Format is the native pixel layout of a device.
type Format int

const (
	FormatBGRA32 Format = iota // XRGB8888 little endian, the usual fbdev layout
	FormatRGBA32
	FormatBGR24
	FormatRGB565
)

func (f Format) BytesPerPixel() int {
	switch f {
	case FormatBGRA32, FormatRGBA32:
		return 4
	case FormatBGR24:
		return 3
	case FormatRGB565:
		return 2
	}
	return 0
}

func (f Format) String() string {
	switch f {
	case FormatBGRA32:
		return `BGRA32`
	case FormatRGBA32:
		return `RGBA32`
	case FormatBGR24:
		return `BGR24`
	case FormatRGB565:
		return `RGB565`
	}
	return `unknown(` + strconv.Itoa(int(f)) + `)`
}

// FormatFor picks the default layout for a pixel size.
func FormatFor(bytesPerPixel int) (Format, error) {
	switch bytesPerPixel {
	case 4:
		return FormatBGRA32, nil
	case 3:
		return FormatBGR24, nil
	case 2:
		return FormatRGB565, nil
	}
	return 0, errors.Kind(errors.ErrInvalidInput, `unsupported pixel size %d`, bytesPerPixel)
}

type Geometry struct {
	Width, Height int
	BytesPerPixel int
	Format        Format
}

// Size is the byte length of a full frame.
func (g Geometry) Size() int { return g.Width * g.Height * g.BytesPerPixel }

func (g Geometry) Bounds() image.Rectangle { return image.Rect(0, 0, g.Width, g.Height) }

func (g Geometry) String() string {
	return fmt.Sprintf(`%dx%dx%d %s`, g.Width, g.Height, g.BytesPerPixel, g.Format)
}

// Check fails with ErrGeometryMismatch unless n is a full frame.
func (g Geometry) Check(n int) error {
	if n != g.Size() {
		return errors.Kind(errors.ErrGeometryMismatch, `%d bytes for a %dx%dx%d device (want %d)`,
			n, g.Width, g.Height, g.BytesPerPixel, g.Size())
	}
	return nil
}

// ParseGeometry reads "WxHxB", e.g. "1280x800x4".
func ParseGeometry(s string) (Geometry, error) {
	parts := strings.Split(s, `x`)
	if len(parts) != 3 {
		return Geometry{}, errors.Kind(errors.ErrInvalidInput, `geometry %q not "<w>x<h>x<bytes>"`, s)
	}
	var v [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 {
			return Geometry{}, errors.Kind(errors.ErrInvalidInput, `geometry %q not "<w>x<h>x<bytes>"`, s)
		}
		v[i] = n
	}
	f, err := FormatFor(v[2])
	if err != nil {
		return Geometry{}, err
	}
	return Geometry{Width: v[0], Height: v[1], BytesPerPixel: v[2], Format: f}, nil
}

type Device interface {
	Geometry() Geometry
	// Write replaces the whole frame. len(b) must equal Geometry().Size().
	Write(b []byte) error
	// Read returns a copy of the whole frame.
	Read() ([]byte, error)
	Close() error
}

// MemPrefix selects an in-memory device in Open, e.g. "mem:1280x800x4".
const MemPrefix = `mem:`

// Open opens a framebuffer device node, or an in-memory device for
// "mem:<w>x<h>x<bytes>" paths.
func Open(path string) (Device, error) {
	if dims, ok := strings.CutPrefix(path, MemPrefix); ok {
		g, err := ParseGeometry(dims)
		if err != nil {
			return nil, err
		}
		return NewMemory(g), nil
	}
	return openDev(path)
}

// Describe is a human readable summary of d for diagnostics.
func Describe(d Device) string {
	if ds, ok := d.(interface{ Describe() string }); ok {
		return ds.Describe()
	}
	return d.Geometry().String()
}
