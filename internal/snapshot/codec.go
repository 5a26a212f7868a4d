// Package snapshot compresses captured framebuffer frames and keeps them on
// disk. A snapshot file is a bare compressed stream of the device bytes,
// with no header of its own; its geometry is implied by the device it is
// restored to.
package snapshot

import (
	"bytes"
	"io"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zstd"

	"github.com/drummonds/fbsnap/internal/errors"
)

type Codec interface {
	Name() string
	// Ext is the file suffix snapshots written with this codec carry.
	Ext() string
	Compress(b []byte) ([]byte, error)
	// Decompress stops with ErrGeometryMismatch once the output would
	// exceed limit bytes. limit <= 0 means no limit.
	Decompress(blob []byte, limit int) ([]byte, error)
}

var codecs = []Codec{Deflate{}, Zstd{}}

// ByName returns the codec called name; "" is deflate.
func ByName(name string) (Codec, error) {
	if name == `` {
		return Deflate{}, nil
	}
	for _, c := range codecs {
		if c.Name() == name {
			return c, nil
		}
	}
	return nil, errors.Kind(errors.ErrInvalidInput, `unknown snapshot codec %q`, name)
}

// ForPath picks the codec from a snapshot file name.
func ForPath(path string) Codec {
	for _, c := range codecs {
		if strings.HasSuffix(path, c.Ext()) {
			return c
		}
	}
	return Deflate{}
}

// Deflate is raw DEFLATE (RFC 1951), no zlib or gzip wrapper. The zero
// Level compresses hardest.
type Deflate struct{ Level int }

func (Deflate) Name() string { return `deflate` }
func (Deflate) Ext() string  { return `.fb` }

func (d Deflate) Compress(b []byte) ([]byte, error) {
	level := d.Level
	if level == 0 {
		level = flate.BestCompression
	}
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, level)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput, `deflate level %d`, level)
	}
	if _, err := w.Write(b); err != nil {
		return nil, errors.New(err)
	}
	if err := w.Close(); err != nil {
		return nil, errors.New(err)
	}
	return buf.Bytes(), nil
}

func (Deflate) Decompress(blob []byte, limit int) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(blob))
	defer r.Close()
	return readLimited(r, limit)
}

// Zstd trades a frame header for faster decoding on small boards.
type Zstd struct{}

func (Zstd) Name() string { return `zstd` }
func (Zstd) Ext() string  { return `.fb.zst` }

func (Zstd) Compress(b []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return nil, errors.New(err)
	}
	defer enc.Close()
	return enc.EncodeAll(b, nil), nil
}

func (Zstd) Decompress(blob []byte, limit int) ([]byte, error) {
	dec, err := zstd.NewReader(bytes.NewReader(blob), zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, errors.New(err)
	}
	defer dec.Close()
	return readLimited(dec, limit)
}

func readLimited(r io.Reader, limit int) ([]byte, error) {
	if limit > 0 {
		r = io.LimitReader(r, int64(limit)+1)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrExternalTool, `corrupt snapshot stream`)
	}
	if limit > 0 && len(b) > limit {
		return nil, errors.Kind(errors.ErrGeometryMismatch, `snapshot decompresses to more than %d bytes`, limit)
	}
	return b, nil
}
