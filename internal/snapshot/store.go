package snapshot

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"github.com/drummonds/fbsnap/internal/errors"
	"github.com/drummonds/fbsnap/internal/fb"
)

// DefaultName is the base name the display service restores from.
const DefaultName = `default`

// Path is where a snapshot of base is kept under dir.
func Path(dir, base string, c Codec) string {
	return filepath.Join(dir, base+c.Ext())
}

// Capture compresses one device frame. Frames of the wrong length are
// refused before anything is compressed.
func Capture(frame []byte, g fb.Geometry, c Codec) ([]byte, error) {
	if err := g.Check(len(frame)); err != nil {
		return nil, err
	}
	return c.Compress(frame)
}

// Expand decompresses blob into a frame for g.
func Expand(blob []byte, g fb.Geometry, c Codec) ([]byte, error) {
	frame, err := c.Decompress(blob, g.Size())
	if err != nil {
		return nil, err
	}
	if err := g.Check(len(frame)); err != nil {
		return nil, err
	}
	return frame, nil
}

// Load reads the snapshot at path and returns the frame it holds for a
// device of geometry g. The codec follows the file suffix.
func Load(path string, g fb.Geometry) ([]byte, error) {
	blob, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrapf(err, errors.ErrMissingSnapshot, `%s`, path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrExternalTool, `read %s`, path)
	}
	frame, err := Expand(blob, g, ForPath(path))
	if err != nil {
		return nil, errors.Errorf(`%s: %w`, path, err)
	}
	return frame, nil
}

// Save replaces the file at path in one rename, so readers see either the
// old snapshot or the new one.
func Save(path string, blob []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.New(err)
	}
	if err := renameio.WriteFile(path, blob, 0o644); err != nil {
		return errors.Wrapf(err, errors.ErrExternalTool, `publish %s`, path)
	}
	return nil
}
