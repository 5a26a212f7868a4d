package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"github.com/drummonds/fbsnap/internal/errors"
	"github.com/drummonds/fbsnap/internal/preview"
	"github.com/drummonds/fbsnap/internal/snapshot"
)

type holder interface {
	Hold(ctx context.Context)
	Close() error
}

var openPreview = func(screen *image.NRGBA) (holder, error) {
	return preview.Open(`fbsnap`, screen)
}

// Artifacts are the published file paths of one run. Default is empty
// unless the run replaced the default snapshot.
type Artifacts struct {
	Mask      string
	Composite string
	Snapshot  string
	Default   string
}

type stagedFile struct {
	path string
	data []byte
}

func artifactPaths(dir, name string, c snapshot.Codec, asDefault bool) Artifacts {
	a := Artifacts{
		Mask:      filepath.Join(dir, name+`.mask.png`),
		Composite: filepath.Join(dir, name+`.composite.png`),
		Snapshot:  snapshot.Path(dir, name, c),
	}
	if asDefault {
		a.Default = snapshot.Path(dir, snapshot.DefaultName, c)
	}
	return a
}

// Publish stages every artifact next to its final path and only renames
// them into place once all of them were written. The snapshots go last.
func Publish(dir string, res *Result, c snapshot.Codec, asDefault bool) (Artifacts, error) {
	a := artifactPaths(dir, res.Name, c, asDefault)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Artifacts{}, errors.Wrapf(err, errors.ErrExternalTool, `assets %s`, dir)
	}

	maskPNG, err := encodePNG(res.Mask)
	if err != nil {
		return Artifacts{}, err
	}
	compositePNG, err := encodePNG(res.Composite)
	if err != nil {
		return Artifacts{}, err
	}
	files := []stagedFile{
		{a.Mask, maskPNG},
		{a.Composite, compositePNG},
		{a.Snapshot, res.Blob},
	}
	if a.Default != `` {
		files = append(files, stagedFile{a.Default, res.Blob})
	}

	pending := make([]*renameio.PendingFile, 0, len(files))
	defer func() {
		for _, p := range pending {
			p.Cleanup()
		}
	}()
	for _, f := range files {
		p, err := renameio.NewPendingFile(f.path, renameio.WithPermissions(0o644))
		if err != nil {
			return Artifacts{}, errors.Wrapf(err, errors.ErrExternalTool, `stage %s`, f.path)
		}
		pending = append(pending, p)
		if _, err := p.Write(f.data); err != nil {
			return Artifacts{}, errors.Wrapf(err, errors.ErrExternalTool, `stage %s`, f.path)
		}
	}
	for i, p := range pending {
		if err := p.CloseAtomicallyReplace(); err != nil {
			return Artifacts{}, errors.Wrapf(err, errors.ErrExternalTool, `publish %s`, files[i].path)
		}
	}
	return a, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, errors.New(err)
	}
	return buf.Bytes(), nil
}
