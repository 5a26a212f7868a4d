package snapshot

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drummonds/fbsnap/internal/errors"
	"github.com/drummonds/fbsnap/internal/fb"
)

func randomFrame(r *rand.Rand, n int) []byte {
	b := make([]byte, n)
	r.Read(b)
	return b
}

func TestCodecRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	inputs := [][]byte{
		{},
		{0},
		make([]byte, 4096),
		randomFrame(r, 1),
		randomFrame(r, 1000),
		randomFrame(r, 64*1024+3),
	}
	for _, c := range codecs {
		t.Run(c.Name(), func(t *testing.T) {
			for _, in := range inputs {
				blob, err := c.Compress(in)
				require.NoError(t, err)
				out, err := c.Decompress(blob, 0)
				require.NoError(t, err)
				assert.Equal(t, len(in), len(out))
				assert.True(t, string(in) == string(out))
			}
		})
	}
}

func TestDecompressLimit(t *testing.T) {
	for _, c := range codecs {
		blob, err := c.Compress(make([]byte, 1000))
		require.NoError(t, err)
		_, err = c.Decompress(blob, 999)
		assert.True(t, errors.Is(err, errors.ErrGeometryMismatch), c.Name())
		out, err := c.Decompress(blob, 1000)
		require.NoError(t, err, c.Name())
		assert.Len(t, out, 1000)
	}
}

func TestDecompressCorrupt(t *testing.T) {
	_, err := Deflate{}.Decompress([]byte{0xff, 0xff, 0xff, 0xff}, 0)
	assert.True(t, errors.Is(err, errors.ErrExternalTool))
}

func TestCodecNames(t *testing.T) {
	c, err := ByName(``)
	require.NoError(t, err)
	assert.Equal(t, `deflate`, c.Name())
	c, err = ByName(`zstd`)
	require.NoError(t, err)
	assert.Equal(t, `.fb.zst`, c.Ext())
	_, err = ByName(`lz4`)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))

	assert.Equal(t, `zstd`, ForPath(`/var/lib/fbsnap/default.fb.zst`).Name())
	assert.Equal(t, `deflate`, ForPath(`/var/lib/fbsnap/default.fb`).Name())
	assert.Equal(t, `deflate`, ForPath(`placeholder.bin`).Name())
}

func TestCapture1280x800(t *testing.T) {
	g, err := fb.ParseGeometry(`1280x800x4`)
	require.NoError(t, err)
	dev := fb.NewMemory(g)
	frame, err := dev.Read()
	require.NoError(t, err)
	assert.Len(t, frame, 4096000)

	blob, err := Capture(frame, g, Deflate{})
	require.NoError(t, err)
	back, err := Expand(blob, g, Deflate{})
	require.NoError(t, err)
	assert.Len(t, back, 4096000)

	_, err = Capture(frame[:4095999], g, Deflate{})
	assert.True(t, errors.Is(err, errors.ErrGeometryMismatch))
}

func TestLoadSave(t *testing.T) {
	dir := t.TempDir()
	g := fb.Geometry{Width: 32, Height: 20, BytesPerPixel: 4, Format: fb.FormatBGRA32}
	frame := randomFrame(rand.New(rand.NewSource(1)), g.Size())

	for _, c := range codecs {
		t.Run(c.Name(), func(t *testing.T) {
			p := Path(filepath.Join(dir, `assets`), DefaultName, c)
			blob, err := Capture(frame, g, c)
			require.NoError(t, err)
			require.NoError(t, Save(p, blob))

			got, err := Load(p, g)
			require.NoError(t, err)
			assert.True(t, string(frame) == string(got))

			// a device of another size must refuse it
			_, err = Load(p, fb.Geometry{Width: 32, Height: 21, BytesPerPixel: 4})
			assert.True(t, errors.Is(err, errors.ErrGeometryMismatch))
			_, err = Load(p, fb.Geometry{Width: 32, Height: 19, BytesPerPixel: 4})
			assert.True(t, errors.Is(err, errors.ErrGeometryMismatch))
		})
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), `default.fb`), fb.Geometry{Width: 1, Height: 1, BytesPerPixel: 4})
	assert.True(t, errors.Is(err, errors.ErrMissingSnapshot))
}

func TestSaveReplaces(t *testing.T) {
	p := filepath.Join(t.TempDir(), `x.fb`)
	require.NoError(t, Save(p, []byte(`one`)))
	require.NoError(t, Save(p, []byte(`two`)))
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, `two`, string(b))
}
