package restore

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drummonds/fbsnap/internal/errors"
	"github.com/drummonds/fbsnap/internal/fb"
	"github.com/drummonds/fbsnap/internal/snapshot"
)

var geom = fb.Geometry{Width: 40, Height: 30, BytesPerPixel: 4, Format: fb.FormatBGRA32}

// placeholder stores a random frame as a snapshot and returns both.
func placeholder(t *testing.T) (string, []byte) {
	t.Helper()
	frame := make([]byte, geom.Size())
	rand.New(rand.NewSource(42)).Read(frame)
	blob, err := snapshot.Capture(frame, geom, snapshot.Deflate{})
	require.NoError(t, err)
	p := filepath.Join(t.TempDir(), `default.fb`)
	require.NoError(t, snapshot.Save(p, blob))
	return p, frame
}

func garbage(r *rand.Rand) []byte {
	b := make([]byte, geom.Size())
	r.Read(b)
	return b
}

func screen(t *testing.T, dev fb.Device) []byte {
	t.Helper()
	b, err := dev.Read()
	require.NoError(t, err)
	return b
}

// paintingViewer keeps drawing over the screen until it is stopped, and
// draws once more on its way out.
type paintingViewer struct {
	dev fb.Device
	err error
}

func (v *paintingViewer) Run(ctx context.Context) error {
	r := rand.New(rand.NewSource(1))
	for {
		_ = v.dev.Write(garbage(r))
		select {
		case <-ctx.Done():
			_ = v.dev.Write(garbage(r))
			return nil
		case <-time.After(time.Millisecond):
		}
		if v.err != nil {
			return v.err
		}
	}
}

func TestPresentAndRestore(t *testing.T) {
	p, frame := placeholder(t)
	dev := fb.NewMemory(geom)
	c := NewController(dev, p, nil)
	assert.Equal(t, Idle, c.State())
	assert.True(t, errors.Is(c.Restore(), errors.ErrInvalidInput))

	require.NoError(t, c.Present(context.Background()))
	assert.Equal(t, Presenting, c.State())
	assert.Equal(t, frame, screen(t, dev))

	require.NoError(t, dev.Write(garbage(rand.New(rand.NewSource(2)))))
	for i := 0; i < 3; i++ {
		require.NoError(t, c.Restore())
		assert.Equal(t, Restored, c.State())
		assert.Equal(t, frame, screen(t, dev))
	}
	assert.Equal(t, 3, c.Restores())
}

func TestPresentMissingSnapshot(t *testing.T) {
	dev := fb.NewMemory(geom)
	c := NewController(dev, filepath.Join(t.TempDir(), `default.fb`), nil)
	err := c.Run(context.Background(), nil, nil)
	assert.True(t, errors.Is(err, errors.ErrMissingSnapshot))
	assert.Equal(t, 0, dev.Writes())
	assert.Equal(t, Idle, c.State())
}

func TestPresentWrongGeometry(t *testing.T) {
	p, _ := placeholder(t)
	dev := fb.NewMemory(fb.Geometry{Width: 40, Height: 31, BytesPerPixel: 4, Format: fb.FormatBGRA32})
	err := NewController(dev, p, nil).Present(context.Background())
	assert.True(t, errors.Is(err, errors.ErrGeometryMismatch))
	assert.Equal(t, 0, dev.Writes())
}

func TestConcurrentRestores(t *testing.T) {
	p, frame := placeholder(t)
	dev := fb.NewMemory(geom)
	c := NewController(dev, p, nil)
	require.NoError(t, c.Present(context.Background()))

	stop := make(chan struct{})
	painted := make(chan struct{})
	go func() {
		defer close(painted)
		r := rand.New(rand.NewSource(3))
		for {
			select {
			case <-stop:
				return
			default:
				_ = dev.Write(garbage(r))
			}
		}
	}()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, c.Restore())
		}()
	}
	wg.Wait()
	close(stop)
	<-painted
	require.NoError(t, c.Restore())
	assert.Equal(t, 9, c.Restores())
	assert.Equal(t, frame, screen(t, dev))
}

func TestRunSignals(t *testing.T) {
	for _, n := range []int{1, 2, 5} {
		p, frame := placeholder(t)
		dev := fb.NewMemory(geom)
		c := NewController(dev, p, nil)
		v := &paintingViewer{dev: dev}
		sigs := make(chan os.Signal, n)
		for i := 0; i < n; i++ {
			sigs <- syscall.SIGTERM
		}

		errc := make(chan error, 1)
		go func() { errc <- c.Run(context.Background(), v, sigs) }()
		select {
		case err := <-errc:
			require.NoError(t, err, `%d signals`, n)
		case <-time.After(5 * time.Second):
			t.Fatalf(`Run did not return after %d signals`, n)
		}
		assert.Equal(t, Restored, c.State())
		assert.Equal(t, frame, screen(t, dev), `%d signals`, n)
		// one restore per signal and the final one after the viewer left
		assert.Equal(t, n+1, c.Restores(), `%d signals`, n)
	}
}

func TestRunContextCancel(t *testing.T) {
	p, frame := placeholder(t)
	dev := fb.NewMemory(geom)
	c := NewController(dev, p, nil)
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)
	require.NoError(t, c.Run(ctx, nil, nil))
	assert.Equal(t, frame, screen(t, dev))
	assert.Equal(t, 1, c.Restores())
}

func TestRunViewerFails(t *testing.T) {
	p, frame := placeholder(t)
	dev := fb.NewMemory(geom)
	c := NewController(dev, p, nil)
	v := &paintingViewer{dev: dev, err: errors.Errorf(`crashed`)}
	err := c.Run(context.Background(), v, nil)
	assert.True(t, errors.Is(err, errors.ErrExternalTool))
	assert.Equal(t, frame, screen(t, dev))
}

func TestExecViewer(t *testing.T) {
	v := &ExecViewer{Command: []string{`sh`, `-c`, `exit 3`}}
	err := v.Run(context.Background())
	assert.True(t, errors.Is(err, errors.ErrExternalTool))

	v = &ExecViewer{Command: []string{`sh`, `-c`, `test "$0" = /etc/viewer.yml`}, Config: `/etc/viewer.yml`}
	assert.NoError(t, v.Run(context.Background()))

	v = &ExecViewer{Command: []string{`sleep`, `30`}, Grace: time.Second}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	assert.NoError(t, v.Run(ctx))
	assert.Less(t, time.Since(start), 10*time.Second)

	assert.True(t, errors.Is((&ExecViewer{}).Run(context.Background()), errors.ErrInvalidInput))
}
