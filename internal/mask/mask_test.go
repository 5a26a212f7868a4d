package mask

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drummonds/fbsnap/internal/errors"
)

func TestBuildScenario300(t *testing.T) {
	m, err := Build(300, 300, DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, 300, m.Rect.Dx())
	assert.Equal(t, 300, m.Rect.Dy())
	assert.Less(t, int(m.AlphaAt(0, 0).A), 10)
	assert.Greater(t, int(m.AlphaAt(150, 150).A), 240)
}

func TestBuildCornersAndCentre(t *testing.T) {
	sizes := [][2]int{{64, 48}, {200, 120}, {301, 299}, {1280, 800}}
	for _, s := range sizes {
		w, h := s[0], s[1]
		p := DefaultParams()
		p.OuterRadius = 12
		p.InnerMargin = 6
		m, err := Build(w, h, p)
		require.NoError(t, err)
		assert.Equal(t, w, m.Rect.Dx())
		assert.Equal(t, h, m.Rect.Dy())
		assert.Less(t, int(m.AlphaAt(0, 0).A), 10, `%dx%d corner`, w, h)
		assert.Greater(t, int(m.AlphaAt(w/2, h/2).A), 240, `%dx%d centre`, w, h)
	}
}

func TestBuildBorderBand(t *testing.T) {
	p := DefaultParams()
	m, err := Build(300, 300, p)
	require.NoError(t, err)
	// left band sits between x=0 and the inner rectangle at x=10
	assert.InDelta(t, 128, int(m.AlphaAt(4, 150).A), 3)
	assert.InDelta(t, 128, int(m.AlphaAt(150, 4).A), 3)
	// the inner rectangle is offset, not centred: no band on the right
	assert.Greater(t, int(m.AlphaAt(296, 150).A), 240)

	p.SymmetricInset = true
	m, err = Build(300, 300, p)
	require.NoError(t, err)
	assert.InDelta(t, 128, int(m.AlphaAt(295, 150).A), 3)
	assert.InDelta(t, 128, int(m.AlphaAt(150, 295).A), 3)
}

func TestBuildUnblurredBands(t *testing.T) {
	p := DefaultParams()
	p.Blur = Blur{}
	m, err := Build(100, 100, p)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), m.AlphaAt(0, 0).A)
	assert.InDelta(t, 128, int(m.AlphaAt(5, 50).A), 1)
	assert.Equal(t, uint8(0xff), m.AlphaAt(50, 50).A)
}

func TestBuildTruncatedKernel(t *testing.T) {
	p := DefaultParams()
	p.Blur = Blur{Radius: 2, Sigma: 4}
	m, err := Build(120, 120, p)
	require.NoError(t, err)
	assert.Greater(t, int(m.AlphaAt(60, 60).A), 240)
	assert.Less(t, int(m.AlphaAt(0, 0).A), 10)
}

func TestBuildInvalid(t *testing.T) {
	bad := []struct {
		w, h int
		p    Params
	}{
		{0, 10, DefaultParams()},
		{10, 0, DefaultParams()},
		{300, 300, Params{BorderOpacity: 1.5}},
		{300, 300, Params{OuterRadius: -1}},
		{300, 300, Params{Blur: Blur{Radius: -1}}},
		{10, 10, Params{InnerMargin: 10}},
	}
	for _, b := range bad {
		_, err := Build(b.w, b.h, b.p)
		assert.True(t, errors.Is(err, errors.ErrInvalidInput), `%dx%d %+v`, b.w, b.h, b.p)
	}
}

func TestGaussianKernel(t *testing.T) {
	k := gaussianKernel(1, 1)
	require.Len(t, k, 9)
	assert.Equal(t, float32(1), k[4])
	assert.Equal(t, k[0], k[8])
	assert.Greater(t, k[1], k[0])
}
