package canvas

import (
	"bytes"
	"image"
	"image/png"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/olivierh59500/orbitals-go/internal/field"
	"github.com/olivierh59500/orbitals-go/internal/friends"
	"github.com/olivierh59500/orbitals-go/internal/palette"
)

func TestNewFillsBackground(t *testing.T) {
	c := New(8, 1.0, 1)
	for _, v := range c.Image().Pix {
		require.Equal(t, uint8(0xff), v)
	}
	assert.Equal(t, 8, c.Size())
	assert.Equal(t, 0.125, c.Pixel())

	gray := New(4, 0.5, 1)
	assert.Equal(t, uint8(128), gray.Image().RGBAAt(1, 1).R)
}

func TestDotBlendsAndAccumulates(t *testing.T) {
	c := New(10, 1.0, 1)
	p := r2.Vec{X: 0.55, Y: 0.35}

	c.Dot(p, palette.Black, 0.05)
	first := c.Image().RGBAAt(5, 3)
	assert.Less(t, first.R, uint8(0xff))
	assert.Equal(t, uint8(0xff), first.A)
	assert.Equal(t, uint8(0xff), c.Image().RGBAAt(4, 3).R)

	c.Dot(p, palette.Black, 0.05)
	second := c.Image().RGBAAt(5, 3)
	assert.Less(t, second.R, first.R)
}

func TestDotPointSize(t *testing.T) {
	c := New(10, 1.0, 2)
	c.Dot(r2.Vec{X: 0.2, Y: 0.2}, palette.Black, 1)
	for _, pt := range []image.Point{{2, 2}, {3, 2}, {2, 3}, {3, 3}} {
		assert.Equal(t, uint8(0), c.Image().RGBAAt(pt.X, pt.Y).R, "pixel %v", pt)
	}
	assert.Equal(t, uint8(0xff), c.Image().RGBAAt(4, 4).R)
}

func TestDotOutsideIsClipped(t *testing.T) {
	c := New(10, 1.0, 1)
	before := append([]uint8(nil), c.Image().Pix...)
	c.Dot(r2.Vec{X: -0.5, Y: 0.5}, palette.Black, 1)
	c.Dot(r2.Vec{X: 0.5, Y: 1.5}, palette.Black, 1)
	assert.Equal(t, before, c.Image().Pix)
}

func edgeFixture(t *testing.T) (*field.Field, *friends.Graph, *field.Metrics) {
	t.Helper()
	f := field.NewAt([]r2.Vec{{X: 0.2, Y: 0.5}, {X: 0.8, Y: 0.5}, {X: 0.5, Y: 0.9}})
	g := friends.New(3, 2)
	require.NoError(t, g.Befriend(1, 0))
	return f, g, f.Recompute()
}

func TestRenderEdgesStaysOnSegment(t *testing.T) {
	f, g, m := edgeFixture(t)
	c := New(100, 1.0, 1)
	red := palette.New(palette.Color{R: 1})

	drawn := c.RenderEdges(f, g, m, red, 200, 0.5, rand.New(rand.NewSource(1)))
	assert.Equal(t, 1, drawn)

	inked := 0
	b := c.Image().Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			px := c.Image().RGBAAt(x, y)
			if px.G == 0xff {
				continue
			}
			inked++
			assert.Equal(t, 50, y, "ink off the segment at (%d,%d)", x, y)
			assert.GreaterOrEqual(t, x, 19)
			assert.LessOrEqual(t, x, 80)
			assert.Equal(t, uint8(0xff), px.R)
		}
	}
	assert.Greater(t, inked, 10)
}

func TestRenderEdgesWithoutEdgesDrawsNothing(t *testing.T) {
	f := field.NewAt([]r2.Vec{{X: 0.2, Y: 0.5}, {X: 0.8, Y: 0.5}})
	c := New(20, 1.0, 1)
	before := append([]uint8(nil), c.Image().Pix...)
	drawn := c.RenderEdges(f, friends.New(2, 1), f.Recompute(), palette.New(), 30, 0.05, rand.New(rand.NewSource(1)))
	assert.Equal(t, 0, drawn)
	assert.Equal(t, before, c.Image().Pix)
}

func TestSnapshotIsPureRead(t *testing.T) {
	f, g, m := edgeFixture(t)
	c := New(64, 1.0, 1)
	c.RenderEdges(f, g, m, palette.New(), 50, 0.2, rand.New(rand.NewSource(2)))

	before := append([]uint8(nil), c.Image().Pix...)
	path := filepath.Join(t.TempDir(), "frame.png")
	require.NoError(t, c.Snapshot(path))
	assert.Equal(t, before, c.Image().Pix)

	var a, b bytes.Buffer
	require.NoError(t, c.Encode(&a))
	require.NoError(t, c.Encode(&b))
	assert.Equal(t, a.Bytes(), b.Bytes())

	fh, err := os.Open(path)
	require.NoError(t, err)
	defer fh.Close()
	img, err := png.Decode(fh)
	require.NoError(t, err)
	assert.Equal(t, c.Image().Bounds(), img.Bounds())
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			r, _, _, _ := img.At(x, y).RGBA()
			require.Equal(t, uint32(c.Image().RGBAAt(x, y).R)*0x101, r)
		}
	}

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".snapshot-*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSnapshotsOnlyGainInk(t *testing.T) {
	f, g, m := edgeFixture(t)
	require.NoError(t, g.Befriend(2, 0))
	c := New(64, 1.0, 1)
	rng := rand.New(rand.NewSource(3))

	c.RenderEdges(f, g, m, palette.New(), 30, 0.05, rng)
	first := decodeSnapshot(t, c)
	for k := 0; k < 5; k++ {
		c.RenderEdges(f, g, m, palette.New(), 30, 0.05, rng)
	}
	second := decodeSnapshot(t, c)

	darker := 0
	for i := range first.Pix {
		require.LessOrEqual(t, second.Pix[i], first.Pix[i])
		if second.Pix[i] < first.Pix[i] {
			darker++
		}
	}
	assert.Greater(t, darker, 0)
}

func TestSnapshotMissingDirectory(t *testing.T) {
	c := New(4, 1.0, 1)
	err := c.Snapshot(filepath.Join(t.TempDir(), "missing", "frame.png"))
	require.Error(t, err)
}

func decodeSnapshot(t *testing.T, c *Canvas) *image.RGBA {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Encode(&buf))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	out := image.NewRGBA(img.Bounds())
	for y := img.Bounds().Min.Y; y < img.Bounds().Max.Y; y++ {
		for x := img.Bounds().Min.X; x < img.Bounds().Max.X; x++ {
			out.Set(x, y, img.At(x, y))
		}
	}
	return out
}

func TestUnit8(t *testing.T) {
	assert.Equal(t, uint8(0), unit8(-1))
	assert.Equal(t, uint8(13), unit8(0.05))
	assert.Equal(t, uint8(0xff), unit8(2))
	assert.Equal(t, uint8(math.Round(0.5*0xff)), unit8(0.5))
}
