// Package canvas is the persistent raster that friendship edges are painted
// onto. Paint operations accumulate; nothing ever clears the surface.
package canvas

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/olivierh59500/orbitals-go/internal/palette"
)

// Nodes gives access to node positions in normalized coordinates.
type Nodes interface {
	Position(i int) r2.Vec
}

// EdgeSet enumerates undirected edges once each.
type EdgeSet interface {
	Edges(fn func(i, j int) bool)
}

// Metrics provides the pairwise geometry of the current step.
type Metrics interface {
	N() int
	Distance(i, j int) float64
	Angle(i, j int) float64
}

// Canvas is a square RGBA surface addressed in normalized [0,1] coordinates.
type Canvas struct {
	img       *image.RGBA
	size      int
	pointSize int
}

// New allocates a size×size canvas filled with the gray level background.
func New(size int, background float64, pointSize int) *Canvas {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	v := unit8(background)
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{R: v, G: v, B: v, A: 0xff}}, image.Point{}, draw.Src)
	if pointSize < 1 {
		pointSize = 1
	}
	return &Canvas{img: img, size: size, pointSize: pointSize}
}

// Size returns the side length in pixels.
func (c *Canvas) Size() int { return c.size }

// Pixel is the side of one pixel in normalized coordinates.
func (c *Canvas) Pixel() float64 { return 1.0 / float64(c.size) }

// Image returns the live surface. Callers must not modify it.
func (c *Canvas) Image() *image.RGBA { return c.img }

// Dot blends a pointSize square of col at normalized position p with the
// given opacity. Parts outside the canvas are clipped.
func (c *Canvas) Dot(p r2.Vec, col palette.Color, alpha float64) {
	c.dot(p, &image.Uniform{C: nrgba(col, alpha)})
}

func (c *Canvas) dot(p r2.Vec, src image.Image) {
	x := int(math.Floor(p.X * float64(c.size)))
	y := int(math.Floor(p.Y * float64(c.size)))
	r := image.Rect(x, y, x+c.pointSize, y+c.pointSize)
	draw.Draw(c.img, r, src, image.Point{}, draw.Over)
}

// RenderEdges paints every edge as grains dots scattered uniformly along the
// segment from node i toward node j, tinted by the palette entry of (i, j).
// It returns the number of edges drawn.
func (c *Canvas) RenderEdges(nodes Nodes, edges EdgeSet, m Metrics, pal palette.Palette, grains int, alpha float64, rng *rand.Rand) int {
	n := m.N()
	drawn := 0
	edges.Edges(func(i, j int) bool {
		a := m.Angle(i, j)
		d := m.Distance(i, j)
		sin, cos := math.Sincos(a)
		origin := nodes.Position(i)
		src := &image.Uniform{C: nrgba(pal.At(i, j, n), alpha)}
		for k := 0; k < grains; k++ {
			s := rng.Float64() * d
			c.dot(r2.Vec{X: origin.X - s*cos, Y: origin.Y - s*sin}, src)
		}
		drawn++
		return true
	})
	return drawn
}

// Encode writes the current surface as PNG without altering it.
func (c *Canvas) Encode(w io.Writer) error {
	return errors.Wrap(png.Encode(w, c.img), "failed to encode canvas")
}

// Snapshot writes the surface to path as PNG. The file appears atomically.
func (c *Canvas) Snapshot(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*.png")
	if err != nil {
		return errors.Wrapf(err, "failed to create snapshot for %s", path)
	}
	defer os.Remove(tmp.Name())

	if err := c.Encode(tmp); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "failed to write snapshot %s", path)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "failed to close snapshot %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "failed to move snapshot into place at %s", path)
	}
	return nil
}

func nrgba(col palette.Color, alpha float64) color.NRGBA {
	return color.NRGBA{R: unit8(col.R), G: unit8(col.G), B: unit8(col.B), A: unit8(alpha)}
}

func unit8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 0xff
	}
	return uint8(math.Round(v * 0xff))
}
