// Package palette loads the discrete color set used to tint friendship edges.
package palette

import (
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"math/rand"
	"os"

	"github.com/cockroachdb/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/olivierh59500/orbitals-go/internal/logger"
)

// Color is an RGB triple with components in [0,1].
type Color struct {
	R, G, B float64
}

// Black is the fallback color used when no color resource exists.
var Black = Color{}

// Palette is a non-empty, ordered set of colors.
type Palette struct {
	colors []Color
}

// New builds a palette from colors. An empty slice yields the black fallback.
func New(colors ...Color) Palette {
	if len(colors) == 0 {
		return Palette{colors: []Color{Black}}
	}
	return Palette{colors: append([]Color(nil), colors...)}
}

// Len returns the number of colors.
func (p Palette) Len() int {
	return len(p.colors)
}

// Colors returns a copy of the palette entries.
func (p Palette) Colors() []Color {
	return append([]Color(nil), p.colors...)
}

// At returns the color of edge (i, j) in a run of n nodes.
func (p Palette) At(i, j, n int) Color {
	if len(p.colors) == 0 {
		return Black
	}
	return p.colors[(i*n+j)%len(p.colors)]
}

// Load reads every pixel of the image at path into a shuffled palette.
// A missing file (or empty path) falls back to a single black entry; a file
// that exists but cannot be decoded is an error.
func Load(path string, rng *rand.Rand) (Palette, error) {
	log := logger.ComponentLogger("palette")

	if path == "" {
		log.Infow("default color: black", "reason", "no color path")
		return New(), nil
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Infow("default color: black", logger.FieldPath, path)
		return New(), nil
	}
	if err != nil {
		return Palette{}, errors.Wrapf(err, "failed to open color resource %s", path)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return Palette{}, errors.Wrapf(err, "failed to decode color resource %s", path)
	}

	p := FromImage(img, rng)
	log.Infow("loaded colors", logger.FieldPath, path, "format", format, logger.FieldCount, p.Len())
	return p, nil
}

// FromImage flattens img column by column into normalized colors and
// shuffles them with rng.
func FromImage(img image.Image, rng *rand.Rand) Palette {
	b := img.Bounds()
	colors := make([]Color, 0, b.Dx()*b.Dy())
	const scale = 1.0 / 255.0
	for x := b.Min.X; x < b.Max.X; x++ {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			colors = append(colors, Color{
				R: float64(c.R) * scale,
				G: float64(c.G) * scale,
				B: float64(c.B) * scale,
			})
		}
	}
	rng.Shuffle(len(colors), func(i, j int) {
		colors[i], colors[j] = colors[j], colors[i]
	})
	return New(colors...)
}
