package force

import (
	"math"
	"math/rand"

	"github.com/aquilax/go-perlin"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	driftAlpha  = 2.0
	driftBeta   = 2.0
	driftOctave = 3
)

// Drift adds a slowly varying Perlin flow to every node. A zero Amplitude
// disables it.
type Drift struct {
	Amplitude float64
	Scale     float64
	noise     *perlin.Perlin
}

// NewDrift seeds the noise field from rng.
func NewDrift(amplitude, scale float64, rng *rand.Rand) *Drift {
	return &Drift{
		Amplitude: amplitude,
		Scale:     scale,
		noise:     perlin.NewPerlin(driftAlpha, driftBeta, driftOctave, rng.Int63()),
	}
}

// Enabled reports whether the drift contributes anything.
func (d *Drift) Enabled() bool {
	return d != nil && d.Amplitude > 0
}

// Add accumulates the flow at each position into dx, dy.
func (d *Drift) Add(positions []r2.Vec, dx, dy []float64) {
	if !d.Enabled() {
		return
	}
	for i, p := range positions {
		phi := (d.noise.Noise2D(p.X*d.Scale, p.Y*d.Scale) + 1) * math.Pi
		s, c := math.Sincos(phi)
		dx[i] += d.Amplitude * c
		dy[i] += d.Amplitude * s
	}
}
