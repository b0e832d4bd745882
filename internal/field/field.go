// Package field owns node positions and the pairwise distance and angle
// matrices derived from them.
package field

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
)

// Center is the middle of the normalized canvas.
var Center = r2.Vec{X: 0.5, Y: 0.5}

// Field holds the position of every node.
type Field struct {
	pos []r2.Vec
}

// New places n nodes at uniformly random angles on a circle of the given
// radius around Center.
func New(n int, radius float64, rng *rand.Rand) *Field {
	pos := make([]r2.Vec, n)
	for i := range pos {
		the := rng.Float64() * 2 * math.Pi
		pos[i] = r2.Add(Center, r2.Vec{X: radius * math.Sin(the), Y: radius * math.Cos(the)})
	}
	return &Field{pos: pos}
}

// NewAt builds a field from explicit positions.
func NewAt(positions []r2.Vec) *Field {
	return &Field{pos: append([]r2.Vec(nil), positions...)}
}

// Len returns the node count.
func (f *Field) Len() int { return len(f.pos) }

// Position returns the position of node i.
func (f *Field) Position(i int) r2.Vec { return f.pos[i] }

// Positions returns a copy of all positions.
func (f *Field) Positions() []r2.Vec {
	return append([]r2.Vec(nil), f.pos...)
}

// ApplyDisplacement moves every node by scale*(dx[i], dy[i]).
func (f *Field) ApplyDisplacement(dx, dy []float64, scale float64) {
	for i := range f.pos {
		f.pos[i].X += dx[i] * scale
		f.pos[i].Y += dy[i] * scale
	}
}

// Recompute rebuilds the pairwise metrics from the current positions.
func (f *Field) Recompute() *Metrics {
	m := NewMetrics(len(f.pos))
	m.Update(f.pos)
	return m
}

// Measure refreshes m in place from the current positions.
func (f *Field) Measure(m *Metrics) {
	m.Update(f.pos)
}

// Metrics is the pairwise distance matrix R and angle matrix A for one step.
// A[i,j] is the angle of the vector pointing from node j to node i.
type Metrics struct {
	n int
	r *mat.SymDense
	a *mat.Dense
}

// NewMetrics allocates zeroed matrices for n nodes.
func NewMetrics(n int) *Metrics {
	return &Metrics{
		n: n,
		r: mat.NewSymDense(n, nil),
		a: mat.NewDense(n, n, nil),
	}
}

// Update overwrites both matrices from positions. The length of positions
// must match the size the metrics were allocated for.
func (m *Metrics) Update(positions []r2.Vec) {
	for i := 0; i < m.n; i++ {
		m.r.SetSym(i, i, 0)
		m.a.Set(i, i, 0)
		for j := i + 1; j < m.n; j++ {
			d := r2.Sub(positions[i], positions[j])
			m.r.SetSym(i, j, r2.Norm(d))
			m.a.Set(i, j, math.Atan2(d.Y, d.X))
			m.a.Set(j, i, math.Atan2(-d.Y, -d.X))
		}
	}
}

// N returns the node count.
func (m *Metrics) N() int { return m.n }

// Distance returns R[i,j].
func (m *Metrics) Distance(i, j int) float64 { return m.r.At(i, j) }

// Angle returns A[i,j].
func (m *Metrics) Angle(i, j int) float64 { return m.a.At(i, j) }

