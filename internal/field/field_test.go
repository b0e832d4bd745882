package field

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestNewPlacesNodesOnCircle(t *testing.T) {
	f := New(50, 0.2, rand.New(rand.NewSource(1)))
	require.Equal(t, 50, f.Len())
	for i := 0; i < f.Len(); i++ {
		d := r2.Norm(r2.Sub(f.Position(i), Center))
		assert.InDelta(t, 0.2, d, 1e-12, "node %d", i)
	}
}

func TestNewIsSeeded(t *testing.T) {
	a := New(10, 0.2, rand.New(rand.NewSource(9)))
	b := New(10, 0.2, rand.New(rand.NewSource(9)))
	assert.Equal(t, a.Positions(), b.Positions())
}

func TestRecomputeInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for trial := 0; trial < 20; trial++ {
		pos := make([]r2.Vec, 2+rng.Intn(20))
		for i := range pos {
			pos[i] = r2.Vec{X: rng.Float64()*4 - 2, Y: rng.Float64()*4 - 2}
		}
		m := NewAt(pos).Recompute()
		for i := range pos {
			assert.Equal(t, 0.0, m.Distance(i, i))
			for j := range pos {
				assert.Equal(t, m.Distance(i, j), m.Distance(j, i))
				want := math.Hypot(pos[i].X-pos[j].X, pos[i].Y-pos[j].Y)
				assert.InDelta(t, want, m.Distance(i, j), 1e-12)
			}
		}
	}
}

func TestAnglePointsFromNeighbor(t *testing.T) {
	f := NewAt([]r2.Vec{{X: 0.5, Y: 0.5}, {X: 0.4, Y: 0.5}, {X: 0.5, Y: 0.7}})
	m := f.Recompute()

	// Node 1 lies left of node 0, so the vector 1->0 points along +x.
	assert.InDelta(t, 0.0, m.Angle(0, 1), 1e-12)
	assert.InDelta(t, math.Pi, math.Abs(m.Angle(1, 0)), 1e-12)
	// Node 2 lies above node 0, so the vector 2->0 points along -y.
	assert.InDelta(t, -math.Pi/2, m.Angle(0, 2), 1e-12)
	assert.InDelta(t, math.Pi/2, m.Angle(2, 0), 1e-12)
}

func TestMetricsUpdateOverwrites(t *testing.T) {
	f := NewAt([]r2.Vec{{X: 0, Y: 0}, {X: 1, Y: 0}})
	m := f.Recompute()
	assert.InDelta(t, 1.0, m.Distance(0, 1), 1e-12)

	f.ApplyDisplacement([]float64{0, 2}, []float64{0, 0}, 0.5)
	m.Update(f.Positions())
	assert.InDelta(t, 2.0, m.Distance(0, 1), 1e-12)
	assert.Equal(t, 2, m.N())
}

func TestApplyDisplacement(t *testing.T) {
	f := NewAt([]r2.Vec{{X: 0.1, Y: 0.2}, {X: 0.3, Y: 0.4}})
	f.ApplyDisplacement([]float64{1, -1}, []float64{2, 0}, 0.01)
	assert.InDelta(t, 0.11, f.Position(0).X, 1e-12)
	assert.InDelta(t, 0.22, f.Position(0).Y, 1e-12)
	assert.InDelta(t, 0.29, f.Position(1).X, 1e-12)
	assert.InDelta(t, 0.40, f.Position(1).Y, 1e-12)
}
