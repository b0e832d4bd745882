// Package force computes how far every node moves in one step.
package force

import (
	"math"
)

// Metrics is the pairwise distance/angle view a step works from.
type Metrics interface {
	N() int
	Distance(i, j int) float64
	Angle(i, j int) float64
}

// Friendships reports which node pairs are friends.
type Friendships interface {
	Connected(i, j int) bool
}

// Model classifies every pair as friend, enemy or neither and sums the
// resulting pulls and pushes. Magnitudes are not normalized by neighbor count.
type Model struct {
	// Near is the distance below which friends stop attracting.
	Near float64
	// Far is the distance beyond which non-friends stop repelling.
	Far float64
	// Step scales the summed displacement before it is applied.
	Step float64
}

// Displacement returns the unscaled per-node displacement for one step.
// Friends farther than Near pull with unit strength; non-friends closer than
// Far push away with strength Far - distance.
func (m Model) Displacement(metrics Metrics, friends Friendships) (dx, dy []float64) {
	n := metrics.N()
	dx = make([]float64, n)
	dy = make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			d := metrics.Distance(i, j)
			friend := friends.Connected(i, j)
			switch {
			case friend && d > m.Near:
				// Angle(i, j) points from j to i; attraction goes the other way.
				s, c := math.Sincos(metrics.Angle(i, j))
				dx[i] -= c
				dy[i] -= s
			case !friend && d < m.Far:
				speed := m.Far - d
				s, c := math.Sincos(metrics.Angle(i, j))
				dx[i] += speed * c
				dy[i] += speed * s
			}
		}
	}
	return dx, dy
}

// Mover is anything whose nodes can be displaced in place.
type Mover interface {
	ApplyDisplacement(dx, dy []float64, scale float64)
}

// Apply moves the nodes of f by Step*(dx, dy).
func (m Model) Apply(f Mover, dx, dy []float64) {
	f.ApplyDisplacement(dx, dy, m.Step)
}

// MaxMagnitude returns the largest per-node displacement norm.
func MaxMagnitude(dx, dy []float64) float64 {
	var peak float64
	for i := range dx {
		if v := math.Hypot(dx[i], dy[i]); v > peak {
			peak = v
		}
	}
	return peak
}
