// Package friends implements the capped-degree friendship graph that decides
// which node pairs attract each other and which get drawn.
package friends

import (
	"cmp"
	"math/rand"
	"slices"

	"github.com/cockroachdb/errors"
)

// Distances reports the current distance between two nodes.
type Distances interface {
	Distance(i, j int) float64
}

// Graph is a symmetric adjacency matrix with a per-node degree cap.
// Edges are only ever added.
type Graph struct {
	n      int
	max    int
	adj    []bool
	degree []int
	edges  int
}

// New returns an empty graph of n nodes allowing at most maxFriends edges
// per node.
func New(n, maxFriends int) *Graph {
	return &Graph{
		n:      n,
		max:    maxFriends,
		adj:    make([]bool, n*n),
		degree: make([]int, n),
	}
}

// Len returns the node count.
func (g *Graph) Len() int { return g.n }

// MaxFriends returns the degree cap.
func (g *Graph) MaxFriends() int { return g.max }

// Connected reports whether i and j are friends.
func (g *Graph) Connected(i, j int) bool { return g.adj[i*g.n+j] }

// Degree returns the number of friends of i.
func (g *Graph) Degree(i int) int { return g.degree[i] }

// EdgeCount returns the number of undirected edges.
func (g *Graph) EdgeCount() int { return g.edges }

// Befriend adds the edge (i, j). It fails when the edge is a self-loop,
// already exists, or would push either node past the cap.
func (g *Graph) Befriend(i, j int) error {
	switch {
	case i < 0 || j < 0 || i >= g.n || j >= g.n:
		return errors.Newf("node out of range: (%d, %d) with %d nodes", i, j, g.n)
	case i == j:
		return errors.Newf("node %d cannot befriend itself", i)
	case g.Connected(i, j):
		return errors.Newf("nodes %d and %d are already friends", i, j)
	case g.degree[i] >= g.max || g.degree[j] >= g.max:
		return errors.Newf("befriending %d and %d exceeds max friends %d", i, j, g.max)
	}
	g.link(i, j)
	return nil
}

func (g *Graph) link(i, j int) {
	g.adj[i*g.n+j] = true
	g.adj[j*g.n+i] = true
	g.degree[i]++
	g.degree[j]++
	g.edges++
}

// TryBefriend lets node i attempt one friendship. Candidates are every other
// node below the cap, visited nearest first; each is accepted with
// probability ratio. It returns the new friend, or ok=false when i is at the
// cap, nobody is eligible, or every candidate declined.
func (g *Graph) TryBefriend(i int, d Distances, rng *rand.Rand, ratio float64) (friend int, ok bool) {
	if g.degree[i] >= g.max {
		return -1, false
	}

	cand := make([]int, 0, g.n-1)
	for j := 0; j < g.n; j++ {
		if j != i && g.degree[j] < g.max {
			cand = append(cand, j)
		}
	}
	if len(cand) == 0 {
		return -1, false
	}
	slices.SortStableFunc(cand, func(a, b int) int {
		return cmp.Compare(d.Distance(i, a), d.Distance(i, b))
	})

	for _, j := range cand {
		if rng.Float64() < ratio {
			// Unlike Befriend, an existing friend can be drawn again; the
			// attempt then ends without a new edge.
			if g.Connected(i, j) {
				return -1, false
			}
			g.link(i, j)
			return j, true
		}
	}
	return -1, false
}

// Edges calls fn once per undirected edge as (i, j) with i > j, in row-major
// order, stopping early when fn returns false.
func (g *Graph) Edges(fn func(i, j int) bool) {
	for i := 0; i < g.n; i++ {
		row := g.adj[i*g.n : i*g.n+i]
		for j, ok := range row {
			if ok && !fn(i, j) {
				return
			}
		}
	}
}
