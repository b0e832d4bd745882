// Package preview shows a running simulation in a window. It only displays;
// closing the window ends the run.
package preview

import (
	"context"
	"image"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/image/draw"

	"github.com/olivierh59500/orbitals-go/internal/sim"
)

// Options tunes the preview window.
type Options struct {
	// Size is the side of the window in pixels.
	Size int
	// StepsPerFrame is how many simulation steps run per tick.
	StepsPerFrame int
	// RefreshEvery is how many ticks pass between canvas downsamples.
	RefreshEvery int
}

// DefaultOptions returns a window small enough for a laptop screen.
func DefaultOptions() Options {
	return Options{Size: 800, StepsPerFrame: 10, RefreshEvery: 6}
}

// Game drives a Simulation from ebiten's update loop.
type Game struct {
	ctx  context.Context
	sim  *sim.Simulation
	opts Options

	view    *ebiten.Image
	scratch *image.RGBA
	ticks   int
	dirty   bool
	err     error
}

// NewGame wraps s for display.
func NewGame(ctx context.Context, s *sim.Simulation, opts Options) *Game {
	def := DefaultOptions()
	if opts.Size <= 0 {
		opts.Size = def.Size
	}
	if opts.StepsPerFrame <= 0 {
		opts.StepsPerFrame = def.StepsPerFrame
	}
	if opts.RefreshEvery <= 0 {
		opts.RefreshEvery = def.RefreshEvery
	}
	return &Game{
		ctx:     ctx,
		sim:     s,
		opts:    opts,
		scratch: image.NewRGBA(image.Rect(0, 0, opts.Size, opts.Size)),
		dirty:   true,
	}
}

// Update is called each tick by ebiten.
func (g *Game) Update() error {
	if err := g.ctx.Err(); err != nil {
		g.err = err
		return ebiten.Termination
	}
	for k := 0; k < g.opts.StepsPerFrame && !g.sim.Done(); k++ {
		if err := g.sim.Step(g.ctx); err != nil {
			g.err = err
			return ebiten.Termination
		}
		g.dirty = true
	}
	g.ticks++
	return nil
}

// Draw is called each frame by ebiten.
func (g *Game) Draw(screen *ebiten.Image) {
	if g.view == nil {
		g.view = ebiten.NewImage(g.opts.Size, g.opts.Size)
	}
	if g.dirty && g.ticks%g.opts.RefreshEvery == 0 {
		src := g.sim.Canvas().Image()
		draw.ApproxBiLinear.Scale(g.scratch, g.scratch.Bounds(), src, src.Bounds(), draw.Src, nil)
		g.view.WritePixels(g.scratch.Pix)
		g.dirty = false
	}
	screen.DrawImage(g.view, nil)
}

// Layout returns the screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.opts.Size, g.opts.Size
}

// Err returns the error that stopped the run, if any.
func (g *Game) Err() error { return g.err }

// Run opens the window and blocks until it is closed, the context is
// cancelled or a step fails.
func Run(ctx context.Context, s *sim.Simulation, opts Options) error {
	g := NewGame(ctx, s, opts)
	ebiten.SetWindowSize(g.opts.Size, g.opts.Size)
	ebiten.SetWindowTitle("Orbitals " + s.Config().Prefix())
	ebiten.SetTPS(60)

	if err := ebiten.RunGame(g); err != nil {
		return err
	}
	return g.Err()
}
