// Package sim runs the orbitals simulation: nodes drift under friend and
// enemy forces, friendships grow, and every edge is painted onto a canvas
// that is snapshotted at a fixed interval.
package sim

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/olivierh59500/orbitals-go/internal/canvas"
	"github.com/olivierh59500/orbitals-go/internal/config"
	"github.com/olivierh59500/orbitals-go/internal/field"
	"github.com/olivierh59500/orbitals-go/internal/force"
	"github.com/olivierh59500/orbitals-go/internal/friends"
	"github.com/olivierh59500/orbitals-go/internal/logger"
	"github.com/olivierh59500/orbitals-go/internal/metrics"
	"github.com/olivierh59500/orbitals-go/internal/palette"
	"github.com/olivierh59500/orbitals-go/internal/tracing"
)

// progressEvery is how often, in steps, the largest displacement is logged.
const progressEvery = 100

// Simulation holds the complete state of one run.
type Simulation struct {
	cfg   config.Config
	runID string
	rng   *rand.Rand

	field   *field.Field
	metrics *field.Metrics
	graph   *friends.Graph
	force   force.Model
	drift   *force.Drift
	canvas  *canvas.Canvas
	palette palette.Palette

	collector *metrics.Collector
	log       *zap.SugaredLogger

	iter         int
	prepared     bool
	lastSnapshot time.Time
}

// Option customizes a Simulation built by New.
type Option func(*options)

type options struct {
	rng       *rand.Rand
	palette   *palette.Palette
	field     *field.Field
	collector *metrics.Collector
	log       *zap.SugaredLogger
}

// WithRand makes every stochastic operation draw from rng.
func WithRand(rng *rand.Rand) Option {
	return func(o *options) { o.rng = rng }
}

// WithPalette skips loading the color resource.
func WithPalette(p palette.Palette) Option {
	return func(o *options) { o.palette = &p }
}

// WithField starts from the given node positions instead of the circle.
func WithField(f *field.Field) Option {
	return func(o *options) { o.field = f }
}

// WithMetrics records progress into c.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *options) { o.collector = c }
}

// WithLogger replaces the component logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(o *options) { o.log = l }
}

// New builds a simulation from cfg. The color resource is loaded before the
// nodes are placed, so with a fixed seed both are reproducible.
func New(cfg config.Config, opts ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	rng := o.rng
	if rng == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng = rand.New(rand.NewSource(seed))
	}

	runID := uuid.NewString()
	log := o.log
	if log == nil {
		log = logger.ComponentLogger("sim")
	}
	log = log.With(logger.FieldRunID, runID)

	var pal palette.Palette
	if o.palette != nil {
		pal = *o.palette
	} else {
		p, err := palette.Load(cfg.ColorPath, rng)
		if err != nil {
			return nil, err
		}
		pal = p
	}

	f := o.field
	if f == nil {
		f = field.New(cfg.Nodes, cfg.Radius, rng)
	}
	if f.Len() != cfg.Nodes {
		return nil, errors.Wrapf(config.ErrInvalid, "field has %d nodes, configuration expects %d", f.Len(), cfg.Nodes)
	}

	s := &Simulation{
		cfg:     cfg,
		runID:   runID,
		rng:     rng,
		field:   f,
		metrics: field.NewMetrics(cfg.Nodes),
		graph:   friends.New(cfg.Nodes, cfg.MaxFriends),
		force: force.Model{
			Near: cfg.Near,
			Far:  cfg.Far,
			Step: cfg.StepSize(),
		},
		canvas:    canvas.New(cfg.Size, cfg.Background, cfg.PointSize),
		palette:   pal,
		collector: o.collector,
		log:       log,
	}
	if cfg.Drift > 0 {
		s.drift = force.NewDrift(cfg.Drift, cfg.DriftScale, rng)
	}
	return s, nil
}

// Config returns the configuration the simulation was built from.
func (s *Simulation) Config() config.Config { return s.cfg }

// RunID identifies this run in logs.
func (s *Simulation) RunID() string { return s.runID }

// Iteration returns the number of completed steps.
func (s *Simulation) Iteration() int { return s.iter }

// Done reports whether the configured number of steps has been reached.
func (s *Simulation) Done() bool { return s.iter >= s.cfg.Steps }

// Field returns the node positions.
func (s *Simulation) Field() *field.Field { return s.field }

// Graph returns the friendship graph.
func (s *Simulation) Graph() *friends.Graph { return s.graph }

// Canvas returns the accumulation canvas.
func (s *Simulation) Canvas() *canvas.Canvas { return s.canvas }

// Prepare creates the output directory and writes the run manifest. Step
// calls it on first use.
func (s *Simulation) Prepare() error {
	if s.prepared {
		return nil
	}
	if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create output directory %s", s.cfg.OutputDir)
	}
	if err := s.cfg.WriteManifest(); err != nil {
		return err
	}

	c := s.cfg
	s.log.Infow("simulation configured",
		"size", c.Size,
		"nodes", c.Nodes,
		"step", c.StepSize(),
		"pixel", c.Pixel(),
		"max_friends", c.MaxFriends,
		"grains", c.Grains,
		"color_path", c.ColorPath,
		"colors", s.palette.Len(),
		"radius", c.Radius,
		"friendship_ratio", c.FriendshipRatio,
		"friendship_initiate_prob", c.FriendshipInitiateProb,
		"manifest", c.ManifestPath(),
	)
	s.prepared = true
	s.lastSnapshot = time.Now()
	return nil
}

// Step advances the simulation by one iteration and writes a snapshot when
// the iteration count reaches a multiple of the snapshot interval.
func (s *Simulation) Step(ctx context.Context) error {
	if err := s.Prepare(); err != nil {
		return err
	}
	start := time.Now()

	s.field.Measure(s.metrics)
	dx, dy := s.force.Displacement(s.metrics, s.graph)
	if s.drift.Enabled() {
		s.drift.Add(s.field.Positions(), dx, dy)
	}
	s.force.Apply(s.field, dx, dy)
	s.iter++

	maxDisplacement := force.MaxMagnitude(dx, dy)
	if s.iter%progressEvery == 0 {
		s.log.Infow("progress", logger.FieldIteration, s.iter, "max_displacement", maxDisplacement)
	}

	if s.rng.Float64() < s.cfg.FriendshipInitiateProb {
		s.collector.ObserveFriendshipAttempt()
		k := s.rng.Intn(s.cfg.Nodes)
		if j, ok := s.graph.TryBefriend(k, s.metrics, s.rng, s.cfg.FriendshipRatio); ok {
			s.log.Debugw("friendship formed", "a", k, "b", j, logger.FieldIteration, s.iter)
		}
	}

	s.canvas.RenderEdges(s.field, s.graph, s.metrics, s.palette, s.cfg.Grains, s.cfg.Alpha, s.rng)

	if s.iter%s.cfg.SnapshotInterval == 0 {
		if err := s.Snapshot(ctx); err != nil {
			return err
		}
	}

	s.collector.ObserveStep(time.Since(start), s.graph.EdgeCount(), maxDisplacement)
	return nil
}

// SnapshotPath is where the snapshot for the current iteration goes.
func (s *Simulation) SnapshotPath() string {
	return filepath.Join(s.cfg.OutputDir, s.cfg.SnapshotName(s.iter))
}

// Snapshot writes the canvas for the current iteration.
func (s *Simulation) Snapshot(ctx context.Context) error {
	path := s.SnapshotPath()
	_, span := tracing.Tracer().Start(ctx, "canvas.snapshot")
	span.SetAttributes(
		attribute.String("path", path),
		attribute.Int("iteration", s.iter),
	)
	defer span.End()

	if err := s.canvas.Snapshot(path); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "snapshot failed")
		return err
	}

	now := time.Now()
	s.log.Infow("snapshot written",
		logger.FieldPath, path,
		logger.FieldIteration, s.iter,
		"friendships", s.graph.EdgeCount(),
		logger.FieldDurationMS, now.Sub(s.lastSnapshot).Milliseconds(),
	)
	s.lastSnapshot = now
	s.collector.ObserveSnapshot()
	return nil
}

// Run performs the remaining steps. It stops early with the context's error
// when ctx is cancelled between steps.
func (s *Simulation) Run(ctx context.Context) error {
	ctx, span := tracing.Tracer().Start(ctx, "sim.run")
	span.SetAttributes(
		attribute.String("run_id", s.runID),
		attribute.Int("steps", s.cfg.Steps),
		attribute.Int("nodes", s.cfg.Nodes),
	)
	defer span.End()

	if err := s.Prepare(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "prepare failed")
		return err
	}

	started := time.Now()
	for !s.Done() {
		if err := ctx.Err(); err != nil {
			s.log.Warnw("simulation interrupted", logger.FieldIteration, s.iter)
			return errors.Wrapf(err, "interrupted after %d steps", s.iter)
		}
		if err := s.Step(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "step failed")
			return errors.Wrapf(err, "step %d", s.iter)
		}
	}

	s.log.Infow("simulation complete",
		logger.FieldIteration, s.iter,
		"friendships", s.graph.EdgeCount(),
		logger.FieldDurationMS, time.Since(started).Milliseconds(),
	)
	return nil
}
