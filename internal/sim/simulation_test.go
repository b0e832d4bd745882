package sim

import (
	"context"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/olivierh59500/orbitals-go/internal/config"
	"github.com/olivierh59500/orbitals-go/internal/field"
	"github.com/olivierh59500/orbitals-go/internal/friends"
	"github.com/olivierh59500/orbitals-go/internal/metrics"
	"github.com/olivierh59500/orbitals-go/internal/palette"
)

func smallConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Size = 64
	cfg.Nodes = 8
	cfg.Steps = 10
	cfg.SnapshotInterval = 5
	cfg.ColorPath = ""
	cfg.OutputDir = filepath.Join(t.TempDir(), "output")
	cfg.Seed = 1
	return cfg
}

func requireGraphInvariants(t *testing.T, g *friends.Graph) {
	t.Helper()
	for i := 0; i < g.Len(); i++ {
		require.False(t, g.Connected(i, i))
		require.LessOrEqual(t, g.Degree(i), g.MaxFriends())
		for j := 0; j < g.Len(); j++ {
			require.Equal(t, g.Connected(i, j), g.Connected(j, i))
		}
	}
}

func TestSingleStepMovesByRepulsion(t *testing.T) {
	cfg := smallConfig(t)
	cfg.Nodes = 4
	cfg.MaxFriends = 6
	cfg.Radius = 0.2
	cfg.Steps = 1
	cfg.FriendshipInitiateProb = 0

	start := make([]r2.Vec, 4)
	for i, the := range []float64{0, 0.3, 0.6, math.Pi} {
		start[i] = r2.Vec{X: 0.5 + 0.2*math.Sin(the), Y: 0.5 + 0.2*math.Cos(the)}
	}

	s, err := New(cfg, WithField(field.NewAt(start)), WithRand(rand.New(rand.NewSource(4))))
	require.NoError(t, err)
	require.NoError(t, s.Step(context.Background()))

	stp := cfg.StepSize()
	moved := 0
	for i := range start {
		var want r2.Vec
		for j := range start {
			if i == j {
				continue
			}
			away := r2.Sub(start[i], start[j])
			d := r2.Norm(away)
			if d < cfg.Far {
				want = r2.Add(want, r2.Scale((cfg.Far-d)/d, away))
			}
		}
		got := r2.Sub(s.Field().Position(i), start[i])
		assert.InDelta(t, want.X*stp, got.X, 1e-15, "node %d x", i)
		assert.InDelta(t, want.Y*stp, got.Y, 1e-15, "node %d y", i)
		if r2.Norm(got) > 0 {
			moved++
		}
	}
	// Nodes 0, 1 and 2 crowd each other; node 3 sits alone across the circle.
	assert.Equal(t, 3, moved)
	assert.Equal(t, start[3], s.Field().Position(3))
	assert.Equal(t, 0, s.Graph().EdgeCount())
	assert.Equal(t, 1, s.Iteration())
	assert.True(t, s.Done())
}

func TestRunWritesSnapshotsAndManifest(t *testing.T) {
	cfg := smallConfig(t)
	s, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, 10, s.Iteration())
	assert.FileExists(t, filepath.Join(cfg.OutputDir, cfg.SnapshotName(5)))
	assert.FileExists(t, filepath.Join(cfg.OutputDir, cfg.SnapshotName(10)))
	assert.NoFileExists(t, filepath.Join(cfg.OutputDir, cfg.SnapshotName(1)))

	manifest, err := config.ReadManifest(cfg.ManifestPath())
	require.NoError(t, err)
	assert.Equal(t, cfg, manifest)

	entries, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestGraphInvariantsHoldEveryStep(t *testing.T) {
	cfg := smallConfig(t)
	cfg.Nodes = 12
	cfg.MaxFriends = 3
	cfg.Steps = 300
	cfg.SnapshotInterval = 1000
	cfg.FriendshipInitiateProb = 1
	cfg.FriendshipRatio = 0.5

	s, err := New(cfg)
	require.NoError(t, err)
	ctx := context.Background()
	for !s.Done() {
		require.NoError(t, s.Step(ctx))
		requireGraphInvariants(t, s.Graph())
	}
	assert.Greater(t, s.Graph().EdgeCount(), 0)
}

func TestSeededRunsAreReproducible(t *testing.T) {
	run := func() *Simulation {
		cfg := smallConfig(t)
		cfg.Seed = 77
		cfg.FriendshipInitiateProb = 0.5
		cfg.Steps = 40
		cfg.SnapshotInterval = 100
		s, err := New(cfg)
		require.NoError(t, err)
		require.NoError(t, s.Run(context.Background()))
		return s
	}
	a, b := run(), run()
	assert.Equal(t, a.Field().Positions(), b.Field().Positions())
	assert.Equal(t, a.Graph().EdgeCount(), b.Graph().EdgeCount())
	assert.Equal(t, a.Canvas().Image().Pix, b.Canvas().Image().Pix)
	assert.NotEqual(t, a.RunID(), b.RunID())
}

func TestRunStopsOnCancel(t *testing.T) {
	s, err := New(smallConfig(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = s.Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, s.Iteration())
}

func TestOutputDirFailureIsFatal(t *testing.T) {
	cfg := smallConfig(t)
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	cfg.OutputDir = filepath.Join(blocker, "output")

	s, err := New(cfg)
	require.NoError(t, err)
	err = s.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create output directory")
}

func TestUndecodablePaletteIsFatal(t *testing.T) {
	cfg := smallConfig(t)
	cfg.ColorPath = filepath.Join(t.TempDir(), "rgb.gif")
	require.NoError(t, os.WriteFile(cfg.ColorPath, []byte("garbage"), 0o644))

	_, err := New(cfg)
	require.Error(t, err)
}

func TestNewRejectsMismatchedField(t *testing.T) {
	cfg := smallConfig(t)
	_, err := New(cfg, WithField(field.NewAt([]r2.Vec{{X: 0.5, Y: 0.5}, {X: 0.6, Y: 0.6}})))
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrInvalid))
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := smallConfig(t)
	cfg.Nodes = 1
	_, err := New(cfg)
	assert.True(t, errors.Is(err, config.ErrInvalid))
}

func TestRunRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := metrics.NewCollector(reg)
	require.NoError(t, err)

	cfg := smallConfig(t)
	cfg.FriendshipInitiateProb = 1
	s, err := New(cfg, WithMetrics(c), WithPalette(palette.New(palette.Color{R: 1})))
	require.NoError(t, err)
	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, 10.0, testutil.ToFloat64(c.Steps))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.Snapshots))
	assert.Equal(t, 10.0, testutil.ToFloat64(c.FriendshipAttempts))
	assert.Equal(t, float64(s.Graph().EdgeCount()), testutil.ToFloat64(c.Friendships))
}

func TestDriftChangesTrajectory(t *testing.T) {
	base := smallConfig(t)
	base.FriendshipInitiateProb = 0
	base.Steps = 3

	plain, err := New(base)
	require.NoError(t, err)
	require.NoError(t, plain.Run(context.Background()))

	drifting := base
	drifting.OutputDir = filepath.Join(t.TempDir(), "drift")
	drifting.Drift = 1
	d, err := New(drifting)
	require.NoError(t, err)
	require.NoError(t, d.Run(context.Background()))

	assert.NotEqual(t, plain.Field().Positions(), d.Field().Positions())
}

func TestProgressLoggedAtInfo(t *testing.T) {
	cfg := smallConfig(t)
	cfg.Steps = 200
	cfg.SnapshotInterval = 1000

	core, logs := observer.New(zapcore.InfoLevel)
	s, err := New(cfg, WithLogger(zap.New(core).Sugar()))
	require.NoError(t, err)
	require.NoError(t, s.Run(context.Background()))

	progress := logs.FilterMessage("progress").All()
	require.Len(t, progress, 2)
	for k, entry := range progress {
		fields := entry.ContextMap()
		assert.EqualValues(t, (k+1)*100, fields["iteration"])
		assert.Contains(t, fields, "max_displacement")
		assert.Equal(t, zapcore.InfoLevel, entry.Level)
	}
}
