// Package resize post-processes snapshot frames: it picks every frame of one
// run by filename prefix, renames it to a zero-padded frame number and
// downsamples it.
package resize

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/olivierh59500/orbitals-go/internal/logger"
	"github.com/olivierh59500/orbitals-go/internal/tracing"
)

// Defaults for a batch.
const (
	DefaultInputDir  = "output"
	DefaultOutputDir = "output_s"
	DefaultSize      = 1000
	DefaultWidth     = 10
)

// Options describes one batch.
type Options struct {
	InputDir  string
	OutputDir string
	// Prefix selects the frames of a run, see config.Config.Prefix.
	Prefix string
	// Size is the side of the square output frames.
	Size int
	// Width is the length new names are left-padded to with zeros.
	Width int
	// Workers bounds concurrent frames; zero means GOMAXPROCS.
	Workers int
}

// Job maps one input frame to its output.
type Job struct {
	Src string
	Dst string
}

func (o Options) withDefaults() Options {
	if o.InputDir == "" {
		o.InputDir = DefaultInputDir
	}
	if o.OutputDir == "" {
		o.OutputDir = DefaultOutputDir
	}
	if o.Size <= 0 {
		o.Size = DefaultSize
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	return o
}

// OutputName strips prefix from name and left-pads the rest with zeros to
// width characters.
func OutputName(name, prefix string, width int) string {
	rest := strings.TrimPrefix(name, prefix)
	if pad := width - len(rest); pad > 0 {
		rest = strings.Repeat("0", pad) + rest
	}
	return rest
}

// Plan lists the frames selected by opts in name order.
func Plan(opts Options) ([]Job, error) {
	opts = opts.withDefaults()
	if opts.Prefix == "" {
		return nil, errors.New("resize prefix must be set")
	}
	entries, err := os.ReadDir(opts.InputDir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list %s", opts.InputDir)
	}

	var jobs []Job
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), opts.Prefix) || filepath.Ext(e.Name()) != ".png" {
			continue
		}
		jobs = append(jobs, Job{
			Src: filepath.Join(opts.InputDir, e.Name()),
			Dst: filepath.Join(opts.OutputDir, OutputName(e.Name(), opts.Prefix, opts.Width)),
		})
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Src < jobs[j].Src })
	return jobs, nil
}

// Batch resizes every frame selected by opts and returns how many were
// written. The first failure cancels the remaining work.
func Batch(ctx context.Context, opts Options) (int, error) {
	opts = opts.withDefaults()
	log := logger.ComponentLogger("resize")

	ctx, span := tracing.Tracer().Start(ctx, "resize.batch")
	defer span.End()

	jobs, err := Plan(opts)
	if err != nil {
		return 0, err
	}
	span.SetAttributes(attribute.Int("frames", len(jobs)), attribute.String("prefix", opts.Prefix))

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return 0, errors.Wrapf(err, "failed to create %s", opts.OutputDir)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for _, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return resizeOne(job, opts.Size, log)
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return 0, err
	}

	log.Infow("resize complete", logger.FieldCount, len(jobs), "output_dir", opts.OutputDir)
	return len(jobs), nil
}

func resizeOne(job Job, size int, log *zap.SugaredLogger) error {
	in, err := os.Open(job.Src)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", job.Src)
	}
	defer in.Close()

	src, err := png.Decode(in)
	if err != nil {
		return errors.Wrapf(err, "failed to decode %s", job.Src)
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	out, err := os.Create(job.Dst)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", job.Dst)
	}
	if err := png.Encode(out, dst); err != nil {
		out.Close()
		return errors.Wrapf(err, "failed to encode %s", job.Dst)
	}
	if err := out.Close(); err != nil {
		return errors.Wrapf(err, "failed to close %s", job.Dst)
	}
	log.Debugw("frame resized", "src", job.Src, logger.FieldPath, job.Dst)
	return nil
}
