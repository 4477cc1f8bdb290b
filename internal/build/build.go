package build

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/albe2669/recipes/internal/images"
	"github.com/albe2669/recipes/internal/paths"
	"github.com/albe2669/recipes/internal/pipeline"
	"github.com/albe2669/recipes/internal/runtime"
)

// Default prefix for container IDs.
const defaultPrefix = "recipes"

// Controls how lineages are evaluated.
type Options struct {
	Platform string // Target platform (e.g., "linux/amd64"). Defaults to host.
	Prefix   string // Prefix for container IDs. Defaults to "recipes".
}

// Evaluates lineages against a containerd runtime. Implements
// [pipeline.Engine].
type Engine struct {
	rt       *runtime.Runtime
	store    *images.Store
	platform string
	prefix   string
	seq      atomic.Uint64
}

var _ pipeline.Engine = (*Engine)(nil)

// Creates an engine. The engine owns rt and closes it on [Engine.Close].
func New(rt *runtime.Runtime, store *images.Store, opts Options) *Engine {
	if opts.Platform == "" {
		opts.Platform = runtime.DefaultPlatform()
	}
	if opts.Prefix == "" {
		opts.Prefix = defaultPrefix
	}

	return &Engine{
		rt:       rt,
		store:    store,
		platform: opts.Platform,
		prefix:   opts.Prefix,
	}
}

// Runs the lineage and returns the standard output of its last exec.
func (e *Engine) Stdout(ctx context.Context, c *pipeline.Container) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}

	ev := e.newEvaluation()
	defer ev.destroy(ctx)

	r, err := ev.realize(ctx, c)
	if err != nil {
		return "", err
	}

	return r.state.stdout, nil
}

// Runs the lineage owning f and copies the file to dest on the host.
//
// The file is written through a temporary file in dest's directory and
// renamed into place, so dest is never left half-written.
func (e *Engine) Export(ctx context.Context, f *pipeline.File, dest string) (string, error) {
	if f == nil {
		return "", fmt.Errorf("%w: nil file", pipeline.ErrInvalidPipeline)
	}
	if err := f.Container.Validate(); err != nil {
		return "", err
	}

	dest, err := filepath.Abs(dest)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFileSystemOperation, err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), paths.DefaultDirMode); err != nil {
		return "", fmt.Errorf("%w: %w", ErrFileSystemOperation, err)
	}

	ev := e.newEvaluation()
	defer ev.destroy(ctx)

	r, err := ev.realize(ctx, f.Container)
	if err != nil {
		return "", err
	}

	if err := exportFile(ctx, r.ctr, f.Path, dest); err != nil {
		return "", err
	}

	slog.Info("file exported", "src", f.Path, "dest", dest)
	return dest, nil
}

// Closes the underlying runtime.
func (e *Engine) Close() error {
	return e.rt.Close()
}

func (e *Engine) newEvaluation() *evaluation {
	return &evaluation{
		engine:   e,
		id:       e.seq.Add(1),
		realized: make(map[*pipeline.Container]*realized),
	}
}
