package build

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/albe2669/recipes/internal/pipeline"
	"github.com/albe2669/recipes/internal/runtime"
)

// Holds the containers started while evaluating one lineage.
type evaluation struct {
	engine     *Engine
	id         uint64                            // Sequence number, part of every container ID.
	containers []*runtime.Container              // Destroyed when the evaluation ends.
	realized   map[*pipeline.Container]*realized // Lineages already run in this evaluation.
}

// A lineage that has run to completion in a live container.
type realized struct {
	ctr   *runtime.Container
	state *stepState
}

// Starts a container for the lineage and runs its operations.
//
// Lineages referenced by file copies are realized recursively. Each
// lineage runs at most once per evaluation.
func (ev *evaluation) realize(ctx context.Context, c *pipeline.Container) (*realized, error) {
	if r, ok := ev.realized[c]; ok {
		return r, nil
	}

	slog.Debug("realizing lineage", "lineage", c.String())

	archive, err := ev.engine.store.Archive(ctx, c.Base(), ev.engine.platform)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuild, err)
	}

	ops := c.Ops()

	mounts, err := collectMounts(ops)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuild, err)
	}

	ctr, err := ev.engine.rt.StartContainer(ctx, archive, ev.containerID(), ev.engine.platform, mounts)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBuild, c.Base(), err)
	}
	ev.containers = append(ev.containers, ctr)

	state := newStepState()
	if err := executeOps(ctx, ev, ctr, ops, state); err != nil {
		return nil, err
	}

	r := &realized{ctr: ctr, state: state}
	ev.realized[c] = r
	return r, nil
}

// Destroys all containers started by the evaluation. Runs with a context
// detached from cancellation so an interrupted build still cleans up.
func (ev *evaluation) destroy(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	for _, ctr := range ev.containers {
		ctr.Destroy(ctx)
	}
}

// Returns a container ID unique to this process, evaluation and container.
func (ev *evaluation) containerID() string {
	return fmt.Sprintf("%s-%d-%d-%d", ev.engine.prefix, os.Getpid(), ev.id, len(ev.containers)+1)
}

// Gathers the bind mounts of a lineage.
//
// Mounts are fixed when the container is created, so every mount in the
// lineage is visible from the first operation on. Targets resolve against
// the working directory in effect where the mount was added. Host paths
// must be existing directories.
func collectMounts(ops []pipeline.Op) ([]runtime.Mount, error) {
	var mounts []runtime.Mount
	workdir := ""

	for _, op := range ops {
		switch op.Kind {
		case pipeline.OpWorkdir:
			workdir = pipeline.Resolve(workdir, op.Path)

		case pipeline.OpMountDirectory:
			src, err := hostDir(op.Dir.Path)
			if err != nil {
				return nil, err
			}
			mounts = append(mounts, runtime.Mount{
				Source:   src,
				Target:   pipeline.Resolve(workdir, op.Path),
				ReadOnly: true,
			})
		}
	}

	return mounts, nil
}

// Returns the absolute form of a host directory path, failing when it does
// not exist or is not a directory.
func hostDir(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", abs)
	}

	return abs, nil
}
