// Package dag evaluates pipeline lineages on a Dagger engine.
//
// Lineages translate one-to-one onto the Dagger container API, so this
// package is a thin adapter: it connects a session, converts a lineage to
// a *dagger.Container, and asks Dagger for stdout or a file export. Dagger
// brings its own caching and image pulls; none of the containerd plumbing
// is involved.
package dag

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"

	"dagger.io/dagger"

	"github.com/albe2669/recipes/internal/pipeline"
)

// Evaluates lineages through a Dagger session. Implements
// [pipeline.Engine].
type Engine struct {
	client *dagger.Client
}

var _ pipeline.Engine = (*Engine)(nil)

// Connects to the Dagger engine, starting one if needed. Engine progress
// is written to logOutput when it is non-nil.
func Connect(ctx context.Context, logOutput io.Writer) (*Engine, error) {
	var opts []dagger.ClientOpt
	if logOutput != nil {
		opts = append(opts, dagger.WithLogOutput(logOutput))
	}

	client, err := dagger.Connect(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to dagger: %w", err)
	}

	return &Engine{client: client}, nil
}

// Runs the lineage and returns the standard output of its last exec.
func (e *Engine) Stdout(ctx context.Context, c *pipeline.Container) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}

	ctr, err := newTranslator(e.client).container(c)
	if err != nil {
		return "", err
	}

	return ctr.Stdout(ctx)
}

// Runs the lineage owning f and exports the file to dest on the host.
func (e *Engine) Export(ctx context.Context, f *pipeline.File, dest string) (string, error) {
	if f == nil {
		return "", fmt.Errorf("%w: nil file", pipeline.ErrInvalidPipeline)
	}
	if err := f.Container.Validate(); err != nil {
		return "", err
	}

	dest, err := filepath.Abs(dest)
	if err != nil {
		return "", err
	}

	ctr, err := newTranslator(e.client).container(f.Container)
	if err != nil {
		return "", err
	}

	return ctr.File(f.Path).Export(ctx, dest)
}

// Closes the Dagger session.
func (e *Engine) Close() error {
	return e.client.Close()
}

// Converts lineages to Dagger containers, translating each lineage once.
type translator struct {
	client *dagger.Client
	seen   map[*pipeline.Container]*dagger.Container
}

func newTranslator(client *dagger.Client) *translator {
	return &translator{
		client: client,
		seen:   make(map[*pipeline.Container]*dagger.Container),
	}
}

func (t *translator) container(c *pipeline.Container) (*dagger.Container, error) {
	if ctr, ok := t.seen[c]; ok {
		return ctr, nil
	}

	ctr := t.client.Container().From(c.Base())
	for _, op := range c.Ops() {
		next, err := t.apply(ctr, op)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", pipeline.ErrInvalidPipeline, op, err)
		}
		ctr = next
	}

	t.seen[c] = ctr
	return ctr, nil
}

func (t *translator) apply(ctr *dagger.Container, op pipeline.Op) (*dagger.Container, error) {
	switch op.Kind {
	case pipeline.OpExec:
		return ctr.WithExec(op.Args, execOpts(op)...), nil
	case pipeline.OpWorkdir:
		return ctr.WithWorkdir(op.Path), nil
	case pipeline.OpEnv:
		return ctr.WithEnvVariable(op.Name, op.Value), nil
	case pipeline.OpDirectory:
		return ctr.WithDirectory(op.Path, t.hostDirectory(op.Dir)), nil
	case pipeline.OpMountDirectory:
		return ctr.WithMountedDirectory(op.Path, t.hostDirectory(op.Dir)), nil
	case pipeline.OpFile:
		src, err := t.container(op.File.Container)
		if err != nil {
			return nil, err
		}
		return ctr.WithFile(op.Path, src.File(op.File.Path), fileOpts(op.Perm)...), nil
	default:
		return nil, fmt.Errorf("unsupported operation %s", op.Kind)
	}
}

func (t *translator) hostDirectory(d *pipeline.Directory) *dagger.Directory {
	return t.client.Host().Directory(d.Path, dagger.HostDirectoryOpts{
		Exclude: d.Exclude,
	})
}

// Returns the WithExec options for a stdout redirect.
func execOpts(op pipeline.Op) []dagger.ContainerWithExecOpts {
	if op.Out == "" {
		return nil
	}
	return []dagger.ContainerWithExecOpts{{RedirectStdout: op.Out}}
}

// Returns the WithFile options for a permission override.
func fileOpts(perm fs.FileMode) []dagger.ContainerWithFileOpts {
	if perm == 0 {
		return nil
	}
	return []dagger.ContainerWithFileOpts{{Permissions: int(perm.Perm())}}
}
