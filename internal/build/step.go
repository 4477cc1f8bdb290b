package build

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/albe2669/recipes/internal/pipeline"
	"github.com/albe2669/recipes/internal/runtime"
)

// Executes a lineage's operations in order against the container.
func executeOps(ctx context.Context, ev *evaluation, ctr *runtime.Container, ops []pipeline.Op, state *stepState) error {
	for i, op := range ops {
		if err := executeOp(ctx, ev, ctr, op, state); err != nil {
			return fmt.Errorf("%w: op %d (%s): %w", ErrBuild, i+1, op, err)
		}
	}
	return nil
}

// Executes a single operation, dispatching on its kind.
func executeOp(ctx context.Context, ev *evaluation, ctr *runtime.Container, op pipeline.Op, state *stepState) error {
	switch op.Kind {
	case pipeline.OpWorkdir, pipeline.OpEnv:
		state.apply(op)
		return nil

	case pipeline.OpMountDirectory:
		// Applied when the container was created.
		return nil

	case pipeline.OpExec:
		return executeExec(ctx, ctr, op, state)

	case pipeline.OpDirectory:
		return executeHostCopy(ctx, ctr, op.Dir, state.resolve(op.Path))

	case pipeline.OpFile:
		src, err := ev.realize(ctx, op.File.Container)
		if err != nil {
			return err
		}
		return executeFileCopy(ctx, src.ctr, ctr, op.File.Path, state.resolve(op.Path), op.Perm)

	default:
		return fmt.Errorf("unsupported operation %s", op.Kind)
	}
}

// Runs a command with the accumulated environment and working directory.
// Its stdout is recorded in the state, or written to op.Out inside the
// container when the op redirects it.
func executeExec(ctx context.Context, ctr *runtime.Container, op pipeline.Op, state *stepState) error {
	args := op.Args

	if state.workdir != "" {
		if err := ctr.MkdirAll(ctx, state.workdir); err != nil {
			return err
		}
	}

	slog.Debug("exec", "args", args, "workdir", state.workdir)

	result, err := ctr.Exec(ctx, args, state.environ(), state.workdir)
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("%w: %s: exit code %d: %s", ErrCommandFailed, args[0], result.ExitCode, strings.TrimSpace(result.Stderr))
	}

	if op.Out == "" {
		state.stdout = result.Stdout
		return nil
	}

	if err := ctr.MkdirAll(ctx, path.Dir(op.Out)); err != nil {
		return err
	}
	if err := ctr.WriteFile(ctx, op.Out, strings.NewReader(result.Stdout)); err != nil {
		return err
	}
	state.stdout = ""
	return nil
}
