package runtime

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"

	containerd "github.com/containerd/containerd/v2/client"
	"github.com/containerd/containerd/v2/pkg/cio"
	specs "github.com/opencontainers/runtime-spec/specs-go"
)

// Exec process IDs only need to be unique within a task.
var execSeq atomic.Uint64

func nextExecID() string {
	return "exec-" + strconv.FormatUint(execSeq.Add(1), 10)
}

// Output of a command execution inside a container.
type ExecResult struct {
	ExitCode int    // Exit code of the process.
	Stdout   string // Captured standard output.
	Stderr   string // Captured standard error.
}

// Runs args directly inside the container, without a shell.
//
// Environment variables are merged over the container's OCI spec and
// workdir, when set, replaces its working directory for this execution
// only. A non-zero exit code is reported in the result, not as an error.
func (c *Container) Exec(ctx context.Context, args []string, env []string, workdir string) (*ExecResult, error) {
	var stdout bytes.Buffer
	exitCode, stderr, err := c.execCommand(ctx, nil, &stdout, env, workdir, args...)
	if err != nil {
		return nil, err
	}

	return &ExecResult{
		ExitCode: exitCode,
		Stdout:   stdout.String(),
		Stderr:   stderr,
	}, nil
}

// Loads the container's OCI spec and derives the process spec for an exec.
func (c *Container) buildProcessSpec(ctx context.Context, env []string, workdir string, args ...string) (*specs.Process, error) {
	ctr, err := c.client.LoadContainer(ctx, c.id)
	if err != nil {
		return nil, err
	}

	spec, err := ctr.Spec(ctx)
	if err != nil {
		return nil, err
	}
	if spec.Process == nil {
		return nil, fmt.Errorf("container %s has no process spec", c.id)
	}

	return execSpec(spec.Process, env, workdir, args), nil
}

// Returns a copy of base running args without a terminal. A non-empty env
// is merged over the image environment and a non-empty workdir replaces
// the image's.
func execSpec(base *specs.Process, env []string, workdir string, args []string) *specs.Process {
	pspec := *base
	pspec.Terminal = false
	pspec.Args = slices.Clone(args)
	pspec.Env = mergeEnv(base.Env, env)

	if workdir != "" {
		pspec.Cwd = workdir
	}

	return &pspec
}

// Merges override env vars on top of a base env slice.
//
// Keys keep the position of their first appearance in base; keys new to
// base follow in override order. Entries without "=" are dropped.
func mergeEnv(base, overrides []string) []string {
	result := make([]string, 0, len(base)+len(overrides))
	index := make(map[string]int, len(base)+len(overrides))

	for _, entry := range slices.Concat(base, overrides) {
		k, _, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if i, seen := index[k]; seen {
			result[i] = entry
			continue
		}
		index[k] = len(result)
		result = append(result, entry)
	}

	return result
}

// Runs a command inside the container, returning the exit code and captured
// stderr. Builds the process spec from args, then delegates to execProcess.
// A non-zero exit code is not treated as an error; the caller decides.
func (c *Container) execCommand(ctx context.Context, stdin io.Reader, stdout io.Writer, env []string, workdir string, args ...string) (int, string, error) {
	pspec, err := c.buildProcessSpec(ctx, env, workdir, args...)
	if err != nil {
		return 0, "", fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	var stderr bytes.Buffer
	exitCode, err := c.execProcess(ctx, pspec, stdin, stdout, &stderr)
	if err != nil {
		return 0, "", err
	}
	return exitCode, stderr.String(), nil
}

// Starts a process as an additional exec of the container's running task,
// waits for it to exit, and returns the exit code.
//
// Nil stdout and stderr are replaced with io.Discard; a nil stdin is left
// disconnected. When stdin is provided, the process stdin is closed once
// the reader ends: the containerd shim holds both ends of the FIFO open and
// never propagates EOF on its own. A stdin read error kills the process and
// is returned.
func (c *Container) execProcess(ctx context.Context, pspec *specs.Process, stdin io.Reader, stdout, stderr io.Writer) (int, error) {
	task, err := c.loadTask(ctx)
	if err != nil {
		return 0, err
	}

	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	// Wrap stdin to detect when the reader ends.
	var dr *doneReader
	if stdin != nil {
		dr = newDoneReader(stdin)
		stdin = dr
	}

	process, err := task.Exec(ctx, nextExecID(), pspec, cio.NewCreator(
		cio.WithStreams(stdin, stdout, stderr),
	))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	return awaitProcess(ctx, process, dr)
}

// Loads the container's running task.
func (c *Container) loadTask(ctx context.Context) (containerd.Task, error) {
	ctr, err := c.client.LoadContainer(ctx, c.id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	task, err := ctr.Task(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	return task, nil
}

// Waits for an exec process to exit and returns the exit code.
//
// The process is started, then the function blocks until it exits. If
// stdin is non-nil it is watched with [watchStdin], and a read error on it
// fails the exec whatever the exit code. The process is always deleted
// before returning.
func awaitProcess(ctx context.Context, process containerd.Process, stdin *doneReader) (int, error) {
	statusC, err := process.Wait(ctx)
	if err != nil {
		process.Delete(ctx)
		return 0, fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	if err := process.Start(ctx); err != nil {
		process.Delete(ctx)
		return 0, fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	exited := make(chan struct{})
	if stdin != nil {
		go watchStdin(ctx, process, stdin, exited)
	}

	exitStatus := <-statusC
	close(exited)
	process.Delete(ctx)

	if stdin != nil {
		if err := stdin.Err(); err != nil {
			return 0, fmt.Errorf("%w: stdin: %w", ErrRuntime, err)
		}
	}

	code, _, err := exitStatus.Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	return int(code), nil
}

// The parts of a [containerd.Process] that stdin handling needs.
type stdinProcess interface {
	CloseIO(ctx context.Context, opts ...containerd.IOCloserOpts) error
	Kill(ctx context.Context, sig syscall.Signal, opts ...containerd.KillOpts) error
}

// Closes the process stdin once stdin ends, and kills the process when it
// ended with a read error: a truncated stream can leave the process
// waiting for input that never comes. Returns early if the process exits
// first.
func watchStdin(ctx context.Context, p stdinProcess, stdin *doneReader, exited <-chan struct{}) {
	select {
	case <-stdin.done:
	case <-exited:
		return
	}

	p.CloseIO(ctx, containerd.WithStdinCloser)
	if stdin.Err() != nil {
		p.Kill(ctx, syscall.SIGKILL)
	}
}
