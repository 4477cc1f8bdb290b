package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/albe2669/recipes/internal"
	"github.com/albe2669/recipes/internal/build"
	"github.com/albe2669/recipes/internal/dag"
	"github.com/albe2669/recipes/internal/history"
	"github.com/albe2669/recipes/internal/images"
	"github.com/albe2669/recipes/internal/paths"
	"github.com/albe2669/recipes/internal/pipeline"
	"github.com/albe2669/recipes/internal/recipes"
	"github.com/albe2669/recipes/internal/runtime"
)

const (
	engineContainerd = "containerd"
	engineDagger     = "dagger"
)

// An engine, optional run history, and the service bound to them.
type session struct {
	engine  pipeline.Engine
	history *history.Store
	service *recipes.Service
}

// Opens the configured engine and history and binds a service to them.
// The session must be closed.
func openSession(ctx context.Context) (*session, error) {
	engine, err := openEngine(ctx)
	if err != nil {
		return nil, err
	}

	s := &session{engine: engine}
	opts := recipes.Options{
		ChefVersion: RootCmd.ChefVersion,
		EngineName:  RootCmd.Engine,
	}

	if !RootCmd.NoHistory {
		store, err := history.Open(paths.History())
		if err != nil {
			slog.Warn("run history unavailable", "error", err)
		} else {
			s.history = store
			opts.Recorder = store
		}
	}

	s.service = recipes.New(engine, opts)
	return s, nil
}

// Releases the engine and the history database.
func (s *session) Close() error {
	var errs []error
	if err := s.engine.Close(); err != nil {
		errs = append(errs, err)
	}
	if s.history != nil {
		if err := s.history.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Opens the engine selected by --engine.
func openEngine(ctx context.Context) (pipeline.Engine, error) {
	switch RootCmd.Engine {
	case engineContainerd:
		rt, err := runtime.New(RootCmd.ContainerdAddress, RootCmd.Namespace)
		if err != nil {
			return nil, err
		}
		slog.Debug("using containerd engine", "address", RootCmd.ContainerdAddress, "namespace", RootCmd.Namespace)
		return build.New(rt, images.NewStore(paths.Images()), build.Options{
			Platform: RootCmd.Platform,
			Prefix:   internal.Name,
		}), nil

	case engineDagger:
		var logOutput io.Writer
		if internal.IsVerbose() {
			logOutput = os.Stderr
		}
		e, err := dag.Connect(ctx, logOutput)
		if err != nil {
			return nil, err
		}
		slog.Debug("using dagger engine")
		return e, nil

	default:
		return nil, fmt.Errorf("unknown engine %q", RootCmd.Engine)
	}
}

// Returns the daemon socket to dial or listen on.
func socketPath() string {
	if RootCmd.Socket != "" {
		return RootCmd.Socket
	}
	return paths.Socket()
}
