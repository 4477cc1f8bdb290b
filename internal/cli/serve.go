package cli

import (
	"context"
	"log/slog"

	"github.com/albe2669/recipes/internal"
	"github.com/albe2669/recipes/internal/server"
)

// Represents the 'recipes serve' command.
type ServeCmd struct{}

// Executes the serve command.
//
// Opens the engine once, serves requests on a Unix domain socket, and
// blocks until the context is cancelled (e.g. via SIGINT or SIGTERM) or a
// client sends shutdown.
func (c *ServeCmd) Run(ctx context.Context) error {
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	cfg := server.Config{
		SocketPath: RootCmd.Socket,
		EngineName: RootCmd.Engine,
	}
	if s.history != nil {
		cfg.History = s.history
	}

	srv := server.New(s.service, cfg)
	if err := srv.Start(); err != nil {
		return err
	}

	slog.Info(internal.Name+" daemon is running", "version", internal.VersionString())

	done := make(chan struct{})
	go func() {
		srv.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
	case <-done:
	}

	slog.Info("shutting down")
	return srv.Stop()
}
