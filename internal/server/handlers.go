package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/albe2669/recipes/internal"
	"github.com/albe2669/recipes/internal/protocol"
)

// Handles a pdf command.
func (s *Server) handlePDF(ctx context.Context, conn net.Conn, payload json.RawMessage) {
	req, err := protocol.DecodePayload[protocol.PDFRequest](payload)
	if err != nil {
		s.fail(conn, err)
		return
	}

	if err := checkAbs("source", req.Source); err != nil {
		s.fail(conn, err)
		return
	}
	if req.Output != "" {
		if err := checkAbs("output", req.Output); err != nil {
			s.fail(conn, err)
			return
		}
	}

	path, err := s.service.GetPDF(ctx, req.Source, req.Output)
	s.count()
	if err != nil {
		s.fail(conn, err)
		return
	}

	s.respond(conn, protocol.CmdOK, &protocol.PDFResult{Path: path})
}

// Handles a markdown command with the service's default chef container.
func (s *Server) handleMarkdown(ctx context.Context, conn net.Conn, payload json.RawMessage) {
	s.handleText(conn, payload, func(req *protocol.RecipeRequest) (string, error) {
		return s.service.GetMarkdown(ctx, req.Source, req.Recipe, nil)
	})
}

// Handles a recipe command.
func (s *Server) handleRecipe(ctx context.Context, conn net.Conn, payload json.RawMessage) {
	s.handleText(conn, payload, func(req *protocol.RecipeRequest) (string, error) {
		return s.service.ReadRecipe(ctx, req.Source, req.Recipe)
	})
}

func (s *Server) handleText(conn net.Conn, payload json.RawMessage, run func(*protocol.RecipeRequest) (string, error)) {
	req, err := protocol.DecodePayload[protocol.RecipeRequest](payload)
	if err != nil {
		s.fail(conn, err)
		return
	}

	if err := checkAbs("source", req.Source); err != nil {
		s.fail(conn, err)
		return
	}

	text, err := run(req)
	s.count()
	if err != nil {
		s.fail(conn, err)
		return
	}

	s.respond(conn, protocol.CmdOK, &protocol.TextResult{Text: text})
}

// Handles a history command.
func (s *Server) handleHistory(ctx context.Context, conn net.Conn, payload json.RawMessage) {
	if s.history == nil {
		s.fail(conn, fmt.Errorf("%w: history is disabled", ErrRequest))
		return
	}

	req, err := protocol.DecodePayload[protocol.HistoryRequest](payload)
	if err != nil {
		s.fail(conn, err)
		return
	}

	runs, err := s.history.List(ctx, req.Limit)
	if err != nil {
		s.fail(conn, err)
		return
	}

	s.respond(conn, protocol.CmdOK, &protocol.HistoryResult{Runs: runs})
}

// Handles a status command.
func (s *Server) handleStatus(conn net.Conn) {
	s.mu.Lock()
	runs := s.runs
	s.mu.Unlock()

	s.respond(conn, protocol.CmdOK, &protocol.StatusResult{
		Running: true,
		Version: internal.VersionString(),
		Pid:     os.Getpid(),
		Engine:  s.engineName,
		Uptime:  time.Since(s.startedAt).Truncate(time.Second),
		Runs:    runs,
	})
}

// Handles a shutdown command.
func (s *Server) handleShutdown(conn net.Conn) {
	s.respond(conn, protocol.CmdOK, nil)
	slog.Info("shutdown requested")

	go func() {
		s.Stop()
	}()
}

func (s *Server) count() {
	s.mu.Lock()
	s.runs++
	s.mu.Unlock()
}

// Paths travel between processes with different working directories, so
// relative ones are ambiguous.
func checkAbs(field, p string) error {
	if !filepath.IsAbs(p) {
		return fmt.Errorf("%w: %s must be an absolute path, got %q", ErrRequest, field, p)
	}
	return nil
}
