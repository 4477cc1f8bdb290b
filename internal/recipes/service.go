package recipes

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/albe2669/recipes/internal/history"
	"github.com/albe2669/recipes/internal/pipeline"
)

// Operation names, as recorded in the run history.
const (
	OpPDF      = "pdf"
	OpMarkdown = "markdown"
	OpRecipe   = "recipe"
)

// Chef output format for markdown rendering.
const markdownFormat = "markdown"

// Stores a record of every operation.
type Recorder interface {
	Record(ctx context.Context, run history.Run) error
}

// Configures a [Service].
type Options struct {
	ChefVersion string   // Chef release to download. Defaults to [DefaultChefVersion].
	EngineName  string   // Engine label stored in run records.
	Recorder    Recorder // Optional run history.
}

// Runs the recipe operations on an engine.
type Service struct {
	engine      pipeline.Engine
	chefVersion string
	engineName  string
	recorder    Recorder
}

// Creates a service evaluating lineages on engine.
func New(engine pipeline.Engine, opts Options) *Service {
	if opts.ChefVersion == "" {
		opts.ChefVersion = DefaultChefVersion
	}

	return &Service{
		engine:      engine,
		chefVersion: opts.ChefVersion,
		engineName:  opts.EngineName,
		recorder:    opts.Recorder,
	}
}

// Returns a fresh chef container, the default environment for
// [Service.GetMarkdown].
func (s *Service) ChefContainer() *pipeline.Container {
	return DownloadChef(s.chefVersion)
}

// Builds the book lineage for source without running it.
func (s *Service) PDF(source string, book *Book) *pipeline.File {
	return Typeset(RunCompiler(LatexEnv(), s.compiler(source, book), source, book), book)
}

// Builds the book in source and writes the PDF to dest.
//
// An empty dest writes <source name>.pdf in the current directory. The
// exported file must start with the PDF magic; anything else is reported
// as [ErrInvalidPDF].
func (s *Service) GetPDF(ctx context.Context, source, dest string) (path string, err error) {
	started := time.Now()
	defer func() { s.record(ctx, OpPDF, source, path, started, err) }()

	root, err := checkSource(source)
	if err != nil {
		return "", err
	}

	book, err := LoadBook(root)
	if err != nil {
		return "", err
	}

	if dest == "" {
		dest = filepath.Base(root) + ".pdf"
	}

	slog.Info("building book",
		"source", root,
		"compiler", book.Compiler,
		"collections", book.Collections,
		"dest", dest,
	)

	path, err = s.engine.Export(ctx, s.PDF(root, book), dest)
	if err != nil {
		return "", err
	}

	if err := checkPDF(path); err != nil {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			slog.Warn("failed to remove rejected output", "path", path, "error", rmErr)
		}
		return "", err
	}

	return path, nil
}

// Renders a recipe as markdown with chef.
//
// When ctr is nil a chef container is created with [Service.ChefContainer];
// a caller-provided container must have chef on its PATH.
func (s *Service) GetMarkdown(ctx context.Context, source, recipePath string, ctr *pipeline.Container) (out string, err error) {
	started := time.Now()
	defer func() { s.record(ctx, OpMarkdown, source, recipePath, started, err) }()

	if ctr == nil {
		ctr = s.ChefContainer()
	}

	out, err = s.runChef(ctx, ctr, source, recipePath, markdownFormat)
	if err != nil {
		return "", err
	}

	if err := checkMarkdown(out); err != nil {
		return "", fmt.Errorf("%w: chef recipe %s", err, recipePath)
	}

	return out, nil
}

// Returns chef's default rendering of a recipe.
func (s *Service) ReadRecipe(ctx context.Context, source, recipePath string) (out string, err error) {
	started := time.Now()
	defer func() { s.record(ctx, OpRecipe, source, recipePath, started, err) }()

	return s.runChef(ctx, s.ChefContainer(), source, recipePath, "")
}

func (s *Service) runChef(ctx context.Context, ctr *pipeline.Container, source, recipePath, format string) (string, error) {
	root, err := checkSource(source)
	if err != nil {
		return "", err
	}

	if err := checkRecipePath(root, recipePath); err != nil {
		return "", err
	}

	slog.Info("rendering recipe", "source", root, "recipe", recipePath, "format", format)

	out, err := s.engine.Stdout(ctx, RunChef(ctr, root, recipePath, format))
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("%w: chef recipe %s", ErrEmptyOutput, recipePath)
	}

	return out, nil
}

// Returns the lineage producing the book's compiler binary.
func (s *Service) compiler(source string, book *Book) *pipeline.File {
	if book.Compiler == CompilerBookBuilder {
		return BuildFromSource(filepath.Join(source, filepath.FromSlash(book.Source)), string(CompilerBookBuilder))
	}
	return DownloadCooklatex()
}

// Writes a run record. Failures are logged and otherwise ignored so the
// history never masks the operation's own result.
func (s *Service) record(ctx context.Context, op, source, target string, started time.Time, err error) {
	if s.recorder == nil {
		return
	}

	run := history.Run{
		Operation: op,
		Source:    source,
		Target:    target,
		Engine:    s.engineName,
		Status:    history.StatusSucceeded,
		StartedAt: started,
		Duration:  time.Since(started),
	}
	if err != nil {
		run.Status = history.StatusFailed
		run.Error = err.Error()
	}

	if rerr := s.recorder.Record(context.WithoutCancel(ctx), run); rerr != nil {
		slog.Warn("failed to record run", "operation", op, "error", rerr)
	}
}
