package recipes

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albe2669/recipes/internal/history"
	"github.com/albe2669/recipes/internal/pipeline"
)

// Engine stand-in that records what it was asked to evaluate.
type fakeEngine struct {
	stdout    string
	content   []byte
	err       error
	evaluated []*pipeline.Container
	exported  []*pipeline.File
}

func (e *fakeEngine) Stdout(_ context.Context, c *pipeline.Container) (string, error) {
	e.evaluated = append(e.evaluated, c)
	if e.err != nil {
		return "", e.err
	}
	return e.stdout, nil
}

func (e *fakeEngine) Export(_ context.Context, f *pipeline.File, dest string) (string, error) {
	e.exported = append(e.exported, f)
	if e.err != nil {
		return "", e.err
	}
	abs, err := filepath.Abs(dest)
	if err != nil {
		return "", err
	}
	return abs, os.WriteFile(abs, e.content, 0o644)
}

func (e *fakeEngine) Close() error { return nil }

type fakeRecorder struct {
	mu   sync.Mutex
	runs []history.Run
	err  error
}

func (r *fakeRecorder) Record(_ context.Context, run history.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	return r.err
}

func writeFile(t *testing.T, p, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func newSource(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Dinner", "Pasta.cook"), "Boil @water{1%l}.\n")
	return dir
}

func TestGetPDF(t *testing.T) {
	src := newSource(t)
	dest := filepath.Join(t.TempDir(), "book.pdf")
	engine := &fakeEngine{content: []byte("%PDF-1.5\n...")}
	rec := &fakeRecorder{}

	svc := New(engine, Options{Recorder: rec, EngineName: "fake"})
	got, err := svc.GetPDF(context.Background(), src, dest)
	require.NoError(t, err)
	assert.Equal(t, dest, got)

	require.Len(t, engine.exported, 1)
	assert.Equal(t, "/app/out/main.pdf", engine.exported[0].Path)

	require.Len(t, rec.runs, 1)
	assert.Equal(t, OpPDF, rec.runs[0].Operation)
	assert.Equal(t, src, rec.runs[0].Source)
	assert.Equal(t, dest, rec.runs[0].Target)
	assert.Equal(t, "fake", rec.runs[0].Engine)
	assert.Equal(t, history.StatusSucceeded, rec.runs[0].Status)
}

func TestGetPDFDefaultDest(t *testing.T) {
	src := newSource(t)
	t.Chdir(t.TempDir())

	engine := &fakeEngine{content: []byte("%PDF-1.7")}
	got, err := New(engine, Options{}).GetPDF(context.Background(), src, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(src)+".pdf", filepath.Base(got))
}

func TestGetPDFRejectsNonPDF(t *testing.T) {
	src := newSource(t)
	dest := filepath.Join(t.TempDir(), "book.pdf")
	engine := &fakeEngine{content: []byte("<html>")}
	rec := &fakeRecorder{}

	_, err := New(engine, Options{Recorder: rec}).GetPDF(context.Background(), src, dest)
	assert.ErrorIs(t, err, ErrInvalidPDF)
	assert.NoFileExists(t, dest)

	require.Len(t, rec.runs, 1)
	assert.Equal(t, history.StatusFailed, rec.runs[0].Status)
	assert.Contains(t, rec.runs[0].Error, "not a PDF")
}

func TestGetPDFBookBuilder(t *testing.T) {
	src := newSource(t)
	writeFile(t, filepath.Join(src, BookFile), "compiler: book-builder\nsource: vendor/bb\n")
	writeFile(t, filepath.Join(src, "vendor", "bb", "Cargo.toml"), "[package]\n")

	engine := &fakeEngine{content: []byte("%PDF-1.5")}
	_, err := New(engine, Options{}).GetPDF(context.Background(), src, filepath.Join(t.TempDir(), "b.pdf"))
	require.NoError(t, err)

	var tool *pipeline.File
	var compile pipeline.Op
	for _, op := range engine.exported[0].Container.Ops() {
		switch {
		case op.Kind == pipeline.OpFile:
			tool = op.File
		case op.Kind == pipeline.OpExec && op.Out != "":
			compile = op
		}
	}
	require.NotNil(t, tool)
	assert.Equal(t, "/src/target/release/book-builder", tool.Path)
	assert.Equal(t, RustImage, tool.Container.Base())

	assert.Equal(t, []string{"./book-builder", "-l", ".template/main.tex", "./Dinner"}, compile.Args)
	assert.NotContains(t, compile.Args, "-o")
	assert.Equal(t, "/app/out/main.tex", compile.Out)
}

func TestGetPDFInvalidBook(t *testing.T) {
	src := newSource(t)
	writeFile(t, filepath.Join(src, BookFile), "output: /tmp\n")

	engine := &fakeEngine{}
	_, err := New(engine, Options{}).GetPDF(context.Background(), src, "")
	assert.ErrorIs(t, err, ErrBook)
	assert.Empty(t, engine.exported)
}

func TestGetPDFInvalidSource(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	writeFile(t, file, "")

	for _, src := range []string{"", file, filepath.Join(t.TempDir(), "missing")} {
		_, err := New(&fakeEngine{}, Options{}).GetPDF(context.Background(), src, "")
		assert.ErrorIs(t, err, ErrInvalidSource, src)
	}
}

func TestGetMarkdown(t *testing.T) {
	src := newSource(t)
	engine := &fakeEngine{stdout: "# Pasta\n"}

	out, err := New(engine, Options{ChefVersion: "v0.9.0"}).GetMarkdown(context.Background(), src, "Dinner/Pasta.cook", nil)
	require.NoError(t, err)
	assert.Equal(t, "# Pasta\n", out)

	require.Len(t, engine.evaluated, 1)
	ctr := engine.evaluated[0]
	assert.Equal(t, AlpineImage, ctr.Base())
	assert.Equal(t, "/mnt", ctr.Workdir())

	cmds := execs(ctr)
	assert.Contains(t, cmds, []string{"curl", "-sSL", ChefURL("v0.9.0"), "-o", "/tmp/chef.tar.gz"})
	assert.Equal(t, []string{"chef", "recipe", "Dinner/Pasta.cook", "--format", "markdown"}, cmds[len(cmds)-1])
}

func TestGetMarkdownCustomContainer(t *testing.T) {
	src := newSource(t)
	engine := &fakeEngine{stdout: "# Pasta\n"}
	base := pipeline.From("ghcr.io/example/chef:latest")

	_, err := New(engine, Options{}).GetMarkdown(context.Background(), src, "Dinner/Pasta", base)
	require.NoError(t, err)
	assert.Equal(t, "ghcr.io/example/chef:latest", engine.evaluated[0].Base())
	assert.Empty(t, base.Ops())
}

func TestGetMarkdownEmptyOutput(t *testing.T) {
	src := newSource(t)
	engine := &fakeEngine{stdout: "  \n"}

	_, err := New(engine, Options{}).GetMarkdown(context.Background(), src, "Dinner/Pasta.cook", nil)
	assert.ErrorIs(t, err, ErrEmptyOutput)
}

func TestGetMarkdownRequiresHeading(t *testing.T) {
	src := newSource(t)
	engine := &fakeEngine{stdout: "Pasta\n  water 1 l\n"}

	_, err := New(engine, Options{}).GetMarkdown(context.Background(), src, "Dinner/Pasta.cook", nil)
	assert.ErrorIs(t, err, ErrNoHeading)
	assert.ErrorContains(t, err, "Dinner/Pasta.cook")
}

func TestCheckMarkdown(t *testing.T) {
	tests := []struct {
		name string
		out  string
		ok   bool
	}{
		{"title", "# Pasta\n", true},
		{"after front matter", "---\nservings: 2\n---\n\n## Pasta\r\n", true},
		{"bare hashes", "#\n", true},
		{"plain text", "Pasta\n  water 1 l\n", false},
		{"hashtag", "#pasta\n", false},
		{"too deep", "####### Pasta\n", false},
		{"indented", "    # Pasta\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkMarkdown(tt.out)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrNoHeading)
			}
		})
	}
}

func TestReadRecipe(t *testing.T) {
	src := newSource(t)
	engine := &fakeEngine{stdout: "Pasta\n  water 1 l\n"}

	out, err := New(engine, Options{}).ReadRecipe(context.Background(), src, "Dinner/Pasta.cook")
	require.NoError(t, err)
	assert.Equal(t, "Pasta\n  water 1 l\n", out)

	cmds := execs(engine.evaluated[0])
	assert.Equal(t, []string{"chef", "recipe", "Dinner/Pasta.cook"}, cmds[len(cmds)-1])
}

func TestRecipePathErrors(t *testing.T) {
	src := newSource(t)
	writeFile(t, filepath.Join(filepath.Dir(src), "outside.cook"), "")

	tests := []struct {
		path string
		err  error
	}{
		{"", ErrInvalidRecipePath},
		{"/etc/passwd", ErrInvalidRecipePath},
		{"../outside.cook", ErrInvalidRecipePath},
		{"Dinner/Missing.cook", ErrRecipeNotFound},
		{"Dinner", ErrRecipeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			engine := &fakeEngine{stdout: "x"}
			rec := &fakeRecorder{}

			_, err := New(engine, Options{Recorder: rec}).ReadRecipe(context.Background(), src, tt.path)
			assert.ErrorIs(t, err, tt.err)
			assert.Empty(t, engine.evaluated)
			require.Len(t, rec.runs, 1)
			assert.Equal(t, history.StatusFailed, rec.runs[0].Status)
		})
	}
}

func TestEngineErrorPropagates(t *testing.T) {
	src := newSource(t)
	boom := errors.New("boom")

	_, err := New(&fakeEngine{err: boom}, Options{}).GetMarkdown(context.Background(), src, "Dinner/Pasta.cook", nil)
	assert.ErrorIs(t, err, boom)
}

func TestRecorderFailureIgnored(t *testing.T) {
	src := newSource(t)
	rec := &fakeRecorder{err: errors.New("disk full")}

	out, err := New(&fakeEngine{stdout: "ok"}, Options{Recorder: rec}).ReadRecipe(context.Background(), src, "Dinner/Pasta")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Len(t, rec.runs, 1)
}
