package recipes

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultBook(t *testing.T) {
	b := DefaultBook()

	assert.Equal(t, ".template", b.Template)
	assert.Equal(t, []string{"Dinner"}, b.Collections)
	assert.Equal(t, "out", b.Output)
	assert.Equal(t, "main.tex", b.Main)
	assert.Equal(t, CompilerCooklatex, b.Compiler)
	assert.Empty(t, b.Source)
	assert.NoError(t, b.Validate())
}

func TestDefaultBookCompilerArgs(t *testing.T) {
	b := DefaultBook()

	args := b.compilerArgs("./cooklatex", b.outputPath())
	assert.Equal(t, []string{"./cooklatex", "-l", ".template", "-o", "/app/out", "./Dinner"}, args)
	assert.Equal(t, "/app/out", b.outputPath())
	assert.Equal(t, "main.pdf", b.pdfName())
}

func TestParseBook(t *testing.T) {
	src := `
compiler: book-builder
collections: [Breakfast, Dinner/Mains]
convert: metric
main: book.tex
`
	b, err := ParseBook(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, CompilerBookBuilder, b.Compiler)
	assert.Equal(t, "book-builder", b.Source)
	assert.Equal(t, "book.pdf", b.pdfName())
	assert.Equal(t,
		[]string{"./book-builder", "-l", ".template/book.tex", "--convert", "metric", "./Breakfast", "./Dinner/Mains"},
		b.compilerArgs("./book-builder", b.outputPath()),
	)
	assert.Equal(t, []string{".git", "out", "book-builder"}, b.excludes())
}

func TestParseBookEmpty(t *testing.T) {
	b, err := ParseBook(strings.NewReader("\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultBook(), b)
}

func TestParseBookErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown key", "title: Cookbook\n"},
		{"bad yaml", "collections: [\n"},
		{"absolute template", "template: /etc\n"},
		{"escaping output", "output: ../out\n"},
		{"escaping collection", "collections: [Dinner, ../../etc]\n"},
		{"main not tex", "main: main.md\n"},
		{"main in subdir", "main: sub/main.tex\n"},
		{"unknown compiler", "compiler: pandoc\n"},
		{"convert with cooklatex", "convert: metric\n"},
		{"unknown unit system", "compiler: book-builder\nconvert: furlongs\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBook(strings.NewReader(tt.src))
			assert.ErrorIs(t, err, ErrBook)
		})
	}
}

func TestLoadBookMissing(t *testing.T) {
	b, err := LoadBook(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultBook(), b)
}

func TestLoadBook(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, BookFile), []byte("output: build\n"), 0o644))

	b, err := LoadBook(dir)
	require.NoError(t, err)
	assert.Equal(t, "/app/build", b.outputPath())
}

func TestCheckRelative(t *testing.T) {
	tests := []struct {
		path string
		ok   bool
	}{
		{"Dinner", true},
		{"Dinner/Pasta.cook", true},
		{"./Dinner/../Lunch", true},
		{"", false},
		{"  ", false},
		{"/abs", false},
		{"..", false},
		{"../x", false},
		{"a/../../x", false},
	}

	for _, tt := range tests {
		err := checkRelative(tt.path)
		if tt.ok {
			assert.NoError(t, err, tt.path)
		} else {
			assert.Error(t, err, tt.path)
		}
	}
}
