package recipes

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Name of the optional manifest at the root of a book source.
const BookFile = "book.yaml"

// Program that turns recipe collections into LaTeX.
type Compiler string

const (

	// Release binary downloaded from GitHub.
	CompilerCooklatex Compiler = "cooklatex"

	// Compiled from a vendored crate inside the book source.
	CompilerBookBuilder Compiler = "book-builder"
)

// Unit systems book-builder can convert quantities to.
var unitSystems = []string{"metric", "imperial"}

// Describes how to build a book from a source directory.
//
// All paths are relative to the source root and must stay inside it.
type Book struct {
	Template    string   `yaml:"template"`    // LaTeX template directory.
	Collections []string `yaml:"collections"` // Recipe directories, in book order.
	Output      string   `yaml:"output"`      // Directory the compiler writes LaTeX to.
	Main        string   `yaml:"main"`        // Top-level .tex file in Output.
	Compiler    Compiler `yaml:"compiler"`    // cooklatex (default) or book-builder.
	Source      string   `yaml:"source"`      // Vendored book-builder crate.
	Convert     string   `yaml:"convert"`     // Unit system, book-builder only.
}

// Returns the book used when a source has no manifest.
func DefaultBook() *Book {
	b := &Book{}
	b.applyDefaults()
	return b
}

// Reads book.yaml from root. A missing manifest yields [DefaultBook].
func LoadBook(root string) (*Book, error) {
	f, err := os.Open(filepath.Join(root, BookFile))
	if errors.Is(err, os.ErrNotExist) {
		return DefaultBook(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBook, err)
	}
	defer f.Close()

	return ParseBook(f)
}

// Decodes a manifest, fills in defaults, and validates it. Unknown keys
// are rejected.
func ParseBook(r io.Reader) (*Book, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBook, err)
	}

	b := &Book{}
	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(b); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBook, err)
		}
	}

	b.applyDefaults()
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Book) applyDefaults() {
	if b.Template == "" {
		b.Template = ".template"
	}
	if len(b.Collections) == 0 {
		b.Collections = []string{"Dinner"}
	}
	if b.Output == "" {
		b.Output = "out"
	}
	if b.Main == "" {
		b.Main = "main.tex"
	}
	if b.Compiler == "" {
		b.Compiler = CompilerCooklatex
	}
	if b.Source == "" && b.Compiler == CompilerBookBuilder {
		b.Source = "book-builder"
	}
}

// Checks paths, compiler and unit system.
func (b *Book) Validate() error {
	fields := map[string]string{
		"template": b.Template,
		"output":   b.Output,
	}
	for i, c := range b.Collections {
		fields[fmt.Sprintf("collections[%d]", i)] = c
	}
	if b.Source != "" {
		fields["source"] = b.Source
	}

	for field, p := range fields {
		if err := checkRelative(p); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrBook, field, err)
		}
	}

	if strings.ContainsRune(b.Main, '/') || path.Ext(b.Main) != ".tex" {
		return fmt.Errorf("%w: main: %q must be a .tex file name", ErrBook, b.Main)
	}

	switch b.Compiler {
	case CompilerCooklatex:
		if b.Convert != "" {
			return fmt.Errorf("%w: convert is only supported by %s", ErrBook, CompilerBookBuilder)
		}
	case CompilerBookBuilder:
		if b.Convert != "" && !slices.Contains(unitSystems, b.Convert) {
			return fmt.Errorf("%w: convert: unknown unit system %q", ErrBook, b.Convert)
		}
	default:
		return fmt.Errorf("%w: compiler: unknown compiler %q", ErrBook, b.Compiler)
	}

	return nil
}

// Returns the compiler command line. cooklatex takes the template and the
// output directory; book-builder takes the template's main file and prints
// the LaTeX to stdout, which the caller redirects into the output directory.
// Collections follow in order.
func (b *Book) compilerArgs(tool, output string) []string {
	var args []string
	switch b.Compiler {
	case CompilerBookBuilder:
		args = []string{tool, "-l", path.Join(filepath.ToSlash(b.Template), b.Main)}
		if b.Convert != "" {
			args = append(args, "--convert", b.Convert)
		}
	default:
		args = []string{tool, "-l", b.Template, "-o", output}
	}
	for _, c := range b.Collections {
		args = append(args, "./"+path.Clean(filepath.ToSlash(c)))
	}
	return args
}

// Absolute path of the output directory inside the build container.
func (b *Book) outputPath() string {
	return path.Join(appPath, filepath.ToSlash(b.Output))
}

// File name tectonic produces for Main.
func (b *Book) pdfName() string {
	return strings.TrimSuffix(b.Main, ".tex") + ".pdf"
}

// Patterns left out when the source is copied into the build container: a
// stale host output directory, VCS metadata, and the vendored compiler.
func (b *Book) excludes() []string {
	ex := []string{".git", path.Clean(filepath.ToSlash(b.Output))}
	if b.Compiler == CompilerBookBuilder && b.Source != "" {
		ex = append(ex, path.Clean(filepath.ToSlash(b.Source)))
	}
	return ex
}

// Rejects empty, absolute, and escaping paths.
func checkRelative(p string) error {
	if strings.TrimSpace(p) == "" {
		return errors.New("empty path")
	}
	if filepath.IsAbs(p) || path.IsAbs(p) {
		return fmt.Errorf("%q must be relative to the source root", p)
	}
	clean := path.Clean(filepath.ToSlash(p))
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("%q escapes the source root", p)
	}
	return nil
}

