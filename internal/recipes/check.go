package recipes

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Leading bytes of every PDF file.
var pdfMagic = []byte("%PDF-")

// Extension chef assumes when a recipe is named without one.
const recipeExt = ".cook"

// Returns the absolute path of source, which must be an existing directory.
func checkSource(source string) (string, error) {
	if source == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidSource)
	}

	abs, err := filepath.Abs(source)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidSource, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidSource, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrInvalidSource, abs)
	}

	return abs, nil
}

// Checks that recipePath names a file inside source. The .cook extension
// may be omitted, as chef allows.
func checkRecipePath(source, recipePath string) error {
	if err := checkRelative(recipePath); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecipePath, err)
	}

	rel := filepath.FromSlash(path.Clean(filepath.ToSlash(recipePath)))
	candidates := []string{rel}
	if filepath.Ext(rel) != recipeExt {
		candidates = append(candidates, rel+recipeExt)
	}

	for _, c := range candidates {
		info, err := os.Stat(filepath.Join(source, c))
		if err == nil && info.Mode().IsRegular() {
			return nil
		}
	}

	return fmt.Errorf("%w: %s in %s", ErrRecipeNotFound, recipePath, source)
}

// Checks that the file at p starts with the PDF magic.
func checkPDF(p string) error {
	f, err := os.Open(p)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPDF, err)
	}
	defer f.Close()

	head := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(f, head); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidPDF, p, err)
	}
	if !bytes.Equal(head, pdfMagic) {
		return fmt.Errorf("%w: %s starts with %q", ErrInvalidPDF, p, strings.ToValidUTF8(string(head), "?"))
	}

	return nil
}

// Checks that markdown output contains an ATX heading line. Chef renders
// the recipe name as one, after any front matter.
func checkMarkdown(out string) error {
	for line := range strings.Lines(out) {
		trimmed := strings.TrimLeft(line, "#")
		n := len(line) - len(trimmed)
		if n >= 1 && n <= 6 && (trimmed == "" || strings.ContainsRune(" \t\r\n", rune(trimmed[0]))) {
			return nil
		}
	}
	return ErrNoHeading
}
