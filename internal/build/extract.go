package build

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/albe2669/recipes/internal/paths"
	"github.com/albe2669/recipes/internal/runtime"
)

// Copies a regular file out of the container to dest on the host.
func exportFile(ctx context.Context, ctr *runtime.Container, srcPath, dest string) error {
	pr, pw := io.Pipe()

	errc := make(chan error, 1)
	go func() {
		err := ctr.CopyFrom(ctx, pw, srcPath)
		pw.CloseWithError(err)
		errc <- err
	}()

	extractErr := extractFile(pr, path.Base(srcPath), dest)

	// Drain so the archiver can finish even when extraction stopped early.
	io.Copy(io.Discard, pr)

	if err := <-errc; err != nil {
		return fmt.Errorf("%w: %s: %w", ErrExport, srcPath, err)
	}
	if extractErr != nil {
		return fmt.Errorf("%w: %s: %w", ErrExport, srcPath, extractErr)
	}

	return nil
}

// Reads a tar stream and writes the regular file entry called name to dest.
//
// The file is written to a temporary sibling of dest and renamed into
// place. Fails when the entry is missing or is not a regular file.
func extractFile(r io.Reader, name, dest string) error {
	tr := tar.NewReader(r)

	for {
		header, err := tr.Next()
		if err == io.EOF {
			return fmt.Errorf("%s not found in archive", name)
		}
		if err != nil {
			return err
		}

		if strings.TrimPrefix(header.Name, "./") != name {
			continue
		}
		if header.Typeflag != tar.TypeReg {
			return fmt.Errorf("%s is not a regular file", name)
		}

		return writeAtomic(dest, tr)
	}
}

// Writes r to path through a temporary file in the same directory.
func writeAtomic(dest string, r io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(paths.DefaultFileMode); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), dest)
}
