package build

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/albe2669/recipes/internal/pipeline"
	"github.com/albe2669/recipes/internal/runtime"
)

// Copies a host directory into the container so that its contents appear
// at dest.
//
// The directory is streamed as a tar archive rooted at the base name of
// dest and extracted into dest's parent. Excluded entries are skipped.
func executeHostCopy(ctx context.Context, ctr *runtime.Container, dir *pipeline.Directory, dest string) error {
	if dest == "/" {
		return fmt.Errorf("%w: cannot replace the container root", ErrCopy)
	}

	src, err := hostDir(dir.Path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCopy, err)
	}

	if err := ctr.MkdirAll(ctx, path.Dir(dest)); err != nil {
		return fmt.Errorf("%w: %w", ErrCopy, err)
	}

	slog.Debug("copy directory", "src", src, "dest", dest, "exclude", dir.Exclude)

	pr, pw := io.Pipe()

	go func() {
		tw := tar.NewWriter(pw)
		writeErr := writeDirToTar(tw, src, path.Base(dest), dir.Excluded)
		if closeErr := tw.Close(); writeErr == nil {
			writeErr = closeErr
		}
		pw.CloseWithError(writeErr)
	}()

	if err := ctr.CopyTo(ctx, pr, path.Dir(dest)); err != nil {
		pr.CloseWithError(err)
		return fmt.Errorf("%w: %w", ErrCopy, err)
	}

	return nil
}

// Copies a file from one container into another, renaming it to the base
// of dest and applying perm when non-zero.
//
// The tar stream from the source container is rewritten on the fly so the
// entry lands under its new name.
func executeFileCopy(ctx context.Context, src, dst *runtime.Container, srcPath, dest string, perm fs.FileMode) error {
	if err := dst.MkdirAll(ctx, path.Dir(dest)); err != nil {
		return fmt.Errorf("%w: %w", ErrCopy, err)
	}

	slog.Debug("copy file", "from", src.ID(), "src", srcPath, "to", dst.ID(), "dest", dest)

	archived, aw := io.Pipe()
	renamed, rw := io.Pipe()

	errc := make(chan error, 1)
	go func() {
		err := src.CopyFrom(ctx, aw, srcPath)
		aw.CloseWithError(err)
		errc <- err
	}()

	go func() {
		err := renameTar(archived, rw, path.Base(srcPath), path.Base(dest))
		rw.CloseWithError(err)
		if err != nil {
			archived.CloseWithError(err)
		}
	}()

	if err := dst.CopyTo(ctx, renamed, path.Dir(dest)); err != nil {
		// The source exec is torn down with its container; don't wait on it.
		renamed.CloseWithError(err)
		return fmt.Errorf("%w: %w", ErrCopy, err)
	}

	if err := <-errc; err != nil {
		return fmt.Errorf("%w: %w", ErrCopy, err)
	}

	if perm != 0 {
		if err := dst.Chmod(ctx, dest, perm); err != nil {
			return fmt.Errorf("%w: %w", ErrCopy, err)
		}
	}

	return nil
}

// Copies a tar stream from r to w, renaming the top-level entry from to to.
// Entries below from are moved along with it.
func renameTar(r io.Reader, w io.Writer, from, to string) error {
	tr := tar.NewReader(r)
	tw := tar.NewWriter(w)

	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		header.Name = renameEntry(header.Name, from, to)

		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		if _, err := io.Copy(tw, tr); err != nil {
			return err
		}
	}

	return tw.Close()
}

// Returns name with a leading from component replaced by to. Names outside
// from are returned unchanged.
func renameEntry(name, from, to string) string {
	trimmed := strings.TrimPrefix(name, "./")
	if trimmed == from || strings.HasPrefix(trimmed, from+"/") {
		return to + trimmed[len(from):]
	}
	return name
}

// Writes a directory tree to a tar writer rooted at the given archive
// prefix. Paths for which excluded returns true are skipped, along with
// their children.
func writeDirToTar(tw *tar.Writer, hostDir, prefix string, excluded func(string) bool) error {
	return filepath.WalkDir(hostDir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(hostDir, p)
		if err != nil {
			return err
		}

		if excluded != nil && excluded(filepath.ToSlash(relPath)) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		archivePath := path.Join(prefix, filepath.ToSlash(relPath))
		return writeTarEntry(tw, p, archivePath, d)
	})
}

// Writes a single file, directory or symlink entry to a tar writer.
func writeTarEntry(tw *tar.Writer, hostPath, archivePath string, d os.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return err
	}

	link := ""
	if info.Mode()&os.ModeSymlink != 0 {
		if link, err = os.Readlink(hostPath); err != nil {
			return err
		}
	}

	header, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return err
	}
	header.Name = archivePath

	if err := tw.WriteHeader(header); err != nil {
		return err
	}

	if info.Mode().IsRegular() {
		f, err := os.Open(hostPath)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	}

	return nil
}
