package runtime

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"path"
)

// Creates a directory inside the container, including parents.
func (c *Container) MkdirAll(ctx context.Context, dir string) error {
	return c.mustExec(ctx, "mkdir", nil, nil, "mkdir", "-p", dir)
}

// Sets the permission bits of a path inside the container.
func (c *Container) Chmod(ctx context.Context, p string, mode fs.FileMode) error {
	return c.mustExec(ctx, "chmod", nil, nil, "chmod", fmt.Sprintf("%o", mode.Perm()), p)
}

// Extracts a tar stream into destDir inside the container by piping it to
// "tar xf - -C destDir".
func (c *Container) CopyTo(ctx context.Context, r io.Reader, destDir string) error {
	return c.mustExec(ctx, "tar extract", r, nil, "tar", "xf", "-", "-C", destDir)
}

// Writes the contents of r to the file p inside the container, replacing
// it if it exists.
func (c *Container) WriteFile(ctx context.Context, p string, r io.Reader) error {
	return c.mustExec(ctx, "write file", r, nil, "sh", "-c", `cat > "$1"`, "sh", p)
}

// Streams p out of the container as a tar archive with a single top-level
// entry named after the base of p.
func (c *Container) CopyFrom(ctx context.Context, w io.Writer, p string) error {
	return c.mustExec(ctx, "tar archive", nil, w, "tar", "cf", "-", "-C", path.Dir(p), path.Base(p))
}

// Runs a command and fails with desc and the captured stderr when it exits
// non-zero.
func (c *Container) mustExec(ctx context.Context, desc string, stdin io.Reader, stdout io.Writer, args ...string) error {
	exitCode, stderr, err := c.execCommand(ctx, stdin, stdout, nil, "", args...)
	if err != nil {
		return err
	}
	if exitCode != 0 {
		return fmt.Errorf("%w: %s failed with exit code %d (%s)", ErrRuntime, desc, exitCode, stderr)
	}
	return nil
}
