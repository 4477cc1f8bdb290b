package recipes

import (
	"path"
	"path/filepath"

	"github.com/albe2669/recipes/internal/pipeline"
)

const (

	// Where the book source is copied for compilation.
	appPath = "/app"

	// Where recipe sources are mounted for chef.
	mountPath = "/mnt"

	// Permissions given to tools attached to a container.
	toolMode = 0o755
)

// Copies the book source into env, attaches the compiler, and runs it to
// produce LaTeX in the book's output directory.
func RunCompiler(env *pipeline.Container, tool *pipeline.File, source string, book *Book) *pipeline.Container {
	name := path.Base(tool.Path)
	args := book.compilerArgs("./"+name, book.outputPath())

	ctr := env.
		WithDirectory(appPath, pipeline.HostDirectory(source, book.excludes()...)).
		WithWorkdir(appPath).
		WithFile(path.Join(appPath, name), tool, toolMode)

	if book.Compiler == CompilerBookBuilder {
		return ctr.
			WithExec([]string{"mkdir", "-p", book.outputPath()}).
			WithExecStdout(args, path.Join(book.outputPath(), book.Main))
	}
	return ctr.WithExec(args)
}

// Runs tectonic in the compiler's output directory and returns the PDF.
func Typeset(ctr *pipeline.Container, book *Book) *pipeline.File {
	return ctr.
		WithWorkdir(book.outputPath()).
		WithExec([]string{"tectonic", book.Main}).
		File(path.Join(book.outputPath(), book.pdfName()))
}

// Mounts the recipe source at /mnt in ctr and runs chef on recipePath. An
// empty format keeps chef's own output.
func RunChef(ctr *pipeline.Container, source, recipePath, format string) *pipeline.Container {
	args := []string{"chef", "recipe", filepath.ToSlash(recipePath)}
	if format != "" {
		args = append(args, "--format", format)
	}

	return ctr.
		WithMountedDirectory(mountPath, pipeline.HostDirectory(source)).
		WithWorkdir(mountPath).
		WithExec(args)
}
