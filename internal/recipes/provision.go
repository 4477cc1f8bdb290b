package recipes

import "github.com/albe2669/recipes/internal/pipeline"

const (

	// Base image for the LaTeX and chef environments.
	AlpineImage = "alpine:latest"

	// Rust toolchain image, used to fetch cooklatex and to compile
	// book-builder.
	RustImage = "rust:alpine"
)

// Returns a lineage starting from base with packages installed through
// apk. With no packages the bare base image is returned.
func Provision(base string, packages ...string) *pipeline.Container {
	ctr := pipeline.From(base)
	if len(packages) == 0 {
		return ctr
	}

	args := append([]string{"apk", "add", "--update", "--no-cache"}, packages...)
	return ctr.WithExec(args)
}

// Returns the environment that typesets LaTeX with tectonic.
func LatexEnv() *pipeline.Container {
	return Provision(AlpineImage, "tectonic")
}
