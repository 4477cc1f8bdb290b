package pipeline

import "context"

// Evaluates container lineages.
//
// Implementations start a fresh container for every evaluation and release
// it before returning. A failing command aborts the evaluation; no partial
// result is returned.
type Engine interface {

	// Runs the lineage and returns the standard output of its last exec.
	Stdout(ctx context.Context, c *Container) (string, error)

	// Runs the lineage that owns f and writes the file to dest on the host.
	// Returns the absolute path written.
	Export(ctx context.Context, f *File, dest string) (string, error)

	// Releases the engine's connection to its backend.
	Close() error
}
