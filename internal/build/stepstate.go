package build

import (
	"slices"

	"github.com/albe2669/recipes/internal/pipeline"
)

// Tracks what operations leave behind for the ones that follow: the working
// directory, the environment, and the output of the last exec.
type stepState struct {
	workdir string
	env     map[string]string
	stdout  string
}

// Creates a new [stepState]. An empty workdir defers to the image config.
func newStepState() *stepState {
	return &stepState{
		env: make(map[string]string),
	}
}

// Persists a workdir or env operation into the state. Other kinds are
// ignored.
func (s *stepState) apply(op pipeline.Op) {
	switch op.Kind {
	case pipeline.OpWorkdir:
		s.workdir = s.resolve(op.Path)
	case pipeline.OpEnv:
		s.env[op.Name] = op.Value
	}
}

// Resolves a container path against the current working directory.
func (s *stepState) resolve(p string) string {
	return pipeline.Resolve(s.workdir, p)
}

// Formats the environment as sorted "key=value" strings suitable for
// passing to container exec.
func (s *stepState) environ() []string {
	env := make([]string, 0, len(s.env))
	for k, v := range s.env {
		env = append(env, k+"="+v)
	}
	slices.Sort(env)
	return env
}
