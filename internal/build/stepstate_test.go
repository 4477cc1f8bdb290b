package build

import (
	"testing"

	"github.com/albe2669/recipes/internal/pipeline"
)

func TestNewStepState(t *testing.T) {
	s := newStepState()
	if s.workdir != "" {
		t.Fatalf("workdir = %q, want empty", s.workdir)
	}
	if len(s.env) != 0 {
		t.Fatalf("env = %v, want empty", s.env)
	}
	if s.stdout != "" {
		t.Fatalf("stdout = %q, want empty", s.stdout)
	}
}

func TestApplyWorkdir(t *testing.T) {
	s := newStepState()

	s.apply(pipeline.Op{Kind: pipeline.OpWorkdir, Path: "/app"})
	if s.workdir != "/app" {
		t.Fatalf("workdir = %q, want /app", s.workdir)
	}

	s.apply(pipeline.Op{Kind: pipeline.OpWorkdir, Path: "out"})
	if s.workdir != "/app/out" {
		t.Fatalf("workdir = %q, want /app/out", s.workdir)
	}

	s.apply(pipeline.Op{Kind: pipeline.OpWorkdir, Path: "/mnt"})
	if s.workdir != "/mnt" {
		t.Fatalf("workdir = %q, want /mnt", s.workdir)
	}
}

func TestApplyEnv(t *testing.T) {
	s := newStepState()

	s.apply(pipeline.Op{Kind: pipeline.OpEnv, Name: "A", Value: "1"})
	s.apply(pipeline.Op{Kind: pipeline.OpEnv, Name: "B", Value: "2"})
	s.apply(pipeline.Op{Kind: pipeline.OpEnv, Name: "A", Value: "override"})

	if s.env["A"] != "override" {
		t.Fatalf("env[A] = %q, want override", s.env["A"])
	}
	if s.env["B"] != "2" {
		t.Fatalf("env[B] = %q, want 2 (preserved)", s.env["B"])
	}
}

func TestApplyIgnoresOtherOps(t *testing.T) {
	s := newStepState()
	s.apply(pipeline.Op{Kind: pipeline.OpWorkdir, Path: "/opt"})
	s.apply(pipeline.Op{Kind: pipeline.OpExec, Args: []string{"true"}, Path: "/elsewhere"})

	if s.workdir != "/opt" {
		t.Fatalf("workdir = %q, want /opt", s.workdir)
	}
	if len(s.env) != 0 {
		t.Fatalf("env = %v, want empty", s.env)
	}
}

func TestResolve(t *testing.T) {
	s := newStepState()
	if got := s.resolve("tool"); got != "/tool" {
		t.Fatalf("resolve without workdir = %q, want /tool", got)
	}

	s.apply(pipeline.Op{Kind: pipeline.OpWorkdir, Path: "/app"})
	if got := s.resolve("cooklatex"); got != "/app/cooklatex" {
		t.Fatalf("resolve = %q, want /app/cooklatex", got)
	}
	if got := s.resolve("/usr/bin/tectonic"); got != "/usr/bin/tectonic" {
		t.Fatalf("resolve absolute = %q", got)
	}
}

func TestEnviron(t *testing.T) {
	s := newStepState()
	if len(s.environ()) != 0 {
		t.Fatal("empty state should produce no environ entries")
	}

	s.apply(pipeline.Op{Kind: pipeline.OpEnv, Name: "PATH", Value: "/usr/bin"})
	s.apply(pipeline.Op{Kind: pipeline.OpEnv, Name: "HOME", Value: "/root"})

	env := s.environ()
	if len(env) != 2 || env[0] != "HOME=/root" || env[1] != "PATH=/usr/bin" {
		t.Fatalf("environ = %v, want sorted HOME and PATH", env)
	}
}
