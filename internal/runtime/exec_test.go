package runtime

import (
	"slices"
	"testing"

	specs "github.com/opencontainers/runtime-spec/specs-go"
)

func TestMergeEnv(t *testing.T) {
	tests := []struct {
		name      string
		base      []string
		overrides []string
		want      []string
	}{
		{
			name:      "override keeps position",
			base:      []string{"PATH=/usr/bin", "HOME=/root", "LANG=C"},
			overrides: []string{"HOME=/app"},
			want:      []string{"PATH=/usr/bin", "HOME=/app", "LANG=C"},
		},
		{
			name:      "new keys appended in order",
			base:      []string{"PATH=/usr/bin"},
			overrides: []string{"CARGO_HOME=/cargo", "RUSTFLAGS=-Ctarget-feature=-crt-static"},
			want:      []string{"PATH=/usr/bin", "CARGO_HOME=/cargo", "RUSTFLAGS=-Ctarget-feature=-crt-static"},
		},
		{
			name:      "last override wins",
			base:      nil,
			overrides: []string{"A=1", "A=2"},
			want:      []string{"A=2"},
		},
		{
			name:      "nothing to merge",
			base:      nil,
			overrides: nil,
			want:      []string{},
		},
		{
			name:      "entries without separator dropped",
			base:      []string{"JUNK", "PATH=/bin"},
			overrides: []string{"ALSO_JUNK", "EMPTY="},
			want:      []string{"PATH=/bin", "EMPTY="},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mergeEnv(tt.base, tt.overrides)
			if !slices.Equal(got, tt.want) {
				t.Errorf("mergeEnv() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExecSpec(t *testing.T) {
	base := &specs.Process{
		Terminal: true,
		Args:     []string{"sleep", "infinity"},
		Env:      []string{"PATH=/usr/local/bin:/usr/bin"},
		Cwd:      "/",
	}

	args := []string{"tectonic", "main.tex"}
	got := execSpec(base, []string{"HOME=/app"}, "/app/out", args)

	if got.Terminal {
		t.Error("terminal enabled for exec")
	}
	if !slices.Equal(got.Args, args) {
		t.Errorf("args = %q, want %q", got.Args, args)
	}
	if got.Cwd != "/app/out" {
		t.Errorf("cwd = %q, want %q", got.Cwd, "/app/out")
	}
	if !slices.Equal(got.Env, []string{"PATH=/usr/local/bin:/usr/bin", "HOME=/app"}) {
		t.Errorf("env = %q", got.Env)
	}

	// The container's own spec is left alone.
	if !base.Terminal || base.Cwd != "/" || len(base.Env) != 1 || base.Args[0] != "sleep" {
		t.Errorf("base spec modified: %+v", base)
	}

	args[0] = "changed"
	if got.Args[0] != "tectonic" {
		t.Error("exec spec shares args with caller")
	}
}

func TestExecSpecKeepsImageWorkdir(t *testing.T) {
	base := &specs.Process{Cwd: "/src", Env: []string{"A=1"}}

	got := execSpec(base, nil, "", []string{"cargo", "build"})
	if got.Cwd != "/src" {
		t.Errorf("cwd = %q, want %q", got.Cwd, "/src")
	}
	if !slices.Equal(got.Env, base.Env) {
		t.Errorf("env = %q, want %q", got.Env, base.Env)
	}
}

func TestNextExecID(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		id := nextExecID()
		if id == "" || seen[id] {
			t.Fatalf("nextExecID returned empty or duplicate id %q", id)
		}
		seen[id] = true
	}
}
