package internal

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

const (

	// Program name, used for XDG subdirectories, the socket group, container
	// ID prefixes and the CLI.
	Name = "recipes"

	// Placeholder for a build variable that was not set.
	defaultUndefined = "(undefined)"

	// Version string of a build made outside the release pipeline.
	defaultLocalBuild = "(local)"

	// Stage left out of version strings.
	mainBranch = "main"
)

// Set with -ldflags "-X github.com/albe2669/recipes/internal.<name>=<value>".
var (
	version   = "" // Release version, e.g. "v1.2.3".
	stage     = "" // Git branch the release was cut from.
	gitCommit = "" // Git commit hash.

	rawQuiet   = "false" // Default for -q.
	rawDebug   = "false" // Default for -d.
	rawVerbose = "false" // Default for -v.
)

// Trims a build variable, substituting "(undefined)" when it is empty.
func buildVar(raw string) (string, bool) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return defaultUndefined, false
	}
	return v, true
}

// Returns the release version without its "v" prefix.
//
// Binaries installed with go install carry no linker flags; their module
// version is used instead. Otherwise the result is "(undefined)".
func Version() string {
	v, ok := buildVar(version)
	if !ok {
		if info, found := debug.ReadBuildInfo(); found && info.Main.Version != "" && info.Main.Version != "(devel)" {
			v = info.Main.Version
		} else {
			return v
		}
	}
	return strings.TrimPrefix(strings.ToLower(v), "v")
}

// Returns the git branch the binary was built from, lower-cased.
func Stage() string {
	s, _ := buildVar(stage)
	return strings.ToLower(s)
}

// Returns the git commit hash.
func GitCommit() string {
	c, _ := buildVar(gitCommit)
	return c
}

// Returns the build architecture.
func Arch() string {
	return runtime.GOARCH
}

// Reports whether any of version, stage or commit was left unset at link
// time.
func IsLocal() bool {
	for _, raw := range []string{version, stage, gitCommit} {
		if _, ok := buildVar(raw); !ok {
			return true
		}
	}
	return false
}

// Returns "<version>[+<stage>] <commit> [<arch>]", or "(local)" for local
// builds. The stage is omitted for main.
func VersionString() string {
	if IsLocal() {
		return defaultLocalBuild
	}

	suffix := ""
	if s := Stage(); s != mainBranch {
		suffix = "+" + s
	}

	return fmt.Sprintf("%s%s %s [%s]", Version(), suffix, GitCommit(), Arch())
}
