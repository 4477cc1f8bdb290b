package pipeline

import (
	"path"
	"path/filepath"
	"strings"
)

// A directory on the host, attached to containers by copy or bind mount.
type Directory struct {
	Path    string   // Host path.
	Exclude []string // Glob patterns, relative to Path, left out of copies.
}

// Returns a reference to a host directory. The path is not checked until a
// lineage using it is evaluated.
func HostDirectory(p string, exclude ...string) *Directory {
	return &Directory{Path: p, Exclude: exclude}
}

// Reports whether rel, a slash-separated path relative to the directory
// root, is excluded. A pattern that matches a parent directory excludes
// everything below it.
func (d *Directory) Excluded(rel string) bool {
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == "" {
		return false
	}

	parts := strings.Split(rel, "/")
	for i := range parts {
		prefix := strings.Join(parts[:i+1], "/")
		for _, pattern := range d.Exclude {
			if ok, _ := path.Match(pattern, prefix); ok {
				return true
			}
		}
	}
	return false
}
