package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/albe2669/recipes/internal"
)

const (

	// Default permission mode for directories.
	DefaultDirMode os.FileMode = 0755

	// Default permission mode for files.
	DefaultFileMode os.FileMode = 0644
)

// Path to the directory for runtime files (sockets, PIDs).
//
//	Linux:   $XDG_RUNTIME_DIR/recipes or /run/user/<uid>/recipes
//	macOS:   ~/Library/Caches/recipes/run
func Runtime() string {
	if xdg.RuntimeDir != "" {
		return filepath.Join(xdg.RuntimeDir, internal.Name)
	}
	return filepath.Join(xdg.CacheHome, internal.Name, "run")
}

// Default path to the daemon's Unix domain socket.
func Socket() string {
	return filepath.Join(Runtime(), internal.Name+".sock")
}

// Default path to the daemon's PID file.
func PIDFile() string {
	return filepath.Join(Runtime(), internal.Name+".pid")
}

// Directory holding compressed base image archives pulled from registries.
//
//	Linux:   $XDG_CACHE_HOME/recipes/images
//	macOS:   ~/Library/Caches/recipes/images
func Images() string {
	return filepath.Join(xdg.CacheHome, internal.Name, "images")
}

// Path to the run history database.
//
//	Linux:   $XDG_STATE_HOME/recipes/history.db
//	macOS:   ~/Library/Application Support/recipes/history.db
func History() string {
	return filepath.Join(xdg.StateHome, internal.Name, "history.db")
}
