// Parses flags, configures logging, and runs the recipes commands.
//
// The CLI accepts the following global flags:
//
//	-q, --quiet                Suppress informational output.
//	-v, --verbose              Enable verbose output.
//	-d, --debug                Enable debug output.
//	    --engine               containerd (default) or dagger.
//	    --containerd-address   containerd socket.
//	    --namespace            containerd namespace.
//	    --platform             Target platform, e.g. linux/amd64.
//	    --chef-version         chef release to download.
//	-s, --socket               Daemon socket path.
//	    --daemon               Send operations to a running daemon.
//	    --no-history           Do not record runs.
//
// Every flag can also be set through a RECIPES_* environment variable.
// Flags override build-time defaults set via linker flags. After parsing,
// the global logger is rebuilt to reflect the final level and verbosity
// before the command runs.
package cli
