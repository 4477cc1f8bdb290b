// Resolves where recipes keeps files on the host.
//
// Runtime files (daemon socket, PID file) live under the XDG runtime
// directory, pulled base images under the XDG cache directory, and the run
// history database under the XDG state directory. Each location is scoped
// by the program name.
package paths
