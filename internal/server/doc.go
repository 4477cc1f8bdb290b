// Package server implements the recipes daemon.
//
// The daemon listens on a Unix domain socket for JSON-encoded commands
// from the recipes CLI. Each connection carries a single request-response
// exchange: the client sends a newline-delimited JSON envelope, the
// server dispatches the command, and writes the result back before
// closing the connection. A client that disconnects early cancels its
// request.
//
// Book and recipe commands are delegated to a [Service], normally a
// *recipes.Service bound to one engine for the daemon's lifetime.
//
// Example usage:
//
//	srv := server.New(svc, server.Config{EngineName: "containerd"})
//	if err := srv.Start(); err != nil {
//	    return err
//	}
//	defer srv.Stop()
//
//	srv.Wait()
package server
