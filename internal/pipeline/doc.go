// Package pipeline describes container builds as immutable lineages.
//
// A [Container] starts from a base image reference and grows one operation
// at a time. Every With* method returns a new node that points at its
// parent, so a partially built container can be branched freely: the
// markdown and raw-text recipe readers share the same chef container and
// add different final commands without affecting each other.
//
// Nothing runs while a lineage is composed. An [Engine] evaluates it,
// either against containerd (package build) or against a Dagger session
// (package dag), and hands back captured standard output or exports a
// [File] to the host.
//
// Example usage:
//
//	latex := pipeline.From("alpine:latest").
//	    WithExec([]string{"apk", "add", "--update", "--no-cache", "tectonic"})
//
//	pdf := latex.
//	    WithDirectory("/app", pipeline.HostDirectory("./book")).
//	    WithWorkdir("/app/out").
//	    WithExec([]string{"tectonic", "main.tex"}).
//	    File("/app/out/main.pdf")
//
//	path, err := engine.Export(ctx, pdf, "book.pdf")
package pipeline
