// Package build evaluates pipeline lineages against containerd.
//
// An evaluation pulls the lineage's base image through the image store,
// starts a container with the lineage's bind mounts, and replays the
// operations in order: execs run directly in the container, directory
// copies stream host files in as tar, and file copies realize the source
// lineage in a sibling container and pipe the file across. Working
// directory and environment accumulate across operations exactly as they
// would in a Dockerfile.
//
// Every container started during an evaluation is destroyed when it
// returns. A source lineage used by several file copies in the same
// evaluation is realized once.
//
// Example usage:
//
//	engine := build.New(rt, images.NewStore(paths.Images()), build.Options{
//	    Platform: "linux/amd64",
//	})
//	defer engine.Close()
//
//	out, err := engine.Stdout(ctx, pipeline.From("alpine:latest").
//	    WithExec([]string{"uname", "-a"}))
package build
