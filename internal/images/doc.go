// Package images pulls base images from registries and keeps them as
// compressed archives the container runtime can import.
//
// Pulls select the manifest for the requested platform. Archives are
// written in the Docker save format, compressed with zstd, and named by
// the image digest so that a tag moving to new content produces a new
// archive while an unchanged tag is served from disk after a single
// manifest lookup.
//
// Example usage:
//
//	store := images.NewStore(paths.Images())
//	archive, err := store.Archive(ctx, "alpine:latest", "linux/amd64")
//	if err != nil {
//	    return err
//	}
//
//	rc, err := images.Open(archive)
package images
