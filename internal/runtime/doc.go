// Package runtime manages build containers backed by containerd.
//
// A [Runtime] connects to a containerd daemon, imports compressed image
// archives produced by the images package, tags them under a name derived
// from the archive path, and starts containers from them with a fresh
// snapshot and a long-running task. Host directories can be bind mounted
// when the container is created.
//
// Each [Container] wraps that running task. Commands run as additional
// exec processes with their own environment and working directory, and
// files move in and out as tar streams. Containers are throwaway: when an
// evaluation finishes, successful or not, the container is destroyed along
// with its snapshot.
//
// Example usage:
//
//	rt, err := runtime.New("/run/containerd/containerd.sock", "recipes")
//	if err != nil {
//	    return err
//	}
//	defer rt.Close()
//
//	ctr, err := rt.StartContainer(ctx, archive, "recipes-1", "linux/amd64", []runtime.Mount{
//	    {Source: "/home/me/book", Target: "/mnt", ReadOnly: true},
//	})
//	if err != nil {
//	    return err
//	}
//	defer ctr.Destroy(ctx)
//
//	result, err := ctr.Exec(ctx, []string{"chef", "recipe", "Soup.cook"}, nil, "/mnt")
package runtime
