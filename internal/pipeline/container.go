package pipeline

import (
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
)

// Kind of operation recorded on a lineage node.
type OpKind int

const (
	OpExec           OpKind = iota + 1 // Run a command.
	OpWorkdir                          // Change the working directory.
	OpEnv                              // Set an environment variable.
	OpDirectory                        // Copy a host directory into the container.
	OpMountDirectory                   // Bind a host directory into the container.
	OpFile                             // Copy a file produced by another lineage.
)

func (k OpKind) String() string {
	switch k {
	case OpExec:
		return "exec"
	case OpWorkdir:
		return "workdir"
	case OpEnv:
		return "env"
	case OpDirectory:
		return "directory"
	case OpMountDirectory:
		return "mount"
	case OpFile:
		return "file"
	default:
		return fmt.Sprintf("op(%d)", int(k))
	}
}

// A single operation in a lineage. Which fields are set depends on Kind.
type Op struct {
	Kind  OpKind
	Args  []string    // OpExec
	Out   string      // OpExec; absolute file receiving stdout, if set.
	Path  string      // Target path for workdir, directory, mount and file ops.
	Name  string      // OpEnv
	Value string      // OpEnv
	Dir   *Directory  // OpDirectory, OpMountDirectory
	File  *File       // OpFile
	Perm  fs.FileMode // OpFile; zero keeps the source mode.
}

// An immutable container lineage.
//
// The zero value is not usable; start from [From].
type Container struct {
	base   string     // Base image reference, shared by every node of a lineage.
	parent *Container // Previous node, nil for the root.
	op     *Op        // Operation added by this node, nil for the root.
}

// A file at a path inside the container produced by a lineage.
type File struct {
	Container *Container
	Path      string
}

// Starts a lineage from a base image reference (e.g. "alpine:latest").
func From(ref string) *Container {
	return &Container{base: ref}
}

// Returns the base image reference.
func (c *Container) Base() string {
	return c.base
}

// Returns a new node that runs args as a command. The command is executed
// directly, without a shell.
func (c *Container) WithExec(args []string) *Container {
	return c.with(Op{Kind: OpExec, Args: slices.Clone(args)})
}

// Like [Container.WithExec], but writes the command's standard output to
// the file p instead of capturing it. A relative p resolves against the
// working directory.
func (c *Container) WithExecStdout(args []string, p string) *Container {
	return c.with(Op{Kind: OpExec, Args: slices.Clone(args), Out: Resolve(c.Workdir(), p)})
}

// Returns a new node with the working directory set to p. Relative paths
// resolve against the current working directory.
func (c *Container) WithWorkdir(p string) *Container {
	return c.with(Op{Kind: OpWorkdir, Path: p})
}

// Returns a new node with an environment variable set for later execs.
func (c *Container) WithEnvVariable(name, value string) *Container {
	return c.with(Op{Kind: OpEnv, Name: name, Value: value})
}

// Returns a new node with the host directory copied to p. The copy is
// writable and does not affect the host.
func (c *Container) WithDirectory(p string, dir *Directory) *Container {
	return c.with(Op{Kind: OpDirectory, Path: p, Dir: dir})
}

// Returns a new node with the host directory bound read-only at p.
func (c *Container) WithMountedDirectory(p string, dir *Directory) *Container {
	return c.with(Op{Kind: OpMountDirectory, Path: p, Dir: dir})
}

// Returns a new node with f copied to p. A non-zero perm overrides the
// file mode.
func (c *Container) WithFile(p string, f *File, perm fs.FileMode) *Container {
	return c.with(Op{Kind: OpFile, Path: p, File: f, Perm: perm})
}

// Returns a reference to the file at p once this lineage has run. A relative
// p resolves against the lineage's final working directory.
func (c *Container) File(p string) *File {
	return &File{Container: c, Path: Resolve(c.Workdir(), p)}
}

// Returns the operations of the lineage, root first.
func (c *Container) Ops() []Op {
	var ops []Op
	for n := c; n != nil; n = n.parent {
		if n.op != nil {
			ops = append(ops, *n.op)
		}
	}
	slices.Reverse(ops)
	return ops
}

// Returns the working directory in effect after the last operation, or "/"
// when none was set.
func (c *Container) Workdir() string {
	workdir := "/"
	for _, op := range c.Ops() {
		if op.Kind == OpWorkdir {
			workdir = Resolve(workdir, op.Path)
		}
	}
	return workdir
}

// Checks that the lineage, and every lineage it copies files from, can be
// evaluated.
func (c *Container) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: nil container", ErrInvalidPipeline)
	}
	if strings.TrimSpace(c.base) == "" {
		return fmt.Errorf("%w: missing base image", ErrInvalidPipeline)
	}

	for i, op := range c.Ops() {
		if err := op.validate(); err != nil {
			return fmt.Errorf("%w: op %d (%s): %w", ErrInvalidPipeline, i+1, op.Kind, err)
		}
	}
	return nil
}

// Formats the lineage as "base | op | op", for logs.
func (c *Container) String() string {
	parts := []string{c.base}
	for _, op := range c.Ops() {
		parts = append(parts, op.String())
	}
	return strings.Join(parts, " | ")
}

func (c *Container) with(op Op) *Container {
	return &Container{base: c.base, parent: c, op: &op}
}

func (op Op) validate() error {
	switch op.Kind {
	case OpExec:
		if len(op.Args) == 0 || op.Args[0] == "" {
			return fmt.Errorf("empty command")
		}
	case OpWorkdir:
		if op.Path == "" {
			return fmt.Errorf("empty path")
		}
	case OpEnv:
		if op.Name == "" || strings.Contains(op.Name, "=") {
			return fmt.Errorf("invalid variable name %q", op.Name)
		}
	case OpDirectory, OpMountDirectory:
		if op.Path == "" {
			return fmt.Errorf("empty path")
		}
		if op.Dir == nil || op.Dir.Path == "" {
			return fmt.Errorf("missing host directory")
		}
	case OpFile:
		if op.Path == "" {
			return fmt.Errorf("empty path")
		}
		if op.File == nil || op.File.Path == "" {
			return fmt.Errorf("missing source file")
		}
		if err := op.File.Container.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown operation %d", int(op.Kind))
	}
	return nil
}

func (op Op) String() string {
	switch op.Kind {
	case OpExec:
		if op.Out != "" {
			return strings.Join(op.Args, " ") + " > " + op.Out
		}
		return strings.Join(op.Args, " ")
	case OpEnv:
		return fmt.Sprintf("env %s=%s", op.Name, op.Value)
	case OpDirectory, OpMountDirectory:
		src := ""
		if op.Dir != nil {
			src = op.Dir.Path
		}
		return fmt.Sprintf("%s %s -> %s", op.Kind, src, op.Path)
	case OpFile:
		src := ""
		if op.File != nil {
			src = op.File.Path
		}
		return fmt.Sprintf("file %s -> %s (%#o)", src, op.Path, op.Perm)
	default:
		return fmt.Sprintf("%s %s", op.Kind, op.Path)
	}
}

// Resolves p against workdir using container (slash) path semantics.
func Resolve(workdir, p string) string {
	if path.IsAbs(p) {
		return path.Clean(p)
	}
	if workdir == "" {
		workdir = "/"
	}
	return path.Join(workdir, p)
}
