package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"

	"github.com/albe2669/recipes/internal"
	"github.com/albe2669/recipes/internal/recipes"
)

const (

	// Default containerd socket address.
	DefaultContainerdAddress = "/run/containerd/containerd.sock"

	// Default containerd namespace for images and containers.
	DefaultNamespace = internal.Name
)

// Represents the root command for the recipes CLI.
var RootCmd CLI

// Global flags and subcommands.
type CLI struct {
	Quiet   bool `short:"q" env:"RECIPES_QUIET" help:"Suppress informational output."`
	Verbose bool `short:"v" env:"RECIPES_VERBOSE" help:"Enable verbose output."`
	Debug   bool `short:"d" env:"RECIPES_DEBUG" help:"Enable debug output."`

	Engine            string `enum:"containerd,dagger" default:"containerd" env:"RECIPES_ENGINE" help:"Engine that runs the containers (${enum})."`
	ContainerdAddress string `default:"${containerd_address}" env:"RECIPES_CONTAINERD_ADDRESS" placeholder:"PATH" help:"containerd socket address."`
	Namespace         string `default:"${namespace}" env:"RECIPES_NAMESPACE" help:"containerd namespace for images and containers."`
	Platform          string `env:"RECIPES_PLATFORM" placeholder:"OS/ARCH" help:"Target platform. Defaults to the host's."`
	ChefVersion       string `default:"${chef_version}" env:"RECIPES_CHEF_VERSION" help:"chef release to download."`
	Socket            string `short:"s" type:"path" env:"RECIPES_SOCKET" placeholder:"PATH" help:"Override the default Unix socket path."`
	Daemon            bool   `env:"RECIPES_DAEMON" help:"Send operations to a running daemon instead of running them here."`
	NoHistory         bool   `env:"RECIPES_NO_HISTORY" help:"Do not record runs in the history database."`

	PDF      PDFCmd      `cmd:"" name:"pdf" help:"Build a recipe book PDF."`
	Markdown MarkdownCmd `cmd:"" help:"Render a recipe as markdown."`
	Recipe   RecipeCmd   `cmd:"" help:"Print a recipe as chef renders it."`
	Serve    ServeCmd    `cmd:"" help:"Run the daemon."`
	Status   StatusCmd   `cmd:"" help:"Show daemon status."`
	Stop     StopCmd     `cmd:"" help:"Stop the daemon."`
	History  HistoryCmd  `cmd:"" help:"List recent runs."`
	Version  VersionCmd  `cmd:"" help:"Show version information."`
}

// Parses arguments, configures logging, and runs the selected subcommand.
func Execute() error {

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	parser, err := newParser(&RootCmd, kong.BindTo(ctx, (*context.Context)(nil)))
	if err != nil {
		return err
	}

	kongCtx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	configureLogger()

	return kongCtx.Run()
}

// Creates the kong parser for cli.
func newParser(cli *CLI, options ...kong.Option) (*kong.Kong, error) {
	opts := []kong.Option{
		kong.Name(internal.Name),
		kong.Description("Builds recipe books and renders recipes inside containers."),
		kong.UsageOnError(),
		kong.Vars{
			"version":            internal.VersionString(),
			"containerd_address": DefaultContainerdAddress,
			"namespace":          DefaultNamespace,
			"chef_version":       recipes.DefaultChefVersion,
		},
	}
	return kong.New(cli, append(opts, options...)...)
}

// Creates a logger seeded from build-time linker flags.
//
// The logger is replaced after flag parsing via [Execute].
func Logger() *slog.Logger {
	return newLogger(levelFor(internal.IsDebug(), internal.IsQuiet()), internal.IsVerbose())
}

// Configures the global logger based on CLI flags.
func configureLogger() {
	debug := RootCmd.Debug || internal.IsDebug()
	quiet := RootCmd.Quiet || internal.IsQuiet()
	verbose := RootCmd.Verbose || internal.IsVerbose()

	internal.SetDebug(debug)
	internal.SetQuiet(quiet)
	internal.SetVerbose(verbose)

	slog.SetDefault(newLogger(levelFor(debug, quiet), verbose))
}

// Debug wins over quiet.
func levelFor(debug, quiet bool) slog.Level {
	switch {
	case debug:
		return slog.LevelDebug
	case quiet:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// Builds a tint handler on stderr. Colour is used only on a terminal;
// verbose output adds source locations and full timestamps.
func newLogger(level slog.Level, verbose bool) *slog.Logger {
	fd := os.Stderr.Fd()
	opts := &tint.Options{
		Level:      level,
		NoColor:    !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd),
		TimeFormat: time.Kitchen,
		AddSource:  verbose,
	}
	if verbose {
		opts.TimeFormat = time.RFC3339Nano
	}
	return slog.New(tint.NewHandler(os.Stderr, opts))
}
