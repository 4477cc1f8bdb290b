package recipes

import (
	"fmt"
	"path"

	"github.com/albe2669/recipes/internal/pipeline"
)

const (

	// Chef release used when none is configured.
	DefaultChefVersion = "v0.10.0"

	// Release asset for chef; the version is substituted in.
	chefURLFormat = "https://github.com/Zheoni/cooklang-chef/releases/download/%s/chef-x86_64-unknown-linux-musl.tar.gz"

	// Latest cooklatex release binary.
	CooklatexURL = "https://github.com/albe2669/cooklatex/releases/latest/download/cooklatex"

	// Where chef's release archive is staged before extraction.
	chefArchive = "/tmp/chef.tar.gz"

	// Where downloaded and compiled tools are placed in their own container.
	toolDir = "/app"

	// Where vendored compiler sources are copied for cargo.
	sourceDir = "/src"
)

// Returns the URL of a chef release archive.
func ChefURL(version string) string {
	return fmt.Sprintf(chefURLFormat, version)
}

// Returns an alpine container with the chef binary installed in
// /usr/local/bin. The release archive is removed after extraction.
func DownloadChef(version string) *pipeline.Container {
	if version == "" {
		version = DefaultChefVersion
	}

	return Provision(AlpineImage, "curl").
		WithExec([]string{"curl", "-sSL", ChefURL(version), "-o", chefArchive}).
		WithExec([]string{"tar", "-xzf", chefArchive, "-C", "/usr/local/bin"}).
		WithExec([]string{"rm", chefArchive})
}

// Returns the latest cooklatex release binary.
func DownloadCooklatex() *pipeline.File {
	return Provision(RustImage, "wget").
		WithWorkdir(toolDir).
		WithExec([]string{"wget", CooklatexURL, "-O", "cooklatex"}).
		File(path.Join(toolDir, "cooklatex"))
}

// Compiles a vendored Rust crate in release mode and returns the named
// binary. The crate's target directory is left out of the copy.
func BuildFromSource(src string, binary string) *pipeline.File {
	return Provision(RustImage, "musl-dev").
		WithDirectory(sourceDir, pipeline.HostDirectory(src, "target")).
		WithWorkdir(sourceDir).
		WithEnvVariable("CARGO_TERM_COLOR", "never").
		WithEnvVariable("RUST_BACKTRACE", "1").
		WithExec([]string{"cargo", "build", "--release"}).
		File(path.Join(sourceDir, "target", "release", binary))
}
