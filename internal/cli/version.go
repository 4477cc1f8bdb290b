package cli

import (
	"context"
	"fmt"

	"github.com/albe2669/recipes/internal"
)

// Represents the 'recipes version' command.
type VersionCmd struct{}

// Executes the version command.
func (c *VersionCmd) Run(ctx context.Context) error {
	fmt.Println(internal.VersionString())
	return nil
}
