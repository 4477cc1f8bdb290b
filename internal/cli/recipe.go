package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/albe2669/recipes/internal/protocol"
	"github.com/albe2669/recipes/internal/recipes"
)

// Source and recipe arguments shared by the recipe commands.
type RecipeArgs struct {
	Source string `arg:"" type:"path" help:"Recipe source directory."`
	Path   string `arg:"" name:"recipe" help:"Recipe path relative to the source directory."`
}

// Represents the 'recipes markdown' command.
type MarkdownCmd struct {
	RecipeArgs
}

// Executes the markdown command.
func (c *MarkdownCmd) Run(ctx context.Context) error {
	return c.render(ctx, protocol.CmdMarkdown, func(svc *recipes.Service) (string, error) {
		return svc.GetMarkdown(ctx, c.Source, c.Path, nil)
	})
}

// Represents the 'recipes recipe' command.
type RecipeCmd struct {
	RecipeArgs
}

// Executes the recipe command.
func (c *RecipeCmd) Run(ctx context.Context) error {
	return c.render(ctx, protocol.CmdRecipe, func(svc *recipes.Service) (string, error) {
		return svc.ReadRecipe(ctx, c.Source, c.Path)
	})
}

// Runs a text operation locally or on the daemon and prints the result.
func (a *RecipeArgs) render(ctx context.Context, cmd protocol.Command, local func(*recipes.Service) (string, error)) error {
	var text string

	if RootCmd.Daemon {
		var res protocol.TextResult
		if err := protocol.Call(ctx, socketPath(), cmd, &protocol.RecipeRequest{Source: a.Source, Recipe: a.Path}, &res); err != nil {
			return err
		}
		text = res.Text
	} else {
		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		text, err = local(s.service)
		if err != nil {
			return err
		}
	}

	fmt.Print(text)
	if !strings.HasSuffix(text, "\n") {
		fmt.Println()
	}
	return nil
}
