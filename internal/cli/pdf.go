package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/albe2669/recipes/internal/protocol"
)

// Represents the 'recipes pdf' command.
type PDFCmd struct {
	Source string `arg:"" type:"path" help:"Book source directory."`
	Output string `short:"o" type:"path" placeholder:"FILE" help:"Where to write the PDF. Defaults to <source name>.pdf."`
}

// Executes the pdf command.
//
// Builds the book in Source and prints the path of the written PDF.
func (c *PDFCmd) Run(ctx context.Context) error {
	if RootCmd.Daemon {
		output := c.Output
		if output == "" {
			abs, err := filepath.Abs(filepath.Base(c.Source) + ".pdf")
			if err != nil {
				return err
			}
			output = abs
		}

		var res protocol.PDFResult
		if err := protocol.Call(ctx, socketPath(), protocol.CmdPDF, &protocol.PDFRequest{Source: c.Source, Output: output}, &res); err != nil {
			return err
		}
		fmt.Println(res.Path)
		return nil
	}

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	path, err := s.service.GetPDF(ctx, c.Source, c.Output)
	if err != nil {
		return err
	}

	fmt.Println(path)
	return nil
}
