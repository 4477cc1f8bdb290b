package cli

import (
	"context"
	"fmt"

	"github.com/albe2669/recipes/internal/protocol"
)

// Represents the 'recipes status' command.
type StatusCmd struct{}

// Executes the status command.
func (c *StatusCmd) Run(ctx context.Context) error {
	var res protocol.StatusResult
	if err := protocol.Call(ctx, socketPath(), protocol.CmdStatus, nil, &res); err != nil {
		return err
	}

	fmt.Printf("version: %s\npid:     %d\nengine:  %s\nuptime:  %s\nruns:    %d\n",
		res.Version, res.Pid, res.Engine, res.Uptime, res.Runs)
	return nil
}

// Represents the 'recipes stop' command.
type StopCmd struct{}

// Executes the stop command.
func (c *StopCmd) Run(ctx context.Context) error {
	return protocol.Call(ctx, socketPath(), protocol.CmdShutdown, nil, nil)
}
