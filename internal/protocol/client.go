package protocol

import (
	"bufio"
	"context"
	"fmt"
	"net"
)

// Sends one request to the daemon listening on socket and decodes the
// response payload into resp, which may be nil.
//
// A daemon-side failure is returned wrapped in [ErrRemote]. Cancelling ctx
// closes the connection, which the daemon treats as cancellation.
func Call(ctx context.Context, socket string, cmd Command, req, resp any) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", socket)
	if err != nil {
		return fmt.Errorf("%w: connect to %s: %w", ErrProtocol, socket, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	data, err := Encode(cmd, req)
	if err != nil {
		return err
	}
	if _, err := conn.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("%w: send %s: %w", ErrProtocol, cmd, err)
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: read response: %w", ErrProtocol, err)
	}

	env, payload, err := Decode(line)
	if err != nil {
		return err
	}

	switch env.Command {
	case CmdOK:
		if resp == nil || len(payload) == 0 {
			return nil
		}
		return decodeInto(payload, resp)
	case CmdError:
		res, err := DecodePayload[ErrorResult](payload)
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: %s", ErrRemote, res.Message)
	default:
		return fmt.Errorf("%w: unexpected response %q", ErrProtocol, env.Command)
	}
}
