package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/albe2669/recipes/internal/history"
)

// Names a request or response.
type Command string

const (
	CmdPDF      Command = "pdf"      // Build a book. Payload: [PDFRequest].
	CmdMarkdown Command = "markdown" // Render a recipe as markdown. Payload: [RecipeRequest].
	CmdRecipe   Command = "recipe"   // Render a recipe as text. Payload: [RecipeRequest].
	CmdHistory  Command = "history"  // List recent runs. Payload: [HistoryRequest].
	CmdStatus   Command = "status"   // Report daemon state. No payload.
	CmdShutdown Command = "shutdown" // Stop the daemon. No payload.

	CmdOK    Command = "ok"    // Successful response.
	CmdError Command = "error" // Failed response. Payload: [ErrorResult].
)

// Wire form of every message.
type Envelope struct {
	Command Command         `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Asks the daemon to build the book at Source into Output.
type PDFRequest struct {
	Source string `json:"source"`           // Absolute source directory.
	Output string `json:"output,omitempty"` // Absolute destination. Empty uses the daemon's default.
}

// Path of the PDF the daemon wrote.
type PDFResult struct {
	Path string `json:"path"`
}

// Names a recipe in a source directory.
type RecipeRequest struct {
	Source string `json:"source"` // Absolute source directory.
	Recipe string `json:"recipe"` // Recipe path relative to Source.
}

// Rendered recipe text.
type TextResult struct {
	Text string `json:"text"`
}

// Asks for the most recent runs.
type HistoryRequest struct {
	Limit int `json:"limit,omitempty"`
}

// Recent runs, newest first.
type HistoryResult struct {
	Runs []history.Run `json:"runs"`
}

// Daemon state.
type StatusResult struct {
	Running bool          `json:"running"`
	Version string        `json:"version"`
	Pid     int           `json:"pid"`
	Engine  string        `json:"engine"`
	Uptime  time.Duration `json:"uptime"`
	Runs    int           `json:"runs"` // Requests served since start.
}

// Error message of a failed request.
type ErrorResult struct {
	Message string `json:"message"`
}

// Encodes a command and its payload as an envelope. A nil payload is
// omitted. The result has no trailing newline.
func Encode(cmd Command, payload any) ([]byte, error) {
	env := Envelope{Command: cmd}

	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: encode %s payload: %w", ErrProtocol, cmd, err)
		}
		env.Payload = raw
	}

	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("%w: encode envelope: %w", ErrProtocol, err)
	}
	return data, nil
}

// Decodes an envelope and returns it with its raw payload.
func Decode(data []byte) (*Envelope, json.RawMessage, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, nil, fmt.Errorf("%w: decode envelope: %w", ErrProtocol, err)
	}
	if env.Command == "" {
		return nil, nil, fmt.Errorf("%w: missing command", ErrProtocol)
	}
	return &env, env.Payload, nil
}

// Decodes a payload into T. An empty payload yields T's zero value.
func DecodePayload[T any](payload json.RawMessage) (*T, error) {
	var v T
	if len(payload) == 0 {
		return &v, nil
	}
	if err := decodeInto(payload, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func decodeInto(payload json.RawMessage, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: decode payload: %w", ErrProtocol, err)
	}
	return nil
}
