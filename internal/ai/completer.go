package ai

import (
	"context"
	"errors"
)

// ErrNoToolCall is returned by providers when a forced tool call came back
// without the requested function call.
var ErrNoToolCall = errors.New("model did not call the requested tool")

// Request is one chat completion. When Tool is set the provider must force
// a call to exactly that tool and return its arguments; otherwise free text
// is returned.
type Request struct {
	System      string
	User        string
	Tool        *Tool
	Temperature *float32
}

// Response carries either the forced tool arguments or free text.
type Response struct {
	ToolName  string
	Arguments map[string]any
	Text      string
}

// Completer is the structured chat completion boundary.
type Completer interface {
	Complete(ctx context.Context, req *Request) (*Response, error)
}

// Temperature returns a pointer to t for use in Request.
func Temperature(t float32) *float32 {
	return &t
}
