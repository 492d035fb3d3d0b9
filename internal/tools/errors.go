package tools

import "fmt"

// ErrorKind classifies a failed capability call for the planner. The kind
// tells the model whether retrying, rephrasing or giving up makes sense.
type ErrorKind string

const (
	KindUnknownCapability ErrorKind = "unknown_capability"
	KindBadRequest        ErrorKind = "bad_request"
	KindUpstream          ErrorKind = "upstream"
	KindTimeout           ErrorKind = "timeout"
	KindCancelled         ErrorKind = "cancelled"
	KindPolicy            ErrorKind = "policy"
)

// ToolError is the structured failure surfaced back into the agent
// transcript. Handlers never panic; every failure becomes one of these.
type ToolError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newToolError(kind ErrorKind, format string, args ...any) *ToolError {
	return &ToolError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
