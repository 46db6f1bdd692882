package engine

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by adapters after Close.
var ErrClosed = errors.New("engine: closed")

// Op names the engine call that failed.
const (
	OpPing        = "ping"
	OpIndexExists = "indices.exists"
	OpCreateIndex = "indices.create"
	OpDeleteIndex = "indices.delete"
	OpSearch      = "search"
	OpIndex       = "index"
	OpUpdate      = "update"
	OpGet         = "get"
	OpDelete      = "delete"
	OpBulk        = "bulk"
)

// ErrorCause is the engine's error object.
type ErrorCause struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// Error is a failed engine call. Status is 0 when no response was received.
type Error struct {
	Op     string
	Status int
	Type   string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Status > 0 && e.Type != "":
		return fmt.Sprintf("%s: [%d] %s: %s", e.Op, e.Status, e.Type, e.Reason)
	case e.Status > 0:
		return fmt.Sprintf("%s: [%d] %s", e.Op, e.Status, e.Reason)
	case e.Err != nil:
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + ": " + e.Reason
}

func (e *Error) Unwrap() error { return e.Err }

// Message is the human-readable failure without the op prefix.
func (e *Error) Message() string {
	switch {
	case e.Type != "" && e.Reason != "":
		return e.Type + ": " + e.Reason
	case e.Reason != "":
		return e.Reason
	case e.Err != nil:
		return e.Err.Error()
	}
	return e.Type
}
