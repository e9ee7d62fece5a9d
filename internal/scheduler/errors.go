package scheduler

import (
	"fmt"
	"strings"
)

// ParseError is returned when a squeue line does not have the expected
// number of pipe-delimited fields.
type ParseError struct {
	Line    int
	Content string
	Fields  int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("squeue line %d: expected %d fields, got %d: %q", e.Line, queueFieldCount, e.Fields, e.Content)
}

// FetchError wraps a failed scheduler command.
type FetchError struct {
	Command string
	Stderr  string
	Err     error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Command, e.Err)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
