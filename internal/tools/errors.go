package tools

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// FailureKind classifies a failed tool invocation. The analyst loop
// does not retry either kind: the failure text is fed back to the
// model as the tool result and the report is marked degraded. Retries
// for flaky HTTP calls live in dataflows.WithRetry. The kind is kept
// for logs and for callers that want to distinguish outages from
// misconfiguration.
type FailureKind string

const (
	UnknownCapability FailureKind = "unknown_capability"
	TransientFailure  FailureKind = "transient"
	PermanentFailure  FailureKind = "permanent"
)

// ToolError wraps a tool invocation failure with its classification.
type ToolError struct {
	Capability string
	Kind       FailureKind
	Err        error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %s (%s): %v", e.Capability, e.Kind, e.Err)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// Classify determines the failure kind for an error coming out of a
// tool function. Network-level and rate-limit errors are transient;
// everything else is permanent.
func Classify(capability string, err error) *ToolError {
	kind := PermanentFailure

	var netErr net.Error
	switch {
	case errors.As(err, &netErr):
		kind = TransientFailure
	case errors.Is(err, context.DeadlineExceeded):
		kind = TransientFailure
	case isTransientMessage(err.Error()):
		kind = TransientFailure
	}

	return &ToolError{Capability: capability, Kind: kind, Err: err}
}

func isTransientMessage(msg string) bool {
	msg = strings.ToLower(msg)
	for _, marker := range []string{
		"status 429",
		"status 500",
		"status 502",
		"status 503",
		"status 504",
		"max retries exceeded",
		"connection refused",
		"connection reset",
		"timeout",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
