package upstream

import (
	"fmt"
	"strings"
)

// StatusError is a hard upstream failure: a non-2xx response without a
// policy payload. Reads degrade to empty views on it; writes roll back.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream returned status %d", e.Code)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.Code, e.Message)
}

// ProtectedError is a policy rejection: the backend refused the mutation
// for business reasons and named them. It is distinct from a hard failure
// and its reasons are surfaced to the user verbatim.
type ProtectedError struct {
	Reasons []string
}

func (e *ProtectedError) Error() string {
	return "mutation rejected by policy: " + strings.Join(e.Reasons, "; ")
}
