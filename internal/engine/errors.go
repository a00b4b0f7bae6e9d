package engine

import (
	"fmt"
	"strings"

	"github.com/arjunv/procure-flow/internal/registry"
)

// ValidationError reports a failed step completion predicate or malformed
// input. Recoverable; surfaced verbatim to the actor; no state change.
type ValidationError struct {
	Step   registry.StepNumber
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("step %d (%s) not complete: %s", int(e.Step), e.Step, e.Reason)
}

// AuthorizationError reports an actor whose role does not match the step's
// required role. Recoverable; no state change.
type AuthorizationError struct {
	Step     registry.StepNumber
	Role     string
	Required string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("role %q may not act on step %d (%s): requires %q", e.Role, int(e.Step), e.Step, e.Required)
}

// ConflictError reports a lost optimistic-concurrency race: another actor
// mutated the instance between read and write. The caller should re-fetch
// and retry.
type ConflictError struct {
	FlowID string
	Step   registry.StepNumber
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("flow %s step %d was modified concurrently", e.FlowID, int(e.Step))
}

// DependencyUnmetError reports declared step dependencies that have not
// reached COMPLETED for the flow.
type DependencyUnmetError struct {
	Step  registry.StepNumber
	Unmet []registry.StepNumber
}

func (e *DependencyUnmetError) Error() string {
	names := make([]string, len(e.Unmet))
	for i, n := range e.Unmet {
		names[i] = fmt.Sprintf("%d (%s)", int(n), n)
	}
	return fmt.Sprintf("step %d (%s) blocked: unmet dependencies %s", int(e.Step), e.Step, strings.Join(names, ", "))
}

// NotFoundError reports a flow with no instance at the requested step.
type NotFoundError struct {
	FlowID string
	Step   registry.StepNumber
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("flow %s has no instance at step %d", e.FlowID, int(e.Step))
}
