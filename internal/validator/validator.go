// Package validator holds the per-step completion predicates. Each predicate
// is a pure function over the flow payload: nil means the step may complete,
// a non-nil error names the first unmet requirement.
package validator

import (
	"errors"

	"github.com/arjunv/procure-flow/internal/models"
	"github.com/arjunv/procure-flow/internal/registry"
)

// Validator decides whether a step's payload is complete enough to advance.
type Validator interface {
	Step() registry.StepNumber
	Complete(p *models.Payload) error
}

// Set maps step numbers to their validators. Steps without a registered
// validator fall back to requiring a present payload.
type Set struct {
	byStep map[registry.StepNumber]Validator
}

// NewSet builds the full predicate set for the procurement catalog.
func NewSet() *Set {
	s := &Set{byStep: make(map[registry.StepNumber]Validator)}
	for _, v := range []Validator{
		approveIndent{},
		comparativeStatement{},
		approveQuotation{},
		followUpDelivery{},
		materialDecision{step: registry.StepMaterialApproval},
		materialDecision{step: registry.StepRejectionDecision},
	} {
		s.byStep[v.Step()] = v
	}
	return s
}

// Complete runs the predicate registered for step, or the default predicate
// when none is registered.
func (s *Set) Complete(step registry.StepNumber, p *models.Payload) error {
	if p == nil {
		return errors.New("no payload submitted")
	}
	if v, ok := s.byStep[step]; ok {
		return v.Complete(p)
	}
	return nil
}
