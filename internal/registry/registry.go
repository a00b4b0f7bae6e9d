// Package registry holds the static catalog of procurement workflow steps:
// ordering edges, role gates, rejection routing and per-step turn-around
// times. The catalog is immutable after construction.
package registry

import "fmt"

// Registry is the read-only step catalog.
type Registry struct {
	steps map[StepNumber]StepDefinition
	order []StepNumber
}

// ConfigurationError reports an invalid catalog: an unknown step number, a
// cycle in the normal chain, or a step with no assignable role. It is fatal
// and never user-facing.
type ConfigurationError struct {
	Step   StepNumber
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("step registry misconfigured at step %d: %s", int(e.Step), e.Reason)
}

// New builds a registry from the default catalog, applying per-step TAT
// overrides (step number -> days). The catalog is validated; an invalid
// catalog is a programmer error surfaced as ConfigurationError.
func New(tatOverrides map[int]int) (*Registry, error) {
	r := &Registry{steps: make(map[StepNumber]StepDefinition, len(defaultCatalog))}
	for _, def := range defaultCatalog {
		if days, ok := tatOverrides[int(def.Number)]; ok && days > 0 {
			def.TATDays = days
		}
		r.steps[def.Number] = def
		r.order = append(r.order, def.Number)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Step returns the definition for a step number.
func (r *Registry) Step(n StepNumber) (StepDefinition, error) {
	def, ok := r.steps[n]
	if !ok {
		return StepDefinition{}, &ConfigurationError{Step: n, Reason: "unknown step number"}
	}
	return def, nil
}

// RoleAllowed reports whether role is the actor permitted to act on step n.
func (r *Registry) RoleAllowed(n StepNumber, role string) bool {
	def, ok := r.steps[n]
	return ok && def.Role == role
}

// NextStep returns the normal-path successor of n, or StepNone for terminal
// steps.
func (r *Registry) NextStep(n StepNumber) (StepNumber, error) {
	def, err := r.Step(n)
	if err != nil {
		return StepNone, err
	}
	return def.NextStep, nil
}

// Steps returns the catalog in declaration order.
func (r *Registry) Steps() []StepDefinition {
	out := make([]StepDefinition, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.steps[n])
	}
	return out
}

// Validate checks the catalog for dangling edges, missing roles and cycles
// in the normal chain.
func (r *Registry) Validate() error {
	for _, def := range r.steps {
		if def.Role == "" {
			return &ConfigurationError{Step: def.Number, Reason: "no assignable role"}
		}
		if def.NextStep != StepNone {
			if _, ok := r.steps[def.NextStep]; !ok {
				return &ConfigurationError{Step: def.Number, Reason: fmt.Sprintf("next step %d not in catalog", int(def.NextStep))}
			}
		}
		if def.RejectStep != StepNone {
			if _, ok := r.steps[def.RejectStep]; !ok {
				return &ConfigurationError{Step: def.Number, Reason: fmt.Sprintf("reject step %d not in catalog", int(def.RejectStep))}
			}
		}
		for _, dep := range def.Dependencies {
			if _, ok := r.steps[dep]; !ok {
				return &ConfigurationError{Step: def.Number, Reason: fmt.Sprintf("dependency %d not in catalog", int(dep))}
			}
		}
	}

	// Walk the normal chain from every step; revisiting a step means a cycle.
	for start := range r.steps {
		seen := map[StepNumber]bool{}
		for n := start; n != StepNone; n = r.steps[n].NextStep {
			if seen[n] {
				return &ConfigurationError{Step: n, Reason: "cycle in next-step chain"}
			}
			seen[n] = true
		}
	}
	return nil
}
