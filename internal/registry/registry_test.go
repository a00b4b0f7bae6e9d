package registry

import (
	"errors"
	"testing"
)

func TestStepNumber_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		step     StepNumber
		expected bool
	}{
		{"raise indent", StepRaiseIndent, true},
		{"payment", StepPayment, true},
		{"rejection decision", StepRejectionDecision, true},
		{"zero", StepNone, false},
		{"out of range", StepNumber(99), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.step.IsValid(); got != tt.expected {
				t.Errorf("IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestStepNumber_String(t *testing.T) {
	if got := StepApproveIndent.String(); got != "Approve Indent" {
		t.Errorf("String() = %q, want %q", got, "Approve Indent")
	}
	if got := StepNumber(99).String(); got != "Step(99)" {
		t.Errorf("String() = %q, want %q", got, "Step(99)")
	}
}

func TestNew_DefaultCatalogIsValid(t *testing.T) {
	r, err := New(nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if len(r.Steps()) != 13 {
		t.Errorf("Steps() returned %d steps, want 13", len(r.Steps()))
	}
}

func TestRegistry_NextStepChain(t *testing.T) {
	r, err := New(nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		from StepNumber
		want StepNumber
	}{
		{StepRaiseIndent, StepApproveIndent},
		{StepApproveIndent, StepAssignVendors},
		{StepVendorQuotation, StepComparativeStatement},
		{StepComparativeStatement, StepApproveQuotation},
		{StepQualityCheck, StepPayment},
		{StepRejectionDecision, StepPayment},
		{StepPayment, StepNone},
	}

	for _, tt := range tests {
		t.Run(tt.from.String(), func(t *testing.T) {
			got, err := r.NextStep(tt.from)
			if err != nil {
				t.Fatalf("NextStep() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("NextStep(%d) = %d, want %d", tt.from, got, tt.want)
			}
		})
	}
}

func TestRegistry_RejectionDecisionIsOffTheNormalChain(t *testing.T) {
	r, err := New(nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// No step's normal successor is the rejection decision step.
	for _, def := range r.Steps() {
		if def.NextStep == StepRejectionDecision {
			t.Errorf("step %d reaches the rejection decision via the normal chain", def.Number)
		}
	}

	// It is reachable only through declared reject edges.
	var edges []StepNumber
	for _, def := range r.Steps() {
		if def.RejectStep == StepRejectionDecision {
			edges = append(edges, def.Number)
		}
	}
	if len(edges) == 0 {
		t.Fatal("no step declares a reject edge to the rejection decision")
	}
}

func TestRegistry_RoleAllowed(t *testing.T) {
	r, _ := New(nil)

	if !r.RoleAllowed(StepApproveQuotation, RoleCEO) {
		t.Error("CEO should be allowed on approve quotation")
	}
	if r.RoleAllowed(StepApproveQuotation, RoleStoreManager) {
		t.Error("Store Manager should not be allowed on approve quotation")
	}
	if r.RoleAllowed(StepNumber(99), RoleCEO) {
		t.Error("unknown step should allow no role")
	}
}

func TestRegistry_TATOverrides(t *testing.T) {
	r, err := New(map[int]int{int(StepFollowUpDelivery): 10})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	def, err := r.Step(StepFollowUpDelivery)
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if def.TATDays != 10 {
		t.Errorf("TATDays = %d, want 10", def.TATDays)
	}
}

func TestRegistry_UnknownStepIsConfigurationError(t *testing.T) {
	r, _ := New(nil)

	_, err := r.Step(StepNumber(42))
	var cfg *ConfigurationError
	if !errors.As(err, &cfg) {
		t.Fatalf("Step(42) error = %v, want ConfigurationError", err)
	}
	if cfg.Step != StepNumber(42) {
		t.Errorf("ConfigurationError.Step = %d, want 42", cfg.Step)
	}
}

func TestValidate_DetectsBadCatalogs(t *testing.T) {
	tests := []struct {
		name  string
		steps map[StepNumber]StepDefinition
	}{
		{
			name: "missing role",
			steps: map[StepNumber]StepDefinition{
				StepRaiseIndent: {Number: StepRaiseIndent},
			},
		},
		{
			name: "dangling next edge",
			steps: map[StepNumber]StepDefinition{
				StepRaiseIndent: {Number: StepRaiseIndent, Role: RoleStoreManager, NextStep: StepNumber(99)},
			},
		},
		{
			name: "dangling reject edge",
			steps: map[StepNumber]StepDefinition{
				StepRaiseIndent: {Number: StepRaiseIndent, Role: RoleStoreManager, RejectStep: StepNumber(99)},
			},
		},
		{
			name: "cycle",
			steps: map[StepNumber]StepDefinition{
				StepRaiseIndent:   {Number: StepRaiseIndent, Role: RoleStoreManager, NextStep: StepApproveIndent},
				StepApproveIndent: {Number: StepApproveIndent, Role: RoleProcessCoordinator, NextStep: StepRaiseIndent},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Registry{steps: tt.steps}
			err := r.Validate()
			var cfg *ConfigurationError
			if !errors.As(err, &cfg) {
				t.Errorf("Validate() error = %v, want ConfigurationError", err)
			}
		})
	}
}
