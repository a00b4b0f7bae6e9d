package registry

import "fmt"

// StepNumber identifies a workflow step. The set of valid steps is closed;
// arithmetic on step numbers is never used to derive ordering, the registry
// edges are.
type StepNumber int

const (
	StepNone                 StepNumber = 0 // absent edge / parked flow
	StepRaiseIndent          StepNumber = 1
	StepApproveIndent        StepNumber = 2
	StepAssignVendors        StepNumber = 3
	StepVendorQuotation      StepNumber = 4
	StepComparativeStatement StepNumber = 5
	StepApproveQuotation     StepNumber = 6
	StepGeneratePO           StepNumber = 7
	StepFollowUpDelivery     StepNumber = 8
	StepReceiveInspect       StepNumber = 9
	StepMaterialApproval     StepNumber = 10
	StepQualityCheck         StepNumber = 11
	StepRejectionDecision    StepNumber = 12
	StepPayment              StepNumber = 13
)

var stepNames = map[StepNumber]string{
	StepRaiseIndent:          "Raise Indent",
	StepApproveIndent:        "Approve Indent",
	StepAssignVendors:        "Assign Vendors",
	StepVendorQuotation:      "Vendor Quotation",
	StepComparativeStatement: "Comparative Statement",
	StepApproveQuotation:     "Approve Quotation",
	StepGeneratePO:           "Generate PO",
	StepFollowUpDelivery:     "Follow-up Delivery",
	StepReceiveInspect:       "Receive & Inspect",
	StepMaterialApproval:     "Material Approval",
	StepQualityCheck:         "Quality Check",
	StepRejectionDecision:    "Decision on Rejection",
	StepPayment:              "Payment",
}

// IsValid returns true if n names a step in the catalog.
func (n StepNumber) IsValid() bool {
	_, ok := stepNames[n]
	return ok
}

// String returns the human label of the step.
func (n StepNumber) String() string {
	if name, ok := stepNames[n]; ok {
		return name
	}
	return fmt.Sprintf("Step(%d)", int(n))
}

// Role constants for the actors permitted to act on each step.
const (
	RoleStoreManager       = "Store Manager"
	RoleProcessCoordinator = "Process Coordinator"
	RolePurchaseOfficer    = "Purchase Officer"
	RoleCEO                = "CEO"
	RoleQualityInspector   = "Quality Inspector"
	RoleAccountsOfficer    = "Accounts Officer"
)

// StepDefinition is the static description of one workflow step.
// NextStep is the normal-path successor; RejectStep, when set, is the
// alternate edge a rejection routes to. Dependencies must all be COMPLETED
// for the flow before the step may advance.
type StepDefinition struct {
	Number       StepNumber
	Role         string
	Action       string
	NextStep     StepNumber // StepNone for terminal steps
	PreviousStep StepNumber // StepNone for the initial step
	RejectStep   StepNumber // StepNone when rejection parks the flow
	Dependencies []StepNumber
	TATDays      int
}

// Terminal reports whether the step has no normal-path successor.
func (d StepDefinition) Terminal() bool {
	return d.NextStep == StepNone
}
