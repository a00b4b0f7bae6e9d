package registry

// defaultCatalog is the ordered procurement step catalog. The Decision on
// Rejection step has no PreviousStep in the normal chain: it is reachable
// only through the RejectStep edges declared on Material Approval and
// Quality Check.
var defaultCatalog = []StepDefinition{
	{
		Number:   StepRaiseIndent,
		Role:     RoleStoreManager,
		Action:   "Raise Indent",
		NextStep: StepApproveIndent,
		TATDays:  1,
	},
	{
		Number:       StepApproveIndent,
		Role:         RoleProcessCoordinator,
		Action:       "Approve Indent",
		NextStep:     StepAssignVendors,
		PreviousStep: StepRaiseIndent,
		Dependencies: []StepNumber{StepRaiseIndent},
		TATDays:      2,
	},
	{
		Number:       StepAssignVendors,
		Role:         RolePurchaseOfficer,
		Action:       "Assign Vendors",
		NextStep:     StepVendorQuotation,
		PreviousStep: StepApproveIndent,
		Dependencies: []StepNumber{StepApproveIndent},
		TATDays:      2,
	},
	{
		Number:       StepVendorQuotation,
		Role:         RolePurchaseOfficer,
		Action:       "Collect Vendor Quotations",
		NextStep:     StepComparativeStatement,
		PreviousStep: StepAssignVendors,
		Dependencies: []StepNumber{StepAssignVendors},
		TATDays:      5,
	},
	{
		Number:       StepComparativeStatement,
		Role:         RoleProcessCoordinator,
		Action:       "Prepare Comparative Statement",
		NextStep:     StepApproveQuotation,
		PreviousStep: StepVendorQuotation,
		Dependencies: []StepNumber{StepAssignVendors, StepVendorQuotation},
		TATDays:      2,
	},
	{
		Number:       StepApproveQuotation,
		Role:         RoleCEO,
		Action:       "Approve Quotation",
		NextStep:     StepGeneratePO,
		PreviousStep: StepComparativeStatement,
		Dependencies: []StepNumber{StepComparativeStatement},
		TATDays:      2,
	},
	{
		Number:       StepGeneratePO,
		Role:         RolePurchaseOfficer,
		Action:       "Generate Purchase Order",
		NextStep:     StepFollowUpDelivery,
		PreviousStep: StepApproveQuotation,
		Dependencies: []StepNumber{StepApproveQuotation},
		TATDays:      1,
	},
	{
		Number:       StepFollowUpDelivery,
		Role:         RolePurchaseOfficer,
		Action:       "Follow Up Delivery",
		NextStep:     StepReceiveInspect,
		PreviousStep: StepGeneratePO,
		Dependencies: []StepNumber{StepGeneratePO},
		TATDays:      7,
	},
	{
		Number:       StepReceiveInspect,
		Role:         RoleStoreManager,
		Action:       "Receive and Inspect Material",
		NextStep:     StepMaterialApproval,
		PreviousStep: StepFollowUpDelivery,
		Dependencies: []StepNumber{StepFollowUpDelivery},
		TATDays:      2,
	},
	{
		Number:       StepMaterialApproval,
		Role:         RoleProcessCoordinator,
		Action:       "Material Approval",
		NextStep:     StepQualityCheck,
		PreviousStep: StepReceiveInspect,
		RejectStep:   StepRejectionDecision,
		Dependencies: []StepNumber{StepReceiveInspect},
		TATDays:      2,
	},
	{
		Number:       StepQualityCheck,
		Role:         RoleQualityInspector,
		Action:       "Quality Check",
		NextStep:     StepPayment,
		PreviousStep: StepMaterialApproval,
		RejectStep:   StepRejectionDecision,
		Dependencies: []StepNumber{StepMaterialApproval},
		TATDays:      3,
	},
	{
		Number:   StepRejectionDecision,
		Role:     RoleCEO,
		Action:   "Decision on Rejection",
		NextStep: StepPayment,
		TATDays:  3,
	},
	{
		Number:       StepPayment,
		Role:         RoleAccountsOfficer,
		Action:       "Process Payment",
		PreviousStep: StepQualityCheck,
		TATDays:      7,
	},
}
