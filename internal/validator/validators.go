package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/arjunv/procure-flow/internal/models"
	"github.com/arjunv/procure-flow/internal/registry"
)

// approveIndent requires at least one item, each with an item code and a
// quantity.
type approveIndent struct{}

func (approveIndent) Step() registry.StepNumber { return registry.StepApproveIndent }

func (approveIndent) Complete(p *models.Payload) error {
	if len(p.Items) == 0 {
		return errors.New("indent has no items")
	}
	for i, item := range p.Items {
		if strings.TrimSpace(item.ItemCode) == "" {
			return fmt.Errorf("item %d has no item code", i+1)
		}
		if strings.TrimSpace(item.Quantity) == "" {
			return fmt.Errorf("item %q has no quantity", item.ItemCode)
		}
	}
	return nil
}

// comparativeStatement requires every vendor attached to every item to have
// a recorded price.
type comparativeStatement struct{}

func (comparativeStatement) Step() registry.StepNumber { return registry.StepComparativeStatement }

func (comparativeStatement) Complete(p *models.Payload) error {
	if len(p.Items) == 0 {
		return errors.New("no items to compare")
	}
	for _, item := range p.Items {
		if len(item.Vendors) == 0 {
			return fmt.Errorf("item %q has no vendors", item.ItemCode)
		}
		for _, v := range item.Vendors {
			if strings.TrimSpace(v.Price) == "" {
				return fmt.Errorf("vendor %q has no price for item %q", v.VendorCode, item.ItemCode)
			}
		}
	}
	return nil
}

// approveQuotation requires every item to have a selected vendor and an
// explicit sample-required decision. An unset flag is distinct from false.
type approveQuotation struct{}

func (approveQuotation) Step() registry.StepNumber { return registry.StepApproveQuotation }

func (approveQuotation) Complete(p *models.Payload) error {
	if len(p.Items) == 0 {
		return errors.New("no items in quotation")
	}
	for _, item := range p.Items {
		if strings.TrimSpace(item.SelectedVendor) == "" {
			return fmt.Errorf("item %q has no selected vendor", item.ItemCode)
		}
		if item.SampleRequired == nil {
			return fmt.Errorf("item %q has no sample-required decision", item.ItemCode)
		}
	}
	return nil
}

// followUpDelivery requires the vendor notification to have been sent. The
// PO-copy document is optional; the notification is not.
type followUpDelivery struct{}

func (followUpDelivery) Step() registry.StepNumber { return registry.StepFollowUpDelivery }

func (followUpDelivery) Complete(p *models.Payload) error {
	if !p.NotificationSent {
		return errors.New("vendor has not been notified")
	}
	return nil
}

// materialDecision covers Material Approval and Decision on Rejection: either
// approved (documents optional) or rejected with a mandatory reason.
type materialDecision struct {
	step registry.StepNumber
}

func (m materialDecision) Step() registry.StepNumber { return m.step }

func (m materialDecision) Complete(p *models.Payload) error {
	switch p.Decision {
	case models.DecisionApproved:
		return nil
	case models.DecisionRejected:
		if strings.TrimSpace(p.DecisionReason) == "" {
			return errors.New("rejection reason is required")
		}
		return nil
	case "":
		return errors.New("no approval decision recorded")
	default:
		return fmt.Errorf("unknown decision %q", p.Decision)
	}
}
