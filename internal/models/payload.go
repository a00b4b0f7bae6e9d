package models

import (
	"encoding/json"
	"fmt"
)

// Payload is the step-specific working data carried by a FlowInstance.
// It is stored as a JSON blob; the engine treats it as opaque except through
// the step completion validators.
type Payload struct {
	Items            []Item    `json:"items,omitempty"`
	Documents        []FileRef `json:"documents,omitempty"`
	PONumber         string    `json:"po_number,omitempty"`
	NotificationSent bool      `json:"notification_sent,omitempty"`
	Decision         string    `json:"decision,omitempty"` // APPROVED or REJECTED, for decision steps
	DecisionReason   string    `json:"decision_reason,omitempty"`
	Note             string    `json:"note,omitempty"`
}

// Decision constants for decision steps (material approval, rejection decision).
const (
	DecisionApproved = "APPROVED"
	DecisionRejected = "REJECTED"
)

// Item is a single line of an indent.
type Item struct {
	ItemCode       string        `json:"item_code"`
	Name           string        `json:"name"`
	Quantity       string        `json:"quantity"`
	Specifications string        `json:"specifications,omitempty"`
	SelectedVendor string        `json:"selected_vendor,omitempty"`
	SampleRequired *bool         `json:"sample_required,omitempty"` // nil = not yet decided
	Vendors        []VendorQuote `json:"vendors,omitempty"`
}

// VendorQuote is one vendor's quotation for an item.
type VendorQuote struct {
	VendorCode      string `json:"vendor_code"`
	VendorName      string `json:"vendor_name"`
	Price           string `json:"price"`
	DeliveryTime    string `json:"delivery_time,omitempty"`
	Terms           string `json:"terms,omitempty"`
	LeadTime        string `json:"lead_time,omitempty"`
	Best            bool   `json:"best,omitempty"`
	QuotationDocRef string `json:"quotation_doc_ref,omitempty"`
}

// FileRef is an opaque reference to a stored document.
type FileRef struct {
	Ref  string `json:"ref"`
	Name string `json:"name"`
}

// ParsePayload decodes the JSON blob stored on a FlowInstance.
// An empty blob decodes to an empty payload.
func ParsePayload(raw string) (*Payload, error) {
	p := &Payload{}
	if raw == "" {
		return p, nil
	}
	if err := json.Unmarshal([]byte(raw), p); err != nil {
		return nil, fmt.Errorf("failed to parse payload: %w", err)
	}
	return p, nil
}

// Encode serializes the payload for storage.
func (p *Payload) Encode() (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode payload: %w", err)
	}
	return string(b), nil
}
