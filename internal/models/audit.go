package models

import "time"

// AuditEntry is one line of the append-only transition log.
type AuditEntry struct {
	ID        int64     `json:"id"`
	FlowID    string    `json:"flow_id"`
	FromStep  int       `json:"from_step"`
	ToStep    int       `json:"to_step"` // 0 when the flow was parked
	Actor     string    `json:"actor"`
	Outcome   string    `json:"outcome"` // ADVANCED, APPROVED, REJECTED, SAVED
	Note      string    `json:"note,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Outcome constants
const (
	OutcomeAdvanced = "ADVANCED"
	OutcomeApproved = "APPROVED"
	OutcomeRejected = "REJECTED"
	OutcomeSaved    = "SAVED"
)
