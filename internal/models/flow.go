package models

import "time"

// FlowInstance represents a business object's occupancy of one workflow step.
// One row exists per (flow, step) pair; at most one row per flow is active
// (status not COMPLETED/REJECTED) at any time.
type FlowInstance struct {
	ID              int64      `json:"id"`
	FlowID          string     `json:"flow_id"`
	StepNumber      int        `json:"step_number"`
	Status          string     `json:"status"` // PENDING, IN_PROGRESS, COMPLETED, REJECTED
	AssignedRole    string     `json:"assigned_role"`
	AssignedTo      string     `json:"assigned_to"` // empty means role-wide
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	TATDays         int        `json:"tat_days"`
	ApprovalStatus  string     `json:"approval_status"` // PENDING, APPROVED, REJECTED
	RejectionReason string     `json:"rejection_reason,omitempty"`
	Payload         string     `json:"payload"` // JSON blob, see Payload
	LastModifiedBy  string     `json:"last_modified_by"`
	LastModifiedAt  time.Time  `json:"last_modified_at"`
	Version         int64      `json:"version"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// TATStatus is derived from StartTime + TATDays at read time and never
	// persisted.
	TATStatus string `json:"tat_status,omitempty"`
}

// Status constants
const (
	StatusPending    = "PENDING"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
	StatusRejected   = "REJECTED"
)

// Approval status constants
const (
	ApprovalPending  = "PENDING"
	ApprovalApproved = "APPROVED"
	ApprovalRejected = "REJECTED"
)

// Active reports whether the instance still awaits action.
func (f *FlowInstance) Active() bool {
	return f.Status != StatusCompleted && f.Status != StatusRejected
}

// TAT status constants, derived from StartTime + TATDays at read time.
const (
	TATOnTime  = "ON_TIME"
	TATAtRisk  = "AT_RISK"
	TATOverdue = "OVERDUE"
)
