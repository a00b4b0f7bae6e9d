package engine

import (
	"database/sql"

	"github.com/arjunv/procure-flow/internal/models"
)

// FlowStore is the narrow record-store contract the engine mutates flow
// instances through. The SQLite repository satisfies it; tests substitute
// in-memory fakes.
type FlowStore interface {
	Create(tx *sql.Tx, inst *models.FlowInstance) error
	GetByFlowAndStep(flowID string, step int) (*models.FlowInstance, error)
	GetActive(flowID string) (*models.FlowInstance, error)
	CompletedSteps(flowID string) (map[int]bool, error)
	UpdateWithVersion(tx *sql.Tx, inst *models.FlowInstance) error
}

// AuditStore appends transition records. Append-only: no mutation methods
// exist on the contract.
type AuditStore interface {
	Record(tx *sql.Tx, entry *models.AuditEntry) error
}

// TxRunner runs a function inside one logically atomic store update.
type TxRunner interface {
	WithTransaction(fn func(*sql.Tx) error) error
}

// AssigneeResolver maps a step's role to an individual assignee. An empty
// result leaves the step role-wide.
type AssigneeResolver interface {
	Resolve(role string) string
}

// RoleMap is a static role -> user AssigneeResolver.
type RoleMap map[string]string

// Resolve returns the user assigned to role, or empty for role-wide steps.
func (m RoleMap) Resolve(role string) string { return m[role] }
