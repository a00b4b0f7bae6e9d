// Package repository implements the record store adapter over SQLite.
// Updates to flow instances are version-guarded: an UPDATE that matches no
// row because the version moved on is reported as ErrVersionConflict, which
// the engine turns into its optimistic-concurrency retry.
package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/arjunv/procure-flow/internal/models"
	"go.uber.org/zap"
)

// ErrVersionConflict is returned when a version-guarded update matched no
// row: another writer committed first.
var ErrVersionConflict = errors.New("flow instance version conflict")

// FlowRepository handles flow instance database operations
type FlowRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewFlowRepository creates a new flow repository
func NewFlowRepository(db *sql.DB, logger *zap.Logger) *FlowRepository {
	return &FlowRepository{db: db, logger: logger}
}

const flowColumns = `id, flow_id, step_number, status, assigned_role, assigned_to,
	start_time, end_time, tat_days, approval_status, rejection_reason, payload,
	last_modified_by, last_modified_at, version, created_at, updated_at`

// Create inserts a new flow instance row.
func (r *FlowRepository) Create(tx *sql.Tx, inst *models.FlowInstance) error {
	query := `
		INSERT INTO flow_instances (
			flow_id, step_number, status, assigned_role, assigned_to,
			start_time, end_time, tat_days, approval_status, rejection_reason, payload,
			last_modified_by, last_modified_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	args := []interface{}{
		inst.FlowID, inst.StepNumber, inst.Status, inst.AssignedRole, inst.AssignedTo,
		inst.StartTime, inst.EndTime, inst.TATDays, inst.ApprovalStatus, inst.RejectionReason, inst.Payload,
		inst.LastModifiedBy, inst.LastModifiedAt,
	}

	var result sql.Result
	var err error
	if tx != nil {
		result, err = tx.Exec(query, args...)
	} else {
		result, err = r.db.Exec(query, args...)
	}
	if err != nil {
		r.logger.Error("Failed to create flow instance",
			zap.String("flow_id", inst.FlowID),
			zap.Int("step", inst.StepNumber),
			zap.Error(err))
		return fmt.Errorf("failed to create flow instance: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	inst.ID = id
	inst.Version = 1
	return nil
}

// GetByFlowAndStep retrieves the instance for a flow at a specific step.
// Returns nil without error when no such instance exists.
func (r *FlowRepository) GetByFlowAndStep(flowID string, step int) (*models.FlowInstance, error) {
	query := `SELECT ` + flowColumns + ` FROM flow_instances WHERE flow_id = ? AND step_number = ?`
	return r.scanOne(r.db.QueryRow(query, flowID, step))
}

// GetActive retrieves the flow's current (non-completed, non-rejected)
// instance, or nil when the flow is finished or parked.
func (r *FlowRepository) GetActive(flowID string) (*models.FlowInstance, error) {
	query := `SELECT ` + flowColumns + ` FROM flow_instances
		WHERE flow_id = ? AND status NOT IN (?, ?)
		ORDER BY id DESC LIMIT 1`
	return r.scanOne(r.db.QueryRow(query, flowID, models.StatusCompleted, models.StatusRejected))
}

// CompletedSteps returns the set of step numbers the flow has completed.
func (r *FlowRepository) CompletedSteps(flowID string) (map[int]bool, error) {
	rows, err := r.db.Query(
		`SELECT step_number FROM flow_instances WHERE flow_id = ? AND status = ?`,
		flowID, models.StatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed steps: %w", err)
	}
	defer rows.Close()

	done := make(map[int]bool)
	for rows.Next() {
		var step int
		if err := rows.Scan(&step); err != nil {
			return nil, err
		}
		done[step] = true
	}
	return done, rows.Err()
}

// ListActive retrieves all active instances, oldest start first.
func (r *FlowRepository) ListActive() ([]*models.FlowInstance, error) {
	query := `SELECT ` + flowColumns + ` FROM flow_instances
		WHERE status NOT IN (?, ?) ORDER BY start_time ASC`
	rows, err := r.db.Query(query, models.StatusCompleted, models.StatusRejected)
	if err != nil {
		r.logger.Error("Failed to list active instances", zap.Error(err))
		return nil, fmt.Errorf("failed to list active instances: %w", err)
	}
	defer rows.Close()

	var out []*models.FlowInstance
	for rows.Next() {
		inst, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}

// UpdateWithVersion writes the instance's mutable fields, guarded by the
// version the caller read. The version is bumped on success; a write that
// matches no row returns ErrVersionConflict.
func (r *FlowRepository) UpdateWithVersion(tx *sql.Tx, inst *models.FlowInstance) error {
	query := `
		UPDATE flow_instances SET
			status = ?, assigned_to = ?, end_time = ?, approval_status = ?,
			rejection_reason = ?, payload = ?, last_modified_by = ?,
			last_modified_at = ?, version = version + 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?
	`
	args := []interface{}{
		inst.Status, inst.AssignedTo, inst.EndTime, inst.ApprovalStatus,
		inst.RejectionReason, inst.Payload, inst.LastModifiedBy,
		inst.LastModifiedAt,
		inst.ID, inst.Version,
	}

	var result sql.Result
	var err error
	if tx != nil {
		result, err = tx.Exec(query, args...)
	} else {
		result, err = r.db.Exec(query, args...)
	}
	if err != nil {
		r.logger.Error("Failed to update flow instance",
			zap.Int64("id", inst.ID),
			zap.Error(err))
		return fmt.Errorf("failed to update flow instance: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrVersionConflict
	}
	inst.Version++
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *FlowRepository) scanOne(row *sql.Row) (*models.FlowInstance, error) {
	inst, err := r.scanRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return inst, err
}

func (r *FlowRepository) scanRow(row rowScanner) (*models.FlowInstance, error) {
	var inst models.FlowInstance
	var endTime sql.NullTime
	err := row.Scan(
		&inst.ID, &inst.FlowID, &inst.StepNumber, &inst.Status,
		&inst.AssignedRole, &inst.AssignedTo, &inst.StartTime, &endTime,
		&inst.TATDays, &inst.ApprovalStatus, &inst.RejectionReason, &inst.Payload,
		&inst.LastModifiedBy, &inst.LastModifiedAt, &inst.Version,
		&inst.CreatedAt, &inst.UpdatedAt,
	)
	if err != nil {
		if err != sql.ErrNoRows {
			r.logger.Error("Failed to scan flow instance", zap.Error(err))
		}
		return nil, err
	}
	if endTime.Valid {
		t := endTime.Time
		inst.EndTime = &t
	}
	return &inst, nil
}
