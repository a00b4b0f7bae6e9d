package repository

import (
	"database/sql"
	"fmt"

	"github.com/arjunv/procure-flow/internal/models"
	"go.uber.org/zap"
)

// AuditRepository is the append-only transition log. There is deliberately
// no update or delete operation.
type AuditRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *sql.DB, logger *zap.Logger) *AuditRepository {
	return &AuditRepository{db: db, logger: logger}
}

// Record appends an audit entry.
func (r *AuditRepository) Record(tx *sql.Tx, entry *models.AuditEntry) error {
	query := `
		INSERT INTO audit_log (flow_id, from_step, to_step, actor, outcome, note, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	args := []interface{}{
		entry.FlowID, entry.FromStep, entry.ToStep, entry.Actor,
		entry.Outcome, entry.Note, entry.Timestamp,
	}

	var result sql.Result
	var err error
	if tx != nil {
		result, err = tx.Exec(query, args...)
	} else {
		result, err = r.db.Exec(query, args...)
	}
	if err != nil {
		r.logger.Error("Failed to record audit entry",
			zap.String("flow_id", entry.FlowID),
			zap.Error(err))
		return fmt.Errorf("failed to record audit entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	entry.ID = id
	return nil
}

// HistoryFor returns the flow's audit trail sorted by timestamp.
func (r *AuditRepository) HistoryFor(flowID string) ([]*models.AuditEntry, error) {
	query := `
		SELECT id, flow_id, from_step, to_step, actor, outcome, note, timestamp
		FROM audit_log
		WHERE flow_id = ?
		ORDER BY timestamp ASC, id ASC
	`
	rows, err := r.db.Query(query, flowID)
	if err != nil {
		r.logger.Error("Failed to query audit history",
			zap.String("flow_id", flowID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to query audit history: %w", err)
	}
	defer rows.Close()

	var entries []*models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.FlowID, &e.FromStep, &e.ToStep, &e.Actor,
			&e.Outcome, &e.Note, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
