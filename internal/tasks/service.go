// Package tasks surfaces the flow instances awaiting action by a role or
// user, and derives due dates and overdue buckets from TAT.
package tasks

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/arjunv/procure-flow/internal/models"
)

// Overdue buckets, most urgent first. Exact boundaries resolve to the more
// urgent bucket.
const (
	DueOverdue  = "OVERDUE"
	DueToday    = "DUE_TODAY"
	DueTomorrow = "DUE_TOMORROW"
	DueInNDays  = "DUE_IN_N_DAYS"
	DueNone     = "NONE"
)

// Store is the read-side contract the task service needs.
type Store interface {
	ListActive() ([]*models.FlowInstance, error)
}

// Service answers "what is waiting on whom, and by when".
type Service struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a new task query service.
func NewService(store Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger, now: time.Now}
}

// TasksFor returns the active instances whose step role matches. Where an
// instance is individually assigned, it is further restricted to that user;
// role-wide instances (empty assignee) are visible to every user in the role.
func (s *Service) TasksFor(ctx context.Context, role, user string) ([]*models.FlowInstance, error) {
	all, err := s.store.ListActive()
	if err != nil {
		return nil, err
	}

	now := s.now()
	var out []*models.FlowInstance
	for _, inst := range all {
		if inst.AssignedRole != role {
			continue
		}
		if inst.AssignedTo != "" && inst.AssignedTo != user {
			continue
		}
		inst.TATStatus = s.tatStatus(inst, now)
		out = append(out, inst)
	}
	return out, nil
}

// DueDate is StartTime + TATDays days, or nil when either is missing.
func (s *Service) DueDate(inst *models.FlowInstance) *time.Time {
	if inst.StartTime.IsZero() || inst.TATDays <= 0 {
		return nil
	}
	due := inst.StartTime.AddDate(0, 0, inst.TATDays)
	return &due
}

// OverdueStatus buckets an instance by its due date relative to now.
func (s *Service) OverdueStatus(inst *models.FlowInstance, now time.Time) string {
	due := s.DueDate(inst)
	if due == nil {
		return DueNone
	}
	// A due date that has arrived is overdue, even on the exact boundary.
	if !due.After(now) {
		return DueOverdue
	}
	if sameDay(*due, now) {
		return DueToday
	}
	if sameDay(*due, now.AddDate(0, 0, 1)) {
		return DueTomorrow
	}
	return DueInNDays
}

// TodaysTasks selects the tasks due on now's calendar date. Instances whose
// due date cannot be computed fall back to "created in the last 24 hours";
// the fallback is logged, never silent.
func (s *Service) TodaysTasks(all []*models.FlowInstance, now time.Time) []*models.FlowInstance {
	var out []*models.FlowInstance
	for _, inst := range all {
		due := s.DueDate(inst)
		if due == nil {
			if now.Sub(inst.CreatedAt) <= 24*time.Hour && now.Sub(inst.CreatedAt) >= 0 {
				s.logger.Debug("Task has no due date, using creation-time fallback",
					zap.String("flow_id", inst.FlowID),
					zap.Int("step", inst.StepNumber))
				out = append(out, inst)
			}
			continue
		}
		if sameDay(*due, now) {
			out = append(out, inst)
		}
	}
	return out
}

func (s *Service) tatStatus(inst *models.FlowInstance, now time.Time) string {
	due := s.DueDate(inst)
	if due == nil {
		return models.TATOnTime
	}
	if !due.After(now) {
		return models.TATOverdue
	}
	if due.Sub(now) <= 24*time.Hour {
		return models.TATAtRisk
	}
	return models.TATOnTime
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
