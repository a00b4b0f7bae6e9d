// Package engine implements the flow transition engine: the only component
// allowed to mutate flow instances. Every operation is an optimistic-
// concurrency read-validate-write; lost races retry a bounded number of
// times before surfacing ConflictError.
package engine

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arjunv/procure-flow/internal/identity"
	"github.com/arjunv/procure-flow/internal/models"
	"github.com/arjunv/procure-flow/internal/registry"
	"github.com/arjunv/procure-flow/internal/repository"
	"github.com/arjunv/procure-flow/internal/validator"
)

// maxRetries bounds the engine-internal retry on lost optimistic writes.
const maxRetries = 3

// Engine advances, rejects and saves flow instances against the record
// store, enforcing registry ordering, role gates, completion predicates and
// dependency sets.
type Engine struct {
	registry   *registry.Registry
	validators *validator.Set
	flows      FlowStore
	audit      AuditStore
	tx         TxRunner
	assignees  AssigneeResolver
	logger     *zap.Logger
	now        func() time.Time
}

// NewEngine creates a new workflow engine.
func NewEngine(
	reg *registry.Registry,
	validators *validator.Set,
	flows FlowStore,
	audit AuditStore,
	tx TxRunner,
	assignees AssigneeResolver,
	logger *zap.Logger,
) *Engine {
	if assignees == nil {
		assignees = RoleMap{}
	}
	return &Engine{
		registry:   reg,
		validators: validators,
		flows:      flows,
		audit:      audit,
		tx:         tx,
		assignees:  assignees,
		logger:     logger,
		now:        time.Now,
	}
}

// Raise creates a new flow: the Raise Indent step recorded as completed by
// the raising actor, and the Approve Indent step pending.
func (e *Engine) Raise(ctx context.Context, actor identity.Actor, payload *models.Payload) (*models.FlowInstance, error) {
	first, err := e.registry.Step(registry.StepRaiseIndent)
	if err != nil {
		return nil, e.configFailure(err)
	}
	if first.Role != actor.Role {
		return nil, &AuthorizationError{Step: first.Number, Role: actor.Role, Required: first.Role}
	}
	if err := e.validators.Complete(first.Number, payload); err != nil {
		return nil, &ValidationError{Step: first.Number, Reason: err.Error()}
	}

	encoded, err := payload.Encode()
	if err != nil {
		return nil, &ValidationError{Step: first.Number, Reason: err.Error()}
	}

	next, err := e.registry.Step(first.NextStep)
	if err != nil {
		return nil, e.configFailure(err)
	}

	now := e.now()
	flowID := uuid.NewString()
	raised := &models.FlowInstance{
		FlowID:         flowID,
		StepNumber:     int(first.Number),
		Status:         models.StatusCompleted,
		AssignedRole:   first.Role,
		AssignedTo:     actor.Email,
		StartTime:      now,
		EndTime:        &now,
		TATDays:        first.TATDays,
		ApprovalStatus: models.ApprovalApproved,
		Payload:        encoded,
		LastModifiedBy: actor.Email,
		LastModifiedAt: now,
	}
	successor := e.successorInstance(flowID, next, encoded, now)

	err = e.tx.WithTransaction(func(tx *sql.Tx) error {
		if err := e.flows.Create(tx, raised); err != nil {
			return err
		}
		if err := e.flows.Create(tx, successor); err != nil {
			return err
		}
		return e.audit.Record(tx, &models.AuditEntry{
			FlowID:    flowID,
			FromStep:  int(first.Number),
			ToStep:    int(next.Number),
			Actor:     actor.Email,
			Outcome:   models.OutcomeAdvanced,
			Note:      first.Action,
			Timestamp: now,
		})
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Flow raised",
		zap.String("flow_id", flowID),
		zap.String("actor", actor.Email))
	return successor, nil
}

// Advance completes the flow's instance at step and creates the successor
// instance per the registry. Calling Advance on an already completed
// instance is an idempotent no-op returning the existing successor.
func (e *Engine) Advance(ctx context.Context, flowID string, step registry.StepNumber, actor identity.Actor, payload *models.Payload) (*models.FlowInstance, error) {
	var result *models.FlowInstance
	err := e.withConflictRetry(flowID, step, func() error {
		inst, err := e.advanceOnce(flowID, step, actor, payload)
		result = inst
		return err
	})
	return result, err
}

func (e *Engine) advanceOnce(flowID string, step registry.StepNumber, actor identity.Actor, payload *models.Payload) (*models.FlowInstance, error) {
	def, err := e.registry.Step(step)
	if err != nil {
		return nil, e.configFailure(err)
	}
	if def.Role != actor.Role {
		return nil, &AuthorizationError{Step: step, Role: actor.Role, Required: def.Role}
	}

	inst, err := e.flows.GetByFlowAndStep(flowID, int(step))
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, &NotFoundError{FlowID: flowID, Step: step}
	}

	// Duplicate submission: the step already completed, so hand back the
	// successor that was created then.
	if inst.Status == models.StatusCompleted {
		if def.Terminal() {
			return inst, nil
		}
		succ, err := e.flows.GetByFlowAndStep(flowID, int(def.NextStep))
		if err != nil {
			return nil, err
		}
		if succ != nil {
			return succ, nil
		}
		return inst, nil
	}
	if inst.Status == models.StatusRejected {
		return nil, &ValidationError{Step: step, Reason: "instance was rejected and cannot advance"}
	}

	if payload == nil {
		payload, err = models.ParsePayload(inst.Payload)
		if err != nil {
			return nil, &ValidationError{Step: step, Reason: err.Error()}
		}
	}
	if payload.Decision == models.DecisionRejected {
		return nil, &ValidationError{Step: step, Reason: "a rejected decision must go through reject, not advance"}
	}
	if err := e.validators.Complete(step, payload); err != nil {
		return nil, &ValidationError{Step: step, Reason: err.Error()}
	}

	if err := e.checkDependencies(flowID, def); err != nil {
		return nil, err
	}

	encoded, err := payload.Encode()
	if err != nil {
		return nil, &ValidationError{Step: step, Reason: err.Error()}
	}

	var nextDef registry.StepDefinition
	if !def.Terminal() {
		nextDef, err = e.registry.Step(def.NextStep)
		if err != nil {
			return nil, e.configFailure(err)
		}
	}

	now := e.now()
	inst.Status = models.StatusCompleted
	inst.ApprovalStatus = models.ApprovalApproved
	inst.EndTime = &now
	inst.Payload = encoded
	inst.LastModifiedBy = actor.Email
	inst.LastModifiedAt = now

	var successor *models.FlowInstance
	toStep := 0
	if !def.Terminal() {
		successor = e.successorInstance(flowID, nextDef, encoded, now)
		toStep = int(nextDef.Number)
	}

	err = e.tx.WithTransaction(func(tx *sql.Tx) error {
		if err := e.flows.UpdateWithVersion(tx, inst); err != nil {
			return err
		}
		if successor != nil {
			if err := e.flows.Create(tx, successor); err != nil {
				return err
			}
		}
		return e.audit.Record(tx, &models.AuditEntry{
			FlowID:    flowID,
			FromStep:  int(step),
			ToStep:    toStep,
			Actor:     actor.Email,
			Outcome:   models.OutcomeAdvanced,
			Note:      def.Action,
			Timestamp: now,
		})
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Flow advanced",
		zap.String("flow_id", flowID),
		zap.Int("from_step", int(step)),
		zap.Int("to_step", toStep),
		zap.String("actor", actor.Email))

	if successor != nil {
		return successor, nil
	}
	return inst, nil
}

// Reject marks the flow's instance at step rejected with the given reason.
// When the registry declares an alternate reject edge the flow routes there;
// otherwise it is parked. Rejection never advances along the normal chain.
func (e *Engine) Reject(ctx context.Context, flowID string, step registry.StepNumber, actor identity.Actor, reason string) (*models.FlowInstance, error) {
	var result *models.FlowInstance
	err := e.withConflictRetry(flowID, step, func() error {
		inst, err := e.rejectOnce(flowID, step, actor, reason)
		result = inst
		return err
	})
	return result, err
}

func (e *Engine) rejectOnce(flowID string, step registry.StepNumber, actor identity.Actor, reason string) (*models.FlowInstance, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, &ValidationError{Step: step, Reason: "rejection reason is required"}
	}

	def, err := e.registry.Step(step)
	if err != nil {
		return nil, e.configFailure(err)
	}
	if def.Role != actor.Role {
		return nil, &AuthorizationError{Step: step, Role: actor.Role, Required: def.Role}
	}

	inst, err := e.flows.GetByFlowAndStep(flowID, int(step))
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, &NotFoundError{FlowID: flowID, Step: step}
	}
	if inst.Status == models.StatusRejected {
		return inst, nil
	}
	if inst.Status == models.StatusCompleted {
		return nil, &ValidationError{Step: step, Reason: "instance already completed"}
	}

	now := e.now()
	inst.Status = models.StatusRejected
	inst.ApprovalStatus = models.ApprovalRejected
	inst.RejectionReason = reason
	inst.EndTime = &now
	inst.LastModifiedBy = actor.Email
	inst.LastModifiedAt = now

	var successor *models.FlowInstance
	toStep := 0
	if def.RejectStep != registry.StepNone {
		rejectDef, err := e.registry.Step(def.RejectStep)
		if err != nil {
			return nil, e.configFailure(err)
		}
		successor = e.successorInstance(flowID, rejectDef, inst.Payload, now)
		toStep = int(rejectDef.Number)
	}

	err = e.tx.WithTransaction(func(tx *sql.Tx) error {
		if err := e.flows.UpdateWithVersion(tx, inst); err != nil {
			return err
		}
		if successor != nil {
			if err := e.flows.Create(tx, successor); err != nil {
				return err
			}
		}
		return e.audit.Record(tx, &models.AuditEntry{
			FlowID:    flowID,
			FromStep:  int(step),
			ToStep:    toStep,
			Actor:     actor.Email,
			Outcome:   models.OutcomeRejected,
			Note:      reason,
			Timestamp: now,
		})
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Flow rejected",
		zap.String("flow_id", flowID),
		zap.Int("step", int(step)),
		zap.Int("routed_to", toStep),
		zap.String("actor", actor.Email))

	if successor != nil {
		return successor, nil
	}
	return inst, nil
}

// Save persists work-in-progress payload without transitioning: status and
// step number are left untouched. Always permitted for the step's role
// regardless of completion readiness.
func (e *Engine) Save(ctx context.Context, flowID string, step registry.StepNumber, actor identity.Actor, payload *models.Payload) (*models.FlowInstance, error) {
	var result *models.FlowInstance
	err := e.withConflictRetry(flowID, step, func() error {
		inst, err := e.saveOnce(flowID, step, actor, payload)
		result = inst
		return err
	})
	return result, err
}

func (e *Engine) saveOnce(flowID string, step registry.StepNumber, actor identity.Actor, payload *models.Payload) (*models.FlowInstance, error) {
	def, err := e.registry.Step(step)
	if err != nil {
		return nil, e.configFailure(err)
	}
	if def.Role != actor.Role {
		return nil, &AuthorizationError{Step: step, Role: actor.Role, Required: def.Role}
	}
	if payload == nil {
		return nil, &ValidationError{Step: step, Reason: "no payload submitted"}
	}

	inst, err := e.flows.GetByFlowAndStep(flowID, int(step))
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, &NotFoundError{FlowID: flowID, Step: step}
	}
	if !inst.Active() {
		return nil, &ValidationError{Step: step, Reason: "instance is no longer editable"}
	}

	encoded, err := payload.Encode()
	if err != nil {
		return nil, &ValidationError{Step: step, Reason: err.Error()}
	}

	now := e.now()
	inst.Payload = encoded
	inst.LastModifiedBy = actor.Email
	inst.LastModifiedAt = now

	err = e.tx.WithTransaction(func(tx *sql.Tx) error {
		if err := e.flows.UpdateWithVersion(tx, inst); err != nil {
			return err
		}
		return e.audit.Record(tx, &models.AuditEntry{
			FlowID:    flowID,
			FromStep:  int(step),
			ToStep:    int(step),
			Actor:     actor.Email,
			Outcome:   models.OutcomeSaved,
			Timestamp: now,
		})
	})
	if err != nil {
		return nil, err
	}
	return inst, nil
}

func (e *Engine) checkDependencies(flowID string, def registry.StepDefinition) error {
	if len(def.Dependencies) == 0 {
		return nil
	}
	done, err := e.flows.CompletedSteps(flowID)
	if err != nil {
		return err
	}
	var unmet []registry.StepNumber
	for _, dep := range def.Dependencies {
		if !done[int(dep)] {
			unmet = append(unmet, dep)
		}
	}
	if len(unmet) > 0 {
		return &DependencyUnmetError{Step: def.Number, Unmet: unmet}
	}
	return nil
}

func (e *Engine) successorInstance(flowID string, def registry.StepDefinition, payload string, now time.Time) *models.FlowInstance {
	return &models.FlowInstance{
		FlowID:         flowID,
		StepNumber:     int(def.Number),
		Status:         models.StatusPending,
		AssignedRole:   def.Role,
		AssignedTo:     e.assignees.Resolve(def.Role),
		StartTime:      now,
		TATDays:        def.TATDays,
		ApprovalStatus: models.ApprovalPending,
		Payload:        payload,
		LastModifiedAt: now,
	}
}

// withConflictRetry reruns op when the version-guarded write loses the race,
// re-reading and re-validating each time. After maxRetries the conflict is
// surfaced to the caller.
func (e *Engine) withConflictRetry(flowID string, step registry.StepNumber, op func() error) error {
	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		err = op()
		if !errors.Is(err, repository.ErrVersionConflict) {
			return err
		}
		e.logger.Warn("Optimistic write lost race, retrying",
			zap.String("flow_id", flowID),
			zap.Int("step", int(step)),
			zap.Int("attempt", attempt+1))
	}
	return &ConflictError{FlowID: flowID, Step: step}
}

func (e *Engine) configFailure(err error) error {
	var cfg *registry.ConfigurationError
	if errors.As(err, &cfg) {
		e.logger.Error("Step registry misconfiguration",
			zap.Int("step", int(cfg.Step)),
			zap.String("reason", cfg.Reason))
	}
	return err
}
