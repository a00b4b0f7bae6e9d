package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arjunv/procure-flow/internal/docstore"
	"github.com/arjunv/procure-flow/internal/engine"
	"github.com/arjunv/procure-flow/internal/identity"
	"github.com/arjunv/procure-flow/internal/models"
	"github.com/arjunv/procure-flow/internal/notify"
	"github.com/arjunv/procure-flow/internal/registry"
	"github.com/arjunv/procure-flow/internal/statement"
	"github.com/arjunv/procure-flow/internal/tasks"
)

const actorKey = "actor"

// FlowEngine is the engine surface the handlers call.
type FlowEngine interface {
	Raise(ctx context.Context, actor identity.Actor, payload *models.Payload) (*models.FlowInstance, error)
	Advance(ctx context.Context, flowID string, step registry.StepNumber, actor identity.Actor, payload *models.Payload) (*models.FlowInstance, error)
	Reject(ctx context.Context, flowID string, step registry.StepNumber, actor identity.Actor, reason string) (*models.FlowInstance, error)
	Save(ctx context.Context, flowID string, step registry.StepNumber, actor identity.Actor, payload *models.Payload) (*models.FlowInstance, error)
}

// HistoryReader reads a flow's audit trail.
type HistoryReader interface {
	HistoryFor(flowID string) ([]*models.AuditEntry, error)
}

// FlowReader reads flow instances without mutating them.
type FlowReader interface {
	GetActive(flowID string) (*models.FlowInstance, error)
	GetByFlowAndStep(flowID string, step int) (*models.FlowInstance, error)
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	engine    FlowEngine
	tasks     *tasks.Service
	history   HistoryReader
	flows     FlowReader
	documents docstore.Store
	sender    notify.Sender
	statement *statement.Writer
	logger    *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	eng FlowEngine,
	taskSvc *tasks.Service,
	history HistoryReader,
	flows FlowReader,
	documents docstore.Store,
	sender notify.Sender,
	stmt *statement.Writer,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		engine:    eng,
		tasks:     taskSvc,
		history:   history,
		flows:     flows,
		documents: documents,
		sender:    sender,
		statement: stmt,
		logger:    logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// RaiseFlow handles POST /api/flows
func (h *Handlers) RaiseFlow(c *gin.Context) {
	var payload models.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	inst, err := h.engine.Raise(c.Request.Context(), h.actor(c), &payload)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: inst})
}

// AdvanceStep handles POST /api/flows/:flowID/steps/:step/advance
func (h *Handlers) AdvanceStep(c *gin.Context) {
	step, ok := h.stepParam(c)
	if !ok {
		return
	}

	var payload *models.Payload
	if c.Request.ContentLength > 0 {
		payload = &models.Payload{}
		if err := c.ShouldBindJSON(payload); err != nil {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
			return
		}
	}

	inst, err := h.engine.Advance(c.Request.Context(), c.Param("flowID"), step, h.actor(c), payload)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: inst})
}

// RejectStep handles POST /api/flows/:flowID/steps/:step/reject
func (h *Handlers) RejectStep(c *gin.Context) {
	step, ok := h.stepParam(c)
	if !ok {
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	inst, err := h.engine.Reject(c.Request.Context(), c.Param("flowID"), step, h.actor(c), body.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: inst})
}

// SaveStep handles POST /api/flows/:flowID/steps/:step/save
func (h *Handlers) SaveStep(c *gin.Context) {
	step, ok := h.stepParam(c)
	if !ok {
		return
	}

	var payload models.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	inst, err := h.engine.Save(c.Request.Context(), c.Param("flowID"), step, h.actor(c), &payload)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: inst})
}

// AttachDocument handles POST /api/flows/:flowID/documents. The document is
// stored and its reference merged into the active step's payload.
func (h *Handlers) AttachDocument(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "missing file"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		h.respondError(c, err)
		return
	}

	ref, err := h.documents.Store(fileHeader.Filename, content)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	flowID := c.Param("flowID")
	inst, err := h.flows.GetActive(flowID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if inst == nil {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "flow has no active step"})
		return
	}

	payload, err := models.ParsePayload(inst.Payload)
	if err != nil {
		h.respondError(c, err)
		return
	}
	payload.Documents = append(payload.Documents, ref)

	saved, err := h.engine.Save(c.Request.Context(), flowID, registry.StepNumber(inst.StepNumber), h.actor(c), payload)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: saved})
}

// NotifyVendor handles POST /api/flows/:flowID/notify-vendor. Sends the
// follow-up notification and records the sent flag the follow-up delivery
// predicate checks.
func (h *Handlers) NotifyVendor(c *gin.Context) {
	var body struct {
		Recipient string `json:"recipient" binding:"required"`
		Message   string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "recipient and message are required"})
		return
	}

	flowID := c.Param("flowID")
	inst, err := h.flows.GetActive(flowID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if inst == nil {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "flow has no active step"})
		return
	}
	if inst.StepNumber != int(registry.StepFollowUpDelivery) {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "flow is not at the follow-up delivery step"})
		return
	}

	sent, err := h.sender.Notify(c.Request.Context(), body.Recipient, body.Message)
	if err != nil || !sent {
		h.logger.Error("Vendor notification failed",
			zap.String("flow_id", flowID),
			zap.Error(err))
		c.JSON(http.StatusBadGateway, Response{Success: false, Error: "notification could not be sent"})
		return
	}

	payload, err := models.ParsePayload(inst.Payload)
	if err != nil {
		h.respondError(c, err)
		return
	}
	payload.NotificationSent = true

	saved, err := h.engine.Save(c.Request.Context(), flowID, registry.StepNumber(inst.StepNumber), h.actor(c), payload)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: saved})
}

// FlowHistory handles GET /api/flows/:flowID/history
func (h *Handlers) FlowHistory(c *gin.Context) {
	entries, err := h.history.HistoryFor(c.Param("flowID"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: entries})
}

// ComparativeStatement handles GET /api/flows/:flowID/statement, returning
// the side-by-side vendor comparison workbook.
func (h *Handlers) ComparativeStatement(c *gin.Context) {
	flowID := c.Param("flowID")

	inst, err := h.flows.GetByFlowAndStep(flowID, int(registry.StepComparativeStatement))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if inst == nil {
		inst, err = h.flows.GetActive(flowID)
		if err != nil {
			h.respondError(c, err)
			return
		}
	}
	if inst == nil {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "flow not found"})
		return
	}

	payload, err := models.ParsePayload(inst.Payload)
	if err != nil {
		h.respondError(c, err)
		return
	}

	data, err := h.statement.Bytes(flowID, payload)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, Response{Success: false, Error: err.Error()})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="comparative-statement.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// ListTasks handles GET /api/tasks. Defaults to the caller's own role and
// user; query params allow a coordinator view.
func (h *Handlers) ListTasks(c *gin.Context) {
	actor := h.actor(c)
	role := c.DefaultQuery("role", actor.Role)
	user := c.DefaultQuery("user", actor.Email)

	out, err := h.tasks.TasksFor(c.Request.Context(), role, user)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: out})
}

// TodaysTasks handles GET /api/tasks/today
func (h *Handlers) TodaysTasks(c *gin.Context) {
	actor := h.actor(c)
	all, err := h.tasks.TasksFor(c.Request.Context(), actor.Role, actor.Email)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: h.tasks.TodaysTasks(all, time.Now())})
}

func (h *Handlers) actor(c *gin.Context) identity.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(identity.Actor); ok {
			return actor
		}
	}
	return identity.Actor{}
}

func (h *Handlers) stepParam(c *gin.Context) (registry.StepNumber, bool) {
	n, err := strconv.Atoi(c.Param("step"))
	if err != nil || !registry.StepNumber(n).IsValid() {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid step number"})
		return 0, false
	}
	return registry.StepNumber(n), true
}

// respondError maps the engine's typed errors onto HTTP status codes.
func (h *Handlers) respondError(c *gin.Context, err error) {
	var (
		validation *engine.ValidationError
		authz      *engine.AuthorizationError
		conflict   *engine.ConflictError
		deps       *engine.DependencyUnmetError
		notFound   *engine.NotFoundError
		cfg        *registry.ConfigurationError
	)

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusUnprocessableEntity, Response{Success: false, Error: validation.Error()})
	case errors.As(err, &deps):
		c.JSON(http.StatusUnprocessableEntity, Response{Success: false, Error: deps.Error()})
	case errors.As(err, &authz):
		c.JSON(http.StatusForbidden, Response{Success: false, Error: authz.Error()})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, Response{Success: false, Error: conflict.Error()})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, Response{Success: false, Error: notFound.Error()})
	case errors.As(err, &cfg):
		h.logger.Error("Configuration error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "internal configuration error"})
	default:
		h.logger.Error("Unhandled error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "internal error"})
	}
}
