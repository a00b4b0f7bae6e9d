package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arjunv/procure-flow/internal/docstore"
	"github.com/arjunv/procure-flow/internal/engine"
	"github.com/arjunv/procure-flow/internal/identity"
	"github.com/arjunv/procure-flow/internal/models"
	"github.com/arjunv/procure-flow/internal/registry"
	"github.com/arjunv/procure-flow/internal/statement"
	"github.com/arjunv/procure-flow/internal/tasks"
)

type fakeEngine struct {
	inst *models.FlowInstance
	err  error

	lastFlowID  string
	lastStep    registry.StepNumber
	lastActor   identity.Actor
	lastPayload *models.Payload
	lastReason  string
}

func (f *fakeEngine) Raise(ctx context.Context, actor identity.Actor, payload *models.Payload) (*models.FlowInstance, error) {
	f.lastActor, f.lastPayload = actor, payload
	return f.inst, f.err
}

func (f *fakeEngine) Advance(ctx context.Context, flowID string, step registry.StepNumber, actor identity.Actor, payload *models.Payload) (*models.FlowInstance, error) {
	f.lastFlowID, f.lastStep, f.lastActor, f.lastPayload = flowID, step, actor, payload
	return f.inst, f.err
}

func (f *fakeEngine) Reject(ctx context.Context, flowID string, step registry.StepNumber, actor identity.Actor, reason string) (*models.FlowInstance, error) {
	f.lastFlowID, f.lastStep, f.lastActor, f.lastReason = flowID, step, actor, reason
	return f.inst, f.err
}

func (f *fakeEngine) Save(ctx context.Context, flowID string, step registry.StepNumber, actor identity.Actor, payload *models.Payload) (*models.FlowInstance, error) {
	f.lastFlowID, f.lastStep, f.lastActor, f.lastPayload = flowID, step, actor, payload
	return f.inst, f.err
}

type fakeHistory struct {
	entries []*models.AuditEntry
}

func (f *fakeHistory) HistoryFor(flowID string) ([]*models.AuditEntry, error) {
	return f.entries, nil
}

type fakeFlowReader struct {
	active *models.FlowInstance
}

func (f *fakeFlowReader) GetActive(flowID string) (*models.FlowInstance, error) {
	return f.active, nil
}

func (f *fakeFlowReader) GetByFlowAndStep(flowID string, step int) (*models.FlowInstance, error) {
	return nil, nil
}

type fakeTaskStore struct {
	instances []*models.FlowInstance
}

func (f *fakeTaskStore) ListActive() ([]*models.FlowInstance, error) {
	return f.instances, nil
}

type fakeSender struct {
	ok        bool
	recipient string
}

func (f *fakeSender) Notify(ctx context.Context, recipient, message string) (bool, error) {
	f.recipient = recipient
	return f.ok, nil
}

type testServer struct {
	srv    *Server
	engine *fakeEngine
	flows  *fakeFlowReader
	sender *fakeSender
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()

	eng := &fakeEngine{inst: &models.FlowInstance{FlowID: "f1", StepNumber: 2}}
	flows := &fakeFlowReader{}
	sender := &fakeSender{ok: true}
	handlers := NewHandlers(
		eng,
		tasks.NewService(&fakeTaskStore{}, logger),
		&fakeHistory{},
		flows,
		docstore.NewLocalStore(t.TempDir(), logger),
		sender,
		statement.NewWriter(logger),
		logger,
	)
	srv := NewServer(ServerConfig{}, handlers, identity.NewHeaderProvider(), logger)
	return &testServer{srv: srv, engine: eng, flows: flows, sender: sender}
}

func (ts *testServer) do(method, path string, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	ts.srv.Router().ServeHTTP(w, req)
	return w
}

func coordinatorHeaders() map[string]string {
	return map[string]string{
		"X-User-Email": "coord@plant.example",
		"X-User-Role":  registry.RoleProcessCoordinator,
	}
}

func TestHealthCheck_NoIdentityRequired(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPI_RequiresIdentityHeaders(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(http.MethodGet, "/api/tasks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdvanceStep_PassesActorAndPayload(t *testing.T) {
	ts := newTestServer(t)

	body := `{"items":[{"item_code":"X1","quantity":"10"}]}`
	w := ts.do(http.MethodPost, "/api/flows/f1/steps/2/advance", body, coordinatorHeaders())
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "f1", ts.engine.lastFlowID)
	assert.Equal(t, registry.StepApproveIndent, ts.engine.lastStep)
	assert.Equal(t, "coord@plant.example", ts.engine.lastActor.Email)
	require.NotNil(t, ts.engine.lastPayload)
	require.Len(t, ts.engine.lastPayload.Items, 1)
	assert.Equal(t, "X1", ts.engine.lastPayload.Items[0].ItemCode)
}

func TestAdvanceStep_EmptyBodyMeansStoredPayload(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/api/flows/f1/steps/2/advance", "", coordinatorHeaders())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, ts.engine.lastPayload)
}

func TestAdvanceStep_InvalidStep(t *testing.T) {
	ts := newTestServer(t)

	for _, step := range []string{"0", "14", "abc"} {
		w := ts.do(http.MethodPost, "/api/flows/f1/steps/"+step+"/advance", "", coordinatorHeaders())
		assert.Equal(t, http.StatusBadRequest, w.Code, "step %s", step)
	}
}

func TestRejectStep_PassesReason(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/api/flows/f1/steps/10/reject", `{"reason":"damaged goods"}`, coordinatorHeaders())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, registry.StepMaterialApproval, ts.engine.lastStep)
	assert.Equal(t, "damaged goods", ts.engine.lastReason)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &engine.ValidationError{Step: registry.StepApproveIndent, Reason: "no items"}, http.StatusUnprocessableEntity},
		{"dependency", &engine.DependencyUnmetError{Step: registry.StepComparativeStatement, Unmet: []registry.StepNumber{registry.StepAssignVendors}}, http.StatusUnprocessableEntity},
		{"authorization", &engine.AuthorizationError{Step: registry.StepApproveQuotation, Role: "Store Manager", Required: "CEO"}, http.StatusForbidden},
		{"conflict", &engine.ConflictError{FlowID: "f1", Step: registry.StepApproveIndent}, http.StatusConflict},
		{"not found", &engine.NotFoundError{FlowID: "f1", Step: registry.StepApproveIndent}, http.StatusNotFound},
		{"configuration", &registry.ConfigurationError{Step: registry.StepApproveIndent, Reason: "no role"}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.engine.err = tt.err
			ts.engine.inst = nil

			w := ts.do(http.MethodPost, "/api/flows/f1/steps/2/advance", "", coordinatorHeaders())
			assert.Equal(t, tt.want, w.Code)

			var resp Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestNotifyVendor_WrongStep(t *testing.T) {
	ts := newTestServer(t)
	ts.flows.active = &models.FlowInstance{FlowID: "f1", StepNumber: int(registry.StepGeneratePO)}

	w := ts.do(http.MethodPost, "/api/flows/f1/notify-vendor",
		`{"recipient":"vendor@example.com","message":"PO attached"}`, coordinatorHeaders())
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNotifyVendor_SetsSentFlag(t *testing.T) {
	ts := newTestServer(t)
	ts.flows.active = &models.FlowInstance{
		FlowID:     "f1",
		StepNumber: int(registry.StepFollowUpDelivery),
		Payload:    `{"po_number":"PO-2024-0117"}`,
	}

	w := ts.do(http.MethodPost, "/api/flows/f1/notify-vendor",
		`{"recipient":"vendor@example.com","message":"PO attached"}`, coordinatorHeaders())
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "vendor@example.com", ts.sender.recipient)
	require.NotNil(t, ts.engine.lastPayload)
	assert.True(t, ts.engine.lastPayload.NotificationSent)
	assert.Equal(t, "PO-2024-0117", ts.engine.lastPayload.PONumber)
}

func TestNotifyVendor_SendFailure(t *testing.T) {
	ts := newTestServer(t)
	ts.sender.ok = false
	ts.flows.active = &models.FlowInstance{FlowID: "f1", StepNumber: int(registry.StepFollowUpDelivery)}

	w := ts.do(http.MethodPost, "/api/flows/f1/notify-vendor",
		`{"recipient":"vendor@example.com","message":"PO attached"}`, coordinatorHeaders())
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestAttachDocument_MergesRefIntoPayload(t *testing.T) {
	ts := newTestServer(t)
	ts.flows.active = &models.FlowInstance{
		FlowID:     "f1",
		StepNumber: int(registry.StepVendorQuotation),
		Payload:    `{}`,
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "quotation.pdf")
	require.NoError(t, err)
	_, err = fw.Write([]byte("pdf bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/flows/f1/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	for k, v := range coordinatorHeaders() {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	ts.srv.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	require.NotNil(t, ts.engine.lastPayload)
	require.Len(t, ts.engine.lastPayload.Documents, 1)
	assert.Equal(t, "quotation.pdf", ts.engine.lastPayload.Documents[0].Name)
	assert.NotEmpty(t, ts.engine.lastPayload.Documents[0].Ref)
}

func TestListTasks_DefaultsToActor(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/api/tasks", "", coordinatorHeaders())
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `"success":true`))
}
