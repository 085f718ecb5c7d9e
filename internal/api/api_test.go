// internal/api/api_test.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"loan-origination/internal/collaborators"
	apperrors "loan-origination/internal/common/errors"
	"loan-origination/internal/common/logger"
	"loan-origination/internal/models"
	"loan-origination/internal/orchestrator"
	"loan-origination/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

// stubWorkflow answers every call with a fixed outcome or error.
type stubWorkflow struct {
	outcome  *orchestrator.Outcome
	err      error
	readyErr error
	lastKey  string
	lastID   string
	lastBody []byte
}

func (s *stubWorkflow) answer(id string, body []byte) (*orchestrator.Outcome, error) {
	s.lastID, s.lastBody = id, body
	return s.outcome, s.err
}

func (s *stubWorkflow) PreQualify(_ context.Context, body []byte, key string) (*orchestrator.Outcome, error) {
	s.lastKey = key
	return s.answer("", body)
}
func (s *stubWorkflow) SubmitLoanApplication(_ context.Context, id string, body []byte) (*orchestrator.Outcome, error) {
	return s.answer(id, body)
}
func (s *stubWorkflow) ProcessApplication(_ context.Context, id string) (*orchestrator.Outcome, error) {
	return s.answer(id, nil)
}
func (s *stubWorkflow) Underwrite(_ context.Context, id string) (*orchestrator.Outcome, error) {
	return s.answer(id, nil)
}
func (s *stubWorkflow) DecideCredit(_ context.Context, id string) (*orchestrator.Outcome, error) {
	return s.answer(id, nil)
}
func (s *stubWorkflow) CheckQuality(_ context.Context, id string) (*orchestrator.Outcome, error) {
	return s.answer(id, nil)
}
func (s *stubWorkflow) FundLoan(_ context.Context, id string, body []byte) (*orchestrator.Outcome, error) {
	return s.answer(id, body)
}
func (s *stubWorkflow) ResolveReview(_ context.Context, _ models.Stage, id string, body []byte) (*orchestrator.Outcome, error) {
	return s.answer(id, body)
}
func (s *stubWorkflow) Status(_ context.Context, _ models.Stage, id string) (*orchestrator.Outcome, error) {
	return s.answer(id, nil)
}
func (s *stubWorkflow) Get(_ context.Context, id string) (*models.Application, error) {
	s.lastID = id
	if s.err != nil {
		return nil, s.err
	}
	return s.outcome.Application, nil
}
func (s *stubWorkflow) Ready(context.Context) error { return s.readyErr }

// ==========================
// Test Helper Functions
// ==========================

func outcomeWith(stage models.Stage, status models.Status) *orchestrator.Outcome {
	app := &models.Application{
		ID:           "app-1",
		CurrentStage: stage,
		Results: map[models.Stage]*models.StageResult{
			stage: {Stage: stage, Status: status, Reason: "recorded", Attempts: 1},
		},
		Version: 1,
	}
	return &orchestrator.Outcome{Application: app, Stage: stage, Result: app.Result(stage)}
}

type envelope struct {
	Success bool                   `json:"success"`
	Status  string                 `json:"status"`
	Data    map[string]interface{} `json:"data"`
	Message string                 `json:"message"`
	Code    string                 `json:"code"`
	Errors  json.RawMessage        `json:"errors"`
}

func do(t *testing.T, h http.Handler, method, path string, body []byte, headers map[string]string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	raw, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), "body: %s", raw)
	}
	return rec.Code, env
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

// ==========================
// Handler Tests
// ==========================

func TestRouter_StageOutcomeStatusCodes(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		outcome     *orchestrator.Outcome
		wantCode    int
		wantSuccess bool
		wantStatus  string
	}{
		{
			name:        "approved pre-qualification",
			path:        "/api/pre-qualification/process",
			outcome:     outcomeWith(models.StagePreQualification, models.StatusApproved),
			wantCode:    http.StatusOK,
			wantSuccess: true,
			wantStatus:  "approved",
		},
		{
			name:        "business rejection is still 200",
			path:        "/api/underwriting/app-1",
			outcome:     outcomeWith(models.StageUnderwriting, models.StatusRejected),
			wantCode:    http.StatusOK,
			wantSuccess: true,
			wantStatus:  "rejected",
		},
		{
			name:        "quality fail is 200",
			path:        "/api/quality-check/app-1",
			outcome:     outcomeWith(models.StageQualityCheck, models.StatusFail),
			wantCode:    http.StatusOK,
			wantSuccess: true,
			wantStatus:  "fail",
		},
		{
			name:        "funding sub-step failure is 400",
			path:        "/api/loan-funding/app-1",
			outcome:     outcomeWith(models.StageLoanFunding, models.StatusDisbursementFailed),
			wantCode:    http.StatusBadRequest,
			wantSuccess: false,
			wantStatus:  "disbursement_failed",
		},
		{
			name:        "funded",
			path:        "/api/loan-funding/app-1",
			outcome:     outcomeWith(models.StageLoanFunding, models.StatusFunded),
			wantCode:    http.StatusOK,
			wantSuccess: true,
			wantStatus:  "funded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wf := &stubWorkflow{outcome: tt.outcome}
			router := NewRouter(wf, logger.NewTestLogger(t), 0)

			code, env := do(t, router, http.MethodPost, tt.path, []byte(`{}`), nil)

			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantSuccess, env.Success)
			assert.Equal(t, tt.wantStatus, env.Status)
			assert.Equal(t, "app-1", env.Data["applicationId"])
			assert.Equal(t, "recorded", env.Message)
		})
	}
}

func TestRouter_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   int
		wantErrors bool
		wantRetry  bool
	}{
		{
			name:       "validation failure lists fields",
			err:        apperrors.NewValidationFailedError("1 field invalid", []map[string]string{{"field": "panNumber"}}, nil),
			wantCode:   http.StatusBadRequest,
			wantErrors: true,
		},
		{
			name:     "illegal transition",
			err:      apperrors.NewIllegalTransitionError("underwriting requires application-processing", nil),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown application",
			err:      apperrors.NewApplicationNotFoundError("missing", nil),
			wantCode: http.StatusNotFound,
		},
		{
			name:      "concurrent modification",
			err:       apperrors.NewConcurrentModificationError("app-1", nil),
			wantCode:  http.StatusConflict,
			wantRetry: true,
		},
		{
			name:      "collaborator timeout",
			err:       apperrors.NewCollaboratorTimeoutError("credit-bureau", context.DeadlineExceeded),
			wantCode:  http.StatusServiceUnavailable,
			wantRetry: true,
		},
		{
			name:     "unclassified error",
			err:      errors.New("boom"),
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wf := &stubWorkflow{err: tt.err}
			router := NewRouter(wf, logger.NewTestLogger(t), 0)

			req := httptest.NewRequest(http.MethodPost, "/api/underwriting/app-1", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			var env envelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
			assert.False(t, env.Success)
			assert.Equal(t, "error", env.Status)
			assert.NotEmpty(t, env.Code)
			if tt.wantErrors {
				assert.Contains(t, string(env.Errors), "panNumber")
			}
			if tt.wantRetry {
				assert.Equal(t, "1", rec.Header().Get("Retry-After"))
			} else {
				assert.Empty(t, rec.Header().Get("Retry-After"))
			}
		})
	}
}

func TestRouter_PassesIdentifiersAndHeaders(t *testing.T) {
	wf := &stubWorkflow{outcome: outcomeWith(models.StagePreQualification, models.StatusApproved)}
	router := NewRouter(wf, logger.NewTestLogger(t), 0)

	code, env := do(t, router, http.MethodPost, "/api/pre-qualification/process", []byte(`{"a":1}`),
		map[string]string{IdempotencyHeader: "key-123"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "key-123", wf.lastKey)
	assert.JSONEq(t, `{"a":1}`, string(wf.lastBody))
	assert.Equal(t, "app-1", env.Data["applicationNumber"])

	wf.outcome = outcomeWith(models.StageLoanApplication, models.StatusApproved)
	_, _ = do(t, router, http.MethodPost, "/api/loan-application/app-42", []byte(`{}`), nil)
	assert.Equal(t, "app-42", wf.lastID)

	_, env = do(t, router, http.MethodPost, "/api/loan-application/app-42", []byte(`{}`), nil)
	_, hasNumber := env.Data["applicationNumber"]
	assert.False(t, hasNumber, "only stage one reports an application number")
}

func TestRouter_EmptyIdentifierReachesWorkflow(t *testing.T) {
	wf := &stubWorkflow{err: apperrors.NewValidationFailedError("applicationId is required", nil, nil)}
	router := NewRouter(wf, logger.NewTestLogger(t), 0)

	code, env := do(t, router, http.MethodPost, "/api/underwriting/", nil, nil)

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, string(apperrors.ErrCodeValidationFailed), env.Code)
	assert.Equal(t, "", wf.lastID)
}

func TestRouter_BodyLimit(t *testing.T) {
	wf := &stubWorkflow{outcome: outcomeWith(models.StagePreQualification, models.StatusApproved)}
	router := NewRouter(wf, logger.NewTestLogger(t), 16)

	code, env := do(t, router, http.MethodPost, "/api/pre-qualification/process",
		[]byte(`{"applicantName":"`+strings.Repeat("x", 64)+`"}`), nil)

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, string(apperrors.ErrCodeValidationFailed), env.Code)
	assert.Nil(t, wf.lastBody, "workflow must not run")
}

func TestRouter_Probes(t *testing.T) {
	wf := &stubWorkflow{}
	router := NewRouter(wf, logger.NewTestLogger(t), 0)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"healthy"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	wf.readyErr = errors.New("connection refused")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "los_http_requests_total")
}

func TestRouter_UnknownRoute(t *testing.T) {
	router := NewRouter(&stubWorkflow{}, logger.NewTestLogger(t), 0)

	code, env := do(t, router, http.MethodGet, "/api/disbursement/status/app-1", nil, nil)

	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "ROUTE_NOT_FOUND", env.Code)
}

// ==========================
// Workflow Over HTTP
// ==========================

func newWorkflowServer(t *testing.T) *httptest.Server {
	t.Helper()
	sim := collaborators.NewSimulator()
	orch := orchestrator.New(orchestrator.DefaultConfig(), store.NewMemoryStore(),
		orchestrator.Collaborators{Bureau: sim, Verifier: sim, Rail: sim},
		logger.NewTestLogger(t),
		orchestrator.WithClock(func() time.Time { return time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC) }),
	)
	srv := httptest.NewServer(NewRouter(orch, logger.NewTestLogger(t), 0))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, path string, body []byte) (int, envelope) {
	t.Helper()
	resp, err := srv.Client().Post(srv.URL+path, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func get(t *testing.T, srv *httptest.Server, path string) (int, envelope) {
	t.Helper()
	resp, err := srv.Client().Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func applicantJSON(t *testing.T) []byte {
	return mustJSON(t, map[string]interface{}{
		"applicantName":  "Rajesh Kumar",
		"phone":          "9876543210",
		"email":          "rajesh.kumar@email.com",
		"dateOfBirth":    "1990-05-15",
		"panNumber":      "ABCDE1234F",
		"loanAmount":     500000,
		"loanPurpose":    "home_improvement",
		"employmentType": "salaried",
		"monthlyIncome":  75000,
		"companyName":    "Tech Solutions Pvt Ltd",
	})
}

func dossierJSON(t *testing.T) []byte {
	doc := func(kind string) map[string]interface{} {
		return map[string]interface{}{"document_type": kind, "document_url": "https://docs.example.com/" + kind + ".pdf"}
	}
	return mustJSON(t, map[string]interface{}{
		"personal_details": map[string]interface{}{"aadhaar_number": "123456789012"},
		"employment_details": map[string]interface{}{
			"employment_type":              "salaried",
			"company_name":                 "Tech Solutions Pvt Ltd",
			"monthly_gross_income":         75000,
			"monthly_net_income":           60000,
			"current_job_experience_years": 2,
		},
		"address_details": map[string]interface{}{
			"current_address": map[string]interface{}{
				"street_address": "123 MG Road", "city": "Mumbai", "state": "Maharashtra", "pincode": "400001",
			},
		},
		"banking_details": map[string]interface{}{
			"primary_account": map[string]interface{}{
				"account_number": "123456789012", "ifsc_code": "HDFC0001234", "bank_name": "HDFC Bank",
				"account_holder_name": "Rajesh Kumar",
			},
		},
		"references": []interface{}{
			map[string]interface{}{"name": "Amit Sharma", "mobile": "9876543211", "relationship": "friend"},
			map[string]interface{}{"name": "Priya Singh", "mobile": "9876543212", "relationship": "colleague"},
		},
		"required_documents": map[string]interface{}{
			"identity_proof":  doc("pan_card"),
			"address_proof":   doc("utility_bill"),
			"income_proof":    doc("salary_slips"),
			"bank_statements": doc("bank_statements"),
		},
		"additional_information": map[string]interface{}{"preferred_tenure_months": 36},
	})
}

func TestWorkflowOverHTTP_FundsApplication(t *testing.T) {
	srv := newWorkflowServer(t)

	code, env := post(t, srv, "/api/pre-qualification/process", applicantJSON(t))
	require.Equal(t, http.StatusOK, code, "message: %s", env.Message)
	require.Equal(t, "approved", env.Status)
	id, _ := env.Data["applicationId"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, id, env.Data["applicationNumber"])

	steps := []struct {
		stage string
		body  []byte
		want  string
	}{
		{"loan-application", dossierJSON(t), "approved"},
		{"application-processing", nil, "approved"},
		{"underwriting", nil, "approved"},
		{"credit-decision", nil, "approved"},
		{"quality-check", nil, "pass"},
		{"loan-funding", mustJSON(t, map[string]string{"disbursementMethod": "NEFT"}), "funded"},
	}
	for _, step := range steps {
		code, env := post(t, srv, "/api/"+step.stage+"/"+id, step.body)
		require.Equal(t, http.StatusOK, code, "%s: %s", step.stage, env.Message)
		require.Equal(t, step.want, env.Status, "%s: %s", step.stage, env.Message)
		assert.Equal(t, step.stage, env.Data["currentStage"])
	}

	code, env = get(t, srv, "/api/loan-funding/status/"+id)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "funded", env.Status)

	code, env = get(t, srv, "/api/applications/"+id)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "funded", env.Status)
	history, _ := env.Data["history"].([]interface{})
	assert.Len(t, history, len(models.Stages))

	// Replaying a completed stage returns the stored outcome.
	code, env = post(t, srv, "/api/underwriting/"+id, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "approved", env.Status)
	assert.Equal(t, true, env.Data["replayed"])
}

func TestWorkflowOverHTTP_Errors(t *testing.T) {
	srv := newWorkflowServer(t)

	code, env := post(t, srv, "/api/pre-qualification/process", []byte(`{"panNumber":"bad"}`))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, string(apperrors.ErrCodeValidationFailed), env.Code)
	assert.Contains(t, string(env.Errors), "panNumber")

	code, env = post(t, srv, "/api/pre-qualification/process", []byte(`{not json`))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "error", env.Status)

	code, env = post(t, srv, "/api/underwriting/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, string(apperrors.ErrCodeApplicationNotFound), env.Code)

	code, env = get(t, srv, "/api/credit-decision/status/does-not-exist")
	assert.Equal(t, http.StatusNotFound, code)

	_, env = post(t, srv, "/api/pre-qualification/process", applicantJSON(t))
	id := fmt.Sprint(env.Data["applicationId"])

	code, env = post(t, srv, "/api/underwriting/"+id, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, string(apperrors.ErrCodeIllegalTransition), env.Code)

	code, env = get(t, srv, "/api/underwriting/status/"+id)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "pending", env.Status)
}
