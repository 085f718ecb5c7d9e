// internal/api/handlers.go
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "loan-origination/internal/common/errors"
	"loan-origination/internal/common/logger"
	"loan-origination/internal/models"
	"loan-origination/internal/orchestrator"

	"github.com/go-chi/chi/v5"
)

const (
	// IdempotencyHeader deduplicates stage-one submissions.
	IdempotencyHeader = "Idempotency-Key"

	defaultMaxBodyBytes int64 = 1 << 20
)

// Workflow is the part of the orchestrator the HTTP layer drives.
type Workflow interface {
	PreQualify(ctx context.Context, body []byte, idempotencyKey string) (*orchestrator.Outcome, error)
	SubmitLoanApplication(ctx context.Context, id string, body []byte) (*orchestrator.Outcome, error)
	ProcessApplication(ctx context.Context, id string) (*orchestrator.Outcome, error)
	Underwrite(ctx context.Context, id string) (*orchestrator.Outcome, error)
	DecideCredit(ctx context.Context, id string) (*orchestrator.Outcome, error)
	CheckQuality(ctx context.Context, id string) (*orchestrator.Outcome, error)
	FundLoan(ctx context.Context, id string, body []byte) (*orchestrator.Outcome, error)
	ResolveReview(ctx context.Context, stage models.Stage, id string, body []byte) (*orchestrator.Outcome, error)
	Status(ctx context.Context, stage models.Stage, id string) (*orchestrator.Outcome, error)
	Get(ctx context.Context, id string) (*models.Application, error)
	Ready(ctx context.Context) error
}

type submitFunc func(ctx context.Context, id string, body []byte) (*orchestrator.Outcome, error)

// Handler serves the workflow endpoints.
type Handler struct {
	workflow     Workflow
	errors       *apperrors.ErrorHandler
	logger       logger.Logger
	maxBodyBytes int64
}

func NewHandler(wf Workflow, log logger.Logger, maxBodyBytes int64) *Handler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}
	log = log.WithFields(map[string]interface{}{"component": "api"})
	return &Handler{
		workflow:     wf,
		errors:       apperrors.NewErrorHandler(log),
		logger:       log,
		maxBodyBytes: maxBodyBytes,
	}
}

// stageHandlers maps each identifier-addressed stage to its workflow call.
func (h *Handler) stageHandlers() map[models.Stage]submitFunc {
	noBody := func(fn func(context.Context, string) (*orchestrator.Outcome, error)) submitFunc {
		return func(ctx context.Context, id string, _ []byte) (*orchestrator.Outcome, error) {
			return fn(ctx, id)
		}
	}
	return map[models.Stage]submitFunc{
		models.StageLoanApplication:       h.workflow.SubmitLoanApplication,
		models.StageApplicationProcessing: noBody(h.workflow.ProcessApplication),
		models.StageUnderwriting:          noBody(h.workflow.Underwrite),
		models.StageCreditDecision:        noBody(h.workflow.DecideCredit),
		models.StageQualityCheck:          noBody(h.workflow.CheckQuality),
		models.StageLoanFunding:           h.workflow.FundLoan,
	}
}

func (h *Handler) PreQualify(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r, models.StagePreQualification)
	if !ok {
		return
	}
	out, err := h.workflow.PreQualify(r.Context(), body, r.Header.Get(IdempotencyHeader))
	if err != nil {
		h.fail(w, r, string(models.StagePreQualification), err)
		return
	}
	writeOutcome(w, out)
}

func (h *Handler) submit(stage models.Stage, fn submitFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := h.readBody(w, r, stage)
		if !ok {
			return
		}
		out, err := fn(r.Context(), chi.URLParam(r, "applicationId"), body)
		if err != nil {
			h.fail(w, r, string(stage), err)
			return
		}
		writeOutcome(w, out)
	}
}

func (h *Handler) review(stage models.Stage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := h.readBody(w, r, stage)
		if !ok {
			return
		}
		out, err := h.workflow.ResolveReview(r.Context(), stage, chi.URLParam(r, "applicationId"), body)
		if err != nil {
			h.fail(w, r, string(stage)+".review", err)
			return
		}
		writeOutcome(w, out)
	}
}

func (h *Handler) status(stage models.Stage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := h.workflow.Status(r.Context(), stage, chi.URLParam(r, "applicationId"))
		if err != nil {
			h.fail(w, r, string(stage)+".status", err)
			return
		}
		writeJSON(w, http.StatusOK, Envelope{
			Success: true,
			Status:  string(out.Result.Status),
			Data:    stageData(out),
			Message: out.Result.Reason,
		})
	}
}

func (h *Handler) Application(w http.ResponseWriter, r *http.Request) {
	app, err := h.workflow.Get(r.Context(), chi.URLParam(r, "applicationId"))
	if err != nil {
		h.fail(w, r, "applications.get", err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{
		Success: true,
		Status:  string(app.CurrentStatus()),
		Data:    app,
	})
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.workflow.Ready(ctx); err != nil {
		h.logger.WithError(err).Warn("readiness check failed", nil)
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) readBody(w http.ResponseWriter, r *http.Request, stage models.Stage) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err == nil {
		return body, true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.fail(w, r, string(stage), apperrors.NewValidationFailedError(
			fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit), nil, err))
		return nil, false
	}
	h.fail(w, r, string(stage), apperrors.NewMalformedRequestError(err))
	return nil, false
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, operation string, err error) {
	stdErr, status := h.errors.Handle(r.Context(), operation, err)
	writeStdError(w, stdErr, status)
}
