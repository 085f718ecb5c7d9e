// internal/api/response.go
package api

import (
	"encoding/json"
	"net/http"
	"time"

	apperrors "loan-origination/internal/common/errors"
	"loan-origination/internal/models"
	"loan-origination/internal/orchestrator"
)

const statusError = "error"

// Envelope is the body of every /api response.
type Envelope struct {
	Success bool        `json:"success"`
	Status  string      `json:"status"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// StageData describes one recorded stage outcome.
type StageData struct {
	ApplicationID     string                 `json:"applicationId"`
	ApplicationNumber string                 `json:"applicationNumber,omitempty"`
	Stage             models.Stage           `json:"stage"`
	StageName         string                 `json:"stageName"`
	Status            models.Status          `json:"status"`
	Reason            string                 `json:"reason,omitempty"`
	Payload           map[string]interface{} `json:"payload,omitempty"`
	CurrentStage      models.Stage           `json:"currentStage"`
	Attempts          int                    `json:"attempts"`
	Replayed          bool                   `json:"replayed,omitempty"`
	ReviewedBy        string                 `json:"reviewedBy,omitempty"`
	CompletedAt       *time.Time             `json:"completedAt,omitempty"`
	CreatedAt         time.Time              `json:"createdAt"`
	UpdatedAt         time.Time              `json:"updatedAt"`
}

func stageData(out *orchestrator.Outcome) StageData {
	app := out.Application
	d := StageData{
		ApplicationID: app.ID,
		Stage:         out.Stage,
		StageName:     out.Stage.Label(),
		Status:        out.Result.Status,
		Reason:        out.Result.Reason,
		Payload:       out.Result.Payload,
		CurrentStage:  app.CurrentStage,
		Attempts:      out.Result.Attempts,
		Replayed:      out.Replayed,
		ReviewedBy:    out.Result.ReviewedBy,
		CreatedAt:     app.CreatedAt,
		UpdatedAt:     app.UpdatedAt,
	}
	if !out.Result.CompletedAt.IsZero() {
		at := out.Result.CompletedAt
		d.CompletedAt = &at
	}
	if out.Stage == models.StagePreQualification {
		d.ApplicationNumber = app.ID
	}
	return d
}

// stageStatus picks the HTTP status for a recorded outcome. Business rejections are 200;
// a failed funding sub-step is reported as a client-visible failure.
func stageStatus(out *orchestrator.Outcome) (int, bool) {
	if out.Result.Status.IsFundingFailure() {
		return http.StatusBadRequest, false
	}
	return http.StatusOK, true
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeOutcome(w http.ResponseWriter, out *orchestrator.Outcome) {
	status, ok := stageStatus(out)
	writeJSON(w, status, Envelope{
		Success: ok,
		Status:  string(out.Result.Status),
		Data:    stageData(out),
		Message: out.Result.Reason,
	})
}

func writeStdError(w http.ResponseWriter, stdErr *apperrors.StandardError, status int) {
	env := Envelope{
		Success: false,
		Status:  statusError,
		Message: stdErr.Message,
		Code:    string(stdErr.Code),
	}
	if violations, ok := stdErr.Metadata["errors"]; ok {
		env.Errors = violations
	} else if stdErr.Details != "" {
		env.Errors = []string{stdErr.Details}
	}
	if stdErr.Retryable {
		w.Header().Set("Retry-After", "1")
	}
	writeJSON(w, status, env)
}
