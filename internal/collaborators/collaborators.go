// Package collaborators defines the external services the workflow depends on.
package collaborators

import (
	"context"
	"errors"

	"loan-origination/internal/models"
)

var (
	ErrCollaboratorUnavailable = errors.New("COLLABORATOR_UNAVAILABLE")
	ErrInvalidResponse         = errors.New("COLLABORATOR_INVALID_RESPONSE")
)

// Collaborator names used in logs, metrics and error messages.
const (
	NameCreditBureau     = "credit bureau"
	NameDocumentVerifier = "document verifier"
	NameDisbursementRail = "disbursement rail"
)

// Funding sub-step names.
const (
	StepAccountSetup = "account_setup"
	StepDisbursement = "disbursement"
	StepAgreement    = "agreement_finalization"
)

// FundingSteps lists the rail sub-steps in execution order.
var FundingSteps = []string{StepAccountSetup, StepDisbursement, StepAgreement}

type CreditReport struct {
	Score    int    `json:"score"`
	Bureau   string `json:"bureau"`
	ReportID string `json:"reportId"`
}

// CreditBureau supplies a credit score for an applicant's PAN.
type CreditBureau interface {
	Score(ctx context.Context, pan string, applicant models.Applicant) (*CreditReport, error)
}

type VerificationRequest struct {
	ApplicationID string                   `json:"applicationId"`
	Applicant     models.Applicant         `json:"applicant"`
	Documents     models.RequiredDocuments `json:"documents"`
	Account       models.BankAccount       `json:"account"`
}

// DocumentVerifier returns one verdict per required document.
type DocumentVerifier interface {
	Verify(ctx context.Context, req VerificationRequest) ([]models.DocumentVerdict, error)
}

type FundingRequest struct {
	ApplicationID   string  `json:"applicationId"`
	Method          string  `json:"disbursementMethod"`
	Amount          float64 `json:"amount"`
	AccountNumber   string  `json:"accountNumber"`
	IFSCCode        string  `json:"ifscCode"`
	BeneficiaryName string  `json:"beneficiaryName"`
	Reference       string  `json:"reference,omitempty"`
	// IdempotencyKey identifies one sub-step of one application; the rail
	// answers a repeated key with its recorded result instead of acting again.
	IdempotencyKey string `json:"idempotencyKey"`
}

// FundingKey is the idempotency key of a funding sub-step.
func FundingKey(applicationID, step string) string {
	return applicationID + ":" + step
}

// StepResult is a business outcome; transport failures are returned as errors instead.
type StepResult struct {
	Success   bool   `json:"success"`
	Reference string `json:"reference,omitempty"`
	Message   string `json:"message,omitempty"`
}

// DisbursementRail performs the three funding sub-steps.
type DisbursementRail interface {
	SetupAccount(ctx context.Context, req FundingRequest) (*StepResult, error)
	Disburse(ctx context.Context, req FundingRequest) (*StepResult, error)
	FinalizeAgreement(ctx context.Context, req FundingRequest) (*StepResult, error)
}
