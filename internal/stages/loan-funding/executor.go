// internal/stages/loan-funding/executor.go
package loanfunding

import (
	"context"
	"fmt"
	"time"

	"loan-origination/internal/collaborators"
	"loan-origination/internal/models"
)

const Stage = models.StageLoanFunding

var failureStatus = map[string]models.Status{
	collaborators.StepAccountSetup: models.StatusAccountSetupFailed,
	collaborators.StepDisbursement: models.StatusDisbursementFailed,
	collaborators.StepAgreement:    models.StatusAgreementFailed,
}

var failureReason = map[string]string{
	collaborators.StepAccountSetup: "account setup failed",
	collaborators.StepDisbursement: "disbursement failed",
	collaborators.StepAgreement:    "agreement failed",
}

// Executor drives the rail sub-steps in order and stops at the first declined step.
type Executor struct {
	rail collaborators.DisbursementRail
}

func NewExecutor(rail collaborators.DisbursementRail) *Executor {
	return &Executor{rail: rail}
}

// Execute runs the sub-steps not already completed by a previous attempt.
// A returned error means the rail could not be reached; nothing should be recorded.
func (x *Executor) Execute(ctx context.Context, in *Input) (*Output, error) {
	now := in.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	done := make(map[string]models.FundingStep)
	for _, s := range in.PreviousSteps {
		if s.Success {
			done[s.Name] = s
		}
	}

	req := collaborators.FundingRequest{
		ApplicationID:   in.ApplicationID,
		Method:          in.Method,
		Amount:          in.Amount,
		AccountNumber:   in.Account.AccountNumber,
		IFSCCode:        in.Account.IFSCCode,
		BeneficiaryName: in.BeneficiaryName,
	}

	var steps []models.FundingStep
	for _, name := range collaborators.FundingSteps {
		if prev, ok := done[name]; ok {
			steps = append(steps, prev)
			req.Reference = prev.Reference
			continue
		}

		req.IdempotencyKey = collaborators.FundingKey(in.ApplicationID, name)
		res, err := x.call(ctx, name, req)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		step := models.FundingStep{Name: name, Success: res.Success, Reference: res.Reference, Message: res.Message, At: now()}
		steps = append(steps, step)
		if !res.Success {
			break
		}
		req.Reference = res.Reference
	}
	return Evaluate(steps), nil
}

func (x *Executor) call(ctx context.Context, name string, req collaborators.FundingRequest) (*collaborators.StepResult, error) {
	switch name {
	case collaborators.StepAccountSetup:
		return x.rail.SetupAccount(ctx, req)
	case collaborators.StepDisbursement:
		return x.rail.Disburse(ctx, req)
	default:
		return x.rail.FinalizeAgreement(ctx, req)
	}
}

// Evaluate maps recorded sub-steps onto the funding outcome.
func Evaluate(steps []models.FundingStep) *Output {
	out := &Output{Steps: steps}
	succeeded := make(map[string]models.FundingStep, len(steps))
	for _, s := range steps {
		if !s.Success {
			out.Status = failureStatus[s.Name]
			out.FailedStep = s.Name
			out.Reason = failureReason[s.Name]
			if s.Message != "" {
				out.Reason += ": " + s.Message
			}
			return out
		}
		succeeded[s.Name] = s
	}

	for _, name := range collaborators.FundingSteps {
		if _, ok := succeeded[name]; !ok {
			out.Status = failureStatus[name]
			out.FailedStep = name
			out.Reason = failureReason[name] + ": step did not run"
			return out
		}
	}

	out.Status = models.StatusFunded
	out.FundingReference = succeeded[collaborators.StepDisbursement].Reference
	out.Reason = "Loan funded"
	return out
}
