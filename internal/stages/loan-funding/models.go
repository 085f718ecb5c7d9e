// internal/stages/loan-funding/models.go
package loanfunding

import (
	"time"

	"loan-origination/internal/models"
)

type Input struct {
	ApplicationID   string
	Method          string
	Amount          float64
	Account         models.BankAccount
	BeneficiaryName string
	// PreviousSteps are sub-steps recorded by earlier funding attempts.
	PreviousSteps []models.FundingStep
	Now           func() time.Time
}

type Output struct {
	Status           models.Status        `json:"status"`
	Reason           string               `json:"reason"`
	Steps            []models.FundingStep `json:"steps"`
	FailedStep       string               `json:"failedStep,omitempty"`
	FundingReference string               `json:"fundingReference,omitempty"`
}

func (o *Output) Payload() map[string]interface{} {
	completed := make([]string, 0, len(o.Steps))
	for _, s := range o.Steps {
		if s.Success {
			completed = append(completed, s.Name)
		}
	}
	p := map[string]interface{}{
		"completedSteps": completed,
	}
	if o.FundingReference != "" {
		p["fundingReference"] = o.FundingReference
	}
	if o.FailedStep != "" {
		p["failedStep"] = o.FailedStep
	}
	return p
}
