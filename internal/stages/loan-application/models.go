// internal/stages/loan-application/models.go
package loanapplication

import "loan-origination/internal/models"

type Input struct {
	Applicant models.Applicant
	Dossier   models.Dossier
}

type Output struct {
	Status           models.Status `json:"status"`
	Reason           string        `json:"reason"`
	Reasons          []string      `json:"reasons,omitempty"`
	GrossIncome      float64       `json:"grossIncome"`
	ExistingEMI      float64       `json:"existingEmi"`
	FOIR             float64       `json:"foir"`
	DisposableIncome float64       `json:"disposableIncome"`
}

func (o *Output) Payload() map[string]interface{} {
	p := map[string]interface{}{
		"monthlyGrossIncome": o.GrossIncome,
		"existingEmi":        o.ExistingEMI,
		"foir":               o.FOIR,
		"disposableIncome":   o.DisposableIncome,
	}
	if len(o.Reasons) > 0 {
		p["reasons"] = append([]string(nil), o.Reasons...)
	}
	return p
}
