// internal/stages/loan-application/evaluator.go
package loanapplication

import (
	"fmt"
	"math"
	"strings"

	"loan-origination/internal/models"
)

const Stage = models.StageLoanApplication

type Evaluator struct {
	config *Config
}

func NewEvaluator(config *Config) *Evaluator {
	if config == nil {
		config = DefaultConfig()
	}
	return &Evaluator{config: config}
}

// Evaluate grades affordability on gross income and FOIR (existing EMI over gross income).
func (e *Evaluator) Evaluate(in *Input) *Output {
	emp := in.Dossier.EmploymentDetails
	out := &Output{
		GrossIncome: emp.MonthlyGrossIncome,
		ExistingEMI: in.Applicant.ExistingEMI,
		FOIR:        FOIR(in.Applicant.ExistingEMI, emp.MonthlyGrossIncome),
	}

	net := emp.MonthlyNetIncome
	if net == 0 {
		net = emp.MonthlyGrossIncome
	}
	out.DisposableIncome = math.Round(net - in.Dossier.BankingDetails.MonthlyExpenses.TotalMonthlyExpenses - out.ExistingEMI)

	if out.GrossIncome < e.config.MinGrossIncome {
		out.Reasons = append(out.Reasons, fmt.Sprintf("monthly gross income %.0f is below %.0f", out.GrossIncome, e.config.MinGrossIncome))
	}
	if out.FOIR > e.config.MaxFOIR {
		out.Reasons = append(out.Reasons, fmt.Sprintf("FOIR %.2f exceeds %.2f", out.FOIR, e.config.MaxFOIR))
	}
	if len(out.Reasons) > 0 {
		out.Status = models.StatusRejected
		out.Reason = "Loan application rejected: " + strings.Join(out.Reasons, "; ")
		return out
	}

	if out.GrossIncome < e.config.ConditionalGrossIncome {
		out.Reasons = append(out.Reasons, fmt.Sprintf("monthly gross income %.0f is below %.0f", out.GrossIncome, e.config.ConditionalGrossIncome))
	}
	if out.FOIR > e.config.ConditionalFOIR {
		out.Reasons = append(out.Reasons, fmt.Sprintf("FOIR %.2f exceeds %.2f", out.FOIR, e.config.ConditionalFOIR))
	}
	if len(out.Reasons) > 0 {
		out.Status = models.StatusConditional
		out.Reason = "Loan application conditionally approved: " + strings.Join(out.Reasons, "; ")
		return out
	}

	out.Status = models.StatusApproved
	out.Reason = "Loan application approved"
	return out
}

// FOIR is the fixed-obligation-to-income ratio, rounded to four decimals. Zero income counts as fully obligated.
func FOIR(existingEMI, grossIncome float64) float64 {
	if grossIncome <= 0 {
		return 1
	}
	return math.Round(existingEMI/grossIncome*10000) / 10000
}
