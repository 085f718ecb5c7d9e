// internal/stages/pre-qualification/evaluator.go
package prequalification

import (
	"fmt"
	"math"
	"strings"

	"loan-origination/internal/common/validation"
	"loan-origination/internal/models"
)

const Stage = models.StagePreQualification

type Evaluator struct {
	config *Config
}

func NewEvaluator(config *Config) *Evaluator {
	if config == nil {
		config = DefaultConfig()
	}
	return &Evaluator{config: config}
}

// Evaluate decides eligibility from the applicant and the bureau score.
func (e *Evaluator) Evaluate(in *Input) *Output {
	out := &Output{CreditScore: in.CreditScore}

	if in.CreditScore < e.config.MinCreditScore {
		out.Reasons = append(out.Reasons, fmt.Sprintf("credit score %d is below minimum %d", in.CreditScore, e.config.MinCreditScore))
	}

	if dob, ok := validation.ParseDate(in.Applicant.DateOfBirth); ok {
		out.Age = validation.AgeOn(dob, in.AsOf)
		if out.Age < e.config.MinAge || out.Age > e.config.MaxAge {
			out.Reasons = append(out.Reasons, fmt.Sprintf("age %d is outside %d-%d", out.Age, e.config.MinAge, e.config.MaxAge))
		}
	} else {
		out.Reasons = append(out.Reasons, "date of birth could not be read")
	}

	amount := in.Applicant.LoanAmount
	if amount < e.config.MinLoanAmount || amount > e.config.MaxLoanAmount {
		out.Reasons = append(out.Reasons, fmt.Sprintf("loan amount %.0f is outside %.0f-%.0f", amount, e.config.MinLoanAmount, e.config.MaxLoanAmount))
	}

	if len(out.Reasons) > 0 {
		out.Status = models.StatusRejected
		out.Reason = "Pre-qualification rejected: " + strings.Join(out.Reasons, "; ")
		return out
	}

	multiplier, rateRange := e.band(in.CreditScore)
	out.Status = models.StatusApproved
	out.EstimatedLoanAmount = math.Min(amount, math.Round(in.Applicant.MonthlyIncome*multiplier))
	out.InterestRateRange = rateRange
	out.Reason = "Pre-qualification approved"
	return out
}

func (e *Evaluator) band(score int) (float64, string) {
	switch {
	case score >= e.config.PrimeScore:
		return e.config.PrimeMultiplier, "10.5% - 12.0%"
	case score >= e.config.GoodScore:
		return e.config.GoodMultiplier, "12.0% - 14.5%"
	default:
		return e.config.BaseMultiplier, "14.5% - 18.0%"
	}
}
