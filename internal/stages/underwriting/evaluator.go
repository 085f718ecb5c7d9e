// internal/stages/underwriting/evaluator.go
package underwriting

import (
	"fmt"
	"strings"

	"loan-origination/internal/models"
)

const Stage = models.StageUnderwriting

type Evaluator struct {
	config *Config
}

func NewEvaluator(config *Config) *Evaluator {
	if config == nil {
		config = DefaultConfig()
	}
	return &Evaluator{config: config}
}

// Evaluate runs policy checks, then risk flags, then the aggregate score bands.
func (e *Evaluator) Evaluate(in *Input) *Output {
	out := &Output{}
	out.Breakdown = ScoreBreakdown{
		Credit:     e.creditComponent(in.CreditScore),
		FOIR:       e.foirComponent(in.FOIR),
		Employment: e.employmentComponent(in.EmploymentType, in.CurrentJobYears),
		Income:     e.incomeComponent(in.MonthlyIncome),
	}
	out.RiskScore = clamp(out.Breakdown.Credit+out.Breakdown.FOIR+out.Breakdown.Employment+out.Breakdown.Income, 0, 100)
	out.RiskCategory = category(out.RiskScore)
	out.Violations = e.policyViolations(in)
	out.Flags = e.riskFlags(in)

	switch {
	case len(out.Violations) > 0:
		out.Status = models.StatusRejected
		out.Reason = "Policy violation: " + strings.Join(out.Violations, "; ")
	case len(out.Flags) >= e.config.ReviewFlagCount:
		out.Status = models.StatusManualReview
		out.Reason = "Referred for manual review: " + strings.Join(out.Flags, ", ")
	case out.RiskScore >= e.config.ApproveScore:
		out.Status = models.StatusApproved
		out.Reason = fmt.Sprintf("Underwriting approved with risk score %d", out.RiskScore)
	case out.RiskScore >= e.config.ConditionalScore:
		out.Status = models.StatusConditional
		out.Reason = fmt.Sprintf("Underwriting conditionally approved with risk score %d", out.RiskScore)
	default:
		out.Status = models.StatusRejected
		out.Reason = fmt.Sprintf("Risk score %d is below %d", out.RiskScore, e.config.ConditionalScore)
	}
	return out
}

func (e *Evaluator) policyViolations(in *Input) []string {
	var v []string
	if in.AgeAtMaturity > e.config.MaxAgeAtMaturity {
		v = append(v, fmt.Sprintf("age at maturity %d exceeds %d", in.AgeAtMaturity, e.config.MaxAgeAtMaturity))
	}
	if in.LoanAmount > in.MonthlyIncome*e.config.MaxIncomeMultiple {
		v = append(v, fmt.Sprintf("loan amount exceeds %.0fx monthly income", e.config.MaxIncomeMultiple))
	}
	if !e.supported(in.EmploymentType) {
		v = append(v, fmt.Sprintf("employment type %q is not supported", in.EmploymentType))
	}
	return v
}

func (e *Evaluator) riskFlags(in *Input) []string {
	var flags []string
	if in.FOIR > e.config.HighFOIR {
		flags = append(flags, FlagHighFOIR)
	}
	if in.CurrentJobYears < e.config.MinJobTenureYears {
		flags = append(flags, FlagShortTenure)
	}
	if in.LoanAmount > in.MonthlyIncome*e.config.LeverageMultiple {
		flags = append(flags, FlagHighLeverage)
	}
	if in.CreditScore < e.config.ThinFileScore {
		flags = append(flags, FlagThinFile)
	}
	return flags
}

func (e *Evaluator) supported(employmentType string) bool {
	t := strings.ToLower(strings.TrimSpace(employmentType))
	for _, s := range e.config.SupportedEmployment {
		if t == s {
			return true
		}
	}
	return false
}

func (e *Evaluator) creditComponent(score int) int {
	switch {
	case score >= 800:
		return 40
	case score >= 750:
		return 35
	case score >= 700:
		return 28
	case score >= 650:
		return 20
	default:
		return 10
	}
}

func (e *Evaluator) foirComponent(foir float64) int {
	switch {
	case foir <= 0.30:
		return 30
	case foir <= 0.40:
		return 24
	case foir <= 0.50:
		return 16
	case foir <= e.config.HighFOIR:
		return 8
	default:
		return 0
	}
}

func (e *Evaluator) employmentComponent(employmentType string, years float64) int {
	base := 0
	switch strings.ToLower(employmentType) {
	case "salaried":
		base = 9
	case "professional":
		base = 8
	case "self_employed", "business":
		base = 6
	}
	switch {
	case years >= 5:
		base += 6
	case years >= 3:
		base += 4
	case years >= 1:
		base += 2
	}
	return clamp(base, 0, 15)
}

func (e *Evaluator) incomeComponent(income float64) int {
	switch {
	case income >= 150000:
		return 15
	case income >= 100000:
		return 12
	case income >= 75000:
		return 9
	case income >= 50000:
		return 6
	case income >= 25000:
		return 3
	default:
		return 0
	}
}

func category(score int) string {
	switch {
	case score >= 80:
		return "low"
	case score >= 60:
		return "medium"
	default:
		return "high"
	}
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
