// internal/stages/credit-decision/evaluator.go
package creditdecision

import (
	"fmt"
	"math"
	"strings"

	"loan-origination/internal/models"
)

const Stage = models.StageCreditDecision

type Evaluator struct {
	config *Config
}

func NewEvaluator(config *Config) *Evaluator {
	if config == nil {
		config = DefaultConfig()
	}
	return &Evaluator{config: config}
}

// Evaluate applies compliance, the committee threshold and pricing, in that order.
func (e *Evaluator) Evaluate(in *Input) *Output {
	out := &Output{ComplianceFailures: e.compliance(in)}
	if len(out.ComplianceFailures) > 0 {
		out.Status = models.StatusRejected
		out.Reason = "Compliance check failed: " + strings.Join(out.ComplianceFailures, "; ")
		return out
	}

	if in.RequestedAmount > e.config.CommitteeThreshold {
		out.Status = models.StatusManualReview
		out.Reason = fmt.Sprintf("Amount %.0f exceeds committee threshold %.0f", in.RequestedAmount, e.config.CommitteeThreshold)
		return out
	}

	rate := InterestRate(in.CreditScore)
	tenure := e.Tenure(in.PreferredTenureMonths)

	switch in.UnderwritingStatus {
	case models.StatusApproved:
		out.Terms = e.price(in.RequestedAmount, rate, tenure, false)
		out.Status = models.StatusApproved
		out.Reason = "Credit approved"
	case models.StatusConditional:
		amount := e.affordableAmount(in, rate, tenure)
		if amount >= in.RequestedAmount*e.config.MinRetainedShare && amount > 0 {
			out.Terms = e.price(amount, rate, tenure, amount < in.RequestedAmount)
			out.Status = models.StatusApproved
			out.Reason = "Credit approved with optimized terms"
			return out
		}
		out.Status = models.StatusManualReview
		out.Reason = fmt.Sprintf("Affordable amount %.0f is below %.0f%% of requested amount", amount, e.config.MinRetainedShare*100)
	default:
		out.Status = models.StatusRejected
		out.Reason = fmt.Sprintf("Underwriting outcome %q does not permit a credit decision", in.UnderwritingStatus)
	}
	return out
}

// Terms prices the requested amount as approved. Used when a reviewer approves a referred decision.
func (e *Evaluator) Terms(in *Input) *models.LoanTerms {
	return e.price(in.RequestedAmount, InterestRate(in.CreditScore), e.Tenure(in.PreferredTenureMonths), false)
}

func (e *Evaluator) compliance(in *Input) []string {
	var failures []string
	if strings.TrimSpace(in.PAN) == "" {
		failures = append(failures, "PAN missing for KYC")
	}
	if strings.TrimSpace(in.Aadhaar) == "" {
		failures = append(failures, "Aadhaar missing for KYC")
	}
	if !in.DocumentsVerified {
		failures = append(failures, "documents not verified")
	}
	if in.AgeAtMaturity > e.config.MaxAgeAtMaturity {
		failures = append(failures, fmt.Sprintf("age at maturity %d exceeds %d", in.AgeAtMaturity, e.config.MaxAgeAtMaturity))
	}
	if in.RequestedAmount > e.config.RegulatoryCap {
		failures = append(failures, fmt.Sprintf("amount exceeds regulatory cap %.0f", e.config.RegulatoryCap))
	}
	return failures
}

// Tenure resolves the preferred tenure into the supported range.
func (e *Evaluator) Tenure(preferred int) int {
	if preferred <= 0 {
		return e.config.DefaultTenureMonths
	}
	if preferred < e.config.MinTenureMonths {
		return e.config.MinTenureMonths
	}
	if preferred > e.config.MaxTenureMonths {
		return e.config.MaxTenureMonths
	}
	return preferred
}

// affordableAmount is the principal whose EMI keeps total obligations at the target FOIR, rounded down to 1000.
func (e *Evaluator) affordableAmount(in *Input, rate float64, tenure int) float64 {
	headroom := in.MonthlyIncome*e.config.TargetFOIR - in.ExistingEMI
	if headroom <= 0 {
		return 0
	}
	principal := math.Min(in.RequestedAmount, PrincipalFor(headroom, rate, tenure))
	return math.Floor(principal/1000) * 1000
}

func (e *Evaluator) price(amount, rate float64, tenure int, optimized bool) *models.LoanTerms {
	emi := EMI(amount, rate, tenure)
	total := round2(emi * float64(tenure))
	return &models.LoanTerms{
		Amount:        amount,
		InterestRate:  rate,
		TenureMonths:  tenure,
		EMI:           emi,
		TotalPayable:  total,
		TotalInterest: round2(total - amount),
		ProcessingFee: round2(amount * e.config.ProcessingFeeRate),
		Optimized:     optimized,
	}
}

// InterestRate returns the annual rate in percent for a credit score band.
func InterestRate(score int) float64 {
	switch {
	case score >= 800:
		return 10.5
	case score >= 750:
		return 11.0
	case score >= 700:
		return 12.5
	case score >= 650:
		return 14.0
	default:
		return 16.0
	}
}

// EMI is the amortised monthly instalment for principal at annualRate percent over months.
func EMI(principal, annualRate float64, months int) float64 {
	if months <= 0 {
		return 0
	}
	r := annualRate / 12 / 100
	if r == 0 {
		return round2(principal / float64(months))
	}
	f := math.Pow(1+r, float64(months))
	return round2(principal * r * f / (f - 1))
}

// PrincipalFor inverts EMI: the principal an instalment of emi supports.
func PrincipalFor(emi, annualRate float64, months int) float64 {
	if months <= 0 {
		return 0
	}
	r := annualRate / 12 / 100
	if r == 0 {
		return emi * float64(months)
	}
	return emi * (1 - math.Pow(1+r, -float64(months))) / r
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
