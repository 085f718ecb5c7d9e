// internal/stages/underwriting/models.go
package underwriting

import "loan-origination/internal/models"

// Risk flags raised during underwriting.
const (
	FlagHighFOIR     = "high_foir"
	FlagShortTenure  = "short_tenure"
	FlagHighLeverage = "high_leverage"
	FlagThinFile     = "thin_file"
)

type Input struct {
	CreditScore     int
	MonthlyIncome   float64
	FOIR            float64
	LoanAmount      float64
	AgeAtMaturity   int
	CurrentJobYears float64
	EmploymentType  string
}

type Output struct {
	Status       models.Status  `json:"status"`
	Reason       string         `json:"reason"`
	RiskScore    int            `json:"riskScore"`
	RiskCategory string         `json:"riskCategory"`
	Breakdown    ScoreBreakdown `json:"scoreBreakdown"`
	Flags        []string       `json:"riskFlags,omitempty"`
	Violations   []string       `json:"policyViolations,omitempty"`
}

type ScoreBreakdown struct {
	Credit     int `json:"credit"`
	FOIR       int `json:"foir"`
	Employment int `json:"employment"`
	Income     int `json:"income"`
}

func (o *Output) Payload() map[string]interface{} {
	p := map[string]interface{}{
		"riskScore":       o.RiskScore,
		"riskCategory":    o.RiskCategory,
		"creditComponent": o.Breakdown.Credit,
		"foirComponent":   o.Breakdown.FOIR,
		"employmentScore": o.Breakdown.Employment,
		"incomeComponent": o.Breakdown.Income,
		"riskFlags":       append([]string{}, o.Flags...),
	}
	if len(o.Violations) > 0 {
		p["policyViolations"] = append([]string(nil), o.Violations...)
	}
	return p
}
