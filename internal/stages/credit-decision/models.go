// internal/stages/credit-decision/models.go
package creditdecision

import "loan-origination/internal/models"

type Input struct {
	UnderwritingStatus    models.Status
	CreditScore           int
	RequestedAmount       float64
	MonthlyIncome         float64
	ExistingEMI           float64
	PreferredTenureMonths int
	AgeAtMaturity         int
	PAN                   string
	Aadhaar               string
	DocumentsVerified     bool
}

type Output struct {
	Status             models.Status     `json:"status"`
	Reason             string            `json:"reason"`
	Terms              *models.LoanTerms `json:"terms,omitempty"`
	ComplianceFailures []string          `json:"complianceFailures,omitempty"`
}

func (o *Output) Payload() map[string]interface{} {
	p := map[string]interface{}{}
	if o.Terms != nil {
		p["approvedAmount"] = o.Terms.Amount
		p["interestRate"] = o.Terms.InterestRate
		p["tenureMonths"] = o.Terms.TenureMonths
		p["emi"] = o.Terms.EMI
		p["totalPayable"] = o.Terms.TotalPayable
		p["processingFee"] = o.Terms.ProcessingFee
		p["optimized"] = o.Terms.Optimized
	}
	if len(o.ComplianceFailures) > 0 {
		p["complianceFailures"] = append([]string(nil), o.ComplianceFailures...)
	}
	return p
}
