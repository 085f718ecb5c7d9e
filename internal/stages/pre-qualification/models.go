// internal/stages/pre-qualification/models.go
package prequalification

import (
	"time"

	"loan-origination/internal/models"
)

type Input struct {
	Applicant   models.Applicant
	CreditScore int
	AsOf        time.Time
}

type Output struct {
	Status              models.Status `json:"status"`
	Reason              string        `json:"reason"`
	Reasons             []string      `json:"reasons,omitempty"`
	CreditScore         int           `json:"creditScore"`
	Age                 int           `json:"age"`
	EstimatedLoanAmount float64       `json:"estimatedLoanAmount,omitempty"`
	InterestRateRange   string        `json:"interestRateRange,omitempty"`
}

func (o *Output) Payload() map[string]interface{} {
	p := map[string]interface{}{
		"creditScore": o.CreditScore,
		"age":         o.Age,
	}
	if o.Status == models.StatusApproved {
		p["estimatedLoanAmount"] = o.EstimatedLoanAmount
		p["interestRateRange"] = o.InterestRateRange
	}
	if len(o.Reasons) > 0 {
		p["reasons"] = append([]string(nil), o.Reasons...)
	}
	return p
}
