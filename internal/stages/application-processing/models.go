// internal/stages/application-processing/models.go
package applicationprocessing

import "loan-origination/internal/models"

type Input struct {
	Verdicts []models.DocumentVerdict
}

type Output struct {
	Status   models.Status `json:"status"`
	Reason   string        `json:"reason"`
	Verified []string      `json:"verifiedDocuments"`
	Failed   []string      `json:"failedDocuments,omitempty"`
}

func (o *Output) Payload() map[string]interface{} {
	p := map[string]interface{}{
		"verifiedDocuments": append([]string(nil), o.Verified...),
	}
	if len(o.Failed) > 0 {
		p["failedDocuments"] = append([]string(nil), o.Failed...)
	}
	return p
}
