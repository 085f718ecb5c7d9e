// internal/stages/quality-check/models.go
package qualitycheck

import "loan-origination/internal/models"

// Failure tags reported when a dimension misses its threshold.
const (
	TagDocumentCompleteness = "document_completeness"
	TagDataAccuracy         = "data_accuracy"
	TagComplianceAdherence  = "compliance_adherence"
	TagOverall              = "overall"
)

type Input struct {
	Application *models.Application
}

type Output struct {
	Status models.Status        `json:"status"`
	Reason string               `json:"reason"`
	Report models.QualityReport `json:"report"`
	Issues []string             `json:"issues,omitempty"`
}

func (o *Output) Payload() map[string]interface{} {
	p := map[string]interface{}{
		"completenessScore": o.Report.Completeness,
		"accuracyScore":     o.Report.Accuracy,
		"complianceScore":   o.Report.Compliance,
		"overallScore":      o.Report.Overall,
		"qualityGrade":      o.Report.Grade,
	}
	if len(o.Report.FailedDimensions) > 0 {
		p["failedDimensions"] = append([]string(nil), o.Report.FailedDimensions...)
	}
	if len(o.Issues) > 0 {
		p["issues"] = append([]string(nil), o.Issues...)
	}
	return p
}

// check is one scored item of a dimension.
type check struct {
	name   string
	passed bool
}
