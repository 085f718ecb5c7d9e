// internal/stages/application-processing/evaluator.go
package applicationprocessing

import (
	"strings"

	"loan-origination/internal/models"
)

const Stage = models.StageApplicationProcessing

type Evaluator struct{}

func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Evaluate approves only when every required document is complete and consistent.
func (e *Evaluator) Evaluate(in *Input) *Output {
	byKind := make(map[string]models.DocumentVerdict, len(in.Verdicts))
	for _, v := range in.Verdicts {
		byKind[v.Kind] = v
	}

	out := &Output{Verified: []string{}}
	for _, kind := range models.RequiredDocumentKinds {
		v, ok := byKind[kind]
		if ok && v.Verified() {
			out.Verified = append(out.Verified, kind)
			continue
		}
		out.Failed = append(out.Failed, kind)
	}

	if len(out.Failed) > 0 {
		out.Status = models.StatusRejected
		out.Reason = "Document verification failed: " + strings.Join(out.Failed, ", ")
		return out
	}
	out.Status = models.StatusApproved
	out.Reason = "All required documents verified"
	return out
}
