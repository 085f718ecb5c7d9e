// internal/models/application.go
package models

import "time"

// Application is the durable record of one loan moving through the workflow.
type Application struct {
	ID                 string                 `json:"id"`
	CurrentStage       Stage                  `json:"currentStage"`
	Results            map[Stage]*StageResult `json:"results"`
	Applicant          *Applicant             `json:"applicant,omitempty"`
	Dossier            *Dossier               `json:"dossier,omitempty"`
	CreditScore        int                    `json:"creditScore,omitempty"`
	RiskScore          int                    `json:"riskScore,omitempty"`
	RiskFlags          []string               `json:"riskFlags,omitempty"`
	Verdicts           []DocumentVerdict      `json:"documentVerdicts,omitempty"`
	Terms              *LoanTerms             `json:"terms,omitempty"`
	Quality            *QualityReport         `json:"quality,omitempty"`
	DisbursementMethod string                 `json:"disbursementMethod,omitempty"`
	FundingSteps       []FundingStep          `json:"fundingSteps,omitempty"`
	FundingReference   string                 `json:"fundingReference,omitempty"`
	IdempotencyKey     string                 `json:"idempotencyKey,omitempty"`
	Version            int64                  `json:"version"`
	CreatedAt          time.Time              `json:"createdAt"`
	UpdatedAt          time.Time              `json:"updatedAt"`
	History            []StageEvent           `json:"history"`
}

// StageResult is the recorded outcome of one stage. Payload values are scalars or string slices.
type StageResult struct {
	Stage       Stage                  `json:"stage"`
	Status      Status                 `json:"status"`
	Reason      string                 `json:"reason"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
	Attempts    int                    `json:"attempts"`
	CompletedAt time.Time              `json:"completedAt"`
	ReviewedBy  string                 `json:"reviewedBy,omitempty"`
	ReviewNote  string                 `json:"reviewNote,omitempty"`
}

// LoanTerms are the priced terms produced by the credit decision.
type LoanTerms struct {
	Amount        float64 `json:"amount"`
	InterestRate  float64 `json:"interestRate"`
	TenureMonths  int     `json:"tenureMonths"`
	EMI           float64 `json:"emi"`
	TotalPayable  float64 `json:"totalPayable"`
	TotalInterest float64 `json:"totalInterest"`
	ProcessingFee float64 `json:"processingFee"`
	Optimized     bool    `json:"optimized"`
}

// QualityReport holds the dimension scores computed by the quality check.
type QualityReport struct {
	Completeness     float64  `json:"completeness"`
	Accuracy         float64  `json:"accuracy"`
	Compliance       float64  `json:"compliance"`
	Overall          float64  `json:"overall"`
	Grade            string   `json:"grade"`
	FailedDimensions []string `json:"failedDimensions,omitempty"`
}

// FundingStep records one disbursement-rail sub-step attempt.
type FundingStep struct {
	Name      string    `json:"name"`
	Success   bool      `json:"success"`
	Reference string    `json:"reference,omitempty"`
	Message   string    `json:"message,omitempty"`
	At        time.Time `json:"at"`
}

// StageEvent is one append-only history entry.
type StageEvent struct {
	ApplicationID string    `json:"applicationId"`
	Stage         Stage     `json:"stage"`
	Status        Status    `json:"status"`
	Reason        string    `json:"reason,omitempty"`
	Attempt       int       `json:"attempt"`
	Actor         string    `json:"actor"`
	Version       int64     `json:"version"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// Result returns the recorded result of stage, or a pending placeholder.
func (a *Application) Result(stage Stage) StageResult {
	if r, ok := a.Results[stage]; ok && r != nil {
		return *r.clone()
	}
	return StageResult{Stage: stage, Status: StatusPending}
}

// CurrentStatus is the status of the most recently recorded stage.
func (a *Application) CurrentStatus() Status {
	return a.Result(a.CurrentStage).Status
}

// Closed reports whether the application reached a terminal status.
func (a *Application) Closed() bool {
	return a.CurrentStatus().IsTerminal()
}

// Clone returns a deep copy so callers never share mutable state with the store.
func (a *Application) Clone() *Application {
	if a == nil {
		return nil
	}
	out := *a
	out.Results = make(map[Stage]*StageResult, len(a.Results))
	for k, v := range a.Results {
		out.Results[k] = v.clone()
	}
	if a.Applicant != nil {
		ap := *a.Applicant
		out.Applicant = &ap
	}
	out.Dossier = a.Dossier.clone()
	out.RiskFlags = append([]string(nil), a.RiskFlags...)
	out.Verdicts = append([]DocumentVerdict(nil), a.Verdicts...)
	if a.Terms != nil {
		t := *a.Terms
		out.Terms = &t
	}
	if a.Quality != nil {
		q := *a.Quality
		q.FailedDimensions = append([]string(nil), a.Quality.FailedDimensions...)
		out.Quality = &q
	}
	out.FundingSteps = append([]FundingStep(nil), a.FundingSteps...)
	out.History = append([]StageEvent(nil), a.History...)
	return &out
}

func (r *StageResult) clone() *StageResult {
	if r == nil {
		return nil
	}
	out := *r
	if r.Payload != nil {
		out.Payload = make(map[string]interface{}, len(r.Payload))
		for k, v := range r.Payload {
			if s, ok := v.([]string); ok {
				v = append([]string(nil), s...)
			}
			out.Payload[k] = v
		}
	}
	return &out
}
