// internal/models/stage.go
package models

// Stage identifies one step of the origination workflow. Values double as URL segments.
type Stage string

const (
	StagePreQualification      Stage = "pre-qualification"
	StageLoanApplication       Stage = "loan-application"
	StageApplicationProcessing Stage = "application-processing"
	StageUnderwriting          Stage = "underwriting"
	StageCreditDecision        Stage = "credit-decision"
	StageQualityCheck          Stage = "quality-check"
	StageLoanFunding           Stage = "loan-funding"
)

// Stages lists the workflow in execution order.
var Stages = []Stage{
	StagePreQualification,
	StageLoanApplication,
	StageApplicationProcessing,
	StageUnderwriting,
	StageCreditDecision,
	StageQualityCheck,
	StageLoanFunding,
}

// Status is the closed vocabulary of stage outcomes.
type Status string

const (
	StatusPending            Status = "pending"
	StatusApproved           Status = "approved"
	StatusConditional        Status = "conditional"
	StatusRejected           Status = "rejected"
	StatusManualReview       Status = "manual_review"
	StatusPass               Status = "pass"
	StatusFail               Status = "fail"
	StatusFunded             Status = "funded"
	StatusAccountSetupFailed Status = "account_setup_failed"
	StatusDisbursementFailed Status = "disbursement_failed"
	StatusAgreementFailed    Status = "agreement_failed"
)

var allowedStatuses = map[Stage][]Status{
	StagePreQualification:      {StatusApproved, StatusRejected},
	StageLoanApplication:       {StatusApproved, StatusConditional, StatusRejected},
	StageApplicationProcessing: {StatusApproved, StatusRejected},
	StageUnderwriting:          {StatusApproved, StatusConditional, StatusRejected, StatusManualReview},
	StageCreditDecision:        {StatusApproved, StatusRejected, StatusManualReview},
	StageQualityCheck:          {StatusPass, StatusFail},
	StageLoanFunding:           {StatusFunded, StatusAccountSetupFailed, StatusDisbursementFailed, StatusAgreementFailed},
}

var advancingStatuses = map[Stage][]Status{
	StagePreQualification:      {StatusApproved},
	StageLoanApplication:       {StatusApproved, StatusConditional},
	StageApplicationProcessing: {StatusApproved},
	StageUnderwriting:          {StatusApproved, StatusConditional},
	StageCreditDecision:        {StatusApproved},
	StageQualityCheck:          {StatusPass},
}

var labels = map[Stage]string{
	StagePreQualification:      "Pre-Qualification",
	StageLoanApplication:       "Loan Application",
	StageApplicationProcessing: "Application Processing",
	StageUnderwriting:          "Underwriting",
	StageCreditDecision:        "Credit Decision",
	StageQualityCheck:          "Quality Check",
	StageLoanFunding:           "Loan Funding",
}

// ParseStage resolves a URL segment into a Stage.
func ParseStage(s string) (Stage, bool) {
	st := Stage(s)
	_, ok := allowedStatuses[st]
	return st, ok
}

// Index returns the 1-based position of the stage, or 0 for an unknown stage.
func (s Stage) Index() int {
	for i, st := range Stages {
		if st == s {
			return i + 1
		}
	}
	return 0
}

// Previous returns the stage that must have advanced before s may run.
func (s Stage) Previous() (Stage, bool) {
	i := s.Index()
	if i <= 1 {
		return "", false
	}
	return Stages[i-2], true
}

// Next returns the stage following s.
func (s Stage) Next() (Stage, bool) {
	i := s.Index()
	if i == 0 || i >= len(Stages) {
		return "", false
	}
	return Stages[i], true
}

func (s Stage) Label() string {
	if l, ok := labels[s]; ok {
		return l
	}
	return string(s)
}

// Allows reports whether st belongs to the stage's outcome vocabulary.
func (s Stage) Allows(st Status) bool {
	return containsStatus(allowedStatuses[s], st)
}

// Advances reports whether a stage finishing with st unlocks the next stage.
func (s Stage) Advances(st Status) bool {
	return containsStatus(advancingStatuses[s], st)
}

// AllowedStatuses returns a copy of the stage's outcome vocabulary.
func (s Stage) AllowedStatuses() []Status {
	return append([]Status(nil), allowedStatuses[s]...)
}

// Reviewable reports whether a manual review can be resolved at this stage.
func (s Stage) Reviewable() bool {
	return s.Allows(StatusManualReview)
}

// IsTerminal reports whether the status ends the application's lifecycle.
func (st Status) IsTerminal() bool {
	switch st {
	case StatusRejected, StatusFail, StatusFunded:
		return true
	}
	return false
}

// IsFundingFailure reports whether st is a retryable funding sub-step failure.
func (st Status) IsFundingFailure() bool {
	switch st {
	case StatusAccountSetupFailed, StatusDisbursementFailed, StatusAgreementFailed:
		return true
	}
	return false
}

func containsStatus(list []Status, st Status) bool {
	for _, s := range list {
		if s == st {
			return true
		}
	}
	return false
}
