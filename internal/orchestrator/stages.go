// internal/orchestrator/stages.go
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"loan-origination/internal/collaborators"
	"loan-origination/internal/common/metrics"
	"loan-origination/internal/common/validation"
	"loan-origination/internal/models"
	applicationprocessing "loan-origination/internal/stages/application-processing"
	creditdecision "loan-origination/internal/stages/credit-decision"
	loanapplication "loan-origination/internal/stages/loan-application"
	loanfunding "loan-origination/internal/stages/loan-funding"
	prequalification "loan-origination/internal/stages/pre-qualification"
	qualitycheck "loan-origination/internal/stages/quality-check"
	"loan-origination/internal/stages/underwriting"
	"loan-origination/internal/store"
	"loan-origination/internal/validator"
)

// PreQualify screens a new applicant and creates the application record.
// A non-empty idempotencyKey returns the application first created with it.
func (o *Orchestrator) PreQualify(ctx context.Context, body []byte, idempotencyKey string) (*Outcome, error) {
	stage := prequalification.Stage
	start := time.Now()
	inFlight := metrics.StagesInFlight.WithLabelValues(string(stage))
	inFlight.Inc()
	defer inFlight.Dec()

	applicant, err := o.validator.PreQualification(body)
	if err != nil {
		return nil, o.fail(stage, "", err)
	}

	key := strings.TrimSpace(idempotencyKey)
	release := func() {}
	if key != "" {
		release, err = o.lock(ctx, "idempotency:"+key)
		if err != nil {
			return nil, o.fail(stage, "", err)
		}
		defer release()
		if out, ok := o.replayIdempotent(ctx, key); ok {
			return out, nil
		}
	}

	var report *collaborators.CreditReport
	err = o.call(ctx, collaborators.NameCreditBureau, func(ctx context.Context) error {
		var cerr error
		report, cerr = o.collab.Bureau.Score(ctx, applicant.PAN, *applicant)
		return cerr
	})
	if err != nil {
		return nil, o.fail(stage, "", err)
	}

	out := o.preQualification.Evaluate(&prequalification.Input{
		Applicant:   *applicant,
		CreditScore: report.Score,
		AsOf:        o.now(),
	})
	payload := out.Payload()
	payload["creditBureau"] = report.Bureau
	payload["creditReportId"] = report.ReportID

	app := &models.Application{
		ID:             o.newID(),
		Results:        make(map[models.Stage]*models.StageResult),
		Applicant:      applicant,
		CreditScore:    report.Score,
		IdempotencyKey: key,
	}
	event := o.record(app, stage, &evaluation{status: out.Status, reason: out.Reason, payload: payload}, ActorSystem)
	app.CreatedAt = app.UpdatedAt

	if err := o.store.Create(ctx, app); err != nil {
		if errors.Is(err, store.ErrDuplicateIdempotencyKey) {
			if out, ok := o.replayIdempotent(ctx, key); ok {
				return out, nil
			}
		}
		return nil, o.fail(stage, app.ID, storeError(app.ID, "create", err))
	}
	release()

	o.afterCommit(ctx, app, stage, event, start)
	o.logger.Info("application created", map[string]interface{}{
		"stage":         string(stage),
		"applicationId": app.ID,
		"status":        string(out.Status),
		"creditScore":   report.Score,
	})
	return &Outcome{Application: app.Clone(), Stage: stage, Result: app.Result(stage)}, nil
}

func (o *Orchestrator) replayIdempotent(ctx context.Context, key string) (*Outcome, bool) {
	app, err := o.store.FindByIdempotencyKey(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrApplicationNotFound) {
			o.logger.WithError(err).Warn("idempotency lookup failed", nil)
		}
		return nil, false
	}
	o.logger.Info("replaying idempotent pre-qualification", map[string]interface{}{"applicationId": app.ID})
	return &Outcome{
		Application: app,
		Stage:       models.StagePreQualification,
		Result:      app.Result(models.StagePreQualification),
		Replayed:    true,
	}, true
}

// SubmitLoanApplication records the detailed dossier and grades affordability.
func (o *Orchestrator) SubmitLoanApplication(ctx context.Context, id string, body []byte) (*Outcome, error) {
	stage := loanapplication.Stage
	if err := validator.ApplicationID(stage, id); err != nil {
		return nil, o.fail(stage, id, err)
	}
	dossier, err := o.validator.LoanApplication(body)
	if err != nil {
		return nil, o.fail(stage, id, err)
	}

	return o.advance(ctx, stage, id, func(_ context.Context, app *models.Application) (*evaluation, error) {
		out := o.loanApplication.Evaluate(&loanapplication.Input{Applicant: applicantOf(app), Dossier: *dossier})
		return &evaluation{
			status:  out.Status,
			reason:  out.Reason,
			payload: out.Payload(),
			apply:   func(a *models.Application) { a.Dossier = dossier },
		}, nil
	})
}

// ProcessApplication verifies the submitted documents.
func (o *Orchestrator) ProcessApplication(ctx context.Context, id string) (*Outcome, error) {
	stage := applicationprocessing.Stage
	if err := validator.ApplicationID(stage, id); err != nil {
		return nil, o.fail(stage, id, err)
	}

	return o.advance(ctx, stage, id, func(ctx context.Context, app *models.Application) (*evaluation, error) {
		d := dossierOf(app)
		req := collaborators.VerificationRequest{
			ApplicationID: app.ID,
			Applicant:     applicantOf(app),
			Documents:     d.RequiredDocuments,
			Account:       d.BankingDetails.PrimaryAccount,
		}

		var verdicts []models.DocumentVerdict
		err := o.call(ctx, collaborators.NameDocumentVerifier, func(ctx context.Context) error {
			var cerr error
			verdicts, cerr = o.collab.Verifier.Verify(ctx, req)
			return cerr
		})
		if err != nil {
			return nil, err
		}

		out := o.processing.Evaluate(&applicationprocessing.Input{Verdicts: verdicts})
		return &evaluation{
			status:  out.Status,
			reason:  out.Reason,
			payload: out.Payload(),
			apply:   func(a *models.Application) { a.Verdicts = verdicts },
		}, nil
	})
}

// Underwrite scores the application's risk.
func (o *Orchestrator) Underwrite(ctx context.Context, id string) (*Outcome, error) {
	stage := underwriting.Stage
	if err := validator.ApplicationID(stage, id); err != nil {
		return nil, o.fail(stage, id, err)
	}

	return o.advance(ctx, stage, id, func(_ context.Context, app *models.Application) (*evaluation, error) {
		a, d := applicantOf(app), dossierOf(app)
		income := grossIncome(a, d)
		employment := d.EmploymentDetails.EmploymentType
		if employment == "" {
			employment = a.EmploymentType
		}

		out := o.underwriting.Evaluate(&underwriting.Input{
			CreditScore:     app.CreditScore,
			MonthlyIncome:   income,
			FOIR:            loanapplication.FOIR(a.ExistingEMI, income),
			LoanAmount:      a.LoanAmount,
			AgeAtMaturity:   o.ageAtMaturity(app),
			CurrentJobYears: d.EmploymentDetails.CurrentJobExperienceYears,
			EmploymentType:  employment,
		})
		return &evaluation{
			status:  out.Status,
			reason:  out.Reason,
			payload: out.Payload(),
			apply: func(a *models.Application) {
				a.RiskScore = out.RiskScore
				a.RiskFlags = append([]string(nil), out.Flags...)
			},
		}, nil
	})
}

// DecideCredit runs compliance and prices the loan.
func (o *Orchestrator) DecideCredit(ctx context.Context, id string) (*Outcome, error) {
	stage := creditdecision.Stage
	if err := validator.ApplicationID(stage, id); err != nil {
		return nil, o.fail(stage, id, err)
	}

	return o.advance(ctx, stage, id, func(_ context.Context, app *models.Application) (*evaluation, error) {
		out := o.creditDecision.Evaluate(o.creditInput(app))
		return &evaluation{
			status:  out.Status,
			reason:  out.Reason,
			payload: out.Payload(),
			apply:   func(a *models.Application) { a.Terms = out.Terms },
		}, nil
	})
}

// CheckQuality grades the assembled file before funding.
func (o *Orchestrator) CheckQuality(ctx context.Context, id string) (*Outcome, error) {
	stage := qualitycheck.Stage
	if err := validator.ApplicationID(stage, id); err != nil {
		return nil, o.fail(stage, id, err)
	}

	return o.advance(ctx, stage, id, func(_ context.Context, app *models.Application) (*evaluation, error) {
		out := o.qualityCheck.Evaluate(&qualitycheck.Input{Application: app})
		report := out.Report
		return &evaluation{
			status:  out.Status,
			reason:  out.Reason,
			payload: out.Payload(),
			apply:   func(a *models.Application) { a.Quality = &report },
		}, nil
	})
}

// FundLoan drives the disbursement rail. A funding failure is recorded and may be retried.
func (o *Orchestrator) FundLoan(ctx context.Context, id string, body []byte) (*Outcome, error) {
	stage := loanfunding.Stage
	if err := validator.ApplicationID(stage, id); err != nil {
		return nil, o.fail(stage, id, err)
	}

	return o.advance(ctx, stage, id, func(ctx context.Context, app *models.Application) (*evaluation, error) {
		var amount float64
		if app.Terms != nil {
			amount = app.Terms.Amount
		}
		// Rail limits depend on the approved amount, so the method is checked once the record is loaded.
		method, err := o.validator.Funding(body, amount)
		if err != nil {
			return nil, err
		}

		a, d := applicantOf(app), dossierOf(app)
		account := d.BankingDetails.PrimaryAccount
		beneficiary := account.AccountHolderName
		if beneficiary == "" {
			beneficiary = a.Name
		}

		var out *loanfunding.Output
		err = o.call(ctx, collaborators.NameDisbursementRail, func(ctx context.Context) error {
			var cerr error
			out, cerr = o.funding.Execute(ctx, &loanfunding.Input{
				ApplicationID:   app.ID,
				Method:          method,
				Amount:          amount,
				Account:         account,
				BeneficiaryName: beneficiary,
				PreviousSteps:   app.FundingSteps,
				Now:             o.now,
			})
			return cerr
		})
		if err != nil {
			return nil, err
		}

		payload := out.Payload()
		payload["disbursementMethod"] = method
		payload["amount"] = amount
		return &evaluation{
			status:  out.Status,
			reason:  out.Reason,
			payload: payload,
			apply: func(a *models.Application) {
				a.DisbursementMethod = method
				a.FundingSteps = out.Steps
				a.FundingReference = out.FundingReference
			},
		}, nil
	})
}

// ResolveReview settles a manual_review outcome with a reviewer's decision.
func (o *Orchestrator) ResolveReview(ctx context.Context, stage models.Stage, id string, body []byte) (*Outcome, error) {
	if err := validator.ApplicationID(stage, id); err != nil {
		return nil, o.fail(stage, id, err)
	}
	if !stage.Reviewable() {
		return nil, o.fail(stage, id, fmt.Errorf("%w: %s outcomes are not reviewable", ErrIllegalTransition, stage))
	}
	review, err := o.validator.Review(stage, body)
	if err != nil {
		return nil, o.fail(stage, id, err)
	}

	start := time.Now()
	release, err := o.lock(ctx, id)
	if err != nil {
		return nil, o.fail(stage, id, err)
	}
	defer release()

	app, err := o.load(ctx, id)
	if err != nil {
		return nil, o.fail(stage, id, err)
	}
	current := app.Result(stage)
	if app.CurrentStage != stage || current.Status != models.StatusManualReview {
		return nil, o.fail(stage, id, fmt.Errorf("%w: %s is %s, not awaiting review", ErrIllegalTransition, stage, current.Status))
	}

	ev := &evaluation{
		status:  review.Decision,
		reason:  fmt.Sprintf("Manual review %s by %s", review.Decision, review.Reviewer),
		payload: current.Payload,
	}
	if review.Note != "" {
		ev.reason += ": " + review.Note
	}
	if stage == models.StageCreditDecision && review.Decision == models.StatusApproved {
		terms := o.creditDecision.Terms(o.creditInput(app))
		priced := &creditdecision.Output{Terms: terms}
		ev.payload = priced.Payload()
		ev.apply = func(a *models.Application) { a.Terms = terms }
	}

	expected := app.Version
	event := o.record(app, stage, ev, review.Reviewer)
	app.Results[stage].ReviewedBy = review.Reviewer
	app.Results[stage].ReviewNote = review.Note
	if err := o.store.Update(ctx, app, expected); err != nil {
		return nil, o.fail(stage, id, storeError(id, "update", err))
	}
	release()

	o.afterCommit(ctx, app, stage, event, start)
	o.logger.Info("manual review resolved", map[string]interface{}{
		"stage":         string(stage),
		"applicationId": id,
		"decision":      string(review.Decision),
		"reviewer":      review.Reviewer,
	})
	return &Outcome{Application: app.Clone(), Stage: stage, Result: app.Result(stage)}, nil
}

func (o *Orchestrator) creditInput(app *models.Application) *creditdecision.Input {
	a, d := applicantOf(app), dossierOf(app)
	return &creditdecision.Input{
		UnderwritingStatus:    app.Result(models.StageUnderwriting).Status,
		CreditScore:           app.CreditScore,
		RequestedAmount:       a.LoanAmount,
		MonthlyIncome:         grossIncome(a, d),
		ExistingEMI:           a.ExistingEMI,
		PreferredTenureMonths: d.AdditionalInformation.PreferredTenureMonths,
		AgeAtMaturity:         o.ageAtMaturity(app),
		PAN:                   a.PAN,
		Aadhaar:               d.PersonalDetails.AadhaarNumber,
		DocumentsVerified:     app.Result(models.StageApplicationProcessing).Status == models.StatusApproved,
	}
}

// ageAtMaturity is the applicant's age at the end of the priced tenure.
func (o *Orchestrator) ageAtMaturity(app *models.Application) int {
	dob, ok := validation.ParseDate(applicantOf(app).DateOfBirth)
	if !ok {
		return 0
	}
	tenure := o.creditDecision.Tenure(dossierOf(app).AdditionalInformation.PreferredTenureMonths)
	return validation.AgeOn(dob, o.now().AddDate(0, tenure, 0))
}

func applicantOf(app *models.Application) models.Applicant {
	if app.Applicant == nil {
		return models.Applicant{}
	}
	return *app.Applicant
}

func dossierOf(app *models.Application) models.Dossier {
	if app.Dossier == nil {
		return models.Dossier{}
	}
	return *app.Dossier
}

func grossIncome(a models.Applicant, d models.Dossier) float64 {
	if d.EmploymentDetails.MonthlyGrossIncome > 0 {
		return d.EmploymentDetails.MonthlyGrossIncome
	}
	return a.MonthlyIncome
}
