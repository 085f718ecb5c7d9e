// internal/stages/quality-check/evaluator.go
package qualitycheck

import (
	"fmt"
	"math"
	"strings"

	"loan-origination/internal/common/validation"
	"loan-origination/internal/models"
)

const Stage = models.StageQualityCheck

type Evaluator struct {
	config *Config
}

func NewEvaluator(config *Config) *Evaluator {
	if config == nil {
		config = DefaultConfig()
	}
	return &Evaluator{config: config}
}

// Evaluate scores completeness, accuracy and compliance of the assembled application.
func (e *Evaluator) Evaluate(in *Input) *Output {
	app := in.Application
	applicant := models.Applicant{}
	if app.Applicant != nil {
		applicant = *app.Applicant
	}
	dossier := models.Dossier{}
	if app.Dossier != nil {
		dossier = *app.Dossier
	}

	out := &Output{}
	var issues []string
	completeness, missing := score(e.completenessChecks(applicant, dossier))
	accuracy, mismatched := score(e.accuracyChecks(app, applicant, dossier))
	compliance, breached := score(e.complianceChecks(app, applicant, dossier))
	issues = append(issues, prefixed("missing", missing)...)
	issues = append(issues, prefixed("inconsistent", mismatched)...)
	issues = append(issues, prefixed("non-compliant", breached)...)

	out.Report = models.QualityReport{
		Completeness: completeness,
		Accuracy:     accuracy,
		Compliance:   compliance,
		Overall:      round2((completeness + accuracy + compliance) / 3),
	}
	out.Report.Grade = Grade(out.Report.Overall)
	out.Issues = issues

	var failed []string
	if completeness < e.config.CompletenessThreshold {
		failed = append(failed, TagDocumentCompleteness)
	}
	if accuracy < e.config.AccuracyThreshold {
		failed = append(failed, TagDataAccuracy)
	}
	if compliance < e.config.ComplianceThreshold {
		failed = append(failed, TagComplianceAdherence)
	}
	if !e.passingGrade(out.Report.Grade) {
		failed = append(failed, TagOverall)
	}
	out.Report.FailedDimensions = failed

	if len(failed) > 0 {
		out.Status = models.StatusFail
		out.Reason = fmt.Sprintf("Quality check failed (grade %s): %s", out.Report.Grade, strings.Join(failed, ", "))
		return out
	}
	out.Status = models.StatusPass
	out.Reason = fmt.Sprintf("Quality check passed with grade %s", out.Report.Grade)
	return out
}

func (e *Evaluator) completenessChecks(a models.Applicant, d models.Dossier) []check {
	addr := d.AddressDetails.CurrentAddress
	acct := d.BankingDetails.PrimaryAccount
	checks := []check{
		{"applicant name", present(a.Name)},
		{"phone", present(a.Phone)},
		{"email", present(a.Email)},
		{"date of birth", present(a.DateOfBirth)},
		{"PAN", present(a.PAN)},
		{"Aadhaar", present(d.PersonalDetails.AadhaarNumber)},
		{"current address", present(addr.StreetAddress) && present(addr.City) && present(addr.State) && present(addr.Pincode)},
		{"company name", present(d.EmploymentDetails.CompanyName)},
		{"account number", present(acct.AccountNumber)},
		{"IFSC code", present(acct.IFSCCode)},
		{"bank name", present(acct.BankName)},
		{"references", len(d.References) >= e.config.MinReferences},
	}
	for _, kind := range models.RequiredDocumentKinds {
		doc := d.RequiredDocuments.ByKind(kind)
		checks = append(checks, check{kind, doc != nil && present(doc.DocumentURL)})
	}
	return checks
}

func (e *Evaluator) accuracyChecks(app *models.Application, a models.Applicant, d models.Dossier) []check {
	emp := d.EmploymentDetails
	checks := []check{
		{"employment type", strings.EqualFold(strings.TrimSpace(a.EmploymentType), strings.TrimSpace(emp.EmploymentType))},
		{"declared income", withinTolerance(a.MonthlyIncome, emp.MonthlyGrossIncome, e.config.IncomeTolerance)},
		{"net income", emp.MonthlyNetIncome <= emp.MonthlyGrossIncome},
	}
	if present(a.CompanyName) && present(emp.CompanyName) {
		checks = append(checks, check{"company name", models.NormalizeName(a.CompanyName) == models.NormalizeName(emp.CompanyName)})
	}
	if holder := d.BankingDetails.PrimaryAccount.AccountHolderName; present(holder) {
		checks = append(checks, check{"account holder", models.NormalizeName(holder) == models.NormalizeName(a.Name)})
	}

	phone, _ := validation.NormalizeMobile(a.Phone)
	distinct := true
	for _, r := range d.References {
		if m, _ := validation.NormalizeMobile(r.Mobile); m == phone {
			distinct = false
		}
	}
	checks = append(checks, check{"reference contacts", distinct})

	consistent := len(app.Verdicts) > 0
	for _, v := range app.Verdicts {
		if !v.Consistent {
			consistent = false
		}
	}
	checks = append(checks, check{"document consistency", consistent})
	return checks
}

func (e *Evaluator) complianceChecks(app *models.Application, a models.Applicant, d models.Dossier) []check {
	_, panOK := validation.NormalizePAN(a.PAN)
	_, aadhaarOK := validation.NormalizeAadhaar(d.PersonalDetails.AadhaarNumber)
	return []check{
		{"PAN KYC", panOK},
		{"Aadhaar KYC", aadhaarOK},
		{"document verification", app.Result(models.StageApplicationProcessing).Status == models.StatusApproved},
		{"underwriting", models.StageUnderwriting.Advances(app.Result(models.StageUnderwriting).Status)},
		{"credit approval", app.Result(models.StageCreditDecision).Status == models.StatusApproved},
		{"approved terms", app.Terms != nil && app.Terms.Amount > 0 && app.Terms.EMI > 0},
	}
}

func (e *Evaluator) passingGrade(grade string) bool {
	for _, g := range e.config.PassingGrades {
		if g == grade {
			return true
		}
	}
	return false
}

// Grade maps an overall score onto a letter grade.
func Grade(overall float64) string {
	switch {
	case overall >= 95:
		return "A+"
	case overall >= 90:
		return "A"
	case overall >= 80:
		return "B"
	case overall >= 70:
		return "C"
	default:
		return "D"
	}
}

func score(checks []check) (float64, []string) {
	if len(checks) == 0 {
		return 100, nil
	}
	var failed []string
	for _, c := range checks {
		if !c.passed {
			failed = append(failed, c.name)
		}
	}
	return round2(float64(len(checks)-len(failed)) / float64(len(checks)) * 100), failed
}

func present(s string) bool {
	return strings.TrimSpace(s) != ""
}

func withinTolerance(declared, verified, tolerance float64) bool {
	if verified <= 0 {
		return false
	}
	return math.Abs(declared-verified)/verified <= tolerance
}

func prefixed(prefix string, names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, prefix+": "+n)
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
