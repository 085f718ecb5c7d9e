// internal/validator/validator.go
package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"loan-origination/internal/common/validation"
	"loan-origination/internal/models"
	loanfunding "loan-origination/internal/stages/loan-funding"
)

var (
	ErrValidationFailed = errors.New("VALIDATION_FAILED")
	ErrMalformedRequest = errors.New("MALFORMED_REQUEST")
)

// Failure enumerates every violated field of one submission.
type Failure struct {
	Stage  models.Stage
	Errors []validation.ValidationError
}

func (f *Failure) Error() string {
	fields := make([]string, 0, len(f.Errors))
	for _, e := range f.Errors {
		fields = append(fields, e.Field)
	}
	return fmt.Sprintf("%s: %s input invalid: %s", ErrValidationFailed, f.Stage, strings.Join(fields, ", "))
}

func (f *Failure) Unwrap() error { return ErrValidationFailed }

// Review is a reviewer's resolution of a manual_review outcome.
type Review struct {
	Decision models.Status `json:"decision"`
	Reviewer string        `json:"reviewer"`
	Note     string        `json:"note,omitempty"`
}

// Validator checks raw stage submissions and returns normalized records.
type Validator struct {
	funding loanfunding.Config
}

func New(funding loanfunding.Config) *Validator {
	return &Validator{funding: funding.WithDefaults()}
}

// ApplicationID rejects an empty path identifier.
func ApplicationID(stage models.Stage, id string) error {
	if strings.TrimSpace(id) != "" {
		return nil
	}
	return &Failure{Stage: stage, Errors: []validation.ValidationError{{
		Field:   "applicationId",
		Code:    validation.CodeRequired,
		Message: "applicationId is required",
	}}}
}

// PreQualification validates a stage-one submission.
func (v *Validator) PreQualification(body []byte) (*models.Applicant, error) {
	result, err := preQualificationSchema.Validate(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}

	var a models.Applicant
	// Type mismatches are already reported by the schema; decode what remains.
	_ = json.Unmarshal(body, &a)

	c := checker{result: result}
	a.Name = strings.TrimSpace(a.Name)
	a.Phone = c.mobile("phone", a.Phone)
	a.PAN = c.pan("panNumber", a.PAN)
	c.check("email", a.Email, validation.ValidateEmail, "invalid email address")
	c.check("dateOfBirth", a.DateOfBirth, func(s string) bool {
		_, ok := validation.ParseDate(s)
		return ok
	}, "dateOfBirth must be YYYY-MM-DD")
	a.EmploymentType = strings.ToLower(strings.TrimSpace(a.EmploymentType))

	if !result.Valid {
		return nil, &Failure{Stage: models.StagePreQualification, Errors: result.Errors}
	}
	return &a, nil
}

// LoanApplication validates a stage-two dossier.
func (v *Validator) LoanApplication(body []byte) (*models.Dossier, error) {
	result, err := loanApplicationSchema.Validate(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}

	var d models.Dossier
	_ = json.Unmarshal(body, &d)

	c := checker{result: result}
	d.PersonalDetails.AadhaarNumber = c.aadhaar("personal_details.aadhaar_number", d.PersonalDetails.AadhaarNumber)
	d.EmploymentDetails.EmploymentType = strings.ToLower(strings.TrimSpace(d.EmploymentDetails.EmploymentType))

	c.check("address_details.current_address.pincode", d.AddressDetails.CurrentAddress.Pincode, validation.ValidatePincode, "pincode must be 6 digits")
	if pa := d.AddressDetails.PermanentAddress; pa != nil {
		c.check("address_details.permanent_address.pincode", pa.Pincode, validation.ValidatePincode, "pincode must be 6 digits")
	}

	acct := &d.BankingDetails.PrimaryAccount
	c.check("banking_details.primary_account.account_number", acct.AccountNumber, validation.ValidateAccountNumber, "account number must be 9-18 digits")
	acct.IFSCCode = c.ifsc("banking_details.primary_account.ifsc_code", acct.IFSCCode)

	for i := range d.References {
		d.References[i].Mobile = c.mobile(fmt.Sprintf("references.%d.mobile", i), d.References[i].Mobile)
	}

	if !result.Valid {
		return nil, &Failure{Stage: models.StageLoanApplication, Errors: result.Errors}
	}
	return &d, nil
}

// Funding validates the disbursement method against the configured rails
// and the per-rail limits for amount.
func (v *Validator) Funding(body []byte, amount float64) (string, error) {
	result, err := fundingSchema.Validate(body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}

	var req struct {
		Method string `json:"disbursementMethod"`
	}
	_ = json.Unmarshal(body, &req)
	method := strings.ToUpper(strings.TrimSpace(req.Method))

	if method != "" && !result.HasErrors("disbursementMethod") {
		switch {
		case !contains(v.funding.Methods, method):
			result.Add("disbursementMethod", validation.CodeInvalidEnum,
				fmt.Sprintf("disbursementMethod must be one of %s", strings.Join(v.funding.Methods, ", ")))
		case method == "RTGS" && amount < v.funding.RTGSMinimum:
			result.Add("disbursementMethod", validation.CodeOutOfRange,
				fmt.Sprintf("RTGS requires an amount of at least %.0f", v.funding.RTGSMinimum))
		case method == "IMPS" && amount > v.funding.IMPSMaximum:
			result.Add("disbursementMethod", validation.CodeOutOfRange,
				fmt.Sprintf("IMPS is limited to %.0f", v.funding.IMPSMaximum))
		case method == "UPI" && amount > v.funding.UPIMaximum:
			result.Add("disbursementMethod", validation.CodeOutOfRange,
				fmt.Sprintf("UPI is limited to %.0f", v.funding.UPIMaximum))
		}
	}

	if !result.Valid {
		return "", &Failure{Stage: models.StageLoanFunding, Errors: result.Errors}
	}
	return method, nil
}

// Review validates a manual review resolution.
func (v *Validator) Review(stage models.Stage, body []byte) (*Review, error) {
	result, err := reviewSchema.Validate(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}
	if !result.Valid {
		return nil, &Failure{Stage: stage, Errors: result.Errors}
	}

	var r Review
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}
	r.Reviewer = strings.TrimSpace(r.Reviewer)
	return &r, nil
}

// checker runs format rules on fields the schema has not already flagged.
type checker struct {
	result *validation.ValidationResult
}

func (c checker) skip(field string) bool {
	return c.result.HasErrors(field)
}

func (c checker) check(field, value string, ok func(string) bool, msg string) {
	if c.skip(field) || value == "" {
		return
	}
	if !ok(value) {
		c.result.Add(field, validation.CodeInvalidFormat, msg)
	}
}

func (c checker) normalize(field, value string, norm func(string) (string, bool), msg string) string {
	if c.skip(field) || value == "" {
		return value
	}
	out, ok := norm(value)
	if !ok {
		c.result.Add(field, validation.CodeInvalidFormat, msg)
		return value
	}
	return out
}

func (c checker) mobile(field, value string) string {
	return c.normalize(field, value, validation.NormalizeMobile, "mobile number must be 10 digits starting with 6-9")
}

func (c checker) pan(field, value string) string {
	return c.normalize(field, value, validation.NormalizePAN, "PAN must be 5 letters, 4 digits and 1 letter")
}

func (c checker) aadhaar(field, value string) string {
	return c.normalize(field, value, validation.NormalizeAadhaar, "Aadhaar number must be 12 digits")
}

func (c checker) ifsc(field, value string) string {
	return c.normalize(field, value, validation.NormalizeIFSC, "IFSC must be 4 letters, 0 and 6 alphanumerics")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
