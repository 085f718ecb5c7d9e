// internal/validator/validator_test.go
package validator

import (
	"encoding/json"
	"errors"
	"testing"

	"loan-origination/internal/common/validation"
	"loan-origination/internal/models"
	loanfunding "loan-origination/internal/stages/loan-funding"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createValidApplicant() map[string]interface{} {
	return map[string]interface{}{
		"applicantName":       "Rajesh Kumar",
		"phone":               "9876543210",
		"email":               "rajesh.kumar@email.com",
		"dateOfBirth":         "1990-05-15",
		"panNumber":           "ABCDE1234F",
		"loanAmount":          500000,
		"loanPurpose":         "home_improvement",
		"employmentType":      "salaried",
		"monthlyIncome":       75000,
		"companyName":         "Tech Solutions Pvt Ltd",
		"workExperienceYears": 5,
	}
}

func createValidDossier() map[string]interface{} {
	doc := func(t string) map[string]interface{} {
		return map[string]interface{}{"document_type": t, "document_url": "https://docs.example.com/" + t + ".pdf"}
	}
	return map[string]interface{}{
		"personal_details": map[string]interface{}{"aadhaar_number": "1234 5678 9012", "marital_status": "single"},
		"employment_details": map[string]interface{}{
			"employment_type":              "Salaried",
			"company_name":                 "Tech Solutions Pvt Ltd",
			"monthly_gross_income":         75000,
			"monthly_net_income":           60000,
			"current_job_experience_years": 2,
		},
		"address_details": map[string]interface{}{
			"current_address": map[string]interface{}{
				"street_address": "123 Main Street", "city": "Mumbai", "state": "Maharashtra", "pincode": "400001",
			},
			"same_as_current": true,
		},
		"banking_details": map[string]interface{}{
			"primary_account": map[string]interface{}{
				"account_number": "1234567890123456", "ifsc_code": "hdfc0000123", "bank_name": "HDFC Bank",
				"account_holder_name": "Rajesh Kumar",
			},
			"monthly_expenses": map[string]interface{}{"total_monthly_expenses": 25000},
		},
		"references": []interface{}{
			map[string]interface{}{"name": "John Doe", "mobile": "+91 98765 43211", "relationship": "friend"},
			map[string]interface{}{"name": "Jane Smith", "mobile": "9876543212", "relationship": "colleague"},
		},
		"required_documents": map[string]interface{}{
			"identity_proof":  doc("pan_card"),
			"address_proof":   doc("aadhaar_card"),
			"income_proof":    doc("salary_slips"),
			"bank_statements": doc("bank_statements"),
		},
		"additional_information": map[string]interface{}{"preferred_tenure_months": 36},
	}
}

func encode(t *testing.T, v interface{}) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func fields(t *testing.T, err error) []string {
	t.Helper()
	var f *Failure
	require.True(t, errors.As(err, &f), "expected validation failure, got %v", err)
	out := make([]string, 0, len(f.Errors))
	for _, e := range f.Errors {
		out = append(out, e.Field)
	}
	return out
}

// ==========================
// Pre-Qualification Tests
// ==========================

func TestPreQualification_Valid(t *testing.T) {
	in := createValidApplicant()
	in["panNumber"] = "abcde1234f"
	in["phone"] = "+91-98765-43210"

	a, err := New(loanfunding.Config{}).PreQualification(encode(t, in))

	require.NoError(t, err)
	assert.Equal(t, "ABCDE1234F", a.PAN)
	assert.Equal(t, "9876543210", a.Phone)
	assert.Equal(t, 500000.0, a.LoanAmount)
	assert.Equal(t, 5.0, a.WorkExperienceYears)
}

func TestPreQualification_FormatViolations(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value interface{}
		code  string
	}{
		{"malformed pan", "panNumber", "INVALID", validation.CodeInvalidFormat},
		{"short phone", "phone", "123", validation.CodeInvalidFormat},
		{"phone starting with 5", "phone", "5876543210", validation.CodeInvalidFormat},
		{"bad email", "email", "not-an-email", validation.CodeInvalidFormat},
		{"bad date", "dateOfBirth", "15/05/1990", validation.CodeInvalidFormat},
		{"string amount", "loanAmount", "lots", validation.CodeInvalidType},
		{"zero amount", "loanAmount", 0, validation.CodeOutOfRange},
	}

	v := New(loanfunding.Config{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := createValidApplicant()
			in[tt.field] = tt.value

			_, err := v.PreQualification(encode(t, in))

			require.ErrorIs(t, err, ErrValidationFailed)
			var f *Failure
			require.ErrorAs(t, err, &f)
			require.Len(t, f.Errors, 1)
			assert.Equal(t, tt.field, f.Errors[0].Field)
			assert.Equal(t, tt.code, f.Errors[0].Code)
			assert.Equal(t, models.StagePreQualification, f.Stage)
		})
	}
}

func TestPreQualification_EnumeratesEveryViolation(t *testing.T) {
	in := createValidApplicant()
	in["panNumber"] = "INVALID"
	in["phone"] = "123"
	delete(in, "monthlyIncome")

	_, err := New(loanfunding.Config{}).PreQualification(encode(t, in))

	assert.ElementsMatch(t, []string{"panNumber", "phone", "monthlyIncome"}, fields(t, err))
}

func TestPreQualification_MalformedJSON(t *testing.T) {
	_, err := New(loanfunding.Config{}).PreQualification([]byte(`{"applicantName":`))

	assert.ErrorIs(t, err, ErrMalformedRequest)
	assert.False(t, errors.Is(err, ErrValidationFailed))
}

// ==========================
// Loan Application Tests
// ==========================

func TestLoanApplication_ValidNormalizes(t *testing.T) {
	d, err := New(loanfunding.Config{}).LoanApplication(encode(t, createValidDossier()))

	require.NoError(t, err)
	assert.Equal(t, "123456789012", d.PersonalDetails.AadhaarNumber)
	assert.Equal(t, "HDFC0000123", d.BankingDetails.PrimaryAccount.IFSCCode)
	assert.Equal(t, "salaried", d.EmploymentDetails.EmploymentType)
	assert.Equal(t, "9876543211", d.References[0].Mobile)
	assert.Equal(t, 36, d.AdditionalInformation.PreferredTenureMonths)
	require.NotNil(t, d.RequiredDocuments.BankStatements)
}

func TestLoanApplication_Violations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d map[string]interface{})
		want   []string
	}{
		{
			name: "malformed aadhaar",
			mutate: func(d map[string]interface{}) {
				d["personal_details"].(map[string]interface{})["aadhaar_number"] = "123"
			},
			want: []string{"personal_details.aadhaar_number"},
		},
		{
			name: "missing employment section",
			mutate: func(d map[string]interface{}) {
				delete(d, "employment_details")
			},
			want: []string{"employment_details"},
		},
		{
			name: "missing gross income",
			mutate: func(d map[string]interface{}) {
				delete(d["employment_details"].(map[string]interface{}), "monthly_gross_income")
			},
			want: []string{"employment_details.monthly_gross_income"},
		},
		{
			name: "bad banking fields",
			mutate: func(d map[string]interface{}) {
				acct := d["banking_details"].(map[string]interface{})["primary_account"].(map[string]interface{})
				acct["ifsc_code"] = "HDFC1234"
				acct["account_number"] = "12AB"
			},
			want: []string{"banking_details.primary_account.account_number", "banking_details.primary_account.ifsc_code"},
		},
		{
			name: "bad pincode and reference mobile",
			mutate: func(d map[string]interface{}) {
				d["address_details"].(map[string]interface{})["current_address"].(map[string]interface{})["pincode"] = "0400"
				d["references"].([]interface{})[1].(map[string]interface{})["mobile"] = "123"
			},
			want: []string{"address_details.current_address.pincode", "references.1.mobile"},
		},
		{
			name: "no references",
			mutate: func(d map[string]interface{}) {
				d["references"] = []interface{}{}
			},
			want: []string{"references"},
		},
	}

	v := New(loanfunding.Config{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := createValidDossier()
			tt.mutate(d)

			_, err := v.LoanApplication(encode(t, d))

			assert.ElementsMatch(t, tt.want, fields(t, err))
		})
	}
}

// ==========================
// Funding Tests
// ==========================

func TestFunding(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		amount  float64
		want    string
		wantErr bool
	}{
		{"neft", `{"disbursementMethod":"NEFT"}`, 500000, "NEFT", false},
		{"lower case", `{"disbursementMethod":"imps"}`, 500000, "IMPS", false},
		{"rtgs at minimum", `{"disbursementMethod":"RTGS"}`, 200000, "RTGS", false},
		{"rtgs below minimum", `{"disbursementMethod":"RTGS"}`, 150000, "", true},
		{"imps above maximum", `{"disbursementMethod":"IMPS"}`, 500001, "", true},
		{"upi above maximum", `{"disbursementMethod":"UPI"}`, 150000, "", true},
		{"unknown rail", `{"disbursementMethod":"SWIFT"}`, 500000, "", true},
		{"missing method", `{"applicationId":"x"}`, 500000, "", true},
	}

	v := New(loanfunding.Config{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method, err := v.Funding([]byte(tt.body), tt.amount)
			if tt.wantErr {
				assert.Equal(t, []string{"disbursementMethod"}, fields(t, err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, method)
		})
	}
}

// ==========================
// Review and Identifier Tests
// ==========================

func TestReview(t *testing.T) {
	v := New(loanfunding.Config{})

	r, err := v.Review(models.StageUnderwriting, []byte(`{"decision":"approved","reviewer":" a.mehta ","note":"salary verified"}`))
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, r.Decision)
	assert.Equal(t, "a.mehta", r.Reviewer)

	_, err = v.Review(models.StageUnderwriting, []byte(`{"decision":"conditional","reviewer":"a.mehta"}`))
	assert.Equal(t, []string{"decision"}, fields(t, err))
}

func TestApplicationID(t *testing.T) {
	assert.NoError(t, ApplicationID(models.StageUnderwriting, "app-1"))
	assert.Equal(t, []string{"applicationId"}, fields(t, ApplicationID(models.StageUnderwriting, " ")))
}
