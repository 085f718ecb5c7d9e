// internal/models/applicant.go
package models

import "strings"

// Applicant is the normalized pre-qualification submission.
type Applicant struct {
	Name                string  `json:"applicantName"`
	Phone               string  `json:"phone"`
	Email               string  `json:"email"`
	DateOfBirth         string  `json:"dateOfBirth"`
	PAN                 string  `json:"panNumber"`
	LoanAmount          float64 `json:"loanAmount"`
	LoanPurpose         string  `json:"loanPurpose"`
	EmploymentType      string  `json:"employmentType"`
	MonthlyIncome       float64 `json:"monthlyIncome"`
	CompanyName         string  `json:"companyName,omitempty"`
	WorkExperienceYears float64 `json:"workExperienceYears,omitempty"`
	ExistingEMI         float64 `json:"existingEmi,omitempty"`
}

// Dossier is the detailed loan application collected at the second stage.
type Dossier struct {
	PersonalDetails       PersonalDetails       `json:"personal_details"`
	EmploymentDetails     EmploymentDetails     `json:"employment_details"`
	AddressDetails        AddressDetails        `json:"address_details"`
	BankingDetails        BankingDetails        `json:"banking_details"`
	References            []Reference           `json:"references"`
	RequiredDocuments     RequiredDocuments     `json:"required_documents"`
	AdditionalInformation AdditionalInformation `json:"additional_information"`
}

type PersonalDetails struct {
	AadhaarNumber      string `json:"aadhaar_number"`
	MaritalStatus      string `json:"marital_status,omitempty"`
	NumberOfDependents int    `json:"number_of_dependents,omitempty"`
	EducationLevel     string `json:"education_level,omitempty"`
}

type EmploymentDetails struct {
	EmploymentType            string  `json:"employment_type"`
	CompanyName               string  `json:"company_name"`
	Designation               string  `json:"designation,omitempty"`
	MonthlyGrossIncome        float64 `json:"monthly_gross_income"`
	MonthlyNetIncome          float64 `json:"monthly_net_income,omitempty"`
	WorkExperienceYears       float64 `json:"work_experience_years,omitempty"`
	CurrentJobExperienceYears float64 `json:"current_job_experience_years"`
	IndustryType              string  `json:"industry_type,omitempty"`
	EmploymentStatus          string  `json:"employment_status,omitempty"`
}

type Address struct {
	StreetAddress  string  `json:"street_address"`
	City           string  `json:"city"`
	State          string  `json:"state"`
	Pincode        string  `json:"pincode"`
	ResidenceType  string  `json:"residence_type,omitempty"`
	YearsAtAddress float64 `json:"years_at_address,omitempty"`
}

type AddressDetails struct {
	CurrentAddress   Address  `json:"current_address"`
	PermanentAddress *Address `json:"permanent_address,omitempty"`
	SameAsCurrent    bool     `json:"same_as_current,omitempty"`
}

type BankAccount struct {
	AccountNumber         string  `json:"account_number"`
	IFSCCode              string  `json:"ifsc_code"`
	BankName              string  `json:"bank_name"`
	AccountType           string  `json:"account_type,omitempty"`
	AccountHolderName     string  `json:"account_holder_name,omitempty"`
	AverageMonthlyBalance float64 `json:"average_monthly_balance,omitempty"`
}

type MonthlyExpenses struct {
	TotalMonthlyExpenses float64 `json:"total_monthly_expenses,omitempty"`
}

type BankingDetails struct {
	PrimaryAccount  BankAccount     `json:"primary_account"`
	MonthlyExpenses MonthlyExpenses `json:"monthly_expenses,omitempty"`
}

type Reference struct {
	Name         string  `json:"name"`
	Mobile       string  `json:"mobile"`
	Relationship string  `json:"relationship"`
	YearsKnown   float64 `json:"years_known,omitempty"`
}

type Document struct {
	DocumentType string `json:"document_type"`
	DocumentURL  string `json:"document_url"`
}

// Document kinds every application must carry.
const (
	DocumentIdentityProof  = "identity_proof"
	DocumentAddressProof   = "address_proof"
	DocumentIncomeProof    = "income_proof"
	DocumentBankStatements = "bank_statements"
)

// RequiredDocumentKinds lists the document kinds in a stable order.
var RequiredDocumentKinds = []string{
	DocumentIdentityProof,
	DocumentAddressProof,
	DocumentIncomeProof,
	DocumentBankStatements,
}

type RequiredDocuments struct {
	IdentityProof  *Document `json:"identity_proof"`
	AddressProof   *Document `json:"address_proof"`
	IncomeProof    *Document `json:"income_proof"`
	BankStatements *Document `json:"bank_statements"`
}

// ByKind returns the document submitted for kind, or nil.
func (r RequiredDocuments) ByKind(kind string) *Document {
	switch kind {
	case DocumentIdentityProof:
		return r.IdentityProof
	case DocumentAddressProof:
		return r.AddressProof
	case DocumentIncomeProof:
		return r.IncomeProof
	case DocumentBankStatements:
		return r.BankStatements
	}
	return nil
}

type AdditionalInformation struct {
	LoanPurposeDetails    string `json:"loan_purpose_details,omitempty"`
	RepaymentSource       string `json:"repayment_source,omitempty"`
	PreferredTenureMonths int    `json:"preferred_tenure_months,omitempty"`
	ExistingLoans         string `json:"existing_loans,omitempty"`
}

// DocumentVerdict is the verifier's finding for one required document.
type DocumentVerdict struct {
	Kind       string `json:"kind"`
	Complete   bool   `json:"complete"`
	Consistent bool   `json:"consistent"`
	Remarks    string `json:"remarks,omitempty"`
}

func (v DocumentVerdict) Verified() bool {
	return v.Complete && v.Consistent
}

// NormalizeName folds case and whitespace so names from different documents can be compared.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

func (d *Dossier) clone() *Dossier {
	if d == nil {
		return nil
	}
	out := *d
	if d.AddressDetails.PermanentAddress != nil {
		pa := *d.AddressDetails.PermanentAddress
		out.AddressDetails.PermanentAddress = &pa
	}
	out.References = append([]Reference(nil), d.References...)
	out.RequiredDocuments = RequiredDocuments{
		IdentityProof:  cloneDocument(d.RequiredDocuments.IdentityProof),
		AddressProof:   cloneDocument(d.RequiredDocuments.AddressProof),
		IncomeProof:    cloneDocument(d.RequiredDocuments.IncomeProof),
		BankStatements: cloneDocument(d.RequiredDocuments.BankStatements),
	}
	return &out
}

func cloneDocument(d *Document) *Document {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}
