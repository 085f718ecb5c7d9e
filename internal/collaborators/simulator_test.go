package collaborators

import (
	"context"
	"testing"
	"time"

	"loan-origination/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createVerificationRequest() VerificationRequest {
	doc := func(t string) *models.Document {
		return &models.Document{DocumentType: t, DocumentURL: "https://docs.example.com/" + t + ".pdf"}
	}
	return VerificationRequest{
		ApplicationID: "app-1",
		Applicant:     models.Applicant{Name: "Rajesh Kumar"},
		Documents: models.RequiredDocuments{
			IdentityProof:  doc("pan_card"),
			AddressProof:   doc("utility_bill"),
			IncomeProof:    doc("salary_slips"),
			BankStatements: doc("bank_statements"),
		},
		Account: models.BankAccount{AccountHolderName: "RAJESH  KUMAR"},
	}
}

// ==========================
// Credit Bureau Tests
// ==========================

func TestSimulator_Score(t *testing.T) {
	sim := NewSimulator(WithScore("qwert1234y", 610))
	ctx := context.Background()

	tests := []struct {
		pan  string
		want int
	}{
		{"ABCDE1234F", 780},
		{"abcde1234f", 780},
		{"XYZAB5678C", 720},
		{"LOWSC0123D", 560},
		{"QWERT1234Y", 610},
	}
	for _, tt := range tests {
		t.Run(tt.pan, func(t *testing.T) {
			report, err := sim.Score(ctx, tt.pan, models.Applicant{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, report.Score)
			assert.NotEmpty(t, report.ReportID)
		})
	}
}

func TestSimulator_ScoreIsDeterministicForUnknownPAN(t *testing.T) {
	sim := NewSimulator()
	a, err := sim.Score(context.Background(), "ZZZZZ9999Z", models.Applicant{})
	require.NoError(t, err)
	b, err := sim.Score(context.Background(), "ZZZZZ9999Z", models.Applicant{})
	require.NoError(t, err)

	assert.Equal(t, a.Score, b.Score)
	assert.GreaterOrEqual(t, a.Score, 550)
	assert.Less(t, a.Score, 850)
}

func TestSimulator_LatencyHonoursDeadline(t *testing.T) {
	sim := NewSimulator(WithLatency(200 * time.Millisecond))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := sim.Score(ctx, "ABCDE1234F", models.Applicant{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// ==========================
// Document Verifier Tests
// ==========================

func TestSimulator_Verify(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(r *VerificationRequest)
		failKind string
	}{
		{name: "all documents verified"},
		{
			name:     "missing document",
			mutate:   func(r *VerificationRequest) { r.Documents.IncomeProof = nil },
			failKind: models.DocumentIncomeProof,
		},
		{
			name:     "unreadable document url",
			mutate:   func(r *VerificationRequest) { r.Documents.AddressProof.DocumentURL = "not-a-url" },
			failKind: models.DocumentAddressProof,
		},
		{
			name:     "unaccepted identity document",
			mutate:   func(r *VerificationRequest) { r.Documents.IdentityProof.DocumentType = "library_card" },
			failKind: models.DocumentIdentityProof,
		},
		{
			name:     "account holder mismatch",
			mutate:   func(r *VerificationRequest) { r.Account.AccountHolderName = "Someone Else" },
			failKind: models.DocumentBankStatements,
		},
	}

	sim := NewSimulator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := createVerificationRequest()
			if tt.mutate != nil {
				tt.mutate(&req)
			}

			verdicts, err := sim.Verify(context.Background(), req)
			require.NoError(t, err)
			require.Len(t, verdicts, 4)

			for _, v := range verdicts {
				if v.Kind == tt.failKind {
					assert.False(t, v.Verified(), v.Kind)
					assert.NotEmpty(t, v.Remarks)
				} else {
					assert.True(t, v.Verified(), v.Kind)
				}
			}
		})
	}
}

// ==========================
// Disbursement Rail Tests
// ==========================

func TestSimulator_FundingSteps(t *testing.T) {
	sim := NewSimulator(WithFault("app-2", StepDisbursement))
	ctx := context.Background()

	res, err := sim.SetupAccount(ctx, FundingRequest{ApplicationID: "app-1"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Contains(t, res.Reference, "ACC-")

	res, err = sim.Disburse(ctx, FundingRequest{ApplicationID: "app-1", Method: "NEFT"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Contains(t, res.Reference, "NEFT-")

	res, err = sim.Disburse(ctx, FundingRequest{ApplicationID: "app-2", Method: "NEFT"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "disbursement")

	sim.InjectFault("app-2", "")
	res, err = sim.Disburse(ctx, FundingRequest{ApplicationID: "app-2", Method: "IMPS"})
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestSimulator_RepeatedFundingKeyReplaysResult(t *testing.T) {
	sim := NewSimulator()
	ctx := context.Background()
	req := FundingRequest{ApplicationID: "app-1", Method: "NEFT", IdempotencyKey: FundingKey("app-1", StepDisbursement)}

	first, err := sim.Disburse(ctx, req)
	require.NoError(t, err)
	again, err := sim.Disburse(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, first.Reference, again.Reference)
	assert.Equal(t, 1, sim.Executions("app-1", StepDisbursement))
}

func TestSimulator_DeclinedStepIsNotSettled(t *testing.T) {
	sim := NewSimulator(WithFault("app-1", StepAccountSetup))
	ctx := context.Background()
	req := FundingRequest{ApplicationID: "app-1", IdempotencyKey: FundingKey("app-1", StepAccountSetup)}

	res, err := sim.SetupAccount(ctx, req)
	require.NoError(t, err)
	assert.False(t, res.Success)

	sim.InjectFault("app-1", "")
	res, err = sim.SetupAccount(ctx, req)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 2, sim.Executions("app-1", StepAccountSetup))
}
