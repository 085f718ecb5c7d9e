package collaborators

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"loan-origination/internal/common/validation"
	"loan-origination/internal/models"

	"github.com/google/uuid"
)

var fixtureScores = map[string]int{
	"ABCDE1234F": 780,
	"PQRST9012D": 750,
	"EMMPP2177M": 760,
	"BXZPM1234C": 740,
	"WORKF1234W": 730,
	"XYZAB5678C": 720,
	"FGHIJ5678K": 710,
	"LMNOP9012Q": 700,
	"LOWSC0123D": 560,
}

var identityDocuments = map[string]bool{
	"pan_card":        true,
	"aadhaar_card":    true,
	"passport":        true,
	"voter_id":        true,
	"driving_license": true,
}

// Simulator is a deterministic in-process implementation of every collaborator.
type Simulator struct {
	mu      sync.RWMutex
	scores  map[string]int
	faults  map[string]string
	latency time.Duration

	// settled holds accepted funding sub-steps by idempotency key.
	settled    map[string]*StepResult
	executions map[string]int
}

type SimulatorOption func(*Simulator)

// WithLatency delays every call, honouring context cancellation.
func WithLatency(d time.Duration) SimulatorOption {
	return func(s *Simulator) { s.latency = d }
}

// WithScore pins the score returned for a PAN.
func WithScore(pan string, score int) SimulatorOption {
	return func(s *Simulator) { s.scores[strings.ToUpper(pan)] = score }
}

// WithFault makes the named funding sub-step fail for an application.
func WithFault(applicationID, step string) SimulatorOption {
	return func(s *Simulator) { s.faults[applicationID] = step }
}

func NewSimulator(opts ...SimulatorOption) *Simulator {
	s := &Simulator{
		scores: make(map[string]int, len(fixtureScores)),
		faults:     make(map[string]string),
		settled:    make(map[string]*StepResult),
		executions: make(map[string]int),
	}
	for pan, score := range fixtureScores {
		s.scores[pan] = score
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InjectFault sets or clears (empty step) a funding fault at runtime.
func (s *Simulator) InjectFault(applicationID, step string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if step == "" {
		delete(s.faults, applicationID)
		return
	}
	s.faults[applicationID] = step
}

func (s *Simulator) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Simulator) Score(ctx context.Context, pan string, _ models.Applicant) (*CreditReport, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	pan = strings.ToUpper(strings.TrimSpace(pan))

	s.mu.RLock()
	score, ok := s.scores[pan]
	s.mu.RUnlock()
	if !ok {
		h := fnv.New32a()
		_, _ = h.Write([]byte(pan))
		score = 550 + int(h.Sum32()%300)
	}
	return &CreditReport{Score: score, Bureau: "simulated-cibil", ReportID: "CR-" + uuid.NewString()}, nil
}

func (s *Simulator) Verify(ctx context.Context, req VerificationRequest) ([]models.DocumentVerdict, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	verdicts := make([]models.DocumentVerdict, 0, len(models.RequiredDocumentKinds))
	for _, kind := range models.RequiredDocumentKinds {
		doc := req.Documents.ByKind(kind)
		v := models.DocumentVerdict{Kind: kind}
		switch {
		case doc == nil || strings.TrimSpace(doc.DocumentURL) == "":
			v.Remarks = "document not submitted"
		case !validation.ValidateURL(doc.DocumentURL):
			v.Remarks = "document could not be retrieved"
		default:
			v.Complete = true
			v.Consistent, v.Remarks = consistency(kind, doc, req)
		}
		verdicts = append(verdicts, v)
	}
	return verdicts, nil
}

func consistency(kind string, doc *models.Document, req VerificationRequest) (bool, string) {
	switch kind {
	case models.DocumentIdentityProof:
		if !identityDocuments[strings.ToLower(doc.DocumentType)] {
			return false, fmt.Sprintf("%s is not an accepted identity document", doc.DocumentType)
		}
	case models.DocumentBankStatements:
		holder := req.Account.AccountHolderName
		if holder != "" && models.NormalizeName(holder) != models.NormalizeName(req.Applicant.Name) {
			return false, "account holder does not match applicant"
		}
	}
	return true, "verified"
}

func (s *Simulator) SetupAccount(ctx context.Context, req FundingRequest) (*StepResult, error) {
	return s.step(ctx, StepAccountSetup, "ACC", req)
}

func (s *Simulator) Disburse(ctx context.Context, req FundingRequest) (*StepResult, error) {
	return s.step(ctx, StepDisbursement, req.Method, req)
}

func (s *Simulator) FinalizeAgreement(ctx context.Context, req FundingRequest) (*StepResult, error) {
	return s.step(ctx, StepAgreement, "AGR", req)
}

func (s *Simulator) step(ctx context.Context, step, prefix string, req FundingRequest) (*StepResult, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if req.IdempotencyKey != "" {
		if prev, ok := s.settled[req.IdempotencyKey]; ok {
			res := *prev
			return &res, nil
		}
	}
	s.executions[FundingKey(req.ApplicationID, step)]++

	if s.faults[req.ApplicationID] == step {
		return &StepResult{Success: false, Message: fmt.Sprintf("%s rejected by rail", strings.ReplaceAll(step, "_", " "))}, nil
	}

	res := &StepResult{
		Success:   true,
		Reference: fmt.Sprintf("%s-%s", prefix, strings.ToUpper(uuid.NewString()[:8])),
		Message:   "ok",
	}
	// Declined steps are not settled so a retry can still succeed.
	if req.IdempotencyKey != "" {
		settled := *res
		s.settled[req.IdempotencyKey] = &settled
	}
	return res, nil
}

// Executions reports how many times the rail acted on a funding sub-step,
// not counting answers replayed for a repeated idempotency key.
func (s *Simulator) Executions(applicationID, step string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.executions[FundingKey(applicationID, step)]
}
