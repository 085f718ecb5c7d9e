package collaborators

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	commonhttp "loan-origination/internal/common/http"
	"loan-origination/internal/common/logger"
	"loan-origination/internal/models"
)

// IdempotencyHeader carries FundingRequest.IdempotencyKey to the rail.
const IdempotencyHeader = "Idempotency-Key"

// HTTPClient talks to an external collaborator service over JSON.
type HTTPClient struct {
	client *commonhttp.Client
	logger logger.Logger
}

func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, log logger.Logger) *HTTPClient {
	c := commonhttp.NewClient(timeout).WithBaseURL(baseURL)
	if apiKey != "" {
		c = c.WithHeader("X-API-Key", apiKey)
	}
	return &HTTPClient{
		client: c,
		logger: log.WithFields(map[string]interface{}{"component": "collaborator-http"}),
	}
}

type verifyResponse struct {
	Verdicts []models.DocumentVerdict `json:"verdicts"`
}

func (c *HTTPClient) Score(ctx context.Context, pan string, applicant models.Applicant) (*CreditReport, error) {
	req := struct {
		PAN       string           `json:"panNumber"`
		Applicant models.Applicant `json:"applicant"`
	}{PAN: pan, Applicant: applicant}

	var report CreditReport
	if err := c.post(ctx, NameCreditBureau, "/api/credit-score", req, &report, nil); err != nil {
		return nil, err
	}
	if report.Score < 300 || report.Score > 900 {
		return nil, fmt.Errorf("%w: score %d out of range", ErrInvalidResponse, report.Score)
	}
	return &report, nil
}

func (c *HTTPClient) Verify(ctx context.Context, req VerificationRequest) ([]models.DocumentVerdict, error) {
	var resp verifyResponse
	if err := c.post(ctx, NameDocumentVerifier, "/api/documents/verify", req, &resp, nil); err != nil {
		return nil, err
	}
	return resp.Verdicts, nil
}

func (c *HTTPClient) SetupAccount(ctx context.Context, req FundingRequest) (*StepResult, error) {
	return c.step(ctx, "/api/disbursement/account-setup", req)
}

func (c *HTTPClient) Disburse(ctx context.Context, req FundingRequest) (*StepResult, error) {
	return c.step(ctx, "/api/disbursement/transfer", req)
}

func (c *HTTPClient) FinalizeAgreement(ctx context.Context, req FundingRequest) (*StepResult, error) {
	return c.step(ctx, "/api/disbursement/agreement", req)
}

func (c *HTTPClient) step(ctx context.Context, path string, req FundingRequest) (*StepResult, error) {
	var headers map[string]string
	if req.IdempotencyKey != "" {
		headers = map[string]string{IdempotencyHeader: req.IdempotencyKey}
	}
	var res StepResult
	if err := c.post(ctx, NameDisbursementRail, path, req, &res, headers); err != nil {
		// A 422 from the rail is a declined sub-step, not an outage.
		var se *commonhttp.StatusError
		if errors.As(err, &se) && se.StatusCode == 422 {
			return &StepResult{Success: false, Message: se.Body}, nil
		}
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) post(ctx context.Context, name, path string, in, out interface{}, headers map[string]string) error {
	start := time.Now()
	err := c.client.PostJSON(ctx, path, in, out, headers)
	fields := map[string]interface{}{
		"collaborator": name,
		"path":         path,
		"durationMs":   time.Since(start).Milliseconds(),
	}
	if err != nil {
		c.logger.WithError(err).Warn("collaborator call failed", fields)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return fmt.Errorf("%w: %s: %v", context.DeadlineExceeded, name, err)
		}
		var se *commonhttp.StatusError
		if errors.As(err, &se) && se.StatusCode == 422 {
			return err
		}
		return fmt.Errorf("%w: %s: %v", ErrCollaboratorUnavailable, name, err)
	}
	c.logger.Debug("collaborator call completed", fields)
	return nil
}
