// internal/orchestrator/orchestrator.go
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"loan-origination/internal/audit"
	"loan-origination/internal/collaborators"
	"loan-origination/internal/common/config"
	apperrors "loan-origination/internal/common/errors"
	"loan-origination/internal/common/logger"
	"loan-origination/internal/common/metrics"
	"loan-origination/internal/common/observability"
	"loan-origination/internal/models"
	"loan-origination/internal/notify"
	applicationprocessing "loan-origination/internal/stages/application-processing"
	creditdecision "loan-origination/internal/stages/credit-decision"
	loanapplication "loan-origination/internal/stages/loan-application"
	loanfunding "loan-origination/internal/stages/loan-funding"
	prequalification "loan-origination/internal/stages/pre-qualification"
	qualitycheck "loan-origination/internal/stages/quality-check"
	"loan-origination/internal/stages/underwriting"
	"loan-origination/internal/store"
	"loan-origination/internal/validator"

	"github.com/google/uuid"
)

// ActorSystem marks events recorded by the engine rather than a reviewer.
const ActorSystem = "system"

const defaultCollaboratorTimeout = 5 * time.Second

var ErrIllegalTransition = errors.New("ILLEGAL_TRANSITION")

type Config struct {
	Workflow            config.WorkflowConfig
	CollaboratorTimeout time.Duration
}

func DefaultConfig() *Config {
	return &Config{CollaboratorTimeout: defaultCollaboratorTimeout}
}

// Collaborators are the external services consulted by the stages.
type Collaborators struct {
	Bureau   collaborators.CreditBureau
	Verifier collaborators.DocumentVerifier
	Rail     collaborators.DisbursementRail
}

type Option func(*Orchestrator)

// WithAudit replaces the default log-backed audit sink.
func WithAudit(sink audit.Sink) Option {
	return func(o *Orchestrator) { o.audit = sink }
}

func WithNotifier(n notify.Notifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

func WithObservability(obs *observability.Observability) Option {
	return func(o *Orchestrator) { o.obs = obs }
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(o *Orchestrator) { o.newID = gen }
}

// Orchestrator enforces the stage graph and persists every transition.
type Orchestrator struct {
	config    Config
	store     store.Store
	collab    Collaborators
	validator *validator.Validator

	preQualification *prequalification.Evaluator
	loanApplication  *loanapplication.Evaluator
	processing       *applicationprocessing.Evaluator
	underwriting     *underwriting.Evaluator
	creditDecision   *creditdecision.Evaluator
	qualityCheck     *qualitycheck.Evaluator
	funding          *loanfunding.Executor

	audit    audit.Sink
	notifier notify.Notifier
	obs      *observability.Observability
	locks    *keyedMutex
	logger   logger.Logger
	now      func() time.Time
	newID    func() string
}

func New(cfg *Config, st store.Store, collab Collaborators, log logger.Logger, opts ...Option) *Orchestrator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := *cfg
	if c.CollaboratorTimeout <= 0 {
		c.CollaboratorTimeout = defaultCollaboratorTimeout
	}

	wf := c.Workflow
	pq := wf.PreQualification.WithDefaults()
	la := wf.LoanApplication.WithDefaults()
	uw := wf.Underwriting.WithDefaults()
	cd := wf.CreditDecision.WithDefaults()
	qc := wf.QualityCheck.WithDefaults()

	o := &Orchestrator{
		config:           c,
		store:            st,
		collab:           collab,
		validator:        validator.New(wf.LoanFunding),
		preQualification: prequalification.NewEvaluator(&pq),
		loanApplication:  loanapplication.NewEvaluator(&la),
		processing:       applicationprocessing.NewEvaluator(),
		underwriting:     underwriting.NewEvaluator(&uw),
		creditDecision:   creditdecision.NewEvaluator(&cd),
		qualityCheck:     qualitycheck.NewEvaluator(&qc),
		funding:          loanfunding.NewExecutor(collab.Rail),
		audit:            audit.NewLogSink(log),
		notifier:         notify.NoopNotifier{},
		locks:            newKeyedMutex(),
		logger:           log.WithFields(map[string]interface{}{"component": "orchestrator"}),
		now:              func() time.Time { return time.Now().UTC() },
		newID:            uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Outcome is the recorded result of one stage submission.
type Outcome struct {
	Application *models.Application
	Stage       models.Stage
	Result      models.StageResult
	// Replayed is set when the stage had already completed and nothing ran.
	Replayed bool
}

type evaluation struct {
	status  models.Status
	reason  string
	payload map[string]interface{}
	apply   func(app *models.Application)
}

type stageFunc func(ctx context.Context, app *models.Application) (*evaluation, error)

// advance runs one stage against an existing application under its lock.
func (o *Orchestrator) advance(ctx context.Context, stage models.Stage, id string, run stageFunc) (*Outcome, error) {
	start := time.Now()
	inFlight := metrics.StagesInFlight.WithLabelValues(string(stage))
	inFlight.Inc()
	defer inFlight.Dec()

	log := o.logger.WithFields(map[string]interface{}{"stage": string(stage), "applicationId": id})

	release, err := o.lock(ctx, id)
	if err != nil {
		return nil, o.fail(stage, id, err)
	}
	defer release()

	app, err := o.load(ctx, id)
	if err != nil {
		return nil, o.fail(stage, id, err)
	}

	if r, ok := app.Results[stage]; ok && r != nil && !r.Status.IsFundingFailure() {
		log.Info("replaying recorded stage result", map[string]interface{}{"status": string(r.Status)})
		return &Outcome{Application: app, Stage: stage, Result: app.Result(stage), Replayed: true}, nil
	}
	if err := checkTransition(app, stage); err != nil {
		log.WithError(err).Warn("stage not reachable", nil)
		return nil, o.fail(stage, id, err)
	}

	ev, err := run(ctx, app)
	if err != nil {
		return nil, o.fail(stage, id, err)
	}
	if !stage.Allows(ev.status) {
		return nil, o.fail(stage, id, fmt.Errorf("%s produced status %q outside its vocabulary", stage, ev.status))
	}

	expected := app.Version
	event := o.record(app, stage, ev, ActorSystem)
	if err := o.store.Update(ctx, app, expected); err != nil {
		return nil, o.fail(stage, id, storeError(id, "update", err))
	}
	release()

	o.afterCommit(ctx, app, stage, event, start)
	log.Info("stage recorded", map[string]interface{}{
		"status":     string(ev.status),
		"version":    app.Version,
		"durationMs": time.Since(start).Milliseconds(),
	})
	return &Outcome{Application: app.Clone(), Stage: stage, Result: app.Result(stage)}, nil
}

// checkTransition enforces the strict linear order of the workflow.
func checkTransition(app *models.Application, stage models.Stage) error {
	if app.Closed() {
		return fmt.Errorf("%w: application closed at %s with status %s",
			ErrIllegalTransition, app.CurrentStage, app.CurrentStatus())
	}
	prev, ok := stage.Previous()
	if !ok {
		return fmt.Errorf("%w: %s cannot be resubmitted for an existing application", ErrIllegalTransition, stage)
	}
	if r := app.Result(prev); !prev.Advances(r.Status) {
		return fmt.Errorf("%w: %s requires %s to advance, found %s", ErrIllegalTransition, stage, prev, r.Status)
	}
	return nil
}

// record applies ev to app and appends the matching history event.
func (o *Orchestrator) record(app *models.Application, stage models.Stage, ev *evaluation, actor string) models.StageEvent {
	now := o.now()
	attempts := app.Result(stage).Attempts + 1
	if app.Results == nil {
		app.Results = make(map[models.Stage]*models.StageResult)
	}
	app.Results[stage] = &models.StageResult{
		Stage:       stage,
		Status:      ev.status,
		Reason:      ev.reason,
		Payload:     ev.payload,
		Attempts:    attempts,
		CompletedAt: now,
	}
	app.CurrentStage = stage
	if ev.apply != nil {
		ev.apply(app)
	}

	event := models.StageEvent{
		ApplicationID: app.ID,
		Stage:         stage,
		Status:        ev.status,
		Reason:        ev.reason,
		Attempt:       attempts,
		Actor:         actor,
		Version:       app.Version + 1,
		OccurredAt:    now,
	}
	app.History = append(app.History, event)
	app.UpdatedAt = now
	return event
}

// afterCommit publishes a committed transition once its lock is released.
// Failures here never undo the transition.
func (o *Orchestrator) afterCommit(ctx context.Context, app *models.Application, stage models.Stage, event models.StageEvent, started time.Time) {
	elapsed := time.Since(started)
	metrics.StageTransitions.WithLabelValues(string(stage), string(event.Status)).Inc()
	metrics.StageDuration.WithLabelValues(string(stage)).Observe(elapsed.Seconds())
	o.obs.RecordStageEvaluated(ctx, string(stage), string(event.Status))
	o.obs.RecordStageDuration(ctx, string(stage), elapsed)

	bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.config.CollaboratorTimeout)
	defer cancel()

	if err := o.audit.Record(bctx, event); err != nil {
		o.logger.WithError(err).Warn("audit record failed", map[string]interface{}{
			"applicationId": app.ID,
			"version":       event.Version,
		})
	}

	msg, ok := notify.Compose(app, stage)
	if !ok {
		return
	}
	res, err := o.notifier.Notify(bctx, msg)
	result := "sent"
	switch {
	case err != nil:
		result = "failed"
		o.logger.WithError(err).Warn("applicant notification failed", map[string]interface{}{
			"applicationId": app.ID,
			"status":        string(msg.Status),
		})
	case res != nil && res.EmailStatus == notify.StatusDisabled && res.SMSStatus == notify.StatusDisabled:
		result = notify.StatusDisabled
	}
	o.obs.RecordNotification(ctx, string(msg.Status), result)
}

// lock waits for the per-key lock; giving up is reported as contention.
func (o *Orchestrator) lock(ctx context.Context, key string) (func(), error) {
	release, err := o.locks.Lock(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %s busy: %v", store.ErrConcurrentModification, key, err)
	}
	return release, nil
}

func (o *Orchestrator) load(ctx context.Context, id string) (*models.Application, error) {
	app, err := o.store.Get(ctx, id)
	if err != nil {
		return nil, storeError(id, "get", err)
	}
	return app, nil
}

// call runs fn under the collaborator deadline.
func (o *Orchestrator) call(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	cctx, cancel := context.WithTimeout(ctx, o.config.CollaboratorTimeout)
	defer cancel()

	err := fn(cctx)
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded):
		outcome = "timeout"
	default:
		outcome = "error"
	}
	metrics.CollaboratorCalls.WithLabelValues(name, outcome).Inc()

	if err == nil {
		return nil
	}
	o.logger.WithError(err).Warn("collaborator call failed", map[string]interface{}{
		"collaborator": name,
		"outcome":      outcome,
	})
	if outcome == "timeout" {
		return apperrors.NewCollaboratorTimeoutError(name, err)
	}
	return apperrors.NewCollaboratorError(name, err)
}

func (o *Orchestrator) fail(stage models.Stage, id string, err error) error {
	stdErr := classify(id, err)
	metrics.StageFailures.WithLabelValues(string(stage), string(stdErr.Code)).Inc()
	return stdErr
}

// classify maps package sentinels onto the error taxonomy.
func classify(id string, err error) *apperrors.StandardError {
	var stdErr *apperrors.StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}

	var failure *validator.Failure
	switch {
	case errors.As(err, &failure):
		return apperrors.NewValidationFailedError(failure.Error(), failure.Errors, err)
	case errors.Is(err, validator.ErrMalformedRequest):
		return apperrors.NewMalformedRequestError(err)
	case errors.Is(err, ErrIllegalTransition):
		return apperrors.NewIllegalTransitionError(err.Error(), err)
	case errors.Is(err, store.ErrApplicationNotFound):
		return apperrors.NewApplicationNotFoundError(id, err)
	case errors.Is(err, store.ErrConcurrentModification):
		return apperrors.NewConcurrentModificationError(id, err)
	default:
		return apperrors.NewInternalError(err)
	}
}

func storeError(id, operation string, err error) error {
	switch {
	case errors.Is(err, store.ErrApplicationNotFound):
		return apperrors.NewApplicationNotFoundError(id, err)
	case errors.Is(err, store.ErrConcurrentModification):
		return apperrors.NewConcurrentModificationError(id, err)
	default:
		return apperrors.NewStoreFailureError(operation, err)
	}
}
