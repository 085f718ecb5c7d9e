// internal/orchestrator/query.go
package orchestrator

import (
	"context"

	"loan-origination/internal/models"
	"loan-origination/internal/validator"
)

// Status reads the recorded outcome of one stage. Stages that have not run report pending.
func (o *Orchestrator) Status(ctx context.Context, stage models.Stage, id string) (*Outcome, error) {
	if err := validator.ApplicationID(stage, id); err != nil {
		return nil, classify(id, err)
	}
	app, err := o.load(ctx, id)
	if err != nil {
		return nil, classify(id, err)
	}
	return &Outcome{Application: app, Stage: stage, Result: app.Result(stage)}, nil
}

// Get returns a snapshot of the application including its history.
func (o *Orchestrator) Get(ctx context.Context, id string) (*models.Application, error) {
	if err := validator.ApplicationID(models.StagePreQualification, id); err != nil {
		return nil, classify(id, err)
	}
	app, err := o.load(ctx, id)
	if err != nil {
		return nil, classify(id, err)
	}
	return app, nil
}

// Ready reports whether the application store is reachable.
func (o *Orchestrator) Ready(ctx context.Context) error {
	return o.store.Ping(ctx)
}
