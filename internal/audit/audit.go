// internal/audit/audit.go
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"loan-origination/internal/common/logger"
	"loan-origination/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// Sink receives every committed stage event.
type Sink interface {
	Record(ctx context.Context, event models.StageEvent) error
}

// LogSink writes stage events to the structured log.
type LogSink struct {
	logger logger.Logger
}

func NewLogSink(log logger.Logger) *LogSink {
	return &LogSink{logger: log.WithFields(map[string]interface{}{"component": "audit"})}
}

func (s *LogSink) Record(_ context.Context, ev models.StageEvent) error {
	s.logger.Info("stage event", map[string]interface{}{
		"applicationId": ev.ApplicationID,
		"stage":         string(ev.Stage),
		"status":        string(ev.Status),
		"reason":        ev.Reason,
		"attempt":       ev.Attempt,
		"actor":         ev.Actor,
		"version":       ev.Version,
	})
	return nil
}

// ElasticsearchSink indexes stage events, one document per application version.
type ElasticsearchSink struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticsearchSink(client *elasticsearch.Client, index string) *ElasticsearchSink {
	return &ElasticsearchSink{client: client, index: index}
}

func (s *ElasticsearchSink) Record(ctx context.Context, ev models.StageEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode stage event: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      s.index,
		DocumentID: fmt.Sprintf("%s-%d", ev.ApplicationID, ev.Version),
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("index stage event: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index stage event failed: %s", res.String())
	}
	return nil
}

// MultiSink fans an event out to every sink and joins their errors.
type MultiSink []Sink

func (m MultiSink) Record(ctx context.Context, ev models.StageEvent) error {
	var errs []error
	for _, s := range m {
		if err := s.Record(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
