// Package report emits scan events to an external reporting endpoint.
// Reporting is best-effort: a failed or skipped report never changes the scan
// outcome.
package report

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"medverify/backend/internal/domain"
	"medverify/backend/internal/xid"
)

// ScanEvent describes one processed scan for the reporting backend.
type ScanEvent struct {
	EventID           string            `json:"eventId"`
	Fields            domain.ScanFields `json:"gs1Fields"`
	BatchAnchorExists bool              `json:"batchDSUStatus"`
	Status            domain.Status     `json:"status,omitempty"`
	CreatedAt         time.Time         `json:"createdAt"`
}

// NewScanEvent stamps the event with a unique id and creation time.
func NewScanEvent(fields domain.ScanFields) ScanEvent {
	return ScanEvent{
		EventID:   xid.New("scan"),
		Fields:    fields,
		CreatedAt: time.Now().UTC(),
	}
}

type Reporter interface {
	Report(ctx context.Context, event ScanEvent) error
}

type NoopReporter struct{}

func (NoopReporter) Report(_ context.Context, _ ScanEvent) error { return nil }

// HTTPReporter posts events to the configured reporting service.
type HTTPReporter struct {
	client *resty.Client
}

func NewHTTPReporter(baseURL string) *HTTPReporter {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(5 * time.Second)
	return &HTTPReporter{client: client}
}

func (r *HTTPReporter) Report(ctx context.Context, event ScanEvent) error {
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(event).
		Post("/events")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated &&
		resp.StatusCode() != http.StatusAccepted {
		return fmt.Errorf("event report status: %d", resp.StatusCode())
	}
	return nil
}
