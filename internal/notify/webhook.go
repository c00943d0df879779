package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/zvitops/updmon/internal/model"
)

const contentType = "application/json"

// Payload is the webhook body. RunID ties the notification to the
// stored run record when persistence is on.
type Payload struct {
	RunID    string        `json:"run_id"`
	Severity Severity      `json:"severity"`
	Message  string        `json:"message"`
	Outcome  model.Outcome `json:"outcome"`
}

// Webhook posts outcome notifications to a single URL.
type Webhook struct {
	requestURL *url.URL
	client     *http.Client
}

// NewWebhook validates the URL up front: scheme and host are
// mandatory, everything else is the receiver's business.
func NewWebhook(rawURL string) (*Webhook, error) {
	parsedURL, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, err
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, errors.New("please define the webhook url with a scheme and host, e.g. `https://hooks.example.com/updmon`")
	}

	return &Webhook{
		requestURL: parsedURL,
		client:     &http.Client{},
	}, nil
}

// Notify delivers one outcome. The run id is generated here when the
// caller has none (no persistence configured).
func (w *Webhook) Notify(ctx context.Context, runID string, outcome model.Outcome) error {
	if runID == "" {
		runID = uuid.NewString()
	}
	payload := Payload{
		RunID:    runID,
		Severity: SeverityFor(outcome.Status),
		Message:  Message(outcome),
		Outcome:  outcome,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.requestURL.String(), bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %s", resp.Status)
	}

	slog.DebugContext(ctx, "notification delivered",
		slog.String("run_id", runID),
		slog.String("severity", string(payload.Severity)))
	return nil
}
