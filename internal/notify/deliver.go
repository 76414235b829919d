package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"recruit-backend/internal/shared/telemetry"
)

// Deliverer performs the final hop of a notification, run by the worker.
type Deliverer interface {
	Deliver(ctx context.Context, ev Event) error
}

// LogDeliverer records delivered events in the log.
type LogDeliverer struct{}

func (LogDeliverer) Deliver(ctx context.Context, ev Event) error {
	telemetry.Info("notify.delivered", map[string]any{
		"event":      ev.Name,
		"entity_ids": ev.EntityIDs,
		"actor":      ev.Actor,
		"request_id": ev.RequestID,
	})
	return nil
}

// WebhookDeliverer posts events as JSON to an HTTP endpoint.
type WebhookDeliverer struct {
	URL    string
	Client *http.Client
}

type webhookBody struct {
	Event     string            `json:"event"`
	EntityIDs map[string]string `json:"entityIds"`
	Actor     string            `json:"actor"`
	RequestID string            `json:"requestId,omitempty"`
	At        time.Time         `json:"at"`
}

func (w WebhookDeliverer) Deliver(ctx context.Context, ev Event) error {
	if strings.TrimSpace(w.URL) == "" {
		return fmt.Errorf("webhook url is empty")
	}
	client := w.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	payload, err := json.Marshal(webhookBody{
		Event:     ev.Name,
		EntityIDs: ev.EntityIDs,
		Actor:     ev.Actor,
		RequestID: ev.RequestID,
		At:        ev.At,
	})
	if err != nil {
		return fmt.Errorf("encode webhook body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if ev.RequestID != "" {
		req.Header.Set("X-Request-Id", ev.RequestID)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook post event=%s: %w", ev.Name, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook post event=%s: status %d", ev.Name, resp.StatusCode)
	}
	return nil
}

// DirectNotifier delivers in-process, for deployments without a queue.
type DirectNotifier struct {
	Deliverer Deliverer
}

func (d DirectNotifier) Notify(ctx context.Context, ev Event) bool {
	if err := d.Deliverer.Deliver(ctx, ev); err != nil {
		telemetry.Error("notify.deliver_failed", map[string]any{"event": ev.Name, "error": err})
		return false
	}
	return true
}
