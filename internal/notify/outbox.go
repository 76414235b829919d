package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"recruit-backend/internal/shared/metrics"
	"recruit-backend/internal/shared/telemetry"
)

const defaultNotifyTimeout = 5 * time.Second

// Outbox runs notifications in the background once a transition has
// committed. Publish never blocks on delivery and never reports failure.
type Outbox struct {
	notifier Notifier
	timeout  time.Duration
	now      func() time.Time
	wg       sync.WaitGroup
}

// NewOutbox wraps n. A nil n logs events instead.
func NewOutbox(n Notifier, timeout time.Duration) *Outbox {
	if n == nil {
		n = LogNotifier{}
	}
	if timeout <= 0 {
		timeout = defaultNotifyTimeout
	}
	return &Outbox{notifier: n, timeout: timeout, now: func() time.Time { return time.Now().UTC() }}
}

// Publish schedules ev. Call it only after the owning transaction committed.
// The caller's cancellation does not cancel delivery.
func (o *Outbox) Publish(ctx context.Context, ev Event) {
	if o == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = o.now()
	}
	if ev.RequestID == "" {
		ev.RequestID = RequestIDFromContext(ctx)
	}
	base := context.WithoutCancel(ctx)

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				metrics.IncNotification(ev.Name, "panic")
				telemetry.Error("notify.panic", map[string]any{
					"event": ev.Name,
					"error": fmt.Sprint(rec),
				})
			}
		}()

		sendCtx, cancel := context.WithTimeout(base, o.timeout)
		defer cancel()
		if o.notifier.Notify(sendCtx, ev) {
			metrics.IncNotification(ev.Name, "sent")
			return
		}
		metrics.IncNotification(ev.Name, "failed")
		telemetry.Warn("notify.failed", map[string]any{
			"event":      ev.Name,
			"entity_ids": ev.EntityIDs,
			"request_id": ev.RequestID,
		})
	}()
}

// Wait blocks until every published event finished. Used on shutdown and in tests.
func (o *Outbox) Wait() {
	if o == nil {
		return
	}
	o.wg.Wait()
}
