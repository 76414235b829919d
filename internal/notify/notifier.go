package notify

import (
	"context"
	"time"

	"recruit-backend/internal/queue"
	"recruit-backend/internal/shared/telemetry"
)

// LogNotifier writes events to the log. It is the fallback when no queue is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, ev Event) bool {
	telemetry.Info("notify.event", map[string]any{
		"event":      ev.Name,
		"entity_ids": ev.EntityIDs,
		"actor":      ev.Actor,
		"request_id": ev.RequestID,
	})
	return true
}

// QueueNotifier forwards events to a queue for the worker to deliver.
type QueueNotifier struct {
	Queue queue.Client
}

func (q QueueNotifier) Notify(ctx context.Context, ev Event) bool {
	if q.Queue == nil {
		return false
	}
	at := ev.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	err := q.Queue.Send(ctx, queue.Message{
		Event:      ev.Name,
		EntityIDs:  ev.EntityIDs,
		Actor:      ev.Actor,
		RequestID:  ev.RequestID,
		EnqueuedAt: at.Format(time.RFC3339),
		Version:    queue.CurrentVersion,
	})
	if err != nil {
		telemetry.Error("notify.enqueue_failed", map[string]any{
			"event":      ev.Name,
			"request_id": ev.RequestID,
			"error":      err,
		})
		return false
	}
	return true
}

// FromMessage rebuilds an event from a queue message.
func FromMessage(msg queue.Message) Event {
	ev := Event{
		Name:      msg.Event,
		EntityIDs: msg.EntityIDs,
		Actor:     msg.Actor,
		RequestID: msg.RequestID,
	}
	if t, err := time.Parse(time.RFC3339, msg.EnqueuedAt); err == nil {
		ev.At = t
	}
	return ev
}
