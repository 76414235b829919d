// Package notify publishes workflow events after their transaction commits.
package notify

import (
	"context"
	"time"
)

// Event names emitted by the lifecycle managers.
const (
	EventJobStatusChanged         = "job.status_changed"
	EventApplicationSubmitted     = "application.submitted"
	EventApplicationStatusChanged = "application.status_changed"
	EventInterviewAssigned        = "interview.assigned"
	EventInterviewCancelled       = "interview.cancelled"
	EventScorecardSubmitted       = "scorecard.submitted"
	EventOfferSent                = "offer.sent"
	EventOfferAccepted            = "offer.accepted"
	EventOfferDeclined            = "offer.declined"
)

// Event is one notification about a committed transition.
type Event struct {
	Name      string
	EntityIDs map[string]string
	Actor     string
	RequestID string
	At        time.Time
}

// Notifier delivers or forwards an event. It reports success and never
// returns an error or panics into the caller.
type Notifier interface {
	Notify(ctx context.Context, ev Event) bool
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, ev Event) bool

func (f NotifierFunc) Notify(ctx context.Context, ev Event) bool { return f(ctx, ev) }

type requestIDKey struct{}

// WithRequestID stores the originating request id for events published from ctx.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext returns the id stored by WithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
