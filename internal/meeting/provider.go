// Package meeting issues video-call links for scheduled interviews.
package meeting

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotConfigured is returned when a provider lacks its endpoint or credentials.
var ErrNotConfigured = errors.New("meeting provider not configured")

// Provider creates a meeting and returns its join link.
type Provider interface {
	CreateMeeting(ctx context.Context, participants []string, at time.Time, duration time.Duration) (string, error)
}

// StaticProvider mints links under a fixed base URL without calling out.
type StaticProvider struct {
	BaseURL string
	NewID   func() string
}

// NewStaticProvider returns a StaticProvider for baseURL.
func NewStaticProvider(baseURL string) *StaticProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://meet.local"
	}
	return &StaticProvider{BaseURL: strings.TrimRight(baseURL, "/"), NewID: uuid.NewString}
}

func (p *StaticProvider) CreateMeeting(ctx context.Context, participants []string, at time.Time, duration time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	u, err := url.Parse(p.BaseURL + "/" + p.NewID())
	if err != nil {
		return "", fmt.Errorf("meeting link: %w", err)
	}
	q := u.Query()
	q.Set("start", at.UTC().Format(time.RFC3339))
	q.Set("minutes", fmt.Sprint(int(duration/time.Minute)))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
