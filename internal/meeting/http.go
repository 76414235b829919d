package meeting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

// HTTPProvider calls a conferencing API authenticated with OAuth2 client credentials.
type HTTPProvider struct {
	apiURL string
	client *http.Client
}

// HTTPConfig configures an HTTPProvider.
type HTTPConfig struct {
	APIURL       string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
	Timeout      time.Duration
}

// NewHTTPProvider builds an HTTPProvider. The token source refreshes itself.
func NewHTTPProvider(ctx context.Context, cfg HTTPConfig) (*HTTPProvider, error) {
	if cfg.APIURL == "" || cfg.TokenURL == "" || cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrNotConfigured
	}
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       cfg.Scopes,
	}
	client := cc.Client(ctx)
	client.Timeout = cfg.Timeout
	if client.Timeout <= 0 {
		client.Timeout = 10 * time.Second
	}
	return &HTTPProvider{apiURL: cfg.APIURL, client: client}, nil
}

type createMeetingRequest struct {
	Participants    []string `json:"participants"`
	StartTime       string   `json:"startTime"`
	DurationMinutes int      `json:"durationMinutes"`
}

type createMeetingResponse struct {
	JoinURL string `json:"joinUrl"`
	URL     string `json:"url"`
}

func (p *HTTPProvider) CreateMeeting(ctx context.Context, participants []string, at time.Time, duration time.Duration) (string, error) {
	body, err := json.Marshal(createMeetingRequest{
		Participants:    participants,
		StartTime:       at.UTC().Format(time.RFC3339),
		DurationMinutes: int(duration / time.Minute),
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("create meeting: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("create meeting: status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var out createMeetingResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode meeting response: %w", err)
	}
	// Some providers answer with "url" instead of "joinUrl".
	if out.JoinURL == "" {
		out.JoinURL = out.URL
	}
	if out.JoinURL == "" {
		return "", fmt.Errorf("create meeting: empty join url")
	}
	return out.JoinURL, nil
}
