package offers

import (
	"strings"
	"time"

	"recruit-backend/internal/domain"
	"recruit-backend/internal/workflow"
)

const dateLayout = "2006-01-02"

type createRequest struct {
	BaseSalary int64  `json:"baseSalary"`
	Currency   string `json:"currency"`
	StartDate  string `json:"startDate"`
	Notes      string `json:"notes"`
	ESignURL   string `json:"esignUrl"`
}

// startDate accepts a calendar date or an RFC 3339 timestamp.
func (r createRequest) startDate() (time.Time, error) {
	raw := strings.TrimSpace(r.StartDate)
	if raw == "" {
		return time.Time{}, workflow.Invalid("startDate", "is required")
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Time{}, workflow.Invalid("startDate", "must be YYYY-MM-DD")
}

// OfferResponse is the outward-facing representation of an offer.
type OfferResponse struct {
	OfferID       string     `json:"offerId"`
	ApplicationID string     `json:"applicationId"`
	Status        string     `json:"status"`
	BaseSalary    int64      `json:"baseSalary"`
	Currency      string     `json:"currency"`
	StartDate     string     `json:"startDate"`
	Notes         string     `json:"notes,omitempty"`
	DocumentURL   string     `json:"documentUrl,omitempty"`
	ESignURL      string     `json:"esignUrl,omitempty"`
	SentAt        *time.Time `json:"sentAt,omitempty"`
	RespondedAt   *time.Time `json:"respondedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func toResponse(o domain.Offer) OfferResponse {
	return OfferResponse{
		OfferID:       o.ID,
		ApplicationID: o.ApplicationID,
		Status:        string(o.Status),
		BaseSalary:    o.BaseSalary,
		Currency:      o.Currency,
		StartDate:     o.StartDate.Format(dateLayout),
		Notes:         o.Notes,
		DocumentURL:   o.DocumentURL,
		ESignURL:      o.ESignURL,
		SentAt:        o.SentAt,
		RespondedAt:   o.RespondedAt,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}
