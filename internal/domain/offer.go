package domain

import "time"

// OfferStatus is the state of an offer.
type OfferStatus string

const (
	OfferDraft    OfferStatus = "draft"
	OfferSent     OfferStatus = "sent"
	OfferAccepted OfferStatus = "accepted"
	OfferDeclined OfferStatus = "declined"
)

// OfferEvent names an offer transition.
type OfferEvent string

const (
	OfferEventSend    OfferEvent = "send"
	OfferEventAccept  OfferEvent = "accept"
	OfferEventDecline OfferEvent = "decline"
)

// Live reports whether an offer in status s still drives its application.
func (s OfferStatus) Live() bool {
	return s != OfferDeclined
}

// Offer is an employment offer attached to an application.
type Offer struct {
	ID            string      `json:"id"`
	ApplicationID string      `json:"applicationId"`
	Status        OfferStatus `json:"status"`
	BaseSalary    int64       `json:"baseSalary"`
	Currency      string      `json:"currency"`
	StartDate     time.Time   `json:"startDate"`
	Notes         string      `json:"notes,omitempty"`
	DocumentURL   string      `json:"documentUrl,omitempty"`
	DocumentKey   string      `json:"-"`
	ESignURL      string      `json:"esignUrl,omitempty"`
	SentAt        *time.Time  `json:"sentAt,omitempty"`
	RespondedAt   *time.Time  `json:"respondedAt,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}
