package offers

import (
	"context"

	"recruit-backend/internal/domain"
)

// Stamp names the timestamp set by an offer transition.
type Stamp int

const (
	StampNone Stamp = iota
	StampSent
	StampResponded
)

// Scope restricts offer access to a company's staff or to the owning candidate.
// Exactly one field is set.
type Scope struct {
	CompanyID   string
	CandidateID string
}

// StaffScope scopes to a company.
func StaffScope(companyID string) Scope { return Scope{CompanyID: companyID} }

// CandidateScope scopes to a candidate's own applications.
func CandidateScope(candidateID string) Scope { return Scope{CandidateID: candidateID} }

// Move is a guarded offer status change.
type Move struct {
	From  []domain.OfferStatus
	To    domain.OfferStatus
	Stamp Stamp
}

// AppMove is a guarded application status change made alongside an offer move.
type AppMove struct {
	From []domain.ApplicationStatus
	To   domain.ApplicationStatus
}

// Target is a locked application with the names the offer letter needs.
type Target struct {
	Application   domain.Application
	CompanyName   string
	JobTitle      string
	CandidateName string
}

// Repo persists offers.
type Repo interface {
	Get(ctx context.Context, scope Scope, offerID string) (domain.Offer, error)
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is an offer transaction.
type Tx interface {
	// LockApplication locks the application row in company scope.
	LockApplication(ctx context.Context, companyID, applicationID string) (Target, error)
	HasLiveOffer(ctx context.Context, applicationID string) (bool, error)
	Insert(ctx context.Context, offer domain.Offer) (domain.Offer, error)
	SetDocument(ctx context.Context, offerID, url, key string) error
	Get(ctx context.Context, scope Scope, offerID string) (domain.Offer, error)
	Move(ctx context.Context, scope Scope, offerID string, m Move) (int64, error)
	MoveApplication(ctx context.Context, applicationID string, m AppMove) (int64, error)
}
