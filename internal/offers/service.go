package offers

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"recruit-backend/internal/domain"
	"recruit-backend/internal/notify"
	"recruit-backend/internal/offerletter"
	"recruit-backend/internal/shared/metrics"
	"recruit-backend/internal/shared/telemetry"
	"recruit-backend/internal/workflow"
)

const (
	entity      = "offer"
	maxNotesLen = 5000
)

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// Service runs the offer lifecycle.
type Service struct {
	Repo    Repo
	Letters offerletter.Generator
	Outbox  *notify.Outbox
	NewID   func() string
	Now     func() time.Time
}

// NewService constructs an offer service.
func NewService(repo Repo, letters offerletter.Generator, outbox *notify.Outbox) *Service {
	return &Service{
		Repo:    repo,
		Letters: letters,
		Outbox:  outbox,
		NewID:   uuid.NewString,
		Now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateInput is the request to draft an offer.
type CreateInput struct {
	ApplicationID string
	BaseSalary    int64
	Currency      string
	StartDate     time.Time
	Notes         string
	ESignURL      string
}

// Create drafts an offer for an application that has been scored or selected
// and renders its letter. The letter is removed if the offer does not commit.
func (s *Service) Create(ctx context.Context, actor domain.Actor, in CreateInput) (offer domain.Offer, err error) {
	defer func() { metrics.ObserveOutcome(entity, "create", err) }()

	if err := s.validateCreate(&in); err != nil {
		return domain.Offer{}, err
	}

	var letterKey string
	err = s.Repo.InTx(ctx, func(tx Tx) error {
		target, err := tx.LockApplication(ctx, actor.CompanyID, in.ApplicationID)
		if err != nil {
			return err
		}
		if !workflow.Contains(workflow.OfferEligible(), target.Application.Status) {
			return workflow.ErrNotFound
		}
		live, err := tx.HasLiveOffer(ctx, target.Application.ID)
		if err != nil {
			return err
		}
		if live {
			return workflow.Conflict("application already has a live offer")
		}

		offer, err = tx.Insert(ctx, domain.Offer{
			ID:            s.NewID(),
			ApplicationID: target.Application.ID,
			Status:        domain.OfferDraft,
			BaseSalary:    in.BaseSalary,
			Currency:      in.Currency,
			StartDate:     in.StartDate,
			Notes:         in.Notes,
			ESignURL:      in.ESignURL,
		})
		if err != nil {
			return err
		}

		letter, err := s.Letters.Generate(ctx, offerletter.LetterContext{
			OfferID:       offer.ID,
			CompanyID:     target.Application.CompanyID,
			CompanyName:   target.CompanyName,
			CandidateName: target.CandidateName,
			JobTitle:      target.JobTitle,
			BaseSalary:    offer.BaseSalary,
			Currency:      offer.Currency,
			StartDate:     offer.StartDate,
			Notes:         offer.Notes,
		})
		if err != nil {
			return fmt.Errorf("generate offer letter: %w", err)
		}
		letterKey = letter.Key

		if err := tx.SetDocument(ctx, offer.ID, letter.URL, letter.Key); err != nil {
			return err
		}
		offer.DocumentURL = letter.URL
		offer.DocumentKey = letter.Key
		return nil
	})
	if err != nil {
		if letterKey != "" {
			if rmErr := s.Letters.Remove(context.WithoutCancel(ctx), letterKey); rmErr != nil {
				telemetry.Error("offer.letter_cleanup_failed", map[string]any{
					"key":   letterKey,
					"error": rmErr.Error(),
				})
			}
		}
		return domain.Offer{}, err
	}

	telemetry.Info("offer.created", map[string]any{
		"offer_id":       offer.ID,
		"application_id": offer.ApplicationID,
		"company_id":     actor.CompanyID,
		"actor":          actor.Label(),
	})
	return offer, nil
}

// Send moves a draft offer to sent and its application to offer_letter_sent.
func (s *Service) Send(ctx context.Context, actor domain.Actor, offerID string) (offer domain.Offer, err error) {
	defer func() { metrics.ObserveOutcome(entity, string(domain.OfferEventSend), err) }()

	offer, err = s.transition(ctx, StaffScope(actor.CompanyID), offerID,
		domain.OfferEventSend, domain.ApplicationEventOfferSent, StampSent)
	if err != nil {
		return domain.Offer{}, err
	}
	s.publish(ctx, actor, notify.EventOfferSent, offer)
	return offer, nil
}

// Accept records the candidate's acceptance.
func (s *Service) Accept(ctx context.Context, actor domain.Actor, offerID string) (offer domain.Offer, err error) {
	defer func() { metrics.ObserveOutcome(entity, string(domain.OfferEventAccept), err) }()

	offer, err = s.transition(ctx, CandidateScope(actor.UserID), offerID,
		domain.OfferEventAccept, domain.ApplicationEventOfferAccepted, StampResponded)
	if err != nil {
		return domain.Offer{}, err
	}
	s.publish(ctx, actor, notify.EventOfferAccepted, offer)
	return offer, nil
}

// Decline records the candidate's refusal and rejects the application.
func (s *Service) Decline(ctx context.Context, actor domain.Actor, offerID string) (offer domain.Offer, err error) {
	defer func() { metrics.ObserveOutcome(entity, string(domain.OfferEventDecline), err) }()

	offer, err = s.transition(ctx, CandidateScope(actor.UserID), offerID,
		domain.OfferEventDecline, domain.ApplicationEventOfferDeclined, StampResponded)
	if err != nil {
		return domain.Offer{}, err
	}
	s.publish(ctx, actor, notify.EventOfferDeclined, offer)
	return offer, nil
}

// Get returns an offer in the actor's company.
func (s *Service) Get(ctx context.Context, actor domain.Actor, offerID string) (domain.Offer, error) {
	if strings.TrimSpace(offerID) == "" {
		return domain.Offer{}, workflow.Invalid("offerId", "is required")
	}
	return s.Repo.Get(ctx, StaffScope(actor.CompanyID), offerID)
}

// GetForCandidate returns an offer on one of the actor's own applications.
func (s *Service) GetForCandidate(ctx context.Context, actor domain.Actor, offerID string) (domain.Offer, error) {
	if strings.TrimSpace(offerID) == "" {
		return domain.Offer{}, workflow.Invalid("offerId", "is required")
	}
	return s.Repo.Get(ctx, CandidateScope(actor.UserID), offerID)
}

// transition moves the offer and its application together. Either guard
// missing rolls both back and reports not found.
func (s *Service) transition(ctx context.Context, scope Scope, offerID string, ev domain.OfferEvent, appEv domain.ApplicationEvent, stamp Stamp) (domain.Offer, error) {
	if strings.TrimSpace(offerID) == "" {
		return domain.Offer{}, workflow.Invalid("offerId", "is required")
	}
	from, to, err := workflow.Offers.Transition(ev)
	if err != nil {
		return domain.Offer{}, err
	}
	appFrom, appTo, err := workflow.Applications.Transition(appEv)
	if err != nil {
		return domain.Offer{}, err
	}

	var offer domain.Offer
	err = s.Repo.InTx(ctx, func(tx Tx) error {
		current, err := tx.Get(ctx, scope, offerID)
		if err != nil {
			return err
		}
		n, err := tx.Move(ctx, scope, offerID, Move{From: from, To: to, Stamp: stamp})
		if err != nil {
			return err
		}
		if err := workflow.Affected(n); err != nil {
			return err
		}
		n, err = tx.MoveApplication(ctx, current.ApplicationID, AppMove{From: appFrom, To: appTo})
		if err != nil {
			return err
		}
		if err := workflow.Affected(n); err != nil {
			return err
		}
		offer, err = tx.Get(ctx, scope, offerID)
		return err
	})
	if err != nil {
		return domain.Offer{}, err
	}
	return offer, nil
}

func (s *Service) publish(ctx context.Context, actor domain.Actor, name string, offer domain.Offer) {
	telemetry.Info("offer.transition", map[string]any{
		"offer_id":       offer.ID,
		"application_id": offer.ApplicationID,
		"status":         string(offer.Status),
		"actor":          actor.Label(),
	})
	s.Outbox.Publish(ctx, notify.Event{
		Name: name,
		EntityIDs: map[string]string{
			"offerId":       offer.ID,
			"applicationId": offer.ApplicationID,
			"status":        string(offer.Status),
		},
		Actor: actor.Label(),
	})
}

func (s *Service) validateCreate(in *CreateInput) error {
	in.ApplicationID = strings.TrimSpace(in.ApplicationID)
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	in.Notes = strings.TrimSpace(in.Notes)
	in.ESignURL = strings.TrimSpace(in.ESignURL)

	if in.ApplicationID == "" {
		return workflow.Invalid("applicationId", "is required")
	}
	if in.BaseSalary <= 0 {
		return workflow.Invalid("baseSalary", "must be positive")
	}
	if !currencyPattern.MatchString(in.Currency) {
		return workflow.Invalid("currency", "must be a three letter ISO code")
	}
	if in.StartDate.IsZero() {
		return workflow.Invalid("startDate", "is required")
	}
	start := truncateDay(in.StartDate)
	if start.Before(truncateDay(s.Now())) {
		return workflow.Invalid("startDate", "must not be in the past")
	}
	in.StartDate = start
	if len(in.Notes) > maxNotesLen {
		return workflow.Invalid("notes", "must be at most %d characters", maxNotesLen)
	}
	if in.ESignURL != "" {
		u, err := url.Parse(in.ESignURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return workflow.Invalid("esignUrl", "must be an http(s) url")
		}
	}
	return nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
