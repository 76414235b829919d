package applications

import (
	"time"

	"recruit-backend/internal/domain"
)

type applyRequest struct {
	CoverLetter string `json:"coverLetter"`
}

type screenRequest struct {
	Status string `json:"status"`
}

type moveStageRequest struct {
	Status  string `json:"status"`
	StageID string `json:"stageId"`
}

type finalDecisionRequest struct {
	Status string `json:"status"`
}

// ApplicationResponse is the outward-facing representation of an application.
type ApplicationResponse struct {
	ApplicationID       string     `json:"applicationId"`
	JobID               string     `json:"jobId"`
	CandidateID         string     `json:"candidateId"`
	Status              string     `json:"status"`
	CurrentStageID      string     `json:"currentStageId,omitempty"`
	OfferRecommended    bool       `json:"offerRecommended"`
	CoverLetter         string     `json:"coverLetter,omitempty"`
	AppliedAt           time.Time  `json:"appliedAt"`
	ScreeningDecisionAt *time.Time `json:"screeningDecisionAt,omitempty"`
	FinalDecisionAt     *time.Time `json:"finalDecisionAt,omitempty"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

func toResponse(app domain.Application) ApplicationResponse {
	return ApplicationResponse{
		ApplicationID:       app.ID,
		JobID:               app.JobID,
		CandidateID:         app.CandidateID,
		Status:              string(app.Status),
		CurrentStageID:      app.CurrentStageID,
		OfferRecommended:    app.OfferRecommended,
		CoverLetter:         app.CoverLetter,
		AppliedAt:           app.AppliedAt,
		ScreeningDecisionAt: app.ScreeningDecisionAt,
		FinalDecisionAt:     app.FinalDecisionAt,
		UpdatedAt:           app.UpdatedAt,
	}
}

func toResponses(items []domain.Application) []ApplicationResponse {
	out := make([]ApplicationResponse, 0, len(items))
	for _, app := range items {
		out = append(out, toResponse(app))
	}
	return out
}
