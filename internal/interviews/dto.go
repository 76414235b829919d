package interviews

import (
	"time"

	"recruit-backend/internal/domain"
)

type scheduleRequest struct {
	InterviewerID   string    `json:"interviewerId"`
	ScheduledAt     time.Time `json:"scheduledAt"`
	DurationMinutes int       `json:"durationMinutes"`
	Notes           string    `json:"notes"`
	MeetingLink     string    `json:"meetingLink"`
}

type updateRequest struct {
	ScheduledAt     *time.Time `json:"scheduledAt"`
	DurationMinutes *int       `json:"durationMinutes"`
	Notes           *string    `json:"notes"`
	MeetingLink     *string    `json:"meetingLink"`
}

type scorecardRequest struct {
	Ratings        map[string]int `json:"ratings"`
	Recommendation string         `json:"recommendation"`
	Notes          string         `json:"notes"`
}

// InterviewResponse is the outward-facing representation of an interview.
type InterviewResponse struct {
	InterviewID     string    `json:"interviewId"`
	ApplicationID   string    `json:"applicationId"`
	InterviewerID   string    `json:"interviewerId"`
	ScheduledAt     time.Time `json:"scheduledAt"`
	DurationMinutes int       `json:"durationMinutes"`
	Status          string    `json:"status"`
	Notes           string    `json:"notes,omitempty"`
	MeetingLink     string    `json:"meetingLink"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// ScorecardResponse is the outward-facing representation of a scorecard.
type ScorecardResponse struct {
	ScorecardID    string         `json:"scorecardId"`
	InterviewID    string         `json:"interviewId"`
	InterviewerID  string         `json:"interviewerId"`
	Ratings        map[string]int `json:"ratings"`
	Recommendation string         `json:"recommendation"`
	Notes          string         `json:"notes,omitempty"`
	IsFinal        bool           `json:"isFinal"`
	FinalizedAt    *time.Time     `json:"finalizedAt,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
}

func toResponse(iv domain.Interview) InterviewResponse {
	return InterviewResponse{
		InterviewID:     iv.ID,
		ApplicationID:   iv.ApplicationID,
		InterviewerID:   iv.InterviewerID,
		ScheduledAt:     iv.ScheduledAt,
		DurationMinutes: iv.DurationMinutes,
		Status:          string(iv.Status),
		Notes:           iv.Notes,
		MeetingLink:     iv.MeetingLink,
		CreatedAt:       iv.CreatedAt,
		UpdatedAt:       iv.UpdatedAt,
	}
}

func toScorecardResponse(sc domain.Scorecard) ScorecardResponse {
	return ScorecardResponse{
		ScorecardID:    sc.ID,
		InterviewID:    sc.InterviewID,
		InterviewerID:  sc.InterviewerID,
		Ratings:        sc.Ratings,
		Recommendation: string(sc.Recommendation),
		Notes:          sc.Notes,
		IsFinal:        sc.IsFinal,
		FinalizedAt:    sc.FinalizedAt,
		CreatedAt:      sc.CreatedAt,
	}
}
