package dto

import (
	"time"

	"github.com/spec-kit/project-planner/internal/domain"
)

// MilestoneRequest is the body of milestone create and update calls.
type MilestoneRequest struct {
	ProjectTitle string  `json:"projectTitle"`
	Title        string  `json:"title"`
	DueDate      *string `json:"dueDate"`
	DateFinished *string `json:"dateFinished"`
}

// MilestoneResponse representation.
type MilestoneResponse struct {
	ID           string  `json:"id"`
	ProjectTitle string  `json:"projectTitle"`
	Title        string  `json:"title"`
	DueDate      *string `json:"dueDate"`
	DateFinished *string `json:"dateFinished"`
}

// NewMilestoneResponse maps a milestone.
func NewMilestoneResponse(m *domain.Milestone) MilestoneResponse {
	return MilestoneResponse{
		ID:           m.ID,
		ProjectTitle: m.ProjectTitle,
		Title:        m.Title,
		DueDate:      formatDate(m.DueDate),
		DateFinished: formatDate(m.DateFinished),
	}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(DateLayout)
	return &s
}
