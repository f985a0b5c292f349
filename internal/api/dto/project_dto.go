package dto

import (
	"time"

	"github.com/spec-kit/project-planner/internal/domain"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = time.DateOnly

// ProjectRequest is the body of project create and update calls.
type ProjectRequest struct {
	Title           string   `json:"title"`
	NewTitle        string   `json:"newTitle"`
	Customer        string   `json:"customer"`
	DateOfReceipt   *string  `json:"dateOfReceipt"`
	Status          *string  `json:"status"`
	Owner           *string  `json:"owner"`
	Writers         []string `json:"writers"`
	MotionDesigners []string `json:"motionDesigners"`
}

// ProjectResponse representation.
type ProjectResponse struct {
	ID              string               `json:"id"`
	Title           string               `json:"title"`
	Customer        string               `json:"customer"`
	DateOfReceipt   string               `json:"dateOfReceipt"`
	Status          domain.ProjectStatus `json:"status"`
	Owner           *string              `json:"owner"`
	Writers         []string             `json:"writers"`
	MotionDesigners []string             `json:"motionDesigners"`
	Milestones      []MilestoneResponse  `json:"milestones"`
}

// NewProjectResponse maps a project and its milestones.
func NewProjectResponse(p *domain.Project) ProjectResponse {
	resp := ProjectResponse{
		ID:              p.ID,
		Title:           p.Title,
		Customer:        p.Customer,
		DateOfReceipt:   p.DateOfReceipt.Format(DateLayout),
		Status:          p.Status,
		Owner:           p.Owner,
		Writers:         nonNil(p.Writers),
		MotionDesigners: nonNil(p.MotionDesigners),
		Milestones:      make([]MilestoneResponse, 0, len(p.Milestones)),
	}
	for i := range p.Milestones {
		resp.Milestones = append(resp.Milestones, NewMilestoneResponse(&p.Milestones[i]))
	}
	return resp
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
