package domain

import "time"

// ProjectStatus enumerates project lifecycle states.
type ProjectStatus string

const (
	ProjectStatusOpen    ProjectStatus = "OPEN"
	ProjectStatusArchive ProjectStatus = "ARCHIVE"
)

// Valid reports whether s is a known status.
func (s ProjectStatus) Valid() bool {
	return s == ProjectStatusOpen || s == ProjectStatusArchive
}

// Project is identified by an immutable ID; Title is unique but may change.
type Project struct {
	ID              string
	Title           string
	Customer        string
	DateOfReceipt   time.Time
	Status          ProjectStatus
	Owner           *string
	Writers         []string
	MotionDesigners []string
	Milestones      []Milestone
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Clone returns a deep copy so callers can stage changes without touching the original.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	cp := *p
	if p.Owner != nil {
		owner := *p.Owner
		cp.Owner = &owner
	}
	cp.Writers = append([]string(nil), p.Writers...)
	cp.MotionDesigners = append([]string(nil), p.MotionDesigners...)
	cp.Milestones = append([]Milestone(nil), p.Milestones...)
	return &cp
}
