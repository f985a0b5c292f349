package domain

import (
	"sort"
	"time"
)

// Milestone belongs to exactly one project through ProjectID.
type Milestone struct {
	ID           string
	ProjectID    string
	ProjectTitle string
	Title        string
	DueDate      *time.Time
	DateFinished *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Open reports whether the milestone has not been finished yet.
func (m Milestone) Open() bool {
	return m.DateFinished == nil
}

// MilestoneTemplate describes a milestone seeded for every new project.
type MilestoneTemplate struct {
	Title string
	// BusinessDays is counted from the due date of the previous template.
	BusinessDays int
}

// DefaultMilestones lists the production steps every project starts with, in order.
var DefaultMilestones = []MilestoneTemplate{
	{Title: "Texterstellung", BusinessDays: 10},
	{Title: "Redaktionsfreigabe", BusinessDays: 2},
	{Title: "Kundenkorrektur", BusinessDays: 10},
	{Title: "Vergabe an Motion Grafik", BusinessDays: 1},
	{Title: "Grafik", BusinessDays: 4},
	{Title: "Abnahme", BusinessDays: 2},
	{Title: "In House", BusinessDays: 1},
	{Title: "Einspielung", BusinessDays: 1},
	{Title: "hausinterner Prozess", BusinessDays: 1},
}

// SortMilestonesByDueDate orders milestones by due date; undated ones go last.
func SortMilestonesByDueDate(milestones []Milestone) {
	sort.SliceStable(milestones, func(i, j int) bool {
		a, b := milestones[i].DueDate, milestones[j].DueDate
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return a.Before(*b)
	})
}
