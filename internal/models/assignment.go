package models

import "time"

// AssignmentType distinguishes timed tests from open tasks.
type AssignmentType string

const (
	AssignmentTest  AssignmentType = "Test"
	AssignmentTask  AssignmentType = "Task"
	AssignmentOther AssignmentType = "Other"
)

// Assignment is a scheduled test or task targeted at intake groups, campuses
// or individual students.
type Assignment struct {
	ID              string         `db:"id" json:"id"`
	Title           string         `db:"title" json:"title"`
	LecturerID      string         `db:"lecturer_id" json:"lecturer"`
	Type            AssignmentType `db:"type" json:"type"`
	Password        string         `db:"password" json:"-"`
	AvailableFrom   time.Time      `db:"available_from" json:"availableFrom"`
	DurationMinutes int            `db:"duration_minutes" json:"duration"`
	OutcomeID       string         `db:"outcome_id" json:"outcome"`
	CampusID        string         `db:"campus_id" json:"campus"`
	IntakeGroupID   string         `db:"intake_group_id" json:"intakeGroup"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// AvailableUntil is the close of the assignment's writing window.
func (a *Assignment) AvailableUntil() time.Time {
	return a.AvailableFrom.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// WithinWindow reports whether now falls inside [availableFrom, availableUntil].
func (a *Assignment) WithinWindow(now time.Time) bool {
	return !now.Before(a.AvailableFrom) && !now.After(a.AvailableUntil())
}

// AssignmentSummary is the student-facing listing row with the computed
// deadline and the student's own attempt status attached.
type AssignmentSummary struct {
	ID             string         `db:"id" json:"id"`
	Title          string         `db:"title" json:"title"`
	LecturerID     string         `db:"lecturer_id" json:"lecturer"`
	OutcomeID      string         `db:"outcome_id" json:"outcome"`
	Type           AssignmentType `db:"type" json:"type"`
	AvailableFrom  time.Time      `db:"available_from" json:"availableFrom"`
	Duration       int            `db:"duration_minutes" json:"duration"`
	AvailableUntil time.Time      `db:"-" json:"availableUntil"`
	AttemptStatus  *AttemptStatus `db:"attempt_status" json:"status,omitempty"`
}
