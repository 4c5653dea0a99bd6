package models

import "time"

// Notification kinds.
const (
	NotificationResultMarked    = "result_marked"
	NotificationResultModerated = "result_moderated"
	NotificationTerminated      = "assignment_terminated"
)

// Notification is a persisted in-app message for a student.
type Notification struct {
	ID           string     `db:"id" json:"id"`
	StudentID    string     `db:"student_id" json:"student"`
	Kind         string     `db:"kind" json:"kind"`
	Title        string     `db:"title" json:"title"`
	Body         string     `db:"body" json:"body"`
	AssignmentID *string    `db:"assignment_id" json:"assignment,omitempty"`
	ReadAt       *time.Time `db:"read_at" json:"readAt,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}
