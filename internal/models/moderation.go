package models

import "time"

// AssignmentModeration is the audit record created when a second marker
// moderates an attempt.
type AssignmentModeration struct {
	ID           string    `db:"id" json:"id"`
	AssignmentID string    `db:"assignment_id" json:"assignment"`
	ResultID     string    `db:"assignment_result_id" json:"assignmentResult"`
	ModeratedBy  string    `db:"moderated_by" json:"moderatedBy"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`

	Entries []ModerationEntry `json:"moderationEntries"`
}

// ModerationEntry records one answer's moderated mark.
type ModerationEntry struct {
	ID            string    `db:"id" json:"-"`
	ModerationID  string    `db:"moderation_id" json:"-"`
	LecturerID    string    `db:"lecturer_id" json:"lecturer"`
	QuestionID    string    `db:"question_id" json:"question"`
	AnswerID      string    `db:"answer_id" json:"answer"`
	ModeratedMark float64   `db:"moderated_mark" json:"moderatedMark"`
	Date          time.Time `db:"date" json:"date"`
}
