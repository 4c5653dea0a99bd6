package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// AttemptStatus is the lifecycle state of one student's run through an
// assignment. Starting and Writing are transient; the rest are post-submission.
type AttemptStatus string

const (
	StatusStarting   AttemptStatus = "Starting"
	StatusWriting    AttemptStatus = "Writing"
	StatusPending    AttemptStatus = "Pending"
	StatusMarked     AttemptStatus = "Marked"
	StatusModerated  AttemptStatus = "Moderated"
	StatusTerminated AttemptStatus = "Terminated"
)

// Concluded reports whether the attempt counts toward marking progress.
func (s AttemptStatus) Concluded() bool {
	switch s {
	case StatusMarked, StatusModerated, StatusTerminated:
		return true
	default:
		return false
	}
}

// StringList is a JSONB-backed string slice (attempt feedback comments).
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

// AssignmentResult is a single attempt: at most one exists per
// (student, assignment) pair. Campus, intake group and outcome are copied
// from the student's enrollment when the attempt is created so later
// transfers do not rewrite history.
type AssignmentResult struct {
	ID              string        `db:"id" json:"id"`
	AssignmentID    string        `db:"assignment_id" json:"assignment"`
	StudentID       string        `db:"student_id" json:"student"`
	DateTaken       time.Time     `db:"date_taken" json:"dateTaken"`
	Scores          *float64      `db:"scores" json:"scores,omitempty"`
	Percent         *int          `db:"percent" json:"percent,omitempty"`
	ModeratedScores *float64      `db:"moderated_scores" json:"moderatedscores,omitempty"`
	Status          AttemptStatus `db:"status" json:"status"`
	MarkedBy        *string       `db:"marked_by" json:"markedBy,omitempty"`
	Feedback        StringList    `db:"feedback" json:"feedback"`
	OutcomeID       string        `db:"outcome_id" json:"outcome"`
	CampusID        string        `db:"campus_id" json:"campus"`
	IntakeGroupID   string        `db:"intake_group_id" json:"intakeGroup"`
}

// StartResponse is returned when a student passes the start gate.
type StartResponse struct {
	AssignmentResultID string    `json:"assignmentResultId"`
	Assignment         struct {
		ID             string    `json:"id"`
		Title          string    `json:"title"`
		Duration       int       `json:"duration"`
		AvailableFrom  time.Time `json:"availableFrom"`
		AvailableUntil time.Time `json:"availableUntil"`
	} `json:"assignment"`
}

// WritingQuestion is a question as presented to a writing student: shuffled,
// correct answer stripped, previously saved answers merged in.
type WritingQuestion struct {
	ID           string           `json:"id"`
	Text         string           `json:"text"`
	Mark         string           `json:"mark"`
	Type         QuestionType     `json:"type"`
	Options      QuestionOptions  `json:"options"`
	Answer       JSONValue        `json:"answer"`
	MatchAnswers MatchSubmissions `json:"matchAnswers"`
}

// WritingResponse is the payload handed to a student entering Writing.
type WritingResponse struct {
	ResultID  string            `json:"resultId"`
	Questions []WritingQuestion `json:"questions"`
}

// SubmittedAnswer is one entry of a final submission batch.
type SubmittedAnswer struct {
	QuestionID   string           `json:"questionId" validate:"required"`
	Answer       JSONValue        `json:"answer"`
	MatchAnswers MatchSubmissions `json:"matchAnswers"`
}

// SubmitResponse reports the raw auto-graded total. Percent is intentionally
// absent: it is only computed when staff mark the attempt.
type SubmitResponse struct {
	ResultID   string  `json:"resultId"`
	TotalScore float64 `json:"totalScore"`
}
