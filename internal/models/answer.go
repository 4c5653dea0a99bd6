package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// MatchSubmission is a student's submitted pairing for one Match row.
type MatchSubmission struct {
	PairOne string `json:"pairOne"`
	PairTwo string `json:"pairTwo"`
}

// MatchSubmissions is a JSONB-backed submission list.
type MatchSubmissions []MatchSubmission

// Value implements driver.Valuer.
func (m MatchSubmissions) Value() (driver.Value, error) {
	if m == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *MatchSubmissions) Scan(src interface{}) error {
	return scanJSON(src, m)
}

// Answer is one student's answer to one question within one assignment
// attempt. Exactly one row exists per (student, assignment, question).
type Answer struct {
	ID              string           `db:"id" json:"id"`
	StudentID       string           `db:"student_id" json:"student"`
	AssignmentID    string           `db:"assignment_id" json:"assignment"`
	QuestionID      string           `db:"question_id" json:"question"`
	Answer          JSONValue        `db:"answer" json:"answer"`
	MatchAnswers    MatchSubmissions `db:"match_answers" json:"matchAnswers"`
	Scores          *float64         `db:"scores" json:"scores,omitempty"`
	ModeratedScores *float64         `db:"moderated_scores" json:"moderatedscores,omitempty"`
	AnsweredAt      time.Time        `db:"answered_at" json:"answeredAt"`
}
