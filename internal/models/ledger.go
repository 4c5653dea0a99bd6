package models

import "time"

// ResultType categorizes a ledger document.
type ResultType string

const (
	ResultPractical ResultType = "Practical"
	ResultTheory    ResultType = "Theory"
	ResultExamsWell ResultType = "Exams/Well"
)

// OverallOutcome is the competency verdict carried on each ledger entry.
type OverallOutcome string

const (
	OutcomeCompetent    OverallOutcome = "Competent"
	OutcomeNotCompetent OverallOutcome = "Not Yet Competent"
)

// Result is the aggregate ledger head: exactly one exists per
// (campus, intake group, outcome) triple.
type Result struct {
	ID            string     `db:"id" json:"id"`
	Title         string     `db:"title" json:"title"`
	ConductedOn   time.Time  `db:"conducted_on" json:"conductedOn"`
	Details       string     `db:"details" json:"details"`
	ResultType    ResultType `db:"result_type" json:"resultType"`
	OutcomeID     string     `db:"outcome_id" json:"outcome"`
	CampusID      string     `db:"campus_id" json:"campus"`
	IntakeGroupID string     `db:"intake_group_id" json:"intakeGroups"`
	Observer      string     `db:"observer" json:"observer"`

	Results      []ResultEntry `json:"results"`
	Participants []string      `json:"participants"`
}

// ResultEntry is one student's row inside a ledger document. At most one
// exists per (result, student).
type ResultEntry struct {
	ID             string         `db:"id" json:"-"`
	ResultID       string         `db:"result_id" json:"-"`
	StudentID      string         `db:"student_id" json:"student"`
	Score          int            `db:"score" json:"score"`
	TestScore      int            `db:"test_score" json:"testScore"`
	TaskScore      int            `db:"task_score" json:"taskScore"`
	Percentage     int            `db:"percentage" json:"percentage"`
	Notes          string         `db:"notes" json:"notes"`
	OverallOutcome OverallOutcome `db:"overall_outcome" json:"overallOutcome"`
}

// LedgerScore is the per-student score fold handed to the ledger upsert.
type LedgerScore struct {
	CampusID       string
	IntakeGroupID  string
	OutcomeID      string
	StudentID      string
	AssignmentType AssignmentType
	Percentage     int
	Title          string
}

// MarkingProgress summarises marked/total attempt counts for one outcome
// within one campus.
type MarkingProgress struct {
	CampusID  string `db:"campus_id" json:"campus"`
	OutcomeID string `db:"outcome_id" json:"outcome"`
	Marked    int    `db:"marked" json:"markedCount"`
	Total     int    `db:"total" json:"totalCount"`
}
