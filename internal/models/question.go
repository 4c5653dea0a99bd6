package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// QuestionType discriminates the shape of a question's options and correct answer.
type QuestionType string

const (
	QuestionSingleWord     QuestionType = "SingleWord"
	QuestionShort          QuestionType = "Short"
	QuestionLong           QuestionType = "Long"
	QuestionTrueFalse      QuestionType = "TrueFalse"
	QuestionMatch          QuestionType = "Match"
	QuestionMultipleChoice QuestionType = "MultipleChoice"
)

// AutoScorable reports whether the grading engine scores this type. Short and
// Long answers are marked manually by staff.
func (t QuestionType) AutoScorable() bool {
	switch t {
	case QuestionSingleWord, QuestionTrueFalse, QuestionMatch, QuestionMultipleChoice:
		return true
	default:
		return false
	}
}

// QuestionOption is one presented option. MultipleChoice uses Value; Match
// uses the ColumnA/ColumnB pair, optionally backed by uploaded images.
type QuestionOption struct {
	Value           string `json:"value,omitempty"`
	ColumnA         string `json:"columnA,omitempty"`
	ColumnAImageKey string `json:"columnAImageKey,omitempty"`
	ColumnB         string `json:"columnB,omitempty"`
	ColumnBImageKey string `json:"columnBImageKey,omitempty"`
}

// QuestionOptions is a JSONB-backed option list.
type QuestionOptions []QuestionOption

// Value implements driver.Valuer.
func (o QuestionOptions) Value() (driver.Value, error) {
	if o == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(o)
}

// Scan implements sql.Scanner.
func (o *QuestionOptions) Scan(src interface{}) error {
	return scanJSON(src, o)
}

// MatchPair is one correct column pairing for a Match question.
type MatchPair struct {
	ColumnA string `json:"columnA"`
	ColumnB string `json:"columnB"`
}

// Question is an authored assessment question. The shape of CorrectAnswer is
// determined by Type: a JSON string for SingleWord/TrueFalse, a one-element
// string list for MultipleChoice, and an ordered MatchPair list for Match.
type Question struct {
	ID            string          `db:"id" json:"id"`
	AssignmentID  string          `db:"assignment_id" json:"assignment,omitempty"`
	Text          string          `db:"text" json:"text"`
	Mark          string          `db:"mark" json:"mark"`
	Type          QuestionType    `db:"type" json:"type"`
	Options       QuestionOptions `db:"options" json:"options"`
	CorrectAnswer JSONValue       `db:"correct_answer" json:"correctAnswer,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// MarkValue parses the mark weight. Marks are stored as strings but always
// carry numeric content; a parse failure is reported, not defaulted.
func (q *Question) MarkValue() (float64, error) {
	mark, err := strconv.ParseFloat(strings.TrimSpace(q.Mark), 64)
	if err != nil {
		return 0, fmt.Errorf("question %s has non-numeric mark %q", q.ID, q.Mark)
	}
	return mark, nil
}

// CorrectString decodes the correct answer as a plain string (SingleWord, TrueFalse).
func (q *Question) CorrectString() (string, error) {
	var s string
	if err := json.Unmarshal(q.CorrectAnswer, &s); err != nil {
		return "", fmt.Errorf("question %s: correct answer is not a string: %w", q.ID, err)
	}
	return s, nil
}

// CorrectChoice decodes the sole element of a MultipleChoice correct-answer list.
func (q *Question) CorrectChoice() (string, error) {
	var choices []string
	if err := json.Unmarshal(q.CorrectAnswer, &choices); err != nil {
		return "", fmt.Errorf("question %s: correct answer is not a list: %w", q.ID, err)
	}
	if len(choices) == 0 {
		return "", fmt.Errorf("question %s: empty correct-answer list", q.ID)
	}
	return choices[0], nil
}

// CorrectPairs decodes the ordered Match pair list.
func (q *Question) CorrectPairs() ([]MatchPair, error) {
	var pairs []MatchPair
	if err := json.Unmarshal(q.CorrectAnswer, &pairs); err != nil {
		return nil, fmt.Errorf("question %s: correct answer is not a pair list: %w", q.ID, err)
	}
	return pairs, nil
}

// JSONValue is a raw JSON column value (jsonb) preserved byte-for-byte.
type JSONValue []byte

// MarshalJSON returns the raw bytes.
func (v JSONValue) MarshalJSON() ([]byte, error) {
	if len(v) == 0 {
		return []byte("null"), nil
	}
	return v, nil
}

// UnmarshalJSON stores the raw bytes.
func (v *JSONValue) UnmarshalJSON(data []byte) error {
	*v = append((*v)[:0], data...)
	return nil
}

// Value implements driver.Valuer.
func (v JSONValue) Value() (driver.Value, error) {
	if len(v) == 0 {
		return []byte("null"), nil
	}
	return []byte(v), nil
}

// Scan implements sql.Scanner.
func (v *JSONValue) Scan(src interface{}) error {
	switch s := src.(type) {
	case nil:
		*v = nil
		return nil
	case []byte:
		*v = append((*v)[:0], s...)
		return nil
	case string:
		*v = JSONValue(s)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into JSONValue", src)
	}
}

func scanJSON(src, dest interface{}) error {
	switch s := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(s, dest)
	case string:
		return json.Unmarshal([]byte(s), dest)
	default:
		return fmt.Errorf("cannot scan %T as JSON", src)
	}
}
