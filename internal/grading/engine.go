// Package grading computes scores for submitted answers. Scoring is a pure
// function of the question and submission; persistence belongs to the caller.
package grading

import (
	"encoding/json"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/limpopochefs/academy-api/internal/models"
)

// Score is the outcome of grading a single answer.
type Score struct {
	// Value is the awarded mark. Meaningful only when Graded is true.
	Value float64
	// Graded reports whether the engine produced a score. Free-text types
	// (Short, Long) are marked manually and return Graded=false.
	Graded bool
}

// Engine grades answers against their questions.
type Engine struct {
	logger *zap.Logger
}

// NewEngine constructs a grading engine.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// Grade scores one submitted answer against its question. Malformed
// submissions score zero rather than erroring; mark parse failures are
// logged and treated as zero weight.
func (e *Engine) Grade(question *models.Question, answer models.JSONValue, matchAnswers models.MatchSubmissions) Score {
	mark, err := question.MarkValue()
	if err != nil {
		e.logger.Warn("unparseable question mark, scoring as zero",
			zap.String("question_id", question.ID),
			zap.String("mark", question.Mark),
			zap.Error(err))
		mark = 0
	}

	switch question.Type {
	case models.QuestionSingleWord:
		correct, err := question.CorrectString()
		if err != nil {
			e.warnMalformed(question, err)
			return Score{Value: 0, Graded: true}
		}
		if strings.EqualFold(answerString(answer), correct) {
			return Score{Value: mark, Graded: true}
		}
		return Score{Value: 0, Graded: true}

	case models.QuestionTrueFalse:
		correct, err := question.CorrectString()
		if err != nil {
			e.warnMalformed(question, err)
			return Score{Value: 0, Graded: true}
		}
		if answerString(answer) == correct {
			return Score{Value: mark, Graded: true}
		}
		return Score{Value: 0, Graded: true}

	case models.QuestionMultipleChoice:
		correct, err := question.CorrectChoice()
		if err != nil {
			e.warnMalformed(question, err)
			return Score{Value: 0, Graded: true}
		}
		if answerValue(answer) == correct {
			return Score{Value: mark, Graded: true}
		}
		return Score{Value: 0, Graded: true}

	case models.QuestionMatch:
		return Score{Value: e.gradeMatch(question, mark, matchAnswers), Graded: true}

	default:
		// Short and Long are marked by staff.
		return Score{Graded: false}
	}
}

func (e *Engine) warnMalformed(question *models.Question, err error) {
	e.logger.Warn("malformed correct answer, scoring as zero",
		zap.String("question_id", question.ID),
		zap.String("type", string(question.Type)),
		zap.Error(err))
}

// gradeMatch awards mark/pairCount per correctly ordered pair, rounding the
// accumulated total once at the end.
func (e *Engine) gradeMatch(question *models.Question, mark float64, submitted models.MatchSubmissions) float64 {
	correct, err := question.CorrectPairs()
	if err != nil {
		e.warnMalformed(question, err)
		return 0
	}
	if len(correct) == 0 {
		return 0
	}
	if len(submitted) == 0 {
		e.logger.Warn("match submission missing or malformed, scoring as zero",
			zap.String("question_id", question.ID))
		return 0
	}

	perPair := mark / float64(len(correct))
	var correctCount int
	for i, pair := range correct {
		if i >= len(submitted) {
			break
		}
		if submitted[i].PairOne == pair.ColumnA && submitted[i].PairTwo == pair.ColumnB {
			correctCount++
		}
	}
	return math.Round(float64(correctCount) * perPair)
}

// Percent computes the rounded percentage for a total against the possible
// total. Callers must reject possible == 0 before calling.
func Percent(total, possible float64) int {
	return int(math.Round(100 * total / possible))
}

// answerString extracts a plain string submission. Non-string payloads are
// treated as empty.
func answerString(answer models.JSONValue) string {
	if len(answer) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(answer, &s); err != nil {
		return ""
	}
	return s
}

// answerValue extracts the selected option from a multiple-choice submission,
// which arrives either as {"value": "..."} or a bare string.
func answerValue(answer models.JSONValue) string {
	if len(answer) == 0 {
		return ""
	}
	var wrapped struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(answer, &wrapped); err == nil && wrapped.Value != "" {
		return wrapped.Value
	}
	return answerString(answer)
}
