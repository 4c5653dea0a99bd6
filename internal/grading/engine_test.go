package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/limpopochefs/academy-api/internal/models"
)

func question(qType models.QuestionType, mark, correct string) *models.Question {
	return &models.Question{
		ID:            "q1",
		Mark:          mark,
		Type:          qType,
		CorrectAnswer: models.JSONValue(correct),
	}
}

func TestGradeSingleWordCaseInsensitive(t *testing.T) {
	engine := NewEngine(zap.NewNop())
	q := question(models.QuestionSingleWord, "5", `"paris"`)

	score := engine.Grade(q, models.JSONValue(`"Paris"`), nil)
	assert.True(t, score.Graded)
	assert.Equal(t, 5.0, score.Value)

	score = engine.Grade(q, models.JSONValue(`"London"`), nil)
	assert.True(t, score.Graded)
	assert.Equal(t, 0.0, score.Value)
}

func TestGradeSingleWordNonStringSubmission(t *testing.T) {
	engine := NewEngine(zap.NewNop())
	q := question(models.QuestionSingleWord, "5", `"paris"`)

	score := engine.Grade(q, models.JSONValue(`{"value":"paris"}`), nil)
	assert.True(t, score.Graded)
	assert.Equal(t, 0.0, score.Value)
}

func TestGradeTrueFalseCaseSensitive(t *testing.T) {
	engine := NewEngine(zap.NewNop())
	q := question(models.QuestionTrueFalse, "2", `"True"`)

	score := engine.Grade(q, models.JSONValue(`"True"`), nil)
	assert.Equal(t, 2.0, score.Value)

	score = engine.Grade(q, models.JSONValue(`"true"`), nil)
	assert.Equal(t, 0.0, score.Value)
}

func TestGradeMultipleChoice(t *testing.T) {
	engine := NewEngine(zap.NewNop())
	q := question(models.QuestionMultipleChoice, "3", `["b"]`)

	score := engine.Grade(q, models.JSONValue(`{"value":"b"}`), nil)
	assert.Equal(t, 3.0, score.Value)

	score = engine.Grade(q, models.JSONValue(`{"value":"a"}`), nil)
	assert.Equal(t, 0.0, score.Value)

	// bare string submission is accepted too
	score = engine.Grade(q, models.JSONValue(`"b"`), nil)
	assert.Equal(t, 3.0, score.Value)
}

func TestGradeMatchAllCorrect(t *testing.T) {
	engine := NewEngine(zap.NewNop())
	q := question(models.QuestionMatch, "10", `[{"columnA":"A","columnB":"1"},{"columnA":"B","columnB":"2"}]`)

	score := engine.Grade(q, nil, models.MatchSubmissions{
		{PairOne: "A", PairTwo: "1"},
		{PairOne: "B", PairTwo: "2"},
	})
	assert.True(t, score.Graded)
	assert.Equal(t, 10.0, score.Value)
}

func TestGradeMatchPartial(t *testing.T) {
	engine := NewEngine(zap.NewNop())
	q := question(models.QuestionMatch, "10", `[{"columnA":"A","columnB":"1"},{"columnA":"B","columnB":"2"}]`)

	score := engine.Grade(q, nil, models.MatchSubmissions{
		{PairOne: "A", PairTwo: "2"},
		{PairOne: "B", PairTwo: "2"},
	})
	assert.Equal(t, 5.0, score.Value)
}

func TestGradeMatchRoundsOnce(t *testing.T) {
	engine := NewEngine(zap.NewNop())
	// 10/3 per pair; 2 correct pairs = 6.666..., rounds to 7
	q := question(models.QuestionMatch, "10", `[{"columnA":"A","columnB":"1"},{"columnA":"B","columnB":"2"},{"columnA":"C","columnB":"3"}]`)

	score := engine.Grade(q, nil, models.MatchSubmissions{
		{PairOne: "A", PairTwo: "1"},
		{PairOne: "B", PairTwo: "2"},
		{PairOne: "C", PairTwo: "9"},
	})
	assert.Equal(t, 7.0, score.Value)
}

func TestGradeMatchMalformedSubmission(t *testing.T) {
	engine := NewEngine(zap.NewNop())
	q := question(models.QuestionMatch, "10", `[{"columnA":"A","columnB":"1"}]`)

	score := engine.Grade(q, nil, nil)
	assert.True(t, score.Graded)
	assert.Equal(t, 0.0, score.Value)
}

func TestGradeMatchShortSubmission(t *testing.T) {
	engine := NewEngine(zap.NewNop())
	q := question(models.QuestionMatch, "10", `[{"columnA":"A","columnB":"1"},{"columnA":"B","columnB":"2"}]`)

	score := engine.Grade(q, nil, models.MatchSubmissions{{PairOne: "A", PairTwo: "1"}})
	assert.Equal(t, 5.0, score.Value)
}

func TestGradeFreeTextSkipped(t *testing.T) {
	engine := NewEngine(zap.NewNop())

	for _, qType := range []models.QuestionType{models.QuestionShort, models.QuestionLong} {
		q := question(qType, "10", `null`)
		score := engine.Grade(q, models.JSONValue(`"an essay"`), nil)
		assert.False(t, score.Graded)
	}
}

func TestGradeUnparseableMark(t *testing.T) {
	engine := NewEngine(zap.NewNop())
	q := question(models.QuestionSingleWord, "five", `"paris"`)

	score := engine.Grade(q, models.JSONValue(`"paris"`), nil)
	assert.True(t, score.Graded)
	assert.Equal(t, 0.0, score.Value)
}

func TestGradeMalformedCorrectAnswer(t *testing.T) {
	engine := NewEngine(zap.NewNop())
	q := question(models.QuestionMultipleChoice, "3", `"not-a-list"`)

	score := engine.Grade(q, models.JSONValue(`{"value":"b"}`), nil)
	assert.True(t, score.Graded)
	assert.Equal(t, 0.0, score.Value)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 75, Percent(75, 100))
	assert.Equal(t, 67, Percent(2, 3))
	assert.Equal(t, 100, Percent(10, 10))
	assert.Equal(t, 0, Percent(0, 50))
}
