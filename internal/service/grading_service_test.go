package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"examly-backend/internal/llm"
)

// fakeOracle returns canned assessments, or an error when failing is set.
type fakeOracle struct {
	writing  *llm.WritingResult
	speaking *llm.SpeakingAssessment
	failing  bool
}

func (f *fakeOracle) GradeWriting(_ context.Context, _, _ string) (*llm.WritingResult, error) {
	if f.failing {
		return nil, llm.ErrOracleUnavailable
	}
	return f.writing, nil
}

func (f *fakeOracle) GradeSpeaking(_ context.Context, _ []llm.SpeakingTask) (*llm.SpeakingAssessment, error) {
	if f.failing {
		return nil, llm.ErrOracleUnavailable
	}
	return f.speaking, nil
}

func TestAnswerKey_UnmarshalShapes(t *testing.T) {
	var key AnswerKey
	require.NoError(t, json.Unmarshal([]byte(`"will call"`), &key))
	assert.Equal(t, "will call", key.Text)

	key = AnswerKey{}
	require.NoError(t, json.Unmarshal([]byte(`["will call", "'ll call"]`), &key))
	assert.Equal(t, []string{"will call", "'ll call"}, key.Variants)

	key = AnswerKey{}
	require.NoError(t, json.Unmarshal([]byte(`2`), &key))
	require.NotNil(t, key.OptionIndex)
	assert.Equal(t, 2, *key.OptionIndex)

	key = AnswerKey{}
	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &key))
}

func TestNormalizeAnswer(t *testing.T) {
	assert.Equal(t, "it's fine", normalizeAnswer("  It's   FINE. "))
	assert.Equal(t, "hello", normalizeAnswer("Hello!?"))
	assert.Equal(t, "", normalizeAnswer("   "))
}

func TestEvaluateClosedTasks_VariantsAndNormalization(t *testing.T) {
	svc := NewGradingService(nil)

	tasks := []GradableTask{
		{
			ID:    "t1",
			Title: "Future forms",
			Questions: []TaskQuestion{
				{Key: AnswerKey{Variants: []string{"will call", "'ll call"}}},
				{Key: AnswerKey{Text: "is going to rain"}},
			},
		},
	}

	result := svc.EvaluateClosedTasks(tasks, map[string][]string{
		"t1": {"'LL CALL.", "Is going  to rain"},
	})

	assert.Equal(t, 2, result.Points)
	assert.Equal(t, 2, result.TotalQuestions)
	assert.Empty(t, result.FailedTaskTitles)
}

func TestEvaluateClosedTasks_MissingAnswersAreIncorrect(t *testing.T) {
	svc := NewGradingService(nil)

	tasks := []GradableTask{
		{
			ID:    "t1",
			Title: "Articles",
			Questions: []TaskQuestion{
				{Key: AnswerKey{Text: "a"}},
				{Key: AnswerKey{Text: "the"}},
				{Key: AnswerKey{Text: "an"}},
			},
		},
	}

	// Only one answer submitted; the rest count as wrong, not as errors.
	result := svc.EvaluateClosedTasks(tasks, map[string][]string{"t1": {"a"}})

	assert.Equal(t, 1, result.Points)
	assert.Equal(t, 3, result.TotalQuestions)
	assert.Equal(t, []string{"Articles"}, result.FailedTaskTitles)
}

func TestEvaluateClosedTasks_OptionIndexAndOpenTasks(t *testing.T) {
	svc := NewGradingService(nil)
	idx := 2

	tasks := []GradableTask{
		{
			ID:        "t1",
			Title:     "Listening quiz",
			Questions: []TaskQuestion{{Key: AnswerKey{OptionIndex: &idx}}},
		},
		{
			ID:        "t2",
			Title:     "Essay",
			Open:      true,
			Questions: []TaskQuestion{{Key: AnswerKey{Text: "ignored"}}},
		},
	}

	result := svc.EvaluateClosedTasks(tasks, map[string][]string{
		"t1": {" 2 "},
	})

	assert.Equal(t, 1, result.Points)
	assert.Equal(t, 1, result.TotalQuestions, "open tasks are excluded entirely")
	assert.Empty(t, result.FailedTaskTitles)
}

func TestEvaluateClosedTasks_NoTasks(t *testing.T) {
	svc := NewGradingService(nil)
	result := svc.EvaluateClosedTasks(nil, nil)
	assert.Equal(t, 0, result.Points)
	assert.Equal(t, 0, result.TotalQuestions)
}

func TestGradeWriting_ClampsOracleOutput(t *testing.T) {
	svc := NewGradingService(&fakeOracle{writing: &llm.WritingResult{
		TaskAchievement: 9,
		Vocabulary:      -2,
		Accuracy:        5,
		Organization:    3,
		Feedback:        "solid work",
	}})

	score := svc.GradeWriting(context.Background(), "", "some text")

	assert.Equal(t, 5, score.TaskAchievement)
	assert.Equal(t, 0, score.Vocabulary)
	assert.Equal(t, 5, score.Accuracy)
	assert.Equal(t, 3, score.Organization)
	assert.Equal(t, 13, score.Total)
	assert.False(t, score.Degraded)
	assert.Equal(t, "solid work", score.Feedback)
}

func TestGradeWriting_FallbackWhenOracleFails(t *testing.T) {
	svc := NewGradingService(&fakeOracle{failing: true})

	score := svc.GradeWriting(context.Background(), "", "")
	assert.True(t, score.Degraded)
	assert.Equal(t, 0, score.Total)
}

func TestGradeWriting_FallbackBounds(t *testing.T) {
	svc := NewGradingService(nil)

	long := ""
	for i := 0; i < 400; i++ {
		long += "word" + string(rune('a'+i%26)) + " "
	}
	score := svc.GradeWriting(context.Background(), "", long)

	assert.True(t, score.Degraded)
	assert.GreaterOrEqual(t, score.TaskAchievement, 0)
	assert.LessOrEqual(t, score.TaskAchievement, 5)
	assert.LessOrEqual(t, score.Accuracy, 3)
	assert.LessOrEqual(t, score.Total, 20)
}

func TestGradeWriting_OracleErrorClassification(t *testing.T) {
	assert.True(t, errors.Is(llm.ErrOraclePermanent, llm.ErrOraclePermanent))
	assert.True(t, llm.IsPermanent(llm.ErrOraclePermanent))
	assert.False(t, llm.IsPermanent(llm.ErrOracleUnavailable))
}
