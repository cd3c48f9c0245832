package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"examly-backend/internal/llm"
	"examly-backend/utilities"
)

// AnswerKey is the canonical answer for one closed question: a single string,
// a list of acceptable variants, or a numeric option index. The JSON shapes
// "answer": "will call", "answer": ["will call", "'ll call"] and "answer": 2
// all unmarshal into it.
type AnswerKey struct {
	Text        string
	Variants    []string
	OptionIndex *int
}

func (k *AnswerKey) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		k.Text = asString
		return nil
	}

	var asList []string
	if err := json.Unmarshal(data, &asList); err == nil {
		k.Variants = asList
		return nil
	}

	var asIndex int
	if err := json.Unmarshal(data, &asIndex); err == nil {
		k.OptionIndex = &asIndex
		return nil
	}

	return fmt.Errorf("answer key must be a string, string list or option index")
}

// TaskQuestion is one gradable question inside a closed task.
type TaskQuestion struct {
	Prompt string    `json:"prompt"`
	Key    AnswerKey `json:"answer"`
}

// GradableTask is a closed exercise. Open-ended writing tasks are not graded
// here; they go through GradeWriting.
type GradableTask struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Module    string         `json:"module"`
	Open      bool           `json:"open,omitempty"`
	Questions []TaskQuestion `json:"questions"`
}

// ClosedResult is the outcome of grading a batch of closed tasks.
// FailedTaskTitles is reporting only; it never penalizes other tasks.
type ClosedResult struct {
	Points           int      `json:"points"`
	TotalQuestions   int      `json:"total_questions"`
	FailedTaskTitles []string `json:"failed_task_titles"`
}

// WritingScore is the writing rubric delivered to the caller, always within
// bounds regardless of where it came from.
type WritingScore struct {
	TaskAchievement int      `json:"task_achievement"`
	Vocabulary      int      `json:"vocabulary"`
	Accuracy        int      `json:"accuracy"`
	Organization    int      `json:"organization"`
	Total           int      `json:"total"`
	Feedback        string   `json:"feedback"`
	Corrections     []string `json:"corrections,omitempty"`
	Degraded        bool     `json:"degraded"` // true when the oracle was unavailable
}

type GradingService interface {
	EvaluateClosedTasks(tasks []GradableTask, answers map[string][]string) ClosedResult
	GradeWriting(ctx context.Context, instructions, text string) *WritingScore
}

type gradingService struct {
	oracle llm.GradingOracle
}

func NewGradingService(oracle llm.GradingOracle) GradingService {
	return &gradingService{oracle: oracle}
}

// EvaluateClosedTasks awards one point per correct question. A missing or
// empty submission is incorrect, never an error. A task with at least one
// wrong answer lands on the failed list by title.
func (s *gradingService) EvaluateClosedTasks(tasks []GradableTask, answers map[string][]string) ClosedResult {
	result := ClosedResult{}

	for _, task := range tasks {
		if task.Open {
			continue // writing tasks are graded by the rubric/oracle path
		}

		submitted := answers[task.ID]
		hasMistakes := false

		for i, q := range task.Questions {
			result.TotalQuestions++

			var answer string
			if i < len(submitted) {
				answer = submitted[i]
			}

			if answerMatches(q.Key, answer) {
				result.Points++
			} else {
				hasMistakes = true
			}
		}

		if hasMistakes {
			result.FailedTaskTitles = append(result.FailedTaskTitles, task.Title)
		}
	}

	return result
}

// answerMatches applies the comparison rules: normalized case-insensitive
// string equality, any-of for variant lists, exact match for option indices.
func answerMatches(key AnswerKey, submitted string) bool {
	if strings.TrimSpace(submitted) == "" {
		return false
	}

	if key.OptionIndex != nil {
		idx, err := strconv.Atoi(strings.TrimSpace(submitted))
		return err == nil && idx == *key.OptionIndex
	}

	got := normalizeAnswer(submitted)
	if key.Text != "" {
		return got == normalizeAnswer(key.Text)
	}
	for _, variant := range key.Variants {
		if got == normalizeAnswer(variant) {
			return true
		}
	}
	return false
}

// normalizeAnswer lower-cases, collapses internal whitespace and strips
// terminal punctuation so "It's fine." equals "it's   fine".
func normalizeAnswer(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimRight(s, ".,!?;:")
	return strings.TrimSpace(s)
}

// GradeWriting delegates to the oracle and clamps its output; when the
// oracle is unreachable or unparsable it falls back to a deterministic
// length/variety heuristic. Grading always terminates with a result.
func (s *gradingService) GradeWriting(ctx context.Context, instructions, text string) *WritingScore {
	if s.oracle != nil {
		result, err := s.oracle.GradeWriting(ctx, instructions, text)
		if err == nil {
			return clampWriting(result)
		}
		utilities.Warn("writing oracle failed, using local heuristic: %v", err)
	}
	return fallbackWriting(text)
}

func clampWriting(r *llm.WritingResult) *WritingScore {
	score := &WritingScore{
		TaskAchievement: clampInt(r.TaskAchievement, 0, 5),
		Vocabulary:      clampInt(r.Vocabulary, 0, 5),
		Accuracy:        clampInt(r.Accuracy, 0, 5),
		Organization:    clampInt(r.Organization, 0, 5),
		Feedback:        r.Feedback,
		Corrections:     r.Corrections,
	}
	score.Total = score.TaskAchievement + score.Vocabulary + score.Accuracy + score.Organization
	return score
}

// fallbackWriting estimates the rubric from text statistics alone.
func fallbackWriting(text string) *WritingScore {
	words := strings.Fields(text)

	distinct := make(map[string]bool, len(words))
	for _, w := range words {
		distinct[normalizeAnswer(w)] = true
	}

	lengthScore := clampInt(len(words)/30, 0, 5)

	variety := 0
	if len(words) > 0 {
		variety = clampInt(5*len(distinct)/len(words), 0, 5)
	}

	paragraphs := 1 + strings.Count(strings.TrimSpace(text), "\n\n")
	organization := 2
	if paragraphs >= 2 {
		organization = 3
	}
	if len(words) == 0 {
		organization = 0
	}

	score := &WritingScore{
		TaskAchievement: lengthScore,
		Vocabulary:      variety,
		Accuracy:        minInt(lengthScore, 3),
		Organization:    organization,
		Feedback:        "Automatic offline estimate. Connect the grading service for detailed feedback.",
		Degraded:        true,
	}
	score.Total = score.TaskAchievement + score.Vocabulary + score.Accuracy + score.Organization
	return score
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
