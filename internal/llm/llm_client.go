package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// GradingOracle is the external grading collaborator. Both methods may fail;
// callers must degrade to local heuristics instead of failing the
// user-visible operation.
type GradingOracle interface {
	// GradeWriting scores a free-text submission against its instructions.
	GradeWriting(ctx context.Context, instructions, text string) (*WritingResult, error)
	// GradeSpeaking supplies the rubric inputs for a spoken-exam attempt.
	// It returns coverage counts and holistic scores; the deterministic
	// point-table arithmetic is applied by the caller, never by the oracle.
	GradeSpeaking(ctx context.Context, tasks []SpeakingTask) (*SpeakingAssessment, error)
}

// SpeakingTask is one sub-task of a speaking attempt: what the candidate was
// required to cover and what they actually said.
type SpeakingTask struct {
	Title            string   `json:"title"`
	RequiredElements []string `json:"required_elements"`
	Utterances       []string `json:"utterances"`
}

// WritingResult is the oracle's writing rubric. All criteria are 0-5;
// callers clamp before use.
type WritingResult struct {
	TaskAchievement int      `json:"task_achievement"`
	Vocabulary      int      `json:"vocabulary"`
	Accuracy        int      `json:"accuracy"`
	Organization    int      `json:"organization"`
	Feedback        string   `json:"feedback"`
	Corrections     []string `json:"corrections"`
}

// SubTaskAssessment carries the oracle's coverage judgment for one sub-task.
type SubTaskAssessment struct {
	Addressed     int    `json:"addressed"`
	Developed     int    `json:"developed"`
	Deduction     int    `json:"deduction"`
	Justification string `json:"justification"`
}

// SpeakingAssessment is the oracle's full response for a speaking attempt.
type SpeakingAssessment struct {
	PerTask       []SubTaskAssessment `json:"per_task"`
	Lexical       int                 `json:"lexical"`
	Grammar       int                 `json:"grammar"`
	Pronunciation int                 `json:"pronunciation"`
	Fluency       int                 `json:"fluency"`
	Strengths     []string            `json:"strengths"`
	Improvements  []string            `json:"improvements"`
}

// Oracle failure classes. Permanent failures (bad credentials, malformed
// request) must not be retried; anything else is treated as transient.
var (
	ErrOraclePermanent   = errors.New("oracle permanent failure")
	ErrOracleUnavailable = errors.New("oracle unavailable")
)

// IsPermanent reports whether err should skip the retry loop.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrOraclePermanent)
}

// classifyStatus maps an HTTP status to a failure class.
func classifyStatus(code int) error {
	switch {
	case code == 401 || code == 403 || code == 400 || code == 404:
		return fmt.Errorf("%w: status %d", ErrOraclePermanent, code)
	default:
		return fmt.Errorf("%w: status %d", ErrOracleUnavailable, code)
	}
}

// withRetry runs fn with bounded exponential backoff. Permanent errors and
// context cancellation abort immediately.
func withRetry(ctx context.Context, attempts int, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	backoff := 500 * time.Millisecond
	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if err == nil || IsPermanent(err) {
			return err
		}
		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return err
}

// extractJSON pulls the first JSON object out of a model response. Models
// wrap JSON in prose or code fences often enough that this is required.
func extractJSON(response string) string {
	s := strings.TrimSpace(response)
	if i := strings.Index(s, "```"); i >= 0 {
		s = s[i+3:]
		s = strings.TrimPrefix(s, "json")
		if j := strings.Index(s, "```"); j >= 0 {
			s = s[:j]
		}
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
