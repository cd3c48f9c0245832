package service

import (
	"context"
	"math"
	"strings"
	"unicode"

	"examly-backend/internal/llm"
	"examly-backend/utilities"
)

// SubTaskScore is the communication score of one speaking sub-task after the
// two-table mapping.
type SubTaskScore struct {
	Title         string `json:"title"`
	Addressed     int    `json:"addressed"`
	Developed     int    `json:"developed"`
	Deduction     int    `json:"deduction"`
	Score         int    `json:"score"` // 0-6
	Justification string `json:"justification,omitempty"`
}

// SpeakingScore is the complete speaking-exam result: three communication
// sub-scores (max 18) plus four holistic criteria (max 12), total max 30.
type SpeakingScore struct {
	Tasks         []SubTaskScore `json:"tasks"`
	Communication int            `json:"communication"`
	Lexical       int            `json:"lexical"`       // 0-4
	Grammar       int            `json:"grammar"`       // 0-4
	Pronunciation int            `json:"pronunciation"` // 0-2
	Fluency       int            `json:"fluency"`       // 0-2
	Total         int            `json:"total"`
	Strengths     []string       `json:"strengths,omitempty"`
	Improvements  []string       `json:"improvements,omitempty"`
	Degraded      bool           `json:"degraded"` // true when the oracle was unavailable
}

type SpeakingService interface {
	// GradeSpeaking scores a spoken-exam attempt. It never fails: when the
	// oracle is unreachable or unparsable, a deterministic token-overlap
	// heuristic supplies the rubric inputs instead.
	GradeSpeaking(ctx context.Context, tasks []llm.SpeakingTask) *SpeakingScore
}

type speakingService struct {
	oracle llm.GradingOracle
}

func NewSpeakingService(oracle llm.GradingOracle) SpeakingService {
	return &speakingService{oracle: oracle}
}

func (s *speakingService) GradeSpeaking(ctx context.Context, tasks []llm.SpeakingTask) *SpeakingScore {
	if s.oracle != nil {
		assessment, err := s.oracle.GradeSpeaking(ctx, tasks)
		if err == nil {
			return scoreFromAssessment(tasks, assessment, false)
		}
		utilities.Warn("speaking oracle failed, using local heuristic: %v", err)
	}
	return scoreFromAssessment(tasks, fallbackAssessment(tasks), true)
}

// scoreFromAssessment applies the fixed two-table arithmetic to the rubric
// inputs. The oracle supplies inputs to this formula; it never supplies the
// final score directly, so every field is clamped into its valid range first.
func scoreFromAssessment(tasks []llm.SpeakingTask, a *llm.SpeakingAssessment, degraded bool) *SpeakingScore {
	score := &SpeakingScore{
		Lexical:       clampInt(a.Lexical, 0, 4),
		Grammar:       clampInt(a.Grammar, 0, 4),
		Pronunciation: clampInt(a.Pronunciation, 0, 2),
		Fluency:       clampInt(a.Fluency, 0, 2),
		Strengths:     a.Strengths,
		Improvements:  a.Improvements,
		Degraded:      degraded,
	}

	for i, task := range tasks {
		var input llm.SubTaskAssessment
		if i < len(a.PerTask) {
			input = a.PerTask[i]
		}

		addressed := clampInt(input.Addressed, 0, 4)
		developed := clampInt(input.Developed, 0, addressed)
		deduction := clampInt(input.Deduction, -2, 0)

		sub := SubTaskScore{
			Title:         task.Title,
			Addressed:     addressed,
			Developed:     developed,
			Deduction:     deduction,
			Score:         clampInt(tableA(addressed, developed)+deduction, 0, 6),
			Justification: input.Justification,
		}
		score.Tasks = append(score.Tasks, sub)
		score.Communication += sub.Score
	}

	score.Total = score.Communication + score.Lexical + score.Grammar + score.Pronunciation + score.Fluency
	return score
}

// tableA maps element coverage to the base communication score per the
// official point convention. Inputs are already clamped, with
// developed <= addressed.
func tableA(addressed, developed int) int {
	switch addressed {
	case 4:
		if developed >= 4 {
			return 6
		}
		return 2 + developed
	case 3:
		if developed >= 3 {
			return 4
		}
		return 1 + developed
	case 2:
		if developed >= 2 {
			return 3
		}
		return 1 + developed
	case 1:
		if developed >= 1 {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// fallbackAssessment estimates rubric inputs offline. Coverage comes from
// token overlap between required elements and the transcript; holistic
// scores are bucketed from utterance length and count as an engagement proxy.
func fallbackAssessment(tasks []llm.SpeakingTask) *llm.SpeakingAssessment {
	a := &llm.SpeakingAssessment{}

	totalWords := 0
	totalUtterances := 0

	for _, task := range tasks {
		transcript := tokenSet(strings.Join(task.Utterances, " "))
		addressed := 0
		for _, element := range task.RequiredElements {
			if tokenOverlap(tokenSet(element), transcript) >= 0.2 {
				addressed++
			}
		}
		addressed = clampInt(addressed, 0, 4)
		developed := int(math.Round(0.75 * float64(addressed)))

		a.PerTask = append(a.PerTask, llm.SubTaskAssessment{
			Addressed:     addressed,
			Developed:     developed,
			Deduction:     0,
			Justification: "offline coverage estimate",
		})

		for _, u := range task.Utterances {
			totalWords += len(strings.Fields(u))
		}
		totalUtterances += len(task.Utterances)
	}

	avgWords := 0
	if totalUtterances > 0 {
		avgWords = totalWords / totalUtterances
	}

	a.Lexical = wordCountBucket(avgWords)
	a.Grammar = wordCountBucket(avgWords)
	a.Pronunciation = utteranceCountBucket(totalUtterances, 2, 6)
	a.Fluency = utteranceCountBucket(totalUtterances, 3, 8)
	return a
}

// wordCountBucket maps average utterance length to a 0-4 score;
// 16+ words per utterance is the top bucket.
func wordCountBucket(avgWords int) int {
	switch {
	case avgWords >= 16:
		return 4
	case avgWords >= 12:
		return 3
	case avgWords >= 8:
		return 2
	case avgWords >= 4:
		return 1
	default:
		return 0
	}
}

func utteranceCountBucket(count, mid, high int) int {
	switch {
	case count >= high:
		return 2
	case count >= mid:
		return 1
	default:
		return 0
	}
}

// tokenSet lower-cases, strips non-alphabetic characters and keeps tokens of
// length >= 3.
func tokenSet(s string) map[string]bool {
	tokens := make(map[string]bool)
	for _, field := range strings.Fields(strings.ToLower(s)) {
		var b strings.Builder
		for _, r := range field {
			if unicode.IsLetter(r) {
				b.WriteRune(r)
			}
		}
		if token := b.String(); len([]rune(token)) >= 3 {
			tokens[token] = true
		}
	}
	return tokens
}

// tokenOverlap is the fraction of element tokens present in the transcript.
func tokenOverlap(element, transcript map[string]bool) float64 {
	if len(element) == 0 {
		return 0
	}
	matched := 0
	for token := range element {
		if transcript[token] {
			matched++
		}
	}
	return float64(matched) / float64(len(element))
}
