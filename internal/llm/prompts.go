package llm

import (
	"fmt"
	"strings"
)

// buildWritingPrompt instructs the model to return the writing rubric as
// minimal JSON.
func buildWritingPrompt(instructions, text string) string {
	return fmt.Sprintf(
		"You are an examiner grading a language-exam writing task.\n"+
			"Task instructions: %s\n\nCandidate text:\n%s\n\n"+
			"Score the text. Output minimal JSON only, with integer keys "+
			"'task_achievement' (0-5), 'vocabulary' (0-5), 'accuracy' (0-5), "+
			"'organization' (0-5), a short 'feedback' string and a "+
			"'corrections' array of corrected sentences.",
		instructions, text,
	)
}

// buildSpeakingPrompt asks for coverage counts per sub-task plus holistic
// scores. The model never produces the final score; it supplies inputs to a
// fixed point table applied locally.
func buildSpeakingPrompt(tasks []SpeakingTask) string {
	var b strings.Builder
	b.WriteString("You are an examiner assessing a spoken language exam with ")
	fmt.Fprintf(&b, "%d sub-tasks.\n\n", len(tasks))

	for i, t := range tasks {
		fmt.Fprintf(&b, "Sub-task %d: %s\nRequired elements:\n", i+1, t.Title)
		for _, e := range t.RequiredElements {
			fmt.Fprintf(&b, "- %s\n", e)
		}
		b.WriteString("Candidate transcript:\n")
		for _, u := range t.Utterances {
			fmt.Fprintf(&b, "> %s\n", u)
		}
		b.WriteString("\n")
	}

	b.WriteString(
		"For every sub-task report how many required elements the candidate " +
			"addressed (0-4), how many of those they developed with detail " +
			"(0-4, never more than addressed), and a deduction of 0, -1 or -2 " +
			"for task abandonment or severe communication breakdown, with a " +
			"one-sentence justification.\n" +
			"Also score holistically: 'lexical' (0-4), 'grammar' (0-4), " +
			"'pronunciation' (0-2), 'fluency' (0-2), plus short 'strengths' " +
			"and 'improvements' arrays.\n" +
			"Output minimal JSON only: {\"per_task\":[{\"addressed\":0," +
			"\"developed\":0,\"deduction\":0,\"justification\":\"\"}]," +
			"\"lexical\":0,\"grammar\":0,\"pronunciation\":0,\"fluency\":0," +
			"\"strengths\":[],\"improvements\":[]}",
	)
	return b.String()
}
