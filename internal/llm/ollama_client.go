package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// OllamaClient grades against a local Ollama instance.
type OllamaClient struct {
	ollamaURL  string
	model      string
	maxRetries int
	limiter    *rate.Limiter
	client     *http.Client
}

func NewOllamaClient(url, model string, timeout time.Duration, maxRetries, requestsPerMin int) *OllamaClient {
	if model == "" {
		model = "mistral"
	}
	return &OllamaClient{
		ollamaURL:  url,
		model:      model,
		maxRetries: maxRetries,
		limiter:    rate.NewLimiter(rate.Limit(float64(requestsPerMin)/60.0), 1),
		client: &http.Client{
			Timeout: timeout, // Set a timeout to avoid hanging requests
		},
	}
}

func (o *OllamaClient) callOllama(ctx context.Context, prompt string) (string, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return "", err
	}

	requestBody, _ := json.Marshal(map[string]interface{}{
		"model":  o.model,
		"prompt": prompt,
	})

	req, err := http.NewRequestWithContext(ctx, "POST", o.ollamaURL, bytes.NewBuffer(requestBody))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOraclePermanent, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", classifyStatus(resp.StatusCode)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}

	fullBody := string(bodyBytes)

	// If the response is streamed as multiple JSON objects (separated by
	// newlines), aggregate them before parsing.
	if strings.Contains(fullBody, "\n") {
		return AggregateStreamedResponse(fullBody), nil
	}

	var result map[string]interface{}
	if err := json.Unmarshal(bodyBytes, &result); err != nil {
		return "", fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	if responseText, ok := result["response"].(string); ok {
		return responseText, nil
	}

	return "", fmt.Errorf("%w: invalid response from Ollama", ErrOracleUnavailable)
}

type LLMResponseChunk struct {
	Model     string `json:"model"`
	CreatedAt string `json:"created_at"`
	Response  string `json:"response"`
	Done      bool   `json:"done"`
}

// AggregateStreamedResponse takes the full raw response body (a string with
// multiple JSON objects separated by newlines) and concatenates the
// "response" fields into one final string.
func AggregateStreamedResponse(body string) string {
	lines := strings.Split(body, "\n")
	var builder strings.Builder
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			var chunk LLMResponseChunk
			if err := json.Unmarshal([]byte(trimmed), &chunk); err != nil {
				log.Println("Error unmarshaling chunk:", err)
				continue
			}
			builder.WriteString(chunk.Response)
		}
	}
	return builder.String()
}

// GradeWriting scores a writing submission via the model.
func (o *OllamaClient) GradeWriting(ctx context.Context, instructions, text string) (*WritingResult, error) {
	var result WritingResult
	err := withRetry(ctx, o.maxRetries, func() error {
		response, err := o.callOllama(ctx, buildWritingPrompt(instructions, text))
		if err != nil {
			return err
		}
		if err := json.Unmarshal([]byte(extractJSON(response)), &result); err != nil {
			return fmt.Errorf("%w: failed to parse writing response: %v", ErrOracleUnavailable, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GradeSpeaking obtains rubric inputs for a speaking attempt via the model.
func (o *OllamaClient) GradeSpeaking(ctx context.Context, tasks []SpeakingTask) (*SpeakingAssessment, error) {
	if len(tasks) == 0 {
		return nil, errors.New("no speaking tasks to grade")
	}

	var result SpeakingAssessment
	err := withRetry(ctx, o.maxRetries, func() error {
		response, err := o.callOllama(ctx, buildSpeakingPrompt(tasks))
		if err != nil {
			return err
		}
		if err := json.Unmarshal([]byte(extractJSON(response)), &result); err != nil {
			return fmt.Errorf("%w: failed to parse speaking response: %v", ErrOracleUnavailable, err)
		}
		if len(result.PerTask) == 0 {
			return fmt.Errorf("%w: speaking response missing per-task scores", ErrOracleUnavailable)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
