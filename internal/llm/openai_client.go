package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// OpenAIClient grades against an OpenAI-compatible chat endpoint.
type OpenAIClient struct {
	client     *openai.Client
	model      string
	timeout    time.Duration
	maxRetries int
	limiter    *rate.Limiter
}

func NewOpenAIClient(apiKey, model string, timeout time.Duration, maxRetries, requestsPerMin int) *OpenAIClient {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIClient{
		client:     openai.NewClient(apiKey),
		model:      model,
		timeout:    timeout,
		maxRetries: maxRetries,
		limiter:    rate.NewLimiter(rate.Limit(float64(requestsPerMin)/60.0), 1),
	}
}

func (c *OpenAIClient) complete(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0,
	})
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", ErrOracleUnavailable)
	}
	return resp.Choices[0].Message.Content, nil
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%v: %w", err, classifyStatus(apiErr.HTTPStatusCode))
	}
	return fmt.Errorf("%v: %w", err, ErrOracleUnavailable)
}

func (c *OpenAIClient) GradeWriting(ctx context.Context, instructions, text string) (*WritingResult, error) {
	var result WritingResult
	err := withRetry(ctx, c.maxRetries, func() error {
		response, err := c.complete(ctx, buildWritingPrompt(instructions, text))
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

func (c *OpenAIClient) GradeSpeaking(ctx context.Context, tasks []SpeakingTask) (*SpeakingAssessment, error) {
	if len(tasks) == 0 {
		return nil, errors.New("no speaking tasks to grade")
	}

	var result SpeakingAssessment
	err := withRetry(ctx, c.maxRetries, func() error {
		response, err := c.complete(ctx, buildSpeakingPrompt(tasks))
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
