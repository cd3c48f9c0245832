package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"examly-backend/internal/config"
)

// VerifyOracle checks at startup that the configured grading oracle is
// reachable and the credentials work. A failure here is logged, not fatal:
// grading degrades to local heuristics.
func VerifyOracle(cfg *config.APIConfig) error {
	switch cfg.THIRD_PARTY.OracleProvider {
	case "openai":
		return verifyOpenAI(cfg.THIRD_PARTY.OpenAIKey)
	case "ollama":
		return verifyOllama(cfg.THIRD_PARTY.OllamaURL)
	default:
		return fmt.Errorf("unknown oracle provider %q", cfg.THIRD_PARTY.OracleProvider)
	}
}

func verifyOpenAI(apiKey string) error {
	if apiKey == "" {
		return fmt.Errorf("missing OpenAI API key")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := openai.NewClient(apiKey)
	if _, err := client.ListModels(ctx); err != nil {
		return fmt.Errorf("failed to authenticate with OpenAI API: %v", err)
	}
	return nil
}

func verifyOllama(baseURL string) error {
	// The grading endpoint is .../api/generate; the tag listing lives under
	// the same prefix.
	url := strings.TrimSuffix(baseURL, "/api/generate") + "/api/tags"

	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach Ollama: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("oracle check failed: received status code %d", resp.StatusCode)
	}
	return nil
}
