package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/codecite/codecite/domain/structure"
)

// Config holds settings for the model-backed advisor.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OpenAIAdvisor asks a chat model whether a diff warrants a documentation
// update.
type OpenAIAdvisor struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// NewOpenAIAdvisor creates an advisor from configuration.
func NewOpenAIAdvisor(cfg Config, logger *slog.Logger) *OpenAIAdvisor {
	if logger == nil {
		logger = slog.Default()
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIAdvisor{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
		logger: logger,
	}
}

const systemPrompt = `You review code change summaries and decide whether
project documentation likely needs an update. Respond with a JSON object:
{"should_update": bool, "confidence": number 0-100, "summary": string}.`

// Assess calls the model. Errors are returned for the caller to substitute
// the deterministic Fallback; they must not fail the surrounding sync.
func (a *OpenAIAdvisor) Assess(ctx context.Context, repository string, diff structure.Diff) (Assessment, error) {
	if diff.Empty() {
		return Fallback(diff), nil
	}

	prompt := fmt.Sprintf("Repository: %s\nChanges:\n%s", repository, describeDiff(diff))
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0,
	})
	if err != nil {
		return Assessment{}, fmt.Errorf("advisor: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Assessment{}, fmt.Errorf("advisor: empty completion response")
	}

	var assessment Assessment
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &assessment); err != nil {
		return Assessment{}, fmt.Errorf("advisor: decode assessment: %w", err)
	}
	if assessment.Confidence < 0 || assessment.Confidence > 100 {
		return Assessment{}, fmt.Errorf("advisor: confidence %f out of range", assessment.Confidence)
	}
	return assessment, nil
}
