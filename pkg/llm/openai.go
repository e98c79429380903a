package llm

import (
	"context"
	"errors"
	"strings"

	apperrors "MediaScribe/pkg/errors"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIRunner runs skills against any OpenAI-compatible chat endpoint.
type OpenAIRunner struct {
	client *openai.Client
	model  string
	lg     *zap.Logger
}

func NewOpenAIRunner(apiKey, baseURL, model string, lg *zap.Logger) *OpenAIRunner {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	if lg == nil {
		lg = zap.NewNop()
	}
	return &OpenAIRunner{client: openai.NewClientWithConfig(cfg), model: model, lg: lg}
}

func (r *OpenAIRunner) RunSkill(ctx context.Context, skillID string, in SkillInput) (string, error) {
	system, err := SystemPrompt(skillID, in)
	if err != nil {
		return "", err
	}

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: in.Transcript},
		},
		Temperature: 0.2,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			r.lg.Warn("skill request rejected", zap.String("skill", skillID), zap.Int("status", apiErr.HTTPStatusCode), zap.String("message", apiErr.Message))
		}
		return "", apperrors.Wrapf(err, "run skill %s", skillID)
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.Errorf("run skill %s: empty response", skillID)
	}
	r.lg.Debug("skill completed", zap.String("skill", skillID), zap.Int("total_tokens", resp.Usage.TotalTokens))
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
