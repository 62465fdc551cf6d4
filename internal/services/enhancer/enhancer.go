package enhancer

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/dreamforge-ai/dreamforge/internal/config"
)

const enhanceSystemPrompt = `You are an expert AI art director. Rewrite the user's prompt into a rich,
detailed image-generation prompt covering lighting, colors, textures,
composition and artistic style. Respond only with the enhanced prompt, at
most 60 words.`

const editSystemPrompt = `You are an expert at maintaining image consistency while applying specific
changes. Keep every element of the current prompt that the requested change
does not mention, modify only what it asks for, and preserve the subject,
style and composition. Respond only with the new prompt.`

// Enhancer turns raw prompts into detailed generation prompts via an
// OpenAI-compatible chat endpoint. On any failure it falls back to the
// original prompt, so callers never need to handle an error.
type Enhancer struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

func NewEnhancer(cfg *config.OpenAIConfig, logger *zap.Logger) *Enhancer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	return &Enhancer{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
		logger: logger,
	}
}

func (e *Enhancer) EnhancePrompt(ctx context.Context, prompt string) string {
	return e.complete(ctx, enhanceSystemPrompt, prompt, prompt)
}

func (e *Enhancer) EnhanceEditPrompt(ctx context.Context, currentPrompt, editRequest string) string {
	user := fmt.Sprintf("CURRENT IMAGE PROMPT: %q\n\nREQUESTED CHANGE: %q", currentPrompt, editRequest)
	return e.complete(ctx, editSystemPrompt, user, editRequest)
}

func (e *Enhancer) complete(ctx context.Context, system, user, fallback string) string {
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		e.logger.Error("error enhancing prompt", zap.Error(err))
		return fallback
	}
	if len(resp.Choices) == 0 {
		e.logger.Error("error enhancing prompt: empty completion")
		return fallback
	}

	enhanced := strings.TrimSpace(resp.Choices[0].Message.Content)
	if enhanced == "" {
		return fallback
	}

	return enhanced
}
