package enhancer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/dreamforge-ai/dreamforge/internal/config"
)

func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func newTestEnhancer(baseURL string) *Enhancer {
	return NewEnhancer(&config.OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: baseURL + "/v1",
		Model:   "test-model",
	}, zap.NewNop())
}

func TestEnhancePromptUsesCompletion(t *testing.T) {
	srv := chatServer(t, "  a majestic dragon, volumetric lighting  ")
	defer srv.Close()

	e := newTestEnhancer(srv.URL)
	assert.Equal(t, "a majestic dragon, volumetric lighting",
		e.EnhancePrompt(context.Background(), "a dragon"))
}

func TestEnhancePromptFallsBackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	e := newTestEnhancer(srv.URL)
	assert.Equal(t, "a dragon", e.EnhancePrompt(context.Background(), "a dragon"))
}

func TestEnhancePromptFallsBackOnEmptyCompletion(t *testing.T) {
	srv := chatServer(t, "   ")
	defer srv.Close()

	e := newTestEnhancer(srv.URL)
	assert.Equal(t, "a dragon", e.EnhancePrompt(context.Background(), "a dragon"))
}

func TestEnhanceEditPromptFallsBackToEditRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	e := newTestEnhancer(srv.URL)
	assert.Equal(t, "make it blue",
		e.EnhanceEditPrompt(context.Background(), "a majestic dragon", "make it blue"))
}
