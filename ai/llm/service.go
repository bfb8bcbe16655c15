// Package llm implements the dialogue collaborator on any OpenAI-compatible
// chat API.
package llm

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"

	"github.com/arozco/mesero/dialogue"
)

// Config represents collaborator configuration.
type Config struct {
	Provider    string // openai, deepseek, ollama, or any OpenAI-compatible provider
	Model       string // gpt-4o, deepseek-chat, llama3.1
	APIKey      string
	BaseURL     string
	MaxTokens   int     // default: 512
	Temperature float32 // default: 0.7
	Timeout     int     // request timeout in seconds (default: 30)
}

type service struct {
	client      *openai.Client
	model       string
	provider    string
	maxTokens   int
	temperature float32
	timeout     int // request timeout in seconds
}

// NewService creates a collaborator backed by the configured provider.
func NewService(cfg *Config) (dialogue.Collaborator, error) {
	if cfg.APIKey == "" && cfg.Provider != "ollama" {
		return nil, errors.New("llm api key required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = newHTTPClient()
	client := openai.NewClientWithConfig(clientConfig)

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 512
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = 0.7
	}

	return &service{
		client:      client,
		model:       cfg.Model,
		provider:    cfg.Provider,
		maxTokens:   maxTokens,
		temperature: temperature,
		timeout:     timeout,
	}, nil
}

// newHTTPClient builds an HTTP client with sane connection timeouts. The
// overall request timeout is enforced per call via context.
func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
			IdleConnTimeout:       90 * time.Second,
			MaxIdleConnsPerHost:   4,
		},
	}
}

// Respond generates a free-form reply from the conversation history.
func (s *service) Respond(ctx context.Context, history []dialogue.Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.timeout)*time.Second)
	defer cancel()

	slog.Debug("llm respond request",
		"provider", s.provider,
		"model", s.model,
		"messages", len(history))

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
		Messages:    convertMessages(history),
	})
	if err != nil {
		return "", errors.Wrap(err, "llm chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty llm response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// ClassifyRelevance asks the model a strict yes/no question about whether the
// text concerns the restaurant. Anything that is not a clear "yes" counts as
// irrelevant.
func (s *service) ClassifyRelevance(ctx context.Context, text string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.timeout)*time.Second)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   4,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "You classify messages for a restaurant ordering assistant. " +
					"Reply with exactly one word: yes if the message is about food, the menu, " +
					"prices, delivery or an order; no otherwise.",
			},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return false, errors.Wrap(err, "llm relevance check")
	}
	if len(resp.Choices) == 0 {
		return false, errors.New("empty llm response")
	}

	answer := strings.ToLower(strings.TrimSpace(resp.Choices[0].Message.Content))
	return strings.HasPrefix(answer, "yes"), nil
}

// Moderate runs the text through the provider's moderation endpoint. Local
// providers without one (ollama) skip moderation rather than fail every turn.
func (s *service) Moderate(ctx context.Context, text string) (bool, error) {
	if s.provider == "ollama" {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.timeout)*time.Second)
	defer cancel()

	resp, err := s.client.Moderations(ctx, openai.ModerationRequest{
		Model: openai.ModerationTextStable,
		Input: text,
	})
	if err != nil {
		return false, errors.Wrap(err, "llm moderation")
	}
	for _, result := range resp.Results {
		if result.Flagged {
			return true, nil
		}
	}
	return false, nil
}

func convertMessages(messages []dialogue.Message) []openai.ChatCompletionMessage {
	converted := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		converted = append(converted, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	return converted
}
