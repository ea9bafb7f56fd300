package llmservice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"regexp"
	"strings"

	"pdf-rag/internal/config"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

var ErrEmptyCompletion = errors.New("model returned an empty answer")

// New creates the chat model selected by cfg.Provider. API keys come from the
// environment variable named by cfg.APIKeyEnv.
func New(ctx context.Context, cfg *config.LLMConfig) (llms.Model, error) {
	log.Debug().Interface("llmConfig", map[string]string{
		"provider": cfg.Provider,
		"model":    cfg.Model,
		"base_url": cfg.BaseURL,
	}).Msg("Creating chat model")

	switch cfg.Provider {
	case "googleai":
		llm, err := googleai.New(ctx,
			googleai.WithAPIKey(config.APIKey(cfg.APIKeyEnv)),
			googleai.WithDefaultModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize googleai: %w", err)
		}
		return llm, nil
	case "openai":
		opts := []openai.Option{
			openai.WithToken(strings.TrimPrefix(config.APIKey(cfg.APIKeyEnv), "Bearer ")),
			openai.WithModel(cfg.Model),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize openai: %w", err)
		}
		return llm, nil
	case "ollama":
		llm, err := ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ollama: %w", err)
		}
		return llm, nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}

// Generate sends prompt as a single human message and returns the text of
// the first choice.
func Generate(ctx context.Context, llm llms.Model, cfg *config.LLMConfig, prompt string) (string, error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}
	resp, err := llm.GenerateContent(ctx, messages,
		llms.WithModel(cfg.Model),
		llms.WithTemperature(cfg.Temperature),
	)
	if err != nil {
		return "", fmt.Errorf("llm call failed: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Content, nil
}

type Kind string

const (
	KindAuth    Kind = "auth"
	KindQuota   Kind = "quota"
	KindTimeout Kind = "timeout"
	KindNetwork Kind = "network"
	KindUnknown Kind = "unknown"
)

// Classify sorts a model failure into a coarse kind. Providers wrap their
// HTTP errors differently, so this falls back to matching the message.
func Classify(err error) Kind {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindNetwork
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return KindNetwork
	}

	msg := strings.ToLower(err.Error())
	switch {
	case authPattern.MatchString(msg):
		return KindAuth
	case quotaPattern.MatchString(msg):
		return KindQuota
	case timeoutPattern.MatchString(msg):
		return KindTimeout
	case networkPattern.MatchString(msg):
		return KindNetwork
	}
	return KindUnknown
}

// Matched as whole words against the lowercased message.
var (
	authPattern    = regexp.MustCompile(`\b(401|403|api[ _]key|unauthenticated|unauthorized|permission denied)\b`)
	quotaPattern   = regexp.MustCompile(`\b(429|quotas?|rate[ -]limit(ed)?|resource[ _]exhausted)\b`)
	timeoutPattern = regexp.MustCompile(`\b(deadline exceeded|timeout|timed out)\b`)
	networkPattern = regexp.MustCompile(`\b(connection refused|no such host|connection reset|eof)\b`)
)

// Describe turns a pipeline failure into the one line shown to the user.
func Describe(err error) string {
	switch Classify(err) {
	case "":
		return ""
	case KindAuth:
		return "The language model rejected the credentials. Check the API key environment variable."
	case KindQuota:
		return "The language model quota is exhausted or rate limited. Try again later."
	case KindTimeout:
		return "The language model did not answer in time. Try again."
	case KindNetwork:
		return "Could not reach the language model service. Check the network connection."
	}
	if errors.Is(err, ErrEmptyCompletion) {
		return "The language model returned an empty answer. Try rephrasing the question."
	}
	return fmt.Sprintf("Something went wrong: %v", err)
}
