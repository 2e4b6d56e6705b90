package openaichat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/hmm29/conversational-emotion-ai/domain/repositories"
)

const (
	defaultModel   = "gpt-4o"
	defaultTimeout = 30 * time.Second
)

// Config holds configuration for the OpenAI completion adapter.
// Required fields:
// - APIKey: Your OpenAI API key
// Optional fields with defaults:
// - Model: The chat model to use (default: "gpt-4o")
// - BaseURL: Override for the API base URL
// - Timeout: Per-request timeout (default: 30s)
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// ValidateConfig validates the Config.
func ValidateConfig(config Config) error {
	if config.APIKey == "" {
		return fmt.Errorf("openai API key is required")
	}
	if config.Timeout < 0 {
		return fmt.Errorf("timeout must be positive, got %s", config.Timeout)
	}
	return nil
}

// Completer implements the ChatCompleter interface using the OpenAI
// chat completions API.
type Completer struct {
	client  openai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

var _ repositories.ChatCompleter = (*Completer)(nil)

// NewCompleter creates a new OpenAI completion adapter.
func NewCompleter(config Config, logger *zap.Logger) (*Completer, error) {
	if err := ValidateConfig(config); err != nil {
		return nil, err
	}

	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	model := config.Model
	if model == "" {
		model = defaultModel
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &Completer{
		client:  openai.NewClient(opts...),
		model:   model,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Complete issues one chat completion call and returns the generated text.
func (c *Completer) Complete(ctx context.Context, messages []repositories.ChatMessage, opts repositories.CompletionOptions) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("messages cannot be empty")
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)),
	}
	for _, msg := range messages {
		switch msg.Role {
		case repositories.SystemRole:
			params.Messages = append(params.Messages, openai.SystemMessage(msg.Content))
		case repositories.AssistantRole:
			params.Messages = append(params.Messages, openai.AssistantMessage(msg.Content))
		default:
			params.Messages = append(params.Messages, openai.UserMessage(msg.Content))
		}
	}

	if opts.Temperature != 0 {
		params.Temperature = openai.Float(opts.Temperature)
	}
	if opts.MaxTokens != 0 {
		params.MaxTokens = openai.Int(int64(opts.MaxTokens))
	}
	if opts.PresencePenalty != 0 {
		params.PresencePenalty = openai.Float(opts.PresencePenalty)
	}
	if opts.FrequencyPenalty != 0 {
		params.FrequencyPenalty = openai.Float(opts.FrequencyPenalty)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("chat completion returned empty content")
	}

	c.logger.Debug("completion generated",
		zap.String("model", c.model),
		zap.Int("messages", len(messages)))

	return text, nil
}
