package geminichat

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/hmm29/conversational-emotion-ai/domain/repositories"
)

const (
	defaultModel   = "gemini-2.0-flash"
	defaultTimeout = 30 * time.Second
	maxAttempts    = 3
)

// Config holds configuration for the Gemini completion adapter.
// Required fields:
// - APIKey: Your Google AI API key
// Optional fields with defaults:
// - Model: The model to use (default: "gemini-2.0-flash")
// - Timeout: Per-request timeout (default: 30s)
type Config struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// ValidateConfig validates the Config.
func ValidateConfig(config Config) error {
	if config.APIKey == "" {
		return fmt.Errorf("google AI API key is required")
	}
	if config.Timeout < 0 {
		return fmt.Errorf("timeout must be positive, got %s", config.Timeout)
	}
	return nil
}

// Completer implements the ChatCompleter interface using Google's
// Gemini API. It is the alternate completion provider, selected by the
// llm.provider configuration key.
type Completer struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

var _ repositories.ChatCompleter = (*Completer)(nil)

// NewCompleter creates a new Gemini completion adapter.
func NewCompleter(ctx context.Context, config Config, logger *zap.Logger) (*Completer, error) {
	if err := ValidateConfig(config); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
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
		client:  client,
		model:   model,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Complete issues one generation call with bounded retries and returns
// the generated text.
func (c *Completer) Complete(ctx context.Context, messages []repositories.ChatMessage, opts repositories.CompletionOptions) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("messages cannot be empty")
	}

	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		var role genai.Role
		switch msg.Role {
		case repositories.AssistantRole:
			role = genai.RoleModel
		default:
			// System messages are carried as user turns; Gemini has no
			// separate system role in the content list.
			role = genai.RoleUser
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}

	config := &genai.GenerateContentConfig{}
	if opts.Temperature != 0 {
		config.Temperature = genai.Ptr(float32(opts.Temperature))
	}
	if opts.MaxTokens != 0 {
		config.MaxOutputTokens = int32(opts.MaxTokens)
	}
	if opts.PresencePenalty != 0 {
		config.PresencePenalty = genai.Ptr(float32(opts.PresencePenalty))
	}
	if opts.FrequencyPenalty != 0 {
		config.FrequencyPenalty = genai.Ptr(float32(opts.FrequencyPenalty))
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var response *genai.GenerateContentResponse
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		response, err = c.client.Models.GenerateContent(ctx, c.model, contents, config)
		if err == nil {
			break
		}

		c.logger.Warn("failed to generate content, retrying",
			zap.Int("attempt", attempt+1),
			zap.Error(err))

		if attempt < maxAttempts-1 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt+1) * time.Second):
			}
		}
	}
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}

	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var text string
	for _, part := range response.Candidates[0].Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
	}
	if text == "" {
		return "", fmt.Errorf("gemini returned empty content")
	}

	return text, nil
}
