package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/hmm29/conversational-emotion-ai/domain/entities"
	"github.com/hmm29/conversational-emotion-ai/domain/repositories"
	"github.com/hmm29/conversational-emotion-ai/internal/taxonomy"
)

// ErrGenerationFailed signals that the external completion call failed.
// The caller presents the user-visible fallback line instead of the
// generated reply; it never crashes the turn.
var ErrGenerationFailed = errors.New("response generation failed")

const (
	// defaultContextWindow is how many recent turns are sent as context,
	// roughly six user/assistant exchanges.
	defaultContextWindow = 12

	maxReplyTokens = 200
	presencePen    = 0.1
	frequencyPen   = 0.1
)

const basePersona = "You are an emotionally intelligent AI assistant designed to have natural, " +
	"empathetic conversations. You understand and respond appropriately to human emotions."

// temperatureFor tunes sampling per response approach: measured for
// support, more creative for positive amplification.
func temperatureFor(approach entities.Approach) float64 {
	switch approach {
	case entities.ApproachAmplifyPositive:
		return 0.8
	case entities.ApproachGentleEncouragement:
		return 0.6
	case entities.ApproachEmpatheticSupport:
		return 0.4
	default:
		return 0.7
	}
}

// ResponseService builds the strategy-conditioned prompt and issues the
// completion call.
type ResponseService struct {
	completer     repositories.ChatCompleter
	tax           *taxonomy.Taxonomy
	contextWindow int
	logger        *zap.Logger
}

// NewResponseService creates the response generator. contextWindow
// bounds how many recent turns are included; non-positive uses the
// default.
func NewResponseService(completer repositories.ChatCompleter, tax *taxonomy.Taxonomy, contextWindow int, logger *zap.Logger) *ResponseService {
	if contextWindow <= 0 {
		contextWindow = defaultContextWindow
	}
	return &ResponseService{
		completer:     completer,
		tax:           tax,
		contextWindow: contextWindow,
		logger:        logger,
	}
}

// Generate returns the reply for the current user message given the
// conversation so far and the selected strategy. External failure is
// reported as ErrGenerationFailed; the same prompt is safe to re-issue.
func (s *ResponseService) Generate(
	ctx context.Context,
	conversation *entities.Conversation,
	strategy entities.Strategy,
	result entities.EmotionResult,
	userText string,
) (string, error) {
	messages := s.buildMessages(conversation, strategy, result, userText)

	opts := repositories.CompletionOptions{
		Temperature:      temperatureFor(strategy.Approach),
		MaxTokens:        maxReplyTokens,
		PresencePenalty:  presencePen,
		FrequencyPenalty: frequencyPen,
	}

	reply, err := s.completer.Complete(ctx, messages, opts)
	if err != nil {
		s.logger.Error("completion call failed",
			zap.String("approach", string(strategy.Approach)),
			zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	return reply, nil
}

// FallbackReply is the user-visible line shown when generation fails,
// chosen for the dominant emotion.
func (s *ResponseService) FallbackReply(result entities.EmotionResult) string {
	return s.tax.FallbackFor(result.Dominant.Name)
}

func (s *ResponseService) buildMessages(
	conversation *entities.Conversation,
	strategy entities.Strategy,
	result entities.EmotionResult,
	userText string,
) []repositories.ChatMessage {
	messages := []repositories.ChatMessage{{
		Role:    repositories.SystemRole,
		Content: s.buildSystemPrompt(conversation, strategy, result),
	}}

	for _, turn := range conversation.Recent(s.contextWindow) {
		role := repositories.UserRole
		if turn.Role == entities.TurnRoleAssistant {
			role = repositories.AssistantRole
		}
		messages = append(messages, repositories.ChatMessage{Role: role, Content: turn.Text})
	}

	return append(messages, repositories.ChatMessage{Role: repositories.UserRole, Content: userText})
}

func (s *ResponseService) buildSystemPrompt(
	conversation *entities.Conversation,
	strategy entities.Strategy,
	result entities.EmotionResult,
) string {
	var b strings.Builder
	b.WriteString(basePersona)
	b.WriteString("\n\n")
	b.WriteString(strings.TrimSpace(s.tax.ApproachText(string(strategy.Approach))))

	if len(strategy.Guidance) > 0 {
		b.WriteString("\n\nGuidance for the user's current emotion:\n")
		for _, phrase := range strategy.Guidance {
			b.WriteString("- ")
			b.WriteString(phrase)
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "\nCurrent emotion analysis:\n- Dominant emotion: %s\n- Confidence: %.2f\n- Intensity: %s\n- Recent emotional trend: %s\n",
		result.Dominant.Name, result.Dominant.Score, result.Intensity,
		formatTrend(conversation.EmotionTrend()))

	return b.String()
}

// formatTrend renders the top three trend emotions for the prompt.
func formatTrend(trend map[string]float64) string {
	if len(trend) == 0 {
		return "No previous emotional context"
	}

	type entry struct {
		name  string
		score float64
	}
	entries := make([]entry, 0, len(trend))
	for name, score := range trend {
		entries = append(entries, entry{name, score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].score != entries[j].score {
			return entries[i].score > entries[j].score
		}
		return entries[i].name < entries[j].name
	})

	if len(entries) > 3 {
		entries = entries[:3]
	}
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = fmt.Sprintf("%s: %.2f", e.name, e.score)
	}
	return strings.Join(parts, ", ")
}
