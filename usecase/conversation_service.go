package usecase

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hmm29/conversational-emotion-ai/domain/entities"
	"github.com/hmm29/conversational-emotion-ai/domain/repositories"
	"github.com/hmm29/conversational-emotion-ai/internal/cache"
	"github.com/hmm29/conversational-emotion-ai/internal/pipeline"
	"github.com/hmm29/conversational-emotion-ai/internal/taxonomy"
)

// TurnResult is the outcome of one fully processed user turn.
type TurnResult struct {
	Reply    string                   `json:"reply"`
	Emotion  entities.EmotionResult   `json:"emotion"`
	Strategy entities.Strategy        `json:"strategy"`
	Degraded bool                     `json:"degraded"`
	Steps    []pipeline.StepExecution `json:"steps,omitempty"`
}

// ConversationService is the per-turn orchestrator: it runs the
// analyze, select, generate, record sequence for each user message.
// Turns within a session are strictly sequential; the conversation
// store's lease enforces that.
type ConversationService struct {
	store     repositories.ConversationStore
	archive   repositories.ConversationArchive
	emotions  *EmotionService
	selector  *StrategySelector
	responses *ResponseService
	tax       *taxonomy.Taxonomy
	events    chan pipeline.Event
	logger    *zap.Logger

	mu       sync.Mutex
	profiles map[string]*entities.PersonalityProfile
}

// NewConversationService wires the orchestrator. archive may be nil to
// disable conversation archiving on session end.
func NewConversationService(
	store repositories.ConversationStore,
	archive repositories.ConversationArchive,
	emotions *EmotionService,
	selector *StrategySelector,
	responses *ResponseService,
	tax *taxonomy.Taxonomy,
	logger *zap.Logger,
) *ConversationService {
	return &ConversationService{
		store:     store,
		archive:   archive,
		emotions:  emotions,
		selector:  selector,
		responses: responses,
		tax:       tax,
		events:    make(chan pipeline.Event, 100),
		logger:    logger,
		profiles:  make(map[string]*entities.PersonalityProfile),
	}
}

// Events exposes phase transitions for observers such as log tailers.
func (s *ConversationService) Events() <-chan pipeline.Event {
	return s.events
}

// CacheStats reports the analysis cache counters for health reporting.
func (s *ConversationService) CacheStats() cache.Stats {
	return s.emotions.CacheStats()
}

// StartSession creates the conversation and profile for a new session.
func (s *ConversationService) StartSession(sessionID string) error {
	if _, err := s.store.Create(sessionID); err != nil {
		return err
	}

	s.mu.Lock()
	s.profiles[sessionID] = entities.NewPersonalityProfile()
	s.mu.Unlock()

	s.logger.Info("session started", zap.String("session_id", sessionID))
	return nil
}

// EndSession discards the session, archiving its conversation when an
// archive is configured.
func (s *ConversationService) EndSession(ctx context.Context, sessionID string) error {
	conversation, ok := s.store.Remove(sessionID)

	s.mu.Lock()
	delete(s.profiles, sessionID)
	s.mu.Unlock()

	if !ok {
		return nil
	}

	if s.archive != nil {
		if err := s.archive.Archive(ctx, conversation); err != nil {
			s.logger.Error("failed to archive conversation",
				zap.String("session_id", sessionID),
				zap.Error(err))
			return err
		}
	}

	s.logger.Info("session ended",
		zap.String("session_id", sessionID),
		zap.Int("turns", conversation.Len()))
	return nil
}

// History returns up to limit recent turns in chronological order; a
// non-positive limit returns the full history. The returned window is
// copied under the lease so later turns cannot mutate it.
func (s *ConversationService) History(sessionID string, limit int) ([]entities.Turn, error) {
	conversation, err := s.store.Checkout(sessionID)
	if err != nil {
		return nil, err
	}
	defer s.store.Release(sessionID)

	window := conversation.All()
	if limit > 0 {
		window = conversation.Recent(limit)
	}
	turns := make([]entities.Turn, len(window))
	copy(turns, window)
	return turns, nil
}

// Profile returns a snapshot of the session's personality profile. The
// copy is safe to read and serialize while later turns keep updating
// the live profile.
func (s *ConversationService) Profile(sessionID string) (*entities.PersonalityProfile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[sessionID]
	if !ok {
		return nil, false
	}
	return p.Snapshot(), true
}

// ProcessTurn runs one user message through the full pipeline. The user
// turn is always committed with its emotion result; when generation
// fails, no assistant turn is appended and the emotion-specific
// fallback line is returned with Degraded set. That policy is uniform
// for every generation failure.
func (s *ConversationService) ProcessTurn(ctx context.Context, sessionID, text string) (*TurnResult, error) {
	conversation, err := s.store.Checkout(sessionID)
	if err != nil {
		return nil, err
	}
	defer s.store.Release(sessionID)

	tracker := pipeline.NewTracker(sessionID, s.events, s.logger)
	now := time.Now()

	// Analyzing. Never fails; a keyword-sourced result means the remote
	// analysis degraded.
	_ = tracker.Enter(pipeline.PhaseAnalyzing)
	result := s.emotions.Analyze(ctx, text)
	if result.Source == entities.EmotionSourceKeyword {
		tracker.Complete(pipeline.StepStateDegraded, nil)
	} else {
		tracker.Complete(pipeline.StepStateCompleted, nil)
	}

	// Selecting. Pure and total.
	_ = tracker.Enter(pipeline.PhaseSelecting)
	strategy := s.selector.Select(result)
	s.observeTraits(sessionID, result)
	tracker.Complete(pipeline.StepStateCompleted, nil)

	// Generating. Failure degrades the turn but never aborts it.
	_ = tracker.Enter(pipeline.PhaseGenerating)
	reply, genErr := s.responses.Generate(ctx, conversation, strategy, result, text)
	degraded := genErr != nil
	if degraded {
		reply = s.responses.FallbackReply(result)
		tracker.Complete(pipeline.StepStateDegraded, genErr)
	} else {
		tracker.Complete(pipeline.StepStateCompleted, nil)
	}

	// Recording. The user turn is committed regardless of the
	// generation outcome to keep history consistent and inspectable.
	_ = tracker.Enter(pipeline.PhaseRecording)
	emotion := result
	if err := conversation.Append(entities.Turn{
		Role:      entities.TurnRoleUser,
		Text:      text,
		Timestamp: now,
		Emotion:   &emotion,
	}); err != nil {
		tracker.Complete(pipeline.StepStateFailed, err)
		return nil, err
	}
	if !degraded {
		if err := conversation.Append(entities.Turn{
			Role:      entities.TurnRoleAssistant,
			Text:      reply,
			Timestamp: time.Now(),
		}); err != nil {
			tracker.Complete(pipeline.StepStateFailed, err)
			return nil, err
		}
	}
	tracker.Complete(pipeline.StepStateCompleted, nil)

	s.logger.Info("turn processed",
		zap.String("session_id", sessionID),
		zap.String("dominant", result.Dominant.Name),
		zap.String("approach", string(strategy.Approach)),
		zap.Bool("degraded", degraded))

	return &TurnResult{
		Reply:    reply,
		Emotion:  result,
		Strategy: strategy,
		Degraded: degraded,
		Steps:    tracker.Steps(),
	}, nil
}

// observeTraits folds the turn's emotion scores into the session's
// personality profile using the taxonomy's trait hints.
func (s *ConversationService) observeTraits(sessionID string, result entities.EmotionResult) {
	if result.Neutral {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.profiles[sessionID]
	if !ok {
		return
	}
	for _, score := range result.Scores {
		if emotion, known := s.tax.Emotion(score.Name); known {
			profile.Observe(emotion.Trait, score.Score)
		}
	}
}
