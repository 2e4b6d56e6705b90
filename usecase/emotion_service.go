package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hmm29/conversational-emotion-ai/domain/entities"
	"github.com/hmm29/conversational-emotion-ai/domain/repositories"
	"github.com/hmm29/conversational-emotion-ai/internal/cache"
	"github.com/hmm29/conversational-emotion-ai/internal/taxonomy"
)

const defaultAnalysisTimeout = 10 * time.Second

// EmotionService analyzes user text. It tries the remote scorer first
// and degrades to the local heuristic on any failure, so Analyze never
// fails: every input maps to a usable EmotionResult.
type EmotionService struct {
	remote   repositories.EmotionScorer
	local    repositories.EmotionScorer
	tax      *taxonomy.Taxonomy
	cache    *cache.AnalysisCache
	revision string
	timeout  time.Duration
	logger   *zap.Logger
}

// NewEmotionService creates the analyzer. remote may be nil, in which
// case every analysis uses the local heuristic. analysisCache may be
// nil to disable caching. revision identifies the active configuration
// so cached results do not survive a config change.
func NewEmotionService(
	remote repositories.EmotionScorer,
	local repositories.EmotionScorer,
	tax *taxonomy.Taxonomy,
	analysisCache *cache.AnalysisCache,
	revision string,
	timeout time.Duration,
	logger *zap.Logger,
) *EmotionService {
	if timeout <= 0 {
		timeout = defaultAnalysisTimeout
	}
	return &EmotionService{
		remote:   remote,
		local:    local,
		tax:      tax,
		cache:    analysisCache,
		revision: revision,
		timeout:  timeout,
		logger:   logger,
	}
}

// Analyze produces the ranked emotion result for text. Remote failures
// of any kind, including timeouts and unusable payloads, are logged and
// absorbed by the keyword fallback.
func (s *EmotionService) Analyze(ctx context.Context, text string) entities.EmotionResult {
	var key string
	if s.cache != nil {
		key = cache.Fingerprint(text, s.revision)
		if result, ok := s.cache.Get(key); ok {
			s.logger.Debug("analysis cache hit")
			return result
		}
	}

	result := s.analyze(ctx, text)

	if s.cache != nil {
		s.cache.Set(key, result)
	}
	return result
}

// CacheStats reports the analysis cache counters. It returns zeroes
// when caching is disabled.
func (s *EmotionService) CacheStats() cache.Stats {
	if s.cache == nil {
		return cache.Stats{}
	}
	return s.cache.Stats()
}

func (s *EmotionService) analyze(ctx context.Context, text string) entities.EmotionResult {
	if s.remote != nil {
		scoreCtx, cancel := context.WithTimeout(ctx, s.timeout)
		raw, err := s.remote.Score(scoreCtx, text)
		cancel()
		if err == nil {
			return entities.NewEmotionResult(raw, entities.EmotionSourceRemote, s.tax)
		}
		s.logger.Warn("remote emotion analysis degraded to keyword fallback",
			zap.Error(err))
	}

	raw, err := s.local.Score(ctx, text)
	if err != nil {
		// The keyword scorer cannot fail today; guard against future
		// implementations so the analyzer stays fallback-complete.
		s.logger.Warn("local emotion scoring failed, returning neutral result",
			zap.Error(err))
		return entities.NewEmotionResult(nil, entities.EmotionSourceKeyword, s.tax)
	}
	return entities.NewEmotionResult(raw, entities.EmotionSourceKeyword, s.tax)
}
