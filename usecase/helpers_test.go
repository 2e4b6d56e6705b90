package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hmm29/conversational-emotion-ai/domain/entities"
	"github.com/hmm29/conversational-emotion-ai/domain/repositories"
	"github.com/hmm29/conversational-emotion-ai/internal/taxonomy"
)

func loadTaxonomy(t *testing.T) *taxonomy.Taxonomy {
	t.Helper()
	tax, err := taxonomy.Load("../config/emotions.yaml")
	require.NoError(t, err)
	return tax
}

// stubScorer returns canned scores or a canned error and counts calls.
type stubScorer struct {
	scores []entities.EmotionScore
	err    error
	calls  int
}

var _ repositories.EmotionScorer = (*stubScorer)(nil)

func (s *stubScorer) Score(_ context.Context, _ string) ([]entities.EmotionScore, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.scores, nil
}

// stubCompleter returns a canned reply or error and records what it was
// asked for.
type stubCompleter struct {
	reply    string
	err      error
	calls    int
	messages []repositories.ChatMessage
	opts     repositories.CompletionOptions
}

var _ repositories.ChatCompleter = (*stubCompleter)(nil)

func (c *stubCompleter) Complete(_ context.Context, messages []repositories.ChatMessage, opts repositories.CompletionOptions) (string, error) {
	c.calls++
	c.messages = messages
	c.opts = opts
	if c.err != nil {
		return "", c.err
	}
	return c.reply, nil
}

// stubArchive records archived conversations.
type stubArchive struct {
	archived []*entities.Conversation
	err      error
}

var _ repositories.ConversationArchive = (*stubArchive)(nil)

func (a *stubArchive) Archive(_ context.Context, conversation *entities.Conversation) error {
	if a.err != nil {
		return a.err
	}
	a.archived = append(a.archived, conversation)
	return nil
}

func remoteResult(t *testing.T, name string, score float64) entities.EmotionResult {
	t.Helper()
	return entities.NewEmotionResult(
		[]entities.EmotionScore{{Name: name, Score: score}},
		entities.EmotionSourceRemote,
		loadTaxonomy(t),
	)
}
