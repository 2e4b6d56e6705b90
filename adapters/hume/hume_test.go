package hume

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:   "valid",
			config: Config{APIKey: "key", SecretKey: "secret"},
		},
		{
			name:    "missing api key",
			config:  Config{SecretKey: "secret"},
			wantErr: true,
		},
		{
			name:    "missing secret key",
			config:  Config{APIKey: "key"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfig(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

const sampleResponse = `{
	"results": {
		"predictions": [{
			"models": {
				"language": {
					"grouped_predictions": [{
						"predictions": [{
							"emotions": [
								{"name": "Joy", "score": 0.82},
								{"name": "Excitement", "score": 0.41}
							]
						}]
					}]
				}
			}
		}]
	}
}`

func newTestScorer(t *testing.T, handler http.HandlerFunc) *Scorer {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	scorer, err := NewScorer(Config{
		APIKey:     "test-key",
		SecretKey:  "test-secret",
		APIBaseURL: server.URL,
	}, zap.NewNop())
	require.NoError(t, err)
	return scorer
}

func TestScoreSuccess(t *testing.T) {
	scorer := newTestScorer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/batch/jobs", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Hume-Api-Key"))
		assert.Equal(t, "test-secret", r.Header.Get("X-Hume-Secret-Key"))

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req, "models")
		assert.Contains(t, req, "text")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sampleResponse))
	})

	scores, err := scorer.Score(context.Background(), "what a great day")
	require.NoError(t, err)
	require.Len(t, scores, 2)

	// Label names are lowercased for catalog lookup.
	assert.Equal(t, "joy", scores[0].Name)
	assert.Equal(t, 0.82, scores[0].Score)
	assert.Equal(t, "excitement", scores[1].Name)
}

func TestScoreEmptyText(t *testing.T) {
	scorer := newTestScorer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty text")
	})

	_, err := scorer.Score(context.Background(), "   ")
	assert.Error(t, err)
}

func TestScoreAPIError(t *testing.T) {
	scorer := newTestScorer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	_, err := scorer.Score(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestScoreMalformedResponse(t *testing.T) {
	scorer := newTestScorer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	})

	_, err := scorer.Score(context.Background(), "hello")
	assert.Error(t, err)
}

func TestScoreEmptyPredictions(t *testing.T) {
	scorer := newTestScorer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": {"predictions": []}}`))
	})

	_, err := scorer.Score(context.Background(), "hello")
	assert.Error(t, err)
}
