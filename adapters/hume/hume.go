package hume

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hmm29/conversational-emotion-ai/domain/entities"
	"github.com/hmm29/conversational-emotion-ai/domain/repositories"
)

const (
	defaultAPIBaseURL = "https://api.hume.ai/v0"
	defaultTimeout    = 10 * time.Second
)

// Config holds configuration for the Hume emotion scorer.
// Required fields:
// - APIKey: Your Hume API key
// - SecretKey: Your Hume secret key
// Optional fields with defaults:
// - APIBaseURL: The base URL for the Hume API (default: "https://api.hume.ai/v0")
// - Timeout: Per-request timeout (default: 10s)
type Config struct {
	APIKey     string
	SecretKey  string
	APIBaseURL string
	Timeout    time.Duration
}

// ValidateConfig validates the Config.
func ValidateConfig(config Config) error {
	if config.APIKey == "" {
		return fmt.Errorf("hume API key is required")
	}
	if config.SecretKey == "" {
		return fmt.Errorf("hume secret key is required")
	}
	if config.Timeout < 0 {
		return fmt.Errorf("timeout must be positive, got %s", config.Timeout)
	}
	return nil
}

// Scorer implements the EmotionScorer interface against the Hume
// language emotion model. Failures propagate to the caller; the analyzer
// layer decides how to degrade.
type Scorer struct {
	apiKey     string
	secretKey  string
	apiBaseURL string
	client     *http.Client
	logger     *zap.Logger
}

var _ repositories.EmotionScorer = (*Scorer)(nil)

// NewScorer creates a new Hume scorer.
func NewScorer(config Config, logger *zap.Logger) (*Scorer, error) {
	if err := ValidateConfig(config); err != nil {
		return nil, err
	}

	apiBaseURL := config.APIBaseURL
	if apiBaseURL == "" {
		apiBaseURL = defaultAPIBaseURL
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &Scorer{
		apiKey:     config.APIKey,
		secretKey:  config.SecretKey,
		apiBaseURL: apiBaseURL,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

type scoreRequest struct {
	Models struct {
		Language struct {
			Granularity string `json:"granularity"`
		} `json:"language"`
	} `json:"models"`
	Text []string `json:"text"`
}

type scoreResponse struct {
	Results struct {
		Predictions []struct {
			Models struct {
				Language struct {
					GroupedPredictions []struct {
						Predictions []struct {
							Emotions []labelScore `json:"emotions"`
						} `json:"predictions"`
					} `json:"grouped_predictions"`
				} `json:"language"`
			} `json:"models"`
		} `json:"predictions"`
	} `json:"results"`
}

type labelScore struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Score sends text to the Hume language model and returns the raw
// label/score pairs from the first sentence-level prediction.
func (s *Scorer) Score(ctx context.Context, text string) ([]entities.EmotionScore, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	var request scoreRequest
	request.Models.Language.Granularity = "sentence"
	request.Text = []string{text}

	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/batch/jobs", s.apiBaseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Hume-Api-Key", s.apiKey)
	httpReq.Header.Set("X-Hume-Secret-Key", s.secretKey)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("hume API returned error %d: %s", resp.StatusCode, string(errorBody))
	}

	var response scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	scores, err := extractScores(response)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Hume analysis completed",
		zap.Int("labels", len(scores)))

	return scores, nil
}

// extractScores navigates the nested prediction structure down to the
// per-emotion scores of the first grouped prediction.
func extractScores(response scoreResponse) ([]entities.EmotionScore, error) {
	predictions := response.Results.Predictions
	if len(predictions) == 0 {
		return nil, fmt.Errorf("response contains no predictions")
	}

	grouped := predictions[0].Models.Language.GroupedPredictions
	if len(grouped) == 0 || len(grouped[0].Predictions) == 0 {
		return nil, fmt.Errorf("response contains no language predictions")
	}

	raw := grouped[0].Predictions[0].Emotions
	if len(raw) == 0 {
		return nil, fmt.Errorf("response contains no emotion scores")
	}

	scores := make([]entities.EmotionScore, 0, len(raw))
	for _, ls := range raw {
		scores = append(scores, entities.EmotionScore{
			Name:  strings.ToLower(ls.Name),
			Score: ls.Score,
		})
	}
	return scores, nil
}
