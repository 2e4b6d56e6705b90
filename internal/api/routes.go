package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/hmm29/conversational-emotion-ai/adapters/memstore"
	"github.com/hmm29/conversational-emotion-ai/internal/auth"
	"github.com/hmm29/conversational-emotion-ai/internal/websocket"
	"github.com/hmm29/conversational-emotion-ai/usecase"
)

// Server holds the dependencies of the HTTP surface.
type Server struct {
	conversations *usecase.ConversationService
	tokens        *auth.Manager
	hub           *websocket.Hub
	tokenExpiry   time.Duration
	logger        *zap.Logger
}

// NewServer creates the HTTP handler set.
func NewServer(
	conversations *usecase.ConversationService,
	tokens *auth.Manager,
	hub *websocket.Hub,
	tokenExpiry time.Duration,
	logger *zap.Logger,
) *Server {
	return &Server{
		conversations: conversations,
		tokens:        tokens,
		hub:           hub,
		tokenExpiry:   tokenExpiry,
		logger:        logger,
	}
}

// InitRoutes registers all API routes.
func (s *Server) InitRoutes(e *echo.Echo) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":         "ok",
			"service":        "conversational-emotion-ai",
			"analysis_cache": s.conversations.CacheStats(),
		})
	})

	v1 := e.Group("/api/v1")
	v1.POST("/sessions", s.createSession)
	v1.DELETE("/sessions", s.endSession)
	v1.POST("/chat", s.chat)
	v1.GET("/history", s.history)
	v1.GET("/profile", s.profile)

	e.GET("/ws", s.websocketWithAuth)
}

func (s *Server) createSession(c echo.Context) error {
	sessionID := uuid.NewString()
	if err := s.conversations.StartSession(sessionID); err != nil {
		s.logger.Error("failed to start session", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "session_creation_failed",
			Message: "Failed to create a new session",
		})
	}

	token, err := s.tokens.GenerateSessionToken(sessionID)
	if err != nil {
		s.logger.Error("failed to generate session token",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate session token",
		})
	}

	return c.JSON(http.StatusCreated, CreateSessionResponse{
		SessionID: sessionID,
		Token:     token,
		ExpiresAt: time.Now().Add(s.tokenExpiry),
	})
}

func (s *Server) endSession(c echo.Context) error {
	claims, errResp := s.authenticate(c)
	if errResp != nil {
		return errResp
	}

	if err := s.conversations.EndSession(c.Request().Context(), claims.SessionID); err != nil {
		s.logger.Error("failed to end session",
			zap.String("session_id", claims.SessionID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "session_end_failed",
			Message: "Failed to end the session",
		})
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) chat(c echo.Context) error {
	claims, errResp := s.authenticate(c)
	if errResp != nil {
		return errResp
	}

	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if strings.TrimSpace(req.Message) == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_message",
			Message: "Message text is required",
		})
	}

	result, err := s.conversations.ProcessTurn(c.Request().Context(), claims.SessionID, req.Message)
	if err != nil {
		return s.turnError(c, claims.SessionID, err)
	}

	return c.JSON(http.StatusOK, ChatResponse{
		Reply:           result.Reply,
		DominantEmotion: result.Emotion.Dominant.Name,
		Score:           result.Emotion.Dominant.Score,
		Intensity:       result.Emotion.Intensity,
		Strategy:        string(result.Strategy.Approach),
		Degraded:        result.Degraded,
	})
}

func (s *Server) history(c echo.Context) error {
	claims, errResp := s.authenticate(c)
	if errResp != nil {
		return errResp
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_limit",
				Message: "limit must be a non-negative integer",
			})
		}
		limit = parsed
	}

	turns, err := s.conversations.History(claims.SessionID, limit)
	if err != nil {
		return s.turnError(c, claims.SessionID, err)
	}

	return c.JSON(http.StatusOK, HistoryResponse{
		SessionID: claims.SessionID,
		Turns:     turns,
	})
}

func (s *Server) profile(c echo.Context) error {
	claims, errResp := s.authenticate(c)
	if errResp != nil {
		return errResp
	}

	profile, ok := s.conversations.Profile(claims.SessionID)
	if !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "session_not_found",
			Message: "Unknown or ended session",
		})
	}

	return c.JSON(http.StatusOK, ProfileResponse{
		Traits:      profile.Traits,
		Dominant:    profile.DominantTraits(3),
		UpdateCount: profile.UpdateCount,
	})
}

// websocketWithAuth authenticates the session token before upgrading.
func (s *Server) websocketWithAuth(c echo.Context) error {
	claims, errResp := s.authenticate(c)
	if errResp != nil {
		return errResp
	}

	s.logger.Info("websocket connection authenticated",
		zap.String("session_id", claims.SessionID))

	return websocket.HandleConnection(s.hub, c, claims.SessionID, s.logger)
}

// authenticate extracts and validates the bearer token. The error
// return is a fully written echo response.
func (s *Server) authenticate(c echo.Context) (*auth.SessionClaims, error) {
	var token string
	authHeader := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		token = strings.TrimPrefix(authHeader, "Bearer ")
	}
	if token == "" {
		return nil, c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "missing_token",
			Message: "Session token is required in Authorization header",
		})
	}

	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		s.logger.Warn("request rejected: invalid token", zap.Error(err))
		return nil, c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired session token",
		})
	}
	return claims, nil
}

func (s *Server) turnError(c echo.Context, sessionID string, err error) error {
	switch {
	case errors.Is(err, memstore.ErrSessionNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "session_not_found",
			Message: "Unknown or ended session",
		})
	case errors.Is(err, memstore.ErrSessionBusy):
		return c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "turn_in_flight",
			Message: "A previous message is still being processed",
		})
	default:
		s.logger.Error("turn processing failed",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to process the message",
		})
	}
}
