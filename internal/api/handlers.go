package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lurebox/pkg/models"
)

// MessageRequest is the primary endpoint's body.
type MessageRequest struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

// MessageResponse is what the primary caller gets back. Diagnostics
// live on the session endpoint, not here.
type MessageResponse struct {
	Status string `json:"status"`
	Reply  string `json:"reply"`
}

// SessionResponse is the diagnostic view of one session.
type SessionResponse struct {
	SessionID string            `json:"session_id"`
	Phase     models.Phase      `json:"phase"`
	TurnCount int               `json:"turn_count"`
	PersonaID string            `json:"persona_id,omitempty"`
	Category  models.Category   `json:"category,omitempty"`
	Score     float64           `json:"score"`
	Artifacts []models.Artifact `json:"artifacts"`
}

func (s *Server) health(c echo.Context) error {
	resp := map[string]interface{}{"status": "healthy"}
	if s.sessions != nil {
		resp["active_sessions"] = s.sessions.Len()
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) postMessage(c echo.Context) error {
	var req MessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.SessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session_id is required")
	}

	result, err := s.engine.ProcessTurn(c.Request().Context(), req.SessionID, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidInput):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, models.ErrSessionClosed):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusOK, MessageResponse{Status: "success", Reply: result.Reply})
}

func (s *Server) getSession(c echo.Context) error {
	id := c.Param("id")
	state, ok := s.engine.Diagnostics(id)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return c.JSON(http.StatusOK, SessionResponse{
		SessionID: state.SessionID,
		Phase:     state.Phase,
		TurnCount: state.TurnCount,
		PersonaID: state.PersonaID,
		Category:  state.Category,
		Score:     state.Score,
		Artifacts: state.ArtifactList(),
	})
}

func (s *Server) endSession(c echo.Context) error {
	id := c.Param("id")
	state, ok := s.engine.EndSession(id)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "closed",
		"phase":  state.Phase,
		"turns":  state.TurnCount,
	})
}

func (s *Server) resetSession(c echo.Context) error {
	id := c.Param("id")
	s.engine.ResetSession(id)
	return c.JSON(http.StatusOK, map[string]string{"status": "reset"})
}
