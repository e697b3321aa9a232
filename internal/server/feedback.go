package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/schoolchat/internal/telemetry"
	"github.com/mohammad-safakhou/schoolchat/models"
)

// FeedbackStore attaches feedback to stored exchanges.
type FeedbackStore interface {
	AttachFeedback(ctx context.Context, sessionID, messageID, feedbackType, feedbackText string) error
}

type FeedbackHandler struct {
	Store   FeedbackStore
	Metrics *telemetry.Metrics
}

func (h *FeedbackHandler) Register(g *echo.Group) {
	g.POST("/feedback", h.feedback)
}

func (h *FeedbackHandler) feedback(c echo.Context) error {
	var req FeedbackRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.SessionID == "" || req.MessageID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "sessionId and messageId are required")
	}
	if req.FeedbackType != "up" && req.FeedbackType != "down" {
		return echo.NewHTTPError(http.StatusBadRequest, "feedbackType must be \"up\" or \"down\"")
	}

	err := h.Store.AttachFeedback(c.Request().Context(), req.SessionID, req.MessageID, req.FeedbackType, req.FeedbackText)
	if err != nil {
		if errors.Is(err, models.ErrExchangeNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "message not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.Metrics.RecordFeedback(req.FeedbackType)
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}
