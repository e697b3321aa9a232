package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/schoolchat/internal/runtime"
	"github.com/mohammad-safakhou/schoolchat/models"
)

const defaultAdminListLimit = 100

// AdminStore is the read side of the conversation log used by the admin
// endpoints.
type AdminStore interface {
	ListBySession(ctx context.Context, sessionID string, limit int) ([]models.Exchange, error)
	ListFeedback(ctx context.Context, limit int) ([]models.Exchange, error)
}

type AdminHandler struct {
	Store AdminStore
}

func (h *AdminHandler) Register(g *echo.Group, secret []byte) {
	g.Use(runtime.EchoAuthMiddleware(secret))
	g.GET("/conversations", h.conversations)
	g.GET("/feedback", h.feedback)
}

func (h *AdminHandler) conversations(c echo.Context) error {
	sessionID := c.QueryParam("session")
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session query parameter is required")
	}
	out, err := h.Store.ListBySession(c.Request().Context(), sessionID, listLimit(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if out == nil {
		out = []models.Exchange{}
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminHandler) feedback(c echo.Context) error {
	out, err := h.Store.ListFeedback(c.Request().Context(), listLimit(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if out == nil {
		out = []models.Exchange{}
	}
	return c.JSON(http.StatusOK, out)
}

func listLimit(c echo.Context) int {
	if n, err := strconv.Atoi(c.QueryParam("limit")); err == nil && n > 0 {
		return n
	}
	return defaultAdminListLimit
}
