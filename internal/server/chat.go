package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/schoolchat/models"
)

// ChatService runs one message through the assistant pipeline.
type ChatService interface {
	ProcessChatRequest(ctx context.Context, req models.ChatRequest) models.ChatResult
}

type ChatHandler struct {
	Svc ChatService
}

func (h *ChatHandler) Register(g *echo.Group) {
	g.POST("/chat", h.chat)
}

// chat accepts a user message and returns the assistant's reply together
// with session bookkeeping and cited sources. The pipeline itself never
// fails; only a malformed request produces an error status.
func (h *ChatHandler) chat(c echo.Context) error {
	var req models.ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}
	res := h.Svc.ProcessChatRequest(c.Request().Context(), req)
	return c.JSON(http.StatusOK, res)
}
