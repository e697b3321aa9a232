package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/schoolchat/models"
)

type fakeChatService struct {
	result models.ChatResult
	last   models.ChatRequest
	calls  int
}

func (f *fakeChatService) ProcessChatRequest(ctx context.Context, req models.ChatRequest) models.ChatResult {
	f.calls++
	f.last = req
	return f.result
}

func postJSON(t *testing.T, target string, payload interface{}) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestChatHandler(t *testing.T) {
	svc := &fakeChatService{result: models.ChatResult{
		Success:   true,
		Response:  "hello",
		SessionID: "s1",
		MessageID: "conv1",
		QueryType: models.QueryGreeting,
		Sources:   []models.Source{},
	}}
	handler := &ChatHandler{Svc: svc}

	ctx, rec := postJSON(t, "/api/chat", models.ChatRequest{Message: "hi", SessionID: "s1"})
	if err := handler.chat(ctx); err != nil {
		t.Fatalf("chat: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp models.ChatResult
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !resp.Success || resp.MessageID != "conv1" {
		t.Fatalf("response = %+v", resp)
	}
	if svc.last.Message != "hi" || svc.last.SessionID != "s1" {
		t.Fatalf("service saw %+v", svc.last)
	}
}

func TestChatHandlerRejectsEmptyMessage(t *testing.T) {
	svc := &fakeChatService{}
	handler := &ChatHandler{Svc: svc}

	ctx, _ := postJSON(t, "/api/chat", models.ChatRequest{Message: "   "})
	err := handler.chat(ctx)
	if err == nil {
		t.Fatalf("expected error for empty message")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", httpErr.Code)
	}
	if svc.calls != 0 {
		t.Fatalf("pipeline must not run for an empty message")
	}
}
