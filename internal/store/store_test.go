package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/mohammad-safakhou/schoolchat/models"
)

func setupStore(t *testing.T) (*Store, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	cleanup := func() { db.Close() }
	return &Store{DB: db}, mock, cleanup
}

func TestSaveExchange(t *testing.T) {
	st, mock, cleanup := setupStore(t)
	defer cleanup()

	ex := models.Exchange{
		SessionID:         "s1",
		MessageID:         "conv1",
		UserMessage:       "hi",
		AssistantResponse: "hello",
		QueryType:         models.QueryGreeting,
		ResponseTime:      0.4,
		CreatedAt:         time.Now().UTC(),
	}
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO conversations")).
		WithArgs(ex.SessionID, ex.MessageID, ex.UserMessage, ex.AssistantResponse, "greeting", ex.ResponseTime, ex.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := st.SaveExchange(context.Background(), ex); err != nil {
		t.Fatalf("SaveExchange: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestHistoryFlattensOldestFirst(t *testing.T) {
	st, mock, cleanup := setupStore(t)
	defer cleanup()

	t1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC)
	// Query returns newest first.
	rows := sqlmock.NewRows([]string{"user_message", "assistant_response", "created_at"}).
		AddRow("second question", "second answer", t2).
		AddRow("first question", "first answer", t1)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC")).
		WithArgs("s1", 6).
		WillReturnRows(rows)

	msgs, err := st.History(context.Background(), "s1", 6)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(msgs) != 4 {
		t.Fatalf("got %d messages, want 4", len(msgs))
	}
	if msgs[0].Content != "first question" || msgs[0].Role != "user" {
		t.Fatalf("history must start with the oldest user turn, got %+v", msgs[0])
	}
	if msgs[3].Content != "second answer" || msgs[3].Role != "assistant" {
		t.Fatalf("history must end with the newest assistant turn, got %+v", msgs[3])
	}
}

func TestNextMessageID(t *testing.T) {
	st, mock, cleanup := setupStore(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM conversations")).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	id, err := st.NextMessageID(context.Background(), "s1")
	if err != nil {
		t.Fatalf("NextMessageID: %v", err)
	}
	if id != "conv5" {
		t.Fatalf("id = %q, want conv5", id)
	}
}

func TestAttachFeedback(t *testing.T) {
	st, mock, cleanup := setupStore(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE conversations")).
		WithArgs("s1", "conv2", "up", "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := st.AttachFeedback(context.Background(), "s1", "conv2", "up", ""); err != nil {
		t.Fatalf("AttachFeedback: %v", err)
	}
}

func TestAttachFeedbackUnknownMessage(t *testing.T) {
	st, mock, cleanup := setupStore(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE conversations")).
		WithArgs("s1", "conv99", "down", "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := st.AttachFeedback(context.Background(), "s1", "conv99", "down", "")
	if !errors.Is(err, models.ErrExchangeNotFound) {
		t.Fatalf("err = %v, want ErrExchangeNotFound", err)
	}
}
