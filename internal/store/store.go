package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/mohammad-safakhou/schoolchat/models"
)

// Store is the durable conversation log: every exchange and any feedback
// attached to it afterwards.
type Store struct {
	DB *sql.DB
}

// NewWithDSN opens a postgres connection and verifies it.
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Store{DB: db}, nil
}

// SaveExchange persists one user/assistant turn.
func (s *Store) SaveExchange(ctx context.Context, ex models.Exchange) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO conversations (session_id, message_id, user_message, assistant_response, query_type, response_time_seconds, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ex.SessionID, ex.MessageID, ex.UserMessage, ex.AssistantResponse, string(ex.QueryType), ex.ResponseTime, ex.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving exchange: %w", err)
	}
	return nil
}

// History returns the last limit exchanges of a session flattened into
// chronological user/assistant messages.
func (s *Store) History(ctx context.Context, sessionID string, limit int) ([]models.Message, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT user_message, assistant_response, created_at
		FROM conversations
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	defer rows.Close()

	var exchanges []struct {
		user      string
		assistant string
		at        time.Time
	}
	for rows.Next() {
		var e struct {
			user      string
			assistant string
			at        time.Time
		}
		if err := rows.Scan(&e.user, &e.assistant, &e.at); err != nil {
			return nil, err
		}
		exchanges = append(exchanges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Rows came back newest first; flatten oldest first.
	msgs := make([]models.Message, 0, 2*len(exchanges))
	for i := len(exchanges) - 1; i >= 0; i-- {
		e := exchanges[i]
		msgs = append(msgs,
			models.Message{Role: "user", Content: e.user, Timestamp: e.at},
			models.Message{Role: "assistant", Content: e.assistant, Timestamp: e.at},
		)
	}
	return msgs, nil
}

// NextMessageID allocates the next sequential message id for a session.
func (s *Store) NextMessageID(ctx context.Context, sessionID string) (string, error) {
	var count int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conversations WHERE session_id = $1`, sessionID,
	).Scan(&count)
	if err != nil {
		return "", fmt.Errorf("counting session messages: %w", err)
	}
	return fmt.Sprintf("conv%d", count+1), nil
}

// AttachFeedback annotates a stored exchange with up/down feedback.
func (s *Store) AttachFeedback(ctx context.Context, sessionID, messageID, feedbackType, feedbackText string) error {
	res, err := s.DB.ExecContext(ctx, `
		UPDATE conversations
		SET feedback_type = $3, feedback_text = $4, feedback_at = $5
		WHERE session_id = $1 AND message_id = $2`,
		sessionID, messageID, feedbackType, feedbackText, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("attaching feedback: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrExchangeNotFound
	}
	return nil
}

// ListBySession returns the stored exchanges of one session, oldest first.
func (s *Store) ListBySession(ctx context.Context, sessionID string, limit int) ([]models.Exchange, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT session_id, message_id, user_message, assistant_response, query_type, response_time_seconds, created_at, feedback_type, feedback_text, feedback_at
		FROM conversations
		WHERE session_id = $1
		ORDER BY created_at ASC
		LIMIT $2`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing session: %w", err)
	}
	defer rows.Close()
	return scanExchanges(rows)
}

// ListFeedback returns exchanges that received feedback, newest first.
func (s *Store) ListFeedback(ctx context.Context, limit int) ([]models.Exchange, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT session_id, message_id, user_message, assistant_response, query_type, response_time_seconds, created_at, feedback_type, feedback_text, feedback_at
		FROM conversations
		WHERE feedback_type IS NOT NULL
		ORDER BY feedback_at DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing feedback: %w", err)
	}
	defer rows.Close()
	return scanExchanges(rows)
}

func scanExchanges(rows *sql.Rows) ([]models.Exchange, error) {
	var out []models.Exchange
	for rows.Next() {
		var (
			ex    models.Exchange
			qt    string
			ftype sql.NullString
			ftext sql.NullString
			fat   sql.NullTime
		)
		if err := rows.Scan(&ex.SessionID, &ex.MessageID, &ex.UserMessage, &ex.AssistantResponse, &qt, &ex.ResponseTime, &ex.CreatedAt, &ftype, &ftext, &fat); err != nil {
			return nil, err
		}
		ex.QueryType = models.QueryType(qt)
		ex.FeedbackType = ftype.String
		ex.FeedbackText = ftext.String
		if fat.Valid {
			t := fat.Time
			ex.FeedbackAt = &t
		}
		out = append(out, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
