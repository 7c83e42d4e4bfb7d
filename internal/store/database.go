package store

import (
	"fmt"
	"time"

	"assistify-backend/internal/db"
)

// DatabaseStore archives finished exchanges in PostgreSQL. It is write-mostly:
// nothing read from it is ever loaded back into a Session.
type DatabaseStore struct {
	db *db.DB
}

// NewDatabaseStore creates a new database store
func NewDatabaseStore(database *db.DB) *DatabaseStore {
	return &DatabaseStore{db: database}
}

// Exchange is one archived user turn and the assistant's reply.
type Exchange struct {
	SessionID string
	Intent    string
	UserText  string
	ReplyText string
	CreatedAt time.Time
}

// SaveExchange records one chat turn.
func (ds *DatabaseStore) SaveExchange(sessionID, intent, userText, replyText string) error {
	if sessionID == "" {
		return fmt.Errorf("session_id is required")
	}

	query := `
		INSERT INTO chat_log (session_id, intent, user_text, reply_text, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`
	if _, err := ds.db.Exec(query, sessionID, intent, userText, replyText); err != nil {
		return fmt.Errorf("failed to save exchange: %w", err)
	}
	return nil
}

// RecentExchanges returns up to limit exchanges for a session, newest first.
func (ds *DatabaseStore) RecentExchanges(sessionID string, limit int) ([]Exchange, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session_id is required")
	}
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT session_id, intent, user_text, reply_text, created_at
		FROM chat_log
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := ds.db.Query(query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query exchanges: %w", err)
	}
	defer rows.Close()

	var out []Exchange
	for rows.Next() {
		var e Exchange
		if err := rows.Scan(&e.SessionID, &e.Intent, &e.UserText, &e.ReplyText, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan exchange: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// DeleteSession removes the archived exchanges of a session.
func (ds *DatabaseStore) DeleteSession(sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session_id is required")
	}

	if _, err := ds.db.Exec(`DELETE FROM chat_log WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("failed to delete exchanges: %w", err)
	}
	return nil
}

// SaveSearch records which backend answered a query.
func (ds *DatabaseStore) SaveSearch(query, source string, resultCount int) error {
	var src any
	if source != "" {
		src = source
	}
	_, err := ds.db.Exec(
		`INSERT INTO search_log (query, source, result_count, created_at) VALUES ($1, $2, $3, NOW())`,
		query, src, resultCount,
	)
	if err != nil {
		return fmt.Errorf("failed to save search: %w", err)
	}
	return nil
}
