package conversation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bloomcart/bloomcart/internal/db"
)

// ErrEmptyContent is returned when a message or memory has no content.
var ErrEmptyContent = errors.New("conversation: content must not be empty")

// Store is the append-only message log and memory log.
//
// Both reads return the most recent entries in ascending time order, so the
// result can be fed to a prompt as-is.
type Store struct {
	db  *db.DB
	now func() time.Time
}

// NewStore creates a Store backed by the given DB.
func NewStore(database *db.DB) *Store {
	return &Store{db: database, now: time.Now}
}

// WithClock overrides the time source. Used by tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// ---- Messages ----

// AppendMessage writes one message for userID.
func (s *Store) AppendMessage(ctx context.Context, userID string, role Role, content string) (Message, error) {
	if strings.TrimSpace(content) == "" {
		return Message{}, ErrEmptyContent
	}
	m := Message{
		ID:        uuid.NewString(),
		UserID:    userID,
		Role:      role,
		Content:   content,
		CreatedAt: s.now().UTC(),
	}
	_, err := s.db.Conn().ExecContext(ctx, `
		INSERT INTO conversation_messages (id, user_id, role, content, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.UserID, string(m.Role), m.Content, db.FormatTime(m.CreatedAt),
	)
	if err != nil {
		return Message{}, fmt.Errorf("conversation: append message: %w", err)
	}
	return m, nil
}

// GetHistory returns the most recent limit messages for userID, oldest first.
func (s *Store) GetHistory(ctx context.Context, userID string, limit int) ([]Message, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT id, user_id, role, content, created_at FROM (
			SELECT seq, id, user_id, role, content, created_at
			FROM conversation_messages
			WHERE user_id = ?
			ORDER BY created_at DESC, seq DESC
			LIMIT ?
		) ORDER BY created_at ASC, seq ASC`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("conversation: get history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []Message{}
	for rows.Next() {
		var m Message
		var role, createdAt string
		if err := rows.Scan(&m.ID, &m.UserID, &role, &m.Content, &createdAt); err != nil {
			return nil, err
		}
		m.Role = Role(role)
		m.CreatedAt = db.ParseTime(createdAt)
		out = append(out, m)
	}
	return out, rows.Err()
}

// ClearHistory deletes every message of userID.
func (s *Store) ClearHistory(ctx context.Context, userID string) (int, error) {
	res, err := s.db.Conn().ExecContext(ctx, `DELETE FROM conversation_messages WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("conversation: clear history: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// ---- Memory ----

// AppendMemory writes one memory entry for userID.
func (s *Store) AppendMemory(ctx context.Context, userID, content, category string) (MemoryEntry, error) {
	if strings.TrimSpace(content) == "" {
		return MemoryEntry{}, ErrEmptyContent
	}
	e := MemoryEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Content:   content,
		Category:  category,
		CreatedAt: s.now().UTC(),
	}
	_, err := s.db.Conn().ExecContext(ctx, `
		INSERT INTO memory_entries (id, user_id, content, category, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Content, e.Category, db.FormatTime(e.CreatedAt),
	)
	if err != nil {
		return MemoryEntry{}, fmt.Errorf("conversation: append memory: %w", err)
	}
	return e, nil
}

// GetMemory returns the most recent limit memory entries for userID, oldest first.
func (s *Store) GetMemory(ctx context.Context, userID string, limit int) ([]MemoryEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT id, user_id, content, category, created_at FROM (
			SELECT seq, id, user_id, content, category, created_at
			FROM memory_entries
			WHERE user_id = ?
			ORDER BY created_at DESC, seq DESC
			LIMIT ?
		) ORDER BY created_at ASC, seq ASC`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("conversation: get memory: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []MemoryEntry{}
	for rows.Next() {
		var e MemoryEntry
		var createdAt string
		if err := rows.Scan(&e.ID, &e.UserID, &e.Content, &e.Category, &createdAt); err != nil {
			return nil, err
		}
		e.CreatedAt = db.ParseTime(createdAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

// ClearMemory deletes every memory entry of userID.
func (s *Store) ClearMemory(ctx context.Context, userID string) (int, error) {
	res, err := s.db.Conn().ExecContext(ctx, `DELETE FROM memory_entries WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("conversation: clear memory: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// ClearUser deletes all messages and memory entries of userID.
func (s *Store) ClearUser(ctx context.Context, userID string) (Cleared, error) {
	msgs, err := s.ClearHistory(ctx, userID)
	if err != nil {
		return Cleared{}, err
	}
	mems, err := s.ClearMemory(ctx, userID)
	if err != nil {
		return Cleared{Messages: msgs}, err
	}
	return Cleared{Messages: msgs, Memories: mems}, nil
}

// CountMessages returns how many messages userID has.
func (s *Store) CountMessages(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.Conn().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conversation_messages WHERE user_id = ?`, userID,
	).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return n, err
}
