package catalog

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

// Store provides access to catalog, service, FAQ and settings records.
type Store struct {
	db  *db.DB
	now func() time.Time
}

// NewStore creates a Store backed by the given DB.
func NewStore(database *db.DB) *Store {
	return &Store{db: database, now: time.Now}
}

// ---- Catalog items ----

// UpsertItem inserts or replaces a catalog item. An empty ID is generated.
func (s *Store) UpsertItem(ctx context.Context, it Item) (string, error) {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	ts := db.FormatTime(s.now())
	_, err := s.db.Conn().ExecContext(ctx, `
		INSERT INTO catalog_items (id, title, description, category, price_min, price_max, published, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		    title       = excluded.title,
		    description = excluded.description,
		    category    = excluded.category,
		    price_min   = excluded.price_min,
		    price_max   = excluded.price_max,
		    published   = excluded.published,
		    updated_at  = excluded.updated_at`,
		it.ID, it.Title, it.Description, it.Category, it.PriceMin, it.PriceMax, boolInt(it.Published), ts, ts,
	)
	if err != nil {
		return "", fmt.Errorf("catalog: upsert item: %w", err)
	}
	return it.ID, nil
}

// ListPublishedItems returns published catalog items ordered by category and title.
func (s *Store) ListPublishedItems(ctx context.Context) ([]Item, error) {
	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT id, title, description, category, price_min, price_max, published, created_at, updated_at
		FROM catalog_items WHERE published = 1 ORDER BY category, title`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Item
	for rows.Next() {
		var it Item
		var published int
		var createdAt, updatedAt string
		if err := rows.Scan(&it.ID, &it.Title, &it.Description, &it.Category, &it.PriceMin, &it.PriceMax,
			&published, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		it.Published = published != 0
		it.CreatedAt = db.ParseTime(createdAt)
		it.UpdatedAt = db.ParseTime(updatedAt)
		out = append(out, it)
	}
	return out, rows.Err()
}

// ---- Services ----

// UpsertService inserts or replaces a service. An empty ID is generated.
func (s *Store) UpsertService(ctx context.Context, sv Service) (string, error) {
	if sv.ID == "" {
		sv.ID = uuid.NewString()
	}
	ts := db.FormatTime(s.now())
	_, err := s.db.Conn().ExecContext(ctx, `
		INSERT INTO services (id, title, description, published, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		    title       = excluded.title,
		    description = excluded.description,
		    published   = excluded.published,
		    updated_at  = excluded.updated_at`,
		sv.ID, sv.Title, sv.Description, boolInt(sv.Published), ts, ts,
	)
	if err != nil {
		return "", fmt.Errorf("catalog: upsert service: %w", err)
	}
	return sv.ID, nil
}

// ListPublishedServices returns published services ordered by title.
func (s *Store) ListPublishedServices(ctx context.Context) ([]Service, error) {
	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT id, title, description, published, created_at, updated_at
		FROM services WHERE published = 1 ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list services: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Service
	for rows.Next() {
		var sv Service
		var published int
		var createdAt, updatedAt string
		if err := rows.Scan(&sv.ID, &sv.Title, &sv.Description, &published, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		sv.Published = published != 0
		sv.CreatedAt = db.ParseTime(createdAt)
		sv.UpdatedAt = db.ParseTime(updatedAt)
		out = append(out, sv)
	}
	return out, rows.Err()
}

// ---- FAQs ----

// UpsertFAQ inserts or replaces an FAQ. An empty ID is generated.
func (s *Store) UpsertFAQ(ctx context.Context, f FAQ) (string, error) {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	ts := db.FormatTime(s.now())
	_, err := s.db.Conn().ExecContext(ctx, `
		INSERT INTO faqs (id, question, answer, sort_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		    question   = excluded.question,
		    answer     = excluded.answer,
		    sort_order = excluded.sort_order,
		    updated_at = excluded.updated_at`,
		f.ID, f.Question, f.Answer, f.SortOrder, ts, ts,
	)
	if err != nil {
		return "", fmt.Errorf("catalog: upsert faq: %w", err)
	}
	return f.ID, nil
}

// ListFAQs returns every FAQ in display order.
func (s *Store) ListFAQs(ctx context.Context) ([]FAQ, error) {
	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT id, question, answer, sort_order, created_at, updated_at
		FROM faqs ORDER BY sort_order, created_at`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list faqs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []FAQ
	for rows.Next() {
		var f FAQ
		var createdAt, updatedAt string
		if err := rows.Scan(&f.ID, &f.Question, &f.Answer, &f.SortOrder, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		f.CreatedAt = db.ParseTime(createdAt)
		f.UpdatedAt = db.ParseTime(updatedAt)
		out = append(out, f)
	}
	return out, rows.Err()
}

// ---- Site settings ----

// SetSiteSetting stores a site-wide key/value pair.
func (s *Store) SetSiteSetting(ctx context.Context, key, value string) error {
	_, err := s.db.Conn().ExecContext(ctx, `
		INSERT INTO site_settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, db.FormatTime(s.now()),
	)
	if err != nil {
		return fmt.Errorf("catalog: set site setting %q: %w", key, err)
	}
	return nil
}

// SiteSetting returns the value for key, or "" when unset.
func (s *Store) SiteSetting(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.Conn().QueryRowContext(ctx, `SELECT value FROM site_settings WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("catalog: site setting %q: %w", key, err)
	}
	return strings.TrimSpace(v), nil
}

// BusinessEmail returns the businessEmail site setting.
func (s *Store) BusinessEmail(ctx context.Context) (string, error) {
	return s.SiteSetting(ctx, SettingBusinessEmail)
}

// ---- Assistant settings ----

// AISettings returns the singleton assistant settings, or the defaults if
// none have been saved.
func (s *Store) AISettings(ctx context.Context) (AISettings, error) {
	var st AISettings
	var enabled int
	var tone, updatedAt string
	err := s.db.Conn().QueryRowContext(ctx, `
		SELECT enabled, system_prompt, tone, max_memory_chunks, updated_at
		FROM ai_settings WHERE key = ?`, AISettingsKey,
	).Scan(&enabled, &st.SystemPrompt, &tone, &st.MaxMemoryChunks, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return DefaultAISettings(), nil
	}
	if err != nil {
		return AISettings{}, fmt.Errorf("catalog: ai settings: %w", err)
	}
	st.Enabled = enabled != 0
	st.Tone = Tone(tone)
	st.UpdatedAt = db.ParseTime(updatedAt)
	return st, nil
}

// SaveAISettings writes the singleton assistant settings.
func (s *Store) SaveAISettings(ctx context.Context, st AISettings) error {
	if st.Tone != "" && !ValidTone(st.Tone) {
		return fmt.Errorf("catalog: invalid tone %q (valid: friendly, professional, luxurious, playful)", st.Tone)
	}
	if st.MaxMemoryChunks < MinMemoryChunks || st.MaxMemoryChunks > MaxMemoryChunks {
		return fmt.Errorf("catalog: max memory chunks must be between %d and %d, got %d",
			MinMemoryChunks, MaxMemoryChunks, st.MaxMemoryChunks)
	}
	if st.Tone == "" {
		st.Tone = ToneFriendly
	}
	_, err := s.db.Conn().ExecContext(ctx, `
		INSERT INTO ai_settings (key, enabled, system_prompt, tone, max_memory_chunks, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
		    enabled           = excluded.enabled,
		    system_prompt     = excluded.system_prompt,
		    tone              = excluded.tone,
		    max_memory_chunks = excluded.max_memory_chunks,
		    updated_at        = excluded.updated_at`,
		AISettingsKey, boolInt(st.Enabled), st.SystemPrompt, string(st.Tone), st.MaxMemoryChunks, db.FormatTime(s.now()),
	)
	if err != nil {
		return fmt.Errorf("catalog: save ai settings: %w", err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
