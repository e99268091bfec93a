package inquiry

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bloomcart/bloomcart/internal/db"
)

var (
	// ErrNotFound is returned when an inquiry id does not exist.
	ErrNotFound = errors.New("inquiry: not found")
	// ErrMissingContact is returned when name, phone or email is empty.
	ErrMissingContact = errors.New("inquiry: contact name, phone and email are required")
	// ErrInvalidStatus is returned for a status outside the lifecycle.
	ErrInvalidStatus = errors.New("inquiry: invalid status")
)

// Store provides read/write access to inquiries.
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

// MissingContactFields lists which required contact fields are empty.
func MissingContactFields(c Contact) []string {
	var missing []string
	if strings.TrimSpace(c.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(c.Phone) == "" {
		missing = append(missing, "phone")
	}
	if strings.TrimSpace(c.Email) == "" {
		missing = append(missing, "email")
	}
	return missing
}

// Create stores a new inquiry with status NEW and both sent flags false.
func (s *Store) Create(ctx context.Context, in NewInquiry) (Created, error) {
	if missing := MissingContactFields(in.Contact); len(missing) > 0 {
		return Created{}, fmt.Errorf("%w: missing %s", ErrMissingContact, strings.Join(missing, ", "))
	}

	now := s.now()
	ref, err := NewReferenceID(now)
	if err != nil {
		return Created{}, fmt.Errorf("inquiry: generate reference id: %w", err)
	}

	itemsJSON := "[]"
	if len(in.Details.SelectedCatalogItemIDs) > 0 {
		b, err := json.Marshal(in.Details.SelectedCatalogItemIDs)
		if err != nil {
			return Created{}, fmt.Errorf("inquiry: encode selected items: %w", err)
		}
		itemsJSON = string(b)
	}

	id := uuid.NewString()
	ts := db.FormatTime(now)
	d := in.Details
	_, err = s.db.Conn().ExecContext(ctx, `
		INSERT INTO inquiries (
			id, reference_id, user_id, contact_name, contact_phone, contact_email,
			occasion, preferred_colors, budget_min, budget_max, delivery_area,
			event_date_time, message_note, selected_item_ids,
			status, whatsapp_sent, email_sent, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0, ?, ?)`,
		id, ref, in.UserID,
		strings.TrimSpace(in.Contact.Name), strings.TrimSpace(in.Contact.Phone), strings.TrimSpace(in.Contact.Email),
		nullString(d.Occasion), nullString(d.PreferredColors), d.BudgetMin, d.BudgetMax,
		nullString(d.DeliveryArea), nullString(d.EventDateTime), nullString(d.MessageNote),
		itemsJSON, string(StatusNew), ts, ts,
	)
	if err != nil {
		return Created{}, fmt.Errorf("inquiry: create: %w", err)
	}
	return Created{InquiryID: id, ReferenceID: ref}, nil
}

// UpdateStatus applies a partial patch. Any status may follow any other;
// updated_at is always refreshed.
func (s *Store) UpdateStatus(ctx context.Context, id string, p Patch) error {
	if !ValidStatus(p.Status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, p.Status)
	}

	sets := []string{"status = ?", "updated_at = ?"}
	args := []any{string(p.Status), db.FormatTime(s.now())}
	if p.WhatsAppSent != nil {
		sets = append(sets, "whatsapp_sent = ?")
		args = append(args, boolInt(*p.WhatsAppSent))
	}
	if p.EmailSent != nil {
		sets = append(sets, "email_sent = ?")
		args = append(args, boolInt(*p.EmailSent))
	}
	args = append(args, id)

	res, err := s.db.Conn().ExecContext(ctx,
		`UPDATE inquiries SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("inquiry: update status: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return nil
}

// Get returns the inquiry with the given storage id.
func (s *Store) Get(ctx context.Context, id string) (*Inquiry, error) {
	row := s.db.Conn().QueryRowContext(ctx, selectInquiry+` WHERE id = ?`, id)
	inq, err := scanInquiry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("inquiry: get: %w", err)
	}
	return inq, nil
}

// GetByReferenceID returns the inquiry with an exact reference id match,
// or nil when none exists.
func (s *Store) GetByReferenceID(ctx context.Context, ref string) (*Inquiry, error) {
	row := s.db.Conn().QueryRowContext(ctx, selectInquiry+` WHERE reference_id = ?`, ref)
	inq, err := scanInquiry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("inquiry: get by reference: %w", err)
	}
	return inq, nil
}

// ListByUser returns a page of the user's inquiries, newest first.
func (s *Store) ListByUser(ctx context.Context, userID string, page Page) ([]Inquiry, error) {
	page = normalisePage(page)
	rows, err := s.db.Conn().QueryContext(ctx,
		selectInquiry+` WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`,
		userID, page.Limit, page.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("inquiry: list by user: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanInquiries(rows)
}

// ListAll returns a page of all inquiries, newest first.
func (s *Store) ListAll(ctx context.Context, page Page) ([]Inquiry, error) {
	page = normalisePage(page)
	rows, err := s.db.Conn().QueryContext(ctx,
		selectInquiry+` ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`,
		page.Limit, page.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("inquiry: list all: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanInquiries(rows)
}

// CountByStatus returns a count per status.
func (s *Store) CountByStatus(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.Conn().QueryContext(ctx, `SELECT status, COUNT(*) FROM inquiries GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[Status]int)
	for rows.Next() {
		var st string
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, err
		}
		counts[Status(st)] = n
	}
	return counts, rows.Err()
}

// ---- Helpers ----

const selectInquiry = `
	SELECT id, reference_id, user_id, contact_name, contact_phone, contact_email,
	       COALESCE(occasion,''), COALESCE(preferred_colors,''), budget_min, budget_max,
	       COALESCE(delivery_area,''), COALESCE(event_date_time,''), COALESCE(message_note,''),
	       selected_item_ids, status, whatsapp_sent, email_sent, created_at, updated_at
	FROM inquiries`

type scanner interface {
	Scan(dest ...any) error
}

func scanInquiry(row scanner) (*Inquiry, error) {
	var inq Inquiry
	var budgetMin, budgetMax sql.NullFloat64
	var items, status, createdAt, updatedAt string
	var waSent, emSent int
	err := row.Scan(
		&inq.ID, &inq.ReferenceID, &inq.UserID,
		&inq.Contact.Name, &inq.Contact.Phone, &inq.Contact.Email,
		&inq.Details.Occasion, &inq.Details.PreferredColors, &budgetMin, &budgetMax,
		&inq.Details.DeliveryArea, &inq.Details.EventDateTime, &inq.Details.MessageNote,
		&items, &status, &waSent, &emSent, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	if budgetMin.Valid {
		v := budgetMin.Float64
		inq.Details.BudgetMin = &v
	}
	if budgetMax.Valid {
		v := budgetMax.Float64
		inq.Details.BudgetMax = &v
	}
	if items != "" && items != "[]" {
		if err := json.Unmarshal([]byte(items), &inq.Details.SelectedCatalogItemIDs); err != nil {
			return nil, fmt.Errorf("inquiry %s: decode selected items: %w", inq.ID, err)
		}
	}
	inq.Status = Status(status)
	inq.WhatsAppSent = waSent != 0
	inq.EmailSent = emSent != 0
	inq.CreatedAt = db.ParseTime(createdAt)
	inq.UpdatedAt = db.ParseTime(updatedAt)
	return &inq, nil
}

func scanInquiries(rows *sql.Rows) ([]Inquiry, error) {
	out := []Inquiry{}
	for rows.Next() {
		inq, err := scanInquiry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inq)
	}
	return out, rows.Err()
}

func normalisePage(p Page) Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

func nullString(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Bool returns a pointer to b, for building a Patch.
func Bool(b bool) *bool { return &b }
