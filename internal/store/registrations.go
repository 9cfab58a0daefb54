package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MikeSquared-Agency/roadlog/internal/interpreter"
	"github.com/MikeSquared-Agency/roadlog/internal/registration"
)

// Registration is a stored voice registration: the transcript as spoken
// plus its latest interpretation.
type Registration struct {
	ID             uuid.UUID
	MemoID         string
	UserID         string
	ContractID     string
	Transcript     string
	RecordedAt     time.Time
	Interpretation *interpreter.Interpretation
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

const registrationColumns = `id, COALESCE(memo_id, ''), user_id, COALESCE(contract_id, ''), transcript,
	registration_type, subcategory, confidence, keywords, extracted, field_confidence, summary,
	missing_required, recorded_at, created_at, updated_at`

// WriteRegistration inserts a registration and returns its ID. A memo that
// was already registered returns ErrDuplicateMemo along with the existing ID.
func (s *Store) WriteRegistration(ctx context.Context, r *Registration) (uuid.UUID, error) {
	defer observe(time.Now())

	in := r.Interpretation
	if in == nil {
		return uuid.Nil, fmt.Errorf("write registration: no interpretation")
	}

	var recordedAt *time.Time
	if !r.RecordedAt.IsZero() {
		recordedAt = &r.RecordedAt
	}

	id := uuid.New()
	err := s.pool.QueryRow(ctx, `
		INSERT INTO voice_registrations (id, memo_id, user_id, contract_id, transcript, registration_type,
			subcategory, confidence, keywords, extracted, field_confidence, summary, missing_required, recorded_at)
		VALUES ($1, NULLIF($2, ''), $3, NULLIF($4, ''), $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (memo_id) WHERE memo_id IS NOT NULL DO NOTHING
		RETURNING id`,
		id, r.MemoID, r.UserID, r.ContractID, r.Transcript, string(in.RegistrationType),
		in.Subcategory, in.Confidence, nonNil(in.Keywords), in.Extracted, in.FieldConfidence, in.Summary,
		nonNil(in.MissingRequired), recordedAt,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		var existing uuid.UUID
		if err := s.pool.QueryRow(ctx, `SELECT id FROM voice_registrations WHERE memo_id = $1`, r.MemoID).Scan(&existing); err != nil {
			return uuid.Nil, fmt.Errorf("lookup duplicate memo: %w", err)
		}
		return existing, ErrDuplicateMemo
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert registration: %w", err)
	}
	return id, nil
}

// GetRegistration fetches a registration by ID.
func (s *Store) GetRegistration(ctx context.Context, id uuid.UUID) (*Registration, error) {
	defer observe(time.Now())

	row := s.pool.QueryRow(ctx, `SELECT `+registrationColumns+` FROM voice_registrations WHERE id = $1`, id)
	r, err := scanRegistration(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get registration: %w", err)
	}
	return r, nil
}

// ListRegistrations pages through registrations created at or after since,
// ordered by creation time. Pass the last row's CreatedAt and ID as the
// cursor for the next page; a zero cursor starts from the beginning.
func (s *Store) ListRegistrations(ctx context.Context, since, afterCreated time.Time, afterID uuid.UUID, limit int) ([]*Registration, error) {
	defer observe(time.Now())

	rows, err := s.pool.Query(ctx, `
		SELECT `+registrationColumns+`
		FROM voice_registrations
		WHERE created_at >= $1 AND (created_at, id) > ($2, $3)
		ORDER BY created_at, id
		LIMIT $4`,
		since, afterCreated, afterID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var out []*Registration
	for rows.Next() {
		r, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpdateInterpretation replaces the stored interpretation of a registration.
func (s *Store) UpdateInterpretation(ctx context.Context, id uuid.UUID, in *interpreter.Interpretation) error {
	defer observe(time.Now())

	tag, err := s.pool.Exec(ctx, `
		UPDATE voice_registrations SET
			registration_type = $2, subcategory = $3, confidence = $4, keywords = $5,
			extracted = $6, field_confidence = $7, summary = $8, missing_required = $9,
			updated_at = now()
		WHERE id = $1`,
		id, string(in.RegistrationType), in.Subcategory, in.Confidence, nonNil(in.Keywords),
		in.Extracted, in.FieldConfidence, in.Summary, nonNil(in.MissingRequired),
	)
	if err != nil {
		return fmt.Errorf("update interpretation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountRegistrations returns the number of stored registrations per type.
func (s *Store) CountRegistrations(ctx context.Context) (map[registration.Type]int64, error) {
	defer observe(time.Now())

	rows, err := s.pool.Query(ctx, `SELECT registration_type, count(*) FROM voice_registrations GROUP BY registration_type`)
	if err != nil {
		return nil, fmt.Errorf("count registrations: %w", err)
	}
	defer rows.Close()

	out := make(map[registration.Type]int64)
	for rows.Next() {
		var t string
		var n int64
		if err := rows.Scan(&t, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		out[registration.Type(t)] = n
	}
	return out, rows.Err()
}

func scanRegistration(row pgx.Row) (*Registration, error) {
	var (
		r          Registration
		in         interpreter.Interpretation
		typ        string
		recordedAt *time.Time
	)
	err := row.Scan(&r.ID, &r.MemoID, &r.UserID, &r.ContractID, &r.Transcript,
		&typ, &in.Subcategory, &in.Confidence, &in.Keywords, &in.Extracted, &in.FieldConfidence, &in.Summary,
		&in.MissingRequired, &recordedAt, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	in.RegistrationType = registration.Type(typ)
	in.Schema = registration.SchemaFor(in.RegistrationType)
	if recordedAt != nil {
		r.RecordedAt = *recordedAt
	}
	r.Interpretation = &in
	return &r, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
