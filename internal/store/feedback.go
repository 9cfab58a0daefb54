package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MikeSquared-Agency/roadlog/internal/accuracy"
	"github.com/MikeSquared-Agency/roadlog/internal/registration"
)

// Feedback is a user's verdict on the classifier's registration type.
type Feedback struct {
	ID             uuid.UUID
	RegistrationID uuid.UUID // uuid.Nil when the draft was never stored
	Transcript     string
	PredictedType  registration.Type
	CorrectedType  registration.Type
	Confidence     float64
	CreatedAt      time.Time
}

// Correct reports whether the user kept the predicted type.
func (f Feedback) Correct() bool {
	return f.PredictedType == f.CorrectedType
}

// WriteFeedback stores the feedback and updates the predicted type's
// accuracy in one transaction. apply receives the current stats, locked for
// the duration of the transaction, and mutates them in place.
func (s *Store) WriteFeedback(ctx context.Context, fb Feedback, apply func(*accuracy.Stats)) (uuid.UUID, error) {
	defer observe(time.Now())

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var regID *uuid.UUID
	if fb.RegistrationID != uuid.Nil {
		regID = &fb.RegistrationID
	}

	id := uuid.New()
	_, err = tx.Exec(ctx, `
		INSERT INTO classification_feedback (id, registration_id, transcript, predicted_type, corrected_type, confidence)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		id, regID, fb.Transcript, string(fb.PredictedType), string(fb.CorrectedType), fb.Confidence,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert feedback: %w", err)
	}

	// Seed the row so the first feedbacks for a type also serialize on its lock.
	_, err = tx.Exec(ctx, `
		INSERT INTO classifier_accuracy (registration_type, score)
		VALUES ($1, $2)
		ON CONFLICT (registration_type) DO NOTHING`,
		string(fb.PredictedType), accuracy.InitialScore,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("seed accuracy: %w", err)
	}

	stats, err := getAccuracy(ctx, tx, fb.PredictedType, true)
	if err != nil {
		return uuid.Nil, err
	}
	apply(&stats)

	_, err = tx.Exec(ctx, `
		INSERT INTO classifier_accuracy (registration_type, score, correct_count, wrong_count, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (registration_type)
		DO UPDATE SET
			score = $2,
			correct_count = $3,
			wrong_count = $4,
			updated_at = $5`,
		string(stats.RegistrationType), stats.Score, stats.Correct, stats.Wrong, stats.UpdatedAt,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("upsert accuracy: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// CorrectedType returns the most recent type a user corrected the
// registration to, if any.
func (s *Store) CorrectedType(ctx context.Context, registrationID uuid.UUID) (registration.Type, bool, error) {
	defer observe(time.Now())

	var t string
	err := s.pool.QueryRow(ctx, `
		SELECT corrected_type FROM classification_feedback
		WHERE registration_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, registrationID).Scan(&t)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("corrected type: %w", err)
	}
	return registration.Type(t), true, nil
}

// GetAccuracy returns the stats for a type, or neutral stats when no
// feedback has been recorded for it.
func (s *Store) GetAccuracy(ctx context.Context, t registration.Type) (accuracy.Stats, error) {
	defer observe(time.Now())
	return getAccuracy(ctx, s.pool, t, false)
}

// ListAccuracy returns the stats of every type with feedback.
func (s *Store) ListAccuracy(ctx context.Context) ([]accuracy.Stats, error) {
	defer observe(time.Now())

	rows, err := s.pool.Query(ctx, `
		SELECT registration_type, score, correct_count, wrong_count, updated_at
		FROM classifier_accuracy
		ORDER BY registration_type`)
	if err != nil {
		return nil, fmt.Errorf("list accuracy: %w", err)
	}
	defer rows.Close()

	var out []accuracy.Stats
	for rows.Next() {
		st, err := scanAccuracy(rows)
		if err != nil {
			return nil, fmt.Errorf("scan accuracy: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getAccuracy(ctx context.Context, q querier, t registration.Type, forUpdate bool) (accuracy.Stats, error) {
	sql := `
		SELECT registration_type, score, correct_count, wrong_count, updated_at
		FROM classifier_accuracy WHERE registration_type = $1`
	if forUpdate {
		sql += ` FOR UPDATE`
	}
	st, err := scanAccuracy(q.QueryRow(ctx, sql, string(t)))
	if errors.Is(err, pgx.ErrNoRows) {
		return accuracy.NewStats(t), nil
	}
	if err != nil {
		return accuracy.Stats{}, fmt.Errorf("get accuracy: %w", err)
	}
	return st, nil
}

func scanAccuracy(row pgx.Row) (accuracy.Stats, error) {
	var (
		st  accuracy.Stats
		typ string
	)
	if err := row.Scan(&typ, &st.Score, &st.Correct, &st.Wrong, &st.UpdatedAt); err != nil {
		return accuracy.Stats{}, err
	}
	st.RegistrationType = registration.Type(typ)
	return st, nil
}
