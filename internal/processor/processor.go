// Package processor runs the registration pipeline shared by the HTTP API
// and the NATS consumer: interpret, store, announce, and record feedback.
package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/roadlog/internal/accuracy"
	"github.com/MikeSquared-Agency/roadlog/internal/classifier"
	"github.com/MikeSquared-Agency/roadlog/internal/hermes"
	"github.com/MikeSquared-Agency/roadlog/internal/interpreter"
	"github.com/MikeSquared-Agency/roadlog/internal/metrics"
	"github.com/MikeSquared-Agency/roadlog/internal/registration"
	"github.com/MikeSquared-Agency/roadlog/internal/store"
)

// ErrInvalidFeedback is returned for feedback that names unknown types or
// carries no transcript.
var ErrInvalidFeedback = errors.New("invalid feedback")

// Store is the persistence the processor needs.
type Store interface {
	WriteRegistration(ctx context.Context, r *store.Registration) (uuid.UUID, error)
	GetRegistration(ctx context.Context, id uuid.UUID) (*store.Registration, error)
	WriteFeedback(ctx context.Context, fb store.Feedback, apply func(*accuracy.Stats)) (uuid.UUID, error)
}

// Publisher sends events to the message bus.
type Publisher interface {
	Publish(subject string, data any) error
}

// Processor orchestrates roadlog's registration pipeline.
type Processor struct {
	store     Store
	publisher Publisher
	interp    *interpreter.Interpreter
	validate  *validator.Validate
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a processor. publisher may be nil, in which case no events
// are emitted.
func New(s Store, pub Publisher, interp *interpreter.Interpreter, logger *slog.Logger) *Processor {
	return &Processor{
		store:     s,
		publisher: pub,
		interp:    interp,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger,
		now:       time.Now,
	}
}

// RegisterRequest is one transcript to interpret and store.
type RegisterRequest struct {
	MemoID           string
	UserID           string
	ContractID       string
	Transcript       string
	RecordedAt       time.Time
	RegistrationType registration.Type // empty lets the classifier choose
}

// RegisterResult is the stored registration. Duplicate is set when the memo
// had already been registered; Interpretation is then the stored one.
type RegisterResult struct {
	ID             uuid.UUID
	Interpretation *interpreter.Interpretation
	Duplicate      bool
}

// Register interprets the transcript, stores it and announces it.
func (p *Processor) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	in, err := p.interp.Interpret(req.Transcript, req.RegistrationType)
	if err != nil {
		return nil, err
	}

	id, err := p.store.WriteRegistration(ctx, &store.Registration{
		MemoID:         req.MemoID,
		UserID:         req.UserID,
		ContractID:     req.ContractID,
		Transcript:     req.Transcript,
		RecordedAt:     req.RecordedAt,
		Interpretation: in,
	})
	if errors.Is(err, store.ErrDuplicateMemo) {
		p.logger.Info("memo already registered", "memo_id", req.MemoID, "registration_id", id)
		existing, err := p.store.GetRegistration(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load duplicate registration: %w", err)
		}
		return &RegisterResult{ID: id, Interpretation: existing.Interpretation, Duplicate: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store registration: %w", err)
	}

	p.logger.Info("registration stored",
		"registration_id", id,
		"memo_id", req.MemoID,
		"registration_type", in.RegistrationType,
		"confidence", in.Confidence,
		"missing_required", in.MissingRequired,
	)

	p.publish(hermes.SubjectVoiceInterpreted, hermes.InterpretedEvent{
		MemoID:           req.MemoID,
		RegistrationID:   id.String(),
		UserID:           req.UserID,
		RegistrationType: string(in.RegistrationType),
		Subcategory:      in.Subcategory,
		Confidence:       in.Confidence,
		Uncertain:        in.Uncertain(),
		MissingRequired:  in.MissingRequired,
		Summary:          in.Summary,
	})

	return &RegisterResult{ID: id, Interpretation: in}, nil
}

// HandleTranscribed is the NATS handler for roadlog.voice.transcribed.
func (p *Processor) HandleTranscribed(subject string, data []byte) {
	ctx := context.Background()

	var evt hermes.TranscribedEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		p.logger.Error("failed to parse transcribed event", "error", err)
		metrics.EventsTotal.WithLabelValues(subject, "invalid").Inc()
		return
	}
	if err := p.validate.Struct(evt); err != nil {
		p.logger.Error("invalid transcribed event", "memo_id", evt.MemoID, "error", err)
		metrics.EventsTotal.WithLabelValues(subject, "invalid").Inc()
		return
	}

	var chosen registration.Type
	if evt.RegistrationType != "" {
		t, err := registration.Parse(evt.RegistrationType)
		if err != nil {
			p.logger.Warn("ignoring unknown registration type", "memo_id", evt.MemoID, "registration_type", evt.RegistrationType)
		} else {
			chosen = t
		}
	}

	p.logger.Info("processing transcript", "memo_id", evt.MemoID, "user_id", evt.UserID)

	res, err := p.Register(ctx, RegisterRequest{
		MemoID:           evt.MemoID,
		UserID:           evt.UserID,
		ContractID:       evt.ContractID,
		Transcript:       evt.Transcript,
		RecordedAt:       evt.RecordedAt,
		RegistrationType: chosen,
	})
	if err != nil {
		var invalid *interpreter.InvalidInputError
		status := "error"
		if errors.As(err, &invalid) {
			status = "invalid"
		}
		p.logger.Error("registration failed", "memo_id", evt.MemoID, "error", err)
		metrics.EventsTotal.WithLabelValues(subject, status).Inc()
		return
	}
	if res.Duplicate {
		metrics.EventsTotal.WithLabelValues(subject, "duplicate").Inc()
		return
	}
	metrics.EventsTotal.WithLabelValues(subject, "ok").Inc()
}

// FeedbackRequest is a user's verdict on a predicted registration type.
// When RegistrationID is set, missing transcript and predicted type are
// taken from the stored registration.
type FeedbackRequest struct {
	RegistrationID uuid.UUID
	Transcript     string
	PredictedType  registration.Type
	CorrectedType  registration.Type
}

// FeedbackResult reports the stored verdict and the updated accuracy of the
// predicted type.
type FeedbackResult struct {
	ID       uuid.UUID
	Correct  bool
	Accuracy accuracy.Stats
}

// RecordFeedback stores a classification verdict and updates accuracy.
// The classifier itself is not retrained.
func (p *Processor) RecordFeedback(ctx context.Context, req FeedbackRequest) (*FeedbackResult, error) {
	fb := store.Feedback{
		RegistrationID: req.RegistrationID,
		Transcript:     req.Transcript,
		PredictedType:  req.PredictedType,
		CorrectedType:  req.CorrectedType,
	}

	if req.RegistrationID != uuid.Nil {
		reg, err := p.store.GetRegistration(ctx, req.RegistrationID)
		if err != nil {
			return nil, fmt.Errorf("load registration: %w", err)
		}
		if fb.Transcript == "" {
			fb.Transcript = reg.Transcript
		}
		if fb.PredictedType == "" {
			fb.PredictedType = reg.Interpretation.RegistrationType
		}
		if fb.PredictedType == reg.Interpretation.RegistrationType {
			fb.Confidence = reg.Interpretation.Confidence
		}
	}

	if strings.TrimSpace(fb.Transcript) == "" {
		return nil, fmt.Errorf("%w: transcript is empty", ErrInvalidFeedback)
	}
	for _, t := range []registration.Type{fb.PredictedType, fb.CorrectedType} {
		if _, err := registration.Parse(string(t)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFeedback, err)
		}
	}
	if fb.Confidence == 0 {
		if c := classifier.Classify(fb.Transcript); c.RegistrationType == fb.PredictedType {
			fb.Confidence = c.Confidence
		}
	}

	now := p.now().UTC()
	var stats accuracy.Stats
	id, err := p.store.WriteFeedback(ctx, fb, func(st *accuracy.Stats) {
		st.Apply(fb.Confidence, fb.Correct(), now)
		stats = *st
	})
	if err != nil {
		return nil, fmt.Errorf("store feedback: %w", err)
	}

	metrics.FeedbackTotal.WithLabelValues(string(fb.PredictedType), fmt.Sprint(fb.Correct())).Inc()
	p.logger.Info("classification feedback recorded",
		"feedback_id", id,
		"predicted_type", fb.PredictedType,
		"corrected_type", fb.CorrectedType,
		"correct", fb.Correct(),
		"accuracy_score", stats.Score,
	)

	signal := hermes.FeedbackSignal{
		FeedbackID:    id.String(),
		PredictedType: string(fb.PredictedType),
		CorrectedType: string(fb.CorrectedType),
		Confidence:    fb.Confidence,
		Correct:       fb.Correct(),
		AccuracyScore: stats.Score,
	}
	if req.RegistrationID != uuid.Nil {
		signal.RegistrationID = req.RegistrationID.String()
	}
	p.publish(hermes.SubjectVoiceFeedback, signal)

	return &FeedbackResult{ID: id, Correct: fb.Correct(), Accuracy: stats}, nil
}

func (p *Processor) publish(subject string, data any) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(subject, data); err != nil {
		p.logger.Error("failed to publish event", "subject", subject, "error", err)
	}
}
