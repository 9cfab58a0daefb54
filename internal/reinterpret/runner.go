// Package reinterpret re-runs the interpreter over stored transcripts, so
// keyword and schema changes reach registrations made before them.
package reinterpret

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/roadlog/internal/interpreter"
	"github.com/MikeSquared-Agency/roadlog/internal/registration"
	"github.com/MikeSquared-Agency/roadlog/internal/store"
)

// Store is the persistence the runner needs.
type Store interface {
	ListRegistrations(ctx context.Context, since, afterCreated time.Time, afterID uuid.UUID, limit int) ([]*store.Registration, error)
	CorrectedType(ctx context.Context, registrationID uuid.UUID) (registration.Type, bool, error)
	UpdateInterpretation(ctx context.Context, id uuid.UUID, in *interpreter.Interpretation) error
}

// Config holds the re-interpretation command configuration.
type Config struct {
	Since     time.Time
	BatchSize int
	DryRun    bool
	StatePath string
}

// Runner pages through registrations and rewrites the ones whose
// interpretation changed.
type Runner struct {
	cfg    Config
	store  Store
	interp *interpreter.Interpreter
	logger *slog.Logger
	out    io.Writer
}

func NewRunner(cfg Config, s Store, interp *interpreter.Interpreter, logger *slog.Logger, out io.Writer) *Runner {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.StatePath == "" {
		cfg.StatePath = DefaultStatePath
	}
	return &Runner{cfg: cfg, store: s, interp: interp, logger: logger, out: out}
}

// Run processes every registration after the saved cursor. State is saved
// after each page and when the context is cancelled.
func (r *Runner) Run(ctx context.Context) (*State, error) {
	state, err := LoadState(r.cfg.StatePath, r.cfg.Since)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	if state.Scanned > 0 {
		r.logger.Info("resuming re-interpretation", "scanned", state.Scanned, "cursor_id", state.CursorID)
	}

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("re-interpretation interrupted, saving state")
			_ = state.Save()
			return state, ctx.Err()
		default:
		}

		page, err := r.store.ListRegistrations(ctx, r.cfg.Since, state.CursorCreatedAt, state.CursorID, r.cfg.BatchSize)
		if err != nil {
			_ = state.Save()
			return state, fmt.Errorf("list registrations: %w", err)
		}

		for _, reg := range page {
			// A row is only passed once it was handled; an interrupted row
			// is retried on the next run.
			if err := r.process(ctx, state, reg); err != nil {
				r.logger.Info("re-interpretation interrupted, saving state", "registration_id", reg.ID)
				_ = state.Save()
				return state, err
			}
			state.Advance(reg.CreatedAt, reg.ID)
		}

		if err := state.Save(); err != nil {
			r.logger.Warn("failed to save state", "path", state.Path(), "error", err)
		}
		r.logger.Info("page complete", "rows", len(page), "scanned", state.Scanned, "changed", state.Changed)

		if len(page) < r.cfg.BatchSize {
			break
		}
	}

	r.logger.Info("re-interpretation complete",
		"scanned", state.Scanned,
		"changed", state.Changed,
		"corrected", state.Corrected,
		"errors", len(state.Errors),
		"dry_run", r.cfg.DryRun,
	)

	fmt.Fprintf(r.out, "\n=== Re-interpretation Summary ===\n")
	fmt.Fprintf(r.out, "Registrations scanned: %d\n", state.Scanned)
	fmt.Fprintf(r.out, "Interpretations changed: %d\n", state.Changed)
	fmt.Fprintf(r.out, "User-corrected types applied: %d\n", state.Corrected)
	fmt.Fprintf(r.out, "Errors: %d\n", len(state.Errors))
	if r.cfg.DryRun {
		fmt.Fprintf(r.out, "Mode: DRY RUN (no DB writes)\n")
	}
	fmt.Fprintf(r.out, "State file: %s\n", state.Path())

	return state, nil
}

// process re-interprets one registration. Per-row failures are recorded in
// state; only cancellation is returned.
func (r *Runner) process(ctx context.Context, state *State, reg *store.Registration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var chosen registration.Type
	corrected, ok, err := r.store.CorrectedType(ctx, reg.ID)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.logger.Error("corrected type lookup failed", "registration_id", reg.ID, "error", err)
		state.AddError(fmt.Sprintf("corrected type %s: %v", reg.ID, err))
		return nil
	}
	if ok {
		chosen = corrected
	}

	in, err := r.interp.Interpret(reg.Transcript, chosen)
	if err != nil {
		r.logger.Error("interpretation failed", "registration_id", reg.ID, "error", err)
		state.AddError(fmt.Sprintf("interpret %s: %v", reg.ID, err))
		return nil
	}
	if !Changed(reg.Interpretation, in) {
		return nil
	}

	var oldType registration.Type
	if reg.Interpretation != nil {
		oldType = reg.Interpretation.RegistrationType
	}
	r.logger.Info("interpretation changed",
		"registration_id", reg.ID,
		"old_type", oldType,
		"new_type", in.RegistrationType,
		"dry_run", r.cfg.DryRun,
	)
	if !r.cfg.DryRun {
		if err := r.store.UpdateInterpretation(ctx, reg.ID, in); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.logger.Error("update failed", "registration_id", reg.ID, "error", err)
			state.AddError(fmt.Sprintf("update %s: %v", reg.ID, err))
			return nil
		}
	}

	if ok {
		state.Corrected++
	}
	state.Changed++
	return nil
}

// Changed reports whether two interpretations differ in anything that is
// stored. Values are compared in their JSON form, which is how they come
// back from the database.
func Changed(old, fresh *interpreter.Interpretation) bool {
	if old == nil {
		return true
	}
	a, errA := json.Marshal(storedView(old))
	b, errB := json.Marshal(storedView(fresh))
	if errA != nil || errB != nil {
		return true
	}
	return string(a) != string(b)
}

type view struct {
	RegistrationType registration.Type           `json:"t"`
	Subcategory      string                      `json:"s"`
	Confidence       float64                     `json:"c"`
	Keywords         []string                    `json:"k"`
	Extracted        map[string]any              `json:"e"`
	FieldConfidence  map[string]interpreter.Tier `json:"f"`
	Summary          string                      `json:"sum"`
	MissingRequired  []string                    `json:"m"`
}

func storedView(in *interpreter.Interpretation) view {
	v := view{
		RegistrationType: in.RegistrationType,
		Subcategory:      in.Subcategory,
		Confidence:       in.Confidence,
		Keywords:         in.Keywords,
		Extracted:        in.Extracted,
		FieldConfidence:  in.FieldConfidence,
		Summary:          in.Summary,
		MissingRequired:  in.MissingRequired,
	}
	if v.Keywords == nil {
		v.Keywords = []string{}
	}
	if v.MissingRequired == nil {
		v.MissingRequired = []string{}
	}
	if v.Extracted == nil {
		v.Extracted = map[string]any{}
	}
	if v.FieldConfidence == nil {
		v.FieldConfidence = map[string]interpreter.Tier{}
	}
	return v
}
