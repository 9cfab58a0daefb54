// Package interpreter turns a voice transcript into a registration draft:
// it classifies the text, resolves the schema, maps extracted entities onto
// its fields, grades them and writes a summary.
package interpreter

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/roadlog/internal/classifier"
	"github.com/MikeSquared-Agency/roadlog/internal/extractor"
	"github.com/MikeSquared-Agency/roadlog/internal/mapper"
	"github.com/MikeSquared-Agency/roadlog/internal/metrics"
	"github.com/MikeSquared-Agency/roadlog/internal/registration"
	"github.com/MikeSquared-Agency/roadlog/internal/summary"
)

// ChosenConfidence is reported when the user picked the registration type.
const ChosenConfidence = 1.0

// InvalidInputError is returned when a transcript cannot be interpreted at
// all. Every other shortcoming is reported inside the Interpretation.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "invalid input: " + e.Reason
}

// Interpret classifies text and maps it onto the chosen schema.
func Interpret(text string) (*Interpretation, error) {
	if err := validate(text); err != nil {
		return nil, err
	}
	return build(text, classifier.Classify(text)), nil
}

// InterpretAs maps text onto the schema of a type the user already chose,
// bypassing the classifier's choice.
func InterpretAs(text string, t registration.Type) (*Interpretation, error) {
	if err := validate(text); err != nil {
		return nil, err
	}
	if _, err := registration.Parse(string(t)); err != nil {
		return nil, &InvalidInputError{Reason: err.Error()}
	}

	c := classifier.Classify(text)
	chosen := classifier.Classification{
		RegistrationType: t,
		Confidence:       ChosenConfidence,
		Keywords:         c.Keywords,
	}
	if c.RegistrationType == t {
		chosen.Subcategory = c.Subcategory
	}
	return build(text, chosen), nil
}

func validate(text string) error {
	if strings.TrimSpace(text) == "" {
		return &InvalidInputError{Reason: "transcript is empty"}
	}
	return nil
}

func build(text string, c classifier.Classification) *Interpretation {
	schema := registration.SchemaFor(c.RegistrationType)
	out := &Interpretation{
		RegistrationType: c.RegistrationType,
		Subcategory:      c.Subcategory,
		Schema:           schema,
		Confidence:       c.Confidence,
		Keywords:         c.Keywords,
	}

	if schema == nil {
		out.Extracted = map[string]any{RawTextField: text}
		out.FieldConfidence = map[string]Tier{}
		out.Summary = summary.RawText(text)
		out.MissingRequired = []string{}
		return out
	}

	ents := extractor.Extract(text)
	out.Extracted = mapper.Map(ents, schema)
	out.FieldConfidence = tiers(schema, &ents, out.Extracted)
	out.Summary = summary.Build(schema, out.Extracted)
	out.MissingRequired = missingRequired(schema, out.FieldConfidence)
	return out
}

// Interpreter wraps the pure functions with logging and metrics for the
// service entry points.
type Interpreter struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Interpreter {
	return &Interpreter{logger: logger}
}

// Interpret interprets text, honouring a user-chosen type when chosen is
// not empty.
func (i *Interpreter) Interpret(text string, chosen registration.Type) (*Interpretation, error) {
	start := time.Now()

	var (
		result *Interpretation
		err    error
	)
	if chosen != "" {
		result, err = InterpretAs(text, chosen)
	} else {
		result, err = Interpret(text)
	}
	if err != nil {
		return nil, fmt.Errorf("interpret transcript: %w", err)
	}

	metrics.InterpretLatency.Observe(time.Since(start).Seconds())
	metrics.ClassificationConfidence.Observe(result.Confidence)
	metrics.InterpretationsTotal.WithLabelValues(string(result.RegistrationType), outcome(result)).Inc()

	i.logger.Debug("transcript interpreted",
		"registration_type", result.RegistrationType,
		"subcategory", result.Subcategory,
		"confidence", result.Confidence,
		"missing_required", len(result.MissingRequired),
	)
	if result.Uncertain() {
		i.logger.Info("uncertain classification",
			"registration_type", result.RegistrationType,
			"confidence", result.Confidence,
		)
	}
	return result, nil
}

func outcome(in *Interpretation) string {
	switch {
	case in.Schema == nil:
		return metrics.OutcomeRawText
	case in.Submittable():
		return metrics.OutcomeComplete
	default:
		return metrics.OutcomeIncomplete
	}
}
