package interpreter

import (
	"github.com/MikeSquared-Agency/roadlog/internal/classifier"
	"github.com/MikeSquared-Agency/roadlog/internal/extractor"
	"github.com/MikeSquared-Agency/roadlog/internal/registration"
)

// Tier grades how much a mapped field value can be trusted.
type Tier string

const (
	TierHigh      Tier = "high"
	TierSuggested Tier = "suggested"
	TierMissing   Tier = "missing"
)

// RawTextField is the only key of Extracted when the type has no schema.
const RawTextField = "raw_text"

// Interpretation is the structured reading of one transcript, handed to the
// confirmation screen and stored with the registration.
type Interpretation struct {
	RegistrationType registration.Type    `json:"registration_type"`
	Subcategory      string               `json:"subcategory"`
	Schema           *registration.Schema `json:"schema"`
	Confidence       float64              `json:"confidence"`
	Keywords         []string             `json:"keywords"`
	Extracted        map[string]any       `json:"extracted"`
	FieldConfidence  map[string]Tier      `json:"fieldConfidence"`
	Summary          string               `json:"summary"`
	MissingRequired  []string             `json:"missingRequired"`
}

// Uncertain reports whether the user should be warned to verify the
// registration type.
func (in *Interpretation) Uncertain() bool {
	return in.Confidence < classifier.UncertainBelow
}

// Submittable reports whether every required field is resolved. Low
// confidence alone never blocks submission.
func (in *Interpretation) Submittable() bool {
	return len(in.MissingRequired) == 0
}

// tiers grades every schema field. Location and friction values are high
// confidence only when exactly one candidate was seen.
func tiers(schema *registration.Schema, ents *extractor.Entities, extracted map[string]any) map[string]Tier {
	out := make(map[string]Tier, len(schema.Fields))
	for _, f := range schema.Fields {
		if _, ok := extracted[f.Name]; !ok {
			out[f.Name] = TierMissing
			continue
		}
		out[f.Name] = TierSuggested
		switch f.Name {
		case "strekning", "sted":
			if len(ents.Places) == 1 {
				out[f.Name] = TierHigh
			}
		case "friksjon":
			if len(ents.Fractions()) == 1 {
				out[f.Name] = TierHigh
			}
		}
	}
	return out
}

func missingRequired(schema *registration.Schema, fc map[string]Tier) []string {
	out := []string{}
	for _, name := range schema.RequiredFields() {
		if fc[name] == TierMissing {
			out = append(out, name)
		}
	}
	return out
}
