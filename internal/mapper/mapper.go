// Package mapper resolves schema field values from extracted entities.
package mapper

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/MikeSquared-Agency/roadlog/internal/extractor"
	"github.com/MikeSquared-Agency/roadlog/internal/registration"
	"github.com/MikeSquared-Agency/roadlog/internal/textnorm"
)

// input is the per-call view a resolver works from. field is the schema
// field currently being resolved.
type input struct {
	ents   *extractor.Entities
	text   string
	folded string
	field  registration.Field
}

type resolver func(in *input) (any, bool)

var resolvers = map[string]resolver{
	"strekning":         resolveLocation,
	"sted":              resolveLocation,
	"vakttlf":           resolveCallFlag,
	"oppringt_av":       resolveCaller,
	"hendelse":          resolveIncident,
	"tiltak":            resolveMeasure,
	"operativ_status":   resolveOperativeStatus,
	"friksjon":          resolveFriction,
	"generell_friksjon": resolveGeneralFriction,
	"type_arbeid":       resolveWorkType,
	"hva":               resolvePurchaseItem,
	"hvor":              resolveStore,
	"antall":            resolvePurchaseCount,
	"maskin":            resolveMachine,
	"kommentar":         resolveFreeText,
	"beskrivelse":       resolveFreeText,
}

// Map resolves every field of schema it can. Unresolved fields are absent
// from the result. Select values outside the field's options collapse to
// "Annet" when the field offers it and are dropped otherwise.
func Map(ents extractor.Entities, schema *registration.Schema) map[string]any {
	out := make(map[string]any)
	if schema == nil {
		return out
	}

	text := textnorm.NFC(ents.RawText)
	in := &input{
		ents:   &ents,
		text:   text,
		folded: textnorm.Fold(text),
	}

	for _, f := range schema.Fields {
		v, ok := resolveField(in, f)
		if !ok {
			continue
		}
		if f.Type == registration.FieldSelect {
			s, _ := v.(string)
			v, ok = constrain(s, f.Options)
			if !ok {
				continue
			}
		}
		out[f.Name] = v
	}
	return out
}

func resolveField(in *input, f registration.Field) (any, bool) {
	in.field = f
	if r, ok := resolvers[f.Name]; ok {
		return r(in)
	}
	switch {
	case strings.HasPrefix(f.Name, "antall_"):
		return firstCount(in.ents.Numbers)
	case f.Type == registration.FieldBoolean:
		return resolveActionFlag(in, f.Name)
	}
	return nil, false
}

func constrain(v string, options []string) (string, bool) {
	hasOther := false
	for _, o := range options {
		if o == v {
			return v, true
		}
		if o == optionOther {
			hasOther = true
		}
	}
	if hasOther && v != "" {
		return optionOther, true
	}
	return "", false
}

// resolveLocation prefers a route span, then a road reference, then a bare
// place name.
func resolveLocation(in *input) (any, bool) {
	for _, p := range in.ents.Places {
		if strings.Contains(p, extractor.SpanSeparator) {
			return p, true
		}
	}
	if len(in.ents.Roads) > 0 {
		return in.ents.Roads[0], true
	}
	if len(in.ents.Places) > 0 {
		return in.ents.Places[0], true
	}
	return nil, false
}

func callIndicated(in *input) bool {
	return textnorm.ContainsAny(in.folded, callPhrases...)
}

// resolveCallFlag never reports missing: without evidence of a call the
// entry was not a phone call.
func resolveCallFlag(in *input) (any, bool) {
	return callIndicated(in) || len(in.ents.Callers) > 0, true
}

// resolveCaller takes the first extracted caller the field offers as an
// option. A named person only signals that somebody called.
func resolveCaller(in *input) (any, bool) {
	for _, c := range in.ents.Callers {
		if slices.Contains(in.field.Options, c) {
			return c, true
		}
	}
	if c := extractor.CanonicalCaller(in.folded); c != "" {
		return c, true
	}
	if len(in.ents.Callers) > 0 || callIndicated(in) {
		return optionOther, true
	}
	return nil, false
}

func resolveIncident(in *input) (any, bool) {
	if label, ok := firstLabel(in.folded, incidentRules); ok {
		return label, true
	}
	for _, w := range textnorm.Words(in.folded) {
		if w == "sikt" {
			return "Dårlig sikt", true
		}
	}
	if len(in.ents.Keywords) > 0 {
		return optionOther, true
	}
	return nil, false
}

// resolveMeasure checks a dispatch order first, then past-tense work, then
// an explicit statement that nothing was done.
func resolveMeasure(in *input) (any, bool) {
	if in.ents.HasAction(extractor.ActionOperativBeslutning) {
		if label, ok := firstLabel(in.folded, decisionMeasureRules); ok {
			return label, true
		}
		return "Brøyting", true
	}
	if label, ok := firstLabel(in.folded, pastMeasureRules); ok {
		return label, true
	}
	if textnorm.ContainsAny(in.folded, noMeasurePhrases...) {
		return "Ingen tiltak", true
	}
	return nil, false
}

func resolveOperativeStatus(in *input) (any, bool) {
	if !in.ents.HasAction(extractor.ActionOperativBeslutning) {
		return nil, false
	}
	if textnorm.ContainsAny(in.folded, completedPhrases...) {
		if label, ok := firstLabel(in.folded, completedRules); ok {
			return label, true
		}
		return "Utført brøyting", true
	}
	if textnorm.ContainsAny(in.folded, inProgressPhrases...) || hasWord(in.folded, inProgressWords) {
		return "Pågår", true
	}
	return nil, false
}

func hasWord(folded string, words []string) bool {
	for _, w := range textnorm.Words(folded) {
		if slices.Contains(words, w) {
			return true
		}
	}
	return false
}

func resolveFriction(in *input) (any, bool) {
	if fr := in.ents.Fractions(); len(fr) > 0 {
		return fr[0], true
	}
	return nil, false
}

func resolveGeneralFriction(in *input) (any, bool) {
	fr := in.ents.Fractions()
	if len(fr) == 0 {
		return nil, false
	}
	switch v := fr[0]; {
	case v >= 0.4:
		return "God", true
	case v >= 0.25:
		return "Middels", true
	default:
		return "Dårlig", true
	}
}

// resolveWorkType always resolves; the select has a catch-all option.
func resolveWorkType(in *input) (any, bool) {
	switch {
	case in.ents.HasAction(extractor.ActionBroytestikk):
		return "Brøytestikksetting", true
	case strings.Contains(in.folded, "skilt"):
		return "Skiltkosting", true
	case strings.Contains(in.folded, "leskur"):
		return "Rydding av leskur", true
	case in.ents.HasAction(extractor.ActionBroyting):
		return "Brøyting", true
	case in.ents.HasAction(extractor.ActionStroing):
		return "Strøing", true
	}
	return optionOther, true
}

func resolvePurchaseItem(in *input) (any, bool) {
	if m := purchaseItemRe.FindStringSubmatch(in.text); m != nil {
		if item := strings.TrimSpace(m[1]); item != "" {
			return item, true
		}
	}
	if m := countItemRe.FindStringSubmatch(in.text); m != nil {
		return m[2], true
	}
	return nil, false
}

func resolveStore(in *input) (any, bool) {
	if label, ok := firstLabel(in.folded, retailers); ok {
		return label, true
	}
	if m := storeRe.FindStringSubmatch(in.text); m != nil {
		return m[1], true
	}
	return nil, false
}

func resolvePurchaseCount(in *input) (any, bool) {
	if m := countItemRe.FindStringSubmatch(in.text); m != nil {
		return firstCount(in.ents.Numbers, m[1])
	}
	return firstCount(in.ents.Numbers)
}

func resolveMachine(in *input) (any, bool) {
	if label, ok := firstLabel(in.folded, machineRules); ok {
		return label, true
	}
	return nil, false
}

// resolveFreeText keeps the start of the transcript so nothing said is lost
// even when structured extraction fails.
func resolveFreeText(in *input) (any, bool) {
	if strings.TrimSpace(in.ents.RawText) == "" {
		return nil, false
	}
	return textnorm.Truncate(in.ents.RawText, freeTextLimit), true
}

func resolveActionFlag(in *input, field string) (any, bool) {
	if signals, ok := boolSignals[field]; ok {
		for _, a := range signals {
			if in.ents.HasAction(a) {
				return true, true
			}
		}
		return nil, false
	}
	for _, a := range in.ents.Actions {
		if strings.Contains(field, string(a)) {
			return true, true
		}
	}
	return nil, false
}

// firstCount returns the first whole number in (0, 1000). A preferred
// literal wins when it is among the extracted numbers.
func firstCount(numbers []float64, prefer ...string) (any, bool) {
	for _, p := range prefer {
		want, err := strconv.Atoi(p)
		if err != nil {
			continue
		}
		for _, n := range numbers {
			if isCount(n) && n == float64(want) {
				return n, true
			}
		}
	}
	for _, n := range numbers {
		if isCount(n) {
			return n, true
		}
	}
	return nil, false
}

func isCount(n float64) bool {
	return n > 0 && n < 1000 && n == math.Trunc(n)
}

func firstLabel(folded string, rules []labelRule) (string, bool) {
	for _, r := range rules {
		if textnorm.ContainsAny(folded, r.needles...) {
			return r.label, true
		}
	}
	return "", false
}
