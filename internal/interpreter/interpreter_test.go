package interpreter

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"testing"

	"github.com/MikeSquared-Agency/roadlog/internal/registration"
)

var transcripts = []string{
	"Glatt vei mellom Bjørnevatn og Kirkenes",
	"Målt friksjon på 0.25, den andre var 40",
	"Friksjon målt til 0.28, ringte etterpå til vakttlf",
	"Kalte ut strøbil på E6",
	"Kjørte friksjonsmåling på Fv888",
	"Ble oppringt av Politiet om glatt vei ved Kirkenes, kalte ut brøytebil, utført",
	"Satte 40 brøytestikk langs Pasvikveien",
	"Kjøpt 10 stk lyspærer på Biltema",
	"Hjullaster inn på verksted, 3 timer",
	"Husk å sjekke lageret i morgen",
	"x",
}

func mustInterpret(t *testing.T, text string) *Interpretation {
	t.Helper()
	got, err := Interpret(text)
	if err != nil {
		t.Fatalf("Interpret(%q): %v", text, err)
	}
	return got
}

func TestInterpret_RouteSpanPriority(t *testing.T) {
	got := mustInterpret(t, "Glatt vei mellom Bjørnevatn og Kirkenes")
	if got.Extracted["sted"] != "Bjørnevatn – Kirkenes" {
		t.Errorf("sted = %v, want route span", got.Extracted["sted"])
	}
}

func TestInterpret_FrictionRangeFilter(t *testing.T) {
	got := mustInterpret(t, "Målt friksjon på 0.25, den andre var 40")
	if got.RegistrationType != registration.TypeFriksjon {
		t.Fatalf("type = %q, want friksjon", got.RegistrationType)
	}
	if got.Extracted["friksjon"] != 0.25 {
		t.Errorf("friksjon = %v, want 0.25", got.Extracted["friksjon"])
	}
	if got.FieldConfidence["friksjon"] != TierHigh {
		t.Errorf("friksjon tier = %q, want high", got.FieldConfidence["friksjon"])
	}
	if !reflect.DeepEqual(got.MissingRequired, []string{"strekning"}) {
		t.Errorf("missingRequired = %v, want [strekning]", got.MissingRequired)
	}
}

func TestInterpret_ClassificationPriority(t *testing.T) {
	got := mustInterpret(t, "Friksjon målt til 0.28, ringte etterpå til vakttlf")
	if got.RegistrationType != registration.TypeFriksjon {
		t.Errorf("type = %q, want friksjon", got.RegistrationType)
	}
	if got.Confidence != 0.9 {
		t.Errorf("confidence = %v, want 0.9", got.Confidence)
	}
}

func TestInterpret_OperationalDecision(t *testing.T) {
	got := mustInterpret(t, "Kalte ut strøbil på E6")
	if got.RegistrationType != registration.TypeVaktlogg {
		t.Fatalf("type = %q, want vaktlogg", got.RegistrationType)
	}
	if got.Extracted["tiltak"] != "Strøing" {
		t.Errorf("tiltak = %v, want Strøing", got.Extracted["tiltak"])
	}
	if _, ok := got.Extracted["operativ_status"]; ok {
		t.Errorf("operativ_status should be unresolved, got %v", got.Extracted["operativ_status"])
	}
	if got.FieldConfidence["operativ_status"] != TierMissing {
		t.Errorf("operativ_status tier = %q, want missing", got.FieldConfidence["operativ_status"])
	}

	got = mustInterpret(t, "Kalte ut strøbil på E6, utført")
	if got.Extracted["operativ_status"] != "Utført strøing" {
		t.Errorf("operativ_status = %v, want Utført strøing", got.Extracted["operativ_status"])
	}
}

func TestInterpret_MissingRequired(t *testing.T) {
	got := mustInterpret(t, "Kjørte friksjonsmåling på Fv888")
	if got.RegistrationType != registration.TypeFriksjon {
		t.Fatalf("type = %q, want friksjon", got.RegistrationType)
	}
	if !reflect.DeepEqual(got.MissingRequired, []string{"friksjon"}) {
		t.Errorf("missingRequired = %v, want [friksjon]", got.MissingRequired)
	}
	if got.Extracted["strekning"] != "FV888" {
		t.Errorf("strekning = %v, want FV888", got.Extracted["strekning"])
	}
	if got.Submittable() {
		t.Error("interpretation with missing required fields should not be submittable")
	}
}

func TestInterpret_Tiers(t *testing.T) {
	got := mustInterpret(t, "Glatt vei ved Kirkenes")
	want := map[string]Tier{
		"vakttlf":         TierSuggested,
		"oppringt_av":     TierMissing,
		"hendelse":        TierSuggested,
		"sted":            TierHigh,
		"tiltak":          TierMissing,
		"operativ_status": TierMissing,
		"kommentar":       TierSuggested,
	}
	if !reflect.DeepEqual(got.FieldConfidence, want) {
		t.Errorf("fieldConfidence = %v, want %v", got.FieldConfidence, want)
	}
	if !got.Submittable() {
		t.Errorf("missingRequired = %v, want none", got.MissingRequired)
	}
}

func TestInterpret_PlaceAfterFullStop(t *testing.T) {
	got := mustInterpret(t, "Ringte vakttlf. Kirkenes er stengt nå")
	if got.RegistrationType != registration.TypeVaktlogg {
		t.Fatalf("type = %s, want vaktlogg", got.RegistrationType)
	}
	if got.Extracted["sted"] != "Kirkenes" {
		t.Errorf("sted = %v, want Kirkenes", got.Extracted["sted"])
	}
	if !got.Submittable() {
		t.Errorf("missingRequired = %v, want none", got.MissingRequired)
	}
}

func TestInterpret_Idempotent(t *testing.T) {
	for _, text := range transcripts {
		a := mustInterpret(t, text)
		b := mustInterpret(t, text)
		if !reflect.DeepEqual(a, b) {
			t.Errorf("Interpret(%q) is not idempotent:\n%+v\n%+v", text, a, b)
		}
	}
}

func TestInterpret_SchemaConformance(t *testing.T) {
	for _, text := range transcripts {
		got := mustInterpret(t, text)
		if got.Schema == nil {
			t.Fatalf("Interpret(%q) has no schema", text)
		}
		declared := make(map[string]bool, len(got.Schema.Fields))
		for _, f := range got.Schema.Fields {
			declared[f.Name] = true
		}
		for k := range got.Extracted {
			if !declared[k] {
				t.Errorf("%q: extracted key %q not in schema %s", text, k, got.Schema.Type)
			}
		}
		if len(got.FieldConfidence) != len(got.Schema.Fields) {
			t.Errorf("%q: %d tiers for %d fields", text, len(got.FieldConfidence), len(got.Schema.Fields))
		}
		for _, f := range got.Schema.Fields {
			tier, ok := got.FieldConfidence[f.Name]
			if !ok {
				t.Errorf("%q: no tier for %q", text, f.Name)
				continue
			}
			_, resolved := got.Extracted[f.Name]
			if resolved == (tier == TierMissing) {
				t.Errorf("%q: field %q resolved=%v but tier %q", text, f.Name, resolved, tier)
			}
		}
		if got.MissingRequired == nil {
			t.Errorf("%q: missingRequired should be an empty list, not nil", text)
		}
		if got.Summary == "" {
			t.Errorf("%q: empty summary", text)
		}
	}
}

func TestInterpret_InvalidInput(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := Interpret(text)
		var invalid *InvalidInputError
		if !errors.As(err, &invalid) {
			t.Errorf("Interpret(%q) error = %v, want InvalidInputError", text, err)
		}
	}
}

func TestInterpretAs(t *testing.T) {
	got, err := InterpretAs("Kjøpt 10 stk lyspærer på Biltema", registration.TypeInnkjop)
	if err != nil {
		t.Fatalf("InterpretAs: %v", err)
	}
	if got.Confidence != ChosenConfidence {
		t.Errorf("confidence = %v, want %v", got.Confidence, ChosenConfidence)
	}
	if got.Subcategory == "" {
		t.Error("subcategory should be kept when the classifier agrees")
	}
	if got.Extracted["hva"] != "lyspærer" {
		t.Errorf("hva = %v, want lyspærer", got.Extracted["hva"])
	}

	got, err = InterpretAs("Glatt vei ved Kirkenes", registration.TypeFriksjon)
	if err != nil {
		t.Fatalf("InterpretAs: %v", err)
	}
	if got.RegistrationType != registration.TypeFriksjon || got.Subcategory != "" {
		t.Errorf("got %s/%q, want friksjon with no subcategory", got.RegistrationType, got.Subcategory)
	}

	_, err = InterpretAs("Glatt vei", registration.Type("ukjent"))
	var invalid *InvalidInputError
	if !errors.As(err, &invalid) {
		t.Errorf("unknown type error = %v, want InvalidInputError", err)
	}
}

func TestInterpretAs_NoSchema(t *testing.T) {
	text := "Avvik på rekkverk ved Kirkenes"
	got, err := InterpretAs(text, registration.TypeAvvik)
	if err != nil {
		t.Fatalf("InterpretAs: %v", err)
	}
	if got.Schema != nil {
		t.Errorf("schema = %v, want nil", got.Schema)
	}
	if !reflect.DeepEqual(got.Extracted, map[string]any{RawTextField: text}) {
		t.Errorf("extracted = %v, want raw text only", got.Extracted)
	}
	if len(got.FieldConfidence) != 0 {
		t.Errorf("fieldConfidence = %v, want empty", got.FieldConfidence)
	}
	if got.Summary != text {
		t.Errorf("summary = %q, want %q", got.Summary, text)
	}
	if !got.Submittable() {
		t.Error("raw text registration should be submittable")
	}

	raw, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v, ok := m["schema"]; !ok || v != nil {
		t.Errorf("schema should serialise as null, got %v", v)
	}
	if _, ok := m["fieldConfidence"]; !ok {
		t.Error("missing fieldConfidence key")
	}
}

func TestInterpretation_Uncertain(t *testing.T) {
	if !mustInterpret(t, "Husk å sjekke lageret i morgen").Uncertain() {
		t.Error("fallback classification should be uncertain")
	}
	if mustInterpret(t, "Kjørte friksjonsmåling på Fv888").Uncertain() {
		t.Error("friction classification should not be uncertain")
	}
}

func TestInterpret_Concurrent(t *testing.T) {
	want := make([]*Interpretation, len(transcripts))
	for i, text := range transcripts {
		want[i] = mustInterpret(t, text)
	}

	var wg sync.WaitGroup
	errs := make(chan string, len(transcripts)*8)
	for n := 0; n < 8; n++ {
		for i, text := range transcripts {
			wg.Add(1)
			go func(i int, text string) {
				defer wg.Done()
				got, err := Interpret(text)
				if err != nil || !reflect.DeepEqual(got, want[i]) {
					errs <- text
				}
			}(i, text)
		}
	}
	wg.Wait()
	close(errs)
	for text := range errs {
		t.Errorf("concurrent Interpret(%q) diverged", text)
	}
}

func TestInterpreter_WrapsInvalidInput(t *testing.T) {
	in := New(slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := in.Interpret("  ", "")
	var invalid *InvalidInputError
	if !errors.As(err, &invalid) {
		t.Errorf("error = %v, want InvalidInputError", err)
	}

	got, err := in.Interpret("Glatt vei ved Kirkenes", registration.TypeAvvik)
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if got.RegistrationType != registration.TypeAvvik {
		t.Errorf("type = %q, want avvik", got.RegistrationType)
	}
}
