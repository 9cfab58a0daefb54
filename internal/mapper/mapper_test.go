package mapper

import (
	"reflect"
	"strings"
	"testing"

	"github.com/MikeSquared-Agency/roadlog/internal/extractor"
	"github.com/MikeSquared-Agency/roadlog/internal/registration"
)

func mapText(t *testing.T, typ registration.Type, text string) map[string]any {
	t.Helper()
	schema := registration.SchemaFor(typ)
	if schema == nil {
		t.Fatalf("no schema for %q", typ)
	}
	return Map(extractor.Extract(text), schema)
}

func TestMap_NilSchema(t *testing.T) {
	got := Map(extractor.Extract("Glatt vei ved Kirkenes"), nil)
	if got == nil || len(got) != 0 {
		t.Errorf("Map(nil schema) = %v, want empty map", got)
	}
}

func TestMap_DispatchWithoutCompletion(t *testing.T) {
	text := "Kalte ut strøbil på E6"
	got := mapText(t, registration.TypeVaktlogg, text)
	want := map[string]any{
		"vakttlf":   false,
		"hendelse":  "Annet",
		"sted":      "E6",
		"tiltak":    "Strøing",
		"kommentar": text,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Map() = %v, want %v", got, want)
	}
}

func TestMap_Location(t *testing.T) {
	tests := []struct {
		name string
		typ  registration.Type
		text string
		want any
	}{
		{"route span wins", registration.TypeVaktlogg, "Glatt vei mellom Bjørnevatn og Kirkenes", "Bjørnevatn – Kirkenes"},
		{"road reference", registration.TypeFriksjon, "Kjørte friksjonsmåling på Fv888", "FV888"},
		{"road beats place", registration.TypeVaktlogg, "Glatt vei ved Kirkenes på E6", "E6"},
		{"bare place", registration.TypeVaktlogg, "Glatt vei ved Kirkenes", "Kirkenes"},
		{"prepositional place", registration.TypeManueltArbeid, "Satte brøytestikk langs Pasvikveien", "Pasvikveien"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapText(t, tt.typ, tt.text)
			field := "sted"
			if tt.typ == registration.TypeFriksjon {
				field = "strekning"
			}
			if got[field] != tt.want {
				t.Errorf("%s = %v, want %v", field, got[field], tt.want)
			}
		})
	}
}

func TestMap_Friction(t *testing.T) {
	got := mapText(t, registration.TypeFriksjon, "Målt friksjon på 0.25, den andre var 40")
	if got["friksjon"] != 0.25 {
		t.Errorf("friksjon = %v, want 0.25", got["friksjon"])
	}
	if got["generell_friksjon"] != "Middels" {
		t.Errorf("generell_friksjon = %v, want Middels", got["generell_friksjon"])
	}
	if _, ok := got["strekning"]; ok {
		t.Errorf("strekning should be unresolved, got %v", got["strekning"])
	}
}

func TestMap_FrictionMissing(t *testing.T) {
	got := mapText(t, registration.TypeFriksjon, "Kjørte friksjonsmåling på Fv888")
	if _, ok := got["friksjon"]; ok {
		t.Errorf("friksjon should be unresolved, got %v", got["friksjon"])
	}
	if _, ok := got["generell_friksjon"]; ok {
		t.Errorf("generell_friksjon should be unresolved, got %v", got["generell_friksjon"])
	}
}

func TestMap_GeneralFriction(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Friksjon 0,45 på E6", "God"},
		{"Friksjon 0,30 på E6", "Middels"},
		{"Friksjon 0,15 på E6", "Dårlig"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := mapText(t, registration.TypeFriksjon, tt.text)
			if got["generell_friksjon"] != tt.want {
				t.Errorf("generell_friksjon = %v, want %q", got["generell_friksjon"], tt.want)
			}
		})
	}
}

func TestMap_FrictionMeasureStarted(t *testing.T) {
	got := mapText(t, registration.TypeFriksjon, "Friksjon 0,22 på E6, kalte ut strøbil")
	if got["tiltak_startet"] != true {
		t.Errorf("tiltak_startet = %v, want true", got["tiltak_startet"])
	}
	if got["tiltak"] != "Strøing" {
		t.Errorf("tiltak = %v, want Strøing", got["tiltak"])
	}

	got = mapText(t, registration.TypeFriksjon, "Friksjon 0,42 på E6")
	if _, ok := got["tiltak_startet"]; ok {
		t.Errorf("tiltak_startet should be unresolved, got %v", got["tiltak_startet"])
	}
}

func TestMap_Caller(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantCaller  any
		wantCallFlg bool
	}{
		{"named category", "Ble oppringt av Politiet om glatt vei", "Politiet", true},
		{"keyword category", "VTS meldte stengt vei ved Kirkenes", "Vegtrafikksentral", true},
		{"unknown person", "Ble oppringt av Ola Hansen om stengt vei", "Annet", true},
		{"person then category", "Ble oppringt av Ola Hansen fra politiet om glatt vei på E6", "Politiet", true},
		{"call without caller", "Vakttlf ringte om glatt vei", "Annet", true},
		{"no call", "Brøytet ved Kirkenes i natt", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapText(t, registration.TypeVaktlogg, tt.text)
			if got["oppringt_av"] != tt.wantCaller {
				t.Errorf("oppringt_av = %v, want %v", got["oppringt_av"], tt.wantCaller)
			}
			if got["vakttlf"] != tt.wantCallFlg {
				t.Errorf("vakttlf = %v, want %v", got["vakttlf"], tt.wantCallFlg)
			}
		})
	}
}

func TestMap_Incident(t *testing.T) {
	tests := []struct {
		text string
		want any
	}{
		{"Glatt vei ved Kirkenes", "Glatt vei"},
		{"Mye snø ved Kirkenes", "Glatt vei"},
		{"Stengt vei ved Kirkenes", "Stengt vei"},
		{"Utforkjøring ved Kirkenes", "Ulykke"},
		{"Elendig sikt ved Kirkenes", "Dårlig sikt"},
		{"Hull i veien ved Kirkenes", "Annet"},
		{"Husk å sjekke lageret", nil},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := mapText(t, registration.TypeVaktlogg, tt.text)
			if got["hendelse"] != tt.want {
				t.Errorf("hendelse = %v, want %v", got["hendelse"], tt.want)
			}
		})
	}
}

func TestMap_Measure(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantMeas   any
		wantStatus any
	}{
		{"dispatch gritting", "Kalte ut strøbil på E6", "Strøing", nil},
		{"dispatch completed", "Kalte ut strøbil på E6, ferdig kl 0530", "Strøing", "Utført strøing"},
		{"dispatch plowing in progress", "Bestilt brøyting av E6, pågår nå", "Brøyting", "Pågår"},
		{"dispatch gritting underway", "Kalte ut strøbil på E6, er under arbeid", "Strøing", "Pågår"},
		{"bare under", "Kalte ut strøbil på E6, bilen er under", "Strøing", "Pågår"},
		{"under as word prefix", "Kalte ut strøbil på E6, melder fra underveis", "Strøing", nil},
		{"dispatch without verb", "Bedt om tiltak på E6", "Brøyting", nil},
		{"dispatch inspection", "Bedt om befaring på E6, utført", "Befaring", "Utført befaring"},
		{"past tense", "Brøytet ved Kirkenes i natt", "Brøyting", nil},
		{"past tense gritting", "Strødde ved Kirkenes i natt", "Strøing", nil},
		{"explicit none", "Glatt vei ved Kirkenes, ingen tiltak", "Ingen tiltak", nil},
		{"not started", "Glatt vei ved Kirkenes, tiltak ikke iverksatt", "Ingen tiltak", nil},
		{"nothing", "Glatt vei ved Kirkenes", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapText(t, registration.TypeVaktlogg, tt.text)
			if got["tiltak"] != tt.wantMeas {
				t.Errorf("tiltak = %v, want %v", got["tiltak"], tt.wantMeas)
			}
			if got["operativ_status"] != tt.wantStatus {
				t.Errorf("operativ_status = %v, want %v", got["operativ_status"], tt.wantStatus)
			}
		})
	}
}

func TestMap_WorkType(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Satte brøytestikk langs Pasvikveien", "Brøytestikksetting"},
		{"Skiltkosting på E6", "Skiltkosting"},
		{"Ryddet leskur ved skolen", "Rydding av leskur"},
		{"Manuell brøyting rundt busskur", "Brøyting"},
		{"Manuelt arbeid ved Kirkenes", "Annet"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := mapText(t, registration.TypeManueltArbeid, tt.text)
			if got["type_arbeid"] != tt.want {
				t.Errorf("type_arbeid = %v, want %q", got["type_arbeid"], tt.want)
			}
		})
	}
}

func TestMap_CountField(t *testing.T) {
	got := mapText(t, registration.TypeManueltArbeid, "Satte 40 brøytestikk langs Pasvikveien")
	if got["antall_stikker"] != 40.0 {
		t.Errorf("antall_stikker = %v, want 40", got["antall_stikker"])
	}

	got = mapText(t, registration.TypeManueltArbeid, "Satte 4000 brøytestikk langs Pasvikveien")
	if _, ok := got["antall_stikker"]; ok {
		t.Errorf("antall_stikker should ignore out-of-range counts, got %v", got["antall_stikker"])
	}
}

func TestMap_Machine(t *testing.T) {
	got := mapText(t, registration.TypeMaskin, "Hjullaster inn på verksted, 3 timer")
	if got["maskin"] != "Hjullaster" {
		t.Errorf("maskin = %v, want Hjullaster", got["maskin"])
	}
	if got["antall_timer"] != 3.0 {
		t.Errorf("antall_timer = %v, want 3", got["antall_timer"])
	}
}

func TestMap_Purchase(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantItem  any
		wantStore any
		wantCount any
	}{
		{"retailer", "Kjøpt 10 stk lyspærer på Biltema", "lyspærer", "Biltema", 10.0},
		{"preposition store", "Handlet salt hos Lokalbutikken", "salt", "Lokalbutikken", nil},
		{"count only", "Trengte 5 stk lykter til bilen", "lykter", nil, 5.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapText(t, registration.TypeInnkjop, tt.text)
			if got["hva"] != tt.wantItem {
				t.Errorf("hva = %v, want %v", got["hva"], tt.wantItem)
			}
			if got["hvor"] != tt.wantStore {
				t.Errorf("hvor = %v, want %v", got["hvor"], tt.wantStore)
			}
			if got["antall"] != tt.wantCount {
				t.Errorf("antall = %v, want %v", got["antall"], tt.wantCount)
			}
		})
	}
}

func TestMap_FreeTextTruncated(t *testing.T) {
	text := "Glatt vei ved Kirkenes " + strings.Repeat("og mer ", 60)
	got := mapText(t, registration.TypeVaktlogg, text)
	s, ok := got["kommentar"].(string)
	if !ok {
		t.Fatalf("kommentar = %v, want string", got["kommentar"])
	}
	if n := len([]rune(s)); n != freeTextLimit {
		t.Errorf("kommentar has %d runes, want %d", n, freeTextLimit)
	}
	if !strings.HasPrefix(text, s) {
		t.Error("kommentar should be a prefix of the transcript")
	}
}

func TestMap_KeysBelongToSchema(t *testing.T) {
	texts := []string{
		"Glatt vei mellom Bjørnevatn og Kirkenes, kalte ut strøbil, utført",
		"Kjøpt 10 stk lyspærer på Biltema",
		"Friksjon 0,22 på E6, ringte VTS",
		"",
	}

	for _, s := range registration.Schemas() {
		for _, text := range texts {
			got := Map(extractor.Extract(text), s)
			for k, v := range got {
				f, ok := fieldByName(s, k)
				if !ok {
					t.Errorf("%s: key %q not in schema", s.Type, k)
					continue
				}
				if f.Type == registration.FieldSelect {
					if !containsString(f.Options, v.(string)) {
						t.Errorf("%s.%s = %q not among options", s.Type, k, v)
					}
				}
			}
		}
	}
}

func fieldByName(s *registration.Schema, name string) (registration.Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return registration.Field{}, false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
