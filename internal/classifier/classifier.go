// Package classifier picks the registration type for a transcript with
// ordered keyword rules. The first rule that matches wins.
package classifier

import (
	"regexp"

	"github.com/MikeSquared-Agency/roadlog/internal/registration"
	"github.com/MikeSquared-Agency/roadlog/internal/textnorm"
)

// UncertainBelow is the confidence under which a classification should be
// verified by the user.
const UncertainBelow = 0.6

// Classification is the outcome of classifying one transcript.
type Classification struct {
	RegistrationType registration.Type `json:"registration_type"`
	Subcategory      string            `json:"subcategory"`
	Confidence       float64           `json:"confidence"`
	Keywords         []string          `json:"keywords"`
}

// Uncertain reports whether the classification needs user verification.
func (c Classification) Uncertain() bool {
	return c.Confidence < UncertainBelow
}

const (
	SubFriksjonsmaling = "friksjonsmåling"
	SubVakttelefon     = "vakttelefon"
	SubVinterdrift     = "vinterdrift"
	SubBroytestikk     = "brøytestikksetting"
	SubSkiltkosting    = "skiltkosting"
	SubLeskur          = "leskur"
	SubManuelt         = "manuelt_arbeid"
	SubInnkjop         = "innkjøp"
	SubMaskin          = "maskinoppfølging"
	SubNotat           = "notat"
)

var (
	frictionTerms = []string{"friksjon", "målt friksjon", "friksjonsmåling"}
	callTerms     = []string{"oppringt", "ringt", "ringer", "vakttlf", "vaktelefon", "vts", "politiet", "brannvesen", "varslet", "melding fra"}
	winterTerms   = []string{"brøyting", "brøytet", "strøing", "strødd", "kallte ut", "kalte ut", "stikker", "brøytestikk", "skiltkosting", "leskur"}
	purchaseTerms = []string{"kjøpt", "kjøpte", "handlet", "innkjøp", "kvittering"}
	machineTerms  = []string{"maskin", "verksted", "hjullaster", "traktor", "reparasjon", "service på"}

	manualMarkers = []string{"manuell", "manuelt"}

	// friction coefficients in the 0.2-0.39 range are practically unambiguous
	frictionValueRe = regexp.MustCompile(`(?:^|[^\d.,])(0[.,][23]\d*)`)
)

type rule struct {
	confidence float64
	match      func(folded string) []string
	subcat     func(folded string, hits []string) (registration.Type, string)
}

var rules = []rule{
	{
		confidence: 0.9,
		match: func(folded string) []string {
			hits := textnorm.Matching(folded, frictionTerms)
			if m := frictionValueRe.FindStringSubmatch(folded); m != nil {
				hits = append(hits, m[1])
			}
			return hits
		},
		subcat: fixed(registration.TypeFriksjon, SubFriksjonsmaling),
	},
	{
		confidence: 0.85,
		match:      terms(callTerms),
		subcat:     fixed(registration.TypeVaktlogg, SubVakttelefon),
	},
	{
		confidence: 0.8,
		match:      terms(winterTerms),
		subcat:     winterSubcategory,
	},
	{
		confidence: 0.75,
		match:      terms(purchaseTerms),
		subcat:     fixed(registration.TypeInnkjop, SubInnkjop),
	},
	{
		confidence: 0.7,
		match:      terms(machineTerms),
		subcat:     fixed(registration.TypeMaskin, SubMaskin),
	},
}

// Fallback is returned when no rule matches: a free note in the work log.
var Fallback = Classification{
	RegistrationType: registration.TypeVaktlogg,
	Subcategory:      SubNotat,
	Confidence:       0.4,
}

// Classify returns the registration type for text. It always returns a
// result; unrecognised text falls back to a work-log note.
func Classify(text string) Classification {
	folded := textnorm.Fold(text)
	for _, r := range rules {
		hits := r.match(folded)
		if len(hits) == 0 {
			continue
		}
		typ, sub := r.subcat(folded, hits)
		return Classification{
			RegistrationType: typ,
			Subcategory:      sub,
			Confidence:       r.confidence,
			Keywords:         hits,
		}
	}
	c := Fallback
	c.Keywords = []string{}
	return c
}

func terms(list []string) func(string) []string {
	return func(folded string) []string {
		return textnorm.Matching(folded, list)
	}
}

func fixed(t registration.Type, sub string) func(string, []string) (registration.Type, string) {
	return func(string, []string) (registration.Type, string) {
		return t, sub
	}
}

// winterSubcategory separates manual tasks from winter dispatches. Plowing
// and gritting orders are work-log entries; stakes, signs and shelters are
// manual work.
func winterSubcategory(folded string, hits []string) (registration.Type, string) {
	has := func(term string) bool {
		for _, h := range hits {
			if h == term {
				return true
			}
		}
		return false
	}
	switch {
	case has("brøytestikk") || has("stikker"):
		return registration.TypeManueltArbeid, SubBroytestikk
	case has("skiltkosting"):
		return registration.TypeManueltArbeid, SubSkiltkosting
	case has("leskur"):
		return registration.TypeManueltArbeid, SubLeskur
	case textnorm.ContainsAny(folded, manualMarkers...):
		return registration.TypeManueltArbeid, SubManuelt
	}
	return registration.TypeVaktlogg, SubVinterdrift
}
