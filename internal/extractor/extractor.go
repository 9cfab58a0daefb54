// Package extractor pulls schema-agnostic entities (places, roads, numbers,
// callers, action tags and domain keywords) out of a voice transcript.
package extractor

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/MikeSquared-Agency/roadlog/internal/textnorm"
)

// Extract scans a transcript and returns every candidate entity it finds.
// It never fails; a transcript without matches yields empty lists.
func Extract(text string) Entities {
	raw := text
	text = textnorm.NFC(text)
	folded := textnorm.Fold(text)
	words := textnorm.Words(folded)

	ents := Entities{RawText: raw}

	named := namedCallers(text)
	ents.Places = places(text, named)

	roads, roadSpans := roadRefs(text)
	ents.Roads = roads
	ents.Numbers = numbers(text, roadSpans)

	ents.Callers = append(ents.Callers, named...)
	ents.Callers = append(ents.Callers, callerCategories(folded)...)

	ents.Actions = actions(folded, words)
	ents.Keywords = textnorm.Matching(folded, DomainKeywords)

	return ents
}

// places runs the three place passes in priority order: route span,
// prepositional phrase, then standalone capitalised phrases.
func places(text string, named []string) []string {
	var out []string

	if m := routeSpanRe.FindStringSubmatch(text); m != nil {
		from, to := trimStopWords(m[1]), trimStopWords(m[2])
		if from != "" && to != "" {
			out = append(out, from+SpanSeparator+to)
		}
	}

	for _, m := range prepPlaceRe.FindAllStringSubmatch(text, -1) {
		cand := trimStopWords(m[1])
		if utf8.RuneCountInString(cand) < minPlaceLen {
			continue
		}
		out = append(out, cand)
	}

	for _, loc := range standaloneRe.FindAllStringIndex(text, -1) {
		start := loc[0]
		if utf8.RuneCountInString(text[:start]) < leadingSkipRunes {
			continue
		}
		cand := trimStopWords(text[start:loc[1]])
		if utf8.RuneCountInString(cand) < minStandaloneLen {
			continue
		}
		if strings.Contains(textnorm.Fold(cand), standaloneDeny) {
			continue
		}
		if overlapsAny(cand, out) || overlapsAny(cand, named) {
			continue
		}
		out = append(out, cand)
	}

	return out
}

// trimStopWords rejects a phrase led by a stop word and drops a trailing
// stop word from a two-word phrase.
func trimStopWords(phrase string) string {
	parts := strings.Fields(phrase)
	if len(parts) == 0 || stopWords[textnorm.Fold(parts[0])] {
		return ""
	}
	if len(parts) > 1 && stopWords[textnorm.Fold(parts[1])] {
		return parts[0]
	}
	return strings.Join(parts, " ")
}

func overlapsAny(cand string, existing []string) bool {
	fc := textnorm.Fold(cand)
	for _, e := range existing {
		fe := textnorm.Fold(e)
		if strings.Contains(fe, fc) || strings.Contains(fc, fe) {
			return true
		}
	}
	return false
}

// roadRefs returns normalised road references ("FV 888" -> "FV888") and the
// byte spans they occupy so the numeric pass can skip their digits.
func roadRefs(text string) ([]string, [][2]int) {
	var refs []string
	var spans [][2]int
	for _, m := range roadRe.FindAllStringSubmatchIndex(text, -1) {
		letters := text[m[2]:m[3]]
		digits := text[m[4]:m[5]]
		refs = append(refs, strings.ToUpper(letters)+digits)
		spans = append(spans, [2]int{m[2], m[5]})
	}
	return refs, spans
}

func numbers(text string, skip [][2]int) []float64 {
	var out []float64
	for _, m := range numberRe.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[2], m[3]
		if inSpans(start, skip) {
			continue
		}
		if v, ok := parseDecimal(text[start:end]); ok {
			out = append(out, v)
		}
	}
	// "over 0,3" is repeated so friction readings are not lost.
	if m := overValueRe.FindStringSubmatch(text); m != nil {
		if v, ok := parseDecimal(m[1]); ok && v > 0 && v < 1 {
			out = append(out, v)
		}
	}
	return out
}

func inSpans(pos int, spans [][2]int) bool {
	for _, s := range spans {
		if pos >= s[0] && pos < s[1] {
			return true
		}
	}
	return false
}

func parseDecimal(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// namedCallers captures "oppringt av <Navn>" style mentions. Names that are
// a known caller category are reported by their canonical form.
func namedCallers(text string) []string {
	var out []string
	for _, m := range namedCallerRe.FindAllStringSubmatch(text, -1) {
		name := m[1]
		if c := CanonicalCaller(textnorm.Fold(name)); c != "" {
			name = c
		}
		out = append(out, name)
	}
	return out
}

func callerCategories(folded string) []string {
	var out []string
	for _, r := range callerRules {
		if textnorm.ContainsAny(folded, r.needles...) {
			out = append(out, r.caller)
		}
	}
	return out
}

// CanonicalCaller maps folded text to the first caller category it mentions,
// or "" when none applies.
func CanonicalCaller(folded string) string {
	for _, r := range callerRules {
		if textnorm.ContainsAny(folded, r.needles...) {
			return r.caller
		}
	}
	return ""
}

func actions(folded string, words []string) []Action {
	var out []Action
	if anyWord(words, broytingWords) {
		out = append(out, ActionBroyting)
	}
	if anyWord(words, stroingWords) {
		out = append(out, ActionStroing)
	}
	if strings.Contains(folded, "friksjonsmål") ||
		(strings.Contains(folded, "friksjon") && strings.Contains(folded, "målt")) {
		out = append(out, ActionFriksjonsmaling)
	}
	if strings.Contains(folded, "befaring") {
		out = append(out, ActionBefaring)
	}
	if textnorm.ContainsAny(strings.ReplaceAll(folded, "ikke iverksatt", ""), operativPhrases...) {
		out = append(out, ActionOperativBeslutning)
	}
	if strings.Contains(folded, "brøytestikk") || anyWord(words, map[string]bool{"stikker": true, "stikk": true}) {
		out = append(out, ActionBroytestikk)
	}
	return out
}

func anyWord(words []string, set map[string]bool) bool {
	for _, w := range words {
		if set[w] {
			return true
		}
	}
	return false
}
