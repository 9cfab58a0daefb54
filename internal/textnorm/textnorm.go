// Package textnorm folds transcript text into the form keyword tests run on.
package textnorm

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// casers are stateful, so each call takes its own chain from the pool
var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(norm.NFC, cases.Lower(language.Norwegian))
	},
}

// NFC composes decomposed characters (a + ring -> å) so patterns match.
func NFC(s string) string {
	if s == "" {
		return s
	}
	return norm.NFC.String(strings.ToValidUTF8(s, ""))
}

// Fold returns s composed, lowercased with Norwegian rules and with runs of
// whitespace collapsed to single spaces.
func Fold(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToValidUTF8(s, "")

	tr := chainPool.Get().(transform.Transformer)
	out, _, err := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)
	if err != nil {
		out = strings.ToLower(s)
	}
	return strings.Join(strings.Fields(out), " ")
}

// Words splits folded text into letter/digit runs.
func Words(folded string) []string {
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// ContainsAny reports whether folded contains any of the needles.
func ContainsAny(folded string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(folded, n) {
			return true
		}
	}
	return false
}

// Matching returns the needles contained in folded, in needle order.
func Matching(folded string, needles []string) []string {
	var out []string
	for _, n := range needles {
		if strings.Contains(folded, n) {
			out = append(out, n)
		}
	}
	return out
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
