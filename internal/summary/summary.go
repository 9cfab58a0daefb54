// Package summary renders a one-line human readable description of an
// interpreted registration for the confirmation screen.
package summary

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/MikeSquared-Agency/roadlog/internal/registration"
	"github.com/MikeSquared-Agency/roadlog/internal/textnorm"
)

// RawTextLimit bounds the summary of a registration without a schema.
const RawTextLimit = 100

const sep = " - "

type builder func(extracted map[string]any) []string

var builders = map[registration.Type]builder{
	registration.TypeVaktlogg:      workLog,
	registration.TypeFriksjon:      friction,
	registration.TypeManueltArbeid: manualWork,
	registration.TypeMaskin:        machine,
	registration.TypeInnkjop:       purchase,
}

// Build renders the summary for a mapped schema. When none of the fields the
// template uses are resolved, the schema description is returned.
func Build(schema *registration.Schema, extracted map[string]any) string {
	if schema == nil {
		return ""
	}
	b, ok := builders[schema.Type]
	if !ok {
		return schema.Description
	}
	parts := b(extracted)
	if len(parts) == 0 {
		return schema.Description
	}
	return strings.Join(parts, sep)
}

// RawText summarises a transcript that has no schema: the first
// RawTextLimit characters, with an ellipsis when cut.
func RawText(text string) string {
	text = strings.TrimSpace(text)
	cut := textnorm.Truncate(text, RawTextLimit)
	if cut == text {
		return text
	}
	return strings.TrimRight(cut, " ") + "…"
}

func workLog(x map[string]any) []string {
	var parts []string
	if c := str(x, "oppringt_av"); c != "" {
		parts = append(parts, "Oppringt av "+c)
	}
	if h := str(x, "hendelse"); h != "" {
		parts = append(parts, h)
	}
	if s := str(x, "sted"); s != "" {
		parts = append(parts, "ved "+s)
	}
	if t := str(x, "tiltak"); t != "" {
		parts = append(parts, "Tiltak: "+t)
	}
	if s := str(x, "operativ_status"); s != "" {
		parts = append(parts, s)
	}
	return parts
}

func friction(x map[string]any) []string {
	var parts []string
	if s := str(x, "strekning"); s != "" {
		parts = append(parts, s)
	}
	if v, ok := num(x, "friksjon"); ok {
		parts = append(parts, formatNumber(v))
	}
	if g := str(x, "generell_friksjon"); g != "" {
		parts = append(parts, g)
	}
	if len(parts) == 0 {
		return nil
	}
	return append([]string{"Friksjonsmåling"}, parts...)
}

func manualWork(x map[string]any) []string {
	typ := str(x, "type_arbeid")
	place := str(x, "sted")
	var line string
	switch {
	case typ != "" && place != "":
		line = typ + " i " + place
	case typ != "":
		line = typ
	case place != "":
		line = "Arbeid i " + place
	default:
		return nil
	}
	if n, ok := num(x, "antall_stikker"); ok {
		line += fmt.Sprintf(" (%s stk)", formatNumber(n))
	}
	return []string{line}
}

func machine(x map[string]any) []string {
	m := str(x, "maskin")
	if m == "" {
		return nil
	}
	line := "Maskinoppfølging: " + m
	if h, ok := num(x, "antall_timer"); ok {
		line += fmt.Sprintf(" (%s timer)", formatNumber(h))
	}
	return []string{line}
}

func purchase(x map[string]any) []string {
	item := str(x, "hva")
	if item == "" {
		return nil
	}
	if n, ok := num(x, "antall"); ok {
		item = formatNumber(n) + " stk " + item
	}
	parts := []string{"Innkjøp: " + item}
	if store := str(x, "hvor"); store != "" {
		parts = append(parts, store)
	}
	return parts
}

func str(x map[string]any, key string) string {
	s, _ := x[key].(string)
	return s
}

func num(x map[string]any, key string) (float64, bool) {
	switch v := x[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
