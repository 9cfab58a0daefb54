package registration

import "fmt"

// Type identifies the registration schema a transcript is interpreted into.
type Type string

const (
	TypeVaktlogg      Type = "vaktlogg"
	TypeFriksjon      Type = "friksjon"
	TypeManueltArbeid Type = "manuelt_arbeid"
	TypeMaskin        Type = "maskin"
	TypeInnkjop       Type = "innkjop"

	// No schema yet; interpreted as raw text.
	TypeAvvik        Type = "avvik"
	TypeSkademelding Type = "skademelding"
	TypeBefaring     Type = "befaring"
)

// AllTypes lists every known registration type in display order.
var AllTypes = []Type{
	TypeVaktlogg,
	TypeFriksjon,
	TypeManueltArbeid,
	TypeMaskin,
	TypeInnkjop,
	TypeAvvik,
	TypeSkademelding,
	TypeBefaring,
}

// Parse validates a registration type tag.
func Parse(s string) (Type, error) {
	for _, t := range AllTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown registration type %q", s)
}

// FieldType is the value kind of a schema field.
type FieldType string

const (
	FieldText    FieldType = "text"
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
	FieldSelect  FieldType = "select"
)

// Field describes one field of a registration schema.
type Field struct {
	Name        string    `yaml:"name" json:"name"`
	Type        FieldType `yaml:"type" json:"type"`
	Required    bool      `yaml:"required" json:"required"`
	Options     []string  `yaml:"options,omitempty" json:"options,omitempty"`
	Placeholder string    `yaml:"placeholder,omitempty" json:"placeholder,omitempty"`
}

// Schema is the ordered field layout for one registration type.
type Schema struct {
	Type        Type    `yaml:"type" json:"type"`
	Name        string  `yaml:"name" json:"name"`
	Description string  `yaml:"description" json:"description"`
	Fields      []Field `yaml:"fields" json:"fields"`
}

// RequiredFields returns the names of required fields in schema order.
func (s *Schema) RequiredFields() []string {
	var out []string
	for _, f := range s.Fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}
