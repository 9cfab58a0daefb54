package extractor

// Action is a canonical work tag recognised in a transcript.
type Action string

const (
	ActionBroyting           Action = "brøyting"
	ActionStroing            Action = "strøing"
	ActionFriksjonsmaling    Action = "friksjonsmåling"
	ActionBefaring           Action = "befaring"
	ActionOperativBeslutning Action = "operativ_beslutning" // an order was given (dispatch)
	ActionBroytestikk        Action = "brøytestikksetting"
)

// Canonical caller categories.
const (
	CallerVTS       = "Vegtrafikksentral"
	CallerPoliti    = "Politiet"
	CallerTrafikant = "Trafikant"
	CallerAMK       = "AMK/Brann"
)

// SpanSeparator joins the two ends of a route span ("Bjørnevatn – Kirkenes").
const SpanSeparator = " – "

// Entities is the schema-agnostic bag of candidates found in one transcript.
// Lists keep discovery order and may contain duplicates.
type Entities struct {
	Places   []string  `json:"places"`
	Numbers  []float64 `json:"numbers"`
	Roads    []string  `json:"roads"`
	Callers  []string  `json:"callers"`
	Actions  []Action  `json:"actions"`
	Keywords []string  `json:"keywords"`
	RawText  string    `json:"raw_text"`
}

// HasAction reports whether the tag was recognised.
func (e *Entities) HasAction(a Action) bool {
	for _, got := range e.Actions {
		if got == a {
			return true
		}
	}
	return false
}

// Fractions returns the numbers strictly between 0 and 1, the range friction
// coefficients are reported in.
func (e *Entities) Fractions() []float64 {
	var out []float64
	for _, n := range e.Numbers {
		if n > 0 && n < 1 {
			out = append(out, n)
		}
	}
	return out
}
