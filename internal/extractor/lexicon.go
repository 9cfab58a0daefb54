package extractor

import "regexp"

const (
	capPhrase = `\p{Lu}\p{L}+(?:\s\p{Lu}\p{L}+)?`

	minPlaceLen      = 4
	minStandaloneLen = 5
	leadingSkipRunes = 10
)

var (
	routeSpanRe = regexp.MustCompile(`(?:^|[^\p{L}])(?i:mellom)\s+(` + capPhrase + `)\s+og\s+(` + capPhrase + `)`)

	prepPlaceRe = regexp.MustCompile(`(?:^|[^\p{L}])(?i:i|langs|ved|på|fra|til|mellom|over|strekningen|strekning)\s+(` + capPhrase + `)`)

	standaloneRe = regexp.MustCompile(capPhrase)

	roadRe = regexp.MustCompile(`(?i)(?:^|[^\p{L}\d])([efr]v?) ?(\d{1,4})\b`)

	numberRe = regexp.MustCompile(`(?:^|[^\p{L}\d.,])(\d+(?:[.,]\d+)?)`)

	overValueRe = regexp.MustCompile(`(?i)over\s+(\d+[.,]\d+)`)

	namedCallerRe = regexp.MustCompile(`(?i:oppringt av|ringte fra|ringt fra|telefon fra|melding fra)\s+(` + capPhrase + `)`)
)

// stopWords are capitalised words that are never place names.
var stopWords = map[string]bool{
	"det": true, "den": true, "dette": true, "der": true, "her": true,
	"jeg": true, "vi": true, "han": true, "hun": true, "de": true, "dem": true,
	"som": true, "og": true, "men": true, "etter": true, "før": true, "når": true,
	"ingen": true, "ikke": true, "alle": true, "noen": true, "ble": true, "var": true,
	"dag": true, "morgen": true, "kveld": true, "natt": true, "natten": true,
	"mandag": true, "tirsdag": true, "onsdag": true, "torsdag": true, "fredag": true,
	"lørdag": true, "søndag": true,
	"politiet": true, "vts": true, "vegtrafikksentralen": true, "amk": true,
	"trafikant": true, "friksjon": true, "vakttlf": true,
}

const standaloneDeny = "entreprenør"

type callerRule struct {
	needles []string
	caller  string
}

var callerRules = []callerRule{
	{[]string{"vts", "vegtrafikksentral"}, CallerVTS},
	{[]string{"politi"}, CallerPoliti},
	{[]string{"trafikant", "bilist"}, CallerTrafikant},
	{[]string{"amk", "brann"}, CallerAMK},
}

var (
	broytingWords = map[string]bool{
		"brøyting": true, "brøytet": true, "brøyta": true, "brøyte": true,
		"brøyter": true, "brøytes": true, "brøytt": true,
	}
	stroingWords = map[string]bool{
		"strøing": true, "strødd": true, "strødde": true, "strø": true, "strør": true,
		"strøs": true, "salting": true, "saltet": true, "salta": true, "salte": true,
	}
	operativPhrases = []string{
		"kalt ut", "kalte ut", "kallte ut", "bestilt", "bedt om", "iverksatt", "strøbil", "brøytebil",
	}
)

// DomainKeywords are tested by substring against the folded transcript.
var DomainKeywords = []string{
	"glatt", "holke", "islagt", "snø", "fokk",
	"stengt", "sperret", "ulykke", "kollisjon", "utforkjøring",
	"dårlig sikt", "friksjon", "vakttlf", "vaktelefon", "brøyt",
	"strø", "salt", "plog", "brøytestikk", "skilt",
	"leskur", "skred", "vannplaning", "hull", "trafikkfare",
}
