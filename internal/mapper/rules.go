package mapper

import (
	"regexp"

	"github.com/MikeSquared-Agency/roadlog/internal/extractor"
)

const freeTextLimit = 200

const optionOther = "Annet"

var callPhrases = []string{
	"ble oppringt", "oppringt av", "ringte", "telefon fra", "vakttlf", "vts", "vegtrafikksentral", "varslet", "melding fra",
}

type labelRule struct {
	needles []string
	label   string
}

var incidentRules = []labelRule{
	{[]string{"glatt", "snø", "holke", "islagt"}, "Glatt vei"},
	{[]string{"stengt", "sperret"}, "Stengt vei"},
	{[]string{"ulykke", "kollisjon", "utforkjøring"}, "Ulykke"},
	{[]string{"dårlig sikt", "nedsatt sikt", "siktforhold"}, "Dårlig sikt"},
}

// order matters: an explicit plowing order beats a gritting truck mention
var decisionMeasureRules = []labelRule{
	{[]string{"brøyt"}, "Brøyting"},
	{[]string{"strø", "salt"}, "Strøing"},
	{[]string{"befaring", "sjekk"}, "Befaring"},
}

var pastMeasureRules = []labelRule{
	{[]string{"brøytet"}, "Brøyting"},
	{[]string{"strødde", "strødd"}, "Strøing"},
	{[]string{"befaring"}, "Befaring"},
}

var noMeasurePhrases = []string{"ingen tiltak", "ikke iverksatt"}

var (
	completedPhrases  = []string{"utført", "ferdig"}
	inProgressPhrases = []string{"pågår"}
	// Matched as whole words so "underveis" and "undersøkt" stay out.
	inProgressWords = []string{"under"}
)

var completedRules = []labelRule{
	{[]string{"brøyt"}, "Utført brøyting"},
	{[]string{"strø", "salt"}, "Utført strøing"},
	{[]string{"befaring", "sjekk"}, "Utført befaring"},
}

var machineRules = []labelRule{
	{[]string{"hjullaster"}, "Hjullaster"},
	{[]string{"traktor"}, "Traktor"},
	{[]string{"lastebil"}, "Lastebil"},
	{[]string{"brøytebil"}, "Brøytebil"},
	{[]string{"strøbil"}, "Strøbil"},
	{[]string{"veihøvel", "veghøvel"}, "Veihøvel"},
	{[]string{"gravemaskin"}, "Gravemaskin"},
	{[]string{"snøfreser"}, "Snøfreser"},
	{[]string{"feiemaskin"}, "Feiemaskin"},
	{[]string{"plog"}, "Plog"},
}

// longer names first so "obs bygg" is not shadowed by a shorter chain
var retailers = []labelRule{
	{[]string{"clas ohlson"}, "Clas Ohlson"},
	{[]string{"felleskjøpet"}, "Felleskjøpet"},
	{[]string{"byggmakker"}, "Byggmakker"},
	{[]string{"mekonomen"}, "Mekonomen"},
	{[]string{"obs bygg"}, "Obs Bygg"},
	{[]string{"rema 1000"}, "Rema 1000"},
	{[]string{"europris"}, "Europris"},
	{[]string{"biltema"}, "Biltema"},
	{[]string{"maxbo"}, "Maxbo"},
	{[]string{"jula"}, "Jula"},
	{[]string{"coop"}, "Coop"},
	{[]string{"kiwi"}, "Kiwi"},
}

// boolSignals lists the action tags that resolve a boolean field to true.
var boolSignals = map[string][]extractor.Action{
	"tiltak_startet": {extractor.ActionBroyting, extractor.ActionStroing, extractor.ActionOperativBeslutning},
}

var (
	purchaseItemRe = regexp.MustCompile(`(?i:kjøpt|kjøpte|handlet|handla)\s+(?:(?i:inn)\s+)?(?:\d+\s*(?i:stk)\.?\s+)?(.+?)(?:\s+(?i:på|hos|fra|til|for|i)\s|[.,;!?]|$)`)
	countItemRe    = regexp.MustCompile(`(\d+)\s*(?i:stk)\.?\s+(\p{L}+)`)
	storeRe        = regexp.MustCompile(`(?:^|[^\p{L}])(?i:hos|fra)\s+(\p{Lu}[\p{L}\d]*(?:\s\p{Lu}[\p{L}\d]*)?)`)
)
