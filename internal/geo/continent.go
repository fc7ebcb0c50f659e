// Package geo maps ISO 3166-1 alpha-2 country codes to continent codes.
package geo

import "strings"

// Continent codes.
const (
	Africa       = "AF"
	Antarctica   = "AN"
	Asia         = "AS"
	Europe       = "EU"
	NorthAmerica = "NA"
	Oceania      = "OC"
	SouthAmerica = "SA"
)

var continentCountries = map[string]string{
	Africa: "AO BF BI BJ BW CD CF CG CI CM CV DJ DZ EG EH ER ET GA GH GM GN GQ GW KE KM LR LS LY MA MG ML MR MU MW " +
		"MZ NA NE NG RE RW SC SD SH SL SN SO SS ST SZ TD TG TN TZ UG YT ZA ZM ZW",
	Antarctica: "AQ BV GS HM TF",
	Asia: "AE AF AM AZ BD BH BN BT CC CN CX GE HK ID IL IN IO IQ IR JO JP KG KH KP KR KW KZ LA LB LK MM MN MO MV " +
		"MY NP OM PH PK PS QA SA SG SY TH TJ TL TM TR TW UZ VN YE",
	Europe: "AD AL AT AX BA BE BG BY CH CY CZ DE DK EE ES FI FO FR GB GG GI GR HR HU IE IM IS IT JE LI LT LU LV MC " +
		"MD ME MK MT NL NO PL PT RO RS RU SE SI SJ SK SM UA VA XK",
	NorthAmerica: "AG AI AW BB BL BM BQ BS BZ CA CR CU CW DM DO GD GL GP GT HN HT JM KN KY LC MF MQ MS MX NI PA PM PR " +
		"SV SX TC TT US VC VG VI",
	Oceania:      "AS AU CK FJ FM GU KI MH MP NC NF NR NU NZ PF PG PN PW SB TK TO TV UM VU WF WS",
	SouthAmerica: "AR BO BR CL CO EC FK GF GY PE PY SR UY VE",
}

// countryAliases maps common country names and non-ISO codes to alpha-2 codes.
var countryAliases = map[string]string{
	"uk":                       "GB",
	"united kingdom":           "GB",
	"great britain":            "GB",
	"england":                  "GB",
	"usa":                      "US",
	"united states":            "US",
	"united states of america": "US",
	"canada":                   "CA",
	"china":                    "CN",
	"hong kong":                "HK",
	"germany":                  "DE",
	"france":                   "FR",
	"japan":                    "JP",
	"south korea":              "KR",
	"korea":                    "KR",
	"singapore":                "SG",
	"australia":                "AU",
	"brazil":                   "BR",
	"india":                    "IN",
	"netherlands":              "NL",
	"switzerland":              "CH",
	"taiwan":                   "TW",
	"vietnam":                  "VN",
	"russia":                   "RU",
	"ukraine":                  "UA",
}

var countryToContinent = buildIndex()

func buildIndex() map[string]string {
	idx := make(map[string]string, 256)
	for continent, codes := range continentCountries {
		for _, code := range strings.Fields(codes) {
			idx[code] = continent
		}
	}
	return idx
}

// NormalizeCountry converts a country name or code to its alpha-2 code.
// Unrecognized input is returned trimmed and upper-cased.
func NormalizeCountry(s string) string {
	s = strings.TrimSpace(s)
	if code, ok := countryAliases[strings.ToLower(s)]; ok {
		return code
	}
	return strings.ToUpper(s)
}

// Continent returns the continent code for a country, or "" when unknown.
func Continent(country string) string {
	return countryToContinent[NormalizeCountry(country)]
}
