package places

import (
	"sort"
	"strings"
)

// Kind tells cities and countries apart in the static table.
type Kind int

const (
	City Kind = iota + 1
	Country
)

func (k Kind) String() string {
	switch k {
	case City:
		return "city"
	case Country:
		return "country"
	default:
		return "unknown"
	}
}

// Place is one entry of the static table.
type Place struct {
	Name string
	Code string // ISO 3166-1 alpha-2
	Kind Kind
}

// Country names (and common aliases) travellers mention.
var countries = map[string]string{
	"south africa":         "ZA",
	"south korea":          "KR",
	"korea":                "KR",
	"north korea":          "KP",
	"united states":        "US",
	"usa":                  "US",
	"united kingdom":       "GB",
	"uk":                   "GB",
	"great britain":        "GB",
	"england":              "GB",
	"scotland":             "GB",
	"ireland":              "IE",
	"germany":              "DE",
	"france":               "FR",
	"italy":                "IT",
	"spain":                "ES",
	"portugal":             "PT",
	"greece":               "GR",
	"netherlands":          "NL",
	"belgium":              "BE",
	"switzerland":          "CH",
	"austria":              "AT",
	"sweden":               "SE",
	"norway":               "NO",
	"denmark":              "DK",
	"finland":              "FI",
	"iceland":              "IS",
	"poland":               "PL",
	"czech republic":       "CZ",
	"czechia":              "CZ",
	"hungary":              "HU",
	"croatia":              "HR",
	"china":                "CN",
	"japan":                "JP",
	"australia":            "AU",
	"new zealand":          "NZ",
	"canada":               "CA",
	"mexico":               "MX",
	"brazil":               "BR",
	"argentina":            "AR",
	"chile":                "CL",
	"colombia":             "CO",
	"peru":                 "PE",
	"venezuela":            "VE",
	"costa rica":           "CR",
	"russia":               "RU",
	"india":                "IN",
	"thailand":             "TH",
	"vietnam":              "VN",
	"singapore":            "SG",
	"malaysia":             "MY",
	"indonesia":            "ID",
	"philippines":          "PH",
	"turkey":               "TR",
	"egypt":                "EG",
	"morocco":              "MA",
	"kenya":                "KE",
	"nigeria":              "NG",
	"ghana":                "GH",
	"tanzania":             "TZ",
	"iran":                 "IR",
	"iraq":                 "IQ",
	"israel":               "IL",
	"jordan":               "JO",
	"lebanon":              "LB",
	"saudi arabia":         "SA",
	"qatar":                "QA",
	"uae":                  "AE",
	"united arab emirates": "AE",
}

// Major cities mapped straight to their country, so the common case needs
// no geocoder round trip.
var cities = map[string]string{
	"paris":          "FR",
	"lyon":           "FR",
	"london":         "GB",
	"edinburgh":      "GB",
	"manchester":     "GB",
	"dublin":         "IE",
	"berlin":         "DE",
	"munich":         "DE",
	"frankfurt":      "DE",
	"hamburg":        "DE",
	"madrid":         "ES",
	"barcelona":      "ES",
	"seville":        "ES",
	"lisbon":         "PT",
	"porto":          "PT",
	"rome":           "IT",
	"roma":           "IT",
	"milan":          "IT",
	"florence":       "IT",
	"venice":         "IT",
	"naples":         "IT",
	"athens":         "GR",
	"amsterdam":      "NL",
	"brussels":       "BE",
	"vienna":         "AT",
	"zurich":         "CH",
	"geneva":         "CH",
	"stockholm":      "SE",
	"oslo":           "NO",
	"copenhagen":     "DK",
	"helsinki":       "FI",
	"reykjavik":      "IS",
	"prague":         "CZ",
	"budapest":       "HU",
	"warsaw":         "PL",
	"dubrovnik":      "HR",
	"moscow":         "RU",
	"st petersburg":  "RU",
	"istanbul":       "TR",
	"tokyo":          "JP",
	"osaka":          "JP",
	"kyoto":          "JP",
	"seoul":          "KR",
	"beijing":        "CN",
	"shanghai":       "CN",
	"hong kong":      "HK",
	"bangkok":        "TH",
	"hanoi":          "VN",
	"mumbai":         "IN",
	"delhi":          "IN",
	"bangalore":      "IN",
	"bali":           "ID",
	"sydney":         "AU",
	"melbourne":      "AU",
	"auckland":       "NZ",
	"toronto":        "CA",
	"vancouver":      "CA",
	"montreal":       "CA",
	"new york":       "US",
	"new york city":  "US",
	"nyc":            "US",
	"los angeles":    "US",
	"chicago":        "US",
	"san francisco":  "US",
	"miami":          "US",
	"las vegas":      "US",
	"boston":         "US",
	"washington":     "US",
	"seattle":        "US",
	"honolulu":       "US",
	"mexico city":    "MX",
	"cancun":         "MX",
	"tulum":          "MX",
	"rio de janeiro": "BR",
	"sao paulo":      "BR",
	"buenos aires":   "AR",
	"lima":           "PE",
	"cusco":          "PE",
	"santiago":       "CL",
	"bogota":         "CO",
	"cartagena":      "CO",
	"caracas":        "VE",
	"cairo":          "EG",
	"marrakech":      "MA",
	"cape town":      "ZA",
	"johannesburg":   "ZA",
	"nairobi":        "KE",
	"tel aviv":       "IL",
	"jerusalem":      "IL",
	"dubai":          "AE",
	"abu dhabi":      "AE",
	"doha":           "QA",
	"riyadh":         "SA",
}

var (
	cityNames    = sortedKeys(cities)
	countryNames = sortedKeys(countries)
)

func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Normalize lowercases a place name and collapses inner whitespace.
func Normalize(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// Lookup resolves a place name against the static table. Countries win over
// cities when a name is both (e.g. "singapore").
func Lookup(name string) (Place, bool) {
	n := Normalize(name)
	if code, ok := countries[n]; ok {
		return Place{Name: n, Code: code, Kind: Country}, true
	}
	if code, ok := cities[n]; ok {
		return Place{Name: n, Code: code, Kind: City}, true
	}
	return Place{}, false
}

// CountryCode is Lookup reduced to the ISO code.
func CountryCode(name string) (string, bool) {
	p, ok := Lookup(name)
	return p.Code, ok
}

// IsCountry reports whether name is a known country name.
func IsCountry(name string) bool {
	_, ok := countries[Normalize(name)]
	return ok
}

// Names returns the known names of the given kind in sorted order.
func Names(kind Kind) []string {
	var src []string
	switch kind {
	case City:
		src = cityNames
	case Country:
		src = countryNames
	default:
		return nil
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}
