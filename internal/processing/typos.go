package processing

import (
	"regexp"
	"strings"

	"github.com/mrericsingh-eng/normalize/internal/places"
)

var (
	// digits with separators, and the "917 555 12345" spaced shape
	phoneRun       = regexp.MustCompile(`\+?\(?\d[\d().-]{5,}\d`)
	spacedPhoneRun = regexp.MustCompile(`\(?\d{3}\)?\s\d{3}[\s.-]?\d{3,5}\b`)
	wordRun        = regexp.MustCompile(`\b[A-Z][a-z]+\b`)
)

var zipWords = map[string]bool{"zip": true, "zie": true, "zipcode": true, "zip-code": true}

// DetectTypos is the model-free typo detector. Names of people and of
// hotels or restaurants are not places and are skipped.
func DetectTypos(text string, contact Contact, entities []Entity) Typos {
	var t Typos
	skip := skipWords(contact, entities)
	t.CityTypo, t.CountryTypo = placeTypos(maskMatches(text, nameMatches(text)), skip)
	t.PhoneNumberTypo = strPtr(phoneTypo(text))
	t.ZipCodeTypo = strPtr(zipTypo(text))
	return t
}

func skipWords(contact Contact, entities []Entity) map[string]bool {
	skip := make(map[string]bool)
	for _, p := range []*string{contact.FirstName, contact.LastName} {
		if p != nil {
			skip[strings.ToLower(*p)] = true
		}
	}
	for _, e := range entities {
		if e.Type == EntityHotel || e.Type == EntityRestaurant {
			for _, w := range strings.Fields(e.Value) {
				skip[w] = true
			}
		}
	}
	for w := range notPlaces {
		skip[w] = true
	}
	return skip
}

// placeTypos looks at capitalized words and adjacent pairs of them.
func placeTypos(text string, skip map[string]bool) (city, country *string) {
	locs := wordRun.FindAllStringIndex(text, -1)
	var tokens []string
	for i, loc := range locs {
		w := strings.ToLower(text[loc[0]:loc[1]])
		if i+1 < len(locs) && strings.TrimSpace(text[loc[1]:locs[i+1][0]]) == "" {
			next := strings.ToLower(text[locs[i+1][0]:locs[i+1][1]])
			if !skip[w] && !skip[next] {
				tokens = append(tokens, w+" "+next)
			}
		}
		if !skip[w] {
			tokens = append(tokens, w)
		}
	}

	for _, tok := range tokens {
		if city != nil && country != nil {
			break
		}
		if _, known := places.Lookup(tok); known {
			continue
		}
		if city == nil {
			if fixed, ok := places.Suggest(tok, places.City); ok {
				city = strPtr(tok + " -> " + fixed)
				continue
			}
		}
		if country == nil {
			if fixed, ok := places.Suggest(tok, places.Country); ok {
				country = strPtr(tok + " -> " + fixed)
			}
		}
	}
	return city, country
}

// phoneTypo returns the digits of the first phone-like number whose length
// cannot be a US number: 9 digits, or 11 to 15. Numbers written with a
// country code prefix are international and left alone.
func phoneTypo(text string) string {
	for _, re := range []*regexp.Regexp{phoneRun, spacedPhoneRun} {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			m := text[loc[0]:loc[1]]
			if strings.HasPrefix(m, "+") || (loc[0] > 0 && text[loc[0]-1] == '+') {
				continue
			}
			d := PhoneDigits(m)
			if n := len(d); n == 9 || (n >= 11 && n <= 15) {
				return d
			}
		}
	}
	return ""
}

// zipTypo returns a 3 to 9 digit number that sits within three words of a
// ZIP keyword and is not 5 digits long. Words after the keyword are looked
// at before words in front of it.
func zipTypo(text string) string {
	words := strings.Fields(strings.ToLower(text))
	for i := range words {
		words[i] = strings.Trim(words[i], ".,;:!?()\"'#")
	}
	for i, w := range words {
		isKey := zipWords[w] || (w == "postal" && i+1 < len(words) && words[i+1] == "code")
		if !isKey {
			continue
		}
		from := i + 1
		if w == "postal" {
			from = i + 2
		}
		for _, j := range zipWindow(from, i, len(words)) {
			d := words[j]
			if d == "" || PhoneDigits(d) != d {
				continue
			}
			if len(d) == 5 {
				return ""
			}
			if len(d) >= 3 && len(d) <= 9 {
				return d
			}
		}
	}
	return ""
}

// zipWindow lists the word indexes after the keyword, then before it.
func zipWindow(after, key, n int) []int {
	var idx []int
	for j := after; j < after+3 && j < n; j++ {
		idx = append(idx, j)
	}
	for j := key - 1; j >= key-3 && j >= 0; j-- {
		idx = append(idx, j)
	}
	return idx
}
