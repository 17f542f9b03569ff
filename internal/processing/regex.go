package processing

import (
	"regexp"
	"strings"
)

// Keyword pattern and the category it signals.
type pattern struct {
	re       *regexp.Regexp
	category Category
}

// High-risk patterns are listed first: they win over urgent ones.
// Case-insensitive, whole words.
func buildPatterns() []pattern {
	return []pattern{
		{regexp.MustCompile(`(?i)\b(lost\s+(?:my\s+|her\s+|his\s+|their\s+)?passport|passport\s+(?:was\s+)?stolen|wallet\s+(?:was\s+)?stolen|credit\s+card\s+(?:was\s+)?stolen)\b`), CategoryHighRisk},
		{regexp.MustCompile(`(?i)\b(hospital|medical\s+emergency|police|arrested|kidnapped|visa\s+denied|scam|fraud|stolen|emergency)\b`), CategoryHighRisk},
		{regexp.MustCompile(`(?i)\b(today|tonight|tomorrow|asap|immediately|urgent|now|first\s+thing)\b`), CategoryUrgent},
	}
}

var categoryPatterns = buildPatterns()

// detectCategory is the keyword fallback for Categorize.
func detectCategory(text string) Category {
	t := strings.TrimSpace(text)
	if t == "" {
		return CategoryBase
	}
	for _, p := range categoryPatterns {
		if p.re.MatchString(t) {
			return p.category
		}
	}
	return CategoryBase
}

// Contact heuristics.
var (
	fullNamePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:I[’']m|I am|[Tt]his is)\s+([A-Z][a-z]+)\s+([A-Z][a-z]+)`),
		regexp.MustCompile(`(?:Hi|Hello|Hey)\s+[A-Za-z]+,\s*I[’']m\s+([A-Z][a-z]+)\s+([A-Z][a-z]+)`),
		regexp.MustCompile(`[Mm]y name is\s+([A-Z][a-z]+)\s+([A-Z][a-z]+)`),
	}
	firstNamePattern = regexp.MustCompile(`(?:I[’']m|I am|[Tt]his is|[Mm]y name is)\s+([A-Z][a-z]+)\b`)
	titlePattern     = regexp.MustCompile(`\b(?:Mr|Mrs|Ms|Dr|Prof)\.?\s+([A-Z][a-z]+)`)
	akaPattern       = regexp.MustCompile(`\b(?i:also known as|aka|a\.k\.a\.|call me)\s+([A-Z][a-z]+)`)

	emailPattern = regexp.MustCompile(`[\w.+-]+@[\w.-]+\.\w+`)

	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\((\d{3})\)\s*(\d{3})[-.]?(\d{4})\b`),
		regexp.MustCompile(`\b(\d{3})[-.](\d{3})[-.](\d{4})\b`),
		regexp.MustCompile(`\b(\d{3})\s+(\d{3})\s+(\d{4})\b`),
		regexp.MustCompile(`\b(\d{10})\b`),
	}

	zipPattern = regexp.MustCompile(`\b(\d{5})\b`)
)

var nameTitles = map[string]bool{"Mr": true, "Mrs": true, "Ms": true, "Dr": true, "Prof": true}

// Entity heuristics.
var (
	// "in Paris", "to New York"
	placeAfterPreposition = regexp.MustCompile(`\b(?:in|to)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`)
	hotelPattern          = regexp.MustCompile(`\b(?i:staying at|stay at|booked at|checked into|check into|room at)\s+(?:the\s+)?([A-Z][\w'&-]*(?:\s+[A-Z][\w'&-]*)*)`)
	restaurantPattern     = regexp.MustCompile(`\b(?i:eat at|eating at|dine at|dining at|dinner at|lunch at|breakfast at|brunch at|reservation at)\s+(?:the\s+)?([A-Z][\w'&-]*(?:\s+[A-Z][\w'&-]*)*)`)
	capitalizedRun        = regexp.MustCompile(`\b[A-Z][a-zA-Z]*(?:\s+[A-Z][a-zA-Z]*)*`)
)

// Well-known chains, matched case-insensitively as whole words.
var hotelChains = []string{
	"chapter roma", "four seasons", "holiday inn", "intercontinental", "mandarin oriental",
	"marriott", "hilton", "hyatt", "radisson", "ritz carlton", "ritz-carlton",
	"sheraton", "st regis", "waldorf astoria", "westin",
}

// Capitalized words that follow "in"/"to" without being places.
var notPlaces = map[string]bool{
	"january": true, "february": true, "march": true, "april": true, "may": true, "june": true,
	"july": true, "august": true, "september": true, "october": true, "november": true, "december": true,
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true, "friday": true,
	"saturday": true, "sunday": true, "i": true, "the": true, "my": true, "our": true,
	"fora": true, "christmas": true, "easter": true,
}
