package processing

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/codes"
)

// ExtractContact pulls the caller's contact fields out of text, through the
// model when it answers with usable JSON and through regexes otherwise.
// Every field is sanitized either way.
func (p *Pipeline) ExtractContact(ctx context.Context, text string) (Contact, Source) {
	ctx, span := p.tracer.Start(ctx, "processing.ExtractContact")
	defer span.End()

	reply, err := p.llm.Complete(ctx, buildContactRequest(text))
	if err == nil {
		var c Contact
		if c, err = parseContact(reply); err == nil {
			return c, SourceLLM
		}
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "llm failed")
	p.fallback("contact", err)
	return fallbackContact(text), SourceFallback
}

func parseContact(reply string) (Contact, error) {
	v, err := decodeLoose(reply)
	if err != nil {
		return Contact{}, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return Contact{}, errNoJSON
	}
	return sanitizeContact(
		looseString(obj["first_name"]),
		looseString(obj["last_name"]),
		looseString(obj["email"]),
		looseString(obj["phone"]),
		looseString(obj["zip"]),
	), nil
}

// sanitizeContact drops every field that is not well formed.
func sanitizeContact(first, last, email, phone, zip string) Contact {
	var c Contact
	c.FirstName = strPtr(strings.TrimSpace(first))
	c.LastName = strPtr(strings.TrimSpace(last))
	if email = strings.TrimSpace(email); IsValidEmail(email) {
		c.Email = &email
	}
	if digits := PhoneDigits(phone); len(digits) == 10 {
		c.Phone = &digits
	}
	if zip = strings.TrimSpace(zip); IsValidZip(zip) {
		c.Zip = &zip
	}
	return c
}

// Capitalized words that follow "I'm" without being a name.
var notNames = map[string]bool{
	"Traveling": true, "Travelling": true, "Going": true, "Looking": true, "Currently": true,
	"Stuck": true, "Here": true, "Very": true, "Not": true, "Planning": true, "Calling": true,
	"Writing": true, "Sorry": true, "So": true, "In": true, "At": true, "From": true, "Back": true,
}

func nameWord(w string) bool { return !nameTitles[w] && !notNames[w] }

func fallbackContact(text string) Contact {
	var first, last string
	for _, re := range fullNamePatterns {
		if m := re.FindStringSubmatch(text); m != nil && nameWord(m[1]) && nameWord(m[2]) {
			first, last = m[1], m[2]
			break
		}
	}
	if last == "" {
		if m := titlePattern.FindStringSubmatch(text); m != nil {
			last = m[1]
		}
	}
	if first == "" {
		if m := akaPattern.FindStringSubmatch(text); m != nil {
			first = m[1]
		}
	}
	if first == "" && last == "" {
		for _, m := range firstNamePattern.FindAllStringSubmatch(text, -1) {
			if nameWord(m[1]) {
				first = m[1]
				break
			}
		}
	}

	email := emailPattern.FindString(text)

	var phone string
	for _, re := range phonePatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			phone = strings.Join(m[1:], "")
			break
		}
	}

	var zip string
	if m := zipPattern.FindStringSubmatch(text); m != nil {
		zip = m[1]
	}

	return sanitizeContact(first, last, email, phone, zip)
}
