package processing

import (
	"regexp"
	"strings"
)

var (
	reSpaces   = regexp.MustCompile(`\s+`)
	reNonDigit = regexp.MustCompile(`\D`)
	reEmail    = regexp.MustCompile(`^[\w.+-]+@[\w.-]+\.\w+$`)
	reZip      = regexp.MustCompile(`^\d{5}$`)
)

// NormalizeText trims, lowercases and collapses whitespace.
func NormalizeText(text string) string {
	return reSpaces.ReplaceAllString(strings.ToLower(strings.TrimSpace(text)), " ")
}

// PhoneDigits strips everything but digits.
func PhoneDigits(phone string) string {
	return reNonDigit.ReplaceAllString(phone, "")
}

func IsValidEmail(email string) bool { return reEmail.MatchString(email) }

// IsValidZip accepts US 5-digit ZIP codes only.
func IsValidZip(zip string) bool { return reZip.MatchString(zip) }
