package processing

import (
	"fmt"

	"github.com/mrericsingh-eng/normalize/internal/llm"
)

const categorizeSystemPrompt = `Classify a travel advisor message into exactly one category: "urgent", "high_risk", or "base".

RULES:
- high_risk: Safety, medical, legal, or fraud threats regardless of timing. Examples: lost passport, hospital, police, arrested, scam, credit card stolen, medical emergency, kidnapped, visa denied
- urgent: Caller needs reply/action within 24h. Look for explicit time windows like "today", "tonight", "tomorrow", "in two hours", "ASAP", "immediately", "first thing"
- base: None of the above (general questions, future planning)

IMPORTANT: If both urgent and high_risk apply, return "high_risk" (it takes precedence).

Respond with ONLY the category name: urgent, high_risk, or base`

func buildCategorizeRequest(text string) llm.Request {
	return llm.Request{
		System:      categorizeSystemPrompt,
		Prompt:      fmt.Sprintf("Message: %q", text),
		Temperature: 0,
		MaxTokens:   10,
	}
}

const contactSystemPrompt = `Extract contact information from a travel advisor message. Return a JSON object with these fields:
- first_name: First name (string or null)
- last_name: Last name (string or null)
- email: Email address (string or null)
- phone: Phone number digits only (string or null)
- zip: US ZIP code (string or null)

RULES:
- For phone: extract digits only, remove all formatting (e.g., "(917) 555-1234" -> "9175551234")
- For names, accept any of these patterns:
  * "I'm John Smith" -> first_name: "John", last_name: "Smith"
  * "I'm John", "I'm Alex.", "This is Alex", "My name is Sarah", "I am David" -> first_name only
- Titles:
  * "I am Mr. Smith", "I am Mrs. Johnson", "I am Dr. Brown" -> first_name: null, last_name: the surname
  * "I am Dr. Nalwa. Also known as Hari" -> first_name: "Hari", last_name: "Nalwa"
  * Take last names from titles (Mr./Mrs./Ms./Dr./Prof. + surname) AND first names from "also known as" or similar phrases
- For ZIP: only US 5-digit ZIP codes
- Set fields to null if not found

Return ONLY valid JSON.`

func buildContactRequest(text string) llm.Request {
	return llm.Request{
		System:      contactSystemPrompt,
		Prompt:      fmt.Sprintf("Message: %q", text),
		Temperature: 0,
		MaxTokens:   150,
		JSON:        true,
	}
}

const entitiesSystemPrompt = `Extract travel-related entities AND detect typos from a travel advisor message.

ENTITY TYPES:
- city: Cities, towns, or urban places (e.g., "Rome", "New York City", "Paris", "Tokyo", "Seattle", "Vancouver")
- country: Countries or nations (e.g., "South Africa", "Mexico", "South Korea", "United States", "Canada")
- hotel: Hotels, resorts, inns, lodges (e.g., "Marriott", "Chapter Roma", "Four Seasons", "Hilton")
- restaurant: Restaurants, cafes, bistros, trattorias (e.g., "Olive Garden", "Joe's Pizza", "Bistro Romano")

TYPO DETECTION:
- city_typo: Obvious city misspellings, written "typed -> correct" (e.g., "lndon -> london", "seatlee -> seattle")
- country_typo: Country misspellings (e.g., "mexco -> mexico")
- phone_number_typo: Phone numbers with a wrong digit count (9, or 11 and more digits), digits only
- zip_code_typo: ZIP codes that are not 5 digits when mentioned with "zip" context, digits only

RULES:
- Return entity values in lowercase
- Extract ALL locations mentioned, including current location AND destinations
- Use "city" for cities and "country" for countries; never mix them up
- For hotels: hotel names, hotel chains, accommodation mentions (e.g., "staying at Marriott")
- For restaurants: restaurant names and dining places (e.g., "eat at Olive Garden")
- For typos: only include obvious misspellings, be conservative
- Return empty arrays/nulls if nothing found

Return ONLY valid JSON in this shape:
{"entities": [{"type": "city", "value": "rome"}, {"type": "hotel", "value": "chapter roma"}],
 "typos": {"city_typo": null, "country_typo": null, "phone_number_typo": null, "zip_code_typo": null}}`

func buildEntitiesRequest(text string) llm.Request {
	return llm.Request{
		System:      entitiesSystemPrompt,
		Prompt:      fmt.Sprintf("Message: %q", text),
		Temperature: 0,
		MaxTokens:   300,
		JSON:        true,
	}
}
