package processing

import "time"

// Category is the urgency class of a message.
type Category string

const (
	CategoryUrgent   Category = "urgent"
	CategoryHighRisk Category = "high_risk"
	CategoryBase     Category = "base"
)

// ParseCategory accepts exactly the three category names.
func ParseCategory(s string) (Category, bool) {
	switch c := Category(s); c {
	case CategoryUrgent, CategoryHighRisk, CategoryBase:
		return c, true
	}
	return "", false
}

// EntityType is the kind of a travel entity.
type EntityType string

const (
	EntityCity       EntityType = "city"
	EntityCountry    EntityType = "country"
	EntityHotel      EntityType = "hotel"
	EntityRestaurant EntityType = "restaurant"
)

func (t EntityType) Valid() bool {
	switch t {
	case EntityCity, EntityCountry, EntityHotel, EntityRestaurant:
		return true
	}
	return false
}

// IsLocation reports whether the entity is a place with a country.
func (t EntityType) IsLocation() bool {
	return t == EntityCity || t == EntityCountry
}

// NormalizeIn is the request body of /normalize.
type NormalizeIn struct {
	MessageID string `json:"message_id"`
	Text      string `json:"text"`
}

// Contact fields are nil when absent or invalid. Phone is 10 digits, Zip is
// a 5-digit US ZIP code.
type Contact struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	Zip       *string `json:"zip"`
}

func (c Contact) IsEmpty() bool {
	return c.FirstName == nil && c.LastName == nil && c.Email == nil && c.Phone == nil && c.Zip == nil
}

// Entity values are lowercase.
type Entity struct {
	Type  EntityType `json:"type"`
	Value string     `json:"value"`
}

// Typos found in the message. City and country typos read
// "<typed> -> <correct>"; phone and ZIP typos carry the offending digits.
type Typos struct {
	CityTypo        *string `json:"city_typo"`
	CountryTypo     *string `json:"country_typo"`
	PhoneNumberTypo *string `json:"phone_number_typo"`
	ZipCodeTypo     *string `json:"zip_code_typo"`
}

func (t Typos) IsEmpty() bool {
	return t.CityTypo == nil && t.CountryTypo == nil && t.PhoneNumberTypo == nil && t.ZipCodeTypo == nil
}

type Enrichment struct {
	LocalEmergencyNumbers []string `json:"local_emergency_numbers"`
	Typos
}

func (e Enrichment) IsEmpty() bool {
	return len(e.LocalEmergencyNumbers) == 0 && e.Typos.IsEmpty()
}

// NormalizeOut is the normalized record. Empty sections serialize as null.
type NormalizeOut struct {
	MessageID  string      `json:"message_id"`
	Category   Category    `json:"category"`
	Contact    *Contact    `json:"contact"`
	Entities   []Entity    `json:"entities"`
	Enrichment *Enrichment `json:"enrichment"`
}

// Source tells whether a stage answered from the model or the fallback.
type Source string

const (
	SourceLLM      Source = "llm"
	SourceFallback Source = "fallback"
)

// Outcome describes one finished normalization; the processor hands it to
// its observer.
type Outcome struct {
	MessageID string
	Category  Category
	// Fallbacks lists the stages that used the deterministic path.
	Fallbacks []string
	Duration  time.Duration
	Err       error
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
