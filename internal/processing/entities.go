package processing

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mrericsingh-eng/normalize/internal/integrations/geocoder"
	"github.com/mrericsingh-eng/normalize/internal/places"
)

// Extraction is what ExtractEntities found in one message.
type Extraction struct {
	Entities []Entity
	// Countries maps lowercase city and country values to ISO codes.
	Countries map[string]string
	// Typos reported by the model, if any.
	Typos Typos
}

// ExtractEntities finds cities, countries, hotels and restaurants, and
// resolves the places to country codes.
func (p *Pipeline) ExtractEntities(ctx context.Context, text string) (Extraction, Source) {
	ctx, span := p.tracer.Start(ctx, "processing.ExtractEntities")
	defer span.End()

	reply, err := p.llm.Complete(ctx, buildEntitiesRequest(text))
	if err == nil {
		var (
			ents  []Entity
			typos Typos
		)
		if ents, typos, err = parseEntities(reply); err == nil {
			span.SetAttributes(attribute.Int("entities", len(ents)))
			return Extraction{Entities: ents, Countries: p.countryMap(ctx, ents), Typos: typos}, SourceLLM
		}
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "llm failed")
	p.fallback("entities", err)

	ents, countries := p.fallbackEntities(ctx, text)
	span.SetAttributes(attribute.Int("entities", len(ents)), attribute.Bool("fallback", true))
	return Extraction{Entities: ents, Countries: countries}, SourceFallback
}

// parseEntities accepts {"entities": [...], "typos": {...}} or a bare
// entity array.
func parseEntities(reply string) ([]Entity, Typos, error) {
	v, err := decodeLoose(reply)
	if err != nil {
		return nil, Typos{}, err
	}

	var (
		items []any
		typos Typos
	)
	switch x := v.(type) {
	case []any:
		items = x
	case map[string]any:
		if raw, present := x["entities"]; present && raw != nil {
			list, ok := raw.([]any)
			if !ok {
				return nil, Typos{}, errors.New("entities is not a list")
			}
			items = list
		}
		if t, ok := x["typos"].(map[string]any); ok {
			typos = parseTypos(t)
		}
	default:
		return nil, Typos{}, errNoJSON
	}
	return validEntities(items), typos, nil
}

func validEntities(items []any) []Entity {
	var out []Entity
	seen := make(map[Entity]bool)
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		typ, _ := obj["type"].(string)
		val, ok := obj["value"].(string)
		if !ok {
			continue
		}
		e := Entity{
			Type:  EntityType(strings.ToLower(strings.TrimSpace(typ))),
			Value: strings.ToLower(strings.TrimSpace(val)),
		}
		if !e.Type.Valid() || e.Value == "" || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}

func parseTypos(t map[string]any) Typos {
	return Typos{
		CityTypo:        strPtr(strings.ToLower(looseString(t["city_typo"]))),
		CountryTypo:     strPtr(strings.ToLower(looseString(t["country_typo"]))),
		PhoneNumberTypo: strPtr(looseString(t["phone_number_typo"])),
		ZipCodeTypo:     strPtr(looseString(t["zip_code_typo"])),
	}
}

// countryMap resolves every city and country entity. Cities the static
// table does not know are geocoded concurrently; the static table decides
// for everything it knows.
func (p *Pipeline) countryMap(ctx context.Context, ents []Entity) map[string]string {
	out := make(map[string]string)
	var unknown []string
	queued := make(map[string]bool)
	for _, e := range ents {
		if !e.Type.IsLocation() {
			continue
		}
		if code, ok := places.CountryCode(e.Value); ok {
			out[e.Value] = code
			continue
		}
		if e.Type == EntityCity && !queued[e.Value] {
			queued[e.Value] = true
			unknown = append(unknown, e.Value)
		}
	}

	for name, code := range p.geocodeAll(ctx, unknown) {
		out[name] = code
	}
	return out
}

// geocodeAll looks names up concurrently and returns the ones that
// resolved.
func (p *Pipeline) geocodeAll(ctx context.Context, names []string) map[string]string {
	found := make(map[string]string)
	if p.geo == nil || len(names) == 0 {
		return found
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for _, name := range names {
		g.Go(func() error {
			code, err := p.geo.CountryCode(ctx, name)
			if err != nil {
				if !errors.Is(err, geocoder.ErrNotFound) {
					p.logger.Warn("geocode failed", zap.String("city", name), zap.Error(err))
				}
				return nil
			}
			mu.Lock()
			found[name] = code
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return found
}

// textMatch is a span of the message.
type textMatch struct {
	start, end int
	text       string
	kind       EntityType
}

func (m textMatch) overlaps(o textMatch) bool { return m.start < o.end && o.start < m.end }

// fallbackEntities is the model-free extractor. Places come first, then
// hotels, then restaurants.
func (p *Pipeline) fallbackEntities(ctx context.Context, text string) ([]Entity, map[string]string) {
	venues := venueMatches(text)
	masked := maskMatches(maskMatches(text, venues), nameMatches(text))

	var ents []Entity
	seen := make(map[Entity]bool)
	add := func(t EntityType, v string) {
		e := Entity{Type: t, Value: places.Normalize(v)}
		if e.Value == "" || seen[e] {
			return
		}
		seen[e] = true
		ents = append(ents, e)
	}

	countries := make(map[string]string)
	var unresolved []string
	resolved := make(map[string]places.Place)
	candidates := placeCandidates(masked)
	for _, c := range candidates {
		if pl, ok := places.Lookup(c.text); ok {
			resolved[c.text] = pl
		} else {
			unresolved = append(unresolved, places.Normalize(c.text))
		}
	}
	geocoded := p.geocodeAll(ctx, unresolved)

	for _, c := range candidates {
		if pl, ok := resolved[c.text]; ok {
			t := EntityCity
			if pl.Kind == places.Country {
				t = EntityCountry
			}
			add(t, pl.Name)
			countries[pl.Name] = pl.Code
			continue
		}
		name := places.Normalize(c.text)
		if code, ok := geocoded[name]; ok {
			add(EntityCity, name)
			countries[name] = code
		}
	}

	for _, kind := range []EntityType{EntityHotel, EntityRestaurant} {
		for _, v := range venues {
			if v.kind == kind {
				add(kind, v.text)
			}
		}
	}
	return ents, countries
}

// venueMatches finds hotels and restaurants. Phrase patterns win over bare
// chain names they contain.
func venueMatches(text string) []textMatch {
	var out []textMatch
	take := func(m textMatch) {
		for _, prev := range out {
			if prev.overlaps(m) {
				return
			}
		}
		out = append(out, m)
	}
	for _, pat := range []struct {
		re   *regexp.Regexp
		kind EntityType
	}{{hotelPattern, EntityHotel}, {restaurantPattern, EntityRestaurant}} {
		for _, loc := range pat.re.FindAllStringSubmatchIndex(text, -1) {
			take(textMatch{start: loc[2], end: loc[3], text: text[loc[2]:loc[3]], kind: pat.kind})
		}
	}
	for _, re := range chainPatterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			take(textMatch{start: loc[0], end: loc[1], text: text[loc[0]:loc[1]], kind: EntityHotel})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].start < out[j].start })
	return out
}

// nameMatches finds the people named by the contact heuristics, so that
// "this is Jordan Smith" does not read as a country.
func nameMatches(text string) []textMatch {
	var out []textMatch
	for _, re := range namePatterns {
		for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
			for g := 2; g+1 < len(loc); g += 2 {
				if loc[g] >= 0 {
					out = append(out, textMatch{start: loc[g], end: loc[g+1], text: text[loc[g]:loc[g+1]]})
				}
			}
		}
	}
	return out
}

// maskMatches blanks the matched spans so later scans skip them.
func maskMatches(text string, ms []textMatch) string {
	b := []byte(text)
	for _, m := range ms {
		for i := m.start; i < m.end; i++ {
			b[i] = ' '
		}
	}
	return string(b)
}

// placeCandidates returns place mentions in text order. Known names are
// found anywhere they are capitalized; anything else capitalized after
// "in" or "to" is a city candidate for the geocoder.
func placeCandidates(text string) []textMatch {
	var all []textMatch
	for _, kp := range knownPlacePatterns {
		for _, loc := range kp.re.FindAllStringIndex(text, -1) {
			if c := text[loc[0]]; c < 'A' || c > 'Z' {
				continue
			}
			all = append(all, textMatch{start: loc[0], end: loc[1], text: text[loc[0]:loc[1]], kind: EntityCity})
		}
	}
	for _, loc := range placeAfterPreposition.FindAllStringSubmatchIndex(text, -1) {
		phrase := text[loc[2]:loc[3]]
		first := strings.ToLower(strings.Fields(phrase)[0])
		if notPlaces[first] {
			continue
		}
		all = append(all, textMatch{start: loc[2], end: loc[3], text: phrase, kind: EntityCity})
	}

	// Longest mention wins where mentions overlap.
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].start != all[j].start {
			return all[i].start < all[j].start
		}
		return all[i].end-all[i].start > all[j].end-all[j].start
	})
	var out []textMatch
	for _, m := range all {
		if len(out) > 0 && out[len(out)-1].overlaps(m) {
			if m.end-m.start > out[len(out)-1].end-out[len(out)-1].start {
				out[len(out)-1] = m
			}
			continue
		}
		out = append(out, m)
	}
	return out
}

type placePattern struct {
	name string
	re   *regexp.Regexp
}

func wordPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + strings.ReplaceAll(regexp.QuoteMeta(name), " ", `\s+`) + `\b`)
}

var (
	knownPlacePatterns = func() []placePattern {
		var out []placePattern
		for _, kind := range []places.Kind{places.City, places.Country} {
			for _, name := range places.Names(kind) {
				out = append(out, placePattern{name: name, re: wordPattern(name)})
			}
		}
		return out
	}()

	namePatterns = append(append([]*regexp.Regexp{}, fullNamePatterns...),
		firstNamePattern, titlePattern, akaPattern)

	chainPatterns = func() []*regexp.Regexp {
		out := make([]*regexp.Regexp, 0, len(hotelChains))
		for _, c := range hotelChains {
			out = append(out, wordPattern(c))
		}
		return out
	}()
)
