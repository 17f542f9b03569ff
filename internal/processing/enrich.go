package processing

import (
	"context"
	"errors"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mrericsingh-eng/normalize/internal/integrations/emergency"
)

// Enrich returns the emergency numbers for the countries the message
// mentions, in country-code order without duplicates. Nil when there are no
// places or no numbers.
func (p *Pipeline) Enrich(ctx context.Context, entities []Entity, countries map[string]string) []string {
	ctx, span := p.tracer.Start(ctx, "processing.Enrich")
	defer span.End()

	codes := locationCodes(entities, countries)
	if len(codes) == 0 {
		return nil
	}
	span.SetAttributes(attribute.StringSlice("country_codes", codes))

	results := make([][]string, len(codes))
	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, code := range codes {
		g.Go(func() error {
			nums, err := p.sos.Numbers(ctx, code)
			if err != nil {
				if !errors.Is(err, emergency.ErrNotFound) {
					p.logger.Warn("emergency lookup failed", zap.String("country_code", code), zap.Error(err))
				}
				return nil
			}
			results[i] = nums
			return nil
		})
	}
	_ = g.Wait()

	var out []string
	seen := make(map[string]bool)
	for _, nums := range results {
		for _, n := range nums {
			if n == "" || seen[n] {
				continue
			}
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

// locationCodes returns the sorted unique codes of the city and country
// entities.
func locationCodes(entities []Entity, countries map[string]string) []string {
	set := make(map[string]bool)
	for _, e := range entities {
		if !e.Type.IsLocation() {
			continue
		}
		if code := countries[e.Value]; code != "" {
			set[code] = true
		}
	}
	codes := make([]string, 0, len(set))
	for c := range set {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}
