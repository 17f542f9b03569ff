package processing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mrericsingh-eng/normalize/internal/integrations/emergency"
)

func TestEnrichUnionsInCodeOrder(t *testing.T) {
	dir := fakeDirectory{
		"GB": {"112", "999"},
		"IT": {"112", "113"},
		"US": {"911"},
	}
	p := NewPipeline(Deps{Emergency: dir})

	ents := []Entity{
		{EntityCity, "new york"},
		{EntityHotel, "chapter roma"},
		{EntityCity, "rome"},
		{EntityCountry, "italy"},
		{EntityCity, "london"},
	}
	countries := map[string]string{"new york": "US", "rome": "IT", "italy": "IT", "london": "GB"}

	got := p.Enrich(context.Background(), ents, countries)
	assert.Equal(t, []string{"112", "999", "113", "911"}, got)
}

func TestEnrichNothingToLookUp(t *testing.T) {
	p := NewPipeline(Deps{Emergency: fakeDirectory{"IT": {"112"}}})

	assert.Nil(t, p.Enrich(context.Background(), nil, nil))
	assert.Nil(t, p.Enrich(context.Background(),
		[]Entity{{EntityHotel, "hilton"}}, map[string]string{"hilton": "IT"}))
	assert.Nil(t, p.Enrich(context.Background(),
		[]Entity{{EntityCity, "atlantis"}}, map[string]string{}))
}

func TestEnrichSkipsFailedCountries(t *testing.T) {
	p := NewPipeline(Deps{Emergency: fakeDirectory{"US": {"911"}}})
	got := p.Enrich(context.Background(),
		[]Entity{{EntityCity, "atlantis"}, {EntityCity, "miami"}},
		map[string]string{"atlantis": "XX", "miami": "US"})
	assert.Equal(t, []string{"911"}, got)
}

func TestEnrichDefaultsToStaticTable(t *testing.T) {
	p := NewPipeline(Deps{})
	got := p.Enrich(context.Background(), []Entity{{EntityCity, "paris"}}, map[string]string{"paris": "FR"})
	assert.Equal(t, []string{"112", "15", "17", "18"}, got)
}

func TestEnrichUnknownCodeIsQuiet(t *testing.T) {
	_, err := staticDirectory{}.Numbers(context.Background(), "XX")
	assert.ErrorIs(t, err, emergency.ErrNotFound)

	core, logs := observer.New(zap.WarnLevel)
	p := NewPipeline(Deps{Logger: zap.New(core)})
	got := p.Enrich(context.Background(),
		[]Entity{{EntityCity, "atlantis"}, {EntityCity, "paris"}},
		map[string]string{"atlantis": "XX", "paris": "FR"})
	assert.Equal(t, []string{"112", "15", "17", "18"}, got)
	assert.Zero(t, logs.Len())
}
