package processing

import (
	"context"
	"errors"
	"sync"

	"github.com/mrericsingh-eng/normalize/internal/integrations/emergency"
	"github.com/mrericsingh-eng/normalize/internal/integrations/geocoder"
	"github.com/mrericsingh-eng/normalize/internal/llm"
)

var errModelDown = errors.New("model down")

// fakeLLM answers by stage, telling the stages apart by system prompt.
type fakeLLM struct {
	category string
	contact  string
	entities string
	err      error
	panics   bool

	mu    sync.Mutex
	calls map[string]int
}

func (f *fakeLLM) Name() string { return "fake" }

func (f *fakeLLM) Complete(_ context.Context, req llm.Request) (string, error) {
	var stage, reply string
	switch req.System {
	case categorizeSystemPrompt:
		stage, reply = "categorize", f.category
	case contactSystemPrompt:
		stage, reply = "contact", f.contact
	case entitiesSystemPrompt:
		stage, reply = "entities", f.entities
	}
	f.mu.Lock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[stage]++
	f.mu.Unlock()

	if f.panics {
		panic("boom")
	}
	if f.err != nil {
		return "", f.err
	}
	return reply, nil
}

type fakeGeocoder struct {
	codes map[string]string
	err   error

	mu    sync.Mutex
	asked []string
}

func (g *fakeGeocoder) CountryCode(_ context.Context, name string) (string, error) {
	g.mu.Lock()
	g.asked = append(g.asked, name)
	g.mu.Unlock()
	if g.err != nil {
		return "", g.err
	}
	if code, ok := g.codes[name]; ok {
		return code, nil
	}
	return "", geocoder.ErrNotFound
}

type fakeDirectory map[string][]string

func (d fakeDirectory) Numbers(_ context.Context, code string) ([]string, error) {
	if nums, ok := d[code]; ok {
		return nums, nil
	}
	return nil, emergency.ErrNotFound
}
