package storage

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryStore implements Store in process memory. Used when no database
// path is configured.
type MemoryStore struct {
	c *cache.Cache
}

// NewMemory creates a store whose entries expire after ttl (never when
// ttl <= 0).
func NewMemory(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		return &MemoryStore{c: cache.New(cache.NoExpiration, 0)}
	}
	return &MemoryStore{c: cache.New(ttl, ttl/2)}
}

func geoKey(place string) string { return "geo:" + place }
func sosKey(code string) string  { return "sos:" + code }

func (m *MemoryStore) GetCountryCode(_ context.Context, place string) (string, error) {
	v, ok := m.c.Get(geoKey(place))
	if !ok {
		return "", ErrMiss
	}
	return v.(string), nil
}

func (m *MemoryStore) PutCountryCode(_ context.Context, place, code string) error {
	m.c.Set(geoKey(place), code, cache.DefaultExpiration)
	return nil
}

func (m *MemoryStore) GetEmergencyNumbers(_ context.Context, code string) ([]string, error) {
	v, ok := m.c.Get(sosKey(code))
	if !ok {
		return nil, ErrMiss
	}
	nums := v.([]string)
	out := make([]string, len(nums))
	copy(out, nums)
	return out, nil
}

func (m *MemoryStore) PutEmergencyNumbers(_ context.Context, code string, numbers []string) error {
	cp := make([]string, len(numbers))
	copy(cp, numbers)
	m.c.Set(sosKey(code), cp, cache.DefaultExpiration)
	return nil
}

func (m *MemoryStore) Close() error {
	m.c.Flush()
	return nil
}
