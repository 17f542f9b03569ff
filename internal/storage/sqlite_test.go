package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T, ttl time.Duration) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "lookups.db"), ttl, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteCountryCodes(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t, time.Hour)

	_, err := s.GetCountryCode(ctx, "rome")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, s.PutCountryCode(ctx, "rome", "IT"))
	code, err := s.GetCountryCode(ctx, "rome")
	require.NoError(t, err)
	assert.Equal(t, "IT", code)

	// negative result is cached as an empty code
	require.NoError(t, s.PutCountryCode(ctx, "atlantis", ""))
	code, err = s.GetCountryCode(ctx, "atlantis")
	require.NoError(t, err)
	assert.Equal(t, "", code)

	// replace
	require.NoError(t, s.PutCountryCode(ctx, "rome", "VA"))
	code, err = s.GetCountryCode(ctx, "rome")
	require.NoError(t, err)
	assert.Equal(t, "VA", code)
}

func TestSQLiteEmergencyNumbers(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t, 0)

	_, err := s.GetEmergencyNumbers(ctx, "IT")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, s.PutEmergencyNumbers(ctx, "IT", []string{"112", "113"}))
	nums, err := s.GetEmergencyNumbers(ctx, "IT")
	require.NoError(t, err)
	assert.Equal(t, []string{"112", "113"}, nums)

	require.NoError(t, s.PutEmergencyNumbers(ctx, "XX", nil))
	nums, err = s.GetEmergencyNumbers(ctx, "XX")
	require.NoError(t, err)
	assert.Empty(t, nums)
}

func TestSQLiteExpiryAndPrune(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t, time.Hour)

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	require.NoError(t, s.PutCountryCode(ctx, "rome", "IT"))
	require.NoError(t, s.PutEmergencyNumbers(ctx, "IT", []string{"112"}))

	s.now = func() time.Time { return base.Add(30 * time.Minute) }
	_, err := s.GetCountryCode(ctx, "rome")
	require.NoError(t, err)

	s.now = func() time.Time { return base.Add(2 * time.Hour) }
	_, err = s.GetCountryCode(ctx, "rome")
	assert.ErrorIs(t, err, ErrMiss)
	_, err = s.GetEmergencyNumbers(ctx, "IT")
	assert.ErrorIs(t, err, ErrMiss)

	n, err := s.Prune(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestSQLiteReopenKeepsEntries(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "lookups.db")

	s, err := NewSQLite(path, 0, nil)
	require.NoError(t, err)
	require.NoError(t, s.PutCountryCode(ctx, "tokyo", "JP"))
	require.NoError(t, s.Close())

	s, err = NewSQLite(path, 0, nil)
	require.NoError(t, err)
	defer s.Close()
	code, err := s.GetCountryCode(ctx, "tokyo")
	require.NoError(t, err)
	assert.Equal(t, "JP", code)
}
