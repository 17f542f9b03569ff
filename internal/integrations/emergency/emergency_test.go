package emergency

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrericsingh-eng/normalize/internal/storage"
)

func fakeAPI(t *testing.T, calls *int32, bodies map[string]string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		body, ok := bodies[r.URL.Path]
		if !ok {
			http.Error(w, `{"error":"unknown"}`, http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestFetchOrdersNumbers(t *testing.T) {
	var calls int32
	ts := fakeAPI(t, &calls, map[string]string{
		"/api/country/IT": `{"data":{"member_112":true,
			"dispatch":{"all":["112",""]},"police":{"all":["113","112"]}}}`,
		"/api/country/US": `{"data":{"member_112":false,
			"dispatch":{"all":["911"]},"police":{"all":["911"]}}}`,
	})
	c := New(Options{BaseURL: ts.URL + "/api/"})

	nums, err := c.Fetch(context.Background(), "IT")
	require.NoError(t, err)
	assert.Equal(t, []string{"112", "113"}, nums)

	nums, err = c.Fetch(context.Background(), "US")
	require.NoError(t, err)
	assert.Equal(t, []string{"911"}, nums)
}

func TestNumbersCaches(t *testing.T) {
	var calls int32
	ts := fakeAPI(t, &calls, map[string]string{
		"/country/JP": `{"data":{"member_112":false,"dispatch":{"all":["119"]},"police":{"all":["110"]}}}`,
	})
	c := New(Options{BaseURL: ts.URL, Cache: storage.NewMemory(0)})

	for i := 0; i < 3; i++ {
		nums, err := c.Numbers(context.Background(), "jp")
		require.NoError(t, err)
		assert.Equal(t, []string{"119", "110"}, nums)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestNumbersFallsBackToStaticTable(t *testing.T) {
	var calls int32
	ts := fakeAPI(t, &calls, map[string]string{
		"/country/FR": `{"data":{"member_112":false,"dispatch":{"all":[]},"police":{"all":[]}}}`,
	})
	cache := storage.NewMemory(0)
	c := New(Options{BaseURL: ts.URL, Cache: cache})

	// API down for DE
	nums, err := c.Numbers(context.Background(), "DE")
	require.NoError(t, err)
	assert.Equal(t, []string{"112", "110"}, nums)

	// API answers with nothing for FR
	nums, err = c.Numbers(context.Background(), "FR")
	require.NoError(t, err)
	assert.Equal(t, []string{"112", "15", "17", "18"}, nums)

	_, err = cache.GetEmergencyNumbers(context.Background(), "DE")
	assert.ErrorIs(t, err, storage.ErrMiss)

	_, err = c.Numbers(context.Background(), "XX")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.Numbers(context.Background(), " ")
	assert.ErrorIs(t, err, ErrNotFound)
}
