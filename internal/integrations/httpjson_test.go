package integrations

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetJSONRetriesServerErrors(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "normalize-test", r.Header.Get("User-Agent"))
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer ts.Close()

	g := &Getter{UserAgent: "normalize-test", MaxRetries: 2, InitialDelay: time.Millisecond}
	var out struct{ OK bool }
	require.NoError(t, g.GetJSON(context.Background(), ts.URL, &out))
	assert.True(t, out.OK)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestGetJSONClientErrorsArePermanent(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer ts.Close()

	g := &Getter{MaxRetries: 3, InitialDelay: time.Millisecond}
	err := g.GetJSON(context.Background(), ts.URL, &struct{}{})
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusNotFound))
	assert.False(t, IsStatus(err, http.StatusBadGateway))
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestGetJSONGivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	g := &Getter{MaxRetries: 1, InitialDelay: time.Millisecond}
	err := g.GetJSON(context.Background(), ts.URL, &struct{}{})
	assert.True(t, IsStatus(err, http.StatusTooManyRequests))
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}
