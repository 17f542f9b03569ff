// Package integrations holds the clients for the external lookup services.
// The helpers here are shared by the geocoder and emergency subpackages.
package integrations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// StatusError is returned for non-2xx answers.
type StatusError struct {
	URL    string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d: %s", e.URL, e.Status, e.Body)
}

// Getter performs GET requests that decode a JSON body.
type Getter struct {
	HTTP         *http.Client
	UserAgent    string
	MaxRetries   int
	InitialDelay time.Duration
}

// GetJSON fetches url and decodes the body into out. Transport errors and
// 5xx/429 answers are retried up to MaxRetries times with exponential
// backoff; other 4xx answers fail at once.
func (g *Getter) GetJSON(ctx context.Context, url string, out any) error {
	client := g.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		if g.UserAgent != "" {
			req.Header.Set("User-Agent", g.UserAgent)
		}

		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			serr := &StatusError{URL: url, Status: resp.StatusCode, Body: string(b)}
			if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
				return serr
			}
			return backoff.Permanent(serr)
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode %s: %w", url, err))
		}
		return nil
	}

	eb := backoff.NewExponentialBackOff()
	if g.InitialDelay > 0 {
		eb.InitialInterval = g.InitialDelay
	}
	retries := g.MaxRetries
	if retries < 0 {
		retries = 0
	}
	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(retries)), ctx)
	return backoff.Retry(op, b)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var serr *StatusError
	return errors.As(err, &serr) && serr.Status == code
}
