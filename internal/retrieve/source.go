// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retrieve turns expanded search queries into a ranked, deduplicated,
// year-filtered paper set merged from multiple bibliographic sources.
package retrieve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/survey-engine/internal/cache"
	"github.com/pdiddy/survey-engine/internal/httputil"
	"github.com/pdiddy/survey-engine/pkg/types"
)

// ErrRateLimited reports that a source kept answering HTTP 429 after backoff
// was exhausted. The engine counts these per source and trips the circuit
// breaker on repetition.
var ErrRateLimited = errors.New("rate limited")

// Source searches a single bibliographic API. Each source (Semantic Scholar,
// arXiv, OpenAlex) implements this interface; every adapter returns the same
// normalized PaperItem records.
type Source interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]types.PaperItem, error)
}

// fetcher wraps an HTTP client with the shared response cache. Each outbound
// request is keyed by a content hash of its resolved URL; fresh entries are
// served from cache without touching the network.
type fetcher struct {
	client *http.Client
	store  *cache.Store
	cfg    types.RetrievalConfig
}

// get returns the response body for url, from cache when fresh. Cache errors
// degrade to a network fetch; they never fail the call on their own.
func (f *fetcher) get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	key := cache.Key(url)

	if f.store != nil {
		if payload, ok, err := f.store.Get(ctx, key, f.cfg.CacheTTL); err == nil && ok {
			return payload, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := httputil.DoWithRetry(ctx, f.client, req, 0)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if f.store != nil {
		// A write failure leaves the cache cold but does not fail the fetch.
		_ = f.store.Put(ctx, key, payload)
	}
	return payload, nil
}
