package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"curator/internal/cache"
	"curator/internal/core"
	"curator/internal/models"
)

const (
	userAgent       = "curator/1.0"
	maxResponseSize = 5 << 20
)

// FetcherConfig holds configuration for the fetcher
type FetcherConfig struct {
	Timeout    time.Duration
	Retries    int
	RetryDelay time.Duration
	Rate       float64
	CacheTTL   time.Duration
}

// FetcherConfigFrom derives the fetcher settings from the application config
func FetcherConfigFrom(config *core.Config) FetcherConfig {
	return FetcherConfig{
		Timeout:    config.Providers.Timeout,
		Retries:    config.Providers.Retries,
		RetryDelay: DefaultRetryDelay,
		Rate:       config.Providers.Rate,
		CacheTTL:   config.Cache.TTL,
	}
}

// Fetcher performs live provider calls: bounded by a timeout, rate limited
// per source, optionally retried, and cached by URL
type Fetcher struct {
	client   *http.Client
	cache    cache.Cache
	config   FetcherConfig
	limiters map[models.ContentType]*rate.Limiter
	logger   *core.Logger
}

// NewFetcher creates a new fetcher
func NewFetcher(config FetcherConfig, c cache.Cache, logger *core.Logger) *Fetcher {
	if c == nil {
		c = cache.Noop{}
	}

	burst := int(math.Max(1, math.Ceil(config.Rate)))
	limiters := make(map[models.ContentType]*rate.Limiter)
	for _, source := range []models.ContentType{models.ContentTypeNews, models.ContentTypeMovie, models.ContentTypeSocial} {
		limiters[source] = rate.NewLimiter(rate.Limit(config.Rate), burst)
	}

	return &Fetcher{
		client: &http.Client{
			Timeout: config.Timeout,
		},
		cache:    c,
		config:   config,
		limiters: limiters,
		logger:   logger,
	}
}

// Get fetches url for source and returns the response body. Non-2xx
// responses become API errors, transport failures network errors.
func (f *Fetcher) Get(ctx context.Context, source models.ContentType, url string, header http.Header) ([]byte, error) {
	cacheKey := string(source) + ":" + url
	if body, ok := f.cache.Get(ctx, cacheKey); ok {
		f.logger.Debug("Cache hit", "source", source, "url", url)
		return body, nil
	}

	body, err := RetryWithBackoff(ctx, f.config.Retries, f.config.RetryDelay, func() ([]byte, error) {
		return f.do(ctx, source, url, header)
	})
	if err != nil {
		return nil, err
	}

	f.cache.Set(ctx, cacheKey, body, f.config.CacheTTL)
	return body, nil
}

func (f *Fetcher) do(ctx context.Context, source models.ContentType, url string, header http.Header) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.config.Timeout)
	defer cancel()

	if limiter, ok := f.limiters[source]; ok {
		if err := limiter.Wait(ctx); err != nil {
			return nil, backoff.Permanent(core.NewNetworkError("Request cancelled while waiting for the rate limiter", err))
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(core.NewInternalError("failed to create request", err))
	}

	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return nil, core.NewNetworkError("Request timed out. Please try again.", err)
		}
		return nil, core.NewNetworkError("Network error. Please check your connection and try again.", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := core.NewAPIError(resp.StatusCode, fmt.Sprintf("%s provider returned status %d", source, resp.StatusCode), nil)
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, backoff.Permanent(apiErr)
		}
		return nil, apiErr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, core.NewNetworkError("failed to read response body", err)
	}

	f.logger.Debug("Fetched provider response", "source", source, "url", url, "bytes", len(body))
	return body, nil
}
