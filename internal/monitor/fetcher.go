package monitor

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aleister1102/schedwatch/internal/common/errorwrapper"
	"github.com/aleister1102/schedwatch/internal/httpclient"
	"github.com/aleister1102/schedwatch/internal/models"
	"github.com/rs/zerolog"
)

// Fetcher performs a single bounded-time retrieval of a URL's bytes. It
// isolates network failure: any transport error, timeout, or non-2xx status
// comes back as an error, never a panic, and there is no internal retry.
type Fetcher struct {
	httpClient     *httpclient.HTTPClient
	logger         zerolog.Logger
	maxContentSize int
}

// NewFetcher creates a new Fetcher on a shared long-lived HTTP client.
func NewFetcher(client *httpclient.HTTPClient, maxContentSize int, logger zerolog.Logger) *Fetcher {
	return &Fetcher{
		httpClient:     client,
		logger:         logger.With().Str("component", "Fetcher").Logger(),
		maxContentSize: maxContentSize,
	}
}

// Fetch retrieves the raw bytes at url. No decoding or parsing is performed.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*models.FetchResult, error) {
	resp, err := f.httpClient.Get(ctx, url)
	if err != nil {
		f.logger.Warn().Err(err).Str("url", url).Msg("HTTP request failed")
		return nil, errorwrapper.NewNetworkError(url, "HTTP request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Read a little of the body for error context, but never the whole thing.
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		f.logger.Warn().Str("url", url).Int("status_code", resp.StatusCode).Msg("Received non-success HTTP status")
		return nil, errorwrapper.NewHTTPErrorWithURL(resp.StatusCode, string(bodyBytes), url)
	}

	if f.maxContentSize > 0 && resp.ContentLength > int64(f.maxContentSize) {
		return nil, fmt.Errorf("content too large: %d bytes (max: %d bytes)", resp.ContentLength, f.maxContentSize)
	}

	var reader io.Reader = resp.Body
	if f.maxContentSize > 0 {
		reader = io.LimitReader(resp.Body, int64(f.maxContentSize)+1)
	}

	payload, err := io.ReadAll(reader)
	if err != nil {
		f.logger.Warn().Err(err).Str("url", url).Msg("Failed to read response body")
		return nil, errorwrapper.NewNetworkError(url, "failed to read response body", err)
	}

	if f.maxContentSize > 0 && len(payload) > f.maxContentSize {
		return nil, fmt.Errorf("content too large: %d bytes (max: %d bytes)", len(payload), f.maxContentSize)
	}

	result := &models.FetchResult{
		Payload:     payload,
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
		RetrievedAt: time.Now(),
	}

	f.logger.Debug().
		Str("url", url).
		Str("content_type", result.ContentType).
		Int("size", len(result.Payload)).
		Msg("Content fetched successfully")

	return result, nil
}
