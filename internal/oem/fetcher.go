package oem

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultSourceURL is the public NASA ephemeris for the ISS.
const DefaultSourceURL = "https://nasa-public-data.s3.amazonaws.com/iss-coords/current/ISS_OEM/ISS.OEM_J2K_EPH.xml"

// maxResponseBytes bounds the download size. The real feed is a few MB;
// anything near this limit is a broken or hostile source.
const maxResponseBytes = 50 * 1024 * 1024

const fetchTimeout = 30 * time.Second

// Fetcher downloads the raw OEM document over HTTP. It does not parse;
// callers hand the bytes to ParseBytes separately.
type Fetcher struct {
	sourceURL string
	client    *http.Client
	logger    *slog.Logger
}

// NewFetcher creates a Fetcher for the given source URL. An empty URL
// selects the NASA ISS feed.
func NewFetcher(sourceURL string, logger *slog.Logger) *Fetcher {
	if sourceURL == "" {
		sourceURL = DefaultSourceURL
	}
	return &Fetcher{
		sourceURL: sourceURL,
		client:    &http.Client{Timeout: fetchTimeout},
		logger:    logger,
	}
}

// SourceURL returns the configured source URL.
func (f *Fetcher) SourceURL() string {
	return f.sourceURL
}

// Fetch GETs the document and returns its raw bytes.
func (f *Fetcher) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", f.sourceURL, err)
	}
	req.Header.Set("Accept", "application/xml")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching ephemeris: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, f.sourceURL)
	}

	body, err := readBounded(resp.Body)
	if err != nil {
		return nil, err
	}

	f.logger.Info("fetched ephemeris",
		"url", f.sourceURL,
		"bytes", len(body),
		"duration_ms", time.Since(start).Milliseconds())
	return body, nil
}

// readBounded reads at most maxResponseBytes from r; anything past the
// limit is an error, not a truncation.
func readBounded(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if len(body) > maxResponseBytes {
		return nil, fmt.Errorf("response exceeds %d byte limit", maxResponseBytes)
	}
	return body, nil
}
