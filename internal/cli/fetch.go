package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/sheikhmt/taha-iss-tracker/internal/oem"
)

// FetchOptions holds flags for the fetch command.
type FetchOptions struct {
	*RootOptions
	URL      string
	MaxFiles int
}

// fetchResult summarizes a completed fetch.
type fetchResult struct {
	Source     string `json:"source"`
	Bytes      int    `json:"bytes"`
	EpochCount int    `json:"epoch_count"`
	EpochStart string `json:"epoch_start"`
	EpochEnd   string `json:"epoch_end"`
	CachedAt   string `json:"cached_at"`
	CacheDir   string `json:"cache_dir"`
}

// NewFetchCommand creates the fetch command.
func NewFetchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FetchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the ephemeris into the local cache",
		Long: `Download the OEM ephemeris and store it in the local cache.

The document is parsed before it is cached, so a corrupt upstream
response never replaces a good cached copy.

Example:
  issctl fetch
  issctl fetch --url http://localhost:8080/ISS.OEM_J2K_EPH.xml --cache-dir /tmp/oem`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.URL, "url", oem.DefaultSourceURL, "ephemeris source URL")
	cmd.Flags().IntVar(&opts.MaxFiles, "max-files", 5, "cache files to keep after pruning")

	return cmd
}

func runFetch(opts *FetchOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if opts.Verbose {
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	formatter.VerboseLog("Fetching %s", opts.URL)
	data, err := oem.NewFetcher(opts.URL, logger).Fetch(ctx)
	if err != nil {
		return fail(formatter, ExitCommandError, "fetch_failed", "cannot download ephemeris", err)
	}

	ds, err := oem.ParseBytes(data)
	if err != nil {
		return fail(formatter, ExitFailure, "parse_failed", "downloaded document is not a valid OEM ephemeris", err)
	}

	now := time.Now().UTC()
	if err := oem.NewCache(opts.CacheDir, opts.MaxFiles).Write(data, now); err != nil {
		return fail(formatter, ExitCommandError, "cache_failed", "cannot write cache file", err)
	}

	result := fetchResult{
		Source:     opts.URL,
		Bytes:      len(data),
		EpochCount: ds.Len(),
		EpochStart: ds.EpochRange.Min.Format(time.RFC3339),
		EpochEnd:   ds.EpochRange.Max.Format(time.RFC3339),
		CachedAt:   now.Format(time.RFC3339),
		CacheDir:   opts.CacheDir,
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "Fetched %d state vectors (%d bytes) from %s\n", result.EpochCount, result.Bytes, result.Source)
	fmt.Fprintf(formatter.Writer, "Coverage %s to %s\n", result.EpochStart, result.EpochEnd)
	fmt.Fprintf(formatter.Writer, "Cached in %s\n", result.CacheDir)
	return nil
}
