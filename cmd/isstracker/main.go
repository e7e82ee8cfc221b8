// Command isstracker serves the ISS position API: dataset queries,
// ground-track summaries, observer passes, and an SSE position stream.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sheikhmt/taha-iss-tracker/internal/api"
	"github.com/sheikhmt/taha-iss-tracker/internal/auth"
	"github.com/sheikhmt/taha-iss-tracker/internal/config"
	"github.com/sheikhmt/taha-iss-tracker/internal/geo"
	"github.com/sheikhmt/taha-iss-tracker/internal/metrics"
	"github.com/sheikhmt/taha-iss-tracker/internal/oem"
	"github.com/sheikhmt/taha-iss-tracker/internal/stream"
	"github.com/sheikhmt/taha-iss-tracker/internal/track"
)

func main() {
	bootLog := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load(os.Getenv("ISSTRACKER_CONFIG"))
	if err != nil {
		bootLog.Error("invalid configuration file", "error", err)
		os.Exit(1)
	}
	cfg.ApplyEnv(bootLog)
	if err := cfg.Validate(); err != nil {
		bootLog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	level, _ := config.ParseLevel(cfg.Log.Level)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))

	gaz, err := geo.NewGazetteer(cfg.Geocoder.RadiusKm)
	if err != nil {
		logger.Error("cannot load the place table", "error", err)
		os.Exit(1)
	}
	conv := geo.NewConverter(gaz)

	store := oem.NewStore()
	ephCache := oem.NewCache(cfg.Ephemeris.CacheDir, cfg.Ephemeris.CacheMaxFiles)
	fetcher := oem.NewFetcher(cfg.Ephemeris.SourceURL, logger)

	// Graceful shutdown on SIGINT/SIGTERM. The same context aborts a
	// startup fetch that is still in flight when the signal arrives.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if ds := loadInitialDataset(ctx, logger, cfg, fetcher, ephCache); ds != nil {
		store.Set(ds)
		metrics.SetDatasetEpochs(ds.Len())
		logger.Info("ephemeris loaded",
			"source", ds.Source,
			"epochs", ds.Len(),
			"epoch_start", ds.EpochRange.Min.Format(time.RFC3339),
			"epoch_end", ds.EpochRange.Max.Format(time.RFC3339),
		)
	} else {
		logger.Warn("starting without ephemeris data, dataset routes will return 503")
	}

	builder := track.NewBuilder(cfg.Track.Workers, logger)
	trackCache := track.NewCache(builder, logger)

	streamHandler := stream.NewHandler(store, conv, stream.Config{
		Interval:           cfg.Stream.Interval(),
		KeepaliveInterval:  cfg.Stream.Keepalive(),
		MaxConcurrentPerIP: cfg.Stream.MaxConcurrentPerIP,
		TrustProxy:         cfg.HTTP.TrustProxy,
	}, logger)

	authCfg := auth.Config{Enabled: cfg.Auth.Enabled, Token: cfg.Auth.Token}
	srv := api.NewServer(cfg.HTTP.Addr, logger, authCfg, cfg.HTTP.TrustProxy, store, conv, trackCache, streamHandler)

	// Background goroutine to update the dataset age gauge.
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				age := store.AgeSeconds()
				if age >= 0 {
					metrics.SetDatasetAge(age)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		logger.Info("starting server", "addr", cfg.HTTP.Addr, "auth_enabled", authCfg.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// loadInitialDataset works down the startup ladder: a fresh cache file,
// then the upstream feed, then a stale cache file, then the bundled
// document named in the config. A nil return starts the daemon in
// degraded mode, serving 503 on dataset routes until an operator
// intervenes.
func loadInitialDataset(ctx context.Context, logger *slog.Logger, cfg *config.Config, fetcher *oem.Fetcher, ephCache *oem.Cache) *oem.Dataset {
	cached := loadCached(logger, cfg, ephCache)
	if cached != nil && time.Since(cached.LoadedAt) <= cfg.Ephemeris.MaxAge() {
		return cached
	}

	if cfg.Ephemeris.FetchOnStart {
		if ds := fetchUpstream(ctx, logger, fetcher, ephCache); ds != nil {
			return ds
		}
	}

	if cached != nil {
		logger.Warn("serving stale ephemeris cache",
			"cached_at", cached.LoadedAt.Format(time.RFC3339),
			"max_age_seconds", cfg.Ephemeris.MaxAgeSeconds,
		)
		return cached
	}

	if cfg.Ephemeris.File != "" {
		ds, err := loadBundled(cfg.Ephemeris.File)
		if err != nil {
			logger.Warn("cannot load bundled ephemeris", "path", cfg.Ephemeris.File, "error", err)
		} else {
			logger.Info("loaded bundled ephemeris", "path", cfg.Ephemeris.File)
			return ds
		}
	}

	return nil
}

func loadCached(logger *slog.Logger, cfg *config.Config, ephCache *oem.Cache) *oem.Dataset {
	data, ts, err := ephCache.LoadLatest()
	if err != nil {
		logger.Info("no usable ephemeris cache", "error", err)
		return nil
	}

	ds, err := oem.ParseBytes(data)
	if err != nil {
		logger.Warn("cached ephemeris does not parse", "error", err)
		return nil
	}
	ds.Source = "cache:" + cfg.Ephemeris.CacheDir
	ds.LoadedAt = ts.UTC()
	return ds
}

func fetchUpstream(ctx context.Context, logger *slog.Logger, fetcher *oem.Fetcher, ephCache *oem.Cache) *oem.Dataset {
	data, err := fetcher.Fetch(ctx)
	if err != nil {
		logger.Warn("ephemeris fetch failed", "url", fetcher.SourceURL(), "error", err)
		return nil
	}

	ds, err := oem.ParseBytes(data)
	if err != nil {
		logger.Warn("fetched ephemeris does not parse", "url", fetcher.SourceURL(), "error", err)
		return nil
	}
	now := time.Now().UTC()
	ds.Source = fetcher.SourceURL()
	ds.LoadedAt = now

	if err := ephCache.Write(data, now); err != nil {
		logger.Warn("cannot cache fetched ephemeris", "error", err)
	}
	return ds
}

func loadBundled(path string) (*oem.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ds, err := oem.Parse(f)
	if err != nil {
		return nil, err
	}
	ds.Source = path
	ds.LoadedAt = time.Now().UTC()
	return ds, nil
}
