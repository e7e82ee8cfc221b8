package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/sheikhmt/taha-iss-tracker/internal/oem"
)

// loadDataset reads the ephemeris the offline commands work against:
// the --file document when given, otherwise the newest cache entry.
func loadDataset(opts *RootOptions, f *OutputFormatter) (*oem.Dataset, error) {
	if opts.File != "" {
		return loadFile(opts.File, f)
	}
	return loadCache(opts.CacheDir, f)
}

func loadFile(path string, f *OutputFormatter) (*oem.Dataset, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fail(f, ExitCommandError, "load_failed", fmt.Sprintf("cannot open %s", path), err)
	}
	defer fh.Close()

	ds, err := oem.Parse(fh)
	if err != nil {
		return nil, fail(f, ExitFailure, "parse_failed", fmt.Sprintf("cannot parse %s", path), err)
	}

	ds.Source = path
	ds.LoadedAt = time.Now().UTC()
	if fi, statErr := fh.Stat(); statErr == nil {
		ds.LoadedAt = fi.ModTime().UTC()
	}
	f.VerboseLog("Loaded %d state vectors from %s", ds.Len(), path)
	return ds, nil
}

func loadCache(dir string, f *OutputFormatter) (*oem.Dataset, error) {
	data, ts, err := oem.NewCache(dir, 0).LoadLatest()
	if err != nil {
		return nil, fail(f, ExitCommandError, "load_failed",
			fmt.Sprintf("no ephemeris in cache %s: pass --file or run issctl fetch first", dir), err)
	}

	ds, err := oem.ParseBytes(data)
	if err != nil {
		return nil, fail(f, ExitFailure, "parse_failed", "cached ephemeris does not parse", err)
	}

	ds.Source = "cache:" + dir
	ds.LoadedAt = ts.UTC()
	f.VerboseLog("Loaded %d state vectors from cache (fetched %s)", ds.Len(), ts.UTC().Format(time.RFC3339))
	return ds, nil
}
