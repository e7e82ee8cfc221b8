package oem

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	cachePrefix = "oem_"
	cacheSuffix = ".xml"
)

// Cache keeps raw ephemeris documents on disk so a restart can reload the
// last good download without touching the upstream feed.
//
// Files are named oem_<unix>.xml after the download time; the newest
// maxFiles survive and older ones are removed on each Write.
type Cache struct {
	dir      string
	maxFiles int
}

// NewCache returns a Cache rooted at dir. maxFiles <= 0 falls back to 5.
func NewCache(dir string, maxFiles int) *Cache {
	if maxFiles <= 0 {
		maxFiles = 5
	}
	return &Cache{dir: dir, maxFiles: maxFiles}
}

// Write stores data under a name derived from ts, creating the directory
// on first use, then drops the oldest files beyond the retention limit.
func (c *Cache) Write(data []byte, ts time.Time) error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("creating cache dir %s: %w", c.dir, err)
	}

	name := cachePrefix + strconv.FormatInt(ts.Unix(), 10) + cacheSuffix
	if err := os.WriteFile(filepath.Join(c.dir, name), data, 0644); err != nil {
		return fmt.Errorf("writing cache file %s: %w", name, err)
	}
	return c.prune()
}

// LoadLatest returns the most recent cached document and its download time.
func (c *Cache) LoadLatest() ([]byte, time.Time, error) {
	snaps, err := c.snapshots()
	if err != nil {
		return nil, time.Time{}, err
	}
	if len(snaps) == 0 {
		return nil, time.Time{}, fmt.Errorf("no cached ephemeris in %s", c.dir)
	}

	newest := snaps[0]
	data, err := os.ReadFile(filepath.Join(c.dir, newest.name))
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("reading cache file %s: %w", newest.name, err)
	}
	return data, time.Unix(newest.unix, 0), nil
}

type snapshot struct {
	name string
	unix int64
}

// snapshots lists cache files newest first. A missing directory is an
// empty cache, not an error. Files that do not follow the naming scheme
// are not the cache's to manage and are skipped.
func (c *Cache) snapshots() ([]snapshot, error) {
	entries, err := os.ReadDir(c.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing cache dir %s: %w", c.dir, err)
	}

	snaps := make([]snapshot, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		rest, ok := strings.CutPrefix(e.Name(), cachePrefix)
		if !ok {
			continue
		}
		rest, ok = strings.CutSuffix(rest, cacheSuffix)
		if !ok {
			continue
		}
		unix, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			continue
		}
		snaps = append(snaps, snapshot{name: e.Name(), unix: unix})
	}

	sort.Slice(snaps, func(i, j int) bool { return snaps[i].unix > snaps[j].unix })
	return snaps, nil
}

func (c *Cache) prune() error {
	snaps, err := c.snapshots()
	if err != nil {
		return err
	}

	keep := c.maxFiles
	if keep > len(snaps) {
		keep = len(snaps)
	}
	for _, old := range snaps[keep:] {
		if err := os.Remove(filepath.Join(c.dir, old.name)); err != nil {
			return fmt.Errorf("pruning cache file %s: %w", old.name, err)
		}
	}
	return nil
}
