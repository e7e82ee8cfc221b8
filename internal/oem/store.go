package oem

import (
	"sync/atomic"
	"time"
)

// Store is the process-wide handle to the active dataset. A Dataset is
// immutable once published, so Get hands out the shared pointer and
// readers proceed without locks; Set swaps the whole dataset at once.
type Store struct {
	current atomic.Pointer[Dataset]
}

// NewStore returns an empty Store; Get reports nil until the first Set.
func NewStore() *Store {
	return new(Store)
}

// Get returns the active dataset, or nil before the first load.
func (s *Store) Get() *Dataset {
	return s.current.Load()
}

// Set publishes ds as the active dataset.
func (s *Store) Set(ds *Dataset) {
	s.current.Store(ds)
}

// AgeSeconds reports seconds since the active dataset was loaded, or -1
// when none is loaded.
func (s *Store) AgeSeconds() float64 {
	ds := s.current.Load()
	if ds == nil {
		return -1
	}
	return time.Since(ds.LoadedAt).Seconds()
}
