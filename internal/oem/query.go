package oem

import "time"

// PageBounds validates limit and offset against a sequence of n items
// and returns the half-open index range [lo, hi) to serve.
//
// offset == n is the one-past-the-end cursor and yields an empty page;
// anything beyond that is rejected. An empty sequence accepts only
// offset 0. The window never yields more than max(0, n-offset) items.
func PageBounds(limit, offset, n int) (lo, hi int, err error) {
	if limit < 0 {
		return 0, 0, &InvalidQueryError{Param: "limit", Value: limit, Reason: "must not be negative"}
	}
	if offset < 0 {
		return 0, 0, &InvalidQueryError{Param: "offset", Value: offset, Reason: "must not be negative"}
	}
	if offset > n {
		return 0, 0, &InvalidQueryError{Param: "offset", Value: offset, Reason: "beyond end of data"}
	}
	lo = offset
	hi = offset + limit
	if hi > n {
		hi = n
	}
	return lo, hi, nil
}

// Page returns a window of the epoch sequence in document order. A nil
// error with an empty slice is a valid outcome (offset at the end, or
// limit 0). The returned slice aliases the dataset; callers must not
// mutate it.
func (d *Dataset) Page(limit, offset int) ([]StateVector, error) {
	lo, hi, err := PageBounds(limit, offset, len(d.Epochs))
	if err != nil {
		return nil, err
	}
	return d.Epochs[lo:hi], nil
}

// FindEpoch returns the first state vector whose raw epoch identifier
// matches id exactly, or ErrEpochNotFound.
func (d *Dataset) FindEpoch(id string) (*StateVector, error) {
	for i := range d.Epochs {
		if d.Epochs[i].Epoch == id {
			return &d.Epochs[i], nil
		}
	}
	return nil, ErrEpochNotFound
}

// Nearest returns the state vector whose epoch is closest in absolute
// time to ref, scanning the full sequence. Ties resolve to the earlier
// document position, so repeated calls with the same ref are stable.
func (d *Dataset) Nearest(ref time.Time) (*StateVector, error) {
	if len(d.Epochs) == 0 {
		return nil, ErrEmptyDataset
	}
	best := 0
	bestDiff := absDuration(d.Epochs[0].Time.Sub(ref))
	for i := 1; i < len(d.Epochs); i++ {
		diff := absDuration(d.Epochs[i].Time.Sub(ref))
		if diff < bestDiff {
			best = i
			bestDiff = diff
		}
	}
	return &d.Epochs[best], nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
