package oem

import (
	"math"
	"time"
)

// Vector3 is a Cartesian 3-vector. Position components are in km,
// velocity components in km/s.
type Vector3 struct {
	X float64
	Y float64
	Z float64
}

// Norm returns the Euclidean magnitude of v. Non-finite components
// propagate into the result.
func (v Vector3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// StateVector is a single timestamped sample of the spacecraft trajectory.
// Epoch holds the identifier exactly as it appears in the source document;
// Time is its parsed UTC instant.
type StateVector struct {
	Epoch    string
	Time     time.Time
	Position Vector3
	Velocity Vector3
}

// Speed returns the scalar magnitude of the velocity in km/s.
func (sv StateVector) Speed() float64 {
	return sv.Velocity.Norm()
}

// EpochRange represents the minimum and maximum epoch times in a dataset.
type EpochRange struct {
	Min time.Time
	Max time.Time
}

// Dataset is one parsed OEM ephemeris document. The Epochs slice preserves
// document order and is immutable after parsing; queries hand out pointers
// into it rather than copies.
type Dataset struct {
	Source     string
	LoadedAt   time.Time
	Comment    []string
	Header     map[string]string
	Metadata   map[string]string
	EpochRange EpochRange
	Epochs     []StateVector
}

// Len returns the number of state vectors in the dataset.
func (d *Dataset) Len() int {
	return len(d.Epochs)
}
