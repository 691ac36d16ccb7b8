// Package gcstats records collection cycle statistics: a compact CBOR report
// per cycle and an SQLite history of past cycles.
package gcstats

import (
	"fmt"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/chazu/gcmark/gc"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("gcstats: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Report is the serialized form of gc.CycleStats.
type Report struct {
	ID         uuid.UUID `cbor:"1,keyasint"`
	Heap       string    `cbor:"2,keyasint"`
	StartedNs  int64     `cbor:"3,keyasint"`
	DurationNs int64     `cbor:"4,keyasint"`

	RootsTraced   int64 `cbor:"5,keyasint"`
	MarkedObjects int64 `cbor:"6,keyasint"`
	MarkedBytes   int64 `cbor:"7,keyasint"`
	Deferred      int64 `cbor:"8,keyasint"`
	WeakCleared   int64 `cbor:"9,keyasint"`
	SweptObjects  int64 `cbor:"10,keyasint"`
	SweptBytes    int64 `cbor:"11,keyasint"`
	LiveObjects   int64 `cbor:"12,keyasint"`
	LiveBytes     int64 `cbor:"13,keyasint"`
}

// NewReport converts cycle statistics into a report.
func NewReport(s *gc.CycleStats) *Report {
	return &Report{
		ID:            s.ID,
		Heap:          s.Heap,
		StartedNs:     s.Started.UnixNano(),
		DurationNs:    int64(s.Duration),
		RootsTraced:   s.RootsTraced,
		MarkedObjects: s.MarkedObjects,
		MarkedBytes:   s.MarkedBytes,
		Deferred:      s.Deferred,
		WeakCleared:   s.WeakCleared,
		SweptObjects:  s.SweptObjects,
		SweptBytes:    s.SweptBytes,
		LiveObjects:   s.LiveObjects,
		LiveBytes:     s.LiveBytes,
	}
}

// Started returns the cycle start time.
func (r *Report) Started() time.Time {
	return time.Unix(0, r.StartedNs)
}

// Duration returns how long the cycle took.
func (r *Report) Duration() time.Duration {
	return time.Duration(r.DurationNs)
}

// MarshalReport serializes a Report to CBOR bytes.
func MarshalReport(r *Report) ([]byte, error) {
	return cborEncMode.Marshal(r)
}

// UnmarshalReport deserializes a Report from CBOR bytes.
func UnmarshalReport(data []byte) (*Report, error) {
	var r Report
	if err := cbor.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("gcstats: unmarshal report: %w", err)
	}
	return &r, nil
}

// WriteReport writes the CBOR form of r to path.
func WriteReport(path string, r *Report) error {
	data, err := MarshalReport(r)
	if err != nil {
		return fmt.Errorf("gcstats: marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("gcstats: write report: %w", err)
	}
	return nil
}

// ReadReport reads a report written by WriteReport.
func ReadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("gcstats: read report: %w", err)
	}
	return UnmarshalReport(data)
}
