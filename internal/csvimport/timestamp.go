// Package csvimport holds the pure pieces of broker CSV ingestion: vendor
// timestamp normalization and the structural duplicate key. Orchestration
// against the store lives in the service layer.
package csvimport

import (
	"errors"
	"strings"
	"time"
)

// ErrBadTimestamp is returned when a raw value matches neither vendor format.
var ErrBadTimestamp = errors.New("csvimport: unparseable timestamp")

const (
	layoutWithOffset = "1/2/2006 15:04:05 -07:00"
	layoutNaive      = "1/2/2006 15:04:05"
)

// naiveZone is the fixed offset assumed for exports that carry no timezone.
// Deliberately a constant UTC-8, not America/Los_Angeles: the vendor's naive
// timestamps do not shift with daylight saving.
var naiveZone = time.FixedZone("UTC-8", -8*60*60)

// ParseVendorTime normalizes a raw broker timestamp to UTC. Two formats are
// recognized, tried in order:
//
//	10/22/2025 00:20:00 -07:00   (explicit offset)
//	12/09/2025 11:50:16          (naive, assumed UTC-8)
//
// An empty value is "no timestamp" and returns (nil, nil) so callers can fall
// back to now.
func ParseVendorTime(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	if ts, err := time.Parse(layoutWithOffset, raw); err == nil {
		utc := ts.UTC()
		return &utc, nil
	}

	if ts, err := time.ParseInLocation(layoutNaive, raw, naiveZone); err == nil {
		utc := ts.UTC()
		return &utc, nil
	}

	return nil, ErrBadTimestamp
}
