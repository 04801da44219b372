package session

import (
	"errors"
	"time"
)

// Session labels.
const (
	London = "London"
	NY     = "NY"
	Break  = "Break"
	Asia   = "Asia"
)

// ErrMissingTimestamp is returned when a zero-value instant is passed in.
// Callers must resolve "no entry time" before asking for a session.
var ErrMissingTimestamp = errors.New("session: entry instant required")

// referenceZone is the fixed local timezone the session windows are defined
// in. Loaded once; tzdata is always available on our deployment images.
var referenceZone = mustLoadZone("America/Los_Angeles")

func mustLoadZone(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// Infer maps a timezone-aware instant to one of the four trading sessions by
// half-open interval membership on local wall-clock time:
//
//	London: [00:00, 06:30)
//	NY:     [06:30, 13:00)
//	Break:  [13:00, 15:00)
//	Asia:   [15:00, 24:00)
//
// The intervals partition the full day, so every valid instant classifies.
func Infer(entryAt time.Time) (string, error) {
	if entryAt.IsZero() {
		return "", ErrMissingTimestamp
	}

	local := entryAt.In(referenceZone)
	minutes := local.Hour()*60 + local.Minute()

	switch {
	case minutes < 6*60+30:
		return London, nil
	case minutes < 13*60:
		return NY, nil
	case minutes < 15*60:
		return Break, nil
	default:
		return Asia, nil
	}
}
