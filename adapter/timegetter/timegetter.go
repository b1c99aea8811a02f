// Package timegetter contains the default [domain.TimeGetter] implementation,
// used to evaluate expiry of values stored with a TTL.
package timegetter

import (
	"time"

	"github.com/vinicius-lino-figueiredo/gnosql/domain"
)

// TimeGetter implements [domain.TimeGetter] with the wall clock.
type TimeGetter struct{}

// NewTimeGetter returns a new implementation of domain.TimeGetter.
func NewTimeGetter() domain.TimeGetter {
	return &TimeGetter{}
}

// GetTime implements [domain.TimeGetter].
func (t *TimeGetter) GetTime() time.Time {
	return time.Now()
}

// Deadline returns the instant a value stored at now with ttl expires. A
// non-positive ttl means no expiry and returns the zero time.
func Deadline(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}

// Expired reports whether deadline has passed at now. The zero deadline never
// expires.
func Expired(now, deadline time.Time) bool {
	return !deadline.IsZero() && !now.Before(deadline)
}
