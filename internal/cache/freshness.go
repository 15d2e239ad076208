package cache

import "time"

// IsFresh reports whether a value stored at storedAt is still usable at now.
func IsFresh(storedAt time.Time, ttl time.Duration, now time.Time) bool {
	return now.Sub(storedAt) < ttl
}
