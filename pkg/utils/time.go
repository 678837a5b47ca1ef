package utils

import "time"

// Now returns current time (overridable for tests).
var Now = time.Now

// NowMs returns the current time in milliseconds since the Unix epoch,
// matching the timestamp attached to inbound messages.
func NowMs() int64 {
	return Now().UnixMilli()
}

// IsExpired checks if a timestamp is past its TTL.
func IsExpired(timestamp time.Time, ttl time.Duration) bool {
	return Now().Sub(timestamp) > ttl
}

// TimeUntilExpiry returns the remaining TTL, clamped at zero.
func TimeUntilExpiry(timestamp time.Time, ttl time.Duration) time.Duration {
	remaining := ttl - Now().Sub(timestamp)
	if remaining < 0 {
		return 0
	}
	return remaining
}
