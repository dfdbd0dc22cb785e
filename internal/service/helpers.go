package service

import "time"

// GetExpiresAt converts a platform's expires_in seconds into an absolute
// expiry timestamp.
func GetExpiresAt(expiresIn int) time.Time {
	return time.Now().Add(time.Duration(expiresIn) * time.Second)
}
