package models

import "time"

// OAuthState is a server-issued CSRF nonce for one pending OAuth connect
// flow. Single-use: the callback consumes (deletes) it before any token
// exchange is attempted.
type OAuthState struct {
	State       string    `db:"state" json:"state"`
	UserID      int64     `db:"user_id" json:"user_id"`
	Platform    Platform  `db:"platform" json:"platform"`
	RedirectURI string    `db:"redirect_uri" json:"redirect_uri"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	ExpiresAt   time.Time `db:"expires_at" json:"expires_at"`
}
