package models

import "time"

// Page is a platform-side publishing target (Facebook Page, YouTube channel,
// Instagram profile, TikTok account) returned during the token exchange.
type Page struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Username    string `json:"username,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
}

// SocialAccount is one connected platform for one user. Tokens are stored
// AES-GCM encrypted. A row exists only after a successful token exchange;
// reconnecting the same platform replaces it.
type SocialAccount struct {
	ID             int64     `db:"id" json:"id"`
	UserID         int64     `db:"user_id" json:"user_id"`
	Platform       Platform  `db:"platform" json:"platform"`
	AccessToken    string    `db:"access_token" json:"-"`
	RefreshToken   string    `db:"refresh_token" json:"-"`
	Pages          []Page    `db:"pages" json:"pages"`
	TokenExpiresAt time.Time `db:"token_expires_at" json:"token_expires_at"`
	ConnectedAt    time.Time `db:"connected_at" json:"connected_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// AccountName is what the settings page shows next to a connected platform.
func (sa *SocialAccount) AccountName() string {
	if len(sa.Pages) == 0 {
		return ""
	}
	if sa.Pages[0].Name != "" {
		return sa.Pages[0].Name
	}
	return sa.Pages[0].Username
}
