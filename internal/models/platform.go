package models

import "fmt"

// Platform is the closed set of social networks the service can talk to.
type Platform string

const (
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
	PlatformYoutube   Platform = "youtube"
	PlatformTiktok    Platform = "tiktok"
)

// AllPlatforms is ordered the way the settings page lists connections.
func AllPlatforms() []Platform {
	return []Platform{PlatformFacebook, PlatformInstagram, PlatformYoutube, PlatformTiktok}
}

func ParsePlatform(s string) (Platform, error) {
	switch Platform(s) {
	case PlatformFacebook, PlatformInstagram, PlatformYoutube, PlatformTiktok:
		return Platform(s), nil
	}
	return "", fmt.Errorf("unknown platform: %q", s)
}

func (p Platform) String() string {
	return string(p)
}
