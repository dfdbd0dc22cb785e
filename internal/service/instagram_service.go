package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	config "github.com/parishpost/parishpost/configs"
	"github.com/parishpost/parishpost/internal/models"
	"github.com/parishpost/parishpost/internal/repository"
	"github.com/parishpost/parishpost/internal/transfer"
	"github.com/parishpost/parishpost/pkg/utils"
)

const (
	instagramAuthURL  = "https://www.instagram.com/oauth/authorize"
	instagramAPIURL   = "https://api.instagram.com"
	instagramGraphURL = "https://graph.instagram.com"
	instagramScope    = "instagram_business_basic,instagram_business_content_publish"
)

// InstagramService connects Instagram business accounts. Publishing is not
// implemented for Instagram; the dispatcher reports it as unsupported.
type InstagramService struct {
	cfg      config.Config
	authURL  string
	apiURL   string
	graphURL string
	client   *http.Client
	sa       repository.SocialAccountRepository
}

func NewInstagramService(cfg config.Config, sa repository.SocialAccountRepository) *InstagramService {
	return &InstagramService{
		cfg:      cfg,
		authURL:  instagramAuthURL,
		apiURL:   instagramAPIURL,
		graphURL: instagramGraphURL,
		client:   http.DefaultClient,
		sa:       sa,
	}
}

func (s *InstagramService) AuthCodeURL(state, redirectURI string) (string, error) {
	if s.cfg.InstagramClientID == "" {
		return "", &ConfigurationError{Platform: models.PlatformInstagram, Key: "INSTAGRAM_CLIENT_ID"}
	}

	params := url.Values{}
	params.Add("client_id", s.cfg.InstagramClientID)
	params.Add("redirect_uri", redirectURI)
	params.Add("scope", instagramScope)
	params.Add("response_type", "code")
	params.Add("state", state)

	return fmt.Sprintf("%s?%s", s.authURL, params.Encode()), nil
}

// Exchange trades the code for a short-lived token, upgrades it to a
// long-lived one, and stores the profile as the single publishing target.
func (s *InstagramService) Exchange(ctx context.Context, code, redirectURI string) (*transfer.Credentials, error) {
	if s.cfg.InstagramClientID == "" || s.cfg.InstagramClientSecret == "" {
		return nil, &ConfigurationError{Platform: models.PlatformInstagram, Key: "INSTAGRAM_CLIENT_SECRET"}
	}

	shortLived, err := s.getShortLivedToken(ctx, code, redirectURI)
	if err != nil {
		return nil, err
	}

	longLived, expiresAt, err := s.getLongLivedToken(ctx, shortLived)
	if err != nil {
		return nil, err
	}

	profile, err := s.getProfile(ctx, longLived)
	if err != nil {
		return nil, err
	}

	return &transfer.Credentials{
		AccessToken: longLived,
		// Instagram refreshes the long-lived token with itself.
		RefreshToken: longLived,
		ExpiresAt:    expiresAt,
		Pages: []models.Page{{
			ID:       profile.ID,
			Name:     profile.Name,
			Username: profile.Username,
		}},
	}, nil
}

func (s *InstagramService) getShortLivedToken(ctx context.Context, code, redirectURI string) (string, error) {
	data := url.Values{}
	data.Set("client_id", s.cfg.InstagramClientID)
	data.Set("client_secret", s.cfg.InstagramClientSecret)
	data.Set("grant_type", "authorization_code")
	data.Set("redirect_uri", redirectURI)
	data.Set("code", code)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+"/oauth/access_token", strings.NewReader(data.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", &ExchangeError{Platform: models.PlatformInstagram, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &ExchangeError{Platform: models.PlatformInstagram, Reason: instagramErrorMessage(resp, "Failed to get short-lived token")}
	}

	var result transfer.InstagramShortTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &ExchangeError{Platform: models.PlatformInstagram, Reason: err.Error()}
	}

	return result.AccessToken, nil
}

func (s *InstagramService) getLongLivedToken(ctx context.Context, shortLivedToken string) (string, time.Time, error) {
	reqURL := fmt.Sprintf(
		"%s/access_token?grant_type=ig_exchange_token&client_secret=%s&access_token=%s",
		s.graphURL,
		url.QueryEscape(s.cfg.InstagramClientSecret),
		url.QueryEscape(shortLivedToken),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", time.Time{}, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", time.Time{}, &ExchangeError{Platform: models.PlatformInstagram, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", time.Time{}, &ExchangeError{Platform: models.PlatformInstagram, Reason: instagramErrorMessage(resp, "Failed to get long-lived token")}
	}

	var result transfer.InstagramLongTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", time.Time{}, &ExchangeError{Platform: models.PlatformInstagram, Reason: err.Error()}
	}

	return result.AccessToken, GetExpiresAt(int(result.ExpiresIn)), nil
}

func (s *InstagramService) getProfile(ctx context.Context, accessToken string) (*transfer.InstagramProfile, error) {
	reqURL := fmt.Sprintf(
		"%s/me?fields=id,username,name,profile_picture_url&access_token=%s",
		s.graphURL,
		url.QueryEscape(accessToken),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &ExchangeError{Platform: models.PlatformInstagram, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ExchangeError{Platform: models.PlatformInstagram, Reason: instagramErrorMessage(resp, "Failed to get Instagram profile")}
	}

	var profile transfer.InstagramProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, &ExchangeError{Platform: models.PlatformInstagram, Reason: err.Error()}
	}

	return &profile, nil
}

// RefreshToken extends the long-lived token before it expires.
func (s *InstagramService) RefreshToken(ctx context.Context, acc *models.SocialAccount) error {
	refreshToken, err := utils.Decrypt(acc.RefreshToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	reqURL := fmt.Sprintf(
		"%s/refresh_access_token?grant_type=ig_refresh_token&access_token=%s",
		s.graphURL,
		url.QueryEscape(refreshToken),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("instagram token refresh failed: %s", instagramErrorMessage(resp, "unexpected status"))
	}

	var result transfer.InstagramLongTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}

	encryptedToken, err := utils.Encrypt([]byte(result.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	return s.sa.SetToken(ctx, acc.ID, &models.SocialAccount{
		AccessToken:    encryptedToken,
		RefreshToken:   encryptedToken,
		TokenExpiresAt: GetExpiresAt(int(result.ExpiresIn)),
	})
}

func instagramErrorMessage(resp *http.Response, fallback string) string {
	var igErr transfer.InstagramErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&igErr); err == nil {
		if igErr.ErrorMessage != "" {
			return igErr.ErrorMessage
		}
		if igErr.Error.Message != "" {
			return igErr.Error.Message
		}
	}
	return fmt.Sprintf("%s (status %d)", fallback, resp.StatusCode)
}
