package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	config "github.com/parishpost/parishpost/configs"
	"github.com/parishpost/parishpost/internal/models"
	"github.com/parishpost/parishpost/internal/repository"
	"github.com/parishpost/parishpost/internal/transfer"
	"github.com/parishpost/parishpost/pkg/utils"
)

const (
	tiktokAuthURL = "https://www.tiktok.com/v2/auth/authorize/"
	tiktokAPIURL  = "https://open.tiktokapis.com"
	tiktokScope   = "user.info.basic,video.publish"
)

// TiktokService connects TikTok accounts. Publishing is not implemented for
// TikTok; the dispatcher reports it as unsupported.
type TiktokService struct {
	cfg     config.Config
	authURL string
	apiURL  string
	client  *http.Client
	sa      repository.SocialAccountRepository
}

func NewTiktokService(cfg config.Config, sa repository.SocialAccountRepository) *TiktokService {
	return &TiktokService{
		cfg:     cfg,
		authURL: tiktokAuthURL,
		apiURL:  tiktokAPIURL,
		client:  http.DefaultClient,
		sa:      sa,
	}
}

func (s *TiktokService) AuthCodeURL(state, redirectURI string) (string, error) {
	if s.cfg.TiktokClientKey == "" {
		return "", &ConfigurationError{Platform: models.PlatformTiktok, Key: "TIKTOK_CLIENT_KEY"}
	}

	params := url.Values{}
	params.Add("client_key", s.cfg.TiktokClientKey)
	params.Add("redirect_uri", redirectURI)
	params.Add("scope", tiktokScope)
	params.Add("response_type", "code")
	params.Add("state", state)

	return fmt.Sprintf("%s?%s", s.authURL, params.Encode()), nil
}

// Exchange trades the code for tokens and stores the TikTok profile as the
// single publishing target.
func (s *TiktokService) Exchange(ctx context.Context, code, redirectURI string) (*transfer.Credentials, error) {
	if s.cfg.TiktokClientKey == "" || s.cfg.TiktokClientSecret == "" {
		return nil, &ConfigurationError{Platform: models.PlatformTiktok, Key: "TIKTOK_CLIENT_SECRET"}
	}

	token, err := s.requestToken(ctx, url.Values{
		"client_key":    {s.cfg.TiktokClientKey},
		"client_secret": {s.cfg.TiktokClientSecret},
		"code":          {code},
		"grant_type":    {"authorization_code"},
		"redirect_uri":  {redirectURI},
	})
	if err != nil {
		return nil, err
	}

	user, err := s.getUserInfo(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}

	return &transfer.Credentials{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    GetExpiresAt(token.ExpiresIn),
		Pages: []models.Page{{
			ID:       user.OpenID,
			Name:     user.DisplayName,
			Username: user.Username,
		}},
	}, nil
}

func (s *TiktokService) requestToken(ctx context.Context, data url.Values) (*transfer.TiktokTokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+"/v2/oauth/token/", strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &ExchangeError{Platform: models.PlatformTiktok, Reason: err.Error()}
	}
	defer resp.Body.Close()

	var token transfer.TiktokTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, &ExchangeError{Platform: models.PlatformTiktok, Reason: err.Error()}
	}
	if token.AccessToken == "" {
		reason := token.ErrorDescription
		if reason == "" {
			reason = fmt.Sprintf("token request failed (status %d)", resp.StatusCode)
		}
		return nil, &ExchangeError{Platform: models.PlatformTiktok, Reason: reason}
	}

	return &token, nil
}

func (s *TiktokService) getUserInfo(ctx context.Context, accessToken string) (*transfer.TiktokUser, error) {
	reqURL := s.apiURL + "/v2/user/info/?fields=open_id,avatar_url,display_name,username"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &ExchangeError{Platform: models.PlatformTiktok, Reason: err.Error()}
	}
	defer resp.Body.Close()

	var result transfer.TiktokUserResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &ExchangeError{Platform: models.PlatformTiktok, Reason: err.Error()}
	}
	if result.Error.Code != "" && result.Error.Code != "ok" {
		return nil, &ExchangeError{Platform: models.PlatformTiktok, Reason: result.Error.Message}
	}

	return &result.Data.User, nil
}

// RefreshToken rotates both tokens; TikTok invalidates the old refresh token
// on use.
func (s *TiktokService) RefreshToken(ctx context.Context, acc *models.SocialAccount) error {
	refreshToken, err := utils.Decrypt(acc.RefreshToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	token, err := s.requestToken(ctx, url.Values{
		"client_key":    {s.cfg.TiktokClientKey},
		"client_secret": {s.cfg.TiktokClientSecret},
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	})
	if err != nil {
		return err
	}

	encryptedAccessToken, err := utils.Encrypt([]byte(token.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}
	encryptedRefreshToken, err := utils.Encrypt([]byte(token.RefreshToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	return s.sa.SetToken(ctx, acc.ID, &models.SocialAccount{
		AccessToken:    encryptedAccessToken,
		RefreshToken:   encryptedRefreshToken,
		TokenExpiresAt: GetExpiresAt(token.ExpiresIn),
	})
}

// Revoke invalidates the token at TikTok on disconnect.
func (s *TiktokService) Revoke(ctx context.Context, accessToken string) error {
	data := url.Values{
		"client_key":    {s.cfg.TiktokClientKey},
		"client_secret": {s.cfg.TiktokClientSecret},
		"token":         {accessToken},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+"/v2/oauth/revoke/", strings.NewReader(data.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var revokeData transfer.TiktokRevokeData
		if err := json.NewDecoder(resp.Body).Decode(&revokeData); err == nil && revokeData.Description != "" {
			return fmt.Errorf("failed to revoke token: %s", revokeData.Description)
		}
		return fmt.Errorf("failed to revoke token, status code: %d", resp.StatusCode)
	}
	return nil
}
