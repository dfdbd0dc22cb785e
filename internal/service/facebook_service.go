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
	"github.com/parishpost/parishpost/internal/transfer"
)

const (
	facebookDialogURL = "https://www.facebook.com/v19.0/dialog/oauth"
	facebookGraphURL  = "https://graph.facebook.com/v19.0"
	facebookScope     = "pages_manage_posts,pages_read_engagement"
)

// FacebookService connects Facebook accounts and publishes to Pages.
type FacebookService struct {
	cfg       config.Config
	dialogURL string
	graphURL  string
	client    *http.Client
}

func NewFacebookService(cfg config.Config) *FacebookService {
	return &FacebookService{
		cfg:       cfg,
		dialogURL: facebookDialogURL,
		graphURL:  facebookGraphURL,
		client:    http.DefaultClient,
	}
}

func (s *FacebookService) AuthCodeURL(state, redirectURI string) (string, error) {
	if s.cfg.FacebookAppID == "" {
		return "", &ConfigurationError{Platform: models.PlatformFacebook, Key: "FACEBOOK_APP_ID"}
	}

	params := url.Values{}
	params.Add("client_id", s.cfg.FacebookAppID)
	params.Add("redirect_uri", redirectURI)
	params.Add("scope", facebookScope)
	params.Add("state", state)

	return fmt.Sprintf("%s?%s", s.dialogURL, params.Encode()), nil
}

// Exchange trades the code for a short-lived user token, then fetches the
// Pages the user manages. Facebook issues no refresh token here.
func (s *FacebookService) Exchange(ctx context.Context, code, redirectURI string) (*transfer.Credentials, error) {
	if s.cfg.FacebookAppID == "" || s.cfg.FacebookAppSecret == "" {
		return nil, &ConfigurationError{Platform: models.PlatformFacebook, Key: "FACEBOOK_APP_SECRET"}
	}

	params := url.Values{}
	params.Add("client_id", s.cfg.FacebookAppID)
	params.Add("client_secret", s.cfg.FacebookAppSecret)
	params.Add("code", code)
	params.Add("redirect_uri", redirectURI)

	tokenURL := fmt.Sprintf("%s/oauth/access_token?%s", s.graphURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tokenURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &ExchangeError{Platform: models.PlatformFacebook, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ExchangeError{Platform: models.PlatformFacebook, Reason: facebookErrorMessage(resp, "Failed to get Facebook access token")}
	}

	var tokenResponse transfer.FacebookTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResponse); err != nil {
		return nil, &ExchangeError{Platform: models.PlatformFacebook, Reason: err.Error()}
	}

	pages, err := s.fetchPages(ctx, tokenResponse.AccessToken)
	if err != nil {
		return nil, err
	}

	creds := &transfer.Credentials{
		AccessToken: tokenResponse.AccessToken,
		Pages:       pages,
	}
	if tokenResponse.ExpiresIn > 0 {
		creds.ExpiresAt = GetExpiresAt(tokenResponse.ExpiresIn)
	}

	return creds, nil
}

func (s *FacebookService) fetchPages(ctx context.Context, accessToken string) ([]models.Page, error) {
	pagesURL := fmt.Sprintf("%s/me/accounts?access_token=%s", s.graphURL, url.QueryEscape(accessToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pagesURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &ExchangeError{Platform: models.PlatformFacebook, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ExchangeError{Platform: models.PlatformFacebook, Reason: facebookErrorMessage(resp, "Failed to get Facebook pages")}
	}

	var pagesResponse transfer.FacebookPagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&pagesResponse); err != nil {
		return nil, &ExchangeError{Platform: models.PlatformFacebook, Reason: err.Error()}
	}

	pages := make([]models.Page, len(pagesResponse.Data))
	for i, p := range pagesResponse.Data {
		pages[i] = models.Page{ID: p.ID, Name: p.Name, AccessToken: p.AccessToken}
	}

	return pages, nil
}

// Publish posts to the first connected Page: a photo post when media is
// attached, a plain feed post otherwise.
func (s *FacebookService) Publish(ctx context.Context, acc *models.SocialAccount, accessToken string, req *transfer.PublishRequest) (*transfer.PublishResult, error) {
	if len(acc.Pages) == 0 {
		return nil, &PublishError{Platform: models.PlatformFacebook, Reason: "no Facebook page connected"}
	}
	page := acc.Pages[0]

	// Page posts need the page token, not the user token.
	pageToken := page.AccessToken
	if pageToken == "" {
		pageToken = accessToken
	}

	endpoint := fmt.Sprintf("%s/%s/feed", s.graphURL, page.ID)
	form := url.Values{}
	form.Add("message", req.Message)
	form.Add("access_token", pageToken)
	if req.MediaURL != "" {
		endpoint = fmt.Sprintf("%s/%s/photos", s.graphURL, page.ID)
		form.Add("url", req.MediaURL)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, &PublishError{Platform: models.PlatformFacebook, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &PublishError{Platform: models.PlatformFacebook, Reason: facebookErrorMessage(resp, "Failed to post to Facebook")}
	}

	var result transfer.FacebookPostResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &PublishError{Platform: models.PlatformFacebook, Reason: err.Error()}
	}

	postID := result.PostID
	if postID == "" {
		postID = result.ID
	}

	return &transfer.PublishResult{Platform: models.PlatformFacebook, PostID: postID}, nil
}

func facebookErrorMessage(resp *http.Response, fallback string) string {
	var fbErr transfer.FacebookErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&fbErr); err == nil && fbErr.Error.Message != "" {
		return fbErr.Error.Message
	}
	return fmt.Sprintf("%s (status %d)", fallback, resp.StatusCode)
}
