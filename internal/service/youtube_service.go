package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	config "github.com/parishpost/parishpost/configs"
	"github.com/parishpost/parishpost/internal/models"
	"github.com/parishpost/parishpost/internal/repository"
	"github.com/parishpost/parishpost/internal/transfer"
	"github.com/parishpost/parishpost/pkg/utils"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const googleRevokeURL = "https://oauth2.googleapis.com/revoke"

var youtubeScopes = []string{
	"https://www.googleapis.com/auth/youtube",
	"https://www.googleapis.com/auth/youtube.upload",
	"https://www.googleapis.com/auth/youtube.readonly",
	"https://www.googleapis.com/auth/youtube.force-ssl",
}

// YoutubeService connects YouTube channels and uploads videos.
type YoutubeService struct {
	cfg    config.Config
	client *http.Client
	sa     repository.SocialAccountRepository
}

func NewYoutubeService(cfg config.Config, sa repository.SocialAccountRepository) *YoutubeService {
	return &YoutubeService{
		cfg:    cfg,
		client: http.DefaultClient,
		sa:     sa,
	}
}

func (s *YoutubeService) oauthConfig(redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.cfg.GoogleClientID,
		ClientSecret: s.cfg.GoogleClientSecret,
		RedirectURL:  redirectURI,
		Scopes:       youtubeScopes,
		Endpoint:     google.Endpoint,
	}
}

func (s *YoutubeService) AuthCodeURL(state, redirectURI string) (string, error) {
	if s.cfg.GoogleClientID == "" {
		return "", &ConfigurationError{Platform: models.PlatformYoutube, Key: "GOOGLE_CLIENT_ID"}
	}

	// offline + consent so Google hands back a refresh token every time.
	return s.oauthConfig(redirectURI).AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
		oauth2.SetAuthURLParam("prompt", "consent"),
	), nil
}

// Exchange trades the code for access+refresh tokens and lists the
// authenticated channels. An account with no channel cannot publish, so zero
// channels fails the connect.
func (s *YoutubeService) Exchange(ctx context.Context, code, redirectURI string) (*transfer.Credentials, error) {
	if s.cfg.GoogleClientID == "" || s.cfg.GoogleClientSecret == "" {
		return nil, &ConfigurationError{Platform: models.PlatformYoutube, Key: "GOOGLE_CLIENT_SECRET"}
	}

	oauthConfig := s.oauthConfig(redirectURI)

	token, err := oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, &ExchangeError{Platform: models.PlatformYoutube, Reason: err.Error()}
	}

	client := oauthConfig.Client(ctx, token)
	service, err := youtube.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, &ExchangeError{Platform: models.PlatformYoutube, Reason: err.Error()}
	}

	channels, err := service.Channels.List([]string{"snippet"}).Mine(true).Do()
	if err != nil {
		return nil, &ExchangeError{Platform: models.PlatformYoutube, Reason: err.Error()}
	}
	if len(channels.Items) == 0 {
		return nil, &ExchangeError{Platform: models.PlatformYoutube, Reason: "No YouTube channels found for this account"}
	}

	pages := make([]models.Page, len(channels.Items))
	for i, ch := range channels.Items {
		pages[i] = models.Page{ID: ch.Id, Name: ch.Snippet.Title}
	}

	return &transfer.Credentials{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
		Pages:        pages,
	}, nil
}

// Publish uploads the video behind req.MediaURL. The media URL is required
// and checked before any network call is made.
func (s *YoutubeService) Publish(ctx context.Context, acc *models.SocialAccount, accessToken string, req *transfer.PublishRequest) (*transfer.PublishResult, error) {
	if req.MediaURL == "" {
		return nil, &PublishError{Platform: models.PlatformYoutube, Reason: "Video URL is required for YouTube posts"}
	}

	tempFile, err := s.downloadMedia(ctx, req.MediaURL)
	if err != nil {
		return nil, &PublishError{Platform: models.PlatformYoutube, Reason: err.Error()}
	}
	defer os.Remove(tempFile)

	file, err := os.Open(tempFile)
	if err != nil {
		return nil, &PublishError{Platform: models.PlatformYoutube, Reason: err.Error()}
	}
	defer file.Close()

	token := &oauth2.Token{AccessToken: accessToken}
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	service, err := youtube.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, &PublishError{Platform: models.PlatformYoutube, Reason: err.Error()}
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       req.Message,
			Description: req.Message,
			CategoryId:  "22", // People & Blogs
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus: "public",
		},
	}

	call := service.Videos.Insert([]string{"snippet", "status"}, video)
	response, err := call.Media(file).Do()
	if err != nil {
		return nil, &PublishError{Platform: models.PlatformYoutube, Reason: err.Error()}
	}

	return &transfer.PublishResult{
		Platform: models.PlatformYoutube,
		PostID:   response.Id,
		PostURL:  fmt.Sprintf("https://youtu.be/%s", response.Id),
	}, nil
}

func (s *YoutubeService) downloadMedia(ctx context.Context, mediaURL string) (string, error) {
	tempFile, err := os.CreateTemp("", "video-*.mp4")
	if err != nil {
		return "", fmt.Errorf("error creating temporary file: %w", err)
	}
	defer tempFile.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error downloading media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected response status downloading media: %d", resp.StatusCode)
	}

	if _, err := io.Copy(tempFile, resp.Body); err != nil {
		return "", fmt.Errorf("error saving media to temporary file: %w", err)
	}

	return tempFile.Name(), nil
}

// RefreshToken swaps the stored refresh token for a fresh access token.
func (s *YoutubeService) RefreshToken(ctx context.Context, acc *models.SocialAccount) error {
	if acc.RefreshToken == "" {
		return errors.New("no refresh token stored")
	}

	refreshToken, err := utils.Decrypt(acc.RefreshToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	conf := &oauth2.Config{
		ClientID:     s.cfg.GoogleClientID,
		ClientSecret: s.cfg.GoogleClientSecret,
		Scopes:       youtubeScopes,
		Endpoint:     google.Endpoint,
	}

	tokenSource := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := tokenSource.Token()
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	encryptedAccessToken, err := utils.Encrypt([]byte(token.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	return s.sa.SetToken(ctx, acc.ID, &models.SocialAccount{
		AccessToken:    encryptedAccessToken,
		TokenExpiresAt: token.Expiry,
	})
}

// Revoke invalidates the token at Google on disconnect.
func (s *YoutubeService) Revoke(ctx context.Context, accessToken string) error {
	payload := []byte("token=" + accessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, googleRevokeURL, bytes.NewBuffer(payload))
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
		return fmt.Errorf("failed to revoke token, status code: %d", resp.StatusCode)
	}
	return nil
}
