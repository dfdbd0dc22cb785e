package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	config "github.com/parishpost/parishpost/configs"
	"github.com/parishpost/parishpost/internal/models"
	"github.com/parishpost/parishpost/internal/repository"
	"github.com/parishpost/parishpost/internal/transfer"
	"github.com/parishpost/parishpost/pkg/utils"
)

// How long an issued state nonce stays valid.
const stateTTL = 10 * time.Minute

// Connector drives one platform's three-legged OAuth flow. Adding a platform
// means adding one implementation and registering it in main.
type Connector interface {
	// AuthCodeURL builds the platform authorization URL carrying the given
	// state. Returns a ConfigurationError when the platform's client id is
	// not configured.
	AuthCodeURL(state, redirectURI string) (string, error)
	// Exchange trades the authorization code for credentials and the
	// publishing targets (pages/channels) needed to post later.
	Exchange(ctx context.Context, code, redirectURI string) (*transfer.Credentials, error)
}

// TokenRefresher is implemented by connectors whose platform hands out
// refreshable tokens.
type TokenRefresher interface {
	RefreshToken(ctx context.Context, acc *models.SocialAccount) error
}

// Revoker is implemented by connectors whose platform supports server-side
// token revocation on disconnect.
type Revoker interface {
	Revoke(ctx context.Context, accessToken string) error
}

type ConnectService interface {
	BeginConnect(ctx context.Context, userID int64, platform models.Platform) (string, error)
	CompleteConnect(ctx context.Context, userID int64, platform models.Platform, code, state string) error
	ListConnections(ctx context.Context, userID int64) ([]*transfer.ConnectionStatus, error)
	Disconnect(ctx context.Context, userID int64, platform models.Platform) error
}

type connectService struct {
	cfg        config.Config
	connectors map[models.Platform]Connector
	states     repository.OAuthStateRepository
	sa         repository.SocialAccountRepository
}

func NewConnectService(
	cfg config.Config,
	connectors map[models.Platform]Connector,
	states repository.OAuthStateRepository,
	sa repository.SocialAccountRepository) ConnectService {
	return &connectService{
		cfg:        cfg,
		connectors: connectors,
		states:     states,
		sa:         sa,
	}
}

// BeginConnect builds the authorization URL for platform and persists a
// fresh single-use state nonce. The nonce is only written once the platform
// is known to be configured.
func (s *connectService) BeginConnect(ctx context.Context, userID int64, platform models.Platform) (string, error) {
	if userID == 0 {
		return "", &UnauthorizedError{Reason: "not authenticated"}
	}

	connector, ok := s.connectors[platform]
	if !ok {
		return "", fmt.Errorf("no connector registered for %s", platform)
	}

	suffix, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	state := fmt.Sprintf("%s_%s", platform, suffix)
	redirectURI := s.redirectURI(platform)

	authURL, err := connector.AuthCodeURL(state, redirectURI)
	if err != nil {
		return "", err
	}

	err = s.states.Create(ctx, &models.OAuthState{
		State:       state,
		UserID:      userID,
		Platform:    platform,
		RedirectURI: redirectURI,
		ExpiresAt:   time.Now().Add(stateTTL),
	})
	if err != nil {
		return "", fmt.Errorf("unable to store oauth state: %w", err)
	}

	return authURL, nil
}

// CompleteConnect validates the returned state, exchanges the code and
// upserts the social account. The pending state is consumed regardless of
// outcome, so a rejected callback cannot be replayed.
func (s *connectService) CompleteConnect(ctx context.Context, userID int64, platform models.Platform, code, state string) error {
	if userID == 0 {
		return &UnauthorizedError{Reason: "not authenticated"}
	}
	if code == "" {
		return errors.New("authorization code is empty")
	}

	connector, ok := s.connectors[platform]
	if !ok {
		return fmt.Errorf("no connector registered for %s", platform)
	}

	stored, err := s.states.Consume(ctx, userID, platform)
	if err != nil {
		return err
	}
	if stored == nil || stored.State != state || time.Now().After(stored.ExpiresAt) {
		slog.Info("oauth state mismatch", "platform", platform, "user_id", userID)
		return &InvalidStateError{Platform: platform}
	}

	creds, err := connector.Exchange(ctx, code, stored.RedirectURI)
	if err != nil {
		return err
	}

	encryptedAccessToken, err := utils.Encrypt([]byte(creds.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	var encryptedRefreshToken string
	if creds.RefreshToken != "" {
		encryptedRefreshToken, err = utils.Encrypt([]byte(creds.RefreshToken), []byte(s.cfg.SecretKey))
		if err != nil {
			return err
		}
	}

	_, err = s.sa.Upsert(ctx, &models.SocialAccount{
		UserID:         userID,
		Platform:       platform,
		AccessToken:    encryptedAccessToken,
		RefreshToken:   encryptedRefreshToken,
		Pages:          creds.Pages,
		TokenExpiresAt: creds.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("unable to save social account: %w", err)
	}

	return nil
}

// ListConnections reports every supported platform, defaulting to
// "disconnected" with an empty account name.
func (s *connectService) ListConnections(ctx context.Context, userID int64) ([]*transfer.ConnectionStatus, error) {
	if userID == 0 {
		return nil, &UnauthorizedError{Reason: "not authenticated"}
	}

	accounts, err := s.sa.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("unable to list social accounts: %w", err)
	}

	byPlatform := make(map[models.Platform]*models.SocialAccount, len(accounts))
	for _, acc := range accounts {
		byPlatform[acc.Platform] = acc
	}

	statuses := make([]*transfer.ConnectionStatus, 0, len(models.AllPlatforms()))
	for _, platform := range models.AllPlatforms() {
		status := &transfer.ConnectionStatus{
			Platform: platform,
			Status:   "disconnected",
		}
		if acc, ok := byPlatform[platform]; ok {
			connectedAt := acc.ConnectedAt
			status.Status = "connected"
			status.AccountName = acc.AccountName()
			status.ConnectedAt = &connectedAt
		}
		statuses = append(statuses, status)
	}

	return statuses, nil
}

// Disconnect removes the (user, platform) account. Idempotent: disconnecting
// a platform that was never connected succeeds. Revocation at the platform
// is best-effort and never blocks the delete.
func (s *connectService) Disconnect(ctx context.Context, userID int64, platform models.Platform) error {
	if userID == 0 {
		return &UnauthorizedError{Reason: "not authenticated"}
	}

	acc, err := s.sa.GetByUserPlatform(ctx, userID, platform)
	if err != nil {
		return err
	}
	if acc == nil {
		return nil
	}

	if revoker, ok := s.connectors[platform].(Revoker); ok {
		accessToken, err := utils.Decrypt(acc.AccessToken, []byte(s.cfg.SecretKey))
		if err == nil {
			if err := revoker.Revoke(ctx, accessToken); err != nil {
				slog.Info("token revocation failed", "platform", platform, "error", err.Error())
			}
		}
	}

	return s.sa.RemoveByUserPlatform(ctx, userID, platform)
}

// The platform sends the browser back to the dashboard settings page, which
// forwards code+state to the exchange endpoint.
func (s *connectService) redirectURI(platform models.Platform) string {
	return fmt.Sprintf("%s/settings?platform=%s", s.cfg.FrontendURL, platform)
}
