package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	config "github.com/parishpost/parishpost/configs"
	"github.com/parishpost/parishpost/internal/models"
	"github.com/parishpost/parishpost/internal/repository"
	"github.com/parishpost/parishpost/internal/transfer"
	"github.com/parishpost/parishpost/pkg/fanout"
	"github.com/parishpost/parishpost/pkg/utils"
)

// At most this many platform publishes run concurrently per request.
const publishConcurrency = 10

// Publisher posts one content item to one platform account. Platforms without
// a Publisher are rejected with UnsupportedPlatformError.
type Publisher interface {
	Publish(ctx context.Context, acc *models.SocialAccount, accessToken string, req *transfer.PublishRequest) (*transfer.PublishResult, error)
}

type PublishService interface {
	Publish(ctx context.Context, userID int64, req *transfer.PublishRequest) (*transfer.PublishSummary, error)
	PublishToAccount(ctx context.Context, userID int64, platform models.Platform, req *transfer.SinglePublishRequest) (*transfer.PublishResult, error)
}

type publishService struct {
	cfg        config.Config
	publishers map[models.Platform]Publisher
	sa         repository.SocialAccountRepository
}

func NewPublishService(
	cfg config.Config,
	publishers map[models.Platform]Publisher,
	sa repository.SocialAccountRepository) PublishService {
	return &publishService{
		cfg:        cfg,
		publishers: publishers,
		sa:         sa,
	}
}

// Publish fans req out to every requested platform concurrently. If any
// requested platform has no connected account the whole request is rejected
// before a single network call. Otherwise every platform is attempted; one
// failure never cancels the others, and failures are aggregated into a
// PublishReport alongside the platforms that succeeded.
func (s *publishService) Publish(ctx context.Context, userID int64, req *transfer.PublishRequest) (*transfer.PublishSummary, error) {
	if userID == 0 {
		return nil, &UnauthorizedError{Reason: "not authenticated"}
	}
	if req.Message == "" && req.MediaURL == "" {
		return nil, errors.New("post content is empty")
	}
	if len(req.Platforms) == 0 {
		return nil, errors.New("no platforms selected")
	}

	platforms := make([]models.Platform, 0, len(req.Platforms))
	seen := make(map[models.Platform]bool, len(req.Platforms))
	for _, p := range req.Platforms {
		platform, err := models.ParsePlatform(string(p))
		if err != nil {
			return nil, err
		}
		if !seen[platform] {
			seen[platform] = true
			platforms = append(platforms, platform)
		}
	}

	accounts, err := s.sa.ListByPlatforms(ctx, userID, platforms)
	if err != nil {
		return nil, fmt.Errorf("unable to load social accounts: %w", err)
	}

	byPlatform := make(map[models.Platform]*models.SocialAccount, len(accounts))
	for _, acc := range accounts {
		byPlatform[acc.Platform] = acc
	}

	var missing []models.Platform
	for _, platform := range platforms {
		if byPlatform[platform] == nil {
			missing = append(missing, platform)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingConnectionError{Platforms: missing}
	}

	tasks := make([]fanout.Task[*transfer.PublishResult], len(platforms))
	for i, platform := range platforms {
		acc := byPlatform[platform]
		tasks[i] = func(ctx context.Context) (*transfer.PublishResult, error) {
			return s.publishOne(ctx, platform, acc, req)
		}
	}

	results := fanout.Join(ctx, publishConcurrency, tasks)

	summary := &transfer.PublishSummary{Platforms: platforms}
	report := &PublishReport{}
	for i, res := range results {
		if res.Err != nil {
			slog.Info("publish failed", "platform", platforms[i], "error", res.Err.Error())
			report.Failed = append(report.Failed, PublishFailure{
				Platform: platforms[i],
				Reason:   res.Err.Error(),
			})
			continue
		}
		report.Succeeded = append(report.Succeeded, platforms[i])
		summary.Results = append(summary.Results, res.Value)
	}

	if len(report.Failed) > 0 {
		return nil, report
	}
	return summary, nil
}

// PublishToAccount posts to one explicit social account. The account must
// belong to the caller and match the requested platform.
func (s *publishService) PublishToAccount(ctx context.Context, userID int64, platform models.Platform, req *transfer.SinglePublishRequest) (*transfer.PublishResult, error) {
	if userID == 0 {
		return nil, &UnauthorizedError{Reason: "not authenticated"}
	}
	if req.Message == "" && req.MediaURL == "" {
		return nil, errors.New("post content is empty")
	}

	acc, err := s.sa.GetByID(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}
	if acc == nil || acc.UserID != userID {
		return nil, &MissingConnectionError{Platforms: []models.Platform{platform}}
	}
	if acc.Platform != platform {
		return nil, fmt.Errorf("account %d is a %s account, not %s", acc.ID, acc.Platform, platform)
	}

	return s.publishOne(ctx, platform, acc, &transfer.PublishRequest{
		Message:  req.Message,
		MediaURL: req.MediaURL,
	})
}

func (s *publishService) publishOne(ctx context.Context, platform models.Platform, acc *models.SocialAccount, req *transfer.PublishRequest) (*transfer.PublishResult, error) {
	publisher, ok := s.publishers[platform]
	if !ok {
		return nil, &UnsupportedPlatformError{Platform: platform}
	}

	accessToken, err := utils.Decrypt(acc.AccessToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return nil, fmt.Errorf("unable to decrypt access token: %w", err)
	}

	return publisher.Publish(ctx, acc, accessToken, req)
}
