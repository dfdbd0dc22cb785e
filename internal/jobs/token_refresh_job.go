package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/parishpost/parishpost/internal/models"
	"github.com/parishpost/parishpost/internal/repository"
	"github.com/parishpost/parishpost/internal/service"
)

const refreshConcurrency = 10

// TokenRefreshJob refreshes platform tokens shortly before they expire.
// Platforms without a registered TokenRefresher (Facebook) are skipped.
type TokenRefreshJob struct {
	sr         repository.SocialAccountRepository
	refreshers map[models.Platform]service.TokenRefresher
}

func NewTokenRefreshJob(
	sr repository.SocialAccountRepository,
	refreshers map[models.Platform]service.TokenRefresher) *TokenRefreshJob {
	return &TokenRefreshJob{
		sr:         sr,
		refreshers: refreshers,
	}
}

func (j *TokenRefreshJob) RefreshTokens() {
	ctx := context.Background()

	currentTime := time.Now()
	timeIn30Minutes := currentTime.Add(30 * time.Minute)

	accounts, err := j.sr.ListExpiring(ctx, currentTime, timeIn30Minutes)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, refreshConcurrency)

	for _, acc := range accounts {
		refresher, ok := j.refreshers[acc.Platform]
		if !ok {
			continue
		}

		wg.Add(1)
		semaphore <- struct{}{}

		go func(acc *models.SocialAccount, refresher service.TokenRefresher) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if err := refresher.RefreshToken(ctx, acc); err != nil {
				slog.Info("unable to refresh token", "platform", acc.Platform, "account_id", acc.ID, "error", err.Error())
			}
		}(acc, refresher)
	}

	wg.Wait()
}
