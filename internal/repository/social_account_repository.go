package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/parishpost/parishpost/internal/models"
)

type SocialAccountRepository interface {
	Upsert(ctx context.Context, sa *models.SocialAccount) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.SocialAccount, error)
	GetByUserPlatform(ctx context.Context, userID int64, platform models.Platform) (*models.SocialAccount, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.SocialAccount, error)
	ListByPlatforms(ctx context.Context, userID int64, platforms []models.Platform) ([]*models.SocialAccount, error)
	ListExpiring(ctx context.Context, initialTime, finalTime time.Time) ([]*models.SocialAccount, error)
	SetToken(ctx context.Context, id int64, sa *models.SocialAccount) error
	RemoveByUserPlatform(ctx context.Context, userID int64, platform models.Platform) error
}

type socialAccountRepository struct {
	db *sql.DB
}

func NewSocialAccountRepository(db *sql.DB) SocialAccountRepository {
	return &socialAccountRepository{db: db}
}

const socialAccountColumns = `id, user_id, platform, access_token, refresh_token, pages, token_expires_at, connected_at, updated_at`

// Upsert keeps at most one row per (user, platform); reconnecting replaces
// the previous tokens and pages.
func (r *socialAccountRepository) Upsert(ctx context.Context, sa *models.SocialAccount) (int64, error) {
	pages, err := json.Marshal(sa.Pages)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	query := `
		INSERT INTO social_accounts (user_id, platform, access_token, refresh_token, pages, token_expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, platform) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			pages = EXCLUDED.pages,
			token_expires_at = EXCLUDED.token_expires_at,
			connected_at = CURRENT_TIMESTAMP,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id
	`

	var id int64
	err = r.db.QueryRowContext(ctx, query,
		sa.UserID,
		sa.Platform,
		sa.AccessToken,
		sa.RefreshToken,
		pages,
		nullableTime(sa.TokenExpiresAt),
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *socialAccountRepository) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *socialAccountRepository) GetByUserPlatform(ctx context.Context, userID int64, platform models.Platform) (*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts WHERE user_id = $1 AND platform = $2`
	return r.scanOne(r.db.QueryRowContext(ctx, query, userID, platform))
}

func (r *socialAccountRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts WHERE user_id = $1`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return r.scanAll(rows)
}

func (r *socialAccountRepository) ListByPlatforms(ctx context.Context, userID int64, platforms []models.Platform) ([]*models.SocialAccount, error) {
	names := make([]string, len(platforms))
	for i, p := range platforms {
		names[i] = string(p)
	}

	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts WHERE user_id = $1 AND platform = ANY($2)`
	rows, err := r.db.QueryContext(ctx, query, userID, pq.Array(names))
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return r.scanAll(rows)
}

func (r *socialAccountRepository) ListExpiring(ctx context.Context, initialTime, finalTime time.Time) ([]*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + `
		FROM social_accounts
		WHERE token_expires_at IS NOT NULL
		AND ((token_expires_at BETWEEN $1 AND $2) OR token_expires_at < $1)`
	rows, err := r.db.QueryContext(ctx, query, initialTime, finalTime)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return r.scanAll(rows)
}

func (r *socialAccountRepository) SetToken(ctx context.Context, id int64, sa *models.SocialAccount) error {
	query := `
		UPDATE social_accounts
		SET
			access_token = COALESCE(NULLIF($2, ''), access_token),
			refresh_token = COALESCE(NULLIF($3, ''), refresh_token),
			token_expires_at = COALESCE($4, token_expires_at),
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id, sa.AccessToken, sa.RefreshToken, nullableTime(sa.TokenExpiresAt))
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// RemoveByUserPlatform is idempotent; deleting a platform that was never
// connected is not an error.
func (r *socialAccountRepository) RemoveByUserPlatform(ctx context.Context, userID int64, platform models.Platform) error {
	query := `DELETE FROM social_accounts WHERE user_id = $1 AND platform = $2`
	_, err := r.db.ExecContext(ctx, query, userID, platform)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *socialAccountRepository) scanOne(row *sql.Row) (*models.SocialAccount, error) {
	var sa models.SocialAccount
	var pages []byte
	var refreshToken sql.NullString
	var expiresAt sql.NullTime

	err := row.Scan(&sa.ID, &sa.UserID, &sa.Platform, &sa.AccessToken, &refreshToken,
		&pages, &expiresAt, &sa.ConnectedAt, &sa.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	sa.RefreshToken = refreshToken.String
	if expiresAt.Valid {
		sa.TokenExpiresAt = expiresAt.Time
	}
	if len(pages) > 0 {
		if err := json.Unmarshal(pages, &sa.Pages); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
	}

	return &sa, nil
}

func (r *socialAccountRepository) scanAll(rows *sql.Rows) ([]*models.SocialAccount, error) {
	var accounts []*models.SocialAccount
	for rows.Next() {
		var sa models.SocialAccount
		var pages []byte
		var refreshToken sql.NullString
		var expiresAt sql.NullTime

		err := rows.Scan(&sa.ID, &sa.UserID, &sa.Platform, &sa.AccessToken, &refreshToken,
			&pages, &expiresAt, &sa.ConnectedAt, &sa.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}

		sa.RefreshToken = refreshToken.String
		if expiresAt.Valid {
			sa.TokenExpiresAt = expiresAt.Time
		}
		if len(pages) > 0 {
			if err := json.Unmarshal(pages, &sa.Pages); err != nil {
				slog.Info(err.Error())
				return nil, err
			}
		}

		accounts = append(accounts, &sa)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return accounts, nil
}

func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
