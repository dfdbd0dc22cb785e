package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/parishpost/parishpost/internal/models"
)

type OAuthStateRepository interface {
	Create(ctx context.Context, st *models.OAuthState) error
	// Consume removes and returns the pending state for (user, platform).
	// Returns nil when no state was stored. The row is gone either way, so
	// a state can never be replayed.
	Consume(ctx context.Context, userID int64, platform models.Platform) (*models.OAuthState, error)
}

type oauthStateRepository struct {
	db *sql.DB
}

func NewOAuthStateRepository(db *sql.DB) OAuthStateRepository {
	return &oauthStateRepository{db: db}
}

func (r *oauthStateRepository) Create(ctx context.Context, st *models.OAuthState) error {
	// One pending flow per (user, platform); starting over replaces the nonce.
	query := `
		INSERT INTO oauth_states (state, user_id, platform, redirect_uri, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, platform) DO UPDATE SET
			state = EXCLUDED.state,
			redirect_uri = EXCLUDED.redirect_uri,
			created_at = CURRENT_TIMESTAMP,
			expires_at = EXCLUDED.expires_at
	`
	_, err := r.db.ExecContext(ctx, query, st.State, st.UserID, st.Platform, st.RedirectURI, st.ExpiresAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *oauthStateRepository) Consume(ctx context.Context, userID int64, platform models.Platform) (*models.OAuthState, error) {
	query := `
		DELETE FROM oauth_states
		WHERE user_id = $1 AND platform = $2
		RETURNING state, user_id, platform, redirect_uri, created_at, expires_at
	`

	var st models.OAuthState
	err := r.db.QueryRowContext(ctx, query, userID, platform).Scan(
		&st.State, &st.UserID, &st.Platform, &st.RedirectURI, &st.CreatedAt, &st.ExpiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &st, nil
}
