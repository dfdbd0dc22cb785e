package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/parishpost/parishpost/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOAuthStateRepo(t *testing.T) (OAuthStateRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewOAuthStateRepository(db), mock
}

func TestOAuthStateCreate(t *testing.T) {
	repo, mock := newOAuthStateRepo(t)

	expiresAt := time.Now().Add(10 * time.Minute)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO oauth_states")).
		WithArgs("facebook_abc123", int64(7), "facebook", "https://app.example.com/settings?platform=facebook", expiresAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &models.OAuthState{
		State:       "facebook_abc123",
		UserID:      7,
		Platform:    models.PlatformFacebook,
		RedirectURI: "https://app.example.com/settings?platform=facebook",
		ExpiresAt:   expiresAt,
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOAuthStateConsume(t *testing.T) {
	repo, mock := newOAuthStateRepo(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"state", "user_id", "platform", "redirect_uri", "created_at", "expires_at"}).
		AddRow("youtube_xyz", int64(7), "youtube", "https://app.example.com/settings?platform=youtube", now, now.Add(10*time.Minute))

	mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM oauth_states")).
		WithArgs(int64(7), "youtube").
		WillReturnRows(rows)

	st, err := repo.Consume(context.Background(), 7, models.PlatformYoutube)
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, "youtube_xyz", st.State)
	assert.Equal(t, models.PlatformYoutube, st.Platform)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOAuthStateConsumeNothingPending(t *testing.T) {
	repo, mock := newOAuthStateRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM oauth_states")).
		WithArgs(int64(7), "facebook").
		WillReturnRows(sqlmock.NewRows([]string{"state"}))

	st, err := repo.Consume(context.Background(), 7, models.PlatformFacebook)
	require.NoError(t, err)
	assert.Nil(t, st)
	assert.NoError(t, mock.ExpectationsWereMet())
}
