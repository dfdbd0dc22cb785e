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

func newContentRepo(t *testing.T) (ContentRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewContentRepository(db), mock
}

func TestContentCreate(t *testing.T) {
	repo, mock := newContentRepo(t)

	scheduledFor := time.Now().Add(48 * time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO contents")).
		WithArgs("Sunday Service", "Join us at 10am", "text", "",
			sqlmock.AnyArg(), "scheduled", scheduledFor, int64(7), "church-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

	id, err := repo.Create(context.Background(), &models.Content{
		Title:        "Sunday Service",
		Description:  "Join us at 10am",
		ContentType:  models.ContentTypeText,
		Platforms:    []models.Platform{models.PlatformFacebook},
		Status:       models.ContentStatusScheduled,
		ScheduledFor: scheduledFor,
		AuthorID:     7,
		ChurchID:     "church-1",
		Hashtags:     []string{"worship"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContentListByChurchOrdersBySchedule(t *testing.T) {
	repo, mock := newContentRepo(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "title", "description", "content_type", "media_url", "platforms",
		"status", "scheduled_for", "author_id", "church_id", "hashtags",
		"created_at", "updated_at",
	}).
		AddRow(int64(1), "First", "", "text", "", []byte("{facebook}"),
			"scheduled", now.Add(time.Hour), int64(7), "church-1", []byte("{}"), now, now).
		AddRow(int64(2), "Draft", "", "text", "", []byte("{youtube}"),
			"draft", nil, int64(7), "church-1", []byte("{}"), now, now)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY scheduled_for ASC NULLS LAST, id ASC")).
		WithArgs("church-1").
		WillReturnRows(rows)

	contents, err := repo.ListByChurch(context.Background(), "church-1")
	require.NoError(t, err)
	require.Len(t, contents, 2)
	assert.Equal(t, "First", contents[0].Title)
	assert.Equal(t, []models.Platform{models.PlatformFacebook}, contents[0].Platforms)
	assert.True(t, contents[1].ScheduledFor.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContentSetSchedule(t *testing.T) {
	repo, mock := newContentRepo(t)

	scheduledFor := time.Now().Add(24 * time.Hour)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE contents SET scheduled_for = $1, status = $2")).
		WithArgs(scheduledFor, "scheduled", int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SetSchedule(context.Background(), 11, scheduledFor)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContentCheckByChurch(t *testing.T) {
	repo, mock := newContentRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM contents WHERE id = $1 AND church_id = $2")).
		WithArgs(int64(11), "church-1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	owned, err := repo.CheckByChurch(context.Background(), 11, "church-1")
	require.NoError(t, err)
	assert.True(t, owned)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM contents WHERE id = $1 AND church_id = $2")).
		WithArgs(int64(11), "other-church").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	owned, err = repo.CheckByChurch(context.Background(), 11, "other-church")
	require.NoError(t, err)
	assert.False(t, owned)
	assert.NoError(t, mock.ExpectationsWereMet())
}
