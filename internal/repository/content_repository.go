package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/parishpost/parishpost/internal/models"
)

type ContentRepository interface {
	Create(ctx context.Context, c *models.Content) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Content, error)
	ListByChurch(ctx context.Context, churchID string) ([]*models.Content, error)
	Update(ctx context.Context, c *models.Content) error
	UpdateStatus(ctx context.Context, status string, id int64) error
	SetSchedule(ctx context.Context, id int64, scheduledFor time.Time) error
	CheckByChurch(ctx context.Context, id int64, churchID string) (bool, error)
	Remove(ctx context.Context, id int64) error
}

type contentRepository struct {
	db *sql.DB
}

func NewContentRepository(db *sql.DB) ContentRepository {
	return &contentRepository{db: db}
}

const contentColumns = `id, title, description, content_type, media_url, platforms, status, scheduled_for, author_id, church_id, hashtags, created_at, updated_at`

func (r *contentRepository) Create(ctx context.Context, c *models.Content) (int64, error) {
	query := `
		INSERT INTO contents (title, description, content_type, media_url, platforms, status, scheduled_for, author_id, church_id, hashtags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	platforms := make([]string, len(c.Platforms))
	for i, p := range c.Platforms {
		platforms[i] = string(p)
	}

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		c.Title,
		c.Description,
		c.ContentType,
		c.MediaURL,
		pq.Array(platforms),
		c.Status,
		nullableTime(c.ScheduledFor),
		c.AuthorID,
		c.ChurchID,
		pq.Array(c.Hashtags),
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *contentRepository) GetByID(ctx context.Context, id int64) (*models.Content, error) {
	query := `SELECT ` + contentColumns + ` FROM contents WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	c, err := scanContent(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return c, nil
}

func (r *contentRepository) ListByChurch(ctx context.Context, churchID string) ([]*models.Content, error) {
	query := `SELECT ` + contentColumns + ` FROM contents WHERE church_id = $1 ORDER BY scheduled_for ASC NULLS LAST, id ASC`
	rows, err := r.db.QueryContext(ctx, query, churchID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var contents []*models.Content
	for rows.Next() {
		c, err := scanContent(rows.Scan)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		contents = append(contents, c)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return contents, nil
}

func (r *contentRepository) Update(ctx context.Context, c *models.Content) error {
	query := `
		UPDATE contents
		SET title = $2,
			description = $3,
			content_type = $4,
			media_url = $5,
			platforms = $6,
			status = $7,
			scheduled_for = $8,
			hashtags = $9,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`

	platforms := make([]string, len(c.Platforms))
	for i, p := range c.Platforms {
		platforms[i] = string(p)
	}

	_, err := r.db.ExecContext(ctx, query,
		c.ID,
		c.Title,
		c.Description,
		c.ContentType,
		c.MediaURL,
		pq.Array(platforms),
		c.Status,
		nullableTime(c.ScheduledFor),
		pq.Array(c.Hashtags),
	)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *contentRepository) UpdateStatus(ctx context.Context, status string, id int64) error {
	query := `UPDATE contents SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *contentRepository) SetSchedule(ctx context.Context, id int64, scheduledFor time.Time) error {
	query := `UPDATE contents SET scheduled_for = $1, status = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, scheduledFor, models.ContentStatusScheduled, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *contentRepository) CheckByChurch(ctx context.Context, id int64, churchID string) (bool, error) {
	query := `SELECT 1 FROM contents WHERE id = $1 AND church_id = $2`

	var result int
	err := r.db.QueryRowContext(ctx, query, id, churchID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

func (r *contentRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM contents WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func scanContent(scan func(dest ...interface{}) error) (*models.Content, error) {
	var c models.Content
	var platforms []string
	var scheduledFor sql.NullTime

	err := scan(&c.ID, &c.Title, &c.Description, &c.ContentType, &c.MediaURL,
		pq.Array(&platforms), &c.Status, &scheduledFor, &c.AuthorID, &c.ChurchID,
		pq.Array(&c.Hashtags), &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if scheduledFor.Valid {
		c.ScheduledFor = scheduledFor.Time
	}
	c.Platforms = make([]models.Platform, len(platforms))
	for i, p := range platforms {
		c.Platforms[i] = models.Platform(p)
	}

	return &c, nil
}
