package models

import "time"

const (
	ContentStatusDraft     = "draft"
	ContentStatusScheduled = "scheduled"
	ContentStatusPosted    = "posted"
	ContentStatusFailed    = "failed"
)

const (
	ContentTypeImage = "image"
	ContentTypeVideo = "video"
	ContentTypeText  = "text"
)

// Content is a user-authored post. Its status is set by the caller and never
// recomputed server-side; whether publishing actually succeeded is reported
// separately by the publish dispatcher.
type Content struct {
	ID           int64      `db:"id" json:"id"`
	Title        string     `db:"title" json:"title"`
	Description  string     `db:"description" json:"description"`
	ContentType  string     `db:"content_type" json:"content_type"`
	MediaURL     string     `db:"media_url" json:"media_url"`
	Platforms    []Platform `db:"platforms" json:"platforms"`
	Status       string     `db:"status" json:"status"`
	ScheduledFor time.Time  `db:"scheduled_for" json:"scheduled_for"`
	AuthorID     int64      `db:"author_id" json:"author_id"`
	ChurchID     string     `db:"church_id" json:"church_id"`
	Hashtags     []string   `db:"hashtags" json:"hashtags"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}
