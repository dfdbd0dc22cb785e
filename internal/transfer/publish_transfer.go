package transfer

import "github.com/parishpost/parishpost/internal/models"

// PublishRequest fans one content item out to every listed platform.
type PublishRequest struct {
	Message      string            `json:"message"`
	MediaURL     string            `json:"mediaUrl,omitempty"`
	ScheduledFor string            `json:"scheduledFor,omitempty"`
	Platforms    []models.Platform `json:"platforms"`
}

// SinglePublishRequest targets one already-resolved social account.
type SinglePublishRequest struct {
	Message   string `json:"message"`
	MediaURL  string `json:"mediaUrl,omitempty"`
	AccountID int64  `json:"accountId"`
}

type PublishResult struct {
	Platform models.Platform `json:"platform"`
	PostID   string          `json:"post_id,omitempty"`
	PostURL  string          `json:"post_url,omitempty"`
}

// PublishSummary is returned when every platform attempt succeeded.
type PublishSummary struct {
	Platforms []models.Platform `json:"platforms"`
	Results   []*PublishResult  `json:"results"`
}
