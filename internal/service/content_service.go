package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/parishpost/parishpost/internal/models"
	"github.com/parishpost/parishpost/internal/repository"
	"github.com/parishpost/parishpost/internal/transfer"
)

// ErrChurchRequired rejects content operations from users that have not
// joined a church yet.
var ErrChurchRequired = errors.New("user has no church assigned")

var validContentStatuses = map[string]bool{
	models.ContentStatusDraft:     true,
	models.ContentStatusScheduled: true,
	models.ContentStatusPosted:    true,
	models.ContentStatusFailed:    true,
}

var validContentTypes = map[string]bool{
	models.ContentTypeImage: true,
	models.ContentTypeVideo: true,
	models.ContentTypeText:  true,
}

type ContentService interface {
	Create(ctx context.Context, userID int64, req *transfer.ContentCreation) (int64, error)
	Get(ctx context.Context, userID, contentID int64) (*models.Content, error)
	List(ctx context.Context, userID int64) ([]*models.Content, error)
	Update(ctx context.Context, userID, contentID int64, req *transfer.ContentUpdate) (*models.Content, error)
	Schedule(ctx context.Context, userID, contentID int64, scheduledFor time.Time) error
	Remove(ctx context.Context, userID, contentID int64) error
}

type contentService struct {
	contents repository.ContentRepository
	users    repository.UserRepository
}

func NewContentService(contents repository.ContentRepository, users repository.UserRepository) ContentService {
	return &contentService{contents: contents, users: users}
}

// churchOf resolves the caller's church. Content always belongs to a church,
// so a user without one cannot touch content at all.
func (s *contentService) churchOf(ctx context.Context, userID int64) (string, error) {
	if userID == 0 {
		return "", &UnauthorizedError{Reason: "not authenticated"}
	}

	user, exists, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", &UnauthorizedError{Reason: "user not found"}
	}
	if user.ChurchID == "" {
		return "", ErrChurchRequired
	}

	return user.ChurchID, nil
}

func (s *contentService) Create(ctx context.Context, userID int64, req *transfer.ContentCreation) (int64, error) {
	churchID, err := s.churchOf(ctx, userID)
	if err != nil {
		return 0, err
	}

	if req.Title == "" {
		return 0, errors.New("title is required")
	}

	platforms, err := parsePlatforms(req.Platforms)
	if err != nil {
		return 0, err
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = models.ContentTypeText
	}
	if !validContentTypes[contentType] {
		return 0, fmt.Errorf("unknown content type: %q", contentType)
	}

	status := req.Status
	if status == "" {
		status = models.ContentStatusDraft
	}
	if !validContentStatuses[status] {
		return 0, fmt.Errorf("unknown content status: %q", status)
	}

	var scheduledFor time.Time
	if req.ScheduledFor != "" {
		scheduledFor, err = time.Parse(time.RFC3339, req.ScheduledFor)
		if err != nil {
			return 0, fmt.Errorf("invalid scheduled_for: %w", err)
		}
	}
	if status == models.ContentStatusScheduled && scheduledFor.IsZero() {
		return 0, errors.New("scheduled content needs a scheduled_for time")
	}

	return s.contents.Create(ctx, &models.Content{
		Title:        req.Title,
		Description:  req.Description,
		ContentType:  contentType,
		MediaURL:     req.MediaURL,
		Platforms:    platforms,
		Status:       status,
		ScheduledFor: scheduledFor,
		AuthorID:     userID,
		ChurchID:     churchID,
		Hashtags:     req.Hashtags,
	})
}

func (s *contentService) Get(ctx context.Context, userID, contentID int64) (*models.Content, error) {
	churchID, err := s.churchOf(ctx, userID)
	if err != nil {
		return nil, err
	}

	content, err := s.contents.GetByID(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if content == nil || content.ChurchID != churchID {
		return nil, errors.New("content not found")
	}

	return content, nil
}

func (s *contentService) List(ctx context.Context, userID int64) ([]*models.Content, error) {
	churchID, err := s.churchOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.contents.ListByChurch(ctx, churchID)
}

// Update merges the given fields into the stored content. Only fields present
// in req change; everything else keeps its stored value.
func (s *contentService) Update(ctx context.Context, userID, contentID int64, req *transfer.ContentUpdate) (*models.Content, error) {
	content, err := s.Get(ctx, userID, contentID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		if *req.Title == "" {
			return nil, errors.New("title is required")
		}
		content.Title = *req.Title
	}
	if req.Description != nil {
		content.Description = *req.Description
	}
	if req.ContentType != nil {
		if !validContentTypes[*req.ContentType] {
			return nil, fmt.Errorf("unknown content type: %q", *req.ContentType)
		}
		content.ContentType = *req.ContentType
	}
	if req.MediaURL != nil {
		content.MediaURL = *req.MediaURL
	}
	if req.Platforms != nil {
		platforms, err := parsePlatforms(*req.Platforms)
		if err != nil {
			return nil, err
		}
		content.Platforms = platforms
	}
	if req.Status != nil {
		if !validContentStatuses[*req.Status] {
			return nil, fmt.Errorf("unknown content status: %q", *req.Status)
		}
		content.Status = *req.Status
	}
	if req.ScheduledFor != nil {
		if *req.ScheduledFor == "" {
			content.ScheduledFor = time.Time{}
		} else {
			scheduledFor, err := time.Parse(time.RFC3339, *req.ScheduledFor)
			if err != nil {
				return nil, fmt.Errorf("invalid scheduled_for: %w", err)
			}
			content.ScheduledFor = scheduledFor
		}
	}
	if req.Hashtags != nil {
		content.Hashtags = *req.Hashtags
	}

	if content.Status == models.ContentStatusScheduled && content.ScheduledFor.IsZero() {
		return nil, errors.New("scheduled content needs a scheduled_for time")
	}

	if err := s.contents.Update(ctx, content); err != nil {
		return nil, err
	}

	// The row is re-read so the caller sees the server-side updated_at.
	updated, err := s.contents.GetByID(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, errors.New("content not found")
	}

	return updated, nil
}

func (s *contentService) Schedule(ctx context.Context, userID, contentID int64, scheduledFor time.Time) error {
	churchID, err := s.churchOf(ctx, userID)
	if err != nil {
		return err
	}
	if scheduledFor.IsZero() {
		return errors.New("scheduled content needs a scheduled_for time")
	}

	owned, err := s.contents.CheckByChurch(ctx, contentID, churchID)
	if err != nil {
		return err
	}
	if !owned {
		return errors.New("content not found")
	}

	return s.contents.SetSchedule(ctx, contentID, scheduledFor)
}

func (s *contentService) Remove(ctx context.Context, userID, contentID int64) error {
	churchID, err := s.churchOf(ctx, userID)
	if err != nil {
		return err
	}

	owned, err := s.contents.CheckByChurch(ctx, contentID, churchID)
	if err != nil {
		return err
	}
	if !owned {
		return errors.New("content not found")
	}

	return s.contents.Remove(ctx, contentID)
}

func parsePlatforms(names []string) ([]models.Platform, error) {
	if len(names) == 0 {
		return nil, errors.New("at least one platform is required")
	}

	platforms := make([]models.Platform, 0, len(names))
	seen := make(map[models.Platform]bool, len(names))
	for _, name := range names {
		platform, err := models.ParsePlatform(name)
		if err != nil {
			return nil, err
		}
		if !seen[platform] {
			seen[platform] = true
			platforms = append(platforms, platform)
		}
	}
	return platforms, nil
}
