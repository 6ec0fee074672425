package service

import (
	"context"
	"fmt"

	"github.com/aihubhq/aihub/internal/domain"
	"github.com/aihubhq/aihub/pkg/logger"
)

type TagService struct {
	repo   domain.TagRepository
	logger logger.Logger
}

func NewTagService(repo domain.TagRepository, logger logger.Logger) *TagService {
	return &TagService{
		repo:   repo,
		logger: logger,
	}
}

func (s *TagService) List(ctx context.Context, userID string) ([]*domain.Tag, error) {
	tags, err := s.repo.List(ctx, userID)
	if err != nil {
		s.logger.WithField("user_id", userID).WithField("error", err.Error()).Error("Failed to list tags")
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

// Create returns the existing tag when the name is already in the vocabulary
func (s *TagService) Create(ctx context.Context, userID string, req *domain.CreateTagRequest) (*domain.Tag, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tag, err := s.repo.Create(ctx, userID, req.TagName)
	if err != nil {
		s.logger.WithField("user_id", userID).WithField("tag", req.TagName).WithField("error", err.Error()).Error("Failed to create tag")
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}
	return tag, nil
}

func (s *TagService) Suggest(ctx context.Context, userID, query string, selected []string) ([]string, error) {
	tags, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	known := make([]string, len(tags))
	for i, t := range tags {
		known[i] = t.TagName
	}
	return domain.SuggestTags(known, query, selected), nil
}
