package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aihubhq/aihub/internal/domain"
	"github.com/aihubhq/aihub/pkg/cache"
	"github.com/aihubhq/aihub/pkg/logger"
)

const toolCachePrefix = "tool"

// ToolService serves the read-only catalog from a TTL cache. Concurrent misses
// for the same key share one repository call.
type ToolService struct {
	repo   domain.ToolRepository
	cache  cache.Cache
	ttl    time.Duration
	logger logger.Logger
}

func NewToolService(repo domain.ToolRepository, c cache.Cache, ttl time.Duration, logger logger.Logger) *ToolService {
	return &ToolService{
		repo:   repo,
		cache:  c,
		ttl:    ttl,
		logger: logger,
	}
}

func (s *ToolService) List(ctx context.Context, req domain.ListToolsRequest) ([]*domain.Tool, error) {
	category := strings.TrimSpace(req.Category)
	key := fmt.Sprintf("%ss:list:%s", toolCachePrefix, category)

	value, err := s.cache.GetOrSet(key, s.ttl, func() (interface{}, error) {
		tools, err := s.repo.List(ctx, category)
		if err != nil {
			return nil, err
		}
		s.logger.WithField("category", category).WithField("count", len(tools)).Debug("Loaded tool catalog")
		return tools, nil
	})
	if err != nil {
		s.logger.WithField("category", category).WithField("error", err.Error()).Error("Failed to list tools")
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}
	return value.([]*domain.Tool), nil
}

func (s *ToolService) Get(ctx context.Context, id string) (*domain.Tool, error) {
	if id == "" {
		return nil, domain.NewValidationError("id is required")
	}

	value, err := s.cache.GetOrSet(fmt.Sprintf("%s:%s", toolCachePrefix, id), s.ttl, func() (interface{}, error) {
		return s.repo.GetByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return value.(*domain.Tool), nil
}

// Invalidate drops every cached catalog entry
func (s *ToolService) Invalidate() {
	s.cache.DeletePrefix(toolCachePrefix)
}
