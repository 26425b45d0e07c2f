package service

import (
	"context"
	"time"

	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/dto"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/repository"
)

type ActivityService interface {
	List(ctx context.Context, filter dto.ActivityFilter) (*dto.ActivityListResponse, error)
}

type activityService struct {
	repo repository.ActivityLogRepository
}

func NewActivityService(repo repository.ActivityLogRepository) ActivityService {
	return &activityService{repo: repo}
}

func (s *activityService) List(ctx context.Context, filter dto.ActivityFilter) (*dto.ActivityListResponse, error) {
	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.ActivityResponse, 0, len(entries))
	for _, e := range entries {
		data = append(data, dto.ActivityResponse{
			ID:          e.ID,
			Action:      e.Action,
			EntityType:  e.EntityType,
			EntityID:    e.EntityID,
			Description: e.Description,
			Actor:       e.Actor,
			BatchID:     e.BatchID,
			CreatedAt:   e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return &dto.ActivityListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}
