package service

import (
	"context"
	"time"

	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/cache"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/dto"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/repository"

	"github.com/rs/zerolog/log"
)

// ClientService serves client lifetime metrics. Writes happen only in the
// transaction state updater, which invalidates the cache entry afterwards.
type ClientService interface {
	GetMetrics(ctx context.Context, clientID int64) (*dto.ClientMetricsResponse, error)
}

type clientService struct {
	repo  repository.ClientRepository
	cache cache.ClientMetricsCache
	ttl   time.Duration
}

func NewClientService(repo repository.ClientRepository, c cache.ClientMetricsCache, ttl time.Duration) ClientService {
	if c == nil {
		c = cache.NoopClientMetricsCache{}
	}
	return &clientService{repo: repo, cache: c, ttl: ttl}
}

func (s *clientService) GetMetrics(ctx context.Context, clientID int64) (*dto.ClientMetricsResponse, error) {
	if cached, ok, err := s.cache.Get(ctx, clientID); err != nil {
		log.Warn().Err(err).Int64("client_id", clientID).Msg("clients: metrics cache read failed")
	} else if ok {
		return cached, nil
	}

	c, err := s.repo.FindByID(ctx, clientID)
	if repository.IsNotFound(err) {
		return nil, ErrClientNotFound
	}
	if err != nil {
		return nil, err
	}

	resp := &dto.ClientMetricsResponse{
		ClientID:       c.ID,
		FullName:       c.FullName,
		CustomerCode:   c.CustomerCode,
		TotalPurchases: c.TotalPurchases,
		TotalSpend:     c.TotalSpend,
	}
	if err := s.cache.Set(ctx, resp, s.ttl); err != nil {
		log.Warn().Err(err).Int64("client_id", clientID).Msg("clients: metrics cache write failed")
	}
	return resp, nil
}
