package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/Miguelburitica/serverless-localMarket/internal/domain"
	"github.com/Miguelburitica/serverless-localMarket/internal/query"
	"github.com/Miguelburitica/serverless-localMarket/internal/repository"
)

// MarketStore is the slice of the storage adapter MarketService needs.
// Markets are read-only through this service; writes happen through
// administrative tooling.
type MarketStore interface {
	Get(ctx context.Context, marketID string) (*domain.Market, error)
	Query(ctx context.Context, plan query.Plan) ([]domain.Market, error)
	Indexes() []query.Index
}

type MarketService struct {
	store  MarketStore
	logger *zap.Logger
}

func NewMarketService(store MarketStore, logger *zap.Logger) *MarketService {
	return &MarketService{
		store:  store,
		logger: logger,
	}
}

func (s *MarketService) List(ctx context.Context, filters map[string]string) ([]domain.Market, error) {
	plan := query.Build(s.store.Indexes(), filters)
	return s.store.Query(ctx, plan)
}

func (s *MarketService) Get(ctx context.Context, marketID string) (*domain.Market, error) {
	market, err := s.store.Get(ctx, marketID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMarketNotFound
		}
		return nil, err
	}
	return market, nil
}
