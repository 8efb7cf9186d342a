package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/Miguelburitica/serverless-localMarket/internal/auth"
	"github.com/Miguelburitica/serverless-localMarket/internal/domain"
	"github.com/Miguelburitica/serverless-localMarket/internal/query"
	"github.com/Miguelburitica/serverless-localMarket/internal/repository"
)

// ProductStore is the slice of the storage adapter ProductService needs.
type ProductStore interface {
	Get(ctx context.Context, productID string) (*domain.Product, error)
	Put(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, productID string) error
	Query(ctx context.Context, plan query.Plan) ([]domain.Product, error)
	Indexes() []query.Index
}

type ProductService struct {
	store  ProductStore
	logger *zap.Logger
}

func NewProductService(store ProductStore, logger *zap.Logger) *ProductService {
	return &ProductService{
		store:  store,
		logger: logger,
	}
}

// List filters products by the supplied fields, preferring a secondary
// index when one covers the filter.
func (s *ProductService) List(ctx context.Context, filters map[string]string) ([]domain.Product, error) {
	plan := query.Build(s.store.Indexes(), filters)
	if plan.IsScan() && len(filters) > 0 {
		s.logger.Debug("product query fell back to scan", zap.Any("filters", filters))
	}
	return s.store.Query(ctx, plan)
}

func (s *ProductService) Get(ctx context.Context, productID string) (*domain.Product, error) {
	product, err := s.store.Get(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

// Create makes a product owned by the caller. The seller id always comes
// from the caller identity, never from the request.
func (s *ProductService) Create(ctx context.Context, caller auth.Caller, req domain.CreateProductRequest) (*domain.Product, error) {
	if d := auth.Authorize(caller, auth.ActionCreate, (*domain.Product)(nil)); !d.Allowed {
		return nil, &auth.DeniedError{Reason: d.Reason}
	}

	product := &domain.Product{
		SellerID: caller.ID,
		MarketID: req.MarketID,
		Category: req.Category,
		Name:     req.Name,
		Price:    req.Price,
		Stock:    req.Stock,
	}

	if err := s.store.Put(ctx, product); err != nil {
		s.logger.Error("Failed to save product",
			zap.String("seller_id", caller.ID),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Product created",
		zap.String("product_id", product.ProductID),
		zap.String("seller_id", product.SellerID),
		zap.Int("initial_stock", product.Stock))

	return product, nil
}

func (s *ProductService) Update(ctx context.Context, caller auth.Caller, productID string, req domain.UpdateProductRequest) (*domain.Product, error) {
	product, err := s.Get(ctx, productID)
	if err != nil {
		return nil, err
	}

	if d := auth.Authorize(caller, auth.ActionUpdate, product); !d.Allowed {
		return nil, &auth.DeniedError{Reason: d.Reason}
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}

	if err := s.store.Put(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("Product updated", zap.String("product_id", productID))
	return product, nil
}

func (s *ProductService) Delete(ctx context.Context, caller auth.Caller, productID string) error {
	product, err := s.Get(ctx, productID)
	if err != nil {
		return err
	}

	if d := auth.Authorize(caller, auth.ActionDelete, product); !d.Allowed {
		return &auth.DeniedError{Reason: d.Reason}
	}

	if err := s.store.Delete(ctx, productID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProductNotFound
		}
		return err
	}

	s.logger.Info("Product deleted", zap.String("product_id", productID))
	return nil
}
