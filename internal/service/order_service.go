package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/Miguelburitica/serverless-localMarket/internal/auth"
	"github.com/Miguelburitica/serverless-localMarket/internal/domain"
	"github.com/Miguelburitica/serverless-localMarket/internal/query"
	"github.com/Miguelburitica/serverless-localMarket/internal/repository"
)

const rollbackTimeout = 10 * time.Second

// StockStore is the product-side slice of the storage adapter order
// placement needs. DecrementStock must be conditional: it only applies
// when the stored stock covers the quantity at write time.
type StockStore interface {
	Get(ctx context.Context, productID string) (*domain.Product, error)
	DecrementStock(ctx context.Context, productID string, quantity int) (int, error)
	IncrementStock(ctx context.Context, productID string, quantity int) error
}

type OrderStore interface {
	Get(ctx context.Context, orderID string) (*domain.Order, error)
	Put(ctx context.Context, order *domain.Order) error
	Query(ctx context.Context, plan query.Plan) ([]domain.Order, error)
	Indexes() []query.Index
}

// Notifier delivers fire-and-forget notifications. Implementations must
// never block order placement on delivery failures.
type Notifier interface {
	OrderCreated(order *domain.Order)
	StockLow(productID string, remaining int)
}

type OrderService struct {
	orders            OrderStore
	products          StockStore
	notifier          Notifier
	lowStockThreshold int
	logger            *zap.Logger
}

func NewOrderService(orders OrderStore, products StockStore, notifier Notifier, lowStockThreshold int, logger *zap.Logger) *OrderService {
	return &OrderService{
		orders:            orders,
		products:          products,
		notifier:          notifier,
		lowStockThreshold: lowStockThreshold,
		logger:            logger,
	}
}

// PlaceOrder reserves stock for every line item and persists the order.
// Reservation is all-or-nothing: each item gets a conditional decrement
// in list order, and the first failure rolls back everything already
// applied before the whole order fails. Two concurrent orders racing for
// the same product cannot both win more stock than exists; the first
// decrement to land wins and the loser fails with ErrInsufficientStock.
func (s *OrderService) PlaceOrder(ctx context.Context, caller auth.Caller, req domain.PlaceOrderRequest) (*domain.Order, error) {
	if d := auth.Authorize(caller, auth.ActionCreate, (*domain.Order)(nil)); !d.Allowed {
		return nil, &auth.DeniedError{Reason: d.Reason}
	}

	items, sellerID, err := s.snapshotItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	applied, lowStock, err := s.reserveStock(ctx, items)
	if err != nil {
		s.rollback(applied)
		return nil, err
	}

	now := time.Now().UTC()
	order := &domain.Order{
		UserID:    caller.ID,
		SellerID:  sellerID,
		Items:     items,
		Status:    domain.OrderStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.orders.Put(ctx, order); err != nil {
		s.rollback(applied)
		s.logger.Error("Failed to persist order",
			zap.String("user_id", caller.ID),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Order placed",
		zap.String("order_id", order.OrderID),
		zap.String("user_id", order.UserID),
		zap.String("seller_id", order.SellerID),
		zap.Int("items", len(order.Items)))

	if s.notifier != nil {
		s.notifier.OrderCreated(order)
		for productID, remaining := range lowStock {
			s.notifier.StockLow(productID, remaining)
		}
	}

	return order, nil
}

// snapshotItems validates every line item and captures the unit price at
// placement time. It also derives the order's seller: an order covers a
// single seller, so mixing products from different sellers is rejected.
func (s *OrderService) snapshotItems(ctx context.Context, reqItems []domain.OrderItemRequest) ([]domain.LineItem, string, error) {
	items := make([]domain.LineItem, 0, len(reqItems))
	var sellerID string

	for _, it := range reqItems {
		if it.Quantity <= 0 {
			return nil, "", &ValidationError{Field: "quantity", Message: "must be positive"}
		}

		product, err := s.products.Get(ctx, it.ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, "", fmt.Errorf("%w: %s", ErrProductNotFound, it.ProductID)
			}
			return nil, "", err
		}

		if sellerID == "" {
			sellerID = product.SellerID
		} else if sellerID != product.SellerID {
			return nil, "", &ValidationError{Field: "items", Message: "all items must belong to a single seller"}
		}

		items = append(items, domain.LineItem{
			ProductID: product.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: product.Price,
		})
	}

	return items, sellerID, nil
}

// reserveStock attempts the conditional decrements in list order and
// reports which ones landed so a failure can undo them. lowStock maps
// product ids whose remaining stock dropped to the alert threshold.
func (s *OrderService) reserveStock(ctx context.Context, items []domain.LineItem) (applied []domain.LineItem, lowStock map[string]int, err error) {
	lowStock = make(map[string]int)

	for _, it := range items {
		remaining, err := s.products.DecrementStock(ctx, it.ProductID, it.Quantity)
		if err != nil {
			if errors.Is(err, repository.ErrInsufficientStock) {
				return applied, nil, ErrInsufficientStock
			}
			if errors.Is(err, repository.ErrNotFound) {
				return applied, nil, fmt.Errorf("%w: %s", ErrProductNotFound, it.ProductID)
			}
			return applied, nil, err
		}
		applied = append(applied, it)

		if remaining <= s.lowStockThreshold {
			lowStock[it.ProductID] = remaining
		}
	}

	return applied, lowStock, nil
}

// rollback re-increments stock released by decrements that already
// landed. It runs on a fresh context: a caller timeout must not strand a
// partial reservation.
func (s *OrderService) rollback(applied []domain.LineItem) {
	if len(applied) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), rollbackTimeout)
	defer cancel()

	for _, it := range applied {
		if err := s.products.IncrementStock(ctx, it.ProductID, it.Quantity); err != nil {
			s.logger.Error("Failed to restore stock during rollback",
				zap.String("product_id", it.ProductID),
				zap.Int("quantity", it.Quantity),
				zap.Error(err))
		}
	}
}

// ListForCaller returns the caller's purchases plus, for sellers, their
// sales — both through the chronological secondary indexes, merged and
// deduplicated.
func (s *OrderService) ListForCaller(ctx context.Context, caller auth.Caller) ([]domain.Order, error) {
	if caller.Anonymous() {
		return nil, &auth.DeniedError{Reason: "authentication required"}
	}

	indexes := s.orders.Indexes()

	purchases, err := s.orders.Query(ctx, query.Build(indexes, map[string]string{"user_id": caller.ID}))
	if err != nil {
		return nil, err
	}

	orders := purchases
	if caller.Role.CanSell() {
		sales, err := s.orders.Query(ctx, query.Build(indexes, map[string]string{"seller_id": caller.ID}))
		if err != nil {
			return nil, err
		}
		seen := make(map[string]struct{}, len(orders))
		for _, o := range orders {
			seen[o.OrderID] = struct{}{}
		}
		for _, o := range sales {
			if _, ok := seen[o.OrderID]; !ok {
				orders = append(orders, o)
			}
		}
		sort.Slice(orders, func(i, j int) bool {
			return orders[i].CreatedAt.Before(orders[j].CreatedAt)
		})
	}

	return orders, nil
}

func (s *OrderService) Get(ctx context.Context, caller auth.Caller, orderID string) (*domain.Order, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if d := auth.Authorize(caller, auth.ActionRead, order); !d.Allowed {
		return nil, &auth.DeniedError{Reason: d.Reason}
	}

	return order, nil
}
