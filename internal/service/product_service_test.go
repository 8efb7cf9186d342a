package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Miguelburitica/serverless-localMarket/internal/auth"
	"github.com/Miguelburitica/serverless-localMarket/internal/domain"
	"github.com/Miguelburitica/serverless-localMarket/internal/query"
	"github.com/Miguelburitica/serverless-localMarket/internal/repository"
)

type mockProductStore struct {
	mu       sync.Mutex
	products map[string]*domain.Product
	lastPlan *query.Plan
}

func newMockProductStore(products ...*domain.Product) *mockProductStore {
	m := &mockProductStore{products: make(map[string]*domain.Product)}
	for _, p := range products {
		cp := *p
		m.products[p.ProductID] = &cp
	}
	return m
}

func (m *mockProductStore) Get(ctx context.Context, id string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductStore) Put(ctx context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ProductID == "" {
		p.ProductID = uuid.NewString()
	}
	cp := *p
	m.products[p.ProductID] = &cp
	return nil
}

func (m *mockProductStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductStore) Query(ctx context.Context, plan query.Plan) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastPlan = &plan

	var out []domain.Product
	for _, p := range m.products {
		attr := func(field string) string {
			switch field {
			case "market_id":
				return p.MarketID
			case "category":
				return p.Category
			case "seller_id":
				return p.SellerID
			}
			return ""
		}
		if plan.IsScan() {
			if plan.Matches(attr) {
				out = append(out, *p)
			}
		} else if attr(plan.Index.Field) == plan.Key {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockProductStore) Indexes() []query.Index {
	return []query.Index{
		{Name: "market_id-created_at-index", Field: "market_id", SortField: "created_at"},
		{Name: "category-created_at-index", Field: "category", SortField: "created_at"},
		{Name: "seller_id-created_at-index", Field: "seller_id", SortField: "created_at"},
	}
}

func TestCreateProduct_DeniedForCustomer(t *testing.T) {
	store := newMockProductStore()
	svc := NewProductService(store, zap.NewNop())

	customer := auth.Caller{ID: "u1", Role: domain.RoleCustomer}
	_, err := svc.Create(context.Background(), customer, domain.CreateProductRequest{
		MarketID: "m1",
		Category: "produce",
		Name:     "tomatoes",
		Price:    3.5,
		Stock:    10,
	})

	var denied *auth.DeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("expected DeniedError, got %v", err)
	}
	if len(store.products) != 0 {
		t.Error("denied create must not persist anything")
	}
}

func TestCreateProduct_SellerIDForcedFromCaller(t *testing.T) {
	store := newMockProductStore()
	svc := NewProductService(store, zap.NewNop())

	seller := auth.Caller{ID: "seller-1", Role: domain.RoleSeller}
	product, err := svc.Create(context.Background(), seller, domain.CreateProductRequest{
		MarketID: "m1",
		Category: "produce",
		Name:     "tomatoes",
		Price:    3.5,
		Stock:    10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if product.SellerID != "seller-1" {
		t.Errorf("seller id must come from the caller, got %s", product.SellerID)
	}
	if product.ProductID == "" {
		t.Error("expected an assigned product id")
	}
}

func TestUpdateProduct_NonOwnerDenied(t *testing.T) {
	store := newMockProductStore(
		&domain.Product{ProductID: "p1", SellerID: "seller-1", Name: "eggs", Price: 4},
	)
	svc := NewProductService(store, zap.NewNop())

	other := auth.Caller{ID: "seller-2", Role: domain.RoleSeller}
	name := "cheap eggs"
	_, err := svc.Update(context.Background(), other, "p1", domain.UpdateProductRequest{Name: &name})

	var denied *auth.DeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("expected DeniedError, got %v", err)
	}
}

func TestDeleteProduct_Owner(t *testing.T) {
	store := newMockProductStore(
		&domain.Product{ProductID: "p1", SellerID: "seller-1"},
	)
	svc := NewProductService(store, zap.NewNop())

	owner := auth.Caller{ID: "seller-1", Role: domain.RoleSeller}
	if err := svc.Delete(context.Background(), owner, "p1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Get(context.Background(), "p1"); !errors.Is(err, ErrProductNotFound) {
		t.Error("expected product gone after delete")
	}
}

func TestListProducts_MarketFilterIsIndexBacked(t *testing.T) {
	store := newMockProductStore(
		&domain.Product{ProductID: "p1", MarketID: "m1", Category: "produce"},
		&domain.Product{ProductID: "p2", MarketID: "m2", Category: "produce"},
		&domain.Product{ProductID: "p3", MarketID: "m1", Category: "dairy"},
	)
	svc := NewProductService(store, zap.NewNop())

	products, err := svc.List(context.Background(), map[string]string{"market_id": "m1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(products) != 2 {
		t.Errorf("expected 2 products in m1, got %d", len(products))
	}
	for _, p := range products {
		if p.MarketID != "m1" {
			t.Errorf("product %s does not belong to m1", p.ProductID)
		}
	}
	if store.lastPlan.IsScan() {
		t.Error("single market filter must use the secondary index, not a scan")
	}
}

func TestListProducts_CompoundFilterScans(t *testing.T) {
	store := newMockProductStore(
		&domain.Product{ProductID: "p1", MarketID: "m1", Category: "produce"},
		&domain.Product{ProductID: "p2", MarketID: "m1", Category: "dairy"},
		&domain.Product{ProductID: "p3", MarketID: "m2", Category: "produce"},
	)
	svc := NewProductService(store, zap.NewNop())

	products, err := svc.List(context.Background(), map[string]string{
		"market_id": "m1",
		"category":  "produce",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(products) != 1 || products[0].ProductID != "p1" {
		t.Errorf("expected only p1, got %v", products)
	}
	if !store.lastPlan.IsScan() {
		t.Error("compound filters must fall back to a scan")
	}
}
