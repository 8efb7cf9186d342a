package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Miguelburitica/serverless-localMarket/internal/auth"
	"github.com/Miguelburitica/serverless-localMarket/internal/domain"
	"github.com/Miguelburitica/serverless-localMarket/internal/query"
	"github.com/Miguelburitica/serverless-localMarket/internal/repository"
)

// Mock stock store with the same conditional-decrement semantics as the
// DynamoDB adapter.
type mockStockStore struct {
	mu       sync.Mutex
	products map[string]*domain.Product
}

func newMockStockStore(products ...*domain.Product) *mockStockStore {
	m := &mockStockStore{products: make(map[string]*domain.Product)}
	for _, p := range products {
		cp := *p
		m.products[p.ProductID] = &cp
	}
	return m
}

func (m *mockStockStore) Get(ctx context.Context, id string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockStockStore) DecrementStock(ctx context.Context, id string, qty int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	if p.Stock < qty {
		return 0, repository.ErrInsufficientStock
	}
	p.Stock -= qty
	return p.Stock, nil
}

func (m *mockStockStore) IncrementStock(ctx context.Context, id string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Stock += qty
	return nil
}

func (m *mockStockStore) stockOf(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[id].Stock
}

type mockOrderStore struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
	putErr error
}

func newMockOrderStore() *mockOrderStore {
	return &mockOrderStore{orders: make(map[string]*domain.Order)}
}

func (m *mockOrderStore) Get(ctx context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderStore) Put(ctx context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	if order.OrderID == "" {
		order.OrderID = uuid.NewString()
	}
	cp := *order
	m.orders[order.OrderID] = &cp
	return nil
}

func (m *mockOrderStore) Query(ctx context.Context, plan query.Plan) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Order
	for _, o := range m.orders {
		attr := func(field string) string {
			switch field {
			case "user_id":
				return o.UserID
			case "seller_id":
				return o.SellerID
			}
			return ""
		}
		if plan.IsScan() {
			if plan.Matches(attr) {
				out = append(out, *o)
			}
		} else if attr(plan.Index.Field) == plan.Key {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *mockOrderStore) Indexes() []query.Index {
	return []query.Index{
		{Name: "user_id-created_at-index", Field: "user_id", SortField: "created_at"},
		{Name: "seller_id-created_at-index", Field: "seller_id", SortField: "created_at"},
	}
}

type mockNotifier struct {
	mu            sync.Mutex
	ordersCreated []string
	stockLow      map[string]int
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{stockLow: make(map[string]int)}
}

func (m *mockNotifier) OrderCreated(order *domain.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ordersCreated = append(m.ordersCreated, order.OrderID)
}

func (m *mockNotifier) StockLow(productID string, remaining int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stockLow[productID] = remaining
}

var buyer = auth.Caller{ID: "buyer-1", Role: domain.RoleCustomer}

func TestPlaceOrder_Success(t *testing.T) {
	products := newMockStockStore(
		&domain.Product{ProductID: "p1", SellerID: "seller-1", Price: 2.5, Stock: 5},
	)
	orders := newMockOrderStore()
	svc := NewOrderService(orders, products, nil, 0, zap.NewNop())

	order, err := svc.PlaceOrder(context.Background(), buyer, domain.PlaceOrderRequest{
		Items: []domain.OrderItemRequest{{ProductID: "p1", Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	if order.OrderID == "" {
		t.Error("expected an assigned order id")
	}
	if order.Status != domain.OrderStatusPending {
		t.Errorf("expected pending status, got %s", order.Status)
	}
	if order.UserID != "buyer-1" {
		t.Errorf("buyer id must come from the caller, got %s", order.UserID)
	}
	if order.SellerID != "seller-1" {
		t.Errorf("seller id must derive from the product, got %s", order.SellerID)
	}
	if order.Items[0].UnitPrice != 2.5 {
		t.Errorf("expected snapshotted unit price 2.5, got %v", order.Items[0].UnitPrice)
	}
	if got := products.stockOf("p1"); got != 2 {
		t.Errorf("expected stock 2, got %d", got)
	}
}

func TestPlaceOrder_ProductNotFound(t *testing.T) {
	svc := NewOrderService(newMockOrderStore(), newMockStockStore(), nil, 0, zap.NewNop())

	_, err := svc.PlaceOrder(context.Background(), buyer, domain.PlaceOrderRequest{
		Items: []domain.OrderItemRequest{{ProductID: "missing", Quantity: 1}},
	})
	if !errors.Is(err, ErrProductNotFound) {
		t.Errorf("expected ErrProductNotFound, got %v", err)
	}
}

func TestPlaceOrder_DeniedForSellerOnlyCaller(t *testing.T) {
	products := newMockStockStore(
		&domain.Product{ProductID: "p1", SellerID: "seller-1", Price: 1, Stock: 10},
	)
	svc := NewOrderService(newMockOrderStore(), products, nil, 0, zap.NewNop())

	seller := auth.Caller{ID: "seller-2", Role: domain.RoleSeller}
	_, err := svc.PlaceOrder(context.Background(), seller, domain.PlaceOrderRequest{
		Items: []domain.OrderItemRequest{{ProductID: "p1", Quantity: 1}},
	})

	var denied *auth.DeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("expected DeniedError, got %v", err)
	}
	if got := products.stockOf("p1"); got != 10 {
		t.Errorf("denied order must not touch stock, got %d", got)
	}
}

func TestPlaceOrder_MixedSellersRejected(t *testing.T) {
	products := newMockStockStore(
		&domain.Product{ProductID: "p1", SellerID: "seller-1", Price: 1, Stock: 10},
		&domain.Product{ProductID: "p2", SellerID: "seller-2", Price: 1, Stock: 10},
	)
	svc := NewOrderService(newMockOrderStore(), products, nil, 0, zap.NewNop())

	_, err := svc.PlaceOrder(context.Background(), buyer, domain.PlaceOrderRequest{
		Items: []domain.OrderItemRequest{
			{ProductID: "p1", Quantity: 1},
			{ProductID: "p2", Quantity: 1},
		},
	})

	var invalid *ValidationError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestPlaceOrder_AllOrNothing(t *testing.T) {
	products := newMockStockStore(
		&domain.Product{ProductID: "p1", SellerID: "seller-1", Price: 1, Stock: 10},
		&domain.Product{ProductID: "p2", SellerID: "seller-1", Price: 1, Stock: 1},
	)
	svc := NewOrderService(newMockOrderStore(), products, nil, 0, zap.NewNop())

	_, err := svc.PlaceOrder(context.Background(), buyer, domain.PlaceOrderRequest{
		Items: []domain.OrderItemRequest{
			{ProductID: "p1", Quantity: 4},
			{ProductID: "p2", Quantity: 3},
		},
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	// The p1 decrement landed first and must be rolled back.
	if got := products.stockOf("p1"); got != 10 {
		t.Errorf("expected p1 stock restored to 10, got %d", got)
	}
	if got := products.stockOf("p2"); got != 1 {
		t.Errorf("expected p2 stock untouched at 1, got %d", got)
	}
}

func TestPlaceOrder_PersistFailureRollsBack(t *testing.T) {
	products := newMockStockStore(
		&domain.Product{ProductID: "p1", SellerID: "seller-1", Price: 1, Stock: 10},
	)
	orders := newMockOrderStore()
	orders.putErr = errors.New("write failed")
	svc := NewOrderService(orders, products, nil, 0, zap.NewNop())

	_, err := svc.PlaceOrder(context.Background(), buyer, domain.PlaceOrderRequest{
		Items: []domain.OrderItemRequest{{ProductID: "p1", Quantity: 2}},
	})
	if err == nil {
		t.Fatal("expected error when order persistence fails")
	}
	if got := products.stockOf("p1"); got != 10 {
		t.Errorf("expected stock restored to 10, got %d", got)
	}
}

func TestPlaceOrder_ConcurrentOrdersNeverOversell(t *testing.T) {
	products := newMockStockStore(
		&domain.Product{ProductID: "p1", SellerID: "seller-1", Price: 1, Stock: 5},
	)
	orders := newMockOrderStore()
	svc := NewOrderService(orders, products, nil, 0, zap.NewNop())

	var success, insufficient atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.PlaceOrder(context.Background(), buyer, domain.PlaceOrderRequest{
				Items: []domain.OrderItemRequest{{ProductID: "p1", Quantity: 3}},
			})
			switch {
			case err == nil:
				success.Add(1)
			case errors.Is(err, ErrInsufficientStock):
				insufficient.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if success.Load() != 1 {
		t.Errorf("expected exactly 1 success, got %d", success.Load())
	}
	if insufficient.Load() != 1 {
		t.Errorf("expected exactly 1 insufficient-stock failure, got %d", insufficient.Load())
	}
	if got := products.stockOf("p1"); got != 2 {
		t.Errorf("expected final stock 2, got %d", got)
	}
}

func TestPlaceOrder_StockLowNotification(t *testing.T) {
	products := newMockStockStore(
		&domain.Product{ProductID: "p1", SellerID: "seller-1", Price: 1, Stock: 6},
	)
	notifier := newMockNotifier()
	svc := NewOrderService(newMockOrderStore(), products, notifier, 5, zap.NewNop())

	order, err := svc.PlaceOrder(context.Background(), buyer, domain.PlaceOrderRequest{
		Items: []domain.OrderItemRequest{{ProductID: "p1", Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(notifier.ordersCreated) != 1 || notifier.ordersCreated[0] != order.OrderID {
		t.Error("expected an order.created notification for the new order")
	}
	if remaining, ok := notifier.stockLow["p1"]; !ok || remaining != 4 {
		t.Errorf("expected stock.low with remaining 4, got %v", notifier.stockLow)
	}
}

func TestListForCaller_MergesPurchasesAndSales(t *testing.T) {
	orders := newMockOrderStore()
	seed := []*domain.Order{
		{OrderID: "o1", UserID: "u1", SellerID: "s9"},
		{OrderID: "o2", UserID: "u2", SellerID: "u1"},
		{OrderID: "o3", UserID: "u3", SellerID: "s9"},
	}
	for _, o := range seed {
		if err := orders.Put(context.Background(), o); err != nil {
			t.Fatal(err)
		}
	}
	svc := NewOrderService(orders, newMockStockStore(), nil, 0, zap.NewNop())

	got, err := svc.ListForCaller(context.Background(), auth.Caller{ID: "u1", Role: domain.RoleBoth})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 orders (one purchase, one sale), got %d", len(got))
	}
}

func TestGetOrder_StrangerDenied(t *testing.T) {
	orders := newMockOrderStore()
	if err := orders.Put(context.Background(), &domain.Order{OrderID: "o1", UserID: "u1", SellerID: "s1"}); err != nil {
		t.Fatal(err)
	}
	svc := NewOrderService(orders, newMockStockStore(), nil, 0, zap.NewNop())

	_, err := svc.Get(context.Background(), auth.Caller{ID: "u2", Role: domain.RoleBoth}, "o1")
	var denied *auth.DeniedError
	if !errors.As(err, &denied) {
		t.Errorf("expected DeniedError, got %v", err)
	}
}
