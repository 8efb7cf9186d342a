package events

import (
	"time"

	"github.com/Miguelburitica/serverless-localMarket/internal/domain"
)

const (
	TypeOrderCreated = "order.created"
	TypeStockLow     = "stock.low"
)

type OrderCreatedEvent struct {
	EventID   string            `json:"event_id"`
	Type      string            `json:"type"`
	OrderID   string            `json:"order_id"`
	UserID    string            `json:"user_id"`
	SellerID  string            `json:"seller_id"`
	Items     []domain.LineItem `json:"items"`
	Total     float64           `json:"total"`
	Timestamp time.Time         `json:"timestamp"`
}

type StockLowEvent struct {
	EventID   string    `json:"event_id"`
	Type      string    `json:"type"`
	ProductID string    `json:"product_id"`
	Remaining int       `json:"remaining"`
	Timestamp time.Time `json:"timestamp"`
}
