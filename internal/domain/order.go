package domain

import (
	"time"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// LineItem is immutable once the order is persisted. UnitPrice is the
// product's price at placement time and is never re-read from the product.
type LineItem struct {
	ProductID string  `dynamodbav:"product_id" json:"product_id"`
	Quantity  int     `dynamodbav:"quantity"   json:"quantity"`
	UnitPrice float64 `dynamodbav:"unit_price" json:"unit_price"`
}

type Order struct {
	OrderID   string      `dynamodbav:"order_id"   json:"order_id"`
	UserID    string      `dynamodbav:"user_id"    json:"user_id"`
	SellerID  string      `dynamodbav:"seller_id"  json:"seller_id"`
	Items     []LineItem  `dynamodbav:"items"      json:"items"`
	Status    OrderStatus `dynamodbav:"status"     json:"status"`
	CreatedAt time.Time   `dynamodbav:"created_at" json:"created_at"`
	UpdatedAt time.Time   `dynamodbav:"updated_at" json:"updated_at"`
}

// Total is the order amount derived from the snapshotted unit prices.
func (o *Order) Total() float64 {
	var total float64
	for _, it := range o.Items {
		total += it.UnitPrice * float64(it.Quantity)
	}
	return total
}

type OrderItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"   binding:"required,min=1"`
}

type PlaceOrderRequest struct {
	Items []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}
