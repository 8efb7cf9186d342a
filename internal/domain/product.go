package domain

import (
	"time"
)

type Product struct {
	ProductID string    `dynamodbav:"product_id" json:"product_id"`
	SellerID  string    `dynamodbav:"seller_id"  json:"seller_id"`
	MarketID  string    `dynamodbav:"market_id"  json:"market_id"`
	Category  string    `dynamodbav:"category"   json:"category"`
	Name      string    `dynamodbav:"name"       json:"name"`
	Price     float64   `dynamodbav:"price"      json:"price"`
	Stock     int       `dynamodbav:"stock"      json:"stock"`
	CreatedAt time.Time `dynamodbav:"created_at" json:"created_at"`
	UpdatedAt time.Time `dynamodbav:"updated_at" json:"updated_at"`
}

type CreateProductRequest struct {
	MarketID string  `json:"market_id" binding:"required"`
	Category string  `json:"category"  binding:"required"`
	Name     string  `json:"name"      binding:"required"`
	Price    float64 `json:"price"     binding:"min=0"`
	Stock    int     `json:"stock"     binding:"min=0"`
}

// UpdateProductRequest carries a partial update; nil fields are left untouched.
type UpdateProductRequest struct {
	Name     *string  `json:"name"`
	Category *string  `json:"category"`
	Price    *float64 `json:"price" binding:"omitempty,min=0"`
	Stock    *int     `json:"stock" binding:"omitempty,min=0"`
}

type ProductResponse struct {
	ProductID string  `json:"product_id"`
	SellerID  string  `json:"seller_id"`
	MarketID  string  `json:"market_id"`
	Category  string  `json:"category"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Stock     int     `json:"stock"`
}

func NewProductResponse(p *Product) ProductResponse {
	return ProductResponse{
		ProductID: p.ProductID,
		SellerID:  p.SellerID,
		MarketID:  p.MarketID,
		Category:  p.Category,
		Name:      p.Name,
		Price:     p.Price,
		Stock:     p.Stock,
	}
}
