package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Miguelburitica/serverless-localMarket/internal/domain"
	"github.com/Miguelburitica/serverless-localMarket/internal/service"
	"github.com/Miguelburitica/serverless-localMarket/pkg/middleware"
)

type ProductHandler struct {
	productService *service.ProductService
	logger         *zap.Logger
}

func NewProductHandler(productService *service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// productFilterParams maps query parameters to storage attribute names.
var productFilterParams = map[string]string{
	"marketId": "market_id",
	"category": "category",
	"sellerId": "seller_id",
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	filters := make(map[string]string)
	for param, field := range productFilterParams {
		if v := c.Query(param); v != "" {
			filters[field] = v
		}
	}

	products, err := h.productService.List(c.Request.Context(), filters)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	responses := make([]domain.ProductResponse, 0, len(products))
	for i := range products {
		responses = append(responses, domain.NewProductResponse(&products[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"products": responses,
		"count":    len(responses),
	})
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.productService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, domain.NewProductResponse(product))
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req domain.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	caller := middleware.CallerFrom(c)
	product, err := h.productService.Create(c.Request.Context(), caller, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, domain.NewProductResponse(product))
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var req domain.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	caller := middleware.CallerFrom(c)
	product, err := h.productService.Update(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, domain.NewProductResponse(product))
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	caller := middleware.CallerFrom(c)
	if err := h.productService.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}
