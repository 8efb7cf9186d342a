package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Miguelburitica/serverless-localMarket/internal/service"
)

type MarketHandler struct {
	marketService *service.MarketService
	logger        *zap.Logger
}

func NewMarketHandler(marketService *service.MarketService, logger *zap.Logger) *MarketHandler {
	return &MarketHandler{
		marketService: marketService,
		logger:        logger,
	}
}

func (h *MarketHandler) ListMarkets(c *gin.Context) {
	filters := make(map[string]string)
	if city := c.Query("city"); city != "" {
		filters["city"] = city
	}

	markets, err := h.marketService.List(c.Request.Context(), filters)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"markets": markets,
		"count":   len(markets),
	})
}

func (h *MarketHandler) GetMarket(c *gin.Context) {
	market, err := h.marketService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, market)
}
