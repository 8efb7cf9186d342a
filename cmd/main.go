package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Miguelburitica/serverless-localMarket/internal/events"
	"github.com/Miguelburitica/serverless-localMarket/internal/handler"
	"github.com/Miguelburitica/serverless-localMarket/internal/repository"
	"github.com/Miguelburitica/serverless-localMarket/internal/service"
	"github.com/Miguelburitica/serverless-localMarket/pkg/config"
	"github.com/Miguelburitica/serverless-localMarket/pkg/middleware"
	pkgtls "github.com/Miguelburitica/serverless-localMarket/pkg/tls"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	dynamoClient, err := repository.NewDynamoDBClient(cfg)
	if err != nil {
		log.Fatal("Failed to create DynamoDB client:", err)
	}

	productRepo := repository.NewProductRepository(dynamoClient, cfg.ProductTableName)
	marketRepo := repository.NewMarketRepository(dynamoClient, cfg.MarketTableName)
	userRepo := repository.NewUserRepository(dynamoClient, cfg.UserTableName)
	orderRepo := repository.NewOrderRepository(dynamoClient, cfg.OrderTableName)

	var notifier service.Notifier
	if cfg.KafkaBrokers != "" {
		producer := events.NewProducer(cfg.KafkaBrokers, cfg.EventTopic, logger)
		defer producer.Close()
		notifier = producer
	} else {
		logger.Info("Kafka brokers not configured, notifications disabled")
	}

	productService := service.NewProductService(productRepo, logger)
	marketService := service.NewMarketService(marketRepo, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, notifier, cfg.LowStockThreshold, logger)

	productHandler := handler.NewProductHandler(productService, logger)
	marketHandler := handler.NewMarketHandler(marketService, logger)
	orderHandler := handler.NewOrderHandler(orderService, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Identity(userRepo, logger))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/products", productHandler.ListProducts)
		v1.GET("/products/:id", productHandler.GetProduct)
		v1.POST("/products", productHandler.CreateProduct)
		v1.PUT("/products/:id", productHandler.UpdateProduct)
		v1.DELETE("/products/:id", productHandler.DeleteProduct)

		v1.GET("/markets", marketHandler.ListMarkets)
		v1.GET("/markets/:id", marketHandler.GetMarket)

		v1.POST("/orders", orderHandler.PlaceOrder)
		v1.GET("/orders", orderHandler.ListOrders)
		v1.GET("/orders/:id", orderHandler.GetOrder)

		v1.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{"status": "healthy"})
		})
	}

	tlsProvider, err := pkgtls.NewProvider(context.Background(), cfg.TLS, logger)
	if err != nil {
		log.Fatal("Failed to configure TLS:", err)
	}
	defer tlsProvider.Close()

	srv := &http.Server{
		Addr:      ":" + cfg.Port,
		Handler:   router,
		TLSConfig: tlsProvider.ServerConfig(),
	}

	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Port))

		var err error
		if srv.TLSConfig != nil {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited")
}
