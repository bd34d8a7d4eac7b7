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

	"github.com/Domenicogestionale/gestionale-domenico/internal/cache"
	"github.com/Domenicogestionale/gestionale-domenico/internal/events"
	"github.com/Domenicogestionale/gestionale-domenico/internal/handler"
	"github.com/Domenicogestionale/gestionale-domenico/internal/repository"
	"github.com/Domenicogestionale/gestionale-domenico/internal/service"
	"github.com/Domenicogestionale/gestionale-domenico/pkg/config"
	"github.com/Domenicogestionale/gestionale-domenico/pkg/middleware"
	pkgtls "github.com/Domenicogestionale/gestionale-domenico/pkg/tls"
)

func main() {
	// .env is optional; real deployments configure through the environment
	_ = godotenv.Load()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	dynamoClient, err := repository.NewDynamoDBClient(cfg)
	if err != nil {
		log.Fatal("Failed to create DynamoDB client:", err)
	}

	productRepo := repository.NewProductRepository(dynamoClient, cfg.ProductTableName)
	productCache := cache.NewProductCache()
	inventory := service.NewInventoryService(productRepo, productCache, logger)
	productHandler := handler.NewProductHandler(inventory, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.RequestID())

	v1 := router.Group("/api/v1")
	productHandler.RegisterRoutes(v1)

	// Scanner clients feed decoded barcodes through Kafka
	var scanConsumer *events.ScanConsumer
	var stockProducer *events.StockProducer
	if cfg.ScanEnabled {
		stockProducer = events.NewStockProducer(cfg.KafkaBrokers, cfg.StockTopic, logger)
		scanConsumer = events.NewScanConsumer(cfg.KafkaBrokers, cfg.ScanTopic, cfg.ConsumerGroupID, inventory, logger)
		scanConsumer.SetNotifier(stockProducer)
		scanConsumer.Start()
	}

	tlsConfig, tlsSource, err := pkgtls.Load(context.Background(), &cfg.TLS, logger)
	if err != nil {
		logger.Fatal("Failed to load TLS configuration", zap.Error(err))
	}

	srv := &http.Server{
		Addr:      ":" + cfg.Port,
		Handler:   router,
		TLSConfig: tlsConfig,
	}

	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Port), zap.Bool("tls", tlsConfig != nil))

		var err error
		if tlsConfig != nil {
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

	if scanConsumer != nil {
		scanConsumer.Stop()
	}
	if stockProducer != nil {
		if err := stockProducer.Close(); err != nil {
			logger.Error("Failed to close stock producer", zap.Error(err))
		}
	}
	tlsSource.Close()

	logger.Info("Server exited")
}
