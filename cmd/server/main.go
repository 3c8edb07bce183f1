package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"procurement-service/config"
	"procurement-service/internal/api"
	"procurement-service/internal/broker"
	"procurement-service/internal/redisclient"
	"procurement-service/internal/routing"
	"procurement-service/internal/service"
	"procurement-service/internal/store"
	"procurement-service/internal/util"
	"procurement-service/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting procurement service")

	tp, err := util.InitTracer("procurement-service", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	bidService := service.NewBidService(db, eventPublisher, decimal.NewFromFloat(cfg.Business.GSTRate))
	laneService := service.NewLaneService(db, eventPublisher, decimal.NewFromFloat(cfg.Business.DemandValidateThreshold))
	routingService := service.NewRoutingService(db, redisClient,
		time.Duration(cfg.Business.LockCacheTTLSeconds)*time.Second,
		time.Duration(cfg.Business.SupplierCacheTTLSeconds)*time.Second)
	routingEngine := routing.NewEngine(routingService, routingService)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	demandConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents, cfg.Kafka.ConsumerGroup)
	demandWorker := worker.NewDemandWorker(demandConsumer, laneService)
	go func() {
		if err := demandWorker.Start(workerCtx); err != nil {
			log.Printf("Demand worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	limiter := redisClient.NewRateLimiter(cfg.Business.RateLimitPerMinute)
	handler := api.NewHandler(bidService, laneService, routingEngine, limiter)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	demandWorker.Stop()

	log.Println("Server exited")
}
