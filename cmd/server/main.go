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

	"marketplace/config"
	"marketplace/internal/api"
	"marketplace/internal/broker"
	"marketplace/internal/cart"
	"marketplace/internal/payments"
	"marketplace/internal/reconcile"
	"marketplace/internal/redisclient"
	"marketplace/internal/service"
	"marketplace/internal/store"
	"marketplace/internal/util"
	"marketplace/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting checkout service")

	tp, err := util.InitTracer("checkout-service", cfg.Observ.JaegerEndpoint)
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

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicPurchases)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	provider := payments.NewStripeProvider(cfg.Payment.APIKey, cfg.Payment.WebhookSecret)

	carts := cart.NewRedisStore(redisClient)
	catalogService := service.NewCatalogService(db)
	checkoutService := service.NewCheckoutService(
		catalogService, db, provider, eventPublisher,
		cfg.Payment.Currency, cfg.App.RootDomain, cfg.App.SubdomainRouting,
	)
	libraryService := service.NewLibraryService(db, db, redisClient,
		time.Duration(cfg.App.LibraryCacheTTLSeconds)*time.Second)

	flagStore := reconcile.NewRedisFlagStore(redisClient, 24*time.Hour)
	guard := reconcile.NewRedisGuard(redisClient,
		time.Duration(cfg.App.PurchaseGuardSeconds)*time.Second)
	reconciler := reconcile.NewReconciler(flagStore, guard, carts, checkoutService, libraryService)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	purchaseConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicPurchases, cfg.Kafka.ConsumerGroup)
	purchaseWorker := worker.NewPurchaseWorker(purchaseConsumer, libraryService)
	go func() {
		if err := purchaseWorker.Start(workerCtx); err != nil {
			log.Printf("Purchase worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(carts, catalogService, libraryService, reconciler, provider, eventPublisher)
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
	purchaseWorker.Stop()

	log.Println("Server exited")
}
