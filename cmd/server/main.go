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

	"checkout-service/config"
	"checkout-service/internal/admin"
	"checkout-service/internal/api"
	"checkout-service/internal/broker"
	"checkout-service/internal/checkout"
	"checkout-service/internal/clients"
	"checkout-service/internal/receipt"
	"checkout-service/internal/redisclient"
	"checkout-service/internal/session"
	"checkout-service/internal/store"
	"checkout-service/internal/util"
	"checkout-service/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
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

	journal, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer journal.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicCheckout)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	clientOpts := func(baseURL string) clients.Options {
		return clients.Options{
			BaseURL:        baseURL,
			RequestTimeout: cfg.HTTP.RequestTimeout,
			MaxGetRetries:  cfg.HTTP.MaxGetRetries,
			Logger:         logger,
		}
	}

	userClient := clients.NewUserClient(clientOpts(cfg.Services.UserURL))
	catalogClient := clients.NewCatalogClient(clientOpts(cfg.Services.ProductURL))
	cartClient := clients.NewCartClient(clientOpts(cfg.Services.CartURL))
	orderClient := clients.NewOrderClient(clientOpts(cfg.Services.OrderURL))
	paymentClient := clients.NewPaymentClient(clientOpts(cfg.Services.PaymentURL))

	receiptStore := receipt.NewStore(redisClient, cfg.Checkout.ReceiptTTL)
	sessionManager := session.NewManager(redisClient, cfg.Checkout.SessionTTL)

	orchestrator := checkout.NewOrchestrator(
		cartClient,
		catalogClient,
		orderClient,
		paymentClient,
		receiptStore,
		journal,
		eventPublisher,
		cfg.Checkout.EnrichConcurrency,
	)

	adminService := admin.NewService(userClient, catalogClient, orderClient)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	reconciler := worker.NewReconciler(journal, orderClient, receiptStore)
	receiptConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicCheckout, cfg.Kafka.ConsumerGroup)
	receiptWorker := worker.NewReceiptWorker(receiptConsumer, reconciler)
	go func() {
		if err := receiptWorker.Start(workerCtx); err != nil {
			log.Printf("Receipt worker error: %v", err)
		}
	}()

	sessionChanges, subID := sessionManager.Subscribe()
	defer sessionManager.Unsubscribe(subID)
	go func() {
		for change := range sessionChanges {
			logger.Info("Session change",
				zap.String("kind", change.Kind),
				zap.Int64("user_id", change.Session.UserID))
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(orchestrator, adminService, sessionManager, userClient, cartClient, journal)
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
	receiptWorker.Stop()

	log.Println("Server exited")
}
