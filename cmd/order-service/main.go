package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"orderflow/internal/orders"
	"orderflow/pkg/breaker"
	"orderflow/pkg/config"
	"orderflow/pkg/postgres"
	"orderflow/pkg/rabbitmq"
	"orderflow/pkg/registry"

	_ "orderflow/docs"
)

// @title           Order Service API
// @version         1.0
// @description     Order management API that validates users against the user registry through a circuit breaker, with an event-populated fallback cache for registry outages.
// @host            localhost:8082
// @BasePath        /
// @schemes         http
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[Orders] Starting order-service...")

	cfg := config.Load()

	// Connect to PostgreSQL
	db, err := postgres.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[Orders] Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := postgres.RunMigrations(db, "orders"); err != nil {
		log.Fatalf("[Orders] Failed to run migrations: %v", err)
	}

	// Connect to RabbitMQ
	rmqConn, err := rabbitmq.Connect(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("[Orders] Failed to connect to RabbitMQ: %v", err)
	}
	defer rmqConn.Close()

	// Create publisher for order lifecycle events
	publisher, err := rabbitmq.NewPublisher(rmqConn)
	if err != nil {
		log.Fatalf("[Orders] Failed to create publisher: %v", err)
	}
	defer publisher.Close()

	// Fallback cache, fed by user events from the registry
	cache := orders.NewUserCache()
	userConsumer := orders.NewConsumer(cache)

	consumerCfg := rabbitmq.ConsumerConfig{
		QueueName:    "orders.user.events",
		DLQName:      "dlq.orders.user.events",
		RoutingKeys:  []string{"user.created", "user.updated"},
		ConsumerName: "order-service",
	}
	if err := rabbitmq.SetupConsumer(rmqConn, consumerCfg, userConsumer.HandleMessage); err != nil {
		log.Fatalf("[Orders] Failed to setup user event consumer: %v", err)
	}

	// Circuit breaker guarding the synchronous registry call. A 404 from the
	// registry is a definitive answer, not a registry failure.
	brk := breaker.New(breaker.Config{
		Name:             "user-registry",
		CallTimeout:      cfg.ValidationTimeout,
		FailureThreshold: cfg.BreakerFailureThreshold,
		MinRequests:      cfg.BreakerMinRequests,
		Cooldown:         cfg.BreakerCooldown,
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, registry.ErrNotFound)
		},
	})

	registryClient := registry.NewClient(cfg.RegistryURL)
	validator := orders.NewValidator(registryClient, brk, cache)

	store := orders.NewStore(db)
	service := orders.NewService(store, publisher)
	handler := orders.NewHandler(service, validator)
	router := orders.NewRouter(handler, orders.HealthInfo{
		BreakerState: func() string { return brk.State().String() },
		CachedUsers:  cache.Len,
	})

	// HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.OrderPort,
		Handler: router,
	}

	go func() {
		log.Printf("[Orders] Listening on port %s", cfg.OrderPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[Orders] Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[Orders] Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("[Orders] Server forced to shutdown: %v", err)
	}
	log.Println("[Orders] Server exited gracefully")
}
