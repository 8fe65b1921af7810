/**
 * @description
 * This is the main entry point for the promotion-service. It is responsible for
 * initializing all components of the service: configuration, the database
 * connection pool, the Redis promotion cache, the RabbitMQ event producer, the
 * PII codec, the repositories and engines, and the HTTP server. It wires
 * everything together and starts the service.
 *
 * @dependencies
 * - github.com/go-chi/chi/v5 (via internal/api): For HTTP routing.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - github.com/joho/godotenv: For loading .env files during local development.
 * - github.com/redis/go-redis/v9: Promotion cache backend.
 * - internal/api, internal/app, internal/config, internal/store: Internal packages.
 * - pkg/piicrypt, pkg/rabbitmq: PII codec and RabbitMQ producer.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/promopulse/promotion-service/internal/api"
	"github.com/promopulse/promotion-service/internal/app"
	"github.com/promopulse/promotion-service/internal/config"
	"github.com/promopulse/promotion-service/internal/store"
	"github.com/promopulse/promotion-service/pkg/piicrypt"
	"github.com/promopulse/promotion-service/pkg/rabbitmq"
)

func main() {
	// Load .env if present; real environments configure via env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("level=info component=bootstrap msg=\"no .env file found, using environment\"")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url must be configured\" env=DATABASE_URL")
	}

	// The PII codec validates its key here so a misconfigured deployment
	// fails before it can write undecryptable data.
	codec, err := piicrypt.New(cfg.PIIEncryptionKey)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"pii codec init failed\" env=PII_ENCRYPTION_KEY err=%v", err)
	}

	log.Printf("level=info component=bootstrap msg=\"starting promotion-service\" port=%s", cfg.ServerPort)

	// Establish a connection pool to the PostgreSQL database.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
	}
	poolConfig.MaxConns = 50
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to prevent conflicts behind poolers.
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", err)
	}
	defer dbpool.Close()
	log.Println("level=info component=bootstrap msg=\"database connected\"")

	// Initialize the RabbitMQ producer to publish domain events. A missing
	// broker degrades to no-op publishing rather than blocking startup.
	rabbitProducer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; events disabled\" err=%v", err)
		rabbitProducer = nil
	} else {
		defer rabbitProducer.Close()
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
	}
	publisher := app.NewAMQPEventPublisher(rabbitProducer, cfg.EventExchange)

	// Optional Redis promotion cache.
	var redisClient *redis.Client
	if strings.TrimSpace(cfg.RedisURL) == "" {
		log.Println("level=info component=bootstrap msg=\"redis url missing; promotion cache disabled\" env=REDIS_URL")
	} else {
		redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
		if parseErr != nil {
			log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; promotion cache disabled\" err=%v", parseErr)
		} else {
			redisClient = redis.NewClient(redisOptions)
			pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelPing()
			if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis ping failed; promotion cache disabled\" err=%v", pingErr)
				redisClient.Close()
				redisClient = nil
			} else {
				defer redisClient.Close()
				log.Println("level=info component=bootstrap msg=\"redis connected\"")
			}
		}
	}

	// Initialize the data access layer.
	repository := store.NewRepository(dbpool)

	// The promotion engine may serve reads through the cache; the subscription
	// engine checks promotion status against the plain repository so its
	// active-promotion rule always sees committed state.
	var promotionRepo app.PromotionRepository = repository
	if redisClient != nil {
		promotionRepo = store.NewCachedPromotionRepository(
			repository,
			redisClient,
			cfg.PromotionCacheKeyPrefix,
			time.Duration(cfg.PromotionCacheTTLSecs)*time.Second,
		)
	}

	promotionService := app.NewPromotionService(promotionRepo, publisher)
	subscriptionService := app.NewSubscriptionService(repository, repository, repository, publisher)
	userService := app.NewUserService(repository, codec)

	// Initialize the API handlers and router.
	router := api.NewRouter(
		api.NewPromotionHandler(promotionService),
		api.NewSubscriptionHandler(subscriptionService),
		api.NewUserHandler(userService),
	)

	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server failed\" err=%v", err)
		}
	}()

	// Block until a termination signal, then drain in-flight requests.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("level=info component=bootstrap msg=\"shutting down\"")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("level=warn component=http msg=\"graceful shutdown failed\" err=%v", err)
	}
}
