package main // Entry point package

import (
	"context" // Context for schema bootstrap
	"log"     // Logging library
	"time"    // Timeout for startup tasks

	"github.com/joho/godotenv"                    // Loads .env files into the environment
	"github.com/labstack/echo/v4"                 // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware" // Built-in Echo middleware (logger, recover, CORS)

	"github.com/enotgpt/auth-service/internal/config"     // Internal config loader
	"github.com/enotgpt/auth-service/internal/database"   // MySQL connection and schema bootstrap
	"github.com/enotgpt/auth-service/internal/handler"    // HTTP handlers
	"github.com/enotgpt/auth-service/internal/middleware" // Rate limiting middleware
	"github.com/enotgpt/auth-service/internal/queue"      // RabbitMQ code delivery
	"github.com/enotgpt/auth-service/internal/repository" // Data access layer
	"github.com/enotgpt/auth-service/internal/router"     // Route registration
	"github.com/enotgpt/auth-service/internal/service"    // Business logic
)

func main() {
	// Load a local .env file if present. In production the variables
	// come from the environment and the file simply does not exist.
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
	}

	cfg := config.Load() // Load environment config

	// Connect to MySQL and make sure the tables and the default role exist.
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	bootCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := database.EnsureSchema(bootCtx, db); err != nil {
		log.Fatalf("schema: %v", err)
	}

	// Repositories bound to the shared connection pool.
	users := repository.NewUserRepo(db)
	roles := repository.NewRoleRepo(db)
	codes := repository.NewCodeRepo(db)
	tokens := repository.NewTokenRepo(db)
	qrs := repository.NewQRRepo(db)

	// RabbitMQ publisher for issued codes. The publisher dials per
	// publish, so a broker outage degrades code delivery without
	// taking the API down.
	notifier := queue.NewPublisher(cfg.RabbitURL)
	if cfg.Env == "dev" {
		// In development a background consumer drains the queue into
		// logs/codes.log so codes can be read without a real gateway.
		go func() {
			if err := queue.StartCodeConsumer(cfg.RabbitURL); err != nil {
				log.Printf("code consumer: %v", err)
			}
		}()
	}

	// Services composing repositories into the auth flows.
	tokenSvc := service.NewTokenService(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTLDays, tokens, roles)
	regSvc := service.NewRegistrationService(users, codes, roles, tokenSvc, notifier, cfg.CodeTTL())
	authSvc := service.NewAuthService(users, codes, roles, tokenSvc, notifier, cfg.CodeTTL(), cfg.BotKeyHash, cfg.BotAccessTTL())
	qrSvc := service.NewQRService(qrs, tokenSvc, roles, cfg.QRSessionTTL(), cfg.QRPollInterval, cfg.AuthServerURL)

	authHandler := handler.NewAuthHandler(cfg, regSvc, authSvc, tokenSvc)
	qrHandler := handler.NewQRHandler(qrSvc)

	e := echo.New()
	e.Use(echomw.Logger())  // Request logging
	e.Use(echomw.Recover()) // Panic recovery
	e.Use(echomw.CORS())    // Browser clients call the API cross-origin

	// Redis-backed token bucket for the code-request endpoints. With
	// no Redis configured the middleware passes every request through.
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), config.NewRedisClient())

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, qrHandler, cfg.JWTSecret, limiter)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err)
	}
}
