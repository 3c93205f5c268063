package main // Entry point package

import (
	"context" // context for startup migrations
	"log"     // Logging library
	"time"    // startup timeouts

	"github.com/joho/godotenv"    // loads .env files into the environment
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/engiflow/engiflow/internal/collab"     // presence and typing signals
	"github.com/engiflow/engiflow/internal/config"     // Internal config loader
	"github.com/engiflow/engiflow/internal/database"   // MySQL connection, schema and seed
	"github.com/engiflow/engiflow/internal/handler"    // HTTP handlers
	"github.com/engiflow/engiflow/internal/middleware" // rate limiting and response cache
	"github.com/engiflow/engiflow/internal/queue"      // notification consumer
	"github.com/engiflow/engiflow/internal/repository" // data access layer
	"github.com/engiflow/engiflow/internal/router"     // Internal router setup
)

func main() {
	// .env is optional; real deployments set variables directly
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(ctx, db); err != nil {
		cancel()
		log.Fatalf("migrate: %v", err)
	}
	if cfg.SeedDemoData {
		if err := database.Seed(ctx, db, cfg.BcryptCost); err != nil {
			cancel()
			log.Fatalf("seed: %v", err)
		}
	}
	cancel()

	// Redis is optional: without it rate limiting, caching and presence
	// degrade to no-ops and e-sign staging reports unavailable.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, running without cache/rate-limit/presence")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	projects := repository.NewProjectRepo(db)
	docs := repository.NewDocumentRepo(db)
	actions := repository.NewActionRepo(rdb)
	hub := collab.NewHub(rdb)

	e := echo.New() // Create Echo instance
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e) // health check
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
	router.RegisterDocuments(e, cfg.JWTSecret,
		handler.NewDocumentHandler(docs, projects, cfg.BcryptCost),
		handler.NewActionHandler(docs, users, actions),
		handler.NewProjectHandler(projects),
		handler.NewSearchHandler(docs),
		handler.NewDashboardHandler(docs),
		handler.NewProfileHandler(users, docs),
		handler.NewCollabHandler(hub, docs),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	)

	// Deliver status-change notifications in the background; the consumer
	// reconnects on broker failures and never takes the API down.
	go func() {
		if err := queue.StartNotificationConsumer(); err != nil {
			log.Printf("notification consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
