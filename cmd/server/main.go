package main // Entry point package

import (
    "context" // Context for startup DB calls
    "log"     // Logging library
    "time"    // Timeouts for startup tasks

    "github.com/joho/godotenv"    // .env loader for local development
    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/iliyamo/room-reservation/internal/config"     // Internal config loader
    "github.com/iliyamo/room-reservation/internal/database"   // MySQL connection and schema
    "github.com/iliyamo/room-reservation/internal/handler"    // HTTP handlers
    "github.com/iliyamo/room-reservation/internal/middleware" // Rate limiting and caching middleware
    "github.com/iliyamo/room-reservation/internal/queue"      // Booking event consumer
    "github.com/iliyamo/room-reservation/internal/repository" // Data access layer
    "github.com/iliyamo/room-reservation/internal/router"     // Route registration
    "github.com/iliyamo/room-reservation/internal/service"    // Reservation engine
)

func main() {
    // Load .env when present; real deployments set environment directly.
    _ = godotenv.Load()

    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()

    ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
    if err := database.Migrate(ctx, db); err != nil {
        log.Fatalf("migrate: %v", err)
    }
    if err := database.Seed(ctx, db, cfg.BcryptCost); err != nil {
        log.Fatalf("seed: %v", err)
    }
    cancel()

    // Repositories and the reservation engine.
    rooms := repository.NewRoomRepo(db)
    bookings := repository.NewBookingRepo(db, rooms)
    users := repository.NewUserRepo(db)
    tokens := repository.NewTokenRepo(db)
    reviews := repository.NewReviewRepo(db)
    engine := service.NewReservationEngine(bookings)

    // Clear out long-expired refresh tokens from previous runs.
    if n, err := tokens.PurgeExpired(context.Background(), 30*24*time.Hour); err != nil {
        log.Printf("purge refresh tokens: %v", err)
    } else if n > 0 {
        log.Printf("purged %d expired refresh tokens", n)
    }

    // Redis backs rate limiting, response caching and MFA challenges.
    // A nil client degrades the first two to pass-through; MFA-gated
    // endpoints report unavailable.
    rdb := config.NewRedisClient()
    if rdb == nil {
        log.Println("redis unavailable: rate limiting, caching and mfa disabled")
    }

    mfa := handler.NewMFAHandler(rdb, time.Duration(cfg.MFACodeTTLMin)*time.Minute)
    authh := handler.NewAuthHandler(cfg, users, tokens)
    roomh := handler.NewRoomHandler(rooms, engine, mfa)
    bookh := handler.NewBookingHandler(cfg, engine, bookings, rooms, mfa)
    revh := handler.NewReviewHandler(reviews, rooms)
    userh := handler.NewUserHandler(cfg, users, tokens, mfa)

    e := echo.New()
    e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
    // The response cache is deliberately not global: cached bodies are
    // per-user and per-role, so it is scoped to the rooms group where
    // it runs after JWTAuth.
    roomsCache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

    router.RegisterRoutes(e)
    router.RegisterAuth(e, authh, cfg.JWTSecret)
    router.RegisterMFA(e, mfa, cfg.JWTSecret)
    router.RegisterRooms(e, roomh, bookh, revh, cfg.JWTSecret, roomsCache)
    router.RegisterBookings(e, bookh, cfg.JWTSecret)
    router.RegisterReviews(e, revh, cfg.JWTSecret)
    router.RegisterUsers(e, userh, cfg.JWTSecret)

    // Consume booking lifecycle events in the background.  The consumer
    // reconnects on broker failures and never takes the API down.
    go func() {
        if err := queue.StartBookingConsumer(); err != nil {
            log.Printf("booking consumer stopped: %v", err)
        }
    }()

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)

    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
