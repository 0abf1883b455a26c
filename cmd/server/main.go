package main // Entry point package

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/utia/guesthouse-booking/internal/config"
	"github.com/utia/guesthouse-booking/internal/database"
	"github.com/utia/guesthouse-booking/internal/handler"
	custommw "github.com/utia/guesthouse-booking/internal/middleware"
	"github.com/utia/guesthouse-booking/internal/policy"
	"github.com/utia/guesthouse-booking/internal/queue"
	"github.com/utia/guesthouse-booking/internal/repository"
	"github.com/utia/guesthouse-booking/internal/router"
	"github.com/utia/guesthouse-booking/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs rate limiting, response caching and the access code
	// attempt limiter.  A nil client disables all three.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting, caching and code attempt limits disabled")
	}

	rooms := repository.NewRoomRepo(db)
	bookings := repository.NewBookingRepo(db)
	blockages := repository.NewBlockageRepo(db)
	holds := repository.NewHoldRepo(db)
	settings := repository.NewSettingsRepo(db)
	admins := repository.NewAdminRepo(db)

	notifier := queue.NewPublisher(cfg.AMQPURL)
	codes := policy.NewCodeLimiter(rdb, cfg.CodeMaxTries, cfg.CodeWindow)

	bookingSvc := service.NewBookingService(db, rooms, bookings, blockages, holds, settings, notifier, codes)
	holdSvc := service.NewHoldService(db, rooms, holds, cfg.HoldTTL)
	availabilitySvc := service.NewAvailabilityService(rooms, bookings, blockages, holds)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go service.RunHoldSweeper(ctx, holdSvc, cfg.SweepInterval)
	go queue.StartBookingConsumer(cfg.AMQPURL)

	e := echo.New()
	e.Use(custommw.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	cache := custommw.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterHealth(e)
	router.RegisterPublic(e,
		handler.NewAvailabilityHandler(availabilitySvc, rooms),
		handler.NewHoldHandler(holdSvc, bookings, blockages),
		handler.NewBookingHandler(bookingSvc, cfg.ServiceAPIKey),
		cache,
	)
	router.RegisterAdmin(e,
		handler.NewAuthHandler(cfg, admins),
		handler.NewAdminHandler(rooms, blockages, settings),
		handler.NewBookingHandler(bookingSvc, cfg.ServiceAPIKey),
		cfg.JWTSecret,
	)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
