package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"driveshare/internal/cache"
	"driveshare/internal/config"
	"driveshare/internal/http/handlers"
	applog "driveshare/internal/log"
	"driveshare/internal/repos"
	"driveshare/internal/services"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	// Cache backend: Redis when configured, in-process otherwise
	var store cache.Store
	if cfg.RedisURL != "" {
		rs, err := cache.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		store = rs
		log.Println("[cache] using redis store")
	} else {
		store = cache.NewMemoryStore()
		log.Println("[cache] using in-process store")
	}
	cc := cache.NewClient(store)
	defer func() { _ = cc.Close() }()

	// Payment collaborator
	var payments services.PaymentProvider = services.NoopPaymentProvider{}
	if cfg.PaymentURL != "" {
		payments = services.NewHTTPPaymentProvider(cfg.PaymentURL, cfg.PaymentAPIKey)
	}

	// Auth wiring
	userRepo := repos.NewUserRepo(db)
	authSvc := &services.AuthService{Users: userRepo}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": fiber.Map{"code": "storage_error", "message": "Something went wrong. Please try again."},
			})
		},
	})
	// Global body size guard
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
	}))

	// ---------- Routes ----------
	deps := handlers.NewDeps(db, cc, authSvc, payments)
	api := app.Group("/api/v1")

	// Auth (login throttled)
	api.Post("/auth/register", deps.AuthHandler.Register)
	api.Post("/auth/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": fiber.Map{"code": "rate_limited", "message": "too many attempts, try again later"},
			})
		},
	}), deps.AuthHandler.Login)
	api.Post("/auth/logout", deps.AuthHandler.Logout)

	// Cars (reads cached, writes owner-scoped)
	api.Get("/cars",
		cache.Middleware(cc, cache.QueryKey("cars", "location", "maxPrice", "limit", "offset")),
		deps.CarHandler.List)
	api.Get("/cars/:id",
		cache.Middleware(cc, func(c *fiber.Ctx) string { return "cars:" + c.Params("id") }),
		deps.CarHandler.Get)
	api.Post("/cars", handlers.RequireUser(authSvc), deps.CarHandler.Create)
	api.Put("/cars/:id", handlers.RequireUser(authSvc), deps.CarHandler.Update)
	api.Delete("/cars/:id", handlers.RequireUser(authSvc), deps.CarHandler.Delete)

	// Availability
	api.Get("/availability",
		cache.Middleware(cc, func(c *fiber.Ctx) string {
			carID := c.Query("carId")
			if carID == "" {
				return ""
			}
			return cache.Key("availability:"+carID, map[string]string{
				"start": c.Query("start"), "end": c.Query("end"),
			})
		}),
		deps.BookingHandler.Availability)

	// Bookings
	api.Post("/bookings", handlers.RequireUser(authSvc), deps.BookingHandler.Create)
	api.Get("/bookings", handlers.RequireUser(authSvc),
		cache.Middleware(cc, func(c *fiber.Ctx) string {
			if sid := c.Cookies("sid"); sid != "" {
				if u, err := authSvc.CurrentUser(sid); err == nil && u != nil {
					return "bookings:" + u.ID
				}
			}
			return ""
		}),
		deps.BookingHandler.Mine)
	api.Get("/bookings/:id", handlers.RequireUser(authSvc), deps.BookingHandler.Get)
	api.Post("/bookings/:id/cancel", handlers.RequireUser(authSvc), deps.BookingHandler.Cancel)

	// Payment gateway callback
	api.Post("/payments/callback", deps.BookingHandler.PaymentCallback)

	// Admin
	api.Get("/admin/bookings", handlers.RequireAdmin(authSvc), deps.BookingHandler.AdminList)

	// Profile
	api.Get("/users/me", handlers.RequireUser(authSvc),
		cache.Middleware(cc, func(c *fiber.Ctx) string {
			if sid := c.Cookies("sid"); sid != "" {
				if u, err := authSvc.CurrentUser(sid); err == nil && u != nil {
					return "users:" + u.ID
				}
			}
			return ""
		}),
		deps.UserHandler.Me)
	api.Put("/users/me", handlers.RequireUser(authSvc), deps.UserHandler.UpdateMe)

	// Messaging
	api.Get("/conversations", handlers.RequireUser(authSvc), deps.MessageHandler.ListConversations)
	api.Post("/messages", handlers.RequireUser(authSvc), deps.MessageHandler.Send)
	api.Get("/conversations/:id/messages", handlers.RequireUser(authSvc), deps.MessageHandler.History)
	api.Post("/conversations/:id/messages", handlers.RequireUser(authSvc), deps.MessageHandler.Reply)

	// Reviews
	api.Get("/cars/:id/reviews", deps.ReviewHandler.ListByCar)
	api.Post("/cars/:id/reviews", handlers.RequireUser(authSvc), deps.ReviewHandler.Create)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": fiber.Map{"code": "not_found", "message": "no such route"},
		})
	})

	// Background sweep: confirmed bookings past their end date become completed
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()
		svc := deps.BookingService()
		for {
			select {
			case <-ticker.C:
				if _, err := svc.CompleteExpired(sweepCtx, time.Now()); err != nil {
					applog.Error(nil, "booking.sweep.fail", err, nil)
				}
			case <-sweepCtx.Done():
				return
			}
		}
	}()

	// Graceful shutdown: stop the sweeper and flush the cache store
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		stopSweep()
		_ = app.Shutdown()
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
