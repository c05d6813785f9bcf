package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/roadlink/booking-backend/internal/config"
	"github.com/roadlink/booking-backend/internal/database"
	"github.com/roadlink/booking-backend/internal/handlers"
	"github.com/roadlink/booking-backend/internal/middleware"
	"github.com/roadlink/booking-backend/internal/services"
	"github.com/roadlink/booking-backend/pkg/jwt"
	"github.com/sirupsen/logrus"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting RoadLink Booking Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	// Initialize redis. The service runs without it: events and seat map
	// caching degrade to no-ops.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.WithError(err).Warn("Redis unavailable, events and seat map cache disabled")
		rdb = nil
	} else {
		defer rdb.Close()
		logger.Info("Redis connection established")
	}
	pingCancel()

	// Initialize repositories
	tripRepo := database.NewTripRepository(db)
	seatRepo := database.NewTripSeatRepository(db)
	layoutRepo := database.NewVehicleLayoutRepository(db)
	bookingRepo := database.NewBookingRepository(db)
	auditRepo := database.NewPaymentAuditRepository(db)
	rideRepo := database.NewRideRepository(db)

	// Initialize services
	logger.Info("Initializing services...")
	verifier := jwt.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	gateway := services.NewRazorpayService(&cfg.Payment, logger)
	if !gateway.IsConfigured() {
		logger.Warn("Payment gateway credentials missing, checkout will fail")
	}
	events := services.NewEventPublisher(rdb, logger)
	tripService := services.NewTripService(tripRepo, seatRepo, layoutRepo, events, rdb, logger)
	layoutService := services.NewVehicleLayoutService(layoutRepo, logger)
	bookingService := services.NewBookingService(bookingRepo, tripRepo, seatRepo, auditRepo, gateway, events, cfg.Payment.Currency, logger)
	rideService := services.NewRideService(rideRepo, logger)
	logger.Info("Services initialized")

	// Initialize handlers
	tripHandler := handlers.NewTripHandler(tripService, logger)
	tripSeatHandler := handlers.NewTripSeatHandler(tripService, logger)
	layoutHandler := handlers.NewVehicleLayoutHandler(layoutService, logger)
	bookingHandler := handlers.NewBookingHandler(bookingService, logger)
	webhookHandler := handlers.NewPaymentWebhookHandler(gateway, auditRepo, logger)
	rideHandler := handlers.NewRideHandler(rideService, logger)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", healthCheckHandler(db))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Public storefront routes
		trips := v1.Group("/trips")
		{
			trips.GET("", tripHandler.List)
			trips.GET("/:id", tripHandler.Get)
			trips.GET("/:id/seats", tripHandler.SeatMap)
			trips.GET("/:id/seats/summary", tripHandler.SeatSummary)
		}

		bookings := v1.Group("/bookings")
		{
			bookings.POST("/checkout", bookingHandler.Checkout)
			bookings.POST("/confirm", bookingHandler.Confirm)
			bookings.GET("", bookingHandler.ListByPhone)
			bookings.GET("/reference/:reference", bookingHandler.GetByReference)
			bookings.POST("/:id/cancel", bookingHandler.Cancel)
		}

		rides := v1.Group("/rides")
		{
			rides.POST("", rideHandler.Create)
			rides.GET("/:id", rideHandler.Get)
		}

		// Gateway webhook (authenticated by signature, not bearer token)
		v1.POST("/payments/webhook", webhookHandler.Handle)

		// Admin routes (protected)
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthMiddleware(verifier, logger))
		admin.Use(middleware.RequireRole("admin"))
		{
			admin.POST("/trips", tripHandler.Create)
			admin.PUT("/trips/:id/status", tripHandler.UpdateStatus)
			admin.DELETE("/trips/:id", tripHandler.Delete)
			admin.POST("/trips/:id/seats/block", tripSeatHandler.Block)
			admin.POST("/trips/:id/seats/unblock", tripSeatHandler.Unblock)

			admin.POST("/layouts", layoutHandler.Create)
			admin.GET("/layouts", layoutHandler.List)
			admin.GET("/layouts/:id", layoutHandler.Get)

			admin.PUT("/bookings/:id/status", bookingHandler.UpdateStatus)
			admin.PUT("/bookings/:id/payment-status", bookingHandler.UpdatePaymentStatus)

			admin.GET("/payments/reconciliation", webhookHandler.ListReconciliation)

			admin.GET("/rides", rideHandler.List)
			admin.PUT("/rides/:id/driver", rideHandler.AssignDriver)
			admin.PUT("/rides/:id/status", rideHandler.UpdateStatus)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}

		entry := logger.WithFields(fields)
		status := c.Writer.Status()
		switch {
		case len(c.Errors) > 0:
			entry.WithField("errors", c.Errors.String()).Error("Request failed with errors")
		case status >= 500:
			entry.Error("Request completed with server error")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
