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
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/campustransit/bus-reservation-backend/internal/config"
	"github.com/campustransit/bus-reservation-backend/internal/coord"
	"github.com/campustransit/bus-reservation-backend/internal/database"
	"github.com/campustransit/bus-reservation-backend/internal/handlers"
	"github.com/campustransit/bus-reservation-backend/internal/middleware"
	"github.com/campustransit/bus-reservation-backend/internal/services"
	"github.com/campustransit/bus-reservation-backend/pkg/blob"
	"github.com/campustransit/bus-reservation-backend/pkg/telemetry"
	"github.com/campustransit/bus-reservation-backend/pkg/token"
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

	logger.Info("Starting Campus Bus Reservation Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
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

	// Initialize coordination store
	logger.Info("Connecting to redis...")
	redisClient, err := coord.NewClient(cfg.Redis)
	if err != nil {
		logger.Fatalf("Failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	locker := coord.NewRedisLocker(redisClient)
	logger.Info("Redis connection established")

	// Initialize telemetry publisher
	logger.Info("Connecting to telemetry broker...")
	publisher, err := telemetry.NewPublisher(cfg.Telemetry.AMQPURL, cfg.Telemetry.Exchange, cfg.Telemetry.TopicPrefix)
	if err != nil {
		logger.Fatalf("Failed to connect to telemetry broker: %v", err)
	}
	defer publisher.Close()
	logger.Info("Telemetry broker connection established")

	// Initialize evidence storage
	uploader, err := blob.NewS3Uploader(context.Background(), cfg.Blob.Bucket, cfg.Blob.Region)
	if err != nil {
		logger.Fatalf("Failed to initialize evidence storage: %v", err)
	}

	// Initialize services
	logger.Info("Initializing services...")
	tokenService := token.NewService(
		cfg.Token.PassengerSecret,
		cfg.Token.OperatorSecret,
		cfg.Token.BoardingSecret,
		cfg.Token.PassengerExpiry,
		cfg.Token.OperatorExpiry,
	)
	store := database.NewStore(db)

	authService := services.NewAuthService(store, tokenService, cfg.Auth.AllowedEmailDomain, logger)
	tripService := services.NewTripService(store, logger)
	bookingService := services.NewBookingService(store, locker, tokenService, cfg.Redis.LockTTL, logger)
	boardingService := services.NewBoardingService(store, locker, tokenService, cfg.Redis.LockTTL, logger)
	operatorService := services.NewOperatorService(store, tokenService, logger)
	telemetryService := services.NewTelemetryService(publisher, logger)
	reportService := services.NewReportService(store, uploader, logger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, logger)
	tripHandler := handlers.NewTripHandler(tripService, logger)
	bookingHandler := handlers.NewBookingHandler(bookingService, logger)
	boardingHandler := handlers.NewBoardingHandler(boardingService, logger)
	operatorHandler := handlers.NewOperatorHandler(operatorService, logger)
	telemetryHandler := handlers.NewTelemetryHandler(telemetryService, logger)
	reportHandler := handlers.NewReportHandler(reportService, logger)

	// Initialize Gin router
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db, redisClient))

	passengerAuth := middleware.PassengerAuth(tokenService)
	operatorAuth := middleware.OperatorAuth(tokenService)

	// Passenger identity
	auth := router.Group("/auth")
	{
		auth.POST("/federated", authHandler.FederatedLogin)
		auth.PUT("/complete-profile", passengerAuth, authHandler.CompleteProfile)
	}
	router.GET("/profile", passengerAuth, authHandler.Profile)

	// Trips
	router.GET("/trips/available", passengerAuth, tripHandler.Available)
	router.POST("/trips", middleware.AdminKey(cfg.Auth.AdminAPIKey), tripHandler.Create)

	// Bookings
	bookings := router.Group("/bookings", passengerAuth)
	{
		bookings.POST("", bookingHandler.Create)
		bookings.GET("/history", authHandler.BookingHistory)
		bookings.DELETE("/:id", bookingHandler.Cancel)
	}

	// Operator realm
	router.POST("/operator/login", operatorHandler.Login)
	operator := router.Group("/operator", operatorAuth)
	{
		operator.GET("/trips", operatorHandler.Trips)
		operator.POST("/trips/start", operatorHandler.StartTrip)
		operator.POST("/trips/complete", operatorHandler.CompleteTrip)
		operator.GET("/trips/:tripId/passengers", operatorHandler.Passengers)
		operator.POST("/reports", reportHandler.Submit)
		operator.POST("/gps", telemetryHandler.Publish)
	}
	router.POST("/boarding/validate", operatorAuth, boardingHandler.Validate)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
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

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// healthCheckHandler reports liveness of the process and its stores
func healthCheckHandler(db database.DB, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}
		if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"redis":  "unhealthy",
				"error":  err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"redis":     "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
