package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/recyconnect/recyconnect-backend/internal/config"
	"github.com/recyconnect/recyconnect-backend/internal/database"
	"github.com/recyconnect/recyconnect-backend/internal/handlers"
	"github.com/recyconnect/recyconnect-backend/internal/middleware"
	"github.com/recyconnect/recyconnect-backend/internal/services"
	"github.com/recyconnect/recyconnect-backend/internal/utils"
	"github.com/recyconnect/recyconnect-backend/pkg/jwt"
	"github.com/recyconnect/recyconnect-backend/pkg/mailer"
	"github.com/recyconnect/recyconnect-backend/pkg/push"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	level, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()
	logger.Info("Database connection established")

	var publisher push.Publisher = push.NopPublisher{}
	if cfg.Redis.Addr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisPublisher, err := push.NewRedisPublisher(ctx, cfg.Redis.Addr)
		cancel()
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to redis")
		}
		defer redisPublisher.Close()
		publisher = redisPublisher
		logger.Info("Redis publisher connected")
	} else {
		logger.Warn("REDIS_ADDR not set, real-time notifications disabled")
	}

	var mailGateway mailer.Gateway
	if cfg.Mail.Mode == "production" {
		mailGateway = mailer.NewAPIGateway(cfg.Mail.APIURL, cfg.Mail.APIKey, cfg.Mail.FromAddress, logger)
	} else {
		mailGateway = mailer.NewDevGateway(logger)
	}

	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	userRepo := database.NewUserRepository(db)
	ngoRepo := database.NewNgoRepository(db)
	bookingRepo := database.NewBookingRepository(db)
	reviewRepo := database.NewReviewRepository(db)
	notificationRepo := database.NewNotificationRepository(db)

	notificationService := services.NewNotificationService(notificationRepo, publisher, logger)
	authService := services.NewAuthService(db, userRepo, ngoRepo, jwtService, cfg.Security.BcryptCost, logger)
	ngoService := services.NewNgoService(ngoRepo)
	bookingService := services.NewBookingService(
		db, bookingRepo, userRepo, ngoRepo,
		notificationService, mailGateway, logger,
		time.Duration(cfg.OTP.ExpiryHours)*time.Hour,
	)
	reviewService := services.NewReviewService(reviewRepo, bookingRepo, userRepo, ngoRepo, notificationService)

	authHandler := handlers.NewAuthHandler(authService, logger)
	bookingHandler := handlers.NewBookingHandler(bookingService, logger)
	ngoBookingHandler := handlers.NewNgoBookingHandler(bookingService, logger)
	ngoHandler := handlers.NewNgoHandler(ngoService, reviewService, logger)
	reviewHandler := handlers.NewReviewHandler(reviewService, logger)
	notificationHandler := handlers.NewNotificationHandler(notificationService, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", healthCheck(db))

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/register-ngo", authHandler.RegisterNgo)
			auth.POST("/login", authHandler.Login)
		}

		// Public NGO directory
		api.GET("/ngos", ngoHandler.List)
		api.GET("/ngos/:id/reviews", ngoHandler.Reviews)

		authed := api.Group("")
		authed.Use(middleware.AuthMiddleware(jwtService))
		{
			authed.GET("/users/me", authHandler.Me)

			authed.GET("/notifications", notificationHandler.Latest)
			authed.GET("/notifications/unread-count", notificationHandler.UnreadCount)
			authed.POST("/notifications/:id/read", notificationHandler.MarkRead)

			user := authed.Group("")
			user.Use(middleware.RequireRole("USER", "ADMIN"))
			{
				user.POST("/bookings", bookingHandler.Create)
				user.GET("/bookings/my-bookings", bookingHandler.MyBookings)
				user.POST("/bookings/:id/cancel", bookingHandler.Cancel)
				user.POST("/reviews", reviewHandler.Submit)
			}

			ngo := authed.Group("/ngo")
			ngo.Use(middleware.RequireRole("NGO"))
			{
				ngo.GET("/profile", ngoHandler.Profile)
				ngo.PUT("/profile", ngoHandler.UpdateProfile)

				ngo.GET("/bookings/requests", ngoBookingHandler.Requests)
				ngo.POST("/bookings/:id/accept", ngoBookingHandler.Accept)
				ngo.POST("/bookings/:id/resend-otp", ngoBookingHandler.ResendOTP)
				ngo.POST("/bookings/:id/complete", ngoBookingHandler.Complete)
				ngo.POST("/bookings/:id/reject", ngoBookingHandler.Reject)
			}
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}

// requestLogger logs each request with latency and client device info
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		device := utils.ParseUserAgent(c.Request.UserAgent())

		logger.WithFields(logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
			"browser":    device.Browser,
			"os":         device.OS,
			"is_mobile":  device.IsMobile,
		}).Info("Request handled")
	}
}

func healthCheck(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database unreachable",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC(),
		})
	}
}
