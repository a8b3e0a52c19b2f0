package main

import (
	"time"

	"gately-be/internal/analytics"
	"gately-be/internal/cache"
	"gately-be/internal/config"
	"gately-be/internal/controllers"
	"gately-be/internal/database"
	"gately-be/internal/jwt"
	"gately-be/internal/middleware"
	"gately-be/internal/repository"
	"gately-be/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

func main() {
	// Load configuration
	cfg := config.Load()
	config.InitLogger()

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	// Run database migrations
	if err := database.RunMigrations(db); err != nil {
		logrus.WithError(err).Fatal("Failed to run migrations")
	}

	// Initialize Redis cache (optional - continue if Redis is unavailable)
	var cacheClient cache.Cache
	cacheClient, err = cache.NewRedisCache(cfg.RedisURL)
	if err != nil {
		logrus.WithError(err).Warn("Failed to connect to Redis. Continuing without cache.")
		cacheClient = nil
	} else {
		logrus.Info("Connected to Redis cache")
	}

	// Initialize geo resolver (optional - visits resolve to Unknown without it)
	var geoResolver analytics.Resolver
	if cfg.GeoIPDBPath != "" {
		maxmind, err := analytics.NewMaxMindResolver(cfg.GeoIPDBPath)
		if err != nil {
			logrus.WithError(err).Warn("Failed to open geo database. Continuing without geo resolution.")
		} else {
			defer maxmind.Close()
			geoResolver = maxmind
		}
	}

	// Initialize repositories
	linkRepo := repository.NewLinkRepository(db)
	clickRepo := repository.NewClickRepository(db)
	userRepo := repository.NewUserRepository(db)
	payoutRepo := repository.NewPayoutRepository(db)

	// Initialize JWT service
	jwtService := jwt.NewJWTService(
		cfg.JWTSecret,
		time.Duration(cfg.JWTTTL)*time.Hour,
	)

	// Initialize services
	linkService := service.NewLinkService(linkRepo, cacheClient)
	clickService := service.NewClickService(clickRepo, userRepo, geoResolver)
	authService := service.NewAuthService(userRepo, jwtService)
	payoutService := service.NewPayoutService(payoutRepo, userRepo, linkRepo, cfg.MinPayout)

	frontendURL := cfg.FrontendURL
	if frontendURL == "" {
		frontendURL = cfg.BaseURL
	}

	// Initialize controllers
	gateController := controllers.NewGateController(linkService, clickService, frontendURL)
	linkController := controllers.NewLinkController(linkService, cfg.BaseURL)
	authController := controllers.NewAuthController(authService)
	earningsController := controllers.NewEarningsController(payoutService)
	qrcodeController := controllers.NewQRCodeController(cfg.BaseURL)

	// Initialize rate limiters
	generalRateLimiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	authRateLimiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimitAuthRPS), cfg.RateLimitAuthBurst)
	gateRateLimiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimitGateRPS), cfg.RateLimitGateBurst)
	shortenRateLimiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimitShortenRPS), cfg.RateLimitShortenBurst)

	// Create a Gin router
	router := gin.Default()

	// Health check endpoint (no rate limiting)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	// Gate flow with lenient rate limiting - this is the hot path
	router.GET("/:shortID", gateRateLimiter.LimitMiddleware(), gateController.EnterGate)
	router.GET("/step2/:shortID", gateRateLimiter.LimitMiddleware(), gateController.GateStep2)
	router.GET("/step3/:shortID", gateRateLimiter.LimitMiddleware(), gateController.GateStep3)

	// API v1 routes group with general rate limiting
	api := router.Group("/api/v1")
	api.Use(generalRateLimiter.LimitMiddleware())
	{
		// Auth routes with stricter rate limiting
		auth := api.Group("/auth")
		auth.Use(authRateLimiter.LimitMiddleware())
		{
			auth.POST("/register", authController.Register)
			auth.POST("/login", authController.Login)
		}

		// Anonymous shortening - public, tighter rate limit
		api.POST("/shorten", shortenRateLimiter.LimitMiddleware(), linkController.CreateAnonymousLink)

		// QR code generation
		api.GET("/qrcode/:shortID", qrcodeController.GenerateQRCode)

		// Protected routes - require JWT authentication
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(jwtService))
		{
			protected.POST("/links", shortenRateLimiter.LimitMiddleware(), linkController.CreateLink)
			protected.GET("/links", linkController.GetUserLinks)
			protected.GET("/links/:shortID/analytics", linkController.GetLinkAnalytics)
			protected.DELETE("/links/:shortID", linkController.DeactivateLink)

			protected.GET("/earnings", earningsController.GetEarnings)
			protected.POST("/withdrawals", earningsController.RequestWithdrawal)
			protected.GET("/withdrawals", earningsController.GetWithdrawals)
			protected.GET("/referrals", earningsController.GetReferrals)
		}
	}

	// Start the server on port 8080
	logrus.Info("Server starting on http://localhost:8080")
	router.Run(":8080")
}
