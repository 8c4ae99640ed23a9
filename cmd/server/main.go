package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/config"
	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/database"
	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/handlers"
	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/middleware"
	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/models"
	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/services"
	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/pkg/calendar"
	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/pkg/jwt"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var version = "1.0.0"

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting TurismoRural backend")

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

	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Repositories. The reservation and outbox repositories need the
	// concrete *sqlx.DB because their writes run in transactions.
	sqlxDB, ok := db.(*database.PostgresDB)
	if !ok {
		logger.Fatal("Failed to cast database connection to PostgresDB")
	}
	utilizadorRepo := database.NewUtilizadorRepository(db)
	refreshTokenRepo := database.NewRefreshTokenRepository(db)
	casaRepo := database.NewCasaRepository(db)
	casaImagemRepo := database.NewCasaImagemRepository(db)
	avaliacaoRepo := database.NewAvaliacaoRepository(db)
	codigoPostalRepo := database.NewCodigoPostalRepository(db)
	reservaRepo := database.NewReservaRepository(sqlxDB.DB)
	outboxRepo := database.NewCalendarOutboxRepository(sqlxDB.DB)

	// Services
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	var gateway calendar.Gateway
	if cfg.Calendar.Enabled {
		gateway, err = calendar.NewGoogleGateway(calendar.GoogleConfig{
			ClientEmail:   cfg.Calendar.ClientEmail,
			PrivateKeyPEM: cfg.Calendar.PrivateKey,
			CalendarID:    cfg.Calendar.CalendarID,
			TokenURL:      cfg.Calendar.TokenURL,
			APIBaseURL:    cfg.Calendar.APIBaseURL,
		})
		if err != nil {
			logger.Fatalf("Failed to initialize calendar gateway: %v", err)
		}
		logger.Info("Google Calendar sync enabled")
	} else {
		logger.Info("Google Calendar sync disabled")
	}

	calendarSync := services.NewCalendarSyncService(
		outboxRepo,
		reservaRepo,
		gateway,
		services.CalendarSyncConfig{
			CallTimeout:  cfg.Calendar.CallTimeout,
			MaxAttempts:  cfg.Outbox.MaxAttempts,
			InitialDelay: cfg.Outbox.InitialDelay,
			BatchSize:    cfg.Outbox.BatchSize,
		},
		logger,
	)
	casaService := services.NewCasaService(casaRepo, codigoPostalRepo, logger)
	reservaService := services.NewReservaService(reservaRepo, casaRepo, outboxRepo, calendarSync, logger)
	avaliacaoService := services.NewAvaliacaoService(avaliacaoRepo, reservaRepo, casaRepo, logger)

	cronService := services.NewCronService(calendarSync, refreshTokenRepo, outboxRepo, logger)
	if err := cronService.Start(); err != nil {
		logger.Fatalf("Failed to start cron service: %v", err)
	}

	// Handlers
	authHandler := handlers.NewAuthHandler(jwtService, utilizadorRepo, refreshTokenRepo, cfg, logger)
	utilizadorHandler := handlers.NewUtilizadorHandler(utilizadorRepo, refreshTokenRepo, casaRepo, cfg, logger)
	casaHandler := handlers.NewCasaHandler(casaService, reservaService, avaliacaoService, logger)
	reservaHandler := handlers.NewReservaHandler(reservaService, logger)
	avaliacaoHandler := handlers.NewAvaliacaoHandler(avaliacaoService, logger)
	codigoPostalHandler := handlers.NewCodigoPostalHandler(codigoPostalRepo, logger)
	imagemHandler := handlers.NewImagemHandler(casaImagemRepo, casaService, cfg, logger)
	adminHandler := handlers.NewAdminHandler(calendarSync, cronService, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Security.EnableRequestLog {
		router.Use(requestLogger(logger))
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", healthCheckHandler(db))
	router.Static(cfg.Storage.PublicBaseURL, cfg.Storage.ImageDir)

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", middleware.AuthMiddleware(jwtService), authHandler.Logout)
		}

		users := v1.Group("/users")
		users.Use(middleware.AuthMiddleware(jwtService))
		{
			users.GET("/me", utilizadorHandler.GetProfile)
			users.PUT("/me", utilizadorHandler.UpdateProfile)
			users.GET("", middleware.RequireRole(models.RoleSupport), utilizadorHandler.List)
			users.DELETE("/:id", middleware.RequireRole(models.RoleSupport), utilizadorHandler.Delete)
		}

		casas := v1.Group("/casas")
		{
			casas.GET("", casaHandler.List)
			casas.GET("/:id", casaHandler.Get)
			casas.GET("/:id/reservas", casaHandler.ListReservas)
			casas.GET("/:id/avaliacoes", casaHandler.ListAvaliacoes)
			casas.GET("/:id/imagens", imagemHandler.List)

			support := casas.Group("")
			support.Use(middleware.AuthMiddleware(jwtService), middleware.RequireRole(models.RoleSupport))
			{
				support.POST("", casaHandler.Create)
				support.PUT("/:id", casaHandler.Update)
				support.DELETE("/:id", casaHandler.Delete)
				support.POST("/:id/imagens", imagemHandler.Upload)
			}
		}

		v1.DELETE("/imagens/:id",
			middleware.AuthMiddleware(jwtService),
			middleware.RequireRole(models.RoleSupport),
			imagemHandler.Delete,
		)

		reservas := v1.Group("/reservas")
		{
			// Idempotent bulk close; callable without a session
			reservas.POST("/terminar-expiradas", reservaHandler.TerminateExpired)

			protected := reservas.Group("")
			protected.Use(middleware.AuthMiddleware(jwtService))
			{
				protected.POST("", reservaHandler.Create)
				protected.GET("/minhas", reservaHandler.ListMine)
				protected.GET("/:id", reservaHandler.Get)
				protected.PUT("/:id", reservaHandler.UpdateDates)
				protected.POST("/:id/cancelar", reservaHandler.Cancel)
			}
		}

		avaliacoes := v1.Group("/avaliacoes")
		avaliacoes.Use(middleware.AuthMiddleware(jwtService))
		{
			avaliacoes.POST("", avaliacaoHandler.Create)
			avaliacoes.PUT("/:id", avaliacaoHandler.Update)
			avaliacoes.DELETE("/:id", avaliacaoHandler.Delete)
		}

		v1.GET("/codigos-postais/:codigo", codigoPostalHandler.Resolve)

		admin := v1.Group("/admin")
		admin.Use(middleware.AuthMiddleware(jwtService), middleware.RequireRole(models.RoleSupport))
		{
			admin.GET("/outbox", adminHandler.OutboxStatus)
			admin.POST("/outbox/drain", adminHandler.DrainOutbox)
			admin.GET("/cron/status", adminHandler.CronStatus)
		}
	}

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

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cronService.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": time.Since(start).Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}

		if userCtx, exists := middleware.GetUserContext(c); exists {
			fields["user_id"] = userCtx.UserID
		}

		entry := logger.WithFields(fields)

		if len(c.Errors) > 0 {
			for i, err := range c.Errors {
				entry = entry.WithField(fmt.Sprintf("error_%d", i), err.Error())
			}
			entry.Error("Request failed with errors")
			return
		}

		status := c.Writer.Status()
		switch {
		case status >= 500:
			entry.Error("Request completed with server error")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed")
		}
	}
}

// healthCheckHandler reports service and database health
func healthCheckHandler(db database.DB) gin.HandlerFunc {
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
