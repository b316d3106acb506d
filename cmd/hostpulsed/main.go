package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"hostpulse/internal/alerts"
	"hostpulse/internal/config"
	"hostpulse/internal/handlers"
	"hostpulse/internal/middleware"
	"hostpulse/internal/store"
	"hostpulse/internal/telemetry"
	"hostpulse/internal/utils"
	"hostpulse/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      *utils.Logger
	snapshots   *store.Store
	engine      *telemetry.Engine
	wsHub       *middleware.Hub
	authService *middleware.AuthService
	rateLimiter *middleware.RateLimiter
	api         *handlers.API
}

func main() {
	// Set Gin mode
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	logger := utils.NewLogger(cfg.LogFile)
	defer logger.Close()
	logger.Write(fmt.Sprintf("hostpulse %s starting", version.String()))

	snapshots, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open snapshot store: %v", err)
	}
	defer snapshots.Close()

	app, err := buildApp(cfg, logger, snapshots)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}

	// Start WebSocket hub and the sampling engine
	go app.wsHub.Run()
	app.engine.Start()

	r := setupRouter(app)
	srv := &http.Server{
		Addr:           ":" + strconv.Itoa(cfg.Port),
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Printf("Starting server on port %d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")
	logger.Write("hostpulse shutting down")

	// Stop sampling first so nothing writes to the store mid-shutdown
	app.engine.Stop()
	app.wsHub.Stop()
	app.rateLimiter.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

func buildApp(cfg *config.Config, logger *utils.Logger, snapshots *store.Store) (*App, error) {
	engine := telemetry.NewEngine(telemetry.NewHostSource(), snapshots, logger, telemetry.Options{
		SampleInterval: cfg.SampleInterval,
		PersistEvery:   cfg.PersistEvery,
		Retention:      cfg.Retention(),
		HistorySize:    cfg.HistorySize,
	})

	wsHub := middleware.NewHub(logger)
	engine.AddObserver(handlers.NewStatsBroadcaster(wsHub))

	evaluator := alerts.NewEvaluator(alerts.NewDiscordNotifier(cfg.DiscordWebhook), logger)
	if _, err := evaluator.AddRule(alerts.Rule{
		Name:      "High CPU load",
		Metric:    alerts.MetricCPU,
		Threshold: cfg.CPUAlertThreshold,
	}); err != nil {
		return nil, fmt.Errorf("default cpu rule: %w", err)
	}
	if _, err := evaluator.AddRule(alerts.Rule{
		Name:      "High memory pressure",
		Metric:    alerts.MetricRAM,
		Threshold: cfg.RAMAlertThreshold,
	}); err != nil {
		return nil, fmt.Errorf("default ram rule: %w", err)
	}
	engine.AddObserver(evaluator)

	authService := middleware.NewAuthService(cfg.JWTSecret)
	adminHash, err := authService.HashPassword(cfg.AdminPassword)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}

	return &App{
		cfg:         cfg,
		logger:      logger,
		snapshots:   snapshots,
		engine:      engine,
		wsHub:       wsHub,
		authService: authService,
		rateLimiter: middleware.NewRateLimiter(rate.Every(time.Minute/100), 10),
		api: handlers.NewAPI(engine, snapshots, authService, evaluator, logger,
			cfg.AdminUser, adminHash),
	}, nil
}

func setupRouter(app *App) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(app.rateLimiter.Middleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", app.api.HealthGET)
	r.POST("/api/login", app.api.LoginPOST)
	r.POST("/api/logout", app.api.LogoutPOST)

	api := r.Group("/api")
	api.Use(app.authService.RequireAuth())
	api.GET("/stats", app.api.StatsGET)
	api.GET("/stats/history", app.api.HistoryGET)
	api.GET("/stats/snapshots", app.api.SnapshotsGET)
	api.GET("/alerts/rules", app.api.RulesGET)
	api.POST("/alerts/rules", app.api.RulesPOST)

	api.GET("/ws", app.wsHub.HandleWebSocket())

	return r
}
