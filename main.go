package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sweetbox/pkg/config"
	"sweetbox/pkg/database"
	"sweetbox/pkg/logger"
	"sweetbox/pkg/middleware"
	"sweetbox/pkg/routes"
	"sweetbox/pkg/services"
)

func main() {
	// Load configuration
	config.LoadConfig()

	if err := logger.Init(config.AppConfig.Log); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	l := logger.Log

	// Initialize database
	l.Info("🔌 Initializing database connection...")
	if err := database.InitDatabase(); err != nil {
		l.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.CloseDatabase()

	if err := database.AutoMigrate(); err != nil {
		l.Warn("⚠️ Failed to run migrations", zap.Error(err))
	}

	// Initialize Redis snapshot cache
	if err := services.InitRedis(config.AppConfig.Redis); err != nil {
		l.Warn("⚠️  Warning: Redis initialization failed, state cache disabled", zap.Error(err))
	}
	defer services.CloseRedis()

	// Initialize GCP Storage service
	if err := services.InitGCPStorage(config.AppConfig.GCP); err != nil {
		l.Warn("⚠️  Warning: GCP Storage initialization failed", zap.Error(err))
	} else {
		l.Info("✅ GCP Storage initialized successfully")
	}
	defer services.CloseGCPStorage()

	// Initialize FCM service
	if err := services.InitFCM(config.AppConfig.FCM, config.AppConfig.GCP.Credentials); err != nil {
		l.Warn("⚠️  Warning: FCM initialization failed", zap.Error(err))
	} else {
		l.Info("✅ FCM initialized successfully")
	}

	// Set Gin mode based on environment
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(l))
	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.ErrorMiddleware())

	// Session middleware
	store := cookie.NewStore([]byte(config.AppConfig.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(config.AppConfig.TokenTTL().Seconds()),
		HttpOnly: true,
		Secure:   config.AppConfig.CookieSecure,
	})
	router.Use(sessions.Sessions("session", store))

	setupCORS(router)

	// Bulk state pushes carry the whole tree
	router.MaxMultipartMemory = 10 << 20 // 10 MB

	routes.Setup(router)

	srv := &http.Server{
		Addr:              ":" + config.AppConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		l.Info("🚀 Server running", zap.String("environment", config.AppConfig.Environment))
		l.Info("📡 Server listening", zap.String("addr", "http://localhost:"+config.AppConfig.Port))

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		l.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	l.Info("✅ Server exited gracefully")
}

// setupCORS configures CORS for the till front ends
func setupCORS(router *gin.Engine) {
	isProduction := config.IsProduction()

	defaultOrigins := []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
		"http://localhost:8080",
		"http://127.0.0.1:8080",
	}

	allowOrigins := defaultOrigins
	if isProduction && config.AppConfig.AllowedOrigins != "" {
		allowOrigins = parseOrigins(config.AppConfig.AllowedOrigins)
	}

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "X-Requested-With", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "X-Cache"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if isProduction {
		corsConfig.AllowOrigins = allowOrigins
	} else {
		// any origin in development, credentials included
		corsConfig.AllowOriginFunc = func(origin string) bool {
			return true
		}
	}

	router.Use(cors.New(corsConfig))

	if isProduction {
		logger.Log.Info("🔒 CORS enabled", zap.Strings("origins", allowOrigins))
	} else {
		logger.Log.Info("🔓 CORS enabled for all origins (development mode)")
	}
}

// parseOrigins splits comma-separated origin string
func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
