package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"retail_pos_backend/internal/database"
	"retail_pos_backend/internal/repositories"
	"retail_pos_backend/internal/router"
	"retail_pos_backend/internal/services"
	"retail_pos_backend/pkg/utils"

	evbus "github.com/asaskevich/EventBus"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	utils.InitLogger()

	store, err := buildStore()
	if err != nil {
		utils.LogError(err, "Failed to initialize store")
		os.Exit(1)
	}

	node, err := snowflake.NewNode(cast.ToInt64(utils.Getenv("NODE_ID", "1")))
	if err != nil {
		utils.LogError(err, "Failed to initialize ID generator")
		os.Exit(1)
	}

	bus := evbus.New()
	settingsService := services.NewSettingsService(store)
	notificationService := services.NewNotificationService(store, settingsService, bus)
	dataManager := services.NewDataManager(store, bus)
	productService := services.NewProductService(store, dataManager, notificationService)
	salesService := services.NewSalesService(store, settingsService, notificationService, dataManager, node)
	reportService := services.NewReportService(store)
	authService := services.NewAuthService(store)

	dataManager.Start()
	defer dataManager.Stop()
	defer notificationService.Stop()

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(utils.GinLogger())
	engine.Use(cors.New(corsConfig()))

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	router.Setup(engine, router.Services{
		Auth:          authService,
		Products:      productService,
		Sales:         salesService,
		Notifications: notificationService,
		Settings:      settingsService,
		Reports:       reportService,
		DataManager:   dataManager,
	})

	port := utils.Getenv("PORT", "8080")
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: engine,
	}

	go func() {
		utils.LogInfo("Server starting", map[string]interface{}{"port": port})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.LogError(err, "Failed to start server")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	utils.LogInfo("Shutting down server", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		utils.LogError(err, "Forced server shutdown")
	}
}

// buildStore selects the storage backend: PostgreSQL by default, a local
// JSON file store when STORE_BACKEND=file (offline/single-terminal mode).
func buildStore() (repositories.Store, error) {
	backend := strings.ToLower(utils.Getenv("STORE_BACKEND", "postgres"))
	switch backend {
	case "file":
		dir := utils.Getenv("FILE_STORE_PATH", "./data")
		utils.LogInfo("Using file store", map[string]interface{}{"path": dir})
		return repositories.NewFileStore(dir)
	case "postgres":
		err := database.InitDB(
			utils.Getenv("DB_HOST", "localhost"),
			utils.Getenv("DB_PORT", "5432"),
			utils.Getenv("DB_USER", "retail_pos"),
			utils.Getenv("DB_PASSWORD", "retail_pos"),
			utils.Getenv("DB_NAME", "retail_pos_db"),
			utils.Getenv("DB_SSLMODE", "disable"),
			utils.Getenv("DB_SCHEMA_PATH", ""),
		)
		if err != nil {
			return nil, err
		}
		utils.LogInfo("Database initialized", map[string]interface{}{"configured_from_env": true})
		return repositories.NewSQLStore(database.GetDB()), nil
	}
	return nil, errors.New("unknown STORE_BACKEND: " + backend)
}

func corsConfig() cors.Config {
	corsAllowedOriginsEnv := os.Getenv("CORS_ALLOWED_ORIGINS")
	var allowedOrigins []string
	if corsAllowedOriginsEnv != "" {
		allowedOrigins = strings.Split(corsAllowedOriginsEnv, ",")
	} else {
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:3001"}
	}

	config := cors.DefaultConfig()
	config.AllowOrigins = allowedOrigins
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	config.AllowCredentials = true
	return config
}
