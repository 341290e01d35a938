package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"time"

	"assetdesk/cmd"
	"assetdesk/internal/container"
	"assetdesk/internal/database"
	"assetdesk/internal/logger"
	"assetdesk/internal/middleware"
	"assetdesk/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func init() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load .env file, but don't overwrite system environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found, falling back to system environment variables.")
	}

	cmd.Execute(ctx)
}

func main() {
	appLogger := logger.NewLogger()
	defer appLogger.Sync()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		appLogger.Fatal("DATABASE_URL environment variable is not set")
	}

	db, err := database.NewPostgresConnection(dbURL)
	if err != nil {
		appLogger.Fatal("could not connect to the database: " + err.Error())
	}
	defer db.Close()

	appLogger.Info("Connected to the database successfully")

	go watchDatabaseHealth(db, appLogger)

	app := container.NewAppContainer(db, appLogger)

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(middleware.RecoveryMiddleware(appLogger))
	router.Use(middleware.TimeoutMiddleware(30 * time.Second))

	router.GET("/health", middleware.HealthCheckHandler())
	app.LoginHandler.RegisterRoutes(router)

	api := router.Group("/api")
	api.Use(security.JWTMiddleware())
	app.CategoryHandler.RegisterRoutes(api)
	app.AssetHandler.RegisterRoutes(api)
	app.UserHandler.RegisterRoutes(api)
	app.AssignmentHandler.RegisterRoutes(api)
	app.ReturnHandler.RegisterRoutes(api)
	app.AuditLogHandler.RegisterRoutes(api)

	if err := router.Run(os.Getenv("APP_HOST")); err != nil {
		appLogger.Fatal("server stopped: " + err.Error())
	}
}

// watchDatabaseHealth keeps the health endpoint honest about database
// connectivity.
func watchDatabaseHealth(db *sql.DB, log *zap.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		if err := db.Ping(); err != nil {
			log.Warn("database ping failed", zap.Error(err))
			middleware.UpdateHealthStatus("degraded")
			continue
		}
		middleware.UpdateHealthStatus("ok")
	}
}
