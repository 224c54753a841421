package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/legacykeep/interaction-service/config"
	"github.com/legacykeep/interaction-service/routes"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, using environment variables")
	}

	// Initialize database
	db := config.InitDB()

	// Event stream client; optional, the publisher drops events without it
	redisClient, err := config.InitRedis()
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	if redisClient == nil {
		logger.Warn("REDIS_URL not set, interaction events will not be delivered")
	} else {
		defer redisClient.Close()
	}

	// Create a new Gin router
	r := gin.Default()

	// Add logging middleware
	r.Use(gin.LoggerWithWriter(os.Stdout))

	// Initialize routes
	routes.SetupRoutes(r, db, redisClient, logger)

	// Start the server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Info("Starting interaction service", zap.String("port", port))
	if err := r.Run(":" + port); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}
