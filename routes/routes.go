package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/legacykeep/interaction-service/clients"
	"github.com/legacykeep/interaction-service/controllers"
	"github.com/legacykeep/interaction-service/middleware"
	"github.com/legacykeep/interaction-service/services"
)

func SetupRoutes(r *gin.Engine, db *gorm.DB, redisClient rueidis.Client, logger *zap.Logger) {
	// Services
	eventService := services.NewEventService(redisClient, logger)
	commentService := services.NewCommentService(db, eventService, logger)
	reactionService := services.NewReactionService(db, eventService, logger)

	// External collaborators
	profileClient := clients.NewProfileClient()
	familyClient := clients.NewFamilyClient()

	// Controllers
	commentController := controllers.NewCommentController(commentService, profileClient, familyClient, logger)
	reactionController := controllers.NewReactionController(reactionService)
	interactionController := controllers.NewInteractionController(db, eventService)
	uploadController := controllers.NewUploadController(db)

	// Protected routes; actor identity comes from the gateway-issued token
	protected := r.Group("/api")
	protected.Use(middleware.AuthMiddleware())
	{
		SetupCommentRoutes(protected, commentController)
		SetupReactionRoutes(protected, reactionController)
		SetupInteractionRoutes(protected, interactionController)
		SetupUploadRoutes(protected, uploadController)
	}
}
