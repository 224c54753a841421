package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/legacykeep/interaction-service/controllers"
)

func SetupReactionRoutes(protected *gin.RouterGroup, reactionController *controllers.ReactionController) {
	contents := protected.Group("/contents")
	{
		contents.PUT("/:contentId/reactions", reactionController.UpsertReaction)
		contents.DELETE("/:contentId/reactions", reactionController.RemoveReaction)
		contents.GET("/:contentId/reactions/summary", reactionController.GetReactionSummary)
	}

	reactions := protected.Group("/reactions")
	{
		reactions.GET("/types", reactionController.ListReactionTypes)
	}
}
