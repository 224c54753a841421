package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/legacykeep/interaction-service/controllers"
)

func SetupInteractionRoutes(protected *gin.RouterGroup, interactionController *controllers.InteractionController) {
	contents := protected.Group("/contents")
	{
		contents.PUT("/:contentId/rating", interactionController.RateContent)
		contents.POST("/:contentId/share", interactionController.ShareContent)
		contents.POST("/:contentId/bookmark", interactionController.ToggleBookmark)
	}

	users := protected.Group("/users")
	{
		users.GET("/me/bookmarks", interactionController.ListBookmarks)
	}
}
