package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/legacykeep/interaction-service/controllers"
)

func SetupCommentRoutes(protected *gin.RouterGroup, commentController *controllers.CommentController) {
	contents := protected.Group("/contents")
	{
		contents.POST("/:contentId/comments", commentController.CreateComment)
	}

	comments := protected.Group("/comments")
	{
		comments.PUT("/:id", commentController.EditComment)
		comments.DELETE("/:id", commentController.DeleteComment)
		comments.POST("/:id/moderate", commentController.ModerateComment)
		comments.POST("/:id/flag", commentController.FlagComment)
		comments.POST("/:id/like", commentController.LikeComment)
		comments.GET("/:id/thread", commentController.GetThread)
		comments.GET("/:id/history", commentController.GetEditHistory)
	}
}
