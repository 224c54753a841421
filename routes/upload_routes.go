package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/legacykeep/interaction-service/controllers"
)

func SetupUploadRoutes(protected *gin.RouterGroup, uploadController *controllers.UploadController) {
	uploads := protected.Group("/uploads")
	{
		uploads.POST("/presigned-url", uploadController.GetPresignedURL)
		uploads.POST("/presigned-urls", uploadController.GetMultiplePresignedURLs)
	}
}
