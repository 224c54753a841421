package controllers

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/legacykeep/interaction-service/config"
	"github.com/legacykeep/interaction-service/utils"
)

// UploadController issues presigned upload URLs for comment media
// attachments (photos, short videos, voice notes).
type UploadController struct {
	DB       *gorm.DB
	R2Client *s3.Client
	R2Config *config.R2Config
}

type PresignedURLRequest struct {
	FileName    string `json:"fileName" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
	FileSize    int64  `json:"fileSize" binding:"required"`
	MediaType   string `json:"mediaType" binding:"required,oneof=photo video audio"`
}

type PresignedURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	FileURL   string `json:"fileUrl"`
	Key       string `json:"key"`
	ExpiresIn int    `json:"expiresIn"`
}

type MultipleUploadRequest struct {
	Files []PresignedURLRequest `json:"files" binding:"required,dive"`
}

func NewUploadController(db *gorm.DB) *UploadController {
	r2Config := config.GetR2Config()

	// Create R2 client
	r2Client := s3.New(s3.Options{
		BaseEndpoint: aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", r2Config.AccountID)),
		Credentials: credentials.NewStaticCredentialsProvider(
			r2Config.AccessKeyID,
			r2Config.SecretAccessKey,
			"",
		),
		Region: r2Config.Region,
	})

	return &UploadController{
		DB:       db,
		R2Client: r2Client,
		R2Config: r2Config,
	}
}

// GetPresignedURL godoc
// @Summary Presigned upload URL for one comment media attachment
// @Tags uploads
// @Accept json
// @Produce json
// @Param upload body PresignedURLRequest true "Upload request"
// @Success 200 {object} StandardResponse
// @Router /uploads/presigned-url [post]
func (uc *UploadController) GetPresignedURL(c *gin.Context) {
	user := utils.GetUser(c)
	var req PresignedURLRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !uc.isValidFileType(req.ContentType, req.MediaType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file type for media type"})
		return
	}

	if !uc.isValidFileSize(req.FileSize, req.MediaType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File size exceeds limit"})
		return
	}

	key := uc.generateFileKey(user.UserID, req.FileName, req.MediaType)

	presignedURL, err := uc.createPresignedURL(key, req.ContentType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create upload URL"})
		return
	}

	response := PresignedURLResponse{
		UploadURL: presignedURL,
		FileURL:   fmt.Sprintf("%s/%s", uc.R2Config.PublicURL, key),
		Key:       key,
		ExpiresIn: 3600, // 1 hour
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    response,
		Message: "Presigned URL generated successfully",
	})
}

// GetMultiplePresignedURLs godoc
// @Summary Presigned upload URLs for several attachments at once
// @Tags uploads
// @Accept json
// @Produce json
// @Param upload body MultipleUploadRequest true "Upload request"
// @Success 200 {object} StandardResponse
// @Router /uploads/presigned-urls [post]
func (uc *UploadController) GetMultiplePresignedURLs(c *gin.Context) {
	user := utils.GetUser(c)
	var req MultipleUploadRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if len(req.Files) > 5 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Maximum 5 files allowed per comment"})
		return
	}

	var responses []PresignedURLResponse

	for _, fileReq := range req.Files {
		if !uc.isValidFileType(fileReq.ContentType, fileReq.MediaType) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("Invalid file type for %s", fileReq.FileName),
			})
			return
		}

		if !uc.isValidFileSize(fileReq.FileSize, fileReq.MediaType) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("File size exceeds limit for %s", fileReq.FileName),
			})
			return
		}

		key := uc.generateFileKey(user.UserID, fileReq.FileName, fileReq.MediaType)

		presignedURL, err := uc.createPresignedURL(key, fileReq.ContentType)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": fmt.Sprintf("Failed to create upload URL for %s", fileReq.FileName),
			})
			return
		}

		responses = append(responses, PresignedURLResponse{
			UploadURL: presignedURL,
			FileURL:   fmt.Sprintf("%s/%s", uc.R2Config.PublicURL, key),
			Key:       key,
			ExpiresIn: 3600,
		})
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    responses,
	})
}

func (uc *UploadController) isValidFileType(contentType, mediaType string) bool {
	switch mediaType {
	case "photo":
		return strings.HasPrefix(contentType, "image/")
	case "video":
		return strings.HasPrefix(contentType, "video/")
	case "audio":
		return strings.HasPrefix(contentType, "audio/")
	}
	return false
}

func (uc *UploadController) isValidFileSize(fileSize int64, mediaType string) bool {
	switch mediaType {
	case "photo":
		return fileSize <= 10*1024*1024 // 10 MB
	case "video":
		return fileSize <= 100*1024*1024 // 100 MB
	case "audio":
		return fileSize <= 25*1024*1024 // 25 MB
	}
	return false
}

func (uc *UploadController) generateFileKey(userID uint, fileName, mediaType string) string {
	ext := filepath.Ext(fileName)
	return fmt.Sprintf("comments/%s/%d/%s%s", mediaType, userID, uuid.New().String(), ext)
}

func (uc *UploadController) createPresignedURL(key, contentType string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(uc.R2Config.BucketName),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}

	presigner := s3.NewPresignClient(uc.R2Client)
	req, err := presigner.PresignPutObject(context.TODO(), input, func(opts *s3.PresignOptions) {
		opts.Expires = time.Hour // 1 hour expiry
	})

	if err != nil {
		return "", err
	}

	return req.URL, nil
}
