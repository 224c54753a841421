package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/legacykeep/interaction-service/models"
	"github.com/legacykeep/interaction-service/services"
	"github.com/legacykeep/interaction-service/utils"
)

// InteractionController covers the pass-through interaction records:
// ratings, shares and bookmarks. The comment and reaction engines live in
// their own controllers.
type InteractionController struct {
	DB     *gorm.DB
	Events *services.EventService
}

func NewInteractionController(db *gorm.DB, events *services.EventService) *InteractionController {
	return &InteractionController{DB: db, Events: events}
}

type RateContentRequest struct {
	Score  int    `json:"score" binding:"required,min=1,max=5"`
	Review string `json:"review"`
}

type ShareContentRequest struct {
	Audience string `json:"audience" binding:"omitempty,oneof=FAMILY GENERATION EXTERNAL"`
	Message  string `json:"message"`
}

type BookmarkRequest struct {
	Collection string `json:"collection"`
}

// RateContent godoc
// @Summary Rate content, replacing any prior rating by the same user
// @Tags interactions
// @Accept json
// @Produce json
// @Param contentId path string true "Content ID"
// @Success 200 {object} models.Rating
// @Router /contents/{contentId}/rating [put]
func (ic *InteractionController) RateContent(c *gin.Context) {
	user := utils.GetUser(c)
	contentID, ok := parseIDParam(c, "contentId")
	if !ok {
		return
	}

	var req RateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rating, created, err := ic.upsertRating(contentID, user.UserID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	kind := models.EventRatingUpdated
	status := http.StatusOK
	if created {
		kind = models.EventRatingAdded
		status = http.StatusCreated
	}
	ic.Events.Emit(c.Request.Context(),
		models.NewInteractionEvent(kind, user.UserID, contentID, "rating").
			WithPayload("score", req.Score))
	c.JSON(status, rating)
}

// upsertRating creates or replaces the caller's rating of the content. A
// duplicate-key error from a concurrent insert for the same pair is
// retried as an update.
func (ic *InteractionController) upsertRating(contentID, userID uint, req RateContentRequest) (*models.Rating, bool, error) {
	for attempt := 0; attempt < 2; attempt++ {
		var existing models.Rating
		err := ic.DB.Where("content_id = ? AND user_id = ?", contentID, userID).First(&existing).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			rating := models.Rating{
				ContentID: contentID,
				UserID:    userID,
				Score:     req.Score,
				Review:    req.Review,
			}
			if err := ic.DB.Create(&rating).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					// Lost an insert race; the row exists now, update it.
					continue
				}
				return nil, false, err
			}
			return &rating, true, nil

		case err != nil:
			return nil, false, err

		default:
			existing.Score = req.Score
			existing.Review = req.Review
			if err := ic.DB.Save(&existing).Error; err != nil {
				return nil, false, err
			}
			return &existing, false, nil
		}
	}
	return nil, false, fmt.Errorf("rating for content %d: %w", contentID, services.ErrConflict)
}

// ShareContent godoc
// @Summary Record a share of content to an audience
// @Tags interactions
// @Accept json
// @Produce json
// @Param contentId path string true "Content ID"
// @Success 201 {object} models.Share
// @Router /contents/{contentId}/share [post]
func (ic *InteractionController) ShareContent(c *gin.Context) {
	user := utils.GetUser(c)
	contentID, ok := parseIDParam(c, "contentId")
	if !ok {
		return
	}

	var req ShareContentRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Audience == "" {
		req.Audience = models.ShareAudienceFamily
	}

	share := models.Share{
		ContentID: contentID,
		UserID:    user.UserID,
		Audience:  req.Audience,
		Message:   req.Message,
	}
	if err := ic.DB.Create(&share).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record share"})
		return
	}

	ic.Events.Emit(c.Request.Context(),
		models.NewInteractionEvent(models.EventContentShared, user.UserID, contentID, "share").
			WithPayload("audience", share.Audience))
	c.JSON(http.StatusCreated, share)
}

// ToggleBookmark godoc
// @Summary Bookmark or unbookmark content
// @Description Toggles bookmark status for content
// @Tags interactions
// @Accept json
// @Produce json
// @Param contentId path string true "Content ID"
// @Success 200 {object} map[string]interface{}
// @Router /contents/{contentId}/bookmark [post]
func (ic *InteractionController) ToggleBookmark(c *gin.Context) {
	user := utils.GetUser(c)
	contentID, ok := parseIDParam(c, "contentId")
	if !ok {
		return
	}

	var req BookmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bookmarked, err := ic.toggleBookmark(contentID, user.UserID, req.Collection)
	if err != nil {
		respondError(c, err)
		return
	}

	kind := models.EventContentUnbookmarked
	if bookmarked {
		kind = models.EventContentBookmarked
	}
	ic.Events.Emit(c.Request.Context(),
		models.NewInteractionEvent(kind, user.UserID, contentID, "bookmark"))
	c.JSON(http.StatusOK, gin.H{"bookmarked": bookmarked})
}

// toggleBookmark adds or removes the caller's bookmark on the content. A
// duplicate-key error from a concurrent insert for the same pair means the
// bookmark exists, so the retry toggles it off.
func (ic *InteractionController) toggleBookmark(contentID, userID uint, collection string) (bool, error) {
	for attempt := 0; attempt < 2; attempt++ {
		var existing models.Bookmark
		err := ic.DB.Where("content_id = ? AND user_id = ?", contentID, userID).First(&existing).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			bookmark := models.Bookmark{
				ContentID:  contentID,
				UserID:     userID,
				Collection: collection,
			}
			if err := ic.DB.Create(&bookmark).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					continue
				}
				return false, err
			}
			return true, nil

		case err != nil:
			return false, err

		default:
			if err := ic.DB.Delete(&existing).Error; err != nil {
				return false, err
			}
			return false, nil
		}
	}
	return false, fmt.Errorf("bookmark for content %d: %w", contentID, services.ErrConflict)
}

// ListBookmarks godoc
// @Summary List the caller's bookmarks, newest first
// @Tags interactions
// @Produce json
// @Success 200 {object} StandardResponse
// @Router /users/me/bookmarks [get]
func (ic *InteractionController) ListBookmarks(c *gin.Context) {
	user := utils.GetUser(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var total int64
	if err := ic.DB.Model(&models.Bookmark{}).Where("user_id = ?", user.UserID).Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list bookmarks"})
		return
	}

	var bookmarks []models.Bookmark
	if err := ic.DB.Where("user_id = ?", user.UserID).
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&bookmarks).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list bookmarks"})
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    bookmarks,
		Pagination: &PaginationMeta{
			CurrentPage: page,
			PageSize:    pageSize,
			TotalItems:  total,
			TotalPages:  totalPages,
		},
	})
}
